package web

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ritzau/centrality-analyzer/pkg/analysis"
	"github.com/ritzau/centrality-analyzer/pkg/centrality"
	"github.com/ritzau/centrality-analyzer/pkg/graph"
	"github.com/ritzau/centrality-analyzer/pkg/pubsub"
)

func snapshot(t *testing.T, directed bool, edges ...graph.Edge) *analysis.Snapshot {
	t.Helper()
	var g *graph.Graph
	if directed {
		g = graph.BuildDirected(edges)
	} else {
		g = graph.BuildUndirected(edges)
	}
	result, err := centrality.NewEngine().Compute(context.Background(), g, nil)
	if err != nil {
		t.Fatal(err)
	}
	return &analysis.Snapshot{
		Source:  "test",
		Reason:  "initial",
		Summary: graph.Summarize(g),
		Top:     result.Ranked(),
		Graph:   g,
		Result:  result,
	}
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestEndpointsBeforeAnalysis(t *testing.T) {
	s := NewServer()
	defer s.publisher.Close()

	for _, path := range []string{"/api/graph", "/api/centrality", "/api/nodes/A"} {
		if rec := get(t, s, path); rec.Code != http.StatusServiceUnavailable {
			t.Errorf("%s: expected 503, got %d", path, rec.Code)
		}
	}
}

func TestGraphEndpoint(t *testing.T) {
	s := NewServer()
	defer s.publisher.Close()
	s.Completed(snapshot(t, false,
		graph.Edge{From: "A", To: "B"},
		graph.Edge{From: "B", To: "C"},
		graph.Edge{From: "C", To: "C"},
	))

	rec := get(t, s, "/api/graph")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("Expected X-Request-ID header")
	}

	var data GraphData
	if err := json.NewDecoder(rec.Body).Decode(&data); err != nil {
		t.Fatal(err)
	}
	if data.Directed {
		t.Error("Expected undirected graph")
	}
	if data.Summary.Nodes != 3 || data.Summary.SelfLoops != 1 {
		t.Errorf("Unexpected summary: %+v", data.Summary)
	}
	if len(data.Nodes) != 3 {
		t.Fatalf("Expected 3 nodes, got %d", len(data.Nodes))
	}
	if data.Nodes[1].ID != "B" || data.Nodes[1].Score != 2 {
		t.Errorf("Unexpected node B: %+v", data.Nodes[1])
	}
	// Every input edge is listed exactly once, the self loop included
	if len(data.Edges) != 3 {
		t.Errorf("Expected 3 edges, got %+v", data.Edges)
	}
}

func TestGraphEndpointDirected(t *testing.T) {
	s := NewServer()
	defer s.publisher.Close()
	s.Completed(snapshot(t, true,
		graph.Edge{From: "B", To: "A"},
		graph.Edge{From: "A", To: "A"},
	))

	var data GraphData
	if err := json.NewDecoder(get(t, s, "/api/graph").Body).Decode(&data); err != nil {
		t.Fatal(err)
	}
	if !data.Directed || len(data.Edges) != 2 {
		t.Errorf("Expected 2 directed edges, got %+v", data)
	}
}

func TestCentralityEndpoint(t *testing.T) {
	s := NewServer()
	defer s.publisher.Close()
	s.Completed(snapshot(t, false, graph.Edge{From: "A", To: "B"}, graph.Edge{From: "B", To: "C"}))

	rec := get(t, s, "/api/centrality")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var body struct {
		Source string             `json:"source"`
		Top    []centrality.Score `json:"top"`
		Scores []centrality.Score `json:"scores"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Source != "test" {
		t.Errorf("Expected source test, got %q", body.Source)
	}
	if len(body.Scores) != 3 || body.Scores[0].Label != "A" {
		t.Errorf("Scores should be in index order: %+v", body.Scores)
	}
	if len(body.Top) == 0 || body.Top[0].Label != "B" {
		t.Errorf("Expected B to rank first: %+v", body.Top)
	}
}

func TestNodeEndpoint(t *testing.T) {
	s := NewServer()
	defer s.publisher.Close()
	s.Completed(snapshot(t, false, graph.Edge{From: "A", To: "B"}, graph.Edge{From: "B", To: "C"}))

	rec := get(t, s, "/api/nodes/B")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var detail NodeDetail
	if err := json.NewDecoder(rec.Body).Decode(&detail); err != nil {
		t.Fatal(err)
	}
	if detail.Rank != 1 || detail.Score != 2 || detail.Degree != 2 {
		t.Errorf("Unexpected detail: %+v", detail)
	}
	if strings.Join(detail.Neighbors, ",") != "A,C" {
		t.Errorf("Expected neighbors A,C, got %v", detail.Neighbors)
	}

	if rec := get(t, s, "/api/nodes/Z"); rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown node, got %d", rec.Code)
	}
}

func TestSubscribeUnknownTopic(t *testing.T) {
	s := NewServer()
	defer s.publisher.Close()

	if rec := get(t, s, "/api/subscribe/nope"); rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", rec.Code)
	}
}

func TestSubscribeReplaysStatus(t *testing.T) {
	s := NewServer()
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()
	defer s.publisher.Close()

	s.Status(pubsub.AnalysisStatus{State: "computing", Step: 3, Total: 4})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/subscribe/"+pubsub.TopicAnalysisStatus, nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Unexpected content type %q", ct)
	}

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var event pubsub.Event
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &event); err != nil {
			t.Fatal(err)
		}
		if event.Type != "computing" {
			t.Errorf("Expected replayed computing status, got %s", event.Type)
		}
		return
	}
	t.Fatalf("No event received: %v", scanner.Err())
}
