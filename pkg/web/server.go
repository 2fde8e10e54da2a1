package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/ritzau/centrality-analyzer/pkg/analysis"
	"github.com/ritzau/centrality-analyzer/pkg/centrality"
	"github.com/ritzau/centrality-analyzer/pkg/graph"
	"github.com/ritzau/centrality-analyzer/pkg/logging"
	"github.com/ritzau/centrality-analyzer/pkg/pubsub"
)

// GraphNode represents a node in the graph view
type GraphNode struct {
	ID     string  `json:"id"`
	Index  int     `json:"index"`
	Degree int     `json:"degree"`
	Score  float64 `json:"score"`
}

// GraphEdge represents an edge in the graph view. Duplicate input edges are
// listed once per occurrence.
type GraphEdge struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// GraphData holds the analysed graph for visualization
type GraphData struct {
	Directed bool          `json:"directed"`
	Summary  graph.Summary `json:"summary"`
	Nodes    []GraphNode   `json:"nodes"`
	Edges    []GraphEdge   `json:"edges"`
}

// NodeDetail is the per-node view served by /api/nodes/{label}
type NodeDetail struct {
	Label     string   `json:"label"`
	Index     int      `json:"index"`
	Score     float64  `json:"score"`
	Rank      int      `json:"rank"` // 1-based position in the full ranking
	Degree    int      `json:"degree"`
	Neighbors []string `json:"neighbors"`
}

// CentralityCompleted is published on the centrality topic after each run
type CentralityCompleted struct {
	Source string             `json:"source"`
	Reason string             `json:"reason"`
	Nodes  int                `json:"nodes"`
	Edges  int                `json:"edges"`
	Top    []centrality.Score `json:"top"`
}

var topics = map[string]pubsub.TopicConfig{
	// Only the current state matters to a new subscriber
	pubsub.TopicAnalysisStatus: {BufferSize: 10},
	pubsub.TopicCentrality:     {BufferSize: 5},
}

// Server serves the latest analysis snapshot over HTTP
type Server struct {
	router    *mux.Router
	publisher *pubsub.SSEPublisher

	mu       sync.RWMutex
	snapshot *analysis.Snapshot
}

// NewServer creates a new web server
func NewServer() *Server {
	publisher := pubsub.NewSSEPublisher()
	for name, cfg := range topics {
		publisher.ConfigureTopic(name, cfg)
	}

	s := &Server{
		router:    mux.NewRouter(),
		publisher: publisher,
	}
	s.setupRoutes()
	return s
}

// Status publishes a progress update to analysis_status subscribers
func (s *Server) Status(status pubsub.AnalysisStatus) {
	if err := s.publisher.Publish(pubsub.TopicAnalysisStatus, status.State, status); err != nil {
		logging.Warn("failed to publish status", "state", status.State, "error", err)
	}
}

// Completed stores snap as the served snapshot and announces it
func (s *Server) Completed(snap *analysis.Snapshot) {
	s.mu.Lock()
	s.snapshot = snap
	s.mu.Unlock()

	event := CentralityCompleted{
		Source: snap.Source,
		Reason: snap.Reason,
		Nodes:  snap.Summary.Nodes,
		Edges:  snap.Summary.Edges,
		Top:    snap.Top,
	}
	if err := s.publisher.Publish(pubsub.TopicCentrality, "ready", event); err != nil {
		logging.Warn("failed to publish centrality", "error", err)
	}
}

func (s *Server) current() *analysis.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/api/subscribe/{topic}", s.handleSubscribe).Methods("GET")

	s.router.HandleFunc("/api/graph", s.handleGraph).Methods("GET")
	s.router.HandleFunc("/api/centrality", s.handleCentrality).Methods("GET")
	s.router.HandleFunc("/api/nodes/{label}", s.handleNode).Methods("GET")
}

// Handler returns the router wrapped with request logging
func (s *Server) Handler() http.Handler {
	return logging.RequestIDMiddleware(s.router)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("failed to encode response", "error", err)
	}
}

func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	topic := mux.Vars(r)["topic"]
	if _, ok := topics[topic]; !ok {
		http.Error(w, fmt.Sprintf("Unknown topic: %s", topic), http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	sub, err := s.publisher.Subscribe(r.Context(), topic)
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	defer sub.Close()

	// Initial comment establishes the stream before the first event
	fmt.Fprintf(w, ": connected\n\n")
	flush(w)

	for event := range sub.Events() {
		if err := pubsub.WriteSSE(w, event); err != nil {
			logging.Debug("subscriber went away", "topic", topic, "error", err)
			return
		}
		flush(w)
	}
}

func flush(w http.ResponseWriter) {
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	snap := s.current()
	if snap == nil {
		http.Error(w, "Analysis not available yet", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, buildGraphData(snap))
}

func (s *Server) handleCentrality(w http.ResponseWriter, r *http.Request) {
	snap := s.current()
	if snap == nil {
		http.Error(w, "Analysis not available yet", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, struct {
		*analysis.Snapshot
		Scores []centrality.Score `json:"scores"`
	}{snap, snap.Result.Scores()})
}

func (s *Server) handleNode(w http.ResponseWriter, r *http.Request) {
	snap := s.current()
	if snap == nil {
		http.Error(w, "Analysis not available yet", http.StatusServiceUnavailable)
		return
	}

	label := mux.Vars(r)["label"]
	detail, ok := buildNodeDetail(snap, label)
	if !ok {
		http.Error(w, fmt.Sprintf("Node not found: %s", label), http.StatusNotFound)
		return
	}
	writeJSON(w, detail)
}

func buildGraphData(snap *analysis.Snapshot) *GraphData {
	g := snap.Graph
	data := &GraphData{
		Directed: g.Directed(),
		Summary:  snap.Summary,
		Nodes:    make([]GraphNode, 0, g.NodeCount()),
		Edges:    make([]GraphEdge, 0, g.EdgeCount()),
	}

	scores := snap.Result.Scores()
	for i := 0; i < g.NodeCount(); i++ {
		data.Nodes = append(data.Nodes, GraphNode{
			ID:     g.Label(i),
			Index:  i,
			Degree: g.Degree(i),
			Score:  scores[i].Value,
		})
	}

	// Undirected adjacency holds each edge twice; a self loop appears twice
	// in its own list.
	for u := 0; u < g.NodeCount(); u++ {
		loops := 0
		for _, v := range g.Neighbors(u) {
			switch {
			case g.Directed(), u < v:
			case u == v:
				loops++
				if loops%2 == 0 {
					continue
				}
			default:
				continue
			}
			data.Edges = append(data.Edges, GraphEdge{Source: g.Label(u), Target: g.Label(v)})
		}
	}
	return data
}

func buildNodeDetail(snap *analysis.Snapshot, label string) (*NodeDetail, bool) {
	g := snap.Graph
	i, ok := g.Index(label)
	if !ok {
		return nil, false
	}

	rank := 0
	for pos, s := range snap.Result.Ranked() {
		if s.Index == i {
			rank = pos + 1
			break
		}
	}

	neighbors := make([]string, 0, g.Degree(i))
	for _, v := range g.Neighbors(i) {
		neighbors = append(neighbors, g.Label(v))
	}

	score, _ := snap.Result.Lookup(label)
	return &NodeDetail{
		Label:     label,
		Index:     i,
		Score:     score.Value,
		Rank:      rank,
		Degree:    g.Degree(i),
		Neighbors: neighbors,
	}, true
}

// Start serves on port until ctx is done, then shuts down gracefully
func (s *Server) Start(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info("starting web server", "url", fmt.Sprintf("http://localhost:%d", port))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.publisher.Close()
		return fmt.Errorf("web server: %w", err)
	case <-ctx.Done():
	}

	// Closing the publisher ends open SSE streams so Shutdown can finish
	s.publisher.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("web server shutdown: %w", err)
	}
	logging.Info("web server stopped")
	return nil
}
