package edges

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ritzau/centrality-analyzer/pkg/graph"
	"github.com/ritzau/centrality-analyzer/pkg/logging"
)

// ErrInputUnavailable is returned when the edge input cannot be opened or read.
var ErrInputUnavailable = errors.New("edge input unavailable")

// Stats counts what happened to the records of one load.
type Stats struct {
	Records  int `json:"records"`
	Accepted int `json:"accepted"`
	Skipped  int `json:"skipped"`
}

// Source supplies the edge list for an analysis run.
type Source interface {
	// Name identifies the source in logs
	Name() string

	// Load returns the well-formed edges in input order.
	Load(ctx context.Context) ([]graph.Edge, Stats, error)
}

// ReadOptions controls how CSV records are interpreted
type ReadOptions struct {
	// Header skips the first record
	Header bool
	// Delimiter defaults to ','
	Delimiter rune
}

// CSVSource reads edges from a CSV file with two fields per record.
type CSVSource struct {
	path string
	opts ReadOptions
}

// NewCSVSource creates a source for the CSV file at path.
func NewCSVSource(path string, opts ReadOptions) *CSVSource {
	return &CSVSource{path: path, opts: opts}
}

func (s *CSVSource) Name() string {
	return "csv:" + s.path
}

// Path returns the file the source reads
func (s *CSVSource) Path() string {
	return s.path
}

func (s *CSVSource) Load(ctx context.Context) ([]graph.Edge, Stats, error) {
	logger := logging.New("source.csv")

	f, err := os.Open(s.path)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("%w: %w", ErrInputUnavailable, err)
	}
	defer f.Close()

	edges, stats, err := ReadCSV(ctx, f, s.opts)
	if err != nil {
		return nil, stats, fmt.Errorf("reading %s: %w", s.path, err)
	}

	logger.Info("loaded edges", "path", s.path, "edges", stats.Accepted, "skipped", stats.Skipped)
	return edges, stats, nil
}

// ReadCSV parses records from r. Every field is trimmed of surrounding
// whitespace. Records that do not have exactly two fields, or that the CSV
// parser rejects, are dropped and counted in Stats.Skipped.
func ReadCSV(ctx context.Context, r io.Reader, opts ReadOptions) ([]graph.Edge, Stats, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = true
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}

	var (
		edges      []graph.Edge
		stats      Stats
		skipHeader = opts.Header
	)

	for {
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}

		record, err := reader.Read()
		if err == io.EOF {
			break
		}

		if skipHeader {
			skipHeader = false
			if err == nil || isParseError(err) {
				continue
			}
		}

		if err != nil {
			if isParseError(err) {
				stats.Records++
				stats.Skipped++
				logging.Debug("skipping unparsable record", "error", err)
				continue
			}
			return nil, stats, fmt.Errorf("%w: %w", ErrInputUnavailable, err)
		}

		stats.Records++
		if len(record) != 2 {
			stats.Skipped++
			continue
		}

		edges = append(edges, graph.Edge{
			From: strings.TrimSpace(record[0]),
			To:   strings.TrimSpace(record[1]),
		})
		stats.Accepted++
	}

	return edges, stats, nil
}

func isParseError(err error) bool {
	var pe *csv.ParseError
	return errors.As(err, &pe)
}
