package centrality

import "errors"

var (
	// ErrInsufficientNodes is returned when a ranking asks for more nodes
	// than the graph has. The ranking is not truncated.
	ErrInsufficientNodes = errors.New("insufficient nodes for ranking")

	// ErrInvalidTopK is returned for a ranking size below one.
	ErrInvalidTopK = errors.New("ranking size must be positive")
)
