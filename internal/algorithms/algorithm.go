package algorithms

import (
	"refactor-bot/internal/attributes"
	"refactor-bot/internal/execution"
)

// Algorithm is one independent move-recommendation strategy
type Algorithm interface {
	// Name returns the unique identifier for this algorithm
	Name() string

	// RequiredMetrics lists the metrics the storage must carry for every entity
	RequiredMetrics() []string

	// Calculate turns the attributes of one run into scored move proposals
	Calculate(ec *execution.Context, storage *attributes.Storage) ([]Refactoring, error)
}
