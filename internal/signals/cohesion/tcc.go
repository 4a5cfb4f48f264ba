package cohesion

import (
	"context"

	"refactor-bot/internal/model/entity"
	"refactor-bot/internal/signals"
	"refactor-bot/internal/signals/utils"
)

// TCCSignal measures Tight Class Cohesion
// TCC = Number of Directly Connected method pairs / Total possible pairs
// Two methods are directly connected if they use at least one common field of the class
type TCCSignal struct {
	accessors *utils.AccessorDetector
}

// NewTCCSignal creates a new TCC signal
func NewTCCSignal() *TCCSignal {
	return &TCCSignal{
		accessors: utils.NewAccessorDetector(),
	}
}

func (s *TCCSignal) Name() string {
	return "TCC"
}

func (s *TCCSignal) Category() signals.SignalCategory {
	return signals.CategoryCohesion
}

func (s *TCCSignal) Description() string {
	return "Tight Class Cohesion - ratio of directly connected method pairs to total pairs"
}

func (s *TCCSignal) Calculate(ctx context.Context, graph *entity.Graph, id entity.ID) (float64, error) {
	class := signals.ClassOf(graph, id)

	// TCC only considers non-trivial methods
	var methods []entity.ID
	for _, m := range graph.Members(class) {
		e := graph.Entity(m)
		if e.Kind != entity.KindMethod || e.Constructor || s.accessors.IsAccessorSignature(e.Identifier) {
			continue
		}
		methods = append(methods, m)
	}
	n := len(methods)

	// If 0 or 1 method, cohesion is perfect (1.0) or undefined
	if n <= 1 {
		return 1.0, nil
	}

	usedFields := make([]map[entity.ID]bool, n)
	for i, m := range methods {
		usedFields[i] = make(map[entity.ID]bool)
		for _, ref := range graph.References(m) {
			target := graph.Entity(ref)
			if target.Kind == entity.KindField && target.Class == class {
				usedFields[i][ref] = true
			}
		}
	}

	totalPairs := n * (n - 1) / 2
	connectedPairs := 0
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if shareAny(usedFields[i], usedFields[j]) {
				connectedPairs++
			}
		}
	}

	return float64(connectedPairs) / float64(totalPairs), nil
}

func shareAny(a, b map[entity.ID]bool) bool {
	for f := range a {
		if b[f] {
			return true
		}
	}
	return false
}
