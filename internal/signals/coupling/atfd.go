package coupling

import (
	"context"

	"refactor-bot/internal/model/entity"
	"refactor-bot/internal/signals"
	"refactor-bot/internal/signals/utils"
)

// ATFDSignal measures Access To Foreign Data: the distinct attributes of other
// classes an entity reads, directly or through their accessor methods.
// For a class it is taken over all of its members.
type ATFDSignal struct {
	accessors *utils.AccessorDetector
}

// NewATFDSignal creates a new ATFD signal
func NewATFDSignal() *ATFDSignal {
	return &ATFDSignal{accessors: utils.NewAccessorDetector()}
}

func (s *ATFDSignal) Name() string {
	return "ATFD"
}

func (s *ATFDSignal) Category() signals.SignalCategory {
	return signals.CategoryCoupling
}

func (s *ATFDSignal) Description() string {
	return "Access To Foreign Data - number of external class attributes accessed"
}

func (s *ATFDSignal) Calculate(ctx context.Context, graph *entity.Graph, id entity.ID) (float64, error) {
	count := 0
	for n := range foreign(graph, id, graph.References) {
		e := graph.Entity(n)
		switch {
		case e.Kind == entity.KindField:
			count++
		case e.Kind == entity.KindMethod && s.accessors.IsAccessorSignature(e.Identifier):
			count++
		}
	}
	return float64(count), nil
}
