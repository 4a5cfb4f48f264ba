// Package ari assigns every movable method and field to its nearest class.
package ari

import (
	"math"

	"refactor-bot/internal/algorithms"
	"refactor-bot/internal/attributes"
	"refactor-bot/internal/distance"
	"refactor-bot/internal/execution"
	"refactor-bot/internal/model/entity"

	"go.uber.org/zap"
)

const Name = "ARI"

// Algorithm is nearest-centroid assignment with gap based accuracy
type Algorithm struct {
	strategy distance.Strategy
}

// New creates the algorithm; a nil strategy means relevance distance
func New(strategy distance.Strategy) *Algorithm {
	if strategy == nil {
		strategy = distance.Relevance()
	}
	return &Algorithm{strategy: strategy}
}

func (a *Algorithm) Name() string {
	return Name
}

func (a *Algorithm) RequiredMetrics() []string {
	return a.strategy.RequiredMetrics()
}

func (a *Algorithm) Calculate(ec *execution.Context, storage *attributes.Storage) ([]algorithms.Refactoring, error) {
	calculator, err := a.strategy.New(storage)
	if err != nil {
		return nil, err
	}
	classes := storage.Classes()
	if len(classes) == 0 {
		return nil, nil
	}

	var candidates []*attributes.Attributes
	for _, attr := range storage.Inner() {
		if attr.Entity.Movable {
			candidates = append(candidates, attr)
		}
	}
	ec.Logger().Debug("Assigning entities to nearest class",
		zap.Int("candidates", len(candidates)),
		zap.Int("classes", len(classes)))

	return execution.RunParallel(ec, candidates,
		func() []algorithms.Refactoring { return nil },
		func(attr *attributes.Attributes, acc []algorithms.Refactoring) ([]algorithms.Refactoring, error) {
			if r, ok := assign(storage.Graph(), calculator, classes, attr); ok {
				acc = append(acc, r)
			}
			return acc, nil
		},
		func(x, y []algorithms.Refactoring) []algorithms.Refactoring { return append(x, y...) })
}

// assign finds the nearest class of attr. Equidistant classes resolve to the
// origin class first, then to the smallest identifier.
func assign(graph *entity.Graph, calculator distance.Calculator, classes []*attributes.Attributes, attr *attributes.Attributes) (algorithms.Refactoring, bool) {
	origin := attr.Entity.Class
	best, second := math.Inf(1), math.Inf(1)
	var target *attributes.Attributes

	for _, class := range classes {
		d := calculator.Distance(attr, class)
		switch {
		case target == nil || d < best || (d == best && class.Entity.ID == origin):
			if target != nil {
				second = best
			}
			best, target = d, class
		case d < second:
			second = d
		}
	}

	if target == nil || target.Entity.ID == origin {
		return algorithms.Refactoring{}, false
	}
	if graph.InheritanceRelated(target.Entity.ID, origin) {
		return algorithms.Refactoring{}, false
	}
	if algorithms.OverrideConflict(graph, attr.Entity, target.Entity.ID) {
		return algorithms.Refactoring{}, false
	}

	return algorithms.Refactoring{
		Entity:   attr.Entity.Identifier,
		Target:   target.Entity.Identifier,
		Accuracy: algorithms.GapAccuracy(best, second-best),
	}, true
}
