// Package combiner merges the proposals of several algorithm runs.
package combiner

import (
	"errors"
	"fmt"
	"math"

	"refactor-bot/internal/algorithms"
)

// ErrDuplicateRefactoring is returned when one algorithm proposes to move the same entity twice
var ErrDuplicateRefactoring = errors.New("duplicate refactoring")

const (
	ModeCombine   = "combine"
	ModeIntersect = "intersect"
)

// FromResults collects the proposals of the successful results; failed ones are ignored
func FromResults(results []*algorithms.AlgorithmResult) [][]algorithms.Refactoring {
	var sets [][]algorithms.Refactoring
	for _, r := range results {
		if r == nil || r.Failed() {
			continue
		}
		sets = append(sets, r.Refactorings)
	}
	return sets
}

func index(set []algorithms.Refactoring) (map[string]algorithms.Refactoring, error) {
	byEntity := make(map[string]algorithms.Refactoring, len(set))
	for _, r := range set {
		if _, exists := byEntity[r.Entity]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateRefactoring, r.Entity)
		}
		byEntity[r.Entity] = r
	}
	return byEntity, nil
}

// Intersect keeps the (entity, target) pairs proposed by every set, scored
// with the lowest accuracy among them
func Intersect(sets [][]algorithms.Refactoring) ([]algorithms.Refactoring, error) {
	if len(sets) == 0 {
		return []algorithms.Refactoring{}, nil
	}
	indexed := make([]map[string]algorithms.Refactoring, len(sets))
	for i, set := range sets {
		byEntity, err := index(set)
		if err != nil {
			return nil, err
		}
		indexed[i] = byEntity
	}

	result := []algorithms.Refactoring{}
	for entity, first := range indexed[0] {
		accuracy := first.Accuracy
		shared := true
		for _, other := range indexed[1:] {
			r, ok := other[entity]
			if !ok || r.Target != first.Target {
				shared = false
				break
			}
			accuracy = math.Min(accuracy, r.Accuracy)
		}
		if shared {
			result = append(result, algorithms.Refactoring{Entity: entity, Target: first.Target, Accuracy: accuracy})
		}
	}
	algorithms.SortRefactorings(result)
	return result, nil
}

// Combine groups proposals by entity, picks the target with the largest sum
// of squared accuracies and scores it sqrt(sum / len(sets)). Targets with
// equal sums resolve to the smallest identifier.
func Combine(sets [][]algorithms.Refactoring) ([]algorithms.Refactoring, error) {
	if len(sets) == 0 {
		return []algorithms.Refactoring{}, nil
	}
	squares := make(map[string]map[string]float64)
	for _, set := range sets {
		if _, err := index(set); err != nil {
			return nil, err
		}
		for _, r := range set {
			if squares[r.Entity] == nil {
				squares[r.Entity] = make(map[string]float64)
			}
			squares[r.Entity][r.Target] += r.Accuracy * r.Accuracy
		}
	}

	result := make([]algorithms.Refactoring, 0, len(squares))
	for entity, targets := range squares {
		best, bestSum, found := "", 0.0, false
		for target, sum := range targets {
			if !found || sum > bestSum || (sum == bestSum && target < best) {
				best, bestSum, found = target, sum, true
			}
		}
		result = append(result, algorithms.Refactoring{
			Entity:   entity,
			Target:   best,
			Accuracy: math.Sqrt(bestSum / float64(len(sets))),
		})
	}
	algorithms.SortRefactorings(result)
	return result, nil
}

// Merge applies the named mode to the successful results
func Merge(mode string, results []*algorithms.AlgorithmResult) ([]algorithms.Refactoring, error) {
	sets := FromResults(results)
	switch mode {
	case "", ModeCombine:
		return Combine(sets)
	case ModeIntersect:
		return Intersect(sets)
	default:
		return nil, fmt.Errorf("unknown combination mode: %s", mode)
	}
}
