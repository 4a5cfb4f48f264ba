// Package akmeans reassigns movable methods and fields between class seeded
// clusters using complete linkage, keeping override relations intact.
package akmeans

import (
	"fmt"
	"math"

	"refactor-bot/internal/algorithms"
	"refactor-bot/internal/attributes"
	"refactor-bot/internal/distance"
	"refactor-bot/internal/execution"
	"refactor-bot/internal/model/entity"

	"go.uber.org/zap"
)

const (
	Name = "AKMeans"

	DefaultSteps = 50

	unassigned = -1
)

// Algorithm is constrained k-means over complete-linkage distances
type Algorithm struct {
	steps    int
	strategy distance.Strategy
}

// New creates the algorithm; steps <= 0 means DefaultSteps and a nil strategy
// means relevance distance
func New(steps int, strategy distance.Strategy) *Algorithm {
	if steps <= 0 {
		steps = DefaultSteps
	}
	if strategy == nil {
		strategy = distance.Relevance()
	}
	return &Algorithm{steps: steps, strategy: strategy}
}

func (a *Algorithm) Name() string {
	return Name
}

func (a *Algorithm) RequiredMetrics() []string {
	return a.strategy.RequiredMetrics()
}

type cluster struct {
	// class is the seeding class, entity.NoID for clusters opened during the run
	class entity.ID
	fixed []entity.ID
}

func (a *Algorithm) Calculate(ec *execution.Context, storage *attributes.Storage) ([]algorithms.Refactoring, error) {
	calculator, err := a.strategy.New(storage)
	if err != nil {
		return nil, err
	}
	graph := storage.Graph()

	var clusters []*cluster
	seeded := make(map[entity.ID]int)
	for _, attr := range storage.Classes() {
		seeded[attr.Entity.ID] = len(clusters)
		clusters = append(clusters, &cluster{class: attr.Entity.ID, fixed: []entity.ID{attr.Entity.ID}})
	}

	var loose []entity.ID
	for _, attr := range storage.Inner() {
		if attr.Entity.Movable {
			loose = append(loose, attr.Entity.ID)
			continue
		}
		c := clusters[seeded[attr.Entity.Class]]
		c.fixed = append(c.fixed, attr.Entity.ID)
	}

	assignment := make([]int, len(loose))
	for i := range assignment {
		assignment[i] = unassigned
	}
	positions := make([]int, len(loose))
	for i := range positions {
		positions[i] = i
	}

	scan := ec.WithProgress(execution.NewProgress(nil))
	step := 0
	for ; step < a.steps; step++ {
		if err := ec.Check(); err != nil {
			return nil, err
		}
		members := snapshot(clusters, loose, assignment)

		decisions, err := execution.Map(scan, positions, func(i int) (int, error) {
			return nearest(graph, storage, calculator, clusters, members, loose[i], assignment[i]), nil
		})
		if err != nil {
			return nil, err
		}

		changed := 0
		for i, decision := range decisions {
			if decision == unassigned {
				decision = len(clusters)
				clusters = append(clusters, &cluster{class: entity.NoID})
			}
			if decision != assignment[i] {
				assignment[i] = decision
				changed++
			}
		}
		ec.Logger().Debug("Reassigned entities",
			zap.Int("step", step),
			zap.Int("changed", changed),
			zap.Int("clusters", len(clusters)))
		ec.Progress().Set(float64(step+1) / float64(a.steps))
		if changed == 0 {
			break
		}
	}
	ec.Progress().Done()

	return name(graph, snapshot(clusters, loose, assignment), clusters), nil
}

func snapshot(clusters []*cluster, loose []entity.ID, assignment []int) [][]entity.ID {
	members := make([][]entity.ID, len(clusters))
	for c, cl := range clusters {
		members[c] = append([]entity.ID(nil), cl.fixed...)
	}
	for i, c := range assignment {
		if c != unassigned {
			members[c] = append(members[c], loose[i])
		}
	}
	return members
}

// nearest returns the legal cluster with the smallest complete-linkage
// distance to e. With no legal candidate e keeps its cluster, or asks for a
// new one (unassigned) when it has none.
func nearest(graph *entity.Graph, storage *attributes.Storage, calculator distance.Calculator,
	clusters []*cluster, members [][]entity.ID, e entity.ID, current int) int {
	self := storage.Get(e)
	origin := graph.Entity(e).Class

	best, bestDistance := unassigned, math.Inf(1)
	for c := range members {
		if !legal(graph, clusters[c], members[c], e, origin) {
			continue
		}
		linkage, ok := completeLinkage(storage, calculator, members[c], self)
		if !ok {
			continue
		}
		if linkage < bestDistance {
			best, bestDistance = c, linkage
		}
	}
	if best == unassigned {
		return current
	}
	return best
}

// completeLinkage is the largest distance from self to another cluster member
func completeLinkage(storage *attributes.Storage, calculator distance.Calculator, members []entity.ID, self *attributes.Attributes) (float64, bool) {
	linkage, found := 0.0, false
	for _, m := range members {
		if m == self.Entity.ID {
			continue
		}
		linkage = math.Max(linkage, calculator.Distance(self, storage.Get(m)))
		found = true
	}
	return linkage, found
}

// legal forbids clusters holding a method that shares an ancestor method with
// e, and foreign class clusters whose hierarchy would break e's overrides
func legal(graph *entity.Graph, cl *cluster, members []entity.ID, e, origin entity.ID) bool {
	for _, m := range members {
		if m != e && graph.ShareAncestorMethod(e, m) {
			return false
		}
	}
	if cl.class != entity.NoID && cl.class != origin {
		return !algorithms.OverrideConflict(graph, graph.Entity(e), cl.class)
	}
	return true
}

// name maps every cluster to its dominant class and emits the moves this
// implies. A cluster opened during the run keeps its dominant class only when
// that class holds a strict majority of it, otherwise it becomes NewClassN.
func name(graph *entity.Graph, members [][]entity.ID, clusters []*cluster) []algorithms.Refactoring {
	var refactorings []algorithms.Refactoring
	fresh := 0
	for c, cl := range clusters {
		if len(members[c]) == 0 {
			continue
		}
		dominant, count := algorithms.DominantClass(graph, members[c])
		target := graph.Entity(dominant).Identifier
		if cl.class == entity.NoID && 2*count <= len(members[c]) {
			fresh++
			target = fmt.Sprintf("NewClass%d", fresh)
		}
		accuracy := algorithms.DensityAccuracy(count, len(members[c]))
		refactorings = append(refactorings, algorithms.ProposeMoves(graph, members[c], target, accuracy)...)
	}
	return refactorings
}
