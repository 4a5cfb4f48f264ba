// Package hac clusters classes, methods and fields bottom-up and names each
// final cluster after the class contributing most of its members.
package hac

import (
	"container/heap"
	"math/rand/v2"

	"refactor-bot/internal/algorithms"
	"refactor-bot/internal/attributes"
	"refactor-bot/internal/distance"
	"refactor-bot/internal/execution"
	"refactor-bot/internal/model/entity"

	"go.uber.org/zap"
)

const (
	Name = "HAC"

	DefaultSampleSize = 5
	DefaultCacheSize  = 1 << 16

	// clusters at this distance or more are never merged
	maxMergeDistance = 1.0
)

// Options tunes the clustering
type Options struct {
	SampleSize int
	Seed       uint64
	CacheSize  int
	Strategy   distance.Strategy
}

// Algorithm is sampled average-linkage agglomerative clustering
type Algorithm struct {
	opts Options
}

// New creates the algorithm, filling unset options with defaults
func New(opts Options) *Algorithm {
	if opts.SampleSize <= 0 {
		opts.SampleSize = DefaultSampleSize
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = DefaultCacheSize
	}
	if opts.Strategy == nil {
		opts.Strategy = distance.Relevance()
	}
	return &Algorithm{opts: opts}
}

func (a *Algorithm) Name() string {
	return Name
}

func (a *Algorithm) RequiredMetrics() []string {
	return a.opts.Strategy.RequiredMetrics()
}

func (a *Algorithm) Calculate(ec *execution.Context, storage *attributes.Storage) ([]algorithms.Refactoring, error) {
	inner, err := a.opts.Strategy.New(storage)
	if err != nil {
		return nil, err
	}
	calculator, err := distance.NewCachedCalculator(inner, a.opts.CacheSize)
	if err != nil {
		return nil, err
	}

	c := &clustering{
		storage:    storage,
		calculator: calculator,
		sampleSize: a.opts.SampleSize,
		seed:       a.opts.Seed,
	}
	communities, err := c.run(ec)
	if err != nil {
		return nil, err
	}

	graph := storage.Graph()
	var refactorings []algorithms.Refactoring
	for _, community := range communities {
		name, ok := community.name(graph)
		if !ok {
			continue
		}
		// this clustering does not score its proposals
		refactorings = append(refactorings, algorithms.ProposeMoves(graph, community.members, name, 0)...)
	}
	return refactorings, nil
}

type community struct {
	members []entity.ID
	sample  []*attributes.Attributes
	alive   bool
}

// pureClass reports whether the community is a lone class entity
func (c *community) pureClass(graph *entity.Graph) bool {
	return len(c.members) == 1 && graph.Entity(c.members[0]).IsClass()
}

// name picks the class entity of the community that brought the most members
// of its own class; ties go to the smallest identifier
func (c *community) name(graph *entity.Graph) (string, bool) {
	counts := make(map[entity.ID]int)
	for _, m := range c.members {
		counts[algorithms.OriginClass(graph.Entity(m))]++
	}
	best, found := "", false
	bestCount := 0
	for _, m := range c.members {
		e := graph.Entity(m)
		if !e.IsClass() {
			continue
		}
		n := counts[e.ID]
		if !found || n > bestCount || (n == bestCount && e.Identifier < best) {
			best, bestCount, found = e.Identifier, n, true
		}
	}
	return best, found
}

type clustering struct {
	storage     *attributes.Storage
	calculator  distance.Calculator
	sampleSize  int
	seed        uint64
	communities []*community
}

func (c *clustering) newCommunity(members []entity.ID) int {
	index := len(c.communities)
	sample := make([]*attributes.Attributes, len(members))
	for i, m := range members {
		sample[i] = c.storage.Get(m)
	}
	if len(sample) > c.sampleSize {
		r := rand.New(rand.NewPCG(c.seed, uint64(index)))
		r.Shuffle(len(sample), func(i, j int) { sample[i], sample[j] = sample[j], sample[i] })
		sample = sample[:c.sampleSize]
	}
	c.communities = append(c.communities, &community{members: members, sample: sample, alive: true})
	return index
}

// distance averages the entity distances over both samples
func (c *clustering) distance(a, b *community) float64 {
	total := 0.0
	for _, x := range a.sample {
		for _, y := range b.sample {
			total += c.calculator.Distance(x, y)
		}
	}
	return total / float64(len(a.sample)*len(b.sample))
}

func (c *clustering) mergeable(a, b int) bool {
	graph := c.storage.Graph()
	return !(c.communities[a].pureClass(graph) && c.communities[b].pureClass(graph))
}

// pairsWith returns every mergeable pair of target with the alive communities in others
func (c *clustering) pairsWith(ec *execution.Context, target int, others []int) ([]pair, error) {
	return execution.RunParallel(ec, others,
		func() []pair { return nil },
		func(other int, acc []pair) ([]pair, error) {
			if other == target || !c.communities[other].alive || !c.mergeable(target, other) {
				return acc, nil
			}
			d := c.distance(c.communities[target], c.communities[other])
			if d < maxMergeDistance {
				acc = append(acc, newPair(d, target, other))
			}
			return acc, nil
		},
		func(x, y []pair) []pair { return append(x, y...) })
}

func (c *clustering) run(ec *execution.Context) ([]*community, error) {
	for _, attr := range c.storage.Classes() {
		c.newCommunity([]entity.ID{attr.Entity.ID})
	}
	for _, attr := range c.storage.Inner() {
		c.newCommunity([]entity.ID{attr.Entity.ID})
	}
	initial := len(c.communities)

	// all initial pairs, each computed once from its lower index
	indices := make([]int, initial)
	for i := range indices {
		indices[i] = i
	}
	scan := ec.WithProgress(execution.NewProgress(nil))
	initialPairs, err := execution.RunParallel(scan, indices,
		func() []pair { return nil },
		func(i int, acc []pair) ([]pair, error) {
			for j := i + 1; j < initial; j++ {
				if !c.mergeable(i, j) {
					continue
				}
				if d := c.distance(c.communities[i], c.communities[j]); d < maxMergeDistance {
					acc = append(acc, newPair(d, i, j))
				}
			}
			return acc, nil
		},
		func(x, y []pair) []pair { return append(x, y...) })
	if err != nil {
		return nil, err
	}
	queue := pairQueue(initialPairs)
	heap.Init(&queue)

	merges := 0
	for queue.Len() > 0 {
		if err := ec.Check(); err != nil {
			return nil, err
		}
		p := heap.Pop(&queue).(pair)
		a, b := c.communities[p.a], c.communities[p.b]
		if !a.alive || !b.alive {
			continue
		}

		a.alive, b.alive = false, false
		members := append(append([]entity.ID(nil), a.members...), b.members...)
		merged := c.newCommunity(members)
		merges++

		alive := make([]int, 0, len(c.communities))
		for i, community := range c.communities {
			if community.alive && i != merged {
				alive = append(alive, i)
			}
		}
		pairs, err := c.pairsWith(scan, merged, alive)
		if err != nil {
			return nil, err
		}
		for _, np := range pairs {
			heap.Push(&queue, np)
		}

		ec.Logger().Debug("Merged communities",
			zap.Float64("distance", p.distance),
			zap.Int("size", len(members)))
		if initial > 1 {
			ec.Progress().Set(float64(merges) / float64(initial-1))
		}
	}
	ec.Progress().Done()

	var result []*community
	for _, community := range c.communities {
		if community.alive {
			result = append(result, community)
		}
	}
	return result, nil
}

type pair struct {
	distance float64
	a, b     int
}

func newPair(d float64, x, y int) pair {
	if x > y {
		x, y = y, x
	}
	return pair{distance: d, a: x, b: y}
}

// pairQueue is a min-heap of candidate merges; stale entries are skipped on pop
type pairQueue []pair

func (q pairQueue) Len() int { return len(q) }

func (q pairQueue) Less(i, j int) bool {
	if q[i].distance != q[j].distance {
		return q[i].distance < q[j].distance
	}
	if q[i].a != q[j].a {
		return q[i].a < q[j].a
	}
	return q[i].b < q[j].b
}

func (q pairQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *pairQueue) Push(x any) { *q = append(*q, x.(pair)) }

func (q *pairQueue) Pop() any {
	old := *q
	n := len(old)
	p := old[n-1]
	*q = old[:n-1]
	return p
}
