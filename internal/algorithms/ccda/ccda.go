// Package ccda detects communities of methods and fields by greedy modularity
// optimisation, starting from the existing class structure.
package ccda

import (
	"refactor-bot/internal/algorithms"
	"refactor-bot/internal/attributes"
	"refactor-bot/internal/execution"
	"refactor-bot/internal/model/entity"

	"go.uber.org/zap"
)

const (
	Name = "CCDA"

	// DefaultEpsilon is the smallest modularity gain still worth a move
	DefaultEpsilon = 5e-4
)

// Algorithm is single-move-per-round modularity hill climbing
type Algorithm struct {
	epsilon float64
}

// New creates the algorithm; epsilon <= 0 means DefaultEpsilon
func New(epsilon float64) *Algorithm {
	if epsilon <= 0 {
		epsilon = DefaultEpsilon
	}
	return &Algorithm{epsilon: epsilon}
}

func (a *Algorithm) Name() string {
	return Name
}

func (a *Algorithm) RequiredMetrics() []string {
	return nil
}

func (a *Algorithm) Calculate(ec *execution.Context, storage *attributes.Storage) ([]algorithms.Refactoring, error) {
	progress := ec.Progress()
	net, err := buildNetwork(ec.WithProgress(progress.Sub(0, 0.1)), storage)
	if err != nil {
		return nil, err
	}
	if net.edges == 0 {
		return nil, nil
	}

	optimise := progress.Sub(0.1, 1)
	limit := len(net.nodes) * len(net.classes)
	rounds := 0
	for ; rounds < limit; rounds++ {
		if err := ec.Check(); err != nil {
			return nil, err
		}
		best, err := net.bestMove(ec)
		if err != nil {
			return nil, err
		}
		if !best.ok || best.delta <= a.epsilon {
			break
		}
		net.commit(best)
		ec.Logger().Debug("Committed move",
			zap.Int("round", rounds),
			zap.String("entity", net.graph.Entity(net.nodes[best.node]).Identifier),
			zap.String("community", net.graph.Entity(net.classes[best.to]).Identifier),
			zap.Float64("delta", best.delta),
			zap.Float64("modularity", net.quality))
		optimise.Set(float64(rounds+1) / float64(limit))
	}
	optimise.Done()

	ec.Logger().Debug("Community detection converged",
		zap.Int("rounds", rounds),
		zap.Float64("modularity", net.quality))
	return net.refactorings(), nil
}

// network is the undirected member graph plus the community bookkeeping.
// bestMove only reads it; commit is the single writer.
type network struct {
	graph   *entity.Graph
	nodes   []entity.ID
	classes []entity.ID
	movable []bool
	adj     [][]int
	edges   int

	community []int
	degree    []int // per community: sum of member degrees
	internal  []int // per community: edges with both ends inside
	quality   float64
}

func buildNetwork(ec *execution.Context, storage *attributes.Storage) (*network, error) {
	graph := storage.Graph()
	net := &network{graph: graph, classes: graph.Classes()}

	classIndex := make(map[entity.ID]int, len(net.classes))
	for i, c := range net.classes {
		classIndex[c] = i
	}
	nodeIndex := make(map[entity.ID]int)
	for _, attr := range storage.Inner() {
		if _, tracked := classIndex[attr.Entity.Class]; !tracked {
			continue
		}
		nodeIndex[attr.Entity.ID] = len(net.nodes)
		net.nodes = append(net.nodes, attr.Entity.ID)
	}

	// u and v are adjacent when either references the other
	neighbours, err := execution.Map(ec, net.nodes, func(id entity.ID) ([]int, error) {
		seen := make(map[int]bool)
		var out []int
		add := func(other entity.ID) {
			j, ok := nodeIndex[other]
			if !ok || other == id || seen[j] {
				return
			}
			seen[j] = true
			out = append(out, j)
		}
		for _, t := range graph.References(id) {
			add(t)
		}
		for _, r := range graph.Referrers(id) {
			add(r)
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	net.adj = neighbours

	net.movable = make([]bool, len(net.nodes))
	net.community = make([]int, len(net.nodes))
	net.degree = make([]int, len(net.classes))
	net.internal = make([]int, len(net.classes))
	for v, id := range net.nodes {
		e := graph.Entity(id)
		net.movable[v] = e.Movable
		net.community[v] = classIndex[e.Class]
		net.edges += len(net.adj[v])
	}
	net.edges /= 2

	for v := range net.nodes {
		c := net.community[v]
		net.degree[c] += len(net.adj[v])
		for _, u := range net.adj[v] {
			if u > v && net.community[u] == c {
				net.internal[c]++
			}
		}
	}
	net.quality = net.modularity()
	ec.Progress().Done()
	return net, nil
}

// modularity computes Q = Σ_c (e_c/m − (d_c/2m)²) from scratch
func (n *network) modularity() float64 {
	if n.edges == 0 {
		return 0
	}
	m := float64(n.edges)
	q := 0.0
	for c := range n.classes {
		share := float64(n.degree[c]) / (2 * m)
		q += float64(n.internal[c])/m - share*share
	}
	return q
}

type move struct {
	node  int
	to    int
	delta float64
	// links counts the node's neighbours in its current and target communities
	linksFrom int
	linksTo   int
	ok        bool
}

// better picks the larger gain; ties go to the lower node then the lower community
func better(a, b move) move {
	switch {
	case !b.ok:
		return a
	case !a.ok:
		return b
	case b.delta > a.delta:
		return b
	case b.delta == a.delta && (b.node < a.node || (b.node == a.node && b.to < a.to)):
		return b
	default:
		return a
	}
}

// gain is the exact single-node modularity change of moving v from its
// community to c given kFrom and kTo neighbours in each
func (n *network) gain(v, c, kFrom, kTo int) float64 {
	m := float64(n.edges)
	kv := float64(len(n.adj[v]))
	from := n.community[v]
	return float64(kTo-kFrom)/m - kv*(float64(n.degree[c])-float64(n.degree[from])+kv)/(2*m*m)
}

func (n *network) candidate(v int) move {
	best := move{}
	if !n.movable[v] {
		return best
	}
	links := make(map[int]int)
	for _, u := range n.adj[v] {
		links[n.community[u]]++
	}
	from := n.community[v]
	for c, k := range links {
		if c == from {
			continue
		}
		best = better(best, move{
			node:      v,
			to:        c,
			delta:     n.gain(v, c, links[from], k),
			linksFrom: links[from],
			linksTo:   k,
			ok:        true,
		})
	}
	return best
}

func (n *network) bestMove(ec *execution.Context) (move, error) {
	nodes := make([]int, len(n.nodes))
	for i := range nodes {
		nodes[i] = i
	}
	scan := ec.WithProgress(execution.NewProgress(nil))
	return execution.RunParallel(scan, nodes,
		func() move { return move{} },
		func(v int, acc move) (move, error) { return better(acc, n.candidate(v)), nil },
		better)
}

func (n *network) commit(mv move) {
	kv := len(n.adj[mv.node])
	from := n.community[mv.node]
	n.degree[from] -= kv
	n.internal[from] -= mv.linksFrom
	n.degree[mv.to] += kv
	n.internal[mv.to] += mv.linksTo
	n.community[mv.node] = mv.to
	n.quality += mv.delta
}

func (n *network) refactorings() []algorithms.Refactoring {
	members := make([][]entity.ID, len(n.classes))
	for v, c := range n.community {
		members[c] = append(members[c], n.nodes[v])
	}

	var refactorings []algorithms.Refactoring
	for _, community := range members {
		if len(community) == 0 {
			continue
		}
		dominant, count := algorithms.DominantClass(n.graph, community)
		accuracy := algorithms.DensityAccuracy(count, len(community))
		refactorings = append(refactorings,
			algorithms.ProposeMoves(n.graph, community, n.graph.Entity(dominant).Identifier, accuracy)...)
	}
	return refactorings
}
