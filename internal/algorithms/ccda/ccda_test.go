package ccda

import (
	"context"
	"fmt"
	"testing"

	"refactor-bot/internal/algorithms/algotest"
	"refactor-bot/internal/execution"
	"refactor-bot/internal/model/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCCDA_MovesEnviousMethod(t *testing.T) {
	refactorings := algotest.Run(t, New(0), algotest.TwoClasses(t), 2)

	require.Len(t, refactorings, 1)
	assert.Equal(t, "ClassB.methodB1()", refactorings[0].Entity)
	assert.Equal(t, "ClassA", refactorings[0].Target)
	// three of the four members of the merged community come from ClassA
	assert.InDelta(t, 0.75, refactorings[0].Accuracy, 1e-9)
}

func TestCCDA_AbstractMethodNeverMoves(t *testing.T) {
	refactorings := algotest.Run(t, New(0), algotest.AbstractEnvy(t), 3)

	_, found := algotest.Find(refactorings, "ClassB.template()")
	assert.False(t, found)
	moved, found := algotest.Find(refactorings, "ClassB.methodB1()")
	require.True(t, found)
	assert.Equal(t, "ClassA", moved.Target)
}

func TestCCDA_NoEdges(t *testing.T) {
	storage := algotest.NewGraph(t).
		Class("ClassA").
		Method(entity.MethodSpec{Identifier: "ClassA.run()", Class: "ClassA"}).
		Storage()
	assert.Empty(t, algotest.Run(t, New(0), storage, 1))
}

// layered builds classes whose methods mostly use the next class's fields
func layered(t *testing.T, classes, fields int) *algotest.Graph {
	g := algotest.NewGraph(t)
	for c := 0; c < classes; c++ {
		g.Class(fmt.Sprintf("C%d", c))
		for f := 0; f < fields; f++ {
			g.Field(entity.FieldSpec{Identifier: fmt.Sprintf("C%d.f%d", c, f), Class: fmt.Sprintf("C%d", c)})
		}
	}
	for c := 0; c < classes; c++ {
		next := (c + 1) % classes
		for m := 0; m < 3; m++ {
			method := fmt.Sprintf("C%d.m%d()", c, m)
			g.Method(entity.MethodSpec{Identifier: method, Class: fmt.Sprintf("C%d", c)})
			for f := 0; f < fields; f++ {
				target := c
				if f != m {
					target = next
				}
				g.Ref(method, fmt.Sprintf("C%d.f%d", target, f))
			}
		}
	}
	return g
}

func TestCCDA_QualityIsMonotonic(t *testing.T) {
	storage := layered(t, 4, 4).Storage()
	ec := execution.NewContext(context.Background(), 3, nil, zap.NewNop())

	net, err := buildNetwork(ec, storage)
	require.NoError(t, err)
	require.Greater(t, net.edges, 0)

	limit := len(net.nodes) * len(net.classes)
	previous := net.quality
	rounds := 0
	for ; rounds < limit; rounds++ {
		best, err := net.bestMove(ec)
		require.NoError(t, err)
		if !best.ok || best.delta <= DefaultEpsilon {
			break
		}
		net.commit(best)
		assert.GreaterOrEqual(t, net.quality, previous)
		// incremental bookkeeping agrees with a full recomputation
		assert.InDelta(t, net.modularity(), net.quality, 1e-9)
		previous = net.quality
	}
	assert.Less(t, rounds, limit)
	assert.Greater(t, rounds, 0)
}

func TestCCDA_DeterministicAcrossThreads(t *testing.T) {
	storage := layered(t, 3, 4).Storage()
	expected := algotest.Run(t, New(0), storage, 1)
	for _, threads := range []int{2, 5, 16} {
		assert.Equal(t, expected, algotest.Run(t, New(0), storage, threads), "threads=%d", threads)
	}
}

func TestCCDA_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ec := execution.NewContext(ctx, 2, nil, zap.NewNop())

	_, err := New(0).Calculate(ec, algotest.TwoClasses(t))
	assert.True(t, execution.IsCanceled(err))
}

func TestCCDA_ReportsProgress(t *testing.T) {
	progress := execution.NewProgress(nil)
	ec := execution.NewContext(context.Background(), 2, progress, zap.NewNop())

	_, err := New(0).Calculate(ec, algotest.TwoClasses(t))
	require.NoError(t, err)
	assert.InDelta(t, 1.0, progress.Value(), 1e-9)
}
