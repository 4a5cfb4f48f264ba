package ari

import (
	"testing"

	"refactor-bot/internal/algorithms"
	"refactor-bot/internal/algorithms/algotest"
	"refactor-bot/internal/model/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestARI_MovesEnviousMethod(t *testing.T) {
	storage := algotest.TwoClasses(t)

	for _, threads := range []int{1, 4} {
		refactorings := algotest.Run(t, New(nil), storage, threads)
		require.Len(t, refactorings, 1)
		assert.Equal(t, "ClassB.methodB1()", refactorings[0].Entity)
		assert.Equal(t, "ClassA", refactorings[0].Target)
		// best 1/3, runner-up 2/3
		assert.InDelta(t, 1.0, refactorings[0].Accuracy, 1e-9)
	}
}

func TestARI_TieScoresZero(t *testing.T) {
	storage := algotest.NewGraph(t).
		Class("ClassA").
		Class("ClassB").
		Class("ClassC").
		Field(entity.FieldSpec{Identifier: "ClassA.f", Class: "ClassA"}).
		Field(entity.FieldSpec{Identifier: "ClassB.g", Class: "ClassB"}).
		Field(entity.FieldSpec{Identifier: "ClassC.x", Class: "ClassC"}).
		Field(entity.FieldSpec{Identifier: "ClassC.y", Class: "ClassC"}).
		Method(entity.MethodSpec{Identifier: "ClassC.m()", Class: "ClassC"}).
		Ref("ClassC.m()", "ClassA.f", "ClassB.g").
		Storage()

	refactorings := algotest.Run(t, New(nil), storage, 2)
	require.Len(t, refactorings, 1)
	assert.Equal(t, "ClassA", refactorings[0].Target)
	assert.Equal(t, 0.0, refactorings[0].Accuracy)
}

func TestARI_AbstractMethodNeverMoves(t *testing.T) {
	refactorings := algotest.Run(t, New(nil), algotest.AbstractEnvy(t), 2)

	_, found := algotest.Find(refactorings, "ClassB.template()")
	assert.False(t, found)
	_, found = algotest.Find(refactorings, "ClassB.methodB1()")
	assert.True(t, found)
}

func TestARI_OverrideConstraint(t *testing.T) {
	storage := algotest.Shapes(t)
	refactorings := algotest.Run(t, New(nil), storage, 2)

	_, found := algotest.Find(refactorings, "Circle.area()")
	assert.False(t, found, "overriding method must not move into a sibling of its ancestor")

	perimeter, found := algotest.Find(refactorings, "Circle.perimeter()")
	require.True(t, found)
	assert.Equal(t, "Square", perimeter.Target)

	g := storage.Graph()
	area, _ := g.Lookup("Circle.area()")
	square, _ := g.Lookup("Square")
	assert.True(t, algorithms.OverrideConflict(g, area, square.ID))
}

func TestARI_NoInheritanceMoves(t *testing.T) {
	storage := algotest.NewGraph(t).
		Class("Base").
		Class("Derived", "Base").
		Field(entity.FieldSpec{Identifier: "Base.state", Class: "Base"}).
		Field(entity.FieldSpec{Identifier: "Base.count", Class: "Base"}).
		Field(entity.FieldSpec{Identifier: "Derived.extra", Class: "Derived"}).
		Method(entity.MethodSpec{Identifier: "Derived.reset()", Class: "Derived"}).
		Ref("Derived.reset()", "Base.state", "Base.count").
		Storage()

	refactorings := algotest.Run(t, New(nil), storage, 1)
	_, found := algotest.Find(refactorings, "Derived.reset()")
	assert.False(t, found)
}

func TestARI_SingleClass(t *testing.T) {
	storage := algotest.NewGraph(t).
		Class("Only").
		Method(entity.MethodSpec{Identifier: "Only.run()", Class: "Only"}).
		Storage()

	assert.Empty(t, algotest.Run(t, New(nil), storage, 1))
}
