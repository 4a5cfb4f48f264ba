// Package algotest provides entity graphs and helpers shared by the algorithm tests.
package algotest

import (
	"context"
	"testing"

	"refactor-bot/internal/algorithms"
	"refactor-bot/internal/attributes"
	"refactor-bot/internal/execution"
	"refactor-bot/internal/model/entity"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// Graph declares entities on a builder for a test
type Graph struct {
	t *testing.T
	b *entity.Builder
}

// NewGraph starts a test graph
func NewGraph(t *testing.T) *Graph {
	return &Graph{t: t, b: entity.NewBuilder()}
}

func (g *Graph) Class(identifier string, supertypes ...string) *Graph {
	g.t.Helper()
	_, err := g.b.DeclareClass(identifier)
	require.NoError(g.t, err)
	for _, s := range supertypes {
		_, err := g.b.DeclareClass(s)
		require.NoError(g.t, err)
		require.NoError(g.t, g.b.AddSupertype(identifier, s))
	}
	return g
}

func (g *Graph) Method(spec entity.MethodSpec) *Graph {
	g.t.Helper()
	_, err := g.b.DeclareMethod(spec)
	require.NoError(g.t, err)
	return g
}

func (g *Graph) Field(spec entity.FieldSpec) *Graph {
	g.t.Helper()
	_, err := g.b.DeclareField(spec)
	require.NoError(g.t, err)
	return g
}

func (g *Graph) Override(method, ancestor string) *Graph {
	g.t.Helper()
	require.NoError(g.t, g.b.AddOverride(method, ancestor))
	return g
}

func (g *Graph) Ref(useSite string, targets ...string) *Graph {
	g.t.Helper()
	for _, target := range targets {
		require.NoError(g.t, g.b.AddReference(useSite, target))
	}
	return g
}

// Storage builds the graph into a storage without metrics
func (g *Graph) Storage() *attributes.Storage {
	g.t.Helper()
	graph, err := g.b.Build(nil)
	require.NoError(g.t, err)
	s, err := attributes.NewStorage(graph, nil, nil)
	require.NoError(g.t, err)
	return s
}

// Movable returns a pointer for MethodSpec.Movable and FieldSpec.Movable
func Movable(v bool) *bool {
	return &v
}

// TwoClasses is ClassA{a1, a2, mA1()} and ClassB{methodB1()} where methodB1
// only uses ClassA members and ClassA never refers to ClassB
func TwoClasses(t *testing.T) *attributes.Storage {
	return NewGraph(t).
		Class("ClassA").
		Class("ClassB").
		Field(entity.FieldSpec{Identifier: "ClassA.a1", Class: "ClassA"}).
		Field(entity.FieldSpec{Identifier: "ClassA.a2", Class: "ClassA"}).
		Method(entity.MethodSpec{Identifier: "ClassA.mA1()", Class: "ClassA"}).
		Method(entity.MethodSpec{Identifier: "ClassB.methodB1()", Class: "ClassB"}).
		Ref("ClassA.mA1()", "ClassA.a1", "ClassA.a2").
		Ref("ClassB.methodB1()", "ClassA.a1", "ClassA.a2", "ClassA.mA1()").
		Storage()
}

// AbstractEnvy is TwoClasses plus an abstract method of ClassB that uses
// nothing but ClassA members
func AbstractEnvy(t *testing.T) *attributes.Storage {
	return NewGraph(t).
		Class("ClassA").
		Class("ClassB").
		Field(entity.FieldSpec{Identifier: "ClassA.a1", Class: "ClassA"}).
		Field(entity.FieldSpec{Identifier: "ClassA.a2", Class: "ClassA"}).
		Method(entity.MethodSpec{Identifier: "ClassA.mA1()", Class: "ClassA"}).
		Method(entity.MethodSpec{Identifier: "ClassB.methodB1()", Class: "ClassB"}).
		Method(entity.MethodSpec{Identifier: "ClassB.template()", Class: "ClassB", Abstract: true}).
		Ref("ClassA.mA1()", "ClassA.a1", "ClassA.a2").
		Ref("ClassB.methodB1()", "ClassA.a1", "ClassA.a2", "ClassA.mA1()").
		Ref("ClassB.template()", "ClassA.a1", "ClassA.a2", "ClassA.mA1()").
		Storage()
}

// Shapes has Circle and Square extending Shape. Circle.area() overrides
// Shape.area() and is forced movable; Circle.area() and Circle.perimeter()
// both only use Square fields.
func Shapes(t *testing.T) *attributes.Storage {
	return NewGraph(t).
		Class("Shape").
		Class("Circle", "Shape").
		Class("Square", "Shape").
		Method(entity.MethodSpec{Identifier: "Shape.area()", Class: "Shape", Abstract: true}).
		Field(entity.FieldSpec{Identifier: "Circle.radius", Class: "Circle"}).
		Method(entity.MethodSpec{Identifier: "Circle.area()", Class: "Circle", Movable: Movable(true)}).
		Method(entity.MethodSpec{Identifier: "Circle.perimeter()", Class: "Circle"}).
		Field(entity.FieldSpec{Identifier: "Square.side", Class: "Square"}).
		Field(entity.FieldSpec{Identifier: "Square.height", Class: "Square"}).
		Override("Circle.area()", "Shape.area()").
		Ref("Circle.area()", "Square.side", "Square.height").
		Ref("Circle.perimeter()", "Square.side", "Square.height").
		Storage()
}

// Run executes an algorithm on storage with the given worker count
func Run(t *testing.T, algorithm algorithms.Algorithm, storage *attributes.Storage, threads int) []algorithms.Refactoring {
	t.Helper()
	ec := execution.NewContext(context.Background(), threads, nil, zap.NewNop())
	refactorings, err := algorithm.Calculate(ec, storage)
	require.NoError(t, err)
	algorithms.SortRefactorings(refactorings)
	return refactorings
}

// Find returns the proposal moving the given entity
func Find(refactorings []algorithms.Refactoring, entity string) (algorithms.Refactoring, bool) {
	for _, r := range refactorings {
		if r.Entity == entity {
			return r, true
		}
	}
	return algorithms.Refactoring{}, false
}
