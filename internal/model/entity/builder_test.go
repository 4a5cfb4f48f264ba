package entity

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(v bool) *bool { return &v }

// twoClassGraph builds ClassA{a1, a2, mA1()} and ClassB{methodB1()} where
// methodB1 only uses ClassA members.
func twoClassGraph(t *testing.T) *Graph {
	t.Helper()
	b := NewBuilder()
	_, err := b.DeclareClass("ClassA")
	require.NoError(t, err)
	_, err = b.DeclareClass("ClassB")
	require.NoError(t, err)

	for _, f := range []string{"ClassA.a1", "ClassA.a2"} {
		_, err = b.DeclareField(FieldSpec{Identifier: f, Class: "ClassA"})
		require.NoError(t, err)
	}
	_, err = b.DeclareMethod(MethodSpec{Identifier: "ClassA.mA1()", Class: "ClassA"})
	require.NoError(t, err)
	_, err = b.DeclareMethod(MethodSpec{Identifier: "ClassB.methodB1()", Class: "ClassB"})
	require.NoError(t, err)

	require.NoError(t, b.AddReference("ClassA.mA1()", "ClassA.a1"))
	require.NoError(t, b.AddReference("ClassA.mA1()", "ClassA.a2"))
	require.NoError(t, b.AddReference("ClassB.methodB1()", "ClassA.a1"))
	require.NoError(t, b.AddReference("ClassB.methodB1()", "ClassA.a2"))
	require.NoError(t, b.AddReference("ClassB.methodB1()", "ClassA.mA1()"))

	g, err := b.Build(nil)
	require.NoError(t, err)
	return g
}

func TestBuilder_DeclarationIsMemoized(t *testing.T) {
	b := NewBuilder()
	first, err := b.DeclareClass("Foo")
	require.NoError(t, err)
	second, err := b.DeclareClass("Foo")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	_, err = b.DeclareMethod(MethodSpec{Identifier: "Foo", Class: "Foo"})
	assert.True(t, errors.Is(err, ErrDuplicateEntity))
}

func TestBuilder_UnknownReferences(t *testing.T) {
	b := NewBuilder()
	_, err := b.DeclareMethod(MethodSpec{Identifier: "Foo.bar()", Class: "Foo"})
	assert.True(t, errors.Is(err, ErrUnknownEntity))

	_, err = b.DeclareClass("Foo")
	require.NoError(t, err)
	assert.True(t, errors.Is(b.AddReference("Foo", "Bar"), ErrUnknownEntity))
	assert.True(t, errors.Is(b.AddSupertype("Foo", "Object"), ErrUnknownEntity))
}

func TestBuilder_RelevanceSets(t *testing.T) {
	g := twoClassGraph(t)

	classA, ok := g.Lookup("ClassA")
	require.True(t, ok)
	classB, _ := g.Lookup("ClassB")
	mB1, _ := g.Lookup("ClassB.methodB1()")
	mA1, _ := g.Lookup("ClassA.mA1()")
	a1, _ := g.Lookup("ClassA.a1")

	// ClassA: itself + 3 members
	assert.Equal(t, 4.0, classA.Relevant.Size())
	// methodB1: itself, ClassB, ClassA, a1, a2, mA1
	assert.Equal(t, 6.0, mB1.Relevant.Size())
	assert.Equal(t, 1.0, mB1.Relevant.WeightTo(classA.ID))
	assert.Equal(t, 1.0, mB1.Relevant.WeightTo(classB.ID))
	// reverse relations from callee and field back to methodB1
	assert.Equal(t, 1.0, mA1.Relevant.WeightTo(mB1.ID))
	assert.Equal(t, 1.0, a1.Relevant.WeightTo(mB1.ID))

	assert.Equal(t, []ID{classA.ID, classB.ID}, g.Classes())
	assert.Len(t, g.InnerEntities(), 4)
	assert.ElementsMatch(t, []ID{mA1.ID, mB1.ID}, g.Referrers(a1.ID))
}

func TestBuilder_DefaultMovability(t *testing.T) {
	b := NewBuilder()
	_, _ = b.DeclareClass("Base")
	_, _ = b.DeclareClass("Impl")
	require.NoError(t, b.AddSupertype("Impl", "Base"))

	_, _ = b.DeclareMethod(MethodSpec{Identifier: "Base.run()", Class: "Base", Abstract: true})
	_, _ = b.DeclareMethod(MethodSpec{Identifier: "Impl.run()", Class: "Impl"})
	_, _ = b.DeclareMethod(MethodSpec{Identifier: "Impl.Impl()", Class: "Impl", Constructor: true})
	_, _ = b.DeclareMethod(MethodSpec{Identifier: "Impl.helper()", Class: "Impl"})
	_, _ = b.DeclareMethod(MethodSpec{Identifier: "Impl.forced()", Class: "Impl", Abstract: true, Movable: boolPtr(true)})
	_, _ = b.DeclareField(FieldSpec{Identifier: "Impl.count", Class: "Impl"})
	_, _ = b.DeclareField(FieldSpec{Identifier: "Impl.CACHE", Class: "Impl", Static: true})
	require.NoError(t, b.AddOverride("Impl.run()", "Base.run()"))

	g, err := b.Build(ConstantWeight(1))
	require.NoError(t, err)

	tests := []struct {
		identifier string
		movable    bool
	}{
		{"Base.run()", false},
		{"Impl.run()", false},
		{"Impl.Impl()", false},
		{"Impl.helper()", true},
		{"Impl.forced()", true},
		{"Impl.count", false},
		{"Impl.CACHE", true},
		{"Impl", false},
	}
	for _, tt := range tests {
		t.Run(tt.identifier, func(t *testing.T) {
			e, ok := g.Lookup(tt.identifier)
			require.True(t, ok)
			assert.Equal(t, tt.movable, e.Movable)
		})
	}

	base, _ := g.Lookup("Base")
	impl, _ := g.Lookup("Impl")
	assert.True(t, g.IsSupertypeOf(base.ID, impl.ID))
	assert.True(t, g.InheritanceRelated(impl.ID, base.ID))
	assert.Equal(t, []ID{impl.ID}, g.Subclasses(base.ID))

	run, _ := g.Lookup("Impl.run()")
	baseRun, _ := g.Lookup("Base.run()")
	assert.True(t, run.Override)
	assert.True(t, g.ShareAncestorMethod(run.ID, baseRun.ID))
	// override relations are kept out of the class's weighted size
	assert.Equal(t, 0.0, impl.Relevant.WeightTo(run.ID))
}

func TestBuilder_WeightFuncIsApplied(t *testing.T) {
	b := NewBuilder()
	_, _ = b.DeclareClass("A")
	_, _ = b.DeclareField(FieldSpec{Identifier: "A.f", Class: "A"})
	_, _ = b.DeclareMethod(MethodSpec{Identifier: "A.m()", Class: "A"})
	require.NoError(t, b.AddReference("A.m()", "A.f"))

	g, err := b.Build(func(use, target *Entity) float64 {
		if target.Kind == KindField {
			return 3
		}
		return 1
	})
	require.NoError(t, err)

	m, _ := g.Lookup("A.m()")
	f, _ := g.Lookup("A.f")
	assert.Equal(t, 3.0, m.Relevant.WeightTo(f.ID))
	assert.Equal(t, 3.0, f.Relevant.WeightTo(m.ID))
}
