package extract

import (
	"errors"
	"testing"

	"refactor-bot/internal/model/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() *Result {
	return &Result{
		Classes: []Class{
			{Name: "Shape", Supertypes: []string{"java.io.Serializable"}},
			{Name: "Circle", Supertypes: []string{"Shape"}},
		},
		Methods: []Method{
			{Identifier: "Shape.area()", Class: "Shape", Abstract: true},
			{Identifier: "Circle.area()", Class: "Circle", Override: true},
		},
		Fields: []Field{
			{Identifier: "Circle.radius", Class: "Circle", Type: "double"},
		},
		Overrides: []Override{
			{Method: "Circle.area()", Ancestor: "Shape.area()"},
			{Method: "Circle.area()", Ancestor: "java.lang.Object.hashCode()"},
		},
		References: []Reference{
			{From: "Circle.area()", To: "Circle.radius", Kind: ReferenceFieldAccess},
			{From: "Circle.area()", To: "Math.pow(double,double)", Kind: ReferenceCall},
		},
	}
}

func TestResult_BuildSkipsLibraryEntities(t *testing.T) {
	g, err := sample().Build(nil)
	require.NoError(t, err)
	assert.Equal(t, 5, g.Len())

	circle, ok := g.Lookup("Circle")
	require.True(t, ok)
	shape, _ := g.Lookup("Shape")
	assert.True(t, g.IsSupertypeOf(shape.ID, circle.ID))

	area, _ := g.Lookup("Circle.area()")
	assert.True(t, area.Override)
	assert.False(t, area.Movable)
	assert.Len(t, area.OverriddenMethods, 1)

	radius, _ := g.Lookup("Circle.radius")
	assert.Equal(t, []entity.ID{radius.ID}, g.References(area.ID))
}

func TestResult_UnknownClassFails(t *testing.T) {
	r := &Result{Methods: []Method{{Identifier: "Ghost.run()", Class: "Ghost"}}}
	_, err := r.Build(nil)
	assert.True(t, errors.Is(err, entity.ErrUnknownEntity))
}

func TestResult_MergeAndSort(t *testing.T) {
	r := &Result{}
	r.Merge(sample())
	r.Merge(&Result{Classes: []Class{{Name: "Alpha"}}})
	r.Sort()

	assert.Equal(t, "Alpha", r.Classes[0].Name)
	assert.Equal(t, "Circle.area()", r.Methods[0].Identifier)
	assert.Equal(t, "Circle.radius", r.References[0].To)
}
