// Package extract holds the declarations and raw references an extractor
// produces for one repository, and turns them into an entity graph.
package extract

import (
	"errors"
	"fmt"
	"sort"

	"refactor-bot/internal/model/entity"
)

// ReferenceKind says how a use site refers to its target
type ReferenceKind string

const (
	ReferenceCall          ReferenceKind = "call"
	ReferenceFieldAccess   ReferenceKind = "field_access"
	ReferenceInstantiation ReferenceKind = "instantiation"
	ReferenceTypeUse       ReferenceKind = "type_use"
)

type Class struct {
	Name       string   `json:"name"`
	Supertypes []string `json:"supertypes,omitempty"`
	File       string   `json:"file,omitempty"`
}

type Method struct {
	Identifier  string `json:"identifier"`
	Class       string `json:"class"`
	Static      bool   `json:"static,omitempty"`
	Abstract    bool   `json:"abstract,omitempty"`
	Override    bool   `json:"override,omitempty"`
	Constructor bool   `json:"constructor,omitempty"`
	Movable     *bool  `json:"movable,omitempty"`
}

type Field struct {
	Identifier string `json:"identifier"`
	Class      string `json:"class"`
	Static     bool   `json:"static,omitempty"`
	Type       string `json:"type,omitempty"`
	Movable    *bool  `json:"movable,omitempty"`
}

// Override records that Method directly overrides Ancestor
type Override struct {
	Method   string `json:"method"`
	Ancestor string `json:"ancestor"`
}

type Reference struct {
	From string        `json:"from"`
	To   string        `json:"to"`
	Kind ReferenceKind `json:"kind,omitempty"`
}

// Result is everything extracted from one repository
type Result struct {
	Classes    []Class     `json:"classes"`
	Methods    []Method    `json:"methods"`
	Fields     []Field     `json:"fields"`
	Overrides  []Override  `json:"overrides,omitempty"`
	References []Reference `json:"references,omitempty"`
}

// Merge appends other's declarations and references
func (r *Result) Merge(other *Result) {
	r.Classes = append(r.Classes, other.Classes...)
	r.Methods = append(r.Methods, other.Methods...)
	r.Fields = append(r.Fields, other.Fields...)
	r.Overrides = append(r.Overrides, other.Overrides...)
	r.References = append(r.References, other.References...)
}

// Sort orders every list so that equal results compare equal
func (r *Result) Sort() {
	sort.Slice(r.Classes, func(i, j int) bool { return r.Classes[i].Name < r.Classes[j].Name })
	sort.Slice(r.Methods, func(i, j int) bool { return r.Methods[i].Identifier < r.Methods[j].Identifier })
	sort.Slice(r.Fields, func(i, j int) bool { return r.Fields[i].Identifier < r.Fields[j].Identifier })
	sort.Slice(r.Overrides, func(i, j int) bool {
		if r.Overrides[i].Method != r.Overrides[j].Method {
			return r.Overrides[i].Method < r.Overrides[j].Method
		}
		return r.Overrides[i].Ancestor < r.Overrides[j].Ancestor
	})
	sort.Slice(r.References, func(i, j int) bool {
		if r.References[i].From != r.References[j].From {
			return r.References[i].From < r.References[j].From
		}
		return r.References[i].To < r.References[j].To
	})
}

// Apply declares everything on the builder. Supertypes, overrides and
// references to entities outside the result (library code) are skipped.
func (r *Result) Apply(b *entity.Builder) error {
	for _, c := range r.Classes {
		if _, err := b.DeclareClass(c.Name); err != nil {
			return err
		}
	}
	for _, c := range r.Classes {
		for _, s := range c.Supertypes {
			if !b.Has(s) {
				continue
			}
			if err := b.AddSupertype(c.Name, s); err != nil {
				return err
			}
		}
	}
	for _, m := range r.Methods {
		_, err := b.DeclareMethod(entity.MethodSpec{
			Identifier:  m.Identifier,
			Class:       m.Class,
			Static:      m.Static,
			Abstract:    m.Abstract,
			Override:    m.Override,
			Constructor: m.Constructor,
			Movable:     m.Movable,
		})
		if err != nil {
			return fmt.Errorf("method %s: %w", m.Identifier, err)
		}
	}
	for _, f := range r.Fields {
		_, err := b.DeclareField(entity.FieldSpec{
			Identifier: f.Identifier,
			Class:      f.Class,
			Static:     f.Static,
			Movable:    f.Movable,
		})
		if err != nil {
			return fmt.Errorf("field %s: %w", f.Identifier, err)
		}
	}
	for _, o := range r.Overrides {
		if !b.Has(o.Method) || !b.Has(o.Ancestor) {
			continue
		}
		if err := b.AddOverride(o.Method, o.Ancestor); err != nil {
			return err
		}
	}
	for _, ref := range r.References {
		err := b.AddReference(ref.From, ref.To)
		if errors.Is(err, entity.ErrUnknownEntity) {
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Build applies the result to a fresh builder and builds the graph
func (r *Result) Build(weight entity.WeightFunc) (*entity.Graph, error) {
	b := entity.NewBuilder()
	if err := r.Apply(b); err != nil {
		return nil, err
	}
	return b.Build(weight)
}
