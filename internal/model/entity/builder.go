package entity

import (
	"fmt"
)

// WeightFunc returns the weight of a relation from useSite to target
type WeightFunc func(useSite, target *Entity) float64

// ConstantWeight gives every relation the same weight
func ConstantWeight(weight float64) WeightFunc {
	return func(_, _ *Entity) float64 {
		return weight
	}
}

// MethodSpec describes a method declaration
type MethodSpec struct {
	Identifier  string
	Class       string
	Static      bool
	Abstract    bool
	Override    bool
	Constructor bool

	// Movable overrides the default movability rule when set
	Movable *bool
}

// FieldSpec describes a field declaration
type FieldSpec struct {
	Identifier string
	Class      string
	Static     bool

	// Movable overrides the default movability rule when set
	Movable *bool
}

// Builder collects declarations and raw references from an extractor and
// produces an immutable Graph. Declaring the same identifier twice yields the
// same entity.
type Builder struct {
	entities     []*Entity
	byIdentifier map[string]ID
	movable      map[ID]*bool
	supers       map[ID][]ID
	overrides    map[ID][]ID
	references   map[ID][]ID
	seenRefs     map[[2]ID]struct{}
}

// NewBuilder creates an empty builder
func NewBuilder() *Builder {
	return &Builder{
		byIdentifier: make(map[string]ID),
		movable:      make(map[ID]*bool),
		supers:       make(map[ID][]ID),
		overrides:    make(map[ID][]ID),
		references:   make(map[ID][]ID),
		seenRefs:     make(map[[2]ID]struct{}),
	}
}

func (b *Builder) declare(identifier string, kind Kind, class ID) (ID, error) {
	if id, ok := b.byIdentifier[identifier]; ok {
		if b.entities[id].Kind != kind {
			return NoID, fmt.Errorf("%w: %s is a %s", ErrDuplicateEntity, identifier, b.entities[id].Kind)
		}
		return id, nil
	}
	id := ID(len(b.entities))
	b.entities = append(b.entities, &Entity{
		ID:         id,
		Kind:       kind,
		Identifier: identifier,
		Class:      class,
	})
	b.byIdentifier[identifier] = id
	return id, nil
}

func (b *Builder) class(identifier string) (ID, error) {
	id, ok := b.byIdentifier[identifier]
	if !ok || b.entities[id].Kind != KindClass {
		return NoID, fmt.Errorf("%w: class %s", ErrUnknownEntity, identifier)
	}
	return id, nil
}

// Has reports whether an identifier was declared
func (b *Builder) Has(identifier string) bool {
	_, ok := b.byIdentifier[identifier]
	return ok
}

// DeclareClass declares a class
func (b *Builder) DeclareClass(identifier string) (ID, error) {
	return b.declare(identifier, KindClass, NoID)
}

// DeclareMethod declares a method of an already declared class
func (b *Builder) DeclareMethod(spec MethodSpec) (ID, error) {
	class, err := b.class(spec.Class)
	if err != nil {
		return NoID, err
	}
	id, err := b.declare(spec.Identifier, KindMethod, class)
	if err != nil {
		return NoID, err
	}
	e := b.entities[id]
	e.Static = spec.Static
	e.Abstract = spec.Abstract
	e.Override = e.Override || spec.Override
	e.Constructor = spec.Constructor
	if spec.Movable != nil {
		b.movable[id] = spec.Movable
	}
	return id, nil
}

// DeclareField declares a field of an already declared class
func (b *Builder) DeclareField(spec FieldSpec) (ID, error) {
	class, err := b.class(spec.Class)
	if err != nil {
		return NoID, err
	}
	id, err := b.declare(spec.Identifier, KindField, class)
	if err != nil {
		return NoID, err
	}
	b.entities[id].Static = spec.Static
	if spec.Movable != nil {
		b.movable[id] = spec.Movable
	}
	return id, nil
}

// AddSupertype records that class directly extends or implements super
func (b *Builder) AddSupertype(class, super string) error {
	c, err := b.class(class)
	if err != nil {
		return err
	}
	s, err := b.class(super)
	if err != nil {
		return err
	}
	if c != s {
		b.supers[c] = appendUnique(b.supers[c], s)
	}
	return nil
}

// AddOverride records that method directly overrides ancestor
func (b *Builder) AddOverride(method, ancestor string) error {
	m, ok := b.byIdentifier[method]
	if !ok || b.entities[m].Kind != KindMethod {
		return fmt.Errorf("%w: method %s", ErrUnknownEntity, method)
	}
	a, ok := b.byIdentifier[ancestor]
	if !ok || b.entities[a].Kind != KindMethod {
		return fmt.Errorf("%w: method %s", ErrUnknownEntity, ancestor)
	}
	if m != a {
		b.overrides[m] = appendUnique(b.overrides[m], a)
		b.entities[m].Override = true
	}
	return nil
}

// AddReference records a raw use of target from useSite
func (b *Builder) AddReference(useSite, target string) error {
	u, ok := b.byIdentifier[useSite]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownEntity, useSite)
	}
	t, ok := b.byIdentifier[target]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownEntity, target)
	}
	if u == t {
		return nil
	}
	key := [2]ID{u, t}
	if _, seen := b.seenRefs[key]; seen {
		return nil
	}
	b.seenRefs[key] = struct{}{}
	b.references[u] = append(b.references[u], t)
	return nil
}

func appendUnique(ids []ID, id ID) []ID {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}

// closure returns every node reachable from start through edges, excluding start
func closure(start ID, edges map[ID][]ID) []ID {
	visited := map[ID]bool{start: true}
	stack := append([]ID(nil), edges[start]...)
	var result []ID
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[n] {
			continue
		}
		visited[n] = true
		result = append(result, n)
		stack = append(stack, edges[n]...)
	}
	return result
}

func defaultMovable(e *Entity) bool {
	switch e.Kind {
	case KindMethod:
		return !e.Constructor && !e.Abstract && !e.Override
	case KindField:
		return e.Static
	default:
		return false
	}
}

// Build finalises the graph and populates every entity's relevance set.
// The builder must not be used afterwards.
func (b *Builder) Build(weight WeightFunc) (*Graph, error) {
	if weight == nil {
		weight = ConstantWeight(1)
	}

	g := &Graph{
		entities:     b.entities,
		byIdentifier: b.byIdentifier,
		members:      make(map[ID][]ID),
		references:   b.references,
		referrers:    make(map[ID][]ID),
		subclasses:   make(map[ID][]ID),
		directSupers: b.supers,
	}

	for _, e := range g.entities {
		switch e.Kind {
		case KindClass:
			e.Supertypes = closure(e.ID, b.supers)
			g.classes = append(g.classes, e.ID)
		case KindMethod, KindField:
			if e.Class == NoID {
				return nil, fmt.Errorf("%w: %s has no containing class", ErrUnknownEntity, e.Identifier)
			}
			g.members[e.Class] = append(g.members[e.Class], e.ID)
			g.inner = append(g.inner, e.ID)
			if e.Kind == KindMethod {
				e.OverriddenMethods = closure(e.ID, b.overrides)
			}
		}

		e.Movable = defaultMovable(e)
		if m, ok := b.movable[e.ID]; ok {
			e.Movable = *m
		}
	}
	for class, supers := range b.supers {
		for _, s := range supers {
			g.subclasses[s] = append(g.subclasses[s], class)
		}
	}
	for from, targets := range b.references {
		for _, t := range targets {
			g.referrers[t] = append(g.referrers[t], from)
		}
	}

	g.sortByIdentifier(g.classes)
	g.sortByIdentifier(g.inner)

	for _, e := range g.entities {
		e.Relevant = NewRelevantProperties()
		e.Relevant.Add(e, 1)
	}
	for _, e := range g.entities {
		switch e.Kind {
		case KindClass:
			for _, s := range e.Supertypes {
				e.Relevant.AddClass(s, 1)
			}
			for _, m := range g.members[e.ID] {
				e.Relevant.Add(g.entities[m], 1)
			}
		case KindMethod, KindField:
			e.Relevant.AddClass(e.Class, 1)
		}
	}
	for _, use := range g.entities {
		for _, t := range b.references[use.ID] {
			target := g.entities[t]
			w := weight(use, target)
			use.Relevant.Add(target, w)
			if target.Kind != KindClass {
				use.Relevant.AddClass(target.Class, w)
			}
			if use.Kind == KindMethod && target.Kind != KindClass {
				target.Relevant.Add(use, w)
			}
		}
	}

	b.entities = nil
	return g, nil
}
