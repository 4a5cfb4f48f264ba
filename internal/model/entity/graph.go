package entity

import (
	"errors"
	"sort"
)

var (
	ErrUnknownEntity   = errors.New("unknown entity")
	ErrDuplicateEntity = errors.New("entity declared with a different kind")
)

// Graph is the immutable per-run arena of entities.
// It is safe for concurrent reads once built.
type Graph struct {
	entities     []*Entity
	byIdentifier map[string]ID
	members      map[ID][]ID
	references   map[ID][]ID
	referrers    map[ID][]ID
	subclasses   map[ID][]ID
	directSupers map[ID][]ID
	classes      []ID
	inner        []ID
}

// Len returns the number of entities
func (g *Graph) Len() int {
	return len(g.entities)
}

// Entity returns the entity for id
func (g *Graph) Entity(id ID) *Entity {
	return g.entities[id]
}

// Entities returns every entity in arena order
func (g *Graph) Entities() []*Entity {
	return g.entities
}

// Lookup finds an entity by identifier
func (g *Graph) Lookup(identifier string) (*Entity, bool) {
	id, ok := g.byIdentifier[identifier]
	if !ok {
		return nil, false
	}
	return g.entities[id], true
}

// Classes returns all class IDs sorted by identifier
func (g *Graph) Classes() []ID {
	return g.classes
}

// InnerEntities returns all method and field IDs sorted by identifier
func (g *Graph) InnerEntities() []ID {
	return g.inner
}

// Members returns the methods and fields declared by a class
func (g *Graph) Members(class ID) []ID {
	return g.members[class]
}

// References returns the entities referenced by id (outgoing uses)
func (g *Graph) References(id ID) []ID {
	return g.references[id]
}

// Referrers returns the entities referencing id (incoming uses)
func (g *Graph) Referrers(id ID) []ID {
	return g.referrers[id]
}

// Subclasses returns the direct subclasses of a class
func (g *Graph) Subclasses(class ID) []ID {
	return g.subclasses[class]
}

// DirectSupertypes returns the direct supertypes of a class
func (g *Graph) DirectSupertypes(class ID) []ID {
	return g.directSupers[class]
}

// IsSupertypeOf reports whether super is a transitive supertype of class
func (g *Graph) IsSupertypeOf(super, class ID) bool {
	for _, s := range g.entities[class].Supertypes {
		if s == super {
			return true
		}
	}
	return false
}

// InheritanceRelated reports whether one class is a transitive supertype of the other
func (g *Graph) InheritanceRelated(a, b ID) bool {
	return g.IsSupertypeOf(a, b) || g.IsSupertypeOf(b, a)
}

// ShareAncestorMethod reports whether two methods override a common ancestor
// method, or one overrides the other.
func (g *Graph) ShareAncestorMethod(a, b ID) bool {
	ea, eb := g.entities[a], g.entities[b]
	if ea.Kind != KindMethod || eb.Kind != KindMethod {
		return false
	}
	ancestors := make(map[ID]struct{}, len(ea.OverriddenMethods)+1)
	ancestors[a] = struct{}{}
	for _, m := range ea.OverriddenMethods {
		ancestors[m] = struct{}{}
	}
	if _, ok := ancestors[b]; ok {
		return true
	}
	for _, m := range eb.OverriddenMethods {
		if _, ok := ancestors[m]; ok {
			return true
		}
	}
	return false
}

func (g *Graph) sortByIdentifier(ids []ID) {
	sort.Slice(ids, func(i, j int) bool {
		return g.entities[ids[i]].Identifier < g.entities[ids[j]].Identifier
	})
}
