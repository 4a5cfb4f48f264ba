package entity

import "fmt"

// ID indexes an entity inside its Graph arena
type ID int

// NoID marks an absent reference (e.g. the containing class of a class)
const NoID ID = -1

// Kind is the closed set of code entity variants
type Kind int

const (
	KindClass Kind = iota
	KindMethod
	KindField
)

func (k Kind) String() string {
	switch k {
	case KindClass:
		return "class"
	case KindMethod:
		return "method"
	case KindField:
		return "field"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Entity is a class, method or field participating in the analysis.
// Entities are created by a Builder and never modified afterwards.
type Entity struct {
	ID         ID
	Kind       Kind
	Identifier string

	// Class is the declaring class for methods and fields, NoID for classes
	Class ID

	Movable     bool
	Static      bool
	Abstract    bool
	Override    bool
	Constructor bool

	// Supertypes holds every transitive supertype of a class
	Supertypes []ID

	// OverriddenMethods holds every transitive ancestor method a method overrides
	OverriddenMethods []ID

	Relevant *RelevantProperties
}

// IsClass reports whether the entity is a class
func (e *Entity) IsClass() bool {
	return e.Kind == KindClass
}

// String returns the identifier of the entity
func (e *Entity) String() string {
	return e.Identifier
}
