package entity

import "math"

// RelevantProperties is the weighted relation set from one entity to the
// classes, methods and fields it is related to.
//
// Override methods live in their own bucket and are left out of Size,
// SizeOfIntersection and SizeOfUnion, so two entities never look alike just
// because they share an inherited contract.
type RelevantProperties struct {
	classes            map[ID]float64
	nonOverrideMethods map[ID]float64
	overrideMethods    map[ID]float64
	fields             map[ID]float64
}

// NewRelevantProperties creates an empty relation set
func NewRelevantProperties() *RelevantProperties {
	return &RelevantProperties{
		classes:            make(map[ID]float64),
		nonOverrideMethods: make(map[ID]float64),
		overrideMethods:    make(map[ID]float64),
		fields:             make(map[ID]float64),
	}
}

func raise(m map[ID]float64, id ID, weight float64) {
	if current, ok := m[id]; !ok || weight > current {
		m[id] = weight
	}
}

// AddClass records a relation to a class; the stored weight only grows
func (p *RelevantProperties) AddClass(id ID, weight float64) {
	raise(p.classes, id, weight)
}

// AddMethod records a relation to a non-overriding method
func (p *RelevantProperties) AddMethod(id ID, weight float64) {
	raise(p.nonOverrideMethods, id, weight)
}

// AddOverrideMethod records a relation to an overriding method
func (p *RelevantProperties) AddOverrideMethod(id ID, weight float64) {
	raise(p.overrideMethods, id, weight)
}

// AddField records a relation to a field
func (p *RelevantProperties) AddField(id ID, weight float64) {
	raise(p.fields, id, weight)
}

// Add dispatches on the kind of the target entity
func (p *RelevantProperties) Add(target *Entity, weight float64) {
	switch target.Kind {
	case KindClass:
		p.AddClass(target.ID, weight)
	case KindMethod:
		if target.Override {
			p.AddOverrideMethod(target.ID, weight)
		} else {
			p.AddMethod(target.ID, weight)
		}
	case KindField:
		p.AddField(target.ID, weight)
	}
}

func sum(m map[ID]float64) float64 {
	total := 0.0
	for _, w := range m {
		total += w
	}
	return total
}

// Size is the weighted cardinality over classes, fields and non-override methods
func (p *RelevantProperties) Size() float64 {
	return sum(p.classes) + sum(p.fields) + sum(p.nonOverrideMethods)
}

// WeightTo returns the weight this set assigns to id
func (p *RelevantProperties) WeightTo(id ID) float64 {
	return p.classes[id] + p.fields[id] + p.nonOverrideMethods[id]
}

// Contains reports whether id appears in any bucket
func (p *RelevantProperties) Contains(id ID) bool {
	if _, ok := p.classes[id]; ok {
		return true
	}
	if _, ok := p.nonOverrideMethods[id]; ok {
		return true
	}
	if _, ok := p.overrideMethods[id]; ok {
		return true
	}
	_, ok := p.fields[id]
	return ok
}

func intersection(a, b map[ID]float64) float64 {
	if len(b) < len(a) {
		a, b = b, a
	}
	total := 0.0
	for id, wa := range a {
		if wb, ok := b[id]; ok {
			total += math.Min(wa, wb)
		}
	}
	return total
}

func union(a, b map[ID]float64) float64 {
	total := 0.0
	for id, wa := range a {
		if wb, ok := b[id]; ok {
			total += math.Max(wa, wb)
		} else {
			total += wa
		}
	}
	for id, wb := range b {
		if _, ok := a[id]; !ok {
			total += wb
		}
	}
	return total
}

// SizeOfIntersection sums min(weightA, weightB) over the shared keys of each bucket
func (p *RelevantProperties) SizeOfIntersection(other *RelevantProperties) float64 {
	return intersection(p.classes, other.classes) +
		intersection(p.nonOverrideMethods, other.nonOverrideMethods) +
		intersection(p.fields, other.fields)
}

// SizeOfUnion sums max(weightA, weightB) over the keys of each bucket.
// SizeOfUnion(q) + SizeOfIntersection(q) == Size() + q.Size() for any q.
func (p *RelevantProperties) SizeOfUnion(other *RelevantProperties) float64 {
	return union(p.classes, other.classes) +
		union(p.nonOverrideMethods, other.nonOverrideMethods) +
		union(p.fields, other.fields)
}

// Copy returns a deep copy holding the same entity references
func (p *RelevantProperties) Copy() *RelevantProperties {
	c := NewRelevantProperties()
	for id, w := range p.classes {
		c.classes[id] = w
	}
	for id, w := range p.nonOverrideMethods {
		c.nonOverrideMethods[id] = w
	}
	for id, w := range p.overrideMethods {
		c.overrideMethods[id] = w
	}
	for id, w := range p.fields {
		c.fields[id] = w
	}
	return c
}

// Classes returns the related classes with their weights
func (p *RelevantProperties) Classes() map[ID]float64 {
	return p.classes
}

// Fields returns the related fields with their weights
func (p *RelevantProperties) Fields() map[ID]float64 {
	return p.fields
}
