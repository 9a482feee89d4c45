package ecs

import (
	"fmt"
	"sort"
)

// ContextId is a stable hash over a Context's filter shape, letting two
// systems that declare identical filters share one underlying Context
// instead of each maintaining a redundant copy of the same entity set
// (spec.md §4.3, "contexts with identical filters are shared"). The hash is
// not load-bearing for correctness beyond collision-freedom within one
// World: see the Open Questions decision in DESIGN.md.
type ContextId uint64

// FilterClause is one all_of/any_of/none_of clause over a set of component ids.
type FilterClause struct {
	Kind       FilterKind
	Components []CompId
}

// FilterDecl is the full filter shape a system declares for a Context:
// all_of, any_of and none_of clauses plus a per-component access kind used
// by World.ValidateAccess and by phase-summary observability (spec.md §4.3/§9).
type FilterDecl struct {
	AllOf      []CompId
	AnyOf      []CompId
	NoneOf     []CompId
	AccessKind map[CompId]AccessKind
}

func (f FilterDecl) normalized() FilterDecl {
	out := FilterDecl{
		AllOf:      append([]CompId(nil), f.AllOf...),
		AnyOf:      append([]CompId(nil), f.AnyOf...),
		NoneOf:     append([]CompId(nil), f.NoneOf...),
		AccessKind: f.AccessKind,
	}
	sort.Slice(out.AllOf, func(i, j int) bool { return out.AllOf[i] < out.AllOf[j] })
	sort.Slice(out.AnyOf, func(i, j int) bool { return out.AnyOf[i] < out.AnyOf[j] })
	sort.Slice(out.NoneOf, func(i, j int) bool { return out.NoneOf[i] < out.NoneOf[j] })
	return out
}

// id computes the canonical ContextId for a normalized filter: any two
// systems declaring the same all_of/any_of/none_of sets, regardless of
// declaration order, collapse to the same id (spec.md §4.3).
func (f FilterDecl) id() ContextId {
	var h uint64 = 1469598103934665603 // FNV-1a offset basis
	mix := func(tag byte, ids []CompId) {
		h ^= uint64(tag)
		h *= 1099511628211
		for _, c := range ids {
			h ^= uint64(uint32(c))
			h *= 1099511628211
		}
	}
	mix(1, f.AllOf)
	mix(2, f.AnyOf)
	mix(3, f.NoneOf)
	return ContextId(h)
}

func (f FilterDecl) matches(e *Entity) bool {
	for _, c := range f.AllOf {
		if !e.Present(c) {
			return false
		}
	}
	if len(f.AnyOf) > 0 {
		any := false
		for _, c := range f.AnyOf {
			if e.Present(c) {
				any = true
				break
			}
		}
		if !any {
			return false
		}
	}
	for _, c := range f.NoneOf {
		if e.Present(c) {
			return false
		}
	}
	return true
}

// componentsTouched returns every component id this filter reads so the
// world's contextsByComp reverse index can route reconsideration.
func (f FilterDecl) componentsTouched() []CompId {
	out := make([]CompId, 0, len(f.AllOf)+len(f.AnyOf)+len(f.NoneOf))
	out = append(out, f.AllOf...)
	out = append(out, f.AnyOf...)
	out = append(out, f.NoneOf...)
	return out
}

// Context is a canonical, possibly-shared subset of a World's entities
// matching one filter shape (spec.md §4.3). Systems that declare identical
// filters are handed the same *Context. Membership is maintained
// incrementally: World.reconsiderContextsForComponent re-evaluates a
// context's predicate against one entity whenever a component/message it
// reads changes, rather than rescanning every entity every frame.
type Context struct {
	id     ContextId
	filter FilterDecl
	world  *World

	entities            map[EntityId]*Entity
	deactivatedEntities map[EntityId]*Entity

	refCount int
}

func newContext(w *World, filter FilterDecl) *Context {
	norm := filter.normalized()
	return &Context{
		id:                  norm.id(),
		filter:              norm,
		world:               w,
		entities:            make(map[EntityId]*Entity),
		deactivatedEntities: make(map[EntityId]*Entity),
	}
}

// Id returns the context's canonical id.
func (c *Context) Id() ContextId { return c.id }

// Entities returns the active (non-deactivated) member entities.
func (c *Context) Entities() []*Entity {
	out := make([]*Entity, 0, len(c.entities))
	for _, e := range c.entities {
		out = append(out, e)
	}
	return out
}

// DeactivatedEntities returns the deactivated member entities.
func (c *Context) DeactivatedEntities() []*Entity {
	out := make([]*Entity, 0, len(c.deactivatedEntities))
	for _, e := range c.deactivatedEntities {
		out = append(out, e)
	}
	return out
}

// Len reports the number of active member entities.
func (c *Context) Len() int { return len(c.entities) }

// reconsider evaluates the filter predicate for e and transitions
// membership if the result differs from the entity's current bucket
// (neither map, meaning "not a member").
func (c *Context) reconsider(e *Entity) {
	_, inActive := c.entities[e.id]
	_, inDeactivated := c.deactivatedEntities[e.id]
	wasMember := inActive || inDeactivated

	matches := !e.destroyed && c.filter.matches(e)

	switch {
	case matches && !wasMember:
		c.join(e)
	case !matches && wasMember:
		c.leave(e)
	}
}

func (c *Context) join(e *Entity) {
	if e.deactivated {
		c.deactivatedEntities[e.id] = e
	} else {
		c.entities[e.id] = e
	}
	e.memberContexts[c.id] = c
}

func (c *Context) leave(e *Entity) {
	delete(c.entities, e.id)
	delete(c.deactivatedEntities, e.id)
	delete(e.memberContexts, c.id)
}

// activateMember moves an already-member entity from the deactivated bucket
// to the active bucket. Called by Entity.Activate; never changes predicate truth.
func (c *Context) activateMember(e *Entity) {
	if _, ok := c.deactivatedEntities[e.id]; ok {
		delete(c.deactivatedEntities, e.id)
		c.entities[e.id] = e
	}
}

// deactivateMember moves an already-member entity from the active bucket to
// the deactivated bucket.
func (c *Context) deactivateMember(e *Entity) {
	if _, ok := c.entities[e.id]; ok {
		delete(c.entities, e.id)
		c.deactivatedEntities[e.id] = e
	}
}

func (c *Context) String() string {
	return fmt.Sprintf("Context(%d, all_of=%v any_of=%v none_of=%v)", c.id, c.filter.AllOf, c.filter.AnyOf, c.filter.NoneOf)
}
