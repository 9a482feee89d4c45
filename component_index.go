package ecs

import (
	"fmt"
	"reflect"
)

type idKind int

const (
	kindComponent idKind = iota
	kindMessage
)

type interfaceEntry struct {
	typ reflect.Type
	id  CompId
}

// ComponentIndex is the process-wide (per-World) mapping Type -> CompId.
// Ids are assigned in tiers: interface markers first, then tracked
// component types, then message types, then untracked ids lazily on first
// query (spec.md §3/§4.1). Once assigned, a mapping never changes for the
// life of the World.
type ComponentIndex struct {
	typeIds         map[reflect.Type]CompId
	kinds           map[CompId]idKind
	metas           map[CompId]ComponentMeta
	interfaces      []interfaceEntry
	trackedConcrete []reflect.Type
	next            CompId
	logger          Logger
}

// ComponentTypeEntry declares a tracked component type and its metadata at
// ComponentIndex construction time.
type ComponentTypeEntry struct {
	Type reflect.Type
	Meta ComponentMeta
}

// ComponentIndexConfig configures the tiers of a ComponentIndex.
type ComponentIndexConfig struct {
	// Markers are interface marker types given reserved ids, in order, ahead
	// of everything else. spec.md §3 reserves StateMachine=0, Interactive=1,
	// Transform=2; pass them via DefaultMarkers() to get exactly that order.
	Markers []reflect.Type
	// Components are tracked concrete component types, assigned ids after markers.
	Components []ComponentTypeEntry
	// Messages are tracked message types, assigned ids after components.
	Messages []reflect.Type
	Logger   Logger
}

// DefaultMarkers returns the three reserved interface markers in the order
// spec.md §3 requires: StateMachine, Interactive, Transform.
func DefaultMarkers() []reflect.Type {
	return []reflect.Type{
		reflect.TypeOf((*StateMachineComponent)(nil)).Elem(),
		reflect.TypeOf((*Interactive)(nil)).Elem(),
		reflect.TypeOf((*TransformComponent)(nil)).Elem(),
	}
}

var (
	componentMarkerType = reflect.TypeOf((*Component)(nil)).Elem()
	messageMarkerType   = reflect.TypeOf((*Message)(nil)).Elem()
)

// NewComponentIndex builds a ComponentIndex from the supplied configuration.
func NewComponentIndex(cfg ComponentIndexConfig) *ComponentIndex {
	idx := &ComponentIndex{
		typeIds: make(map[reflect.Type]CompId),
		kinds:   make(map[CompId]idKind),
		metas:   make(map[CompId]ComponentMeta),
		logger:  cfg.Logger,
	}
	if idx.logger == nil {
		idx.logger = noopLogger{}
	}

	for _, m := range cfg.Markers {
		id := idx.next
		idx.next++
		idx.interfaces = append(idx.interfaces, interfaceEntry{typ: m, id: id})
		idx.typeIds[m] = id
		idx.kinds[id] = kindComponent
	}

	for _, c := range cfg.Components {
		if _, dup := idx.typeIds[c.Type]; dup {
			panic(fmt.Errorf("%w: %s", ErrComponentAlreadyRegistered, c.Type))
		}
		id := idx.next
		idx.next++
		idx.typeIds[c.Type] = id
		idx.kinds[id] = kindComponent
		idx.metas[id] = c.Meta
		idx.trackedConcrete = append(idx.trackedConcrete, c.Type)
	}

	for _, m := range cfg.Messages {
		if _, dup := idx.typeIds[m]; dup {
			panic(fmt.Errorf("%w: %s", ErrComponentAlreadyRegistered, m))
		}
		id := idx.next
		idx.next++
		idx.typeIds[m] = id
		idx.kinds[id] = kindMessage
	}

	return idx
}

// IdOf returns the canonical id for t, assigning an untracked id on first
// query if t is not pre-registered. A non-interface type descended from a
// registered interface marker resolves to the marker's id so that filters
// over interfaces match every implementer. Panics with ErrInvalidType if t
// implements neither Component nor Message (spec.md §7: fatal at id assignment).
func (idx *ComponentIndex) IdOf(t reflect.Type) CompId {
	if id, ok := idx.typeIds[t]; ok {
		return id
	}

	for _, e := range idx.interfaces {
		if t.Implements(e.typ) {
			idx.typeIds[t] = e.id
			return e.id
		}
	}

	switch {
	case t.Implements(messageMarkerType):
		id := idx.next
		idx.next++
		idx.typeIds[t] = id
		idx.kinds[id] = kindMessage
		return id
	case t.Implements(componentMarkerType):
		id := idx.next
		idx.next++
		idx.typeIds[t] = id
		idx.kinds[id] = kindComponent
		return id
	default:
		panic(fmt.Errorf("%w: %s", ErrInvalidType, t))
	}
}

// Id is a generic convenience wrapper over IdOf for a concrete type T.
func Id[T any](idx *ComponentIndex) CompId {
	var zero T
	t := reflect.TypeOf(&zero).Elem()
	return idx.IdOf(t)
}

// IsMessage reports whether id was assigned to a message type.
func (idx *ComponentIndex) IsMessage(id CompId) bool {
	return idx.kinds[id] == kindMessage
}

// Meta returns the metadata registered for a tracked component id, if any.
func (idx *ComponentIndex) Meta(id CompId) (ComponentMeta, bool) {
	m, ok := idx.metas[id]
	return m, ok
}

// AllUnderInterface enumerates tracked concrete component types whose type
// is a subtype of iface, along with their resolved ids.
func (idx *ComponentIndex) AllUnderInterface(iface reflect.Type) []struct {
	Type reflect.Type
	Id   CompId
} {
	var out []struct {
		Type reflect.Type
		Id   CompId
	}
	for _, t := range idx.trackedConcrete {
		if t.Implements(iface) {
			out = append(out, struct {
				Type reflect.Type
				Id   CompId
			}{Type: t, Id: idx.typeIds[t]})
		}
	}
	return out
}

// TotalIndices returns the number of ids assigned so far.
func (idx *ComponentIndex) TotalIndices() int {
	return int(idx.next)
}
