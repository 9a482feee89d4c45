package ecs

import "fmt"

// CompId is the stable small integer assigned to a component or message type
// by a ComponentIndex. Ids never change for the life of a World.
type CompId int32

// EntityId identifies an entity and encodes a generation counter so a stale
// handle to a destroyed and recycled slot can be detected, adapted from the
// teacher's index/generation entity identifier.
type EntityId struct {
	index      uint32
	generation uint32
}

// Index returns the backing slot index of the entity.
func (id EntityId) Index() uint32 { return id.index }

// Generation returns the generation counter associated with the entity.
func (id EntityId) Generation() uint32 { return id.generation }

// IsZero reports whether the identifier is the zero value (never a valid id).
func (id EntityId) IsZero() bool { return id.index == 0 && id.generation == 0 }

func (id EntityId) String() string {
	if id.IsZero() {
		return "EntityId(nil)"
	}
	return fmt.Sprintf("EntityId(%d:%d)", id.index, id.generation)
}

// entityIdFromParts builds an identifier from raw parts; used by the entity
// registry and by component stores reconstructing ids during iteration.
func entityIdFromParts(index, generation uint32) EntityId {
	return EntityId{index: index, generation: generation}
}

// EntityIdFromParts is the exported form of entityIdFromParts, used by
// out-of-package ComponentStore implementations (ecs/storage) that
// reconstruct an EntityId while iterating their own slot arrays.
func EntityIdFromParts(index, generation uint32) EntityId {
	return entityIdFromParts(index, generation)
}

// FilterKind names one of the four filter clause kinds a Context target set
// can carry.
type FilterKind int

const (
	FilterAllOf FilterKind = iota
	FilterAnyOf
	FilterNoneOf
	FilterNone
)

func (k FilterKind) String() string {
	switch k {
	case FilterAllOf:
		return "all_of"
	case FilterAnyOf:
		return "any_of"
	case FilterNoneOf:
		return "none_of"
	case FilterNone:
		return "none"
	default:
		return "unknown"
	}
}

// AccessKind declares whether a filter's components are read or written by a
// system. read_write collapses to write per spec.md §4.3.
type AccessKind int

const (
	AccessRead AccessKind = iota
	AccessWrite
	AccessReadWrite
)

// NotificationKind is one of the five coalesced reactive event kinds a
// ComponentWatcher can enqueue for an entity within a frame.
type NotificationKind int

const (
	NotificationAdded NotificationKind = iota
	NotificationRemoved
	NotificationModified
	NotificationEnabled
	NotificationDisabled
)

func (k NotificationKind) String() string {
	switch k {
	case NotificationAdded:
		return "added"
	case NotificationRemoved:
		return "removed"
	case NotificationModified:
		return "modified"
	case NotificationEnabled:
		return "enabled"
	case NotificationDisabled:
		return "disabled"
	default:
		return "unknown"
	}
}

// notificationDispatchOrder is the fixed per-system dispatch order mandated
// by spec.md §4.6 so that a component removed and re-added in the same frame
// fires remove then add.
var notificationDispatchOrder = [...]NotificationKind{
	NotificationRemoved,
	NotificationAdded,
	NotificationModified,
	NotificationEnabled,
	NotificationDisabled,
}

// Capability is a bitset tagging which system interface methods a registered
// system implements, resolved once at registration instead of runtime
// is-this-interface checks (spec.md §9, "Polymorphism over the capability set").
type Capability uint16

const (
	CapEarlyStartup Capability = 1 << iota
	CapStartup
	CapExit
	CapUpdate
	CapLateUpdate
	CapFixedUpdate
	CapRender
	CapReactive
	CapMessager
	CapActivationListener
)

func (c Capability) Has(flag Capability) bool { return c&flag != 0 }

// SystemId is a system's stable declaration-order index within a World.
type SystemId int

// Phase names a call site on the World.
type Phase int

const (
	PhaseEarlyStart Phase = iota
	PhaseStart
	PhaseUpdate
	PhaseLateUpdate
	PhaseFixedUpdate
	PhaseRender
	PhaseExit
)

func (p Phase) String() string {
	switch p {
	case PhaseEarlyStart:
		return "early_start"
	case PhaseStart:
		return "start"
	case PhaseUpdate:
		return "update"
	case PhaseLateUpdate:
		return "late_update"
	case PhaseFixedUpdate:
		return "fixed_update"
	case PhaseRender:
		return "render"
	case PhaseExit:
		return "exit"
	default:
		return "unknown"
	}
}

func (p Phase) capability() Capability {
	switch p {
	case PhaseEarlyStart:
		return CapEarlyStartup
	case PhaseStart:
		return CapStartup
	case PhaseUpdate:
		return CapUpdate
	case PhaseLateUpdate:
		return CapLateUpdate
	case PhaseFixedUpdate:
		return CapFixedUpdate
	case PhaseRender:
		return CapRender
	case PhaseExit:
		return CapExit
	default:
		return 0
	}
}
