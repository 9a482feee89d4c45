package ecs

// Component is the marker interface every component type must implement so
// the ComponentIndex can tell components and messages apart (spec.md §3).
// Embed ComponentBase to satisfy it without boilerplate.
type Component interface {
	ecsComponent()
}

// Message is the marker interface every message type must implement. A
// given Go type must implement exactly one of Component or Message, never
// both, mirroring spec.md's "occupy the same CompId space ... never both".
type Message interface {
	ecsMessage()
}

// ComponentBase is embedded by concrete component types to implement Component.
type ComponentBase struct{}

func (ComponentBase) ecsComponent() {}

// MessageBase is embedded by concrete message types to implement Message.
type MessageBase struct{}

func (MessageBase) ecsMessage() {}

// Interactive, StateMachine and Transform are the three interface markers
// reserved fixed ids at world construction (spec.md §3: StateMachine=0,
// Interactive=1, Transform=2). Interactive is the "recognized" marker whose
// inheritance-resolution behaviour spec.md §4.1 calls out by name: an
// unregistered concrete type descended from Interactive resolves to the
// Interactive id. StateMachine and Transform are passed through — reserved
// ids with no special engine behaviour beyond marker-interface resolution.
type Interactive interface {
	Component
	ecsInteractive()
}

type StateMachineComponent interface {
	Component
	ecsStateMachine()
}

type TransformComponent interface {
	Component
	ecsTransform()
}

// InteractiveBase embeds ComponentBase and satisfies Interactive.
type InteractiveBase struct{ ComponentBase }

func (InteractiveBase) ecsInteractive() {}

// StateMachineBase embeds ComponentBase and satisfies StateMachineComponent.
type StateMachineBase struct{ ComponentBase }

func (StateMachineBase) ecsStateMachine() {}

// TransformBase embeds ComponentBase and satisfies TransformComponent.
type TransformBase struct{ ComponentBase }

func (TransformBase) ecsTransform() {}

// ModifiableComponent is a passed-through marker (spec.md §6 lists it among
// the six recognized interface names, but only the StateMachine, Interactive
// and Transform markers get reserved ids here). It carries no reserved id
// and no special engine behaviour; a type embedding ModifiableBase still gets
// an id the ordinary way (tracked registration or lazy untracked assignment),
// it simply lets host code group "things that can be replaced in place" under
// one interface for its own filters.
type ModifiableComponent interface {
	Component
	ecsModifiable()
}

// ModifiableBase embeds ComponentBase and satisfies ModifiableComponent.
type ModifiableBase struct{ ComponentBase }

func (ModifiableBase) ecsModifiable() {}

// ComponentMeta is the per-component metadata record recognized by the
// engine (spec.md §6): unique, keep_on_replace, requires, plus the
// domain-stack storage-strategy extension added in SPEC_FULL.md §4.7.
type ComponentMeta struct {
	// Unique asserts (in diagnostics mode) at most one non-destroyed entity
	// in the World carries this component.
	Unique bool
	// KeepOnReplace lets the component survive Entity.WipeReplace.
	KeepOnReplace bool
	// Requires names component types that should accompany this one; the
	// engine only warns (diagnostics mode), it never auto-adds them.
	Requires []CompId
	// Shared selects the shared/deduplicated storage strategy instead of the
	// dense default (SPEC_FULL.md §4.7).
	Shared bool
}
