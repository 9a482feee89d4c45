package ecs

// The System capability interfaces below are each optional: a concrete
// system implements whichever subset its behaviour needs, and World resolves
// the resulting Capability bitset once at registration (spec.md §9,
// "polymorphism over the capability set" rather than one fat interface).

// EarlyStartupSystem runs once, before any other phase, in registration order.
type EarlyStartupSystem interface {
	EarlyStartup(ctx *Context)
}

// StartupSystem runs once at world start, after early startup.
type StartupSystem interface {
	Startup(ctx *Context)
}

// ExitSystem runs once during World.Exit, before entities are disposed.
type ExitSystem interface {
	Exit(ctx *Context)
}

// UpdateSystem runs every update phase call.
type UpdateSystem interface {
	Update(ctx *Context)
}

// LateUpdateSystem runs every late_update phase call, after every Update.
type LateUpdateSystem interface {
	LateUpdate(ctx *Context)
}

// FixedUpdateSystem runs every fixed_update phase call, on the fixed-timestep
// clock rather than the variable per-frame clock.
type FixedUpdateSystem interface {
	FixedUpdate(ctx *Context)
}

// RenderSystem runs every render phase call. Render systems are excluded
// from pause effects entirely (spec.md §9 Open Questions: "render
// excluded") — they run the same whether the world is paused or not. The
// render phase itself is out of scope for what the host loop does with it
// (spec.md's Non-goals exclude rendering/IO); World only guarantees the
// call site and the pause exclusion.
type RenderSystem interface {
	Render(ctx *Context)
}

// ReactiveSystem receives coalesced per-frame component notifications for
// its declared watch set, in the fixed kind order removed, added, modified,
// enabled, disabled (spec.md §4.4/§4.6). Every method is optional at the Go
// level in the sense that an embedded ReactiveBase no-ops the rest; a system
// need only override what it cares about.
type ReactiveSystem interface {
	OnAdded(entities []*Entity)
	OnRemoved(entities []*Entity)
	OnModified(entities []*Entity)
	OnEnabled(entities []*Entity)
	OnDisabled(entities []*Entity)
	OnBeforeRemoving(entities []*Entity)
	OnBeforeModifying(entities []*Entity)
}

// ReactiveBase is embedded by reactive systems that only need a subset of
// ReactiveSystem's methods.
type ReactiveBase struct{}

func (ReactiveBase) OnAdded([]*Entity)           {}
func (ReactiveBase) OnRemoved([]*Entity)         {}
func (ReactiveBase) OnModified([]*Entity)        {}
func (ReactiveBase) OnEnabled([]*Entity)         {}
func (ReactiveBase) OnDisabled([]*Entity)        {}
func (ReactiveBase) OnBeforeRemoving([]*Entity)  {}
func (ReactiveBase) OnBeforeModifying([]*Entity) {}

// MessagerSystem receives messages of its declared watch set immediately,
// as they are sent (spec.md §4.5).
type MessagerSystem interface {
	OnMessage(entity *Entity, message any)
}

// ActivationListenerSystem declares listeners for a Context member moving
// between the active and deactivated buckets (spec.md §4.3). World records
// the capability (CapActivationListener) at registration but never calls
// OnContextActivated or OnContextDeactivated.
type ActivationListenerSystem interface {
	OnContextActivated(ctx *Context, entity *Entity)
	OnContextDeactivated(ctx *Context, entity *Entity)
}

// SystemMeta is the declaration-time metadata a system supplies when
// registered with a World: its filter (for context-bearing phases), its
// reactive watch set, its messager watch set, and its pause policy
// (spec.md §5, "Pause Policy").
type SystemMeta struct {
	Filter FilterDecl

	// Watch declares the component ids a ReactiveSystem observes.
	Watch []CompId
	// MessageWatch declares the message ids a MessagerSystem observes.
	MessageWatch []CompId

	// DoNotPause exempts the system from pause: it runs the same whether the
	// world is paused or not. Checked after IncludeOnPause and the Render
	// capability, which exempt a system from pause in the same way.
	DoNotPause bool
	// IncludeOnPause means the system keeps running while paused; it is
	// checked first, ahead of the Render capability and DoNotPause.
	IncludeOnPause bool
	// OnPause means the system runs only while paused; it applies only when
	// none of IncludeOnPause, the Render capability or DoNotPause is present.
	OnPause bool

	// Resources declares named resource access this system makes through
	// World.Resources(), consulted by World.ValidateAccess alongside the
	// filter's component access kinds (spec.md §5 ties both to "a future
	// scheduler"; adapted from the teacher's scheduler_impl.go
	// resourceOwners/resourceReaders conflict bookkeeping).
	Resources []ResourceAccess
}

// ResourceAccess declares a system's intent to read or write a named
// resource from World.Resources(), adapted from the teacher's
// api.go ResourceAccess/AccessMode pair.
type ResourceAccess struct {
	Name string
	Kind AccessKind
}

// registeredSystem binds a System value to its resolved capability bitset,
// assigned SystemId, SystemMeta, and (if applicable) shared Context.
type registeredSystem struct {
	id     SystemId
	sys    any
	caps   Capability
	meta   SystemMeta
	ctx    *Context
	active bool
}

func resolveCapability(sys any) Capability {
	var c Capability
	if _, ok := sys.(EarlyStartupSystem); ok {
		c |= CapEarlyStartup
	}
	if _, ok := sys.(StartupSystem); ok {
		c |= CapStartup
	}
	if _, ok := sys.(ExitSystem); ok {
		c |= CapExit
	}
	if _, ok := sys.(UpdateSystem); ok {
		c |= CapUpdate
	}
	if _, ok := sys.(LateUpdateSystem); ok {
		c |= CapLateUpdate
	}
	if _, ok := sys.(FixedUpdateSystem); ok {
		c |= CapFixedUpdate
	}
	if _, ok := sys.(RenderSystem); ok {
		c |= CapRender
	}
	if _, ok := sys.(ReactiveSystem); ok {
		c |= CapReactive
	}
	if _, ok := sys.(MessagerSystem); ok {
		c |= CapMessager
	}
	if _, ok := sys.(ActivationListenerSystem); ok {
		c |= CapActivationListener
	}
	return c
}
