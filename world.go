package ecs

import (
	stdcontext "context"
	"fmt"
	"time"
)

// WorldOption configures a World at construction time, mirroring the
// teacher's functional-options configuration style.
type WorldOption func(*World)

// WithLogger installs a structured logger used for warnings and diagnostics.
func WithLogger(logger Logger) WorldOption {
	return func(w *World) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithObservation installs the phase-observer chain (structured logging,
// Prometheus, SigNoz, or a caller-supplied PhaseObserver) built from settings.
func WithObservation(settings ObservationSettings) WorldOption {
	return func(w *World) {
		w.observer = buildObserverChain(w.logger, settings)
	}
}

// WithDiagnostics toggles assertion-style diagnostics (uniqueness checks,
// requires-metadata warnings) that a release build may want compiled out by
// simply never enabling (spec.md §7, "diagnostics-only assert").
func WithDiagnostics(enabled bool) WorldOption {
	return func(w *World) { w.diagnostics = enabled }
}

// WithAsyncWorkers sizes the worker pool backing RunAsyncDiagnostics.
func WithAsyncWorkers(n int) WorldOption {
	return func(w *World) { w.asyncWorkers = n }
}

// WithComponentIndex supplies a pre-built ComponentIndex instead of the
// World building an empty one from DefaultMarkers().
func WithComponentIndex(idx *ComponentIndex) WorldOption {
	return func(w *World) {
		if idx != nil {
			w.index = idx
		}
	}
}

// WithResources supplies a pre-populated ResourceContainer.
func WithResources(resources ResourceContainer) WorldOption {
	return func(w *World) {
		if resources != nil {
			w.resources = resources
		}
	}
}

// World owns every entity, context and watcher, and drives the phase methods
// that a host application calls once per frame (spec.md §5).
type World struct {
	index *ComponentIndex

	logger   Logger
	observer PhaseObserver
	tracer   Tracer

	diagnostics  bool
	asyncWorkers int
	pool         *workerPool
	resources    ResourceContainer

	slots       []*Entity
	generations []uint32
	freeList    []uint32

	systems []*registeredSystem
	nextSys SystemId

	contexts          map[ContextId]*Context
	contextsByComp    map[CompId][]*Context
	watchers          map[CompId]*ComponentWatcher
	messageWatchers   map[CompId]*MessageWatcher

	messageSenders map[EntityId]*Entity
	pendingDestroy []*Entity

	pendingActivation []func()

	paused  bool
	exiting bool
	tick    uint64

	bufferPool *CommandBufferPool
}

// NewWorld constructs a World ready for system registration.
func NewWorld(opts ...WorldOption) *World {
	w := &World{
		logger:          noopLogger{},
		observer:        noopObserver{},
		diagnostics:     false,
		contexts:        make(map[ContextId]*Context),
		contextsByComp:  make(map[CompId][]*Context),
		watchers:        make(map[CompId]*ComponentWatcher),
		messageWatchers: make(map[CompId]*MessageWatcher),
		messageSenders:  make(map[EntityId]*Entity),
		bufferPool:      NewCommandBufferPool(),
		resources:       newResourceContainer(),
	}
	w.index = NewComponentIndex(ComponentIndexConfig{Markers: DefaultMarkers(), Logger: w.logger})
	w.slots = append(w.slots, nil)      // slot 0 reserved, EntityId zero value is never valid
	w.generations = append(w.generations, 0)

	for _, opt := range opts {
		opt(w)
	}
	if w.asyncWorkers > 0 {
		w.pool = newWorkerPool(w.asyncWorkers)
	}
	return w
}

// Index returns the world's ComponentIndex.
func (w *World) Index() *ComponentIndex { return w.index }

// Logger returns the world's configured Logger.
func (w *World) Logger() Logger { return w.logger }

// Resources returns the world's shared ResourceContainer.
func (w *World) Resources() ResourceContainer { return w.resources }

// Commands returns a pooled CommandBuffer for deferred mutation; callers
// must return it via PutCommands when done draining.
func (w *World) Commands() *CommandBuffer { return w.bufferPool.Get() }

// PutCommands returns a CommandBuffer obtained from Commands to the pool.
func (w *World) PutCommands(buf *CommandBuffer) { w.bufferPool.Put(buf) }

// ApplyCommands applies every command in cmds against the world, in order.
func (w *World) ApplyCommands(cmds []Command) {
	for _, c := range cmds {
		if c != nil {
			c.Apply(w)
		}
	}
}

// Paused reports whether the world is currently paused.
func (w *World) Paused() bool { return w.paused }

// SetPaused toggles the world's pause state.
func (w *World) SetPaused(paused bool) { w.paused = paused }

// Tick returns the number of completed update phase calls.
func (w *World) Tick() uint64 { return w.tick }

// --- entity allocation -----------------------------------------------------

// CreateEntity allocates a fresh entity, recycling a free slot if one exists
// and bumping its generation counter (spec.md §3).
func (w *World) CreateEntity() *Entity {
	if n := len(w.freeList); n > 0 {
		idx := w.freeList[n-1]
		w.freeList = w.freeList[:n-1]
		w.generations[idx]++
		id := entityIdFromParts(idx, w.generations[idx])
		e := newEntity(id, w)
		w.slots[idx] = e
		w.attachWatchers(e)
		return e
	}
	idx := uint32(len(w.slots))
	w.generations = append(w.generations, 1)
	id := entityIdFromParts(idx, 1)
	e := newEntity(id, w)
	w.slots = append(w.slots, e)
	w.attachWatchers(e)
	return e
}

// attachWatchers subscribes every already-registered ComponentWatcher and
// MessageWatcher to a newly created entity's event channels, so reactive and
// messager systems registered before this entity existed still observe it.
func (w *World) attachWatchers(e *Entity) {
	for _, watcher := range w.watchers {
		watcher.observe(e)
	}
	for _, mw := range w.messageWatchers {
		mw.observe(e)
	}
}

// TryGetEntity returns the live entity for id, or false if id is stale
// (destroyed and its slot recycled, or never allocated).
func (w *World) TryGetEntity(id EntityId) (*Entity, bool) {
	idx := id.Index()
	if idx == 0 || int(idx) >= len(w.slots) {
		return nil, false
	}
	if w.generations[idx] != id.Generation() {
		return nil, false
	}
	e := w.slots[idx]
	if e == nil {
		return nil, false
	}
	return e, true
}

// GetEntity returns the live entity for id, panicking if id is stale or was
// never allocated. spec.md §6 lists both a fatal `get_entity` and an ok-bool
// `try_get_entity`; TryGetEntity is the latter, this is the former.
func (w *World) GetEntity(id EntityId) *Entity {
	e, ok := w.TryGetEntity(id)
	if !ok {
		panic(fmt.Sprintf("ecs: get_entity on stale or unknown id %v", id))
	}
	return e
}

// GetAllEntities returns every live, non-destroyed entity, in slot order.
func (w *World) GetAllEntities() []*Entity {
	out := make([]*Entity, 0, len(w.slots))
	for _, e := range w.slots {
		if e != nil && !e.destroyed {
			out = append(out, e)
		}
	}
	return out
}

// GetEntitiesWith returns every live entity carrying all of types (spec.md §6
// get_entities_with); a zero-length types returns every live entity, same as
// GetAllEntities.
func (w *World) GetEntitiesWith(types ...CompId) []*Entity {
	if len(types) == 0 {
		return w.GetAllEntities()
	}
	out := make([]*Entity, 0)
	for _, e := range w.slots {
		if e == nil || e.destroyed {
			continue
		}
		matches := true
		for _, t := range types {
			if !e.Has(t) {
				matches = false
				break
			}
		}
		if matches {
			out = append(out, e)
		}
	}
	return out
}

// UniqueEntity returns the single non-destroyed entity carrying comp. In
// diagnostics mode it asserts (panics) if more than one entity matches;
// outside diagnostics mode it returns the first one found, since the
// uniqueness violation is documented as diagnostics-only (spec.md §7).
func (w *World) UniqueEntity(comp CompId) (*Entity, bool) {
	var found *Entity
	var count int
	for _, e := range w.slots {
		if e == nil || e.destroyed || !e.Has(comp) {
			continue
		}
		if found == nil {
			found = e
		}
		count++
		if !w.diagnostics && found != nil {
			break
		}
	}
	if w.diagnostics && count > 1 {
		panic("ecs: uniqueness violation: more than one entity carries a component declared unique")
	}
	return found, found != nil
}

// checkRequires emits a diagnostics-mode-only warning for each component
// named in comp's ComponentMeta.Requires that e does not carry (spec.md §6,
// "requires: warning only in diagnostics; the engine does not auto-add").
func (w *World) checkRequires(e *Entity, comp CompId) {
	if !w.diagnostics {
		return
	}
	meta, ok := w.index.Meta(comp)
	if !ok || len(meta.Requires) == 0 {
		return
	}
	for _, req := range meta.Requires {
		if !e.Present(req) {
			w.logger.Warn("component requires another component not present on entity",
				"entity", e.id, "comp", comp, "requires", req)
		}
	}
}

func (w *World) scheduleDestroy(e *Entity) {
	w.pendingDestroy = append(w.pendingDestroy, e)
}

func (w *World) noteMessageSender(e *Entity) {
	w.messageSenders[e.id] = e
}

// disposeDestroyed frees slots for entities destroyed during the phase just
// completed, recycling their index for future CreateEntity calls.
func (w *World) disposeDestroyed() {
	if len(w.pendingDestroy) == 0 {
		return
	}
	for _, e := range w.pendingDestroy {
		e.Dispose()
		idx := e.id.Index()
		if int(idx) < len(w.slots) {
			w.slots[idx] = nil
			w.freeList = append(w.freeList, idx)
		}
	}
	w.pendingDestroy = w.pendingDestroy[:0]
}

func (w *World) clearMessages() {
	if len(w.messageSenders) == 0 {
		return
	}
	for _, e := range w.messageSenders {
		e.clearMessages()
	}
	w.messageSenders = make(map[EntityId]*Entity)
}

// --- hierarchy cascades ------------------------------------------------

func (w *World) cascadeDeactivate(e *Entity) {
	for _, child := range e.Children() {
		if c, ok := w.TryGetEntity(child); ok {
			c.deactivateFromParent()
		}
	}
}

func (w *World) cascadeActivate(e *Entity) {
	for _, child := range e.Children() {
		if c, ok := w.TryGetEntity(child); ok {
			c.activateFromParent()
		}
	}
}

// --- context membership --------------------------------------------------

// acquireContext returns the shared Context for filter, creating and
// indexing it on first use (spec.md §4.3).
func (w *World) acquireContext(filter FilterDecl) *Context {
	norm := filter.normalized()
	id := norm.id()
	if ctx, ok := w.contexts[id]; ok {
		ctx.refCount++
		return ctx
	}
	ctx := newContext(w, filter)
	w.contexts[id] = ctx
	for _, comp := range norm.componentsTouched() {
		w.contextsByComp[comp] = append(w.contextsByComp[comp], ctx)
	}
	for _, e := range w.slots {
		if e != nil {
			ctx.reconsider(e)
		}
	}
	ctx.refCount = 1
	return ctx
}

// reconsiderContextsForComponent re-evaluates every context that reads comp
// against e. Called from Entity.Add/Remove/SendMessage/clearMessages — any
// mutation that can change filter-predicate truth, but not Replace, which
// never changes presence (spec.md §4.3).
func (w *World) reconsiderContextsForComponent(e *Entity, comp CompId) {
	for _, ctx := range w.contextsByComp[comp] {
		ctx.reconsider(e)
	}
}

// --- system registration ---------------------------------------------------

// RegisterSystem resolves sys's capability bitset from the interfaces it
// implements, builds or reuses a Context for meta.Filter, wires any
// ReactiveSystem/MessagerSystem watch sets, and appends it to the
// registration-ordered system list that phase dispatch and reactive drain
// both iterate (spec.md §5/§9). Panics with ErrBadMetadata if a
// ReactiveSystem declares no Watch ids or a MessagerSystem no MessageWatch ids.
func (w *World) RegisterSystem(sys any, meta SystemMeta) SystemId {
	caps := resolveCapability(sys)
	if caps.Has(CapReactive) && len(meta.Watch) == 0 {
		panic(fmt.Errorf("%w: reactive system declares no Watch ids", ErrBadMetadata))
	}
	if caps.Has(CapMessager) && len(meta.MessageWatch) == 0 {
		panic(fmt.Errorf("%w: messager system declares no MessageWatch ids", ErrBadMetadata))
	}
	id := w.nextSys
	w.nextSys++

	rs := &registeredSystem{id: id, sys: sys, caps: caps, meta: meta, active: true}

	if caps&(CapUpdate|CapLateUpdate|CapFixedUpdate|CapStartup|CapEarlyStartup|CapExit|CapRender) != 0 {
		rs.ctx = w.acquireContext(meta.Filter)
	}

	if caps.Has(CapReactive) {
		for _, comp := range meta.Watch {
			watcher, ok := w.watchers[comp]
			if !ok {
				watcher = newComponentWatcher(comp)
				w.watchers[comp] = watcher
				for _, e := range w.slots {
					if e != nil {
						watcher.observe(e)
					}
				}
			}
		}
	}

	if caps.Has(CapMessager) {
		for _, comp := range meta.MessageWatch {
			mw, ok := w.messageWatchers[comp]
			if !ok {
				mw = newMessageWatcher(comp)
				w.messageWatchers[comp] = mw
				for _, e := range w.slots {
					if e != nil {
						mw.observe(e)
					}
				}
			}
			if messager, ok := sys.(MessagerSystem); ok {
				mw.subscribe(func(e *Entity, msg any) { messager.OnMessage(e, msg) })
			}
		}
	}

	w.systems = append(w.systems, rs)
	return id
}

// ValidateAccess reports a conflict if two systems sharing a phase both
// declare write access to the same component or resource, or if a system
// both reads and another writes the same resource. Adapted from the
// teacher's scheduler_impl.go validateSystemsAccess/checkCrossGroupConflicts,
// which ran this check per WorkGroup at registration time; here the unit of
// conflict is a phase capability, since this engine runs systems
// sequentially within a phase rather than grouping them into named,
// independently schedulable WorkGroups. A host calls this once after all
// systems are registered (spec.md §5: filter read/write metadata exists "for
// a future scheduler" — this is that collaborator surface, not a live
// parallel scheduler). RegisterSystem itself does not call this, since a
// conflict can only be judged once every system sharing a phase is known.
func (w *World) ValidateAccess() error {
	phaseCaps := []Capability{
		CapEarlyStartup, CapStartup, CapUpdate, CapLateUpdate, CapFixedUpdate, CapRender, CapExit,
	}
	for _, phaseCap := range phaseCaps {
		if err := w.checkPhaseConflicts(phaseCap); err != nil {
			return err
		}
	}
	return nil
}

func (w *World) checkPhaseConflicts(phaseCap Capability) error {
	componentWriters := make(map[CompId]SystemId)
	resourceWriters := make(map[string]SystemId)
	resourceReaders := make(map[string]SystemId)

	for _, rs := range w.systems {
		if !rs.caps.Has(phaseCap) {
			continue
		}
		for _, comp := range filterWriteComponents(rs.meta.Filter) {
			if owner, exists := componentWriters[comp]; exists && owner != rs.id {
				return fmt.Errorf("%w: system %d and system %d both write component %d", ErrDuplicateWriteAccess, owner, rs.id, comp)
			}
			componentWriters[comp] = rs.id
		}
		for _, res := range rs.meta.Resources {
			switch res.Kind {
			case AccessWrite, AccessReadWrite:
				if owner, exists := resourceWriters[res.Name]; exists && owner != rs.id {
					return fmt.Errorf("%w: system %d and system %d both write resource %q", ErrDuplicateResourceWriteAccess, owner, rs.id, res.Name)
				}
				if reader, exists := resourceReaders[res.Name]; exists && reader != rs.id {
					return fmt.Errorf("%w: system %d writes resource %q already read by system %d", ErrDuplicateResourceWriteAccess, rs.id, res.Name, reader)
				}
				resourceWriters[res.Name] = rs.id
			case AccessRead:
				if owner, exists := resourceWriters[res.Name]; exists && owner != rs.id {
					return fmt.Errorf("%w: system %d reads resource %q already written by system %d", ErrDuplicateResourceWriteAccess, rs.id, res.Name, owner)
				}
				resourceReaders[res.Name] = rs.id
			}
		}
	}
	return nil
}

// findSystem returns the registeredSystem for id, or ErrSystemMissing.
func (w *World) findSystem(id SystemId) (*registeredSystem, error) {
	for _, rs := range w.systems {
		if rs.id == id {
			return rs, nil
		}
	}
	return nil, fmt.Errorf("%w: system id %d", ErrSystemMissing, id)
}

// ActivateSystem marks id active so it resumes running in the phases its
// capabilities cover (spec.md §6 activate_system). With immediate set, the
// change is visible to the phase currently in progress (if any); otherwise
// it is queued and takes effect at the start of the next phase call, mirroring
// how component mutations and message delivery elsewhere in World distinguish
// "now" from "next phase boundary."
func (w *World) ActivateSystem(id SystemId, immediate bool) error {
	rs, err := w.findSystem(id)
	if err != nil {
		return err
	}
	if immediate {
		rs.active = true
		return nil
	}
	w.pendingActivation = append(w.pendingActivation, func() { rs.active = true })
	return nil
}

// DeactivateSystem marks id inactive so it is skipped by phase dispatch
// regardless of pause policy (spec.md §6 deactivate_system). See
// ActivateSystem for the immediate/deferred distinction.
func (w *World) DeactivateSystem(id SystemId, immediate bool) error {
	rs, err := w.findSystem(id)
	if err != nil {
		return err
	}
	if immediate {
		rs.active = false
		return nil
	}
	w.pendingActivation = append(w.pendingActivation, func() { rs.active = false })
	return nil
}

// ActivateAllSystems activates every registered system immediately (spec.md
// §6 activate_all_systems).
func (w *World) ActivateAllSystems() {
	for _, rs := range w.systems {
		rs.active = true
	}
}

// DeactivateAllSystems deactivates every registered system immediately,
// except those whose id appears in skip (spec.md §6 deactivate_all_systems(skip)).
func (w *World) DeactivateAllSystems(skip ...SystemId) {
	skipSet := make(map[SystemId]bool, len(skip))
	for _, id := range skip {
		skipSet[id] = true
	}
	for _, rs := range w.systems {
		if skipSet[rs.id] {
			continue
		}
		rs.active = false
	}
}

func (w *World) applyPendingActivations() {
	if len(w.pendingActivation) == 0 {
		return
	}
	for _, fn := range w.pendingActivation {
		fn()
	}
	w.pendingActivation = w.pendingActivation[:0]
}

// --- phase dispatch --------------------------------------------------------

// shouldRunWhilePaused implements spec.md's pause-policy precedence order
// exactly: include_on_pause -> render excluded -> do_not_pause -> update-kind
// check (§9 Open Questions). The first three are each "excluded from pause
// effects" markers: a system carrying any of them runs the same whether the
// world is paused or not. Only a plain system (none of those three) is
// actually subject to pause, and on_pause inverts its run condition so it
// plays only while paused instead of only while running.
func (rs *registeredSystem) shouldRunWhilePaused(paused bool) bool {
	if rs.meta.IncludeOnPause {
		return true
	}
	if rs.caps.Has(CapRender) {
		return true
	}
	if rs.meta.DoNotPause {
		return true
	}
	if rs.meta.OnPause {
		return paused
	}
	return !paused
}

func (w *World) runPhase(phase Phase) {
	if w.exiting && phase != PhaseExit {
		return
	}
	w.applyPendingActivations()
	want := phase.capability()
	start := time.Now()
	summary := PhaseSummary{Phase: phase, Tick: w.tick}

	for _, rs := range w.systems {
		if !rs.caps.Has(want) {
			continue
		}
		summary.SystemsTotal++
		if !rs.active {
			summary.SystemsSkipped++
			continue
		}
		if !rs.shouldRunWhilePaused(w.paused) {
			summary.SystemsSkipped++
			continue
		}
		w.dispatchPhaseMethod(phase, rs)
		summary.SystemsExecuted++
		summary.ComponentReads = append(summary.ComponentReads, rs.meta.Filter.AllOf...)
		summary.ComponentWrites = append(summary.ComponentWrites, filterWriteComponents(rs.meta.Filter)...)
	}

	w.drainReactive()

	summary.Duration = time.Since(start)
	w.observer.PhaseCompleted(summary)
}

func filterWriteComponents(f FilterDecl) []CompId {
	if f.AccessKind == nil {
		return nil
	}
	var out []CompId
	for comp, kind := range f.AccessKind {
		if kind == AccessWrite || kind == AccessReadWrite {
			out = append(out, comp)
		}
	}
	return out
}

func (w *World) dispatchPhaseMethod(phase Phase, rs *registeredSystem) {
	switch phase {
	case PhaseEarlyStart:
		rs.sys.(EarlyStartupSystem).EarlyStartup(rs.ctx)
	case PhaseStart:
		rs.sys.(StartupSystem).Startup(rs.ctx)
	case PhaseUpdate:
		rs.sys.(UpdateSystem).Update(rs.ctx)
	case PhaseLateUpdate:
		rs.sys.(LateUpdateSystem).LateUpdate(rs.ctx)
	case PhaseFixedUpdate:
		rs.sys.(FixedUpdateSystem).FixedUpdate(rs.ctx)
	case PhaseRender:
		rs.sys.(RenderSystem).Render(rs.ctx)
	case PhaseExit:
		rs.sys.(ExitSystem).Exit(rs.ctx)
	}
}

// drainReactive dispatches every ComponentWatcher's buffered notifications
// to reactive systems, in system-registration order, and within one system
// in the fixed kind order removed/added/modified/enabled/disabled. Because
// one system's reaction can itself add/remove components and trigger more
// notifications, the whole pass repeats until no watcher has anything
// pending (spec.md §4.6, "drain to fixpoint").
func (w *World) drainReactive() {
	for {
		progressed := false
		drained := make(map[CompId]map[NotificationKind][]*Entity)
		for _, rs := range w.systems {
			if !rs.caps.Has(CapReactive) {
				continue
			}
			reactive := rs.sys.(ReactiveSystem)
			for _, comp := range rs.meta.Watch {
				byKind, ok := drained[comp]
				if !ok {
					watcher, found := w.watchers[comp]
					if !found || !watcher.hasPending() {
						continue
					}
					byKind = watcher.drain()
					drained[comp] = byKind
				}
				progressed = true
				dispatchReactiveKind(reactive, NotificationRemoved, byKind)
				dispatchReactiveKind(reactive, NotificationAdded, byKind)
				dispatchReactiveKind(reactive, NotificationModified, byKind)
				dispatchReactiveKind(reactive, NotificationEnabled, byKind)
				dispatchReactiveKind(reactive, NotificationDisabled, byKind)
			}
		}
		if !progressed {
			return
		}
	}
}

func dispatchReactiveKind(sys ReactiveSystem, kind NotificationKind, byKind map[NotificationKind][]*Entity) {
	entities, ok := byKind[kind]
	if !ok || len(entities) == 0 {
		return
	}
	switch kind {
	case NotificationRemoved:
		sys.OnRemoved(entities)
	case NotificationAdded:
		sys.OnAdded(entities)
	case NotificationModified:
		sys.OnModified(entities)
	case NotificationEnabled:
		sys.OnEnabled(entities)
	case NotificationDisabled:
		sys.OnDisabled(entities)
	}
}

// EarlyStart runs every CapEarlyStartup system once, in registration order.
func (w *World) EarlyStart() { w.runPhase(PhaseEarlyStart) }

// Start runs every CapStartup system once, after EarlyStart.
func (w *World) Start() { w.runPhase(PhaseStart) }

// Update runs one variable-timestep frame: every CapUpdate system, then the
// reactive drain, then per-frame message clearing and destroyed-entity disposal.
func (w *World) Update() {
	w.runPhase(PhaseUpdate)
	w.tick++
	w.clearMessages()
	w.disposeDestroyed()
}

// LateUpdate runs every CapLateUpdate system, intended to run after Update
// within the same frame.
func (w *World) LateUpdate() { w.runPhase(PhaseLateUpdate) }

// FixedUpdate runs every CapFixedUpdate system on the host's fixed-timestep clock.
func (w *World) FixedUpdate() { w.runPhase(PhaseFixedUpdate) }

// Render runs every CapRender system. Left to the host to call at whatever
// cadence its render loop uses; the world does not drive the render clock itself.
func (w *World) Render() { w.runPhase(PhaseRender) }

// Exit runs every CapExit system, then disposes every entity (including
// deactivated ones) and every context, and marks the world exiting so
// subsequent phase calls are no-ops (spec.md §5).
func (w *World) Exit() {
	if w.exiting {
		return
	}
	w.runPhase(PhaseExit)
	w.exiting = true
	for _, e := range w.slots {
		if e != nil {
			e.Dispose()
		}
	}
	w.contexts = make(map[ContextId]*Context)
	w.contextsByComp = make(map[CompId][]*Context)
	if w.pool != nil {
		w.pool.Close()
	}
}

// RunAsyncDiagnostics submits fn to the world's worker pool for concurrent,
// read-only execution, returning a handle the caller can Wait on for a
// result and any deferred Commands the system wants applied. Systems run
// this way must not write components directly (ErrAsyncWritesNotSupported);
// they signal intent via the returned Commands instead (SPEC_FULL.md §6.1).
func (w *World) RunAsyncDiagnostics(ctx stdcontext.Context, fn func(stdcontext.Context) ([]Command, error)) *jobHandle {
	return w.pool.Submit(ctx, func(c stdcontext.Context) jobResult {
		cmds, err := fn(c)
		return jobResult{err: err, commands: cmds}
	})
}
