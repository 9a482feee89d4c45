package ecs

// ComponentEvent is the payload delivered on component add/before-modify/modify.
type ComponentEvent struct {
	Entity *Entity
	Comp   CompId
}

// ComponentRemoveEvent is the payload delivered on component before-remove/remove.
type ComponentRemoveEvent struct {
	Entity          *Entity
	Comp            CompId
	WillDestroy     bool
	CausedByDestroy bool
}

// MessageEvent is the payload delivered on message send.
type MessageEvent struct {
	Entity  *Entity
	Comp    CompId
	Message any
}

// Entity owns its components and messages, emits lifecycle events, and
// maintains a parent/child hierarchy (spec.md §3/§4.2). Entities are
// references into World-owned storage; validity extends to the end of the
// current phase or until Destroy, whichever is sooner (spec.md §5).
type Entity struct {
	id    EntityId
	world *World

	components map[CompId]any
	messages   map[CompId]any

	hasParent bool
	parent    EntityId

	childByID   map[EntityId]string
	childByName map[string]EntityId

	destroyed              bool
	deactivated             bool
	deactivatedFromParent   bool
	independentDeactivation bool // deactivated by direct call, not by a parent cascade

	memberContexts map[ContextId]*Context

	onComponentAdded           emitter[ComponentEvent]
	onComponentBeforeModifying emitter[ComponentEvent]
	onComponentModified        emitter[ComponentEvent]
	onComponentBeforeRemoving  emitter[ComponentRemoveEvent]
	onComponentRemoved         emitter[ComponentRemoveEvent]
	onEntityActivated          emitter[EntityId]
	onEntityDeactivated        emitter[EntityId]
	onEntityDestroyed          emitter[EntityId]
	onMessage                  emitter[MessageEvent]
}

func newEntity(id EntityId, w *World) *Entity {
	return &Entity{
		id:             id,
		world:          w,
		components:     make(map[CompId]any),
		messages:       make(map[CompId]any),
		childByID:      make(map[EntityId]string),
		childByName:    make(map[string]EntityId),
		memberContexts: make(map[ContextId]*Context),
	}
}

// Id returns the entity's identifier.
func (e *Entity) Id() EntityId { return e.id }

// Destroyed reports whether the entity has been scheduled for or completed destruction.
func (e *Entity) Destroyed() bool { return e.destroyed }

// Deactivated reports whether the entity is currently deactivated.
func (e *Entity) Deactivated() bool { return e.deactivated }

// DeactivatedFromParent reports whether deactivation was caused by a parent cascade.
func (e *Entity) DeactivatedFromParent() bool { return e.deactivatedFromParent }

// Has reports whether comp is present on the entity.
func (e *Entity) Has(comp CompId) bool {
	_, ok := e.components[comp]
	return ok
}

// HasMessage reports whether a message of comp's id was sent this frame.
func (e *Entity) HasMessage(comp CompId) bool {
	_, ok := e.messages[comp]
	return ok
}

// Present implements the filter-predicate presence rule of spec.md §4.3:
// has(comp) OR has_message(comp).
func (e *Entity) Present(comp CompId) bool {
	return e.Has(comp) || e.HasMessage(comp)
}

// TryGet returns the component and true if present, else the zero value and false.
func (e *Entity) TryGet(comp CompId) (any, bool) {
	v, ok := e.components[comp]
	return v, ok
}

// Get returns the component, panicking with a *MissingComponentError if
// absent. spec.md §7 classifies this as a fatal programmer error.
func (e *Entity) Get(comp CompId) any {
	v, ok := e.components[comp]
	if !ok {
		panic(&MissingComponentError{Entity: e.id, Comp: comp})
	}
	return v
}

// Add stores value under comp. A duplicate add warns and is a no-op
// (spec.md §7 DuplicateAdd); mutating a destroyed entity is a silent no-op.
func (e *Entity) Add(comp CompId, value any) {
	if e.destroyed {
		return
	}
	if _, exists := e.components[comp]; exists {
		e.logger().Warn("duplicate component add, use Replace instead", "entity", e.id, "comp", comp)
		return
	}
	e.components[comp] = value
	e.onComponentAdded.Emit(ComponentEvent{Entity: e, Comp: comp})
	e.world.reconsiderContextsForComponent(e, comp)
	e.world.checkRequires(e, comp)
}

// Replace swaps the stored value for comp, emitting before-modifying then
// modified. If force is false the implementation may short-circuit when the
// new value structurally equals the old one (spec.md §4.2). Replacing an
// absent component warns and is a no-op (ReplaceAbsent).
func (e *Entity) Replace(comp CompId, value any, force bool) {
	if e.destroyed {
		return
	}
	old, exists := e.components[comp]
	if !exists {
		e.logger().Warn("replace on absent component, use Add instead", "entity", e.id, "comp", comp)
		return
	}
	if !force && structurallyEqual(old, value) {
		return
	}
	e.onComponentBeforeModifying.Emit(ComponentEvent{Entity: e, Comp: comp})
	e.components[comp] = value
	e.onComponentModified.Emit(ComponentEvent{Entity: e, Comp: comp})
}

// WipeReplace performs a wholesale replacement of the entity's component set
// (spec.md §9 Open Questions: "replace with wipe=true iterates self._children
// twice and both with different semantics"). Resolution adopted here:
// components flagged keep_on_replace in idx survive the wipe; every other
// present component is removed first (firing before_removing/removed without
// letting the interim emptiness auto-destroy the entity), then newComponents
// are added or replaced in. Children are walked in a single pass: a child
// that itself carries at least one keep_on_replace component
// is left parented across the wipe; every other child is destroyed. A
// no-op on a destroyed entity; if the wipe leaves the entity with no
// components and newComponents is empty, the entity is destroyed.
func (e *Entity) WipeReplace(idx *ComponentIndex, newComponents map[CompId]any) {
	if e.destroyed {
		return
	}
	for comp := range e.components {
		meta, _ := idx.Meta(comp)
		if meta.KeepOnReplace {
			continue
		}
		e.onComponentBeforeRemoving.Emit(ComponentRemoveEvent{Entity: e, Comp: comp})
		delete(e.components, comp)
		e.onComponentRemoved.Emit(ComponentRemoveEvent{Entity: e, Comp: comp})
		e.world.reconsiderContextsForComponent(e, comp)
	}

	for _, childID := range e.Children() {
		child, ok := e.world.TryGetEntity(childID)
		if !ok {
			continue
		}
		if childSurvivesWipe(idx, child) {
			continue
		}
		child.Destroy()
	}

	for comp, value := range newComponents {
		if e.Has(comp) {
			e.Replace(comp, value, true)
			continue
		}
		e.Add(comp, value)
	}

	if len(e.components) == 0 {
		e.Destroy()
	}
}

// childSurvivesWipe reports whether child carries any keep_on_replace
// component, the adopted test for "kept" in WipeReplace's child pass.
func childSurvivesWipe(idx *ComponentIndex, child *Entity) bool {
	for comp := range child.components {
		meta, _ := idx.Meta(comp)
		if meta.KeepOnReplace {
			return true
		}
	}
	return false
}

// AddOrReplace dispatches to Add or Replace(force=true) based on presence.
func (e *Entity) AddOrReplace(comp CompId, value any) {
	if e.Has(comp) {
		e.Replace(comp, value, true)
		return
	}
	e.Add(comp, value)
}

// Remove clears comp, emitting before-removing then removed. If the entity
// has no components left afterward it transitions to Destroy. A no-op on a
// destroyed entity or an absent component.
func (e *Entity) Remove(comp CompId) {
	if e.destroyed {
		return
	}
	if _, exists := e.components[comp]; !exists {
		return
	}
	willDestroy := len(e.components) == 1
	e.onComponentBeforeRemoving.Emit(ComponentRemoveEvent{Entity: e, Comp: comp, WillDestroy: willDestroy})
	delete(e.components, comp)
	e.onComponentRemoved.Emit(ComponentRemoveEvent{Entity: e, Comp: comp, WillDestroy: willDestroy})
	e.world.reconsiderContextsForComponent(e, comp)
	if willDestroy {
		e.Destroy()
	}
}

// Destroy removes every present component (emitting before_removing/removed
// with CausedByDestroy=true for each), marks the entity destroyed, and emits
// on_entity_destroyed. Actual table cleanup is deferred to World's
// end-of-phase dispose pass. Idempotent.
func (e *Entity) Destroy() {
	if e.destroyed {
		return
	}
	for comp := range e.components {
		e.onComponentBeforeRemoving.Emit(ComponentRemoveEvent{Entity: e, Comp: comp, WillDestroy: true, CausedByDestroy: true})
		delete(e.components, comp)
		e.onComponentRemoved.Emit(ComponentRemoveEvent{Entity: e, Comp: comp, WillDestroy: true, CausedByDestroy: true})
		e.world.reconsiderContextsForComponent(e, comp)
	}
	e.destroyed = true
	e.onEntityDestroyed.Emit(e.id)
	e.world.scheduleDestroy(e)
}

// Activate reactivates a deactivated entity. Idempotent; moves the entity to
// the active bucket of its member contexts, emits on_entity_activated, and
// reactivates children that were deactivated by this entity's cascade.
func (e *Entity) Activate() {
	if e.destroyed || !e.deactivated {
		return
	}
	e.deactivated = false
	e.deactivatedFromParent = false
	e.independentDeactivation = false
	for _, ctx := range e.memberContexts {
		ctx.activateMember(e)
	}
	e.onEntityActivated.Emit(e.id)
	e.world.cascadeActivate(e)
}

// Deactivate deactivates an active entity. Idempotent; moves the entity to
// the deactivated bucket of its member contexts, emits on_entity_deactivated,
// and cascades deactivation to its children.
func (e *Entity) Deactivate() {
	if e.destroyed || e.deactivated {
		return
	}
	e.deactivated = true
	e.independentDeactivation = true
	for _, ctx := range e.memberContexts {
		ctx.deactivateMember(e)
	}
	e.onEntityDeactivated.Emit(e.id)
	e.world.cascadeDeactivate(e)
}

// deactivateFromParent is the cascade path: the parent drives deactivation,
// so the child is tagged deactivated_from_parent and reactivating the
// parent reactivates exactly this set (spec.md §3, S4).
func (e *Entity) deactivateFromParent() {
	if e.destroyed || e.deactivated {
		return
	}
	e.deactivated = true
	e.deactivatedFromParent = true
	e.independentDeactivation = false
	for _, ctx := range e.memberContexts {
		ctx.deactivateMember(e)
	}
	e.onEntityDeactivated.Emit(e.id)
	e.world.cascadeDeactivate(e)
}

func (e *Entity) activateFromParent() {
	if e.destroyed || !e.deactivated || !e.deactivatedFromParent {
		return
	}
	e.deactivated = false
	e.deactivatedFromParent = false
	for _, ctx := range e.memberContexts {
		ctx.activateMember(e)
	}
	e.onEntityActivated.Emit(e.id)
	e.world.cascadeActivate(e)
}

// Parent returns the parent id and true if this entity has a parent.
func (e *Entity) Parent() (EntityId, bool) {
	return e.parent, e.hasParent
}

// Reparent detaches from any existing parent and attaches to newParent. If
// newParent is already destroyed, the child is destroyed instead (spec.md §4.2).
func (e *Entity) Reparent(newParent EntityId) {
	if e.destroyed {
		return
	}
	e.unparent()

	p, ok := e.world.TryGetEntity(newParent)
	if !ok || p.destroyed {
		e.Destroy()
		return
	}
	e.hasParent = true
	e.parent = newParent
	p.childByID[e.id] = ""
	if p.deactivated {
		e.deactivateFromParent()
	}
}

// Unparent detaches this entity from its current parent, if any.
func (e *Entity) Unparent() {
	e.unparent()
}

func (e *Entity) unparent() {
	if !e.hasParent {
		return
	}
	if p, ok := e.world.TryGetEntity(e.parent); ok {
		if name, hasName := p.childByID[e.id]; hasName && name != "" {
			delete(p.childByName, name)
		}
		delete(p.childByID, e.id)
	}
	e.hasParent = false
	e.parent = EntityId{}
}

// AddChild registers child under this entity, optionally with a lookup name.
func (e *Entity) AddChild(child EntityId, name string) {
	if e.destroyed {
		return
	}
	c, ok := e.world.TryGetEntity(child)
	if !ok {
		return
	}
	c.Reparent(e.id)
	if name != "" {
		e.childByID[child] = name
		e.childByName[name] = child
	}
}

// RemoveChild detaches the named or identified child, if present.
func (e *Entity) RemoveChild(child EntityId) {
	if c, ok := e.world.TryGetEntity(child); ok {
		c.Unparent()
	}
}

// RemoveChildByName detaches the child registered under name, if any.
func (e *Entity) RemoveChildByName(name string) {
	if id, ok := e.childByName[name]; ok {
		e.RemoveChild(id)
	}
}

// HasChild reports whether id is a direct child of this entity.
func (e *Entity) HasChild(id EntityId) bool {
	_, ok := e.childByID[id]
	return ok
}

// TryFetchChildByID returns the child entity for id, if it is a direct child.
func (e *Entity) TryFetchChildByID(id EntityId) (*Entity, bool) {
	if !e.HasChild(id) {
		return nil, false
	}
	return e.world.TryGetEntity(id)
}

// TryFetchChildByName returns the child entity registered under name, if any.
func (e *Entity) TryFetchChildByName(name string) (*Entity, bool) {
	id, ok := e.childByName[name]
	if !ok {
		return nil, false
	}
	return e.world.TryGetEntity(id)
}

// Children returns a snapshot of this entity's direct children ids.
func (e *Entity) Children() []EntityId {
	out := make([]EntityId, 0, len(e.childByID))
	for id := range e.childByID {
		out = append(out, id)
	}
	return out
}

// SendMessage stores msg under comp for this frame only, fires on_message,
// and notifies the world that this entity has a pending message to clear at
// the end of update.
func (e *Entity) SendMessage(comp CompId, msg any) {
	if e.destroyed {
		return
	}
	e.messages[comp] = msg
	e.onMessage.Emit(MessageEvent{Entity: e, Comp: comp, Message: msg})
	e.world.reconsiderContextsForComponent(e, comp)
	e.world.noteMessageSender(e)
}

// clearMessages empties this frame's message table; called by the world at
// the end of update for every entity that sent one.
func (e *Entity) clearMessages() {
	for comp := range e.messages {
		delete(e.messages, comp)
		e.world.reconsiderContextsForComponent(e, comp)
	}
}

// Dispose unparents, removes every remaining component (firing
// notifications so listeners can clean up), and clears every event channel.
// Called once by the world at end-of-phase entity cleanup or at exit().
func (e *Entity) Dispose() {
	e.unparent()
	for _, child := range e.Children() {
		if c, ok := e.world.TryGetEntity(child); ok {
			c.Unparent()
		}
	}
	for comp := range e.components {
		e.onComponentBeforeRemoving.Emit(ComponentRemoveEvent{Entity: e, Comp: comp, WillDestroy: true, CausedByDestroy: true})
		delete(e.components, comp)
		e.onComponentRemoved.Emit(ComponentRemoveEvent{Entity: e, Comp: comp, WillDestroy: true, CausedByDestroy: true})
	}
	for _, ctx := range e.memberContexts {
		ctx.leave(e)
	}
	e.onComponentAdded.Clear()
	e.onComponentBeforeModifying.Clear()
	e.onComponentModified.Clear()
	e.onComponentBeforeRemoving.Clear()
	e.onComponentRemoved.Clear()
	e.onEntityActivated.Clear()
	e.onEntityDeactivated.Clear()
	e.onEntityDestroyed.Clear()
	e.onMessage.Clear()
}

func (e *Entity) logger() Logger {
	if e.world == nil {
		return noopLogger{}
	}
	return e.world.Logger()
}

// structurallyEqual is used by Replace's non-force short-circuit. Comparable
// component values compare with ==; everything else is treated as changed
// (Go has no universal deep-equality for arbitrary `any` without reflect,
// and reflect.DeepEqual on pointers/closures would be misleading here).
func structurallyEqual(a, b any) bool {
	defer func() { recover() }()
	return a == b
}
