package ecs

// pendingNotification coalesces every event that happened to one entity for
// one watched component within a single frame, per spec.md §4.4. Only the
// final outcome for each NotificationKind bucket is kept; the cancellation
// rules live in record().
type pendingNotification struct {
	entity *Entity
	kinds  map[NotificationKind]bool
	// existedMidFrame records that the component was present at some point
	// during the frame even if it was later removed before cancellation
	// would otherwise suppress the removed notification (S3: add-then-remove
	// in the same frame still emits removed because the component existed).
	existedMidFrame bool
}

// ComponentWatcher buffers add/remove/modify/enable/disable notifications
// for one component id across a frame and hands them to reactive systems in
// the fixed kind order removed, added, modified, enabled, disabled
// (spec.md §4.4/§4.6).
type ComponentWatcher struct {
	comp    CompId
	pending map[EntityId]*pendingNotification

	unsubAdded    Token
	unsubRemoved  Token
	unsubModified Token
	unsubEnabled  Token
	unsubDisabled Token
}

func newComponentWatcher(comp CompId) *ComponentWatcher {
	return &ComponentWatcher{
		comp:    comp,
		pending: make(map[EntityId]*pendingNotification),
	}
}

func (w *ComponentWatcher) entry(e *Entity) *pendingNotification {
	p, ok := w.pending[e.id]
	if !ok {
		p = &pendingNotification{entity: e, kinds: make(map[NotificationKind]bool)}
		w.pending[e.id] = p
	}
	return p
}

// observe attaches this watcher to one entity's granular component events.
// Called for every entity: at creation (World.attachWatchers) and, for
// entities that already exist, when the watcher itself is created.
func (w *ComponentWatcher) observe(e *Entity) {
	e.onComponentAdded.Subscribe(func(ev ComponentEvent) {
		if ev.Comp != w.comp {
			return
		}
		w.recordAdd(ev.Entity)
	})
	e.onComponentRemoved.Subscribe(func(ev ComponentRemoveEvent) {
		if ev.Comp != w.comp {
			return
		}
		w.recordRemove(ev.Entity)
	})
	e.onComponentModified.Subscribe(func(ev ComponentEvent) {
		if ev.Comp != w.comp {
			return
		}
		w.recordModify(ev.Entity)
	})
	e.onEntityActivated.Subscribe(func(id EntityId) {
		if !e.Has(w.comp) {
			return
		}
		w.recordEnabled(e)
	})
	e.onEntityDeactivated.Subscribe(func(id EntityId) {
		if !e.Has(w.comp) {
			return
		}
		w.recordDisabled(e)
	})
}

func (w *ComponentWatcher) recordAdd(e *Entity) {
	p := w.entry(e)
	p.existedMidFrame = true
	if p.kinds[NotificationRemoved] {
		// A component removed-then-readded this frame cancels both: the net
		// effect is no change from the pre-frame observer's point of view.
		delete(p.kinds, NotificationRemoved)
		return
	}
	p.kinds[NotificationAdded] = true
}

func (w *ComponentWatcher) recordRemove(e *Entity) {
	p := w.entry(e)
	if p.kinds[NotificationAdded] {
		// Added then removed in the same frame: cancel the add. The removed
		// notification still fires because the component existed mid-frame
		// (spec.md §4.4 scenario S3).
		delete(p.kinds, NotificationAdded)
		p.kinds[NotificationRemoved] = true
		return
	}
	p.kinds[NotificationRemoved] = true
}

func (w *ComponentWatcher) recordModify(e *Entity) {
	p := w.entry(e)
	if p.kinds[NotificationAdded] {
		// Already queued as a fresh add this frame; a modify collapses into it.
		return
	}
	p.kinds[NotificationModified] = true
}

func (w *ComponentWatcher) recordEnabled(e *Entity) {
	p := w.entry(e)
	if p.kinds[NotificationAdded] {
		// Component was added in the same frame the entity was (re)activated;
		// the add notification already communicates the entity is live.
		return
	}
	delete(p.kinds, NotificationDisabled)
	p.kinds[NotificationEnabled] = true
}

func (w *ComponentWatcher) recordDisabled(e *Entity) {
	p := w.entry(e)
	if p.kinds[NotificationAdded] {
		// Deactivated in the same frame the component was added: cancel the
		// add and suppress disabled, since no reactive system ever observed
		// the component as live (spec.md §4.4, the deactivate-after-add rule).
		delete(p.kinds, NotificationAdded)
		p.existedMidFrame = false
		return
	}
	delete(p.kinds, NotificationEnabled)
	p.kinds[NotificationDisabled] = true
}

// drain returns, for each NotificationKind in notificationDispatchOrder, the
// set of entities pending that kind, and clears the buffer. Destroyed
// entities are excluded from every kind except removed, since a destroyed
// entity has nothing left to add/modify/enable/disable (spec.md §4.4).
func (w *ComponentWatcher) drain() map[NotificationKind][]*Entity {
	out := make(map[NotificationKind][]*Entity)
	for _, p := range w.pending {
		for _, kind := range notificationDispatchOrder {
			if !p.kinds[kind] {
				continue
			}
			if p.entity.destroyed && kind != NotificationRemoved {
				continue
			}
			out[kind] = append(out[kind], p.entity)
		}
	}
	w.pending = make(map[EntityId]*pendingNotification)
	return out
}

// hasPending reports whether any notification is queued, used by World's
// reactive drain-to-fixpoint loop to decide whether another pass is needed.
func (w *ComponentWatcher) hasPending() bool {
	return len(w.pending) > 0
}
