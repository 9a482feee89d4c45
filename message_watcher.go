package ecs

// MessageWatcher dispatches a message immediately to every subscribed
// Messager system, unlike ComponentWatcher's per-frame coalescing — spec.md
// §4.5 treats messages as transient signals with no add/remove lifecycle to
// coalesce, so there is nothing to buffer.
type MessageWatcher struct {
	comp      CompId
	listeners []func(*Entity, any)
}

func newMessageWatcher(comp CompId) *MessageWatcher {
	return &MessageWatcher{comp: comp}
}

// observe attaches this watcher's dispatch to one entity's message channel.
func (w *MessageWatcher) observe(e *Entity) {
	e.onMessage.Subscribe(func(ev MessageEvent) {
		if ev.Comp != w.comp {
			return
		}
		for _, fn := range w.listeners {
			fn(ev.Entity, ev.Message)
		}
	})
}

// subscribe registers a dispatch target, returning nothing since Messager
// systems are registered once at world-build time and never individually removed.
func (w *MessageWatcher) subscribe(fn func(*Entity, any)) {
	w.listeners = append(w.listeners, fn)
}
