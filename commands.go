package ecs

// Command is a deferred mutation queued onto a CommandBuffer and applied
// against a World when the caller passes it to World.ApplyCommands; World
// does not apply queued commands on its own. This lets RunAsyncDiagnostics
// systems (which must not write components directly, per
// ErrAsyncWritesNotSupported) still request mutations (SPEC_FULL.md §6.1,
// command pattern adapted from the teacher's command_buffer.go).
type Command interface {
	Apply(w *World)
}

type destroyEntityCommand struct {
	entity EntityId
}

// NewDestroyEntityCommand returns a Command that destroys entity when applied.
func NewDestroyEntityCommand(entity EntityId) Command {
	return destroyEntityCommand{entity: entity}
}

func (c destroyEntityCommand) Apply(w *World) {
	if e, ok := w.TryGetEntity(c.entity); ok {
		e.Destroy()
	}
}

type createEntityCommand struct {
	setup func(*Entity)
}

// NewCreateEntityCommand returns a Command that creates a fresh entity and
// runs setup against it when applied. setup may be nil.
func NewCreateEntityCommand(setup func(*Entity)) Command {
	return createEntityCommand{setup: setup}
}

func (c createEntityCommand) Apply(w *World) {
	e := w.CreateEntity()
	if c.setup != nil {
		c.setup(e)
	}
}

type addComponentCommand struct {
	entity EntityId
	comp   CompId
	value  any
}

// NewAddComponentCommand returns a Command that adds value under comp to
// entity when applied.
func NewAddComponentCommand(entity EntityId, comp CompId, value any) Command {
	return addComponentCommand{entity: entity, comp: comp, value: value}
}

func (c addComponentCommand) Apply(w *World) {
	if e, ok := w.TryGetEntity(c.entity); ok {
		e.Add(c.comp, c.value)
	}
}

type removeComponentCommand struct {
	entity EntityId
	comp   CompId
}

// NewRemoveComponentCommand returns a Command that removes comp from entity
// when applied.
func NewRemoveComponentCommand(entity EntityId, comp CompId) Command {
	return removeComponentCommand{entity: entity, comp: comp}
}

func (c removeComponentCommand) Apply(w *World) {
	if e, ok := w.TryGetEntity(c.entity); ok {
		e.Remove(c.comp)
	}
}

type sendMessageCommand struct {
	entity EntityId
	comp   CompId
	value  any
}

// NewSendMessageCommand returns a Command that sends value under comp to
// entity when applied.
func NewSendMessageCommand(entity EntityId, comp CompId, value any) Command {
	return sendMessageCommand{entity: entity, comp: comp, value: value}
}

func (c sendMessageCommand) Apply(w *World) {
	if e, ok := w.TryGetEntity(c.entity); ok {
		e.SendMessage(c.comp, c.value)
	}
}
