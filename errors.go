package ecs

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidType signals that a type registered with the ComponentIndex is
	// neither a Component nor a Message.
	ErrInvalidType = errors.New("ecs: type is neither a component nor a message")
	// ErrMissingComponent signals Entity.Get on an absent component.
	ErrMissingComponent = errors.New("ecs: component not present on entity")
	// ErrBadMetadata signals a system declared a capability without the
	// metadata that capability requires (Reactive without watcher, Messager
	// without messager).
	ErrBadMetadata = errors.New("ecs: system metadata incomplete for declared capability")
	// ErrSystemMissing is returned by activate/deactivate for an unregistered system.
	ErrSystemMissing = errors.New("ecs: system not registered")
	// ErrWorldExiting names the exiting state. Phase methods called after
	// Exit() return without running any system and do not report this error.
	ErrWorldExiting = errors.New("ecs: world is exiting")
	// ErrComponentAlreadyRegistered indicates an attempt to register the same component twice.
	ErrComponentAlreadyRegistered = errors.New("ecs: component already registered")
	// ErrComponentNotRegistered signals lookup on an unknown component id.
	ErrComponentNotRegistered = errors.New("ecs: component not registered")
	// ErrNilStorageStrategy is returned when storage registration receives a nil strategy.
	ErrNilStorageStrategy = errors.New("ecs: nil storage strategy")
	// ErrNilComponentStore is returned when a strategy produces a nil store.
	ErrNilComponentStore = errors.New("ecs: strategy returned nil store")
	// ErrWorkerPoolClosed indicates jobs cannot be submitted because the pool closed.
	ErrWorkerPoolClosed = errors.New("ecs: worker pool closed")
	// ErrAsyncWritesNotSupported indicates an async diagnostics batch attempted to mutate components.
	ErrAsyncWritesNotSupported = errors.New("ecs: async diagnostics system cannot perform component writes")
	// ErrAsyncSystemNotAllowed indicates a system opted out of async execution.
	ErrAsyncSystemNotAllowed = errors.New("ecs: system does not allow async execution")
	// ErrDuplicateWriteAccess indicates two systems registered for the same
	// phase both declare write access to the same component (World.ValidateAccess).
	ErrDuplicateWriteAccess = errors.New("ecs: duplicate write access to component in phase")
	// ErrDuplicateResourceWriteAccess indicates conflicting resource write
	// claims declared by two systems in the same phase (World.ValidateAccess).
	ErrDuplicateResourceWriteAccess = errors.New("ecs: duplicate write access to resource in phase")
	// ErrAsyncResourceWritesNotSupported indicates an async diagnostics batch
	// attempted to mutate a resource directly instead of through a Command.
	ErrAsyncResourceWritesNotSupported = errors.New("ecs: async diagnostics system cannot perform resource writes")
)

// MissingComponentError is the typed payload behind a panic raised by
// Entity.Get when the requested component is absent. spec.md classifies this
// as a fatal programmer error (§7); EntityGetRecover lets a host integration
// convert it back into an error at a chosen boundary.
type MissingComponentError struct {
	Entity EntityId
	Comp   CompId
}

func (e *MissingComponentError) Error() string {
	return fmt.Sprintf("%v: entity %v missing component %d", ErrMissingComponent, e.Entity, e.Comp)
}

func (e *MissingComponentError) Unwrap() error {
	return ErrMissingComponent
}

// EntityGetRecover runs fn and converts a MissingComponentError panic raised
// inside it (by Entity.Get) into a returned error. Use at a host integration
// boundary; system bodies are documented best practice to not rely on this.
func EntityGetRecover(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if mce, ok := r.(*MissingComponentError); ok {
				err = mce
				return
			}
			panic(r)
		}
	}()
	fn()
	return nil
}
