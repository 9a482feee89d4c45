package ecs

// The functions below are thin generic convenience wrappers over the
// low-level CompId-keyed Entity methods, grounded in the generic accessor
// pattern other pack examples build on top of their own low-level storage
// (e.g. lazyecs' GetComponent[T]/SetComponent[T]). They exist purely for
// caller ergonomics — Entity's own methods remain the primitive, id-keyed API.

// GetComponent returns entity's component of type T, panicking via
// *MissingComponentError if absent (same contract as Entity.Get).
func GetComponent[T any](idx *ComponentIndex, e *Entity) T {
	return e.Get(Id[T](idx)).(T)
}

// TryGetComponent returns entity's component of type T and true if present.
func TryGetComponent[T any](idx *ComponentIndex, e *Entity) (T, bool) {
	v, ok := e.TryGet(Id[T](idx))
	if !ok {
		var zero T
		return zero, false
	}
	return v.(T), true
}

// HasComponent reports whether entity carries a component of type T.
func HasComponent[T any](idx *ComponentIndex, e *Entity) bool {
	return e.Has(Id[T](idx))
}

// AddComponent adds value to entity under its resolved CompId.
func AddComponent[T any](idx *ComponentIndex, e *Entity, value T) {
	e.Add(Id[T](idx), value)
}

// ReplaceComponent replaces entity's component of type T.
func ReplaceComponent[T any](idx *ComponentIndex, e *Entity, value T, force bool) {
	e.Replace(Id[T](idx), value, force)
}

// AddOrReplaceComponent adds or replaces entity's component of type T.
func AddOrReplaceComponent[T any](idx *ComponentIndex, e *Entity, value T) {
	e.AddOrReplace(Id[T](idx), value)
}

// RemoveComponent removes entity's component of type T, if present.
func RemoveComponent[T any](idx *ComponentIndex, e *Entity) {
	e.Remove(Id[T](idx))
}

// SendTypedMessage sends msg under its resolved CompId.
func SendTypedMessage[T any](idx *ComponentIndex, e *Entity, msg T) {
	e.SendMessage(Id[T](idx), msg)
}
