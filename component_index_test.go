package ecs_test

import (
	"reflect"
	"testing"

	ecs "github.com/duskforge/ecsworld"
)

type customStateMachine struct {
	ecs.StateMachineBase
}

type customInteractive struct {
	ecs.InteractiveBase
}

func TestComponentIndexReservesMarkerIdsInOrder(t *testing.T) {
	idx := ecs.NewComponentIndex(ecs.ComponentIndexConfig{Markers: ecs.DefaultMarkers()})

	smId := idx.IdOf(reflect.TypeOf((*ecs.StateMachineComponent)(nil)).Elem())
	interactiveId := idx.IdOf(reflect.TypeOf((*ecs.Interactive)(nil)).Elem())
	transformId := idx.IdOf(reflect.TypeOf((*ecs.TransformComponent)(nil)).Elem())

	if smId != 0 {
		t.Fatalf("expected StateMachine marker id 0, got %d", smId)
	}
	if interactiveId != 1 {
		t.Fatalf("expected Interactive marker id 1, got %d", interactiveId)
	}
	if transformId != 2 {
		t.Fatalf("expected Transform marker id 2, got %d", transformId)
	}
}

func TestComponentIndexResolvesInterfaceInheritance(t *testing.T) {
	idx := ecs.NewComponentIndex(ecs.ComponentIndexConfig{Markers: ecs.DefaultMarkers()})

	smMarkerId := ecs.Id[ecs.StateMachineComponent](idx)
	concreteId := ecs.Id[customStateMachine](idx)

	if concreteId != smMarkerId {
		t.Fatalf("expected unregistered StateMachine descendant to resolve to the marker id %d, got %d", smMarkerId, concreteId)
	}
}

func TestComponentIndexAssignsDisjointTiers(t *testing.T) {
	type compA struct{ ecs.ComponentBase }
	type msgA struct{ ecs.MessageBase }

	idx := ecs.NewComponentIndex(ecs.ComponentIndexConfig{
		Markers:    ecs.DefaultMarkers(),
		Components: []ecs.ComponentTypeEntry{{Type: reflect.TypeOf(compA{})}},
		Messages:   []reflect.Type{reflect.TypeOf(msgA{})},
	})

	compId := idx.IdOf(reflect.TypeOf(compA{}))
	msgId := idx.IdOf(reflect.TypeOf(msgA{}))

	if idx.IsMessage(compId) {
		t.Fatalf("expected tracked component id to not be classified as a message")
	}
	if !idx.IsMessage(msgId) {
		t.Fatalf("expected tracked message id to be classified as a message")
	}
	if compId == msgId {
		t.Fatalf("expected disjoint ids for component and message tiers")
	}
}

func TestComponentIndexUntrackedTypeGetsLazyId(t *testing.T) {
	type lazyComp struct{ ecs.ComponentBase }

	idx := ecs.NewComponentIndex(ecs.ComponentIndexConfig{Markers: ecs.DefaultMarkers()})
	before := idx.TotalIndices()

	id := ecs.Id[lazyComp](idx)
	if idx.TotalIndices() != before+1 {
		t.Fatalf("expected exactly one new id assigned for an untracked type")
	}

	again := ecs.Id[lazyComp](idx)
	if again != id {
		t.Fatalf("expected repeated lookups of the same type to return the same id")
	}
}

func TestComponentIndexInvalidTypePanics(t *testing.T) {
	idx := ecs.NewComponentIndex(ecs.ComponentIndexConfig{Markers: ecs.DefaultMarkers()})

	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("expected panic for a type implementing neither Component nor Message")
		}
	}()
	idx.IdOf(reflect.TypeOf(42))
}
