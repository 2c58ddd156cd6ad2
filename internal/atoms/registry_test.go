package atoms

import (
	"errors"
	"reflect"
	"testing"

	"github.com/flowmind/flowmind/internal/domain"
)

func TestRegistry_RegisterAndGet(t *testing.T) {
	reg := NewRegistry()

	def := domain.AtomDef{
		ID:          "globalx.permission.query_permissions",
		Description: "query transfer permission",
		Inputs:      []domain.AtomInput{{Name: "user_id", Required: true}},
		Outputs:     []domain.AtomOutput{{Name: "has_permission"}},
	}
	if err := reg.Register(def); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, ok := reg.Get(def.ID)
	if !ok {
		t.Fatal("registered atom not found")
	}
	if !reflect.DeepEqual(got, def) {
		t.Errorf("got %+v, want %+v", got, def)
	}

	if _, ok := reg.Get("no.such.atom"); ok {
		t.Error("unknown atom should not be found")
	}
}

func TestRegistry_EmptyIDRejected(t *testing.T) {
	reg := NewRegistry()
	err := reg.Register(domain.AtomDef{})
	if !errors.Is(err, ErrEmptyAtomID) {
		t.Errorf("expected ErrEmptyAtomID, got %v", err)
	}
}

func TestRegistry_LastRegistrationWins(t *testing.T) {
	reg := NewRegistry()
	_ = reg.Register(domain.AtomDef{ID: "a.b.c", Description: "first"})
	_ = reg.Register(domain.AtomDef{ID: "a.b.c", Description: "second"})

	got, _ := reg.Get("a.b.c")
	if got.Description != "second" {
		t.Errorf("expected later registration to win, got %q", got.Description)
	}
	if reg.Count() != 1 {
		t.Errorf("expected 1 atom, got %d", reg.Count())
	}
}

func TestRegistry_RegisterAllSkipsEmptyIDs(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterAll([]domain.AtomDef{
		{ID: "a.b.c"},
		{},
		{ID: "a.b.d"},
	})

	if reg.Count() != 2 {
		t.Errorf("expected 2 atoms, got %d", reg.Count())
	}
}

func TestRegistry_IDsSorted(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterAll([]domain.AtomDef{
		{ID: "z.z.z"},
		{ID: "a.a.a"},
		{ID: "m.m.m"},
	})

	want := []string{"a.a.a", "m.m.m", "z.z.z"}
	if got := reg.IDs(); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}
