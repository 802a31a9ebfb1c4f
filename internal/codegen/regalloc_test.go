package codegen

import (
	"fmt"
	"reflect"
	"testing"
)

type events []string

func record(a *Allocator) *events {
	var ev events
	a.OnSpill = func(reg string, off int) { ev = append(ev, fmt.Sprintf("spill %s %d", reg, off)) }
	a.OnReload = func(reg string, off int) { ev = append(ev, fmt.Sprintf("reload %s %d", reg, off)) }
	return &ev
}

func TestAllocator_EvictsFirstBound(t *testing.T) {
	a := NewAllocator([]string{"r1", "r2"}, 4)
	ev := record(a)

	steps := []struct {
		use  string
		def  bool
		want string
	}{
		{"a", false, "r1"},
		{"b", false, "r2"},
		{"c", false, "r1"},
		{"a", false, "r2"},
		{"b", true, "r1"},
		{"c", false, "r2"},
	}
	for i, s := range steps {
		a.Begin()
		var got string
		if s.def {
			got = a.Def(s.use)
		} else {
			got = a.Use(s.use)
		}
		if got != s.want {
			t.Fatalf("step %d: register(%s) = %s, want %s", i, s.use, got, s.want)
		}
	}

	want := events{
		"spill r1 4",
		"spill r2 8", "reload r2 4",
		"spill r1 12",
		"spill r2 4", "reload r2 12",
	}
	if !reflect.DeepEqual(*ev, want) {
		t.Errorf("events = %v, want %v", *ev, want)
	}

	wantFrame := []Slot{{"a", 4}, {"b", 8}, {"c", 12}}
	if got := a.Frame(); !reflect.DeepEqual(got, wantFrame) {
		t.Errorf("Frame() = %v, want %v", got, wantFrame)
	}
	wantMap := []Binding{{"b", "r1"}, {"c", "r2"}}
	if got := a.Bindings(); !reflect.DeepEqual(got, wantMap) {
		t.Errorf("Bindings() = %v, want %v", got, wantMap)
	}
}

func TestAllocator_SkipsPinned(t *testing.T) {
	a := NewAllocator([]string{"r1", "r2", "r3"}, 4)
	ev := record(a)
	for _, name := range []string{"x", "y", "z"} {
		a.Begin()
		a.Use(name)
	}

	a.Begin()
	a.Use("x")
	if got := a.Def("w"); got != "r2" {
		t.Errorf("Def(w) = %s, want r2 taken from y", got)
	}
	if want := (events{"spill r2 4"}); !reflect.DeepEqual(*ev, want) {
		t.Errorf("events = %v, want %v", *ev, want)
	}
	if _, ok := a.Register("y"); ok {
		t.Error("Expected y to be evicted")
	}
}

func TestAllocator_Home(t *testing.T) {
	a := NewAllocator([]string{"r1"}, 4)
	ev := record(a)
	a.Use("p")

	if off := a.Home("p"); off != 4 {
		t.Errorf("Home(p) = %d, want 4", off)
	}
	if off := a.Home("p"); off != 4 {
		t.Errorf("second Home(p) = %d, want 4", off)
	}
	if reg, ok := a.Register("p"); !ok || reg != "r1" {
		t.Errorf("Register(p) = %s, %v, want r1", reg, ok)
	}
	if len(*ev) != 2 {
		t.Errorf("events = %v, want two stores", *ev)
	}
}

func TestAllocator_SlotSize(t *testing.T) {
	a := NewAllocator([]string{"r1"}, 8)
	ev := record(a)
	for _, name := range []string{"x", "y", "z"} {
		a.Begin()
		a.Use(name)
	}

	if want := (events{"spill r1 8", "spill r1 16"}); !reflect.DeepEqual(*ev, want) {
		t.Errorf("events = %v, want %v", *ev, want)
	}
	if off := a.Home("w"); off != 24 {
		t.Errorf("Home(w) = %d, want 24", off)
	}
}
