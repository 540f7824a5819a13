package store

import (
	"errors"
	"testing"

	"github.com/daybookapp/daybook/internal/types"
)

func TestStore_CreateList(t *testing.T) {
	s := newTestStore(t)

	list, err := s.CreateList(types.List{Name: "Work", Icon: "briefcase", Color: "#3b82f6"})
	if err != nil {
		t.Fatal(err)
	}
	if list.ID == "" {
		t.Error("expected ID to be set")
	}
	if list.Position <= 0 {
		t.Errorf("expected position after the default list, got %d", list.Position)
	}

	got, err := s.GetList(list.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Work" || got.Icon != "briefcase" || got.Color != "#3b82f6" {
		t.Errorf("round trip mismatch: %+v", got)
	}
	// Stored timestamps keep full precision, so the read-back value
	// must equal what the create returned.
	if !got.CreatedAt.Equal(list.CreatedAt) || !got.UpdatedAt.Equal(list.UpdatedAt) {
		t.Errorf("timestamps changed across round trip: %v/%v vs %v/%v",
			got.CreatedAt, got.UpdatedAt, list.CreatedAt, list.UpdatedAt)
	}
}

func TestStore_CreateList_Smart(t *testing.T) {
	s := newTestStore(t)

	tier := 1
	list, err := s.CreateList(types.List{
		Name:        "Top priority",
		IsSmart:     true,
		SmartFilter: &types.SmartFilter{PriorityTier: &tier},
	})
	if err != nil {
		t.Fatal(err)
	}

	got, err := s.GetList(list.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !got.IsSmart {
		t.Error("expected IsSmart to survive round trip")
	}
	if got.SmartFilter == nil || got.SmartFilter.PriorityTier == nil || *got.SmartFilter.PriorityTier != 1 {
		t.Errorf("smart filter round trip mismatch: %+v", got.SmartFilter)
	}
}

func TestStore_GetList_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetList("deadbeefdeadbeefdeadbeefdeadbeef")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_UpdateList(t *testing.T) {
	s := newTestStore(t)

	list, err := s.CreateList(types.List{Name: "Errands"})
	if err != nil {
		t.Fatal(err)
	}

	name := "Chores"
	color := "#f59e0b"
	updated, err := s.UpdateList(list.ID, ListUpdate{Name: &name, Color: &color})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Name != "Chores" || updated.Color != "#f59e0b" {
		t.Errorf("update not applied: %+v", updated)
	}
	if !updated.UpdatedAt.After(list.UpdatedAt) && !updated.UpdatedAt.Equal(list.UpdatedAt) {
		t.Error("expected updated_at to advance")
	}
}

func TestStore_DeleteList_ProtectsDefault(t *testing.T) {
	s := newTestStore(t)

	def, err := s.DefaultList()
	if err != nil {
		t.Fatal(err)
	}

	err = s.DeleteList(def.ID)
	if !errors.Is(err, ErrProtectedList) {
		t.Errorf("expected ErrProtectedList, got %v", err)
	}
}

func TestStore_DeleteList_CascadesTasks(t *testing.T) {
	s := newTestStore(t)

	list, err := s.CreateList(types.List{Name: "Doomed"})
	if err != nil {
		t.Fatal(err)
	}
	task := mustCreateTask(t, s, types.Task{ListID: list.ID, Title: "Goes with the ship"})

	if err := s.DeleteList(list.ID); err != nil {
		t.Fatal(err)
	}

	_, err = s.GetTask(task.ID)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected task to be cascade-deleted, got %v", err)
	}
}

func TestStore_ReorderLists(t *testing.T) {
	s := newTestStore(t)

	a, _ := s.CreateList(types.List{Name: "A"})
	b, _ := s.CreateList(types.List{Name: "B"})
	def, _ := s.DefaultList()

	if err := s.ReorderLists([]string{b.ID, def.ID, a.ID}); err != nil {
		t.Fatal(err)
	}

	lists, err := s.Lists()
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, l := range lists {
		names = append(names, l.Name)
	}
	want := []string{"B", "Inbox", "A"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, names)
		}
	}
}

func TestStore_ReorderLists_UnknownID(t *testing.T) {
	s := newTestStore(t)

	a, _ := s.CreateList(types.List{Name: "A"})
	err := s.ReorderLists([]string{a.ID, "deadbeefdeadbeefdeadbeefdeadbeef"})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	// The failed reorder must not have moved anything.
	got, err := s.GetList(a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Position != a.Position {
		t.Errorf("position changed despite rollback: %d != %d", got.Position, a.Position)
	}
}
