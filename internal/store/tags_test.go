package store

import (
	"errors"
	"testing"

	"github.com/daybookapp/daybook/internal/types"
)

func TestStore_FindOrCreateTag(t *testing.T) {
	s := newTestStore(t)

	first, err := s.FindOrCreateTag("Errands")
	if err != nil {
		t.Fatal(err)
	}
	if first.Name != "errands" {
		t.Errorf("expected lowercase storage, got %q", first.Name)
	}

	second, err := s.FindOrCreateTag("  errands ")
	if err != nil {
		t.Fatal(err)
	}
	if second.ID != first.ID {
		t.Error("expected the existing tag, not a duplicate")
	}

	if _, err := s.FindOrCreateTag("   "); err == nil {
		t.Error("expected rejection of a blank name")
	}
}

func TestStore_TagTask(t *testing.T) {
	s := newTestStore(t)
	task := mustCreateTask(t, s, types.Task{Title: "t"})

	tag, err := s.TagTask(task.ID, "home")
	if err != nil {
		t.Fatal(err)
	}
	// Tagging twice is a no-op.
	if _, err := s.TagTask(task.ID, "home"); err != nil {
		t.Fatal(err)
	}

	tags, err := s.TaskTags(task.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(tags) != 1 || tags[0].ID != tag.ID {
		t.Errorf("expected single tag, got %+v", tags)
	}

	byTag, err := s.TasksByTag("HOME")
	if err != nil {
		t.Fatal(err)
	}
	if len(byTag) != 1 || byTag[0].ID != task.ID {
		t.Errorf("case-insensitive tag lookup failed: %+v", byTag)
	}
}

func TestStore_UntagTask(t *testing.T) {
	s := newTestStore(t)
	task := mustCreateTask(t, s, types.Task{Title: "t"})

	tag, err := s.TagTask(task.ID, "home")
	if err != nil {
		t.Fatal(err)
	}
	if err := s.UntagTask(task.ID, tag.ID); err != nil {
		t.Fatal(err)
	}
	if err := s.UntagTask(task.ID, tag.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on repeat untag, got %v", err)
	}

	// The tag itself survives unassignment.
	tags, err := s.Tags()
	if err != nil {
		t.Fatal(err)
	}
	if len(tags) != 1 {
		t.Errorf("tag should outlive its assignments: %+v", tags)
	}
}

func TestStore_DeleteTag_RemovesAssignments(t *testing.T) {
	s := newTestStore(t)
	task := mustCreateTask(t, s, types.Task{Title: "t"})

	tag, err := s.TagTask(task.ID, "home")
	if err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteTag(tag.ID); err != nil {
		t.Fatal(err)
	}

	tags, err := s.TaskTags(task.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(tags) != 0 {
		t.Errorf("assignments should cascade with the tag: %+v", tags)
	}
}

func TestStore_Subtasks(t *testing.T) {
	s := newTestStore(t)
	task := mustCreateTask(t, s, types.Task{Title: "parent"})

	a, err := s.CreateSubtask(task.ID, "step one")
	if err != nil {
		t.Fatal(err)
	}
	b, err := s.CreateSubtask(task.ID, "step two")
	if err != nil {
		t.Fatal(err)
	}
	if a.Position != 1 || b.Position != 2 {
		t.Errorf("positions wrong: %d, %d", a.Position, b.Position)
	}

	if err := s.SetSubtaskCompleted(a.ID, true); err != nil {
		t.Fatal(err)
	}
	if err := s.ReorderSubtasks(task.ID, []string{b.ID, a.ID}); err != nil {
		t.Fatal(err)
	}

	subs, err := s.Subtasks(task.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(subs) != 2 || subs[0].ID != b.ID {
		t.Errorf("reorder not applied: %+v", subs)
	}
	if !subs[1].Completed {
		t.Error("completion flag lost")
	}
}

func TestStore_Subtasks_CascadeWithTask(t *testing.T) {
	s := newTestStore(t)
	task := mustCreateTask(t, s, types.Task{Title: "parent"})

	if _, err := s.CreateSubtask(task.ID, "child"); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteTask(task.ID); err != nil {
		t.Fatal(err)
	}

	subs, err := s.Subtasks(task.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(subs) != 0 {
		t.Errorf("subtasks should cascade with the task: %+v", subs)
	}
}
