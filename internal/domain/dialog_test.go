package domain

import "testing"

func TestDialogTransitions(t *testing.T) {
	var d Dialog
	if d.Mode() != DialogClosed || d.IsOpen() {
		t.Fatalf("expected zero dialog closed, got %q", d.Mode())
	}

	d.OpenEdit(Task{ID: "t1", Title: "Edit me"})
	if d.Mode() != DialogEdit {
		t.Fatalf("expected edit mode, got %q", d.Mode())
	}
	bound, ok := d.Task()
	if !ok || bound.ID != "t1" {
		t.Fatalf("expected bound task t1, got %#v", bound)
	}

	d.OpenCreate()
	if d.Mode() != DialogCreate {
		t.Fatalf("expected create mode, got %q", d.Mode())
	}
	if _, ok := d.Task(); ok {
		t.Fatal("expected create dialog to drop the bound task")
	}

	d.OpenEdit(Task{ID: "t2"})
	d.Close()
	if d.IsOpen() {
		t.Fatal("expected closed dialog")
	}
	if _, ok := d.Task(); ok {
		t.Fatal("expected close to clear bound task")
	}
}

func TestDialogEditBindsSnapshot(t *testing.T) {
	task := Task{ID: "t1", Title: "Before"}
	var d Dialog
	d.OpenEdit(task)
	task.Title = "After"
	bound, _ := d.Task()
	if bound.Title != "Before" {
		t.Fatalf("expected snapshot title, got %q", bound.Title)
	}
}
