package domain

// DialogMode names which task dialog is showing.
type DialogMode string

const (
	DialogClosed DialogMode = "closed"
	DialogCreate DialogMode = "create"
	DialogEdit   DialogMode = "edit"
)

// Dialog is the task dialog state machine. At most one dialog is open; opening replaces it.
type Dialog struct {
	mode DialogMode
	task *Task
}

// Mode returns the current dialog mode.
func (d Dialog) Mode() DialogMode {
	if d.mode == "" {
		return DialogClosed
	}
	return d.mode
}

// IsOpen reports whether any dialog is showing.
func (d Dialog) IsOpen() bool {
	return d.Mode() != DialogClosed
}

// Task returns the task bound to an edit dialog.
func (d Dialog) Task() (Task, bool) {
	if d.task == nil {
		return Task{}, false
	}
	return *d.task, true
}

// OpenCreate shows the create dialog with no bound task.
func (d *Dialog) OpenCreate() {
	d.mode = DialogCreate
	d.task = nil
}

// OpenEdit shows the edit dialog bound to a snapshot of task.
func (d *Dialog) OpenEdit(task Task) {
	snapshot := task
	d.mode = DialogEdit
	d.task = &snapshot
}

// Close hides the dialog and drops the bound task.
func (d *Dialog) Close() {
	d.mode = DialogClosed
	d.task = nil
}
