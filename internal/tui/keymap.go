package tui

import "charm.land/bubbles/v2/key"

// keyMap holds the board bindings shown by the help bubble.
type keyMap struct {
	quit           key.Binding
	reload         key.Binding
	toggleHelp     key.Binding
	moveLeft       key.Binding
	moveRight      key.Binding
	moveUp         key.Binding
	moveDown       key.Binding
	addTask        key.Binding
	taskInfo       key.Binding
	editTask       key.Binding
	deleteTask     key.Binding
	moveTaskLeft   key.Binding
	moveTaskRight  key.Binding
	reorderUp      key.Binding
	reorderDown    key.Binding
	search         key.Binding
	filterPriority key.Binding
	filterAssignee key.Binding
	filterStatus   key.Binding
	clearFilters   key.Binding
	invite         key.Binding
	activityLog    key.Binding
	logout         key.Binding
}

// newKeyMap constructs the default bindings.
func newKeyMap() keyMap {
	return keyMap{
		quit:           key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		reload:         key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		toggleHelp:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		moveLeft:       key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("h/←", "column left")),
		moveRight:      key.NewBinding(key.WithKeys("l", "right"), key.WithHelp("l/→", "column right")),
		moveUp:         key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "task up")),
		moveDown:       key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "task down")),
		addTask:        key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new task")),
		taskInfo:       key.NewBinding(key.WithKeys("i", "enter"), key.WithHelp("i/enter", "task details")),
		editTask:       key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit task")),
		deleteTask:     key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete task")),
		moveTaskLeft:   key.NewBinding(key.WithKeys("["), key.WithHelp("[", "move task left")),
		moveTaskRight:  key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "move task right")),
		reorderUp:      key.NewBinding(key.WithKeys("K", "shift+up"), key.WithHelp("K", "reorder up")),
		reorderDown:    key.NewBinding(key.WithKeys("J", "shift+down"), key.WithHelp("J", "reorder down")),
		search:         key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		filterPriority: key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "cycle priority filter")),
		filterAssignee: key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "cycle assignee filter")),
		filterStatus:   key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "cycle status filter")),
		clearFilters:   key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear filters")),
		invite:         key.NewBinding(key.WithKeys("I", "shift+i"), key.WithHelp("I", "invite teammate")),
		activityLog:    key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "activity log")),
		logout:         key.NewBinding(key.WithKeys("L", "shift+l"), key.WithHelp("L", "log out")),
	}
}

// ShortHelp returns the footer bindings.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.addTask, k.taskInfo, k.editTask, k.deleteTask, k.search, k.moveTaskLeft, k.moveTaskRight, k.toggleHelp, k.quit,
	}
}

// FullHelp returns every binding grouped by concern.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.addTask, k.taskInfo, k.editTask, k.deleteTask, k.invite, k.activityLog, k.logout, k.toggleHelp, k.reload, k.quit},
		{k.moveLeft, k.moveRight, k.moveUp, k.moveDown, k.moveTaskLeft, k.moveTaskRight, k.reorderUp, k.reorderDown},
		{k.search, k.filterPriority, k.filterAssignee, k.filterStatus, k.clearFilters},
	}
}
