package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/taskopia/taskopia/internal/domain"
)

// SnapshotVersion defines a package constant value.
const SnapshotVersion = "taskopia.snapshot.v1"

// SnapshotFormat selects the snapshot encoding.
type SnapshotFormat string

// SnapshotFormatJSON and SnapshotFormatYAML are the supported encodings.
const (
	SnapshotFormatJSON SnapshotFormat = "json"
	SnapshotFormatYAML SnapshotFormat = "yaml"
)

// Snapshot represents snapshot data used by this package.
type Snapshot struct {
	Version    string           `json:"version" yaml:"version"`
	ExportedAt time.Time        `json:"exported_at" yaml:"exported_at"`
	Users      []SnapshotUser   `json:"users" yaml:"users"`
	Columns    []SnapshotColumn `json:"columns" yaml:"columns"`
	Tasks      []SnapshotTask   `json:"tasks" yaml:"tasks"`
}

// SnapshotUser represents snapshot user data used by this package.
type SnapshotUser struct {
	ID     string `json:"id" yaml:"id"`
	Name   string `json:"name" yaml:"name"`
	Avatar string `json:"avatar" yaml:"avatar"`
	Role   string `json:"role" yaml:"role"`
}

// SnapshotColumn represents snapshot column data used by this package.
type SnapshotColumn struct {
	ID      string   `json:"id" yaml:"id"`
	TaskIDs []string `json:"task_ids" yaml:"task_ids"`
}

// SnapshotTask represents snapshot task data used by this package.
type SnapshotTask struct {
	ID          string `json:"id" yaml:"id"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
	Status      string `json:"status" yaml:"status"`
	Priority    string `json:"priority" yaml:"priority"`
	Deadline    string `json:"deadline" yaml:"deadline"`
	AssigneeID  string `json:"assignee_id" yaml:"assignee_id"`
	CreatedAt   string `json:"created_at" yaml:"created_at"`
}

// ExportSnapshot handles export snapshot.
func (s *Service) ExportSnapshot(ctx context.Context) (Snapshot, error) {
	board, err := s.repo.LoadBoard(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return Snapshot{}, err
	}

	snap := Snapshot{
		Version:    SnapshotVersion,
		ExportedAt: s.clock().UTC(),
		Users:      make([]SnapshotUser, 0, len(users)),
		Columns:    make([]SnapshotColumn, 0, len(domain.ColumnOrder)),
		Tasks:      make([]SnapshotTask, 0, board.Len()),
	}
	for _, u := range users {
		snap.Users = append(snap.Users, SnapshotUser{ID: u.ID, Name: u.Name, Avatar: u.Avatar, Role: u.Role})
	}
	for _, column := range board.Columns() {
		snap.Columns = append(snap.Columns, SnapshotColumn{ID: string(column.ID), TaskIDs: column.TaskIDs})
	}
	for _, task := range board.Tasks() {
		snap.Tasks = append(snap.Tasks, snapshotTaskFromDomain(task))
	}
	snap.sort()
	return snap, nil
}

// ImportSnapshot validates a snapshot, upserts its users and replaces the board.
func (s *Service) ImportSnapshot(ctx context.Context, snap Snapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}
	board, err := snap.Board()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range snap.Users {
		if err := s.repo.UpsertUser(ctx, domain.User{ID: strings.TrimSpace(u.ID), Name: strings.TrimSpace(u.Name), Avatar: u.Avatar, Role: u.Role}); err != nil {
			return err
		}
	}
	event := s.event(ctx, "", domain.ChangeOperationImport, s.clock(), map[string]string{
		"source": "snapshot",
		"tasks":  strconv.Itoa(board.Len()),
	})
	if err := s.repo.SaveBoard(ctx, board, []domain.ChangeEvent{event}); err != nil {
		return err
	}
	s.publish([]domain.ChangeEvent{event})
	return nil
}

// Validate validates the requested operation.
func (s *Snapshot) Validate() error {
	if s.Version != "" && s.Version != SnapshotVersion {
		return fmt.Errorf("unsupported snapshot version: %q", s.Version)
	}
	userIDs := map[string]struct{}{}
	for i, u := range s.Users {
		id := strings.TrimSpace(u.ID)
		if id == "" {
			return fmt.Errorf("users[%d].id is required", i)
		}
		if strings.TrimSpace(u.Name) == "" {
			return fmt.Errorf("users[%d].name is required", i)
		}
		if _, ok := userIDs[id]; ok {
			return fmt.Errorf("duplicate user id: %q", id)
		}
		userIDs[id] = struct{}{}
	}
	for i, c := range s.Columns {
		if _, err := domain.ParseStatus(c.ID); err != nil {
			return fmt.Errorf("columns[%d].id %q is not a board column", i, c.ID)
		}
	}
	for i, t := range s.Tasks {
		if strings.TrimSpace(t.ID) == "" {
			return fmt.Errorf("tasks[%d].id is required", i)
		}
		if _, err := domain.ParseDate(t.Deadline); err != nil {
			return fmt.Errorf("tasks[%d].deadline: %w", i, err)
		}
		if len(userIDs) > 0 {
			if _, ok := userIDs[strings.TrimSpace(t.AssigneeID)]; !ok {
				return fmt.Errorf("tasks[%d].assignee_id %q is not a snapshot user", i, t.AssigneeID)
			}
		}
	}
	return nil
}

// Board rebuilds and checks the board described by the snapshot.
func (s *Snapshot) Board() (domain.Board, error) {
	tasks := make([]domain.Task, 0, len(s.Tasks))
	for i, t := range s.Tasks {
		task, err := t.toDomain()
		if err != nil {
			return domain.Board{}, fmt.Errorf("tasks[%d]: %w", i, err)
		}
		tasks = append(tasks, task)
	}
	columns := make(map[domain.Status][]string, len(s.Columns))
	for _, c := range s.Columns {
		status, err := domain.ParseStatus(c.ID)
		if err != nil {
			return domain.Board{}, err
		}
		columns[status] = append(columns[status], c.TaskIDs...)
	}
	return domain.RestoreBoard(tasks, columns)
}

// sort orders users by id. Column and task order is significant and kept.
func (s *Snapshot) sort() {
	sort.SliceStable(s.Users, func(i, j int) bool {
		return s.Users[i].ID < s.Users[j].ID
	})
}

// SnapshotFormatForPath picks an encoding from a file extension, defaulting to JSON.
func SnapshotFormatForPath(path string) SnapshotFormat {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return SnapshotFormatYAML
	default:
		return SnapshotFormatJSON
	}
}

// EncodeSnapshot writes snap to w.
func EncodeSnapshot(w io.Writer, snap Snapshot, format SnapshotFormat) error {
	switch format {
	case SnapshotFormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(snap); err != nil {
			return fmt.Errorf("encode snapshot yaml: %w", err)
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(snap); err != nil {
			return fmt.Errorf("encode snapshot json: %w", err)
		}
		return nil
	}
}

// DecodeSnapshot reads a snapshot from r.
func DecodeSnapshot(r io.Reader, format SnapshotFormat) (Snapshot, error) {
	var snap Snapshot
	switch format {
	case SnapshotFormatYAML:
		if err := yaml.NewDecoder(r).Decode(&snap); err != nil {
			return Snapshot{}, fmt.Errorf("decode snapshot yaml: %w", err)
		}
	default:
		if err := json.NewDecoder(r).Decode(&snap); err != nil {
			return Snapshot{}, fmt.Errorf("decode snapshot json: %w", err)
		}
	}
	return snap, nil
}

func snapshotTaskFromDomain(t domain.Task) SnapshotTask {
	return SnapshotTask{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		Priority:    string(t.Priority),
		Deadline:    domain.FormatDate(t.Deadline),
		AssigneeID:  t.AssigneeID,
		CreatedAt:   domain.FormatDate(t.CreatedAt),
	}
}

func (t SnapshotTask) toDomain() (domain.Task, error) {
	status, err := domain.ParseStatus(t.Status)
	if err != nil {
		return domain.Task{}, err
	}
	priority, err := domain.ParsePriority(t.Priority)
	if err != nil {
		return domain.Task{}, err
	}
	deadline, err := domain.ParseDate(t.Deadline)
	if err != nil {
		return domain.Task{}, err
	}
	task := domain.Task{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      status,
		Priority:    priority,
		Deadline:    deadline,
		AssigneeID:  t.AssigneeID,
	}
	if strings.TrimSpace(t.CreatedAt) != "" {
		created, err := domain.ParseDate(t.CreatedAt)
		if err != nil {
			return domain.Task{}, fmt.Errorf("created_at: %w", err)
		}
		task.CreatedAt = created
	}
	return task.Normalize()
}
