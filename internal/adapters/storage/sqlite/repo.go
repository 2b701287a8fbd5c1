package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/taskopia/taskopia/internal/app"
	"github.com/taskopia/taskopia/internal/domain"
	_ "modernc.org/sqlite"
)

// driverName defines a package constant value.
const driverName = "sqlite"

// defaultEventLimit caps activity queries that do not pass a limit.
const defaultEventLimit = 50

// Repository persists the board, the roster and the activity log.
type Repository struct {
	db *sql.DB
}

// Open opens the database at path, creating its directory and schema when missing.
func Open(path string) (*Repository, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite dir: %w", err)
	}
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	return newRepository(db)
}

// OpenInMemory opens a private in-memory database.
func OpenInMemory() (*Repository, error) {
	db, err := sql.Open(driverName, "file::memory:?cache=shared")
	if err != nil {
		return nil, fmt.Errorf("open sqlite memory: %w", err)
	}
	return newRepository(db)
}

func newRepository(db *sql.DB) (*Repository, error) {
	// One connection keeps writers and readers from racing into SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	repo := &Repository{db: db}
	if err := repo.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// Close closes the requested operation.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Ping reports whether the database answers.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// migrate handles migrate.
func (r *Repository) migrate(ctx context.Context) error {
	stmts := []string{
		`PRAGMA foreign_keys = ON;`,
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			avatar TEXT NOT NULL DEFAULT '',
			role TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE TABLE IF NOT EXISTS accounts (
			user_id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			password TEXT NOT NULL,
			is_admin INTEGER NOT NULL DEFAULT 0,
			team_code TEXT NOT NULL,
			FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE
		);`,
		`CREATE TABLE IF NOT EXISTS tasks (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			priority TEXT NOT NULL,
			deadline TEXT NOT NULL,
			assignee_id TEXT NOT NULL,
			created_at TEXT NOT NULL,
			position INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS change_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			task_id TEXT NOT NULL DEFAULT '',
			operation TEXT NOT NULL,
			actor_id TEXT NOT NULL,
			metadata_json TEXT NOT NULL DEFAULT '{}',
			created_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS kv (
			key TEXT PRIMARY KEY,
			value BLOB NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_status_position ON tasks(status, position);`,
		`CREATE INDEX IF NOT EXISTS idx_accounts_team_code ON accounts(team_code);`,
		`CREATE INDEX IF NOT EXISTS idx_change_events_created_at ON change_events(created_at DESC, id DESC);`,
	}

	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate sqlite: %w", err)
		}
	}
	return nil
}

// LoadBoard reads every task and rebuilds the column order from stored positions.
func (r *Repository) LoadBoard(ctx context.Context) (domain.Board, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, title, description, status, priority, deadline, assignee_id, created_at
		FROM tasks
		ORDER BY status ASC, position ASC, id ASC
	`)
	if err != nil {
		return domain.Board{}, err
	}
	defer rows.Close()

	tasks := []domain.Task{}
	columns := make(map[domain.Status][]string, len(domain.ColumnOrder))
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return domain.Board{}, err
		}
		tasks = append(tasks, task)
		columns[task.Status] = append(columns[task.Status], task.ID)
	}
	if err := rows.Err(); err != nil {
		return domain.Board{}, err
	}
	board, err := domain.RestoreBoard(tasks, columns)
	if err != nil {
		return domain.Board{}, fmt.Errorf("load board: %w", err)
	}
	return board, nil
}

// SaveBoard replaces the stored board with b and appends events in one transaction.
func (r *Repository) SaveBoard(ctx context.Context, b domain.Board, events []domain.ChangeEvent) (err error) {
	if err := b.Validate(); err != nil {
		return err
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	keep := make(map[string]struct{}, b.Len())
	for _, column := range b.Columns() {
		for position, id := range column.TaskIDs {
			task, _ := b.Task(id)
			keep[id] = struct{}{}
			if err = upsertTask(ctx, tx, task, position); err != nil {
				return err
			}
		}
	}
	if err = deleteTasksExcept(ctx, tx, keep); err != nil {
		return err
	}
	for _, event := range events {
		if err = insertChangeEvent(ctx, tx, event); err != nil {
			return err
		}
	}
	err = tx.Commit()
	return err
}

// ListChangeEvents lists recent events for activity-log consumption, newest first.
func (r *Repository) ListChangeEvents(ctx context.Context, limit int) ([]domain.ChangeEvent, error) {
	if limit <= 0 {
		limit = defaultEventLimit
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, task_id, operation, actor_id, metadata_json, created_at
		FROM change_events
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.ChangeEvent, 0)
	for rows.Next() {
		var (
			event       domain.ChangeEvent
			opRaw       string
			metadataRaw string
			createdRaw  string
		)
		if err := rows.Scan(&event.ID, &event.TaskID, &opRaw, &event.ActorID, &metadataRaw, &createdRaw); err != nil {
			return nil, err
		}
		event.Operation = normalizeChangeOperation(opRaw)
		event.OccurredAt = parseTS(createdRaw)
		if strings.TrimSpace(metadataRaw) == "" {
			metadataRaw = "{}"
		}
		if err := json.Unmarshal([]byte(metadataRaw), &event.Metadata); err != nil {
			return nil, fmt.Errorf("decode change_events.metadata_json: %w", err)
		}
		if event.Metadata == nil {
			event.Metadata = map[string]string{}
		}
		out = append(out, event)
	}
	return out, rows.Err()
}

// ListUsers returns the roster in insertion order.
func (r *Repository) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, avatar, role FROM users ORDER BY rowid ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.User{}
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Avatar, &u.Role); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// UpsertUser inserts or replaces one roster entry, keeping its original order.
func (r *Repository) UpsertUser(ctx context.Context, u domain.User) error {
	return upsertUser(ctx, r.db, u)
}

// ListAccounts returns every account joined with its roster entry.
func (r *Repository) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT u.id, u.name, u.avatar, u.role, a.email, a.password, a.is_admin, a.team_code
		FROM accounts a
		JOIN users u ON u.id = a.user_id
		ORDER BY u.rowid ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Account{}
	for rows.Next() {
		var (
			a       domain.Account
			isAdmin int
		)
		if err := rows.Scan(&a.ID, &a.Name, &a.Avatar, &a.Role, &a.Email, &a.Password, &isAdmin, &a.TeamCode); err != nil {
			return nil, err
		}
		a.IsAdmin = isAdmin != 0
		out = append(out, a)
	}
	return out, rows.Err()
}

// CreateAccount stores the account and its roster entry. A taken email is a conflict.
func (r *Repository) CreateAccount(ctx context.Context, a domain.Account) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = upsertUser(ctx, tx, a.User); err != nil {
		return err
	}
	isAdmin := 0
	if a.IsAdmin {
		isAdmin = 1
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO accounts(user_id, email, password, is_admin, team_code)
		VALUES (?, ?, ?, ?, ?)
	`, a.ID, domain.NormalizeEmail(a.Email), a.Password, isAdmin, a.TeamCode)
	if err != nil {
		if isUniqueErr(err) {
			err = fmt.Errorf("%w: account %s", app.ErrConflict, a.Email)
		}
		return err
	}
	err = tx.Commit()
	return err
}

// execerContext represents a write-only DB contract used by DB and Tx implementations.
type execerContext interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
}

func upsertUser(ctx context.Context, execer execerContext, u domain.User) error {
	if strings.TrimSpace(u.ID) == "" {
		return domain.ErrInvalidID
	}
	_, err := execer.ExecContext(ctx, `
		INSERT INTO users(id, name, avatar, role)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, avatar = excluded.avatar, role = excluded.role
	`, u.ID, u.Name, u.Avatar, u.Role)
	if err != nil {
		return fmt.Errorf("upsert user %s: %w", u.ID, err)
	}
	return nil
}

func upsertTask(ctx context.Context, execer execerContext, t domain.Task, position int) error {
	_, err := execer.ExecContext(ctx, `
		INSERT INTO tasks(id, title, description, status, priority, deadline, assignee_id, created_at, position)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			status = excluded.status,
			priority = excluded.priority,
			deadline = excluded.deadline,
			assignee_id = excluded.assignee_id,
			created_at = excluded.created_at,
			position = excluded.position
	`,
		t.ID,
		t.Title,
		t.Description,
		string(t.Status),
		string(t.Priority),
		domain.FormatDate(t.Deadline),
		t.AssigneeID,
		domain.FormatDate(t.CreatedAt),
		position,
	)
	if err != nil {
		return fmt.Errorf("upsert task %s: %w", t.ID, err)
	}
	return nil
}

// deleteTasksExcept removes stored tasks that are no longer on the board.
func deleteTasksExcept(ctx context.Context, tx *sql.Tx, keep map[string]struct{}) error {
	rows, err := tx.QueryContext(ctx, `SELECT id FROM tasks`)
	if err != nil {
		return err
	}
	var stale []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			_ = rows.Close()
			return err
		}
		if _, ok := keep[id]; !ok {
			stale = append(stale, id)
		}
	}
	if err := rows.Close(); err != nil {
		return err
	}
	if err := rows.Err(); err != nil {
		return err
	}
	for _, id := range stale {
		if _, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete task %s: %w", id, err)
		}
	}
	return nil
}

// insertChangeEvent inserts a change-event ledger record.
func insertChangeEvent(ctx context.Context, execer execerContext, event domain.ChangeEvent) error {
	metadataJSON, err := json.Marshal(event.Metadata)
	if err != nil {
		return fmt.Errorf("encode change event metadata: %w", err)
	}
	_, err = execer.ExecContext(ctx, `
		INSERT INTO change_events(task_id, operation, actor_id, metadata_json, created_at)
		VALUES (?, ?, ?, ?, ?)
	`,
		event.TaskID,
		string(event.Operation),
		chooseActorID(event.ActorID, "taskopia-user"),
		string(metadataJSON),
		ts(normalizeEventTS(event.OccurredAt)),
	)
	if err != nil {
		return fmt.Errorf("insert change event: %w", err)
	}
	return nil
}

// chooseActorID returns the first non-empty candidate.
func chooseActorID(candidates ...string) string {
	for _, candidate := range candidates {
		if trimmed := strings.TrimSpace(candidate); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func normalizeChangeOperation(raw string) domain.ChangeOperation {
	switch op := domain.ChangeOperation(strings.ToLower(strings.TrimSpace(raw))); op {
	case domain.ChangeOperationCreate, domain.ChangeOperationUpdate, domain.ChangeOperationMove,
		domain.ChangeOperationDelete, domain.ChangeOperationImport:
		return op
	default:
		return domain.ChangeOperationUpdate
	}
}

// normalizeEventTS ensures event timestamps are always populated and UTC-normalized.
func normalizeEventTS(in time.Time) time.Time {
	if in.IsZero() {
		return time.Now().UTC()
	}
	return in.UTC()
}

// scanner represents scanner data used by this package.
type scanner interface {
	Scan(dest ...any) error
}

func scanTask(s scanner) (domain.Task, error) {
	var (
		t           domain.Task
		statusRaw   string
		priorityRaw string
		deadlineRaw string
		createdRaw  string
	)
	if err := s.Scan(&t.ID, &t.Title, &t.Description, &statusRaw, &priorityRaw, &deadlineRaw, &t.AssigneeID, &createdRaw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Task{}, app.ErrNotFound
		}
		return domain.Task{}, err
	}
	status, err := domain.ParseStatus(statusRaw)
	if err != nil {
		return domain.Task{}, fmt.Errorf("decode task %s status %q: %w", t.ID, statusRaw, err)
	}
	priority, err := domain.ParsePriority(priorityRaw)
	if err != nil {
		return domain.Task{}, fmt.Errorf("decode task %s priority %q: %w", t.ID, priorityRaw, err)
	}
	deadline, err := domain.ParseDate(deadlineRaw)
	if err != nil {
		return domain.Task{}, fmt.Errorf("decode task %s deadline %q: %w", t.ID, deadlineRaw, err)
	}
	t.Status = status
	t.Priority = priority
	t.Deadline = deadline
	if created, err := domain.ParseDate(createdRaw); err == nil {
		t.CreatedAt = created
	}
	return t, nil
}

// ts handles ts.
func ts(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTS parses input into a normalized form.
func parseTS(v string) time.Time {
	ts, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}
	}
	return ts.UTC()
}

func isUniqueErr(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
