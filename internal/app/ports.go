package app

import (
	"context"

	"github.com/taskopia/taskopia/internal/domain"
)

// Repository persists the board, the team roster and the activity log.
type Repository interface {
	LoadBoard(context.Context) (domain.Board, error)
	// SaveBoard replaces the stored board and appends events in one transaction.
	SaveBoard(context.Context, domain.Board, []domain.ChangeEvent) error
	ListChangeEvents(context.Context, int) ([]domain.ChangeEvent, error)

	ListUsers(context.Context) ([]domain.User, error)
	UpsertUser(context.Context, domain.User) error
	ListAccounts(context.Context) ([]domain.Account, error)
	CreateAccount(context.Context, domain.Account) error
}

// SessionStore is the key-value store that holds the persisted session record.
type SessionStore interface {
	Get(context.Context, string) ([]byte, error)
	Set(context.Context, string, []byte) error
	Delete(context.Context, string) error
}

// ChangeNotifier receives change events after they are committed.
type ChangeNotifier interface {
	Publish(domain.ChangeEvent)
}
