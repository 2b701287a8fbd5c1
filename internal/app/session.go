package app

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/taskopia/taskopia/internal/domain"
)

// Session defaults.
const (
	DefaultSessionKey   = "taskopia_user"
	DefaultLoginDelay   = 800 * time.Millisecond
	DefaultInviteDelay  = 500 * time.Millisecond
	DefaultInviteOrigin = "http://localhost:8080"
)

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// SessionConfig holds configuration for a session.
type SessionConfig struct {
	Key           string
	LoginDelay    time.Duration
	InviteDelay   time.Duration
	InviteBaseURL string
	Sleep         Sleeper
}

// SessionUser is the persisted session record. Credentials are never stored.
type SessionUser struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Avatar   string `json:"avatar"`
	Role     string `json:"role"`
	Email    string `json:"email"`
	IsAdmin  bool   `json:"isAdmin"`
	TeamCode string `json:"teamCode,omitempty"`
}

// SessionState is the observable authentication state.
type SessionState struct {
	User            *SessionUser
	IsAuthenticated bool
	IsLoading       bool
	Error           string
}

// Session is the authentication state of one UI. It is created at startup, restored from the
// session store and torn down by Logout.
type Session struct {
	svc   *Service
	store SessionStore
	cfg   SessionConfig

	mu      sync.Mutex
	state   SessionState
	pending bool
}

// NewSession constructs a session in the loading state until Restore runs.
func NewSession(svc *Service, store SessionStore, cfg SessionConfig) *Session {
	if strings.TrimSpace(cfg.Key) == "" {
		cfg.Key = DefaultSessionKey
	}
	if cfg.LoginDelay < 0 {
		cfg.LoginDelay = 0
	}
	if cfg.InviteDelay < 0 {
		cfg.InviteDelay = 0
	}
	if strings.TrimSpace(cfg.InviteBaseURL) == "" {
		cfg.InviteBaseURL = DefaultInviteOrigin
	}
	if cfg.Sleep == nil {
		cfg.Sleep = sleepContext
	}
	return &Session{
		svc:   svc,
		store: store,
		cfg:   cfg,
		state: SessionState{IsLoading: true},
	}
}

// State returns a copy of the current state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Restore reads the persisted session once. Unreadable records are deleted and treated as no
// session.
func (s *Session) Restore(ctx context.Context) (SessionState, error) {
	raw, err := s.store.Get(ctx, s.cfg.Key)
	if err != nil && !errors.Is(err, ErrNotFound) {
		s.setState(SessionState{})
		return s.State(), err
	}
	if err != nil || len(raw) == 0 {
		s.setState(SessionState{})
		return s.State(), nil
	}

	var user SessionUser
	if decodeErr := json.Unmarshal(raw, &user); decodeErr != nil || strings.TrimSpace(user.ID) == "" {
		s.setState(SessionState{})
		if delErr := s.store.Delete(ctx, s.cfg.Key); delErr != nil && !errors.Is(delErr, ErrNotFound) {
			return s.State(), delErr
		}
		return s.State(), nil
	}
	s.setState(SessionState{User: &user, IsAuthenticated: true})
	return s.State(), nil
}

// Login authenticates against the roster after the simulated network delay.
func (s *Session) Login(ctx context.Context, creds domain.Credentials) (SessionState, error) {
	return s.submit(ctx, func(ctx context.Context) (domain.Account, error) {
		return s.svc.Authenticate(ctx, creds)
	})
}

// Signup creates a team owner account and signs it in.
func (s *Session) Signup(ctx context.Context, form domain.SignupForm) (SessionState, error) {
	return s.submit(ctx, func(ctx context.Context) (domain.Account, error) {
		return s.svc.RegisterOwner(ctx, form)
	})
}

// Join creates a member account for an existing team and signs it in.
func (s *Session) Join(ctx context.Context, form domain.JoinForm) (SessionState, error) {
	return s.submit(ctx, func(ctx context.Context) (domain.Account, error) {
		return s.svc.JoinTeam(ctx, form)
	})
}

// Invite returns the signed-in user's team code and join link for a teammate.
func (s *Session) Invite(ctx context.Context, form domain.InviteForm) (Invitation, error) {
	if err := form.Validate(); err != nil {
		return Invitation{}, err
	}
	state := s.State()
	if !state.IsAuthenticated || state.User == nil {
		return Invitation{}, ErrNotAuthenticated
	}
	if err := s.cfg.Sleep(ctx, s.cfg.InviteDelay); err != nil {
		return Invitation{}, err
	}
	return NewInvitation(form, state.User.TeamCode, s.cfg.InviteBaseURL)
}

// Logout clears the state and the persisted record.
func (s *Session) Logout(ctx context.Context) error {
	s.setState(SessionState{})
	if err := s.store.Delete(ctx, s.cfg.Key); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	return nil
}

// Context returns ctx carrying the signed-in user as the acting user.
func (s *Session) Context(ctx context.Context) context.Context {
	state := s.State()
	if state.User == nil {
		return ctx
	}
	return WithActor(ctx, state.User.ID)
}

// submit runs one authentication attempt. A second submit while one is pending is rejected.
func (s *Session) submit(ctx context.Context, attempt func(context.Context) (domain.Account, error)) (SessionState, error) {
	s.mu.Lock()
	if s.pending {
		state := s.snapshotLocked()
		s.mu.Unlock()
		return state, ErrAuthPending
	}
	prev := s.state
	s.state = SessionState{User: prev.User, IsAuthenticated: prev.IsAuthenticated, IsLoading: true}
	s.pending = true
	s.mu.Unlock()

	fail := func(err error) (SessionState, error) {
		s.mu.Lock()
		s.state = SessionState{User: prev.User, IsAuthenticated: prev.IsAuthenticated, Error: UserMessage(err)}
		s.pending = false
		state := s.snapshotLocked()
		s.mu.Unlock()
		return state, err
	}

	if err := s.cfg.Sleep(ctx, s.cfg.LoginDelay); err != nil {
		return fail(err)
	}
	account, err := attempt(ctx)
	if err != nil {
		return fail(err)
	}

	user := sessionUserFromAccount(account)
	raw, err := json.Marshal(user)
	if err != nil {
		return fail(err)
	}
	if err := s.store.Set(ctx, s.cfg.Key, raw); err != nil {
		return fail(err)
	}

	s.mu.Lock()
	s.state = SessionState{User: &user, IsAuthenticated: true}
	s.pending = false
	state := s.snapshotLocked()
	s.mu.Unlock()
	return state, nil
}

func (s *Session) setState(state SessionState) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

func (s *Session) snapshotLocked() SessionState {
	out := s.state
	if out.User != nil {
		user := *out.User
		out.User = &user
	}
	return out
}

func sessionUserFromAccount(account domain.Account) SessionUser {
	return SessionUser{
		ID:       account.ID,
		Name:     account.Name,
		Avatar:   account.Avatar,
		Role:     account.Role,
		Email:    account.Email,
		IsAdmin:  account.IsAdmin,
		TeamCode: account.TeamCode,
	}
}

// sleepContext waits for d unless ctx finishes first.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
