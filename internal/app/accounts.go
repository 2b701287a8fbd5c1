package app

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/taskopia/taskopia/internal/domain"
)

// Invitation is the result of inviting a teammate.
type Invitation struct {
	Email    string
	Role     string
	TeamCode string
	Link     string
}

// Authenticate matches credentials against the roster.
func (s *Service) Authenticate(ctx context.Context, creds domain.Credentials) (domain.Account, error) {
	if err := creds.Validate(); err != nil {
		return domain.Account{}, err
	}
	accounts, err := s.repo.ListAccounts(ctx)
	if err != nil {
		return domain.Account{}, err
	}
	email := domain.NormalizeEmail(creds.Email)
	for _, account := range accounts {
		if account.Email == email && account.Password == creds.Password {
			return account, nil
		}
	}
	return domain.Account{}, ErrInvalidCredentials
}

// RegisterOwner creates an admin account that owns a fresh team.
func (s *Service) RegisterOwner(ctx context.Context, form domain.SignupForm) (domain.Account, error) {
	if err := form.Validate(); err != nil {
		return domain.Account{}, err
	}
	return s.createAccount(ctx, form, func(accounts []domain.Account) (string, bool, string, error) {
		return domain.GenerateTeamCode(), true, domain.SignupAvatarBackground, nil
	})
}

// JoinTeam creates a member account in the team identified by the form's team code.
func (s *Service) JoinTeam(ctx context.Context, form domain.JoinForm) (domain.Account, error) {
	if err := form.Validate(); err != nil {
		return domain.Account{}, err
	}
	code := strings.TrimSpace(form.TeamCode)
	return s.createAccount(ctx, form.SignupForm, func(accounts []domain.Account) (string, bool, string, error) {
		for _, account := range accounts {
			if account.TeamCode == code {
				return code, false, domain.JoinAvatarBackground, nil
			}
		}
		return "", false, "", ErrUnknownTeamCode
	})
}

// Account returns the account of one roster user.
func (s *Service) Account(ctx context.Context, userID string) (domain.Account, error) {
	accounts, err := s.repo.ListAccounts(ctx)
	if err != nil {
		return domain.Account{}, err
	}
	for _, account := range accounts {
		if account.ID == userID {
			return account, nil
		}
	}
	return domain.Account{}, fmt.Errorf("%w: account %q", ErrNotFound, userID)
}

// NewInvitation validates an invite form and builds the invitation for teamCode.
func NewInvitation(form domain.InviteForm, teamCode, baseURL string) (Invitation, error) {
	if err := form.Validate(); err != nil {
		return Invitation{}, err
	}
	if strings.TrimSpace(teamCode) == "" {
		return Invitation{}, ErrNotAuthenticated
	}
	return Invitation{
		Email:    domain.NormalizeEmail(form.Email),
		Role:     strings.TrimSpace(form.Role),
		TeamCode: teamCode,
		Link:     InviteLink(baseURL, teamCode),
	}, nil
}

// InviteLink builds the join deep link for a team code.
func InviteLink(baseURL, teamCode string) string {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	return baseURL + "/join?" + url.Values{"code": []string{teamCode}}.Encode()
}

// TeamCodeFromLink extracts the code query parameter from a join link.
func TeamCodeFromLink(link string) string {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil {
		return ""
	}
	return u.Query().Get("code")
}

type membershipFunc func(accounts []domain.Account) (teamCode string, isAdmin bool, background string, err error)

// createAccount assigns the next user-N id under the service lock so concurrent signups
// never collide.
func (s *Service) createAccount(ctx context.Context, form domain.SignupForm, membership membershipFunc) (domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	accounts, err := s.repo.ListAccounts(ctx)
	if err != nil {
		return domain.Account{}, err
	}
	email := domain.NormalizeEmail(form.Email)
	for _, account := range accounts {
		if account.Email == email {
			return domain.Account{}, ErrEmailExists
		}
	}
	teamCode, isAdmin, background, err := membership(accounts)
	if err != nil {
		return domain.Account{}, err
	}
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return domain.Account{}, err
	}

	name := strings.TrimSpace(form.Name)
	account, err := domain.NewAccount(domain.Account{
		User: domain.User{
			ID:     nextUserID(users),
			Name:   name,
			Avatar: domain.AvatarURL(name, background),
			Role:   form.Role,
		},
		Email:    email,
		Password: form.Password,
		IsAdmin:  isAdmin,
		TeamCode: teamCode,
	})
	if err != nil {
		return domain.Account{}, err
	}
	if err := s.repo.CreateAccount(ctx, account); err != nil {
		return domain.Account{}, err
	}
	return account, nil
}

// nextUserID returns user-(len+1), stepping past ids already taken by imported users.
func nextUserID(users []domain.User) string {
	taken := make(map[string]struct{}, len(users))
	for _, u := range users {
		taken[u.ID] = struct{}{}
	}
	for n := len(users) + 1; ; n++ {
		id := fmt.Sprintf("user-%d", n)
		if _, ok := taken[id]; !ok {
			return id
		}
	}
}
