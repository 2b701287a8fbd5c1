package domain

import (
	"crypto/rand"
	"net/url"
	"strings"
)

// Avatar background colors for accounts created through signup and join.
const (
	SignupAvatarBackground = "8B3D8B"
	JoinAvatarBackground   = "3D5D8B"
)

// TeamCodeLength is the length of generated team codes.
const TeamCodeLength = 8

const teamCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// User is a roster member that tasks can be assigned to.
type User struct {
	ID     string
	Name   string
	Avatar string
	Role   string
}

// Account is a roster user with login credentials and team membership.
type Account struct {
	User
	Email    string
	Password string
	IsAdmin  bool
	TeamCode string
}

// NewAccount validates and normalizes an account record.
func NewAccount(in Account) (Account, error) {
	in.ID = strings.TrimSpace(in.ID)
	in.Name = strings.TrimSpace(in.Name)
	in.Role = strings.TrimSpace(in.Role)
	in.Email = NormalizeEmail(in.Email)
	in.TeamCode = strings.TrimSpace(in.TeamCode)
	if in.ID == "" {
		return Account{}, ErrInvalidID
	}
	if in.Name == "" {
		return Account{}, ErrInvalidName
	}
	if !IsValidEmail(in.Email) {
		return Account{}, ErrInvalidEmail
	}
	if in.TeamCode == "" {
		return Account{}, ErrInvalidTeamCode
	}
	return in, nil
}

// AvatarURL builds the generated avatar link for a display name. Only the first space becomes '+'.
func AvatarURL(name, background string) string {
	q := url.Values{}
	q.Set("background", background)
	q.Set("color", "fff")
	return "https://ui-avatars.com/api/?name=" + strings.Replace(strings.TrimSpace(name), " ", "+", 1) + "&" + q.Encode()
}

// GenerateTeamCode returns a random code of TeamCodeLength upper-case letters and digits.
func GenerateTeamCode() string {
	buf := make([]byte, TeamCodeLength)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	for i, b := range buf {
		buf[i] = teamCodeAlphabet[int(b)%len(teamCodeAlphabet)]
	}
	return string(buf)
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// FindUser returns the user with id from users.
func FindUser(users []User, id string) (User, bool) {
	for _, u := range users {
		if u.ID == id {
			return u, true
		}
	}
	return User{}, false
}
