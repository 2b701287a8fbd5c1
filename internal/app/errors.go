package app

import "errors"

// ErrNotFound and related errors describe lookup, conflict and authentication failures.
var (
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailExists        = errors.New("email already exists")
	ErrUnknownTeamCode    = errors.New("invalid team code")
	ErrAuthPending        = errors.New("authentication request already pending")
	ErrNotAuthenticated   = errors.New("not authenticated")
)

// UserMessage returns the message shown to a person for an authentication failure.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidCredentials):
		return "Invalid email or password"
	case errors.Is(err, ErrEmailExists):
		return "Email already exists"
	case errors.Is(err, ErrUnknownTeamCode):
		return "Invalid team code"
	case errors.Is(err, ErrAuthPending):
		return "Please wait for the current request to finish"
	case errors.Is(err, ErrNotAuthenticated):
		return "Please log in first"
	default:
		return err.Error()
	}
}
