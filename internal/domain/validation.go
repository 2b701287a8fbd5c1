package domain

import (
	"net/mail"
	"slices"
	"strings"
	"unicode/utf8"
)

// Form field length minimums.
const (
	MinTitleLength       = 2
	MinDescriptionLength = 5
	MinNameLength        = 2
	MinRoleLength        = 2
	MinPasswordLength    = 8
	MinTeamCodeLength    = 6
)

// ValidationErrors maps form field names to user-facing messages.
type ValidationErrors map[string]string

// Error implements error.
func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for field := range v {
		fields = append(fields, field)
	}
	slices.Sort(fields)
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+v[field])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// OrNil returns nil when no field failed.
func (v ValidationErrors) OrNil() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

// TaskForm is the raw task dialog input.
type TaskForm struct {
	Title       string
	Description string
	Status      string
	Priority    string
	Deadline    string
	AssigneeID  string
}

// Validate checks the form and converts it to a draft. Unknown assignees fail when users is non-empty.
func (f TaskForm) Validate(users []User) (TaskDraft, error) {
	errs := ValidationErrors{}
	title := strings.TrimSpace(f.Title)
	description := strings.TrimSpace(f.Description)
	if utf8.RuneCountInString(title) < MinTitleLength {
		errs["title"] = "Title must be at least 2 characters."
	}
	if utf8.RuneCountInString(description) < MinDescriptionLength {
		errs["description"] = "Description must be at least 5 characters."
	}
	status, err := ParseStatus(f.Status)
	if err != nil {
		errs["status"] = "Please select a valid status"
	}
	priority, err := ParsePriority(f.Priority)
	if err != nil {
		errs["priority"] = "Please select a valid priority"
	}
	deadline, err := ParseDate(f.Deadline)
	if err != nil {
		errs["deadline"] = "Please enter a valid date"
	}
	assignee := strings.TrimSpace(f.AssigneeID)
	if assignee == "" {
		errs["assigneeId"] = "Please select an assignee"
	} else if len(users) > 0 {
		if _, ok := FindUser(users, assignee); !ok {
			errs["assigneeId"] = "Please select an assignee"
		}
	}
	if err := errs.OrNil(); err != nil {
		return TaskDraft{}, err
	}
	return TaskDraft{
		Title:       title,
		Description: description,
		Status:      status,
		Priority:    priority,
		Deadline:    deadline,
		AssigneeID:  assignee,
	}, nil
}

// Credentials is the login form.
type Credentials struct {
	Email    string
	Password string
}

// Validate checks the login form.
func (c Credentials) Validate() error {
	errs := ValidationErrors{}
	validateEmail(errs, c.Email)
	validatePassword(errs, c.Password)
	return errs.OrNil()
}

// SignupForm is the new team owner form.
type SignupForm struct {
	Name     string
	Email    string
	Password string
	Role     string
}

// Validate checks the signup form.
func (f SignupForm) Validate() error {
	errs := ValidationErrors{}
	validateName(errs, f.Name)
	validateEmail(errs, f.Email)
	validatePassword(errs, f.Password)
	validateRole(errs, f.Role)
	return errs.OrNil()
}

// JoinForm is the join-with-team-code form.
type JoinForm struct {
	SignupForm
	TeamCode string
}

// Validate checks the join form.
func (f JoinForm) Validate() error {
	errs := ValidationErrors{}
	validateName(errs, f.Name)
	validateEmail(errs, f.Email)
	validatePassword(errs, f.Password)
	validateRole(errs, f.Role)
	if utf8.RuneCountInString(strings.TrimSpace(f.TeamCode)) < MinTeamCodeLength {
		errs["teamCode"] = "Team code must be at least 6 characters"
	}
	return errs.OrNil()
}

// InviteForm is the invite-a-teammate form.
type InviteForm struct {
	Email string
	Role  string
}

// Validate checks the invite form.
func (f InviteForm) Validate() error {
	errs := ValidationErrors{}
	validateEmail(errs, f.Email)
	validateRole(errs, f.Role)
	return errs.OrNil()
}

// IsValidEmail reports whether email is a bare address with a dotted domain.
func IsValidEmail(email string) bool {
	email = strings.TrimSpace(email)
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || addr.Name != "" {
		return false
	}
	at := strings.LastIndexByte(email, '@')
	domain := email[at+1:]
	return strings.Contains(domain, ".") && !strings.HasSuffix(domain, ".") && !strings.HasPrefix(domain, ".")
}

func validateEmail(errs ValidationErrors, email string) {
	if !IsValidEmail(email) {
		errs["email"] = "Please enter a valid email address"
	}
}

func validatePassword(errs ValidationErrors, password string) {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		errs["password"] = "Password must be at least 8 characters"
	}
}

func validateName(errs ValidationErrors, name string) {
	if utf8.RuneCountInString(strings.TrimSpace(name)) < MinNameLength {
		errs["name"] = "Name must be at least 2 characters"
	}
}

func validateRole(errs ValidationErrors, role string) {
	if utf8.RuneCountInString(strings.TrimSpace(role)) < MinRoleLength {
		errs["role"] = "Role is required"
	}
}
