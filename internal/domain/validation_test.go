package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestTaskFormValidate(t *testing.T) {
	users := []User{{ID: "user-1", Name: "John Doe"}}
	draft, err := TaskForm{
		Title:       "  Ship it ",
		Description: "Release the build",
		Status:      "Review",
		Priority:    "high",
		Deadline:    "2026-06-01",
		AssigneeID:  "user-1",
	}.Validate(users)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if draft.Title != "Ship it" || draft.Priority != PriorityHigh || draft.Status != StatusReview {
		t.Fatalf("unexpected draft %#v", draft)
	}

	_, err = TaskForm{Title: "x", Description: "shrt", Status: "Nope", Priority: "Low", Deadline: "soon", AssigneeID: "user-7"}.Validate(users)
	var verrs ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected ValidationErrors, got %v", err)
	}
	want := map[string]string{
		"title":       "Title must be at least 2 characters.",
		"description": "Description must be at least 5 characters.",
		"status":      "Please select a valid status",
		"deadline":    "Please enter a valid date",
		"assigneeId":  "Please select an assignee",
	}
	for field, msg := range want {
		if verrs[field] != msg {
			t.Fatalf("field %s = %q, want %q", field, verrs[field], msg)
		}
	}
	if _, ok := verrs["priority"]; ok {
		t.Fatal("expected valid priority to pass")
	}
	if !strings.HasPrefix(verrs.Error(), "validation failed: assigneeId:") {
		t.Fatalf("unexpected error text %q", verrs.Error())
	}
}

func TestAuthFormsValidate(t *testing.T) {
	if err := (Credentials{Email: "john.doe@example.com", Password: "password123"}).Validate(); err != nil {
		t.Fatalf("Credentials.Validate() error = %v", err)
	}
	err := Credentials{Email: "john", Password: "short"}.Validate()
	var verrs ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected ValidationErrors, got %v", err)
	}
	if verrs["email"] != "Please enter a valid email address" || verrs["password"] != "Password must be at least 8 characters" {
		t.Fatalf("unexpected errors %#v", verrs)
	}

	join := JoinForm{
		SignupForm: SignupForm{Name: "A", Email: "a@b.co", Password: "password123", Role: "QA"},
		TeamCode:   "ABC",
	}
	err = join.Validate()
	if !errors.As(err, &verrs) {
		t.Fatalf("expected ValidationErrors, got %v", err)
	}
	if verrs["name"] != "Name must be at least 2 characters" || verrs["teamCode"] != "Team code must be at least 6 characters" {
		t.Fatalf("unexpected errors %#v", verrs)
	}
	if _, ok := verrs["role"]; ok {
		t.Fatal("expected two-letter role to pass")
	}

	if err := (InviteForm{Email: "new@example.com", Role: "x"}).Validate(); err == nil {
		t.Fatal("expected short role to fail")
	}
}

func TestIsValidEmail(t *testing.T) {
	valid := []string{"john.doe@example.com", "a+b@sub.domain.io"}
	invalid := []string{"", "john", "john@", "john@localhost", "John <john@example.com>", "john@example."}
	for _, email := range valid {
		if !IsValidEmail(email) {
			t.Fatalf("expected %q valid", email)
		}
	}
	for _, email := range invalid {
		if IsValidEmail(email) {
			t.Fatalf("expected %q invalid", email)
		}
	}
}

func TestAvatarURLAndTeamCode(t *testing.T) {
	got := AvatarURL("Mary Jane Watson", SignupAvatarBackground)
	want := "https://ui-avatars.com/api/?name=Mary+Jane Watson&background=8B3D8B&color=fff"
	if got != want {
		t.Fatalf("AvatarURL() = %q, want %q", got, want)
	}
	code := GenerateTeamCode()
	if len(code) != TeamCodeLength {
		t.Fatalf("unexpected code length %d", len(code))
	}
	for _, r := range code {
		if !strings.ContainsRune(teamCodeAlphabet, r) {
			t.Fatalf("unexpected rune %q in %s", r, code)
		}
	}
}
