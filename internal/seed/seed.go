// Package seed provides the demo team and board installed into an empty store.
package seed

import (
	"fmt"
	"time"

	"github.com/taskopia/taskopia/internal/domain"
)

// TeamCode is the team every demo account belongs to.
const TeamCode = "TEAM123"

// Password is shared by every demo account.
const Password = "password123"

// Dataset is the demo roster and board.
type Dataset struct {
	Accounts []domain.Account
	Board    domain.Board
}

// Users returns the roster users of the dataset.
func (d Dataset) Users() []domain.User {
	out := make([]domain.User, 0, len(d.Accounts))
	for _, account := range d.Accounts {
		out = append(out, account.User)
	}
	return out
}

type member struct {
	id, name, role, email, background string
	admin                             bool
}

var members = []member{
	{"user-1", "John Doe", "Frontend Developer", "john.doe@example.com", "0D8ABC", true},
	{"user-2", "Alice Smith", "Backend Developer", "alice.smith@example.com", "5D8B3D", false},
	{"user-3", "Emma Johnson", "UI/UX Designer", "emma.johnson@example.com", "8B3D5D", false},
	{"user-4", "Michael Brown", "Project Manager", "michael.brown@example.com", "3D5D8B", false},
	{"user-5", "Sophia Martinez", "QA Engineer", "sophia.martinez@example.com", "8B3D8B", false},
}

type taskSeed struct {
	id, title, description string
	status                 domain.Status
	priority               domain.Priority
	deadlineDays           int
	assignee               string
	createdDays            int
}

// tasks are listed in column order; day offsets are relative to today.
var tasks = []taskSeed{
	{"task-1", "Implement Landing Page", "Create a responsive landing page with the new design mockups", domain.StatusToDo, domain.PriorityHigh, 1, "user-1", 0},
	{"task-5", "Create Documentation", "Write documentation for the API endpoints", domain.StatusToDo, domain.PriorityLow, 7, "user-4", -1},
	{"task-7", "Performance Optimization", "Optimize application loading speed and performance", domain.StatusToDo, domain.PriorityMedium, 5, "user-5", -2},
	{"task-11", "Update Dependencies", "Update all npm packages to their latest versions", domain.StatusToDo, domain.PriorityLow, 14, "user-1", 0},
	{"task-2", "API Integration for User Authentication", "Connect frontend login forms with the new authentication API", domain.StatusInProgress, domain.PriorityHigh, 1, "user-2", -2},
	{"task-6", "Implement Dark Mode", "Add dark mode support to the application", domain.StatusInProgress, domain.PriorityMedium, 3, "user-1", -4},
	{"task-12", "Implement Notification System", "Create a real-time notification system for users", domain.StatusInProgress, domain.PriorityMedium, 6, "user-4", -3},
	{"task-4", "Bug Fix: Payment Processing", "Fix the issue with payment processing on checkout", domain.StatusReview, domain.PriorityHigh, -1, "user-2", -3},
	{"task-9", "Database Schema Migration", "Implement the new database schema and migrate existing data", domain.StatusReview, domain.PriorityHigh, 0, "user-2", -5},
	{"task-3", "Design User Profile Page", "Create UI mockups for the user profile section", domain.StatusCompleted, domain.PriorityMedium, -7, "user-3", -10},
	{"task-8", "User Testing Session", "Conduct user testing for the new features", domain.StatusCompleted, domain.PriorityHigh, -1, "user-3", -7},
	{"task-10", "Email Template Design", "Design responsive email templates for notifications", domain.StatusCompleted, domain.PriorityLow, -3, "user-3", -8},
}

// Load builds the dataset with dates relative to now.
func Load(now time.Time) (Dataset, error) {
	today := domain.Day(now)
	ds := Dataset{
		Accounts: make([]domain.Account, 0, len(members)),
		Board:    domain.NewBoard(),
	}
	for _, m := range members {
		account, err := domain.NewAccount(domain.Account{
			User: domain.User{
				ID:     m.id,
				Name:   m.name,
				Avatar: domain.AvatarURL(m.name, m.background),
				Role:   m.role,
			},
			Email:    m.email,
			Password: Password,
			IsAdmin:  m.admin,
			TeamCode: TeamCode,
		})
		if err != nil {
			return Dataset{}, fmt.Errorf("seed account %s: %w", m.id, err)
		}
		ds.Accounts = append(ds.Accounts, account)
	}
	for _, ts := range tasks {
		next, err := ds.Board.Create(domain.Task{
			ID:          ts.id,
			Title:       ts.title,
			Description: ts.description,
			Status:      ts.status,
			Priority:    ts.priority,
			Deadline:    today.AddDate(0, 0, ts.deadlineDays),
			AssigneeID:  ts.assignee,
			CreatedAt:   today.AddDate(0, 0, ts.createdDays),
		})
		if err != nil {
			return Dataset{}, fmt.Errorf("seed task %s: %w", ts.id, err)
		}
		ds.Board = next
	}
	return ds, nil
}
