package domain

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

const (
	StatusAssigned   = "assigned"
	StatusInProgress = "in_progress"
	StatusClosed     = "closed"

	// StatusOpen is a list filter matching every status except closed.
	StatusOpen = "open"
	StatusAll  = "all"
)

var (
	eventStatuses = []string{StatusAssigned, StatusInProgress, StatusClosed}
	severities    = []string{"low", "medium", "high"}
	actionTypes   = []string{"comment", "root_cause", "correction", "prevention"}
)

type Event struct {
	ID         int64  `json:"id"`
	EventTitle string `json:"event_title"`
	Severity   string `json:"severity"`
	AssignedTo string `json:"assigned_to"`
	// DueDate is nil when no due date is set.
	DueDate     *string `json:"due_date"`
	EventTime   string  `json:"event_time"`
	Status      string  `json:"status"`
	EventType   string  `json:"event_type"`
	ImpactScope string  `json:"impact_scope"`
	RootCause   string  `json:"root_cause"`
}

type ActionPlan struct {
	ID         int64  `json:"id"`
	EventID    int64  `json:"event_id"`
	ActionType string `json:"action_type"`
	Content    string `json:"content"`
	Author     string `json:"author"`
	CreatedAt  string `json:"created_at"`
}

type EventDetail struct {
	Event   Event        `json:"event"`
	Actions []ActionPlan `json:"actions"`
}

type EventInput struct {
	EventTitle         string `json:"event_title"`
	InitialDescription string `json:"initial_description"`
	Severity           string `json:"severity"`
	AssignedTo         string `json:"assigned_to"`
	DueDate            string `json:"due_date"`
	EventType          string `json:"event_type"`
	ImpactScope        string `json:"impact_scope"`
	RootCause          string `json:"root_cause"`
}

// Normalize checks the title, defaults the severity to medium and drops a
// due date that is not a YYYY-MM-DD date.
func (in *EventInput) Normalize() error {
	in.EventTitle = strings.TrimSpace(in.EventTitle)
	if in.EventTitle == "" {
		return fmt.Errorf("%w: event_title is required", ErrInvalid)
	}
	if in.Severity == "" {
		in.Severity = "medium"
	}
	if !slices.Contains(severities, in.Severity) {
		return fmt.Errorf("%w: severity %q", ErrInvalid, in.Severity)
	}
	in.DueDate = ValidDate(in.DueDate)
	return nil
}

// EventUpdate is a partial update: nil fields are left unchanged.
type EventUpdate struct {
	Status     *string `json:"status"`
	Severity   *string `json:"severity"`
	AssignedTo *string `json:"assigned_to"`
	DueDate    *string `json:"due_date"`
}

func (u *EventUpdate) Normalize() error {
	if u.Status != nil && !slices.Contains(eventStatuses, *u.Status) {
		return fmt.Errorf("%w: status %q", ErrInvalid, *u.Status)
	}
	if u.Severity != nil && !slices.Contains(severities, *u.Severity) {
		return fmt.Errorf("%w: severity %q", ErrInvalid, *u.Severity)
	}
	if u.DueDate != nil {
		d := ValidDate(*u.DueDate)
		u.DueDate = &d
	}
	if u.Status == nil && u.Severity == nil && u.AssignedTo == nil && u.DueDate == nil {
		return fmt.Errorf("%w: nothing to update", ErrInvalid)
	}
	return nil
}

type ActionInput struct {
	ActionType string `json:"action_type"`
	Content    string `json:"content"`
	Author     string `json:"author"`
}

func (in *ActionInput) Normalize() error {
	in.Content = strings.TrimSpace(in.Content)
	if in.Content == "" || in.ActionType == "" {
		return fmt.Errorf("%w: action_type and content are required", ErrInvalid)
	}
	if !slices.Contains(actionTypes, in.ActionType) {
		return fmt.Errorf("%w: action_type %q", ErrInvalid, in.ActionType)
	}
	if strings.TrimSpace(in.Author) == "" {
		in.Author = "user"
	}
	return nil
}

// ValidStatusFilter reports whether s can be used to list events.
func ValidStatusFilter(s string) bool {
	return s == StatusOpen || s == StatusAll || slices.Contains(eventStatuses, s)
}

// ValidDate returns s when it is a YYYY-MM-DD date and "" otherwise.
func ValidDate(s string) string {
	s = strings.TrimSpace(s)
	if _, err := time.Parse(time.DateOnly, s); err != nil {
		return ""
	}
	return s
}
