package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tomek7667/emsboard/internal/domain"
)

const eventColumns = `id, event_title, severity, COALESCE(assigned_to, ''), due_date,
	event_time, status, COALESCE(event_type, ''), COALESCE(impact_scope, ''), COALESCE(root_cause, '')`

func scanEvent(scan func(...any) error) (domain.Event, error) {
	var (
		e   domain.Event
		due sql.NullString
	)
	err := scan(&e.ID, &e.EventTitle, &e.Severity, &e.AssignedTo, &due,
		&e.EventTime, &e.Status, &e.EventType, &e.ImpactScope, &e.RootCause)
	if due.Valid && due.String != "" {
		e.DueDate = &due.String
	}
	return e, err
}

// Events lists events newest first. status is "open" (anything not closed),
// "all" or an exact status.
func (c *Client) Events(ctx context.Context, status string) ([]domain.Event, error) {
	if status == "" {
		status = domain.StatusOpen
	}
	if !domain.ValidStatusFilter(status) {
		return nil, fmt.Errorf("%w: status filter %q", domain.ErrInvalid, status)
	}

	query := "SELECT " + eventColumns + " FROM Alarm_Events"
	var args []any
	switch status {
	case domain.StatusAll:
	case domain.StatusOpen:
		query += " WHERE status != ?"
		args = append(args, domain.StatusClosed)
	default:
		query += " WHERE status = ?"
		args = append(args, status)
	}
	query += " ORDER BY event_time DESC, id DESC"

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	events := []domain.Event{}
	for rows.Next() {
		e, err := scanEvent(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// CreateEvent stores a new assigned event. A non-empty initial description
// becomes the first action plan, a comment authored by "system".
func (c *Client) CreateEvent(ctx context.Context, in domain.EventInput, now time.Time) (int64, error) {
	if err := in.Normalize(); err != nil {
		return 0, err
	}
	var id int64
	err := c.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO Alarm_Events (event_title, severity, assigned_to, due_date, event_time, status, event_type, impact_scope, root_cause)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			in.EventTitle, in.Severity, in.AssignedTo, nullString(in.DueDate), now.Format(time.DateTime),
			domain.StatusAssigned, in.EventType, in.ImpactScope, in.RootCause)
		if err != nil {
			return fmt.Errorf("failed to insert event: %w", err)
		}
		if id, err = res.LastInsertId(); err != nil {
			return err
		}
		if desc := strings.TrimSpace(in.InitialDescription); desc != "" {
			if err := insertAction(ctx, tx, id, domain.ActionInput{ActionType: "comment", Content: desc, Author: "system"}, now); err != nil {
				return err
			}
		}
		return nil
	})
	return id, err
}

func (c *Client) Event(ctx context.Context, id int64) (domain.EventDetail, error) {
	d := domain.EventDetail{Actions: []domain.ActionPlan{}}
	e, err := scanEvent(c.db.QueryRowContext(ctx, "SELECT "+eventColumns+" FROM Alarm_Events WHERE id = ?", id).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return d, fmt.Errorf("%w: event %d", domain.ErrNotFound, id)
	}
	if err != nil {
		return d, fmt.Errorf("failed to load event: %w", err)
	}
	d.Event = e

	rows, err := c.db.QueryContext(ctx, `
		SELECT id, event_id, action_type, content, author, COALESCE(created_at, '')
		FROM Action_Plans WHERE event_id = ? ORDER BY created_at ASC, id ASC`, id)
	if err != nil {
		return d, fmt.Errorf("failed to load action plans: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var a domain.ActionPlan
		if err := rows.Scan(&a.ID, &a.EventID, &a.ActionType, &a.Content, &a.Author, &a.CreatedAt); err != nil {
			return d, fmt.Errorf("failed to scan action plan: %w", err)
		}
		d.Actions = append(d.Actions, a)
	}
	return d, rows.Err()
}

// UpdateEvent applies a partial update; fields left nil keep their value.
func (c *Client) UpdateEvent(ctx context.Context, id int64, u domain.EventUpdate) error {
	if err := u.Normalize(); err != nil {
		return err
	}
	var (
		sets []string
		args []any
	)
	if u.Status != nil {
		sets, args = append(sets, "status = ?"), append(args, *u.Status)
	}
	if u.Severity != nil {
		sets, args = append(sets, "severity = ?"), append(args, *u.Severity)
	}
	if u.AssignedTo != nil {
		sets, args = append(sets, "assigned_to = ?"), append(args, *u.AssignedTo)
	}
	if u.DueDate != nil {
		sets, args = append(sets, "due_date = ?"), append(args, nullString(*u.DueDate))
	}
	args = append(args, id)

	res, err := c.db.ExecContext(ctx, "UPDATE Alarm_Events SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: event %d", domain.ErrNotFound, id)
	}
	return nil
}

func (c *Client) AddAction(ctx context.Context, eventID int64, in domain.ActionInput, now time.Time) error {
	if err := in.Normalize(); err != nil {
		return err
	}
	return c.inTx(ctx, func(tx *sql.Tx) error {
		var exists int
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM Alarm_Events WHERE id = ?", eventID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to look up event: %w", err)
		}
		if exists == 0 {
			return fmt.Errorf("%w: event %d", domain.ErrNotFound, eventID)
		}
		return insertAction(ctx, tx, eventID, in, now)
	})
}

func insertAction(ctx context.Context, tx *sql.Tx, eventID int64, in domain.ActionInput, now time.Time) error {
	_, err := tx.ExecContext(ctx,
		"INSERT INTO Action_Plans (event_id, action_type, content, author, created_at) VALUES (?, ?, ?, ?, ?)",
		eventID, in.ActionType, in.Content, in.Author, now.Format(time.DateTime))
	if err != nil {
		return fmt.Errorf("failed to insert action plan: %w", err)
	}
	return nil
}
