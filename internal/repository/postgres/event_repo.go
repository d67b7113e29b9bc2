package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"eventcalendar/internal/domain"
)

const eventSelect = `
	SELECT e.id, e.title, e.description, e.start_at, e.end_at, e.priority, e.recurring, e.tags,
	       e.color, e.location, e.created_at, e.updated_at, o.id, o.name, o.email
	FROM events e
	JOIN users o ON o.id = e.owner_id
`

type eventRepository struct {
	DB *sql.DB
}

func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{
		DB: db,
	}
}

func scanEvent(row rowScanner) (*domain.Event, error) {
	e := &domain.Event{}
	var tags pq.StringArray
	err := row.Scan(
		&e.ID, &e.Title, &e.Description, &e.Start, &e.End, &e.Priority, &e.Recurring, &tags,
		&e.Color, &e.Location, &e.CreatedAt, &e.UpdatedAt, &e.Owner.ID, &e.Owner.Name, &e.Owner.Email,
	)
	if err != nil {
		return nil, err
	}
	e.Tags = []string(tags)
	if e.Tags == nil {
		e.Tags = []string{}
	}
	return e, nil
}

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	if e.Members == nil {
		return domain.ErrMembersUnset
	}
	return withTx(ctx, r.DB, func(tx *sql.Tx) error {
		query := `
			INSERT INTO events (title, description, start_at, end_at, priority, recurring, tags, color, location, owner_id, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			RETURNING id
		`
		err := tx.QueryRowContext(ctx, query,
			e.Title, e.Description, e.Start, e.End, e.Priority, e.Recurring, pq.Array(e.Tags),
			e.Color, e.Location, e.Owner.ID, e.CreatedAt, e.UpdatedAt,
		).Scan(&e.ID)
		if err != nil {
			return err
		}
		return insertMembers(ctx, tx, e.ID, e.Members, e.CreatedAt)
	})
}

func insertMembers(ctx context.Context, tx *sql.Tx, eventID string, members []domain.UserRef, addedAt time.Time) error {
	query := `
		INSERT INTO event_members (event_id, user_id, added_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (event_id, user_id) DO NOTHING
	`
	for _, m := range members {
		if _, err := tx.ExecContext(ctx, query, eventID, m.ID, addedAt); err != nil {
			return fmt.Errorf("insert member %s: %w", m.ID, err)
		}
	}
	return nil
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	e, err := scanEvent(r.DB.QueryRowContext(ctx, eventSelect+` WHERE e.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrEventNotFound
		}
		return nil, err
	}
	if err := r.loadMembers(ctx, []*domain.Event{e}); err != nil {
		return nil, err
	}
	return e, nil
}

func (r *eventRepository) ListByOwnerOrMember(ctx context.Context, userID string) ([]*domain.Event, error) {
	query := eventSelect + `
		WHERE e.owner_id = $1
		   OR EXISTS (SELECT 1 FROM event_members m WHERE m.event_id = e.id AND m.user_id = $1)
		ORDER BY e.start_at, e.id
	`
	return r.list(ctx, query, userID)
}

func (r *eventRepository) ListByOwnerID(ctx context.Context, ownerID string) ([]*domain.Event, error) {
	query := eventSelect + `
		WHERE e.owner_id = $1
		ORDER BY e.start_at, e.id
	`
	return r.list(ctx, query, ownerID)
}

func (r *eventRepository) ListByMemberID(ctx context.Context, userID string) ([]*domain.Event, error) {
	query := eventSelect + `
		WHERE EXISTS (SELECT 1 FROM event_members m WHERE m.event_id = e.id AND m.user_id = $1)
		ORDER BY e.start_at, e.id
	`
	return r.list(ctx, query, userID)
}

func (r *eventRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Event, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	events := make([]*domain.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.loadMembers(ctx, events); err != nil {
		return nil, err
	}
	return events, nil
}

// loadMembers fills Members for every event with a single query. An event
// without member rows is a broken record and fails with ErrMembersUnset.
func (r *eventRepository) loadMembers(ctx context.Context, events []*domain.Event) error {
	if len(events) == 0 {
		return nil
	}
	byID := make(map[string]*domain.Event, len(events))
	ids := make([]string, 0, len(events))
	for _, e := range events {
		byID[e.ID] = e
		ids = append(ids, e.ID)
	}
	query := `
		SELECT m.event_id, u.id, u.name, u.email
		FROM event_members m
		JOIN users u ON u.id = m.user_id
		WHERE m.event_id = ANY($1::uuid[])
		ORDER BY m.event_id, m.seq
	`
	rows, err := r.DB.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("load members: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var eventID string
		var m domain.UserRef
		if err := rows.Scan(&eventID, &m.ID, &m.Name, &m.Email); err != nil {
			return fmt.Errorf("load members: %w", err)
		}
		if e, ok := byID[eventID]; ok {
			e.Members = append(e.Members, m)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("load members: %w", err)
	}
	for _, e := range events {
		if len(e.Members) == 0 {
			return fmt.Errorf("event %s: %w", e.ID, domain.ErrMembersUnset)
		}
	}
	return nil
}

// Update saves every mutable column and replaces the member set. The owner column is never written.
func (r *eventRepository) Update(ctx context.Context, e *domain.Event) error {
	if e.Members == nil {
		return domain.ErrMembersUnset
	}
	return withTx(ctx, r.DB, func(tx *sql.Tx) error {
		query := `
			UPDATE events
			SET title = $1, description = $2, start_at = $3, end_at = $4, priority = $5,
			    recurring = $6, tags = $7, color = $8, location = $9, updated_at = $10
			WHERE id = $11
		`
		result, err := tx.ExecContext(ctx, query,
			e.Title, e.Description, e.Start, e.End, e.Priority,
			e.Recurring, pq.Array(e.Tags), e.Color, e.Location, e.UpdatedAt, e.ID,
		)
		if err != nil {
			return err
		}
		if rows, _ := result.RowsAffected(); rows == 0 {
			return domain.ErrEventNotFound
		}
		ids := make([]string, len(e.Members))
		for i, m := range e.Members {
			ids[i] = m.ID
		}
		_, err = tx.ExecContext(ctx,
			`DELETE FROM event_members WHERE event_id = $1 AND NOT (user_id = ANY($2::uuid[]))`,
			e.ID, pq.Array(ids),
		)
		if err != nil {
			return fmt.Errorf("prune members: %w", err)
		}
		return insertMembers(ctx, tx, e.ID, e.Members, e.UpdatedAt)
	})
}

func (r *eventRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM events WHERE id = $1`
	result, err := r.DB.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrEventNotFound
	}
	return nil
}

func (r *eventRepository) AddMember(ctx context.Context, eventID, userID string, updatedAt time.Time) (bool, error) {
	var added bool
	err := withTx(ctx, r.DB, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			INSERT INTO event_members (event_id, user_id, added_at)
			VALUES ($1, $2, $3)
			ON CONFLICT (event_id, user_id) DO NOTHING
		`, eventID, userID, updatedAt)
		if err != nil {
			return err
		}
		rows, _ := result.RowsAffected()
		added = rows > 0
		if !added {
			return nil
		}
		return touchEvent(ctx, tx, eventID, updatedAt)
	})
	return added, err
}

func (r *eventRepository) RemoveMember(ctx context.Context, eventID, userID string, updatedAt time.Time) (bool, error) {
	var removed bool
	err := withTx(ctx, r.DB, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			`DELETE FROM event_members WHERE event_id = $1 AND user_id = $2`,
			eventID, userID,
		)
		if err != nil {
			return err
		}
		rows, _ := result.RowsAffected()
		removed = rows > 0
		return touchEvent(ctx, tx, eventID, updatedAt)
	})
	return removed, err
}

func touchEvent(ctx context.Context, tx *sql.Tx, eventID string, updatedAt time.Time) error {
	result, err := tx.ExecContext(ctx, `UPDATE events SET updated_at = $1 WHERE id = $2`, updatedAt, eventID)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return domain.ErrEventNotFound
	}
	return nil
}
