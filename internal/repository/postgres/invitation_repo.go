package postgres

import (
	"context"
	"database/sql"
	"errors"

	"eventcalendar/internal/domain"
)

const invitationSelect = `
	SELECT i.id, i.created_at,
	       e.id, e.title, e.start_at, e.end_at,
	       u.id, u.name, u.email,
	       b.id, b.name, b.email
	FROM invitations i
	JOIN events e ON e.id = i.event_id
	JOIN users u ON u.id = i.invited_user_id
	JOIN users b ON b.id = i.invited_by_id
`

type invitationRepository struct {
	DB *sql.DB
}

func NewInvitationRepository(db *sql.DB) domain.InvitationRepository {
	return &invitationRepository{
		DB: db,
	}
}

func scanInvitation(row rowScanner) (*domain.Invitation, error) {
	inv := &domain.Invitation{}
	err := row.Scan(
		&inv.ID, &inv.CreatedAt,
		&inv.Event.ID, &inv.Event.Title, &inv.Event.Start, &inv.Event.End,
		&inv.InvitedUser.ID, &inv.InvitedUser.Name, &inv.InvitedUser.Email,
		&inv.InvitedBy.ID, &inv.InvitedBy.Name, &inv.InvitedBy.Email,
	)
	if err != nil {
		return nil, err
	}
	return inv, nil
}

func (r *invitationRepository) Create(ctx context.Context, inv *domain.Invitation) (bool, error) {
	query := `
		INSERT INTO invitations (event_id, invited_user_id, invited_by_id, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (event_id, invited_user_id) DO NOTHING
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query, inv.Event.ID, inv.InvitedUser.ID, inv.InvitedBy.ID, inv.CreatedAt).
		Scan(&inv.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *invitationRepository) GetByID(ctx context.Context, id string) (*domain.Invitation, error) {
	return r.get(ctx, invitationSelect+` WHERE i.id = $1`, id)
}

func (r *invitationRepository) GetByEventAndUser(ctx context.Context, eventID, userID string) (*domain.Invitation, error) {
	return r.get(ctx, invitationSelect+` WHERE i.event_id = $1 AND i.invited_user_id = $2`, eventID, userID)
}

func (r *invitationRepository) get(ctx context.Context, query string, args ...any) (*domain.Invitation, error) {
	inv, err := scanInvitation(r.DB.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrInvitationNotFound
	}
	return inv, err
}

func (r *invitationRepository) ListByInvitedUser(ctx context.Context, userID string) ([]*domain.Invitation, error) {
	return r.list(ctx, invitationSelect+` WHERE i.invited_user_id = $1 ORDER BY i.created_at DESC, i.id`, userID)
}

func (r *invitationRepository) ListByEventID(ctx context.Context, eventID string) ([]*domain.Invitation, error) {
	return r.list(ctx, invitationSelect+` WHERE i.event_id = $1 ORDER BY i.created_at DESC, i.id`, eventID)
}

func (r *invitationRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Invitation, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	invs := make([]*domain.Invitation, 0)
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, err
		}
		invs = append(invs, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return invs, nil
}

func (r *invitationRepository) Delete(ctx context.Context, id string) error {
	result, err := r.DB.ExecContext(ctx, `DELETE FROM invitations WHERE id = $1`, id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrInvitationNotFound
	}
	return nil
}

func (r *invitationRepository) DeleteByEventID(ctx context.Context, eventID string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM invitations WHERE event_id = $1`, eventID)
	return err
}

func (r *invitationRepository) DeleteByEventAndUser(ctx context.Context, eventID, userID string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM invitations WHERE event_id = $1 AND invited_user_id = $2`, eventID, userID)
	return err
}
