package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/SanjithGanapathi/Felicity-Hackathon-DASS/models"
)

var ErrResetRequestNotFound = errors.New("password reset request not found")

type ResetRequestRepository interface {
	Create(ctx context.Context, req *models.PasswordResetRequest) error
	GetByID(ctx context.Context, id int) (*models.PasswordResetRequest, error)
	ListPending(ctx context.Context) ([]*models.PasswordResetRequest, error)
	Resolve(ctx context.Context, id int, status models.ResetRequestStatus, resolvedBy int) error
	CountPending(ctx context.Context) (int, error)
}

type postgresResetRequestRepository struct {
	db *sql.DB
}

func NewPostgresResetRequestRepository(db *sql.DB) ResetRequestRepository {
	return &postgresResetRequestRepository{db: db}
}

func (r *postgresResetRequestRepository) Create(ctx context.Context, req *models.PasswordResetRequest) error {
	query := `
		INSERT INTO password_reset_requests (organizer_id, reason, status)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query, req.OrganizerID, req.Reason, req.Status).
		Scan(&req.ID, &req.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create reset request: %w", err)
	}
	return nil
}

func (r *postgresResetRequestRepository) GetByID(ctx context.Context, id int) (*models.PasswordResetRequest, error) {
	query := `
		SELECT id, organizer_id, reason, status, resolved_by, resolved_at, created_at
		FROM password_reset_requests WHERE id = $1`

	req := &models.PasswordResetRequest{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&req.ID, &req.OrganizerID, &req.Reason, &req.Status,
		&req.ResolvedBy, &req.ResolvedAt, &req.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrResetRequestNotFound
		}
		return nil, fmt.Errorf("failed to find reset request: %w", err)
	}
	return req, nil
}

func (r *postgresResetRequestRepository) ListPending(ctx context.Context) ([]*models.PasswordResetRequest, error) {
	query := `
		SELECT rr.id, rr.organizer_id, rr.reason, rr.status, rr.resolved_by, rr.resolved_at, rr.created_at,
			COALESCE(o.id, 0), COALESCE(o.name, ''), COALESCE(o.contact_email, '')
		FROM password_reset_requests rr
		LEFT JOIN organizers o ON rr.organizer_id = o.id
		WHERE rr.status = $1
		ORDER BY rr.created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, models.ResetPending)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending reset requests: %w", err)
	}
	defer rows.Close()

	requests := make([]*models.PasswordResetRequest, 0)
	for rows.Next() {
		req := &models.PasswordResetRequest{}
		var o models.Organizer
		err := rows.Scan(
			&req.ID, &req.OrganizerID, &req.Reason, &req.Status,
			&req.ResolvedBy, &req.ResolvedAt, &req.CreatedAt,
			&o.ID, &o.Name, &o.ContactEmail,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reset request row: %w", err)
		}
		if o.ID > 0 {
			req.Organizer = &o
		}
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reset request rows: %w", err)
	}
	return requests, nil
}

// Resolve settles a pending request. The status guard keeps a request from
// being resolved twice.
func (r *postgresResetRequestRepository) Resolve(ctx context.Context, id int, status models.ResetRequestStatus, resolvedBy int) error {
	query := `
		UPDATE password_reset_requests
		SET status = $1, resolved_by = $2, resolved_at = NOW()
		WHERE id = $3 AND status = $4`

	result, err := r.db.ExecContext(ctx, query, status, resolvedBy, id, models.ResetPending)
	if err != nil {
		return fmt.Errorf("failed to resolve reset request: %w", err)
	}
	return checkAffectedRows(result, ErrResetRequestNotFound)
}

func (r *postgresResetRequestRepository) CountPending(ctx context.Context) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM password_reset_requests WHERE status = $1`
	if err := r.db.QueryRowContext(ctx, query, models.ResetPending).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count pending reset requests: %w", err)
	}
	return count, nil
}
