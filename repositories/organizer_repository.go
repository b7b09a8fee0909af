package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/SanjithGanapathi/Felicity-Hackathon-DASS/models"
	"github.com/lib/pq"
)

var (
	ErrOrganizerNotFound     = errors.New("organizer not found")
	ErrOrganizerNameConflict = errors.New("organizer name already taken")
)

type OrganizerRepository interface {
	Create(ctx context.Context, org *models.Organizer) error
	GetByID(ctx context.Context, id int) (*models.Organizer, error)
	GetByAccountID(ctx context.Context, accountID int) (*models.Organizer, error)
	List(ctx context.Context, includeArchived bool) ([]*models.Organizer, error)
	Update(ctx context.Context, org *models.Organizer) error
	UpdateStatus(ctx context.Context, id int, status models.OrganizerStatus) error
	CountByStatus(ctx context.Context, status models.OrganizerStatus) (int, error)
	Delete(ctx context.Context, id int) error
}

type postgresOrganizerRepository struct {
	db *sql.DB
}

func NewPostgresOrganizerRepository(db *sql.DB) OrganizerRepository {
	return &postgresOrganizerRepository{db: db}
}

const organizerColumns = `id, name, category, contact_email, contact_number,
	description, discord_webhook_url, status, account_id, created_by, created_at`

func (r *postgresOrganizerRepository) scanOrganizer(rowScanner interface {
	Scan(dest ...interface{}) error
}, o *models.Organizer) error {
	return rowScanner.Scan(
		&o.ID,
		&o.Name,
		&o.Category,
		&o.ContactEmail,
		&o.ContactNumber,
		&o.Description,
		&o.DiscordWebhookURL,
		&o.Status,
		&o.AccountID,
		&o.CreatedBy,
		&o.CreatedAt,
	)
}

func (r *postgresOrganizerRepository) Create(ctx context.Context, org *models.Organizer) error {
	query := `
		INSERT INTO organizers (name, category, contact_email, contact_number,
			description, discord_webhook_url, status, account_id, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		org.Name,
		org.Category,
		org.ContactEmail,
		org.ContactNumber,
		org.Description,
		org.DiscordWebhookURL,
		org.Status,
		org.AccountID,
		org.CreatedBy,
	).Scan(&org.ID, &org.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return ErrOrganizerNameConflict
		}
		return fmt.Errorf("failed to create organizer: %w", err)
	}
	return nil
}

func (r *postgresOrganizerRepository) findOne(ctx context.Context, query string, args ...interface{}) (*models.Organizer, error) {
	o := &models.Organizer{}
	row := r.db.QueryRowContext(ctx, query, args...)
	if err := r.scanOrganizer(row, o); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrganizerNotFound
		}
		return nil, fmt.Errorf("failed to find organizer: %w", err)
	}
	return o, nil
}

func (r *postgresOrganizerRepository) GetByID(ctx context.Context, id int) (*models.Organizer, error) {
	query := fmt.Sprintf(`SELECT %s FROM organizers WHERE id = $1`, organizerColumns)
	return r.findOne(ctx, query, id)
}

func (r *postgresOrganizerRepository) GetByAccountID(ctx context.Context, accountID int) (*models.Organizer, error) {
	query := fmt.Sprintf(`SELECT %s FROM organizers WHERE account_id = $1`, organizerColumns)
	return r.findOne(ctx, query, accountID)
}

func (r *postgresOrganizerRepository) List(ctx context.Context, includeArchived bool) ([]*models.Organizer, error) {
	query := fmt.Sprintf(`SELECT %s FROM organizers`, organizerColumns)
	args := []interface{}{}
	if !includeArchived {
		query += ` WHERE status != $1`
		args = append(args, models.OrganizerArchived)
	}
	query += ` ORDER BY name ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizers: %w", err)
	}
	defer rows.Close()

	organizers := make([]*models.Organizer, 0)
	for rows.Next() {
		o := &models.Organizer{}
		if err := r.scanOrganizer(rows, o); err != nil {
			return nil, fmt.Errorf("failed to scan organizer row: %w", err)
		}
		organizers = append(organizers, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating organizer rows: %w", err)
	}
	return organizers, nil
}

func (r *postgresOrganizerRepository) Update(ctx context.Context, org *models.Organizer) error {
	query := `
		UPDATE organizers
		SET name = $1, category = $2, contact_email = $3, contact_number = $4,
			description = $5, discord_webhook_url = $6
		WHERE id = $7`

	result, err := r.db.ExecContext(ctx, query,
		org.Name,
		org.Category,
		org.ContactEmail,
		org.ContactNumber,
		org.Description,
		org.DiscordWebhookURL,
		org.ID,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return ErrOrganizerNameConflict
		}
		return fmt.Errorf("failed to update organizer: %w", err)
	}
	return checkAffectedRows(result, ErrOrganizerNotFound)
}

func (r *postgresOrganizerRepository) UpdateStatus(ctx context.Context, id int, status models.OrganizerStatus) error {
	query := `UPDATE organizers SET status = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update organizer status: %w", err)
	}
	return checkAffectedRows(result, ErrOrganizerNotFound)
}

func (r *postgresOrganizerRepository) CountByStatus(ctx context.Context, status models.OrganizerStatus) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM organizers WHERE status = $1`
	if err := r.db.QueryRowContext(ctx, query, status).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count organizers: %w", err)
	}
	return count, nil
}

func (r *postgresOrganizerRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM organizers WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete organizer: %w", err)
	}
	return checkAffectedRows(result, ErrOrganizerNotFound)
}
