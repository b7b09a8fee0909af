package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/SanjithGanapathi/Felicity-Hackathon-DASS/models"
	"github.com/lib/pq"
)

var (
	ErrRegistrationNotFound     = errors.New("registration not found")
	ErrRegistrationConflict     = errors.New("registration conflict: user already registered for this event")
	ErrRegistrationEventInvalid = errors.New("registration event invalid")
	ErrRegistrationUserInvalid  = errors.New("registration user invalid")
)

type RegistrationRepository interface {
	Create(ctx context.Context, reg *models.Registration) error
	InsertIfAbsent(ctx context.Context, reg *models.Registration) (bool, error)
	GetByID(ctx context.Context, id int) (*models.Registration, error)
	GetByEventAndUser(ctx context.Context, eventID, userID int) (*models.Registration, error)
	ExistsActiveByEventAndUser(ctx context.Context, eventID, userID int) (bool, error)
	CountActiveByEvent(ctx context.Context, eventID int) (int, error)
	CountActiveByEventAndUsers(ctx context.Context, eventID int, userIDs []int) (int, error)
	ListByEvent(ctx context.Context, eventID int) ([]*models.Registration, error)
	ListByUser(ctx context.Context, userID int) ([]*models.Registration, error)
	UpdateStatus(ctx context.Context, id int, status models.RegistrationStatus) error
	Count(ctx context.Context) (int, error)
	CountAttendedByEvent(ctx context.Context, eventID int) (int, error)
	CountCancelledByEvent(ctx context.Context, eventID int) (int, error)
	TrendingEventIDs(ctx context.Context, since time.Time, limit int) ([]int, error)
}

type postgresRegistrationRepository struct {
	db *sql.DB
}

func NewPostgresRegistrationRepository(db *sql.DB) RegistrationRepository {
	return &postgresRegistrationRepository{db: db}
}

const registrationColumns = `r.id, r.event_id, r.user_id, r.status, r.team_name,
	r.team_members, r.form_responses, r.ticket_id, r.qr_code_url, r.created_at`

func (r *postgresRegistrationRepository) scanRegistration(rowScanner interface {
	Scan(dest ...interface{}) error
}, reg *models.Registration) error {
	var teamMembers, formResponses []byte
	err := rowScanner.Scan(
		&reg.ID,
		&reg.EventID,
		&reg.UserID,
		&reg.Status,
		&reg.TeamName,
		&teamMembers,
		&formResponses,
		&reg.TicketID,
		&reg.QRCodeURL,
		&reg.CreatedAt,
	)
	if err != nil {
		return err
	}
	if err := unmarshalJSONB(teamMembers, &reg.TeamMembers); err != nil {
		return err
	}
	return unmarshalJSONB(formResponses, &reg.FormResponses)
}

func (r *postgresRegistrationRepository) insertArgs(reg *models.Registration) ([]interface{}, error) {
	teamMembers, err := marshalJSONB(reg.TeamMembers)
	if err != nil {
		return nil, err
	}
	formResponses, err := marshalJSONB(reg.FormResponses)
	if err != nil {
		return nil, err
	}
	return []interface{}{
		reg.EventID,
		reg.UserID,
		reg.Status,
		reg.TeamName,
		teamMembers,
		formResponses,
		reg.TicketID,
		reg.QRCodeURL,
	}, nil
}

func (r *postgresRegistrationRepository) Create(ctx context.Context, reg *models.Registration) error {
	args, err := r.insertArgs(reg)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO registrations (event_id, user_id, status, team_name,
			team_members, form_responses, ticket_id, qr_code_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`

	err = r.db.QueryRowContext(ctx, query, args...).Scan(&reg.ID, &reg.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505": // unique_violation
				return ErrRegistrationConflict
			case "23503": // foreign_key_violation
				switch pqErr.Constraint {
				case "registrations_event_id_fkey":
					return ErrRegistrationEventInvalid
				case "registrations_user_id_fkey":
					return ErrRegistrationUserInvalid
				}
			}
		}
		return fmt.Errorf("failed to create registration: %w", err)
	}
	return nil
}

// InsertIfAbsent inserts the registration unless the user already holds an
// active one for the event. Returns true when a row was inserted.
func (r *postgresRegistrationRepository) InsertIfAbsent(ctx context.Context, reg *models.Registration) (bool, error) {
	args, err := r.insertArgs(reg)
	if err != nil {
		return false, err
	}

	query := `
		INSERT INTO registrations (event_id, user_id, status, team_name,
			team_members, form_responses, ticket_id, qr_code_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (event_id, user_id) WHERE status != 'cancelled' DO NOTHING
		RETURNING id, created_at`

	err = r.db.QueryRowContext(ctx, query, args...).Scan(&reg.ID, &reg.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to insert registration: %w", err)
	}
	return true, nil
}

func (r *postgresRegistrationRepository) findOne(ctx context.Context, query string, args ...interface{}) (*models.Registration, error) {
	reg := &models.Registration{}
	row := r.db.QueryRowContext(ctx, query, args...)
	if err := r.scanRegistration(row, reg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRegistrationNotFound
		}
		return nil, fmt.Errorf("failed to find registration: %w", err)
	}
	return reg, nil
}

func (r *postgresRegistrationRepository) GetByID(ctx context.Context, id int) (*models.Registration, error) {
	query := fmt.Sprintf(`SELECT %s FROM registrations r WHERE r.id = $1`, registrationColumns)
	return r.findOne(ctx, query, id)
}

func (r *postgresRegistrationRepository) GetByEventAndUser(ctx context.Context, eventID, userID int) (*models.Registration, error) {
	query := fmt.Sprintf(`SELECT %s FROM registrations r WHERE r.event_id = $1 AND r.user_id = $2`, registrationColumns)
	return r.findOne(ctx, query, eventID, userID)
}

func (r *postgresRegistrationRepository) ExistsActiveByEventAndUser(ctx context.Context, eventID, userID int) (bool, error) {
	var exists bool
	query := `
		SELECT EXISTS(
			SELECT 1 FROM registrations
			WHERE event_id = $1 AND user_id = $2 AND status != $3
		)`
	err := r.db.QueryRowContext(ctx, query, eventID, userID, models.RegistrationCancelled).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check registration existence: %w", err)
	}
	return exists, nil
}

// CountActiveByEvent is the authoritative seat count: every non-cancelled
// registration holds one seat.
func (r *postgresRegistrationRepository) CountActiveByEvent(ctx context.Context, eventID int) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM registrations WHERE event_id = $1 AND status != $2`
	err := r.db.QueryRowContext(ctx, query, eventID, models.RegistrationCancelled).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count registrations: %w", err)
	}
	return count, nil
}

func (r *postgresRegistrationRepository) CountActiveByEventAndUsers(ctx context.Context, eventID int, userIDs []int) (int, error) {
	if len(userIDs) == 0 {
		return 0, nil
	}
	var count int
	query := `
		SELECT COUNT(*) FROM registrations
		WHERE event_id = $1 AND user_id = ANY($2) AND status != $3`
	err := r.db.QueryRowContext(ctx, query, eventID, pq.Array(userIDs), models.RegistrationCancelled).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count registrations for users: %w", err)
	}
	return count, nil
}

func (r *postgresRegistrationRepository) ListByEvent(ctx context.Context, eventID int) ([]*models.Registration, error) {
	query := fmt.Sprintf(`
		SELECT %s,
			COALESCE(u.id, 0), COALESCE(u.first_name, ''), COALESCE(u.last_name, ''),
			COALESCE(u.email, ''), COALESCE(u.participant_type, '')
		FROM registrations r
		LEFT JOIN users u ON r.user_id = u.id
		WHERE r.event_id = $1
		ORDER BY r.created_at ASC`, registrationColumns)

	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations by event: %w", err)
	}
	defer rows.Close()

	registrations := make([]*models.Registration, 0)
	for rows.Next() {
		reg := &models.Registration{}
		var u models.User
		var participantType string
		var teamMembers, formResponses []byte
		err := rows.Scan(
			&reg.ID, &reg.EventID, &reg.UserID, &reg.Status, &reg.TeamName,
			&teamMembers, &formResponses, &reg.TicketID, &reg.QRCodeURL, &reg.CreatedAt,
			&u.ID, &u.FirstName, &u.LastName, &u.Email, &participantType,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan registration row: %w", err)
		}
		if err := unmarshalJSONB(teamMembers, &reg.TeamMembers); err != nil {
			return nil, err
		}
		if err := unmarshalJSONB(formResponses, &reg.FormResponses); err != nil {
			return nil, err
		}
		if u.ID > 0 {
			if participantType != "" {
				pt := models.ParticipantType(participantType)
				u.ParticipantType = &pt
			}
			reg.User = &u
		}
		registrations = append(registrations, reg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating registration rows: %w", err)
	}
	return registrations, nil
}

func (r *postgresRegistrationRepository) ListByUser(ctx context.Context, userID int) ([]*models.Registration, error) {
	query := fmt.Sprintf(`
		SELECT %s,
			COALESCE(e.id, 0), COALESCE(e.name, ''), COALESCE(e.event_type, ''),
			COALESCE(e.status, ''), e.start_date, e.end_date, COALESCE(e.venue, '')
		FROM registrations r
		LEFT JOIN events e ON r.event_id = e.id
		WHERE r.user_id = $1
		ORDER BY r.created_at DESC`, registrationColumns)

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations by user: %w", err)
	}
	defer rows.Close()

	registrations := make([]*models.Registration, 0)
	for rows.Next() {
		reg := &models.Registration{}
		var e models.Event
		var teamMembers, formResponses []byte
		err := rows.Scan(
			&reg.ID, &reg.EventID, &reg.UserID, &reg.Status, &reg.TeamName,
			&teamMembers, &formResponses, &reg.TicketID, &reg.QRCodeURL, &reg.CreatedAt,
			&e.ID, &e.Name, &e.EventType, &e.Status, &e.StartDate, &e.EndDate, &e.Venue,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan registration row: %w", err)
		}
		if err := unmarshalJSONB(teamMembers, &reg.TeamMembers); err != nil {
			return nil, err
		}
		if err := unmarshalJSONB(formResponses, &reg.FormResponses); err != nil {
			return nil, err
		}
		if e.ID > 0 {
			reg.Event = &e
		}
		registrations = append(registrations, reg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating registration rows: %w", err)
	}
	return registrations, nil
}

func (r *postgresRegistrationRepository) UpdateStatus(ctx context.Context, id int, status models.RegistrationStatus) error {
	query := `UPDATE registrations SET status = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update registration status: %w", err)
	}
	return checkAffectedRows(result, ErrRegistrationNotFound)
}

func (r *postgresRegistrationRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM registrations`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count registrations: %w", err)
	}
	return count, nil
}

func (r *postgresRegistrationRepository) CountAttendedByEvent(ctx context.Context, eventID int) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM registrations WHERE event_id = $1 AND status = $2`
	err := r.db.QueryRowContext(ctx, query, eventID, models.RegistrationAttended).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count attended registrations: %w", err)
	}
	return count, nil
}

func (r *postgresRegistrationRepository) CountCancelledByEvent(ctx context.Context, eventID int) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM registrations WHERE event_id = $1 AND status = $2`
	err := r.db.QueryRowContext(ctx, query, eventID, models.RegistrationCancelled).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count cancelled registrations: %w", err)
	}
	return count, nil
}

// TrendingEventIDs returns event ids ranked by recent registration volume.
func (r *postgresRegistrationRepository) TrendingEventIDs(ctx context.Context, since time.Time, limit int) ([]int, error) {
	query := `
		SELECT event_id FROM registrations
		WHERE created_at >= $1 AND status != $2
		GROUP BY event_id
		ORDER BY COUNT(*) DESC
		LIMIT $3`

	rows, err := r.db.QueryContext(ctx, query, since, models.RegistrationCancelled, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query trending events: %w", err)
	}
	defer rows.Close()

	ids := make([]int, 0, limit)
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan trending event id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trending rows: %w", err)
	}
	return ids, nil
}
