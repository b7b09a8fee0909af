package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/SanjithGanapathi/Felicity-Hackathon-DASS/models"
	"github.com/lib/pq"
)

var (
	ErrEventNotFound         = errors.New("event not found")
	ErrEventOrganizerInvalid = errors.New("event organizer invalid")
)

// EventFilter narrows List results. Zero values mean "no constraint".
type EventFilter struct {
	Status      *models.EventStatus
	EventType   *models.EventType
	OrganizerID *int
	Eligibility *models.Eligibility
	Search      string
	Tags        []string
	Limit       int
	Offset      int
}

type EventRepository interface {
	Create(ctx context.Context, event *models.Event) error
	GetByID(ctx context.Context, id int) (*models.Event, error)
	List(ctx context.Context, filter EventFilter) ([]*models.Event, error)
	ListByIDs(ctx context.Context, ids []int) ([]*models.Event, error)
	ListEnded(ctx context.Context, now time.Time) ([]*models.Event, error)
	Update(ctx context.Context, event *models.Event) error
	UpdateMerchItems(ctx context.Context, id int, items []models.MerchItem) error
	UpdatePosterKey(ctx context.Context, id int, key *string) error
	UpdateStatus(ctx context.Context, id int, status models.EventStatus) error
	ReserveSeats(ctx context.Context, id int, seats int) (bool, error)
	ReleaseSeats(ctx context.Context, id int, seats int) error
	CountByStatus(ctx context.Context, status models.EventStatus) (int, error)
	Count(ctx context.Context) (int, error)
	Delete(ctx context.Context, id int) error
}

type postgresEventRepository struct {
	db *sql.DB
}

func NewPostgresEventRepository(db *sql.DB) EventRepository {
	return &postgresEventRepository{db: db}
}

const eventColumns = `e.id, e.name, e.description, e.event_type, e.organizer_id, e.status,
	e.registration_deadline, e.start_date, e.end_date, e.registration_limit,
	e.registration_count, e.registration_open, e.registration_fee, e.eligibility,
	e.tags, e.venue, e.is_team_event, e.min_team_size, e.max_team_size,
	e.form_schema, e.merch_items, e.poster_key, e.created_at`

func (r *postgresEventRepository) scanEvent(rowScanner interface {
	Scan(dest ...interface{}) error
}, e *models.Event) error {
	var tags, formSchema, merchItems []byte
	err := rowScanner.Scan(
		&e.ID,
		&e.Name,
		&e.Description,
		&e.EventType,
		&e.OrganizerID,
		&e.Status,
		&e.RegistrationDeadline,
		&e.StartDate,
		&e.EndDate,
		&e.RegistrationLimit,
		&e.RegistrationCount,
		&e.RegistrationOpen,
		&e.RegistrationFee,
		&e.Eligibility,
		&tags,
		&e.Venue,
		&e.IsTeamEvent,
		&e.MinTeamSize,
		&e.MaxTeamSize,
		&formSchema,
		&merchItems,
		&e.PosterKey,
		&e.CreatedAt,
	)
	if err != nil {
		return err
	}
	if err := unmarshalJSONB(tags, &e.Tags); err != nil {
		return err
	}
	if err := unmarshalJSONB(formSchema, &e.FormSchema); err != nil {
		return err
	}
	return unmarshalJSONB(merchItems, &e.MerchItems)
}

func (r *postgresEventRepository) Create(ctx context.Context, event *models.Event) error {
	tags, err := marshalJSONB(event.Tags)
	if err != nil {
		return err
	}
	formSchema, err := marshalJSONB(event.FormSchema)
	if err != nil {
		return err
	}
	merchItems, err := marshalJSONB(event.MerchItems)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO events (name, description, event_type, organizer_id, status,
			registration_deadline, start_date, end_date, registration_limit,
			registration_open, registration_fee, eligibility, tags, venue,
			is_team_event, min_team_size, max_team_size, form_schema, merch_items)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		RETURNING id, created_at`

	err = r.db.QueryRowContext(ctx, query,
		event.Name,
		event.Description,
		event.EventType,
		event.OrganizerID,
		event.Status,
		event.RegistrationDeadline,
		event.StartDate,
		event.EndDate,
		event.RegistrationLimit,
		event.RegistrationOpen,
		event.RegistrationFee,
		event.Eligibility,
		tags,
		event.Venue,
		event.IsTeamEvent,
		event.MinTeamSize,
		event.MaxTeamSize,
		formSchema,
		merchItems,
	).Scan(&event.ID, &event.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			return ErrEventOrganizerInvalid
		}
		return fmt.Errorf("failed to create event: %w", err)
	}
	return nil
}

func (r *postgresEventRepository) GetByID(ctx context.Context, id int) (*models.Event, error) {
	query := fmt.Sprintf(`SELECT %s FROM events e WHERE e.id = $1`, eventColumns)
	e := &models.Event{}
	row := r.db.QueryRowContext(ctx, query, id)
	if err := r.scanEvent(row, e); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to find event: %w", err)
	}
	return e, nil
}

func (r *postgresEventRepository) List(ctx context.Context, filter EventFilter) ([]*models.Event, error) {
	var queryBuilder strings.Builder
	args := []interface{}{}
	argCounter := 1

	queryBuilder.WriteString(fmt.Sprintf(`SELECT %s FROM events e WHERE 1=1`, eventColumns))

	if filter.Status != nil {
		queryBuilder.WriteString(fmt.Sprintf(" AND e.status = $%d", argCounter))
		args = append(args, *filter.Status)
		argCounter++
	}
	if filter.EventType != nil {
		queryBuilder.WriteString(fmt.Sprintf(" AND e.event_type = $%d", argCounter))
		args = append(args, *filter.EventType)
		argCounter++
	}
	if filter.OrganizerID != nil {
		queryBuilder.WriteString(fmt.Sprintf(" AND e.organizer_id = $%d", argCounter))
		args = append(args, *filter.OrganizerID)
		argCounter++
	}
	if filter.Eligibility != nil {
		queryBuilder.WriteString(fmt.Sprintf(" AND e.eligibility = $%d", argCounter))
		args = append(args, *filter.Eligibility)
		argCounter++
	}
	if filter.Search != "" {
		queryBuilder.WriteString(fmt.Sprintf(" AND (e.name ILIKE $%d OR e.description ILIKE $%d)", argCounter, argCounter))
		args = append(args, "%"+filter.Search+"%")
		argCounter++
	}
	if len(filter.Tags) > 0 {
		queryBuilder.WriteString(fmt.Sprintf(" AND e.tags @> $%d", argCounter))
		tagsJSON, err := marshalJSONB(filter.Tags)
		if err != nil {
			return nil, err
		}
		args = append(args, tagsJSON)
		argCounter++
	}

	queryBuilder.WriteString(" ORDER BY e.start_date ASC NULLS LAST, e.created_at DESC")

	if filter.Limit > 0 {
		queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d", argCounter))
		args = append(args, filter.Limit)
		argCounter++
	}
	if filter.Offset > 0 {
		queryBuilder.WriteString(fmt.Sprintf(" OFFSET $%d", argCounter))
		args = append(args, filter.Offset)
		argCounter++
	}

	return r.queryEvents(ctx, queryBuilder.String(), args...)
}

func (r *postgresEventRepository) ListByIDs(ctx context.Context, ids []int) ([]*models.Event, error) {
	if len(ids) == 0 {
		return []*models.Event{}, nil
	}
	query := fmt.Sprintf(`SELECT %s FROM events e WHERE e.id = ANY($1)`, eventColumns)
	return r.queryEvents(ctx, query, pq.Array(ids))
}

func (r *postgresEventRepository) ListEnded(ctx context.Context, now time.Time) ([]*models.Event, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM events e
		WHERE e.status = $1 AND e.end_date IS NOT NULL AND e.end_date < $2`, eventColumns)
	return r.queryEvents(ctx, query, models.EventPublished, now)
}

func (r *postgresEventRepository) queryEvents(ctx context.Context, query string, args ...interface{}) ([]*models.Event, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	events := make([]*models.Event, 0)
	for rows.Next() {
		e := &models.Event{}
		if err := r.scanEvent(rows, e); err != nil {
			return nil, fmt.Errorf("failed to scan event row: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating event rows: %w", err)
	}
	return events, nil
}

func (r *postgresEventRepository) Update(ctx context.Context, event *models.Event) error {
	tags, err := marshalJSONB(event.Tags)
	if err != nil {
		return err
	}
	formSchema, err := marshalJSONB(event.FormSchema)
	if err != nil {
		return err
	}
	merchItems, err := marshalJSONB(event.MerchItems)
	if err != nil {
		return err
	}

	query := `
		UPDATE events
		SET name = $1, description = $2, status = $3, registration_deadline = $4,
			start_date = $5, end_date = $6, registration_limit = $7,
			registration_open = $8, registration_fee = $9, eligibility = $10,
			tags = $11, venue = $12, is_team_event = $13, min_team_size = $14,
			max_team_size = $15, form_schema = $16, merch_items = $17
		WHERE id = $18`

	result, err := r.db.ExecContext(ctx, query,
		event.Name,
		event.Description,
		event.Status,
		event.RegistrationDeadline,
		event.StartDate,
		event.EndDate,
		event.RegistrationLimit,
		event.RegistrationOpen,
		event.RegistrationFee,
		event.Eligibility,
		tags,
		event.Venue,
		event.IsTeamEvent,
		event.MinTeamSize,
		event.MaxTeamSize,
		formSchema,
		merchItems,
		event.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}
	return checkAffectedRows(result, ErrEventNotFound)
}

func (r *postgresEventRepository) UpdateMerchItems(ctx context.Context, id int, items []models.MerchItem) error {
	data, err := marshalJSONB(items)
	if err != nil {
		return err
	}
	query := `UPDATE events SET merch_items = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, data, id)
	if err != nil {
		return fmt.Errorf("failed to update merch items: %w", err)
	}
	return checkAffectedRows(result, ErrEventNotFound)
}

func (r *postgresEventRepository) UpdatePosterKey(ctx context.Context, id int, key *string) error {
	query := `UPDATE events SET poster_key = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, key, id)
	if err != nil {
		return fmt.Errorf("failed to update event poster key: %w", err)
	}
	return checkAffectedRows(result, ErrEventNotFound)
}

func (r *postgresEventRepository) UpdateStatus(ctx context.Context, id int, status models.EventStatus) error {
	query := `UPDATE events SET status = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update event status: %w", err)
	}
	return checkAffectedRows(result, ErrEventNotFound)
}

// ReserveSeats atomically claims seats against the event's limit. Returns
// false when the claim would exceed the limit. A zero limit means unlimited.
func (r *postgresEventRepository) ReserveSeats(ctx context.Context, id int, seats int) (bool, error) {
	query := `
		UPDATE events
		SET registration_count = registration_count + $1
		WHERE id = $2 AND (registration_limit = 0 OR registration_count + $1 <= registration_limit)`

	result, err := r.db.ExecContext(ctx, query, seats, id)
	if err != nil {
		return false, fmt.Errorf("failed to reserve seats: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check affected rows: %w", err)
	}
	return rowsAffected == 1, nil
}

func (r *postgresEventRepository) ReleaseSeats(ctx context.Context, id int, seats int) error {
	query := `
		UPDATE events
		SET registration_count = GREATEST(registration_count - $1, 0)
		WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, seats, id)
	if err != nil {
		return fmt.Errorf("failed to release seats: %w", err)
	}
	return checkAffectedRows(result, ErrEventNotFound)
}

func (r *postgresEventRepository) CountByStatus(ctx context.Context, status models.EventStatus) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM events WHERE status = $1`
	if err := r.db.QueryRowContext(ctx, query, status).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count events by status: %w", err)
	}
	return count, nil
}

func (r *postgresEventRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return count, nil
}

func (r *postgresEventRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM events WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	return checkAffectedRows(result, ErrEventNotFound)
}
