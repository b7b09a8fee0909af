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
	ErrTeamNotFound           = errors.New("team registration not found")
	ErrTeamConflict           = errors.New("team registration was modified concurrently")
	ErrTeamInviteCodeConflict = errors.New("team invite code already in use")
	ErrTeamLeaderConflict     = errors.New("leader already has a pending team for this event")
	ErrTeamEventInvalid       = errors.New("team event invalid")
)

type TeamRepository interface {
	Create(ctx context.Context, team *models.TeamRegistration) error
	GetByID(ctx context.Context, id int) (*models.TeamRegistration, error)
	GetPendingByEventAndCode(ctx context.Context, eventID int, code string) (*models.TeamRegistration, error)
	GetPendingByEventAndInvitee(ctx context.Context, eventID int, email string) (*models.TeamRegistration, error)
	FindForUser(ctx context.Context, eventID, userID int, email string) (*models.TeamRegistration, error)
	AnyActiveMembershipByEventAndUsers(ctx context.Context, eventID int, userIDs []int) (bool, error)
	HasPendingTeamAsLeader(ctx context.Context, eventID, leaderID int) (bool, error)
	UpdateMembersAndInvites(ctx context.Context, team *models.TeamRegistration) error
	CompleteIfPending(ctx context.Context, id int) (bool, error)
	ListByEvent(ctx context.Context, eventID int) ([]*models.TeamRegistration, error)
	CountByEventAndStatus(ctx context.Context, eventID int, status models.TeamStatus) (int, error)
}

type postgresTeamRepository struct {
	db *sql.DB
}

func NewPostgresTeamRepository(db *sql.DB) TeamRepository {
	return &postgresTeamRepository{db: db}
}

const teamColumns = `t.id, t.event_id, t.leader_id, t.team_name, t.team_size,
	t.invite_code, t.members, t.invites, t.form_responses, t.status, t.version,
	t.completed_at, t.created_at`

func (r *postgresTeamRepository) scanTeam(rowScanner interface {
	Scan(dest ...interface{}) error
}, t *models.TeamRegistration) error {
	var members, invites, formResponses []byte
	err := rowScanner.Scan(
		&t.ID,
		&t.EventID,
		&t.LeaderID,
		&t.TeamName,
		&t.TeamSize,
		&t.InviteCode,
		&members,
		&invites,
		&formResponses,
		&t.Status,
		&t.Version,
		&t.CompletedAt,
		&t.CreatedAt,
	)
	if err != nil {
		return err
	}
	if err := unmarshalJSONB(members, &t.Members); err != nil {
		return err
	}
	if err := unmarshalJSONB(invites, &t.Invites); err != nil {
		return err
	}
	return unmarshalJSONB(formResponses, &t.FormResponses)
}

func (r *postgresTeamRepository) Create(ctx context.Context, team *models.TeamRegistration) error {
	members, err := marshalJSONB(team.Members)
	if err != nil {
		return err
	}
	invites, err := marshalJSONB(team.Invites)
	if err != nil {
		return err
	}
	formResponses, err := marshalJSONB(team.FormResponses)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO team_registrations (event_id, leader_id, team_name, team_size,
			invite_code, members, invites, form_responses, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at`

	err = r.db.QueryRowContext(ctx, query,
		team.EventID,
		team.LeaderID,
		team.TeamName,
		team.TeamSize,
		team.InviteCode,
		members,
		invites,
		formResponses,
		team.Status,
	).Scan(&team.ID, &team.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505": // unique_violation
				if pqErr.Constraint == "team_registrations_event_id_invite_code_key" {
					return ErrTeamInviteCodeConflict
				}
				return ErrTeamLeaderConflict
			case "23503": // foreign_key_violation
				if pqErr.Constraint == "team_registrations_event_id_fkey" {
					return ErrTeamEventInvalid
				}
			}
		}
		return fmt.Errorf("failed to create team registration: %w", err)
	}
	return nil
}

func (r *postgresTeamRepository) findOne(ctx context.Context, query string, args ...interface{}) (*models.TeamRegistration, error) {
	t := &models.TeamRegistration{}
	row := r.db.QueryRowContext(ctx, query, args...)
	if err := r.scanTeam(row, t); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to find team registration: %w", err)
	}
	return t, nil
}

func (r *postgresTeamRepository) GetByID(ctx context.Context, id int) (*models.TeamRegistration, error) {
	query := fmt.Sprintf(`SELECT %s FROM team_registrations t WHERE t.id = $1`, teamColumns)
	return r.findOne(ctx, query, id)
}

func (r *postgresTeamRepository) GetPendingByEventAndCode(ctx context.Context, eventID int, code string) (*models.TeamRegistration, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM team_registrations t
		WHERE t.event_id = $1 AND t.invite_code = $2 AND t.status = $3`, teamColumns)
	return r.findOne(ctx, query, eventID, code, models.TeamPending)
}

// GetPendingByEventAndInvitee returns the pending team holding an open invite
// addressed to the email, for callers who respond without an invite code.
func (r *postgresTeamRepository) GetPendingByEventAndInvitee(ctx context.Context, eventID int, email string) (*models.TeamRegistration, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM team_registrations t
		WHERE t.event_id = $1 AND t.status = $2
		AND EXISTS (
			SELECT 1 FROM jsonb_array_elements(t.invites) i
			WHERE lower(i->>'email') = lower($3) AND i->>'status' = 'pending'
		)
		ORDER BY t.created_at DESC
		LIMIT 1`, teamColumns)
	return r.findOne(ctx, query, eventID, models.TeamPending, email)
}

// FindForUser returns the most recent team for the event in which the user is
// an accepted member or an addressee of an invite.
func (r *postgresTeamRepository) FindForUser(ctx context.Context, eventID, userID int, email string) (*models.TeamRegistration, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM team_registrations t
		WHERE t.event_id = $1 AND (
			EXISTS (
				SELECT 1 FROM jsonb_array_elements(t.members) m
				WHERE (m->>'user_id')::int = $2 AND m->>'status' = 'accepted'
			)
			OR EXISTS (
				SELECT 1 FROM jsonb_array_elements(t.invites) i
				WHERE lower(i->>'email') = lower($3)
			)
		)
		ORDER BY t.created_at DESC
		LIMIT 1`, teamColumns)
	return r.findOne(ctx, query, eventID, userID, email)
}

// AnyActiveMembershipByEventAndUsers reports whether any of the users is an
// accepted member of a still-forming team for the event. Completed teams do
// not count; their members are held off by their registrations instead.
func (r *postgresTeamRepository) AnyActiveMembershipByEventAndUsers(ctx context.Context, eventID int, userIDs []int) (bool, error) {
	if len(userIDs) == 0 {
		return false, nil
	}
	var exists bool
	query := `
		SELECT EXISTS(
			SELECT 1 FROM team_registrations t
			WHERE t.event_id = $1 AND t.status = $2
			AND EXISTS (
				SELECT 1 FROM jsonb_array_elements(t.members) m
				WHERE (m->>'user_id')::int = ANY($3) AND m->>'status' = 'accepted'
			)
		)`
	err := r.db.QueryRowContext(ctx, query, eventID, models.TeamPending, pq.Array(userIDs)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check team membership: %w", err)
	}
	return exists, nil
}

func (r *postgresTeamRepository) HasPendingTeamAsLeader(ctx context.Context, eventID, leaderID int) (bool, error) {
	var exists bool
	query := `
		SELECT EXISTS(
			SELECT 1 FROM team_registrations
			WHERE event_id = $1 AND leader_id = $2 AND status = $3
		)`
	err := r.db.QueryRowContext(ctx, query, eventID, leaderID, models.TeamPending).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check pending team for leader: %w", err)
	}
	return exists, nil
}

// UpdateMembersAndInvites persists invite responses. The write only lands on
// the exact version the caller read, so two responders working from the same
// snapshot cannot overwrite each other; the loser gets ErrTeamConflict and
// must reload. The status guard keeps completed teams immutable.
func (r *postgresTeamRepository) UpdateMembersAndInvites(ctx context.Context, team *models.TeamRegistration) error {
	members, err := marshalJSONB(team.Members)
	if err != nil {
		return err
	}
	invites, err := marshalJSONB(team.Invites)
	if err != nil {
		return err
	}

	query := `
		UPDATE team_registrations
		SET members = $1, invites = $2, version = version + 1
		WHERE id = $3 AND status = $4 AND version = $5`

	result, err := r.db.ExecContext(ctx, query, members, invites, team.ID, models.TeamPending, team.Version)
	if err != nil {
		return fmt.Errorf("failed to update team members: %w", err)
	}
	if err := checkAffectedRows(result, ErrTeamConflict); err != nil {
		return err
	}
	team.Version++
	return nil
}

// CompleteIfPending flips the team to completed only if it is still pending.
// Returns false when another caller won the transition.
func (r *postgresTeamRepository) CompleteIfPending(ctx context.Context, id int) (bool, error) {
	query := `
		UPDATE team_registrations
		SET status = $1, completed_at = NOW()
		WHERE id = $2 AND status = $3`

	result, err := r.db.ExecContext(ctx, query, models.TeamCompleted, id, models.TeamPending)
	if err != nil {
		return false, fmt.Errorf("failed to complete team registration: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check affected rows: %w", err)
	}
	return rowsAffected == 1, nil
}

func (r *postgresTeamRepository) ListByEvent(ctx context.Context, eventID int) ([]*models.TeamRegistration, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM team_registrations t
		WHERE t.event_id = $1
		ORDER BY t.created_at ASC`, teamColumns)

	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list team registrations: %w", err)
	}
	defer rows.Close()

	teams := make([]*models.TeamRegistration, 0)
	for rows.Next() {
		t := &models.TeamRegistration{}
		if err := r.scanTeam(rows, t); err != nil {
			return nil, fmt.Errorf("failed to scan team registration row: %w", err)
		}
		teams = append(teams, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating team registration rows: %w", err)
	}
	return teams, nil
}

func (r *postgresTeamRepository) CountByEventAndStatus(ctx context.Context, eventID int, status models.TeamStatus) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM team_registrations WHERE event_id = $1 AND status = $2`
	if err := r.db.QueryRowContext(ctx, query, eventID, status).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count team registrations: %w", err)
	}
	return count, nil
}
