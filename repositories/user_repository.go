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
	ErrUserNotFound      = errors.New("user not found")
	ErrUserEmailConflict = errors.New("user email already registered")
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	ListParticipantsByEmails(ctx context.Context, emails []string) ([]*models.User, error)
	UpdateProfile(ctx context.Context, user *models.User) error
	UpdatePasswordHash(ctx context.Context, id int, passwordHash string) error
	SetOrganizerProfileID(ctx context.Context, userID int, organizerID *int) error
	UpdateFollowing(ctx context.Context, userID int, following []int) error
	CountByRole(ctx context.Context, role models.UserRole) (int, error)
	Delete(ctx context.Context, id int) error
}

type postgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUserRepository(db *sql.DB) UserRepository {
	return &postgresUserRepository{db: db}
}

const userColumns = `id, first_name, last_name, email, password_hash, role,
	participant_type, college_or_org, contact_number, interests, following,
	organizer_profile_id, created_at`

func (r *postgresUserRepository) scanUser(rowScanner interface {
	Scan(dest ...interface{}) error
}, u *models.User) error {
	var interests, following []byte
	err := rowScanner.Scan(
		&u.ID,
		&u.FirstName,
		&u.LastName,
		&u.Email,
		&u.PasswordHash,
		&u.Role,
		&u.ParticipantType,
		&u.CollegeOrOrg,
		&u.ContactNumber,
		&interests,
		&following,
		&u.OrganizerProfileID,
		&u.CreatedAt,
	)
	if err != nil {
		return err
	}
	if err := unmarshalJSONB(interests, &u.Interests); err != nil {
		return err
	}
	return unmarshalJSONB(following, &u.Following)
}

func (r *postgresUserRepository) Create(ctx context.Context, user *models.User) error {
	interests, err := marshalJSONB(user.Interests)
	if err != nil {
		return err
	}
	following, err := marshalJSONB(user.Following)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO users (first_name, last_name, email, password_hash, role,
			participant_type, college_or_org, contact_number, interests, following)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at`

	err = r.db.QueryRowContext(ctx, query,
		user.FirstName,
		user.LastName,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.ParticipantType,
		user.CollegeOrOrg,
		user.ContactNumber,
		interests,
		following,
	).Scan(&user.ID, &user.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return ErrUserEmailConflict
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *postgresUserRepository) findOne(ctx context.Context, query string, args ...interface{}) (*models.User, error) {
	u := &models.User{}
	row := r.db.QueryRowContext(ctx, query, args...)
	if err := r.scanUser(row, u); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return u, nil
}

func (r *postgresUserRepository) GetByID(ctx context.Context, id int) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1`, userColumns)
	return r.findOne(ctx, query, id)
}

func (r *postgresUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE lower(email) = lower($1)`, userColumns)
	return r.findOne(ctx, query, email)
}

func (r *postgresUserRepository) ListParticipantsByEmails(ctx context.Context, emails []string) ([]*models.User, error) {
	if len(emails) == 0 {
		return []*models.User{}, nil
	}
	query := fmt.Sprintf(`SELECT %s FROM users WHERE role = $1 AND lower(email) = ANY($2)`, userColumns)

	rows, err := r.db.QueryContext(ctx, query, models.RoleParticipant, pq.Array(emails))
	if err != nil {
		return nil, fmt.Errorf("failed to list participants by emails: %w", err)
	}
	defer rows.Close()

	users := make([]*models.User, 0, len(emails))
	for rows.Next() {
		u := &models.User{}
		if err := r.scanUser(rows, u); err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}
	return users, nil
}

func (r *postgresUserRepository) UpdateProfile(ctx context.Context, user *models.User) error {
	interests, err := marshalJSONB(user.Interests)
	if err != nil {
		return err
	}

	query := `
		UPDATE users
		SET first_name = $1, last_name = $2, participant_type = $3,
			college_or_org = $4, contact_number = $5, interests = $6
		WHERE id = $7`

	result, err := r.db.ExecContext(ctx, query,
		user.FirstName,
		user.LastName,
		user.ParticipantType,
		user.CollegeOrOrg,
		user.ContactNumber,
		interests,
		user.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update user profile: %w", err)
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

func (r *postgresUserRepository) UpdatePasswordHash(ctx context.Context, id int, passwordHash string) error {
	query := `UPDATE users SET password_hash = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, passwordHash, id)
	if err != nil {
		return fmt.Errorf("failed to update user password: %w", err)
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

func (r *postgresUserRepository) SetOrganizerProfileID(ctx context.Context, userID int, organizerID *int) error {
	query := `UPDATE users SET organizer_profile_id = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, organizerID, userID)
	if err != nil {
		return fmt.Errorf("failed to set organizer profile id: %w", err)
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

func (r *postgresUserRepository) UpdateFollowing(ctx context.Context, userID int, following []int) error {
	data, err := marshalJSONB(following)
	if err != nil {
		return err
	}
	query := `UPDATE users SET following = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, data, userID)
	if err != nil {
		return fmt.Errorf("failed to update following list: %w", err)
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

func (r *postgresUserRepository) CountByRole(ctx context.Context, role models.UserRole) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM users WHERE role = $1`
	if err := r.db.QueryRowContext(ctx, query, role).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count users by role: %w", err)
	}
	return count, nil
}

func (r *postgresUserRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM users WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return checkAffectedRows(result, ErrUserNotFound)
}
