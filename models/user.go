package models

import "time"

type UserRole string

const (
	RoleAdmin       UserRole = "admin"
	RoleOrganizer   UserRole = "organizer"
	RoleParticipant UserRole = "participant"
)

// ParticipantType mirrors the eligibility split used by events.
type ParticipantType string

const (
	ParticipantIIIT    ParticipantType = "IIIT"
	ParticipantNonIIIT ParticipantType = "Non-IIIT"
)

type User struct {
	ID           int      `json:"id" db:"id"`
	FirstName    string   `json:"first_name" db:"first_name"`
	LastName     string   `json:"last_name" db:"last_name"`
	Email        string   `json:"email" db:"email"`
	PasswordHash string   `json:"-" db:"password_hash"`
	Role         UserRole `json:"role" db:"role"`

	// Participant profile fields, NULL for admin/organizer accounts.
	ParticipantType *ParticipantType `json:"participant_type,omitempty" db:"participant_type"`
	CollegeOrOrg    *string          `json:"college_or_org,omitempty" db:"college_or_org"`
	ContactNumber   *string          `json:"contact_number,omitempty" db:"contact_number"`
	Interests       []string         `json:"interests,omitempty" db:"interests"`
	Following       []int            `json:"following,omitempty" db:"following"`

	// Link to the organizer profile for organizer accounts.
	OrganizerProfileID *int `json:"organizer_profile_id,omitempty" db:"organizer_profile_id"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// DisplayName prefers "First Last", falling back to the email local part.
func (u *User) DisplayName() string {
	name := u.FirstName
	if u.LastName != "" {
		if name != "" {
			name += " "
		}
		name += u.LastName
	}
	if name == "" {
		return u.Email
	}
	return name
}
