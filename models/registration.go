package models

import "time"

type RegistrationStatus string

const (
	RegistrationRegistered RegistrationStatus = "registered"
	RegistrationWaitlisted RegistrationStatus = "waitlisted"
	RegistrationCancelled  RegistrationStatus = "cancelled"
	RegistrationAttended   RegistrationStatus = "attended"
)

// FormResponse is one answer to a form-schema field. Answer is free-typed:
// string for text fields, []any for checkbox groups, number for numeric ones.
type FormResponse struct {
	Question string `json:"question"`
	Answer   any    `json:"answer"`
}

// Registration is a confirmed seat at an event. The (EventID, UserID) pair is
// unique, no matter which path created the record: individual registration,
// team completion or merchandise order approval.
type Registration struct {
	ID      int                `json:"id" db:"id"`
	EventID int                `json:"event_id" db:"event_id"`
	UserID  int                `json:"user_id" db:"user_id"`
	Status  RegistrationStatus `json:"status" db:"status"`

	TeamName      string         `json:"team_name,omitempty" db:"team_name"`
	TeamMembers   []int          `json:"team_members,omitempty" db:"team_members"` // co-member ids, excluding self
	FormResponses []FormResponse `json:"form_responses,omitempty" db:"form_responses"`

	TicketID  string `json:"ticket_id" db:"ticket_id"`
	QRCodeURL string `json:"qr_code_url" db:"qr_code_url"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`

	User  *User  `json:"user,omitempty" db:"-"`
	Event *Event `json:"event,omitempty" db:"-"`
}
