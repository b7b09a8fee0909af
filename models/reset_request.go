package models

import "time"

type ResetRequestStatus string

const (
	ResetPending  ResetRequestStatus = "pending"
	ResetApproved ResetRequestStatus = "approved"
	ResetRejected ResetRequestStatus = "rejected"
)

// PasswordResetRequest is an organizer's admin-mediated password reset.
type PasswordResetRequest struct {
	ID          int                `json:"id" db:"id"`
	OrganizerID int                `json:"organizer_id" db:"organizer_id"`
	Reason      string             `json:"reason,omitempty" db:"reason"`
	Status      ResetRequestStatus `json:"status" db:"status"`
	ResolvedBy  *int               `json:"resolved_by,omitempty" db:"resolved_by"`
	ResolvedAt  *time.Time         `json:"resolved_at,omitempty" db:"resolved_at"`
	CreatedAt   time.Time          `json:"created_at" db:"created_at"`

	Organizer *Organizer `json:"organizer,omitempty" db:"-"`
}
