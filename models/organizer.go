package models

import "time"

// OrganizerStatus represents the lifecycle of an admin-provisioned organizer
// account. Only active organizers may log in or manage events.
type OrganizerStatus string

const (
	OrganizerActive   OrganizerStatus = "active"
	OrganizerDisabled OrganizerStatus = "disabled"
	OrganizerArchived OrganizerStatus = "archived"
)

type Organizer struct {
	ID                int             `json:"id" db:"id"`
	Name              string          `json:"name" db:"name"`
	Category          string          `json:"category" db:"category"`
	ContactEmail      string          `json:"contact_email" db:"contact_email"`
	ContactNumber     string          `json:"contact_number,omitempty" db:"contact_number"`
	Description       string          `json:"description,omitempty" db:"description"`
	DiscordWebhookURL string          `json:"discord_webhook_url,omitempty" db:"discord_webhook_url"`
	Status            OrganizerStatus `json:"status" db:"status"`
	AccountID         int             `json:"account_id" db:"account_id"`
	CreatedBy         int             `json:"created_by" db:"created_by"`
	CreatedAt         time.Time       `json:"created_at" db:"created_at"`

	Account *User `json:"account,omitempty" db:"-"`
}
