package models

import (
	"strings"
	"time"
)

type EventType string

const (
	EventTypeNormal      EventType = "normal"
	EventTypeMerchandise EventType = "merchandise"
)

type EventStatus string

const (
	EventDraft     EventStatus = "draft"
	EventPublished EventStatus = "published"
	EventCancelled EventStatus = "cancelled"
	EventCompleted EventStatus = "completed"
)

type Eligibility string

const (
	EligibilityAll         Eligibility = "all"
	EligibilityIIITOnly    Eligibility = "iiit_only"
	EligibilityNonIIITOnly Eligibility = "non_iiit_only"
)

type FieldType string

const (
	FieldText     FieldType = "text"
	FieldNumber   FieldType = "number"
	FieldFile     FieldType = "file"
	FieldDropdown FieldType = "dropdown"
	FieldCheckbox FieldType = "checkbox"
)

// FormField is one entry of an event's custom registration form schema.
type FormField struct {
	Label     string    `json:"label"`
	FieldType FieldType `json:"field_type"`
	Required  bool      `json:"required"`
	Options   []string  `json:"options,omitempty"` // dropdown choices
}

// MerchItem is one purchasable item of a merchandise event, embedded in the
// event record. Stock is decremented only on order approval.
type MerchItem struct {
	Name         string   `json:"name"`
	Price        float64  `json:"price"`
	Stock        int      `json:"stock"`
	Variants     []string `json:"variants,omitempty"` // e.g. ["S", "M", "L", "XL"]
	LimitPerUser int      `json:"limit_per_user"`
}

type Event struct {
	ID          int       `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	EventType   EventType `json:"event_type" db:"event_type"`
	OrganizerID int       `json:"organizer_id" db:"organizer_id"`

	Status               EventStatus `json:"status" db:"status"`
	RegistrationDeadline time.Time   `json:"registration_deadline" db:"registration_deadline"`
	StartDate            *time.Time  `json:"start_date,omitempty" db:"start_date"`
	EndDate              *time.Time  `json:"end_date,omitempty" db:"end_date"`

	// RegistrationLimit of 0 means unlimited. RegistrationCount is the seat
	// ledger: seats are claimed and freed with conditional updates so the
	// count never exceeds the limit under concurrent registrations.
	RegistrationLimit int     `json:"registration_limit" db:"registration_limit"`
	RegistrationCount int     `json:"registration_count" db:"registration_count"`
	RegistrationOpen  bool    `json:"registration_open" db:"registration_open"`
	RegistrationFee   float64 `json:"registration_fee" db:"registration_fee"`

	Eligibility Eligibility `json:"eligibility" db:"eligibility"`
	Tags        []string    `json:"tags,omitempty" db:"tags"`
	Venue       string      `json:"venue,omitempty" db:"venue"`

	IsTeamEvent bool `json:"is_team_event" db:"is_team_event"`
	MinTeamSize int  `json:"min_team_size,omitempty" db:"min_team_size"`
	MaxTeamSize int  `json:"max_team_size,omitempty" db:"max_team_size"`

	FormSchema []FormField `json:"form_schema,omitempty" db:"form_schema"`
	MerchItems []MerchItem `json:"merch_items,omitempty" db:"merch_items"`

	PosterKey *string `json:"-" db:"poster_key"`
	PosterURL *string `json:"poster_url,omitempty" db:"-"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`

	Organizer *Organizer `json:"organizer,omitempty" db:"-"`
}

// HasSeatLimit reports whether the event enforces a registration limit.
func (e *Event) HasSeatLimit() bool {
	return e.RegistrationLimit > 0
}

// FindMerchItem performs a case-insensitive lookup by item name. Returns the
// index into MerchItems, or -1 when the item does not exist.
func (e *Event) FindMerchItem(name string) int {
	for i := range e.MerchItems {
		if strings.EqualFold(strings.TrimSpace(e.MerchItems[i].Name), strings.TrimSpace(name)) {
			return i
		}
	}
	return -1
}
