package models

// AdminDashboard aggregates platform-wide counts for the admin landing page.
type AdminDashboard struct {
	TotalOrganizers    int `json:"total_organizers"`
	ActiveOrganizers   int `json:"active_organizers"`
	TotalParticipants  int `json:"total_participants"`
	TotalEvents        int `json:"total_events"`
	PublishedEvents    int `json:"published_events"`
	TotalRegistrations int `json:"total_registrations"`
	PendingResets      int `json:"pending_resets"`
}

// EventAnalytics is an organizer-facing summary of a single event.
type EventAnalytics struct {
	EventID            int     `json:"event_id"`
	RegistrationCount  int     `json:"registration_count"`
	AttendedCount      int     `json:"attended_count"`
	CancelledCount     int     `json:"cancelled_count"`
	SeatLimit          int     `json:"seat_limit"`
	FillRate           float64 `json:"fill_rate"`
	TeamsCompleted     int     `json:"teams_completed,omitempty"`
	TeamsPending       int     `json:"teams_pending,omitempty"`
	OrdersApproved     int     `json:"orders_approved,omitempty"`
	OrdersPendingProof int     `json:"orders_pending_proof,omitempty"`
	Revenue            float64 `json:"revenue,omitempty"`
}
