package models

import "time"

type TeamStatus string

const (
	TeamPending   TeamStatus = "pending"
	TeamCompleted TeamStatus = "completed"
)

type TeamMemberStatus string

const (
	MemberAccepted TeamMemberStatus = "accepted"
	MemberLeft     TeamMemberStatus = "left"
)

type TeamInviteStatus string

const (
	InvitePending  TeamInviteStatus = "pending"
	InviteAccepted TeamInviteStatus = "accepted"
	InviteRejected TeamInviteStatus = "rejected"
)

type TeamMember struct {
	UserID   int              `json:"user_id"`
	Status   TeamMemberStatus `json:"status"`
	JoinedAt time.Time        `json:"joined_at"`

	User *User `json:"user,omitempty"`
}

type TeamInvite struct {
	Email       string           `json:"email"`
	Status      TeamInviteStatus `json:"status"`
	RespondedAt *time.Time       `json:"responded_at,omitempty"`
}

// TeamRegistration is a hackathon team mid-formation. The leader is seeded as
// an accepted member at creation; the record transitions pending -> completed
// exactly once and is immutable afterwards.
type TeamRegistration struct {
	ID       int    `json:"id" db:"id"`
	EventID  int    `json:"event_id" db:"event_id"`
	LeaderID int    `json:"leader_id" db:"leader_id"`
	TeamName string `json:"team_name" db:"team_name"`
	TeamSize int    `json:"team_size" db:"team_size"`

	// InviteCode is a leader-controlled secret shared out-of-band; services
	// blank it before returning a team to anyone who is not the leader.
	InviteCode string `json:"invite_code,omitempty" db:"invite_code"`

	Members       []TeamMember   `json:"members" db:"members"`
	Invites       []TeamInvite   `json:"invites" db:"invites"`
	FormResponses []FormResponse `json:"form_responses,omitempty" db:"form_responses"`

	Status TeamStatus `json:"status" db:"status"`

	// Version counts members/invites writes. Updates carry the version they
	// read and fail when the row has moved on, so concurrent invite
	// responses never overwrite each other.
	Version int `json:"-" db:"version"`

	CompletedAt *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`

	Leader *User `json:"leader,omitempty" db:"-"`
}

// AcceptedCount returns the number of members with accepted status.
func (t *TeamRegistration) AcceptedCount() int {
	count := 0
	for i := range t.Members {
		if t.Members[i].Status == MemberAccepted {
			count++
		}
	}
	return count
}

// AcceptedMemberIDs returns the user ids of all accepted members, in join order.
func (t *TeamRegistration) AcceptedMemberIDs() []int {
	ids := make([]int, 0, len(t.Members))
	for i := range t.Members {
		if t.Members[i].Status == MemberAccepted {
			ids = append(ids, t.Members[i].UserID)
		}
	}
	return ids
}

// AllInvitesSettled reports whether no invite is still pending.
func (t *TeamRegistration) AllInvitesSettled() bool {
	for i := range t.Invites {
		if t.Invites[i].Status == InvitePending {
			return false
		}
	}
	return true
}

// MemberIndex returns the position of userID in Members, or -1.
func (t *TeamRegistration) MemberIndex(userID int) int {
	for i := range t.Members {
		if t.Members[i].UserID == userID {
			return i
		}
	}
	return -1
}

// InviteIndex returns the position of the invite addressed to email, or -1.
// Emails are stored lowercased.
func (t *TeamRegistration) InviteIndex(email string) int {
	for i := range t.Invites {
		if t.Invites[i].Email == email {
			return i
		}
	}
	return -1
}
