package models

import "time"

type MerchOrderStatus string

const (
	OrderPendingProof    MerchOrderStatus = "pending_proof"
	OrderPendingApproval MerchOrderStatus = "pending_approval"
	OrderApproved        MerchOrderStatus = "approved"
	OrderRejected        MerchOrderStatus = "rejected"
)

// MerchOrder is a purchase of one item from a merchandise event. Stock is
// decremented only on approval; rejected orders stop counting toward the
// buyer's per-item limit.
type MerchOrder struct {
	ID       int    `json:"id" db:"id"`
	EventID  int    `json:"event_id" db:"event_id"`
	UserID   int    `json:"user_id" db:"user_id"`
	ItemName    string  `json:"item_name" db:"item_name"`
	Variant     string  `json:"variant,omitempty" db:"variant"`
	Quantity    int     `json:"quantity" db:"quantity"`
	UnitPrice   float64 `json:"unit_price" db:"unit_price"`
	TotalAmount float64 `json:"total_amount" db:"total_amount"`

	Status        MerchOrderStatus `json:"status" db:"status"`
	PaymentProof  *string          `json:"payment_proof,omitempty" db:"payment_proof"`
	ReviewComment string           `json:"review_comment,omitempty" db:"review_comment"`
	ReviewedBy    *int             `json:"reviewed_by,omitempty" db:"reviewed_by"`
	ReviewedAt    *time.Time       `json:"reviewed_at,omitempty" db:"reviewed_at"`
	CreatedAt     time.Time        `json:"created_at" db:"created_at"`

	User  *User  `json:"user,omitempty" db:"-"`
	Event *Event `json:"event,omitempty" db:"-"`
}

// CountsTowardLimit reports whether the order consumes the buyer's per-item
// allowance. Everything but a rejected order does.
func (o *MerchOrder) CountsTowardLimit() bool {
	return o.Status != OrderRejected
}
