package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/SanjithGanapathi/Felicity-Hackathon-DASS/models"
	"github.com/lib/pq"
)

var ErrMerchOrderNotFound = errors.New("merch order not found")

type MerchOrderRepository interface {
	Create(ctx context.Context, order *models.MerchOrder) error
	GetByID(ctx context.Context, id int) (*models.MerchOrder, error)
	SumActiveQuantity(ctx context.Context, eventID, userID int, itemName, variant string) (int, error)
	UpdateProof(ctx context.Context, id int, proofKey string) error
	Review(ctx context.Context, order *models.MerchOrder) error
	ListByUser(ctx context.Context, userID int) ([]*models.MerchOrder, error)
	ListByEvent(ctx context.Context, eventID int, status *models.MerchOrderStatus) ([]*models.MerchOrder, error)
	CountByEventAndStatus(ctx context.Context, eventID int, status models.MerchOrderStatus) (int, error)
	ApprovedRevenueByEvent(ctx context.Context, eventID int) (float64, error)
}

type postgresMerchOrderRepository struct {
	db *sql.DB
}

func NewPostgresMerchOrderRepository(db *sql.DB) MerchOrderRepository {
	return &postgresMerchOrderRepository{db: db}
}

const merchOrderColumns = `o.id, o.event_id, o.user_id, o.item_name, o.variant,
	o.quantity, o.unit_price, o.total_amount, o.status, o.payment_proof,
	o.review_comment, o.reviewed_by, o.reviewed_at, o.created_at`

func (r *postgresMerchOrderRepository) scanOrder(rowScanner interface {
	Scan(dest ...interface{}) error
}, o *models.MerchOrder) error {
	return rowScanner.Scan(
		&o.ID,
		&o.EventID,
		&o.UserID,
		&o.ItemName,
		&o.Variant,
		&o.Quantity,
		&o.UnitPrice,
		&o.TotalAmount,
		&o.Status,
		&o.PaymentProof,
		&o.ReviewComment,
		&o.ReviewedBy,
		&o.ReviewedAt,
		&o.CreatedAt,
	)
}

func (r *postgresMerchOrderRepository) Create(ctx context.Context, order *models.MerchOrder) error {
	query := `
		INSERT INTO merch_orders (event_id, user_id, item_name, variant, quantity,
			unit_price, total_amount, status, payment_proof)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		order.EventID,
		order.UserID,
		order.ItemName,
		order.Variant,
		order.Quantity,
		order.UnitPrice,
		order.TotalAmount,
		order.Status,
		order.PaymentProof,
	).Scan(&order.ID, &order.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			return ErrMerchOrderNotFound
		}
		return fmt.Errorf("failed to create merch order: %w", err)
	}
	return nil
}

func (r *postgresMerchOrderRepository) GetByID(ctx context.Context, id int) (*models.MerchOrder, error) {
	query := fmt.Sprintf(`SELECT %s FROM merch_orders o WHERE o.id = $1`, merchOrderColumns)
	o := &models.MerchOrder{}
	row := r.db.QueryRowContext(ctx, query, id)
	if err := r.scanOrder(row, o); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMerchOrderNotFound
		}
		return nil, fmt.Errorf("failed to find merch order: %w", err)
	}
	return o, nil
}

// SumActiveQuantity totals the buyer's non-rejected quantity for one item
// variant, the number counted against the item's per-user limit. The limit is
// tracked per variant, so a buyer maxed out on one size can still order
// another.
func (r *postgresMerchOrderRepository) SumActiveQuantity(ctx context.Context, eventID, userID int, itemName, variant string) (int, error) {
	var total int
	query := `
		SELECT COALESCE(SUM(quantity), 0) FROM merch_orders
		WHERE event_id = $1 AND user_id = $2 AND item_name = $3 AND variant = $4 AND status != $5`
	err := r.db.QueryRowContext(ctx, query, eventID, userID, itemName, variant, models.OrderRejected).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum order quantity: %w", err)
	}
	return total, nil
}

// UpdateProof attaches a payment proof and restarts the review cycle. Any
// prior verdict is wiped; only an approved order is immutable.
func (r *postgresMerchOrderRepository) UpdateProof(ctx context.Context, id int, proofKey string) error {
	query := `
		UPDATE merch_orders
		SET payment_proof = $1, status = $2,
			review_comment = '', reviewed_by = NULL, reviewed_at = NULL
		WHERE id = $3 AND status != $4`
	result, err := r.db.ExecContext(ctx, query, proofKey, models.OrderPendingApproval, id, models.OrderApproved)
	if err != nil {
		return fmt.Errorf("failed to attach payment proof: %w", err)
	}
	return checkAffectedRows(result, ErrMerchOrderNotFound)
}

// Review records the organizer's verdict. The status guard rejects a second
// review of the same order.
func (r *postgresMerchOrderRepository) Review(ctx context.Context, order *models.MerchOrder) error {
	query := `
		UPDATE merch_orders
		SET status = $1, review_comment = $2, reviewed_by = $3, reviewed_at = NOW()
		WHERE id = $4 AND status = $5`
	result, err := r.db.ExecContext(ctx, query,
		order.Status,
		order.ReviewComment,
		order.ReviewedBy,
		order.ID,
		models.OrderPendingApproval,
	)
	if err != nil {
		return fmt.Errorf("failed to review merch order: %w", err)
	}
	return checkAffectedRows(result, ErrMerchOrderNotFound)
}

func (r *postgresMerchOrderRepository) ListByUser(ctx context.Context, userID int) ([]*models.MerchOrder, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM merch_orders o
		WHERE o.user_id = $1
		ORDER BY o.created_at DESC`, merchOrderColumns)
	return r.queryOrders(ctx, query, userID)
}

func (r *postgresMerchOrderRepository) ListByEvent(ctx context.Context, eventID int, status *models.MerchOrderStatus) ([]*models.MerchOrder, error) {
	query := fmt.Sprintf(`SELECT %s FROM merch_orders o WHERE o.event_id = $1`, merchOrderColumns)
	args := []interface{}{eventID}
	if status != nil {
		query += ` AND o.status = $2`
		args = append(args, *status)
	}
	query += ` ORDER BY o.created_at ASC`
	return r.queryOrders(ctx, query, args...)
}

func (r *postgresMerchOrderRepository) queryOrders(ctx context.Context, query string, args ...interface{}) ([]*models.MerchOrder, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list merch orders: %w", err)
	}
	defer rows.Close()

	orders := make([]*models.MerchOrder, 0)
	for rows.Next() {
		o := &models.MerchOrder{}
		if err := r.scanOrder(rows, o); err != nil {
			return nil, fmt.Errorf("failed to scan merch order row: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating merch order rows: %w", err)
	}
	return orders, nil
}

func (r *postgresMerchOrderRepository) CountByEventAndStatus(ctx context.Context, eventID int, status models.MerchOrderStatus) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM merch_orders WHERE event_id = $1 AND status = $2`
	if err := r.db.QueryRowContext(ctx, query, eventID, status).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count merch orders: %w", err)
	}
	return count, nil
}

func (r *postgresMerchOrderRepository) ApprovedRevenueByEvent(ctx context.Context, eventID int) (float64, error) {
	var revenue float64
	query := `
		SELECT COALESCE(SUM(total_amount), 0) FROM merch_orders
		WHERE event_id = $1 AND status = $2`
	err := r.db.QueryRowContext(ctx, query, eventID, models.OrderApproved).Scan(&revenue)
	if err != nil {
		return 0, fmt.Errorf("failed to sum approved revenue: %w", err)
	}
	return revenue, nil
}
