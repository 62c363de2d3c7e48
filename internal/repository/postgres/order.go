package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"postcart/internal/domain"
)

// OrderRepository implements the domain.OrderRepository interface using PostgreSQL
type OrderRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewOrderRepository creates a new PostgreSQL order repository
func NewOrderRepository(db *sql.DB, logger *slog.Logger) *OrderRepository {
	return &OrderRepository{
		db:     db,
		logger: logger,
	}
}

const orderColumns = `
	id, seller_id, buyer_name, buyer_phone, buyer_note, items, total,
	status, created_at, updated_at`

func (r *OrderRepository) scanOrder(row scanner) (*domain.Order, error) {
	order := &domain.Order{}
	var buyerNote sql.NullString
	var updatedAt sql.NullTime
	var itemsBytes []byte

	err := row.Scan(
		&order.ID,
		&order.SellerID,
		&order.BuyerName,
		&order.BuyerPhone,
		&buyerNote,
		&itemsBytes,
		&order.Total,
		&order.Status,
		&order.CreatedAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if buyerNote.Valid {
		order.BuyerNote = &buyerNote.String
	}
	if updatedAt.Valid {
		order.UpdatedAt = &updatedAt.Time
	}

	order.Items = make([]domain.OrderItem, 0)
	if len(itemsBytes) > 0 {
		if err := json.Unmarshal(itemsBytes, &order.Items); err != nil {
			r.logger.Warn("Failed to unmarshal order items",
				"error", err,
				"order_id", order.ID,
			)
			order.Items = make([]domain.OrderItem, 0)
		}
	}

	return order, nil
}

// GetByID retrieves an order by its UUID
func (r *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	query := `SELECT` + orderColumns + ` FROM orders WHERE id = $1`

	order, err := r.scanOrder(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			r.logger.Debug("Order not found", "order_id", id)
			return nil, sql.ErrNoRows
		}
		r.logger.Error("Failed to query order", "error", err, "order_id", id)
		return nil, fmt.Errorf("failed to query order: %w", err)
	}

	return order, nil
}

// Create inserts a new order
func (r *OrderRepository) Create(ctx context.Context, order *domain.Order) error {
	query := `
		INSERT INTO orders (
			id, seller_id, buyer_name, buyer_phone, buyer_note,
			items, total, status, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
		)`

	var buyerNote interface{}
	if order.BuyerNote != nil {
		buyerNote = *order.BuyerNote
	}

	items := order.Items
	if items == nil {
		items = make([]domain.OrderItem, 0)
	}
	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to marshal order items: %w", err)
	}

	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now()
	}
	updatedAt := order.CreatedAt
	if order.UpdatedAt != nil {
		updatedAt = *order.UpdatedAt
	}

	_, err = r.db.ExecContext(ctx, query,
		order.ID,
		order.SellerID,
		order.BuyerName,
		order.BuyerPhone,
		buyerNote,
		itemsJSON,
		order.Total,
		order.Status,
		order.CreatedAt,
		updatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create order",
			"error", err,
			"order_id", order.ID,
			"seller_id", order.SellerID,
		)
		return fmt.Errorf("failed to create order: %w", err)
	}

	r.logger.Info("Order created",
		"order_id", order.ID,
		"seller_id", order.SellerID,
		"total", order.Total,
		"items", len(order.Items),
	)

	return nil
}

// GetRecentBySeller gets the most recent orders for a seller with cursor pagination
func (r *OrderRepository) GetRecentBySeller(ctx context.Context, sellerID string, cursor *time.Time, limit int) ([]*domain.Order, error) {
	query := `SELECT` + orderColumns + `
		FROM orders
		WHERE seller_id = $1 AND ($2::timestamptz IS NULL OR created_at < $2)
		ORDER BY created_at DESC
		LIMIT $3`

	rows, err := r.db.QueryContext(ctx, query, sellerID, cursor, limit)
	if err != nil {
		r.logger.Error("Failed to query orders", "error", err, "seller_id", sellerID)
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := make([]*domain.Order, 0)
	for rows.Next() {
		order, err := r.scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order row: %w", err)
		}
		orders = append(orders, order)
	}

	return orders, rows.Err()
}

// UpdateStatus transitions an order between fulfillment states
func (r *OrderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	query := `
		UPDATE orders
		SET status = $1, updated_at = NOW()
		WHERE id = $2`

	result, err := r.db.ExecContext(ctx, query, status, id)
	if err != nil {
		r.logger.Error("Failed to update order status",
			"error", err,
			"order_id", id,
			"status", status,
		)
		return fmt.Errorf("failed to update order status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("order not found: %s", id)
	}

	r.logger.Info("Order status updated", "order_id", id, "status", status)
	return nil
}
