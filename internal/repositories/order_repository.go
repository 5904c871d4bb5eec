package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/aaravmahajanofficial/footwear-storefront/internal/models"
	"github.com/aaravmahajanofficial/footwear-storefront/internal/utils"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// OrderRepository has no update path: orders are immutable once written.
type OrderRepository interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListOrdersByUser(ctx context.Context, userID uuid.UUID, page, size int) ([]*models.Order, int, error)
}

type orderRepository struct {
	DB *sql.DB
}

func NewOrderRepo(db *sql.DB) OrderRepository {
	return &orderRepository{DB: db}
}

// CreateOrder writes the order and its line items in a single transaction.
func (r *orderRepository) CreateOrder(ctx context.Context, order *models.Order) error {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	tx, err := r.DB.BeginTx(dbCtx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin order transaction: %w", err)
	}

	defer func() { _ = tx.Rollback() }()

	query := `
		INSERT INTO orders (id, user_id, total_amount, payment_method, shipping_address, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING created_at
	`

	err = tx.QueryRowContext(dbCtx, query, order.ID, order.UserID, order.TotalAmount, order.PaymentMethod, order.ShippingAddress).Scan(&order.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	itemQuery := `
		INSERT INTO order_items (order_id, position, product_id, product_name, quantity, unit_price)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	for i, item := range order.LineItems {
		_, err := tx.ExecContext(dbCtx, itemQuery, order.ID, i, item.ProductID, item.ProductName, item.Quantity, item.UnitPrice)
		if err != nil {
			return fmt.Errorf("failed to insert an order item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit order: %w", err)
	}

	return nil
}

func (r *orderRepository) GetOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	order := &models.Order{}

	query := `
		SELECT id, user_id, total_amount, payment_method, shipping_address, created_at
		FROM orders
		WHERE id = $1
	`

	err := r.DB.QueryRowContext(dbCtx, query, id).Scan(&order.ID, &order.UserID, &order.TotalAmount, &order.PaymentMethod, &order.ShippingAddress, &order.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("failed to get the order: %w", err)
	}

	if err := r.attachLineItems(dbCtx, []*models.Order{order}); err != nil {
		return nil, err
	}

	return order, nil
}

// ListOrdersByUser returns one page of the user's orders, newest first, and the user's total order count.
func (r *orderRepository) ListOrdersByUser(ctx context.Context, userID uuid.UUID, page, size int) ([]*models.Order, int, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	var total int

	err := r.DB.QueryRowContext(dbCtx, `SELECT COUNT(*) FROM orders WHERE user_id = $1`, userID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	offset := models.PageRequest{Page: page, PageSize: size}.Offset()

	query := `
		SELECT id, user_id, total_amount, payment_method, shipping_address, created_at
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.DB.QueryContext(dbCtx, query, userID, size, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}

	defer rows.Close()

	orders := make([]*models.Order, 0, size)

	for rows.Next() {
		order := &models.Order{}

		if err := rows.Scan(&order.ID, &order.UserID, &order.TotalAmount, &order.PaymentMethod, &order.ShippingAddress, &order.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan the orders: %w", err)
		}

		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	if err := r.attachLineItems(dbCtx, orders); err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

// attachLineItems fetches the line items of all given orders in one query.
func (r *orderRepository) attachLineItems(ctx context.Context, orders []*models.Order) error {
	if len(orders) == 0 {
		return nil
	}

	byID := make(map[uuid.UUID]*models.Order, len(orders))
	ids := make([]string, 0, len(orders))

	for _, order := range orders {
		order.LineItems = []models.OrderLineItem{}
		byID[order.ID] = order
		ids = append(ids, order.ID.String())
	}

	query := `
		SELECT order_id, product_id, product_name, quantity, unit_price
		FROM order_items
		WHERE order_id = ANY($1::uuid[])
		ORDER BY order_id, position
	`

	rows, err := r.DB.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to get the order items: %w", err)
	}

	defer rows.Close()

	for rows.Next() {
		var orderID uuid.UUID
		var item models.OrderLineItem

		if err := rows.Scan(&orderID, &item.ProductID, &item.ProductName, &item.Quantity, &item.UnitPrice); err != nil {
			return fmt.Errorf("failed to scan order item: %w", err)
		}

		if order, ok := byID[orderID]; ok {
			order.LineItems = append(order.LineItems, item)
		}
	}

	return rows.Err()
}
