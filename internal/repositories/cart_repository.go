package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aaravmahajanofficial/footwear-storefront/internal/models"
	"github.com/aaravmahajanofficial/footwear-storefront/internal/utils"
	"github.com/google/uuid"
)

// CartMutation edits a cart in place while its row lock is held.
// Returning an error rolls the transaction back.
type CartMutation func(cart *models.Cart) error

type CartRepository interface {
	GetCartByUserID(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	// WithCartLock loads the owner's cart under SELECT ... FOR UPDATE, applies fn and
	// persists the result in the same transaction. With create set, a missing cart is
	// inserted first; otherwise a missing cart yields ErrNotFound.
	WithCartLock(ctx context.Context, userID uuid.UUID, create bool, fn CartMutation) (*models.Cart, error)
	DeleteCart(ctx context.Context, userID uuid.UUID) (int64, error)
}

type cartRepository struct {
	DB *sql.DB
}

func NewCartRepo(db *sql.DB) CartRepository {
	return &cartRepository{DB: db}
}

func (r *cartRepository) GetCartByUserID(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		SELECT id, user_id, items, created_at, updated_at
		FROM carts
		WHERE user_id = $1
	`

	return scanCart(r.DB.QueryRowContext(dbCtx, query, userID))
}

func (r *cartRepository) WithCartLock(ctx context.Context, userID uuid.UUID, create bool, fn CartMutation) (*models.Cart, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	tx, err := r.DB.BeginTx(dbCtx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin cart transaction: %w", err)
	}

	defer func() { _ = tx.Rollback() }()

	if create {
		// concurrent first adds race here; the unique user_id constraint keeps exactly one row
		insertQuery := `
			INSERT INTO carts (id, user_id, items, created_at, updated_at)
			VALUES ($1, $2, '[]'::jsonb, NOW(), NOW())
			ON CONFLICT (user_id) DO NOTHING
		`

		if _, err := tx.ExecContext(dbCtx, insertQuery, uuid.New(), userID); err != nil {
			return nil, fmt.Errorf("failed to create cart: %w", err)
		}
	}

	lockQuery := `
		SELECT id, user_id, items, created_at, updated_at
		FROM carts
		WHERE user_id = $1
		FOR UPDATE
	`

	cart, err := scanCart(tx.QueryRowContext(dbCtx, lockQuery, userID))
	if err != nil {
		return nil, err
	}

	if err := fn(cart); err != nil {
		return nil, err
	}

	itemsJSON, err := json.Marshal(cart.Items)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal cart items: %w", err)
	}

	updateQuery := `
		UPDATE carts
		SET items = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING updated_at
	`

	if err := tx.QueryRowContext(dbCtx, updateQuery, itemsJSON, cart.ID).Scan(&cart.UpdatedAt); err != nil {
		return nil, fmt.Errorf("failed to update the cart: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit cart transaction: %w", err)
	}

	return cart, nil
}

func (r *cartRepository) DeleteCart(ctx context.Context, userID uuid.UUID) (int64, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	result, err := r.DB.ExecContext(dbCtx, `DELETE FROM carts WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete the cart: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get deleted rows: %w", err)
	}

	return deleted, nil
}

func scanCart(row rowScanner) (*models.Cart, error) {
	cart := &models.Cart{}

	var itemsJSON []byte

	err := row.Scan(&cart.ID, &cart.UserID, &itemsJSON, &cart.CreatedAt, &cart.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("querying cart: %w", err)
	}

	if err := json.Unmarshal(itemsJSON, &cart.Items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cart items: %w", err)
	}

	if cart.Items == nil {
		cart.Items = []models.CartItem{}
	}

	return cart, nil
}
