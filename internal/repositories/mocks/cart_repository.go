package mocks

import (
	"context"

	"github.com/aaravmahajanofficial/footwear-storefront/internal/models"
	repository "github.com/aaravmahajanofficial/footwear-storefront/internal/repositories"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type CartRepository struct {
	mock.Mock
}

func (m *CartRepository) GetCartByUserID(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Cart), args.Error(1)
}

// WithCartLock hands the expectation's cart to fn, as the real repository does with the locked row.
// A nil cart with a nil error is returned as ErrNotFound when create is false; an error skips fn.
func (m *CartRepository) WithCartLock(ctx context.Context, userID uuid.UUID, create bool, fn repository.CartMutation) (*models.Cart, error) {
	args := m.Called(ctx, userID, create, fn)
	if err := args.Error(1); err != nil {
		return nil, err
	}

	var cart *models.Cart
	if args.Get(0) != nil {
		cart = args.Get(0).(*models.Cart)
	}

	if cart == nil {
		if !create {
			return nil, repository.ErrNotFound
		}

		cart = &models.Cart{ID: uuid.New(), UserID: userID, Items: []models.CartItem{}}
	}

	if err := fn(cart); err != nil {
		return nil, err
	}

	return cart, nil
}

func (m *CartRepository) DeleteCart(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}
