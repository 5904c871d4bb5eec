package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	appErrors "github.com/aaravmahajanofficial/footwear-storefront/internal/errors"
	"github.com/aaravmahajanofficial/footwear-storefront/internal/models"
	repoMocks "github.com/aaravmahajanofficial/footwear-storefront/internal/repositories/mocks"
	service "github.com/aaravmahajanofficial/footwear-storefront/internal/services"
	svcMocks "github.com/aaravmahajanofficial/footwear-storefront/internal/services/mocks"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

type panickingHook struct{}

func (panickingHook) Name() string { return "panicking" }

func (panickingHook) AfterOrderPlaced(context.Context, *models.Order) error {
	panic("boom")
}

// gatedHook blocks until released or its context ends.
type gatedHook struct {
	name    string
	release chan struct{}
	done    chan error
}

func newGatedHook(name string) *gatedHook {
	return &gatedHook{name: name, release: make(chan struct{}), done: make(chan error, 1)}
}

func (h *gatedHook) Name() string { return h.name }

func (h *gatedHook) AfterOrderPlaced(ctx context.Context, _ *models.Order) error {
	var err error

	select {
	case <-h.release:
	case <-ctx.Done():
		err = ctx.Err()
	}

	h.done <- err

	return err
}

type publishedEvent struct {
	key, eventType string
	payload        []byte
}

type fakePublisher struct {
	published []publishedEvent
	err       error
}

func (p *fakePublisher) Publish(_ context.Context, key, eventType string, payload any) error {
	if p.err != nil {
		return p.err
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	p.published = append(p.published, publishedEvent{key: key, eventType: eventType, payload: data})

	return nil
}

func (p *fakePublisher) Close() error {
	return nil
}

func newTestOrder() *models.Order {
	return &models.Order{
		ID:     uuid.New(),
		UserID: uuid.New(),
		LineItems: []models.OrderLineItem{
			{ProductID: uuid.New(), ProductName: "Runner", Quantity: 2, UnitPrice: decimal.RequireFromString("10")},
			{ProductID: uuid.New(), ProductName: "Sandal", Quantity: 1, UnitPrice: decimal.RequireFromString("5")},
		},
		TotalAmount:     decimal.RequireFromString("25"),
		PaymentMethod:   "card",
		ShippingAddress: "1 Main St",
		CreatedAt:       time.Now().UTC(),
	}
}

func TestHookRunner_Run(t *testing.T) {
	t.Run("Runs in order on a context detached from cancellation", func(t *testing.T) {
		// Arrange
		first, second := &recordingHook{name: "first"}, &recordingHook{name: "second"}
		runner := service.NewHookRunner(time.Second, first, second)

		ctx, cancel := context.WithCancel(t.Context())
		cancel()

		// Act
		err := runner.Run(ctx, newTestOrder())

		// Assert
		require.NoError(t, err)
		assert.Len(t, first.calls, 1)
		assert.Len(t, second.calls, 1)
		assert.NoError(t, first.ctxErr)
		assert.NoError(t, second.ctxErr)
	})

	t.Run("Failures and panics are isolated and aggregated", func(t *testing.T) {
		// Arrange
		failing := &recordingHook{name: "failing", err: errors.New("smtp down")}
		last := &recordingHook{name: "last"}
		runner := service.NewHookRunner(time.Second, failing, panickingHook{}, last)

		// Act
		err := runner.Run(t.Context(), newTestOrder())

		// Assert
		require.Error(t, err)
		errs := multierr.Errors(err)
		require.Len(t, errs, 2)
		assert.Contains(t, errs[0].Error(), "failing: smtp down")
		assert.Contains(t, errs[1].Error(), "panicking: hook panicked: boom")
		assert.Len(t, last.calls, 1)
	})

	t.Run("Nil runner is a no-op", func(t *testing.T) {
		var runner *service.HookRunner

		assert.NoError(t, runner.Run(t.Context(), newTestOrder()))
		assert.NoError(t, runner.Wait(t.Context()))
	})

	t.Run("Stuck inline hook is cut off at its timeout", func(t *testing.T) {
		// Arrange
		stuck := newGatedHook("stuck")
		after := &recordingHook{name: "after"}
		runner := service.NewHookRunner(50*time.Millisecond, stuck, after)

		// Act
		start := time.Now()
		err := runner.Run(t.Context(), newTestOrder())
		elapsed := time.Since(start)

		// Assert
		require.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Less(t, elapsed, time.Second)
		assert.Len(t, after.calls, 1)
	})

	t.Run("Background hooks run after Run returns", func(t *testing.T) {
		// Arrange
		inline := &recordingHook{name: "inline"}
		slow := newGatedHook("slow")
		runner := service.NewHookRunner(time.Minute, inline).WithBackground(slow)

		// Act
		err := runner.Run(t.Context(), newTestOrder())

		// Assert
		require.NoError(t, err)
		assert.Len(t, inline.calls, 1)

		waitCtx, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
		defer cancel()
		assert.ErrorIs(t, runner.Wait(waitCtx), context.DeadlineExceeded)

		close(slow.release)
		require.NoError(t, runner.Wait(t.Context()))
		assert.NoError(t, <-slow.done)
	})

	t.Run("Background hook failures are not returned", func(t *testing.T) {
		runner := service.NewHookRunner(time.Second).WithBackground(panickingHook{}, &recordingHook{name: "failing", err: errors.New("smtp down")})

		err := runner.Run(t.Context(), newTestOrder())

		require.NoError(t, err)
		require.NoError(t, runner.Wait(t.Context()))
	})
}

func TestCartClearHook(t *testing.T) {
	t.Run("Clears the buyer's cart", func(t *testing.T) {
		order := newTestOrder()
		carts := new(svcMocks.CartService)
		carts.On("ClearCart", mock.Anything, order.UserID).Return(nil).Once()

		hook := service.NewCartClearHook(carts)

		assert.Equal(t, "cart_clear", hook.Name())
		require.NoError(t, hook.AfterOrderPlaced(t.Context(), order))
		carts.AssertExpectations(t)
	})

	t.Run("Buyer without a cart is not a failure", func(t *testing.T) {
		order := newTestOrder()
		carts := new(svcMocks.CartService)
		carts.On("ClearCart", mock.Anything, order.UserID).
			Return(appErrors.InternalError("cart clear affected no rows").WithError(service.ErrNothingToClear)).Once()

		err := service.NewCartClearHook(carts).AfterOrderPlaced(t.Context(), order)

		assert.NoError(t, err)
	})

	t.Run("Store errors are returned", func(t *testing.T) {
		order := newTestOrder()
		carts := new(svcMocks.CartService)
		carts.On("ClearCart", mock.Anything, order.UserID).Return(appErrors.DatabaseError("Failed to clear cart")).Once()

		err := service.NewCartClearHook(carts).AfterOrderPlaced(t.Context(), order)

		assert.Error(t, err)
	})
}

func TestOrderEventHook(t *testing.T) {
	t.Run("Publishes an order.placed event keyed by the buyer", func(t *testing.T) {
		// Arrange
		order := newTestOrder()
		publisher := &fakePublisher{}
		hook := service.NewOrderEventHook(publisher)

		// Act
		err := hook.AfterOrderPlaced(t.Context(), order)

		// Assert
		require.NoError(t, err)
		require.Len(t, publisher.published, 1)

		event := publisher.published[0]
		assert.Equal(t, order.UserID.String(), event.key)
		assert.Equal(t, models.EventTypeOrderPlaced, event.eventType)

		var body models.OrderPlacedEvent
		require.NoError(t, json.Unmarshal(event.payload, &body))
		assert.Equal(t, order.ID, body.OrderID)
		assert.Equal(t, 3, body.ItemCount)
		assert.True(t, body.TotalAmount.Equal(order.TotalAmount))
	})

	t.Run("Publisher errors are returned", func(t *testing.T) {
		hook := service.NewOrderEventHook(&fakePublisher{err: errors.New("no leader")})

		assert.Error(t, hook.AfterOrderPlaced(t.Context(), newTestOrder()))
		assert.Equal(t, "order_event", hook.Name())
	})
}

func TestOrderConfirmationHook(t *testing.T) {
	t.Run("Emails the buyer", func(t *testing.T) {
		// Arrange
		order := newTestOrder()
		users := new(repoMocks.UserRepository)
		notifications := new(svcMocks.NotificationService)

		users.On("GetUserByID", mock.Anything, order.UserID).Return(&models.User{ID: order.UserID, Email: "buyer@example.com"}, nil).Once()
		notifications.On("SendOrderConfirmation", mock.Anything, "buyer@example.com", order).
			Return(&models.NotificationResponse{Status: models.StatusSent}, nil).Once()

		hook := service.NewOrderConfirmationHook(users, notifications)

		// Act
		err := hook.AfterOrderPlaced(t.Context(), order)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "order_confirmation", hook.Name())
		users.AssertExpectations(t)
		notifications.AssertExpectations(t)
	})

	t.Run("Failure - Buyer lookup", func(t *testing.T) {
		order := newTestOrder()
		users := new(repoMocks.UserRepository)
		notifications := new(svcMocks.NotificationService)
		users.On("GetUserByID", mock.Anything, order.UserID).Return(nil, errors.New("db down")).Once()

		err := service.NewOrderConfirmationHook(users, notifications).AfterOrderPlaced(t.Context(), order)

		require.Error(t, err)
		notifications.AssertNotCalled(t, "SendOrderConfirmation", mock.Anything, mock.Anything, mock.Anything)
	})
}
