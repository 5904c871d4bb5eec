package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aaravmahajanofficial/footwear-storefront/internal/api/middleware"
	"github.com/aaravmahajanofficial/footwear-storefront/internal/metrics"
	"github.com/aaravmahajanofficial/footwear-storefront/internal/models"
	repository "github.com/aaravmahajanofficial/footwear-storefront/internal/repositories"
	"github.com/aaravmahajanofficial/footwear-storefront/pkg/events"
	"go.uber.org/multierr"
)

const defaultHookTimeout = 10 * time.Second

// OrderHook is a follow-up that runs once an order has been committed.
// A failing hook never undoes the order.
type OrderHook interface {
	Name() string
	AfterOrderPlaced(ctx context.Context, order *models.Order) error
}

// HookRunner runs inline hooks before PlaceOrder returns and background hooks
// after it.
type HookRunner struct {
	inline     []OrderHook
	background []OrderHook
	timeout    time.Duration
	pending    sync.WaitGroup
}

// NewHookRunner registers hooks that run inline. Each gets timeout, or
// defaultHookTimeout when timeout is not positive.
func NewHookRunner(timeout time.Duration, hooks ...OrderHook) *HookRunner {
	if timeout <= 0 {
		timeout = defaultHookTimeout
	}

	return &HookRunner{inline: hooks, timeout: timeout}
}

// WithBackground registers hooks that run after Run has returned, one after
// another in a single goroutine per order.
func (r *HookRunner) WithBackground(hooks ...OrderHook) *HookRunner {
	r.background = append(r.background, hooks...)
	return r
}

// Run executes the inline hooks in registration order and then hands the order
// to the background hooks. Every hook gets its own deadline on a context
// detached from the caller's cancellation, and a failure or panic in one hook
// does not stop the next. The returned error covers inline hooks only and is
// for observability.
func (r *HookRunner) Run(ctx context.Context, order *models.Order) error {

	if r == nil {
		return nil
	}

	detached := context.WithoutCancel(ctx)

	errs := r.runAll(detached, r.inline, order)

	if len(r.background) > 0 {
		r.pending.Add(1)

		go func() {
			defer r.pending.Done()
			_ = r.runAll(detached, r.background, order)
		}()
	}

	return errs
}

// Wait blocks until background hooks already started have finished or ctx ends.
func (r *HookRunner) Wait(ctx context.Context) error {

	if r == nil {
		return nil
	}

	done := make(chan struct{})

	go func() {
		r.pending.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *HookRunner) runAll(ctx context.Context, hooks []OrderHook, order *models.Order) error {

	logger := middleware.LoggerFromContext(ctx)

	var errs error

	for _, hook := range hooks {
		if err := r.runOne(ctx, hook, order); err != nil {
			logger.Error("Post-commit order hook failed",
				slog.String("hook", hook.Name()),
				slog.String("orderId", order.ID.String()),
				slog.Any("error", err))

			metrics.RecordHookFailure(hook.Name())
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", hook.Name(), err))
		}
	}

	return errs
}

func (r *HookRunner) runOne(ctx context.Context, hook OrderHook, order *models.Order) (err error) {

	hookCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("hook panicked: %v", rec)
		}
	}()

	return hook.AfterOrderPlaced(hookCtx, order)
}

// CartClearHook empties the buyer's cart.
type CartClearHook struct {
	carts CartService
}

func NewCartClearHook(carts CartService) *CartClearHook {
	return &CartClearHook{carts: carts}
}

func (h *CartClearHook) Name() string {
	return "cart_clear"
}

// AfterOrderPlaced treats an already empty cart as done: buyers may order
// without ever having had a cart.
func (h *CartClearHook) AfterOrderPlaced(ctx context.Context, order *models.Order) error {

	err := h.carts.ClearCart(ctx, order.UserID)
	if errors.Is(err, ErrNothingToClear) {
		middleware.LoggerFromContext(ctx).Debug("No cart to clear after order",
			slog.String("userId", order.UserID.String()), slog.String("orderId", order.ID.String()))
		return nil
	}

	return err
}

// OrderEventHook publishes an order.placed event keyed by the buyer.
type OrderEventHook struct {
	publisher events.Publisher
}

func NewOrderEventHook(publisher events.Publisher) *OrderEventHook {
	return &OrderEventHook{publisher: publisher}
}

func (h *OrderEventHook) Name() string {
	return "order_event"
}

func (h *OrderEventHook) AfterOrderPlaced(ctx context.Context, order *models.Order) error {
	return h.publisher.Publish(ctx, order.UserID.String(), models.EventTypeOrderPlaced, models.NewOrderPlacedEvent(order))
}

// OrderConfirmationHook emails the buyer a summary of the order.
type OrderConfirmationHook struct {
	users         repository.UserRepository
	notifications NotificationService
}

func NewOrderConfirmationHook(users repository.UserRepository, notifications NotificationService) *OrderConfirmationHook {
	return &OrderConfirmationHook{users: users, notifications: notifications}
}

func (h *OrderConfirmationHook) Name() string {
	return "order_confirmation"
}

func (h *OrderConfirmationHook) AfterOrderPlaced(ctx context.Context, order *models.Order) error {

	user, err := h.users.GetUserByID(ctx, order.UserID)
	if err != nil {
		return fmt.Errorf("loading buyer: %w", err)
	}

	_, err = h.notifications.SendOrderConfirmation(ctx, user.Email, order)

	return err
}
