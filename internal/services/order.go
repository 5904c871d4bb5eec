package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	appErrors "github.com/aaravmahajanofficial/footwear-storefront/internal/errors"
	"github.com/aaravmahajanofficial/footwear-storefront/internal/metrics"
	"github.com/aaravmahajanofficial/footwear-storefront/internal/models"
	repository "github.com/aaravmahajanofficial/footwear-storefront/internal/repositories"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderService interface {
	PlaceOrder(ctx context.Context, ownerID uuid.UUID, req *models.PlaceOrderRequest) (*models.Order, error)
	GetOrder(ctx context.Context, ownerID, orderID uuid.UUID) (*models.Order, error)
	ListOrders(ctx context.Context, ownerID uuid.UUID, page, size int) ([]*models.Order, int, error)
}

// Limits match the order columns; lengths are counted in characters.
const (
	maxPaymentMethodLength   = 64
	maxShippingAddressLength = 512
)

type orderService struct {
	orders   repository.OrderRepository
	products repository.ProductRepository
	hooks    *HookRunner
}

func NewOrderService(orders repository.OrderRepository, products repository.ProductRepository, hooks *HookRunner) OrderService {
	return &orderService{
		orders:   orders,
		products: products,
		hooks:    hooks,
	}
}

func (s *orderService) PlaceOrder(ctx context.Context, ownerID uuid.UUID, req *models.PlaceOrderRequest) (*models.Order, error) {

	if req == nil || len(req.Products) == 0 {
		return nil, appErrors.ValidationError("Order must contain at least one product")
	}

	if req.TotalAmount == nil {
		return nil, appErrors.ValidationError("Total amount is required")
	}

	// stored as given apart from surrounding whitespace; escaping is the renderer's job
	paymentMethod := strings.TrimSpace(req.PaymentMethod)
	shippingAddress := strings.TrimSpace(req.ShippingAddress)

	if paymentMethod == "" || shippingAddress == "" {
		return nil, appErrors.ValidationError("Payment method and shipping address are required")
	}

	if utf8.RuneCountInString(paymentMethod) > maxPaymentMethodLength {
		return nil, appErrors.ValidationError(fmt.Sprintf("Payment method must be at most %d characters", maxPaymentMethodLength))
	}

	if utf8.RuneCountInString(shippingAddress) > maxShippingAddressLength {
		return nil, appErrors.ValidationError(fmt.Sprintf("Shipping address must be at most %d characters", maxShippingAddressLength))
	}

	lines := make([]models.OrderLineItem, 0, len(req.Products))
	serverTotal := decimal.Zero

	for _, requested := range req.Products {

		product, err := s.products.GetProductByID(ctx, requested.ProductID)
		if err != nil {
			return nil, storeError(err, fmt.Sprintf("Product with ID %s not found", requested.ProductID), "Failed to load product")
		}

		if requested.Quantity < 1 {
			return nil, appErrors.ValidationError("Quantity must be at least 1").
				WithDetail(fmt.Sprintf("product %s has quantity %d", requested.ProductID, requested.Quantity))
		}

		serverTotal = serverTotal.Add(product.Price.Mul(decimal.NewFromInt(int64(requested.Quantity))))

		lines = append(lines, models.OrderLineItem{
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    requested.Quantity,
			UnitPrice:   product.Price,
		})
	}

	// no epsilon: the claimed total must match to the last digit
	if !serverTotal.Equal(*req.TotalAmount) {
		return nil, appErrors.ValidationError("Total amount mismatch with product prices").
			WithDetail(fmt.Sprintf("expected %s, got %s", serverTotal.String(), req.TotalAmount.String()))
	}

	order := &models.Order{
		ID:              uuid.New(),
		UserID:          ownerID,
		LineItems:       lines,
		TotalAmount:     serverTotal,
		PaymentMethod:   paymentMethod,
		ShippingAddress: shippingAddress,
	}

	if err := s.orders.CreateOrder(ctx, order); err != nil {
		return nil, storeError(err, "Order not found", "Failed to create order")
	}

	metrics.RecordOrderPlaced()

	// the order stands whatever the hooks report
	_ = s.hooks.Run(ctx, order)

	return order, nil
}

func (s *orderService) GetOrder(ctx context.Context, ownerID, orderID uuid.UUID) (*models.Order, error) {

	order, err := s.orders.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, storeError(err, "Order not found", "Failed to load order")
	}

	if order.UserID != ownerID {
		return nil, appErrors.ForbiddenError("You do not have access to this order")
	}

	return order, nil
}

func (s *orderService) ListOrders(ctx context.Context, ownerID uuid.UUID, page, size int) ([]*models.Order, int, error) {

	p := models.NewPageRequest(page, size, models.MaxOrderPageSize)

	orders, total, err := s.orders.ListOrdersByUser(ctx, ownerID, p.Page, p.PageSize)
	if err != nil {
		return nil, 0, storeError(err, "Orders not found", "Failed to list orders")
	}

	return orders, total, nil
}
