package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderLineItem struct {
	ProductID   uuid.UUID       `json:"product"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
}

// Order is written once at placement and never updated.
type Order struct {
	ID              uuid.UUID       `json:"id"`
	UserID          uuid.UUID       `json:"user"`
	LineItems       []OrderLineItem `json:"products"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	PaymentMethod   string          `json:"paymentMethod"`
	ShippingAddress string          `json:"shippingAddress"`
	CreatedAt       time.Time       `json:"createdAt"`
}

type OrderLineRequest struct {
	ProductID uuid.UUID `json:"product" validate:"required"`
	Quantity  int       `json:"quantity"`
}

type PlaceOrderRequest struct {
	Products        []OrderLineRequest `json:"products" validate:"required,min=1,dive"`
	TotalAmount     *decimal.Decimal   `json:"totalAmount" validate:"required"`
	PaymentMethod   string             `json:"paymentMethod" validate:"required,max=64"`
	ShippingAddress string             `json:"shippingAddress" validate:"required,max=512"`
}
