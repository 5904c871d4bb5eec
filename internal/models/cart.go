package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MergePolicy decides what happens to the quantity of a line that is added
// again with the same product, size and color.
type MergePolicy string

const (
	MergeOverwrite MergePolicy = "overwrite"
	MergeSum       MergePolicy = "sum"
)

func ParseMergePolicy(s string) (MergePolicy, error) {
	switch MergePolicy(s) {
	case MergeOverwrite, "":
		return MergeOverwrite, nil
	case MergeSum:
		return MergeSum, nil
	default:
		return "", fmt.Errorf("unknown cart merge policy %q", s)
	}
}

// Merge returns the quantity stored for a line after a repeated add.
func (p MergePolicy) Merge(existing, incoming int) int {
	if p == MergeSum {
		return existing + incoming
	}

	return incoming
}

type CartItem struct {
	ProductID uuid.UUID `json:"product"`
	Quantity  int       `json:"quantity"`
	Size      string    `json:"size"`
	Color     string    `json:"color"`
}

type CartItemKey struct {
	ProductID uuid.UUID
	Size      string
	Color     string
}

func (i CartItem) Key() CartItemKey {
	return CartItemKey{ProductID: i.ProductID, Size: i.Size, Color: i.Color}
}

type Cart struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user"`
	Items     []CartItem `json:"items"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

func (c *Cart) TotalQuantity() int {
	if c == nil {
		return 0
	}

	total := 0
	for _, item := range c.Items {
		total += item.Quantity
	}

	return total
}

type AddCartItemRequest struct {
	Quantity int    `json:"quantity" validate:"required,min=1"`
	Size     string `json:"size,omitempty" validate:"max=16"`
	Color    string `json:"color,omitempty" validate:"max=32"`
}

type ProductSummary struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Stock int             `json:"stock"`
}

type EnrichedCartItem struct {
	ProductID uuid.UUID        `json:"product"`
	Quantity  int              `json:"quantity"`
	Size      string           `json:"size"`
	Color     string           `json:"color"`
	Product   *ProductSummary  `json:"productDetails,omitempty"`
	Images    []Image          `json:"images"`
	LineTotal *decimal.Decimal `json:"lineTotal,omitempty"`
}

type EnrichedCart struct {
	ID            *uuid.UUID         `json:"id,omitempty"`
	UserID        uuid.UUID          `json:"user"`
	Items         []EnrichedCartItem `json:"items"`
	TotalQuantity int                `json:"totalQuantity"`
	TotalPrice    decimal.Decimal    `json:"totalPrice"`
	UpdatedAt     *time.Time         `json:"updatedAt,omitempty"`
}

type CartCountResponse struct {
	TotalItems int `json:"totalItems"`
}
