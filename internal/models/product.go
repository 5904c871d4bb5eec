package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Product struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Sizes       []string        `json:"sizes"`
	Colors      []string        `json:"colors"`
	Stock       int             `json:"stock"`
	CategoryID  *uuid.UUID      `json:"categoryId,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

type CreateProductRequest struct {
	Name        string           `json:"name" validate:"required,min=2,max=200"`
	Description string           `json:"description,omitempty" validate:"max=2000"`
	Price       *decimal.Decimal `json:"price" validate:"required"`
	Sizes       []string         `json:"sizes,omitempty" validate:"omitempty,dive,required"`
	Colors      []string         `json:"colors,omitempty" validate:"omitempty,dive,required"`
	Stock       int              `json:"stock" validate:"gte=0"`
	CategoryID  *uuid.UUID       `json:"categoryId,omitempty"`
}

// UpdateProductRequest changes only the fields that are present.
type UpdateProductRequest struct {
	Name        *string          `json:"name,omitempty" validate:"omitempty,min=2,max=200"`
	Description *string          `json:"description,omitempty" validate:"omitempty,max=2000"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	Sizes       []string         `json:"sizes,omitempty" validate:"omitempty,dive,required"`
	Colors      []string         `json:"colors,omitempty" validate:"omitempty,dive,required"`
	Stock       *int             `json:"stock,omitempty" validate:"omitempty,gte=0"`
	CategoryID  *uuid.UUID       `json:"categoryId,omitempty"`
}

func (r *UpdateProductRequest) IsEmpty() bool {
	return r.Name == nil && r.Description == nil && r.Price == nil && r.Sizes == nil &&
		r.Colors == nil && r.Stock == nil && r.CategoryID == nil
}
