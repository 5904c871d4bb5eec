package service

import (
	"github.com/aaravmahajanofficial/footwear-storefront/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type imageKey struct {
	productID string
	color     string
}

// ProjectCartForDisplay joins a stored cart with its product records and images.
// Each line receives the images whose product and color both equal the line's.
// Lines whose product no longer exists keep their quantity but carry no details
// and do not contribute to the total price.
func ProjectCartForDisplay(cart *models.Cart, products map[uuid.UUID]*models.Product, images []models.Image) *models.EnrichedCart {

	if cart == nil {
		return &models.EnrichedCart{Items: []models.EnrichedCartItem{}, TotalPrice: decimal.Zero}
	}

	byKey := make(map[imageKey][]models.Image, len(images))
	for _, img := range images {
		key := imageKey{productID: img.ProductID, color: img.Color}
		byKey[key] = append(byKey[key], img)
	}

	id, updatedAt := cart.ID, cart.UpdatedAt

	enriched := &models.EnrichedCart{
		ID:         &id,
		UserID:     cart.UserID,
		Items:      make([]models.EnrichedCartItem, 0, len(cart.Items)),
		TotalPrice: decimal.Zero,
		UpdatedAt:  &updatedAt,
	}

	for _, item := range cart.Items {

		line := models.EnrichedCartItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Size:      item.Size,
			Color:     item.Color,
			Images:    byKey[imageKey{productID: item.ProductID.String(), color: item.Color}],
		}

		if line.Images == nil {
			line.Images = []models.Image{}
		}

		enriched.TotalQuantity += item.Quantity

		if product, ok := products[item.ProductID]; ok && product != nil {
			line.Product = &models.ProductSummary{
				Name:  product.Name,
				Price: product.Price,
				Stock: product.Stock,
			}

			lineTotal := product.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
			line.LineTotal = &lineTotal
			enriched.TotalPrice = enriched.TotalPrice.Add(lineTotal)
		}

		enriched.Items = append(enriched.Items, line)
	}

	return enriched
}
