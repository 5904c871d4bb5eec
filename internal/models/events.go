package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const EventTypeOrderPlaced = "order.placed"

type OrderPlacedEvent struct {
	EventType   string          `json:"eventType"`
	OrderID     uuid.UUID       `json:"orderId"`
	UserID      uuid.UUID       `json:"userId"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	ItemCount   int             `json:"itemCount"`
	OccurredAt  time.Time       `json:"occurredAt"`
}

func NewOrderPlacedEvent(order *Order) OrderPlacedEvent {
	count := 0
	for _, line := range order.LineItems {
		count += line.Quantity
	}

	return OrderPlacedEvent{
		EventType:   EventTypeOrderPlaced,
		OrderID:     order.ID,
		UserID:      order.UserID,
		TotalAmount: order.TotalAmount,
		ItemCount:   count,
		OccurredAt:  order.CreatedAt,
	}
}
