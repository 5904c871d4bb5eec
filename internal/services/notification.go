package service

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"strings"

	"github.com/aaravmahajanofficial/footwear-storefront/internal/models"
	repository "github.com/aaravmahajanofficial/footwear-storefront/internal/repositories"
	"github.com/aaravmahajanofficial/footwear-storefront/pkg/sendgrid"
	"github.com/google/uuid"
)

type NotificationService interface {
	SendEmail(ctx context.Context, req *models.EmailNotificationRequest) (*models.NotificationResponse, error)
	SendOrderConfirmation(ctx context.Context, recipient string, order *models.Order) (*models.NotificationResponse, error)
}

type notificationService struct {
	repo         repository.NotificationRepository
	emailService sendgrid.EmailService
}

func NewNotificationService(repo repository.NotificationRepository, emailService sendgrid.EmailService) NotificationService {
	return &notificationService{repo: repo, emailService: emailService}
}

// SendEmail records the notification, sends it and stores the delivery outcome.
func (n *notificationService) SendEmail(ctx context.Context, req *models.EmailNotificationRequest) (*models.NotificationResponse, error) {

	var metadataJSON json.RawMessage

	if req.Metadata != nil {
		metadataBytes, err := json.Marshal(req.Metadata)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal metadata: %w", err)
		}

		metadataJSON = metadataBytes
	}

	notification := &models.Notification{
		ID:        uuid.New(),
		Type:      models.NotificationTypeEmail,
		Recipient: req.To,
		Subject:   req.Subject,
		Content:   req.Content,
		Status:    models.StatusPending,
		Metadata:  metadataJSON,
	}

	if err := n.repo.CreateNotification(ctx, notification); err != nil {
		return nil, fmt.Errorf("failed to create notification record: %w", err)
	}

	if err := n.emailService.Send(ctx, req); err != nil {

		notification.Status = models.StatusFailed
		notification.ErrorMessage = err.Error()

		_ = n.repo.UpdateNotificationStatus(ctx, notification.ID, models.StatusFailed, notification.ErrorMessage)

		return nil, fmt.Errorf("failed to send email: %w", err)
	}

	notification.Status = models.StatusSent

	if err := n.repo.UpdateNotificationStatus(ctx, notification.ID, models.StatusSent, ""); err != nil {
		return nil, fmt.Errorf("notification sent successfully but failed to update notification status: %w", err)
	}

	return &models.NotificationResponse{
		ID:        notification.ID,
		Type:      notification.Type,
		Status:    notification.Status,
		Recipient: notification.Recipient,
		CreatedAt: notification.CreatedAt,
	}, nil
}

func (n *notificationService) SendOrderConfirmation(ctx context.Context, recipient string, order *models.Order) (*models.NotificationResponse, error) {
	return n.SendEmail(ctx, orderConfirmationEmail(recipient, order))
}

func orderConfirmationEmail(recipient string, order *models.Order) *models.EmailNotificationRequest {

	var text, markup strings.Builder

	fmt.Fprintf(&text, "Thank you for your order %s.\n\n", order.ID)
	markup.WriteString("<p>Thank you for your order.</p><ul>")

	for _, line := range order.LineItems {
		fmt.Fprintf(&text, "%d x %s @ %s\n", line.Quantity, line.ProductName, line.UnitPrice.StringFixed(2))
		fmt.Fprintf(&markup, "<li>%d &times; %s @ %s</li>", line.Quantity, html.EscapeString(line.ProductName), line.UnitPrice.StringFixed(2))
	}

	fmt.Fprintf(&text, "\nTotal: %s\nShipping to: %s\n", order.TotalAmount.StringFixed(2), order.ShippingAddress)
	fmt.Fprintf(&markup, "</ul><p>Total: <strong>%s</strong></p><p>Shipping to: %s</p>",
		order.TotalAmount.StringFixed(2), html.EscapeString(order.ShippingAddress))

	return &models.EmailNotificationRequest{
		To:          recipient,
		Subject:     fmt.Sprintf("Order confirmation #%s", order.ID.String()[:8]),
		Content:     text.String(),
		HTMLContent: markup.String(),
		Metadata: map[string]string{
			"orderId": order.ID.String(),
			"type":    models.EventTypeOrderPlaced,
		},
	}
}
