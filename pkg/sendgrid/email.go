package sendgrid

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/aaravmahajanofficial/footwear-storefront/internal/models"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// ErrNotConfigured is returned by Send when no API key was supplied.
var ErrNotConfigured = errors.New("sendgrid api key is not configured")

type EmailService interface {
	Send(ctx context.Context, req *models.EmailNotificationRequest) error
	GetSendGridClient() *sendgrid.Client
}

type emailService struct {
	client    *sendgrid.Client
	apiKey    string
	fromEmail string
	fromName  string
}

func NewEmailService(apiKey string, fromEmail string, fromName string) EmailService {
	return &emailService{client: sendgrid.NewSendClient(apiKey), apiKey: apiKey, fromEmail: fromEmail, fromName: fromName}
}

func (e *emailService) Send(ctx context.Context, req *models.EmailNotificationRequest) error {

	if e.apiKey == "" {
		return ErrNotConfigured
	}

	response, err := e.client.SendWithContext(ctx, e.buildMessage(req))
	if err != nil {
		return fmt.Errorf("failed to reach sendgrid: %w", err)
	}

	if response.StatusCode >= 400 {
		return fmt.Errorf("failed to send email, status code: %d", response.StatusCode)
	}

	return nil
}

func (e *emailService) buildMessage(req *models.EmailNotificationRequest) *mail.SGMailV3 {

	personalization := mail.NewPersonalization()
	personalization.AddTos(mail.NewEmail("", req.To))

	for _, cc := range req.CC {
		personalization.AddCCs(mail.NewEmail("", cc))
	}

	for _, bcc := range req.BCC {
		personalization.AddBCCs(mail.NewEmail("", bcc))
	}

	personalization.Subject = req.Subject

	// metadata travels as custom args so webhook events can be tied back to the order
	for _, key := range slices.Sorted(maps.Keys(req.Metadata)) {
		personalization.SetCustomArg(key, req.Metadata[key])
	}

	message := mail.NewV3Mail()
	message.SetFrom(mail.NewEmail(e.fromName, e.fromEmail))
	message.AddPersonalizations(personalization)

	// text/plain must precede text/html
	message.AddContent(mail.NewContent("text/plain", req.Content))
	if req.HTMLContent != "" {
		message.AddContent(mail.NewContent("text/html", req.HTMLContent))
	}

	return message
}

func (e *emailService) GetSendGridClient() *sendgrid.Client {
	return e.client
}
