package testutils

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"

	"github.com/aaravmahajanofficial/footwear-storefront/internal/api/middleware"
	"github.com/aaravmahajanofficial/footwear-storefront/internal/models"
	"github.com/google/uuid"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// CreateTestRequestWithContext builds a request as it looks after the auth
// middleware ran for a customer with userID.
func CreateTestRequestWithContext(method, target string, body io.Reader, userID uuid.UUID, pathParams map[string]string) *http.Request {
	req := CreateTestRequestWithoutContext(method, target, body, pathParams)

	claims := &models.Claims{UserID: userID, Email: "test@example.com", Role: models.RoleCustomer}

	return req.WithContext(middleware.ContextWithClaims(req.Context(), claims))
}

// CreateTestRequestWithoutContext builds an anonymous request with a silent logger.
func CreateTestRequestWithoutContext(method, target string, body io.Reader, pathParams map[string]string) *http.Request {
	req := httptest.NewRequest(method, target, body)

	for name, value := range pathParams {
		req.SetPathValue(name, value)
	}

	return req.WithContext(middleware.ContextWithLogger(req.Context(), discardLogger))
}
