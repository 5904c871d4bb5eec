package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppErrorHelpers(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		wantCode   string
		wantStatus int
	}{
		{"validation", ValidationError("bad"), ErrCodeValidation, http.StatusBadRequest},
		{"not found", NotFoundError("missing"), ErrCodeNotFound, http.StatusNotFound},
		{"forbidden", ForbiddenError("no"), ErrCodeForbidden, http.StatusForbidden},
		{"internal", InternalError("boom"), ErrCodeInternal, http.StatusInternalServerError},
		{"timeout", TimeoutError("slow"), ErrCodeTimeout, http.StatusGatewayTimeout},
		{"unavailable", ServiceUnavailableError("down"), ErrCodeUnavailable, http.StatusServiceUnavailable},
		{"duplicate", DuplicateEntryError("taken"), ErrCodeDuplicateEntry, http.StatusConflict},
		{"third party", ThirdPartyError("upstream"), ErrCodeThirdPartyError, http.StatusBadGateway},
		{"unknown code", NewAppError("SOMETHING_NEW", "odd"), "SOMETHING_NEW", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantCode, tt.err.Code)
			assert.Equal(t, tt.wantStatus, tt.err.StatusCode)
		})
	}
}

func TestIsAppError(t *testing.T) {
	t.Run("Unwraps a wrapped AppError", func(t *testing.T) {
		cause := errors.New("connection reset")
		appErr := DatabaseError("Failed to load cart").WithError(cause).WithDetail("carts")
		wrapped := fmt.Errorf("handler: %w", appErr)

		got, ok := IsAppError(wrapped)

		require.True(t, ok)
		assert.Equal(t, ErrCodeDatabaseError, got.Code)
		assert.Equal(t, "carts", got.Detail)
		assert.ErrorIs(t, got, cause)
	})

	t.Run("Plain error", func(t *testing.T) {
		got, ok := IsAppError(errors.New("plain"))

		assert.False(t, ok)
		assert.Nil(t, got)
	})
}

