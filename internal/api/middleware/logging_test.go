package middleware_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aaravmahajanofficial/footwear-storefront/internal/api/middleware"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureDefaultLogger swaps slog.Default for a JSON logger writing to the
// returned buffer until the test ends.
func captureDefaultLogger(t *testing.T) *bytes.Buffer {
	t.Helper()

	var buf bytes.Buffer
	previous := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(previous) })

	return &buf
}

func TestLogging(t *testing.T) {
	t.Run("Propagates the request id and a request logger", func(t *testing.T) {
		// Arrange
		captureDefaultLogger(t)

		var fromCtx *slog.Logger
		handler := middleware.Logging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fromCtx = middleware.LoggerFromContext(r.Context())
			w.WriteHeader(http.StatusAccepted)
		}))

		req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
		req.Header.Set(middleware.RequestIDHeader, "req-123")
		rr := httptest.NewRecorder()

		// Act
		handler.ServeHTTP(rr, req)

		// Assert
		assert.Equal(t, http.StatusAccepted, rr.Code)
		assert.Equal(t, "req-123", rr.Header().Get(middleware.RequestIDHeader))
		require.NotNil(t, fromCtx)
		assert.NotSame(t, slog.Default(), fromCtx)
	})

	t.Run("Generates a request id when absent", func(t *testing.T) {
		captureDefaultLogger(t)
		rr := httptest.NewRecorder()

		middleware.Logging(http.NotFoundHandler()).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

		_, err := uuid.Parse(rr.Header().Get(middleware.RequestIDHeader))
		assert.NoError(t, err)
	})

	t.Run("Completion line carries status, size and level", func(t *testing.T) {
		tests := []struct {
			status    int
			wantLevel string
		}{
			{status: http.StatusOK, wantLevel: "INFO"},
			{status: http.StatusNotFound, wantLevel: "WARN"},
			{status: http.StatusServiceUnavailable, wantLevel: "ERROR"},
		}

		for _, tc := range tests {
			// Arrange
			buf := captureDefaultLogger(t)
			handler := middleware.Logging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte("hello"))
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/v1/cart/get-cart/user/42", nil)
			req.Header.Set(middleware.RequestIDHeader, "corr-1")

			// Act
			handler.ServeHTTP(httptest.NewRecorder(), req)

			// Assert
			var line map[string]any
			require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
			assert.Equal(t, tc.wantLevel, line["level"])
			assert.Equal(t, "Request completed", line["msg"])
			assert.Equal(t, "corr-1", line["correlation_id"])
			assert.InDelta(t, tc.status, line["http_status"], 0)
			assert.InDelta(t, 5, line["response_bytes"], 0)
		}
	})

	t.Run("LoggerFromContext falls back to the default logger", func(t *testing.T) {
		assert.Same(t, slog.Default(), middleware.LoggerFromContext(context.Background()))
	})
}
