package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aaravmahajanofficial/footwear-storefront/internal/errors"
	"github.com/aaravmahajanofficial/footwear-storefront/internal/models"
	"github.com/aaravmahajanofficial/footwear-storefront/internal/utils/response"
	"github.com/golang-jwt/jwt/v5"
)

type claimsContextKey struct{}

// RevocationList reports whether a token id was revoked before its expiry.
type RevocationList interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

type AuthOption func(*AuthMiddleware)

// WithRevocationList rejects tokens whose id is on the list. Tokens without an id
// cannot be revoked and are only checked for signature and expiry.
func WithRevocationList(list RevocationList) AuthOption {
	return func(m *AuthMiddleware) {
		m.revoked = list
	}
}

type AuthMiddleware struct {
	jwtKey  []byte
	parser  *jwt.Parser
	revoked RevocationList
}

// NewAuthMiddleware accepts HS256 tokens signed with jwtKey. Tokens without an
// expiry are rejected.
func NewAuthMiddleware(jwtKey []byte, opts ...AuthOption) *AuthMiddleware {
	m := &AuthMiddleware{
		jwtKey: jwtKey,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
		),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

func ContextWithClaims(ctx context.Context, claims *models.Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey{}, claims)
}

func ClaimsFromContext(ctx context.Context) (*models.Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey{}).(*models.Claims)
	return claims, ok && claims != nil
}

func (m *AuthMiddleware) Authenticate(next http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := LoggerFromContext(r.Context())

		header := r.Header.Get("Authorization")
		if header == "" {
			logger.Warn("Missing authorization header")
			response.Error(w, errors.UnauthorizedError("Authorization header is required"))
			return
		}

		raw, found := strings.CutPrefix(header, "Bearer ")
		raw = strings.TrimSpace(raw)
		if !found || raw == "" {
			logger.Warn("Malformed authorization header")
			response.Error(w, errors.UnauthorizedError("Invalid authorization format"))
			return
		}

		claims := &models.Claims{}
		if _, err := m.parser.ParseWithClaims(raw, claims, m.signingKey); err != nil {
			logger.Warn("Rejected bearer token", slog.Any("error", err))
			response.Error(w, errors.UnauthorizedError("Invalid or expired token"))
			return
		}

		if m.revoked != nil && claims.ID != "" {
			revoked, err := m.revoked.IsRevoked(r.Context(), claims.ID)
			if err != nil {
				// fail closed
				logger.Error("Token revocation check failed", slog.Any("error", err))
				response.Error(w, errors.ServiceUnavailableError("Unable to verify token"))
				return
			}

			if revoked {
				logger.Warn("Rejected revoked token", slog.String("userId", claims.UserID.String()))
				response.Error(w, errors.UnauthorizedError("Token has been revoked"))
				return
			}
		}

		logger = logger.With(slog.String("userId", claims.UserID.String()))

		ctx := ContextWithClaims(r.Context(), claims)
		ctx = ContextWithLogger(ctx, logger)

		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

func (m *AuthMiddleware) signingKey(*jwt.Token) (any, error) {
	return m.jwtKey, nil
}

// RequireAdmin must run after Authenticate.
func (m *AuthMiddleware) RequireAdmin(next http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			response.Error(w, errors.UnauthorizedError("Authentication required"))
			return
		}

		if !claims.IsAdmin() {
			LoggerFromContext(r.Context()).Warn("Admin route denied", slog.String("role", string(claims.Role)))
			response.Error(w, errors.ForbiddenError("Admin access required"))
			return
		}

		next.ServeHTTP(w, r)
	}
}

func (m *AuthMiddleware) AdminOnly(next http.Handler) http.HandlerFunc {
	return m.Authenticate(m.RequireAdmin(next))
}
