package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/aaravmahajanofficial/footwear-storefront/internal/api/middleware"
	"github.com/aaravmahajanofficial/footwear-storefront/internal/errors"
	"github.com/aaravmahajanofficial/footwear-storefront/internal/models"
	"github.com/aaravmahajanofficial/footwear-storefront/internal/utils/response"
)

// requireClaims writes a 401 and returns false when the request carries no
// authenticated user.
func requireClaims(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (*models.Claims, bool) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		logger.Warn("Request without user claims", slog.String("path", r.URL.Path))
		response.Error(w, errors.UnauthorizedError("Authentication required"))
		return nil, false
	}

	return claims, true
}

// pageQuery reads ?page and ?pageSize, ignoring values that do not parse.
func pageQuery(r *http.Request, maxPageSize int) models.PageRequest {
	query := r.URL.Query()

	page, _ := strconv.Atoi(query.Get("page"))
	pageSize, _ := strconv.Atoi(query.Get("pageSize"))

	return models.NewPageRequest(page, pageSize, maxPageSize)
}
