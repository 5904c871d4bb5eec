package handlers

import (
	"log/slog"
	"net/http"

	"github.com/aaravmahajanofficial/footwear-storefront/internal/api/middleware"
	"github.com/aaravmahajanofficial/footwear-storefront/internal/errors"
	"github.com/aaravmahajanofficial/footwear-storefront/internal/models"
	service "github.com/aaravmahajanofficial/footwear-storefront/internal/services"
	"github.com/aaravmahajanofficial/footwear-storefront/internal/utils"
	"github.com/aaravmahajanofficial/footwear-storefront/internal/utils/response"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type CartHandler struct {
	cartService service.CartService
	validator   *validator.Validate
}

func NewCartHandler(cartService service.CartService) *CartHandler {
	return &CartHandler{cartService: cartService, validator: validator.New()}
}

// cartOwner resolves the {userId} path value and checks it against the caller.
func cartOwner(w http.ResponseWriter, r *http.Request) (uuid.UUID, *slog.Logger, bool) {

	logger := middleware.LoggerFromContext(r.Context())

	claims, ok := requireClaims(w, r, logger)
	if !ok {
		return uuid.Nil, logger, false
	}

	userID, err := utils.ParseID(r, "userId")
	if err != nil {
		logger.Warn("Invalid user id", slog.String("error", err.Error()))
		response.Error(w, err)
		return uuid.Nil, logger, false
	}

	logger = logger.With(slog.String("userID", userID.String()))

	if userID != claims.UserID {
		logger.Warn("Attempted to access another user's cart", slog.String("requesterId", claims.UserID.String()))
		response.Error(w, errors.ForbiddenError("You do not have access to this cart"))
		return uuid.Nil, logger, false
	}

	return userID, logger, true
}

// AddItem godoc
//	@Summary		Add or update a cart line
//	@Description	Adds a product to the user's cart, creating the cart on first use. A line with the same product, size and color is reconciled under the configured merge policy.
//	@Tags			Cart
//	@Accept			json
//	@Produce		json
//	@Param			userId		path		string						true	"User ID (UUID)"	Format(uuid)
//	@Param			productId	path		string						true	"Product ID (UUID)"	Format(uuid)
//	@Param			item		body		models.AddCartItemRequest	true	"Quantity and optional size/color"
//	@Success		201			{object}	models.Cart					"Updated cart"
//	@Failure		400			{object}	response.ErrorResponse		"Invalid input"
//	@Failure		401			{object}	response.ErrorResponse		"Authentication required"
//	@Failure		403			{object}	response.ErrorResponse		"Cart belongs to another user"
//	@Failure		404			{object}	response.ErrorResponse		"User or product not found"
//	@Failure		500			{object}	response.ErrorResponse		"Internal server error"
//	@Security		BearerAuth
//	@Router			/cart/create-cart/user/{userId}/product/{productId} [post]
func (h *CartHandler) AddItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		userID, logger, ok := cartOwner(w, r)
		if !ok {
			return
		}

		productID, err := utils.ParseID(r, "productId")
		if err != nil {
			logger.Warn("Invalid product id", slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		logger = logger.With(slog.String("productId", productID.String()))

		var req models.AddCartItemRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			logger.Warn("Invalid add-to-cart input")
			return
		}

		cart, err := h.cartService.AddOrUpdateItem(r.Context(), userID, productID, &req)
		if err != nil {
			logger.Error("Failed to add item to cart", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger.Info("Cart item reconciled", slog.Int("lines", len(cart.Items)))
		response.Success(w, http.StatusCreated, cart)
	}
}

// GetCart godoc
//	@Summary		Get the user's cart
//	@Description	Returns the cart projected for display, with product details, matching images and line totals. Missing carts render as an empty cart.
//	@Tags			Cart
//	@Produce		json
//	@Param			userId	path		string					true	"User ID (UUID)"	Format(uuid)
//	@Success		200		{object}	models.EnrichedCart		"Cart view"
//	@Failure		401		{object}	response.ErrorResponse	"Authentication required"
//	@Failure		403		{object}	response.ErrorResponse	"Cart belongs to another user"
//	@Failure		500		{object}	response.ErrorResponse	"Internal server error"
//	@Security		BearerAuth
//	@Router			/cart/get-cart/user/{userId} [get]
func (h *CartHandler) GetCart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		userID, logger, ok := cartOwner(w, r)
		if !ok {
			return
		}

		cart, err := h.cartService.GetCart(r.Context(), userID)
		if err != nil {
			logger.Error("Failed to get cart", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger.Info("Cart retrieved successfully", slog.Int("lines", len(cart.Items)))
		response.Success(w, http.StatusOK, cart)
	}
}

// RemoveItem godoc
//	@Summary		Remove a product from the cart
//	@Description	Removes the first cart line holding the product.
//	@Tags			Cart
//	@Produce		json
//	@Param			userId		path		string					true	"User ID (UUID)"	Format(uuid)
//	@Param			productId	path		string					true	"Product ID (UUID)"	Format(uuid)
//	@Success		200			{object}	models.Cart				"Updated cart"
//	@Failure		401			{object}	response.ErrorResponse	"Authentication required"
//	@Failure		403			{object}	response.ErrorResponse	"Cart belongs to another user"
//	@Failure		404			{object}	response.ErrorResponse	"Cart or item not found"
//	@Failure		500			{object}	response.ErrorResponse	"Internal server error"
//	@Security		BearerAuth
//	@Router			/cart/delete-item/user/{userId}/product/{productId} [delete]
func (h *CartHandler) RemoveItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		userID, logger, ok := cartOwner(w, r)
		if !ok {
			return
		}

		productID, err := utils.ParseID(r, "productId")
		if err != nil {
			logger.Warn("Invalid product id", slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		cart, err := h.cartService.RemoveItem(r.Context(), userID, productID)
		if err != nil {
			logger.Error("Failed to remove cart item", slog.String("productId", productID.String()), slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger.Info("Cart item removed", slog.String("productId", productID.String()))
		response.Success(w, http.StatusOK, cart)
	}
}

// CountItems godoc
//	@Summary		Count items in the cart
//	@Description	Returns the sum of line quantities in the user's cart.
//	@Tags			Cart
//	@Produce		json
//	@Param			userId	path		string						true	"User ID (UUID)"	Format(uuid)
//	@Success		200		{object}	models.CartCountResponse	"Item count"
//	@Failure		401		{object}	response.ErrorResponse		"Authentication required"
//	@Failure		403		{object}	response.ErrorResponse		"Cart belongs to another user"
//	@Failure		500		{object}	response.ErrorResponse		"Internal server error"
//	@Security		BearerAuth
//	@Router			/cart/total-items/user/{userId} [get]
func (h *CartHandler) CountItems() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		userID, logger, ok := cartOwner(w, r)
		if !ok {
			return
		}

		total, err := h.cartService.CountItems(r.Context(), userID)
		if err != nil {
			logger.Error("Failed to count cart items", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, models.CartCountResponse{TotalItems: total})
	}
}
