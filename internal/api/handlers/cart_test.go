package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aaravmahajanofficial/footwear-storefront/internal/api/handlers"
	appErrors "github.com/aaravmahajanofficial/footwear-storefront/internal/errors"
	"github.com/aaravmahajanofficial/footwear-storefront/internal/models"
	"github.com/aaravmahajanofficial/footwear-storefront/internal/services/mocks"
	"github.com/aaravmahajanofficial/footwear-storefront/internal/testutils"
	"github.com/aaravmahajanofficial/footwear-storefront/internal/utils/response"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupCartTest() (*mocks.CartService, *handlers.CartHandler) {
	mockCartService := new(mocks.CartService)
	return mockCartService, handlers.NewCartHandler(mockCartService)
}

func decodeAPIResponse(t *testing.T, recorder *httptest.ResponseRecorder) response.APIResponse {
	t.Helper()

	var resp response.APIResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))

	return resp
}

func TestAddItem(t *testing.T) {
	userID := uuid.New()
	productID := uuid.New()
	params := map[string]string{"userId": userID.String(), "productId": productID.String()}

	t.Run("Success - Item reconciled", func(t *testing.T) {
		// Arrange
		mockCartService, cartHandler := setupCartTest()

		req := testutils.CreateTestRequestWithContext(http.MethodPost, "/api/v1/cart", strings.NewReader(`{"quantity": 2, "size": "42"}`), userID, params)
		recorder := httptest.NewRecorder()

		cart := &models.Cart{ID: uuid.New(), UserID: userID, Items: []models.CartItem{{ProductID: productID, Quantity: 2, Size: "42", Color: "Black"}}}

		mockCartService.On("AddOrUpdateItem", mock.Anything, userID, productID, mock.MatchedBy(func(r *models.AddCartItemRequest) bool {
			return r.Quantity == 2 && r.Size == "42" && r.Color == ""
		})).Return(cart, nil).Once()

		// Act
		cartHandler.AddItem()(recorder, req)

		// Assert
		assert.Equal(t, http.StatusCreated, recorder.Code)

		resp := decodeAPIResponse(t, recorder)
		assert.True(t, resp.Success)
		mockCartService.AssertExpectations(t)
	})

	t.Run("Failure - Zero quantity rejected before the service", func(t *testing.T) {
		// Arrange
		mockCartService, cartHandler := setupCartTest()

		req := testutils.CreateTestRequestWithContext(http.MethodPost, "/api/v1/cart", strings.NewReader(`{"quantity": 0}`), userID, params)
		recorder := httptest.NewRecorder()

		// Act
		cartHandler.AddItem()(recorder, req)

		// Assert
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
		mockCartService.AssertNumberOfCalls(t, "AddOrUpdateItem", 0)
	})

	t.Run("Failure - Another user's cart", func(t *testing.T) {
		// Arrange
		mockCartService, cartHandler := setupCartTest()

		req := testutils.CreateTestRequestWithContext(http.MethodPost, "/api/v1/cart", strings.NewReader(`{"quantity": 1}`), uuid.New(), params)
		recorder := httptest.NewRecorder()

		// Act
		cartHandler.AddItem()(recorder, req)

		// Assert
		assert.Equal(t, http.StatusForbidden, recorder.Code)
		mockCartService.AssertNumberOfCalls(t, "AddOrUpdateItem", 0)
	})

	t.Run("Failure - Invalid product id", func(t *testing.T) {
		// Arrange
		_, cartHandler := setupCartTest()

		req := testutils.CreateTestRequestWithContext(http.MethodPost, "/api/v1/cart", strings.NewReader(`{"quantity": 1}`), userID,
			map[string]string{"userId": userID.String(), "productId": "not-a-uuid"})
		recorder := httptest.NewRecorder()

		// Act
		cartHandler.AddItem()(recorder, req)

		// Assert
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})

	t.Run("Failure - Product not found", func(t *testing.T) {
		// Arrange
		mockCartService, cartHandler := setupCartTest()

		req := testutils.CreateTestRequestWithContext(http.MethodPost, "/api/v1/cart", strings.NewReader(`{"quantity": 1}`), userID, params)
		recorder := httptest.NewRecorder()

		mockCartService.On("AddOrUpdateItem", mock.Anything, userID, productID, mock.Anything).
			Return(nil, appErrors.NotFoundError("Product not found")).Once()

		// Act
		cartHandler.AddItem()(recorder, req)

		// Assert
		assert.Equal(t, http.StatusNotFound, recorder.Code)

		resp := decodeAPIResponse(t, recorder)
		assert.False(t, resp.Success)
		assert.Equal(t, "Product not found", resp.Error.Message)
	})

	t.Run("Failure - Unauthenticated", func(t *testing.T) {
		// Arrange
		_, cartHandler := setupCartTest()

		req := testutils.CreateTestRequestWithoutContext(http.MethodPost, "/api/v1/cart", strings.NewReader(`{"quantity": 1}`), params)
		recorder := httptest.NewRecorder()

		// Act
		cartHandler.AddItem()(recorder, req)

		// Assert
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})
}

func TestGetCart(t *testing.T) {
	userID := uuid.New()
	params := map[string]string{"userId": userID.String()}

	t.Run("Success - Empty cart renders with an items array", func(t *testing.T) {
		// Arrange
		mockCartService, cartHandler := setupCartTest()

		req := testutils.CreateTestRequestWithContext(http.MethodGet, "/api/v1/cart", nil, userID, params)
		recorder := httptest.NewRecorder()

		mockCartService.On("GetCart", mock.Anything, userID).
			Return(&models.EnrichedCart{UserID: userID, Items: []models.EnrichedCartItem{}, TotalPrice: decimal.Zero}, nil).Once()

		// Act
		cartHandler.GetCart()(recorder, req)

		// Assert
		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Contains(t, recorder.Body.String(), `"items":[]`)
		mockCartService.AssertExpectations(t)
	})

	t.Run("Failure - Service unavailable", func(t *testing.T) {
		// Arrange
		mockCartService, cartHandler := setupCartTest()

		req := testutils.CreateTestRequestWithContext(http.MethodGet, "/api/v1/cart", nil, userID, params)
		recorder := httptest.NewRecorder()

		mockCartService.On("GetCart", mock.Anything, userID).
			Return(nil, appErrors.TimeoutError("Cart lookup timed out")).Once()

		// Act
		cartHandler.GetCart()(recorder, req)

		// Assert
		assert.Equal(t, http.StatusGatewayTimeout, recorder.Code)
	})

	t.Run("Failure - Another user's cart", func(t *testing.T) {
		// Arrange
		mockCartService, cartHandler := setupCartTest()

		req := testutils.CreateTestRequestWithContext(http.MethodGet, "/api/v1/cart", nil, uuid.New(), params)
		recorder := httptest.NewRecorder()

		// Act
		cartHandler.GetCart()(recorder, req)

		// Assert
		assert.Equal(t, http.StatusForbidden, recorder.Code)
		mockCartService.AssertNotCalled(t, "GetCart", mock.Anything, mock.Anything)
	})
}

func TestRemoveItem(t *testing.T) {
	userID := uuid.New()
	productID := uuid.New()
	params := map[string]string{"userId": userID.String(), "productId": productID.String()}

	t.Run("Success", func(t *testing.T) {
		// Arrange
		mockCartService, cartHandler := setupCartTest()

		req := testutils.CreateTestRequestWithContext(http.MethodDelete, "/api/v1/cart", nil, userID, params)
		recorder := httptest.NewRecorder()

		mockCartService.On("RemoveItem", mock.Anything, userID, productID).
			Return(&models.Cart{ID: uuid.New(), UserID: userID, Items: []models.CartItem{}}, nil).Once()

		// Act
		cartHandler.RemoveItem()(recorder, req)

		// Assert
		assert.Equal(t, http.StatusOK, recorder.Code)
		mockCartService.AssertExpectations(t)
	})

	t.Run("Failure - Item not in cart", func(t *testing.T) {
		// Arrange
		mockCartService, cartHandler := setupCartTest()

		req := testutils.CreateTestRequestWithContext(http.MethodDelete, "/api/v1/cart", nil, userID, params)
		recorder := httptest.NewRecorder()

		mockCartService.On("RemoveItem", mock.Anything, userID, productID).
			Return(nil, appErrors.NotFoundError("Item not found in cart")).Once()

		// Act
		cartHandler.RemoveItem()(recorder, req)

		// Assert
		assert.Equal(t, http.StatusNotFound, recorder.Code)

		resp := decodeAPIResponse(t, recorder)
		assert.Equal(t, "Item not found in cart", resp.Error.Message)
	})
}

func TestCountItems(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		// Arrange
		userID := uuid.New()
		mockCartService, cartHandler := setupCartTest()

		req := testutils.CreateTestRequestWithContext(http.MethodGet, "/api/v1/cart", nil, userID, map[string]string{"userId": userID.String()})
		recorder := httptest.NewRecorder()

		mockCartService.On("CountItems", mock.Anything, userID).Return(7, nil).Once()

		// Act
		cartHandler.CountItems()(recorder, req)

		// Assert
		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Contains(t, recorder.Body.String(), `"totalItems":7`)
	})

	t.Run("Failure - Store error", func(t *testing.T) {
		// Arrange
		userID := uuid.New()
		mockCartService, cartHandler := setupCartTest()

		req := testutils.CreateTestRequestWithContext(http.MethodGet, "/api/v1/cart", nil, userID, map[string]string{"userId": userID.String()})
		recorder := httptest.NewRecorder()

		mockCartService.On("CountItems", mock.Anything, userID).Return(0, context.Canceled).Once()

		// Act
		cartHandler.CountItems()(recorder, req)

		// Assert
		assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	})
}
