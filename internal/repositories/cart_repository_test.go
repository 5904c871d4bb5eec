package repository_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/aaravmahajanofficial/footwear-storefront/internal/models"
	repository "github.com/aaravmahajanofficial/footwear-storefront/internal/repositories"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var cartColumns = []string{"id", "user_id", "items", "created_at", "updated_at"}

func setupCartRepoTest(t *testing.T) (repository.CartRepository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err, "Failed to create sqlmock")

	t.Cleanup(func() {
		db.Close()
	})

	repo := repository.NewCartRepo(db)
	require.NotNil(t, repo, "NewCartRepo should return a non-nil repository")

	return repo, mock
}

func TestGetCartByUserID(t *testing.T) {
	userID := uuid.New()
	cartID := uuid.New()
	productID := uuid.New()
	now := time.Now()

	items := []models.CartItem{{ProductID: productID, Quantity: 2, Size: "39", Color: "Black"}}
	itemsJSON, err := json.Marshal(items)
	require.NoError(t, err)

	t.Run("Success", func(t *testing.T) {
		// Arrange
		repo, mock := setupCartRepoTest(t)
		mock.ExpectQuery(`SELECT id, user_id, items, created_at, updated_at FROM carts WHERE user_id = \$1`).
			WithArgs(userID).
			WillReturnRows(sqlmock.NewRows(cartColumns).AddRow(cartID.String(), userID.String(), itemsJSON, now, now))

		// Act
		cart, err := repo.GetCartByUserID(t.Context(), userID)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, cartID, cart.ID)
		assert.Equal(t, userID, cart.UserID)
		assert.Equal(t, items, cart.Items)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Not found", func(t *testing.T) {
		// Arrange
		repo, mock := setupCartRepoTest(t)
		mock.ExpectQuery(`FROM carts WHERE user_id = \$1`).WithArgs(userID).WillReturnError(sql.ErrNoRows)

		// Act
		cart, err := repo.GetCartByUserID(t.Context(), userID)

		// Assert
		require.ErrorIs(t, err, repository.ErrNotFound)
		assert.Nil(t, cart)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Null items decode to an empty slice", func(t *testing.T) {
		// Arrange
		repo, mock := setupCartRepoTest(t)
		mock.ExpectQuery(`FROM carts WHERE user_id = \$1`).
			WithArgs(userID).
			WillReturnRows(sqlmock.NewRows(cartColumns).AddRow(cartID.String(), userID.String(), []byte(`null`), now, now))

		// Act
		cart, err := repo.GetCartByUserID(t.Context(), userID)

		// Assert
		require.NoError(t, err)
		assert.NotNil(t, cart.Items)
		assert.Empty(t, cart.Items)
	})

	t.Run("Failure - Unmarshal Error", func(t *testing.T) {
		// Arrange
		repo, mock := setupCartRepoTest(t)
		mock.ExpectQuery(`FROM carts WHERE user_id = \$1`).
			WithArgs(userID).
			WillReturnRows(sqlmock.NewRows(cartColumns).AddRow(cartID.String(), userID.String(), []byte(`{"invalid"`), now, now))

		// Act
		cart, err := repo.GetCartByUserID(t.Context(), userID)

		// Assert
		require.Error(t, err)
		assert.ErrorContains(t, err, "failed to unmarshal cart items")

		var syntaxError *json.SyntaxError
		assert.ErrorAs(t, err, &syntaxError)
		assert.Nil(t, cart)
	})
}

func TestWithCartLock(t *testing.T) {
	userID := uuid.New()
	cartID := uuid.New()
	productID := uuid.New()
	now := time.Now()

	const (
		insertSQL = `INSERT INTO carts \(id, user_id, items, created_at, updated_at\) VALUES \(\$1, \$2, '\[\]'::jsonb, NOW\(\), NOW\(\)\) ON CONFLICT \(user_id\) DO NOTHING`
		lockSQL   = `SELECT id, user_id, items, created_at, updated_at FROM carts WHERE user_id = \$1 FOR UPDATE`
		updateSQL = `UPDATE carts SET items = \$1, updated_at = NOW\(\) WHERE id = \$2 RETURNING updated_at`
	)

	appendItem := func(cart *models.Cart) error {
		cart.Items = append(cart.Items, models.CartItem{ProductID: productID, Quantity: 2, Size: "39", Color: "Black"})
		return nil
	}

	t.Run("Success - creates, locks, mutates and commits", func(t *testing.T) {
		// Arrange
		repo, mock := setupCartRepoTest(t)
		later := now.Add(time.Second)

		expectedJSON, err := json.Marshal([]models.CartItem{{ProductID: productID, Quantity: 2, Size: "39", Color: "Black"}})
		require.NoError(t, err)

		mock.ExpectBegin()
		mock.ExpectExec(insertSQL).WithArgs(sqlmock.AnyArg(), userID).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(lockSQL).WithArgs(userID).
			WillReturnRows(sqlmock.NewRows(cartColumns).AddRow(cartID.String(), userID.String(), []byte(`[]`), now, now))
		mock.ExpectQuery(updateSQL).WithArgs(expectedJSON, cartID).
			WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(later))
		mock.ExpectCommit()

		// Act
		cart, err := repo.WithCartLock(t.Context(), userID, true, appendItem)

		// Assert
		require.NoError(t, err)
		require.Len(t, cart.Items, 1)
		assert.Equal(t, productID, cart.Items[0].ProductID)
		assert.Equal(t, later, cart.UpdatedAt)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Existing cart - no insert when create is false", func(t *testing.T) {
		// Arrange
		repo, mock := setupCartRepoTest(t)

		existing, err := json.Marshal([]models.CartItem{{ProductID: productID, Quantity: 1, Size: "39", Color: "Black"}})
		require.NoError(t, err)

		mock.ExpectBegin()
		mock.ExpectQuery(lockSQL).WithArgs(userID).
			WillReturnRows(sqlmock.NewRows(cartColumns).AddRow(cartID.String(), userID.String(), existing, now, now))
		mock.ExpectQuery(updateSQL).WithArgs([]byte(`[]`), cartID).
			WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(now))
		mock.ExpectCommit()

		// Act
		cart, err := repo.WithCartLock(t.Context(), userID, false, func(cart *models.Cart) error {
			cart.Items = cart.Items[:0]
			return nil
		})

		// Assert
		require.NoError(t, err)
		assert.Empty(t, cart.Items)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Missing cart without create", func(t *testing.T) {
		// Arrange
		repo, mock := setupCartRepoTest(t)

		mock.ExpectBegin()
		mock.ExpectQuery(lockSQL).WithArgs(userID).WillReturnError(sql.ErrNoRows)
		mock.ExpectRollback()

		// Act
		cart, err := repo.WithCartLock(t.Context(), userID, false, appendItem)

		// Assert
		require.ErrorIs(t, err, repository.ErrNotFound)
		assert.Nil(t, cart)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Mutation error rolls back", func(t *testing.T) {
		// Arrange
		repo, mock := setupCartRepoTest(t)
		mutationErr := errors.New("item not in cart")

		mock.ExpectBegin()
		mock.ExpectQuery(lockSQL).WithArgs(userID).
			WillReturnRows(sqlmock.NewRows(cartColumns).AddRow(cartID.String(), userID.String(), []byte(`[]`), now, now))
		mock.ExpectRollback()

		// Act
		cart, err := repo.WithCartLock(t.Context(), userID, false, func(*models.Cart) error { return mutationErr })

		// Assert
		require.ErrorIs(t, err, mutationErr)
		assert.Nil(t, cart)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Insert failure rolls back", func(t *testing.T) {
		// Arrange
		repo, mock := setupCartRepoTest(t)

		mock.ExpectBegin()
		mock.ExpectExec(insertSQL).WithArgs(sqlmock.AnyArg(), userID).WillReturnError(errors.New("connection reset"))
		mock.ExpectRollback()

		// Act
		_, err := repo.WithCartLock(t.Context(), userID, true, appendItem)

		// Assert
		require.Error(t, err)
		assert.ErrorContains(t, err, "failed to create cart")
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Deadline surfaces as context error", func(t *testing.T) {
		// Arrange
		repo, mock := setupCartRepoTest(t)

		mock.ExpectBegin()
		mock.ExpectQuery(lockSQL).WithArgs(userID).WillReturnError(context.DeadlineExceeded)
		mock.ExpectRollback()

		// Act
		_, err := repo.WithCartLock(t.Context(), userID, false, appendItem)

		// Assert
		require.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestDeleteCart(t *testing.T) {
	userID := uuid.New()

	t.Run("Deleted", func(t *testing.T) {
		repo, mock := setupCartRepoTest(t)
		mock.ExpectExec(`DELETE FROM carts WHERE user_id = \$1`).WithArgs(userID).WillReturnResult(sqlmock.NewResult(0, 1))

		deleted, err := repo.DeleteCart(t.Context(), userID)

		require.NoError(t, err)
		assert.Equal(t, int64(1), deleted)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Nothing to delete", func(t *testing.T) {
		repo, mock := setupCartRepoTest(t)
		mock.ExpectExec(`DELETE FROM carts WHERE user_id = \$1`).WithArgs(userID).WillReturnResult(sqlmock.NewResult(0, 0))

		deleted, err := repo.DeleteCart(t.Context(), userID)

		require.NoError(t, err)
		assert.Equal(t, int64(0), deleted)
	})

	t.Run("Database error", func(t *testing.T) {
		repo, mock := setupCartRepoTest(t)
		mock.ExpectExec(`DELETE FROM carts`).WithArgs(userID).WillReturnError(errors.New("db down"))

		_, err := repo.DeleteCart(t.Context(), userID)

		require.Error(t, err)
		assert.ErrorContains(t, err, "failed to delete the cart")
	})
}
