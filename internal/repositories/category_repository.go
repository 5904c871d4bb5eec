package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/aaravmahajanofficial/footwear-storefront/internal/models"
	"github.com/aaravmahajanofficial/footwear-storefront/internal/utils"
	"github.com/google/uuid"
)

type CategoryRepository interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
}

type categoryRepository struct {
	DB *sql.DB
}

func NewCategoryRepo(db *sql.DB) CategoryRepository {
	return &categoryRepository{DB: db}
}

// ListCategories returns top-level categories first, then children, each group by name.
func (r *categoryRepository) ListCategories(ctx context.Context) ([]models.Category, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		SELECT id, name, description, parent_id
		FROM categories
		ORDER BY parent_id NULLS FIRST, name, id`

	rows, err := r.DB.QueryContext(dbCtx, query)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	defer rows.Close()

	categories := []models.Category{}

	for rows.Next() {
		var (
			category models.Category
			parent   uuid.NullUUID
		)

		if err := rows.Scan(&category.ID, &category.Name, &category.Description, &parent); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}

		if parent.Valid {
			category.ParentID = &parent.UUID
		}

		categories = append(categories, category)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating categories: %w", err)
	}

	return categories, nil
}
