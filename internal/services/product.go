package service

import (
	"context"
	"errors"
	"html"
	"log/slog"
	"strings"

	"github.com/aaravmahajanofficial/footwear-storefront/internal/api/middleware"
	"github.com/aaravmahajanofficial/footwear-storefront/internal/cache"
	appErrors "github.com/aaravmahajanofficial/footwear-storefront/internal/errors"
	"github.com/aaravmahajanofficial/footwear-storefront/internal/models"
	repository "github.com/aaravmahajanofficial/footwear-storefront/internal/repositories"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/sync/singleflight"
)

type ProductService interface {
	CreateProduct(ctx context.Context, req *models.CreateProductRequest) (*models.Product, error)
	GetProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	ListProducts(ctx context.Context, page, pageSize int) ([]*models.Product, int, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, req *models.UpdateProductRequest) (*models.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	ListCategories(ctx context.Context) ([]models.Category, error)
	ImagesByColor(ctx context.Context, id uuid.UUID, color string) ([]models.Image, error)
	ColorsWithImages(ctx context.Context, id uuid.UUID) ([]string, error)
}

type productService struct {
	repo       repository.ProductRepository
	categories repository.CategoryRepository
	images     repository.ImageRepository
	cache      cache.Cache
	group      singleflight.Group
	markup     *bluemonday.Policy
}

func NewProductService(repo repository.ProductRepository, categories repository.CategoryRepository, images repository.ImageRepository, cache cache.Cache) ProductService {
	return &productService{
		repo:       repo,
		categories: categories,
		images:     images,
		cache:      cache,
		markup:     bluemonday.StrictPolicy(),
	}
}

func productCacheKey(id uuid.UUID) string {
	return cache.Key(cache.ProductKeyPrefix, id.String())
}

func (s *productService) CreateProduct(ctx context.Context, req *models.CreateProductRequest) (*models.Product, error) {

	if req.Price == nil || req.Price.IsNegative() {
		return nil, appErrors.ValidationError("Price must be zero or positive")
	}

	product := &models.Product{
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		Price:       *req.Price,
		Sizes:       trimAll(req.Sizes),
		Colors:      trimAll(req.Colors),
		Stock:       req.Stock,
		CategoryID:  req.CategoryID,
	}

	if err := s.validate(product); err != nil {
		return nil, err
	}

	if err := s.repo.CreateProduct(ctx, product); err != nil {
		return nil, productWriteError(err, "Failed to create product")
	}

	return product, nil
}

func (s *productService) validate(product *models.Product) error {

	if product.Name == "" {
		return appErrors.ValidationError("Product name is required")
	}

	fields := append([]string{product.Name, product.Description}, product.Sizes...)
	fields = append(fields, product.Colors...)

	for _, field := range fields {
		if s.hasMarkup(field) {
			return appErrors.ValidationError("Product fields must not contain markup").WithDetail(field)
		}
	}

	return nil
}

// hasMarkup reports whether the strict policy would remove anything from value.
// Plain text only comes back entity-escaped, so unescaping restores it exactly.
func (s *productService) hasMarkup(value string) bool {
	return html.UnescapeString(s.markup.Sanitize(value)) != value
}

func trimAll(values []string) []string {
	trimmed := make([]string, 0, len(values))

	for _, v := range values {
		if t := strings.TrimSpace(v); t != "" {
			trimmed = append(trimmed, t)
		}
	}

	return trimmed
}

func productWriteError(err error, failureMsg string) error {
	if errors.Is(err, repository.ErrInvalidReference) {
		return appErrors.ValidationError("Category not found").WithError(err)
	}

	return storeError(err, "Product not found", failureMsg)
}

func (s *productService) GetProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {

	product, err := cache.ReadVersioned(ctx, s.cache, &s.group, productCacheKey(id), 0, func(ctx context.Context) (*models.Product, error) {
		return s.repo.GetProductByID(ctx, id)
	})
	if err != nil {
		return nil, storeError(err, "Product not found", "Failed to load product")
	}

	return product, nil
}

func (s *productService) ListProducts(ctx context.Context, page, pageSize int) ([]*models.Product, int, error) {

	p := models.NewPageRequest(page, pageSize, models.MaxProductPageSize)

	products, total, err := s.repo.ListProducts(ctx, p.Page, p.PageSize)
	if err != nil {
		return nil, 0, appErrors.DatabaseError("Failed to fetch products").WithError(err)
	}

	return products, total, nil
}

// UpdateProduct applies the fields present in req on top of the stored product.
func (s *productService) UpdateProduct(ctx context.Context, id uuid.UUID, req *models.UpdateProductRequest) (*models.Product, error) {

	if req == nil || req.IsEmpty() {
		return nil, appErrors.ValidationError("At least one field must be provided")
	}

	if req.Price != nil && req.Price.IsNegative() {
		return nil, appErrors.ValidationError("Price must be zero or positive")
	}

	product, err := s.repo.GetProductByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "Product not found", "Failed to load product")
	}

	if req.Name != nil {
		product.Name = strings.TrimSpace(*req.Name)
	}

	if req.Description != nil {
		product.Description = strings.TrimSpace(*req.Description)
	}

	if req.Price != nil {
		product.Price = *req.Price
	}

	if req.Sizes != nil {
		product.Sizes = trimAll(req.Sizes)
	}

	if req.Colors != nil {
		product.Colors = trimAll(req.Colors)
	}

	if req.Stock != nil {
		if *req.Stock < 0 {
			return nil, appErrors.ValidationError("Stock must be zero or positive")
		}

		product.Stock = *req.Stock
	}

	if req.CategoryID != nil {
		product.CategoryID = req.CategoryID
	}

	if err := s.validate(product); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateProduct(ctx, product); err != nil {
		return nil, productWriteError(err, "Failed to update product")
	}

	s.invalidate(ctx, id)

	return product, nil
}

func (s *productService) DeleteProduct(ctx context.Context, id uuid.UUID) error {

	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		return storeError(err, "Product not found", "Failed to remove product")
	}

	s.invalidate(ctx, id)

	return nil
}

func (s *productService) invalidate(ctx context.Context, id uuid.UUID) {
	if err := cache.Invalidate(ctx, s.cache, productCacheKey(id)); err != nil {
		middleware.LoggerFromContext(ctx).Warn("Failed to invalidate product cache", slog.String("productId", id.String()), slog.Any("error", err))
	}
}

func (s *productService) ListCategories(ctx context.Context) ([]models.Category, error) {

	categories, err := s.categories.ListCategories(ctx)
	if err != nil {
		return nil, storeError(err, "Categories not found", "Failed to fetch categories")
	}

	return categories, nil
}

func (s *productService) ImagesByColor(ctx context.Context, id uuid.UUID, color string) ([]models.Image, error) {

	color = strings.TrimSpace(color)
	if color == "" {
		return nil, appErrors.ValidationError("Color is required")
	}

	images, err := s.images.FindImagesByColor(ctx, id, color)
	if err != nil {
		return nil, appErrors.ThirdPartyError("Failed to load product images").WithError(err)
	}

	if len(images) == 0 {
		return nil, appErrors.NotFoundError("No images found for this color")
	}

	return images, nil
}

func (s *productService) ColorsWithImages(ctx context.Context, id uuid.UUID) ([]string, error) {

	colors, err := s.images.ColorsWithImages(ctx, id)
	if err != nil {
		return nil, appErrors.ThirdPartyError("Failed to load product colors").WithError(err)
	}

	return colors, nil
}
