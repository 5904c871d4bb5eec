package service

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/aaravmahajanofficial/footwear-storefront/internal/api/middleware"
	"github.com/aaravmahajanofficial/footwear-storefront/internal/cache"
	appErrors "github.com/aaravmahajanofficial/footwear-storefront/internal/errors"
	"github.com/aaravmahajanofficial/footwear-storefront/internal/metrics"
	"github.com/aaravmahajanofficial/footwear-storefront/internal/models"
	repository "github.com/aaravmahajanofficial/footwear-storefront/internal/repositories"
	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/sync/singleflight"
)

const imageBreakerName = "image-store"

var errItemNotInCart = errors.New("item not in cart")

// ErrNothingToClear is wrapped by ClearCart when the owner had no cart row.
var ErrNothingToClear = errors.New("no cart to clear")

type CartService interface {
	AddOrUpdateItem(ctx context.Context, ownerID, productID uuid.UUID, req *models.AddCartItemRequest) (*models.Cart, error)
	GetCart(ctx context.Context, ownerID uuid.UUID) (*models.EnrichedCart, error)
	RemoveItem(ctx context.Context, ownerID, productID uuid.UUID) (*models.Cart, error)
	ClearCart(ctx context.Context, ownerID uuid.UUID) error
	CountItems(ctx context.Context, ownerID uuid.UUID) (int, error)
}

type CartOptions struct {
	DefaultSize  string
	DefaultColor string
	MergePolicy  models.MergePolicy
	CacheTTL     time.Duration
	// Breaker overrides the image store circuit breaker settings; zero means defaults.
	Breaker gobreaker.Settings
}

type CartDeps struct {
	Carts    repository.CartRepository
	Products repository.ProductRepository
	Users    repository.UserRepository
	Images   repository.ImageRepository
	Cache    cache.Cache
}

type cartService struct {
	carts    repository.CartRepository
	products repository.ProductRepository
	users    repository.UserRepository
	images   repository.ImageRepository
	cache    cache.Cache
	group    singleflight.Group
	breaker  *gobreaker.CircuitBreaker[[]models.Image]
	opts     CartOptions
}

func NewCartService(deps CartDeps, opts CartOptions) CartService {

	if opts.DefaultSize == "" {
		opts.DefaultSize = "39"
	}

	if opts.DefaultColor == "" {
		opts.DefaultColor = "Black"
	}

	if opts.MergePolicy == "" {
		opts.MergePolicy = models.MergeOverwrite
	}

	return &cartService{
		carts:    deps.Carts,
		products: deps.Products,
		users:    deps.Users,
		images:   deps.Images,
		cache:    deps.Cache,
		breaker:  gobreaker.NewCircuitBreaker[[]models.Image](breakerSettings(opts.Breaker)),
		opts:     opts,
	}
}

func breakerSettings(s gobreaker.Settings) gobreaker.Settings {
	if s.Name == "" {
		s.Name = imageBreakerName
	}

	if s.Interval == 0 {
		s.Interval = time.Minute
	}

	if s.Timeout == 0 {
		s.Timeout = 30 * time.Second
	}

	if s.ReadyToTrip == nil {
		s.ReadyToTrip = func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		}
	}

	if s.OnStateChange == nil {
		s.OnStateChange = func(name string, from, to gobreaker.State) {
			slog.Warn("Circuit breaker state changed", slog.String("name", name),
				slog.String("from", from.String()), slog.String("to", to.String()))
			metrics.SetBreakerState(name, int(to))
		}
	}

	return s
}

func cartCacheKey(ownerID uuid.UUID) string {
	return cache.Key(cache.CartKeyPrefix, ownerID.String())
}

func (s *cartService) AddOrUpdateItem(ctx context.Context, ownerID, productID uuid.UUID, req *models.AddCartItemRequest) (*models.Cart, error) {

	if req == nil || req.Quantity < 1 {
		return nil, appErrors.ValidationError("Quantity must be at least 1")
	}

	if _, err := s.users.GetUserByID(ctx, ownerID); err != nil {
		return nil, storeError(err, "User not found", "Failed to load user")
	}

	if _, err := s.products.GetProductByID(ctx, productID); err != nil {
		return nil, storeError(err, "Product not found", "Failed to load product")
	}

	incoming := models.CartItem{
		ProductID: productID,
		Quantity:  req.Quantity,
		Size:      defaultIfBlank(req.Size, s.opts.DefaultSize),
		Color:     defaultIfBlank(req.Color, s.opts.DefaultColor),
	}

	cart, err := s.carts.WithCartLock(ctx, ownerID, true, func(cart *models.Cart) error {
		cart.Items = reconcileItem(cart.Items, incoming, s.opts.MergePolicy)
		return nil
	})
	if err != nil {
		return nil, storeError(err, "Cart not found", "Failed to update cart")
	}

	s.invalidate(ctx, ownerID)
	metrics.RecordCartMutation("add_item")

	return cart, nil
}

// reconcileItem applies incoming to items: a line with the same product, size
// and color has its quantity merged by policy, otherwise incoming is appended.
func reconcileItem(items []models.CartItem, incoming models.CartItem, policy models.MergePolicy) []models.CartItem {

	key := incoming.Key()

	for i := range items {
		if items[i].Key() == key {
			items[i].Quantity = policy.Merge(items[i].Quantity, incoming.Quantity)
			return items
		}
	}

	return append(items, incoming)
}

func defaultIfBlank(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}

	return fallback
}

func (s *cartService) GetCart(ctx context.Context, ownerID uuid.UUID) (*models.EnrichedCart, error) {

	cart, err := s.loadCart(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	if cart == nil {
		empty := ProjectCartForDisplay(nil, nil, nil)
		empty.UserID = ownerID

		return empty, nil
	}

	ids := distinctProductIDs(cart.Items)

	products, err := s.products.GetProductsByIDs(ctx, ids)
	if err != nil {
		return nil, storeError(err, "Product not found", "Failed to load cart products")
	}

	images, err := s.breaker.Execute(func() ([]models.Image, error) {
		return s.images.FindImagesForProducts(ctx, ids)
	})
	if err != nil {
		middleware.LoggerFromContext(ctx).Warn("Serving cart without images", slog.String("userId", ownerID.String()), slog.Any("error", err))
		images = nil
	}

	return ProjectCartForDisplay(cart, products, images), nil
}

// loadCart returns nil without error when the owner has no cart.
func (s *cartService) loadCart(ctx context.Context, ownerID uuid.UUID) (*models.Cart, error) {

	load := func(ctx context.Context) (*models.Cart, error) {
		cart, err := s.carts.GetCartByUserID(ctx, ownerID)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}

		return cart, err
	}

	cart, err := cache.ReadVersioned(ctx, s.cache, &s.group, cartCacheKey(ownerID), s.opts.CacheTTL, load)
	if err != nil {
		return nil, storeError(err, "Cart not found", "Failed to load cart")
	}

	return cart, nil
}

func distinctProductIDs(items []models.CartItem) []uuid.UUID {

	seen := make(map[uuid.UUID]struct{}, len(items))
	ids := make([]uuid.UUID, 0, len(items))

	for _, item := range items {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}

		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}

	return ids
}

func (s *cartService) RemoveItem(ctx context.Context, ownerID, productID uuid.UUID) (*models.Cart, error) {

	cart, err := s.carts.WithCartLock(ctx, ownerID, false, func(cart *models.Cart) error {
		// size and color are not part of the match: the first line for the product goes
		idx := slices.IndexFunc(cart.Items, func(item models.CartItem) bool {
			return item.ProductID == productID
		})
		if idx < 0 {
			return errItemNotInCart
		}

		cart.Items = slices.Delete(cart.Items, idx, idx+1)

		return nil
	})
	if err != nil {
		if errors.Is(err, errItemNotInCart) {
			return nil, appErrors.NotFoundError("Item not found in cart").WithError(err)
		}

		return nil, storeError(err, "Cart not found", "Failed to update cart")
	}

	s.invalidate(ctx, ownerID)
	metrics.RecordCartMutation("remove_item")

	return cart, nil
}

func (s *cartService) ClearCart(ctx context.Context, ownerID uuid.UUID) error {

	deleted, err := s.carts.DeleteCart(ctx, ownerID)
	if err != nil {
		return storeError(err, "Cart not found", "Failed to clear cart")
	}

	s.invalidate(ctx, ownerID)

	if deleted == 0 {
		return appErrors.InternalError("cart clear affected no rows").WithError(ErrNothingToClear)
	}

	metrics.RecordCartMutation("clear")

	return nil
}

func (s *cartService) CountItems(ctx context.Context, ownerID uuid.UUID) (int, error) {

	cart, err := s.loadCart(ctx, ownerID)
	if err != nil {
		return 0, err
	}

	return cart.TotalQuantity(), nil
}

// invalidate retires the cached cart after a committed write. Loads that were
// already in flight store under the retired generation and are never read.
// A failed bump leaves the old entry in place until its TTL runs out.
func (s *cartService) invalidate(ctx context.Context, ownerID uuid.UUID) {
	if err := cache.Invalidate(ctx, s.cache, cartCacheKey(ownerID)); err != nil {
		middleware.LoggerFromContext(ctx).Warn("Failed to invalidate cart cache", slog.String("userId", ownerID.String()), slog.Any("error", err))
	}
}
