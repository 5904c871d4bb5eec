package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aaravmahajanofficial/footwear-storefront/internal/api/handlers"
	"github.com/aaravmahajanofficial/footwear-storefront/internal/api/middleware"
	"github.com/aaravmahajanofficial/footwear-storefront/internal/cache"
	"github.com/aaravmahajanofficial/footwear-storefront/internal/config"
	"github.com/aaravmahajanofficial/footwear-storefront/internal/health"
	"github.com/aaravmahajanofficial/footwear-storefront/internal/metrics"
	"github.com/aaravmahajanofficial/footwear-storefront/internal/models"
	repository "github.com/aaravmahajanofficial/footwear-storefront/internal/repositories"
	service "github.com/aaravmahajanofficial/footwear-storefront/internal/services"
	"github.com/aaravmahajanofficial/footwear-storefront/internal/storage"
	"github.com/aaravmahajanofficial/footwear-storefront/internal/telemetry"
	"github.com/aaravmahajanofficial/footwear-storefront/internal/utils"
	"github.com/aaravmahajanofficial/footwear-storefront/pkg/events"
	"github.com/aaravmahajanofficial/footwear-storefront/pkg/sendgrid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	mongoDisconnectTimeout = 5 * time.Second
	hookTimeout            = 10 * time.Second
)

func main() {

	// Logger setup
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load config
	cfg := config.MustLoad()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_, shutdownTracer, err := telemetry.InitTracer(ctx, cfg.Otel, cfg.Env)
	if err != nil {
		slog.Error("❌ Error initialising tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			slog.Error("⚠️ Error flushing traces", slog.String("error", err.Error()))
		}
	}()

	utils.SetDBTimeout(cfg.Database.QueryTimeout)

	// Database setup
	db, repos, err := repository.New(ctx, cfg)
	if err != nil {
		slog.Error("❌ Error accessing the database", slog.String("error", err.Error()))
		os.Exit(1)
	}

	defer func() {
		if err := db.Close(); err != nil {
			slog.Error("⚠️ Error closing database connection", slog.String("error", err.Error()))
		} else {
			slog.Info("✅ Database connection closed")
		}
	}()

	if cfg.Database.AutoMigrate {
		if err := storage.RunMigrations(db.DB); err != nil {
			slog.Error("❌ Error applying migrations", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	// Redis setup
	redisClient, err := repository.NewRedisClient(ctx, &cfg.RedisConnect)
	if err != nil {
		slog.Error("❌ Error accessing the redis instance", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer redisClient.Close()

	// MongoDB setup
	mongoClient, err := repository.NewMongoClient(ctx, &cfg.Mongo)
	if err != nil {
		slog.Error("❌ Error accessing the image store", slog.String("error", err.Error()))
		os.Exit(1)
	}

	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), mongoDisconnectTimeout)
		defer cancel()

		if err := mongoClient.Disconnect(disconnectCtx); err != nil {
			slog.Error("⚠️ Error disconnecting from the image store", slog.String("error", err.Error()))
		}
	}()

	mergePolicy, err := models.ParseMergePolicy(cfg.Cart.MergePolicy)
	if err != nil {
		slog.Error("❌ Invalid cart configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	jwtKey := []byte(cfg.Security.JWTKey)
	responseCache := cache.NewRedisCache(redisClient, &cfg.Cache)
	rateLimitRepo := repository.NewRateLimitRepo(redisClient, &cfg.RateConfig)
	tokenRepo := repository.NewTokenRepo(redisClient)
	imageRepo := repository.NewImageRepo(mongoClient.Database(cfg.Mongo.Database))
	emailService := sendgrid.NewEmailService(cfg.SendGrid.APIKey, cfg.SendGrid.FromEmail, cfg.SendGrid.FromName)

	userService := service.NewUserService(repos.User, rateLimitRepo, tokenRepo, jwtKey, time.Duration(cfg.Security.JWTExpiryHours)*time.Hour)
	productService := service.NewProductService(repos.Product, repos.Category, imageRepo, responseCache)
	notificationService := service.NewNotificationService(repos.Notification, emailService)
	cartService := service.NewCartService(service.CartDeps{
		Carts:    repos.Cart,
		Products: repos.Product,
		Users:    repos.User,
		Images:   imageRepo,
		Cache:    responseCache,
	}, service.CartOptions{
		DefaultSize:  cfg.Cart.DefaultSize,
		DefaultColor: cfg.Cart.DefaultColor,
		MergePolicy:  mergePolicy,
		CacheTTL:     cfg.Cache.DefaultTTL,
	})

	// the cart is cleared before the response; email and events follow it
	orderHooks := service.NewHookRunner(hookTimeout, service.NewCartClearHook(cartService)).
		WithBackground(service.NewOrderConfirmationHook(repos.User, notificationService))

	if cfg.Kafka.Enabled {
		publisher := events.NewPublisher(events.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.OrderTopic))
		defer publisher.Close()

		orderHooks.WithBackground(service.NewOrderEventHook(publisher))
	}

	orderService := service.NewOrderService(repos.Order, repos.Product, orderHooks)

	userHandler := handlers.NewUserHandler(userService)
	productHandler := handlers.NewProductHandler(productService)
	cartHandler := handlers.NewCartHandler(cartService)
	orderHandler := handlers.NewOrderHandler(orderService)
	authMiddleware := middleware.NewAuthMiddleware(jwtKey, middleware.WithRevocationList(tokenRepo))

	healthHandler, err := health.NewHealthHandler(cfg)
	if err != nil {
		slog.Error("❌ Error creating health checks", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("storage initialized", slog.String("env", cfg.Env), slog.String("mergePolicy", string(mergePolicy)))

	// Setup router
	routerMux := http.NewServeMux()
	routerMux.HandleFunc("POST /api/v1/users/register", userHandler.Register())
	routerMux.HandleFunc("POST /api/v1/users/login", userHandler.Login())
	routerMux.HandleFunc("GET /api/v1/users/profile", authMiddleware.Authenticate(userHandler.Profile()))
	routerMux.HandleFunc("POST /api/v1/users/logout", authMiddleware.Authenticate(userHandler.Logout()))
	routerMux.HandleFunc("GET /api/v1/products", productHandler.ListProducts())
	routerMux.HandleFunc("GET /api/v1/products/{id}", productHandler.GetProduct())
	routerMux.HandleFunc("GET /api/v1/products/{id}/colors", productHandler.ColorsWithImages())
	routerMux.HandleFunc("GET /api/v1/products/{id}/images/{color}", productHandler.ImagesByColor())
	routerMux.HandleFunc("GET /api/v1/categories", productHandler.ListCategories())
	routerMux.HandleFunc("POST /api/v1/products", authMiddleware.AdminOnly(productHandler.CreateProduct()))
	routerMux.HandleFunc("PATCH /api/v1/products/{id}", authMiddleware.AdminOnly(productHandler.UpdateProduct()))
	routerMux.HandleFunc("DELETE /api/v1/products/{id}", authMiddleware.AdminOnly(productHandler.DeleteProduct()))
	routerMux.HandleFunc("POST /api/v1/cart/create-cart/user/{userId}/product/{productId}", authMiddleware.Authenticate(cartHandler.AddItem()))
	routerMux.HandleFunc("GET /api/v1/cart/get-cart/user/{userId}", authMiddleware.Authenticate(cartHandler.GetCart()))
	routerMux.HandleFunc("DELETE /api/v1/cart/delete-item/user/{userId}/product/{productId}", authMiddleware.Authenticate(cartHandler.RemoveItem()))
	routerMux.HandleFunc("GET /api/v1/cart/total-items/user/{userId}", authMiddleware.Authenticate(cartHandler.CountItems()))
	routerMux.HandleFunc("POST /api/v1/orders/create", authMiddleware.Authenticate(orderHandler.PlaceOrder()))
	routerMux.HandleFunc("GET /api/v1/orders/{id}", authMiddleware.Authenticate(orderHandler.GetOrder()))
	routerMux.HandleFunc("GET /api/v1/orders", authMiddleware.Authenticate(orderHandler.ListOrders()))
	routerMux.Handle("GET /health", healthHandler.Handler())
	routerMux.Handle("GET /metrics", metrics.Handler())

	// Middleware chaining, metrics must wrap the mux directly to see the matched pattern
	var handler http.Handler = routerMux
	handler = metrics.Middleware(handler)
	handler = middleware.Logging(handler)
	handler = otelhttp.NewHandler(handler, cfg.Otel.ServiceName)

	// Setup http server
	server := http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}

	slog.Info("🚀 Server is starting...", slog.String("address", cfg.Addr))

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("❌ Failed to start server", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()

	slog.Warn("🛑 Shutdown signal received. Preparing to stop the server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("⚠️ Server shutdown encountered an issue", slog.String("error", err.Error()))
	} else {
		slog.Info("✅ Server shut down gracefully. All connections closed.")
	}

	if err := orderHooks.Wait(shutdownCtx); err != nil {
		slog.Error("⚠️ Order follow-ups still running at shutdown", slog.String("error", err.Error()))
	}
}
