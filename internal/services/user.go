package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/aaravmahajanofficial/footwear-storefront/internal/api/middleware"
	appErrors "github.com/aaravmahajanofficial/footwear-storefront/internal/errors"
	"github.com/aaravmahajanofficial/footwear-storefront/internal/models"
	repository "github.com/aaravmahajanofficial/footwear-storefront/internal/repositories"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type UserService interface {
	Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error)
	Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	Logout(ctx context.Context, claims *models.Claims) error
}

type userService struct {
	repo      repository.UserRepository
	rateLimit repository.RateLimitRepository
	tokens    repository.TokenRepository
	jwtKey    []byte
	tokenTTL  time.Duration
	now       func() time.Time
}

func NewUserService(repo repository.UserRepository, rateLimit repository.RateLimitRepository, tokens repository.TokenRepository, jwtKey []byte, tokenTTL time.Duration) UserService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}

	return &userService{
		repo:      repo,
		rateLimit: rateLimit,
		tokens:    tokens,
		jwtKey:    jwtKey,
		tokenTTL:  tokenTTL,
		now:       time.Now,
	}
}

func (s *userService) Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {

	email := strings.ToLower(strings.TrimSpace(req.Email))

	existingUser, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, storeError(err, "User not found", "Failed to check existing user")
	}

	if existingUser != nil {
		return nil, appErrors.DuplicateEntryError("Email already registered")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.InternalError("Failed to secure password").WithError(err)
	}

	// admins are promoted out of band, never through self-registration
	user := &models.User{
		Name:     strings.TrimSpace(req.Name),
		Email:    email,
		Password: string(hashedPassword),
		Role:     models.RoleCustomer,
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, appErrors.DatabaseError("Failed to create user").WithError(err)
	}

	return user, nil
}

func (s *userService) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error) {

	logger := middleware.LoggerFromContext(ctx)
	email := strings.ToLower(strings.TrimSpace(req.Email))

	allowed, remaining, retryAfter, err := s.rateLimit.CheckLoginRateLimit(ctx, email)
	if err != nil {
		return nil, appErrors.ThirdPartyError("Rate limit check failed").WithError(err)
	}

	if !allowed {
		return &models.LoginResponse{
			Success:    false,
			Message:    "Too many login attempts. Please try again later.",
			RetryAfter: retryAfter,
		}, nil
	}

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, storeError(err, "User not found", "Failed to load user")
	}

	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		return &models.LoginResponse{
			Success:        false,
			Message:        "Invalid email or password",
			RemainingTries: remaining,
		}, nil
	}

	if err := s.rateLimit.ResetLoginAttempts(ctx, email); err != nil {
		logger.Warn("Failed to reset login attempts", slog.String("email", email), slog.Any("error", err))
	}

	now := s.now()

	claims := &models.Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(s.jwtKey)
	if err != nil {
		return nil, appErrors.InternalError("Failed to generate authentication token").WithError(err)
	}

	return &models.LoginResponse{
		Success:   true,
		Token:     tokenString,
		ExpiresIn: int(s.tokenTTL.Seconds()),
	}, nil
}

func (s *userService) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {

	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "User not found", "Failed to load user")
	}

	return user, nil
}

// Logout revokes the presented token for the rest of its lifetime.
func (s *userService) Logout(ctx context.Context, claims *models.Claims) error {

	if claims == nil || claims.ID == "" {
		return appErrors.BadRequestError("Token cannot be revoked")
	}

	if claims.ExpiresAt == nil {
		return appErrors.BadRequestError("Token has no expiry")
	}

	ttl := claims.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		// already unusable
		return nil
	}

	if err := s.tokens.RevokeToken(ctx, claims.ID, ttl); err != nil {
		return appErrors.ThirdPartyError("Failed to log out").WithError(err)
	}

	middleware.LoggerFromContext(ctx).Info("Token revoked", slog.String("userId", claims.UserID.String()))

	return nil
}
