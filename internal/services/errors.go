package service

import (
	"context"
	"errors"

	appErrors "github.com/aaravmahajanofficial/footwear-storefront/internal/errors"
	repository "github.com/aaravmahajanofficial/footwear-storefront/internal/repositories"
	"github.com/sony/gobreaker/v2"
)

// storeError translates a repository failure into the AppError returned to callers.
// AppErrors pass through untouched.
func storeError(err error, notFoundMsg, failureMsg string) error {
	if appErr, ok := appErrors.IsAppError(err); ok {
		return appErr
	}

	switch {
	case errors.Is(err, repository.ErrNotFound):
		return appErrors.NotFoundError(notFoundMsg).WithError(err)
	case errors.Is(err, context.DeadlineExceeded):
		return appErrors.TimeoutError("The request timed out").WithError(err)
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return appErrors.ServiceUnavailableError("A dependency is temporarily unavailable").WithError(err)
	default:
		return appErrors.DatabaseError(failureMsg).WithError(err)
	}
}
