package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// MaxBodyBytes caps request bodies; cart and order payloads are far smaller.
const MaxBodyBytes = 1 << 20

func DecodeJSONBody(r *http.Request, dest any) error {

	defer r.Body.Close()

	body, err := io.ReadAll(io.LimitReader(r.Body, MaxBodyBytes+1))
	if err != nil {
		slog.Error("Failed to read request body", slog.String("error", err.Error()), slog.String("endpoint", r.URL.Path))
		return fmt.Errorf("failed to read request body: %w", err)
	}

	switch {
	case len(body) == 0:
		return errors.New("request body cannot be empty")
	case len(body) > MaxBodyBytes:
		return fmt.Errorf("request body exceeds %d bytes", MaxBodyBytes)
	}

	if err := json.Unmarshal(body, dest); err != nil {
		slog.Warn("Failed to parse request JSON", slog.String("error", err.Error()), slog.String("endpoint", r.URL.Path))
		return fmt.Errorf("invalid JSON format: %w", err)
	}

	return nil
}

func ValidateStruct(validate *validator.Validate, data any) error {

	err := validate.Struct(data)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		return fmt.Errorf("validation error: %w", validationErrs)
	}

	slog.Error("Unexpected validation error", slog.String("error", err.Error()))
	return fmt.Errorf("unexpected validation error: %w", err)
}
