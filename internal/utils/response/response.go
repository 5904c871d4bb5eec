package response

import (
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"

	"github.com/aaravmahajanofficial/footwear-storefront/internal/errors"
	"github.com/go-playground/validator/v10"
)

type APIResponse struct {
	Success bool           `json:"success"`
	Data    any            `json:"data,omitempty"`
	Error   *ErrorResponse `json:"error,omitempty"`
}

type ErrorResponse struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

func WriteJson(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

func Success(w http.ResponseWriter, statusCode int, data any) {
	_ = WriteJson(w, statusCode, APIResponse{Success: true, Data: data})
}

// Error renders err as the failure envelope. Anything that is not an AppError
// is reported as a 500 without leaking its text.
func Error(w http.ResponseWriter, err error) {

	statusCode := http.StatusInternalServerError
	errorResponse := &ErrorResponse{
		Code:    errors.ErrCodeInternal,
		Message: "An unexpected error occurred",
	}

	if appErr, ok := errors.IsAppError(err); ok {
		statusCode = appErr.StatusCode
		errorResponse = &ErrorResponse{Code: appErr.Code, Message: appErr.Message}

		if appErr.Detail != "" {
			errorResponse.Details = []string{appErr.Detail}
		}
	}

	_ = WriteJson(w, statusCode, APIResponse{Success: false, Error: errorResponse})
}

// ValidationError sends one readable message per failed field.
func ValidationError(w http.ResponseWriter, errs validator.ValidationErrors) {

	errMsgs := make([]string, 0, len(errs))
	for _, err := range errs {
		errMsgs = append(errMsgs, fieldMessage(err))
	}

	_ = WriteJson(w, http.StatusBadRequest, APIResponse{
		Success: false,
		Error: &ErrorResponse{
			Code:    errors.ErrCodeValidation,
			Message: "Validation failed",
			Details: errMsgs,
		},
	})
}

func fieldMessage(err validator.FieldError) string {

	// min/max mean length for strings and slices, magnitude for numbers
	unit := ""
	switch err.Kind() {
	case reflect.String:
		unit = " characters"
	case reflect.Slice, reflect.Array, reflect.Map:
		unit = " items"
	}

	switch err.Tag() {
	case "required":
		return fmt.Sprintf("Field %s is required", err.Field())
	case "email":
		return fmt.Sprintf("Field %s must be a valid email address", err.Field())
	case "min":
		return fmt.Sprintf("Field %s must be at least %s%s", err.Field(), err.Param(), unit)
	case "max":
		return fmt.Sprintf("Field %s must be at most %s%s", err.Field(), err.Param(), unit)
	case "gt", "gte":
		return fmt.Sprintf("Field %s must be %s %s", err.Field(), comparison(err.Tag()), err.Param())
	case "lt", "lte":
		return fmt.Sprintf("Field %s must be %s %s", err.Field(), comparison(err.Tag()), err.Param())
	default:
		return fmt.Sprintf("Field %s is invalid: %s=%s", err.Field(), err.Tag(), err.Param())
	}
}

func comparison(tag string) string {
	switch tag {
	case "gt":
		return "greater than"
	case "gte":
		return "at least"
	case "lt":
		return "less than"
	default:
		return "at most"
	}
}
