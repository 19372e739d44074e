// Package apperr defines the error taxonomy shared by the back-office
// services and its mapping onto HTTP responses.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

var (
	// ErrNotFound is returned when a record id has no persisted entry.
	ErrNotFound = errors.New("not found")
	// ErrValidation is returned when a required field is empty on a create form.
	ErrValidation = errors.New("validation failed")
	// ErrPersistence is returned when a key-value write did not complete.
	ErrPersistence = errors.New("persistence failure")
	// ErrConflict is returned when an edit session does not belong to the
	// record it is used against, or is in the wrong state.
	ErrConflict = errors.New("conflict")
)

// FieldError names a single offending field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries the field errors of a rejected form.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Required builds a ValidationError for the given empty required fields.
func Required(fields ...string) error {
	ve := &ValidationError{}
	for _, f := range fields {
		ve.Fields = append(ve.Fields, FieldError{Field: f, Message: "is required"})
	}
	return ve
}

// NotFound wraps ErrNotFound with the kind and id of the missing record.
func NotFound(kind, id string) error {
	return fmt.Errorf("%s %q: %w", kind, id, ErrNotFound)
}

// Conflict wraps ErrConflict with msg.
func Conflict(msg string) error {
	return fmt.Errorf("%s: %w", msg, ErrConflict)
}

// Persistence wraps a store error so callers can match ErrPersistence.
func Persistence(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrPersistence, err)
}

// HTTPStatus maps an error onto a response status code.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrPersistence):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// ToHTTP converts err into an echo.HTTPError. Validation errors keep their
// field list in the response body.
func ToHTTP(err error) *echo.HTTPError {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, map[string]interface{}{
			"message": "validation failed",
			"fields":  ve.Fields,
		})
	}
	return echo.NewHTTPError(HTTPStatus(err), err.Error())
}
