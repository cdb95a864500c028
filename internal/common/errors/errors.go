package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound      = errors.New("resource not found")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrBadRequest    = errors.New("bad request")
	ErrConflict      = errors.New("conflict")
	ErrRateLimited   = errors.New("rate limited")
	ErrInternalError = errors.New("internal error")
)

type AppError struct {
	Status  int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(status int, message string, err error) *AppError {
	return &AppError{
		Status:  status,
		Message: message,
		Err:     err,
	}
}

func NotFound(message string) *AppError {
	return &AppError{
		Status:  http.StatusNotFound,
		Message: message,
		Err:     ErrNotFound,
	}
}

func Unauthorized(message string) *AppError {
	return &AppError{
		Status:  http.StatusUnauthorized,
		Message: message,
		Err:     ErrUnauthorized,
	}
}

func Forbidden(message string) *AppError {
	return &AppError{
		Status:  http.StatusForbidden,
		Message: message,
		Err:     ErrForbidden,
	}
}

func BadRequest(message string) *AppError {
	return &AppError{
		Status:  http.StatusBadRequest,
		Message: message,
		Err:     ErrBadRequest,
	}
}

func Conflict(message string) *AppError {
	return &AppError{
		Status:  http.StatusConflict,
		Message: message,
		Err:     ErrConflict,
	}
}

func RateLimited(message string) *AppError {
	return &AppError{
		Status:  http.StatusTooManyRequests,
		Message: message,
		Err:     ErrRateLimited,
	}
}

func Internal(message string, err error) *AppError {
	return &AppError{
		Status:  http.StatusInternalServerError,
		Message: message,
		Err:     err,
	}
}

func Unavailable(message string, err error) *AppError {
	return &AppError{
		Status:  http.StatusServiceUnavailable,
		Message: message,
		Err:     err,
	}
}

type errorBody struct {
	Error string `json:"error"`
}

// WriteHTTP renders err as the JSON error body all handlers use.
// Non-AppError values are masked as a generic 500.
func WriteHTTP(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "internal error"

	var appErr *AppError
	if errors.As(err, &appErr) {
		status = appErr.Status
		message = appErr.Message
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Error: message})
}

// FromResponse reconstructs an AppError from a non-2xx API response body,
// so clients observe the same taxonomy the server produced.
func FromResponse(status int, body []byte) *AppError {
	var parsed errorBody
	message := http.StatusText(status)
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error != "" {
		message = parsed.Error
	}

	var sentinel error
	switch status {
	case http.StatusNotFound:
		sentinel = ErrNotFound
	case http.StatusUnauthorized:
		sentinel = ErrUnauthorized
	case http.StatusForbidden:
		sentinel = ErrForbidden
	case http.StatusBadRequest:
		sentinel = ErrBadRequest
	case http.StatusConflict:
		sentinel = ErrConflict
	case http.StatusTooManyRequests:
		sentinel = ErrRateLimited
	default:
		sentinel = ErrInternalError
	}

	return &AppError{
		Status:  status,
		Message: message,
		Err:     sentinel,
	}
}

func IsNotFound(err error) bool {
	return is(err, http.StatusNotFound, ErrNotFound)
}

func IsForbidden(err error) bool {
	return is(err, http.StatusForbidden, ErrForbidden)
}

func IsRateLimited(err error) bool {
	return is(err, http.StatusTooManyRequests, ErrRateLimited)
}

func IsBadRequest(err error) bool {
	return is(err, http.StatusBadRequest, ErrBadRequest)
}

func is(err error, status int, sentinel error) bool {
	if err == nil {
		return false
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		if appErr.Status == status {
			return true
		}
		return errors.Is(appErr.Err, sentinel)
	}

	return errors.Is(err, sentinel)
}
