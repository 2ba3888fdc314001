// Package apierror defines the uniform JSON error envelope returned by every
// endpoint: {"error":"<Category>","message":"...","details":"..."}.
package apierror

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/render"
)

// Category is the machine-readable error class.
type Category string

const (
	CategoryValidation       Category = "ValidationError"
	CategoryUnauthorized     Category = "Unauthorized"
	CategoryNotFound         Category = "NotFound"
	CategoryMethodNotAllowed Category = "MethodNotAllowed"
	CategoryPayloadTooLarge  Category = "PayloadTooLarge"
	CategoryRateLimited      Category = "RateLimited"
	CategoryUpstream         Category = "UpstreamFailure"
	CategoryInternal         Category = "InternalFailure"
)

// Status returns the default HTTP status for the category.
func (c Category) Status() int {
	switch c {
	case CategoryValidation:
		return http.StatusBadRequest
	case CategoryUnauthorized:
		return http.StatusUnauthorized
	case CategoryNotFound:
		return http.StatusNotFound
	case CategoryMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case CategoryPayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	case CategoryRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Error is an error that knows how to render itself as an envelope.
type Error struct {
	Category Category `json:"error"`
	Message  string   `json:"message"`
	Details  string   `json:"details,omitempty"`

	Status int   `json:"-"`
	Err    error `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Category, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Category, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Render implements render.Renderer.
func (e *Error) Render(_ http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.Status)
	return nil
}

// WithDetails attaches upstream diagnostic text.
func (e *Error) WithDetails(details string) *Error {
	e.Details = details
	return e
}

// Wrap records the underlying cause. The cause is never rendered.
func (e *Error) Wrap(err error) *Error {
	e.Err = err
	return e
}

// New creates an error with the category's default status.
func New(c Category, format string, args ...any) *Error {
	return &Error{Category: c, Status: c.Status(), Message: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...any) *Error {
	return New(CategoryValidation, format, args...)
}

func Unauthorized(format string, args ...any) *Error {
	return New(CategoryUnauthorized, format, args...)
}

func NotFound(format string, args ...any) *Error {
	return New(CategoryNotFound, format, args...)
}

func RateLimited(format string, args ...any) *Error {
	return New(CategoryRateLimited, format, args...)
}

// Upstream reports a failed call to an external collaborator.
func Upstream(format string, args ...any) *Error {
	return New(CategoryUpstream, format, args...)
}

// BadUpstream reports an upstream that answered with an unexpected shape.
func BadUpstream(format string, args ...any) *Error {
	e := New(CategoryUpstream, format, args...)
	e.Status = http.StatusBadGateway
	return e
}

func Internal(format string, args ...any) *Error {
	return New(CategoryInternal, format, args...)
}

// Write renders err as an envelope. Errors that are not *Error become a
// generic InternalFailure so internal text never leaks.
func Write(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		apiErr = Internal("An internal error occurred")
	}
	_ = render.Render(w, r, apiErr)
}
