package apierror

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCategory_Status(t *testing.T) {
	t.Parallel()

	tests := []struct {
		category Category
		want     int
	}{
		{CategoryValidation, http.StatusBadRequest},
		{CategoryUnauthorized, http.StatusUnauthorized},
		{CategoryNotFound, http.StatusNotFound},
		{CategoryMethodNotAllowed, http.StatusMethodNotAllowed},
		{CategoryPayloadTooLarge, http.StatusRequestEntityTooLarge},
		{CategoryRateLimited, http.StatusTooManyRequests},
		{CategoryUpstream, http.StatusInternalServerError},
		{CategoryInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(string(tt.category), func(t *testing.T) {
			t.Parallel()
			if got := tt.category.Status(); got != tt.want {
				t.Errorf("Status() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestWrite_Envelope(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/google", nil)
	Write(rec, req, BadUpstream("Search failed").WithDetails("unexpected body"))

	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body["error"] != "UpstreamFailure" {
		t.Errorf("error = %q, want UpstreamFailure", body["error"])
	}
	if body["message"] != "Search failed" || body["details"] != "unexpected body" {
		t.Errorf("unexpected envelope: %v", body)
	}
}

func TestWrite_WrappedAndForeignErrors(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection refused")
	wrapped := fmt.Errorf("handler: %w", NotFound("Short URL not found").Wrap(cause))

	rec := httptest.NewRecorder()
	Write(rec, httptest.NewRequest(http.MethodGet, "/", nil), wrapped)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	if !errors.Is(wrapped, cause) {
		t.Error("wrapped cause should be reachable via errors.Is")
	}

	rec = httptest.NewRecorder()
	Write(rec, httptest.NewRequest(http.MethodGet, "/", nil), errors.New("secret dsn"))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}

	var body map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	if body["error"] != "InternalFailure" {
		t.Errorf("error = %v, want InternalFailure", body["error"])
	}
	if _, ok := body["details"]; ok {
		t.Error("details must be omitted when empty")
	}
}
