package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nightapi/nightapi/internal/apierror"
	"github.com/nightapi/nightapi/internal/model"
	"github.com/nightapi/nightapi/internal/shortlink"
	"github.com/nightapi/nightapi/internal/store"
)

// LinkHandler handles URL shortening and redirects.
type LinkHandler struct {
	svc     *shortlink.Service
	baseURL string
	logger  *slog.Logger
}

// NewLinkHandler creates a LinkHandler. An empty baseURL derives short URLs
// from the request.
func NewLinkHandler(svc *shortlink.Service, baseURL string, logger *slog.Logger) *LinkHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &LinkHandler{svc: svc, baseURL: baseURL, logger: logger.With("component", "link")}
}

// LinkResponse is the shape of a short URL in API responses.
type LinkResponse struct {
	OriginalURL string    `json:"original_url"`
	ShortURL    string    `json:"short_url"`
	Code        string    `json:"code"`
	CreatedAt   time.Time `json:"created_at"`
	Clicks      int64     `json:"clicks"`
}

func (h *LinkHandler) toResponse(r *http.Request, link *model.ShortURL) LinkResponse {
	return LinkResponse{
		OriginalURL: link.OriginalURL,
		ShortURL:    shortlink.ShortURL(requestBaseURL(r, h.baseURL), link.Code),
		Code:        link.Code,
		CreatedAt:   link.CreatedAt.UTC(),
		Clicks:      link.Clicks,
	}
}

type shortenInput struct {
	URL        string `json:"url" validate:"required"`
	CustomCode string `json:"customCode" validate:"omitempty,min=3,max=20"`
}

type codeInput struct {
	Code string `json:"code" validate:"required,min=3,max=20"`
}

// Shorten creates a short URL.
//
// GET /api/url/shorten
func (h *LinkHandler) Shorten(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	in := shortenInput{URL: q.Get("url"), CustomCode: q.Get("customCode")}
	if apiErr := validateInput(in); apiErr != nil {
		apierror.Write(w, r, apiErr)
		return
	}

	link, err := h.svc.Shorten(r.Context(), in.URL, in.CustomCode)
	if err != nil {
		apierror.Write(w, r, h.mapError(err, "Failed to shorten URL"))
		return
	}

	writeJSON(w, r, http.StatusOK, h.toResponse(r, link))
}

// Info returns a short URL's details without counting a click.
//
// GET /api/url/info
func (h *LinkHandler) Info(w http.ResponseWriter, r *http.Request) {
	in := codeInput{Code: r.URL.Query().Get("code")}
	if apiErr := validateInput(in); apiErr != nil {
		apierror.Write(w, r, apiErr)
		return
	}

	link, err := h.svc.Info(r.Context(), in.Code)
	if err != nil {
		apierror.Write(w, r, h.mapError(err, "Failed to load short URL"))
		return
	}

	writeJSON(w, r, http.StatusOK, h.toResponse(r, link))
}

// Redirect counts a click and redirects to the original URL.
//
// GET /s/{code}
func (h *LinkHandler) Redirect(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if code == "" {
		apierror.Write(w, r, apierror.NotFound("Short URL not found"))
		return
	}

	link, err := h.svc.Resolve(r.Context(), code)
	if err != nil {
		apierror.Write(w, r, h.mapError(err, "Failed to resolve short URL"))
		return
	}

	w.Header().Set("Cache-Control", "private, max-age=0")
	http.Redirect(w, r, link.OriginalURL, http.StatusFound)
}

func (h *LinkHandler) mapError(err error, message string) *apierror.Error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return apierror.NotFound("Short URL not found")
	case errors.Is(err, store.ErrCodeTaken):
		return apierror.Validation("Custom code already in use")
	case errors.Is(err, shortlink.ErrInvalidURL),
		errors.Is(err, shortlink.ErrURLTooLong),
		errors.Is(err, shortlink.ErrUnsafeURL):
		return apierror.Validation("url: %s", err.Error()).Wrap(err)
	case errors.Is(err, shortlink.ErrInvalidCode),
		errors.Is(err, shortlink.ErrCodeReserved):
		return apierror.Validation("customCode: %s", err.Error()).Wrap(err)
	default:
		h.logger.Error(message, slog.String("error", err.Error()))
		return apierror.Internal("%s", message).Wrap(err)
	}
}
