package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/nightapi/nightapi/internal/apierror"
	"github.com/nightapi/nightapi/internal/provider"
)

const defaultGIFLimit = 5

// GIFSource searches animated GIFs and emoji combinations.
type GIFSource interface {
	Search(ctx context.Context, query string, limit int) ([]provider.GIF, error)
	Random(ctx context.Context, query string) (provider.GIF, error)
	Mix(ctx context.Context, emoji1, emoji2 string) ([]provider.EmojiMix, error)
}

// GIFHandler serves GIF search and emoji mixing.
type GIFHandler struct {
	gifs   GIFSource
	logger *slog.Logger
}

// NewGIFHandler creates a GIFHandler.
func NewGIFHandler(gifs GIFSource, logger *slog.Logger) *GIFHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &GIFHandler{gifs: gifs, logger: logger.With("component", "gif")}
}

type gifSearchInput struct {
	Query string `json:"query" validate:"required,min=1,max=200"`
	Limit int    `json:"limit" validate:"gte=1,lte=50"`
}

type gifSearchResponse struct {
	Success bool           `json:"success"`
	Query   string         `json:"query"`
	Results []provider.GIF `json:"results"`
}

type randomGIFResponse struct {
	Success bool   `json:"success"`
	Query   string `json:"query"`
	provider.GIF
}

type emojiMixInput struct {
	Emoji1 string `json:"emoji1" validate:"required,min=1,max=4"`
	Emoji2 string `json:"emoji2" validate:"required,min=1,max=4"`
}

type emojiMixResponse struct {
	Success bool                `json:"success"`
	Emoji1  string              `json:"emoji1"`
	Emoji2  string              `json:"emoji2"`
	Results []provider.EmojiMix `json:"results"`
}

// Search lists GIFs matching a query.
//
// GET /api/gif/search
func (h *GIFHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, apiErr := queryInt(q, "limit", defaultGIFLimit)
	if apiErr != nil {
		apierror.Write(w, r, apiErr)
		return
	}
	in := gifSearchInput{Query: q.Get("query"), Limit: limit}
	if apiErr := validateInput(in); apiErr != nil {
		apierror.Write(w, r, apiErr)
		return
	}

	gifs, err := h.gifs.Search(r.Context(), in.Query, in.Limit)
	if err != nil {
		if errors.Is(err, provider.ErrNoResults) {
			apierror.Write(w, r, apierror.NotFound("No GIFs found for this query"))
			return
		}
		apierror.Write(w, r, upstreamError(h.logger, err, "Failed to search for GIFs"))
		return
	}

	writeJSON(w, r, http.StatusOK, gifSearchResponse{Success: true, Query: in.Query, Results: gifs})
}

// Random returns one GIF picked at random from the top matches.
//
// GET /api/gif/random
func (h *GIFHandler) Random(w http.ResponseWriter, r *http.Request) {
	in := gifSearchInput{Query: r.URL.Query().Get("query"), Limit: 1}
	if apiErr := validateInput(in); apiErr != nil {
		apierror.Write(w, r, apiErr)
		return
	}

	gif, err := h.gifs.Random(r.Context(), in.Query)
	if err != nil {
		if errors.Is(err, provider.ErrNoResults) {
			apierror.Write(w, r, apierror.NotFound("No GIFs found for this query"))
			return
		}
		apierror.Write(w, r, upstreamError(h.logger, err, "Failed to get a random GIF"))
		return
	}

	writeJSON(w, r, http.StatusOK, randomGIFResponse{Success: true, Query: in.Query, GIF: gif})
}

// EmojiMix combines two emoji.
//
// GET /api/emojimix
func (h *GIFHandler) EmojiMix(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	in := emojiMixInput{Emoji1: q.Get("emoji1"), Emoji2: q.Get("emoji2")}
	if apiErr := validateInput(in); apiErr != nil {
		apierror.Write(w, r, apiErr)
		return
	}

	mixes, err := h.gifs.Mix(r.Context(), in.Emoji1, in.Emoji2)
	if err != nil {
		if errors.Is(err, provider.ErrNoResults) {
			apierror.Write(w, r, apierror.NotFound("No combination found for these emoji"))
			return
		}
		apierror.Write(w, r, upstreamError(h.logger, err, "Failed to mix emoji"))
		return
	}

	writeJSON(w, r, http.StatusOK, emojiMixResponse{Success: true, Emoji1: in.Emoji1, Emoji2: in.Emoji2, Results: mixes})
}
