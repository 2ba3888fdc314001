package handler

import (
	"log/slog"
	"math/rand/v2"
	"net/http"

	"github.com/nightapi/nightapi/internal/apierror"
	"github.com/nightapi/nightapi/internal/store"
)

// ContentHandler serves seeded jokes and quotes.
type ContentHandler struct {
	catalog store.Catalog
	intn    func(int) int
	logger  *slog.Logger
}

// NewContentHandler creates a ContentHandler.
func NewContentHandler(catalog store.Catalog, logger *slog.Logger) *ContentHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ContentHandler{catalog: catalog, intn: rand.IntN, logger: logger.With("component", "content")}
}

type jokeResponse struct {
	ID       string `json:"id"`
	Joke     string `json:"joke"`
	Category string `json:"category"`
}

type quoteResponse struct {
	ID     string `json:"id"`
	Text   string `json:"text"`
	Author string `json:"author"`
}

// RandomJoke returns a random joke, optionally from one category.
//
// GET /api/jokes/random
func (h *ContentHandler) RandomJoke(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")

	jokes, err := h.catalog.ListJokes(r.Context(), category)
	if err != nil {
		h.logger.Error("list jokes", slog.String("error", err.Error()))
		apierror.Write(w, r, apierror.Internal("Failed to load jokes").Wrap(err))
		return
	}
	if len(jokes) == 0 {
		if category != "" {
			apierror.Write(w, r, apierror.NotFound("No jokes found in category: %s", category))
			return
		}
		apierror.Write(w, r, apierror.NotFound("No jokes available"))
		return
	}

	joke := jokes[h.intn(len(jokes))]
	writeJSON(w, r, http.StatusOK, jokeResponse{
		ID:       joke.PublicID(),
		Joke:     joke.Joke,
		Category: orDefault(joke.Category, "general"),
	})
}

// RandomQuote returns a random quote, optionally by an author substring.
//
// GET /api/quotes/random
func (h *ContentHandler) RandomQuote(w http.ResponseWriter, r *http.Request) {
	author := r.URL.Query().Get("author")

	quotes, err := h.catalog.ListQuotes(r.Context(), author)
	if err != nil {
		h.logger.Error("list quotes", slog.String("error", err.Error()))
		apierror.Write(w, r, apierror.Internal("Failed to load quotes").Wrap(err))
		return
	}
	if len(quotes) == 0 {
		if author != "" {
			apierror.Write(w, r, apierror.NotFound("No quotes found by author: %s", author))
			return
		}
		apierror.Write(w, r, apierror.NotFound("No quotes available"))
		return
	}

	quote := quotes[h.intn(len(quotes))]
	writeJSON(w, r, http.StatusOK, quoteResponse{
		ID:     quote.PublicID(),
		Text:   quote.Text,
		Author: orDefault(quote.Author, "Unknown"),
	})
}
