package handler

import (
	"log/slog"
	"net/http"

	"github.com/nightapi/nightapi/internal/apierror"
	"github.com/nightapi/nightapi/internal/provider"
)

// SearchHandler serves web search through the provider fallback chain.
type SearchHandler struct {
	search provider.Searcher
	logger *slog.Logger
}

// NewSearchHandler creates a SearchHandler.
func NewSearchHandler(search provider.Searcher, logger *slog.Logger) *SearchHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SearchHandler{search: search, logger: logger.With("component", "search")}
}

type searchInput struct {
	Query string `json:"query" validate:"required,min=1,max=100"`
}

type searchResponse struct {
	Success    bool                    `json:"success"`
	Query      string                  `json:"query"`
	Note       string                  `json:"note,omitempty"`
	Screenshot string                  `json:"screenshot"`
	Results    []provider.SearchResult `json:"results"`
}

// Google returns results from the first upstream that answers. When all
// fail the response still succeeds with demo results and a note.
//
// GET /api/google
func (h *SearchHandler) Google(w http.ResponseWriter, r *http.Request) {
	in := searchInput{Query: r.URL.Query().Get("query")}
	if apiErr := validateInput(in); apiErr != nil {
		apierror.Write(w, r, apiErr)
		return
	}

	page, err := h.search.Search(r.Context(), in.Query)
	if err != nil {
		apierror.Write(w, r, upstreamError(h.logger, err, "Failed to search"))
		return
	}

	results := page.Results
	if results == nil {
		results = []provider.SearchResult{}
	}
	writeJSON(w, r, http.StatusOK, searchResponse{
		Success:    true,
		Query:      in.Query,
		Note:       page.Note,
		Screenshot: page.Screenshot,
		Results:    results,
	})
}
