package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/nightapi/nightapi/internal/apierror"
	"github.com/nightapi/nightapi/internal/auth"
	"github.com/nightapi/nightapi/internal/model"
	"github.com/nightapi/nightapi/internal/store"
)

// UsageHandler reports a user's usage for the current day.
type UsageHandler struct {
	ledger store.Ledger
	now    func() time.Time
	logger *slog.Logger
}

// NewUsageHandler creates a UsageHandler.
func NewUsageHandler(ledger store.Ledger, logger *slog.Logger) *UsageHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &UsageHandler{ledger: ledger, now: time.Now, logger: logger.With("component", "usage")}
}

type usageResponse struct {
	UserID     string         `json:"user_id"`
	Date       string         `json:"date"`
	Count      int            `json:"count"`
	Limit      int            `json:"limit"`
	Remaining  int            `json:"remaining"`
	ByEndpoint map[string]int `json:"by_endpoint"`
}

// Today returns the caller's request count since local midnight, grouped
// by endpoint. It needs an API key that Identify resolved to a user.
//
// GET /api/usage
func (h *UsageHandler) Today(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	if user == nil {
		apierror.Write(w, r, apierror.Unauthorized("A valid x-api-key header is required"))
		return
	}

	var endpoints []string
	for _, e := range strings.Split(r.URL.Query().Get("endpoints"), ",") {
		if e = strings.TrimSpace(e); e != "" {
			endpoints = append(endpoints, e)
		}
	}

	now := h.now()
	since := model.StartOfDay(now)
	count, err := h.ledger.CountSince(r.Context(), user.ID, since)
	if err != nil {
		h.logger.Error("count usage", slog.Int64("user_id", user.ID), slog.String("error", err.Error()))
		apierror.Write(w, r, apierror.Internal("Failed to load usage").Wrap(err))
		return
	}
	byEndpoint, err := h.ledger.Breakdown(r.Context(), user.ID, since, endpoints)
	if err != nil {
		h.logger.Error("usage breakdown", slog.Int64("user_id", user.ID), slog.String("error", err.Error()))
		apierror.Write(w, r, apierror.Internal("Failed to load usage").Wrap(err))
		return
	}

	limit := user.DailyLimit()
	writeJSON(w, r, http.StatusOK, usageResponse{
		UserID:     user.IDString(),
		Date:       since.Format("2006-01-02"),
		Count:      count,
		Limit:      limit,
		Remaining:  max(limit-count, 0),
		ByEndpoint: byEndpoint,
	})
}
