package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/nightapi/nightapi/internal/apierror"
	"github.com/nightapi/nightapi/internal/param"
	"github.com/nightapi/nightapi/internal/provider"
)

// ChatCompleter answers a free-form prompt.
type ChatCompleter interface {
	Complete(ctx context.Context, message string) (string, error)
}

// ChatBot replies conversationally in a language.
type ChatBot interface {
	Reply(ctx context.Context, text, language string) (string, error)
}

// ChatHandler serves the AI chat and chat bot endpoints.
type ChatHandler struct {
	completer ChatCompleter
	bot       ChatBot
	logger    *slog.Logger
}

// NewChatHandler creates a ChatHandler.
func NewChatHandler(completer ChatCompleter, bot ChatBot, logger *slog.Logger) *ChatHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChatHandler{completer: completer, bot: bot, logger: logger.With("component", "chat")}
}

type geminiResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Model   string `json:"model"`
}

// Gemini forwards a message to the completion model. The message comes from
// the route, the message or mensaje query parameter, or the body.
//
// GET /api/gemini, GET /api/gemini/{message}, POST /api/gemini
func (h *ChatHandler) Gemini(w http.ResponseWriter, r *http.Request) {
	message, ok := param.Resolve(r, "message", "mensaje")
	if !ok {
		apierror.Write(w, r, apierror.Validation("message is required"))
		return
	}

	reply, err := h.completer.Complete(r.Context(), message)
	if err != nil {
		apierror.Write(w, r, upstreamError(h.logger, err, "Failed to process request"))
		return
	}

	writeJSON(w, r, http.StatusOK, geminiResponse{Success: true, Message: reply, Model: provider.GeminiModel})
}

type simiInput struct {
	Text     string `json:"text" validate:"required,min=1,max=500"`
	Language string `json:"language" validate:"min=2,max=5"`
}

type simiResponse struct {
	Success  bool   `json:"success"`
	Text     string `json:"text"`
	Language string `json:"language"`
	Response string `json:"response"`
}

// Simi asks the chat bot for a reply.
//
// GET /api/simi
func (h *ChatHandler) Simi(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	in := simiInput{Text: q.Get("text"), Language: orDefault(q.Get("language"), "es")}
	if apiErr := validateInput(in); apiErr != nil {
		apierror.Write(w, r, apiErr)
		return
	}

	reply, err := h.bot.Reply(r.Context(), in.Text, in.Language)
	if err != nil {
		apierror.Write(w, r, upstreamError(h.logger, err, "Failed to get a chat bot reply"))
		return
	}

	writeJSON(w, r, http.StatusOK, simiResponse{Success: true, Text: in.Text, Language: in.Language, Response: reply})
}
