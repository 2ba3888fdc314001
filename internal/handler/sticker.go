package handler

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/nightapi/nightapi/internal/apierror"
	"github.com/nightapi/nightapi/internal/media"
	"github.com/nightapi/nightapi/internal/provider"
)

// StickerMaker renders a quote sticker, possibly degraded to a predefined
// one.
type StickerMaker interface {
	Sticker(ctx context.Context, text, name, avatar string) (provider.StickerResult, error)
}

// StickerHandler serves quote stickers.
type StickerHandler struct {
	maker   StickerMaker
	tempDir string
	logger  *slog.Logger
}

// NewStickerHandler creates a StickerHandler.
func NewStickerHandler(maker StickerMaker, tempDir string, logger *slog.Logger) *StickerHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &StickerHandler{maker: maker, tempDir: tempDir, logger: logger.With("component", "sticker")}
}

type stickerInput struct {
	Text   string `json:"text" validate:"required,min=1,max=120"`
	Name   string `json:"name" validate:"max=50"`
	Avatar string `json:"avatar" validate:"omitempty,url"`
}

type degradedStickerResponse struct {
	Success     bool   `json:"success"`
	Note        string `json:"note"`
	Text        string `json:"text"`
	Name        string `json:"name"`
	Format      string `json:"format"`
	StickerBase string `json:"sticker_base"`
	Message     string `json:"message"`
}

// QuoteSticker renders text as a PNG quote sticker. When the generator is
// down it answers 200 with a predefined sticker and a note.
//
// GET /api/quote-sticker
func (h *StickerHandler) QuoteSticker(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	in := stickerInput{
		Text:   q.Get("text"),
		Name:   orDefault(q.Get("name"), provider.DefaultStickerName),
		Avatar: orDefault(q.Get("avatar"), provider.DefaultStickerAvatar),
	}
	if apiErr := validateInput(in); apiErr != nil {
		apierror.Write(w, r, apiErr)
		return
	}

	result, err := h.maker.Sticker(r.Context(), in.Text, in.Name, in.Avatar)
	if err != nil {
		apierror.Write(w, r, upstreamError(h.logger, err, "Failed to generate quote sticker"))
		return
	}

	if result.Fallback != nil {
		writeJSON(w, r, http.StatusOK, degradedStickerResponse{
			Success:     true,
			Note:        provider.StickerFallbackNote,
			Text:        in.Text,
			Name:        in.Name,
			Format:      "png",
			StickerBase: result.Fallback.URL,
			Message:     provider.StickerFallbackMessage,
		})
		return
	}

	artifact, err := media.NewArtifact(h.tempDir, "quote-*.png")
	if err != nil {
		apierror.Write(w, r, apierror.Internal("Failed to stage sticker").Wrap(err))
		return
	}
	defer artifact.Close()
	if _, err := io.Copy(artifact, bytes.NewReader(result.PNG)); err != nil {
		apierror.Write(w, r, apierror.Internal("Failed to stage sticker").Wrap(err))
		return
	}
	if err := artifact.Serve(w, "image/png", "quote-sticker.png"); err != nil {
		h.logger.Warn("stream sticker", slog.String("error", err.Error()))
	}
}
