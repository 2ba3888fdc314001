package provider

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"time"

	"github.com/nightapi/nightapi/internal/metrics"
)

const (
	stickerBaseURL = "https://bot.lyo.su"
	// StickerTimeout bounds the quote generator call.
	StickerTimeout = 15 * time.Second

	// DefaultStickerName is used when the caller gives no author name.
	DefaultStickerName = "NightWalker"
	// DefaultStickerAvatar is used when the caller gives no avatar.
	DefaultStickerAvatar = "https://telegra.ph/file/24fa902ead26340f3df2c.png"

	// StickerFallbackNote accompanies a predefined sticker.
	StickerFallbackNote = "Using a predefined sticker because the sticker generator is unavailable."
	// StickerFallbackMessage explains the degraded response.
	StickerFallbackMessage = "A custom sticker needs the generator service. The text and name you sent were received."

	stickerCharsPerStep = 40
)

// PredefinedSticker is served when the generator is unavailable.
type PredefinedSticker struct {
	Text string
	Name string
	URL  string
}

var predefinedStickers = []PredefinedSticker{
	{Text: "Mira las estrellas y sueña con lo imposible", Name: "Astro Explorer", URL: "https://i.imgur.com/lP6h5pn.png"},
	{Text: "El éxito es la suma de pequeños esfuerzos repetidos día tras día", Name: "Motivator", URL: "https://i.imgur.com/vYE82dv.png"},
	{Text: "La noche es el lienzo donde brillan nuestros sueños", Name: "NightWalker", URL: "https://i.imgur.com/JXm8a7s.png"},
}

// FallbackSticker picks a predefined sticker by text length: one step per
// 40 characters, capped at the last sticker.
func FallbackSticker(text string) PredefinedSticker {
	idx := len([]rune(text)) / stickerCharsPerStep
	if idx > len(predefinedStickers)-1 {
		idx = len(predefinedStickers) - 1
	}
	return predefinedStickers[idx]
}

// StickerResult is either a generated PNG or a predefined fallback.
type StickerResult struct {
	PNG      []byte
	Fallback *PredefinedSticker
}

// StickerGenerator is a client for the lyo.su quote generator.
type StickerGenerator struct {
	client  *Client
	metrics metrics.Recorder
	logger  *slog.Logger
}

// NewStickerGenerator creates a quote sticker client.
func NewStickerGenerator(recorder metrics.Recorder, logger *slog.Logger, opts ...Option) *StickerGenerator {
	opts = append(append([]Option{}, opts...), WithTimeout(StickerTimeout))
	return &StickerGenerator{
		client:  newClient("sticker", stickerBaseURL, opts...),
		metrics: recorder,
		logger:  logger,
	}
}

type quoteFrom struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Photo struct {
		URL string `json:"url"`
	} `json:"photo"`
}

type quoteMessage struct {
	Entities     []any          `json:"entities"`
	Avatar       bool           `json:"avatar"`
	From         quoteFrom      `json:"from"`
	Text         string         `json:"text"`
	ReplyMessage map[string]any `json:"replyMessage"`
}

type quoteRequest struct {
	Type            string         `json:"type"`
	Format          string         `json:"format"`
	BackgroundColor string         `json:"backgroundColor"`
	Width           int            `json:"width"`
	Height          int            `json:"height"`
	Scale           int            `json:"scale"`
	Messages        []quoteMessage `json:"messages"`
}

// Generate renders a quote sticker PNG.
func (g *StickerGenerator) Generate(ctx context.Context, text, name, avatar string) ([]byte, error) {
	from := quoteFrom{ID: 1, Name: name}
	from.Photo.URL = avatar
	req := quoteRequest{
		Type:            "quote",
		Format:          "png",
		BackgroundColor: "#000000",
		Width:           512,
		Height:          768,
		Scale:           2,
		Messages: []quoteMessage{{
			Entities:     []any{},
			Avatar:       true,
			From:         from,
			Text:         text,
			ReplyMessage: map[string]any{},
		}},
	}

	var resp struct {
		Result struct {
			Image string `json:"image"`
		} `json:"result"`
	}
	if err := g.client.postJSON(ctx, g.client.endpoint("/quote/generate", nil), req, &resp); err != nil {
		return nil, err
	}
	if resp.Result.Image == "" {
		return nil, fmt.Errorf("sticker: missing image: %w", ErrBadResponse)
	}
	png, err := base64.StdEncoding.DecodeString(resp.Result.Image)
	if err != nil {
		return nil, fmt.Errorf("sticker: decode image: %w: %w", ErrBadResponse, err)
	}
	return png, nil
}

// Sticker tries the generator and falls back to a predefined sticker.
func (g *StickerGenerator) Sticker(ctx context.Context, text, name, avatar string) (StickerResult, error) {
	result, _, err := NewChain("quote_sticker", g.metrics, g.logger,
		Step[StickerResult]{
			Name: "generator",
			Call: func(ctx context.Context) (StickerResult, error) {
				png, err := g.Generate(ctx, text, name, avatar)
				return StickerResult{PNG: png}, err
			},
		},
		Step[StickerResult]{
			Name: "predefined",
			Call: func(context.Context) (StickerResult, error) {
				s := FallbackSticker(text)
				return StickerResult{Fallback: &s}, nil
			},
		},
	).Run(ctx)
	return result, err
}
