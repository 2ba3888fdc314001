package provider

import (
	"context"
	"io"
	"net/url"
)

const text2ImgBaseURL = "https://eliasar-yt-api.vercel.app"

// TextToImage is a client for the text2img generator.
type TextToImage struct {
	client *Client
}

// NewTextToImage creates a text-to-image client.
func NewTextToImage(opts ...Option) *TextToImage {
	return &TextToImage{client: newClient("text2img", text2ImgBaseURL, opts...)}
}

// Generate streams the JPEG rendered for prompt into w.
func (t *TextToImage) Generate(ctx context.Context, prompt string, w io.Writer) error {
	_, err := t.client.download(ctx, t.client.endpoint("/api/ai/text2img", url.Values{"prompt": {prompt}}), w)
	return err
}
