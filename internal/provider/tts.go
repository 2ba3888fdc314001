package provider

import (
	"context"
	"io"
	"net/url"
)

const ttsBaseURL = "https://translate.google.com"

// TTS is a client for Google Translate's speech endpoint.
type TTS struct {
	client *Client
}

// NewTTS creates a text-to-speech client.
func NewTTS(opts ...Option) *TTS {
	return &TTS{client: newClient("tts", ttsBaseURL, opts...)}
}

// Speak streams the MP3 rendering of text in lang into w.
func (t *TTS) Speak(ctx context.Context, text, lang string, w io.Writer) error {
	endpoint := t.client.endpoint("/translate_tts", url.Values{
		"ie":     {"UTF-8"},
		"q":      {text},
		"tl":     {lang},
		"client": {"tw-ob"},
	})
	_, err := t.client.download(ctx, endpoint, w)
	return err
}
