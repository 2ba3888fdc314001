package provider

import (
	"context"
	"math/rand/v2"
	"net/url"
	"strconv"
)

const (
	tenorBaseURL    = "https://tenor.googleapis.com"
	emojiCollection = "emoji_kitchen_v5"
	randomGIFPool   = 10
	defaultMixLabel = "Emoji Mix"
)

// GIF is a single Tenor result.
type GIF struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	URL     string `json:"url"`
	Preview string `json:"preview"`
	Source  string `json:"source"`
}

// EmojiMix is one Emoji Kitchen combination.
type EmojiMix struct {
	URL                string `json:"url"`
	ContentDescription string `json:"content_description"`
}

// Tenor is a client for the Tenor v2 API.
type Tenor struct {
	client *Client
	apiKey string
	intn   func(n int) int
}

// NewTenor creates a Tenor client.
func NewTenor(apiKey string, opts ...Option) *Tenor {
	return &Tenor{
		client: newClient("tenor", tenorBaseURL, opts...),
		apiKey: apiKey,
		intn:   rand.IntN,
	}
}

type tenorMedia struct {
	URL string `json:"url"`
}

type tenorResponse struct {
	Results []struct {
		ID                 string                `json:"id"`
		Title              string                `json:"title"`
		URL                string                `json:"url"`
		ContentDescription string                `json:"content_description"`
		MediaFormats       map[string]tenorMedia `json:"media_formats"`
	} `json:"results"`
}

// Search returns up to limit GIFs for query. No results is ErrNoResults.
func (t *Tenor) Search(ctx context.Context, query string, limit int) ([]GIF, error) {
	endpoint := t.client.endpoint("/v2/search", url.Values{
		"q":     {query},
		"key":   {t.apiKey},
		"limit": {strconv.Itoa(limit)},
	})

	var resp tenorResponse
	if err := t.client.getJSON(ctx, endpoint, &resp); err != nil {
		return nil, err
	}
	if len(resp.Results) == 0 {
		return nil, ErrNoResults
	}

	gifs := make([]GIF, 0, len(resp.Results))
	for _, r := range resp.Results {
		preview := r.MediaFormats["tinygif"].URL
		if preview == "" {
			preview = r.MediaFormats["nanogif"].URL
		}
		gifs = append(gifs, GIF{
			ID:      r.ID,
			Title:   r.Title,
			URL:     r.MediaFormats["gif"].URL,
			Preview: preview,
			Source:  r.URL,
		})
	}
	return gifs, nil
}

// Random picks one GIF from the top results for query.
func (t *Tenor) Random(ctx context.Context, query string) (GIF, error) {
	gifs, err := t.Search(ctx, query, randomGIFPool)
	if err != nil {
		return GIF{}, err
	}
	return gifs[t.intn(len(gifs))], nil
}

// Mix looks up the Emoji Kitchen combination of two emoji.
func (t *Tenor) Mix(ctx context.Context, emoji1, emoji2 string) ([]EmojiMix, error) {
	endpoint := t.client.endpoint("/v2/featured", url.Values{
		"key":           {t.apiKey},
		"contentfilter": {"high"},
		"media_filter":  {"png_transparent"},
		"component":     {"proactive"},
		"collection":    {emojiCollection},
		"q":             {emoji1 + "_" + emoji2},
	})

	var resp tenorResponse
	if err := t.client.getJSON(ctx, endpoint, &resp); err != nil {
		return nil, err
	}
	if len(resp.Results) == 0 {
		return nil, ErrNoResults
	}

	mixes := make([]EmojiMix, 0, len(resp.Results))
	for _, r := range resp.Results {
		desc := r.ContentDescription
		if desc == "" {
			desc = defaultMixLabel
		}
		mixes = append(mixes, EmojiMix{URL: r.URL, ContentDescription: desc})
	}
	return mixes, nil
}
