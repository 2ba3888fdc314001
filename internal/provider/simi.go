package provider

import (
	"context"
	"fmt"
	"net/url"
)

const simiBaseURL = "https://darkstarsz-api.onrender.com"

// Simi is a client for the SimSimi chat bot proxy.
type Simi struct {
	client   *Client
	apiKey   string
	username string
}

// NewSimi creates a chat bot client.
func NewSimi(apiKey, username string, opts ...Option) *Simi {
	return &Simi{client: newClient("simi", simiBaseURL, opts...), apiKey: apiKey, username: username}
}

// Reply returns the bot's answer to text in the given language.
func (s *Simi) Reply(ctx context.Context, text, language string) (string, error) {
	endpoint := s.client.endpoint("/api/outros/simih", url.Values{
		"language": {language},
		"text":     {text},
		"apikey":   {s.apiKey},
		"username": {s.username},
	})

	var resp struct {
		Resultado string `json:"resultado"`
	}
	if err := s.client.getJSON(ctx, endpoint, &resp); err != nil {
		return "", err
	}
	if resp.Resultado == "" {
		return "", fmt.Errorf("simi: empty reply: %w", ErrBadResponse)
	}
	return resp.Resultado, nil
}
