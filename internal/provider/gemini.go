package provider

import (
	"context"
	"fmt"
	"net/url"
)

const (
	// GeminiModel is the generative model the gateway talks to.
	GeminiModel = "gemini-2.0-flash"

	geminiBaseURL = "https://generativelanguage.googleapis.com"
	geminiPrompt  = "You are a helpful assistant provided via the NightAPI service.\n    \nHere is the user's message: "
)

// Gemini is a client for Google's generateContent API.
type Gemini struct {
	client *Client
	apiKey string
}

// NewGemini creates a Gemini client.
func NewGemini(apiKey string, opts ...Option) *Gemini {
	return &Gemini{
		client: newClient("gemini", geminiBaseURL, opts...),
		apiKey: apiKey,
	}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// Complete sends message wrapped in the service prompt and returns the
// model's first text part.
func (g *Gemini) Complete(ctx context.Context, message string) (string, error) {
	endpoint := g.client.endpoint("/v1beta/models/"+GeminiModel+":generateContent", url.Values{"key": {g.apiKey}})
	req := geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: geminiPrompt + message}}}},
	}

	var resp geminiResponse
	if err := g.client.postJSON(ctx, endpoint, req, &resp); err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 || resp.Candidates[0].Content.Parts[0].Text == "" {
		return "", fmt.Errorf("gemini: missing candidate text: %w", ErrBadResponse)
	}
	return resp.Candidates[0].Content.Parts[0].Text, nil
}
