package catalog

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// GeneratedImage is the /api/image/generate payload.
type GeneratedImage struct {
	Success     bool      `json:"success"`
	Prompt      string    `json:"prompt"`
	ImageURL    string    `json:"image_url"`
	Format      string    `json:"format"`
	Width       int       `json:"width"`
	Height      int       `json:"height"`
	GeneratedAt time.Time `json:"generated_at"`
}

// ResizedImage is the /api/image/resize payload.
type ResizedImage struct {
	Success     bool      `json:"success"`
	OriginalURL string    `json:"original_url"`
	ResizedURL  string    `json:"resized_url"`
	Format      string    `json:"format"`
	Width       int       `json:"width"`
	Height      int       `json:"height"`
	ProcessedAt time.Time `json:"processed_at"`
}

func imageID() (string, error) {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate image id: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// GenerateImage returns a placeholder URL under baseURL/generated.
func (c *Catalog) GenerateImage(baseURL, prompt string, width, height int, format string) (GeneratedImage, error) {
	id, err := imageID()
	if err != nil {
		return GeneratedImage{}, err
	}
	return GeneratedImage{
		Success:     true,
		Prompt:      prompt,
		ImageURL:    fmt.Sprintf("%s/generated/img%s.%s", strings.TrimRight(baseURL, "/"), id, format),
		Format:      format,
		Width:       width,
		Height:      height,
		GeneratedAt: c.now().UTC(),
	}, nil
}

// ResizeImage returns a placeholder URL under baseURL/resized.
func (c *Catalog) ResizeImage(baseURL, original string, width, height int, format string) (ResizedImage, error) {
	id, err := imageID()
	if err != nil {
		return ResizedImage{}, err
	}
	return ResizedImage{
		Success:     true,
		OriginalURL: original,
		ResizedURL:  fmt.Sprintf("%s/resized/img%s.%s", strings.TrimRight(baseURL, "/"), id, format),
		Format:      format,
		Width:       width,
		Height:      height,
		ProcessedAt: c.now().UTC(),
	}, nil
}
