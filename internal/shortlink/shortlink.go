// Package shortlink creates and resolves shortened URLs.
package shortlink

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/nightapi/nightapi/internal/metrics"
	"github.com/nightapi/nightapi/internal/model"
	"github.com/nightapi/nightapi/internal/store"
)

const (
	codeAlphabet    = "0123456789abcdef"
	codeLength      = 6
	maxCodeAttempts = 3
)

// Service handles short URL business logic.
type Service struct {
	links   store.Links
	metrics metrics.Recorder
	logger  *slog.Logger
}

// NewService creates a Service.
func NewService(links store.Links, recorder metrics.Recorder, logger *slog.Logger) *Service {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{links: links, metrics: recorder, logger: logger.With("component", "shortlink")}
}

// Shorten stores url under customCode, or under a generated 6-hex code when
// customCode is empty. A taken custom code returns store.ErrCodeTaken.
func (s *Service) Shorten(ctx context.Context, rawURL, customCode string) (*model.ShortURL, error) {
	if err := ValidateURL(rawURL); err != nil {
		return nil, err
	}
	if err := ValidateCode(customCode); err != nil {
		return nil, err
	}

	if customCode != "" {
		link := &model.ShortURL{Code: customCode, OriginalURL: rawURL}
		if err := s.links.CreateShortURL(ctx, link); err != nil {
			return nil, err
		}
		s.metrics.IncLinkCreated()
		return link, nil
	}

	for i := 0; i < maxCodeAttempts; i++ {
		code, err := gonanoid.Generate(codeAlphabet, codeLength)
		if err != nil {
			return nil, fmt.Errorf("generate code: %w", err)
		}

		link := &model.ShortURL{Code: code, OriginalURL: rawURL}
		err = s.links.CreateShortURL(ctx, link)
		if err == nil {
			s.metrics.IncLinkCreated()
			return link, nil
		}
		if !errors.Is(err, store.ErrCodeTaken) {
			return nil, err
		}
		s.logger.Debug("generated code collided", "attempt", i+1)
	}
	return nil, fmt.Errorf("failed to generate unique code after %d attempts", maxCodeAttempts)
}

// Info returns a link without counting a click.
func (s *Service) Info(ctx context.Context, code string) (*model.ShortURL, error) {
	return s.links.GetShortURL(ctx, code)
}

// Resolve counts one click and returns the link to redirect to.
func (s *Service) Resolve(ctx context.Context, code string) (*model.ShortURL, error) {
	link, err := s.links.IncrementClicks(ctx, code)
	if err != nil {
		return nil, err
	}
	s.metrics.IncRedirect()
	return link, nil
}

// ShortURL renders the public redirect URL for code.
func ShortURL(baseURL, code string) string {
	return strings.TrimRight(baseURL, "/") + "/s/" + code
}
