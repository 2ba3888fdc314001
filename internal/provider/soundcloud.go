package provider

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"
)

const (
	soundCloudBaseURL  = "https://apis-starlights-team.koyeb.app"
	maxSoundCloudHits  = 5
	defaultFileTimeout = 5 * time.Minute
)

// Track is a SoundCloud search hit.
type Track struct {
	Title     string `json:"title"`
	URL       string `json:"url"`
	Thumbnail string `json:"thumbnail"`
	Artist    string `json:"artist"`
}

// TrackDownload describes a resolved download link.
type TrackDownload struct {
	Link    string `json:"link"`
	Quality string `json:"quality"`
	Image   string `json:"image"`
	Title   string `json:"title"`
}

// SoundCloud is a client for the starlights SoundCloud proxy.
type SoundCloud struct {
	client *Client
	files  *Client
}

// NewSoundCloud creates a SoundCloud client. Audio files are fetched with
// fileTimeout instead of the API timeout.
func NewSoundCloud(fileTimeout time.Duration, opts ...Option) *SoundCloud {
	if fileTimeout <= 0 {
		fileTimeout = defaultFileTimeout
	}
	fileOpts := append(append([]Option{}, opts...), WithTimeout(fileTimeout))
	return &SoundCloud{
		client: newClient("soundcloud", soundCloudBaseURL, opts...),
		files:  newClient("soundcloud-files", "", fileOpts...),
	}
}

// Search returns the first few tracks matching query.
func (s *SoundCloud) Search(ctx context.Context, query string) ([]Track, error) {
	var tracks []Track
	endpoint := s.client.endpoint("/starlight/soundcloud-search", url.Values{"text": {query}})
	if err := s.client.getJSON(ctx, endpoint, &tracks); err != nil {
		return nil, err
	}
	if len(tracks) == 0 || tracks[0].URL == "" {
		return nil, ErrNoResults
	}
	if len(tracks) > maxSoundCloudHits {
		tracks = tracks[:maxSoundCloudHits]
	}
	return tracks, nil
}

// Resolve looks up the download link for a track URL. A missing link is
// ErrNoResults.
func (s *SoundCloud) Resolve(ctx context.Context, trackURL string) (TrackDownload, error) {
	var dl TrackDownload
	endpoint := s.client.endpoint("/starlight/soundcloud", url.Values{"url": {trackURL}})
	if err := s.client.getJSON(ctx, endpoint, &dl); err != nil {
		return TrackDownload{}, err
	}
	if dl.Link == "" {
		return TrackDownload{}, ErrNoResults
	}
	return dl, nil
}

// Fetch streams the audio file at link into w.
func (s *SoundCloud) Fetch(ctx context.Context, link string, w io.Writer) error {
	if _, err := s.files.download(ctx, link, w); err != nil {
		return fmt.Errorf("fetch track: %w", err)
	}
	return nil
}
