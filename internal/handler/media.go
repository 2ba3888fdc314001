package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nightapi/nightapi/internal/apierror"
	"github.com/nightapi/nightapi/internal/media"
	"github.com/nightapi/nightapi/internal/provider"
)

// MediaDownloader produces audio or video files from a video page URL.
type MediaDownloader interface {
	Audio(ctx context.Context, url, format string) (*media.Artifact, *media.VideoInfo, error)
	Video(ctx context.Context, url, format, quality string) (*media.Artifact, *media.VideoInfo, error)
}

// Speaker renders text as speech.
type Speaker interface {
	Speak(ctx context.Context, text, lang string, w io.Writer) error
}

// ImageGenerator renders an image from a prompt.
type ImageGenerator interface {
	Generate(ctx context.Context, prompt string, w io.Writer) error
}

// TrackSource searches and downloads music tracks.
type TrackSource interface {
	Search(ctx context.Context, query string) ([]provider.Track, error)
	Resolve(ctx context.Context, trackURL string) (provider.TrackDownload, error)
	Fetch(ctx context.Context, link string, w io.Writer) error
}

// MediaHandler serves the endpoints that stream a file back to the client.
// Each file is staged in a temp Artifact that is removed once served.
type MediaHandler struct {
	downloader MediaDownloader
	speaker    Speaker
	images     ImageGenerator
	tracks     TrackSource
	tempDir    string
	now        func() time.Time
	logger     *slog.Logger
}

// MediaDeps are the collaborators of a MediaHandler.
type MediaDeps struct {
	Downloader MediaDownloader
	Speaker    Speaker
	Images     ImageGenerator
	Tracks     TrackSource
	TempDir    string
}

// NewMediaHandler creates a MediaHandler.
func NewMediaHandler(deps MediaDeps, logger *slog.Logger) *MediaHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &MediaHandler{
		downloader: deps.Downloader,
		speaker:    deps.Speaker,
		images:     deps.Images,
		tracks:     deps.Tracks,
		tempDir:    deps.TempDir,
		now:        time.Now,
		logger:     logger.With("component", "media"),
	}
}

// serve streams the artifact and removes it.
func (h *MediaHandler) serve(w http.ResponseWriter, a *media.Artifact, contentType, filename string) {
	defer a.Close()
	if err := a.Serve(w, contentType, filename); err != nil {
		h.logger.Warn("stream artifact", slog.String("filename", filename), slog.String("error", err.Error()))
	}
}

// stage runs fill against a new temp file. The caller owns the returned
// artifact.
func (h *MediaHandler) stage(pattern string, fill func(io.Writer) error) (*media.Artifact, error) {
	a, err := media.NewArtifact(h.tempDir, pattern)
	if err != nil {
		return nil, err
	}
	if err := fill(a); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func isYouTubeURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	host := strings.ToLower(u.Hostname())
	return host == "youtu.be" || host == "youtube.com" || strings.HasSuffix(host, ".youtube.com")
}

func mediaFilename(title, ext string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		title = "media"
	}
	return title + "." + ext
}

// mediaError maps a download or staging failure to an envelope. Local temp
// file failures are internal and carry no details.
func (h *MediaHandler) mediaError(err error, message string) *apierror.Error {
	switch {
	case errors.Is(err, media.ErrUnsupportedFormat):
		return apierror.Validation("%s", err.Error()).Wrap(err)
	case errors.Is(err, media.ErrStaging):
		h.logger.Error("stage media file", slog.String("error", err.Error()))
		return apierror.Internal("%s", message).Wrap(err)
	}
	return upstreamError(h.logger, err, message)
}

type ytAudioInput struct {
	URL    string `json:"url" validate:"required,url"`
	Format string `json:"format" validate:"oneof=mp3 aac m4a"`
}

type ytVideoInput struct {
	URL     string `json:"url" validate:"required,url"`
	Format  string `json:"format" validate:"oneof=mp4 webm"`
	Quality string `json:"quality" validate:"oneof=360p 480p 720p 1080p"`
}

// YTAudio downloads the audio track of a YouTube video.
//
// GET /api/ytaudio
func (h *MediaHandler) YTAudio(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	in := ytAudioInput{URL: q.Get("url"), Format: orDefault(q.Get("format"), "mp3")}
	if apiErr := validateInput(in); apiErr != nil {
		apierror.Write(w, r, apiErr)
		return
	}
	if !isYouTubeURL(in.URL) {
		apierror.Write(w, r, apierror.Validation("url: Only YouTube URLs are supported"))
		return
	}

	artifact, info, err := h.downloader.Audio(r.Context(), in.URL, in.Format)
	if err != nil {
		apierror.Write(w, r, h.mediaError(err, "Failed to download audio"))
		return
	}
	h.serve(w, artifact, "audio/"+in.Format, mediaFilename(info.Title, in.Format))
}

// YTVideo downloads a YouTube video.
//
// GET /api/ytvideo
func (h *MediaHandler) YTVideo(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	in := ytVideoInput{
		URL:     q.Get("url"),
		Format:  orDefault(q.Get("format"), "mp4"),
		Quality: orDefault(q.Get("quality"), media.DefaultVideoQuality),
	}
	if apiErr := validateInput(in); apiErr != nil {
		apierror.Write(w, r, apiErr)
		return
	}
	if !isYouTubeURL(in.URL) {
		apierror.Write(w, r, apierror.Validation("url: Only YouTube URLs are supported"))
		return
	}

	artifact, info, err := h.downloader.Video(r.Context(), in.URL, in.Format, in.Quality)
	if err != nil {
		apierror.Write(w, r, h.mediaError(err, "Failed to download video"))
		return
	}
	h.serve(w, artifact, "video/"+in.Format, mediaFilename(info.Title, in.Format))
}

type ttsInput struct {
	Text string `json:"text" validate:"required,min=1,max=200"`
	Lang string `json:"lang" validate:"min=2,max=5"`
}

// TTS renders text as an MP3.
//
// GET /api/tts
func (h *MediaHandler) TTS(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	in := ttsInput{Text: q.Get("text"), Lang: orDefault(q.Get("lang"), "es")}
	if apiErr := validateInput(in); apiErr != nil {
		apierror.Write(w, r, apiErr)
		return
	}

	artifact, err := h.stage("tts-*.mp3", func(dst io.Writer) error {
		return h.speaker.Speak(r.Context(), in.Text, in.Lang, dst)
	})
	if err != nil {
		apierror.Write(w, r, h.mediaError(err, "Failed to generate speech"))
		return
	}
	h.serve(w, artifact, "audio/mpeg", fmt.Sprintf("tts-%s.mp3", in.Lang))
}

type promptInput struct {
	Prompt string `json:"prompt" validate:"required,min=1,max=1000"`
}

// Dalle renders an image from a prompt.
//
// GET /api/dalle
func (h *MediaHandler) Dalle(w http.ResponseWriter, r *http.Request) {
	in := promptInput{Prompt: r.URL.Query().Get("prompt")}
	if apiErr := validateInput(in); apiErr != nil {
		apierror.Write(w, r, apiErr)
		return
	}

	artifact, err := h.stage("dalle-*.jpg", func(dst io.Writer) error {
		return h.images.Generate(r.Context(), in.Prompt, dst)
	})
	if err != nil {
		apierror.Write(w, r, h.mediaError(err, "Failed to generate image"))
		return
	}
	h.serve(w, artifact, "image/jpeg", fmt.Sprintf("dalle_%d.jpg", h.now().UnixMilli()))
}

type trackQueryInput struct {
	Query string `json:"query" validate:"required,min=1,max=200"`
}

type trackURLInput struct {
	URL string `json:"url" validate:"required,url"`
}

type trackSearchResponse struct {
	Success bool             `json:"success"`
	Query   string           `json:"query"`
	Results []provider.Track `json:"results"`
}

// SoundCloudSearch lists the first matching tracks.
//
// GET /api/soundcloud/search
func (h *MediaHandler) SoundCloudSearch(w http.ResponseWriter, r *http.Request) {
	in := trackQueryInput{Query: r.URL.Query().Get("query")}
	if apiErr := validateInput(in); apiErr != nil {
		apierror.Write(w, r, apiErr)
		return
	}

	tracks, err := h.tracks.Search(r.Context(), in.Query)
	if err != nil {
		if errors.Is(err, provider.ErrNoResults) {
			apierror.Write(w, r, apierror.NotFound("No results found on SoundCloud"))
			return
		}
		apierror.Write(w, r, upstreamError(h.logger, err, "Failed to search SoundCloud"))
		return
	}

	writeJSON(w, r, http.StatusOK, trackSearchResponse{Success: true, Query: in.Query, Results: tracks})
}

// SoundCloudDownload resolves a track page and streams the MP3.
//
// GET /api/soundcloud/download
func (h *MediaHandler) SoundCloudDownload(w http.ResponseWriter, r *http.Request) {
	in := trackURLInput{URL: r.URL.Query().Get("url")}
	if apiErr := validateInput(in); apiErr != nil {
		apierror.Write(w, r, apiErr)
		return
	}

	track, err := h.tracks.Resolve(r.Context(), in.URL)
	if err != nil {
		if errors.Is(err, provider.ErrNoResults) {
			apierror.Write(w, r, apierror.NotFound("Download link not found"))
			return
		}
		apierror.Write(w, r, upstreamError(h.logger, err, "Failed to resolve SoundCloud track"))
		return
	}

	artifact, err := h.stage("soundcloud-*.mp3", func(dst io.Writer) error {
		return h.tracks.Fetch(r.Context(), track.Link, dst)
	})
	if err != nil {
		apierror.Write(w, r, h.mediaError(err, "Failed to download SoundCloud track"))
		return
	}
	h.serve(w, artifact, "audio/mpeg", mediaFilename(track.Title, "mp3"))
}
