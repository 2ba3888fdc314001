package media

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// DefaultTimeout bounds one yt-dlp invocation.
const DefaultTimeout = 5 * time.Minute

var (
	// ErrUnsupportedFormat is returned for a format or quality yt-dlp is not
	// asked to produce.
	ErrUnsupportedFormat = errors.New("unsupported format")
	// ErrNoOutput is returned when yt-dlp exits cleanly but wrote no file.
	ErrNoOutput = errors.New("download produced no file")
	// ErrStaging marks failures to create local temp files.
	ErrStaging = errors.New("staging failed")
)

// AudioFormats are the accepted audio containers.
var AudioFormats = []string{"mp3", "aac", "m4a"}

// VideoFormats are the accepted video containers.
var VideoFormats = []string{"mp4", "webm"}

// videoQualities maps a requested quality to a yt-dlp format selector.
var videoQualities = map[string]string{
	"360p":  "18",
	"480p":  "135+140",
	"720p":  "22",
	"1080p": "137+140",
}

// DefaultVideoQuality is used when no quality is requested.
const DefaultVideoQuality = "720p"

// FormatSelector returns the yt-dlp -f value for quality.
func FormatSelector(quality string) (string, error) {
	sel, ok := videoQualities[quality]
	if !ok {
		return "", fmt.Errorf("%w: quality %q", ErrUnsupportedFormat, quality)
	}
	return sel, nil
}

// VideoInfo is the subset of yt-dlp's --dump-json output the gateway uses.
type VideoInfo struct {
	Title    string  `json:"title"`
	Uploader string  `json:"uploader"`
	Duration float64 `json:"duration"`
}

// DurationText formats the duration as m:ss.
func (v VideoInfo) DurationText() string {
	total := int(v.Duration)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// runFunc executes a command and returns its stdout.
type runFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRun(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if len(msg) > 512 {
			msg = msg[len(msg)-512:]
		}
		if msg != "" {
			return nil, fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return out, nil
}

// Downloader runs yt-dlp and stages its output as an Artifact.
type Downloader struct {
	bin     string
	tempDir string
	timeout time.Duration
	run     runFunc
	logger  *slog.Logger
}

// NewDownloader creates a Downloader. An empty bin means "yt-dlp" on PATH.
func NewDownloader(bin, tempDir string, timeout time.Duration, logger *slog.Logger) *Downloader {
	if bin == "" {
		bin = "yt-dlp"
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Downloader{
		bin:     bin,
		tempDir: tempDir,
		timeout: timeout,
		run:     execRun,
		logger:  logger.With("component", "ytdlp"),
	}
}

// Info fetches metadata for url without downloading.
func (d *Downloader) Info(ctx context.Context, url string) (*VideoInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	out, err := d.run(ctx, d.bin, "--dump-json", "--no-playlist", url)
	if err != nil {
		return nil, fmt.Errorf("fetch video info: %w", err)
	}
	var info VideoInfo
	if err := json.Unmarshal(out, &info); err != nil {
		return nil, fmt.Errorf("parse video info: %w", err)
	}
	return &info, nil
}

// Audio extracts the audio track of url in format.
func (d *Downloader) Audio(ctx context.Context, url, format string) (*Artifact, *VideoInfo, error) {
	if !slices.Contains(AudioFormats, format) {
		return nil, nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	return d.fetch(ctx, url, format,
		"--extract-audio", "--audio-format", format, "--audio-quality", "0")
}

// Video downloads url at quality into format.
func (d *Downloader) Video(ctx context.Context, url, format, quality string) (*Artifact, *VideoInfo, error) {
	if !slices.Contains(VideoFormats, format) {
		return nil, nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	sel, err := FormatSelector(quality)
	if err != nil {
		return nil, nil, err
	}
	return d.fetch(ctx, url, format, "-f", sel, "--merge-output-format", format)
}

func (d *Downloader) fetch(ctx context.Context, url, ext string, flags ...string) (*Artifact, *VideoInfo, error) {
	info, err := d.Info(ctx, url)
	if err != nil {
		return nil, nil, err
	}

	dir, err := os.MkdirTemp(d.tempDir, "ytdlp-*")
	if err != nil {
		return nil, nil, fmt.Errorf("%w: create download dir: %w", ErrStaging, err)
	}
	template := filepath.Join(dir, "media.%(ext)s")

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	args := append(append([]string{}, flags...), "--no-playlist", "-o", template, url)
	start := time.Now()
	if _, err := d.run(ctx, d.bin, args...); err != nil {
		_ = os.RemoveAll(dir)
		return nil, nil, fmt.Errorf("download: %w", err)
	}
	output, err := locateOutput(dir, ext)
	if err != nil {
		_ = os.RemoveAll(dir)
		return nil, nil, err
	}

	artifact, err := openArtifact(output, dir)
	if err != nil {
		return nil, nil, err
	}
	size, _ := artifact.Size()
	d.logger.Info("media downloaded",
		slog.String("title", info.Title),
		slog.String("author", info.Uploader),
		slog.String("duration", info.DurationText()),
		slog.String("format", ext),
		slog.Int64("bytes", size),
		slog.Duration("elapsed", time.Since(start)),
	)
	return artifact, info, nil
}

// locateOutput finds the file yt-dlp wrote. Post-processing may leave a
// different extension than requested, e.g. a progressive mp4 for webm.
func locateOutput(dir, ext string) (string, error) {
	want := filepath.Join(dir, "media."+ext)
	if _, err := os.Stat(want); err == nil {
		return want, nil
	}
	matches, err := filepath.Glob(filepath.Join(dir, "media.*"))
	if err != nil || len(matches) == 0 {
		return "", ErrNoOutput
	}
	return matches[0], nil
}
