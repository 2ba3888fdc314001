// Package media stages downloaded files on disk and runs yt-dlp.
package media

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"strconv"
)

// Artifact is a temporary file produced for one response. Close removes it
// and is safe to call more than once.
type Artifact struct {
	file *os.File
	dir  string
}

// NewArtifact creates an empty temp file in dir (the OS default when empty).
// pattern follows os.CreateTemp, e.g. "tts-*.mp3".
func NewArtifact(dir, pattern string) (*Artifact, error) {
	f, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: create temp file: %w", ErrStaging, err)
	}
	return &Artifact{file: f}, nil
}

// openArtifact takes ownership of an existing file and the directory
// holding it.
func openArtifact(path, dir string) (*Artifact, error) {
	f, err := os.Open(path)
	if err != nil {
		_ = os.RemoveAll(dir)
		return nil, fmt.Errorf("%w: open artifact: %w", ErrStaging, err)
	}
	return &Artifact{file: f, dir: dir}, nil
}

// Write appends to the file.
func (a *Artifact) Write(p []byte) (int, error) {
	return a.file.Write(p)
}

// Path returns the file's location.
func (a *Artifact) Path() string {
	return a.file.Name()
}

// Size returns the current file size.
func (a *Artifact) Size() (int64, error) {
	info, err := a.file.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// Serve writes the file as an attachment named filename.
func (a *Artifact) Serve(w http.ResponseWriter, contentType, filename string) error {
	if _, err := a.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewind artifact: %w", err)
	}
	size, err := a.Size()
	if err != nil {
		return fmt.Errorf("stat artifact: %w", err)
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
	w.WriteHeader(http.StatusOK)

	_, err = io.Copy(w, a.file)
	return err
}

// Close closes and deletes the file.
func (a *Artifact) Close() error {
	if a == nil || a.file == nil {
		return nil
	}
	_ = a.file.Close()
	var err error
	if a.dir != "" {
		err = os.RemoveAll(a.dir)
	} else if rmErr := os.Remove(a.file.Name()); rmErr != nil && !os.IsNotExist(rmErr) {
		err = rmErr
	}
	a.file = nil
	return err
}
