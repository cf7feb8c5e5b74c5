// Package media stores uploaded video blobs for the lifetime of a session.
// Nothing here decodes video; the client's media element reports the
// intrinsic size once its metadata is loaded.
package media

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/banshee-data/shuttle.report/internal/fsutil"
	"github.com/banshee-data/shuttle.report/internal/monitoring"
	"github.com/banshee-data/shuttle.report/internal/security"
)

var (
	ErrNotVideo = errors.New("file must be a video (video/* media type)")
	ErrTooLarge = errors.New("file exceeds upload limit")
)

// IsVideo reports whether a media type is acceptable. Only the "video/"
// prefix is checked; malformed files surface when the client plays them.
func IsVideo(mediaType string) bool {
	mt, _, err := mime.ParseMediaType(mediaType)
	if err != nil {
		mt = mediaType
	}
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(mt)), "video/")
}

// Handle is a stored blob. Release removes it; further calls are no-ops.
type Handle struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	MediaType string `json:"media_type"`
	Size      int64  `json:"size"`
	Path      string `json:"-"`

	store    *Store
	mu       sync.Mutex
	released bool
}

// Release deletes the stored blob.
func (h *Handle) Release() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return nil
	}
	h.released = true
	return h.store.remove(h.Path)
}

// Released reports whether Release has been called.
func (h *Handle) Released() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.released
}

// Store writes blobs under a single directory.
type Store struct {
	fs       fsutil.FileSystem
	dir      string
	maxBytes int64
}

// NewStore creates dir if needed. maxBytes <= 0 disables the size limit.
func NewStore(fsys fsutil.FileSystem, dir string, maxBytes int64) (*Store, error) {
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create media dir: %w", err)
	}
	return &Store{fs: fsys, dir: dir, maxBytes: maxBytes}, nil
}

// Save copies r into a new blob. The partial file is removed on any failure.
func (s *Store) Save(name, mediaType string, r io.Reader) (*Handle, error) {
	if !IsVideo(mediaType) {
		return nil, fmt.Errorf("%w: got %q", ErrNotVideo, mediaType)
	}

	id := uuid.NewString()
	path := filepath.Join(s.dir, id+filepath.Ext(security.SanitizeFilename(filepath.Base(name))))
	if err := security.ValidatePathWithinDirectory(path, s.dir); err != nil {
		return nil, err
	}
	w, err := s.fs.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create media file: %w", err)
	}

	src := r
	if s.maxBytes > 0 {
		src = io.LimitReader(r, s.maxBytes+1)
	}
	n, err := io.Copy(w, src)
	if cerr := w.Close(); err == nil {
		err = cerr
	}
	if err == nil && s.maxBytes > 0 && n > s.maxBytes {
		err = fmt.Errorf("%w (%d bytes)", ErrTooLarge, s.maxBytes)
	}
	if err != nil {
		if rmErr := s.remove(path); rmErr != nil {
			monitoring.Logf("media: failed to remove partial upload %s: %v", path, rmErr)
		}
		return nil, err
	}

	monitoring.Logf("media: stored %q (%s, %d bytes) as %s", name, mediaType, n, id)
	return &Handle{
		ID:        id,
		Name:      name,
		MediaType: mediaType,
		Size:      n,
		Path:      path,
		store:     s,
	}, nil
}

// Open returns the blob's contents for streaming back to the client.
func (s *Store) Open(h *Handle) (io.ReadCloser, error) {
	if h.Released() {
		return nil, fmt.Errorf("media %s already released", h.ID)
	}
	return s.fs.Open(h.Path)
}

func (s *Store) remove(path string) error {
	if !s.fs.Exists(path) {
		return nil
	}
	return s.fs.Remove(path)
}
