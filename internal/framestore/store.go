package framestore

import (
	"fmt"
	"os"
	"path/filepath"

	"framemill/internal/fileutil"
)

// Store writes frames as individual image files named by frame index.
type Store struct {
	dir    string
	format string
}

// New creates the frame directory if needed and returns a store over it.
func New(dir, format string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("frame directory required")
	}
	if format == "" {
		format = "png"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure frame directory: %w", err)
	}
	return &Store{dir: dir, format: format}, nil
}

// Dir returns the directory frames are written to.
func (s *Store) Dir() string { return s.dir }

// Path returns the file path for a frame index whether or not it exists yet.
func (s *Store) Path(index int64) string {
	return filepath.Join(s.dir, fmt.Sprintf("frame_%08d.%s", index, s.format))
}

// Save writes the frame's pixels to its indexed path and returns that path.
// The write is atomic so encode workers never read a partial frame.
func (s *Store) Save(index int64, pixels []byte) (string, error) {
	if index < 0 {
		return "", fmt.Errorf("frame index must be non-negative, got %d", index)
	}
	path := s.Path(index)
	if err := fileutil.WriteFileAtomic(path, pixels, 0o644); err != nil {
		return "", fmt.Errorf("save frame %d: %w", index, err)
	}
	return path, nil
}
