// Package media keeps uploaded post files on local disk.
package media

import (
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// ErrTooLarge is returned when an upload exceeds the store's size limit.
var ErrTooLarge = errors.New("media: file too large")

// DiskStore writes files under dir with random names. Files are served by
// the router under URLPrefix.
type DiskStore struct {
	dir      string
	maxBytes int64
}

const URLPrefix = "/media"

// NewDiskStore creates dir if needed.
func NewDiskStore(dir string, maxBytes int64) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create media dir")
	}
	return &DiskStore{dir: dir, maxBytes: maxBytes}, nil
}

func (s *DiskStore) Dir() string { return s.dir }

func (s *DiskStore) MaxBytes() int64 { return s.maxBytes }

// Save copies r to a new file and returns its public URL and size. The
// extension of originalName is kept. Nothing is left on disk on error.
func (s *DiskStore) Save(r io.Reader, originalName string) (string, int64, error) {
	name := uuid.NewString() + strings.ToLower(filepath.Ext(originalName))
	full := filepath.Join(s.dir, name)

	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", 0, errors.Wrap(err, "create media file")
	}

	limit := s.maxBytes
	if limit <= 0 {
		limit = 1<<63 - 2
	}
	n, err := io.Copy(f, io.LimitReader(r, limit+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && n > limit {
		err = ErrTooLarge
	}
	if err != nil {
		_ = os.Remove(full)
		if errors.Is(err, ErrTooLarge) {
			return "", 0, err
		}
		return "", 0, errors.Wrap(err, "write media file")
	}
	return path.Join(URLPrefix, name), n, nil
}

// Remove deletes a file previously returned by Save. Unknown URLs are ignored.
func (s *DiskStore) Remove(url string) error {
	name := strings.TrimPrefix(url, URLPrefix+"/")
	if name == url || name == "" || strings.ContainsAny(name, `/\`) {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "remove media file")
	}
	return nil
}
