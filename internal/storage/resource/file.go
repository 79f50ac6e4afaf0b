package resource

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// FileResource is the filesystem-backed Resource: one *os.File plus an
// advisory exclusive lock acquired for the lifetime of the handle. A
// backing file is exclusively owned by one storage-map worker and the
// lock is requested at creation time — concurrent opening of the same
// location by two storage maps is a usage error with undefined outcome,
// which flock's exclusive TryLock surfaces as an open error here rather
// than silently interleaving writers.
type FileResource struct {
	f        *os.File
	lock     *flock.Flock
	location string
	size     int64
}

func openFile(location string) (Resource, error) {
	if !Exists(location) {
		return nil, ErrNotExist
	}

	lock := flock.New(location)
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("resource: lock %s: %w", location, err)
	}
	if !locked {
		return nil, fmt.Errorf("resource: %s is already locked by another owner", location)
	}

	f, err := os.OpenFile(location, os.O_RDWR, 0o644)
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("resource: open %s: %w", location, err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		_ = lock.Unlock()
		return nil, fmt.Errorf("resource: stat %s: %w", location, err)
	}

	return &FileResource{f: f, lock: lock, location: location, size: info.Size()}, nil
}

func createFile(location string, size int64) (Resource, error) {
	if size < 0 {
		return nil, fmt.Errorf("resource: negative size %d for %s", size, location)
	}

	if dir := filepath.Dir(location); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("resource: create parent dir for %s: %w", location, err)
		}
	}

	lock := flock.New(location)
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("resource: lock %s: %w", location, err)
	}
	if !locked {
		return nil, fmt.Errorf("resource: %s is already locked by another owner", location)
	}

	f, err := os.OpenFile(location, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("resource: create %s: %w", location, err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		_ = lock.Unlock()
		return nil, fmt.Errorf("resource: stat %s: %w", location, err)
	}

	if info.Size() < size {
		if err := f.Truncate(size); err != nil {
			_ = f.Close()
			_ = lock.Unlock()
			return nil, fmt.Errorf("resource: preallocate %d bytes for %s: %w", size, location, err)
		}
	}

	return &FileResource{f: f, lock: lock, location: location, size: size}, nil
}

// Location implements Resource.
func (r *FileResource) Location() string { return r.location }

// Size implements Resource.
func (r *FileResource) Size() int64 { return r.size }

// Handle implements Resource.
func (r *FileResource) Handle() io.ReadWriteSeeker { return r.f }

// Close implements Resource.
func (r *FileResource) Close() error {
	closeErr := r.f.Close()
	unlockErr := r.lock.Unlock()
	if closeErr != nil {
		return closeErr
	}
	return unlockErr
}
