// Package resource implements Resource, the abstract handle over one
// fixed-size byte container that the sharded storage layer composes into a
// single logical address space. See doc.go for the full package overview.
package resource

import (
	"fmt"
	"io"
	"os"
)

// ErrNotExist is returned by Open when location does not name an existing
// container. It wraps os.ErrNotExist so callers can also match with
// errors.Is(err, os.ErrNotExist).
var ErrNotExist = fmt.Errorf("resource: location does not exist: %w", os.ErrNotExist)

// Metadata describes a resource without requiring it be opened.
type Metadata struct {
	Size int64
}

// Resource is an exclusive read/write/seek handle over one named byte
// container of known, fixed size. The size never changes after
// construction: Open reads whatever size the container currently has and
// that becomes fixed for the lifetime of the value; Create pre-allocates
// the declared size up front. A Resource has no clone or duplicate
// operation: each value is the single owner of its handle and of the lock
// on its container.
type Resource interface {
	// Location returns the textual identity of the container (e.g. a
	// filesystem path). Stable for the lifetime of the Resource.
	Location() string

	// Size returns the fixed size established at construction. Never
	// changes.
	Size() int64

	// Handle returns the read/write/seek handle. Reads and writes are
	// positionally independent only via an explicit Seek — callers must
	// not assume a running cursor persists across unrelated operations
	// without reseeking first.
	Handle() io.ReadWriteSeeker

	// Close releases the handle and any lock held on the container. A
	// closed Resource must not be used again.
	Close() error
}

// Open opens an existing container at location, reading its current size.
// It fails with ErrNotExist if the location is not present.
func Open(location string) (Resource, error) {
	return openFile(location)
}

// Create creates a container at location sized exactly size bytes, ensuring
// the containing directory exists, pre-allocating the declared size, and
// acquiring it exclusively. If a container already exists at location,
// Create still succeeds but does not alter an already-correctly-sized file;
// a size mismatch is reported by the caller (Storage.New), not here.
func Create(location string, size int64) (Resource, error) {
	return createFile(location, size)
}

// Exists reports whether a container is present at location.
func Exists(location string) bool {
	_, err := os.Stat(location)
	return err == nil
}

// Metadata reads size information for location without acquiring a lock on
// it. Fails with ErrNotExist if location is not present.
func Metadata(location string) (Metadata, error) {
	info, err := os.Stat(location)
	if err != nil {
		if os.IsNotExist(err) {
			return Metadata{}, ErrNotExist
		}
		return Metadata{}, fmt.Errorf("resource: stat %s: %w", location, err)
	}
	return Metadata{Size: info.Size()}, nil
}

// CollectSizes resolves a list of bare locations into (location, size)
// pairs by reading each one's current metadata, the way Storage.New
// expects its items. Storage.New only accepts already-known sizes —
// callers who only have a set of existing, already-populated resource
// paths (recovering a storage composed outside the persistence envelope)
// can use this to build the input list.
func CollectSizes(locations []string) ([]Item, error) {
	items := make([]Item, 0, len(locations))
	for _, loc := range locations {
		md, err := Metadata(loc)
		if err != nil {
			return nil, err
		}
		items = append(items, Item{Location: loc, Size: md.Size})
	}
	return items, nil
}

// Item names one resource to be opened-or-created by Storage.New: a
// location and its declared size.
type Item struct {
	Location string
	Size     int64
}
