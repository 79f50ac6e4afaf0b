package storage

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"github.com/mfranciszkiewicz/golem-resource-storage/internal/storage/resource"
)

func newTestStorage(t *testing.T, sizes ...int64) *Storage {
	t.Helper()
	dir := t.TempDir()
	items := make([]resource.Item, len(sizes))
	for i, sz := range sizes {
		items[i] = resource.Item{Location: filepath.Join(dir, string(rune('a'+i))+".bin"), Size: sz}
	}
	s, err := New("t", items)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewAccumulatesTotalSize(t *testing.T) {
	s := newTestStorage(t, 10, 20, 30)
	if s.TotalSize() != 60 {
		t.Fatalf("TotalSize() = %d, want 60", s.TotalSize())
	}
	if len(s.Locations()) != 3 {
		t.Fatalf("Locations() has %d entries, want 3", len(s.Locations()))
	}
}

func TestNewRejectsSizeMismatchForExistingResource(t *testing.T) {
	dir := t.TempDir()
	loc := filepath.Join(dir, "a.bin")
	r, err := resource.Create(loc, 10)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	r.Close()

	_, err = New("t", []resource.Item{{Location: loc, Size: 20}})
	if err == nil {
		t.Fatal("expected New to reject a declared size that disagrees with the existing resource")
	}
	var se *Error
	if !errors.As(err, &se) || se.Kind != KindSizeMismatch {
		t.Fatalf("expected KindSizeMismatch, got %v", err)
	}
}

func TestWriteThenReadAcrossResourceBoundary(t *testing.T) {
	s := newTestStorage(t, 10, 10)

	data := bytes.Repeat([]byte{0xAB}, 20)
	n, err := s.Write(0, data)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if n != 20 {
		t.Fatalf("Write returned %d, want 20", n)
	}

	buf := make([]byte, 20)
	n, err = s.Read(0, buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if n != 20 || !bytes.Equal(buf, data) {
		t.Fatalf("Read back %v (n=%d), want %v", buf, n, data)
	}
}

func TestWriteSpanningThreeResources(t *testing.T) {
	s := newTestStorage(t, 5, 5, 5)

	data := make([]byte, 15)
	for i := range data {
		data[i] = byte(i)
	}
	if _, err := s.Write(0, data); err != nil {
		t.Fatalf("Write: %v", err)
	}

	buf := make([]byte, 15)
	if _, err := s.Read(0, buf); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !bytes.Equal(buf, data) {
		t.Fatalf("Read back %v, want %v", buf, data)
	}
}

func TestReadPartialRangeWithinOneResource(t *testing.T) {
	s := newTestStorage(t, 10, 10)
	data := bytes.Repeat([]byte{0x11}, 10)
	if _, err := s.Write(0, data); err != nil {
		t.Fatalf("Write: %v", err)
	}

	buf := make([]byte, 4)
	if _, err := s.Read(3, buf); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !bytes.Equal(buf, data[3:7]) {
		t.Fatalf("Read back %v, want %v", buf, data[3:7])
	}
}

func TestReadPastTotalSizeFails(t *testing.T) {
	s := newTestStorage(t, 10)
	buf := make([]byte, 5)
	if _, err := s.Read(8, buf); err == nil {
		t.Fatal("expected Read running past TotalSize to fail")
	}
}

func TestViewPartitionsByResource(t *testing.T) {
	s := newTestStorage(t, 5, 5, 5)

	view, err := s.View(3, 6)
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	if len(view) != 2 {
		t.Fatalf("View returned %d entries, want 2", len(view))
	}
	if view[0].ResourceIndex != 0 || view[0].Shard != (Shard{Start: 3, End: 5}) {
		t.Fatalf("first entry = %+v, want resource 0, shard [3,5)", view[0])
	}
	if view[1].ResourceIndex != 1 || view[1].Shard != (Shard{Start: 0, End: 4}) {
		t.Fatalf("second entry = %+v, want resource 1, shard [0,4)", view[1])
	}
}

func TestViewExactlyOneResource(t *testing.T) {
	s := newTestStorage(t, 5, 5)
	view, err := s.View(0, 5)
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	if len(view) != 1 || view[0].ResourceIndex != 0 {
		t.Fatalf("View = %+v, want a single entry over resource 0", view)
	}
}

func TestViewSkipsZeroSizeResourcesEntirely(t *testing.T) {
	s := newTestStorage(t, 1024, 0, 511, 257, 0, 64, 128, 64)

	view, err := s.View(1, 2046)
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	if len(view) != 6 {
		t.Fatalf("View returned %d entries, want 6 (zero-size resources at index 1 and 4 excluded)", len(view))
	}
	for _, e := range view {
		if e.ResourceIndex == 1 || e.ResourceIndex == 4 {
			t.Fatalf("view entry %+v references a zero-size resource, which should never appear", e)
		}
	}
	wantIndices := []int{0, 2, 3, 5, 6, 7}
	for i, e := range view {
		if e.ResourceIndex != wantIndices[i] {
			t.Fatalf("entry %d references resource %d, want %d", i, e.ResourceIndex, wantIndices[i])
		}
	}
}
