package router

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/mfranciszkiewicz/golem-resource-storage/internal/storage/resource"
)

func newTestRouter(t *testing.T) *Router {
	t.Helper()
	r := New(nil)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestCreateRejectsDuplicateName(t *testing.T) {
	r := newTestRouter(t)
	dir := t.TempDir()
	items := []resource.Item{{Location: filepath.Join(dir, "data.bin"), Size: 32768}}

	if _, err := r.Create(CreateRequest{Name: "alpha", Items: items}); err != nil {
		t.Fatalf("first Create: %v", err)
	}
	if _, err := r.Create(CreateRequest{Name: "alpha", Items: items}); err == nil {
		t.Fatal("expected second Create with the same name to fail")
	}
}

func TestWriteChunkThenReadChunk(t *testing.T) {
	r := newTestRouter(t)
	dir := t.TempDir()
	items := []resource.Item{{Location: filepath.Join(dir, "data.bin"), Size: 32768}}

	if _, err := r.Create(CreateRequest{Name: "alpha", Items: items}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	has, err := r.HasChunk(ctx, "alpha", 0)
	if err != nil {
		t.Fatalf("HasChunk: %v", err)
	}
	if has {
		t.Fatal("chunk 0 should not be present on a freshly created map")
	}

	chunkSize := 4096
	data := make([]byte, chunkSize)
	for i := range data {
		data[i] = 0xAB
	}
	if err := r.WriteChunk(ctx, "alpha", 0, data); err != nil {
		t.Fatalf("WriteChunk: %v", err)
	}

	got, err := r.ReadChunk(ctx, "alpha", 0)
	if err != nil {
		t.Fatalf("ReadChunk: %v", err)
	}
	if len(got) != chunkSize || got[0] != 0xAB {
		t.Fatalf("ReadChunk returned unexpected data: %v", got)
	}

	if err := r.WriteChunk(ctx, "alpha", 0, data); err == nil {
		t.Fatal("expected rewriting an already-set chunk to fail")
	}
}

func TestOperationOnUnknownNameFails(t *testing.T) {
	r := newTestRouter(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if _, err := r.HasChunk(ctx, "ghost", 0); err == nil {
		t.Fatal("expected HasChunk on an unknown name to fail")
	}
}

func TestRemoveStopsWorker(t *testing.T) {
	r := newTestRouter(t)
	dir := t.TempDir()
	items := []resource.Item{{Location: filepath.Join(dir, "data.bin"), Size: 16384}}

	if _, err := r.Create(CreateRequest{Name: "alpha", Items: items}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := r.Remove("alpha"); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, err := r.HasChunk(ctx, "alpha", 0); err == nil {
		t.Fatal("expected operations after Remove to fail")
	}
}
