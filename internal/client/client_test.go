package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mfranciszkiewicz/golem-resource-storage/internal/httpapi"
	"github.com/mfranciszkiewicz/golem-resource-storage/internal/router"
)

func TestCreateWriteReadRoundTrip(t *testing.T) {
	r := router.New(nil)
	srv := httpapi.New(r, nil, t.TempDir())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		_ = r.Close()
	})

	c := New(ts.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	dir := t.TempDir()
	if err := c.Create(ctx, "m", []ResourceItem{{Location: dir + "/res.bin", Size: 16384}}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	data := make([]byte, 4096)
	for i := range data {
		data[i] = byte(i)
	}
	if err := c.WriteChunk(ctx, "m", 0, data); err != nil {
		t.Fatalf("WriteChunk: %v", err)
	}

	got, err := c.ReadChunk(ctx, "m", 0)
	if err != nil {
		t.Fatalf("ReadChunk: %v", err)
	}
	if len(got) != len(data) {
		t.Fatalf("ReadChunk returned %d bytes, want %d", len(got), len(data))
	}
	for i := range data {
		if got[i] != data[i] {
			t.Fatalf("byte %d = %d, want %d", i, got[i], data[i])
		}
	}
}

func TestHasChunkUnknownMapSurfacesError(t *testing.T) {
	r := router.New(nil)
	srv := httpapi.New(r, nil, t.TempDir())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		_ = r.Close()
	})

	c := New(ts.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := c.HasChunk(ctx, "ghost", 0); err == nil {
		t.Fatal("expected HasChunk against an unknown map to fail")
	}
}

func TestRemoveStopsMap(t *testing.T) {
	r := router.New(nil)
	srv := httpapi.New(r, nil, t.TempDir())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		_ = r.Close()
	})

	c := New(ts.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	dir := t.TempDir()
	if err := c.Create(ctx, "m", []ResourceItem{{Location: dir + "/res.bin", Size: 16384}}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := c.Remove(ctx, "m"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := c.HasChunk(ctx, "m", 0); err == nil {
		t.Fatal("expected HasChunk against a removed map to fail")
	}
}

func TestDoSurfacesNonSuccessStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer ts.Close()

	req, err := http.NewRequest(http.MethodGet, ts.URL, nil)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	if err := do(req, nil); err == nil {
		t.Fatal("expected do to surface a non-2xx status as an error")
	}
}
