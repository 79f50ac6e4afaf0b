package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/mfranciszkiewicz/golem-resource-storage/internal/router"
)

func newTestServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()
	r := router.New(nil)
	dataDir := t.TempDir()
	srv := New(r, nil, dataDir)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		_ = r.Close()
	})
	return ts, dataDir
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(b))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func TestHealthEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}

func TestCreateThenReadWriteChunk(t *testing.T) {
	ts, dataDir := newTestServer(t)

	loc := filepath.Join(dataDir, "res.bin")
	resp := postJSON(t, ts.URL+"/maps", createRequest{
		Name:  "m1",
		Items: []createItem{{Location: loc, Size: 16384}},
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d, want 201", resp.StatusCode)
	}

	chunk := bytes.Repeat([]byte{0x42}, 4096)
	req, err := http.NewRequest(http.MethodPut, ts.URL+"/maps/m1/chunks/0", bytes.NewReader(chunk))
	if err != nil {
		t.Fatalf("build PUT request: %v", err)
	}
	putResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PUT chunk: %v", err)
	}
	defer putResp.Body.Close()
	if putResp.StatusCode != http.StatusOK {
		t.Fatalf("write chunk status = %d, want 200", putResp.StatusCode)
	}

	getResp, err := http.Get(ts.URL + "/maps/m1/chunks/0/exists")
	if err != nil {
		t.Fatalf("GET chunk exists: %v", err)
	}
	defer getResp.Body.Close()
	var existsBody existsReply
	if err := json.NewDecoder(getResp.Body).Decode(&existsBody); err != nil {
		t.Fatalf("decode exists reply: %v", err)
	}
	if !existsBody.Exists {
		t.Fatal("chunk 0 should be reported present after writing")
	}
}

func TestCreateDuplicateNameFails(t *testing.T) {
	ts, dataDir := newTestServer(t)
	loc := filepath.Join(dataDir, "res.bin")
	body := createRequest{Name: "dup", Items: []createItem{{Location: loc, Size: 16384}}}

	first := postJSON(t, ts.URL+"/maps", body)
	first.Body.Close()
	if first.StatusCode != http.StatusCreated {
		t.Fatalf("first create status = %d, want 201", first.StatusCode)
	}

	second := postJSON(t, ts.URL+"/maps", body)
	defer second.Body.Close()
	if second.StatusCode == http.StatusCreated {
		t.Fatal("expected creating a duplicate map name to fail")
	}
}

func TestReadChunkUnknownMapFails(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, err := http.Get(ts.URL + "/maps/ghost/chunks/0")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusOK {
		t.Fatal("expected reading a chunk from an unknown map to fail")
	}
}
