// Package client is the HTTP client counterpart to cmd/storagemapd's
// front door: a small typed wrapper over the JSON/HTTP protocol spoken by
// storagemapd's Router, for use by integration tests or any other
// process that wants to drive a remote storage map without
// embedding a Router itself.
package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/mfranciszkiewicz/golem-resource-storage/internal/merkle"
)

// httpClient is shared across every request a Client makes, enabling
// connection reuse the way a single package-level client does for any
// HTTP-heavy Go service.
var httpClient = &http.Client{Timeout: 10 * time.Second}

// Client addresses one running storagemapd instance.
type Client struct {
	baseURL string
}

// New returns a Client targeting baseURL (e.g. "http://localhost:8090").
func New(baseURL string) *Client {
	return &Client{baseURL: baseURL}
}

type createItem struct {
	Location string `json:"location"`
	Size     int64  `json:"size"`
}

type createRequest struct {
	Name  string       `json:"name"`
	Items []createItem `json:"items"`
}

// ResourceItem names one backing resource a new storage map should be
// built over.
type ResourceItem struct {
	Location string
	Size     int64
}

// Create asks the remote storagemapd to build a new storage map named
// name over items.
func (c *Client) Create(ctx context.Context, name string, items []ResourceItem) error {
	req := createRequest{Name: name}
	for _, it := range items {
		req.Items = append(req.Items, createItem{Location: it.Location, Size: it.Size})
	}
	return postJSON(ctx, c.baseURL+"/maps", req, nil)
}

// Load asks the remote storagemapd to reload a storage map named name
// from a saved envelope at path.
func (c *Client) Load(ctx context.Context, name, path string) error {
	return postJSON(ctx, fmt.Sprintf("%s/maps/%s/load", c.baseURL, name), map[string]string{"path": path}, nil)
}

// Save asks the remote storagemapd to persist storage map name to path.
func (c *Client) Save(ctx context.Context, name, path string) error {
	return postJSON(ctx, fmt.Sprintf("%s/maps/%s/save", c.baseURL, name), map[string]string{"path": path}, nil)
}

// Remove asks the remote storagemapd to stop and remove storage map name.
func (c *Client) Remove(ctx context.Context, name string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, fmt.Sprintf("%s/maps/%s", c.baseURL, name), http.NoBody)
	if err != nil {
		return err
	}
	return do(req, nil)
}

type chunkReply struct {
	DataBase64 string `json:"data_base64"`
}

// ReadChunk fetches one chunk's bytes from storage map name.
func (c *Client) ReadChunk(ctx context.Context, name string, chunk int64) ([]byte, error) {
	var reply chunkReply
	if err := getJSON(ctx, fmt.Sprintf("%s/maps/%s/chunks/%d", c.baseURL, name, chunk), &reply); err != nil {
		return nil, err
	}
	return base64.StdEncoding.DecodeString(reply.DataBase64)
}

// WriteChunk writes one chunk's bytes to storage map name.
func (c *Client) WriteChunk(ctx context.Context, name string, chunk int64, data []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, fmt.Sprintf("%s/maps/%s/chunks/%d", c.baseURL, name, chunk), bytes.NewReader(data))
	if err != nil {
		return err
	}
	return do(req, nil)
}

type existsReply struct {
	Exists bool `json:"exists"`
}

// HasChunk reports whether a chunk is present in storage map name.
func (c *Client) HasChunk(ctx context.Context, name string, chunk int64) (bool, error) {
	var reply existsReply
	if err := getJSON(ctx, fmt.Sprintf("%s/maps/%s/chunks/%d/exists", c.baseURL, name, chunk), &reply); err != nil {
		return false, err
	}
	return reply.Exists, nil
}

// HasPiece reports whether a piece is complete in storage map name.
func (c *Client) HasPiece(ctx context.Context, name string, piece int64) (bool, error) {
	var reply existsReply
	if err := getJSON(ctx, fmt.Sprintf("%s/maps/%s/pieces/%d/exists", c.baseURL, name, piece), &reply); err != nil {
		return false, err
	}
	return reply.Exists, nil
}

type proofJSON struct {
	LeafIndex int      `json:"leaf_index"`
	LeafHash  string   `json:"leaf_hash_base64"`
	Path      []string `json:"path_base64"`
	Partial   bool     `json:"partial"`
}

// Prove fetches a Merkle proof for one leaf from storage map name.
func (c *Client) Prove(ctx context.Context, name string, leaf int) (merkle.Proof, error) {
	var pj proofJSON
	if err := getJSON(ctx, fmt.Sprintf("%s/maps/%s/proof/%d", c.baseURL, name, leaf), &pj); err != nil {
		return merkle.Proof{}, err
	}
	return fromProofJSON(pj)
}

// VerifyProof asks the remote storagemapd to verify proof against storage
// map name's own tree state.
func (c *Client) VerifyProof(ctx context.Context, name string, proof merkle.Proof) error {
	return postJSON(ctx, fmt.Sprintf("%s/maps/%s/verify", c.baseURL, name), toProofJSON(proof), nil)
}

func toProofJSON(p merkle.Proof) proofJSON {
	path := make([]string, len(p.Path))
	for i, entry := range p.Path {
		if entry != nil {
			path[i] = base64.StdEncoding.EncodeToString(entry)
		}
	}
	return proofJSON{
		LeafIndex: p.LeafIndex,
		LeafHash:  base64.StdEncoding.EncodeToString(p.LeafHash),
		Path:      path,
		Partial:   p.Partial,
	}
}

func fromProofJSON(pj proofJSON) (merkle.Proof, error) {
	leafHash, err := base64.StdEncoding.DecodeString(pj.LeafHash)
	if err != nil {
		return merkle.Proof{}, fmt.Errorf("decode leaf_hash_base64: %w", err)
	}
	path := make([][]byte, len(pj.Path))
	for i, entry := range pj.Path {
		if entry == "" {
			continue
		}
		b, err := base64.StdEncoding.DecodeString(entry)
		if err != nil {
			return merkle.Proof{}, fmt.Errorf("decode path_base64[%d]: %w", i, err)
		}
		path[i] = b
	}
	return merkle.Proof{LeafIndex: pj.LeafIndex, LeafHash: leafHash, Path: path, Partial: pj.Partial}, nil
}

// postJSON sends a JSON-encoded POST request and decodes the JSON
// response into out, if non-nil.
func postJSON(ctx context.Context, url string, body, out any) error {
	reqBody, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return do(req, out)
}

// getJSON sends a GET request and decodes the JSON response into out.
func getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return err
	}
	return do(req, out)
}

func do(req *http.Request, out any) error {
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("http %s: %d", req.URL, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
