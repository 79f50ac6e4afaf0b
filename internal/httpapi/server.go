// Package httpapi is the HTTP front door over a router.Router: one
// process hosting any number of named, independently-workered storage
// maps, reachable over a small JSON/HTTP API. cmd/storagemapd wires this
// into a *http.Server; test/integration exercises it directly through
// httptest.
//
// Route table:
//
//	POST   /maps                               create a storage map
//	POST   /maps/{name}/load                   reload a storage map from a saved envelope
//	POST   /maps/{name}/save                   persist a storage map to a path
//	DELETE /maps/{name}                        stop and remove a storage map
//	GET    /maps/{name}/chunks/{chunk}         read one chunk's bytes
//	PUT    /maps/{name}/chunks/{chunk}         write one chunk's bytes
//	GET    /maps/{name}/chunks/{chunk}/exists  whether a chunk is present
//	GET    /maps/{name}/pieces/{piece}/exists  whether a piece is complete
//	GET    /maps/{name}/proof/{leaf}           a Merkle proof for one leaf
//	POST   /maps/{name}/verify                 verify a received proof
//	GET    /health                             liveness check
package httpapi

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/luxfi/log"

	"github.com/mfranciszkiewicz/golem-resource-storage/internal/merkle"
	"github.com/mfranciszkiewicz/golem-resource-storage/internal/router"
	"github.com/mfranciszkiewicz/golem-resource-storage/internal/storage/resource"
)

// Server wires a router.Router into an HTTP mux. Every handler is a thin
// marshal/unmarshal shim: the actual work — and the only place a storage
// map's state is touched — happens inside the Router's workers.
type Server struct {
	router  *router.Router
	log     log.Logger
	dataDir string
}

// New returns a Server dispatching onto r, logging through logger, and
// resolving a bare map name to a default envelope path under dataDir
// whenever a Load or Save request omits an explicit path.
func New(r *router.Router, logger log.Logger, dataDir string) *Server {
	if logger == nil {
		logger = log.NewNoOpLogger()
	}
	return &Server{router: r, log: logger, dataDir: dataDir}
}

// Handler returns the http.Handler serving Server's route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /maps", s.handleCreate)
	mux.HandleFunc("POST /maps/{name}/load", s.handleLoad)
	mux.HandleFunc("POST /maps/{name}/save", s.handleSave)
	mux.HandleFunc("DELETE /maps/{name}", s.handleRemove)
	mux.HandleFunc("GET /maps/{name}/chunks/{chunk}", s.handleReadChunk)
	mux.HandleFunc("PUT /maps/{name}/chunks/{chunk}", s.handleWriteChunk)
	mux.HandleFunc("GET /maps/{name}/chunks/{chunk}/exists", s.handleHasChunk)
	mux.HandleFunc("GET /maps/{name}/pieces/{piece}/exists", s.handleHasPiece)
	mux.HandleFunc("GET /maps/{name}/proof/{leaf}", s.handleProve)
	mux.HandleFunc("POST /maps/{name}/verify", s.handleVerifyProof)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// createRequest names the resources a new storage map should be built
// over — each item a location with an explicit size, passed to the router
// unchanged. Sizes are not looked up from disk: an item whose location
// already exists must declare that resource's actual size, or creation
// fails with a size mismatch.
type createRequest struct {
	Name  string       `json:"name"`
	Items []createItem `json:"items"`
}

type createItem struct {
	Location string `json:"location"`
	Size     int64  `json:"size"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	items := make([]resource.Item, len(req.Items))
	for i, it := range req.Items {
		items[i] = resource.Item{Location: it.Location, Size: it.Size}
	}

	if _, err := s.router.Create(router.CreateRequest{Name: req.Name, Items: items}); err != nil {
		writeError(w, s.log, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

type loadRequest struct {
	Path string `json:"path"`
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	var req loadRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	path := req.Path
	if path == "" {
		path = filepath.Join(s.dataDir, name+".blob")
	}

	if _, err := s.router.Load(router.LoadRequest{Name: name, Path: path}); err != nil {
		writeError(w, s.log, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

type saveRequest struct {
	Path string `json:"path"`
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	var req saveRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	path := req.Path
	if path == "" {
		path = filepath.Join(s.dataDir, name+".blob")
	}

	if err := s.router.Save(r.Context(), name, path); err != nil {
		writeError(w, s.log, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if err := s.router.Remove(name); err != nil {
		writeError(w, s.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type chunkReply struct {
	DataBase64 string `json:"data_base64"`
}

func (s *Server) handleReadChunk(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	chunk, ok := parseIntPathValue(w, r, "chunk")
	if !ok {
		return
	}

	data, err := s.router.ReadChunk(r.Context(), name, chunk)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, chunkReply{DataBase64: base64.StdEncoding.EncodeToString(data)})
}

func (s *Server) handleWriteChunk(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	chunk, ok := parseIntPathValue(w, r, "chunk")
	if !ok {
		return
	}

	data, err := readBody(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := s.router.WriteChunk(r.Context(), name, chunk, data); err != nil {
		writeError(w, s.log, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

type existsReply struct {
	Exists bool `json:"exists"`
}

func (s *Server) handleHasChunk(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	chunk, ok := parseIntPathValue(w, r, "chunk")
	if !ok {
		return
	}

	has, err := s.router.HasChunk(r.Context(), name, chunk)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, existsReply{Exists: has})
}

func (s *Server) handleHasPiece(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	piece, ok := parseIntPathValue(w, r, "piece")
	if !ok {
		return
	}

	has, err := s.router.HasPiece(r.Context(), name, piece)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, existsReply{Exists: has})
}

// proofJSON is the wire form of a merkle.Proof: each path entry is either
// a base64 string or the empty string, preserving the distinction between
// "no sibling" (nil) and "sibling hash".
type proofJSON struct {
	LeafIndex int      `json:"leaf_index"`
	LeafHash  string   `json:"leaf_hash_base64"`
	Path      []string `json:"path_base64"`
	Partial   bool     `json:"partial"`
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

func (s *Server) handleProve(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	leaf, ok := parseIntPathValue(w, r, "leaf")
	if !ok {
		return
	}

	proof, err := s.router.Prove(r.Context(), name, int(leaf))
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toProofJSON(proof))
}

func (s *Server) handleVerifyProof(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	var pj proofJSON
	if !decodeJSON(w, r, &pj) {
		return
	}
	proof, err := fromProofJSON(pj)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := s.router.VerifyProof(r.Context(), name, proof); err != nil {
		writeError(w, s.log, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func parseIntPathValue(w http.ResponseWriter, r *http.Request, key string) (int64, bool) {
	v, err := strconv.ParseInt(r.PathValue(key), 10, 64)
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid %s: %v", key, err), http.StatusBadRequest)
		return 0, false
	}
	return v, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, out any) bool {
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return false
	}
	return true
}

func readBody(r *http.Request) ([]byte, error) {
	defer r.Body.Close()
	return io.ReadAll(r.Body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, logger log.Logger, err error) {
	logger.Warn("request failed", "error", err)
	http.Error(w, err.Error(), http.StatusBadRequest)
}
