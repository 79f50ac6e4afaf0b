// Package router is the actor-style shell around storagemap.StorageMap: a
// Router owns a named set of StorageMapWorkers, each serializing every
// operation against the one storage map it owns through a single
// goroutine and mailbox channel, so nothing outside a worker ever touches
// its storage map concurrently. See doc.go for the full package overview.
package router

import (
	"context"
	"sync"

	"github.com/luxfi/log"
	"golang.org/x/sync/errgroup"

	"github.com/mfranciszkiewicz/golem-resource-storage/internal/merkle"
	"github.com/mfranciszkiewicz/golem-resource-storage/internal/persistence"
	"github.com/mfranciszkiewicz/golem-resource-storage/internal/storage/resource"
	"github.com/mfranciszkiewicz/golem-resource-storage/internal/storagemap"
)

// Router dispatches named requests to the worker that owns the matching
// storage map, spawning a worker on Create or Load and rejecting a
// duplicate name rather than silently replacing a running worker.
type Router struct {
	mu      sync.RWMutex
	workers map[string]*StorageMapWorker
	log     log.Logger
}

// New returns an empty Router. A nil logger is replaced with a no-op
// logger, matching the rest of the module's logging convention of never
// requiring a caller to plumb one through just to avoid a nil panic.
func New(logger log.Logger) *Router {
	if logger == nil {
		logger = log.NewNoOpLogger()
	}
	return &Router{workers: make(map[string]*StorageMapWorker), log: logger}
}

// Create builds a brand new storage map named req.Name over req.Items and
// starts a worker for it. It fails with KindAlreadyExists if a worker is
// already running under that name.
func (r *Router) Create(req CreateRequest) (CreateReply, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.workers[req.Name]; exists {
		return CreateReply{}, newErr(KindAlreadyExists, req.Name)
	}

	m, err := storagemap.New(req.Name, req.Items)
	if err != nil {
		return CreateReply{}, err
	}

	r.workers[req.Name] = newWorker(m, r.log)
	r.log.Info("storage map created", "name", req.Name)
	return CreateReply{}, nil
}

// Load reconstructs a storage map named req.Name from a previously saved
// envelope at req.Path and starts a worker for it. It fails with
// KindAlreadyExists if a worker is already running under that name.
func (r *Router) Load(req LoadRequest) (LoadReply, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.workers[req.Name]; exists {
		return LoadReply{}, newErr(KindAlreadyExists, req.Name)
	}

	m, err := persistence.Load(req.Path)
	if err != nil {
		return LoadReply{}, err
	}

	r.workers[req.Name] = newWorker(m, r.log)
	r.log.Info("storage map loaded", "name", req.Name, "path", req.Path)
	return LoadReply{}, nil
}

// Remove stops the worker running under name and closes its storage map's
// resources, removing it from the router. It fails with KindDoesNotExist
// if no worker is running under that name.
func (r *Router) Remove(name string) error {
	r.mu.Lock()
	w, exists := r.workers[name]
	if !exists {
		r.mu.Unlock()
		return newErr(KindDoesNotExist, name)
	}
	delete(r.workers, name)
	r.mu.Unlock()

	return w.stop()
}

// Names returns the names of every storage map currently running.
func (r *Router) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.workers))
	for name := range r.workers {
		names = append(names, name)
	}
	return names
}

// Close stops every running worker concurrently, closing their storage
// maps. Each worker's mailbox already serializes its own shutdown, so
// stopping N workers in parallel via errgroup is safe and turns Close's
// cost from the sum of every worker's drain time into the slowest one.
func (r *Router) Close() error {
	r.mu.Lock()
	workers := r.workers
	r.workers = make(map[string]*StorageMapWorker)
	r.mu.Unlock()

	var g errgroup.Group
	for _, w := range workers {
		w := w
		g.Go(w.stop)
	}
	return g.Wait()
}

func (r *Router) worker(name string) (*StorageMapWorker, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	w, exists := r.workers[name]
	if !exists {
		return nil, newErr(KindDoesNotExist, name)
	}
	return w, nil
}

// Save asks the worker running under name to persist its storage map to
// path.
func (r *Router) Save(ctx context.Context, name, path string) error {
	w, err := r.worker(name)
	if err != nil {
		return err
	}
	_, err = w.send(ctx, SaveRequest{Path: path})
	return err
}

// ReadChunk asks the worker running under name for one chunk's bytes.
func (r *Router) ReadChunk(ctx context.Context, name string, chunk int64) ([]byte, error) {
	w, err := r.worker(name)
	if err != nil {
		return nil, err
	}
	resp, err := w.send(ctx, ReadChunkRequest{Chunk: chunk})
	if err != nil {
		return nil, err
	}
	return resp.(ReadChunkReply).Data, nil
}

// WriteChunk asks the worker running under name to write one chunk.
func (r *Router) WriteChunk(ctx context.Context, name string, chunk int64, data []byte) error {
	w, err := r.worker(name)
	if err != nil {
		return err
	}
	_, err = w.send(ctx, WriteChunkRequest{Chunk: chunk, Data: data})
	return err
}

// HasChunk asks the worker running under name whether a chunk is present.
func (r *Router) HasChunk(ctx context.Context, name string, chunk int64) (bool, error) {
	w, err := r.worker(name)
	if err != nil {
		return false, err
	}
	resp, err := w.send(ctx, HasChunkRequest{Chunk: chunk})
	if err != nil {
		return false, err
	}
	return resp.(HasChunkReply).Has, nil
}

// HasPiece asks the worker running under name whether a piece is complete.
func (r *Router) HasPiece(ctx context.Context, name string, piece int64) (bool, error) {
	w, err := r.worker(name)
	if err != nil {
		return false, err
	}
	resp, err := w.send(ctx, HasPieceRequest{Piece: piece})
	if err != nil {
		return false, err
	}
	return resp.(HasPieceReply).Has, nil
}

// Prove asks the worker running under name for a Merkle proof of one leaf.
func (r *Router) Prove(ctx context.Context, name string, leaf int) (merkle.Proof, error) {
	w, err := r.worker(name)
	if err != nil {
		return merkle.Proof{}, err
	}
	resp, err := w.send(ctx, ProveRequest{Leaf: leaf})
	if err != nil {
		return merkle.Proof{}, err
	}
	return resp.(ProveReply).Proof, nil
}

// VerifyProof asks the worker running under name to check proof against
// its own tree state.
func (r *Router) VerifyProof(ctx context.Context, name string, proof merkle.Proof) error {
	w, err := r.worker(name)
	if err != nil {
		return err
	}
	_, err = w.send(ctx, VerifyProofRequest{Proof: proof})
	return err
}

// Item aliases resource.Item so callers building a CreateRequest don't need
// to import the resource package solely for this one type.
type Item = resource.Item
