package router

import (
	"context"
	"fmt"

	"github.com/luxfi/log"

	"github.com/mfranciszkiewicz/golem-resource-storage/internal/persistence"
	"github.com/mfranciszkiewicz/golem-resource-storage/internal/storagemap"
)

// mailboxSize bounds how many in-flight messages a worker will buffer
// before send starts blocking the sender on a full mailbox.
const mailboxSize = 32

// envelope carries one request through a worker's mailbox alongside the
// channel its reply (a reply struct, or an error) is delivered on, and the
// context that bounds how long the sender is willing to wait for either.
type envelope struct {
	ctx   context.Context
	req   any
	reply chan any
}

// StorageMapWorker owns exactly one storagemap.StorageMap and serializes
// every operation against it by running a single goroutine that reads
// requests off a channel one at a time: access to a storage map's mutable
// state is single-threaded by construction rather than by a mutex, since
// nothing outside run ever touches the underlying StorageMap.
type StorageMapWorker struct {
	m       *storagemap.StorageMap
	mailbox chan envelope
	done    chan struct{}
	log     log.Logger
}

// newWorker starts a worker owning m and returns it already running.
func newWorker(m *storagemap.StorageMap, logger log.Logger) *StorageMapWorker {
	w := &StorageMapWorker{
		m:       m,
		mailbox: make(chan envelope, mailboxSize),
		done:    make(chan struct{}),
		log:     logger,
	}
	go w.run()
	return w
}

// run drains the mailbox until it is closed, answering each request in
// arrival order.
func (w *StorageMapWorker) run() {
	defer close(w.done)
	for e := range w.mailbox {
		resp := w.handle(e.req)
		if err, ok := resp.(error); ok {
			w.log.Debug("request failed", "map", w.m.Name(), "request", fmt.Sprintf("%T", e.req), "error", err)
		}
		select {
		case e.reply <- resp:
		case <-e.ctx.Done():
		}
	}
}

// stop closes the mailbox, waits for run to exit, and then closes the
// underlying storage map. Requests already queued in the mailbox are still
// handled and answered before run exits; the router only calls stop once
// it has stopped routing new requests to this worker's name.
func (w *StorageMapWorker) stop() error {
	close(w.mailbox)
	<-w.done
	return w.m.Close()
}

// send delivers req to the worker's mailbox and waits for its reply,
// respecting ctx on both the send and the wait — used by the Router's
// per-request methods so a caller's timeout bounds the whole round trip,
// not just half of it.
func (w *StorageMapWorker) send(ctx context.Context, req any) (any, error) {
	e := envelope{ctx: ctx, req: req, reply: make(chan any, 1)}

	select {
	case w.mailbox <- e:
	case <-ctx.Done():
		return nil, newErr(KindDelivery, fmt.Sprintf("send: %v", ctx.Err()))
	}

	select {
	case resp := <-e.reply:
		if err, ok := resp.(error); ok {
			return nil, err
		}
		return resp, nil
	case <-ctx.Done():
		return nil, newErr(KindDelivery, fmt.Sprintf("reply: %v", ctx.Err()))
	}
}

// handle dispatches one request to the storage map it owns, returning
// either the matching reply struct or an error. It runs only on the
// worker's own goroutine.
func (w *StorageMapWorker) handle(req any) any {
	switch r := req.(type) {
	case SaveRequest:
		if err := persistence.Save(w.m, r.Path); err != nil {
			return err
		}
		return SaveReply{}

	case ReadChunkRequest:
		data, err := w.m.ReadChunk(r.Chunk)
		if err != nil {
			return err
		}
		return ReadChunkReply{Data: data}

	case WriteChunkRequest:
		if err := w.m.WriteChunk(r.Chunk, r.Data); err != nil {
			return err
		}
		return WriteChunkReply{}

	case HasChunkRequest:
		has, err := w.m.HasChunk(r.Chunk)
		if err != nil {
			return err
		}
		return HasChunkReply{Has: has}

	case HasPieceRequest:
		has, err := w.m.HasPiece(r.Piece)
		if err != nil {
			return err
		}
		return HasPieceReply{Has: has}

	case ProveRequest:
		proof, err := w.m.Prove(r.Leaf)
		if err != nil {
			return err
		}
		return ProveReply{Proof: proof}

	case VerifyProofRequest:
		if err := w.m.VerifyProof(r.Proof); err != nil {
			return err
		}
		return VerifyProofReply{}

	default:
		return fmt.Errorf("router: worker for %q received unrecognized message %T", w.m.Name(), req)
	}
}
