package storagemap

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"github.com/mfranciszkiewicz/golem-resource-storage/internal/merkle"
	"github.com/mfranciszkiewicz/golem-resource-storage/internal/storage/resource"
)

func newTestMap(t *testing.T, totalSize int64) *StorageMap {
	t.Helper()
	dir := t.TempDir()
	loc := filepath.Join(dir, "data.bin")
	m, err := New("m", []resource.Item{{Location: loc, Size: totalSize}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { m.Close() })
	return m
}

func TestWriteChunkCompletesPieceAndCommitsTreeLeaf(t *testing.T) {
	m := newTestMap(t, 16384) // one piece, four chunks
	chunkSize := m.Chunks().ChunkSize()

	for i := int64(0); i < 3; i++ {
		data := bytes.Repeat([]byte{byte(i)}, int(chunkSize))
		if err := m.WriteChunk(i, data); err != nil {
			t.Fatalf("WriteChunk(%d): %v", i, err)
		}
		has, err := m.HasPiece(0)
		if err != nil {
			t.Fatalf("HasPiece: %v", err)
		}
		if has {
			t.Fatalf("piece should not be complete with only %d of 4 chunks written", i+1)
		}
	}

	data := bytes.Repeat([]byte{3}, int(chunkSize))
	if err := m.WriteChunk(3, data); err != nil {
		t.Fatalf("WriteChunk(3): %v", err)
	}

	has, err := m.HasPiece(0)
	if err != nil {
		t.Fatalf("HasPiece: %v", err)
	}
	if !has {
		t.Fatal("piece 0 should be complete after its fourth chunk is written")
	}

	proof, err := m.Prove(0)
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}
	if proof.Partial {
		t.Fatal("proof should not be partial once the sole piece is complete")
	}
	if err := m.VerifyProof(proof); err != nil {
		t.Fatalf("VerifyProof: %v", err)
	}
}

func TestWriteChunkRejectsRewrite(t *testing.T) {
	m := newTestMap(t, 16384)
	chunkSize := m.Chunks().ChunkSize()
	data := make([]byte, chunkSize)

	if err := m.WriteChunk(0, data); err != nil {
		t.Fatalf("first WriteChunk: %v", err)
	}
	err := m.WriteChunk(0, data)
	if err == nil {
		t.Fatal("expected rewriting chunk 0 to fail")
	}
	var se *Error
	if !errors.As(err, &se) || se.Kind != KindChunkAlreadyExists {
		t.Fatalf("expected KindChunkAlreadyExists, got %v", err)
	}
}

func TestReadChunkBeforeWriteFails(t *testing.T) {
	m := newTestMap(t, 16384)
	_, err := m.ReadChunk(0)
	if err == nil {
		t.Fatal("expected ReadChunk on an unset chunk to fail")
	}
	var se *Error
	if !errors.As(err, &se) || se.Kind != KindChunkDoesNotExist {
		t.Fatalf("expected KindChunkDoesNotExist, got %v", err)
	}
}

func TestReadChunkAfterWriteReturnsSameBytes(t *testing.T) {
	m := newTestMap(t, 16384)
	chunkSize := m.Chunks().ChunkSize()
	data := bytes.Repeat([]byte{0x5A}, int(chunkSize))

	if err := m.WriteChunk(2, data); err != nil {
		t.Fatalf("WriteChunk: %v", err)
	}
	got, err := m.ReadChunk(2)
	if err != nil {
		t.Fatalf("ReadChunk: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatal("ReadChunk should return exactly the bytes written")
	}
}

func TestNewOverMultiplePiecesEachCommitsIndependently(t *testing.T) {
	m := newTestMap(t, 32768) // two pieces
	chunkSize := m.Chunks().ChunkSize()

	for i := int64(0); i < 4; i++ {
		if err := m.WriteChunk(i, bytes.Repeat([]byte{byte(i)}, int(chunkSize))); err != nil {
			t.Fatalf("WriteChunk(%d): %v", i, err)
		}
	}
	has0, _ := m.HasPiece(0)
	has1, _ := m.HasPiece(1)
	if !has0 {
		t.Fatal("piece 0 should be complete")
	}
	if has1 {
		t.Fatal("piece 1 should not be complete yet")
	}

	// Piece 0's sibling leaf (piece 1) exists but is unset, so the proof
	// walk stops before collecting any entry and Prove rejects the empty
	// path.
	_, err := m.Prove(0)
	var me *merkle.Error
	if !errors.As(err, &me) || me.Kind != merkle.KindInvalidLength {
		t.Fatalf("Prove(0) while piece 1's leaf is missing: expected KindInvalidLength, got %v", err)
	}
}
