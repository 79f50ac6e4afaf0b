package persistence

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mfranciszkiewicz/golem-resource-storage/internal/storage/resource"
	"github.com/mfranciszkiewicz/golem-resource-storage/internal/storagemap"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	loc := filepath.Join(dir, "data.bin")

	m, err := storagemap.New("fixture", []resource.Item{{Location: loc, Size: 32768}})
	require.NoError(t, err)
	defer m.Close()

	chunkSize := m.Chunks().ChunkSize()
	for c := int64(0); c < m.Chunks().ChunkCount(); c++ {
		buf := make([]byte, chunkSize)
		for i := range buf {
			buf[i] = byte(c)
		}
		require.NoError(t, m.WriteChunk(c, buf), "WriteChunk(%d)", c)
	}

	blobPath := filepath.Join(dir, "map.blob")
	require.NoError(t, Save(m, blobPath))

	loaded, err := Load(blobPath)
	require.NoError(t, err)
	defer loaded.Close()

	require.Equal(t, m.Name(), loaded.Name())
	require.Equal(t, m.Tree().LeafCount(), loaded.Tree().LeafCount())
	require.True(t, loaded.Tree().Built(), "reloaded tree should be fully built")

	for c := int64(0); c < m.Chunks().ChunkCount(); c++ {
		has, err := loaded.HasChunk(c)
		require.NoError(t, err)
		require.True(t, has, "chunk %d missing after reload", c)

		data, err := loaded.ReadChunk(c)
		require.NoError(t, err)
		for i, b := range data {
			require.Equalf(t, byte(c), b, "chunk %d byte %d", c, i)
		}
	}

	proof, err := m.Prove(0)
	require.NoError(t, err)
	require.NoError(t, loaded.VerifyProof(proof), "VerifyProof on reloaded map")
}

func TestLoadRejectsUnknownVersion(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.blob")

	p := NewPacker()
	p.PackUint64(99)
	require.NoError(t, os.WriteFile(path, p.Bytes(), 0o644))

	_, err := Load(path)
	require.Error(t, err, "expected error loading an envelope with an unknown version tag")
}
