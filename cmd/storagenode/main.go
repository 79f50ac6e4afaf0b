// Command storagenode is a local inspection and maintenance CLI for one
// storage map's saved envelope: create it, read/write individual chunks,
// check chunk and piece presence, and print Merkle proofs, all without
// going through a running
// storagemapd daemon. It operates directly on internal/persistence and
// internal/storagemap — useful for scripting and debugging against a
// single envelope file.
package main

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/mfranciszkiewicz/golem-resource-storage/internal/merkle"
	"github.com/mfranciszkiewicz/golem-resource-storage/internal/persistence"
	"github.com/mfranciszkiewicz/golem-resource-storage/internal/storage/resource"
	"github.com/mfranciszkiewicz/golem-resource-storage/internal/storagemap"
)

func main() {
	app := &cli.App{
		Name:  "storagenode",
		Usage: "inspect and maintain a single storage map's saved envelope",
		Commands: []*cli.Command{
			createCommand(),
			readChunkCommand(),
			writeChunkCommand(),
			hasChunkCommand(),
			hasPieceCommand(),
			proveCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "storagenode:", err)
		os.Exit(1)
	}
}

func createCommand() *cli.Command {
	return &cli.Command{
		Name:      "create",
		Usage:     "build a new storage map and save it to an envelope",
		ArgsUsage: "<envelope-path> <map-name> <resource-location> [resource-location ...]",
		Action: func(c *cli.Context) error {
			if c.Args().Len() < 3 {
				return fmt.Errorf("create requires an envelope path, a map name, and at least one resource location")
			}
			envelopePath := c.Args().Get(0)
			name := c.Args().Get(1)
			locations := c.Args().Slice()[2:]

			items, err := resource.CollectSizes(locations)
			if err != nil {
				return err
			}

			m, err := storagemap.Open(name, items)
			if err != nil {
				return err
			}
			defer m.Close()

			if err := persistence.Save(m, envelopePath); err != nil {
				return err
			}
			fmt.Printf("created %q with %d pieces at %s\n", name, m.Tree().LeafCount(), envelopePath)
			return nil
		},
	}
}

func readChunkCommand() *cli.Command {
	return &cli.Command{
		Name:      "read-chunk",
		Usage:     "read one chunk's bytes, base64-encoded, from a saved envelope",
		ArgsUsage: "<envelope-path> <chunk-index>",
		Action: func(c *cli.Context) error {
			m, chunk, err := openEnvelopeWithIndex(c)
			if err != nil {
				return err
			}
			defer m.Close()

			data, err := m.ReadChunk(chunk)
			if err != nil {
				return err
			}
			fmt.Println(base64.StdEncoding.EncodeToString(data))
			return nil
		},
	}
}

func writeChunkCommand() *cli.Command {
	return &cli.Command{
		Name:      "write-chunk",
		Usage:     "write one chunk's bytes (base64-encoded) and re-save the envelope",
		ArgsUsage: "<envelope-path> <chunk-index> <base64-data>",
		Action: func(c *cli.Context) error {
			if c.Args().Len() != 3 {
				return fmt.Errorf("write-chunk requires an envelope path, a chunk index, and base64 data")
			}
			envelopePath := c.Args().Get(0)
			chunk, err := strconv.ParseInt(c.Args().Get(1), 10, 64)
			if err != nil {
				return fmt.Errorf("invalid chunk index: %w", err)
			}
			data, err := base64.StdEncoding.DecodeString(c.Args().Get(2))
			if err != nil {
				return fmt.Errorf("invalid base64 data: %w", err)
			}

			m, err := persistence.Load(envelopePath)
			if err != nil {
				return err
			}
			defer m.Close()

			if err := m.WriteChunk(chunk, data); err != nil {
				return err
			}
			return persistence.Save(m, envelopePath)
		},
	}
}

func hasChunkCommand() *cli.Command {
	return &cli.Command{
		Name:      "has-chunk",
		Usage:     "report whether a chunk is present in a saved envelope",
		ArgsUsage: "<envelope-path> <chunk-index>",
		Action: func(c *cli.Context) error {
			m, chunk, err := openEnvelopeWithIndex(c)
			if err != nil {
				return err
			}
			defer m.Close()

			has, err := m.HasChunk(chunk)
			if err != nil {
				return err
			}
			fmt.Println(has)
			return nil
		},
	}
}

func hasPieceCommand() *cli.Command {
	return &cli.Command{
		Name:      "has-piece",
		Usage:     "report whether a piece's chunks are all present in a saved envelope",
		ArgsUsage: "<envelope-path> <piece-index>",
		Action: func(c *cli.Context) error {
			m, piece, err := openEnvelopeWithIndex(c)
			if err != nil {
				return err
			}
			defer m.Close()

			has, err := m.HasPiece(piece)
			if err != nil {
				return err
			}
			fmt.Println(has)
			return nil
		},
	}
}

func proveCommand() *cli.Command {
	return &cli.Command{
		Name:      "prove",
		Usage:     "print a Merkle proof for one leaf as JSON",
		ArgsUsage: "<envelope-path> <leaf-index>",
		Action: func(c *cli.Context) error {
			m, leaf, err := openEnvelopeWithIndex(c)
			if err != nil {
				return err
			}
			defer m.Close()

			proof, err := m.Prove(int(leaf))
			if err != nil {
				return err
			}
			return json.NewEncoder(os.Stdout).Encode(proofSummary(proof))
		},
	}
}

func proofSummary(p merkle.Proof) map[string]any {
	path := make([]string, len(p.Path))
	for i, entry := range p.Path {
		if entry != nil {
			path[i] = base64.StdEncoding.EncodeToString(entry)
		}
	}
	return map[string]any{
		"leaf_index":       p.LeafIndex,
		"leaf_hash_base64": base64.StdEncoding.EncodeToString(p.LeafHash),
		"path_base64":      path,
		"partial":          p.Partial,
	}
}

func openEnvelopeWithIndex(c *cli.Context) (*storagemap.StorageMap, int64, error) {
	if c.Args().Len() != 2 {
		return nil, 0, fmt.Errorf("expected an envelope path and an index")
	}
	m, err := persistence.Load(c.Args().Get(0))
	if err != nil {
		return nil, 0, err
	}
	idx, err := strconv.ParseInt(c.Args().Get(1), 10, 64)
	if err != nil {
		_ = m.Close()
		return nil, 0, fmt.Errorf("invalid index: %w", err)
	}
	return m, idx, nil
}
