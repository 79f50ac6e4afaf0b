// Package resource is the leaf dependency of the storage stack: one
// Resource per backing byte container, opened or created exclusively and
// never resized after construction. Everything above it (storage.Storage,
// the chunk map, the Merkle tree) is built on the assumption that a
// Resource's Size is immutable for its lifetime.
package resource
