// Package persistence saves and loads a storagemap.StorageMap as a single
// versioned binary blob: a length-prefixed, little-endian encoding of the
// Merkle tree's flat hash buffer and presence bitmap, the chunk map's
// geometry and bitmap, and the storage's name and ordered resource
// locations. Resource bytes themselves are never copied into the blob —
// only enough to reopen the same backing resources and restore the
// verification state over them.
package persistence
