package storage

// Iterator is a stateful, pull-based, non-restartable producer of
// successive non-overlapping blocks of blockSize bytes over a Storage,
// starting at offset 0 — the stream the Merkle tree consumes to build its
// leaves. The buffer returned by Next is owned by the Iterator and is
// reused on the following call; a caller must not retain it across calls.
type Iterator struct {
	s         *Storage
	buf       []byte
	offset    int64
	blockSize int
}

// Iter constructs an Iterator over s producing blocks of at most blockSize
// bytes.
func (s *Storage) Iter(blockSize int) *Iterator {
	return &Iterator{s: s, blockSize: blockSize, buf: make([]byte, blockSize)}
}

// Len returns the upper-bound block count ⌈TotalSize/blockSize⌉, a size
// hint only — Next may yield fewer blocks if an I/O error terminates the
// sequence early.
func (it *Iterator) Len() int {
	total := it.s.TotalSize()
	if total == 0 {
		return 0
	}
	n := total / int64(it.blockSize)
	if total%int64(it.blockSize) != 0 {
		n++
	}
	return int(n)
}

// Next reads the next block. It returns (block, true) on success — block
// is a (possibly truncated) slice of the Iterator's internal buffer — or
// (nil, false) once the storage is exhausted or an error occurred. On
// error, the offset is jumped to TotalSize, ending the sequence
// permanently; the error itself is not surfaced, since the iterator is a
// pure byte-block producer with no error-return channel in its interface.
func (it *Iterator) Next() ([]byte, bool) {
	total := it.s.TotalSize()
	if it.offset >= total {
		return nil, false
	}

	remaining := total - it.offset
	n := int64(it.blockSize)
	if n > remaining {
		n = remaining
	}

	read, err := it.s.Read(it.offset, it.buf[:n])
	if err != nil {
		it.offset = total
		return nil, false
	}

	it.offset += read
	return it.buf[:read], true
}
