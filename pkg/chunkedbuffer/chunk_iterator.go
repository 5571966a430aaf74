package chunkedbuffer

// ChunkIterator walks over the contents of a ChunkedBuffer as a flat
// sequence of fixed-size items. It is forward-only; a new iterator
// needs to be created to scan the buffer again.
//
// The buffer may not be modified while an iterator is in use.
type ChunkIterator struct {
	buffer      *ChunkedBuffer
	offset      int
	strideBytes int
}

// Finished returns whether the iterator has moved past the end of the
// buffer.
func (it *ChunkIterator) Finished() bool {
	return it.offset >= it.buffer.Bytes()
}

// Next moves the iterator to the next item.
func (it *ChunkIterator) Next() {
	if it.Finished() {
		panic("Attempted to advance a ChunkIterator past the end of the buffer")
	}
	it.offset += it.strideBytes
}

// Offset returns the logical offset of the current item.
func (it *ChunkIterator) Offset() int {
	return it.offset
}

// Value returns the contents of the current item. If the item is stored
// within a single chunk, the returned slice refers to the buffer's
// storage directly. Items that span chunks are copied. The last item of
// a buffer whose size is not a multiple of the stride is truncated.
func (it *ChunkIterator) Value() []byte {
	if it.Finished() {
		panic("Attempted to obtain the value of a finished ChunkIterator")
	}
	sizeBytes := min(it.strideBytes, it.buffer.Bytes()-it.offset)
	index, inChunk := it.buffer.locate(it.offset)
	if chunk := it.buffer.chunks[index]; inChunk+sizeBytes <= len(chunk) {
		return chunk[inChunk : inChunk+sizeBytes : inChunk+sizeBytes]
	}
	merged := make([]byte, sizeBytes)
	it.buffer.ReadAt(merged, it.offset)
	return merged
}
