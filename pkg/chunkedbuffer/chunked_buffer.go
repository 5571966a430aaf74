package chunkedbuffer

import (
	"fmt"
	"sort"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// DefaultChunkSizeBytes is the regular chunk size used by callers that
// have no particular preference.
const DefaultChunkSizeBytes = 64 * 1024

// ChunkedBuffer is a growable byte buffer that stores its contents as a
// sequence of separately allocated chunks. It is used to hold segment
// data in memory, which may be gigabytes in size and is written
// incrementally.
//
// Unlike a slice that is grown through append(), a ChunkedBuffer never
// reallocates memory that has already been handed out. Growing the
// buffer either extends the last chunk within its existing capacity or
// appends new chunks. Byte slices obtained through ContiguousBytes()
// or PtrCast() therefore remain valid for the lifetime of the buffer.
//
// Chunks normally all have the regular chunk size, except for the last
// one, which may be partially filled. Offsets within this regular
// prefix are resolved arithmetically. Buffers produced by Split(), or
// buffers in which a CursoredBuffer needed a contiguous region that
// did not fit in the last chunk, may contain chunks of other sizes.
// Offsets past the regular prefix are resolved through a binary search
// over chunk start offsets.
//
// A ChunkedBuffer has no internal locking. It may be written by a
// single goroutine, or read by any number of goroutines once writing
// has completed.
type ChunkedBuffer struct {
	chunkSizeBytes int
	chunks         [][]byte
	chunkOffsets   []int
	regularChunks  int
	sizeBytes      int
	consumed       bool
}

// NewChunkedBuffer creates an empty ChunkedBuffer that allocates
// chunks of a given regular size.
func NewChunkedBuffer(chunkSizeBytes int) *ChunkedBuffer {
	if chunkSizeBytes <= 0 {
		panic(fmt.Sprintf("Invalid chunk size of %d bytes", chunkSizeBytes))
	}
	return &ChunkedBuffer{
		chunkSizeBytes: chunkSizeBytes,
	}
}

// NewChunkedBufferFromByteSlice creates a ChunkedBuffer that contains a
// copy of the provided data.
func NewChunkedBufferFromByteSlice(data []byte, chunkSizeBytes int) *ChunkedBuffer {
	b := NewChunkedBuffer(chunkSizeBytes)
	b.Ensure(len(data))
	b.WriteAt(data, 0)
	return b
}

func (b *ChunkedBuffer) checkUsable() {
	if b.consumed {
		panic("Attempted to use a ChunkedBuffer that has been consumed by Split()")
	}
}

// ChunkSizeBytes returns the regular chunk size of the buffer.
func (b *ChunkedBuffer) ChunkSizeBytes() int {
	return b.chunkSizeBytes
}

// Bytes returns the logical length of the buffer.
func (b *ChunkedBuffer) Bytes() int {
	b.checkUsable()
	return b.sizeBytes
}

// NumChunks returns the number of chunks the buffer consists of.
func (b *ChunkedBuffer) NumChunks() int {
	b.checkUsable()
	return len(b.chunks)
}

// Chunk returns the contents of a single chunk.
func (b *ChunkedBuffer) Chunk(index int) []byte {
	b.checkUsable()
	return b.chunks[index]
}

// IsRegular returns whether all chunks except the last one have
// exactly the regular chunk size.
func (b *ChunkedBuffer) IsRegular() bool {
	b.checkUsable()
	return b.regularChunks >= len(b.chunks)-1
}

// appendChunk adds a chunk to the end of the buffer. The chunk's
// length counts towards the logical length of the buffer. Any spare
// capacity may be used by subsequent calls to Ensure().
func (b *ChunkedBuffer) appendChunk(chunk []byte) {
	b.chunkOffsets = append(b.chunkOffsets, b.sizeBytes)
	b.chunks = append(b.chunks, chunk)
	b.sizeBytes += len(chunk)
	b.updateRegularChunks()
}

// sealLastChunk prevents the last chunk from growing any further. It
// is called when a contiguous region is needed that does not fit in
// the remaining capacity of the last chunk.
func (b *ChunkedBuffer) sealLastChunk() {
	if n := len(b.chunks); n > 0 {
		last := b.chunks[n-1]
		if len(last) == 0 {
			b.chunks = b.chunks[:n-1]
			b.chunkOffsets = b.chunkOffsets[:n-1]
		} else {
			b.chunks[n-1] = last[:len(last):len(last)]
		}
	}
}

func (b *ChunkedBuffer) updateRegularChunks() {
	for b.regularChunks < len(b.chunks) && len(b.chunks[b.regularChunks]) == b.chunkSizeBytes {
		b.regularChunks++
	}
}

// Ensure grows the buffer, so that its logical length is at least
// totalBytes. The buffer is never shrunk. Newly added bytes are zero.
func (b *ChunkedBuffer) Ensure(totalBytes int) {
	b.checkUsable()
	for b.sizeBytes < totalBytes {
		missing := totalBytes - b.sizeBytes
		if n := len(b.chunks); n > 0 {
			last := b.chunks[n-1]
			if spare := cap(last) - len(last); spare > 0 {
				grow := min(spare, missing)
				b.chunks[n-1] = last[:len(last)+grow]
				b.sizeBytes += grow
				continue
			}
		}
		b.appendChunk(make([]byte, min(b.chunkSizeBytes, missing), b.chunkSizeBytes))
	}
	b.updateRegularChunks()
}

// ensureContiguous grows the buffer by sizeBytes, guaranteeing that the
// newly added region is stored within a single chunk. It returns the
// logical offset of the region.
func (b *ChunkedBuffer) ensureContiguous(sizeBytes int) int {
	b.checkUsable()
	offset := b.sizeBytes
	if n := len(b.chunks); n > 0 {
		last := b.chunks[n-1]
		if cap(last)-len(last) >= sizeBytes {
			b.chunks[n-1] = last[:len(last)+sizeBytes]
			b.sizeBytes += sizeBytes
			b.updateRegularChunks()
			return offset
		}
		b.sealLastChunk()
	}
	b.appendChunk(make([]byte, sizeBytes, max(sizeBytes, b.chunkSizeBytes)))
	return offset
}

// locate converts a logical offset to a chunk index and an offset
// within that chunk.
func (b *ChunkedBuffer) locate(offset int) (int, int) {
	if offset < 0 || offset >= b.sizeBytes {
		panic(fmt.Sprintf("Offset %d is out of bounds for a buffer of %d bytes", offset, b.sizeBytes))
	}
	if offset < b.regularChunks*b.chunkSizeBytes {
		return offset / b.chunkSizeBytes, offset % b.chunkSizeBytes
	}
	index := sort.Search(len(b.chunkOffsets), func(i int) bool {
		return b.chunkOffsets[i] > offset
	}) - 1
	return index, offset - b.chunkOffsets[index]
}

// ContiguousBytes returns a slice that refers to the buffer's storage
// for the region [offset, offset+sizeBytes). The region must lie within
// a single chunk. Requesting a region that is out of bounds or that
// spans multiple chunks is a programming error, causing a panic.
func (b *ChunkedBuffer) ContiguousBytes(offset, sizeBytes int) []byte {
	b.checkUsable()
	if sizeBytes == 0 {
		if offset < 0 || offset > b.sizeBytes {
			panic(fmt.Sprintf("Offset %d is out of bounds for a buffer of %d bytes", offset, b.sizeBytes))
		}
		return nil
	}
	if sizeBytes < 0 || offset+sizeBytes > b.sizeBytes {
		panic(fmt.Sprintf("Region [%d, %d) is out of bounds for a buffer of %d bytes", offset, offset+sizeBytes, b.sizeBytes))
	}
	index, inChunk := b.locate(offset)
	chunk := b.chunks[index]
	if inChunk+sizeBytes > len(chunk) {
		panic(fmt.Sprintf("Region [%d, %d) spans multiple chunks", offset, offset+sizeBytes))
	}
	return chunk[inChunk : inChunk+sizeBytes : inChunk+sizeBytes]
}

// ReadAt copies bytes starting at a given logical offset into p,
// crossing chunk boundaries where needed. The region must lie within
// the buffer.
func (b *ChunkedBuffer) ReadAt(p []byte, offset int) {
	b.checkUsable()
	b.checkRegion(offset, len(p))
	for len(p) > 0 {
		index, inChunk := b.locate(offset)
		n := copy(p, b.chunks[index][inChunk:])
		p = p[n:]
		offset += n
	}
}

// WriteAt copies p into the buffer, starting at a given logical offset
// and crossing chunk boundaries where needed. The region must lie
// within the buffer.
func (b *ChunkedBuffer) WriteAt(p []byte, offset int) {
	b.checkUsable()
	b.checkRegion(offset, len(p))
	for len(p) > 0 {
		index, inChunk := b.locate(offset)
		n := copy(b.chunks[index][inChunk:], p)
		p = p[n:]
		offset += n
	}
}

// Write appends p to the end of the buffer. It allows a ChunkedBuffer
// to be used as an io.Writer. It never fails.
func (b *ChunkedBuffer) Write(p []byte) (int, error) {
	offset := b.Bytes()
	b.Ensure(offset + len(p))
	b.WriteAt(p, offset)
	return len(p), nil
}

func (b *ChunkedBuffer) checkRegion(offset, sizeBytes int) {
	if offset < 0 || sizeBytes < 0 || offset+sizeBytes > b.sizeBytes {
		panic(fmt.Sprintf("Region [%d, %d) is out of bounds for a buffer of %d bytes", offset, offset+sizeBytes, b.sizeBytes))
	}
}

// Clone returns a deep copy of the buffer. The copy uses the same
// chunk layout as the original.
func (b *ChunkedBuffer) Clone() *ChunkedBuffer {
	b.checkUsable()
	clone := &ChunkedBuffer{
		chunkSizeBytes: b.chunkSizeBytes,
		chunks:         make([][]byte, 0, len(b.chunks)),
		chunkOffsets:   make([]int, 0, len(b.chunks)),
	}
	for _, chunk := range b.chunks {
		chunkCopy := make([]byte, len(chunk), cap(chunk))
		copy(chunkCopy, chunk)
		clone.appendChunk(chunkCopy)
	}
	return clone
}

// ToByteSlice returns the contents of the buffer as a single
// contiguous byte slice. As this requires the full contents to be
// copied, the size of the buffer is bounded.
func (b *ChunkedBuffer) ToByteSlice(maximumSizeBytes int) ([]byte, error) {
	b.checkUsable()
	if b.sizeBytes > maximumSizeBytes {
		return nil, status.Errorf(codes.InvalidArgument, "Buffer is %d bytes in size, while a maximum of %d bytes is permitted", b.sizeBytes, maximumSizeBytes)
	}
	data := make([]byte, 0, b.sizeBytes)
	for _, chunk := range b.chunks {
		data = append(data, chunk...)
	}
	return data, nil
}

// Iterator returns a ChunkIterator that walks over the buffer from the
// start, yielding items of strideBytes in size.
func (b *ChunkedBuffer) Iterator(strideBytes int) *ChunkIterator {
	return b.IteratorAt(0, strideBytes)
}

// IteratorAt returns a ChunkIterator that walks over the buffer,
// starting at a given logical offset.
func (b *ChunkedBuffer) IteratorAt(offset, strideBytes int) *ChunkIterator {
	b.checkUsable()
	if strideBytes <= 0 {
		panic(fmt.Sprintf("Invalid iterator stride of %d bytes", strideBytes))
	}
	if offset < 0 || offset > b.sizeBytes {
		panic(fmt.Sprintf("Offset %d is out of bounds for a buffer of %d bytes", offset, b.sizeBytes))
	}
	return &ChunkIterator{
		buffer:      b,
		offset:      offset,
		strideBytes: strideBytes,
	}
}

// consume marks the buffer as no longer usable, returning its chunks.
func (b *ChunkedBuffer) consume() ([][]byte, int) {
	b.checkUsable()
	chunks, sizeBytes := b.chunks, b.sizeBytes
	*b = ChunkedBuffer{
		chunkSizeBytes: b.chunkSizeBytes,
		consumed:       true,
	}
	return chunks, sizeBytes
}
