package chunkedbuffer

import (
	"fmt"
)

// Split repartitions the contents of a ChunkedBuffer into a sequence of
// new buffers that are each splitSizeBytes in size, except for the last
// one, which may be shorter. An empty buffer yields an empty sequence.
//
// Split consumes its input. The input's chunks are handed over to the
// resulting buffers where possible: the part of a chunk that is the
// final piece of that chunk is moved, while leading pieces that belong
// to a different output are copied. As a result no chunk storage is
// shared between any two of the returned buffers. The input buffer may
// not be used afterwards.
func Split(b *ChunkedBuffer, splitSizeBytes int) []*ChunkedBuffer {
	if splitSizeBytes <= 0 {
		panic(fmt.Sprintf("Invalid split size of %d bytes", splitSizeBytes))
	}
	chunkSizeBytes := b.chunkSizeBytes
	chunks, sizeBytes := b.consume()

	results := make([]*ChunkedBuffer, 0, (sizeBytes+splitSizeBytes-1)/splitSizeBytes)
	current := NewChunkedBuffer(chunkSizeBytes)
	for _, chunk := range chunks {
		for len(chunk) > 0 {
			remaining := splitSizeBytes - current.sizeBytes
			if len(chunk) <= remaining {
				// Remainder of this chunk fits. Move it.
				current.appendChunk(chunk[:len(chunk):len(chunk)])
				chunk = nil
			} else {
				piece := make([]byte, remaining)
				copy(piece, chunk)
				current.appendChunk(piece)
				chunk = chunk[remaining:]
			}
			if current.sizeBytes == splitSizeBytes {
				results = append(results, current)
				current = NewChunkedBuffer(chunkSizeBytes)
			}
		}
	}
	if current.sizeBytes > 0 {
		results = append(results, current)
	}
	return results
}
