package chunkedbuffer

import (
	"io"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Reader provides streaming access to the contents of a ChunkedBuffer,
// without copying it into a contiguous byte slice first. It implements
// io.ReadSeeker, so that it may be used as the body of requests that
// need to be rewound upon retry.
type Reader struct {
	buffer *ChunkedBuffer
	offset int64
}

var (
	_ io.ReadSeeker = (*Reader)(nil)
	_ io.ReaderAt   = (*Reader)(nil)
	_ io.WriterTo   = (*Reader)(nil)
)

// NewReader creates a Reader that returns the contents of the buffer.
// The buffer may not be modified while the Reader is in use.
func (b *ChunkedBuffer) NewReader() *Reader {
	b.checkUsable()
	return &Reader{buffer: b}
}

// Len returns the number of bytes that remain to be read.
func (r *Reader) Len() int {
	if remaining := int64(r.buffer.Bytes()) - r.offset; remaining > 0 {
		return int(remaining)
	}
	return 0
}

func (r *Reader) Read(p []byte) (int, error) {
	n, err := r.ReadAt(p, r.offset)
	r.offset += int64(n)
	return n, err
}

// ReadAt reads data at a given offset, crossing chunk boundaries where
// needed.
func (r *Reader) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, status.Errorf(codes.InvalidArgument, "Negative read offset: %d", off)
	}
	sizeBytes := int64(r.buffer.Bytes())
	if off >= sizeBytes {
		if len(p) == 0 {
			return 0, nil
		}
		return 0, io.EOF
	}
	n := len(p)
	if remaining := sizeBytes - off; int64(n) > remaining {
		n = int(remaining)
	}
	r.buffer.ReadAt(p[:n], int(off))
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Seek changes the offset at which the next call to Read() reads.
func (r *Reader) Seek(offset int64, whence int) (int64, error) {
	var newOffset int64
	switch whence {
	case io.SeekStart:
		newOffset = offset
	case io.SeekCurrent:
		newOffset = r.offset + offset
	case io.SeekEnd:
		newOffset = int64(r.buffer.Bytes()) + offset
	default:
		return 0, status.Errorf(codes.InvalidArgument, "Invalid whence value: %d", whence)
	}
	if newOffset < 0 {
		return 0, status.Errorf(codes.InvalidArgument, "Negative seek offset: %d", newOffset)
	}
	r.offset = newOffset
	return newOffset, nil
}

// WriteTo writes the remaining contents of the buffer into a Writer,
// one chunk at a time.
func (r *Reader) WriteTo(w io.Writer) (int64, error) {
	var nTotal int64
	for r.Len() > 0 {
		index, inChunk := r.buffer.locate(int(r.offset))
		data := r.buffer.chunks[index][inChunk:]
		n, err := w.Write(data)
		nTotal += int64(n)
		r.offset += int64(n)
		if err != nil {
			return nTotal, err
		}
		if n < len(data) {
			return nTotal, io.ErrShortWrite
		}
	}
	return nTotal, nil
}

// Close releases the Reader. It is provided so that a Reader can be
// used where an io.ReadCloser is expected.
func (r *Reader) Close() error {
	return nil
}

// NewChunkedBufferFromReader creates a ChunkedBuffer by reading all
// data from a Reader. Data is read directly into chunks of the regular
// size, meaning that the full contents never need to be stored
// contiguously.
func NewChunkedBufferFromReader(r io.Reader, chunkSizeBytes int) (*ChunkedBuffer, error) {
	b := NewChunkedBuffer(chunkSizeBytes)
	for {
		chunk := make([]byte, chunkSizeBytes)
		n, err := io.ReadFull(r, chunk)
		if n > 0 {
			b.appendChunk(chunk[:n])
		}
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return b, nil
		} else if err != nil {
			return nil, err
		}
	}
}
