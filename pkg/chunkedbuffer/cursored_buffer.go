package chunkedbuffer

import (
	"fmt"
)

// CursoredBuffer is a write-side wrapper around a ChunkedBuffer. Data
// is appended by calling EnsureBytes() to reserve a region, writing
// into the region returned by Cursor() and calling Commit().
//
// Regions reserved through EnsureBytes() are always stored within a
// single chunk, so that they can be accessed as a single slice. Only
// data that has been committed is considered to be part of the
// buffer's contents.
type CursoredBuffer struct {
	buffer       *ChunkedBuffer
	cursorPos    int
	committedPos int
	pendingBytes int
	pending      bool
}

// NewCursoredBuffer creates an empty CursoredBuffer, backed by a
// ChunkedBuffer using the provided regular chunk size.
func NewCursoredBuffer(chunkSizeBytes int) *CursoredBuffer {
	return &CursoredBuffer{
		buffer: NewChunkedBuffer(chunkSizeBytes),
	}
}

// EnsureBytes reserves sizeBytes bytes of writable space at the
// cursor. Each call must be followed by exactly one call to Commit()
// before EnsureBytes() may be called again.
func (cb *CursoredBuffer) EnsureBytes(sizeBytes int) {
	if cb.pending {
		panic("Attempted to ensure space in a CursoredBuffer without committing the previous write")
	}
	if sizeBytes < 0 {
		panic(fmt.Sprintf("Invalid write size of %d bytes", sizeBytes))
	}
	offset := cb.buffer.ensureContiguous(sizeBytes)
	if offset != cb.cursorPos {
		panic("CursoredBuffer's underlying buffer was grown externally")
	}
	cb.pendingBytes = sizeBytes
	cb.pending = true
}

// Ensure reserves space for a single value of type T at the cursor.
func Ensure[T Scalar](cb *CursoredBuffer) {
	cb.EnsureBytes(sizeOf[T]())
}

// Cursor returns the writable region that was reserved by the last call
// to EnsureBytes(). The slice remains valid after subsequent writes, but
// data written into it after Commit() is called is not tracked.
func (cb *CursoredBuffer) Cursor() []byte {
	if !cb.pending {
		panic("Attempted to access the cursor of a CursoredBuffer without ensuring space first")
	}
	return cb.buffer.ContiguousBytes(cb.cursorPos, cb.pendingBytes)
}

// SetTypedCursor stores a value of type T at the cursor. Space for the
// value must have been reserved using Ensure().
func SetTypedCursor[T Scalar](cb *CursoredBuffer, v T) {
	if !cb.pending || cb.pendingBytes < sizeOf[T]() {
		panic("Attempted to write a typed value at the cursor of a CursoredBuffer without ensuring space first")
	}
	Store(cb.buffer, cb.cursorPos, v)
}

// Commit marks the region reserved by the last call to EnsureBytes() as
// written, moving the cursor past it.
func (cb *CursoredBuffer) Commit() {
	if !cb.pending {
		panic("Attempted to commit a CursoredBuffer without ensuring space first")
	}
	cb.cursorPos += cb.pendingBytes
	cb.committedPos = cb.cursorPos
	cb.pendingBytes = 0
	cb.pending = false
}

// CommittedBytes returns the number of bytes that have been committed.
func (cb *CursoredBuffer) CommittedBytes() int {
	return cb.committedPos
}

// Buffer returns the underlying ChunkedBuffer. Callers must not modify
// it, and should only consider the first CommittedBytes() bytes of it
// to be valid.
func (cb *CursoredBuffer) Buffer() *ChunkedBuffer {
	return cb.buffer
}
