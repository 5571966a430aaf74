package chunkedbuffer

import (
	"encoding/binary"
	"fmt"
	"math"
	"unsafe"
)

// Scalar is the set of fixed-size types that may be stored in a
// ChunkedBuffer through the typed accessors. Values are stored in the
// platform's native byte order, so that PtrCast() can provide a
// zero-copy view of them.
type Scalar interface {
	uint8 | int8 | uint16 | int16 | uint32 | int32 | uint64 | int64 | float32 | float64
}

func sizeOf[T Scalar]() int {
	var v T
	return int(unsafe.Sizeof(v))
}

// PtrCast returns a typed view of count elements of type T, starting at
// a given logical offset. The region must lie within a single chunk and
// be suitably aligned for T. Violating these requirements is a
// programming error, causing a panic. Writers that need to access
// values through PtrCast() should use CursoredBuffer to ensure that the
// values are stored contiguously.
func PtrCast[T Scalar](b *ChunkedBuffer, offset, count int) []T {
	if count < 0 {
		panic(fmt.Sprintf("Invalid element count %d", count))
	}
	if count == 0 {
		return nil
	}
	data := b.ContiguousBytes(offset, count*sizeOf[T]())
	p := unsafe.Pointer(unsafe.SliceData(data))
	var v T
	if uintptr(p)%unsafe.Alignof(v) != 0 {
		panic(fmt.Sprintf("Offset %d is misaligned for elements of %d bytes", offset, sizeOf[T]()))
	}
	return unsafe.Slice((*T)(p), count)
}

// Cast reads a single value of type T at a given logical offset. Unlike
// PtrCast(), the value may span multiple chunks.
func Cast[T Scalar](b *ChunkedBuffer, offset int) T {
	var scratch [8]byte
	data := scratch[:sizeOf[T]()]
	b.ReadAt(data, offset)
	return decodeScalar[T](data)
}

// Store writes a single value of type T at a given logical offset. The
// value may span multiple chunks.
func Store[T Scalar](b *ChunkedBuffer, offset int, v T) {
	var scratch [8]byte
	data := scratch[:sizeOf[T]()]
	encodeScalar(data, v)
	b.WriteAt(data, offset)
}

func decodeScalar[T Scalar](data []byte) T {
	var v T
	switch p := any(&v).(type) {
	case *uint8:
		*p = data[0]
	case *int8:
		*p = int8(data[0])
	case *uint16:
		*p = binary.NativeEndian.Uint16(data)
	case *int16:
		*p = int16(binary.NativeEndian.Uint16(data))
	case *uint32:
		*p = binary.NativeEndian.Uint32(data)
	case *int32:
		*p = int32(binary.NativeEndian.Uint32(data))
	case *uint64:
		*p = binary.NativeEndian.Uint64(data)
	case *int64:
		*p = int64(binary.NativeEndian.Uint64(data))
	case *float32:
		*p = math.Float32frombits(binary.NativeEndian.Uint32(data))
	case *float64:
		*p = math.Float64frombits(binary.NativeEndian.Uint64(data))
	}
	return v
}

func encodeScalar[T Scalar](data []byte, v T) {
	switch p := any(v).(type) {
	case uint8:
		data[0] = p
	case int8:
		data[0] = uint8(p)
	case uint16:
		binary.NativeEndian.PutUint16(data, p)
	case int16:
		binary.NativeEndian.PutUint16(data, uint16(p))
	case uint32:
		binary.NativeEndian.PutUint32(data, p)
	case int32:
		binary.NativeEndian.PutUint32(data, uint32(p))
	case uint64:
		binary.NativeEndian.PutUint64(data, p)
	case int64:
		binary.NativeEndian.PutUint64(data, uint64(p))
	case float32:
		binary.NativeEndian.PutUint32(data, math.Float32bits(p))
	case float64:
		binary.NativeEndian.PutUint64(data, math.Float64bits(p))
	}
}
