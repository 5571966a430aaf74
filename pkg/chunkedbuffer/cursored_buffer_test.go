package chunkedbuffer_test

import (
	"testing"

	"github.com/buildbarn/bb-segment-storage/pkg/chunkedbuffer"
	"github.com/stretchr/testify/require"
)

func TestCursoredBufferCommit(t *testing.T) {
	cb := chunkedbuffer.NewCursoredBuffer(8)
	require.Equal(t, 0, cb.CommittedBytes())

	cb.EnsureBytes(3)
	copy(cb.Cursor(), "abc")
	require.Equal(t, 0, cb.CommittedBytes())
	require.Equal(t, 3, cb.Buffer().Bytes())
	cb.Commit()
	require.Equal(t, 3, cb.CommittedBytes())

	chunkedbuffer.Ensure[uint32](cb)
	chunkedbuffer.SetTypedCursor(cb, uint32(0xdeadbeef))
	cb.Commit()
	require.Equal(t, 7, cb.CommittedBytes())
	require.Equal(t, uint32(0xdeadbeef), chunkedbuffer.Cast[uint32](cb.Buffer(), 3))
}

func TestCursoredBufferContiguousWrites(t *testing.T) {
	cb := chunkedbuffer.NewCursoredBuffer(8)

	// A write that does not fit in the remaining space of the last
	// chunk should be placed in a chunk of its own.
	cb.EnsureBytes(5)
	copy(cb.Cursor(), "01234")
	cb.Commit()
	cb.EnsureBytes(5)
	copy(cb.Cursor(), "56789")
	cb.Commit()
	require.Equal(t, 2, cb.Buffer().NumChunks())
	require.False(t, cb.Buffer().IsRegular())

	// Writes larger than the chunk size are also contiguous.
	cb.EnsureBytes(20)
	require.Len(t, cb.Cursor(), 20)
	copy(cb.Cursor(), "abcdefghijklmnopqrst")
	cb.Commit()

	data, err := cb.Buffer().ToByteSlice(100)
	require.NoError(t, err)
	require.Equal(t, []byte("0123456789abcdefghijklmnopqrst"), data)
	require.Equal(t, uint8('k'), chunkedbuffer.Cast[uint8](cb.Buffer(), 20))
}

func TestCursoredBufferContractViolations(t *testing.T) {
	t.Run("EnsureTwice", func(t *testing.T) {
		cb := chunkedbuffer.NewCursoredBuffer(8)
		cb.EnsureBytes(1)
		require.PanicsWithValue(t, "Attempted to ensure space in a CursoredBuffer without committing the previous write", func() {
			cb.EnsureBytes(1)
		})
	})

	t.Run("CommitWithoutEnsure", func(t *testing.T) {
		cb := chunkedbuffer.NewCursoredBuffer(8)
		require.PanicsWithValue(t, "Attempted to commit a CursoredBuffer without ensuring space first", func() {
			cb.Commit()
		})
	})

	t.Run("CursorWithoutEnsure", func(t *testing.T) {
		cb := chunkedbuffer.NewCursoredBuffer(8)
		require.Panics(t, func() {
			cb.Cursor()
		})
	})
}
