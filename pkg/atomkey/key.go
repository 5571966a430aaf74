package atomkey

import (
	"cmp"
	"encoding/binary"
	"fmt"
	"sync/atomic"

	"github.com/zeebo/blake3"
)

// Key is the identifier of an immutable object written to storage. It
// consists of the identifier of the stream to which the object
// belongs, a version, a creation timestamp, a hash of the object's
// contents, the range of index values covered and the type of object.
//
// Keys are shared between data structures, which is why fields can
// only be set through Builder. The only permitted modifications are
// ChangeType() and ChangeID(). The display string and hash of a key
// are computed lazily and cached.
//
// Equality considers all fields, while the ordering of keys only
// considers the stream identifier, version, index range and creation
// timestamp. This allows keys that only differ in content hash or
// type to be looked up through range queries.
type Key struct {
	id          StreamID
	versionID   uint64
	creationTS  int64
	contentHash uint64
	keyType     KeyType
	indexStart  IndexValue
	indexEnd    IndexValue

	cache atomic.Pointer[keyCache]
}

type keyCache struct {
	str  string
	hash uint64
}

// ID returns the identifier of the stream to which the key belongs.
func (k *Key) ID() StreamID {
	return k.id
}

// VersionID returns the version of the stream.
func (k *Key) VersionID() uint64 {
	return k.versionID
}

// GenID returns the generation of the key, which shares its storage
// with the version.
func (k *Key) GenID() uint64 {
	return k.versionID
}

// CreationTS returns the time at which the key was created.
func (k *Key) CreationTS() int64 {
	return k.creationTS
}

// ContentHash returns the hash of the object's contents.
func (k *Key) ContentHash() uint64 {
	return k.contentHash
}

// Type returns the type of the key.
func (k *Key) Type() KeyType {
	return k.keyType
}

// StartIndex returns the first index value covered by the key.
func (k *Key) StartIndex() IndexValue {
	return k.indexStart
}

// EndIndex returns the end of the range of index values covered by the
// key.
func (k *Key) EndIndex() IndexValue {
	return k.indexEnd
}

// StartTime returns the start index if it is a timestamp, or zero
// otherwise.
func (k *Key) StartTime() int64 {
	ts, _ := k.indexStart.Timestamp()
	return ts
}

// EndTime returns the end index if it is a timestamp, or zero
// otherwise.
func (k *Key) EndTime() int64 {
	ts, _ := k.indexEnd.Timestamp()
	return ts
}

// IndexRange returns the half-open range of index values covered by
// the key.
func (k *Key) IndexRange() IndexRange {
	return IndexRange{
		Start: k.indexStart,
		End:   k.indexEnd,
	}
}

// ChangeType replaces the type of the key.
func (k *Key) ChangeType(keyType KeyType) {
	k.keyType = keyType
	k.cache.Store(nil)
}

// ChangeID replaces the stream identifier of the key. This may be used
// to substitute the identifier with an interned instance. The old
// identifier is returned.
func (k *Key) ChangeID(id StreamID) StreamID {
	old := k.id
	k.id = id
	k.cache.Store(nil)
	return old
}

// Equal returns whether all fields of two keys are identical.
func (k *Key) Equal(other *Key) bool {
	return k.versionID == other.versionID &&
		k.creationTS == other.creationTS &&
		k.contentHash == other.contentHash &&
		k.indexStart == other.indexStart &&
		k.indexEnd == other.indexEnd &&
		k.keyType == other.keyType &&
		k.id == other.id
}

// Compare returns -1, 0 or 1, depending on whether k sorts before,
// equal to or after other. Keys are ordered lexicographically by stream
// identifier, version, start index, end index and creation timestamp.
// Content hash and type do not affect the ordering.
func (k *Key) Compare(other *Key) int {
	if c := k.id.Compare(other.id); c != 0 {
		return c
	}
	if c := cmp.Compare(k.versionID, other.versionID); c != 0 {
		return c
	}
	if c := k.indexStart.Compare(other.indexStart); c != 0 {
		return c
	}
	if c := k.indexEnd.Compare(other.indexEnd); c != 0 {
		return c
	}
	return cmp.Compare(k.creationTS, other.creationTS)
}

// Less returns whether k sorts before other.
func (k *Key) Less(other *Key) bool {
	return k.Compare(other) < 0
}

// Greater returns whether k sorts after other.
func (k *Key) Greater(other *Key) bool {
	return k.Compare(other) > 0
}

// Compare two keys. This function can be used in combination with
// slices.SortFunc().
func Compare(a, b *Key) int {
	return a.Compare(b)
}

func (k *Key) getCache() *keyCache {
	if c := k.cache.Load(); c != nil {
		return c
	}
	c := &keyCache{
		str:  k.format(),
		hash: k.computeHash(),
	}
	k.cache.Store(c)
	return c
}

// String returns a human readable representation of the key, in the
// form "type:id:version:0xhash@creation[start,end]".
func (k *Key) String() string {
	return k.getCache().str
}

// Hash returns a 64-bit hash of all fields of the key. Keys that are
// equal have identical hashes.
func (k *Key) Hash() uint64 {
	return k.getCache().hash
}

func (k *Key) format() string {
	return fmt.Sprintf(
		"%s:%s:%d:0x%x@%d[%s,%s]",
		k.keyType,
		k.id,
		k.versionID,
		k.contentHash,
		k.creationTS,
		k.indexStart.Tokenized(),
		k.indexEnd.Tokenized())
}

func (k *Key) computeHash() uint64 {
	var scratch [binary.MaxVarintLen64]byte
	hasher := blake3.New()
	writeInt := func(v int64) {
		hasher.Write(scratch[:binary.PutVarint(scratch[:], v)])
	}
	writeString := func(s string) {
		writeInt(int64(len(s)))
		hasher.Write([]byte(s))
	}
	writeIndexValue := func(v IndexValue) {
		writeInt(int64(v.kind))
		writeInt(v.numeric)
		writeString(v.str)
	}

	if k.id.isString {
		writeInt(1)
		writeString(k.id.str)
	} else {
		writeInt(0)
		writeInt(k.id.numeric)
	}
	writeInt(int64(k.versionID))
	writeInt(k.creationTS)
	writeInt(int64(k.contentHash))
	writeInt(int64(k.keyType))
	writeIndexValue(k.indexStart)
	writeIndexValue(k.indexEnd)
	return binary.LittleEndian.Uint64(hasher.Sum(nil))
}
