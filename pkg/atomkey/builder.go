package atomkey

import (
	"github.com/buildbarn/bb-segment-storage/pkg/util"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Builder accumulates the optional fields of a Key. Having a builder
// prevents fields of the same type from being accidentally swapped at
// the call site, as would be easy to do with a constructor taking all
// fields as arguments.
//
// Fields that are not set default to zero.
type Builder struct {
	versionID    uint64
	versionIDSet bool
	genIDSet     bool
	creationTS   int64
	contentHash  uint64
	indexStart   IndexValue
	indexEnd     IndexValue
}

// NewBuilder creates a Builder with all fields set to their defaults.
func NewBuilder() *Builder {
	return &Builder{}
}

// VersionID sets the version of the key. It may not be combined with
// GenID().
func (b *Builder) VersionID(v uint64) *Builder {
	b.versionID = v
	b.versionIDSet = true
	return b
}

// GenID sets the generation of the key. It may not be combined with
// VersionID().
func (b *Builder) GenID(v uint64) *Builder {
	b.versionID = v
	b.genIDSet = true
	return b
}

// CreationTS sets the creation timestamp of the key.
func (b *Builder) CreationTS(v int64) *Builder {
	b.creationTS = v
	return b
}

// StartIndex sets the first index value covered by the key.
func (b *Builder) StartIndex(v IndexValue) *Builder {
	b.indexStart = v
	return b
}

// StringIndex sets the start index to a string value.
func (b *Builder) StringIndex(s string) *Builder {
	return b.StartIndex(NewStringIndexValue(s))
}

// EndIndex sets the end of the range of index values covered by the
// key.
func (b *Builder) EndIndex(v IndexValue) *Builder {
	b.indexEnd = v
	return b
}

// ContentHash sets the hash of the contents of the object.
func (b *Builder) ContentHash(v uint64) *Builder {
	b.contentHash = v
	return b
}

// Build a Key with the accumulated fields.
func (b *Builder) Build(id StreamID, keyType KeyType) (*Key, error) {
	if b.versionIDSet && b.genIDSet {
		return nil, status.Error(codes.InvalidArgument, "Should not set both version ID and generation ID on a key")
	}
	if !keyType.IsValid() {
		return nil, status.Errorf(codes.InvalidArgument, "Invalid key type %d", int(keyType))
	}
	return &Key{
		id:          id,
		versionID:   b.versionID,
		creationTS:  b.creationTS,
		contentHash: b.contentHash,
		keyType:     keyType,
		indexStart:  b.indexStart,
		indexEnd:    b.indexEnd,
	}, nil
}

// MustBuild is identical to Build, except that it panics in case the
// builder has been used incorrectly.
func (b *Builder) MustBuild(id StreamID, keyType KeyType) *Key {
	return util.Must(b.Build(id, keyType))
}

// NullKey returns a key that does not refer to any object. It has an
// empty string identifier and an undefined type.
func NullKey() *Key {
	return NewBuilder().MustBuild(NewStringStreamID(""), KeyTypeUndefined)
}
