package keypath

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/buildbarn/bb-segment-storage/pkg/atomkey"
)

// Bucketizer determines the directory in which the object
// corresponding to a key is stored. Implementations must be
// deterministic.
type Bucketizer interface {
	Bucketize(keyTypeDirectory string, key *atomkey.Key) string
}

type flatBucketizer struct{}

func (flatBucketizer) Bucketize(keyTypeDirectory string, key *atomkey.Key) string {
	return keyTypeDirectory
}

// FlatBucketizer stores all objects of the same key type in a single
// directory.
var FlatBucketizer Bucketizer = flatBucketizer{}

type hashBucketizer struct {
	buckets uint64
}

// NewHashBucketizer creates a Bucketizer that spreads objects of the
// same key type across a fixed number of subdirectories, based on the
// hash of the key's stream identifier. All keys of a single stream end
// up in the same subdirectory.
func NewHashBucketizer(buckets int) Bucketizer {
	if buckets <= 0 {
		panic(fmt.Sprintf("Invalid number of buckets %d", buckets))
	}
	return &hashBucketizer{buckets: uint64(buckets)}
}

func (hb *hashBucketizer) Bucketize(keyTypeDirectory string, key *atomkey.Key) string {
	// The stream identifier alone is hashed, as the hash of the full
	// key would also depend on the version and index range.
	streamKey := atomkey.NewBuilder().MustBuild(key.ID(), atomkey.KeyTypeUndefined)
	return keyTypeDirectory + "/" + strconv.FormatUint(streamKey.Hash()%hb.buckets, 10)
}

// KeyTypeFolder returns the directory in which objects of a given key
// type are stored, relative to a root folder.
func KeyTypeFolder(rootFolder string, keyType atomkey.KeyType) string {
	if rootFolder == "" {
		return keyType.FolderName()
	}
	return rootFolder + "/" + keyType.FolderName()
}

// ObjectPath returns the name of the object corresponding to a key,
// given the directory returned by a Bucketizer.
func ObjectPath(directory string, key *atomkey.Key) string {
	return directory + "/" + FormatObjectKey(key)
}

// RootFolderFromLibraryPath joins the components of a library path,
// yielding the root folder under which all of the library's objects
// are stored.
func RootFolderFromLibraryPath(parts []string) string {
	return strings.Join(parts, "/")
}

// RootFolderFromPrefix converts a dot-delimited prefix (e.g.,
// "team.library") to a root folder.
func RootFolderFromPrefix(prefix string) string {
	return RootFolderFromLibraryPath(strings.Split(prefix, "."))
}
