package keypath_test

import (
	"testing"

	"github.com/buildbarn/bb-segment-storage/pkg/atomkey"
	"github.com/buildbarn/bb-segment-storage/pkg/keypath"
	"github.com/buildbarn/bb-segment-storage/pkg/testutil"
	"github.com/stretchr/testify/require"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestObjectKeyRoundTrip(t *testing.T) {
	for _, key := range []*atomkey.Key{
		atomkey.NullKey(),
		atomkey.NewBuilder().
			VersionID(4).
			CreationTS(-12).
			ContentHash(0xffffffffffffffff).
			StartIndex(atomkey.NewTimestampIndexValue(1000)).
			EndIndex(atomkey.NewTimestampIndexValue(2000)).
			MustBuild(atomkey.NewStringStreamID("weird/name*with spaces+plus"), atomkey.KeyTypeTableIndex),
		atomkey.NewBuilder().
			StartIndex(atomkey.NewIntegerIndexValue(-5)).
			EndIndex(atomkey.NewStringIndexValue("end*")).
			MustBuild(atomkey.NewNumericStreamID(77), atomkey.KeyTypeTableIndex),
	} {
		objectKey := keypath.FormatObjectKey(key)
		require.NotContains(t, objectKey, "/")
		parsed, err := keypath.ParseObjectKey(key.Type(), objectKey)
		require.NoError(t, err)
		require.True(t, key.Equal(parsed), "%s != %s", key, parsed)
	}
}

func TestFormatObjectKey(t *testing.T) {
	key := atomkey.NewBuilder().
		VersionID(1).
		CreationTS(2).
		ContentHash(3).
		StartIndex(atomkey.NewTimestampIndexValue(4)).
		EndIndex(atomkey.NewStringIndexValue("e")).
		MustBuild(atomkey.NewStringStreamID("sym"), atomkey.KeyTypeTableData)
	require.Equal(t, "ssym*1*2*3*t4*se", keypath.FormatObjectKey(key))
	require.Equal(t, "lib/d/ssym*1*2*3*t4*se", keypath.ObjectPath(keypath.KeyTypeFolder("lib", key.Type()), key))
}

func TestParseObjectKeyInvalid(t *testing.T) {
	_, err := keypath.ParseObjectKey(atomkey.KeyTypeTableData, "ssym*1*2")
	testutil.RequireEqualStatus(t, status.Error(codes.InvalidArgument, "Object key \"ssym*1*2\" has 3 fields, while 6 were expected"), err)

	_, err = keypath.ParseObjectKey(atomkey.KeyTypeTableData, "xsym*1*2*3*t4*t5")
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = keypath.ParseObjectKey(atomkey.KeyTypeTableData, "ssym*1*2*3*q4*t5")
	testutil.RequireEqualStatus(t, status.Error(codes.InvalidArgument, "Invalid start index: Index value has unknown type tag \"q\""), err)
}

func TestParseObjectPath(t *testing.T) {
	parsed, err := keypath.ParseObjectPath(atomkey.KeyTypeVersion, "root/V/17/i5*0*0*0*t0*t0")
	require.NoError(t, err)
	require.True(t, atomkey.NewBuilder().MustBuild(atomkey.NewNumericStreamID(5), atomkey.KeyTypeVersion).Equal(parsed))
}

func TestBucketizer(t *testing.T) {
	key := atomkey.NewBuilder().VersionID(1).MustBuild(atomkey.NewStringStreamID("sym"), atomkey.KeyTypeVersion)

	t.Run("Flat", func(t *testing.T) {
		require.Equal(t, "root/V", keypath.FlatBucketizer.Bucketize("root/V", key))
	})

	t.Run("Hash", func(t *testing.T) {
		bucketizer := keypath.NewHashBucketizer(16)
		directory := bucketizer.Bucketize("root/V", key)
		require.Regexp(t, `^root/V/([0-9]|1[0-5])$`, directory)

		// Keys of the same stream end up in the same bucket.
		otherVersion := atomkey.NewBuilder().VersionID(2).MustBuild(atomkey.NewStringStreamID("sym"), atomkey.KeyTypeVersion)
		require.Equal(t, directory, bucketizer.Bucketize("root/V", otherVersion))
	})
}

func TestRootFolder(t *testing.T) {
	require.Equal(t, "team/library", keypath.RootFolderFromPrefix("team.library"))
	require.Equal(t, "a/b/c", keypath.RootFolderFromLibraryPath([]string{"a", "b", "c"}))
	require.Equal(t, "d", keypath.KeyTypeFolder("", atomkey.KeyTypeTableData))
}
