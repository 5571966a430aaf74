package keypath

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/buildbarn/bb-segment-storage/pkg/atomkey"
	"github.com/buildbarn/bb-segment-storage/pkg/util"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const objectKeyDelimiter = "*"

// FormatObjectKey converts the fields of a key (except for its type,
// which is implied by the directory in which the object is stored) to
// a single path component. The encoding can be reversed using
// ParseObjectKey().
//
// The encoding consists of the stream identifier, version, creation
// timestamp, content hash, start index and end index, separated by
// asterisks. Values that may be of multiple types are prefixed with a
// tag. Strings are escaped, so that they never contain asterisks or
// slashes.
func FormatObjectKey(key *atomkey.Key) string {
	var id string
	if s, ok := key.ID().StringValue(); ok {
		id = "s" + url.QueryEscape(s)
	} else {
		n, _ := key.ID().Numeric()
		id = "i" + strconv.FormatInt(n, 10)
	}
	return strings.Join([]string{
		id,
		strconv.FormatUint(key.VersionID(), 10),
		strconv.FormatInt(key.CreationTS(), 10),
		strconv.FormatUint(key.ContentHash(), 10),
		formatIndexValue(key.StartIndex()),
		formatIndexValue(key.EndIndex()),
	}, objectKeyDelimiter)
}

// FormatStreamIDPrefix returns the prefix that FormatObjectKey() emits
// for keys whose string stream identifier starts with a given prefix.
func FormatStreamIDPrefix(prefix string) string {
	return "s" + url.QueryEscape(prefix)
}

func formatIndexValue(v atomkey.IndexValue) string {
	switch v.Kind() {
	case atomkey.IndexValueInteger:
		n, _ := v.Integer()
		return "i" + strconv.FormatInt(n, 10)
	case atomkey.IndexValueString:
		s, _ := v.StringValue()
		return "s" + url.QueryEscape(s)
	default:
		ts, _ := v.Timestamp()
		return "t" + strconv.FormatInt(ts, 10)
	}
}

func parseIndexValue(s string) (atomkey.IndexValue, error) {
	if s == "" {
		return atomkey.IndexValue{}, status.Error(codes.InvalidArgument, "Index value is empty")
	}
	switch s[0] {
	case 's':
		v, err := url.QueryUnescape(s[1:])
		if err != nil {
			return atomkey.IndexValue{}, util.StatusWrapWithCode(err, codes.InvalidArgument, "Invalid string index value")
		}
		return atomkey.NewStringIndexValue(v), nil
	case 'i', 't':
		n, err := strconv.ParseInt(s[1:], 10, 64)
		if err != nil {
			return atomkey.IndexValue{}, util.StatusWrapWithCode(err, codes.InvalidArgument, "Invalid numeric index value")
		}
		if s[0] == 'i' {
			return atomkey.NewIntegerIndexValue(n), nil
		}
		return atomkey.NewTimestampIndexValue(n), nil
	default:
		return atomkey.IndexValue{}, status.Errorf(codes.InvalidArgument, "Index value has unknown type tag %#v", s[:1])
	}
}

// ParseObjectKey reconstructs a key from a path component emitted by
// FormatObjectKey().
func ParseObjectKey(keyType atomkey.KeyType, objectKey string) (*atomkey.Key, error) {
	fields := strings.Split(objectKey, objectKeyDelimiter)
	if len(fields) != 6 {
		return nil, status.Errorf(codes.InvalidArgument, "Object key %#v has %d fields, while 6 were expected", objectKey, len(fields))
	}

	var id atomkey.StreamID
	switch {
	case strings.HasPrefix(fields[0], "s"):
		s, err := url.QueryUnescape(fields[0][1:])
		if err != nil {
			return nil, util.StatusWrapWithCode(err, codes.InvalidArgument, "Invalid string stream identifier")
		}
		id = atomkey.NewStringStreamID(s)
	case strings.HasPrefix(fields[0], "i"):
		n, err := strconv.ParseInt(fields[0][1:], 10, 64)
		if err != nil {
			return nil, util.StatusWrapWithCode(err, codes.InvalidArgument, "Invalid numeric stream identifier")
		}
		id = atomkey.NewNumericStreamID(n)
	default:
		return nil, status.Errorf(codes.InvalidArgument, "Stream identifier %#v has an unknown type tag", fields[0])
	}

	versionID, err := strconv.ParseUint(fields[1], 10, 64)
	if err != nil {
		return nil, util.StatusWrapWithCode(err, codes.InvalidArgument, "Invalid version")
	}
	creationTS, err := strconv.ParseInt(fields[2], 10, 64)
	if err != nil {
		return nil, util.StatusWrapWithCode(err, codes.InvalidArgument, "Invalid creation timestamp")
	}
	contentHash, err := strconv.ParseUint(fields[3], 10, 64)
	if err != nil {
		return nil, util.StatusWrapWithCode(err, codes.InvalidArgument, "Invalid content hash")
	}
	indexStart, err := parseIndexValue(fields[4])
	if err != nil {
		return nil, util.StatusWrap(err, "Invalid start index")
	}
	indexEnd, err := parseIndexValue(fields[5])
	if err != nil {
		return nil, util.StatusWrap(err, "Invalid end index")
	}

	return atomkey.NewBuilder().
		VersionID(versionID).
		CreationTS(creationTS).
		ContentHash(contentHash).
		StartIndex(indexStart).
		EndIndex(indexEnd).
		Build(id, keyType)
}

// ParseObjectPath reconstructs a key from a full object name, as
// returned by ObjectPath(). Only the last path component is considered.
func ParseObjectPath(keyType atomkey.KeyType, objectPath string) (*atomkey.Key, error) {
	return ParseObjectKey(keyType, objectPath[strings.LastIndexByte(objectPath, '/')+1:])
}
