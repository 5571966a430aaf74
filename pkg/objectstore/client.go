package objectstore

import (
	"context"

	"github.com/buildbarn/bb-segment-storage/pkg/chunkedbuffer"
)

// DeleteOutput is returned by Client.DeleteObjects(). Deletion of a
// batch of objects may partially fail, in which case the names of the
// objects that could not be deleted are listed. Callers must inspect
// this list.
type DeleteOutput struct {
	FailedDeletes []string
}

// ListObjectsOutput is a single page of results returned by
// Client.ListObjects(). If NextContinuationToken is non-nil, more
// results are available and may be obtained by passing the token to
// the next call.
type ListObjectsOutput struct {
	ObjectNames           []string
	NextContinuationToken *string
}

// Client of an object store in which segments are stored under names
// within buckets. Implementations return errors that carry gRPC status
// codes. Absence of an object is reported using codes.NotFound.
type Client interface {
	HeadObject(ctx context.Context, bucketName, objectName string) error
	GetObject(ctx context.Context, bucketName, objectName string) (*chunkedbuffer.ChunkedBuffer, error)
	// PutObject stores a segment. The client takes ownership of the
	// segment; the caller may not modify it afterwards.
	PutObject(ctx context.Context, bucketName, objectName string, segment *chunkedbuffer.ChunkedBuffer) error
	DeleteObjects(ctx context.Context, bucketName string, objectNames []string) (DeleteOutput, error)
	// ListObjects returns the names of objects starting with a
	// given prefix. The order in which names are returned is not
	// specified.
	ListObjects(ctx context.Context, bucketName, namePrefix string, continuationToken *string) (ListObjectsOutput, error)
}
