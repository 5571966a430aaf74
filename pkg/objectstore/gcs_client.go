package objectstore

import (
	"context"
	"errors"
	"net/http"

	"cloud.google.com/go/storage"
	"github.com/buildbarn/bb-segment-storage/pkg/chunkedbuffer"
	"github.com/buildbarn/bb-segment-storage/pkg/cloud/gcp"
	"github.com/buildbarn/bb-segment-storage/pkg/util"

	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/status"
)

// gcsListPageSize is the number of object names requested per call to
// ListObjects(). It matches the maximum page size of S3.
const gcsListPageSize = 1000

// convertGCSError converts errors returned by the Google Cloud SDK to
// Error, using the same error codes as the S3 backed client.
func convertGCSError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return status.FromContextError(err).Err()
	}
	if errors.Is(err, storage.ErrObjectNotExist) {
		return &Error{
			Code:    ErrorCodeResourceNotFound,
			Message: err.Error(),
		}
	}
	if errors.Is(err, storage.ErrBucketNotExist) {
		return &Error{
			Code:    ErrorCodeNoSuchBucket,
			Message: err.Error(),
		}
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		storeErr := &Error{
			Code:    ErrorCodeUnknown,
			Message: apiErr.Message,
		}
		switch {
		case apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden:
			storeErr.Code = ErrorCodeAccessDenied
		case apiErr.Code == http.StatusNotFound:
			storeErr.Code = ErrorCodeResourceNotFound
		case apiErr.Code == http.StatusRequestTimeout:
			storeErr.Code = ErrorCodeRequestTimeout
			storeErr.Retryable = true
		case apiErr.Code == http.StatusTooManyRequests:
			storeErr.Code = ErrorCodeSlowDown
			storeErr.Retryable = true
		case apiErr.Code >= http.StatusInternalServerError:
			storeErr.Code = ErrorCodeServiceUnavailable
			storeErr.Retryable = true
		}
		return storeErr
	}
	return &Error{
		Code:      ErrorCodeNetworkConnection,
		Message:   err.Error(),
		Retryable: true,
	}
}

type gcsClient struct {
	client         gcp.StorageClient
	chunkSizeBytes int
	errorLogger    util.ErrorLogger
}

// NewGCSClient creates a Client that is backed by Google Cloud Storage.
// Objects that are downloaded are stored in ChunkedBuffers with the
// provided chunk size.
//
// Google Cloud Storage provides no batch deletion. Objects are deleted
// one by one, and errors deleting individual objects are logged and
// reported as failed deletes.
func NewGCSClient(client gcp.StorageClient, chunkSizeBytes int, errorLogger util.ErrorLogger) Client {
	return &gcsClient{
		client:         client,
		chunkSizeBytes: chunkSizeBytes,
		errorLogger:    errorLogger,
	}
}

func (c *gcsClient) HeadObject(ctx context.Context, bucketName, objectName string) error {
	_, err := c.client.Bucket(bucketName).Object(objectName).Attrs(ctx)
	return convertGCSError(err)
}

func (c *gcsClient) GetObject(ctx context.Context, bucketName, objectName string) (*chunkedbuffer.ChunkedBuffer, error) {
	r, err := c.client.Bucket(bucketName).Object(objectName).NewRangeReader(ctx, 0, gcp.ReadUntilEOF)
	if err != nil {
		return nil, convertGCSError(err)
	}
	defer r.Close()

	segment, err := chunkedbuffer.NewChunkedBufferFromReader(r, c.chunkSizeBytes)
	if err != nil {
		return nil, convertGCSError(err)
	}
	return segment, nil
}

func (c *gcsClient) PutObject(ctx context.Context, bucketName, objectName string, segment *chunkedbuffer.ChunkedBuffer) error {
	// Canceling the context is the only way to abort an upload
	// without finalizing the object.
	ctxWithCancel, cancel := context.WithCancel(ctx)
	defer cancel()

	w := c.client.Bucket(bucketName).Object(objectName).NewWriter(ctxWithCancel)
	if _, err := segment.NewReader().WriteTo(w); err != nil {
		cancel()
		w.Close()
		return convertGCSError(err)
	}
	return convertGCSError(w.Close())
}

func (c *gcsClient) DeleteObjects(ctx context.Context, bucketName string, objectNames []string) (DeleteOutput, error) {
	bucket := c.client.Bucket(bucketName)
	var output DeleteOutput
	for _, objectName := range objectNames {
		if err := bucket.Object(objectName).Delete(ctx); err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
			if ctx.Err() != nil {
				return DeleteOutput{}, util.StatusFromContext(ctx)
			}
			c.errorLogger.Log(util.StatusWrapf(convertGCSError(err), "Failed to delete object %#v", objectName))
			output.FailedDeletes = append(output.FailedDeletes, objectName)
		}
	}
	return output, nil
}

func (c *gcsClient) ListObjects(ctx context.Context, bucketName, namePrefix string, continuationToken *string) (ListObjectsOutput, error) {
	var pageToken string
	if continuationToken != nil {
		pageToken = *continuationToken
	}
	objectNames, nextPageToken, err := c.client.Bucket(bucketName).ListObjectNames(ctx, namePrefix, gcsListPageSize, pageToken)
	if err != nil {
		return ListObjectsOutput{}, convertGCSError(err)
	}
	output := ListObjectsOutput{ObjectNames: objectNames}
	if nextPageToken != "" {
		output.NextContinuationToken = &nextPageToken
	}
	return output, nil
}
