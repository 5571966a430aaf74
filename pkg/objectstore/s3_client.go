package objectstore

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/buildbarn/bb-segment-storage/pkg/chunkedbuffer"
	bb_aws "github.com/buildbarn/bb-segment-storage/pkg/cloud/aws"

	"google.golang.org/grpc/status"
)

var s3ErrorCodes = map[string]ErrorCode{
	"AccessDenied":            ErrorCodeAccessDenied,
	"BucketAlreadyExists":     ErrorCodeBucketAlreadyExists,
	"BucketAlreadyOwnedByYou": ErrorCodeBucketAlreadyOwnedByYou,
	"InternalError":           ErrorCodeInternalFailure,
	"InvalidAccessKeyId":      ErrorCodeInvalidAccessKeyID,
	"InvalidArgument":         ErrorCodeInvalidParameterValue,
	"NoSuchBucket":            ErrorCodeNoSuchBucket,
	"NoSuchKey":               ErrorCodeNoSuchKey,
	"NotFound":                ErrorCodeResourceNotFound,
	"RequestTimeout":          ErrorCodeRequestTimeout,
	"ServiceUnavailable":      ErrorCodeServiceUnavailable,
	"SignatureDoesNotMatch":   ErrorCodeSignatureDoesNotMatch,
	"SlowDown":                ErrorCodeSlowDown,
	"Throttling":              ErrorCodeThrottling,
}

// convertS3Error converts errors returned by the AWS SDK to Error, so
// that callers can handle them uniformly.
func convertS3Error(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return status.FromContextError(err).Err()
	}
	var noSuchKey *types.NoSuchKey
	var notFound *types.NotFound
	if errors.As(err, &noSuchKey) || errors.As(err, &notFound) {
		return &Error{
			Code:    ErrorCodeResourceNotFound,
			Message: err.Error(),
		}
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code, ok := s3ErrorCodes[apiErr.ErrorCode()]
		if !ok {
			code = ErrorCodeUnknown
		}
		return &Error{
			Code:      code,
			Message:   apiErr.ErrorMessage(),
			Retryable: apiErr.ErrorFault() == smithy.FaultServer,
		}
	}
	return &Error{
		Code:      ErrorCodeNetworkConnection,
		Message:   err.Error(),
		Retryable: true,
	}
}

type s3Client struct {
	s3Client       bb_aws.S3Client
	chunkSizeBytes int
}

// NewS3Client creates a Client that is backed by S3 or an S3
// compatible object store. Objects that are downloaded are stored in
// ChunkedBuffers with the provided chunk size.
//
// Retrying of transient failures is left to the AWS SDK.
func NewS3Client(client bb_aws.S3Client, chunkSizeBytes int) Client {
	return &s3Client{
		s3Client:       client,
		chunkSizeBytes: chunkSizeBytes,
	}
}

func (c *s3Client) HeadObject(ctx context.Context, bucketName, objectName string) error {
	_, err := c.s3Client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucketName),
		Key:    aws.String(objectName),
	})
	return convertS3Error(err)
}

func (c *s3Client) GetObject(ctx context.Context, bucketName, objectName string) (*chunkedbuffer.ChunkedBuffer, error) {
	result, err := c.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucketName),
		Key:    aws.String(objectName),
	})
	if err != nil {
		return nil, convertS3Error(err)
	}
	defer result.Body.Close()

	segment, err := chunkedbuffer.NewChunkedBufferFromReader(result.Body, c.chunkSizeBytes)
	if err != nil {
		return nil, convertS3Error(err)
	}
	return segment, nil
}

func (c *s3Client) PutObject(ctx context.Context, bucketName, objectName string, segment *chunkedbuffer.ChunkedBuffer) error {
	_, err := c.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucketName),
		Key:           aws.String(objectName),
		Body:          segment.NewReader(),
		ContentLength: aws.Int64(int64(segment.Bytes())),
	})
	return convertS3Error(err)
}

func (c *s3Client) DeleteObjects(ctx context.Context, bucketName string, objectNames []string) (DeleteOutput, error) {
	objects := make([]types.ObjectIdentifier, 0, len(objectNames))
	for _, objectName := range objectNames {
		objects = append(objects, types.ObjectIdentifier{Key: aws.String(objectName)})
	}
	result, err := c.s3Client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
		Bucket: aws.String(bucketName),
		Delete: &types.Delete{
			Objects: objects,
			Quiet:   aws.Bool(true),
		},
	})
	if err != nil {
		return DeleteOutput{}, convertS3Error(err)
	}

	var output DeleteOutput
	for _, deleteError := range result.Errors {
		output.FailedDeletes = append(output.FailedDeletes, aws.ToString(deleteError.Key))
	}
	return output, nil
}

func (c *s3Client) ListObjects(ctx context.Context, bucketName, namePrefix string, continuationToken *string) (ListObjectsOutput, error) {
	result, err := c.s3Client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:            aws.String(bucketName),
		Prefix:            aws.String(namePrefix),
		ContinuationToken: continuationToken,
	})
	if err != nil {
		return ListObjectsOutput{}, convertS3Error(err)
	}

	var output ListObjectsOutput
	for _, object := range result.Contents {
		output.ObjectNames = append(output.ObjectNames, aws.ToString(object.Key))
	}
	if aws.ToBool(result.IsTruncated) {
		output.NextContinuationToken = result.NextContinuationToken
	}
	return output, nil
}
