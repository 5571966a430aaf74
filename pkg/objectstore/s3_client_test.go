package objectstore_test

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/buildbarn/bb-segment-storage/internal/mock"
	"github.com/buildbarn/bb-segment-storage/pkg/chunkedbuffer"
	"github.com/buildbarn/bb-segment-storage/pkg/objectstore"
	"github.com/stretchr/testify/require"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"go.uber.org/mock/gomock"
)

func TestS3ClientHeadObject(t *testing.T) {
	ctrl, ctx := gomock.WithContext(context.Background(), t)

	s3Client := mock.NewMockS3Client(ctrl)
	client := objectstore.NewS3Client(s3Client, 16)

	t.Run("Success", func(t *testing.T) {
		s3Client.EXPECT().HeadObject(ctx, &s3.HeadObjectInput{
			Bucket: aws.String("bucket"),
			Key:    aws.String("lib/d/object"),
		}).Return(&s3.HeadObjectOutput{}, nil)

		require.NoError(t, client.HeadObject(ctx, "bucket", "lib/d/object"))
	})

	t.Run("NotFound", func(t *testing.T) {
		s3Client.EXPECT().HeadObject(ctx, gomock.Any()).
			Return(nil, &types.NotFound{Message: aws.String("Not Found")})

		err := client.HeadObject(ctx, "bucket", "lib/d/object")
		require.True(t, objectstore.IsNotFound(err))
		code, ok := objectstore.GetErrorCode(err)
		require.True(t, ok)
		require.Equal(t, objectstore.ErrorCodeResourceNotFound, code)
	})

	t.Run("AccessDenied", func(t *testing.T) {
		s3Client.EXPECT().HeadObject(ctx, gomock.Any()).
			Return(nil, &smithy.GenericAPIError{
				Code:    "AccessDenied",
				Message: "Access Denied",
				Fault:   smithy.FaultClient,
			})

		err := client.HeadObject(ctx, "bucket", "lib/d/object")
		require.Equal(t, &objectstore.Error{
			Code:    objectstore.ErrorCodeAccessDenied,
			Message: "Access Denied",
		}, err)
		require.Equal(t, codes.PermissionDenied, status.Code(err))
	})

	t.Run("ServerFault", func(t *testing.T) {
		s3Client.EXPECT().HeadObject(ctx, gomock.Any()).
			Return(nil, &smithy.GenericAPIError{
				Code:    "SlowDown",
				Message: "Please reduce your request rate",
				Fault:   smithy.FaultServer,
			})

		err := client.HeadObject(ctx, "bucket", "lib/d/object")
		require.Equal(t, &objectstore.Error{
			Code:      objectstore.ErrorCodeSlowDown,
			Message:   "Please reduce your request rate",
			Retryable: true,
		}, err)
	})

	t.Run("ContextCanceled", func(t *testing.T) {
		s3Client.EXPECT().HeadObject(ctx, gomock.Any()).Return(nil, context.Canceled)

		err := client.HeadObject(ctx, "bucket", "lib/d/object")
		require.Equal(t, codes.Canceled, status.Code(err))
	})
}

func TestS3ClientGetObject(t *testing.T) {
	ctrl, ctx := gomock.WithContext(context.Background(), t)

	s3Client := mock.NewMockS3Client(ctrl)
	client := objectstore.NewS3Client(s3Client, 4)

	t.Run("Success", func(t *testing.T) {
		s3Client.EXPECT().GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String("bucket"),
			Key:    aws.String("object"),
		}).Return(&s3.GetObjectOutput{
			Body: io.NopCloser(bytes.NewBufferString("Hello world")),
		}, nil)

		segment, err := client.GetObject(ctx, "bucket", "object")
		require.NoError(t, err)
		require.Equal(t, 3, segment.NumChunks())
		data, err := segment.ToByteSlice(100)
		require.NoError(t, err)
		require.Equal(t, []byte("Hello world"), data)
	})

	t.Run("NoSuchKey", func(t *testing.T) {
		s3Client.EXPECT().GetObject(ctx, gomock.Any()).
			Return(nil, &types.NoSuchKey{Message: aws.String("The specified key does not exist.")})

		_, err := client.GetObject(ctx, "bucket", "object")
		require.True(t, objectstore.IsNotFound(err))
	})
}

func TestS3ClientPutObject(t *testing.T) {
	ctrl, ctx := gomock.WithContext(context.Background(), t)

	s3Client := mock.NewMockS3Client(ctrl)
	client := objectstore.NewS3Client(s3Client, 4)

	s3Client.EXPECT().PutObject(ctx, gomock.Any()).DoAndReturn(
		func(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
			require.Equal(t, "bucket", *params.Bucket)
			require.Equal(t, "object", *params.Key)
			require.Equal(t, int64(11), *params.ContentLength)
			data, err := io.ReadAll(params.Body)
			require.NoError(t, err)
			require.Equal(t, []byte("Hello world"), data)
			return &s3.PutObjectOutput{}, nil
		})

	require.NoError(t, client.PutObject(ctx, "bucket", "object", chunkedbuffer.NewChunkedBufferFromByteSlice([]byte("Hello world"), 4)))
}

func TestS3ClientDeleteObjects(t *testing.T) {
	ctrl, ctx := gomock.WithContext(context.Background(), t)

	s3Client := mock.NewMockS3Client(ctrl)
	client := objectstore.NewS3Client(s3Client, 4)

	t.Run("PartialFailure", func(t *testing.T) {
		s3Client.EXPECT().DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String("bucket"),
			Delete: &types.Delete{
				Objects: []types.ObjectIdentifier{
					{Key: aws.String("a")},
					{Key: aws.String("b")},
				},
				Quiet: aws.Bool(true),
			},
		}).Return(&s3.DeleteObjectsOutput{
			Errors: []types.Error{
				{Key: aws.String("b"), Code: aws.String("AccessDenied")},
			},
		}, nil)

		output, err := client.DeleteObjects(ctx, "bucket", []string{"a", "b"})
		require.NoError(t, err)
		require.Equal(t, []string{"b"}, output.FailedDeletes)
	})

	t.Run("RequestFailure", func(t *testing.T) {
		s3Client.EXPECT().DeleteObjects(ctx, gomock.Any()).
			Return(nil, &smithy.GenericAPIError{Code: "NoSuchBucket", Message: "The specified bucket does not exist"})

		_, err := client.DeleteObjects(ctx, "bucket", []string{"a"})
		code, ok := objectstore.GetErrorCode(err)
		require.True(t, ok)
		require.Equal(t, objectstore.ErrorCodeNoSuchBucket, code)
	})
}

func TestS3ClientListObjects(t *testing.T) {
	ctrl, ctx := gomock.WithContext(context.Background(), t)

	s3Client := mock.NewMockS3Client(ctrl)
	client := objectstore.NewS3Client(s3Client, 4)

	s3Client.EXPECT().ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String("bucket"),
		Prefix: aws.String("lib/d/"),
	}).Return(&s3.ListObjectsV2Output{
		Contents: []types.Object{
			{Key: aws.String("lib/d/a")},
			{Key: aws.String("lib/d/b")},
		},
		IsTruncated:           aws.Bool(true),
		NextContinuationToken: aws.String("token"),
	}, nil)
	s3Client.EXPECT().ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:            aws.String("bucket"),
		Prefix:            aws.String("lib/d/"),
		ContinuationToken: aws.String("token"),
	}).Return(&s3.ListObjectsV2Output{
		Contents: []types.Object{
			{Key: aws.String("lib/d/c")},
		},
		IsTruncated: aws.Bool(false),
	}, nil)

	output, err := client.ListObjects(ctx, "bucket", "lib/d/", nil)
	require.NoError(t, err)
	require.Equal(t, objectstore.ListObjectsOutput{
		ObjectNames:           []string{"lib/d/a", "lib/d/b"},
		NextContinuationToken: aws.String("token"),
	}, output)

	output, err = client.ListObjects(ctx, "bucket", "lib/d/", output.NextContinuationToken)
	require.NoError(t, err)
	require.Equal(t, objectstore.ListObjectsOutput{
		ObjectNames: []string{"lib/d/c"},
	}, output)
}
