package objectstore_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/buildbarn/bb-segment-storage/pkg/chunkedbuffer"
	"github.com/buildbarn/bb-segment-storage/pkg/objectstore"
	"github.com/buildbarn/bb-segment-storage/pkg/testutil"
	"github.com/stretchr/testify/require"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func putString(t *testing.T, client objectstore.Client, objectName, contents string) {
	require.NoError(t, client.PutObject(context.Background(), "bucket", objectName, chunkedbuffer.NewChunkedBufferFromByteSlice([]byte(contents), 4)))
}

func TestMockClientBasic(t *testing.T) {
	ctx := context.Background()
	client := objectstore.NewMockClient()

	t.Run("HeadNotFound", func(t *testing.T) {
		err := client.HeadObject(ctx, "bucket", "missing")
		require.True(t, objectstore.IsNotFound(err))
		code, ok := objectstore.GetErrorCode(err)
		require.True(t, ok)
		require.Equal(t, objectstore.ErrorCodeResourceNotFound, code)
	})

	t.Run("GetNotFound", func(t *testing.T) {
		_, err := client.GetObject(ctx, "bucket", "missing")
		require.Equal(t, codes.NotFound, status.Code(err))
	})

	t.Run("PutGet", func(t *testing.T) {
		putString(t, client, "object", "Hello world")
		require.NoError(t, client.HeadObject(ctx, "bucket", "object"))

		segment, err := client.GetObject(ctx, "bucket", "object")
		require.NoError(t, err)
		data, err := segment.ToByteSlice(100)
		require.NoError(t, err)
		require.Equal(t, []byte("Hello world"), data)

		// Modifying the returned segment must not affect the
		// stored object.
		segment.WriteAt([]byte("J"), 0)
		segment, err = client.GetObject(ctx, "bucket", "object")
		require.NoError(t, err)
		data, err = segment.ToByteSlice(100)
		require.NoError(t, err)
		require.Equal(t, []byte("Hello world"), data)
	})

	t.Run("BucketsAreSeparate", func(t *testing.T) {
		err := client.HeadObject(ctx, "other-bucket", "object")
		require.True(t, objectstore.IsNotFound(err))
	})

	t.Run("Overwrite", func(t *testing.T) {
		putString(t, client, "object", "Goodbye")
		segment, err := client.GetObject(ctx, "bucket", "object")
		require.NoError(t, err)
		require.Equal(t, 7, segment.Bytes())
	})
}

func TestMockClientFailureTriggers(t *testing.T) {
	ctx := context.Background()
	client := objectstore.NewMockClient()

	objectName := objectstore.FailureTrigger("a#b", objectstore.OperationGet, objectstore.ErrorCodeNoSuchKey)
	require.Equal(t, "a#b#Failure_Get_134", objectName)

	t.Run("GetFails", func(t *testing.T) {
		putString(t, client, objectName, "Hello")
		_, err := client.GetObject(ctx, "bucket", objectName)
		code, ok := objectstore.GetErrorCode(err)
		require.True(t, ok)
		require.Equal(t, objectstore.ErrorCodeNoSuchKey, code)
		require.Equal(t, codes.NotFound, status.Code(err))
	})

	t.Run("OtherOperationsUnaffected", func(t *testing.T) {
		require.NoError(t, client.HeadObject(ctx, "bucket", objectName))

		output, err := client.ListObjects(ctx, "bucket", "a#", nil)
		require.NoError(t, err)
		require.Equal(t, []string{objectName}, output.ObjectNames)

		deleteOutput, err := client.DeleteObjects(ctx, "bucket", []string{objectName})
		require.NoError(t, err)
		require.Empty(t, deleteOutput.FailedDeletes)
		require.True(t, objectstore.IsNotFound(client.HeadObject(ctx, "bucket", objectName)))
	})

	t.Run("LastOccurrenceWins", func(t *testing.T) {
		name := objectstore.FailureTrigger(
			objectstore.FailureTrigger("object", objectstore.OperationHead, objectstore.ErrorCodeAccessDenied),
			objectstore.OperationHead,
			objectstore.ErrorCodeSlowDown)
		err := client.HeadObject(ctx, "bucket", name)
		code, ok := objectstore.GetErrorCode(err)
		require.True(t, ok)
		require.Equal(t, objectstore.ErrorCodeSlowDown, code)
		require.Equal(t, codes.Unavailable, status.Code(err))
	})

	t.Run("PutFails", func(t *testing.T) {
		name := objectstore.FailureTrigger("object", objectstore.OperationPut, objectstore.ErrorCodeAccessDenied)
		err := client.PutObject(ctx, "bucket", name, chunkedbuffer.NewChunkedBuffer(16))
		require.Equal(t, codes.PermissionDenied, status.Code(err))
		require.True(t, objectstore.IsNotFound(client.HeadObject(ctx, "bucket", name)))
	})

	t.Run("ListFails", func(t *testing.T) {
		name := objectstore.FailureTrigger("list/object", objectstore.OperationList, objectstore.ErrorCodeInternalFailure)
		putString(t, client, name, "Hello")
		_, err := client.ListObjects(ctx, "bucket", "list/", nil)
		code, ok := objectstore.GetErrorCode(err)
		require.True(t, ok)
		require.Equal(t, objectstore.ErrorCodeInternalFailure, code)
	})
}

func TestMockClientDeleteObjects(t *testing.T) {
	ctx := context.Background()

	t.Run("BatchFailure", func(t *testing.T) {
		client := objectstore.NewMockClient()
		failing := objectstore.FailureTrigger("c", objectstore.OperationDelete, objectstore.ErrorCodeNetworkConnection)
		names := []string{"a", "b", failing}
		for _, name := range names {
			putString(t, client, name, "Hello")
		}

		_, err := client.DeleteObjects(ctx, "bucket", names)
		code, ok := objectstore.GetErrorCode(err)
		require.True(t, ok)
		require.Equal(t, objectstore.ErrorCodeNetworkConnection, code)

		// No objects may have been removed.
		for _, name := range names {
			require.NoError(t, client.HeadObject(ctx, "bucket", name))
		}
	})

	t.Run("LocalFailure", func(t *testing.T) {
		client := objectstore.NewMockClient()
		failing := objectstore.FailureTrigger("b", objectstore.OperationDeleteLocal, objectstore.ErrorCodeAccessDenied)
		names := []string{"a", failing, "c"}
		for _, name := range names {
			putString(t, client, name, "Hello")
		}

		output, err := client.DeleteObjects(ctx, "bucket", names)
		require.NoError(t, err)
		require.Equal(t, []string{failing}, output.FailedDeletes)

		require.True(t, objectstore.IsNotFound(client.HeadObject(ctx, "bucket", "a")))
		require.NoError(t, client.HeadObject(ctx, "bucket", failing))
		require.True(t, objectstore.IsNotFound(client.HeadObject(ctx, "bucket", "c")))
	})

	t.Run("MissingObjects", func(t *testing.T) {
		client := objectstore.NewMockClient()
		output, err := client.DeleteObjects(ctx, "bucket", []string{"nonexistent"})
		require.NoError(t, err)
		require.Empty(t, output.FailedDeletes)
	})
}

func TestMockClientListObjects(t *testing.T) {
	ctx := context.Background()
	client := objectstore.NewMockClient()
	for i := 0; i < 25; i++ {
		putString(t, client, fmt.Sprintf("prefix/%02d", i), "Hello")
	}
	putString(t, client, "other/00", "Hello")

	t.Run("Pagination", func(t *testing.T) {
		seen := map[string]struct{}{}
		var pageSizes []int
		var continuationToken *string
		for {
			output, err := client.ListObjects(ctx, "bucket", "prefix/", continuationToken)
			require.NoError(t, err)
			pageSizes = append(pageSizes, len(output.ObjectNames))
			for _, name := range output.ObjectNames {
				require.NotContains(t, seen, name)
				seen[name] = struct{}{}
			}
			if output.NextContinuationToken == nil {
				break
			}
			continuationToken = output.NextContinuationToken
		}
		require.Equal(t, []int{10, 10, 5}, pageSizes)
		require.Len(t, seen, 25)
		require.Equal(t, "20", *continuationToken)
	})

	t.Run("NoMatches", func(t *testing.T) {
		output, err := client.ListObjects(ctx, "bucket", "nonexistent/", nil)
		require.NoError(t, err)
		require.Empty(t, output.ObjectNames)
		require.Nil(t, output.NextContinuationToken)
	})

	t.Run("InvalidContinuationToken", func(t *testing.T) {
		continuationToken := "hello"
		_, err := client.ListObjects(ctx, "bucket", "prefix/", &continuationToken)
		require.Equal(t, codes.InvalidArgument, status.Code(err))

		continuationToken = "-1"
		_, err = client.ListObjects(ctx, "bucket", "prefix/", &continuationToken)
		testutil.RequireEqualStatus(t, status.Error(codes.InvalidArgument, "Continuation token \"-1\" is negative"), err)
	})
}

func TestMockClientConcurrentAccess(t *testing.T) {
	// All operations may be called concurrently. Run with -race to
	// validate the locking of the object map.
	ctx := context.Background()
	client := objectstore.NewMockClient()

	group, groupCtx := errgroup.WithContext(ctx)
	for worker := 0; worker < 16; worker++ {
		group.Go(func() error {
			for i := 0; i < 50; i++ {
				objectName := fmt.Sprintf("worker%02d/object%02d", worker, i)
				if err := client.PutObject(groupCtx, "bucket", objectName, chunkedbuffer.NewChunkedBufferFromByteSlice([]byte(objectName), 4)); err != nil {
					return err
				}
				if err := client.HeadObject(groupCtx, "bucket", objectName); err != nil {
					return err
				}
				segment, err := client.GetObject(groupCtx, "bucket", objectName)
				if err != nil {
					return err
				}
				if segment.Bytes() != len(objectName) {
					return status.Errorf(codes.Internal, "Object %#v has size %d", objectName, segment.Bytes())
				}
				if _, err := client.ListObjects(groupCtx, "bucket", fmt.Sprintf("worker%02d/", worker), nil); err != nil {
					return err
				}
				if i%2 == 1 {
					output, err := client.DeleteObjects(groupCtx, "bucket", []string{objectName})
					if err != nil {
						return err
					}
					if len(output.FailedDeletes) > 0 {
						return status.Errorf(codes.Internal, "Failed to delete %#v", objectName)
					}
				}
			}
			return nil
		})
	}
	require.NoError(t, group.Wait())

	// Only the objects with an even index remain.
	remaining := 0
	var continuationToken *string
	for {
		output, err := client.ListObjects(ctx, "bucket", "", continuationToken)
		require.NoError(t, err)
		remaining += len(output.ObjectNames)
		if output.NextContinuationToken == nil {
			break
		}
		continuationToken = output.NextContinuationToken
	}
	require.Equal(t, 16*25, remaining)
}
