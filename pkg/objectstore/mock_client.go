package objectstore

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/buildbarn/bb-segment-storage/pkg/chunkedbuffer"
	"github.com/buildbarn/bb-segment-storage/pkg/util"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// MockClientPageSize is the maximum number of object names returned by
// a single call to MockClient.ListObjects().
const MockClientPageSize = 10

type mockObjectKey struct {
	bucketName string
	objectName string
}

// MockClient is an in-memory implementation of Client. It mimics the
// semantics of a real object store, and allows failures to be
// injected by embedding triggers in object names (see
// FailureTrigger()).
type MockClient struct {
	lock     sync.Mutex
	contents map[mockObjectKey]*chunkedbuffer.ChunkedBuffer
}

var _ Client = (*MockClient)(nil)

// NewMockClient creates an empty MockClient.
func NewMockClient() *MockClient {
	return &MockClient{
		contents: map[mockObjectKey]*chunkedbuffer.ChunkedBuffer{},
	}
}

// HeadObject returns whether an object exists.
func (c *MockClient) HeadObject(ctx context.Context, bucketName, objectName string) error {
	if err := getFailureTrigger(objectName, OperationHead); err != nil {
		return err
	}

	c.lock.Lock()
	defer c.lock.Unlock()
	if _, ok := c.contents[mockObjectKey{bucketName: bucketName, objectName: objectName}]; !ok {
		return newNotFoundError()
	}
	return nil
}

// GetObject returns a copy of the contents of an object.
func (c *MockClient) GetObject(ctx context.Context, bucketName, objectName string) (*chunkedbuffer.ChunkedBuffer, error) {
	if err := getFailureTrigger(objectName, OperationGet); err != nil {
		return nil, err
	}

	c.lock.Lock()
	defer c.lock.Unlock()
	segment, ok := c.contents[mockObjectKey{bucketName: bucketName, objectName: objectName}]
	if !ok {
		return nil, newNotFoundError()
	}
	return segment.Clone(), nil
}

// PutObject stores an object, replacing any existing object with the
// same name.
func (c *MockClient) PutObject(ctx context.Context, bucketName, objectName string, segment *chunkedbuffer.ChunkedBuffer) error {
	if err := getFailureTrigger(objectName, OperationPut); err != nil {
		return err
	}

	c.lock.Lock()
	defer c.lock.Unlock()
	c.contents[mockObjectKey{bucketName: bucketName, objectName: objectName}] = segment
	return nil
}

// DeleteObjects removes a batch of objects. If any of the names
// contains a trigger for OperationDelete, the batch fails as a whole
// and no objects are removed. Names containing a trigger for
// OperationDeleteLocal are reported as failed deletes, while the other
// objects in the batch are still removed.
func (c *MockClient) DeleteObjects(ctx context.Context, bucketName string, objectNames []string) (DeleteOutput, error) {
	for _, objectName := range objectNames {
		if err := getFailureTrigger(objectName, OperationDelete); err != nil {
			return DeleteOutput{}, err
		}
	}

	c.lock.Lock()
	defer c.lock.Unlock()
	var output DeleteOutput
	for _, objectName := range objectNames {
		if getFailureTrigger(objectName, OperationDeleteLocal) != nil {
			output.FailedDeletes = append(output.FailedDeletes, objectName)
		} else {
			delete(c.contents, mockObjectKey{bucketName: bucketName, objectName: objectName})
		}
	}
	return output, nil
}

// ListObjects returns up to MockClientPageSize names of objects
// starting with a given prefix. The continuation token is the decimal
// offset of the next page in the lexicographically sorted list of
// matching names.
func (c *MockClient) ListObjects(ctx context.Context, bucketName, namePrefix string, continuationToken *string) (ListObjectsOutput, error) {
	startFrom := 0
	if continuationToken != nil {
		var err error
		startFrom, err = strconv.Atoi(*continuationToken)
		if err != nil {
			return ListObjectsOutput{}, util.StatusWrapfWithCode(err, codes.InvalidArgument, "Invalid continuation token %#v", *continuationToken)
		}
		if startFrom < 0 {
			return ListObjectsOutput{}, status.Errorf(codes.InvalidArgument, "Continuation token %#v is negative", *continuationToken)
		}
	}

	c.lock.Lock()
	var matchingNames []string
	for key := range c.contents {
		if key.bucketName == bucketName && strings.HasPrefix(key.objectName, namePrefix) {
			matchingNames = append(matchingNames, key.objectName)
		}
	}
	c.lock.Unlock()
	sort.Strings(matchingNames)

	var output ListObjectsOutput
	endTo := len(matchingNames)
	if startFrom+MockClientPageSize < endTo {
		endTo = startFrom + MockClientPageSize
		nextContinuationToken := strconv.Itoa(endTo)
		output.NextContinuationToken = &nextContinuationToken
	}
	for i := startFrom; i < endTo; i++ {
		objectName := matchingNames[i]
		if err := getFailureTrigger(objectName, OperationList); err != nil {
			return ListObjectsOutput{}, err
		}
		output.ObjectNames = append(output.ObjectNames, objectName)
	}
	return output, nil
}
