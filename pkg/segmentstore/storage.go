package segmentstore

import (
	"context"
	"strings"

	"github.com/buildbarn/bb-segment-storage/pkg/atomkey"
	"github.com/buildbarn/bb-segment-storage/pkg/chunkedbuffer"
	"github.com/buildbarn/bb-segment-storage/pkg/keypath"
	"github.com/buildbarn/bb-segment-storage/pkg/objectstore"
	"github.com/buildbarn/bb-segment-storage/pkg/util"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// DeleteBatchSize is the maximum number of objects that Remove() passes
// to a single call to Client.DeleteObjects(). It corresponds to the
// limit imposed by S3.
const DeleteBatchSize = 1000

// ReadVisitor is invoked by Storage.ReadBatch() for every key that has
// been read.
type ReadVisitor func(key *atomkey.Key, segment *chunkedbuffer.ChunkedBuffer) error

// IterateTypeVisitor is invoked by Storage.IterateType() for every key
// that is found. Returning an error terminates the iteration.
type IterateTypeVisitor func(key *atomkey.Key) error

// Storage of segments in an object store, where every segment is
// addressed by a key. Objects are named after the key's type and
// fields, placed in a root folder that is shared by all objects of a
// single library.
type Storage struct {
	client        objectstore.Client
	bucketName    string
	rootFolder    string
	bucketizer    keypath.Bucketizer
	readSemaphore *semaphore.Weighted
	errorLogger   util.ErrorLogger
}

// NewStorage creates a Storage that stores objects in a given bucket.
// The number of objects that are downloaded in parallel by ReadBatch()
// is limited to readConcurrency across all callers, which must be
// positive. Failures that do not prevent an operation from completing,
// such as individual objects that cannot be deleted, are reported
// through the error logger.
func NewStorage(client objectstore.Client, bucketName, rootFolder string, bucketizer keypath.Bucketizer, readConcurrency int64, errorLogger util.ErrorLogger) *Storage {
	if readConcurrency <= 0 {
		panic("Read concurrency must be positive")
	}
	return &Storage{
		client:        client,
		bucketName:    bucketName,
		rootFolder:    rootFolder,
		bucketizer:    bucketizer,
		readSemaphore: semaphore.NewWeighted(readConcurrency),
		errorLogger:   errorLogger,
	}
}

// KeyPath returns the name of the object in which the segment
// corresponding to a key is stored.
func (s *Storage) KeyPath(key *atomkey.Key) string {
	return keypath.ObjectPath(s.bucketizer.Bucketize(keypath.KeyTypeFolder(s.rootFolder, key.Type()), key), key)
}

// Write stores the segment corresponding to a key, overwriting any
// segment that was stored previously. Ownership of the segment is
// transferred to the Storage.
func (s *Storage) Write(ctx context.Context, key *atomkey.Key, segment *chunkedbuffer.ChunkedBuffer) error {
	if err := s.client.PutObject(ctx, s.bucketName, s.KeyPath(key), segment); err != nil {
		return util.StatusWrapf(err, "Failed to write key %s", key)
	}
	return nil
}

// Update replaces the segment corresponding to a key. Unless upsert is
// set, the key must already exist.
func (s *Storage) Update(ctx context.Context, key *atomkey.Key, segment *chunkedbuffer.ChunkedBuffer, upsert bool) error {
	if !upsert {
		exists, err := s.KeyExists(ctx, key)
		if err != nil {
			return err
		}
		if !exists {
			return status.Errorf(codes.NotFound, "Key %s does not exist", key)
		}
	}
	return s.Write(ctx, key, segment)
}

// Read the segment corresponding to a key. codes.NotFound is returned
// if the key does not exist.
func (s *Storage) Read(ctx context.Context, key *atomkey.Key) (*chunkedbuffer.ChunkedBuffer, error) {
	segment, err := s.client.GetObject(ctx, s.bucketName, s.KeyPath(key))
	if err != nil {
		return nil, util.StatusWrapf(err, "Failed to read key %s", key)
	}
	return segment, nil
}

// ReadBatch reads the segments corresponding to a list of keys in
// parallel. The visitor is invoked for every key, in the order in which
// the keys are provided, once all segments have been read. If any of
// the reads fails, the visitor is not invoked at all.
func (s *Storage) ReadBatch(ctx context.Context, keys []*atomkey.Key, visitor ReadVisitor) error {
	segments := make([]*chunkedbuffer.ChunkedBuffer, len(keys))
	group, groupCtx := errgroup.WithContext(ctx)
	for i, key := range keys {
		if err := util.AcquireSemaphore(groupCtx, s.readSemaphore, 1); err != nil {
			// Prefer returning the error that caused the
			// context to be canceled.
			if groupErr := group.Wait(); groupErr != nil {
				return groupErr
			}
			return err
		}
		group.Go(func() error {
			defer s.readSemaphore.Release(1)
			segment, err := s.Read(groupCtx, key)
			if err != nil {
				return err
			}
			segments[i] = segment
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}

	for i, key := range keys {
		if err := visitor(key, segments[i]); err != nil {
			return err
		}
	}
	return nil
}

// Remove the segments corresponding to a list of keys. Keys that do not
// exist are ignored. Objects are deleted in batches. If some of the
// objects could not be deleted, all of them are logged and an error is
// returned after all batches have been processed.
func (s *Storage) Remove(ctx context.Context, keys []*atomkey.Key) error {
	objectNames := make([]string, 0, len(keys))
	for _, key := range keys {
		objectNames = append(objectNames, s.KeyPath(key))
	}

	var failedDeletes []string
	for len(objectNames) > 0 {
		batch := objectNames[:min(len(objectNames), DeleteBatchSize)]
		objectNames = objectNames[len(batch):]
		output, err := s.client.DeleteObjects(ctx, s.bucketName, batch)
		if err != nil {
			return util.StatusWrapf(err, "Failed to delete batch of %d objects", len(batch))
		}
		for _, objectName := range output.FailedDeletes {
			s.errorLogger.Log(status.Errorf(codes.Internal, "Failed to delete object %#v", objectName))
		}
		failedDeletes = append(failedDeletes, output.FailedDeletes...)
	}
	if len(failedDeletes) > 0 {
		return status.Errorf(codes.Internal, "Failed to delete %d object(s), including %#v", len(failedDeletes), failedDeletes[0])
	}
	return nil
}

// IterateType invokes a visitor for every key of a given type that is
// stored. If a non-empty prefix is provided, only keys with a string
// stream identifier starting with the prefix are visited. Keys are
// visited in no particular order. Objects whose names cannot be
// converted back to keys are logged and skipped.
func (s *Storage) IterateType(ctx context.Context, keyType atomkey.KeyType, prefix string, visitor IterateTypeVisitor) error {
	keyTypeFolder := keypath.KeyTypeFolder(s.rootFolder, keyType)
	namePrefix := keyTypeFolder + "/"
	var objectKeyPrefix string
	if prefix != "" {
		objectKeyPrefix = keypath.FormatStreamIDPrefix(prefix)
		// Only the flat layout allows filtering on the stream
		// identifier server side. Other layouts place objects
		// in subdirectories.
		if s.bucketizer == keypath.FlatBucketizer {
			namePrefix += objectKeyPrefix
		}
	}

	var continuationToken *string
	for {
		output, err := s.client.ListObjects(ctx, s.bucketName, namePrefix, continuationToken)
		if err != nil {
			return util.StatusWrapf(err, "Failed to list objects with prefix %#v", namePrefix)
		}
		for _, objectName := range output.ObjectNames {
			objectKey := objectName[strings.LastIndexByte(objectName, '/')+1:]
			if !strings.HasPrefix(objectKey, objectKeyPrefix) {
				continue
			}
			key, err := keypath.ParseObjectKey(keyType, objectKey)
			if err != nil {
				s.errorLogger.Log(util.StatusWrapf(err, "Skipping object %#v", objectName))
				continue
			}
			if err := visitor(key); err != nil {
				return err
			}
		}
		if output.NextContinuationToken == nil {
			return nil
		}
		continuationToken = output.NextContinuationToken
	}
}

// KeyExists returns whether the segment corresponding to a key is
// stored.
func (s *Storage) KeyExists(ctx context.Context, key *atomkey.Key) (bool, error) {
	if err := s.client.HeadObject(ctx, s.bucketName, s.KeyPath(key)); err != nil {
		if objectstore.IsNotFound(err) {
			return false, nil
		}
		return false, util.StatusWrapf(err, "Failed to check existence of key %s", key)
	}
	return true, nil
}
