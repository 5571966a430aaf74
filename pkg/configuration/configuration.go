package configuration

import (
	"context"

	"github.com/buildbarn/bb-segment-storage/pkg/chunkedbuffer"
	"github.com/buildbarn/bb-segment-storage/pkg/clock"
	"github.com/buildbarn/bb-segment-storage/pkg/cloud/aws"
	"github.com/buildbarn/bb-segment-storage/pkg/cloud/gcp"
	"github.com/buildbarn/bb-segment-storage/pkg/keypath"
	"github.com/buildbarn/bb-segment-storage/pkg/objectstore"
	"github.com/buildbarn/bb-segment-storage/pkg/segmentstore"
	"github.com/buildbarn/bb-segment-storage/pkg/util"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// DefaultReadConcurrency is the number of objects that are downloaded
// in parallel by a Storage if no read concurrency is configured.
const DefaultReadConcurrency = 16

// MockConfiguration selects an in-memory object store. It has no
// options.
type MockConfiguration struct{}

// ObjectStoreConfiguration selects the object store in which segments
// are stored. Exactly one of the backends needs to be set.
type ObjectStoreConfiguration struct {
	Mock *MockConfiguration              `json:"mock"`
	S3   *aws.S3Configuration            `json:"s3"`
	GCS  *gcp.ClientOptionsConfiguration `json:"gcs"`

	// ChunkSizeBytes is the size of the chunks of the buffers in
	// which downloaded segments are stored.
	ChunkSizeBytes int `json:"chunkSizeBytes"`
	// MetricsName is used as the value of the "name" label of
	// Prometheus metrics. Metrics are disabled if left empty.
	MetricsName string `json:"metricsName"`
}

// StorageConfiguration contains the options for a Storage: the object
// store in which segments are stored, and the location of a single
// library within it.
type StorageConfiguration struct {
	ObjectStore ObjectStoreConfiguration `json:"objectStore"`
	BucketName  string                   `json:"bucketName"`

	// The root folder of the library may either be specified as a
	// list of path components, or as a dot-delimited prefix.
	LibraryPath []string `json:"libraryPath"`
	Prefix      string   `json:"prefix"`

	// HashBuckets spreads the objects of every key type across a
	// number of subdirectories. Objects are stored in a single
	// directory per key type if left zero.
	HashBuckets     int   `json:"hashBuckets"`
	ReadConcurrency int64 `json:"readConcurrency"`
}

// NewObjectStoreClientFromConfiguration creates an object store client
// based on options specified in a configuration message.
func NewObjectStoreClientFromConfiguration(ctx context.Context, configuration *ObjectStoreConfiguration, errorLogger util.ErrorLogger) (objectstore.Client, error) {
	chunkSizeBytes := configuration.ChunkSizeBytes
	if chunkSizeBytes < 0 {
		return nil, status.Errorf(codes.InvalidArgument, "Invalid chunk size %d", chunkSizeBytes)
	} else if chunkSizeBytes == 0 {
		chunkSizeBytes = chunkedbuffer.DefaultChunkSizeBytes
	}

	var backendsConfigured int
	var client objectstore.Client
	if configuration.Mock != nil {
		backendsConfigured++
		client = objectstore.NewMockClient()
	}
	if configuration.S3 != nil {
		backendsConfigured++
		s3Client, err := aws.NewS3ClientFromConfiguration(ctx, configuration.S3)
		if err != nil {
			return nil, util.StatusWrap(err, "Failed to create S3 client")
		}
		client = objectstore.NewS3Client(s3Client, chunkSizeBytes)
	}
	if configuration.GCS != nil {
		backendsConfigured++
		storageClient, err := gcp.NewStorageClientFromConfiguration(ctx, configuration.GCS)
		if err != nil {
			return nil, util.StatusWrap(err, "Failed to create Google Cloud Storage client")
		}
		client = objectstore.NewGCSClient(storageClient, chunkSizeBytes, errorLogger)
	}
	switch backendsConfigured {
	case 0:
		return nil, status.Error(codes.InvalidArgument, "No object store backend specified")
	case 1:
	default:
		return nil, status.Errorf(codes.InvalidArgument, "Exactly one object store backend must be specified, while %d were provided", backendsConfigured)
	}

	if configuration.MetricsName != "" {
		client = objectstore.NewMetricsClient(client, clock.SystemClock, configuration.MetricsName)
	}
	return client, nil
}

// NewBucketizerFromConfiguration returns the Bucketizer that is used to
// determine the directory of every object.
func NewBucketizerFromConfiguration(configuration *StorageConfiguration) (keypath.Bucketizer, error) {
	switch {
	case configuration.HashBuckets < 0:
		return nil, status.Errorf(codes.InvalidArgument, "Invalid number of hash buckets %d", configuration.HashBuckets)
	case configuration.HashBuckets == 0:
		return keypath.FlatBucketizer, nil
	default:
		return keypath.NewHashBucketizer(configuration.HashBuckets), nil
	}
}

// RootFolderFromConfiguration returns the folder in which all objects
// of the configured library are stored.
func RootFolderFromConfiguration(configuration *StorageConfiguration) (string, error) {
	switch {
	case len(configuration.LibraryPath) > 0 && configuration.Prefix != "":
		return "", status.Error(codes.InvalidArgument, "Library path and prefix cannot be specified at the same time")
	case configuration.Prefix != "":
		return keypath.RootFolderFromPrefix(configuration.Prefix), nil
	default:
		return keypath.RootFolderFromLibraryPath(configuration.LibraryPath), nil
	}
}

// NewStorageFromConfiguration creates a Storage based on options
// specified in a configuration message.
func NewStorageFromConfiguration(ctx context.Context, configuration *StorageConfiguration, errorLogger util.ErrorLogger) (*segmentstore.Storage, error) {
	if configuration.BucketName == "" {
		return nil, status.Error(codes.InvalidArgument, "No bucket name specified")
	}
	rootFolder, err := RootFolderFromConfiguration(configuration)
	if err != nil {
		return nil, err
	}
	bucketizer, err := NewBucketizerFromConfiguration(configuration)
	if err != nil {
		return nil, err
	}
	readConcurrency := configuration.ReadConcurrency
	if readConcurrency < 0 {
		return nil, status.Errorf(codes.InvalidArgument, "Invalid read concurrency %d", readConcurrency)
	} else if readConcurrency == 0 {
		readConcurrency = DefaultReadConcurrency
	}

	client, err := NewObjectStoreClientFromConfiguration(ctx, &configuration.ObjectStore, errorLogger)
	if err != nil {
		return nil, util.StatusWrap(err, "Failed to create object store client")
	}
	return segmentstore.NewStorage(client, configuration.BucketName, rootFolder, bucketizer, readConcurrency, errorLogger), nil
}
