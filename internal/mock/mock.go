// Package mock contains gomock stubs of interfaces used throughout this
// repository.
package mock

//go:generate go run go.uber.org/mock/mockgen -destination s3_client.go -package mock -mock_names S3Client=MockS3Client github.com/buildbarn/bb-segment-storage/pkg/cloud/aws S3Client
//go:generate go run go.uber.org/mock/mockgen -destination error_logger.go -package mock -mock_names ErrorLogger=MockErrorLogger github.com/buildbarn/bb-segment-storage/pkg/util ErrorLogger
//go:generate go run go.uber.org/mock/mockgen -destination object_store_client.go -package mock -mock_names Client=MockObjectStoreClient github.com/buildbarn/bb-segment-storage/pkg/objectstore Client
//go:generate go run go.uber.org/mock/mockgen -destination gcp.go -package mock -mock_names StorageClient=MockStorageClient,StorageBucketHandle=MockStorageBucketHandle,StorageObjectHandle=MockStorageObjectHandle github.com/buildbarn/bb-segment-storage/pkg/cloud/gcp StorageClient,StorageBucketHandle,StorageObjectHandle
//go:generate go run go.uber.org/mock/mockgen -destination clock.go -package mock -mock_names Clock=MockClock,Ticker=MockTicker github.com/buildbarn/bb-segment-storage/pkg/clock Clock,Ticker
