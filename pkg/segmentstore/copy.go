package segmentstore

import (
	"context"

	"github.com/buildbarn/bb-segment-storage/pkg/atomkey"
	"github.com/buildbarn/bb-segment-storage/pkg/chunkedbuffer"
	"github.com/buildbarn/bb-segment-storage/pkg/util"
)

// CopyStatistics contains the number of keys processed by CopyType().
type CopyStatistics struct {
	KeysCopied  int
	KeysSkipped int
}

// CopyOptions control the behavior of CopyType().
type CopyOptions struct {
	// Only copy keys whose string stream identifier starts with
	// this prefix.
	Prefix string
	// Number of keys whose segments are read from the source
	// through a single call to ReadBatch().
	BatchSize int
	// Don't copy keys that are already present in the sink.
	SkipExisting bool
}

// CopyType copies the segments of all keys of a given type from one
// Storage to another. The source and sink may be backed by different
// object stores, and may use different layouts.
func CopyType(ctx context.Context, source, sink *Storage, keyType atomkey.KeyType, options CopyOptions) (CopyStatistics, error) {
	batchSize := max(options.BatchSize, 1)
	var statistics CopyStatistics
	batch := make([]*atomkey.Key, 0, batchSize)
	flush := func() error {
		err := source.ReadBatch(ctx, batch, func(key *atomkey.Key, segment *chunkedbuffer.ChunkedBuffer) error {
			if err := sink.Write(ctx, key, segment); err != nil {
				return err
			}
			statistics.KeysCopied++
			return nil
		})
		batch = batch[:0]
		return err
	}

	if err := source.IterateType(ctx, keyType, options.Prefix, func(key *atomkey.Key) error {
		if options.SkipExisting {
			exists, err := sink.KeyExists(ctx, key)
			if err != nil {
				return err
			}
			if exists {
				statistics.KeysSkipped++
				return nil
			}
		}
		batch = append(batch, key)
		if len(batch) < batchSize {
			return nil
		}
		return flush()
	}); err != nil {
		return statistics, util.StatusWrapf(err, "Failed to copy keys of type %s", keyType)
	}
	if err := flush(); err != nil {
		return statistics, util.StatusWrapf(err, "Failed to copy keys of type %s", keyType)
	}
	return statistics, nil
}
