package main

import (
	"context"
	"log"
	"os"

	"github.com/buildbarn/bb-segment-storage/pkg/atomkey"
	"github.com/buildbarn/bb-segment-storage/pkg/configuration"
	"github.com/buildbarn/bb-segment-storage/pkg/global"
	"github.com/buildbarn/bb-segment-storage/pkg/program"
	"github.com/buildbarn/bb-segment-storage/pkg/segmentstore"
	"github.com/buildbarn/bb-segment-storage/pkg/util"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// A utility for copying the segments of a library between buckets,
// object stores or layouts. Keys of the configured types are listed in
// the source, read in batches and written to the sink, terminating as
// soon as all of them have been copied.

type applicationConfiguration struct {
	Global global.Configuration                `json:"global"`
	Source configuration.StorageConfiguration `json:"source"`
	Sink   configuration.StorageConfiguration `json:"sink"`

	// Display names of the key types to copy (e.g., "TABLE_DATA").
	// All key types are copied if left empty.
	KeyTypes     []string `json:"keyTypes"`
	Prefix       string   `json:"prefix"`
	BatchSize    int      `json:"batchSize"`
	SkipExisting bool     `json:"skipExisting"`
}

func main() {
	program.RunMain(func(ctx context.Context, siblingsGroup, dependenciesGroup program.Group) error {
		if len(os.Args) != 2 {
			return status.Error(codes.InvalidArgument, "Usage: bb_segment_copy bb_segment_copy.jsonnet")
		}
		var configuration applicationConfiguration
		if err := util.UnmarshalConfigurationFromFile(os.Args[1], &configuration); err != nil {
			return util.StatusWrapf(err, "Failed to read configuration from %s", os.Args[1])
		}
		diagnosticsServer, err := global.ApplyConfiguration(&configuration.Global, dependenciesGroup, util.DefaultErrorLogger)
		if err != nil {
			return util.StatusWrap(err, "Failed to apply global configuration options")
		}

		source, err := newStorage(ctx, &configuration.Source)
		if err != nil {
			return util.StatusWrap(err, "Failed to create source")
		}
		sink, err := newStorage(ctx, &configuration.Sink)
		if err != nil {
			return util.StatusWrap(err, "Failed to create sink")
		}

		keyTypes := atomkey.KeyTypes()
		if len(configuration.KeyTypes) > 0 {
			keyTypes = keyTypes[:0]
			for _, name := range configuration.KeyTypes {
				keyType, err := atomkey.ParseKeyType(name)
				if err != nil {
					return err
				}
				keyTypes = append(keyTypes, keyType)
			}
		}

		// Copy every key type in parallel. The program terminates
		// once all of them have completed.
		options := segmentstore.CopyOptions{
			Prefix:       configuration.Prefix,
			BatchSize:    configuration.BatchSize,
			SkipExisting: configuration.SkipExisting,
		}
		for _, keyType := range keyTypes {
			if keyType == atomkey.KeyTypeUndefined {
				continue
			}
			siblingsGroup.Go(func(ctx context.Context, siblingsGroup, dependenciesGroup program.Group) error {
				statistics, err := segmentstore.CopyType(ctx, source, sink, keyType, options)
				if err != nil {
					return err
				}
				log.Printf("Copied %d keys of type %s, skipped %d", statistics.KeysCopied, keyType, statistics.KeysSkipped)
				return nil
			})
		}

		diagnosticsServer.SetReady()
		return nil
	})
}

func newStorage(ctx context.Context, storageConfiguration *configuration.StorageConfiguration) (*segmentstore.Storage, error) {
	return configuration.NewStorageFromConfiguration(ctx, storageConfiguration, util.DefaultErrorLogger)
}
