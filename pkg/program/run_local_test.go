package program_test

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/buildbarn/bb-segment-storage/pkg/program"
	"github.com/buildbarn/bb-segment-storage/pkg/testutil"
	"github.com/stretchr/testify/require"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestRunLocal(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		var completed atomic.Int32
		require.NoError(t, program.RunLocal(context.Background(), func(ctx context.Context, siblingsGroup, dependenciesGroup program.Group) error {
			for range 10 {
				siblingsGroup.Go(func(ctx context.Context, siblingsGroup, dependenciesGroup program.Group) error {
					completed.Add(1)
					return nil
				})
			}
			return nil
		}))
		require.Equal(t, int32(10), completed.Load())
	})

	t.Run("FirstErrorIsReturned", func(t *testing.T) {
		err := program.RunLocal(context.Background(), func(ctx context.Context, siblingsGroup, dependenciesGroup program.Group) error {
			siblingsGroup.Go(func(ctx context.Context, siblingsGroup, dependenciesGroup program.Group) error {
				// Wait for the sibling below to fail.
				<-ctx.Done()
				return status.Error(codes.Canceled, "Sibling canceled")
			})
			return status.Error(codes.Internal, "Copy failed")
		})
		testutil.RequireEqualStatus(t, status.Error(codes.Internal, "Copy failed"), err)
	})

	t.Run("DependenciesOutliveSiblings", func(t *testing.T) {
		var dependencyCanceledEarly atomic.Bool
		require.NoError(t, program.RunLocal(context.Background(), func(ctx context.Context, siblingsGroup, dependenciesGroup program.Group) error {
			dependencyContexts := make(chan context.Context, 1)
			dependenciesGroup.Go(func(dependencyCtx context.Context, siblingsGroup, dependenciesGroup program.Group) error {
				dependencyContexts <- dependencyCtx
				<-dependencyCtx.Done()
				return nil
			})
			// The dependency may only be canceled after this
			// routine has returned.
			if (<-dependencyContexts).Err() != nil {
				dependencyCanceledEarly.Store(true)
			}
			return nil
		}))
		require.False(t, dependencyCanceledEarly.Load())
	})
}
