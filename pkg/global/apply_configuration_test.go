package global_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/buildbarn/bb-segment-storage/internal/mock"
	"github.com/buildbarn/bb-segment-storage/pkg/clock"
	"github.com/buildbarn/bb-segment-storage/pkg/global"
	"github.com/buildbarn/bb-segment-storage/pkg/program"
	"github.com/stretchr/testify/require"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"go.uber.org/mock/gomock"
)

func get(t *testing.T, handler http.Handler, path string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	return w
}

func TestDiagnosticsServerHandler(t *testing.T) {
	t.Run("Readiness", func(t *testing.T) {
		diagnosticsServer := global.NewDiagnosticsServer(&global.DiagnosticsHTTPServerConfiguration{})
		handler := diagnosticsServer.Handler()

		require.Equal(t, http.StatusOK, get(t, handler, "/-/healthy").Code)
		require.Equal(t, http.StatusServiceUnavailable, get(t, handler, "/-/ready").Code)

		diagnosticsServer.SetReady()
		require.Equal(t, http.StatusOK, get(t, handler, "/-/ready").Code)

		diagnosticsServer.SetNotServing()
		require.Equal(t, http.StatusServiceUnavailable, get(t, handler, "/-/ready").Code)
	})

	t.Run("PrometheusDisabled", func(t *testing.T) {
		handler := global.NewDiagnosticsServer(&global.DiagnosticsHTTPServerConfiguration{}).Handler()
		require.Equal(t, http.StatusNotFound, get(t, handler, "/metrics").Code)
	})

	t.Run("PrometheusEnabled", func(t *testing.T) {
		handler := global.NewDiagnosticsServer(&global.DiagnosticsHTTPServerConfiguration{
			EnablePrometheus: true,
		}).Handler()
		w := get(t, handler, "/metrics")
		require.Equal(t, http.StatusOK, w.Code)
		require.True(t, strings.Contains(w.Body.String(), "go_goroutines"))
	})
}

func TestDiagnosticsServerServeWithoutConfiguration(t *testing.T) {
	// Without a configuration, no listening socket is created, and
	// Serve() terminates as soon as the context is canceled.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, program.RunLocal(ctx, global.NewDiagnosticsServer(nil).Serve))
}

func TestNewPusherFromConfiguration(t *testing.T) {
	errorLogger := mock.NewMockErrorLogger(gomock.NewController(t))

	t.Run("InvalidInterval", func(t *testing.T) {
		_, err := global.NewPusherFromConfiguration(&global.PrometheusPushgatewayConfiguration{
			URL:          "http://localhost:9091",
			Job:          "bb_segment_copy",
			PushInterval: "often",
		}, clock.SystemClock, errorLogger)
		require.Equal(t, codes.InvalidArgument, status.Code(err))
	})

	t.Run("NegativeInterval", func(t *testing.T) {
		_, err := global.NewPusherFromConfiguration(&global.PrometheusPushgatewayConfiguration{
			URL:          "http://localhost:9091",
			Job:          "bb_segment_copy",
			PushInterval: "-10s",
		}, clock.SystemClock, errorLogger)
		require.Equal(t, codes.InvalidArgument, status.Code(err))
	})

	t.Run("PeriodicAndFinalPush", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		var pushes atomic.Int32
		pushed := make(chan struct{}, 2)
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/metrics/job/bb_segment_copy/instance/test" {
				pushes.Add(1)
				pushed <- struct{}{}
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		// The periodic push may still be reading its response when
		// the context is canceled, in which case it is logged.
		pushErrorLogger := mock.NewMockErrorLogger(ctrl)
		pushErrorLogger.EXPECT().Log(gomock.Any()).MaxTimes(1)

		clock := mock.NewMockClock(ctrl)
		ticker := mock.NewMockTicker(ctrl)
		tick := make(chan time.Time)
		clock.EXPECT().NewTicker(time.Minute).Return(ticker, (<-chan time.Time)(tick))
		ticker.EXPECT().Stop()

		pusher, err := global.NewPusherFromConfiguration(&global.PrometheusPushgatewayConfiguration{
			URL:          server.URL,
			Job:          "bb_segment_copy",
			Grouping:     map[string]string{"instance": "test"},
			PushInterval: "1m",
		}, clock, pushErrorLogger)
		require.NoError(t, err)

		// Metrics are pushed once when the ticker fires, and once
		// more when terminating. Only cancel after the periodic
		// push has reached the server, as it uses the routine's
		// context.
		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			tick <- time.Unix(1000, 0)
			<-pushed
			cancel()
		}()
		require.NoError(t, program.RunLocal(ctx, pusher))
		require.Equal(t, int32(2), pushes.Load())
	})
}
