package global

import (
	"context"
	"net/http"

	// The pprof package does not provide a function for registering
	// its endpoints against an arbitrary mux. Load it to force
	// registration against the default mux, so we can forward
	// traffic to that mux instead.
	_ "net/http/pprof"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/buildbarn/bb-segment-storage/pkg/clock"
	"github.com/buildbarn/bb-segment-storage/pkg/program"
	"github.com/buildbarn/bb-segment-storage/pkg/util"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// DiagnosticsHTTPServerConfiguration contains the options of the web
// server that exposes health checks and metrics.
type DiagnosticsHTTPServerConfiguration struct {
	ListenAddress    string `json:"listenAddress"`
	EnablePrometheus bool   `json:"enablePrometheus"`
	EnablePprof      bool   `json:"enablePprof"`
}

// PrometheusPushgatewayConfiguration contains the options for pushing
// metrics to a Prometheus Pushgateway. This is useful for short-lived
// processes that cannot be scraped reliably.
type PrometheusPushgatewayConfiguration struct {
	URL      string            `json:"url"`
	Job      string            `json:"job"`
	Grouping map[string]string `json:"grouping"`
	// PushInterval is parsed using time.ParseDuration().
	PushInterval string `json:"pushInterval"`
}

// Configuration options that apply to the process as a whole, as
// opposed to individual storage backends.
type Configuration struct {
	DiagnosticsHTTPServer *DiagnosticsHTTPServerConfiguration `json:"diagnosticsHttpServer"`
	PrometheusPushgateway *PrometheusPushgatewayConfiguration `json:"prometheusPushgateway"`
	MutexProfileFraction  int                                 `json:"mutexProfileFraction"`
}

// DiagnosticsServer is returned by ApplyConfiguration. It serves health
// checks, metrics and profiling endpoints, and reports readiness once
// the program has started successfully.
type DiagnosticsServer struct {
	config *DiagnosticsHTTPServerConfiguration
	ready  atomic.Bool
}

// NewDiagnosticsServer creates a DiagnosticsServer. If no configuration
// is provided, Serve() only waits for termination.
func NewDiagnosticsServer(config *DiagnosticsHTTPServerConfiguration) *DiagnosticsServer {
	return &DiagnosticsServer{config: config}
}

// Handler returns the HTTP handler that serves the diagnostics
// endpoints.
func (ds *DiagnosticsServer) Handler() http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/-/healthy", func(http.ResponseWriter, *http.Request) {})
	router.HandleFunc("/-/ready", func(w http.ResponseWriter, _ *http.Request) {
		if ds.ready.Load() {
			w.WriteHeader(http.StatusOK)
		} else {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		}
	})
	if ds.config != nil && ds.config.EnablePrometheus {
		router.Handle("/metrics", promhttp.Handler())
	}
	if ds.config != nil && ds.config.EnablePprof {
		router.PathPrefix("/debug/pprof/").Handler(http.DefaultServeMux)
	}
	return router
}

// Serve the diagnostics endpoints until the context is canceled. It
// may be used as a program.Routine.
func (ds *DiagnosticsServer) Serve(ctx context.Context, siblingsGroup, dependenciesGroup program.Group) error {
	if ds.config == nil {
		<-ctx.Done()
		return nil
	}

	server := &http.Server{
		Addr:    ds.config.ListenAddress,
		Handler: ds.Handler(),
	}
	siblingsGroup.Go(func(ctx context.Context, siblingsGroup, dependenciesGroup program.Group) error {
		<-ctx.Done()
		ds.SetNotServing()
		return server.Shutdown(context.Background())
	})
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return util.StatusWrap(err, "Diagnostics server")
	}
	return nil
}

// SetReady updates the health check to report healthy and ready.
func (ds *DiagnosticsServer) SetReady() {
	ds.ready.Store(true)
}

// SetNotServing updates the health check to report healthy but not
// ready.
func (ds *DiagnosticsServer) SetNotServing() {
	ds.ready.Store(false)
}

// NewPusherFromConfiguration creates a routine that periodically pushes
// metrics to a Prometheus Pushgateway. Metrics are pushed one final
// time upon termination, so that the results of short-lived processes
// are not lost.
func NewPusherFromConfiguration(configuration *PrometheusPushgatewayConfiguration, clock clock.Clock, errorLogger util.ErrorLogger) (program.Routine, error) {
	pushInterval, err := time.ParseDuration(configuration.PushInterval)
	if err != nil {
		return nil, util.StatusWrapWithCode(err, codes.InvalidArgument, "Failed to parse push interval")
	}
	if pushInterval <= 0 {
		return nil, status.Errorf(codes.InvalidArgument, "Push interval %s is not positive", pushInterval)
	}

	pusher := push.New(configuration.URL, configuration.Job)
	pusher.Gatherer(prometheus.DefaultGatherer)
	for key, value := range configuration.Grouping {
		pusher.Grouping(key, value)
	}

	return func(ctx context.Context, siblingsGroup, dependenciesGroup program.Group) error {
		ticker, tick := clock.NewTicker(pushInterval)
		defer ticker.Stop()
		for {
			select {
			case <-tick:
				if err := pusher.PushContext(ctx); err != nil {
					errorLogger.Log(util.StatusWrap(err, "Failed to push metrics to Prometheus Pushgateway"))
				}
			case <-ctx.Done():
				if err := pusher.PushContext(context.Background()); err != nil {
					errorLogger.Log(util.StatusWrap(err, "Failed to push metrics to Prometheus Pushgateway"))
				}
				return nil
			}
		}
	}, nil
}

// ApplyConfiguration applies configuration options to the running
// process. The returned DiagnosticsServer and Pushgateway routine are
// launched as dependencies of the calling routine, so that metrics
// remain available until the program's work has completed.
func ApplyConfiguration(configuration *Configuration, dependenciesGroup program.Group, errorLogger util.ErrorLogger) (*DiagnosticsServer, error) {
	// Enable mutex profiling.
	runtime.SetMutexProfileFraction(configuration.MutexProfileFraction)

	if pushgateway := configuration.PrometheusPushgateway; pushgateway != nil {
		pusher, err := NewPusherFromConfiguration(pushgateway, clock.SystemClock, errorLogger)
		if err != nil {
			return nil, util.StatusWrap(err, "Failed to create Prometheus Pushgateway pusher")
		}
		dependenciesGroup.Go(pusher)
	}

	diagnosticsServer := NewDiagnosticsServer(configuration.DiagnosticsHTTPServer)
	dependenciesGroup.Go(diagnosticsServer.Serve)
	return diagnosticsServer, nil
}
