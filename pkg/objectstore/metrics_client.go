package objectstore

import (
	"context"
	"sync"
	"time"

	"github.com/buildbarn/bb-segment-storage/pkg/chunkedbuffer"
	"github.com/buildbarn/bb-segment-storage/pkg/clock"
	"github.com/buildbarn/bb-segment-storage/pkg/util"
	"github.com/prometheus/client_golang/prometheus"

	"google.golang.org/grpc/status"
)

var (
	clientPrometheusMetrics sync.Once

	clientOperationsDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "buildbarn",
			Subsystem: "objectstore",
			Name:      "client_operations_duration_seconds",
			Help:      "Amount of time spent per operation on object store clients, in seconds.",
			Buckets:   util.DecimalExponentialBuckets(-3, 6, 2),
		},
		[]string{"name", "operation", "grpc_code"})
	clientSegmentSizeBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "buildbarn",
			Subsystem: "objectstore",
			Name:      "client_segment_size_bytes",
			Help:      "Size of segments transferred by object store clients, in bytes.",
			Buckets:   prometheus.ExponentialBuckets(1.0, 2.0, 33),
		},
		[]string{"name", "operation"})
	clientFailedDeletesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "buildbarn",
			Subsystem: "objectstore",
			Name:      "client_failed_deletes_total",
			Help:      "Number of objects whose deletion was reported as failed as part of a successful batch.",
		},
		[]string{"name"})
)

type metricsClient struct {
	client Client
	clock  clock.Clock
	name   string

	segmentSizeBytesGet prometheus.Observer
	segmentSizeBytesPut prometheus.Observer
	failedDeletesTotal  prometheus.Counter
}

// NewMetricsClient creates an adapter for Client that adds basic
// instrumentation in the form of Prometheus metrics.
func NewMetricsClient(client Client, clock clock.Clock, name string) Client {
	clientPrometheusMetrics.Do(func() {
		prometheus.MustRegister(clientOperationsDurationSeconds)
		prometheus.MustRegister(clientSegmentSizeBytes)
		prometheus.MustRegister(clientFailedDeletesTotal)
	})

	return &metricsClient{
		client: client,
		clock:  clock,
		name:   name,

		segmentSizeBytesGet: clientSegmentSizeBytes.WithLabelValues(name, "Get"),
		segmentSizeBytesPut: clientSegmentSizeBytes.WithLabelValues(name, "Put"),
		failedDeletesTotal:  clientFailedDeletesTotal.WithLabelValues(name),
	}
}

func (c *metricsClient) updateDuration(operation string, timeStart time.Time, err error) {
	clientOperationsDurationSeconds.WithLabelValues(c.name, operation, status.Code(err).String()).Observe(c.clock.Now().Sub(timeStart).Seconds())
}

func (c *metricsClient) HeadObject(ctx context.Context, bucketName, objectName string) error {
	timeStart := c.clock.Now()
	err := c.client.HeadObject(ctx, bucketName, objectName)
	c.updateDuration("Head", timeStart, err)
	return err
}

func (c *metricsClient) GetObject(ctx context.Context, bucketName, objectName string) (*chunkedbuffer.ChunkedBuffer, error) {
	timeStart := c.clock.Now()
	segment, err := c.client.GetObject(ctx, bucketName, objectName)
	c.updateDuration("Get", timeStart, err)
	if err == nil {
		c.segmentSizeBytesGet.Observe(float64(segment.Bytes()))
	}
	return segment, err
}

func (c *metricsClient) PutObject(ctx context.Context, bucketName, objectName string, segment *chunkedbuffer.ChunkedBuffer) error {
	// Ownership of the segment is transferred. Obtain its size up
	// front.
	sizeBytes := segment.Bytes()
	timeStart := c.clock.Now()
	err := c.client.PutObject(ctx, bucketName, objectName, segment)
	c.updateDuration("Put", timeStart, err)
	if err == nil {
		c.segmentSizeBytesPut.Observe(float64(sizeBytes))
	}
	return err
}

func (c *metricsClient) DeleteObjects(ctx context.Context, bucketName string, objectNames []string) (DeleteOutput, error) {
	timeStart := c.clock.Now()
	output, err := c.client.DeleteObjects(ctx, bucketName, objectNames)
	c.updateDuration("Delete", timeStart, err)
	c.failedDeletesTotal.Add(float64(len(output.FailedDeletes)))
	return output, err
}

func (c *metricsClient) ListObjects(ctx context.Context, bucketName, namePrefix string, continuationToken *string) (ListObjectsOutput, error) {
	timeStart := c.clock.Now()
	output, err := c.client.ListObjects(ctx, bucketName, namePrefix, continuationToken)
	c.updateDuration("List", timeStart, err)
	return output, err
}
