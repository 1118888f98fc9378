package influxdb

import (
	"strconv"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names.
const (
	MeasurementHTTPRequest   = "http_requests"
	MeasurementContentChange = "content_changes"
	MeasurementRuntime       = "runtime"
)

// WriteRequestMetric records one served HTTP request. route is the chi
// route pattern, not the raw path, so tag cardinality stays bounded.
//
// The write is non-blocking; data is batched and sent asynchronously.
// A nil or disconnected client ignores the call.
//
//	client.WriteRequestMetric("GET", "/api/news/{id}", 200, 3*time.Millisecond)
func (c *Client) WriteRequestMetric(method, route string, status int, duration time.Duration) {
	c.WritePoint(MeasurementHTTPRequest,
		map[string]string{
			"method": method,
			"route":  route,
			"status": strconv.Itoa(status),
		},
		map[string]interface{}{
			"duration_ms": float64(duration.Microseconds()) / 1000,
			"count":       1,
		},
	)
}

// WriteContentChange records a create, update or delete on a collection.
func (c *Client) WriteContentChange(resource, action string) {
	c.WritePoint(MeasurementContentChange,
		map[string]string{
			"resource": resource,
			"action":   action,
		},
		map[string]interface{}{"count": 1},
	)
}

// WriteRuntimeMetrics records process gauges such as goroutines, heap
// size and connected WebSocket clients.
func (c *Client) WriteRuntimeMetrics(fields map[string]interface{}) {
	c.WritePoint(MeasurementRuntime, nil, fields)
}

// WritePoint writes a custom point stamped now.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	c.WritePointWithTime(measurement, tags, fields, time.Now())
}

// WritePointWithTime writes a custom point with a specific timestamp.
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, timestamp)
	c.writer.WritePoint(point)
}
