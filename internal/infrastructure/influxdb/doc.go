// Package influxdb writes API metrics to InfluxDB v2.
//
// Each served request becomes an http_requests point tagged with method,
// route pattern and status; content mutations become content_changes
// points; a periodic sampler writes runtime gauges.
//
// The integration is optional. Connect returns ErrDisabled when it is
// switched off, and every write method is a no-op on a nil or
// disconnected client, so callers never need to check.
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    client = nil
//	}
//	defer client.Close()
//
//	client.WriteRequestMetric("POST", "/api/news", 201, elapsed)
package influxdb
