package influxdb_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/huongkhe/schoolsite/internal/infrastructure/config"
	"github.com/huongkhe/schoolsite/internal/infrastructure/influxdb"
)

// testConfig returns a configuration for a local dev InfluxDB.
func testConfig() config.InfluxDBConfig {
	return config.InfluxDBConfig{
		Enabled:       true,
		URL:           "http://127.0.0.1:8086",
		Token:         "schoolsite-dev-token",
		Org:           "schoolsite",
		Bucket:        "metrics",
		BatchSize:     100,
		FlushInterval: 1,
	}
}

// connectOrSkip skips the test when InfluxDB is not running.
func connectOrSkip(t *testing.T) *influxdb.Client {
	t.Helper()
	client, err := influxdb.Connect(testConfig())
	if err != nil {
		t.Skip("InfluxDB not available, skipping integration test")
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestConnect_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false

	client, err := influxdb.Connect(cfg)
	if !errors.Is(err, influxdb.ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
	if client != nil {
		t.Error("Connect() should return nil client when disabled")
	}
}

func TestConnect_InvalidURL(t *testing.T) {
	cfg := testConfig()
	cfg.URL = "http://127.0.0.1:1"

	_, err := influxdb.Connect(cfg)
	if !errors.Is(err, influxdb.ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestNilClient_IsNoOp(t *testing.T) {
	var client *influxdb.Client

	if client.IsConnected() {
		t.Error("nil client should not report connected")
	}
	client.WriteRequestMetric("GET", "/api/news", 200, time.Millisecond)
	client.WriteContentChange("news", "created")
	client.WriteRuntimeMetrics(map[string]interface{}{"goroutines": 4})
	client.Flush()
	if err := client.Close(); err != nil {
		t.Errorf("Close() on nil client = %v", err)
	}
}

func TestConnect(t *testing.T) {
	client := connectOrSkip(t)
	if !client.IsConnected() {
		t.Error("IsConnected() = false after Connect()")
	}
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
}

func TestWrites(t *testing.T) {
	client := connectOrSkip(t)

	var writeErrs atomic.Int32
	client.SetOnError(func(error) { writeErrs.Add(1) })

	client.WriteRequestMetric("POST", "/api/news", 201, 12*time.Millisecond)
	client.WriteContentChange("news", "created")
	client.WriteRuntimeMetrics(map[string]interface{}{"goroutines": 12, "ws_clients": 3})
	client.WritePointWithTime("custom", map[string]string{"k": "v"},
		map[string]interface{}{"value": 1.0}, time.Now().Add(-time.Minute))
	client.Flush()

	if n := writeErrs.Load(); n != 0 {
		t.Errorf("async write errors = %d, want 0", n)
	}
}

func TestClose(t *testing.T) {
	client := connectOrSkip(t)
	if err := client.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if client.IsConnected() {
		t.Error("IsConnected() = true after Close()")
	}
	if err := client.HealthCheck(context.Background()); !errors.Is(err, influxdb.ErrNotConnected) {
		t.Errorf("HealthCheck() after Close = %v, want ErrNotConnected", err)
	}
	// Writes after close are ignored.
	client.WriteContentChange("news", "deleted")
}
