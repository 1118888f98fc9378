package api

import (
	"context"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/huongkhe/schoolsite/internal/audit"
)

// healthCheckTimeout bounds the store ping made by /api/health.
const healthCheckTimeout = 3 * time.Second

// SystemMetrics represents the complete system metrics response.
type SystemMetrics struct {
	Timestamp     string          `json:"timestamp"`
	Version       string          `json:"version"`
	UptimeSeconds int64           `json:"uptime_seconds"`
	Runtime       RuntimeMetrics  `json:"runtime"`
	WebSocket     WSMetrics       `json:"websocket"`
	MQTT          MQTTMetrics     `json:"mqtt"`
	Store         StoreMetrics    `json:"store"`
	Database      DatabaseMetrics `json:"database"`
	Audit         AuditMetrics    `json:"audit"`
}

// RuntimeMetrics contains Go runtime statistics.
type RuntimeMetrics struct {
	Goroutines    int     `json:"goroutines"`
	MemoryAllocMB float64 `json:"memory_alloc_mb"`
	MemoryTotalMB float64 `json:"memory_total_mb"`
	NumGC         uint32  `json:"num_gc"`
}

// WSMetrics contains WebSocket hub statistics.
type WSMetrics struct {
	ConnectedClients int   `json:"connected_clients"`
	DroppedMessages  int64 `json:"dropped_messages"`
}

// MQTTMetrics describes the event relay connection.
type MQTTMetrics struct {
	Enabled   bool `json:"enabled"`
	Connected bool `json:"connected"`
}

// StoreMetrics describes the content document store.
type StoreMetrics struct {
	Driver string `json:"driver"`
}

// DatabaseMetrics contains database connection pool statistics.
type DatabaseMetrics struct {
	OpenConnections int   `json:"open_connections"`
	InUse           int   `json:"in_use"`
	Idle            int   `json:"idle"`
	WaitCount       int64 `json:"wait_count"`
}

// AuditMetrics contains audit writer statistics.
type AuditMetrics struct {
	DroppedEntries int64 `json:"dropped_entries"`
}

// handleHealth reports whether the content store is reachable.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) error {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	body := map[string]any{
		"status":  "ok",
		"version": s.version,
		"store":   s.store.Name(),
	}
	if err := s.store.HealthCheck(ctx); err != nil {
		s.logger.Warn("health check failed", "store", s.store.Name(), "error", err)
		body["status"] = "degraded"
		writeJSON(w, http.StatusServiceUnavailable, body)
		return nil
	}

	writeJSON(w, http.StatusOK, body)
	return nil
}

// handleMetrics returns runtime, WebSocket and database statistics.
func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) error {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	metrics := SystemMetrics{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		Runtime: RuntimeMetrics{
			Goroutines:    runtime.NumGoroutine(),
			MemoryAllocMB: float64(memStats.Alloc) / 1024 / 1024,
			MemoryTotalMB: float64(memStats.TotalAlloc) / 1024 / 1024,
			NumGC:         memStats.NumGC,
		},
		WebSocket: WSMetrics{
			ConnectedClients: s.hub.ClientCount(),
			DroppedMessages:  s.hub.Dropped(),
		},
		MQTT: MQTTMetrics{
			Enabled:   s.mqtt != nil,
			Connected: s.mqtt.IsConnected(),
		},
		Store: StoreMetrics{Driver: s.store.Name()},
	}

	if s.audit != nil {
		metrics.Audit.DroppedEntries = s.audit.Dropped()
	}

	if s.db != nil {
		dbStats := s.db.Stats()
		metrics.Database = DatabaseMetrics{
			OpenConnections: dbStats.OpenConnections,
			InUse:           dbStats.InUse,
			Idle:            dbStats.Idle,
			WaitCount:       dbStats.WaitCount,
		}
	}

	writeJSON(w, http.StatusOK, metrics)
	return nil
}

// handleListAuditLogs returns paginated audit log entries with optional filters.
//
// Query parameters:
//   - action: filter by action type (create, update, delete, login, ...)
//   - entity_type: filter by entity type (news, teachers, session, ...)
//   - entity_id: filter by specific entity ID
//   - limit: max results (default 50, max 200)
//   - offset: pagination offset
func (s *Server) handleListAuditLogs(w http.ResponseWriter, r *http.Request) error {
	if s.auditRepo == nil {
		return &Problem{
			Status:  http.StatusServiceUnavailable,
			Code:    CodeUnavailable,
			Message: "Audit logging is not configured",
		}
	}

	q := r.URL.Query()
	filter := audit.Filter{
		Action:     q.Get("action"),
		EntityType: q.Get("entity_type"),
		EntityID:   q.Get("entity_id"),
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Offset = n
		}
	}

	result, err := s.auditRepo.List(r.Context(), filter)
	if err != nil {
		return err
	}

	writeJSON(w, http.StatusOK, result)
	return nil
}
