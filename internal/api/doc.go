// Package api implements the HTTP REST API and WebSocket endpoint for the
// school site.
//
// This package provides:
//   - CRUD endpoints for news, teachers, clubs, events and gallery images
//   - Session login, verification, refresh and password change
//   - The WebSocket endpoint that pushes change events
//   - Admin endpoints for metrics and the audit trail
//   - Media upload and the public contact form
//   - Middleware stack (request ID, logging, recovery, CORS, body limit)
//
// # Architecture
//
// Every collection is served by one generic set of handlers over
// content.Repository. A successful write is broadcast through the
// realtime emitter, queued for the audit trail and counted in InfluxDB.
//
// # Errors
//
// Handlers return errors. One wrapper classifies them into a Problem and
// writes the envelope:
//
//	{"success": false, "error": {"code": "NOT_FOUND", "message": "Club not found", "timestamp": "..."}}
//
// Validation details are always included; the error chain is added only
// in development.
//
// # Security
//
// Reads are public. Writes need an editor or admin session token sent as
// "Authorization: Bearer <token>"; metrics, audit and password changes
// are admin only. See auth.RolesWith for the permission table.
package api
