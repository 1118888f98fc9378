package api

import (
	"net/http"

	"github.com/huongkhe/schoolsite/internal/audit"
	"github.com/huongkhe/schoolsite/internal/realtime"
)

// handlerFunc is an HTTP handler that reports failure by returning an error.
type handlerFunc func(w http.ResponseWriter, r *http.Request) error

// handle adapts h to http.HandlerFunc, converting a returned error into
// the error envelope.
func (s *Server) handle(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h(w, r); err != nil {
			s.fail(w, r, err)
		}
	}
}

// fail logs err and writes its envelope.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	p := toProblem(err)
	info := requestInfoFrom(r.Context())
	attrs := []any{
		"status", p.Status,
		"code", p.Code,
		"method", r.Method,
		"path", r.URL.Path,
		"request_id", info.id,
	}
	if info.username != "" {
		attrs = append(attrs, "user", info.username)
	}
	if p.Err != nil {
		attrs = append(attrs, "error", p.Err.Error(), "chain", errorChain(p.Err))
	}
	if p.Status >= http.StatusInternalServerError {
		s.logger.Error("request failed", attrs...)
	} else {
		s.logger.Warn("request failed", attrs...)
	}
	writeProblem(w, p, s.dev)
}

// handleNotFound answers unmatched routes and methods.
func (s *Server) handleNotFound(_ http.ResponseWriter, r *http.Request) error {
	return notFound("Cannot " + r.Method + " " + r.URL.RequestURI())
}

// changed broadcasts a content change and records it in the audit trail
// and metrics.
func (s *Server) changed(r *http.Request, resource, collection string, action realtime.Action, id string, payload any) {
	s.emitter.Emit(realtime.Event{Resource: resource, Action: action, Payload: payload})
	s.metrics.WriteContentChange(collection, string(action))

	var auditAction string
	switch action {
	case realtime.ActionCreated:
		auditAction = audit.ActionCreate
	case realtime.ActionUpdated:
		auditAction = audit.ActionUpdate
	case realtime.ActionDeleted:
		auditAction = audit.ActionDelete
	}
	s.record(r, &audit.AuditLog{Action: auditAction, EntityType: collection, EntityID: id})
}

// record queues an audit entry. UserID defaults to the request's session.
func (s *Server) record(r *http.Request, entry *audit.AuditLog) {
	entry.Source = audit.SourceAPI
	if entry.UserID == "" {
		if session := sessionFrom(r.Context()); session != nil {
			entry.UserID = session.SubjectID
		}
	}
	s.audit.Record(entry)
}
