package audit

import (
	"context"
	"sync/atomic"

	"github.com/huongkhe/schoolsite/internal/infrastructure/logging"
)

// chanSize is the buffer size for queued entries. Entries beyond this are
// dropped so auditing never applies back-pressure to requests.
const chanSize = 256

// Recorder queues audit entries and writes them serially from one
// goroutine, which suits SQLite's single-writer model.
type Recorder struct {
	repo    Repository
	logger  *logging.Logger
	ch      chan *AuditLog
	dropped atomic.Int64
}

// NewRecorder creates a Recorder writing to repo. Call Run to start it.
func NewRecorder(repo Repository, logger *logging.Logger) *Recorder {
	return &Recorder{
		repo:   repo,
		logger: logger,
		ch:     make(chan *AuditLog, chanSize),
	}
}

// Record enqueues an entry (best-effort). A nil Recorder ignores it.
func (r *Recorder) Record(entry *AuditLog) {
	if r == nil {
		return
	}
	select {
	case r.ch <- entry:
	default:
		r.dropped.Add(1)
		r.logger.Warn("audit log channel full, dropping entry",
			"action", entry.Action,
			"entity_type", entry.EntityType,
		)
	}
}

// Dropped returns how many entries were discarded.
func (r *Recorder) Dropped() int64 {
	return r.dropped.Load()
}

// Run writes queued entries until ctx is cancelled, then drains what is
// left and returns.
func (r *Recorder) Run(ctx context.Context) {
	for {
		select {
		case entry := <-r.ch:
			r.write(entry)
		case <-ctx.Done():
			for {
				select {
				case entry := <-r.ch:
					r.write(entry)
				default:
					return
				}
			}
		}
	}
}

func (r *Recorder) write(entry *AuditLog) {
	// The request that produced the entry may be gone; use a fresh context.
	if err := r.repo.Create(context.Background(), entry); err != nil {
		r.logger.Error("audit log write failed",
			"action", entry.Action,
			"entity_type", entry.EntityType,
			"error", err,
		)
	}
}
