package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Sentinel errors returned by every Store implementation.
var (
	// ErrNotFound is returned when no document has the requested id.
	ErrNotFound = errors.New("document not found")

	// ErrRejected is returned when the store refuses a write (constraint
	// violation, duplicate id, malformed body).
	ErrRejected = errors.New("document rejected by store")
)

// RejectedError carries the store's reason for refusing a write.
// errors.Is(err, ErrRejected) reports true for it.
type RejectedError struct {
	Reason string
	Err    error
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("%s: %s", ErrRejected.Error(), e.Reason)
}

func (e *RejectedError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrRejected}
	}
	return []error{ErrRejected, e.Err}
}

func rejected(reason string, err error) error {
	return &RejectedError{Reason: reason, Err: err}
}

// Document is one JSON record in a collection. SortKey orders listings.
type Document struct {
	ID      string
	SortKey time.Time
	Body    json.RawMessage
}

// Query controls Find. The zero value returns the whole collection,
// newest sort key first.
type Query struct {
	Ascending bool
	Limit     int // 0 means no limit
	Offset    int
	Search    string // case-insensitive substring over string fields
}

// Store is a collection-oriented JSON document store.
type Store interface {
	// Find returns documents of a collection ordered by sort key.
	Find(ctx context.Context, collection string, q Query) ([]Document, error)

	// Get returns one document or ErrNotFound.
	Get(ctx context.Context, collection, id string) (*Document, error)

	// Insert stores a new document. A duplicate id is rejected.
	Insert(ctx context.Context, collection string, doc Document) error

	// Replace overwrites an existing document or returns ErrNotFound.
	Replace(ctx context.Context, collection string, doc Document) error

	// Delete removes a document or returns ErrNotFound.
	Delete(ctx context.Context, collection, id string) error

	// HealthCheck verifies the backend is reachable.
	HealthCheck(ctx context.Context) error

	// Name identifies the backend ("sqlite", "mongo").
	Name() string
}

// Indexer is implemented by stores that need listing indexes created
// up front. The SQLite store indexes through its migration instead.
type Indexer interface {
	EnsureIndexes(ctx context.Context, collections ...string) error
}

// formatSortKey renders t as fixed-width UTC text so lexical order equals time order.
func formatSortKey(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000000Z")
}

// searchText flattens every string value in a JSON body into one
// newline-separated string. Keys are not included.
func searchText(body json.RawMessage) (string, error) {
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return "", err
	}
	var b strings.Builder
	var walk func(any)
	walk = func(v any) {
		switch x := v.(type) {
		case string:
			b.WriteString(x)
			b.WriteByte('\n')
		case []any:
			for _, e := range x {
				walk(e)
			}
		case map[string]any:
			for _, e := range x {
				walk(e)
			}
		}
	}
	walk(v)
	return b.String(), nil
}

func validateDocument(doc Document) error {
	if doc.ID == "" {
		return rejected("document id is required", nil)
	}
	if !json.Valid(doc.Body) {
		return rejected("document body is not valid JSON", nil)
	}
	return nil
}

var (
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*MongoStore)(nil)
)
