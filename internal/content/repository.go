package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/huongkhe/schoolsite/internal/docstore"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// Meta is the bookkeeping every record carries.
type Meta struct {
	ID        string
	CreatedAt time.Time
	SortKey   time.Time
}

// Kind describes one resource collection: where it lives, how it is named
// in events and messages, and how its record R and input I convert.
type Kind[R, I any] struct {
	// Collection is the document store collection name.
	Collection string

	// Event is the change-event prefix ("news" → "news:created").
	Event string

	// Label is the singular display name used in messages ("Club not found").
	Label string

	// New builds a record from validated input.
	New func(id string, createdAt time.Time, in I) R

	// Input converts a stored record back to its input form so a partial
	// update can be overlaid on it.
	Input func(R) I

	// Meta extracts id, creation time and sort key.
	Meta func(R) Meta

	// Touch runs on update after New rebuilt the record. Optional.
	Touch func(prev, next *R, now time.Time)
}

// ListOptions controls List.
type ListOptions struct {
	Ascending bool
	Limit     int // 0 means all
	Offset    int
	Search    string
}

// Repository provides CRUD for one Kind over a document store.
//
// Thread Safety:
//   - Safe for concurrent use; all state lives in the store.
type Repository[R, I any] struct {
	kind  Kind[R, I]
	store docstore.Store
	now   func() time.Time
	newID func() string
}

// Option customises a Repository.
type Option func(*options)

type options struct {
	now   func() time.Time
	newID func() string
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithIDGenerator replaces uuid.NewString, for tests.
func WithIDGenerator(newID func() string) Option {
	return func(o *options) { o.newID = newID }
}

// NewRepository creates a Repository for kind backed by store.
func NewRepository[R, I any](kind Kind[R, I], store docstore.Store, opts ...Option) *Repository[R, I] {
	o := options{now: time.Now, newID: uuid.NewString}
	for _, opt := range opts {
		opt(&o)
	}
	return &Repository[R, I]{kind: kind, store: store, now: o.now, newID: o.newID}
}

// Kind returns the descriptor the repository was built with.
func (r *Repository[R, I]) Kind() Kind[R, I] {
	return r.kind
}

// List returns records ordered by sort key, newest first unless
// opts.Ascending is set.
func (r *Repository[R, I]) List(ctx context.Context, opts ListOptions) ([]R, error) {
	docs, err := r.store.Find(ctx, r.kind.Collection, docstore.Query{
		Ascending: opts.Ascending,
		Limit:     opts.Limit,
		Offset:    opts.Offset,
		Search:    opts.Search,
	})
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", r.kind.Collection, err)
	}

	out := make([]R, 0, len(docs))
	for _, doc := range docs {
		rec, err := r.decode(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// Get returns one record or ErrNotFound.
func (r *Repository[R, I]) Get(ctx context.Context, id string) (*R, error) {
	doc, err := r.store.Get(ctx, r.kind.Collection, id)
	if err != nil {
		return nil, r.wrap("getting", id, err)
	}
	rec, err := r.decode(*doc)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Create assigns an id and creation time to in and stores it.
// Store rejections are returned wrapping docstore.ErrRejected.
func (r *Repository[R, I]) Create(ctx context.Context, in I) (*R, error) {
	rec := r.kind.New(r.newID(), r.stamp(), in)

	doc, err := r.encode(rec)
	if err != nil {
		return nil, err
	}
	if err := r.store.Insert(ctx, r.kind.Collection, doc); err != nil {
		return nil, fmt.Errorf("creating %s: %w", r.kind.Collection, err)
	}
	return &rec, nil
}

// Update loads the record, passes its input form to merge, and stores the
// result. merge overlays the caller's changes and validates them; an error
// from merge aborts the update and is returned unchanged.
func (r *Repository[R, I]) Update(ctx context.Context, id string, merge func(*I) error) (*R, error) {
	prev, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	in := r.kind.Input(*prev)
	if err := merge(&in); err != nil {
		return nil, err
	}

	meta := r.kind.Meta(*prev)
	next := r.kind.New(meta.ID, meta.CreatedAt, in)
	if r.kind.Touch != nil {
		r.kind.Touch(prev, &next, r.stamp())
	}

	doc, err := r.encode(next)
	if err != nil {
		return nil, err
	}
	if err := r.store.Replace(ctx, r.kind.Collection, doc); err != nil {
		return nil, r.wrap("updating", id, err)
	}
	return &next, nil
}

// Delete removes a record or returns ErrNotFound.
func (r *Repository[R, I]) Delete(ctx context.Context, id string) error {
	if err := r.store.Delete(ctx, r.kind.Collection, id); err != nil {
		return r.wrap("deleting", id, err)
	}
	return nil
}

// stamp returns the current time at the millisecond precision records carry.
func (r *Repository[R, I]) stamp() time.Time {
	return r.now().UTC().Truncate(time.Millisecond)
}

func (r *Repository[R, I]) encode(rec R) (docstore.Document, error) {
	body, err := json.Marshal(rec)
	if err != nil {
		return docstore.Document{}, fmt.Errorf("encoding %s: %w", r.kind.Collection, err)
	}
	meta := r.kind.Meta(rec)
	return docstore.Document{ID: meta.ID, SortKey: meta.SortKey, Body: body}, nil
}

func (r *Repository[R, I]) decode(doc docstore.Document) (R, error) {
	var rec R
	if err := json.Unmarshal(doc.Body, &rec); err != nil {
		return rec, fmt.Errorf("decoding %s %s: %w", r.kind.Collection, doc.ID, err)
	}
	return rec, nil
}

func (r *Repository[R, I]) wrap(op, id string, err error) error {
	if errors.Is(err, docstore.ErrNotFound) {
		return fmt.Errorf("%s %s %s: %w", op, r.kind.Collection, id, ErrNotFound)
	}
	return fmt.Errorf("%s %s %s: %w", op, r.kind.Collection, id, err)
}
