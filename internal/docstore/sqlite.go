package docstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
)

// SQLiteStore keeps documents in the documents table created by the
// system database migrations.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore creates a store over an open, migrated database.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db, now: time.Now}
}

// Name implements Store.
func (s *SQLiteStore) Name() string { return "sqlite" }

// Find implements Store.
func (s *SQLiteStore) Find(ctx context.Context, collection string, q Query) ([]Document, error) {
	where := "collection = ?"
	args := []any{collection}

	if q.Search != "" {
		// Match string values only, not keys.
		where += ` AND EXISTS (
			SELECT 1 FROM json_tree(documents.body) AS j
			WHERE j.type = 'text' AND j.value LIKE ? ESCAPE '\')`
		args = append(args, "%"+escapeLike(q.Search)+"%")
	}

	order := "DESC"
	if q.Ascending {
		order = "ASC"
	}

	limit := -1
	if q.Limit > 0 {
		limit = q.Limit
	}
	args = append(args, limit, max(q.Offset, 0))

	query := fmt.Sprintf( //nolint:gosec // WHERE and ORDER built from constants
		"SELECT id, sort_key, body FROM documents WHERE %s ORDER BY sort_key %s, rowid %s LIMIT ? OFFSET ?",
		where, order, order,
	)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", collection, err)
	}
	defer rows.Close()

	docs := []Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", collection, err)
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s: %w", collection, err)
	}
	return docs, nil
}

// Get implements Store.
func (s *SQLiteStore) Get(ctx context.Context, collection, id string) (*Document, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, sort_key, body FROM documents WHERE collection = ? AND id = ?",
		collection, id,
	)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting %s/%s: %w", collection, id, err)
	}
	return doc, nil
}

// Insert implements Store.
func (s *SQLiteStore) Insert(ctx context.Context, collection string, doc Document) error {
	if err := validateDocument(doc); err != nil {
		return err
	}
	now := formatSortKey(s.now())
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (collection, id, sort_key, body, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		collection, doc.ID, formatSortKey(doc.SortKey), string(doc.Body), now, now,
	)
	if err != nil {
		return mapSQLiteError(fmt.Sprintf("inserting %s/%s", collection, doc.ID), err)
	}
	return nil
}

// Replace implements Store.
func (s *SQLiteStore) Replace(ctx context.Context, collection string, doc Document) error {
	if err := validateDocument(doc); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE documents SET sort_key = ?, body = ?, updated_at = ?
		 WHERE collection = ? AND id = ?`,
		formatSortKey(doc.SortKey), string(doc.Body), formatSortKey(s.now()),
		collection, doc.ID,
	)
	if err != nil {
		return mapSQLiteError(fmt.Sprintf("replacing %s/%s", collection, doc.ID), err)
	}
	return requireAffected(res)
}

// Delete implements Store.
func (s *SQLiteStore) Delete(ctx context.Context, collection, id string) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM documents WHERE collection = ? AND id = ?",
		collection, id,
	)
	if err != nil {
		return fmt.Errorf("deleting %s/%s: %w", collection, id, err)
	}
	return requireAffected(res)
}

// HealthCheck implements Store.
func (s *SQLiteStore) HealthCheck(ctx context.Context) error {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents WHERE 0").Scan(&n); err != nil {
		return fmt.Errorf("document table check failed: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*Document, error) {
	var (
		doc     Document
		sortKey string
		body    string
	)
	if err := row.Scan(&doc.ID, &sortKey, &body); err != nil {
		return nil, err
	}
	t, err := time.Parse(time.RFC3339Nano, sortKey)
	if err != nil {
		return nil, fmt.Errorf("parsing sort key %q: %w", sortKey, err)
	}
	doc.SortKey = t
	doc.Body = []byte(body)
	return &doc, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func mapSQLiteError(op string, err error) error {
	var se sqlite3.Error
	if errors.As(err, &se) && se.Code == sqlite3.ErrConstraint {
		switch se.ExtendedCode {
		case sqlite3.ErrConstraintPrimaryKey, sqlite3.ErrConstraintUnique:
			return rejected("a document with this id already exists", err)
		default:
			return rejected(se.Error(), err)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
