// Package docstore persists site content as JSON documents grouped into
// collections.
//
// Two backends implement Store:
//   - SQLiteStore keeps documents in the documents table of the system database
//   - MongoStore keeps one MongoDB collection per content collection
//
// Listings are ordered by a per-document sort key and support limit, offset
// and a case-insensitive substring search over string fields.
package docstore
