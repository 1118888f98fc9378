// Package content implements the school site's resource collections:
// news, teachers, clubs, events and gallery items.
//
// Each collection is a Kind descriptor applied to one generic Repository,
// which stores records as JSON documents in a docstore.Store. Records are
// identified by server-assigned UUIDs and listed by their sort key
// (creation time, or the event date for events), newest first.
package content
