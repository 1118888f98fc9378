// Package spa serves the compiled website frontend from a directory.
//
// Requests for files that exist are served as-is. Extensionless paths
// that match no file get index.html so client-side routes such as
// /tin-tuc/123 load the app. A missing asset (a path with an extension)
// is a plain 404.
//
// Vite places content-hashed bundles under /assets/; those are cached for
// a year. Everything else, index.html included, is revalidated on each
// request.
package spa
