// Package media accepts image uploads and stores them in object storage.
//
// Uploads are sniffed for their real content type; only JPEG, PNG, GIF
// and WebP images are accepted. Objects are keyed by upload month and a
// random UUID so names chosen by clients never reach the bucket.
package media
