// Package ingest loads profile registrations into storage.
//
// Registrations arrive as JSON Lines exports of the two signup forms, one
// object per line. Decoding and validation fan out over a worker pool;
// storage writes stay on the calling goroutine. Records that fail
// validation, and duplicates of already-registered emails, are counted and
// skipped rather than aborting the load.
package ingest
