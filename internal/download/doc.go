// Package download orchestrates parallel, rate-limited archive downloads.
//
// This package is the scheduler: it turns a list of archive identifiers
// into immutable tasks, drives a fixed-size worker pool over them, and
// aggregates one terminal outcome per task. Workers pull tasks FIFO from a
// shared channel; completion order is not guaranteed to match input order.
//
// # Partial failure
//
// A failed task never aborts its siblings. Every per-item error (archive
// not found, transient failure after retries, corrupt gzip data, write
// failure) is captured as that task's outcome and the batch continues.
// The one exception is a rejected credential: the same token is used for
// every request, so an auth failure stops dispatch of not-yet-started
// tasks (recorded as skipped outcomes) while in-flight tasks run to
// completion and report their own results.
//
// # Usage
//
//	batch, err := download.Download(ctx, ids, download.Options{
//	    Workers: 8,
//	    Decode:  true,
//	    Fetcher: client,
//	    Sink:    sink.New(bucket),
//	})
package download
