// Package sink writes downloaded archive streams to their destination.
//
// Destinations are gocloud.dev/blob buckets, so the same code serves a
// local output directory (fileblob), an in-memory bucket in tests
// (memblob), or any other registered bucket scheme. Blob writers commit
// only on a successful Close; a failed write is aborted so the
// destination key is never left holding truncated data under its final
// name.
package sink

import (
	"context"
	"fmt"
	"io"

	"gocloud.dev/blob"
)

// Sink writes byte streams into a bucket, one object per archive.
type Sink struct {
	bucket *blob.Bucket
}

// New returns a sink writing into bucket. The caller retains ownership of
// the bucket and is responsible for closing it.
func New(bucket *blob.Bucket) *Sink {
	return &Sink{bucket: bucket}
}

// Write streams r into the object named key and returns the number of
// bytes written. On any failure, read-side or write-side, the pending
// write is aborted by canceling its context before Close, so the
// destination is either absent or fully written.
func (s *Sink) Write(ctx context.Context, key string, r io.Reader) (int64, error) {
	wctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w, err := s.bucket.NewWriter(wctx, key, nil)
	if err != nil {
		return 0, fmt.Errorf("sink: open %s: %w", key, err)
	}

	n, err := io.Copy(w, r)
	if err != nil {
		cancel()
		w.Close()
		return n, fmt.Errorf("sink: write %s: %w", key, err)
	}

	if err := w.Close(); err != nil {
		return n, fmt.Errorf("sink: commit %s: %w", key, err)
	}

	return n, nil
}
