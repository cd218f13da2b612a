package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"runtime"
	"sync"

	"github.com/oatmealdealer/download-papertrail/internal/client"
	"github.com/oatmealdealer/download-papertrail/internal/progress"
	"github.com/oatmealdealer/download-papertrail/internal/sink"
	"github.com/oatmealdealer/download-papertrail/pkg/archive"
)

// Fetcher fetches the body stream of one archive.
type Fetcher interface {
	Fetch(ctx context.Context, id archive.Identifier) (io.ReadCloser, error)
}

// Options configures the downloader.
type Options struct {
	// Workers is the number of parallel download workers.
	// Default: DefaultWorkers().
	Workers int

	// Decode decompresses archive bodies before writing.
	Decode bool

	// Fetcher retrieves archive bodies. Required. The fetcher owns
	// throttling and retries; the scheduler never issues a request
	// directly.
	Fetcher Fetcher

	// Sink writes archive bodies to their destination. Required.
	Sink *sink.Sink

	// Progress is an optional progress reporter.
	Progress *progress.Reporter
}

// DefaultWorkers returns the default worker count: the host's logical core
// count, or 4 if it cannot be determined.
func DefaultWorkers() int {
	if n := runtime.NumCPU(); n > 0 {
		return n
	}
	return 4
}

// Download fetches every archive in ids and returns one terminal outcome
// per identifier, in input order. Duplicate identifiers are downloaded
// twice. Per-item failures are recorded and never abort sibling tasks; an
// auth failure stops dispatch of not-yet-started tasks while in-flight
// ones run to completion.
func Download(ctx context.Context, ids []archive.Identifier, opts Options) (*Batch, error) {
	if opts.Fetcher == nil {
		return nil, errors.New("download: fetcher is required")
	}
	if opts.Sink == nil {
		return nil, errors.New("download: sink is required")
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers()
	}

	tasks := make([]Task, len(ids))
	for i, id := range ids {
		tasks[i] = Task{ID: id, Dest: id.FileName(opts.Decode)}
	}

	type indexed struct {
		index   int
		outcome Outcome
	}

	type job struct {
		index int
		task  Task
	}

	jobs := make(chan job)
	results := make(chan indexed)

	// Closed exactly once, by the first worker to see an auth failure.
	// Dispatch stops; running tasks are left to finish.
	stopDispatch := make(chan struct{})
	var stopOnce sync.Once

	var wg sync.WaitGroup
	for i := 0; i < opts.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				out := runTask(ctx, j.task, opts)
				if out.Kind == KindAuth {
					stopOnce.Do(func() { close(stopDispatch) })
				}
				results <- indexed{index: j.index, outcome: out}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i, t := range tasks {
			skipped := func(err error) {
				results <- indexed{index: i, outcome: Outcome{
					ID:   t.ID,
					Dest: t.Dest,
					Kind: KindSkipped,
					Err:  err,
				}}
			}

			select {
			case <-stopDispatch:
				skipped(errors.New("credential rejected by an earlier task"))
				continue
			case <-ctx.Done():
				skipped(ctx.Err())
				continue
			default:
			}

			select {
			case jobs <- job{index: i, task: t}:
			case <-stopDispatch:
				skipped(errors.New("credential rejected by an earlier task"))
			case <-ctx.Done():
				skipped(ctx.Err())
			}
		}
	}()

	// Every task produces exactly one result: either a worker outcome or
	// a skipped outcome from the dispatcher.
	outcomes := make([]Outcome, len(tasks))
	for n := 0; n < len(tasks); n++ {
		r := <-results
		outcomes[r.index] = r.outcome
	}
	wg.Wait()

	return &Batch{Outcomes: outcomes}, nil
}

// runTask executes one task through fetch, optional decode, and sink.
func runTask(ctx context.Context, t Task, opts Options) Outcome {
	if opts.Progress != nil {
		opts.Progress.FileStarted()
	}

	out := Outcome{ID: t.ID, Dest: t.Dest}
	fail := func(kind ErrorKind, err error) Outcome {
		if opts.Progress != nil {
			opts.Progress.FileFailed()
		}
		out.Kind = kind
		out.Err = err
		return out
	}

	body, err := opts.Fetcher.Fetch(ctx, t.ID)
	if err != nil {
		return fail(classifyFetch(err), err)
	}
	defer body.Close()

	var stream io.Reader = body
	if opts.Decode {
		dr, err := newDecodeReader(body)
		if err != nil {
			if errors.Is(err, ErrDecode) {
				return fail(KindDecode, err)
			}
			return fail(classifyFetch(err), fmt.Errorf("read gzip header: %w", err))
		}
		defer dr.Close()
		stream = dr
	}

	n, err := opts.Sink.Write(ctx, t.Dest, stream)
	if err != nil {
		if errors.Is(err, ErrDecode) {
			return fail(KindDecode, err)
		}
		return fail(KindIO, err)
	}

	out.Bytes = n
	if opts.Progress != nil {
		opts.Progress.FileCompleted(n)
	}
	return out
}

// classifyFetch maps a fetch error to its outcome kind.
func classifyFetch(err error) ErrorKind {
	var netErr net.Error

	switch {
	case client.IsAuthError(err):
		return KindAuth
	case errors.Is(err, client.ErrNotFound):
		return KindNotFound
	case errors.Is(err, client.ErrServerError), errors.As(err, &netErr):
		return KindTransient
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindTransient
	default:
		return KindFatal
	}
}
