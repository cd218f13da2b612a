package download

import (
	"fmt"

	"github.com/oatmealdealer/download-papertrail/pkg/archive"
)

// ErrorKind classifies a failed outcome.
type ErrorKind string

const (
	// KindNone marks a successful outcome.
	KindNone ErrorKind = ""
	// KindAuth means the credential was rejected. Fatal for the batch.
	KindAuth ErrorKind = "auth"
	// KindNotFound means no archive exists for the requested hour.
	KindNotFound ErrorKind = "not_found"
	// KindTransient means a network or server failure persisted through
	// all retry attempts.
	KindTransient ErrorKind = "transient"
	// KindDecode means the response body was not valid gzip data.
	KindDecode ErrorKind = "decode"
	// KindIO means the destination write failed.
	KindIO ErrorKind = "io"
	// KindFatal covers anything else, e.g. a malformed response.
	KindFatal ErrorKind = "fatal"
	// KindSkipped means the task was never dispatched because the batch
	// was short-circuited by an auth failure or cancellation.
	KindSkipped ErrorKind = "skipped"
)

// Task is one unit of work: download the archive named by ID and store it
// under Dest. Tasks are created once at batch start, never mutated, and
// consumed by exactly one worker.
type Task struct {
	ID   archive.Identifier
	Dest string
}

// Outcome is the terminal result of one task.
type Outcome struct {
	ID    archive.Identifier
	Dest  string
	Bytes int64
	Kind  ErrorKind
	Err   error
}

// Failed reports whether the task reached a failed terminal state.
func (o Outcome) Failed() bool {
	return o.Kind != KindNone
}

func (o Outcome) String() string {
	if o.Failed() {
		return fmt.Sprintf("%s: %s: %v", o.ID, o.Kind, o.Err)
	}
	return fmt.Sprintf("%s: %d bytes", o.ID, o.Bytes)
}

// Batch aggregates the outcome of every task in one invocation, in input
// order.
type Batch struct {
	Outcomes []Outcome
}

// Succeeded returns the number of successful tasks.
func (b *Batch) Succeeded() int {
	n := 0
	for _, o := range b.Outcomes {
		if !o.Failed() {
			n++
		}
	}
	return n
}

// Failed returns the number of failed tasks, skipped ones included.
func (b *Batch) Failed() int {
	return len(b.Outcomes) - b.Succeeded()
}

// AuthFailed reports whether any task failed because the credential was
// rejected.
func (b *Batch) AuthFailed() bool {
	for _, o := range b.Outcomes {
		if o.Kind == KindAuth {
			return true
		}
	}
	return false
}

// OK reports whether every task succeeded.
func (b *Batch) OK() bool {
	return b.Failed() == 0
}
