// Package progress reports download progress for a batch of archives.
//
// The reporter tracks per-file state with atomic counters and prints a
// periodic status line plus a final summary. All output goes to a
// configurable writer (stderr by default) so it never mixes with data on
// stdout.
package progress
