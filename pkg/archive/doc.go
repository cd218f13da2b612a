// Package archive defines the identifier naming a single hourly Papertrail
// log archive.
//
// Papertrail groups archived logs into hour buckets addressed by a
// "YYYY-MM-DD-HH" string. The same identifier names the remote resource
// and determines the local filename, so the two projections are kept in
// lockstep: a downloaded file's name is always recoverable back to the
// identifier used to request it.
//
// # Usage
//
//	id, err := archive.Parse("2024-01-01-00")
//	id.RemotePath()     // "archives/2024-01-01-00/download"
//	id.FileName(false)  // "2024-01-01-00.tsv.gz"
//	id.FileName(true)   // "2024-01-01-00.tsv"
package archive
