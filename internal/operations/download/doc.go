// Package download implements object retrieval: streaming reads, writes
// into an io.Writer, and byte-range requests, with progress reporting on
// the copy path.
package download
