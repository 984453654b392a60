// Package upload implements object placement. Payloads at or above the
// multipart threshold are split into parts and uploaded in parallel;
// smaller payloads and buffered streams go up with a single put.
package upload
