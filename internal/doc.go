// Package internal contains private implementation details for the transit
// module. These packages are not intended for external use and may change
// without notice.
//
// The internal packages are organized as follows:
//   - operations: Remote operation implementations (upload, download, copy,
//     delete, list, presign)
//   - validation: Key normalization and input validation
//   - retry: Backoff-driven retry of retryable failures
//   - progress: Transfer progress tracking and reporting
//   - metacache: TTL cache for object metadata
//   - pool: Buffer pooling for the transfer paths
//   - s3api: Interface seam over the S3 client for testing
//   - testutil: Mocks and helpers shared by the test suites
package internal
