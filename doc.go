// Package transit is a client-side transfer engine for S3-compatible
// object storage. It wraps AWS SDK v2 with a bucket-scoped API that
// handles the operational details of moving files: multipart splitting
// for large uploads, bounded parallelism, classified errors, retries
// with exponential backoff, progress reporting, and a TTL cache for
// object metadata.
//
// An Engine is bound to one bucket at construction and is safe for
// concurrent use. Object keys are normalized before every operation, so
// Windows-style separators and redundant slashes do not produce
// duplicate remote objects.
//
// Key features:
//   - Zero-configuration usage with the AWS credential chain
//   - Per-engine and per-call tuning through functional options
//   - Automatic multipart upload at the configured size threshold
//   - Server-side copy, move, and in-place metadata updates
//   - Presigned GET and PUT URLs
//   - Works with any S3-compatible endpoint (MinIO, LocalStack)
//
// Example usage:
//
//	engine, err := transit.New(ctx, transit.WithBucket("archive"))
//	if err != nil {
//	    return err
//	}
//	defer engine.Close()
//
//	// Upload a file
//	result, err := engine.UploadFile(ctx, "/local/file.txt", "path/file.txt")
//	if err != nil {
//	    return err
//	}
package transit
