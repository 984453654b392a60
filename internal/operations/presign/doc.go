// Package presign issues time-limited URLs that grant access to single
// objects without sharing credentials. Signing is local, so no retry or
// remote round-trip is involved.
package presign
