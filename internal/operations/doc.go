// Package operations contains the remote operation implementations.
// These packages handle the low-level AWS SDK interactions behind the
// engine facade: upload, download, copy, delete, list, and presign.
//
// Each operation is isolated into its own subpackage for better organization
// and testability. Operations receive already-normalized keys and report
// failures through the module's error taxonomy.
package operations
