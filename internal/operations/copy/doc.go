// Package copy implements server-side object copies. The same code path
// powers plain copies, the copy half of a move, and metadata rewrites via
// copy-to-self with a replace directive.
package copy
