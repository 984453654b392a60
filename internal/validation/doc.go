// Package validation provides centralized input validation and key
// normalization logic.
//
// All object keys and bucket names are cleaned and validated here before
// any request reaches the remote endpoint.
package validation
