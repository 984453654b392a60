// Package delete implements single and batch object removal. Batch results
// follow the provider contract: entries absent from the error list are
// deleted, including keys that never existed.
package delete
