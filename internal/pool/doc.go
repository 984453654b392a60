// Package pool provides reusable byte buffers to reduce allocations on the
// transfer paths. Part uploads and download copies churn through buffers at
// a high rate, so they draw from size-tiered pools instead of allocating.
package pool
