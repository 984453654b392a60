// Package list implements paged object listing under a prefix.
package list
