// Package storage holds the in-memory settings Store. Files are ingested one
// per key, resolved for a fixed environment and exposed through Get, Set and
// Push.
package storage
