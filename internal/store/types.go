// Package store provides the in-memory record store and the derived name index.
// Both are safe for concurrent use; neither hands out references to its internal
// maps or sets.
package store

// IndexStats provides statistics about the name index.
type IndexStats struct {
	TokenCount   int // Distinct tokens
	PostingCount int // Sum of set sizes across all tokens
}
