package store

import (
	"strings"
	"sync"

	"github.com/Aman-CERP/addressbook/internal/contact"
)

// NameIndex maps lowercase name tokens to the set of contact IDs whose name
// contains that token. It stores identifiers only; callers resolve them back
// through the RecordStore.
//
// The lock is held for the duration of one Add, Remove, or Lookup call and never
// across calls, so a contact's postings flip between states atomically per call.
type NameIndex struct {
	mu       sync.RWMutex
	postings map[string]map[string]struct{}
}

// NewNameIndex creates an empty index.
func NewNameIndex() *NameIndex {
	return &NameIndex{postings: make(map[string]map[string]struct{})}
}

// Add indexes id under every token of name.
func (x *NameIndex) Add(id, name string) {
	tokens := contact.Tokenize(name)
	if len(tokens) == 0 {
		return
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	for _, token := range tokens {
		set, ok := x.postings[token]
		if !ok {
			set = make(map[string]struct{})
			x.postings[token] = set
		}
		set[id] = struct{}{}
	}
}

// Remove retracts id from every token of name, which must be the name the
// contact was indexed under. Tokens left with no IDs are deleted.
func (x *NameIndex) Remove(id, name string) {
	tokens := contact.Tokenize(name)
	if len(tokens) == 0 {
		return
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	for _, token := range tokens {
		x.removeLocked(token, id)
	}
}

// RemovePosting retracts id from a single token.
func (x *NameIndex) RemovePosting(token, id string) {
	x.mu.Lock()
	x.removeLocked(token, id)
	x.mu.Unlock()
}

func (x *NameIndex) removeLocked(token, id string) {
	set, ok := x.postings[token]
	if !ok {
		return
	}
	delete(set, id)
	if len(set) == 0 {
		delete(x.postings, token)
	}
}

// Lookup lowercases query and returns a copy of the ID set for that exact
// token. The query is not split: a multi-word query only matches if some
// indexed token equals it in full, which never happens for whitespace-split
// names.
func (x *NameIndex) Lookup(query string) []string {
	token := strings.ToLower(query)

	x.mu.RLock()
	defer x.mu.RUnlock()

	set := x.postings[token]
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	return ids
}

// Tokens returns a deep copy of the whole index.
func (x *NameIndex) Tokens() map[string][]string {
	x.mu.RLock()
	defer x.mu.RUnlock()

	out := make(map[string][]string, len(x.postings))
	for token, set := range x.postings {
		ids := make([]string, 0, len(set))
		for id := range set {
			ids = append(ids, id)
		}
		out[token] = ids
	}
	return out
}

// Stats returns index statistics.
func (x *NameIndex) Stats() IndexStats {
	x.mu.RLock()
	defer x.mu.RUnlock()

	stats := IndexStats{TokenCount: len(x.postings)}
	for _, set := range x.postings {
		stats.PostingCount += len(set)
	}
	return stats
}
