package directory

import (
	"log/slog"
	"time"

	"github.com/Aman-CERP/addressbook/internal/contact"
)

// SuggestDuplicates groups contacts whose name, phone, and email are identical
// after case-folding and returns every group with at least two members.
// Group order and member order are unspecified.
//
// This is a single pass over a snapshot of the store: O(n) time and memory per
// call, with no auxiliary grouping index.
func (e *Engine) SuggestDuplicates() [][]contact.Contact {
	start := time.Now()
	snapshot := e.records.All()

	groups := groupDuplicates(snapshot)

	e.logger.Debug("duplicates_scanned",
		slog.Int("contacts", len(snapshot)),
		slog.Int("groups", len(groups)),
		slog.Duration("elapsed", time.Since(start)))
	return groups
}

// groupDuplicates buckets contacts by contact.DuplicateKey and keeps buckets
// of size two or more.
func groupDuplicates(contacts []contact.Contact) [][]contact.Contact {
	buckets := make(map[string][]contact.Contact, len(contacts))
	for _, c := range contacts {
		key := contact.DuplicateKey(c)
		buckets[key] = append(buckets[key], c)
	}

	groups := make([][]contact.Contact, 0)
	for _, members := range buckets {
		if len(members) > 1 {
			groups = append(groups, members)
		}
	}
	return groups
}
