package store

import (
	"sync"

	"github.com/Aman-CERP/addressbook/internal/contact"
)

// RecordStore is the authoritative id -> contact mapping.
// Records are held by value, so callers always receive copies.
type RecordStore struct {
	mu      sync.RWMutex
	records map[string]contact.Contact
}

// NewRecordStore creates an empty store.
func NewRecordStore() *RecordStore {
	return &RecordStore{records: make(map[string]contact.Contact)}
}

// Put inserts or overwrites the record keyed by c.ID.
func (s *RecordStore) Put(c contact.Contact) {
	s.mu.Lock()
	s.records[c.ID] = c
	s.mu.Unlock()
}

// Get returns the current record for id.
func (s *RecordStore) Get(id string) (contact.Contact, bool) {
	s.mu.RLock()
	c, ok := s.records[id]
	s.mu.RUnlock()
	return c, ok
}

// Remove deletes the record for id and returns the prior value.
func (s *RecordStore) Remove(id string) (contact.Contact, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.records[id]
	if ok {
		delete(s.records, id)
	}
	return c, ok
}

// All returns a snapshot of every record. Order is unspecified.
func (s *RecordStore) All() []contact.Contact {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]contact.Contact, 0, len(s.records))
	for _, c := range s.records {
		out = append(out, c)
	}
	return out
}

// Len returns the number of stored records.
func (s *RecordStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
