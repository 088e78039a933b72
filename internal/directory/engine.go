package directory

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/Aman-CERP/addressbook/internal/contact"
	bookerrors "github.com/Aman-CERP/addressbook/internal/errors"
	"github.com/Aman-CERP/addressbook/internal/store"
)

// Options configures an Engine.
type Options struct {
	// LockStripes is the number of per-ID mutation locks (default: 64).
	LockStripes int
	// Logger receives debug events; defaults to slog.Default().
	Logger *slog.Logger
	// NewID generates contact identifiers; defaults to random UUIDv4 strings.
	NewID func() string
}

// Stats summarizes the engine state for status reporting.
type Stats struct {
	Contacts int `json:"contacts"`
	Tokens   int `json:"tokens"`
	Postings int `json:"postings"`
}

// Engine coordinates the record store and the name index.
type Engine struct {
	records *store.RecordStore
	names   *store.NameIndex
	locks   *stripedLock
	newID   func() string
	logger  *slog.Logger
}

// New creates an empty Engine.
func New(opts Options) *Engine {
	e := &Engine{
		records: store.NewRecordStore(),
		names:   store.NewNameIndex(),
		locks:   newStripedLock(opts.LockStripes),
		newID:   opts.NewID,
		logger:  opts.Logger,
	}
	if e.newID == nil {
		e.newID = uuid.NewString
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// Create stores each input under a freshly generated ID and indexes it by name.
// Any ID on the inputs is ignored. The result preserves input order.
func (e *Engine) Create(inputs []contact.Contact) []contact.Contact {
	created := make([]contact.Contact, 0, len(inputs))
	for _, in := range inputs {
		c := in
		c.ID = e.newID()

		e.locks.with(c.ID, func() {
			e.records.Put(c)
			e.names.Add(c.ID, c.Name)
		})
		created = append(created, c)
	}

	e.logger.Debug("contacts_created", slog.Int("count", len(created)))
	return created
}

// Update applies each patch to the contact it addresses. Every patch must carry
// an ID; if any does not, nothing is applied and an ERR_402_MISSING_ID error is
// returned.
//
// The result has one slot per patch, in order: the updated contact, or nil if
// no contact exists for that ID.
func (e *Engine) Update(patches []contact.Patch) ([]*contact.Contact, error) {
	for i, p := range patches {
		if p.ID == "" {
			return nil, bookerrors.MissingIDError(i)
		}
	}

	results := make([]*contact.Contact, len(patches))
	missing := 0
	for i, p := range patches {
		e.locks.with(p.ID, func() {
			existing, ok := e.records.Get(p.ID)
			if !ok {
				missing++
				return
			}

			updated := p.Apply(existing)
			e.names.Remove(existing.ID, existing.Name)
			e.records.Put(updated)
			e.names.Add(updated.ID, updated.Name)
			results[i] = &updated
		})
	}

	e.logger.Debug("contacts_updated",
		slog.Int("requested", len(patches)),
		slog.Int("not_found", missing))
	return results, nil
}

// Delete removes the contacts with the given IDs and returns how many existed.
// Unknown IDs are ignored.
func (e *Engine) Delete(ids []string) int {
	deleted := 0
	for _, id := range ids {
		e.locks.with(id, func() {
			removed, ok := e.records.Remove(id)
			if !ok {
				return
			}
			e.names.Remove(removed.ID, removed.Name)
			deleted++
		})
	}

	e.logger.Debug("contacts_deleted",
		slog.Int("requested", len(ids)),
		slog.Int("deleted", deleted))
	return deleted
}

// Search returns the contacts whose name contains query as a whole token,
// compared case-insensitively. The query itself is never split, so
// "Alice Smith" matches nothing while "alice" and "smith" both match.
func (e *Engine) Search(query string) []contact.Contact {
	ids := e.names.Lookup(query)
	out := make([]contact.Contact, 0, len(ids))
	for _, id := range ids {
		// The index can briefly run ahead of a concurrent delete.
		if c, ok := e.records.Get(id); ok {
			out = append(out, c)
		}
	}
	return out
}

// List returns every contact. Order is unspecified.
func (e *Engine) List() []contact.Contact {
	return e.records.All()
}

// Get returns a single contact by ID.
func (e *Engine) Get(id string) (contact.Contact, bool) {
	return e.records.Get(id)
}

// Stats reports the current contact and index sizes.
func (e *Engine) Stats() Stats {
	idx := e.names.Stats()
	return Stats{
		Contacts: e.records.Len(),
		Tokens:   idx.TokenCount,
		Postings: idx.PostingCount,
	}
}
