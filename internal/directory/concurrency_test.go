package directory

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/addressbook/internal/contact"
)

func TestEngine_ConcurrentMutationsOnDisjointIDs(t *testing.T) {
	// Given: an engine shared by many writers and readers
	e := newTestEngine(t)
	const workers = 32
	const perWorker = 40

	var surviving atomic.Int64
	g := new(errgroup.Group)

	// When: each worker creates, renames, and deletes its own contacts while
	// readers search and scan concurrently
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for i := 0; i < perWorker; i++ {
				created := e.Create([]contact.Contact{{
					Name:  fmt.Sprintf("Shared w%d i%d", w, i),
					Phone: "555",
				}})
				id := created[0].ID

				results, err := e.Update([]contact.Patch{{
					ID:   id,
					Name: contact.String(fmt.Sprintf("Renamed w%d", w)),
				}})
				if err != nil {
					return err
				}
				if results[0] == nil {
					return fmt.Errorf("contact %s vanished before update", id)
				}

				if i%3 == 0 {
					if n := e.Delete([]string{id}); n != 1 {
						return fmt.Errorf("delete of %s counted %d", id, n)
					}
				} else {
					surviving.Add(1)
				}
			}
			return nil
		})
	}
	for r := 0; r < 4; r++ {
		g.Go(func() error {
			for i := 0; i < perWorker; i++ {
				_ = e.Search("shared")
				_ = e.Search("renamed")
				_ = e.List()
				_ = e.SuggestDuplicates()
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	// Then: store and index agree exactly
	result, err := e.Check(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Consistent(), "issues: %v", result.Inconsistencies)
	assert.Equal(t, int(surviving.Load()), len(e.List()))
	assert.Empty(t, e.Search("shared"), "every original name was replaced")
	assert.Len(t, e.Search("renamed"), int(surviving.Load()))
}

func TestEngine_ConcurrentUpdatesOnSameID(t *testing.T) {
	// Given: one contact hammered by concurrent renames
	e := newTestEngine(t)
	created := e.Create([]contact.Contact{{Name: "Start"}})
	id := created[0].ID

	g := new(errgroup.Group)
	for w := 0; w < 16; w++ {
		g.Go(func() error {
			for i := 0; i < 50; i++ {
				_, err := e.Update([]contact.Patch{{ID: id, Name: contact.String(fmt.Sprintf("Name%d Common", w))}})
				if err != nil {
					return err
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	// Then: exactly the final name's tokens point at the contact
	result, err := e.Check(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Consistent(), "issues: %v", result.Inconsistencies)
	assert.Equal(t, Stats{Contacts: 1, Tokens: 2, Postings: 2}, e.Stats())
	assert.Len(t, e.Search("common"), 1)
}

func TestEngine_ConcurrentDeleteOfSameID(t *testing.T) {
	e := newTestEngine(t)
	created := e.Create([]contact.Contact{{Name: "Only Once"}})

	var total atomic.Int64
	g := new(errgroup.Group)
	for w := 0; w < 16; w++ {
		g.Go(func() error {
			total.Add(int64(e.Delete([]string{created[0].ID})))
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int64(1), total.Load())
	assert.Equal(t, Stats{}, e.Stats())
}
