// Package directory is the composition root of the contact directory.
//
// An Engine owns a RecordStore and the NameIndex derived from it, and exposes
// the create, update, delete, search, list, and duplicate-suggestion
// operations. All operations are synchronous and bounded; any number of
// goroutines may call them concurrently.
//
// # Concurrency
//
// Mutations of a single contact are serialized through a striped lock keyed by
// contact ID. The stripe is held across the whole unindex, mutate, reindex
// sequence, so two writers can never interleave their index updates for the
// same contact. A goroutine holds at most one stripe at a time.
//
// Reads (List, Search, SuggestDuplicates) take no stripe. They observe a weakly
// consistent view and always receive copies.
//
// Batches are not atomic: each element is applied independently and a
// concurrent reader may observe a batch partially applied.
package directory
