package directory

import (
	"context"
	"log/slog"
	"time"

	"github.com/Aman-CERP/addressbook/internal/contact"
)

// InconsistencyType categorizes detected issues.
type InconsistencyType int

const (
	// InconsistencyOrphanPosting indicates an index entry for a contact that no
	// longer exists, or whose name no longer contains the token.
	InconsistencyOrphanPosting InconsistencyType = iota
	// InconsistencyMissingPosting indicates a token of a stored contact's name
	// that does not map to the contact.
	InconsistencyMissingPosting
)

// String returns a stable name for the inconsistency type.
func (t InconsistencyType) String() string {
	switch t {
	case InconsistencyOrphanPosting:
		return "orphan_posting"
	case InconsistencyMissingPosting:
		return "missing_posting"
	default:
		return "unknown"
	}
}

// Inconsistency is a single disagreement between the store and the index.
type Inconsistency struct {
	Type      InconsistencyType
	ContactID string
	Token     string
}

// CheckResult contains the outcome of a consistency check.
type CheckResult struct {
	// Checked is the number of contacts verified.
	Checked int
	// Inconsistencies contains all detected issues.
	Inconsistencies []Inconsistency
	// Duration is how long the check took.
	Duration time.Duration
}

// Consistent reports whether the check found no issues.
func (r *CheckResult) Consistent() bool {
	return len(r.Inconsistencies) == 0
}

// Check compares the name index with the postings derived from the store.
// At a quiescent point the result is exact; with mutations in flight it may
// report transient issues that Repair will find already resolved.
func (e *Engine) Check(ctx context.Context) (*CheckResult, error) {
	start := time.Now()

	snapshot := e.records.All()
	indexed := e.names.Tokens()

	expected := make(map[string]map[string]struct{})
	for _, c := range snapshot {
		for _, token := range contact.Tokenize(c.Name) {
			set, ok := expected[token]
			if !ok {
				set = make(map[string]struct{})
				expected[token] = set
			}
			set[c.ID] = struct{}{}
		}
	}

	var issues []Inconsistency
	for token, ids := range indexed {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, id := range ids {
			if _, ok := expected[token][id]; !ok {
				issues = append(issues, Inconsistency{Type: InconsistencyOrphanPosting, ContactID: id, Token: token})
			}
		}
	}

	for token, ids := range expected {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		have := make(map[string]struct{}, len(indexed[token]))
		for _, id := range indexed[token] {
			have[id] = struct{}{}
		}
		for id := range ids {
			if _, ok := have[id]; !ok {
				issues = append(issues, Inconsistency{Type: InconsistencyMissingPosting, ContactID: id, Token: token})
			}
		}
	}

	return &CheckResult{
		Checked:         len(snapshot),
		Inconsistencies: issues,
		Duration:        time.Since(start),
	}, nil
}

// Repair fixes the given issues and returns how many needed a change.
// Each issue is re-verified under its contact's stripe lock first, so issues
// that were only transient are skipped.
func (e *Engine) Repair(ctx context.Context, issues []Inconsistency) (int, error) {
	repaired := 0
	for _, issue := range issues {
		if err := ctx.Err(); err != nil {
			return repaired, err
		}

		e.locks.with(issue.ContactID, func() {
			current, exists := e.records.Get(issue.ContactID)
			want := exists && hasToken(current.Name, issue.Token)
			have := containsID(e.names.Lookup(issue.Token), issue.ContactID)

			switch {
			case have && !want:
				e.names.RemovePosting(issue.Token, issue.ContactID)
				repaired++
			case want && !have:
				e.names.Add(current.ID, current.Name)
				repaired++
			}
		})
	}

	if repaired > 0 {
		e.logger.Warn("name_index_repaired",
			slog.Int("issues", len(issues)),
			slog.Int("repaired", repaired))
	}
	return repaired, nil
}

func hasToken(name, token string) bool {
	for _, t := range contact.Tokenize(name) {
		if t == token {
			return true
		}
	}
	return false
}

func containsID(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
