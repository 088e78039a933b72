// Package contact defines the contact record, its partial-update shape, and the
// name tokenization shared by the store and the directory engine.
package contact

import "strings"

// Contact is a single directory entry.
// ID is assigned once at creation and never changes afterwards.
type Contact struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

// Patch is a partial update addressed to an existing contact.
// A nil field is absent. An empty string is treated the same as absent, so a
// field can never be cleared through an update.
type Patch struct {
	ID    string  `json:"id"`
	Name  *string `json:"name,omitempty"`
	Phone *string `json:"phone,omitempty"`
	Email *string `json:"email,omitempty"`
}

// Apply returns c with every present, non-empty field of p overwritten.
// The ID is never touched.
func (p Patch) Apply(c Contact) Contact {
	if set(p.Name) {
		c.Name = *p.Name
	}
	if set(p.Phone) {
		c.Phone = *p.Phone
	}
	if set(p.Email) {
		c.Email = *p.Email
	}
	return c
}

// TouchesName reports whether applying p would change the indexed name.
func (p Patch) TouchesName() bool {
	return set(p.Name)
}

func set(v *string) bool {
	return v != nil && *v != ""
}

// String returns a pointer to s, for building patches.
func String(s string) *string {
	return &s
}

// Tokenize splits name on runs of whitespace and lowercases each token.
// Leading, trailing, and repeated whitespace never produce empty tokens.
func Tokenize(name string) []string {
	fields := strings.Fields(name)
	for i, f := range fields {
		fields[i] = strings.ToLower(f)
	}
	return fields
}

// DuplicateKey is the case-folded identity used to group exact duplicates:
// lowercase(name) + "|" + lowercase(phone) + "|" + lowercase(email).
func DuplicateKey(c Contact) string {
	return strings.ToLower(c.Name) + "|" + strings.ToLower(c.Phone) + "|" + strings.ToLower(c.Email)
}
