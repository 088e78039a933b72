package mcp

import (
	"github.com/Aman-CERP/addressbook/internal/contact"
	"github.com/Aman-CERP/addressbook/internal/telemetry"
)

// Tool names.
const (
	ToolCreateContacts    = "create_contacts"
	ToolUpdateContacts    = "update_contacts"
	ToolDeleteContacts    = "delete_contacts"
	ToolSearchContacts    = "search_contacts"
	ToolListContacts      = "list_contacts"
	ToolSuggestDuplicates = "suggest_duplicates"
	ToolDirectoryStatus   = "directory_status"
)

// ContactInput is a contact to create.
type ContactInput struct {
	Name  string `json:"name,omitempty" jsonschema:"full name; each whitespace-separated word becomes searchable"`
	Phone string `json:"phone,omitempty" jsonschema:"phone number"`
	Email string `json:"email,omitempty" jsonschema:"email address"`
}

// CreateContactsInput defines the input schema for the create_contacts tool.
type CreateContactsInput struct {
	Contacts []ContactInput `json:"contacts" jsonschema:"contacts to create; ids are assigned by the directory"`
}

// PatchInput is a partial update. Omitted or empty fields keep their value.
type PatchInput struct {
	ID    string  `json:"id" jsonschema:"id of the contact to update"`
	Name  *string `json:"name,omitempty" jsonschema:"new name"`
	Phone *string `json:"phone,omitempty" jsonschema:"new phone number"`
	Email *string `json:"email,omitempty" jsonschema:"new email address"`
}

// UpdateContactsInput defines the input schema for the update_contacts tool.
type UpdateContactsInput struct {
	Contacts []PatchInput `json:"contacts" jsonschema:"partial updates, each addressed by id"`
}

// DeleteContactsInput defines the input schema for the delete_contacts tool.
type DeleteContactsInput struct {
	IDs []string `json:"ids" jsonschema:"ids of the contacts to delete; unknown ids are ignored"`
}

// SearchContactsInput defines the input schema for the search_contacts tool.
type SearchContactsInput struct {
	Query string `json:"query" jsonschema:"a single name word, matched case-insensitively; multi-word queries match nothing"`
}

// ListContactsInput defines the input schema for the list_contacts tool (no parameters).
type ListContactsInput struct{}

// SuggestDuplicatesInput defines the input schema for the suggest_duplicates tool (no parameters).
type SuggestDuplicatesInput struct{}

// DirectoryStatusInput defines the input schema for the directory_status tool (no parameters).
type DirectoryStatusInput struct{}

// ContactsOutput wraps a list of contacts.
type ContactsOutput struct {
	Contacts []contact.Contact `json:"contacts"`
}

// UpdateContactsOutput holds one slot per patch; null means no such contact.
type UpdateContactsOutput struct {
	Contacts []*contact.Contact `json:"contacts"`
}

// DeleteContactsOutput reports how many contacts were removed.
type DeleteContactsOutput struct {
	Deleted int `json:"deleted"`
}

// DuplicatesOutput holds groups of contacts that look identical.
type DuplicatesOutput struct {
	Groups [][]contact.Contact `json:"groups"`
}

// DirectoryStatusOutput summarizes the directory.
type DirectoryStatusOutput struct {
	Version    string `json:"version"`
	Contacts   int    `json:"contacts"`
	Tokens     int    `json:"tokens"`
	Postings   int    `json:"postings"`
	Consistent bool   `json:"consistent"`
	Issues     int    `json:"issues"`

	Search *telemetry.Snapshot `json:"search,omitempty"`
}

func (p PatchInput) toPatch() contact.Patch {
	return contact.Patch{ID: p.ID, Name: p.Name, Phone: p.Phone, Email: p.Email}
}
