package daemon

import (
	"encoding/json"
	"fmt"

	"github.com/Aman-CERP/addressbook/internal/contact"
	"github.com/Aman-CERP/addressbook/internal/telemetry"
)

// JSON-RPC 2.0 method names.
const (
	MethodPing       = "ping"
	MethodStatus     = "status"
	MethodCreate     = "create"
	MethodUpdate     = "update"
	MethodDelete     = "delete"
	MethodSearch     = "search"
	MethodGet        = "get"
	MethodList       = "list"
	MethodDuplicates = "duplicates"
	MethodCheck      = "check"
)

// Standard JSON-RPC 2.0 error codes.
const (
	ErrCodeParseError     = -32700
	ErrCodeInvalidRequest = -32600
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternalError  = -32603
)

// ErrCodeInvalidContact reports a malformed contact in a create or update batch.
const ErrCodeInvalidContact = -32001

// Request represents a JSON-RPC 2.0 request.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      string          `json:"id"`
}

// Response represents a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
	ID      string          `json:"id"`
}

// Error represents a JSON-RPC 2.0 error. Data carries the structured error
// produced by errors.FormatJSON when one is available.
type Error struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// NewSuccessResponse creates a successful response.
func NewSuccessResponse(id string, result any) Response {
	data, err := json.Marshal(result)
	if err != nil {
		return NewErrorResponse(id, ErrCodeInternalError, fmt.Sprintf("failed to encode result: %v", err), nil)
	}
	return Response{
		JSONRPC: "2.0",
		Result:  data,
		ID:      id,
	}
}

// NewErrorResponse creates an error response.
func NewErrorResponse(id string, code int, message string, data []byte) Response {
	return Response{
		JSONRPC: "2.0",
		Error: &Error{
			Code:    code,
			Message: message,
			Data:    data,
		},
		ID: id,
	}
}

// ContactInput is a contact to create. Any id supplied by the caller is ignored.
type ContactInput struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

// CreateParams are the parameters for the create method.
type CreateParams struct {
	Contacts []*ContactInput `json:"contacts"`
}

// Validate rejects null entries.
func (p *CreateParams) Validate() error {
	for i, c := range p.Contacts {
		if c == nil {
			return fmt.Errorf("contact at position %d is null", i)
		}
	}
	return nil
}

// Inputs converts the params to engine inputs.
func (p *CreateParams) Inputs() []contact.Contact {
	out := make([]contact.Contact, len(p.Contacts))
	for i, c := range p.Contacts {
		out[i] = contact.Contact{Name: c.Name, Phone: c.Phone, Email: c.Email}
	}
	return out
}

// UpdateParams are the parameters for the update method.
type UpdateParams struct {
	Contacts []*contact.Patch `json:"contacts"`
}

// Validate rejects null entries. Missing ids are reported by the engine.
func (p *UpdateParams) Validate() error {
	for i, c := range p.Contacts {
		if c == nil {
			return fmt.Errorf("patch at position %d is null", i)
		}
	}
	return nil
}

// Patches converts the params to engine patches.
func (p *UpdateParams) Patches() []contact.Patch {
	out := make([]contact.Patch, len(p.Contacts))
	for i, c := range p.Contacts {
		out[i] = *c
	}
	return out
}

// DeleteParams are the parameters for the delete method.
type DeleteParams struct {
	IDs []string `json:"ids"`
}

// DeleteResult reports how many of the requested contacts existed.
type DeleteResult struct {
	Deleted int `json:"deleted"`
}

// SearchParams are the parameters for the search method.
type SearchParams struct {
	// Query is matched as a single whole name token, case-insensitively.
	Query string `json:"query"`
}

// GetParams are the parameters for the get method.
type GetParams struct {
	ID string `json:"id"`
}

// Validate checks that required fields are present.
func (p *GetParams) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("id is required")
	}
	return nil
}

// CheckParams are the parameters for the check method.
type CheckParams struct {
	Repair bool `json:"repair,omitempty"`
}

// Issue is a single store/index disagreement.
type Issue struct {
	Type      string `json:"type"`
	ContactID string `json:"contact_id"`
	Token     string `json:"token"`
}

// CheckResult reports a consistency check.
type CheckResult struct {
	Checked  int     `json:"checked"`
	Issues   []Issue `json:"issues"`
	Repaired int     `json:"repaired"`
	Duration string  `json:"duration"`
}

// StatusResult contains daemon status information.
type StatusResult struct {
	Running  bool   `json:"running"`
	PID      int    `json:"pid"`
	Uptime   string `json:"uptime"`
	Contacts int    `json:"contacts"`
	Tokens   int    `json:"tokens"`
	Postings int    `json:"postings"`
	// HeapBytes is the daemon's live heap at the time of the request.
	HeapBytes uint64 `json:"heap_bytes"`

	Search *telemetry.Snapshot `json:"search,omitempty"`
}

// PingResult is the response to a ping request.
type PingResult struct {
	Pong bool `json:"pong"`
}
