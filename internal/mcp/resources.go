package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Resource URIs.
const (
	ContactsResourceURI   = "addressbook://contacts"
	DuplicatesResourceURI = "addressbook://duplicates"
)

const jsonMIMEType = "application/json"

// registerResources exposes read-only JSON snapshots of the directory.
func (s *Server) registerResources() {
	s.mcp.AddResource(
		&mcp.Resource{
			Name:        "contacts",
			URI:         ContactsResourceURI,
			Description: "Every contact in the directory as a JSON array",
			MIMEType:    jsonMIMEType,
		},
		func(ctx context.Context, _ *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
			return s.ReadResource(ctx, ContactsResourceURI)
		},
	)
	s.mcp.AddResource(
		&mcp.Resource{
			Name:        "duplicates",
			URI:         DuplicatesResourceURI,
			Description: "Suggested duplicate groups as a JSON array of arrays",
			MIMEType:    jsonMIMEType,
		},
		func(ctx context.Context, _ *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
			return s.ReadResource(ctx, DuplicatesResourceURI)
		},
	)
}

// ReadResource returns the JSON snapshot behind uri.
func (s *Server) ReadResource(_ context.Context, uri string) (*mcp.ReadResourceResult, error) {
	var payload any
	switch uri {
	case ContactsResourceURI:
		payload = s.engine.List()
	case DuplicatesResourceURI:
		payload = s.engine.SuggestDuplicates()
	default:
		return nil, &MCPError{
			Code:    ErrCodeMethodNotFound,
			Message: fmt.Sprintf("Resource '%s' not found.", uri),
		}
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, MapError(err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{
				URI:      uri,
				MIMEType: jsonMIMEType,
				Text:     string(data),
			},
		},
	}, nil
}
