package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Aman-CERP/addressbook/internal/contact"
	"github.com/Aman-CERP/addressbook/internal/directory"
	"github.com/Aman-CERP/addressbook/internal/telemetry"
	"github.com/Aman-CERP/addressbook/pkg/version"
)

// ServerName is the implementation name advertised to MCP clients.
const ServerName = "addressbook"

// Server exposes a directory engine over MCP.
type Server struct {
	mcp     *mcp.Server
	engine  *directory.Engine
	metrics *telemetry.Metrics
	logger  *slog.Logger
}

// ToolInfo contains information about a registered tool.
type ToolInfo struct {
	Name        string
	Description string
}

var tools = []ToolInfo{
	{
		Name:        ToolCreateContacts,
		Description: "Create one or more contacts. Returns them with their assigned ids, in input order.",
	},
	{
		Name:        ToolUpdateContacts,
		Description: "Partially update contacts by id. Omitted or empty fields keep their value. Unknown ids yield null; a patch without an id rejects the whole batch.",
	},
	{
		Name:        ToolDeleteContacts,
		Description: "Delete contacts by id and report how many existed.",
	},
	{
		Name:        ToolSearchContacts,
		Description: "Find contacts whose name contains the query as a whole word, case-insensitively. The query is one word; 'Alice Smith' matches nothing while 'alice' or 'smith' match.",
	},
	{
		Name:        ToolListContacts,
		Description: "List every contact.",
	},
	{
		Name:        ToolSuggestDuplicates,
		Description: "Group contacts whose name, phone, and email are identical ignoring case. Only groups of two or more are returned.",
	},
	{
		Name:        ToolDirectoryStatus,
		Description: "Report contact and index sizes and whether the name index agrees with the stored contacts.",
	},
}

// NewServer creates an MCP server for engine.
func NewServer(engine *directory.Engine, logger *slog.Logger) (*Server, error) {
	if engine == nil {
		return nil, errors.New("directory engine is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		engine: engine,
		logger: logger,
	}
	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    ServerName,
			Version: version.Version,
		},
		nil,
	)

	s.registerTools()
	s.registerResources()
	return s, nil
}

// SetMetrics records searches into m. It may be shared with the daemon
// serving the same engine.
func (s *Server) SetMetrics(m *telemetry.Metrics) {
	s.metrics = m
}

// MCPServer returns the underlying MCP server instance.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// Info returns the server name and version.
func (s *Server) Info() (name, ver string) {
	return ServerName, version.Version
}

// ListTools returns all registered tools.
func (s *Server) ListTools() []ToolInfo {
	out := make([]ToolInfo, len(tools))
	copy(out, tools)
	return out
}

// CallTool invokes a tool by name with JSON-style arguments and returns its
// structured output.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]any) (any, error) {
	switch name {
	case ToolCreateContacts:
		var in CreateContactsInput
		if err := decodeArgs(args, &in); err != nil {
			return nil, err
		}
		return s.createContacts(ctx, in)
	case ToolUpdateContacts:
		var in UpdateContactsInput
		if err := decodeArgs(args, &in); err != nil {
			return nil, err
		}
		out, err := s.updateContacts(ctx, in)
		if err != nil {
			return nil, MapError(err)
		}
		return out, nil
	case ToolDeleteContacts:
		var in DeleteContactsInput
		if err := decodeArgs(args, &in); err != nil {
			return nil, err
		}
		return s.deleteContacts(ctx, in)
	case ToolSearchContacts:
		var in SearchContactsInput
		if err := decodeArgs(args, &in); err != nil {
			return nil, err
		}
		return s.searchContacts(ctx, in)
	case ToolListContacts:
		return s.listContacts(ctx)
	case ToolSuggestDuplicates:
		return s.suggestDuplicates(ctx)
	case ToolDirectoryStatus:
		out, err := s.directoryStatus(ctx)
		if err != nil {
			return nil, MapError(err)
		}
		return out, nil
	default:
		return nil, NewMethodNotFoundError(name)
	}
}

// Serve runs the MCP server on transport until ctx is cancelled.
// Only stdio is supported.
func (s *Server) Serve(ctx context.Context, transport string) error {
	s.logger.Info("mcp_server_starting", slog.String("transport", transport))

	switch transport {
	case "stdio":
		err := s.mcp.Run(ctx, &mcp.StdioTransport{})
		if err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("mcp_server_failed", slog.String("error", err.Error()))
		} else {
			s.logger.Info("mcp_server_stopped")
		}
		return err
	default:
		return fmt.Errorf("unknown transport: %s (supported: stdio)", transport)
	}
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{Name: ToolCreateContacts, Description: describe(ToolCreateContacts)},
		func(ctx context.Context, _ *mcp.CallToolRequest, in CreateContactsInput) (*mcp.CallToolResult, ContactsOutput, error) {
			out, _ := s.createContacts(ctx, in)
			return textResult(FormatContacts("Created Contacts", out.Contacts)), out, nil
		})

	mcp.AddTool(s.mcp, &mcp.Tool{Name: ToolUpdateContacts, Description: describe(ToolUpdateContacts)},
		func(ctx context.Context, _ *mcp.CallToolRequest, in UpdateContactsInput) (*mcp.CallToolResult, UpdateContactsOutput, error) {
			out, err := s.updateContacts(ctx, in)
			if err != nil {
				return nil, UpdateContactsOutput{}, MapError(err)
			}
			patches := make([]contact.Patch, len(in.Contacts))
			for i, p := range in.Contacts {
				patches[i] = p.toPatch()
			}
			return textResult(FormatUpdated(patches, out.Contacts)), out, nil
		})

	mcp.AddTool(s.mcp, &mcp.Tool{Name: ToolDeleteContacts, Description: describe(ToolDeleteContacts)},
		func(ctx context.Context, _ *mcp.CallToolRequest, in DeleteContactsInput) (*mcp.CallToolResult, DeleteContactsOutput, error) {
			out, _ := s.deleteContacts(ctx, in)
			return textResult(fmt.Sprintf("Deleted %d of %d requested contacts", out.Deleted, len(in.IDs))), out, nil
		})

	mcp.AddTool(s.mcp, &mcp.Tool{Name: ToolSearchContacts, Description: describe(ToolSearchContacts)},
		func(ctx context.Context, _ *mcp.CallToolRequest, in SearchContactsInput) (*mcp.CallToolResult, ContactsOutput, error) {
			out, _ := s.searchContacts(ctx, in)
			return textResult(FormatContacts(fmt.Sprintf("Contacts matching %q", in.Query), out.Contacts)), out, nil
		})

	mcp.AddTool(s.mcp, &mcp.Tool{Name: ToolListContacts, Description: describe(ToolListContacts)},
		func(ctx context.Context, _ *mcp.CallToolRequest, _ ListContactsInput) (*mcp.CallToolResult, ContactsOutput, error) {
			out, _ := s.listContacts(ctx)
			return textResult(FormatContacts("All Contacts", out.Contacts)), out, nil
		})

	mcp.AddTool(s.mcp, &mcp.Tool{Name: ToolSuggestDuplicates, Description: describe(ToolSuggestDuplicates)},
		func(ctx context.Context, _ *mcp.CallToolRequest, _ SuggestDuplicatesInput) (*mcp.CallToolResult, DuplicatesOutput, error) {
			out, _ := s.suggestDuplicates(ctx)
			return textResult(FormatDuplicates(out.Groups)), out, nil
		})

	mcp.AddTool(s.mcp, &mcp.Tool{Name: ToolDirectoryStatus, Description: describe(ToolDirectoryStatus)},
		func(ctx context.Context, _ *mcp.CallToolRequest, _ DirectoryStatusInput) (*mcp.CallToolResult, DirectoryStatusOutput, error) {
			out, err := s.directoryStatus(ctx)
			if err != nil {
				return nil, DirectoryStatusOutput{}, MapError(err)
			}
			return textResult(FormatStatus(out)), out, nil
		})

	s.logger.Debug("mcp_tools_registered", slog.Int("count", len(tools)))
}

func (s *Server) createContacts(_ context.Context, in CreateContactsInput) (ContactsOutput, error) {
	inputs := make([]contact.Contact, len(in.Contacts))
	for i, c := range in.Contacts {
		inputs[i] = contact.Contact{Name: c.Name, Phone: c.Phone, Email: c.Email}
	}
	return ContactsOutput{Contacts: s.engine.Create(inputs)}, nil
}

func (s *Server) updateContacts(_ context.Context, in UpdateContactsInput) (UpdateContactsOutput, error) {
	patches := make([]contact.Patch, len(in.Contacts))
	for i, p := range in.Contacts {
		patches[i] = p.toPatch()
	}
	results, err := s.engine.Update(patches)
	if err != nil {
		return UpdateContactsOutput{}, err
	}
	return UpdateContactsOutput{Contacts: results}, nil
}

func (s *Server) deleteContacts(_ context.Context, in DeleteContactsInput) (DeleteContactsOutput, error) {
	return DeleteContactsOutput{Deleted: s.engine.Delete(in.IDs)}, nil
}

func (s *Server) searchContacts(_ context.Context, in SearchContactsInput) (ContactsOutput, error) {
	start := time.Now()
	found := s.engine.Search(in.Query)
	if s.metrics != nil {
		s.metrics.Record(telemetry.SearchEvent{
			Query:       in.Query,
			Source:      telemetry.SourceMCP,
			ResultCount: len(found),
			Latency:     time.Since(start),
		})
	}
	return ContactsOutput{Contacts: found}, nil
}

func (s *Server) listContacts(_ context.Context) (ContactsOutput, error) {
	return ContactsOutput{Contacts: s.engine.List()}, nil
}

func (s *Server) suggestDuplicates(_ context.Context) (DuplicatesOutput, error) {
	return DuplicatesOutput{Groups: s.engine.SuggestDuplicates()}, nil
}

func (s *Server) directoryStatus(ctx context.Context) (DirectoryStatusOutput, error) {
	stats := s.engine.Stats()
	check, err := s.engine.Check(ctx)
	if err != nil {
		return DirectoryStatusOutput{}, err
	}
	out := DirectoryStatusOutput{
		Version:    version.Version,
		Contacts:   stats.Contacts,
		Tokens:     stats.Tokens,
		Postings:   stats.Postings,
		Consistent: check.Consistent(),
		Issues:     len(check.Inconsistencies),
	}
	if s.metrics != nil {
		out.Search = s.metrics.Snapshot()
	}
	return out, nil
}

func describe(name string) string {
	for _, t := range tools {
		if t.Name == name {
			return t.Description
		}
	}
	return ""
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

// decodeArgs converts loosely typed arguments into a tool input struct.
func decodeArgs(args map[string]any, dst any) error {
	if args == nil {
		return nil
	}
	data, err := json.Marshal(args)
	if err != nil {
		return NewInvalidParamsError(fmt.Sprintf("invalid arguments: %v", err))
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return NewInvalidParamsError(fmt.Sprintf("invalid arguments: %v", err))
	}
	return nil
}
