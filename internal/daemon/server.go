package daemon

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/Aman-CERP/addressbook/internal/contact"
	"github.com/Aman-CERP/addressbook/internal/directory"
	bookerrors "github.com/Aman-CERP/addressbook/internal/errors"
	"github.com/Aman-CERP/addressbook/internal/profiling"
	"github.com/Aman-CERP/addressbook/internal/telemetry"
)

// RequestHandler is the directory the server exposes. *directory.Engine
// satisfies it.
type RequestHandler interface {
	Create(inputs []contact.Contact) []contact.Contact
	Update(patches []contact.Patch) ([]*contact.Contact, error)
	Delete(ids []string) int
	Search(query string) []contact.Contact
	Get(id string) (contact.Contact, bool)
	List() []contact.Contact
	SuggestDuplicates() [][]contact.Contact
	Stats() directory.Stats
	Check(ctx context.Context) (*directory.CheckResult, error)
	Repair(ctx context.Context, issues []directory.Inconsistency) (int, error)
}

// Server listens on a Unix socket and handles RPC requests, one per
// connection. Connections are served concurrently.
type Server struct {
	cfg     Config
	handler RequestHandler
	metrics *telemetry.Metrics
	logger  *slog.Logger
	ready   chan struct{}

	mu       sync.Mutex
	listener net.Listener
	started  time.Time
	shutdown bool
	wg       sync.WaitGroup
}

// NewServer creates a server for handler. It does not listen until
// ListenAndServe is called.
func NewServer(cfg Config, handler RequestHandler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg:     cfg,
		handler: handler,
		logger:  logger,
		ready:   make(chan struct{}),
	}
}

// SetMetrics records every search into m. Without it searches are not
// recorded and status carries no search section.
func (s *Server) SetMetrics(m *telemetry.Metrics) {
	s.metrics = m
}

// Ready is closed once the socket is accepting connections.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// ListenAndServe serves until ctx is cancelled, then waits up to the
// configured grace period for in-flight requests.
func (s *Server) ListenAndServe(ctx context.Context) error {
	// A socket left behind by a crashed daemon blocks Listen.
	_ = os.Remove(s.cfg.SocketPath)

	listener, err := net.Listen("unix", s.cfg.SocketPath)
	if err != nil {
		return bookerrors.New(bookerrors.ErrCodeFilePermission,
			fmt.Sprintf("failed to listen on %s", s.cfg.SocketPath), err)
	}
	defer func() {
		_ = listener.Close()
		_ = os.Remove(s.cfg.SocketPath)
	}()

	s.mu.Lock()
	s.listener = listener
	s.started = time.Now()
	s.mu.Unlock()
	close(s.ready)

	s.logger.Info("server_listening", slog.String("socket", s.cfg.SocketPath))

	go func() {
		<-ctx.Done()
		_ = s.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if s.closed() {
				break
			}
			s.logger.Error("accept_failed", slog.String("error", err.Error()))
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConnection(ctx, conn)
		}()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(s.cfg.ShutdownGracePeriod):
		s.logger.Warn("shutdown_grace_period_exceeded",
			slog.Duration("grace_period", s.cfg.ShutdownGracePeriod))
	}

	s.logger.Info("server_stopped")
	return ctx.Err()
}

// Close stops accepting connections.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shutdown = true
	if s.listener != nil {
		return s.listener.Close()
	}
	return nil
}

func (s *Server) closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shutdown
}

func (s *Server) handleConnection(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(s.cfg.Timeout)); err != nil {
		s.logger.Warn("set_deadline_failed", slog.String("error", err.Error()))
	}

	encoder := json.NewEncoder(conn)

	// One newline-terminated request per connection. A client that half-closes
	// without a trailing newline still gets its line parsed.
	line, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		s.logger.Debug("read_request_failed", slog.String("error", err.Error()))
		return
	}

	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		_ = encoder.Encode(NewErrorResponse("", ErrCodeParseError, "failed to parse request", nil))
		return
	}

	start := time.Now()
	resp := s.handleRequest(ctx, req)
	if resp.Error != nil {
		s.logger.Debug("request_failed",
			slog.String("method", req.Method),
			slog.Int("code", resp.Error.Code),
			slog.String("error", resp.Error.Message))
	} else {
		s.logger.Debug("request_handled",
			slog.String("method", req.Method),
			slog.Duration("elapsed", time.Since(start)))
	}

	if err := encoder.Encode(resp); err != nil {
		s.logger.Warn("write_response_failed", slog.String("error", err.Error()))
	}
}

// handleRequest dispatches a request to the directory.
func (s *Server) handleRequest(ctx context.Context, req Request) Response {
	if req.JSONRPC != "" && req.JSONRPC != "2.0" {
		return NewErrorResponse(req.ID, ErrCodeInvalidRequest, "unsupported jsonrpc version", nil)
	}

	switch req.Method {
	case MethodPing:
		return NewSuccessResponse(req.ID, PingResult{Pong: true})

	case MethodStatus:
		return NewSuccessResponse(req.ID, s.status())

	case MethodCreate:
		var params CreateParams
		if resp, ok := decodeParams(req, &params); !ok {
			return resp
		}
		if err := params.Validate(); err != nil {
			return s.errorResponse(req.ID, ErrCodeInvalidContact, bookerrors.ValidationError(err.Error(), nil))
		}
		return NewSuccessResponse(req.ID, s.handler.Create(params.Inputs()))

	case MethodUpdate:
		var params UpdateParams
		if resp, ok := decodeParams(req, &params); !ok {
			return resp
		}
		if err := params.Validate(); err != nil {
			return s.errorResponse(req.ID, ErrCodeInvalidContact, bookerrors.ValidationError(err.Error(), nil))
		}
		results, err := s.handler.Update(params.Patches())
		if err != nil {
			return s.errorResponse(req.ID, codeFor(err), err)
		}
		return NewSuccessResponse(req.ID, results)

	case MethodDelete:
		var params DeleteParams
		if resp, ok := decodeParams(req, &params); !ok {
			return resp
		}
		return NewSuccessResponse(req.ID, DeleteResult{Deleted: s.handler.Delete(params.IDs)})

	case MethodSearch:
		var params SearchParams
		if resp, ok := decodeParams(req, &params); !ok {
			return resp
		}
		return NewSuccessResponse(req.ID, s.search(params.Query))

	case MethodGet:
		var params GetParams
		if resp, ok := decodeParams(req, &params); !ok {
			return resp
		}
		if err := params.Validate(); err != nil {
			return NewErrorResponse(req.ID, ErrCodeInvalidParams, err.Error(), nil)
		}
		c, found := s.handler.Get(params.ID)
		if !found {
			return NewSuccessResponse(req.ID, nil)
		}
		return NewSuccessResponse(req.ID, c)

	case MethodList:
		return NewSuccessResponse(req.ID, s.handler.List())

	case MethodDuplicates:
		return NewSuccessResponse(req.ID, s.handler.SuggestDuplicates())

	case MethodCheck:
		var params CheckParams
		if resp, ok := decodeParams(req, &params); !ok {
			return resp
		}
		result, err := s.check(ctx, params.Repair)
		if err != nil {
			return s.errorResponse(req.ID, ErrCodeInternalError, err)
		}
		return NewSuccessResponse(req.ID, result)

	default:
		return NewErrorResponse(req.ID, ErrCodeMethodNotFound, fmt.Sprintf("method not found: %s", req.Method), nil)
	}
}

func (s *Server) search(query string) []contact.Contact {
	start := time.Now()
	found := s.handler.Search(query)
	if s.metrics != nil {
		s.metrics.Record(telemetry.SearchEvent{
			Query:       query,
			Source:      telemetry.SourceSocket,
			ResultCount: len(found),
			Latency:     time.Since(start),
		})
	}
	return found
}

func (s *Server) check(ctx context.Context, repair bool) (*CheckResult, error) {
	result, err := s.handler.Check(ctx)
	if err != nil {
		return nil, err
	}

	out := &CheckResult{
		Checked:  result.Checked,
		Issues:   make([]Issue, 0, len(result.Inconsistencies)),
		Duration: result.Duration.String(),
	}
	for _, inc := range result.Inconsistencies {
		out.Issues = append(out.Issues, Issue{
			Type:      inc.Type.String(),
			ContactID: inc.ContactID,
			Token:     inc.Token,
		})
	}

	if repair && !result.Consistent() {
		out.Repaired, err = s.handler.Repair(ctx, result.Inconsistencies)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *Server) status() StatusResult {
	s.mu.Lock()
	started := s.started
	s.mu.Unlock()

	stats := s.handler.Stats()
	result := StatusResult{
		Running:  true,
		PID:      os.Getpid(),
		Uptime:   time.Since(started).Round(time.Second).String(),
		Contacts: stats.Contacts,
		Tokens:   stats.Tokens,
		Postings: stats.Postings,

		HeapBytes: profiling.HeapInUse(),
	}
	if s.metrics != nil {
		result.Search = s.metrics.Snapshot()
	}
	return result
}

func (s *Server) errorResponse(id string, code int, err error) Response {
	data, jerr := bookerrors.FormatJSON(err)
	if jerr != nil {
		data = nil
	}
	return NewErrorResponse(id, code, err.Error(), data)
}

// decodeParams unmarshals req.Params into dst. Absent params leave dst zero.
func decodeParams(req Request, dst any) (Response, bool) {
	if len(req.Params) == 0 || string(req.Params) == "null" {
		return Response{}, true
	}
	if err := json.Unmarshal(req.Params, dst); err != nil {
		return NewErrorResponse(req.ID, ErrCodeInvalidParams, fmt.Sprintf("failed to decode params: %v", err), nil), false
	}
	return Response{}, true
}

// codeFor maps engine errors onto JSON-RPC codes.
func codeFor(err error) int {
	switch bookerrors.GetCode(err) {
	case bookerrors.ErrCodeMissingID:
		return ErrCodeInvalidParams
	case bookerrors.ErrCodeInvalidInput:
		return ErrCodeInvalidContact
	default:
		return ErrCodeInternalError
	}
}
