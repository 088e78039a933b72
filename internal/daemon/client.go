package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"github.com/Aman-CERP/addressbook/internal/contact"
	bookerrors "github.com/Aman-CERP/addressbook/internal/errors"
)

// Client talks to a running daemon.
type Client struct {
	socketPath string
	timeout    time.Duration
	requestID  atomic.Uint64
}

// NewClient creates a new daemon client.
func NewClient(cfg Config) *Client {
	return &Client{
		socketPath: cfg.SocketPath,
		timeout:    cfg.Timeout,
	}
}

// Connect dials the daemon socket. Dial failures carry
// ERR_301_DAEMON_UNAVAILABLE so callers can retry them.
func (c *Client) Connect() (net.Conn, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, bookerrors.DaemonUnavailableError(c.socketPath, err)
	}
	return conn, nil
}

// IsRunning checks if the daemon is accepting connections.
func (c *Client) IsRunning() bool {
	conn, err := c.Connect()
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

// WaitReady pings until the daemon answers, for use right after starting it.
func (c *Client) WaitReady(ctx context.Context, cfg bookerrors.RetryConfig) error {
	return bookerrors.Retry(ctx, cfg, func() error {
		return c.Ping(ctx)
	})
}

// Ping checks if the daemon is responsive.
func (c *Client) Ping(ctx context.Context) error {
	var result PingResult
	return c.call(ctx, MethodPing, nil, &result)
}

// Status retrieves daemon status.
func (c *Client) Status(ctx context.Context) (*StatusResult, error) {
	var status StatusResult
	if err := c.call(ctx, MethodStatus, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Create adds contacts and returns them with their assigned ids.
func (c *Client) Create(ctx context.Context, inputs []ContactInput) ([]contact.Contact, error) {
	params := CreateParams{Contacts: make([]*ContactInput, len(inputs))}
	for i := range inputs {
		params.Contacts[i] = &inputs[i]
	}

	var created []contact.Contact
	if err := c.call(ctx, MethodCreate, params, &created); err != nil {
		return nil, err
	}
	return created, nil
}

// Update applies patches. A nil slot means no contact had that id.
func (c *Client) Update(ctx context.Context, patches []contact.Patch) ([]*contact.Contact, error) {
	params := UpdateParams{Contacts: make([]*contact.Patch, len(patches))}
	for i := range patches {
		params.Contacts[i] = &patches[i]
	}

	var updated []*contact.Contact
	if err := c.call(ctx, MethodUpdate, params, &updated); err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes contacts and returns how many existed.
func (c *Client) Delete(ctx context.Context, ids []string) (int, error) {
	var result DeleteResult
	if err := c.call(ctx, MethodDelete, DeleteParams{IDs: ids}, &result); err != nil {
		return 0, err
	}
	return result.Deleted, nil
}

// Search returns contacts whose name contains query as a whole token.
func (c *Client) Search(ctx context.Context, query string) ([]contact.Contact, error) {
	var found []contact.Contact
	if err := c.call(ctx, MethodSearch, SearchParams{Query: query}, &found); err != nil {
		return nil, err
	}
	return found, nil
}

// Get returns a single contact, or nil if no contact has that id.
func (c *Client) Get(ctx context.Context, id string) (*contact.Contact, error) {
	var found *contact.Contact
	if err := c.call(ctx, MethodGet, GetParams{ID: id}, &found); err != nil {
		return nil, err
	}
	return found, nil
}

// List returns every contact.
func (c *Client) List(ctx context.Context) ([]contact.Contact, error) {
	var all []contact.Contact
	if err := c.call(ctx, MethodList, nil, &all); err != nil {
		return nil, err
	}
	return all, nil
}

// Duplicates returns the suggested duplicate groups.
func (c *Client) Duplicates(ctx context.Context) ([][]contact.Contact, error) {
	var groups [][]contact.Contact
	if err := c.call(ctx, MethodDuplicates, nil, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// Check runs a consistency check, repairing what it finds if repair is set.
func (c *Client) Check(ctx context.Context, repair bool) (*CheckResult, error) {
	var result CheckResult
	if err := c.call(ctx, MethodCheck, CheckParams{Repair: repair}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// call performs one request/response exchange on a fresh connection.
func (c *Client) call(ctx context.Context, method string, params, out any) error {
	req := Request{
		JSONRPC: "2.0",
		Method:  method,
		ID:      c.nextID(),
	}
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			return fmt.Errorf("failed to encode params: %w", err)
		}
		req.Params = data
	}

	conn, err := c.Connect()
	if err != nil {
		return err
	}
	defer conn.Close()

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return fmt.Errorf("failed to set deadline: %w", err)
	}

	if err := json.NewEncoder(conn).Encode(req); err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}

	var resp Response
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return bookerrors.New(bookerrors.ErrCodeDaemonTimeout,
				fmt.Sprintf("%s timed out after %s", method, c.timeout), err)
		}
		return fmt.Errorf("failed to receive response: %w", err)
	}

	if resp.Error != nil {
		return responseError(method, resp.Error)
	}

	if out == nil || len(resp.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Result, out); err != nil {
		return fmt.Errorf("failed to decode %s result: %w", method, err)
	}
	return nil
}

// responseError prefers the structured error the server attached.
func responseError(method string, rpcErr *Error) error {
	if len(rpcErr.Data) > 0 {
		if be, err := bookerrors.ParseJSON(rpcErr.Data); err == nil {
			return be
		}
	}
	return bookerrors.New(bookerrors.ErrCodeDaemonRejected,
		fmt.Sprintf("%s failed: %s (code: %d)", method, rpcErr.Message, rpcErr.Code), nil).
		WithDetail("rpc_code", fmt.Sprintf("%d", rpcErr.Code))
}

// nextID generates a unique request ID.
func (c *Client) nextID() string {
	id := c.requestID.Add(1)
	return fmt.Sprintf("req-%d", id)
}
