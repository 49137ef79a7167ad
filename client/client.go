package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/viant/jsonrpc"
	"github.com/viant/jsonrpc/transport"

	"github.com/walkingzzzy/office-bridge/schema"
)

// ErrNotInitialized is returned by every operation attempted before a
// successful initialize handshake (or after the tool provider died).
var ErrNotInitialized = errors.New("client is not initialized")

// Client is an MCP client bound to a single transport. It is safe for
// concurrent use; requests multiplex over the transport and may complete
// in any order.
type Client struct {
	info            schema.Implementation
	capabilities    schema.ClientCapabilities
	protocolVersion string

	mu          sync.RWMutex
	transport   transport.Transport
	initialized bool
	serverInfo  *schema.InitializeResult
}

// New creates a client for the given identity and transport.
func New(name, version string, transport transport.Transport, options ...Option) *Client {
	ret := &Client{
		info:      *schema.NewImplementation(name, version),
		transport: transport,
	}
	for _, option := range options {
		option(ret)
	}
	if ret.protocolVersion == "" {
		ret.protocolVersion = schema.ProtocolVersion
	}
	return ret
}

// Initialize performs the MCP handshake. It is the only operation allowed
// on a fresh client; on success all other operations unlock.
func (c *Client) Initialize(ctx context.Context) (*schema.InitializeResult, error) {
	params := &schema.InitializeRequestParams{
		Capabilities:    c.capabilities,
		ClientInfo:      c.info,
		ProtocolVersion: c.protocolVersion,
	}
	request, err := jsonrpc.NewRequest(schema.MethodInitialize, params)
	if err != nil {
		return nil, fmt.Errorf("failed to build initialize request: %w", err)
	}
	c.mu.RLock()
	clientTransport := c.transport
	c.mu.RUnlock()
	response, err := clientTransport.Send(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("initialize handshake failed: %w", err)
	}
	var result schema.InitializeResult
	if err := json.Unmarshal(response.Result, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal initialize result: %w", err)
	}
	if err := clientTransport.Notify(ctx, &jsonrpc.Notification{Method: schema.MethodNotificationInitialized}); err != nil {
		return nil, fmt.Errorf("failed to notify initialized: %w", err)
	}
	c.mu.Lock()
	c.initialized = true
	c.serverInfo = &result
	c.mu.Unlock()
	return &result, nil
}

// ListTools lists one page of the server's tool catalog.
func (c *Client) ListTools(ctx context.Context, cursor *string) (*schema.ListToolsResult, error) {
	params := &schema.ListToolsRequestParams{Cursor: cursor}
	return send[schema.ListToolsRequestParams, schema.ListToolsResult](ctx, c, schema.MethodToolsList, params)
}

// ListAllTools follows cursors until the entire catalog is fetched.
func (c *Client) ListAllTools(ctx context.Context) ([]schema.Tool, error) {
	var tools []schema.Tool
	var cursor *string
	for {
		result, err := c.ListTools(ctx, cursor)
		if err != nil {
			return nil, err
		}
		tools = append(tools, result.Tools...)
		if result.NextCursor == nil || *result.NextCursor == "" {
			return tools, nil
		}
		cursor = result.NextCursor
	}
}

// CallTool invokes a tool by name with already-validated arguments.
func (c *Client) CallTool(ctx context.Context, params *schema.CallToolRequestParams) (*schema.CallToolResult, error) {
	return send[schema.CallToolRequestParams, schema.CallToolResult](ctx, c, schema.MethodToolsCall, params)
}

// Ping checks that the tool provider still answers.
func (c *Client) Ping(ctx context.Context, params *schema.PingRequestParams) (*schema.PingResult, error) {
	return send[schema.PingRequestParams, schema.PingResult](ctx, c, schema.MethodPing, params)
}

// ServerInfo returns the initialize result, or nil before the handshake.
func (c *Client) ServerInfo() *schema.InitializeResult {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.serverInfo
}

// Initialized reports whether the handshake has completed and the client
// has not been reset since.
func (c *Client) Initialized() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.initialized
}

// Reset flips the client back to not-initialized. The owner calls it when
// the transport's process dies so subsequent operations fail fast instead
// of hanging on a dead channel.
func (c *Client) Reset() {
	c.mu.Lock()
	c.initialized = false
	c.mu.Unlock()
}

// SetTransport attaches a fresh transport (after a restart); the client
// stays not-initialized until the next successful handshake.
func (c *Client) SetTransport(t transport.Transport) {
	c.mu.Lock()
	c.transport = t
	c.initialized = false
	c.mu.Unlock()
}

// send issues one typed request through the transport, gated on the
// initialize handshake.
func send[P any, R any](ctx context.Context, client *Client, method string, parameters *P) (*R, error) {
	client.mu.RLock()
	initialized := client.initialized
	clientTransport := client.transport
	client.mu.RUnlock()
	if !initialized {
		return nil, fmt.Errorf("cannot call %q: %w", method, ErrNotInitialized)
	}
	request, err := jsonrpc.NewRequest(method, parameters)
	if err != nil {
		return nil, fmt.Errorf("failed to build %q request: %w", method, err)
	}
	response, err := clientTransport.Send(ctx, request)
	if err != nil {
		return nil, err
	}
	if response.Error != nil {
		return nil, response.Error
	}
	var result R
	if err := json.Unmarshal(response.Result, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %q result: %w", method, err)
	}
	return &result, nil
}
