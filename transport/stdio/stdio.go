package stdio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/viant/jsonrpc"
	"github.com/viant/jsonrpc/transport"
)

// DefaultTimeout is the per-request deadline applied when no explicit
// timeout option is supplied.
const DefaultTimeout = 30 * time.Second

var (
	// ErrTimeout marks a request that received no response within its deadline.
	ErrTimeout = errors.New("request timed out")
	// ErrProcessExit marks a request aborted because the child process died
	// or its stdin became unwritable.
	ErrProcessExit = errors.New("tool-provider process exited")
	// ErrClosed marks use of a transport after Stop.
	ErrClosed = errors.New("transport closed")
)

type outcome struct {
	response *jsonrpc.Response
	err      error
}

// pendingRequest tracks one in-flight request until it is resolved,
// rejected, timed out or aborted by process exit. At most one outcome is
// ever delivered.
type pendingRequest struct {
	id     uint64
	method string
	done   chan outcome
}

// Client supervises one child process and multiplexes JSON-RPC requests
// over its standard streams. It implements transport.Transport.
type Client struct {
	command   string
	arguments []string
	env       []string
	dir       string

	timeout        time.Duration
	logger         *slog.Logger
	handler        transport.Handler
	onNotification func(notification *jsonrpc.Notification)
	onExit         func(err error)

	cmd   *exec.Cmd
	stdin io.WriteCloser

	counter atomic.Uint64
	writeMu sync.Mutex

	mu      sync.Mutex
	pending map[uint64]*pendingRequest
	closed  bool
	exitErr error
}

var _ transport.Transport = (*Client)(nil)

// New spawns the child process with piped stdin/stdout/stderr and starts
// the decode loop. The returned client is ready to Send; the MCP-level
// initialize handshake is the caller's responsibility.
func New(command string, options ...Option) (*Client, error) {
	ret := &Client{
		command: command,
		timeout: DefaultTimeout,
		logger:  slog.Default(),
		pending: map[uint64]*pendingRequest{},
	}
	for _, option := range options {
		option(ret)
	}

	cmd := exec.Command(command, ret.arguments...)
	if len(ret.env) > 0 {
		cmd.Env = append(os.Environ(), ret.env...)
	}
	if ret.dir != "" {
		cmd.Dir = ret.dir
	}
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %q: %w", command, err)
	}
	ret.cmd = cmd
	ret.stdin = stdin

	go ret.readLoop(stdout)
	go ret.drainStderr(stderr)
	go ret.waitExit()

	ret.logger.Info("tool-provider process started", "command", command, "pid", cmd.Process.Pid)
	return ret, nil
}

// Send issues a request and blocks until a matching response arrives, the
// per-request deadline fires, ctx is cancelled, or the process dies. The
// request id is assigned by the transport; ids are unique and increasing
// for the lifetime of the client.
func (c *Client) Send(ctx context.Context, request *jsonrpc.Request) (*jsonrpc.Response, error) {
	c.mu.Lock()
	if c.closed {
		exitErr := c.exitErr
		c.mu.Unlock()
		return nil, fmt.Errorf("cannot send %q: %w", request.Method, exitErr)
	}
	id := c.counter.Add(1)
	request.Id = id
	request.Jsonrpc = jsonrpc.Version
	waiter := &pendingRequest{id: id, method: request.Method, done: make(chan outcome, 1)}
	c.pending[id] = waiter
	c.mu.Unlock()

	frame, err := json.Marshal(&wireRequest{
		Jsonrpc: jsonrpc.Version,
		Id:      id,
		Method:  request.Method,
		Params:  request.Params,
	})
	if err != nil {
		c.removePending(id)
		return nil, fmt.Errorf("failed to marshal %q request: %w", request.Method, err)
	}
	if err := c.write(frame); err != nil {
		c.fatal(fmt.Errorf("%w: stdin write failed: %v", ErrProcessExit, err))
		return nil, fmt.Errorf("failed to send %q request: %w", request.Method, ErrProcessExit)
	}

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()
	select {
	case result := <-waiter.done:
		return result.response, result.err
	case <-timer.C:
		if c.removePending(id) {
			return nil, fmt.Errorf("request %d (%s) timed out after %s: %w", id, request.Method, c.timeout, ErrTimeout)
		}
		// lost the race: a resolution is already in flight
		result := <-waiter.done
		return result.response, result.err
	case <-ctx.Done():
		if c.removePending(id) {
			return nil, ctx.Err()
		}
		result := <-waiter.done
		return result.response, result.err
	}
}

// Notify sends a notification; no response is expected or tracked.
func (c *Client) Notify(ctx context.Context, notification *jsonrpc.Notification) error {
	c.mu.Lock()
	if c.closed {
		exitErr := c.exitErr
		c.mu.Unlock()
		return fmt.Errorf("cannot notify %q: %w", notification.Method, exitErr)
	}
	c.mu.Unlock()
	frame, err := json.Marshal(&wireNotification{
		Jsonrpc: jsonrpc.Version,
		Method:  notification.Method,
		Params:  notification.Params,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal %q notification: %w", notification.Method, err)
	}
	if err := c.write(frame); err != nil {
		c.fatal(fmt.Errorf("%w: stdin write failed: %v", ErrProcessExit, err))
		return fmt.Errorf("failed to send %q notification: %w", notification.Method, ErrProcessExit)
	}
	return nil
}

// Stop terminates the child process and rejects every outstanding request.
// Unlike an unexpected exit it does not trigger the OnExit callback.
func (c *Client) Stop() error {
	c.terminate(ErrClosed, false)
	return nil
}

// Running reports whether the child process is still being supervised.
func (c *Client) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed
}

// PendingCount returns the number of in-flight requests.
func (c *Client) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// write serialises one frame followed by a newline onto the child's stdin.
func (c *Client) write(frame []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if _, err := c.stdin.Write(append(frame, '\n')); err != nil {
		return err
	}
	return nil
}

// removePending detaches a waiter; it reports false when the id was already
// resolved, which tells the caller a delivery is in flight.
func (c *Client) removePending(id uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.pending[id]; !ok {
		return false
	}
	delete(c.pending, id)
	return true
}

func (c *Client) readLoop(stdout io.Reader) {
	decoder := NewDecoder()
	buffer := make([]byte, 4096)
	for {
		n, err := stdout.Read(buffer)
		if n > 0 {
			for _, frame := range decoder.Feed(buffer[:n]) {
				c.dispatch(frame)
			}
		}
		if err != nil {
			if err != io.EOF {
				c.logger.Warn("stdout read failed", "error", err)
			}
			c.fatal(fmt.Errorf("%w: stdout closed", ErrProcessExit))
			return
		}
	}
}

// dispatch routes one decoded frame: a response resolves its pending
// request, a notification goes to the observer, a server-to-client request
// goes to the handler. A frame that fails to parse is logged and dropped.
func (c *Client) dispatch(frame []byte) {
	var message wireMessage
	if err := json.Unmarshal(frame, &message); err != nil {
		c.logger.Warn("dropping malformed frame", "error", err, "frame", clip(frame))
		return
	}
	switch {
	case message.Method != "" && len(message.Id) == 0:
		notification := &jsonrpc.Notification{Method: message.Method}
		notification.Params = message.Params
		c.logger.Debug("notification received", "method", message.Method)
		if c.onNotification != nil {
			c.onNotification(notification)
		}
	case message.Method != "":
		go c.serveRequest(&message)
	default:
		id, ok := parseRequestID(message.Id)
		if !ok {
			c.logger.Warn("dropping response with unusable id", "frame", clip(frame))
			return
		}
		c.resolve(id, &message)
	}
}

// resolve delivers a response to its waiter. A response whose id has no
// pending request is a no-op.
func (c *Client) resolve(id uint64, message *wireMessage) {
	c.mu.Lock()
	waiter, ok := c.pending[id]
	if ok {
		delete(c.pending, id)
	}
	c.mu.Unlock()
	if !ok {
		c.logger.Debug("response for unknown request id ignored", "id", id)
		return
	}
	response := &jsonrpc.Response{}
	response.Jsonrpc = message.Jsonrpc
	response.Id = id
	response.Result = message.Result
	response.Error = message.Error
	if message.Error != nil {
		waiter.done <- outcome{err: message.Error}
		return
	}
	waiter.done <- outcome{response: response}
}

// serveRequest answers a server-to-client request through the registered
// handler, or with a method-not-found error when there is none.
func (c *Client) serveRequest(message *wireMessage) {
	response := &jsonrpc.Response{}
	response.Jsonrpc = jsonrpc.Version
	if c.handler == nil {
		response.Error = jsonrpc.NewMethodNotFound(fmt.Sprintf("method %s not found", message.Method), nil)
	} else {
		request := &jsonrpc.Request{}
		request.Jsonrpc = message.Jsonrpc
		request.Method = message.Method
		request.Params = message.Params
		if id, ok := parseRequestID(message.Id); ok {
			request.Id = id
		}
		c.handler.Serve(context.Background(), request, response)
	}
	frame, err := json.Marshal(&wireResponse{
		Jsonrpc: jsonrpc.Version,
		Id:      message.Id,
		Result:  response.Result,
		Error:   response.Error,
	})
	if err != nil {
		c.logger.Warn("failed to marshal handler response", "method", message.Method, "error", err)
		return
	}
	if err := c.write(frame); err != nil {
		c.fatal(fmt.Errorf("%w: stdin write failed: %v", ErrProcessExit, err))
	}
}

func (c *Client) drainStderr(stderr io.Reader) {
	decoder := NewDecoder()
	buffer := make([]byte, 4096)
	for {
		n, err := stderr.Read(buffer)
		if n > 0 {
			for _, line := range decoder.Feed(buffer[:n]) {
				c.logger.Info("tool-provider stderr", "line", string(line))
			}
		}
		if err != nil {
			return
		}
	}
}

func (c *Client) waitExit() {
	err := c.cmd.Wait()
	if err != nil {
		c.fatal(fmt.Errorf("%w: %v", ErrProcessExit, err))
		return
	}
	c.fatal(fmt.Errorf("%w: exit status 0", ErrProcessExit))
}

// fatal handles an unexpected process failure: it is idempotent, rejects
// every pending request exactly once and then notifies the OnExit callback.
func (c *Client) fatal(err error) {
	c.terminate(err, true)
}

func (c *Client) terminate(err error, unexpected bool) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.exitErr = err
	waiters := c.pending
	c.pending = map[uint64]*pendingRequest{}
	c.mu.Unlock()

	_ = c.stdin.Close()
	if c.cmd != nil && c.cmd.Process != nil {
		_ = c.cmd.Process.Kill()
	}
	for _, waiter := range waiters {
		waiter.done <- outcome{err: fmt.Errorf("request %d (%s) aborted: %w", waiter.id, waiter.method, err)}
	}
	if unexpected {
		c.logger.Error("tool-provider process failed", "command", c.command, "pending", len(waiters), "error", err)
		if c.onExit != nil {
			c.onExit(err)
		}
		return
	}
	c.logger.Info("transport stopped", "command", c.command, "pending", len(waiters))
}

type wireRequest struct {
	Jsonrpc string          `json:"jsonrpc"`
	Id      uint64          `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type wireNotification struct {
	Jsonrpc string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type wireResponse struct {
	Jsonrpc string          `json:"jsonrpc"`
	Id      json.RawMessage `json:"id,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *jsonrpc.Error  `json:"error,omitempty"`
}

// wireMessage is the inbound superset: responses carry id+result/error,
// notifications carry method without id, server requests carry both.
type wireMessage struct {
	Jsonrpc string          `json:"jsonrpc"`
	Id      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *jsonrpc.Error  `json:"error,omitempty"`
}

// parseRequestID accepts the numeric ids this transport issues, either as
// a JSON number or a string-wrapped number.
func parseRequestID(raw json.RawMessage) (uint64, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var numeric uint64
	if err := json.Unmarshal(raw, &numeric); err == nil {
		return numeric, true
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		if value, err := strconv.ParseUint(text, 10, 64); err == nil {
			return value, true
		}
	}
	return 0, false
}

func clip(frame []byte) string {
	const limit = 256
	if len(frame) <= limit {
		return string(frame)
	}
	return string(frame[:limit]) + "..."
}
