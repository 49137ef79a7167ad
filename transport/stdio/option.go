package stdio

import (
	"log/slog"
	"time"

	"github.com/viant/jsonrpc"
	"github.com/viant/jsonrpc/transport"
)

// Option customises a stdio transport client.
type Option func(c *Client)

// WithArguments sets the child process command arguments.
func WithArguments(arguments ...string) Option {
	return func(c *Client) {
		c.arguments = arguments
	}
}

// WithEnv appends environment entries ("KEY=value") to the child process
// environment, on top of the parent environment.
func WithEnv(env ...string) Option {
	return func(c *Client) {
		c.env = env
	}
}

// WithDir sets the child process working directory.
func WithDir(dir string) Option {
	return func(c *Client) {
		c.dir = dir
	}
}

// WithTimeout sets the per-request deadline (default 30s).
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithLogger sets the structured logger used for stderr passthrough,
// dropped frames and lifecycle events.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithHandler registers a handler for server-to-client requests. Without
// one, such requests are answered with a method-not-found error.
func WithHandler(handler transport.Handler) Option {
	return func(c *Client) {
		c.handler = handler
	}
}

// WithNotificationListener registers an observer for notifications coming
// from the child process. Notifications never touch the pending request
// map; the listener is observe-only.
func WithNotificationListener(listener func(notification *jsonrpc.Notification)) Option {
	return func(c *Client) {
		c.onNotification = listener
	}
}

// WithOnExit registers a callback invoked once when the child process dies
// unexpectedly or a stdin write fails. It is not invoked on Stop.
func WithOnExit(onExit func(err error)) Option {
	return func(c *Client) {
		c.onExit = onExit
	}
}
