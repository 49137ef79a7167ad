// Package bridge supervises an external MCP tool provider process and
// exposes its tools to LLM integrations: it spawns the provider, performs
// the initialize handshake over newline-delimited JSON-RPC on stdio,
// converts the tool catalog to the OpenAI and Claude function-calling
// dialects and executes tool calls with bounded history and statistics.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/viant/jsonrpc"

	"github.com/walkingzzzy/office-bridge/client"
	"github.com/walkingzzzy/office-bridge/converter"
	"github.com/walkingzzzy/office-bridge/executor"
	"github.com/walkingzzzy/office-bridge/schema"
	"github.com/walkingzzzy/office-bridge/transport/stdio"
)

// Service owns one tool provider process and the protocol state built on
// top of it. All methods are safe for concurrent use.
type Service struct {
	options        *Options
	logger         *slog.Logger
	onNotification func(method string, params []byte)

	client   *client.Client
	registry *converter.Registry
	executor *executor.Service

	mu        sync.Mutex
	transport *stdio.Client
	running   bool
	stopping  bool
	restarts  int
	pingStop  chan struct{}
}

// New creates a bridge; the provider process is not spawned until Start.
func New(options *Options, opts ...Option) (*Service, error) {
	if options == nil || options.Command == "" {
		return nil, errors.New("bridge: command was empty")
	}
	options.Init()
	ret := &Service{
		options:  options,
		logger:   slog.Default(),
		registry: converter.NewRegistry(),
	}
	for _, opt := range opts {
		opt(ret)
	}
	var clientOptions []client.Option
	if options.ProtocolVersion != "" {
		clientOptions = append(clientOptions, client.WithProtocolVersion(options.ProtocolVersion))
	}
	ret.client = client.New(options.Name, options.Version, nil, clientOptions...)
	ret.executor = executor.New(ret.client, ret.registry, options.HistoryCapacity, ret.logger)
	return ret, nil
}

// Start spawns the tool provider, waits out the grace period, performs
// the initialize handshake and loads the tool catalog.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("bridge: already started")
	}
	s.stopping = false
	s.restarts = 0
	s.mu.Unlock()

	if err := s.spawn(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	if s.options.PingInterval > 0 && s.pingStop == nil {
		s.pingStop = make(chan struct{})
		go s.keepalive(s.pingStop)
	}
	s.mu.Unlock()
	return nil
}

// Stop shuts the provider down deliberately; pending requests are
// rejected and no restart is attempted.
func (s *Service) Stop() {
	s.mu.Lock()
	s.stopping = true
	s.running = false
	transport := s.transport
	s.transport = nil
	if s.pingStop != nil {
		close(s.pingStop)
		s.pingStop = nil
	}
	s.mu.Unlock()
	if transport != nil {
		transport.Stop()
	}
	s.client.Reset()
	s.logger.Info("bridge stopped")
}

// Running reports whether a provider process is up and initialized.
func (s *Service) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Executor exposes the tool execution engine.
func (s *Service) Executor() *executor.Service {
	return s.executor
}

// Client exposes the underlying protocol client.
func (s *Service) Client() *client.Client {
	return s.client
}

// ServerInfo returns the provider identity from the initialize handshake,
// or nil before Start.
func (s *Service) ServerInfo() *schema.InitializeResult {
	return s.client.ServerInfo()
}

// ExecuteTool validates and runs one tool call; see executor.Service.
func (s *Service) ExecuteTool(ctx context.Context, name string, args map[string]interface{}, options *executor.Options) *executor.Result {
	return s.executor.ExecuteTool(ctx, name, args, options)
}

// spawn starts one provider process instance and brings the protocol
// state up on top of it.
func (s *Service) spawn(ctx context.Context) error {
	options := []stdio.Option{
		stdio.WithArguments(s.options.Arguments...),
		stdio.WithEnv(s.options.Env...),
		stdio.WithDir(s.options.Dir),
		stdio.WithTimeout(s.options.RequestTimeout),
		stdio.WithLogger(s.logger),
		stdio.WithOnExit(s.onProcessExit),
	}
	if s.onNotification != nil {
		listener := s.onNotification
		options = append(options, stdio.WithNotificationListener(func(notification *jsonrpc.Notification) {
			listener(notification.Method, notification.Params)
		}))
	}
	transport, err := stdio.New(s.options.Command, options...)
	if err != nil {
		return fmt.Errorf("failed to spawn tool provider: %w", err)
	}
	select {
	case <-time.After(s.options.GracePeriod):
	case <-ctx.Done():
		transport.Stop()
		return ctx.Err()
	}
	s.client.SetTransport(transport)
	result, err := s.client.Initialize(ctx)
	if err != nil {
		transport.Stop()
		return err
	}
	if _, err := s.executor.LoadTools(ctx); err != nil {
		transport.Stop()
		return fmt.Errorf("failed to load tool catalog: %w", err)
	}
	// transport and running are published together: an exit callback that
	// fires before this point is swallowed by the running guard, so the
	// staleness check below re-raises it.
	s.mu.Lock()
	s.transport = transport
	s.running = true
	s.mu.Unlock()
	if !transport.Running() {
		s.onProcessExit(fmt.Errorf("tool provider exited during startup"))
		return nil
	}
	s.logger.Info("tool provider ready",
		"server", result.ServerInfo.Name,
		"version", result.ServerInfo.Version,
		"protocolVersion", result.ProtocolVersion)
	return nil
}

// onProcessExit runs when the provider dies unexpectedly. A deliberate
// Stop never reaches here, and duplicate exit signals for the same
// instance are collapsed by the running flag.
func (s *Service) onProcessExit(err error) {
	s.client.Reset()
	s.mu.Lock()
	if s.stopping || !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.transport = nil
	s.mu.Unlock()

	s.logger.Error("tool provider exited", "error", err)
	if s.options.Restart.MaxRestarts > 0 {
		go s.restartLoop()
	}
}

// restartLoop respawns with doubling backoff until a spawn succeeds or
// the restart budget runs out; a failed respawn consumes an attempt.
func (s *Service) restartLoop() {
	policy := s.options.Restart
	for {
		s.mu.Lock()
		if s.stopping {
			s.mu.Unlock()
			return
		}
		attempt := s.restarts
		s.mu.Unlock()
		if attempt >= policy.MaxRestarts {
			s.logger.Warn("restart budget exhausted", "restarts", attempt)
			return
		}
		delay := policy.Backoff << attempt
		s.logger.Info("restarting tool provider", "attempt", attempt+1, "delay", delay)
		time.Sleep(delay)

		s.mu.Lock()
		if s.stopping {
			s.mu.Unlock()
			return
		}
		s.restarts = attempt + 1
		s.mu.Unlock()

		if err := s.spawn(context.Background()); err != nil {
			s.logger.Error("restart failed", "attempt", attempt+1, "error", err)
			continue
		}
		return
	}
}

// keepalive pings the provider at the configured interval; a failed ping
// is escalated to a process failure so the restart policy applies.
func (s *Service) keepalive(stop <-chan struct{}) {
	ticker := time.NewTicker(s.options.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if !s.client.Initialized() {
				continue
			}
			ctx, cancel := context.WithTimeout(context.Background(), s.options.PingInterval)
			_, err := s.client.Ping(ctx, nil)
			cancel()
			if err == nil || errors.Is(err, client.ErrNotInitialized) {
				continue
			}
			s.logger.Warn("keepalive ping failed", "error", err)
			s.mu.Lock()
			transport := s.transport
			s.mu.Unlock()
			if transport != nil {
				transport.Stop()
			}
			s.onProcessExit(fmt.Errorf("keepalive ping failed: %w", err))
		}
	}
}
