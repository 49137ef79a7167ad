// Package executor runs tool invocations against a connected tool
// provider and keeps a bounded per-conversation execution history with
// aggregate statistics and lexical tool search.
package executor

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/walkingzzzy/office-bridge/converter"
	"github.com/walkingzzzy/office-bridge/schema"
)

// Caller is the slice of the protocol client the engine needs.
type Caller interface {
	CallTool(ctx context.Context, params *schema.CallToolRequestParams) (*schema.CallToolResult, error)
	ListTools(ctx context.Context, cursor *string) (*schema.ListToolsResult, error)
}

// Options carries per-call execution options.
type Options struct {
	// ConversationID buckets the execution record; empty means the
	// default bucket.
	ConversationID string
}

// Result is the outcome of one tool execution. Failures are reported
// through Success=false and Error; ExecuteTool never returns a Go error.
type Result struct {
	ToolName string        `json:"toolName"`
	Success  bool          `json:"success"`
	Output   string        `json:"output,omitempty"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Service executes tools through a protocol client, validating arguments
// against the registry first.
type Service struct {
	client   Caller
	registry *converter.Registry
	history  *history
	logger   *slog.Logger
}

// New creates an execution engine. historyCapacity bounds the number of
// records retained per conversation; zero or negative selects the default.
func New(client Caller, registry *converter.Registry, historyCapacity int, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		client:   client,
		registry: registry,
		history:  newHistory(historyCapacity),
		logger:   logger,
	}
}

// Registry exposes the converted tool catalog.
func (s *Service) Registry() *converter.Registry {
	return s.registry
}

// GetConvertedTool returns one converted tool by name.
func (s *Service) GetConvertedTool(name string) (converter.ConvertedTool, bool) {
	return s.registry.Lookup(name)
}

// ConvertedTools returns the whole converted catalog in registration order.
func (s *Service) ConvertedTools() []converter.ConvertedTool {
	return s.registry.All()
}

// LoadTools fetches the provider's full tool catalog, following cursors,
// and replaces the registry contents. It returns the number of tools.
func (s *Service) LoadTools(ctx context.Context) (int, error) {
	var tools []schema.Tool
	var cursor *string
	for {
		page, err := s.client.ListTools(ctx, cursor)
		if err != nil {
			return 0, err
		}
		tools = append(tools, page.Tools...)
		if page.NextCursor == nil || *page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}
	s.registry.Replace(tools)
	s.logger.Info("loaded tool catalog", "tools", len(tools))
	return len(tools), nil
}

// ExecuteTool validates and runs one tool call. Every failure mode —
// unknown tool, invalid arguments, transport error, provider-reported
// error — comes back as Success=false; the method itself never fails.
func (s *Service) ExecuteTool(ctx context.Context, name string, args map[string]interface{}, options *Options) *Result {
	started := time.Now()
	conversationID := ""
	if options != nil {
		conversationID = options.ConversationID
	}
	if _, ok := s.registry.Lookup(name); !ok {
		return s.record(conversationID, name, args, started, "", "tool does not exist: "+name)
	}
	if validation := s.registry.Validate(name, args); !validation.Valid {
		return s.record(conversationID, name, args, started, "", strings.Join(validation.Errors, "; "))
	}
	response, err := s.client.CallTool(ctx, &schema.CallToolRequestParams{
		Name:      name,
		Arguments: schema.CallToolRequestParamsArguments(args),
	})
	if err != nil {
		return s.record(conversationID, name, args, started, "", err.Error())
	}
	output := textContent(response)
	if response.IsError != nil && *response.IsError {
		return s.record(conversationID, name, args, started, "", output)
	}
	return s.record(conversationID, name, args, started, output, "")
}

// ExecuteTools runs calls sequentially, continuing past failures and
// collecting every result in order.
func (s *Service) ExecuteTools(ctx context.Context, calls []Call, options *Options) []*Result {
	results := make([]*Result, 0, len(calls))
	for _, call := range calls {
		results = append(results, s.ExecuteTool(ctx, call.Name, call.Arguments, options))
	}
	return results
}

// ExecuteToolsParallel fans all calls out concurrently and waits for all
// to settle; results line up with the input order.
func (s *Service) ExecuteToolsParallel(ctx context.Context, calls []Call, options *Options) []*Result {
	results := make([]*Result, len(calls))
	var wg sync.WaitGroup
	for i, call := range calls {
		wg.Add(1)
		go func(i int, call Call) {
			defer wg.Done()
			results[i] = s.ExecuteTool(ctx, call.Name, call.Arguments, options)
		}(i, call)
	}
	wg.Wait()
	return results
}

// Call names one tool invocation in a batch.
type Call struct {
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments,omitempty"`
}

func (s *Service) record(conversationID, name string, args map[string]interface{}, started time.Time, output, errMessage string) *Result {
	duration := time.Since(started)
	success := errMessage == ""
	s.history.append(conversationID, Record{
		ToolName:  name,
		Arguments: args,
		Success:   success,
		Output:    output,
		Error:     errMessage,
		Duration:  duration,
		StartedAt: started,
	})
	if success {
		s.logger.Debug("tool executed", "tool", name, "duration", duration)
	} else {
		s.logger.Warn("tool execution failed", "tool", name, "error", errMessage, "duration", duration)
	}
	return &Result{ToolName: name, Success: success, Output: output, Error: errMessage, Duration: duration}
}

// textContent flattens a call result's text elements into one string.
func textContent(result *schema.CallToolResult) string {
	if result == nil {
		return ""
	}
	var builder strings.Builder
	for _, element := range result.Content {
		if element.Type != "" && element.Type != "text" {
			continue
		}
		if builder.Len() > 0 {
			builder.WriteString("\n")
		}
		builder.WriteString(element.Text)
	}
	return builder.String()
}
