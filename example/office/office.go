// Package office is a small stdio tool provider used for demonstration
// and protocol-level tests. It keeps documents and workbooks in memory
// and serves initialize, tools/list, tools/call and ping over
// newline-delimited JSON-RPC.
package office

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"sync"

	"github.com/viant/jsonrpc"

	"github.com/walkingzzzy/office-bridge/schema"
	"github.com/walkingzzzy/office-bridge/transport/stdio"
)

// Name and Version identify the provider in the initialize handshake.
const (
	Name    = "office-tools"
	Version = "1.0.0"
)

// listPageSize bounds one tools/list page; clients follow nextCursor.
const listPageSize = 4

type toolEntry struct {
	tool   schema.Tool
	handle func(args map[string]interface{}) (string, error)
}

// Server is one provider instance; all state lives in memory and dies
// with the process.
type Server struct {
	logger  *slog.Logger
	store   *store
	entries []toolEntry

	writeMu sync.Mutex
	out     io.Writer
}

// New creates a provider with the full office tool catalog registered.
func New(logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	ret := &Server{logger: logger, store: newStore()}
	ret.registerTools()
	return ret
}

// Serve reads newline-delimited JSON-RPC frames from in until EOF or ctx
// cancellation, writing responses to out.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	s.out = out
	decoder := stdio.NewDecoder()
	buffer := make([]byte, 4096)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := in.Read(buffer)
		if n > 0 {
			for _, frame := range decoder.Feed(buffer[:n]) {
				s.handle(ctx, frame)
			}
		}
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
	}
}

type inboundMessage struct {
	Jsonrpc string          `json:"jsonrpc"`
	Id      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type outboundResponse struct {
	Jsonrpc string          `json:"jsonrpc"`
	Id      json.RawMessage `json:"id"`
	Result  interface{}     `json:"result,omitempty"`
	Error   *jsonrpc.Error  `json:"error,omitempty"`
}

func (s *Server) handle(ctx context.Context, frame []byte) {
	var message inboundMessage
	if err := json.Unmarshal(frame, &message); err != nil {
		s.logger.Warn("dropping malformed frame", "error", err)
		return
	}
	if len(message.Id) == 0 {
		// notifications (notifications/initialized and friends) need no reply
		s.logger.Debug("notification received", "method", message.Method)
		return
	}
	switch message.Method {
	case schema.MethodInitialize:
		s.reply(message.Id, s.initializeResult(), nil)
	case schema.MethodPing:
		s.reply(message.Id, &schema.PingResult{}, nil)
	case schema.MethodToolsList:
		result, rpcErr := s.listTools(message.Params)
		s.reply(message.Id, result, rpcErr)
	case schema.MethodToolsCall:
		result, rpcErr := s.callTool(message.Params)
		s.reply(message.Id, result, rpcErr)
	default:
		s.reply(message.Id, nil, jsonrpc.NewMethodNotFound(fmt.Sprintf("method %s not found", message.Method), nil))
	}
}

func (s *Server) initializeResult() *schema.InitializeResult {
	return &schema.InitializeResult{
		ProtocolVersion: schema.ProtocolVersion,
		ServerInfo:      *schema.NewImplementation(Name, Version),
	}
}

func (s *Server) listTools(params json.RawMessage) (*schema.ListToolsResult, *jsonrpc.Error) {
	var request schema.ListToolsRequestParams
	if len(params) > 0 {
		if err := json.Unmarshal(params, &request); err != nil {
			return nil, jsonrpc.NewInvalidParamsError("invalid tools/list params", params)
		}
	}
	offset := 0
	if request.Cursor != nil && *request.Cursor != "" {
		parsed, err := strconv.Atoi(*request.Cursor)
		if err != nil || parsed < 0 {
			return nil, jsonrpc.NewInvalidParamsError("invalid cursor", params)
		}
		offset = parsed
	}
	result := &schema.ListToolsResult{Tools: []schema.Tool{}}
	for i := offset; i < len(s.entries) && i < offset+listPageSize; i++ {
		result.Tools = append(result.Tools, s.entries[i].tool)
	}
	if next := offset + listPageSize; next < len(s.entries) {
		cursor := strconv.Itoa(next)
		result.NextCursor = &cursor
	}
	return result, nil
}

func (s *Server) callTool(params json.RawMessage) (*schema.CallToolResult, *jsonrpc.Error) {
	var request schema.CallToolRequestParams
	if err := json.Unmarshal(params, &request); err != nil {
		return nil, jsonrpc.NewInvalidParamsError("invalid tools/call params", params)
	}
	for _, entry := range s.entries {
		if entry.tool.Name != request.Name {
			continue
		}
		output, err := entry.handle(request.Arguments)
		if err != nil {
			return errorResult(err.Error()), nil
		}
		return textResult(output), nil
	}
	return nil, schema.NewUnknownTool(request.Name)
}

func (s *Server) reply(id json.RawMessage, result interface{}, rpcErr *jsonrpc.Error) {
	response := &outboundResponse{Jsonrpc: jsonrpc.Version, Id: id, Result: result, Error: rpcErr}
	if rpcErr != nil {
		response.Result = nil
	}
	frame, err := json.Marshal(response)
	if err != nil {
		s.logger.Warn("failed to marshal response", "error", err)
		return
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if _, err := s.out.Write(append(frame, '\n')); err != nil {
		s.logger.Warn("failed to write response", "error", err)
	}
}

func textResult(text string) *schema.CallToolResult {
	return &schema.CallToolResult{
		Content: []schema.CallToolResultContentElem{{Type: "text", Text: text}},
	}
}

func errorResult(text string) *schema.CallToolResult {
	isError := true
	result := textResult(text)
	result.IsError = &isError
	return result
}
