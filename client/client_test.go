package client

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/jsonrpc"

	"github.com/walkingzzzy/office-bridge/schema"
)

// mockTransport scripts responses per method and records what was sent.
type mockTransport struct {
	requests      []*jsonrpc.Request
	notifications []*jsonrpc.Notification
	results       map[string]any
	errors        map[string]*jsonrpc.Error
	listPages     []*schema.ListToolsResult
	sendErr       error
}

func newMockTransport() *mockTransport {
	return &mockTransport{
		results: map[string]any{},
		errors:  map[string]*jsonrpc.Error{},
	}
}

func (m *mockTransport) Send(ctx context.Context, request *jsonrpc.Request) (*jsonrpc.Response, error) {
	m.requests = append(m.requests, request)
	if m.sendErr != nil {
		return nil, m.sendErr
	}
	response := &jsonrpc.Response{Jsonrpc: jsonrpc.Version, Id: request.Id}
	if rpcErr, ok := m.errors[request.Method]; ok {
		response.Error = rpcErr
		return response, nil
	}
	result, ok := m.results[request.Method]
	if request.Method == schema.MethodToolsList && len(m.listPages) > 0 {
		result, ok = m.listPages[0], true
		m.listPages = m.listPages[1:]
	}
	if !ok {
		return nil, errors.New("unexpected method: " + request.Method)
	}
	data, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}
	response.Result = data
	return response, nil
}

func (m *mockTransport) Notify(ctx context.Context, notification *jsonrpc.Notification) error {
	m.notifications = append(m.notifications, notification)
	return nil
}

func initializeResult() *schema.InitializeResult {
	return &schema.InitializeResult{
		ProtocolVersion: schema.ProtocolVersion,
		ServerInfo:      *schema.NewImplementation("office-tools", "1.0.0"),
	}
}

func TestClient_Initialize(t *testing.T) {
	mock := newMockTransport()
	mock.results[schema.MethodInitialize] = initializeResult()

	aClient := New("office-bridge", "0.1.0", mock)
	assert.False(t, aClient.Initialized())

	result, err := aClient.Initialize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "office-tools", result.ServerInfo.Name)
	assert.True(t, aClient.Initialized())
	assert.Equal(t, result, aClient.ServerInfo())

	require.Len(t, mock.requests, 1)
	var params schema.InitializeRequestParams
	require.NoError(t, json.Unmarshal(mock.requests[0].Params, &params))
	assert.Equal(t, schema.ProtocolVersion, params.ProtocolVersion)
	assert.Equal(t, "office-bridge", params.ClientInfo.Name)

	require.Len(t, mock.notifications, 1)
	assert.Equal(t, schema.MethodNotificationInitialized, mock.notifications[0].Method)
}

func TestClient_GateBeforeInitialize(t *testing.T) {
	mock := newMockTransport()
	aClient := New("office-bridge", "0.1.0", mock)

	_, err := aClient.ListTools(context.Background(), nil)
	assert.True(t, errors.Is(err, ErrNotInitialized))

	_, err = aClient.CallTool(context.Background(), &schema.CallToolRequestParams{Name: "read_excel_range"})
	assert.True(t, errors.Is(err, ErrNotInitialized))

	assert.Empty(t, mock.requests, "gated calls must never reach the transport")
}

func TestClient_ListAllTools(t *testing.T) {
	mock := newMockTransport()
	mock.results[schema.MethodInitialize] = initializeResult()

	aClient := New("office-bridge", "0.1.0", mock)
	_, err := aClient.Initialize(context.Background())
	require.NoError(t, err)

	next := "page-2"
	mock.listPages = []*schema.ListToolsResult{
		{Tools: []schema.Tool{{Name: "create_word_document"}, {Name: "insert_text_to_word"}}, NextCursor: &next},
		{Tools: []schema.Tool{{Name: "read_excel_range"}}},
	}

	tools, err := aClient.ListAllTools(context.Background())
	require.NoError(t, err)
	require.Len(t, tools, 3)
	assert.Equal(t, "read_excel_range", tools[2].Name)

	// the second request must carry the cursor from the first page
	var params schema.ListToolsRequestParams
	require.NoError(t, json.Unmarshal(mock.requests[2].Params, &params))
	require.NotNil(t, params.Cursor)
	assert.Equal(t, "page-2", *params.Cursor)
}

func TestClient_CallToolError(t *testing.T) {
	mock := newMockTransport()
	mock.results[schema.MethodInitialize] = initializeResult()
	mock.errors[schema.MethodToolsCall] = schema.NewUnknownTool("no_such_tool")

	aClient := New("office-bridge", "0.1.0", mock)
	_, err := aClient.Initialize(context.Background())
	require.NoError(t, err)

	_, err = aClient.CallTool(context.Background(), &schema.CallToolRequestParams{Name: "no_such_tool"})
	require.Error(t, err)
	var rpcErr *jsonrpc.Error
	require.True(t, errors.As(err, &rpcErr))
	assert.Contains(t, rpcErr.Message, "no_such_tool")
}

func TestClient_TransportErrorPassthrough(t *testing.T) {
	mock := newMockTransport()
	mock.results[schema.MethodInitialize] = initializeResult()

	aClient := New("office-bridge", "0.1.0", mock)
	_, err := aClient.Initialize(context.Background())
	require.NoError(t, err)

	sentinel := errors.New("request timed out")
	mock.sendErr = sentinel
	_, err = aClient.Ping(context.Background(), nil)
	assert.True(t, errors.Is(err, sentinel), "transport errors must pass through unwrapped")
}

func TestClient_ResetAndReattach(t *testing.T) {
	mock := newMockTransport()
	mock.results[schema.MethodInitialize] = initializeResult()
	mock.results[schema.MethodPing] = &schema.PingResult{}

	aClient := New("office-bridge", "0.1.0", mock)
	_, err := aClient.Initialize(context.Background())
	require.NoError(t, err)

	aClient.Reset()
	_, err = aClient.Ping(context.Background(), nil)
	assert.True(t, errors.Is(err, ErrNotInitialized))

	replacement := newMockTransport()
	replacement.results[schema.MethodInitialize] = initializeResult()
	replacement.results[schema.MethodPing] = &schema.PingResult{}
	aClient.SetTransport(replacement)

	_, err = aClient.Initialize(context.Background())
	require.NoError(t, err)
	_, err = aClient.Ping(context.Background(), nil)
	assert.NoError(t, err)
	assert.Empty(t, replacement.errors)
}
