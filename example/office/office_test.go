package office

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/jsonrpc"

	"github.com/walkingzzzy/office-bridge/schema"
)

// harness drives a Server over an in-process pipe pair.
type harness struct {
	t      *testing.T
	writer io.Writer
	reader *bufio.Scanner
	nextID int
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	clientIn, serverOut := io.Pipe()
	serverIn, clientOut := io.Pipe()
	server := New(nil)
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = server.Serve(ctx, serverIn, serverOut) }()
	t.Cleanup(func() {
		cancel()
		_ = clientOut.Close()
		_ = clientIn.Close()
	})
	return &harness{t: t, writer: clientOut, reader: bufio.NewScanner(clientIn)}
}

type wireResponse struct {
	Jsonrpc string          `json:"jsonrpc"`
	Id      json.RawMessage `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *jsonrpc.Error  `json:"error"`
}

func (h *harness) call(method string, params interface{}) *wireResponse {
	h.t.Helper()
	h.nextID++
	data, err := json.Marshal(map[string]interface{}{
		"jsonrpc": jsonrpc.Version,
		"id":      h.nextID,
		"method":  method,
		"params":  params,
	})
	require.NoError(h.t, err)
	_, err = h.writer.Write(append(data, '\n'))
	require.NoError(h.t, err)
	require.True(h.t, h.reader.Scan(), "expected a response line")
	var response wireResponse
	require.NoError(h.t, json.Unmarshal(h.reader.Bytes(), &response))
	assert.JSONEq(h.t, fmt.Sprintf("%d", h.nextID), string(response.Id))
	return &response
}

func (h *harness) callTool(name string, args map[string]interface{}) *schema.CallToolResult {
	h.t.Helper()
	response := h.call(schema.MethodToolsCall, map[string]interface{}{"name": name, "arguments": args})
	require.Nil(h.t, response.Error)
	var result schema.CallToolResult
	require.NoError(h.t, json.Unmarshal(response.Result, &result))
	return &result
}

func text(t *testing.T, result *schema.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	return result.Content[0].Text
}

func TestServer_Initialize(t *testing.T) {
	h := newHarness(t)
	response := h.call(schema.MethodInitialize, &schema.InitializeRequestParams{
		ClientInfo:      *schema.NewImplementation("test", "0"),
		ProtocolVersion: schema.ProtocolVersion,
	})
	require.Nil(t, response.Error)
	var result schema.InitializeResult
	require.NoError(t, json.Unmarshal(response.Result, &result))
	assert.Equal(t, Name, result.ServerInfo.Name)
	assert.Equal(t, schema.ProtocolVersion, result.ProtocolVersion)
}

func TestServer_ListToolsPagination(t *testing.T) {
	h := newHarness(t)
	var tools []schema.Tool
	var cursor *string
	pages := 0
	for {
		response := h.call(schema.MethodToolsList, &schema.ListToolsRequestParams{Cursor: cursor})
		require.Nil(t, response.Error)
		var result schema.ListToolsResult
		require.NoError(t, json.Unmarshal(response.Result, &result))
		tools = append(tools, result.Tools...)
		pages++
		if result.NextCursor == nil {
			break
		}
		cursor = result.NextCursor
	}
	assert.Equal(t, 8, len(tools))
	assert.Equal(t, 2, pages)

	byName := map[string]schema.Tool{}
	for _, tool := range tools {
		byName[tool.Name] = tool
	}
	create, ok := byName["create_word_document"]
	require.True(t, ok)
	assert.Equal(t, []string{"filename"}, create.InputSchema.Required)
	assert.Equal(t, "string", create.InputSchema.Properties["title"]["type"])

	table, ok := byName["insert_word_table"]
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"filename", "rows", "cols"}, table.InputSchema.Required)
	assert.Equal(t, "integer", table.InputSchema.Properties["rows"]["type"])
	assert.Equal(t, "array", table.InputSchema.Properties["data"]["type"])
}

func TestServer_WordWorkflow(t *testing.T) {
	h := newHarness(t)

	result := h.callTool("create_word_document", map[string]interface{}{
		"filename": "report.docx", "title": "Q3", "content": "Summary",
	})
	assert.Contains(t, text(t, result), "report.docx")

	result = h.callTool("insert_text_to_word", map[string]interface{}{
		"filename": "report.docx", "text": "Opening", "position": "start",
	})
	assert.Contains(t, text(t, result), "2 paragraphs")

	result = h.callTool("format_word_text", map[string]interface{}{
		"filename": "report.docx", "paragraph_index": 1, "bold": true,
	})
	assert.Contains(t, text(t, result), "formatted paragraph 1")

	result = h.callTool("insert_word_table", map[string]interface{}{
		"filename": "report.docx", "rows": 2, "cols": 3,
	})
	assert.Contains(t, text(t, result), "2x3 table")
}

func TestServer_ExcelWorkflow(t *testing.T) {
	h := newHarness(t)

	h.callTool("create_excel_workbook", map[string]interface{}{"filename": "data.xlsx", "sheet_name": "Q3"})
	h.callTool("write_excel_cell", map[string]interface{}{
		"filename": "data.xlsx", "sheet_name": "Q3", "cell": "A1", "value": "revenue",
	})
	h.callTool("write_excel_cell", map[string]interface{}{
		"filename": "data.xlsx", "sheet_name": "Q3", "cell": "B2", "value": "42",
	})

	result := h.callTool("read_excel_range", map[string]interface{}{
		"filename": "data.xlsx", "sheet_name": "Q3", "cell_range": "A1:B2",
	})
	var values [][]string
	require.NoError(t, json.Unmarshal([]byte(text(t, result)), &values))
	assert.Equal(t, [][]string{{"revenue", ""}, {"", "42"}}, values)
}

func TestServer_ToolFailureIsErrorResult(t *testing.T) {
	h := newHarness(t)
	result := h.callTool("insert_text_to_word", map[string]interface{}{
		"filename": "missing.docx", "text": "x",
	})
	require.NotNil(t, result.IsError)
	assert.True(t, *result.IsError)
	assert.Contains(t, text(t, result), "document not found")
}

func TestServer_UnknownToolAndMethod(t *testing.T) {
	h := newHarness(t)

	response := h.call(schema.MethodToolsCall, map[string]interface{}{"name": "no_such_tool"})
	require.NotNil(t, response.Error)
	assert.Contains(t, response.Error.Message, "no_such_tool")

	response = h.call("resources/list", nil)
	require.NotNil(t, response.Error)
}

func TestServer_GetServerInfo(t *testing.T) {
	h := newHarness(t)
	result := h.callTool("get_server_info", map[string]interface{}{})
	var info map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(text(t, result)), &info))
	assert.Equal(t, Name, info["name"])
	assert.Equal(t, Version, info["version"])
	assert.Contains(t, info, "supported_formats")
}

func TestParseRange(t *testing.T) {
	startCol, startRow, endCol, endRow, err := parseRange("a1:C3")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 1, 3, 3}, []int{startCol, startRow, endCol, endRow})

	_, _, _, _, err = parseRange("1A")
	assert.Error(t, err)

	_, _, _, _, err = parseRange("C3:A1")
	assert.Error(t, err)

	startCol, startRow, endCol, endRow, err = parseRange("B2")
	require.NoError(t, err)
	assert.Equal(t, []int{2, 2, 2, 2}, []int{startCol, startRow, endCol, endRow})
}
