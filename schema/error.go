package schema

import "github.com/viant/jsonrpc"

// NewUnknownTool reports a tools/call against a name the server never listed.
func NewUnknownTool(toolName string) *jsonrpc.Error {
	return jsonrpc.NewError(jsonrpc.InvalidParams, "Unknown tool: "+toolName, nil)
}
