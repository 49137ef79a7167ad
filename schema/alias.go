package schema

import (
	protoschema "github.com/viant/mcp-protocol/schema"
)

// Aliases to the protocol-level types so that the rest of the module (and
// its consumers) import a single schema package.
type (
	Implementation                 = protoschema.Implementation
	ClientCapabilities             = protoschema.ClientCapabilities
	InitializeRequestParams        = protoschema.InitializeRequestParams
	InitializeResult               = protoschema.InitializeResult
	Tool                           = protoschema.Tool
	ToolInputSchema                = protoschema.ToolInputSchema
	ToolInputSchemaProperties      = protoschema.ToolInputSchemaProperties
	ListToolsRequestParams         = protoschema.ListToolsRequestParams
	ListToolsResult                = protoschema.ListToolsResult
	CallToolRequestParams          = protoschema.CallToolRequestParams
	CallToolRequestParamsArguments = protoschema.CallToolRequestParamsArguments
	CallToolResult                 = protoschema.CallToolResult
	CallToolResultContentElem      = protoschema.CallToolResultContentElem
	PingRequestParams              = protoschema.PingRequestParams
	PingResult                     = protoschema.PingResult
)

// NewImplementation creates client identity metadata.
func NewImplementation(name, version string) *Implementation {
	return protoschema.NewImplementation(name, version)
}
