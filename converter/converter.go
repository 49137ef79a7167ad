// Package converter turns canonical MCP tool schemas into the OpenAI and
// Claude function-calling dialects and validates call arguments against
// the canonical schema.
package converter

import (
	"sync"

	"github.com/walkingzzzy/office-bridge/llm"
	"github.com/walkingzzzy/office-bridge/schema"
)

// ConvertedTool holds one tool in every dialect the bridge speaks,
// alongside its canonical source. It is a pure function of Source.
type ConvertedTool struct {
	OpenAI llm.OpenAITool
	Claude llm.ClaudeTool
	Source schema.Tool
}

// Convert derives both dialect forms from a canonical tool. Both forms
// carry identical properties and required lists; they differ only in
// field naming.
func Convert(tool schema.Tool) ConvertedTool {
	description := ""
	if tool.Description != nil {
		description = *tool.Description
	}
	parameters := llm.SchemaObject{
		Type:       "object",
		Properties: tool.InputSchema.Properties,
		Required:   tool.InputSchema.Required,
	}
	if parameters.Properties == nil {
		parameters.Properties = schema.ToolInputSchemaProperties{}
	}
	return ConvertedTool{
		OpenAI: llm.NewOpenAITool(llm.OpenAIFunction{
			Name:        tool.Name,
			Description: description,
			Parameters:  parameters,
		}),
		Claude: llm.ClaudeTool{
			Name:        tool.Name,
			Description: description,
			InputSchema: parameters,
		},
		Source: tool,
	}
}

// Registry caches converted tools by name, preserving registration order.
type Registry struct {
	mu    sync.RWMutex
	order []string
	tools map[string]ConvertedTool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: map[string]ConvertedTool{}}
}

// Register converts a tool and caches it; re-registering a name replaces
// the cached conversion in place without changing its position.
func (r *Registry) Register(tool schema.Tool) ConvertedTool {
	converted := Convert(tool)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tools[tool.Name]; !ok {
		r.order = append(r.order, tool.Name)
	}
	r.tools[tool.Name] = converted
	return converted
}

// Lookup returns the converted tool for a name.
func (r *Registry) Lookup(name string) (ConvertedTool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	converted, ok := r.tools[name]
	return converted, ok
}

// All returns every converted tool in registration order.
func (r *Registry) All() []ConvertedTool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ret := make([]ConvertedTool, 0, len(r.order))
	for _, name := range r.order {
		ret = append(ret, r.tools[name])
	}
	return ret
}

// Replace swaps the whole catalog, used after a tool reload.
func (r *Registry) Replace(tools []schema.Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.order = r.order[:0]
	r.tools = map[string]ConvertedTool{}
	for _, tool := range tools {
		r.order = append(r.order, tool.Name)
		r.tools[tool.Name] = Convert(tool)
	}
}

// Size returns the number of registered tools.
func (r *Registry) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
