package llm

// SchemaObject is the JSON-Schema fragment both dialects embed: an object
// schema with named properties and an ordered list of required names.
type SchemaObject struct {
	Type       string                            `json:"type"`
	Properties map[string]map[string]interface{} `json:"properties"`
	Required   []string                          `json:"required,omitempty"`
}

// OpenAIFunction is a single function definition in the OpenAI dialect.
type OpenAIFunction struct {
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Parameters  SchemaObject `json:"parameters"`
}

// OpenAITool wraps a function definition the way the chat completions
// tools array expects it.
type OpenAITool struct {
	Type     string         `json:"type"`
	Function OpenAIFunction `json:"function"`
}

// NewOpenAITool wraps a function definition with the "function" tool type.
func NewOpenAITool(function OpenAIFunction) OpenAITool {
	return OpenAITool{
		Type:     "function",
		Function: function,
	}
}

// ClaudeTool is a single tool definition in the Claude messages dialect.
type ClaudeTool struct {
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	InputSchema SchemaObject `json:"input_schema"`
}
