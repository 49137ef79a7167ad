// Package llm defines the wire-format tool definitions for the two LLM
// function-calling dialects the bridge targets: the OpenAI chat completions
// format (tools[].function.parameters) and the Claude messages format
// (tools[].input_schema). Both carry the same JSON-Schema payload; they
// differ only in field naming.
package llm
