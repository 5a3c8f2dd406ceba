package mcptools

import (
	mcptypes "github.com/mark3labs/mcp-go/mcp"

	"github.com/todea/meshhub/llm"
)

// ToSpec converts an MCP tool definition into the normalized form the loop
// and the provider adapters share. Both sides are JSON Schema, so the
// properties map carries over as-is.
func ToSpec(tool mcptypes.Tool) llm.ToolSpec {
	schema := llm.ArgumentSchema{
		Type:       tool.InputSchema.Type,
		Properties: tool.InputSchema.Properties,
		Required:   tool.InputSchema.Required,
	}
	if schema.Type == "" {
		schema.Type = "object"
	}
	if tool.InputSchema.Defs != nil {
		schema.Defs = tool.InputSchema.Defs
	}
	return llm.ToolSpec{
		Name:        tool.Name,
		Description: tool.Description,
		Schema:      schema,
	}
}
