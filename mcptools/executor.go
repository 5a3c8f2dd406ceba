package mcptools

import "context"

// Executor implements toolloop.Executor by dispatching to the MCP server.
type Executor struct {
	client *Client
}

// NewExecutor creates an Executor over client.
func NewExecutor(client *Client) *Executor {
	return &Executor{client: client}
}

// Call runs the named tool and returns its textual output.
func (e *Executor) Call(ctx context.Context, name string, args map[string]any) (string, error) {
	return e.client.CallTool(ctx, name, args)
}
