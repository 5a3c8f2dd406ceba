package toolloop

import (
	"context"

	"github.com/todea/meshhub/llm"
)

// ChatClient sends chat requests to a model. *llm.Client satisfies it.
type ChatClient interface {
	Chat(ctx context.Context, req llm.Request) (*llm.Response, error)
}

// Catalog supplies the tools the model may call. Implementations are free to
// cache; an empty slice disables tool calling for the turn.
type Catalog interface {
	Tools(ctx context.Context) ([]llm.ToolSpec, error)
}

// Executor runs a resolved tool call and returns its textual output.
type Executor interface {
	Call(ctx context.Context, name string, args map[string]any) (string, error)
}
