package llm

import "context"

// ProviderAdapter is the interface every provider backend must implement.
type ProviderAdapter interface {
	// Name returns the provider identifier (e.g. "ollama", "openai").
	Name() string

	// Chat sends a blocking chat request and returns the full response.
	Chat(ctx context.Context, req Request) (*Response, error)
}

// ModelLister is implemented by adapters that can enumerate installed models.
type ModelLister interface {
	ListModels(ctx context.Context) ([]string, error)
}

// Closer is implemented by adapters that hold resources.
type Closer interface {
	Close() error
}
