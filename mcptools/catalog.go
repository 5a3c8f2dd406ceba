package mcptools

import (
	"context"
	"log/slog"
	"sync"
	"time"

	mcptypes "github.com/mark3labs/mcp-go/mcp"

	"github.com/todea/meshhub/llm"
)

// DefaultExcludedTools are never offered to the model. The meta "chat" tool
// would let the model call back into the hub itself.
var DefaultExcludedTools = []string{"chat"}

// ToolLister is the part of Client the catalog needs.
type ToolLister interface {
	ListTools(ctx context.Context) ([]mcptypes.Tool, error)
}

// Catalog caches the server's tool list as llm.ToolSpec values, refreshing
// at most every interval. An unreachable server degrades gracefully: the
// previous list (or an empty one, disabling tool calling) is returned and
// the staleness timestamp is left untouched, so the next request retries
// immediately.
type Catalog struct {
	client   ToolLister
	interval time.Duration
	excluded map[string]struct{}
	logger   *slog.Logger

	mu        sync.RWMutex
	specs     []llm.ToolSpec
	fetchedAt time.Time
}

// NewCatalog creates a Catalog over client. A nil excluded slice applies
// DefaultExcludedTools.
func NewCatalog(client ToolLister, interval time.Duration, excluded []string, logger *slog.Logger) *Catalog {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if excluded == nil {
		excluded = DefaultExcludedTools
	}
	if logger == nil {
		logger = slog.Default()
	}
	set := make(map[string]struct{}, len(excluded))
	for _, name := range excluded {
		set[name] = struct{}{}
	}
	return &Catalog{
		client:   client,
		interval: interval,
		excluded: set,
		logger:   logger,
	}
}

// Tools implements toolloop.Catalog. It returns the cached specs, refreshing
// when the cache is empty or stale.
func (c *Catalog) Tools(ctx context.Context) ([]llm.ToolSpec, error) {
	c.mu.RLock()
	if len(c.specs) > 0 && time.Since(c.fetchedAt) <= c.interval {
		specs := append([]llm.ToolSpec(nil), c.specs...)
		c.mu.RUnlock()
		return specs, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	// Another caller may have refreshed while we waited for the lock.
	if len(c.specs) > 0 && time.Since(c.fetchedAt) <= c.interval {
		return append([]llm.ToolSpec(nil), c.specs...), nil
	}

	tools, err := c.client.ListTools(ctx)
	if err != nil {
		c.logger.Warn("MCP unreachable; tool calling disabled", "error", err)
		// Keep the previous list and timestamp so the next call retries.
		return append([]llm.ToolSpec(nil), c.specs...), nil
	}

	specs := make([]llm.ToolSpec, 0, len(tools))
	for _, tool := range tools {
		if _, skip := c.excluded[tool.Name]; skip {
			continue
		}
		specs = append(specs, ToSpec(tool))
	}

	c.specs = specs
	c.fetchedAt = time.Now()
	c.logger.Info("loaded MCP tools", "count", len(specs))
	return append([]llm.ToolSpec(nil), c.specs...), nil
}
