// Package mcptools connects the tool loop to an MCP server over streamable
// HTTP. It supplies the loop's tool catalog (cached, with the restricted
// tools filtered out) and executes resolved tool calls.
package mcptools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/mark3labs/mcp-go/client"
	mcptypes "github.com/mark3labs/mcp-go/mcp"
)

// Client is a lazily-connected MCP client. The first call establishes the
// transport and runs the initialize handshake; a transport failure drops the
// session so the next call reconnects.
type Client struct {
	serverURL string
	logger    *slog.Logger

	mu      sync.Mutex
	session *client.Client
}

// NewClient creates a Client for the MCP server at serverURL.
// No connection is made until the first request.
func NewClient(serverURL string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{serverURL: serverURL, logger: logger}
}

func (c *Client) connect(ctx context.Context) (*client.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != nil {
		return c.session, nil
	}

	mcpClient, err := client.NewStreamableHttpClient(c.serverURL)
	if err != nil {
		return nil, fmt.Errorf("create MCP client for %s: %w", c.serverURL, err)
	}

	// Transport must be started before Initialize/ListTools.
	if err := mcpClient.GetTransport().Start(ctx); err != nil {
		return nil, fmt.Errorf("start MCP transport: %w", err)
	}

	initReq := mcptypes.InitializeRequest{
		Params: mcptypes.InitializeParams{
			ProtocolVersion: "2025-06-18",
			Capabilities:    mcptypes.ClientCapabilities{},
			ClientInfo: mcptypes.Implementation{
				Name:    "meshhub",
				Version: "1.0.0",
			},
		},
	}
	if _, err := mcpClient.Initialize(ctx, initReq); err != nil {
		_ = mcpClient.Close()
		return nil, fmt.Errorf("initialize MCP session: %w", err)
	}

	c.logger.Info("connected to MCP server", "url", c.serverURL)
	c.session = mcpClient
	return c.session, nil
}

// drop closes the current session so the next call reconnects.
func (c *Client) drop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != nil {
		_ = c.session.Close()
		c.session = nil
	}
}

// ListTools returns the tools advertised by the server.
func (c *Client) ListTools(ctx context.Context) ([]mcptypes.Tool, error) {
	session, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}
	result, err := session.ListTools(ctx, mcptypes.ListToolsRequest{})
	if err != nil {
		c.drop()
		return nil, fmt.Errorf("list MCP tools: %w", err)
	}
	return result.Tools, nil
}

// CallTool executes a tool and returns its output as text. A result flagged
// IsError comes back as a Go error carrying the tool's message, so the loop
// records it as a tool message instead of aborting.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	session, err := c.connect(ctx)
	if err != nil {
		return "", err
	}

	result, err := session.CallTool(ctx, mcptypes.CallToolRequest{
		Params: mcptypes.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	})
	if err != nil {
		c.drop()
		return "", fmt.Errorf("call MCP tool %s: %w", name, err)
	}

	text := contentText(result.Content)
	if result.IsError {
		return "", fmt.Errorf("%s", text)
	}
	return text, nil
}

// Close shuts down the session if one is open.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil
	}
	err := c.session.Close()
	c.session = nil
	return err
}

// contentText joins the text blocks of a tool result; non-text content falls
// back to its JSON form.
func contentText(content []mcptypes.Content) string {
	var parts []string
	for _, item := range content {
		if tc, ok := mcptypes.AsTextContent(item); ok && tc.Text != "" {
			parts = append(parts, tc.Text)
		}
	}
	if len(parts) > 0 {
		return strings.Join(parts, "\n")
	}
	if len(content) == 0 {
		return ""
	}
	raw, err := json.Marshal(content)
	if err != nil {
		return ""
	}
	return string(raw)
}
