package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/todea/meshhub/config"
	"github.com/todea/meshhub/convhub"
	"github.com/todea/meshhub/hub"
	"github.com/todea/meshhub/llm"
	"github.com/todea/meshhub/mcptools"
	"github.com/todea/meshhub/toolloop"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	ollama, err := llm.NewOllamaAdapter(cfg.OllamaHost)
	if err != nil {
		logger.Error("failed to create Ollama adapter", "error", err)
		os.Exit(1)
	}

	client := llm.NewClient(
		llm.WithProvider("ollama", ollama),
		llm.WithDefaultProvider("ollama"),
		llm.WithMiddleware(llm.LoggingMiddleware(logger)),
	)
	defer client.Close()

	// Cloud providers register only when gollm finds their API keys.
	for _, provider := range []string{"openai", "anthropic"} {
		if adapter, err := llm.NewGollmAdapter(provider, ""); err == nil {
			client.RegisterProvider(provider, adapter)
			logger.Info("registered cloud provider", "provider", provider)
		}
	}

	mcpClient := mcptools.NewClient(cfg.MCPServerURL, logger)
	defer mcpClient.Close()

	catalog := mcptools.NewCatalog(mcpClient, cfg.ToolRefresh, nil, logger)
	executor := mcptools.NewExecutor(mcpClient)

	loop := toolloop.New(client, catalog, executor, toolloop.Config{
		MaxIterations: cfg.MaxToolIterations,
		Instruction:   cfg.Instruction,
		Logger:        logger,
	})

	server := hub.New(hub.Options{
		Loop:          loop,
		Models:        llm.NewModelCache(ollama, cfg.ModelRefresh),
		Conversations: convhub.New(cfg.ConversationHubURL),
		DefaultModel:  cfg.DefaultModel,
		AllowOrigins:  cfg.AllowOrigins,
		Logger:        logger,
	})

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr(),
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("meshhub listening", "addr", cfg.ListenAddr(), "ollama", cfg.OllamaHost, "mcp", cfg.MCPServerURL)
		errCh <- httpServer.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stop:
		logger.Info("shutting down", "signal", sig.String())
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
}
