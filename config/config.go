// Package config loads service settings from an optional TOML file and the
// environment. Environment variables override the file; a .env file in the
// working directory is loaded first.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// DefaultInstruction is the base system prompt when DEFAULT_INSTRUCTION is
// not set.
const DefaultInstruction = "You are the Todea workspace assistant. Think out loud, then answer concisely.\n" +
	"You have tools for managing Buoyant Enterprise Linkerd (BEL) on Kubernetes.\n\n" +
	"TOOL CALL RULES — follow these exactly:\n" +
	"- Status / health check: call 'linkerd_check' or 'helm_status'. No arguments needed for linkerd_check.\n" +
	"- Install Linkerd: follow this sequence in order, stop on any error:\n" +
	"    1. helm_repo_add                — call with NO arguments (defaults are correct)\n" +
	"    2. install_gateway_api_crds     — pass 'version' (e.g. '2.19.4')\n" +
	"    3. helm_install_linkerd_crds    — pass 'version'\n" +
	"    4. install_linkerd_control_plane — pass 'version' and 'license_key' ONLY\n" +
	"    5. linkerd_check                — call with NO arguments to verify\n" +
	"NEVER call generate_certificates or helm_install_linkerd_control_plane directly during an install — use install_linkerd_control_plane instead.\n" +
	"Before starting an install, ask the user for the BEL version and license key if not provided.\n" +
	"- Upgrade Linkerd: call helm_repo_add (no args), then helm_upgrade_linkerd.\n" +
	"- Uninstall: call helm_status first to discover release names, then helm_uninstall_linkerd.\n\n" +
	"NEVER call helm_*, linkerd_*, install_*, or generate_* tools in a different order than shown above.\n" +
	"NEVER use the 'chat' tool.\n" +
	"When calling any tool with no required arguments, pass an empty argument list."

// Config carries all service settings.
type Config struct {
	Port               int
	AllowOrigins       []string
	OllamaHost         string
	DefaultModel       string
	ModelRefresh       time.Duration
	MCPServerURL       string
	ToolRefresh        time.Duration
	MaxToolIterations  int
	ConversationHubURL string
	Instruction        string
}

// ListenAddr returns the address the HTTP server binds to.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// fileConfig is the optional TOML settings file shape.
type fileConfig struct {
	Port         int      `toml:"port,omitempty"`
	AllowOrigins []string `toml:"allow_origins,omitempty"`

	Ollama struct {
		Host                string `toml:"host,omitempty"`
		DefaultModel        string `toml:"default_model,omitempty"`
		ModelRefreshSeconds int    `toml:"model_refresh_seconds,omitempty"`
	} `toml:"ollama"`

	MCP struct {
		ServerURL          string `toml:"server_url,omitempty"`
		ToolRefreshSeconds int    `toml:"tool_refresh_seconds,omitempty"`
	} `toml:"mcp"`

	MaxToolIterations  int    `toml:"max_tool_iterations,omitempty"`
	ConversationHubURL string `toml:"conversation_hub_url,omitempty"`
	Instruction        string `toml:"instruction,omitempty"`
}

// Load builds the Config from defaults, the settings file, and the
// environment, in that order.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:               3200,
		AllowOrigins:       []string{"*"},
		OllamaHost:         "http://localhost:11434",
		DefaultModel:       "llama3.1:8b",
		ModelRefresh:       60 * time.Second,
		MCPServerURL:       "http://localhost:3002/mcp",
		ToolRefresh:        300 * time.Second,
		MaxToolIterations:  10,
		ConversationHubURL: "http://localhost:3300",
		Instruction:        DefaultInstruction,
	}

	if err := applyFile(cfg); err != nil {
		return nil, err
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func settingsPath() string {
	if path := os.Getenv("MESHHUB_CONFIG"); path != "" {
		return path
	}
	return "meshhub.toml"
}

func applyFile(cfg *Config) error {
	path := settingsPath()
	if _, err := os.Stat(path); err != nil {
		if os.Getenv("MESHHUB_CONFIG") != "" {
			return fmt.Errorf("settings file %s: %w", path, err)
		}
		return nil
	}

	var file fileConfig
	if _, err := toml.DecodeFile(path, &file); err != nil {
		return fmt.Errorf("parse settings file %s: %w", path, err)
	}

	if file.Port != 0 {
		cfg.Port = file.Port
	}
	if len(file.AllowOrigins) > 0 {
		cfg.AllowOrigins = file.AllowOrigins
	}
	if file.Ollama.Host != "" {
		cfg.OllamaHost = file.Ollama.Host
	}
	if file.Ollama.DefaultModel != "" {
		cfg.DefaultModel = file.Ollama.DefaultModel
	}
	if file.Ollama.ModelRefreshSeconds > 0 {
		cfg.ModelRefresh = time.Duration(file.Ollama.ModelRefreshSeconds) * time.Second
	}
	if file.MCP.ServerURL != "" {
		cfg.MCPServerURL = file.MCP.ServerURL
	}
	if file.MCP.ToolRefreshSeconds > 0 {
		cfg.ToolRefresh = time.Duration(file.MCP.ToolRefreshSeconds) * time.Second
	}
	if file.MaxToolIterations > 0 {
		cfg.MaxToolIterations = file.MaxToolIterations
	}
	if file.ConversationHubURL != "" {
		cfg.ConversationHubURL = file.ConversationHubURL
	}
	if file.Instruction != "" {
		cfg.Instruction = file.Instruction
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		cfg.Port = port
	}
	if v := os.Getenv("ALLOW_ORIGINS"); v != "" {
		var origins []string
		for _, origin := range strings.Split(v, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				origins = append(origins, origin)
			}
		}
		if len(origins) > 0 {
			cfg.AllowOrigins = origins
		}
	}
	if v := os.Getenv("OLLAMA_HOST"); v != "" {
		cfg.OllamaHost = v
	}
	// AGENT_MODEL_OLLAMA wins over the older OLLAMA_MODEL name.
	if v := os.Getenv("OLLAMA_MODEL"); v != "" {
		cfg.DefaultModel = v
	}
	if v := os.Getenv("AGENT_MODEL_OLLAMA"); v != "" {
		cfg.DefaultModel = v
	}
	if err := envSeconds("MODEL_REFRESH_SECONDS", &cfg.ModelRefresh); err != nil {
		return err
	}
	if v := os.Getenv("MCP_SERVER_URL"); v != "" {
		cfg.MCPServerURL = v
	}
	if err := envSeconds("TOOL_REFRESH_SECONDS", &cfg.ToolRefresh); err != nil {
		return err
	}
	if v := os.Getenv("MAX_TOOL_ITERATIONS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid MAX_TOOL_ITERATIONS %q: %w", v, err)
		}
		cfg.MaxToolIterations = n
	}
	if v := os.Getenv("CONVERSATION_HUB_URL"); v != "" {
		cfg.ConversationHubURL = v
	}
	if v := os.Getenv("DEFAULT_INSTRUCTION"); v != "" {
		cfg.Instruction = v
	}
	return nil
}

func envSeconds(name string, dst *time.Duration) error {
	v := os.Getenv(name)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", name, v, err)
	}
	*dst = time.Duration(n) * time.Second
	return nil
}
