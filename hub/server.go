// Package hub exposes the chat service over HTTP: the chat endpoints backed
// by the tool loop, the cached model list, a proxy for the conversation-hub
// CRUD routes, and the settings stubs the web UI expects.
package hub

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/rs/cors"

	"github.com/todea/meshhub/convhub"
	"github.com/todea/meshhub/llm"
	"github.com/todea/meshhub/toolloop"
)

// ProviderID identifies this hub to its clients.
const ProviderID = "ollama"

// Options configures a Server.
type Options struct {
	Loop          *toolloop.Loop
	Models        *llm.ModelCache
	Conversations *convhub.Client
	DefaultModel  string
	AllowOrigins  []string
	Logger        *slog.Logger
}

// Server routes HTTP requests to the loop and its collaborators.
type Server struct {
	loop          *toolloop.Loop
	models        *llm.ModelCache
	conversations *convhub.Client
	defaultModel  string
	allowOrigins  []string
	logger        *slog.Logger
	locks         *sessionLocks
}

// New creates a Server.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		loop:          opts.Loop,
		models:        opts.Models,
		conversations: opts.Conversations,
		defaultModel:  opts.DefaultModel,
		allowOrigins:  opts.AllowOrigins,
		logger:        logger,
		locks:         newSessionLocks(),
	}
}

// Handler returns the full HTTP handler, CORS included.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /chat", s.handleChat)
	mux.HandleFunc("POST /chat/stream", s.handleChatStream)
	mux.HandleFunc("GET /models", s.handleModels)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	mux.HandleFunc("GET /conversations", s.handleListConversations)
	mux.HandleFunc("POST /conversations", s.handleCreateConversation)
	mux.HandleFunc("GET /conversations/{id}", s.handleGetConversation)
	mux.HandleFunc("PATCH /conversations/{id}", s.handleUpdateConversation)
	mux.HandleFunc("DELETE /conversations/{id}", s.handleDeleteConversation)

	mux.HandleFunc("POST /settings", s.handleSaveSettings)
	mux.HandleFunc("GET /settings/status", s.handleSettingsStatus)
	mux.HandleFunc("GET /settings/cluster", s.handleGetClusterSettings)
	mux.HandleFunc("POST /settings/cluster", s.handleSaveClusterSettings)

	c := cors.New(cors.Options{
		AllowedOrigins:   s.allowOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})
	return c.Handler(mux)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
