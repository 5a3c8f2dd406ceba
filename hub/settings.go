package hub

import (
	"encoding/json"
	"net/http"
	"strings"
)

// The settings routes are stubs that keep the shared web UI working; the
// Ollama hub needs no API key and does not use cluster settings.

// ClusterSettingsRequest is the body of POST /settings/cluster.
type ClusterSettingsRequest struct {
	KubeServer string `json:"kube_server"`
}

func (s *Server) handleSaveSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "noop",
		"message": "No API key required for Ollama.",
	})
}

func (s *Server) handleSettingsStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"exists": true})
}

func (s *Server) handleGetClusterSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"kube_server": ""})
}

func (s *Server) handleSaveClusterSettings(w http.ResponseWriter, r *http.Request) {
	var req ClusterSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body.")
		return
	}
	// Echo the value to satisfy the UI; it is not used by the service.
	writeJSON(w, http.StatusOK, map[string]string{"kube_server": strings.TrimSpace(req.KubeServer)})
}
