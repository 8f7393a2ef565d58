package handlers

import (
	"net/http"

	"categorydesk/internal/services"
	"categorydesk/internal/sessions"
	"categorydesk/internal/utils"
)

type CommonHandler struct {
	apiURL   string
	monitor  *services.Monitor
	registry *sessions.Registry
}

// NewCommonHandler builds the health endpoint. monitor and registry may be nil.
func NewCommonHandler(apiURL string, monitor *services.Monitor, registry *sessions.Registry) *CommonHandler {
	return &CommonHandler{apiURL: apiURL, monitor: monitor, registry: registry}
}

func (h *CommonHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{"status": "up"}

	if h.monitor != nil {
		reachable, checked := h.monitor.Reachable()
		if !checked {
			reachable = h.monitor.Check(r.Context())
		}
		api := "down"
		if reachable {
			api = "up"
		}
		resp["api"] = api
		resp["api_url"] = h.apiURL
	}
	if h.registry != nil {
		resp["workspaces"] = h.registry.Len()
	}

	utils.RespondWithJSON(w, http.StatusOK, resp)
}
