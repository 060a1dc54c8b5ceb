package handlers

import (
	"net/http"

	"github.com/centaurus-ai/roundtable/pkg/core"
	"github.com/centaurus-ai/roundtable/pkg/core/session"
	"github.com/centaurus-ai/roundtable/pkg/gateway/storage"
)

// AgentsHandler persists the saved agent roster.
type AgentsHandler struct {
	DB           *storage.Store
	MaxBodyBytes int64
}

func (h AgentsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.DB == nil {
		writeError(w, r, core.NewInvalidRequestError("persistence is not configured"))
		return
	}
	switch r.Method {
	case http.MethodGet:
		agents, err := h.DB.Agents()
		if err != nil {
			writeError(w, r, core.NewAPIError("loading agents failed: "+err.Error()))
			return
		}
		if agents == nil {
			agents = []session.Participant{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"agents": agents})
	case http.MethodPut:
		var req struct {
			Agents []session.Participant `json:"agents"`
		}
		if err := decodeJSON(r, h.MaxBodyBytes, &req); err != nil {
			writeError(w, r, err)
			return
		}
		for _, a := range req.Agents {
			if a.ID == "" || a.Name == "" {
				writeError(w, r, core.NewInvalidRequestError("each agent needs an id and a name"))
				return
			}
		}
		if err := h.DB.SaveAgents(req.Agents); err != nil {
			writeError(w, r, core.NewAPIError("saving agents failed: "+err.Error()))
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	default:
		writeError(w, r, core.NewInvalidRequestError("method not allowed"))
	}
}
