package handlers

import (
	"net/http"

	"github.com/centaurus-ai/roundtable/pkg/core"
	"github.com/centaurus-ai/roundtable/pkg/gateway/storage"
)

// settingKeys is the allowlist of persisted settings.
var settingKeys = map[string]bool{
	storage.SettingTheme: true,
	storage.SettingProxy: true,
}

// SettingsHandler reads and writes persisted key/value settings.
type SettingsHandler struct {
	DB           *storage.Store
	MaxBodyBytes int64
}

func (h SettingsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.DB == nil {
		writeError(w, r, core.NewInvalidRequestError("persistence is not configured"))
		return
	}
	key := r.PathValue("key")
	if !settingKeys[key] {
		writeError(w, r, core.NewNotFoundError("unknown setting: "+key))
		return
	}

	switch r.Method {
	case http.MethodGet:
		value, ok, err := h.DB.Setting(key)
		if err != nil {
			writeError(w, r, core.NewAPIError("loading setting failed: "+err.Error()))
			return
		}
		if !ok {
			writeError(w, r, core.NewNotFoundError("setting is not set: "+key))
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"key": key, "value": value})
	case http.MethodPut:
		var req struct {
			Value string `json:"value"`
		}
		if err := decodeJSON(r, h.MaxBodyBytes, &req); err != nil {
			writeError(w, r, err)
			return
		}
		if err := h.DB.SetSetting(key, req.Value); err != nil {
			writeError(w, r, core.NewAPIError("saving setting failed: "+err.Error()))
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"key": key, "value": req.Value})
	default:
		writeError(w, r, core.NewInvalidRequestError("method not allowed"))
	}
}
