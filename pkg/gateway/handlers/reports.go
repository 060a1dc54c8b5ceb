package handlers

import (
	"net/http"

	"github.com/centaurus-ai/roundtable/pkg/core"
	"github.com/centaurus-ai/roundtable/pkg/core/session"
	"github.com/centaurus-ai/roundtable/pkg/gateway/storage"
)

// ListReportsHandler returns all saved reports, newest first.
type ListReportsHandler struct {
	DB *storage.Store
}

func (h ListReportsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.DB == nil {
		writeError(w, r, core.NewInvalidRequestError("persistence is not configured"))
		return
	}
	reports, err := h.DB.Reports()
	if err != nil {
		writeError(w, r, core.NewAPIError("loading reports failed: "+err.Error()))
		return
	}
	if reports == nil {
		reports = []*session.Report{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"reports": reports})
}

// GetReportHandler returns one saved report by session ID.
type GetReportHandler struct {
	DB *storage.Store
}

func (h GetReportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.DB == nil {
		writeError(w, r, core.NewInvalidRequestError("persistence is not configured"))
		return
	}
	rep, ok, err := h.DB.Report(r.PathValue("sessionID"))
	if err != nil {
		writeError(w, r, core.NewAPIError("loading report failed: "+err.Error()))
		return
	}
	if !ok {
		writeError(w, r, core.NewNotFoundError("report not found"))
		return
	}
	writeJSON(w, http.StatusOK, rep)
}
