package handlers

import (
	"net/http"
	"os"

	"github.com/centaurus-ai/roundtable/pkg/core"
	"github.com/centaurus-ai/roundtable/pkg/core/session"
	"github.com/centaurus-ai/roundtable/pkg/core/turn"
	"github.com/centaurus-ai/roundtable/pkg/gateway/runtime"
)

// CreateSessionHandler starts a new round table.
type CreateSessionHandler struct {
	Manager      *runtime.Manager
	MaxBodyBytes int64
}

type createSessionRequest struct {
	Topic        string                `json:"topic"`
	Participants []session.Participant `json:"participants"`
	Mode         session.Mode          `json:"mode,omitempty"`
	Complexity   int                   `json:"complexity,omitempty"`
	Duration     int                   `json:"duration,omitempty"`
}

func (h CreateSessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeJSON(r, h.MaxBodyBytes, &req); err != nil {
		writeError(w, r, err)
		return
	}

	s, err := h.Manager.Create(r.Context(), runtime.CreateParams{
		Topic:        req.Topic,
		Participants: req.Participants,
		Mode:         req.Mode,
		Complexity:   req.Complexity,
		Duration:     req.Duration,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, s)
}

// GetSessionHandler returns a session snapshot.
type GetSessionHandler struct {
	Store *session.Store
}

func (h GetSessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s, ok := h.Store.Get(r.PathValue("id"))
	if !ok {
		writeError(w, r, core.NewNotFoundError("session not found"))
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// SessionActionHandler routes pause, resume and complete.
type SessionActionHandler struct {
	Manager *runtime.Manager
	Action  string // "pause" | "resume" | "complete"
}

func (h SessionActionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var err error
	switch h.Action {
	case "pause":
		err = h.Manager.Pause(id)
	case "resume":
		err = h.Manager.Resume(id)
	case "complete":
		err = h.Manager.Complete(id)
	default:
		err = core.NewInvalidRequestError("unknown action: " + h.Action)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// InterjectHandler submits a human message into a running table.
type InterjectHandler struct {
	Manager      *runtime.Manager
	MaxBodyBytes int64
}

type interjectRequest struct {
	Text      string   `json:"text"`
	TargetIDs []string `json:"targetIds,omitempty"`
	Approve   bool     `json:"approve"`
}

func (h InterjectHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req interjectRequest
	if err := decodeJSON(r, h.MaxBodyBytes, &req); err != nil {
		writeError(w, r, err)
		return
	}
	err := h.Manager.Interject(r.PathValue("id"), turn.Interjection{
		Text:      req.Text,
		TargetIDs: req.TargetIDs,
		Approve:   req.Approve,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

// SessionReportHandler returns the session's live report.
type SessionReportHandler struct {
	Store *session.Store
}

func (h SessionReportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s, ok := h.Store.Get(r.PathValue("id"))
	if !ok {
		writeError(w, r, core.NewNotFoundError("session not found"))
		return
	}
	if s.LiveReport == nil {
		writeError(w, r, core.NewNotFoundError("no report generated yet"))
		return
	}
	writeJSON(w, http.StatusOK, s.LiveReport)
}

// RecordingHandler serves the finished session recording as WAV.
type RecordingHandler struct {
	Store *session.Store
}

func (h RecordingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s, ok := h.Store.Get(r.PathValue("id"))
	if !ok {
		writeError(w, r, core.NewNotFoundError("session not found"))
		return
	}
	if s.RecordingPath == "" {
		writeError(w, r, core.NewNotFoundError("no recording for this session"))
		return
	}
	f, err := os.Open(s.RecordingPath)
	if err != nil {
		writeError(w, r, core.NewNotFoundError("recording file is missing"))
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "audio/wav")
	http.ServeContent(w, r, s.ID+".wav", s.CreatedAt, f)
}
