package live

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/centaurus-ai/roundtable/pkg/core/session"
)

// FeedHandler upgrades /v1/sessions/{id}/feed to a WebSocket and
// streams the session's event feed.
type FeedHandler struct {
	Hub            *Hub
	Store          *session.Store
	AllowedOrigins map[string]struct{}
	PingInterval   time.Duration
	WriteTimeout   time.Duration
	Logger         *slog.Logger
}

func (h FeedHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := h.Logger
	if logger == nil {
		logger = slog.Default()
	}

	id := r.PathValue("id")
	snap, ok := h.Store.Get(id)
	if !ok {
		http.NotFound(w, r)
		return
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			if len(h.AllowedOrigins) == 0 {
				return true
			}
			_, ok := h.AllowedOrigins[origin]
			return ok
		},
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("feed upgrade failed", "err", err)
		return
	}

	sub, unsubscribe := h.Hub.Subscribe(id)
	defer unsubscribe()

	// The snapshot goes first so the client renders before any deltas.
	if payload, err := (Frame{Type: FrameSession, SessionID: id, Session: snap}).encode(); err == nil {
		sub.priority <- payload
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Reader: the feed is one-way; we only watch for close.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	writer := &feedWriter{
		ws:           conn,
		ctx:          ctx,
		pingInterval: h.PingInterval,
		writeTimeout: h.WriteTimeout,
		priority:     sub.priority,
		normal:       sub.normal,
	}
	if err := writer.Run(); err != nil {
		logger.Debug("feed writer closed", "session", id, "err", err)
	}
	_ = conn.Close()
}
