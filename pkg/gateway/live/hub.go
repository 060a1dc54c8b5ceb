package live

import (
	"encoding/base64"
	"log/slog"
	"sync"
	"time"

	"github.com/centaurus-ai/roundtable/pkg/core/session"
	"github.com/centaurus-ai/roundtable/pkg/core/turn"
	"github.com/centaurus-ai/roundtable/pkg/core/voice"
)

// subscriber is one connected feed client.
type subscriber struct {
	priority chan []byte
	normal   chan []byte
}

// Hub fans session events out to feed subscribers. It implements the
// engine's Sink, the report Notifier, and the audio sink for the
// playback device, so one object carries every event source to the
// browser.
type Hub struct {
	logger *slog.Logger

	mu   sync.RWMutex
	subs map[string]map[*subscriber]struct{}
}

// NewHub creates an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		logger: logger.With("component", "live"),
		subs:   make(map[string]map[*subscriber]struct{}),
	}
}

// Subscribe registers a feed client for a session. The returned cancel
// func must be called when the connection closes.
func (h *Hub) Subscribe(sessionID string) (*subscriber, func()) {
	sub := &subscriber{
		priority: make(chan []byte, 64),
		normal:   make(chan []byte, 256),
	}
	h.mu.Lock()
	if h.subs[sessionID] == nil {
		h.subs[sessionID] = make(map[*subscriber]struct{})
	}
	h.subs[sessionID][sub] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		delete(h.subs[sessionID], sub)
		if len(h.subs[sessionID]) == 0 {
			delete(h.subs, sessionID)
		}
		h.mu.Unlock()
	}
	return sub, cancel
}

// Publish sends a frame to every subscriber of the session. Slow
// consumers lose frames rather than stall the engine.
func (h *Hub) Publish(f Frame) {
	payload, err := f.encode()
	if err != nil {
		h.logger.Warn("frame encode failed", "type", f.Type, "err", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs[f.SessionID] {
		ch := sub.normal
		if f.priority() {
			ch = sub.priority
		}
		select {
		case ch <- payload:
		default:
			h.logger.Debug("dropping frame for slow subscriber", "type", f.Type)
		}
	}
}

// TurnState implements turn.Sink.
func (h *Hub) TurnState(sessionID string, state turn.State) {
	h.Publish(Frame{Type: FrameTurnState, SessionID: sessionID, State: string(state)})
}

// GhostStart implements turn.Sink.
func (h *Hub) GhostStart(sessionID, participantID string) {
	h.Publish(Frame{Type: FrameGhostStart, SessionID: sessionID, ParticipantID: participantID})
}

// Ghost implements turn.Sink.
func (h *Hub) Ghost(sessionID, participantID, delta string) {
	h.Publish(Frame{Type: FrameGhost, SessionID: sessionID, ParticipantID: participantID, Delta: delta})
}

// Committed implements turn.Sink.
func (h *Hub) Committed(sessionID string, msg session.Message) {
	h.Publish(Frame{Type: FrameMessage, SessionID: sessionID, Message: &msg})
}

// Notice implements turn.Sink.
func (h *Hub) Notice(sessionID, kind string) {
	h.Publish(Frame{Type: FrameNotice, SessionID: sessionID, Kind: kind})
}

// ReportUpdated implements report.Notifier.
func (h *Hub) ReportUpdated(sessionID string, r *session.Report) {
	h.Publish(Frame{Type: FrameReport, SessionID: sessionID, Report: r})
}

// AudioSink returns a playback-device sink that forwards scheduled
// chunks to the session's feed.
func (h *Hub) AudioSink(sessionID string) func(pcm []float32, sampleRate int, at time.Duration) {
	return func(pcm []float32, sampleRate int, at time.Duration) {
		h.Publish(Frame{
			Type:       FrameAudio,
			SessionID:  sessionID,
			Audio:      base64.StdEncoding.EncodeToString(voice.EncodePCM16(pcm)),
			SampleRate: sampleRate,
			StartMS:    at.Milliseconds(),
		})
	}
}
