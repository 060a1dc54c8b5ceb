// Package live streams session events to browsers over WebSocket.
package live

import (
	"encoding/json"

	"github.com/centaurus-ai/roundtable/pkg/core/session"
)

// Frame types, in the order a client typically sees them.
const (
	FrameSession    = "session"     // full snapshot, sent on subscribe
	FrameTurnState  = "turn_state"  // engine state change
	FrameGhostStart = "ghost_start" // a participant began streaming
	FrameGhost      = "ghost"       // streaming text delta
	FrameMessage    = "message"     // committed transcript entry
	FrameAudio      = "audio"       // scheduled playback chunk
	FrameReport     = "report"      // refreshed live report
	FrameNotice     = "notice"      // human_turn, waiting_for_quota
)

// Frame is one event on the feed.
type Frame struct {
	Type          string           `json:"type"`
	SessionID     string           `json:"sessionId"`
	ParticipantID string           `json:"participantId,omitempty"`
	Delta         string           `json:"delta,omitempty"`
	State         string           `json:"state,omitempty"`
	Kind          string           `json:"kind,omitempty"`
	Message       *session.Message `json:"message,omitempty"`
	Session       *session.Session `json:"session,omitempty"`
	Report        *session.Report  `json:"report,omitempty"`

	// Audio frames: base64 PCM16 plus where on the playback clock the
	// chunk starts, in milliseconds.
	Audio      string `json:"audio,omitempty"`
	SampleRate int    `json:"sampleRate,omitempty"`
	StartMS    int64  `json:"startMs,omitempty"`
}

func (f Frame) encode() ([]byte, error) {
	return json.Marshal(f)
}

// priority reports whether a frame must preempt transcript traffic.
// Control frames keep the client's view of the table honest even when
// audio floods the socket.
func (f Frame) priority() bool {
	switch f.Type {
	case FrameSession, FrameTurnState, FrameNotice, FrameMessage:
		return true
	default:
		return false
	}
}
