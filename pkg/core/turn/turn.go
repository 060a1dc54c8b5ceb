// Package turn runs the round table: the tick-driven turn engine, the
// streaming response coordinator and moderator hand-off parsing.
package turn

import (
	"context"

	"github.com/centaurus-ai/roundtable/pkg/core/session"
)

// State is the engine's explicit turn state.
type State string

const (
	StateIdle          State = "idle"
	StatePaused        State = "paused"
	StateThinking      State = "thinking"
	StateGenerating    State = "generating"
	StateAwaitingHuman State = "awaiting_human"
	StateInterjecting  State = "interjecting"
	StateCompleted     State = "completed"
)

// Notice kinds surfaced to the live feed.
const (
	NoticeWaitingForQuota = "waiting_for_quota"
	NoticeHumanTurn       = "human_turn"
)

// GenerationFailedText is committed verbatim when generation retries
// are exhausted, so the table keeps moving.
const GenerationFailedText = "Error generating response."

// TextStream iterates text deltas from a generation backend.
type TextStream interface {
	Next() (string, error)
	Close() error
}

// GenRequest describes one turn generation.
type GenRequest struct {
	System      string
	Prompt      string
	Temperature float64
}

// Generator streams a participant's response.
type Generator interface {
	StreamGenerate(ctx context.Context, req GenRequest) (TextStream, error)
}

// Speech is the voice-mode surface the engine needs. voice.Pipeline
// implements it.
type Speech interface {
	Speak(text, voice string)
	PendingCount() int
	Cancel()
	Notify()
}

// Sink receives engine events for the live feed. Implementations must
// not block.
type Sink interface {
	TurnState(sessionID string, state State)
	GhostStart(sessionID, participantID string)
	Ghost(sessionID, participantID, delta string)
	Committed(sessionID string, msg session.Message)
	Notice(sessionID, kind string)
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) TurnState(string, State)           {}
func (NopSink) GhostStart(string, string)         {}
func (NopSink) Ghost(string, string, string)      {}
func (NopSink) Committed(string, session.Message) {}
func (NopSink) Notice(string, string)             {}
