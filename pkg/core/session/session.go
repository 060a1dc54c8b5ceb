// Package session defines the round table data model and its store.
package session

import (
	"strings"
	"time"
)

// ParticipantKind tags the participant variant.
type ParticipantKind string

const (
	ParticipantAI     ParticipantKind = "ai"
	ParticipantHuman  ParticipantKind = "human"
	ParticipantExpert ParticipantKind = "expert"
)

// Reserved participant IDs. The moderator seat and the human architect
// seat carry fixed IDs so role checks survive roster edits.
const (
	ModeratorID      = "mod_1"
	HumanArchitectID = "h-1"
)

// RoleModerator is the cognitive role that grants hand-off authority.
const RoleModerator = "Moderator"

// Participant is a seat at the table. AI agents, the human architect
// and invited experts share the same shape; Kind discriminates.
type Participant struct {
	ID             string          `json:"id"`
	Kind           ParticipantKind `json:"kind"`
	Name           string          `json:"name"`
	SystemPrompt   string          `json:"systemPrompt,omitempty"`
	Personality    string          `json:"personality,omitempty"`
	CognitiveRoles []string        `json:"cognitiveRoles,omitempty"`
	Voice          string          `json:"voice,omitempty"`
	Color          string          `json:"color,omitempty"`
	Icon           string          `json:"icon,omitempty"`
}

// IsHuman reports whether this seat is driven by a person.
func (p Participant) IsHuman() bool {
	return p.Kind == ParticipantHuman
}

// IsModerator reports whether this participant may redirect the turn
// pointer by naming the next speaker.
func (p Participant) IsModerator() bool {
	if p.ID == ModeratorID || p.ID == HumanArchitectID {
		return true
	}
	for _, r := range p.CognitiveRoles {
		if r == RoleModerator {
			return true
		}
	}
	return false
}

// MessageStatus is the moderation status of a committed message.
type MessageStatus string

const (
	StatusPending  MessageStatus = "pending"
	StatusApproved MessageStatus = "approved"
	StatusRejected MessageStatus = "rejected"
	StatusUser     MessageStatus = "user"
)

// Message is one transcript entry.
type Message struct {
	ID              string        `json:"id"`
	ParticipantID   string        `json:"participantId"`
	ParticipantName string        `json:"participantName"`
	Text            string        `json:"text"`
	Timestamp       time.Time     `json:"timestamp"`
	Role            string        `json:"role"` // assistant | user | system
	Status          MessageStatus `json:"status"`
	TargetIDs       []string      `json:"targetIds,omitempty"`
	Interjection    bool          `json:"interjection,omitempty"`
}

// Committed reports whether the message is part of the shared record
// that later turns build on. Rejected and pending entries are not.
func (m Message) Committed() bool {
	return m.Status == StatusApproved || m.Status == StatusUser
}

// Status of a session.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

// Mode selects whether committed text is also spoken.
type Mode string

const (
	ModeText  Mode = "text"
	ModeVoice Mode = "voice"
)

// DefaultMaxRounds caps how many full circuits a table may run.
const DefaultMaxRounds = 100

// Session is the whole-table state. It is always replaced as a unit;
// no code path writes individual fields into the store.
type Session struct {
	ID            string        `json:"id"`
	Topic         string        `json:"topic"`
	Participants  []Participant `json:"participants"`
	Messages      []Message     `json:"messages"`
	Status        Status        `json:"status"`
	TurnIndex     int           `json:"turnIndex"`
	Round         int           `json:"round"`
	MaxRounds     int           `json:"maxRounds"`
	Running       bool          `json:"running"`
	Mode          Mode          `json:"mode"`
	Complexity    int           `json:"complexity"` // 1..5
	TimeRemaining int           `json:"timeRemaining"`
	LiveReport    *Report       `json:"liveReport,omitempty"`
	RecordingPath string        `json:"recordingPath,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
}

// CurrentParticipant returns the seat the turn pointer rests on.
func (s *Session) CurrentParticipant() (Participant, bool) {
	if len(s.Participants) == 0 {
		return Participant{}, false
	}
	i := s.TurnIndex
	if i < 0 || i >= len(s.Participants) {
		return Participant{}, false
	}
	return s.Participants[i], true
}

// LastCommitted returns the most recent approved or user message.
func (s *Session) LastCommitted() (Message, bool) {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Committed() {
			return s.Messages[i], true
		}
	}
	return Message{}, false
}

// ParticipantIndex returns the roster index of the given participant ID.
func (s *Session) ParticipantIndex(id string) (int, bool) {
	for i, p := range s.Participants {
		if p.ID == id {
			return i, true
		}
	}
	return 0, false
}

// Clone returns a deep copy. Store hands out clones so no caller ever
// aliases live state across a suspension point.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.Participants = make([]Participant, len(s.Participants))
	copy(out.Participants, s.Participants)
	out.Messages = make([]Message, len(s.Messages))
	for i, m := range s.Messages {
		out.Messages[i] = m
		if len(m.TargetIDs) > 0 {
			out.Messages[i].TargetIDs = append([]string(nil), m.TargetIDs...)
		}
	}
	if s.LiveReport != nil {
		out.LiveReport = s.LiveReport.Clone()
	}
	return &out
}

// SuggestedDuration returns the default session length in seconds for a
// table of n participants at the given complexity, floored at 5 minutes.
func SuggestedDuration(n, complexity int) int {
	if complexity < 1 {
		complexity = 1
	}
	d := n * 60 * complexity / 2
	if d < 300 {
		return 300
	}
	return d
}

// ContributionStats returns spoken word counts per participant ID,
// counting committed messages only.
func (s *Session) ContributionStats() map[string]int {
	stats := make(map[string]int, len(s.Participants))
	for _, p := range s.Participants {
		stats[p.ID] = 0
	}
	for _, m := range s.Messages {
		if !m.Committed() {
			continue
		}
		stats[m.ParticipantID] += len(strings.Fields(m.Text))
	}
	return stats
}

// Voices is the prebuilt TTS voice rotation assigned round-robin when a
// table is created.
var Voices = []string{"Zephyr", "Puck", "Charon", "Kore", "Fenrir", "Leda", "Orus", "Aoede"}

// AssignVoices fills in a voice for every participant that lacks one,
// rotating through the prebuilt list in roster order.
func AssignVoices(participants []Participant) {
	for i := range participants {
		if participants[i].Voice == "" {
			participants[i].Voice = Voices[i%len(Voices)]
		}
	}
}
