package turn

import (
	"testing"

	"github.com/centaurus-ai/roundtable/pkg/core/session"
)

func roster() *session.Session {
	return &session.Session{
		Participants: []session.Participant{
			{ID: session.ModeratorID, Name: "Moderator"},
			{ID: "a1", Name: "Alice"},
			{ID: "a2", Name: "Bob"},
			{ID: "h1", Name: "Sam", Kind: session.ParticipantHuman},
		},
	}
}

func TestHandoffTarget_LastSentenceWins(t *testing.T) {
	s := roster()
	mod := s.Participants[0]

	text := "Alice raised a good point earlier. Bob, what is your view?"
	got, ok := HandoffTarget(s, mod, text)
	if !ok || got != 2 {
		t.Errorf("HandoffTarget = (%d, %v), want Bob at index 2", got, ok)
	}
}

func TestHandoffTarget_NonModeratorNeverRedirects(t *testing.T) {
	s := roster()
	alice := s.Participants[1]

	if _, ok := HandoffTarget(s, alice, "Bob, over to you."); ok {
		t.Error("only moderators may hand off the turn")
	}
}

func TestHandoffTarget_SelfMentionIgnored(t *testing.T) {
	s := roster()
	mod := s.Participants[0]

	if _, ok := HandoffTarget(s, mod, "As Moderator I will summarize."); ok {
		t.Error("the speaker must never hand off to itself")
	}
}

func TestHandoffTarget_HumanMatchesLiteralHuman(t *testing.T) {
	s := roster()
	mod := s.Participants[0]

	got, ok := HandoffTarget(s, mod, "I would like the Human to weigh in now.")
	if !ok || got != 3 {
		t.Errorf("HandoffTarget = (%d, %v), want the human seat at index 3", got, ok)
	}
}

func TestHandoffTarget_BracketFallback(t *testing.T) {
	s := roster()
	mod := s.Participants[0]

	// The name appears only in brackets mid-text, not in the last
	// sentence.
	text := "Let us hear from [Alice] on this. The budget remains open."
	got, ok := HandoffTarget(s, mod, text)
	if !ok || got != 1 {
		t.Errorf("HandoffTarget = (%d, %v), want Alice via bracket mention", got, ok)
	}
}

func TestHandoffTarget_EarlierSeatBracketBeatsLaterSeatName(t *testing.T) {
	s := roster()
	mod := s.Participants[0]

	// One scan over the roster: Alice's bracket mention resolves at her
	// seat before Bob's last-sentence name is ever considered.
	text := "I want [Alice] to take this. Bob, hold that thought"
	got, ok := HandoffTarget(s, mod, text)
	if !ok || got != 1 {
		t.Errorf("HandoffTarget = (%d, %v), want Alice at index 1", got, ok)
	}
}

func TestHandoffTarget_RosterOrderBreaksTies(t *testing.T) {
	s := roster()
	mod := s.Participants[0]

	got, ok := HandoffTarget(s, mod, "Alice and Bob should both respond?")
	if !ok || got != 1 {
		t.Errorf("HandoffTarget = (%d, %v), want the earliest roster match", got, ok)
	}
}

func TestHandoffTarget_NoMention(t *testing.T) {
	s := roster()
	mod := s.Participants[0]

	if _, ok := HandoffTarget(s, mod, "Let us move to the next item."); ok {
		t.Error("text without a participant name must not redirect")
	}
}

func TestHandoffTarget_PersianDelimiter(t *testing.T) {
	s := roster()
	mod := s.Participants[0]

	got, ok := HandoffTarget(s, mod, "بحث خوبی بود. Bob نظر شما چیست؟")
	if !ok || got != 2 {
		t.Errorf("HandoffTarget = (%d, %v), want Bob from the Persian question", got, ok)
	}
}

func TestLastSentence(t *testing.T) {
	if got := lastSentence("One. Two! Three?"); got != "Three" {
		t.Errorf("lastSentence = %q, want Three", got)
	}
	if got := lastSentence(""); got != "" {
		t.Errorf("lastSentence of empty = %q", got)
	}
	if got := lastSentence("Trailing delimiter."); got != "Trailing delimiter" {
		t.Errorf("lastSentence = %q", got)
	}
}
