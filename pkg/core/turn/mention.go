package turn

import (
	"strings"

	"github.com/centaurus-ai/roundtable/pkg/core/session"
)

// sentenceDelims terminate a sentence for hand-off scanning. The Arabic
// question mark covers Persian text.
func isDelim(r rune) bool {
	return r == '.' || r == '!' || r == '?' || r == '؟' || r == '\n'
}

// splitSentences splits text on sentence delimiters, dropping blanks.
func splitSentences(text string) []string {
	parts := strings.FieldsFunc(text, isDelim)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// lastSentence returns the final non-blank sentence of text.
func lastSentence(text string) string {
	parts := splitSentences(text)
	if len(parts) == 0 {
		return ""
	}
	return parts[len(parts)-1]
}

// HandoffTarget resolves an explicit moderator hand-off in the given
// text. Only moderators may redirect the pointer. A single roster-order
// scan matches each seat against the last sentence by name (or the
// literal "Human" for human seats) and against the whole text by
// [Name] bracket. The speaker never matches itself; the first matching
// seat wins.
func HandoffTarget(s *session.Session, speaker session.Participant, text string) (int, bool) {
	if !speaker.IsModerator() {
		return 0, false
	}

	last := lastSentence(text)
	for i, p := range s.Participants {
		if p.ID == speaker.ID {
			continue
		}
		switch {
		case last != "" && strings.Contains(last, p.Name):
			return i, true
		case last != "" && p.IsHuman() && strings.Contains(last, "Human"):
			return i, true
		case strings.Contains(text, "["+p.Name+"]"):
			return i, true
		}
	}

	return 0, false
}
