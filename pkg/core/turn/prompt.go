package turn

import (
	"fmt"
	"strings"

	"github.com/centaurus-ai/roundtable/pkg/core/session"
)

// complexityGuides maps session complexity 1..5 to a verbosity guide.
var complexityGuides = []string{
	"Be extremely concise. One or two short sentences at most.",
	"Be brief. Two to three short sentences.",
	"Use a moderate length. Three to five sentences with one concrete point.",
	"Be thorough. A full paragraph developing your argument.",
	"Be comprehensive. Multiple paragraphs with detailed reasoning and examples.",
}

func complexityGuide(complexity int) string {
	if complexity < 1 {
		complexity = 1
	}
	if complexity > len(complexityGuides) {
		complexity = len(complexityGuides)
	}
	return complexityGuides[complexity-1]
}

// buildSystem renders the persona block for a participant.
func buildSystem(s *session.Session, p session.Participant) string {
	var b strings.Builder
	if p.SystemPrompt != "" {
		b.WriteString(p.SystemPrompt)
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, "You are %s, a participant in a strategic round table discussion.\n", p.Name)
	if p.Personality != "" {
		fmt.Fprintf(&b, "Personality: %s\n", p.Personality)
	}
	if len(p.CognitiveRoles) > 0 {
		fmt.Fprintf(&b, "Cognitive roles: %s\n", strings.Join(p.CognitiveRoles, ", "))
	}
	fmt.Fprintf(&b, "%s\n", complexityGuide(s.Complexity))
	b.WriteString("Respond in Persian. Speak only as yourself; never write lines for other participants.")
	return b.String()
}

// buildPrompt renders the discussion context: topic, roster and the
// committed transcript so far. Only approved and user messages appear;
// rejected and pending entries are invisible to the model.
func buildPrompt(s *session.Session, p session.Participant) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Topic: %s\n\n", s.Topic)

	b.WriteString("Participants:\n")
	for _, q := range s.Participants {
		marker := "AI"
		if q.IsHuman() {
			marker = "HUMAN"
		}
		fmt.Fprintf(&b, "- %s (%s)\n", q.Name, marker)
	}
	b.WriteString("\nDiscussion so far:\n")

	any := false
	for _, m := range s.Messages {
		if !m.Committed() {
			continue
		}
		fmt.Fprintf(&b, "[ID: %s] %s: %s\n", m.ID, m.ParticipantName, m.Text)
		any = true
	}
	if !any {
		b.WriteString("(no messages yet; open the discussion)\n")
	}

	fmt.Fprintf(&b, "\nIt is now your turn, %s. Give your contribution.", p.Name)
	return b.String()
}
