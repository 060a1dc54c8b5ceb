// Package voice provides sentence chunking, speech synthesis queueing
// and playback scheduling for spoken sessions.
package voice

import (
	"strings"
	"unicode/utf8"
)

// SentenceBuffer accumulates streamed text and extracts complete
// sentences. This enables low-latency TTS by synthesizing sentences as
// they complete rather than waiting for the full turn.
type SentenceBuffer struct {
	buffer strings.Builder
}

// NewSentenceBuffer creates a new sentence buffer.
func NewSentenceBuffer() *SentenceBuffer {
	return &SentenceBuffer{}
}

// Add appends streamed text and returns any complete sentences.
// Fragments whose trimmed length is one rune or less are dropped; they
// are punctuation noise, not speakable text.
func (b *SentenceBuffer) Add(text string) []string {
	b.buffer.WriteString(text)

	content := b.buffer.String()
	var sentences []string

	lastEnd := 0
	for i := 0; i < len(content); {
		r, size := utf8.DecodeRuneInString(content[i:])
		if isSentenceEnd(r) && !isAbbreviation(content, i, r) {
			sentence := strings.TrimSpace(content[lastEnd : i+size])
			if utf8.RuneCountInString(sentence) > 1 {
				sentences = append(sentences, sentence)
			}
			lastEnd = i + size
		}
		i += size
	}

	// Keep remainder in buffer
	if lastEnd > 0 {
		rest := content[lastEnd:]
		b.buffer.Reset()
		b.buffer.WriteString(rest)
	}

	return sentences
}

// Flush returns any remaining text and clears the buffer. Fragments of
// one rune or less are discarded here too.
func (b *SentenceBuffer) Flush() string {
	result := strings.TrimSpace(b.buffer.String())
	b.buffer.Reset()
	if utf8.RuneCountInString(result) <= 1 {
		return ""
	}
	return result
}

// Pending returns the current pending text without clearing.
func (b *SentenceBuffer) Pending() string {
	return b.buffer.String()
}

// isSentenceEnd reports whether r terminates a sentence. The Arabic
// question mark covers Persian output.
func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?' || r == '؟' || r == '\n'
}

// isAbbreviation checks if the period at byte offset i is likely an
// abbreviation rather than a sentence end.
func isAbbreviation(s string, i int, r rune) bool {
	if r != '.' || i < 1 {
		return false
	}

	commonAbbreviations := []string{
		"Dr.", "Mr.", "Mrs.", "Ms.", "Jr.", "Sr.",
		"Prof.", "Rev.", "Gen.", "Col.", "Lt.", "Sgt.",
		"Inc.", "Ltd.", "Corp.", "Co.", "vs.", "etc.",
		"i.e.", "e.g.", "a.m.", "p.m.", "U.S.", "U.K.",
	}

	// Get the word ending at i (including the period)
	start := i
	for start > 0 && s[start-1] != ' ' && s[start-1] != '\n' {
		start--
	}
	word := s[start : i+1]

	for _, abbr := range commonAbbreviations {
		if strings.EqualFold(word, abbr) {
			return true
		}
	}

	// Single uppercase letter followed by a period (initials).
	if s[i-1] >= 'A' && s[i-1] <= 'Z' {
		if i < 2 || s[i-2] == ' ' || s[i-2] == '\n' {
			return true
		}
	}

	return false
}
