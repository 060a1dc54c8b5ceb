package gemini

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"
)

// Stream iterates over text deltas from a Gemini SSE response.
type Stream struct {
	reader   *bufio.Reader
	closer   io.Closer
	err      error
	finished bool
}

// streamChunk represents a streaming chunk from Gemini.
type streamChunk struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
}

// newStream creates a stream from an HTTP response body.
func newStream(body io.ReadCloser) *Stream {
	return &Stream{
		reader: bufio.NewReader(body),
		closer: body,
	}
}

// Next returns the next text delta. It returns io.EOF when the stream
// is complete.
func (s *Stream) Next() (string, error) {
	if s.err != nil {
		return "", s.err
	}
	if s.finished {
		return "", io.EOF
	}

	for {
		line, err := s.reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				s.finished = true
				return "", io.EOF
			}
			s.err = err
			return "", err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		// Parse SSE format: "data: <json>"
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		data := strings.TrimPrefix(line, "data: ")
		if data == "[DONE]" || data == "" {
			s.finished = true
			return "", io.EOF
		}

		var chunk streamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			continue // Skip unparseable chunks
		}
		if len(chunk.Candidates) == 0 {
			continue
		}

		var b strings.Builder
		for _, part := range chunk.Candidates[0].Content.Parts {
			b.WriteString(part.Text)
		}
		if b.Len() > 0 {
			return b.String(), nil
		}
		if chunk.Candidates[0].FinishReason != "" {
			s.finished = true
			return "", io.EOF
		}
	}
}

// Close releases resources associated with the stream.
func (s *Stream) Close() error {
	return s.closer.Close()
}
