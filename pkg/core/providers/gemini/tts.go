package gemini

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/centaurus-ai/roundtable/pkg/core"
)

// speechResponse is the shape of a TTS generateContent response.
type speechResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				InlineData *geminiBlob `json:"inlineData"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Synthesize converts text to 24kHz mono PCM16 audio using the
// configured TTS model and prebuilt voice.
func (p *Provider) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	body, err := p.doRequest(ctx, p.ttsModel, buildSpeechRequest(text, voice))
	if err != nil {
		return nil, err
	}

	var resp speechResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse tts response: %w", err)
	}

	for _, cand := range resp.Candidates {
		for _, part := range cand.Content.Parts {
			if part.InlineData == nil || part.InlineData.Data == "" {
				continue
			}
			audio, err := base64.StdEncoding.DecodeString(part.InlineData.Data)
			if err != nil {
				return nil, fmt.Errorf("decode audio: %w", err)
			}
			return audio, nil
		}
	}
	return nil, core.NewAPIError("tts response contained no audio")
}
