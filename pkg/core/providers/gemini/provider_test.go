package gemini

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/centaurus-ai/roundtable/pkg/core"
)

func TestStreamGenerate_EndToEnd(t *testing.T) {
	var gotPath string
	var gotReq geminiRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = io.WriteString(w, ""+
			`data: {"candidates":[{"content":{"parts":[{"text":"salam"}]}}]}`+"\n\n"+
			`data: {"candidates":[{"content":{"parts":[]},"finishReason":"STOP"}]}`+"\n\n")
	}))
	defer srv.Close()

	p := New("test-key", WithBaseURL(srv.URL), WithTextModel("test-model"))
	stream, err := p.StreamGenerate(context.Background(), GenerateRequest{
		System:      "be brief",
		Prompt:      "hello",
		Temperature: 0.7,
	})
	if err != nil {
		t.Fatalf("StreamGenerate error: %v", err)
	}
	defer stream.Close()

	delta, err := stream.Next()
	if err != nil {
		t.Fatalf("Next error: %v", err)
	}
	if delta != "salam" {
		t.Errorf("delta = %q, want %q", delta, "salam")
	}
	if _, err := stream.Next(); err != io.EOF {
		t.Fatalf("want EOF at end of stream, got %v", err)
	}

	if !strings.Contains(gotPath, "test-model") {
		t.Errorf("path = %q, want the configured model", gotPath)
	}
	if gotReq.SystemInstruction == nil || gotReq.SystemInstruction.Parts[0].Text != "be brief" {
		t.Error("system instruction not forwarded")
	}
	if gotReq.GenerationConfig == nil || gotReq.GenerationConfig.Temperature == nil {
		t.Fatal("temperature not forwarded")
	}
	if *gotReq.GenerationConfig.Temperature != 0.7 {
		t.Errorf("temperature = %v, want 0.7", *gotReq.GenerationConfig.Temperature)
	}
}

func TestStreamGenerate_ErrorResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"error":{"code":429,"message":"quota","status":"RESOURCE_EXHAUSTED"}}`)
	}))
	defer srv.Close()

	p := New("test-key", WithBaseURL(srv.URL))
	_, err := p.StreamGenerate(context.Background(), GenerateRequest{Prompt: "hi"})
	if !core.IsRateLimit(err) {
		t.Fatalf("err = %v, want a rate limit error", err)
	}
}

func TestSynthesize_DecodesInlineAudio(t *testing.T) {
	pcm := []byte{0x01, 0x02, 0x03, 0x04}
	var gotReq geminiRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		resp := map[string]any{
			"candidates": []map[string]any{{
				"content": map[string]any{
					"parts": []map[string]any{{
						"inlineData": map[string]any{
							"mimeType": "audio/pcm",
							"data":     base64.StdEncoding.EncodeToString(pcm),
						},
					}},
				},
			}},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	p := New("test-key", WithBaseURL(srv.URL), WithTTSModel("tts-model"))
	audio, err := p.Synthesize(context.Background(), "salam", "Zephyr")
	if err != nil {
		t.Fatalf("Synthesize error: %v", err)
	}
	if string(audio) != string(pcm) {
		t.Errorf("audio = %v, want %v", audio, pcm)
	}

	sc := gotReq.GenerationConfig
	if sc == nil || sc.SpeechConfig == nil {
		t.Fatal("speech config missing")
	}
	if got := sc.SpeechConfig.VoiceConfig.PrebuiltVoiceConfig.VoiceName; got != "Zephyr" {
		t.Errorf("voice = %q, want Zephyr", got)
	}
	if len(sc.ResponseModalities) != 1 || sc.ResponseModalities[0] != "AUDIO" {
		t.Errorf("response modalities = %v, want [AUDIO]", sc.ResponseModalities)
	}
}

func TestSynthesize_NoAudioIsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"no audio here"}]}}]}`)
	}))
	defer srv.Close()

	p := New("test-key", WithBaseURL(srv.URL))
	_, err := p.Synthesize(context.Background(), "salam", "Zephyr")
	if err == nil {
		t.Fatal("want an error when the response carries no audio")
	}
	if core.IsRetryable(err) {
		t.Error("a missing-audio response is not retryable")
	}
}
