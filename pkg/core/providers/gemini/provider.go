// Package gemini implements the Google Gemini API client used for
// streamed turn generation and speech synthesis.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const (
	// DefaultBaseURL is the default Gemini API endpoint. It is
	// overridable so traffic can be routed through a proxy.
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

	// DefaultTextModel generates participant turns.
	DefaultTextModel = "gemini-2.5-flash"

	// DefaultTTSModel synthesizes speech.
	DefaultTTSModel = "gemini-2.5-flash-preview-tts"
)

// Provider is a Gemini API client.
type Provider struct {
	apiKey     string
	baseURL    string
	textModel  string
	ttsModel   string
	httpClient *http.Client
}

// Option configures a Provider.
type Option func(*Provider)

// WithBaseURL overrides the API endpoint (proxy support).
func WithBaseURL(url string) Option {
	return func(p *Provider) {
		if url != "" {
			p.baseURL = url
		}
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) {
		if c != nil {
			p.httpClient = c
		}
	}
}

// WithTextModel overrides the turn-generation model.
func WithTextModel(model string) Option {
	return func(p *Provider) {
		if model != "" {
			p.textModel = model
		}
	}
}

// WithTTSModel overrides the speech synthesis model.
func WithTTSModel(model string) Option {
	return func(p *Provider) {
		if model != "" {
			p.ttsModel = model
		}
	}
}

// New creates a new Gemini provider.
func New(apiKey string, opts ...Option) *Provider {
	p := &Provider{
		apiKey:     apiKey,
		baseURL:    DefaultBaseURL,
		textModel:  DefaultTextModel,
		ttsModel:   DefaultTTSModel,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return "gemini"
}

// GenerateRequest describes one streamed generation call.
type GenerateRequest struct {
	System      string
	Prompt      string
	Temperature float64
}

// StreamGenerate sends a streaming generation request and returns an
// iterator over text deltas.
func (p *Provider) StreamGenerate(ctx context.Context, req GenerateRequest) (*Stream, error) {
	body, err := p.doStreamRequest(ctx, p.textModel, buildGenerateRequest(req))
	if err != nil {
		return nil, err
	}
	return newStream(body), nil
}

// doRequest sends a non-streaming request and returns the response body.
func (p *Provider) doRequest(ctx context.Context, model string, req *geminiRequest) ([]byte, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", p.baseURL, model, p.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, p.parseError(resp)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return respBody, nil
}

// doStreamRequest sends a streaming request and returns the SSE body.
func (p *Provider) doStreamRequest(ctx context.Context, model string, req *geminiRequest) (io.ReadCloser, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:streamGenerateContent?alt=sse&key=%s", p.baseURL, model, p.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}

	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		return nil, p.parseError(resp)
	}
	return resp.Body, nil
}
