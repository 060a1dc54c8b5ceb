package gemini

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/centaurus-ai/roundtable/pkg/core"
)

// geminiError represents an error response from the Gemini API.
type geminiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// parseError classifies an error response from Gemini.
func (p *Provider) parseError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var geminiErr geminiError
	if err := json.Unmarshal(body, &geminiErr); err != nil {
		return &core.Error{
			Type:    core.ErrProvider,
			Message: string(body),
		}
	}

	// Map Gemini status codes to our error types
	var errType core.ErrorType
	switch geminiErr.Error.Status {
	case "INVALID_ARGUMENT", "FAILED_PRECONDITION":
		errType = core.ErrInvalidRequest
	case "UNAUTHENTICATED", "PERMISSION_DENIED":
		errType = core.ErrAuthentication
	case "NOT_FOUND":
		errType = core.ErrNotFound
	case "RESOURCE_EXHAUSTED":
		errType = core.ErrRateLimit
	case "UNAVAILABLE":
		errType = core.ErrOverloaded
	case "INTERNAL":
		errType = core.ErrAPI
	default:
		errType = core.ErrProvider
	}

	// Also check HTTP status code
	if resp.StatusCode == 429 {
		errType = core.ErrRateLimit
	}
	if resp.StatusCode == 503 {
		errType = core.ErrOverloaded
	}
	if resp.StatusCode == 401 || resp.StatusCode == 403 {
		errType = core.ErrAuthentication
	}

	// Quota failures sometimes arrive as plain INTERNAL errors with a
	// quota message; treat them as rate limits so backoff applies.
	if strings.Contains(strings.ToLower(geminiErr.Error.Message), "quota") {
		errType = core.ErrRateLimit
	}

	return &core.Error{
		Type:          errType,
		Message:       geminiErr.Error.Message,
		Code:          geminiErr.Error.Status,
		ProviderError: geminiErr.Error,
	}
}
