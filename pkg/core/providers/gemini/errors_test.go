package gemini

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/centaurus-ai/roundtable/pkg/core"
)

func errResponse(status int, apiStatus, message string) *http.Response {
	body := fmt.Sprintf(`{"error":{"code":%d,"message":%q,"status":%q}}`, status, message, apiStatus)
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestParseError_StatusMapping(t *testing.T) {
	p := New("test-key")

	tests := []struct {
		httpStatus int
		apiStatus  string
		want       core.ErrorType
	}{
		{400, "INVALID_ARGUMENT", core.ErrInvalidRequest},
		{400, "FAILED_PRECONDITION", core.ErrInvalidRequest},
		{401, "UNAUTHENTICATED", core.ErrAuthentication},
		{403, "PERMISSION_DENIED", core.ErrAuthentication},
		{404, "NOT_FOUND", core.ErrNotFound},
		{429, "RESOURCE_EXHAUSTED", core.ErrRateLimit},
		{503, "UNAVAILABLE", core.ErrOverloaded},
		{500, "INTERNAL", core.ErrAPI},
		{418, "SOMETHING_ELSE", core.ErrProvider},
	}
	for _, tt := range tests {
		t.Run(tt.apiStatus, func(t *testing.T) {
			err := p.parseError(errResponse(tt.httpStatus, tt.apiStatus, "boom"))
			var ce *core.Error
			if !errors.As(err, &ce) {
				t.Fatalf("err = %T, want *core.Error", err)
			}
			if ce.Type != tt.want {
				t.Errorf("Type = %v, want %v", ce.Type, tt.want)
			}
		})
	}
}

func TestParseError_QuotaMessageBecomesRateLimit(t *testing.T) {
	p := New("test-key")
	err := p.parseError(errResponse(500, "INTERNAL", "Quota exceeded for project"))
	var ce *core.Error
	if !errors.As(err, &ce) {
		t.Fatalf("err = %T, want *core.Error", err)
	}
	if ce.Type != core.ErrRateLimit {
		t.Errorf("Type = %v, want rate limit for quota messages", ce.Type)
	}
	if !ce.IsRetryable() {
		t.Error("quota errors must be retryable")
	}
}

func TestParseError_UnparseableBody(t *testing.T) {
	p := New("test-key")
	resp := &http.Response{
		StatusCode: 502,
		Body:       io.NopCloser(strings.NewReader("<html>bad gateway</html>")),
	}
	err := p.parseError(resp)
	var ce *core.Error
	if !errors.As(err, &ce) {
		t.Fatalf("err = %T, want *core.Error", err)
	}
	if ce.Type != core.ErrProvider {
		t.Errorf("Type = %v, want provider error for unparseable bodies", ce.Type)
	}
}
