// errors.go - Categorization of model provider failures

package ai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/townsquare/complaint_analyzer/internal/domain"
	"google.golang.org/api/googleapi"
)

// APIStatusError is a non-2xx reply from a provider called over plain HTTP.
type APIStatusError struct {
	StatusCode int
	Message    string
}

func (e *APIStatusError) Error() string {
	return fmt.Sprintf("API error (%d): %s", e.StatusCode, e.Message)
}

// CategorizeError maps any provider failure onto an ExternalServiceError kind.
// Errors that already are ExternalServiceErrors pass through unchanged.
// There is no retry: every kind sends the orchestrator to the fallback path.
func CategorizeError(provider string, err error) *domain.ExternalServiceError {
	if err == nil {
		return nil
	}

	var svcErr *domain.ExternalServiceError
	if errors.As(err, &svcErr) {
		return svcErr
	}

	out := &domain.ExternalServiceError{
		Kind:     domain.ServiceUnavailable,
		Provider: provider,
		Message:  err.Error(),
		Err:      err,
	}

	if code := statusCode(err); code != 0 {
		out.StatusCode = code
		out.Kind = kindForStatus(code)
		out.Message = statusMessage(provider, code)
		return out
	}

	if errors.Is(err, context.DeadlineExceeded) {
		out.Kind = domain.ServiceTimeout
		out.Message = "request timeout - processing took too long"
		return out
	}

	if errors.Is(err, context.Canceled) {
		out.Message = "request was canceled"
		return out
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		out.Kind = domain.ServiceTimeout
		out.Message = "network timeout"
		return out
	}

	// Check error message for common patterns
	errMsg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(errMsg, "quota") || strings.Contains(errMsg, "rate limit") || strings.Contains(errMsg, "too many requests"):
		out.Kind = domain.ServiceRateLimited
		out.Message = "API quota or rate limit exceeded"
	case strings.Contains(errMsg, "timeout") || strings.Contains(errMsg, "deadline"):
		out.Kind = domain.ServiceTimeout
		out.Message = "request timeout"
	case strings.Contains(errMsg, "connection") || strings.Contains(errMsg, "network"):
		out.Message = "network connection error"
	}

	return out
}

func statusCode(err error) int {
	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		return gErr.Code
	}
	var aErr *anthropic.Error
	if errors.As(err, &aErr) {
		return aErr.StatusCode
	}
	var hErr *APIStatusError
	if errors.As(err, &hErr) {
		return hErr.StatusCode
	}
	return 0
}

func kindForStatus(code int) domain.ServiceErrorKind {
	switch code {
	case 429:
		return domain.ServiceRateLimited
	case 408, 504:
		return domain.ServiceTimeout
	default:
		return domain.ServiceUnavailable
	}
}

func statusMessage(provider string, code int) string {
	switch code {
	case 400:
		return "invalid request format or parameters"
	case 401:
		return "invalid API key or authentication failed"
	case 403:
		return "API key lacks required permissions"
	case 404:
		return "model not found or invalid endpoint"
	case 408, 504:
		return "upstream timeout"
	case 413:
		return "request size exceeds limit (reduce image size)"
	case 429:
		return "rate limit exceeded - too many requests"
	case 500, 502, 503:
		return fmt.Sprintf("%s server error (%d)", provider, code)
	}
	return fmt.Sprintf("API error (%d)", code)
}

// OperatorHint suggests what an operator should look at for a categorized failure.
func OperatorHint(err *domain.ExternalServiceError) string {
	switch {
	case err == nil:
		return ""
	case err.StatusCode == 401 || err.StatusCode == 403:
		return "check the provider API key"
	case err.StatusCode == 413:
		return "lower MAX_IMAGE_DIMENSION"
	case err.Kind == domain.ServiceRateLimited:
		return "lower AI_BURST or raise AI_REFILL_SECONDS"
	case err.Kind == domain.ServiceTimeout:
		return "raise PRIMARY_TIMEOUT if this persists"
	}
	return "provider temporarily unavailable"
}
