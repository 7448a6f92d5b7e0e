// throttle.go - Caller-side rate limiting around a Completer

package ai

import (
	"context"
	"time"

	"github.com/townsquare/complaint_analyzer/internal/common"
	"github.com/townsquare/complaint_analyzer/internal/domain"
	"github.com/townsquare/complaint_analyzer/internal/ratelimit"
)

type throttledCompleter struct {
	next    Completer
	limiter *ratelimit.Limiter
}

// Throttle wraps next so every call first waits on limiter.
// A wait cut short by ctx returns a rate_limited ExternalServiceError.
func Throttle(next Completer, limiter *ratelimit.Limiter) Completer {
	if next == nil || limiter == nil {
		return next
	}
	return &throttledCompleter{next: next, limiter: limiter}
}

func (t *throttledCompleter) ProviderName() string {
	return t.next.ProviderName()
}

func (t *throttledCompleter) Complete(ctx context.Context, prompt string, image *domain.Image) (string, error) {
	reqCtx := common.FromContext(ctx)

	started := time.Now()
	release, err := t.limiter.Acquire(ctx)
	if err != nil {
		reqCtx.LogWarning("⏳ Rate limit wait abandoned after %v: %v", time.Since(started).Round(time.Millisecond), err)
		return "", &domain.ExternalServiceError{
			Kind:     domain.ServiceRateLimited,
			Provider: t.next.ProviderName(),
			Message:  "local rate limit wait did not complete",
			Err:      err,
		}
	}
	defer release()
	if waited := time.Since(started); waited > time.Second {
		reqCtx.LogInfo("⏳ Waited %v for rate limit", waited.Round(time.Millisecond))
	}

	return t.next.Complete(ctx, prompt, image)
}
