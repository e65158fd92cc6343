package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"smartdoc-backend/internal/shared/metrics"
	"smartdoc-backend/internal/shared/telemetry"
)

// Client is a single-shot text generation model.
type Client interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

var (
	// ErrModelOverloaded marks capacity exhaustion, rate limiting and timeouts.
	// Callers may offer the user a retry.
	ErrModelOverloaded = errors.New("model overloaded")
	ErrModelCallFailed = errors.New("model call failed")
	ErrNotConfigured   = errors.New("LLM provider not configured")
)

// StatusError classifies a provider HTTP failure.
func StatusError(provider string, status int, detail string) error {
	detail = strings.TrimSpace(detail)
	if len(detail) > 300 {
		detail = detail[:300]
	}
	switch status {
	case http.StatusTooManyRequests, http.StatusServiceUnavailable, 529:
		return fmt.Errorf("%w: %s http status %d: %s", ErrModelOverloaded, provider, status, detail)
	default:
		return fmt.Errorf("%w: %s http status %d: %s", ErrModelCallFailed, provider, status, detail)
	}
}

// TransportError classifies a failure to reach the provider at all.
func TransportError(provider string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
		return fmt.Errorf("%w: %s request timeout: %v", ErrModelOverloaded, provider, err)
	}
	return fmt.Errorf("%w: %s: %v", ErrModelCallFailed, provider, err)
}

type instrumented struct {
	provider string
	next     Client
}

// Instrument records call latency and normalizes errors so that every failure
// wraps ErrModelOverloaded or ErrModelCallFailed.
func Instrument(provider string, next Client) Client {
	return &instrumented{provider: provider, next: next}
}

func (c *instrumented) Generate(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	out, err := c.next.Generate(ctx, prompt)
	elapsed := float64(time.Since(start).Microseconds()) / 1000.0
	metrics.ObserveModelCallMs(c.provider, elapsed)

	if err != nil {
		if ctx.Err() != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) && !errors.Is(err, ErrModelOverloaded) {
			err = fmt.Errorf("%w: %s deadline exceeded: %v", ErrModelOverloaded, c.provider, err)
		} else if !errors.Is(err, ErrModelOverloaded) && !errors.Is(err, ErrModelCallFailed) {
			err = fmt.Errorf("%w: %s: %v", ErrModelCallFailed, c.provider, err)
		}
		telemetry.Warn("llm.call_failed", map[string]any{
			"provider":    c.provider,
			"duration_ms": elapsed,
			"overloaded":  errors.Is(err, ErrModelOverloaded),
			"error":       err,
		})
		return "", err
	}
	telemetry.Info("llm.call_complete", map[string]any{
		"provider":       c.provider,
		"duration_ms":    elapsed,
		"prompt_chars":   len(prompt),
		"response_chars": len(out),
	})
	return out, nil
}

// Unconfigured is used when no provider key is present; every call fails.
type Unconfigured struct{}

// Generate returns ErrModelCallFailed wrapping ErrNotConfigured.
func (Unconfigured) Generate(context.Context, string) (string, error) {
	return "", fmt.Errorf("%w: %w", ErrModelCallFailed, ErrNotConfigured)
}
