// Package llm is the provider-neutral seam for text generation. Output from
// any Client is untrusted prose; callers go through DecodeInto to get typed
// values with a fixed fallback.
package llm

import (
	"context"
	"errors"
	"time"
)

// ErrDisabled is returned by the Disabled client.
var ErrDisabled = errors.New("llm: no provider configured")

type Client interface {
	// GenerateText returns free-form prose.
	GenerateText(ctx context.Context, system, user string) (string, error)
	// GenerateJSON asks the provider for JSON output. The result is still
	// raw text and may carry fences or commentary.
	GenerateJSON(ctx context.Context, system, user string) (string, error)
}

// Func adapts a plain function into a Client. Both modes call fn.
type Func func(ctx context.Context, system, user string) (string, error)

func (f Func) GenerateText(ctx context.Context, system, user string) (string, error) {
	return f(ctx, system, user)
}

func (f Func) GenerateJSON(ctx context.Context, system, user string) (string, error) {
	return f(ctx, system, user)
}

type disabled struct{}

// Disabled fails every call so each AI operation takes its fallback.
func Disabled() Client { return disabled{} }

func (disabled) GenerateText(context.Context, string, string) (string, error) {
	return "", ErrDisabled
}

func (disabled) GenerateJSON(context.Context, string, string) (string, error) {
	return "", ErrDisabled
}

type timeoutClient struct {
	base    Client
	timeout time.Duration
}

// WithTimeout bounds every call on base to d. A non-positive d returns base.
func WithTimeout(base Client, d time.Duration) Client {
	if base == nil {
		return Disabled()
	}
	if d <= 0 {
		return base
	}
	return &timeoutClient{base: base, timeout: d}
}

func (c *timeoutClient) GenerateText(ctx context.Context, system, user string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.base.GenerateText(ctx, system, user)
}

func (c *timeoutClient) GenerateJSON(ctx context.Context, system, user string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.base.GenerateJSON(ctx, system, user)
}
