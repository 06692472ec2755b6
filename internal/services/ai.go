package services

import (
	"context"
	"strings"
	"time"

	"github.com/yungbote/aletheia-backend/internal/observability"
	"github.com/yungbote/aletheia-backend/internal/platform/llm"
	"github.com/yungbote/aletheia-backend/internal/platform/logger"
	"github.com/yungbote/aletheia-backend/internal/platform/promptstyle"
	"github.com/yungbote/aletheia-backend/internal/prompts"
)

// Oracle bundles the model client and prompt catalog shared by every
// AI-backed service. A failed call always ends in the caller's fallback.
type Oracle struct {
	client  llm.Client
	catalog *prompts.Catalog
	log     *logger.Logger
}

func NewOracle(baseLog *logger.Logger, client llm.Client, catalog *prompts.Catalog) *Oracle {
	if client == nil {
		client = llm.Disabled()
	}
	return &Oracle{client: client, catalog: catalog, log: baseLog.With("service", "Oracle")}
}

func (o *Oracle) observe(prompt string, used bool, start time.Time) {
	outcome := "fallback"
	if used {
		outcome = "model"
	}
	observability.Current().ObserveLLM(prompt, outcome, time.Since(start))
}

func (o *Oracle) render(name string, data any, mode string) (string, string, bool) {
	if o == nil || o.catalog == nil {
		return "", "", false
	}
	sys, usr, err := o.catalog.Render(name, data)
	if err != nil {
		o.log.Error("prompt render failed", "prompt", name, "error", err)
		return "", "", false
	}
	return promptstyle.ApplySystem(sys, mode), usr, true
}

// askJSON decodes the named prompt's reply into T, or returns fallback.
// The bool reports whether the model answer was used.
func askJSON[T any](ctx context.Context, o *Oracle, name string, data any, fallback T, validate func(*T) error) (T, bool) {
	sys, usr, ok := o.render(name, data, "json")
	if !ok {
		return fallback, false
	}
	start := time.Now()
	out, outcome := llm.DecodeInto(ctx, o.client, sys, usr, fallback, validate)
	if outcome.Fallback {
		o.observe(name, false, start)
		o.log.Warn("model output replaced by fallback", "prompt", name, "reason", outcome.Reason)
		return fallback, false
	}
	o.observe(name, true, start)
	return out, true
}

// askText returns the trimmed prose reply, or fallback on error or empty.
func (o *Oracle) askText(ctx context.Context, name string, data any, fallback string) string {
	sys, usr, ok := o.render(name, data, "text")
	if !ok {
		return fallback
	}
	start := time.Now()
	raw, err := o.client.GenerateText(ctx, sys, usr)
	if err != nil {
		o.observe(name, false, start)
		o.log.Warn("model output replaced by fallback", "prompt", name, "reason", err.Error())
		return fallback
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		o.observe(name, false, start)
		o.log.Warn("model output replaced by fallback", "prompt", name, "reason", "empty reply")
		return fallback
	}
	o.observe(name, true, start)
	return raw
}
