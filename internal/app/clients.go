package app

import (
	"context"
	"fmt"
	"strings"

	lbredis "github.com/yungbote/aletheia-backend/internal/clients/redis"
	"github.com/yungbote/aletheia-backend/internal/platform/gemini"
	"github.com/yungbote/aletheia-backend/internal/platform/llm"
	"github.com/yungbote/aletheia-backend/internal/platform/logger"
	"github.com/yungbote/aletheia-backend/internal/platform/openai"
	"github.com/yungbote/aletheia-backend/internal/realtime"
)

type Clients struct {
	LLM         llm.Client
	Leaderboard lbredis.Leaderboard
	Realtime    *realtime.Publisher
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	model, err := wireLLM(ctx, log, cfg)
	if err != nil {
		return Clients{}, err
	}

	// Redis is optional; without it the leaderboard reads the database and
	// streams only see events produced on this instance.
	var (
		board lbredis.Leaderboard
		bus   realtime.Bus
	)
	if strings.TrimSpace(cfg.Redis.Addr) != "" {
		b, err := lbredis.NewLeaderboard(log, lbredis.Config{
			Addr:      cfg.Redis.Addr,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			KeyPrefix: cfg.Redis.KeyPrefix,
		})
		if err != nil {
			log.Warn("redis leaderboard unavailable, using database", "error", err)
		} else {
			board = b
		}
		eb, err := realtime.NewRedisBus(log, realtime.BusConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Channel:  cfg.Redis.Channel,
		})
		if err != nil {
			log.Warn("redis event bus unavailable, streams are instance-local", "error", err)
		} else {
			bus = eb
		}
	}

	return Clients{
		LLM:         model,
		Leaderboard: board,
		Realtime:    realtime.NewPublisher(log, realtime.NewHub(log), bus),
	}, nil
}

func wireLLM(ctx context.Context, log *logger.Logger, cfg Config) (llm.Client, error) {
	var (
		base llm.Client
		err  error
	)
	switch strings.ToLower(strings.TrimSpace(cfg.LLMProvider)) {
	case LLMProviderOpenAI:
		base, err = openai.NewClient(log, openai.Config{
			APIKey:          cfg.OpenAI.APIKey,
			BaseURL:         cfg.OpenAI.BaseURL,
			Model:           cfg.OpenAI.Model,
			Timeout:         cfg.LLMTimeout(),
			MaxRetries:      cfg.OpenAI.MaxRetries,
			DisableJSONMode: cfg.OpenAI.DisableJSONMode,
		})
	case LLMProviderGemini:
		base, err = gemini.NewClient(ctx, log, gemini.Config{
			APIKey: cfg.Gemini.APIKey,
			Model:  cfg.Gemini.Model,
		})
	default:
		log.Warn("no LLM provider configured, every oracle answers with its fallback")
		return llm.Disabled(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("init %s client: %w", cfg.LLMProvider, err)
	}
	return llm.WithTimeout(base, cfg.LLMTimeout()), nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Leaderboard != nil {
		_ = c.Leaderboard.Close()
	}
	_ = c.Realtime.Close()
}
