package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/yungbote/aletheia-backend/internal/platform/llm"
	"github.com/yungbote/aletheia-backend/internal/platform/logger"
	"github.com/yungbote/aletheia-backend/internal/platform/promptstyle"
)

type Config struct {
	APIKey string
	Model  string
	// BaseURL overrides the Gemini API endpoint. Empty uses the SDK default.
	BaseURL string
}

const defaultModel = "gemini-2.5-flash"

type client struct {
	log   *logger.Logger
	genai *genai.Client
	model string
}

var _ llm.Client = (*client)(nil)

func NewClient(ctx context.Context, log *logger.Logger, cfg Config) (llm.Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("missing GEMINI_API_KEY")
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}
	cc := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: base}
	}
	gc, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &client{
		log:   log.With("service", "GeminiClient", "model", model),
		genai: gc,
		model: model,
	}, nil
}

func (c *client) GenerateText(ctx context.Context, system string, user string) (string, error) {
	return c.generate(ctx, promptstyle.ApplySystem(system, "text"), user, false)
}

func (c *client) GenerateJSON(ctx context.Context, system string, user string) (string, error) {
	return c.generate(ctx, promptstyle.ApplySystem(system, "json"), user, true)
}

func (c *client) generate(ctx context.Context, system, user string, jsonMode bool) (string, error) {
	cfg := &genai.GenerateContentConfig{}
	if system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	if jsonMode {
		cfg.ResponseMIMEType = "application/json"
	}
	resp, err := c.genai.Models.GenerateContent(ctx, c.model, genai.Text(user), cfg)
	if err != nil {
		c.log.Debug("Gemini generate failed", "error", err.Error())
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", errors.New("empty gemini response")
	}
	return text, nil
}
