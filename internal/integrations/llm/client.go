package llm

import (
	"context"
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"tickettriage/internal/config"
	"tickettriage/internal/domain"
	"tickettriage/internal/triage"
)

const defaultAnthropicModel = "claude-sonnet-4-5-20250929"
const defaultOpenAIModel = "gpt-4o-mini"

type Usage struct {
	InputTokens              int64
	OutputTokens             int64
	CacheCreationInputTokens int64
	CacheReadInputTokens     int64
}

func (u Usage) TotalTokens() int64 {
	return u.InputTokens + u.OutputTokens
}

// Client is a triage.Generator backed by Anthropic or OpenAI. Every
// failure it returns is marked with triage.ErrBackendUnavailable.
type Client struct {
	provider   string
	model      string
	apiKey     string
	baseURL    string
	maxTokens  int
	httpClient *http.Client
	log        *zap.SugaredLogger
}

var _ triage.Generator = (*Client)(nil)

func NewClient(cfg config.Config, httpClient *http.Client, log *zap.SugaredLogger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	c := &Client{
		provider:   cfg.LLMProvider,
		model:      cfg.LLMModel,
		apiKey:     cfg.APIKey(),
		maxTokens:  cfg.LLMMaxTokens,
		httpClient: httpClient,
		log:        log,
	}
	switch cfg.LLMProvider {
	case config.ProviderOpenAI:
		c.baseURL = cfg.OpenAIBaseURL
		if c.model == "" {
			c.model = defaultOpenAIModel
		}
	case config.ProviderAnthropic:
		c.baseURL = cfg.AnthropicBaseURL
		if c.model == "" {
			c.model = defaultAnthropicModel
		}
	}
	if c.maxTokens < 1 {
		c.maxTokens = 1024
	}
	return c
}

func (c *Client) Generate(ctx context.Context, ticket string) (domain.RawRecord, error) {
	if c.provider == config.ProviderNone {
		return nil, unavailable(errors.New("generative backend disabled (llm_provider=none)"))
	}
	if strings.TrimSpace(c.apiKey) == "" {
		return nil, unavailable(errors.WithHintf(
			errors.Newf("%s api key not configured", c.provider),
			"set %s_API_KEY to enable generative triage", strings.ToUpper(c.provider),
		))
	}

	systemPrompt, userPrompt := BuildTriagePrompts(ticket)

	var responseText string
	var usage Usage
	var err error
	c.log.Debugw("llm triage request", "provider", c.provider, "model", c.model, "ticket_chars", len(ticket))
	switch c.provider {
	case config.ProviderOpenAI:
		responseText, usage, err = c.callOpenAI(ctx, systemPrompt, userPrompt)
	default:
		responseText, usage, err = c.callAnthropic(ctx, systemPrompt, userPrompt)
	}
	if err != nil {
		return nil, unavailable(err)
	}

	raw, err := parseTriageResponse(responseText)
	if err != nil {
		return nil, unavailable(err)
	}
	c.log.Infow("llm triage response",
		"provider", c.provider,
		"model", c.model,
		"tokens_in", usage.InputTokens,
		"tokens_out", usage.OutputTokens,
		"tokens_total", usage.TotalTokens(),
	)
	return raw, nil
}

func unavailable(err error) error {
	return errors.Mark(err, triage.ErrBackendUnavailable)
}
