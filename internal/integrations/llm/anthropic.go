package llm

import (
	"context"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/cockroachdb/errors"
)

// callAnthropic makes a single Messages request. SDK retries are disabled
// so a rejected call falls back immediately.
func (c *Client) callAnthropic(ctx context.Context, systemPrompt, userPrompt string) (string, Usage, error) {
	opts := []option.RequestOption{
		option.WithAPIKey(c.apiKey),
		option.WithHTTPClient(c.httpClient),
		option.WithMaxRetries(0),
	}
	if c.baseURL != "" {
		opts = append(opts, option.WithBaseURL(c.baseURL))
	}
	client := anthropic.NewClient(opts...)

	message, err := client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: int64(c.maxTokens),
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	})
	if err != nil {
		c.log.Warnw("llm anthropic error", "error", err)
		return "", Usage{}, errors.Wrap(err, "anthropic api error")
	}
	usage := Usage{
		InputTokens:              message.Usage.InputTokens,
		OutputTokens:             message.Usage.OutputTokens,
		CacheCreationInputTokens: message.Usage.CacheCreationInputTokens,
		CacheReadInputTokens:     message.Usage.CacheReadInputTokens,
	}

	for _, block := range message.Content {
		if block.Type == "text" {
			c.log.Debugw("llm anthropic response", "size", len(block.Text), "tokens_in", usage.InputTokens, "tokens_out", usage.OutputTokens)
			return block.Text, usage, nil
		}
	}
	return "", usage, errors.New("no text content in anthropic response")
}
