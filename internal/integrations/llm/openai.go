package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"
)

const maxOpenAIResponseBytes = 4 * 1024 * 1024

type openAIRequest struct {
	Model     string          `json:"model"`
	Messages  []openAIMessage `json:"messages"`
	MaxTokens int             `json:"max_tokens,omitempty"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int64 `json:"prompt_tokens"`
		CompletionTokens int64 `json:"completion_tokens"`
		TotalTokens      int64 `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func (c *Client) callOpenAI(ctx context.Context, systemPrompt, userPrompt string) (string, Usage, error) {
	reqBody := openAIRequest{
		Model: c.model,
		Messages: []openAIMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		MaxTokens: c.maxTokens,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", Usage{}, errors.Wrap(err, "marshaling request")
	}

	endpoint := strings.TrimRight(c.baseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", Usage{}, errors.Wrap(err, "creating request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warnw("llm openai error", "error", err)
		return "", Usage{}, errors.Wrap(err, "openai api error")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxOpenAIResponseBytes+1))
	if err != nil {
		return "", Usage{}, errors.Wrap(err, "reading response")
	}
	if len(respBody) > maxOpenAIResponseBytes {
		return "", Usage{}, errors.Newf("openai response exceeded limit (%d bytes)", maxOpenAIResponseBytes)
	}

	var openAIResp openAIResponse
	if err := json.Unmarshal(respBody, &openAIResp); err != nil {
		if resp.StatusCode >= 400 {
			return "", Usage{}, errors.Newf("openai api error: status %d", resp.StatusCode)
		}
		return "", Usage{}, errors.Wrap(err, "parsing openai response")
	}

	if openAIResp.Error != nil {
		c.log.Warnw("llm openai api error", "status", resp.StatusCode, "type", openAIResp.Error.Type, "message", openAIResp.Error.Message)
		return "", Usage{}, errors.Newf("openai api error: %s", openAIResp.Error.Message)
	}
	if resp.StatusCode >= 400 {
		return "", Usage{}, errors.Newf("openai api error: status %d", resp.StatusCode)
	}
	if len(openAIResp.Choices) == 0 {
		return "", Usage{}, errors.New("no choices in openai response")
	}

	usage := Usage{}
	if openAIResp.Usage != nil {
		usage.InputTokens = openAIResp.Usage.PromptTokens
		usage.OutputTokens = openAIResp.Usage.CompletionTokens
	}
	content := openAIResp.Choices[0].Message.Content
	c.log.Debugw("llm openai response", "size", len(content), "tokens_in", usage.InputTokens, "tokens_out", usage.OutputTokens)
	return content, usage, nil
}
