package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tickettriage/internal/config"
	"tickettriage/internal/domain"
	"tickettriage/internal/triage"
)

const triageJSON = `{"category":"Account","priority":"High","issue_summary":"User locked out","impacted_module":"Login","urgency_indicators":["account locked"],"suggested_next_action":"Unlock account","reasoning":"Login blocked."}`

func TestParseTriageResponse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "plain object", input: triageJSON},
		{name: "fenced json", input: "```json\n" + triageJSON + "\n```"},
		{name: "bare fence", input: "```\n" + triageJSON + "\n```"},
		{name: "array", input: `[{"category":"Billing"}]`, wantErr: true},
		{name: "null", input: "null", wantErr: true},
		{name: "prose", input: "Sure! Here is the classification.", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseTriageResponse(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Account", got[domain.FieldCategory])
			assert.Equal(t, []any{"account locked"}, got[domain.FieldUrgencyIndicators])
		})
	}
}

func TestParseTriageResponseTruncatesLongResponses(t *testing.T) {
	_, err := parseTriageResponse(strings.Repeat("x", 2000))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "total_length=2000")
}

func TestBuildTriagePrompts(t *testing.T) {
	system, user := BuildTriagePrompts("  My card was charged twice  ")

	for _, field := range domain.Fields {
		assert.Contains(t, system, `"`+field+`"`)
	}
	assert.Contains(t, system, "Output ONLY valid JSON")
	assert.Contains(t, user, "SUPPORT TICKET:\nMy card was charged twice\n")
}

func TestGenerateWithoutCredentialFailsFast(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer srv.Close()

	for _, provider := range []string{config.ProviderAnthropic, config.ProviderOpenAI, config.ProviderNone} {
		cfg := config.Config{
			LLMProvider:      provider,
			AnthropicBaseURL: srv.URL + "/",
			OpenAIBaseURL:    srv.URL,
			OpenAIAPIKey:     "",
			AnthropicAPIKey:  "",
		}
		if provider == config.ProviderNone {
			cfg.AnthropicAPIKey = "sk-ignored"
		}

		_, err := NewClient(cfg, srv.Client(), nil).Generate(context.Background(), "help")

		require.Error(t, err, provider)
		assert.True(t, errors.Is(err, triage.ErrBackendUnavailable), provider)
	}
	assert.Zero(t, atomic.LoadInt32(&hits), "no request may be sent without a credential")
}

func newOpenAITestServer(t *testing.T, status int, body string) (*httptest.Server, *int32) {
	t.Helper()
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req openAIRequest
		data, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(data, &req))
		assert.Equal(t, defaultOpenAIModel, req.Model)
		if assert.Len(t, req.Messages, 2) {
			assert.Equal(t, "system", req.Messages[0].Role)
			assert.Contains(t, req.Messages[1].Content, "account locked")
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func openAIConfig(baseURL string) config.Config {
	return config.Config{
		LLMProvider:   config.ProviderOpenAI,
		OpenAIAPIKey:  "sk-test",
		OpenAIBaseURL: baseURL + "/v1",
		LLMMaxTokens:  256,
	}
}

func TestGenerateOpenAI(t *testing.T) {
	content, err := json.Marshal("```json\n" + triageJSON + "\n```")
	require.NoError(t, err)
	body := `{"choices":[{"message":{"role":"assistant","content":` + string(content) + `}}],"usage":{"prompt_tokens":120,"completion_tokens":40,"total_tokens":160}}`
	srv, hits := newOpenAITestServer(t, http.StatusOK, body)

	raw, err := NewClient(openAIConfig(srv.URL), srv.Client(), nil).Generate(context.Background(), "My account locked")
	require.NoError(t, err)

	assert.EqualValues(t, 1, atomic.LoadInt32(hits))
	assert.Equal(t, "Account", raw[domain.FieldCategory])
	assert.Equal(t, "Unlock account", raw[domain.FieldSuggestedNextAction])
}

func TestGenerateOpenAIRejected(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"quota", http.StatusTooManyRequests, `{"error":{"message":"You exceeded your current quota","type":"insufficient_quota"}}`, "exceeded your current quota"},
		{"server error without body", http.StatusBadGateway, `<html>bad gateway</html>`, "status 502"},
		{"no choices", http.StatusOK, `{"choices":[]}`, "no choices"},
		{"non json content", http.StatusOK, `{"choices":[{"message":{"content":"I think this is billing."}}]}`, "parsing triage response"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newOpenAITestServer(t, tt.status, tt.body)

			_, err := NewClient(openAIConfig(srv.URL), srv.Client(), nil).Generate(context.Background(), "My account locked")

			require.Error(t, err)
			assert.True(t, errors.Is(err, triage.ErrBackendUnavailable))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGenerateAnthropic(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		assert.True(t, strings.HasSuffix(r.URL.Path, "/v1/messages"), r.URL.Path)
		assert.Equal(t, "sk-ant-test", r.Header.Get("X-Api-Key"))

		var req map[string]any
		data, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(data, &req))
		assert.Equal(t, "claude-test", req["model"])

		resp := map[string]any{
			"id":            "msg_test",
			"type":          "message",
			"role":          "assistant",
			"model":         "claude-test",
			"stop_reason":   "end_turn",
			"stop_sequence": nil,
			"content": []map[string]any{
				{"type": "text", "text": triageJSON},
			},
			"usage": map[string]any{"input_tokens": 90, "output_tokens": 30},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	cfg := config.Config{
		LLMProvider:      config.ProviderAnthropic,
		LLMModel:         "claude-test",
		AnthropicAPIKey:  "sk-ant-test",
		AnthropicBaseURL: srv.URL + "/",
	}
	raw, err := NewClient(cfg, srv.Client(), nil).Generate(context.Background(), "My account locked")
	require.NoError(t, err)

	assert.EqualValues(t, 1, atomic.LoadInt32(&hits))
	assert.Equal(t, "High", raw[domain.FieldPriority])
}

func TestGenerateAnthropicServerErrorIsNotRetried(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"overloaded_error","message":"Overloaded"}}`))
	}))
	defer srv.Close()

	cfg := config.Config{
		LLMProvider:      config.ProviderAnthropic,
		AnthropicAPIKey:  "sk-ant-test",
		AnthropicBaseURL: srv.URL + "/",
	}
	_, err := NewClient(cfg, srv.Client(), nil).Generate(context.Background(), "help")

	require.Error(t, err)
	assert.True(t, errors.Is(err, triage.ErrBackendUnavailable))
	assert.EqualValues(t, 1, atomic.LoadInt32(&hits))
}

func TestPipelineFallsBackWhenBackendRejects(t *testing.T) {
	srv, _ := newOpenAITestServer(t, http.StatusTooManyRequests, `{"error":{"message":"quota","type":"insufficient_quota"}}`)
	client := NewClient(openAIConfig(srv.URL), srv.Client(), nil)
	p := triage.NewPipeline(client, triage.DefaultKeywords(), nil)

	rec, err := p.Process(context.Background(), "My account locked after reset")
	require.NoError(t, err)

	assert.Equal(t, domain.CategoryGeneral, rec.Category)
	assert.Equal(t, domain.PriorityHigh, rec.Priority)
	assert.Contains(t, rec.Reasoning, "'account locked'")
}
