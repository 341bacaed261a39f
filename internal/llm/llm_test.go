package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hpungsan/clinicseo/internal/config"
	"github.com/hpungsan/clinicseo/internal/errors"
)

func completionBody(content string) string {
	body, _ := json.Marshal(map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 1,
		"model":   "test-model",
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": content},
		}},
		"usage": map[string]any{"prompt_tokens": 12, "completion_tokens": 7, "total_tokens": 19},
	})
	return string(body)
}

func testSettings(url string) Settings {
	return Settings{
		Provider:   ProviderGemini,
		Model:      "gemini-2.0-flash",
		BaseURL:    url,
		APIKey:     "test-key",
		MaxRetries: 2,
		RetryDelay: time.Millisecond,
	}
}

func TestOpenAIGenerator_Success(t *testing.T) {
	var gotModel, gotPrompt, gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %s, want /chat/completions", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		gotModel = req.Model
		if len(req.Messages) == 1 && req.Messages[0].Role == "user" {
			gotPrompt = req.Messages[0].Content
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionBody("```html\n<p>Sunrise Clinic</p>\n```")))
	}))
	defer server.Close()

	gen, err := NewOpenAI(testSettings(server.URL))
	if err != nil {
		t.Fatalf("NewOpenAI() error = %v", err)
	}

	res, err := gen.Generate(context.Background(), "write about Sunrise")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if res.Text != "<p>Sunrise Clinic</p>" {
		t.Errorf("Text = %q, want fence stripped", res.Text)
	}
	if res.PromptTokens != 12 || res.CompletionTokens != 7 {
		t.Errorf("tokens = %d/%d, want 12/7", res.PromptTokens, res.CompletionTokens)
	}
	if res.Provider != ProviderGemini || res.Model != "gemini-2.0-flash" {
		t.Errorf("Provider/Model = %s/%s", res.Provider, res.Model)
	}
	if gotModel != "gemini-2.0-flash" {
		t.Errorf("request model = %q", gotModel)
	}
	if gotPrompt != "write about Sunrise" {
		t.Errorf("request prompt = %q", gotPrompt)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("Authorization = %q", gotAuth)
	}
}

func TestOpenAIGenerator_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
			return
		}
		_, _ = w.Write([]byte(completionBody("<p>ok</p>")))
	}))
	defer server.Close()

	gen, err := NewOpenAI(testSettings(server.URL))
	if err != nil {
		t.Fatalf("NewOpenAI() error = %v", err)
	}

	res, err := gen.Generate(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if res.Text != "<p>ok</p>" {
		t.Errorf("Text = %q", res.Text)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("calls = %d, want 3", got)
	}
}

func TestOpenAIGenerator_NoRetryOnClientError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"bad request","type":"invalid_request_error"}}`))
	}))
	defer server.Close()

	gen, err := NewOpenAI(testSettings(server.URL))
	if err != nil {
		t.Fatalf("NewOpenAI() error = %v", err)
	}

	_, err = gen.Generate(context.Background(), "prompt")
	if !errors.Is(err, errors.ErrGenerationFailed) {
		t.Fatalf("Generate() error = %v, want GENERATION_FAILED", err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("calls = %d, want 1", got)
	}
}

func TestOpenAIGenerator_NegativeRetriesMeansSingleAttempt(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":{"message":"overloaded","type":"server_error"}}`))
	}))
	defer server.Close()

	s := testSettings(server.URL)
	s.MaxRetries = -1
	gen, err := NewOpenAI(s)
	if err != nil {
		t.Fatalf("NewOpenAI() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err = gen.Generate(ctx, "prompt")
	if !errors.Is(err, errors.ErrGenerationFailed) {
		t.Fatalf("Generate() error = %v, want GENERATION_FAILED", err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("calls = %d, want 1", got)
	}
}

func TestOpenAIGenerator_EmptyReply(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionBody("   ")))
	}))
	defer server.Close()

	gen, _ := NewOpenAI(testSettings(server.URL))
	_, err := gen.Generate(context.Background(), "prompt")
	if !errors.Is(err, errors.ErrGenerationFailed) {
		t.Fatalf("Generate() error = %v, want GENERATION_FAILED", err)
	}
}

func TestOpenAIGenerator_Cancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	gen, _ := NewOpenAI(testSettings(server.URL))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := gen.Generate(ctx, "prompt")
	if !errors.Is(err, errors.ErrCancelled) {
		t.Fatalf("Generate() error = %v, want CANCELLED", err)
	}
}

func TestNewOpenAI_Validation(t *testing.T) {
	if _, err := NewOpenAI(Settings{Model: "m"}); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("missing key: error = %v", err)
	}
	if _, err := NewOpenAI(Settings{APIKey: "k"}); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("missing model: error = %v", err)
	}
}

func TestSettingsFromConfig(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "gem-key")
	t.Setenv("CUSTOM_KEY", "custom")

	s, err := SettingsFromConfig(config.LLMConfig{Provider: "Gemini"})
	if err != nil {
		t.Fatalf("SettingsFromConfig() error = %v", err)
	}
	if s.Provider != ProviderGemini || s.Model != "gemini-2.0-flash" || s.APIKey != "gem-key" {
		t.Errorf("gemini settings = %+v", s)
	}
	if !strings.Contains(s.BaseURL, "generativelanguage.googleapis.com") {
		t.Errorf("BaseURL = %q", s.BaseURL)
	}

	s, err = SettingsFromConfig(config.LLMConfig{Provider: "openai", Model: "gpt-x", APIKeyEnv: "CUSTOM_KEY", BaseURL: "http://local"})
	if err != nil {
		t.Fatalf("SettingsFromConfig() error = %v", err)
	}
	if s.Model != "gpt-x" || s.APIKey != "custom" || s.BaseURL != "http://local" {
		t.Errorf("openai settings = %+v", s)
	}
}

func TestSettingsFromConfig_ClampsNegativeRetries(t *testing.T) {
	s, err := SettingsFromConfig(config.LLMConfig{Provider: "mock", MaxRetries: -3})
	if err != nil {
		t.Fatalf("SettingsFromConfig() error = %v", err)
	}
	if s.MaxRetries != 0 {
		t.Errorf("MaxRetries = %d, want 0", s.MaxRetries)
	}
}

func TestSettingsFromConfig_Errors(t *testing.T) {
	t.Setenv("DEEPSEEK_API_KEY", "")

	if _, err := SettingsFromConfig(config.LLMConfig{Provider: "deepseek"}); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("missing key: error = %v", err)
	}
	if _, err := SettingsFromConfig(config.LLMConfig{Provider: "claude-ish"}); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("unknown provider: error = %v", err)
	}
}

func TestNewFromConfig_Mock(t *testing.T) {
	gen, err := NewFromConfig(config.LLMConfig{Provider: "mock"})
	if err != nil {
		t.Fatalf("NewFromConfig() error = %v", err)
	}
	if gen.Name() != ProviderMock {
		t.Errorf("Name() = %q", gen.Name())
	}
}

func TestMockGenerator(t *testing.T) {
	m := NewMock()
	res, err := m.Generate(context.Background(), "one two three")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if res.PromptTokens != 3 {
		t.Errorf("PromptTokens = %d, want 3", res.PromptTokens)
	}
	if got := m.Prompts(); len(got) != 1 || got[0] != "one two three" {
		t.Errorf("Prompts() = %v", got)
	}

	m.Err = errors.NewGenerationFailed(ProviderMock, context.DeadlineExceeded)
	if _, err := m.Generate(context.Background(), "x"); err == nil {
		t.Error("Generate() should return configured error")
	}
}

func TestPostProcess(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "plain", input: "  <p>hi</p>\n", want: "<p>hi</p>"},
		{name: "html fence", input: "```html\n<p>hi</p>\n```", want: "<p>hi</p>"},
		{name: "bare fence", input: "```\n<p>hi</p>```", want: "<p>hi</p>"},
		{name: "inner fence untouched", input: "<p>a</p>\n```x```", want: "<p>a</p>\n```x```"},
		{name: "empty", input: "  ", wantErr: true},
		{name: "empty fence", input: "```html\n```", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PostProcess(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("PostProcess(%q) expected error", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("PostProcess() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("PostProcess(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
