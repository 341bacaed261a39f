package llm

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/hpungsan/clinicseo/internal/errors"
)

// OpenAIGenerator implements Generator with the chat-completions API. It
// serves OpenAI and any OpenAI-compatible endpoint, Gemini included.
type OpenAIGenerator struct {
	client   openai.Client
	settings Settings
}

// NewOpenAI builds a generator. SDK-level retries are disabled; retries are
// handled here so attempts and delays follow config.
func NewOpenAI(s Settings) (*OpenAIGenerator, error) {
	if s.APIKey == "" {
		return nil, errors.NewInvalidRequest("llm api key is required")
	}
	if s.Model == "" {
		return nil, errors.NewInvalidRequest("llm model is required")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(s.APIKey),
		option.WithMaxRetries(0),
	}
	if s.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(s.BaseURL))
	}
	if s.Timeout > 0 {
		opts = append(opts, option.WithHTTPClient(&http.Client{Timeout: s.Timeout}))
	}

	return &OpenAIGenerator{
		client:   openai.NewClient(opts...),
		settings: s,
	}, nil
}

// Name returns the provider name.
func (g *OpenAIGenerator) Name() string {
	return g.settings.Provider
}

// Generate sends prompt as a single user message.
func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string) (*Result, error) {
	var resp *openai.ChatCompletion

	// retry-go treats zero attempts as unlimited
	attempts := uint(max(g.settings.MaxRetries, 0)) + 1
	delay := g.settings.RetryDelay
	if delay <= 0 {
		delay = time.Second
	}

	err := retry.Do(
		func() error {
			r, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
				Model:    openai.ChatModel(g.settings.Model),
				Messages: []openai.ChatCompletionMessageParamUnion{openai.UserMessage(prompt)},
			})
			if err != nil {
				return err
			}
			resp = r
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(delay),
		retry.DelayType(retry.BackOffDelay),
		retry.RetryIf(isRetryable),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.NewCancelled("generation")
		}
		return nil, errors.NewGenerationFailed(g.settings.Provider, err)
	}

	if len(resp.Choices) == 0 {
		return nil, errors.NewGenerationFailed(g.settings.Provider, fmt.Errorf("empty choices"))
	}

	text, err := PostProcess(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, errors.NewGenerationFailed(g.settings.Provider, err)
	}

	return &Result{
		Text:             text,
		Provider:         g.settings.Provider,
		Model:            g.settings.Model,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}, nil
}

// isRetryable reports whether err is a rate limit, a server error, or a
// transport failure.
func isRetryable(err error) bool {
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *openai.Error
	if stderrors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500
	}
	return true
}
