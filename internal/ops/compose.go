package ops

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/hpungsan/clinicseo/internal/clinic"
	"github.com/hpungsan/clinicseo/internal/config"
	"github.com/hpungsan/clinicseo/internal/errors"
	"github.com/hpungsan/clinicseo/internal/prompt"
)

// ComposeInput contains parameters for the Compose operation.
type ComposeInput struct {
	RecordJSON string  // required
	WordCount  int     // default: cfg.DefaultWordCount
	Mode       string  // "fixed" (default) or "template"
	Session    string  // template mode: whose saved template to use
	Template   *string // template mode: explicit template, overrides the session's
}

// TemplateErrorInfo describes a failed template substitution.
type TemplateErrorInfo struct {
	Variable  string   `json:"variable"`
	Available []string `json:"available_variables"`
	Hint      string   `json:"hint"`
}

// ComposeOutput contains the result of the Compose operation.
// When TemplateError is set, Prompt holds the correction hint.
type ComposeOutput struct {
	Prompt        string             `json:"prompt"`
	Mode          string             `json:"mode"`
	WordCount     int                `json:"word_count"`
	Profile       clinic.Profile     `json:"profile"`
	TemplateError *TemplateErrorInfo `json:"template_error,omitempty"`
	Warnings      []string           `json:"warnings,omitempty"`
}

// Compose resolves the record and builds the prompt.
func Compose(ctx context.Context, database *sql.DB, cfg *config.Config, input ComposeInput) (*ComposeOutput, error) {
	if ctx.Err() != nil {
		return nil, errors.NewCancelled("compose")
	}

	record, warnings, err := parseRecord(cfg, input.RecordJSON)
	if err != nil {
		return nil, err
	}

	wordCount, err := resolveWordCount(cfg, input.WordCount)
	if err != nil {
		return nil, err
	}

	tmpl, err := selectTemplate(ctx, database, cfg, input)
	if err != nil {
		return nil, err
	}

	profile := clinic.ResolveProfile(record)
	result := prompt.Compose(profile, wordCount, tmpl)

	output := &ComposeOutput{
		Prompt:    result.Text,
		Mode:      result.Mode,
		WordCount: wordCount,
		Profile:   profile,
		Warnings:  warnings,
	}
	if result.Err != nil {
		output.TemplateError = &TemplateErrorInfo{
			Variable:  result.Err.Variable,
			Available: prompt.Variables,
			Hint:      result.Err.Hint(),
		}
	}
	return output, nil
}

// resolveWordCount applies the default and the configured range.
// The step is advisory only.
func resolveWordCount(cfg *config.Config, n int) (int, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if n == 0 {
		return cfg.DefaultWordCount, nil
	}
	if n < cfg.MinWordCount || n > cfg.MaxWordCount {
		return 0, errors.NewInvalidRequest(fmt.Sprintf("word_count must be between %d and %d", cfg.MinWordCount, cfg.MaxWordCount))
	}
	return n, nil
}

// selectTemplate returns "" for fixed mode, or the template text to fill.
// An explicit template is held to the same size limit as a saved one.
func selectTemplate(ctx context.Context, database *sql.DB, cfg *config.Config, input ComposeInput) (string, error) {
	mode := strings.ToLower(strings.TrimSpace(input.Mode))
	switch mode {
	case "", prompt.ModeFixed:
		return "", nil
	case prompt.ModeTemplate:
	default:
		return "", errors.NewInvalidRequest("mode must be one of: fixed, template")
	}

	if input.Template != nil {
		if strings.TrimSpace(*input.Template) == "" {
			return "", errors.NewInvalidRequest("template must not be empty")
		}
		if cfg != nil {
			if lint := prompt.Lint(*input.Template, cfg.TemplateMaxChars); lint.TooLarge {
				return "", errors.NewTemplateTooLarge(lint.MaxChars, lint.ActualChars)
			}
		}
		return *input.Template, nil
	}

	current, err := GetTemplate(ctx, database, GetTemplateInput{Session: input.Session})
	if err != nil {
		return "", err
	}
	return current.Text, nil
}
