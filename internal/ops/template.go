package ops

import (
	"context"
	"database/sql"
	"strings"

	"github.com/hpungsan/clinicseo/internal/config"
	"github.com/hpungsan/clinicseo/internal/db"
	"github.com/hpungsan/clinicseo/internal/errors"
	"github.com/hpungsan/clinicseo/internal/prompt"
)

// GetTemplateInput contains parameters for the GetTemplate operation.
type GetTemplateInput struct {
	Session string // default: "default"
}

// TemplateOutput describes a session's current prompt template.
type TemplateOutput struct {
	Session   string   `json:"session"`
	Text      string   `json:"text"`
	IsDefault bool     `json:"is_default"`
	UpdatedAt int64    `json:"updated_at,omitempty"`
	Variables []string `json:"variables"`
}

// GetTemplate returns the session's saved template, or the built-in default.
func GetTemplate(ctx context.Context, database *sql.DB, input GetTemplateInput) (*TemplateOutput, error) {
	session := ResolveSession(input.Session)

	stored, err := db.GetTemplate(ctx, database, session.Norm)
	if errors.Is(err, errors.ErrNotFound) {
		return &TemplateOutput{
			Session:   session.Raw,
			Text:      prompt.DefaultTemplate,
			IsDefault: true,
			Variables: prompt.Variables,
		}, nil
	}
	if err != nil {
		return nil, err
	}

	return &TemplateOutput{
		Session:   stored.SessionRaw,
		Text:      stored.Text,
		IsDefault: false,
		UpdatedAt: stored.UpdatedAt,
		Variables: prompt.Variables,
	}, nil
}

// SaveTemplateInput contains parameters for the SaveTemplate operation.
type SaveTemplateInput struct {
	Session string
	Text    string // required
}

// SaveTemplateOutput contains the result of the SaveTemplate operation.
type SaveTemplateOutput struct {
	Session   string   `json:"session"`
	Saved     bool     `json:"saved"`
	Unused    []string `json:"unused_variables,omitempty"`
	UpdatedAt int64    `json:"updated_at"`
}

// SaveTemplate lints and stores a session's template.
// Unknown placeholders are rejected so generation never hits them later.
func SaveTemplate(ctx context.Context, database *sql.DB, cfg *config.Config, input SaveTemplateInput) (*SaveTemplateOutput, error) {
	if strings.TrimSpace(input.Text) == "" {
		return nil, errors.NewInvalidRequest("template text is required")
	}

	maxChars := 0
	if cfg != nil {
		maxChars = cfg.TemplateMaxChars
	}
	lint := prompt.Lint(input.Text, maxChars)
	if lint.TooLarge {
		return nil, errors.NewTemplateTooLarge(lint.MaxChars, lint.ActualChars)
	}
	if len(lint.Unknown) > 0 {
		return nil, errors.NewTemplateError(lint.Unknown, prompt.Variables)
	}

	session := ResolveSession(input.Session)
	stored := &db.SessionTemplate{
		SessionRaw:  session.Raw,
		SessionNorm: session.Norm,
		Text:        input.Text,
	}
	if err := db.UpsertTemplate(ctx, database, stored); err != nil {
		return nil, err
	}

	return &SaveTemplateOutput{
		Session:   session.Raw,
		Saved:     true,
		Unused:    lint.Unused,
		UpdatedAt: stored.UpdatedAt,
	}, nil
}

// ResetTemplateInput contains parameters for the ResetTemplate operation.
type ResetTemplateInput struct {
	Session string
}

// ResetTemplateOutput contains the result of the ResetTemplate operation.
type ResetTemplateOutput struct {
	Session string `json:"session"`
	Reset   bool   `json:"reset"` // false when the session was already on the default
	Text    string `json:"text"`
}

// ResetTemplate discards a session's template so the default applies again.
func ResetTemplate(ctx context.Context, database *sql.DB, input ResetTemplateInput) (*ResetTemplateOutput, error) {
	session := ResolveSession(input.Session)

	existed, err := db.DeleteTemplate(ctx, database, session.Norm)
	if err != nil {
		return nil, err
	}

	return &ResetTemplateOutput{
		Session: session.Raw,
		Reset:   existed,
		Text:    prompt.DefaultTemplate,
	}, nil
}
