package ops

import (
	"context"
	"database/sql"
	"time"

	"github.com/hpungsan/clinicseo/internal/clinic"
	"github.com/hpungsan/clinicseo/internal/config"
	"github.com/hpungsan/clinicseo/internal/content"
	"github.com/hpungsan/clinicseo/internal/db"
	"github.com/hpungsan/clinicseo/internal/errors"
	"github.com/hpungsan/clinicseo/internal/llm"
)

// GenerateInput contains parameters for the Generate operation.
type GenerateInput struct {
	RecordJSON string
	WordCount  int
	Mode       string
	Session    string
	Template   *string
}

// GenerateOutput contains the result of the Generate operation.
// Generated is false when the template could not be filled; Content then
// holds the correction hint and nothing is stored.
type GenerateOutput struct {
	Generated        bool               `json:"generated"`
	ID               string             `json:"id,omitempty"`
	Content          string             `json:"content"`
	ContentWords     int                `json:"content_words,omitempty"`
	Filename         string             `json:"filename"`
	Profile          clinic.Profile     `json:"profile"`
	Mode             string             `json:"mode"`
	WordCount        int                `json:"word_count"`
	Provider         string             `json:"provider,omitempty"`
	Model            string             `json:"model,omitempty"`
	PromptTokens     int64              `json:"prompt_tokens,omitempty"`
	CompletionTokens int64              `json:"completion_tokens,omitempty"`
	TemplateError    *TemplateErrorInfo `json:"template_error,omitempty"`
	Warnings         []string           `json:"warnings,omitempty"`
}

// Generate composes the prompt, calls the generator once, and stores the reply.
func Generate(ctx context.Context, database *sql.DB, cfg *config.Config, gen llm.Generator, input GenerateInput) (*GenerateOutput, error) {
	if gen == nil {
		return nil, errors.NewInvalidRequest("no generator configured")
	}

	composed, err := Compose(ctx, database, cfg, ComposeInput{
		RecordJSON: input.RecordJSON,
		WordCount:  input.WordCount,
		Mode:       input.Mode,
		Session:    input.Session,
		Template:   input.Template,
	})
	if err != nil {
		return nil, err
	}

	output := &GenerateOutput{
		Filename:  clinic.DownloadFilename(composed.Profile),
		Profile:   composed.Profile,
		Mode:      composed.Mode,
		WordCount: composed.WordCount,
		Warnings:  composed.Warnings,
	}

	if composed.TemplateError != nil {
		output.Content = composed.Prompt
		output.TemplateError = composed.TemplateError
		return output, nil
	}

	res, err := gen.Generate(ctx, composed.Prompt)
	if err != nil {
		if errors.Is(err, errors.ErrCancelled) || errors.Is(err, errors.ErrGenerationFailed) {
			return nil, err
		}
		return nil, errors.NewGenerationFailed(gen.Name(), err)
	}

	id, err := generateULID()
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	session := ResolveSession(input.Session)
	g := &content.Generation{
		ID:               id,
		SessionRaw:       session.Raw,
		SessionNorm:      session.Norm,
		Profile:          composed.Profile,
		Slug:             clinic.Slug(composed.Profile.Name),
		WordCount:        composed.WordCount,
		PromptMode:       composed.Mode,
		PromptText:       composed.Prompt,
		ContentHTML:      res.Text,
		ContentWords:     clinic.CountWords(res.Text),
		Provider:         res.Provider,
		Model:            res.Model,
		PromptTokens:     res.PromptTokens,
		CompletionTokens: res.CompletionTokens,
		CreatedAt:        time.Now().Unix(),
	}
	if err := db.InsertGeneration(ctx, database, g); err != nil {
		return nil, err
	}

	output.Generated = true
	output.ID = g.ID
	output.Content = g.ContentHTML
	output.ContentWords = g.ContentWords
	output.Provider = g.Provider
	output.Model = g.Model
	output.PromptTokens = g.PromptTokens
	output.CompletionTokens = g.CompletionTokens
	return output, nil
}
