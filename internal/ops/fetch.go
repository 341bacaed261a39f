package ops

import (
	"context"
	"database/sql"
	"strings"

	"github.com/hpungsan/clinicseo/internal/clinic"
	"github.com/hpungsan/clinicseo/internal/db"
	"github.com/hpungsan/clinicseo/internal/errors"
)

// FetchInput contains parameters for the Fetch operation.
type FetchInput struct {
	ID             string // required
	IncludeDeleted bool
	IncludePrompt  bool
}

// FetchOutput is a stored generation.
type FetchOutput struct {
	ID               string         `json:"id"`
	Session          string         `json:"session"`
	Profile          clinic.Profile `json:"profile"`
	Filename         string         `json:"filename"`
	WordCount        int            `json:"word_count"`
	Mode             string         `json:"mode"`
	Prompt           string         `json:"prompt,omitempty"`
	Content          string         `json:"content"`
	ContentWords     int            `json:"content_words"`
	Provider         string         `json:"provider"`
	Model            string         `json:"model"`
	PromptTokens     int64          `json:"prompt_tokens"`
	CompletionTokens int64          `json:"completion_tokens"`
	CreatedAt        int64          `json:"created_at"`
	DeletedAt        *int64         `json:"deleted_at,omitempty"`
}

// Fetch retrieves a generation by ID.
func Fetch(ctx context.Context, database *sql.DB, input FetchInput) (*FetchOutput, error) {
	id := strings.TrimSpace(input.ID)
	if id == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}

	g, err := db.GetGeneration(ctx, database, id, input.IncludeDeleted)
	if err != nil {
		return nil, err
	}

	output := &FetchOutput{
		ID:               g.ID,
		Session:          g.SessionRaw,
		Profile:          g.Profile,
		Filename:         g.Filename(),
		WordCount:        g.WordCount,
		Mode:             g.PromptMode,
		Content:          g.ContentHTML,
		ContentWords:     g.ContentWords,
		Provider:         g.Provider,
		Model:            g.Model,
		PromptTokens:     g.PromptTokens,
		CompletionTokens: g.CompletionTokens,
		CreatedAt:        g.CreatedAt,
		DeletedAt:        g.DeletedAt,
	}
	if input.IncludePrompt {
		output.Prompt = g.PromptText
	}
	return output, nil
}
