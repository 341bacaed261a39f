package content

import (
	"github.com/hpungsan/clinicseo/internal/clinic"
)

// Generation is one stored piece of generated clinic copy together with the
// inputs that produced it.
type Generation struct {
	// ID is a ULID that uniquely identifies this generation
	ID string

	// SessionRaw is the session key as provided by the caller
	SessionRaw string

	// SessionNorm is the normalized session key (lowercased, trimmed, collapsed spaces)
	SessionNorm string

	// Profile is the resolved clinic profile (stored as JSON in DB)
	Profile clinic.Profile

	// Slug is the download file stem derived from the clinic name
	Slug string

	// WordCount is the requested total word count
	WordCount int

	// PromptMode is "fixed" or "template"
	PromptMode string

	// PromptText is the prompt sent to the model
	PromptText string

	// ContentHTML is the post-processed model reply
	ContentHTML string

	// ContentWords is the word count of ContentHTML with tags stripped
	ContentWords int

	// Provider and Model identify the generation service
	Provider string
	Model    string

	// Token usage as reported by the service
	PromptTokens     int64
	CompletionTokens int64

	// CreatedAt is the Unix timestamp when the generation was stored
	CreatedAt int64

	// DeletedAt is the Unix timestamp for soft delete (nullable)
	DeletedAt *int64
}

// Filename is the download name for the generated HTML.
func (g *Generation) Filename() string {
	return g.Slug + "-seo.html"
}
