package ops

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/clinicseo/internal/config"
	"github.com/hpungsan/clinicseo/internal/errors"
	"github.com/hpungsan/clinicseo/internal/llm"
)

// TestWorkflow_SessionLifecycle drives one front-desk session from record
// upload to purge.
func TestWorkflow_SessionLifecycle(t *testing.T) {
	ctx := context.Background()
	database := setupDB(t)
	exportDir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.AllowedPaths = []string{exportDir}
	gen := llm.NewMock()
	const session = "Front Desk"

	resolved, err := Resolve(ctx, cfg, ResolveInput{RecordJSON: sunriseRecord})
	require.NoError(t, err)
	assert.Equal(t, "Sunrise Women Clinic", resolved.Profile.Name)
	assert.Equal(t, "Obstetrics", resolved.Profile.SubSpecialties)
	assert.Equal(t, "sunrise-women-clinic-seo.html", resolved.Filename)

	// A broken template is refused before it is stored
	_, err = SaveTemplate(ctx, database, cfg, SaveTemplateInput{Session: session, Text: "Write about {clinic}"})
	require.True(t, errors.Is(err, errors.ErrTemplate), "SaveTemplate error = %v", err)

	saved, err := SaveTemplate(ctx, database, cfg, SaveTemplateInput{
		Session: session,
		Text:    "Write {word_count} words about {clinic_name} in {location}. Email: {email}",
	})
	require.NoError(t, err)
	assert.True(t, saved.Saved)
	assert.NotEmpty(t, saved.Unused)

	// Session names are matched case- and space-insensitively
	current, err := GetTemplate(ctx, database, GetTemplateInput{Session: "  front   DESK "})
	require.NoError(t, err)
	assert.False(t, current.IsDefault)

	out, err := Generate(ctx, database, cfg, gen, GenerateInput{
		RecordJSON: sunriseRecord,
		WordCount:  700,
		Mode:       "template",
		Session:    session,
	})
	require.NoError(t, err)
	require.True(t, out.Generated)
	assert.Equal(t, "template", out.Mode)

	prompts := gen.Prompts()
	require.Len(t, prompts, 1)
	assert.Equal(t,
		"Write 700 words about Sunrise Women Clinic in Nakuru. Email: info@sunrise.test",
		prompts[0])

	fetched, err := Fetch(ctx, database, FetchInput{ID: out.ID, IncludePrompt: true})
	require.NoError(t, err)
	assert.Equal(t, prompts[0], fetched.Prompt)
	assert.Equal(t, out.Content, fetched.Content)

	listed, err := List(ctx, database, ListInput{Session: "front desk"})
	require.NoError(t, err)
	require.Len(t, listed.Items, 1)
	assert.Equal(t, out.ID, listed.Items[0].ID)

	exportPath := filepath.Join(exportDir, "sunrise.html")
	exported, err := Export(ctx, database, cfg, ExportInput{ID: out.ID, Path: exportPath})
	require.NoError(t, err)
	data, err := os.ReadFile(exported.Path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "<p>"))

	// Resetting restores the default for the next generation
	reset, err := ResetTemplate(ctx, database, ResetTemplateInput{Session: session})
	require.NoError(t, err)
	assert.True(t, reset.Reset)

	_, err = Delete(ctx, database, DeleteInput{ID: out.ID})
	require.NoError(t, err)

	listed, err = List(ctx, database, ListInput{Session: session})
	require.NoError(t, err)
	assert.Empty(t, listed.Items)

	purged, err := Purge(ctx, database, PurgeInput{Session: stringPtr(session)})
	require.NoError(t, err)
	assert.Equal(t, 1, purged.Purged)

	_, err = Fetch(ctx, database, FetchInput{ID: out.ID, IncludeDeleted: true})
	assert.True(t, errors.Is(err, errors.ErrNotFound), "Fetch after purge error = %v", err)
}

// TestWorkflow_TemplateErrorSkipsModel checks that an unknown placeholder
// surfaces the hint and never reaches the generator.
func TestWorkflow_TemplateErrorSkipsModel(t *testing.T) {
	ctx := context.Background()
	database := setupDB(t)
	gen := llm.NewMock()

	out, err := Generate(ctx, database, config.DefaultConfig(), gen, GenerateInput{
		RecordJSON: sunriseRecord,
		Mode:       "template",
		Template:   stringPtr("About {clinic_name}"),
	})
	require.NoError(t, err)
	assert.False(t, out.Generated)
	require.NotNil(t, out.TemplateError)
	assert.Equal(t, "clinic_name", out.TemplateError.Variable)
	assert.Contains(t, out.Content, "Missing variable in prompt template: 'clinic_name'")
	assert.Empty(t, gen.Prompts())

	listed, err := List(ctx, database, ListInput{})
	require.NoError(t, err)
	assert.Zero(t, listed.Pagination.Total)
}
