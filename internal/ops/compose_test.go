package ops

import (
	"context"
	"strings"
	"testing"

	"github.com/hpungsan/clinicseo/internal/config"
	"github.com/hpungsan/clinicseo/internal/errors"
	"github.com/hpungsan/clinicseo/internal/prompt"
)

func TestCompose_FixedDefault(t *testing.T) {
	database := setupDB(t)
	cfg := config.DefaultConfig()

	out, err := Compose(context.Background(), database, cfg, ComposeInput{RecordJSON: sunriseRecord})
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}

	if out.Mode != prompt.ModeFixed {
		t.Errorf("Mode = %q, want fixed", out.Mode)
	}
	if out.WordCount != 500 {
		t.Errorf("WordCount = %d, want default 500", out.WordCount)
	}
	if !strings.Contains(out.Prompt, "exactly 500 words") {
		t.Error("prompt missing word count")
	}
	if !strings.Contains(out.Prompt, "mailto:info@sunrise.test") {
		t.Error("prompt missing email contact section")
	}
	if out.TemplateError != nil {
		t.Errorf("TemplateError = %+v, want nil", out.TemplateError)
	}
}

func TestCompose_WordCountRange(t *testing.T) {
	database := setupDB(t)
	cfg := config.DefaultConfig()

	tests := []struct {
		name      string
		wordCount int
		wantErr   bool
	}{
		{name: "min", wordCount: 500},
		{name: "max", wordCount: 800},
		{name: "off step still accepted", wordCount: 655},
		{name: "below", wordCount: 499, wantErr: true},
		{name: "above", wordCount: 801, wantErr: true},
		{name: "negative", wordCount: -10, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Compose(context.Background(), database, cfg, ComposeInput{
				RecordJSON: sunriseRecord,
				WordCount:  tt.wordCount,
			})
			if tt.wantErr {
				if !errors.Is(err, errors.ErrInvalidRequest) {
					t.Errorf("Compose error = %v, want INVALID_REQUEST", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Compose failed: %v", err)
			}
			if out.WordCount != tt.wordCount {
				t.Errorf("WordCount = %d, want %d", out.WordCount, tt.wordCount)
			}
		})
	}
}

func TestCompose_ExplicitTemplate(t *testing.T) {
	database := setupDB(t)

	out, err := Compose(context.Background(), database, config.DefaultConfig(), ComposeInput{
		RecordJSON: sunriseRecord,
		Mode:       "template",
		Template:   stringPtr("{clinic_name} / {word_count} / {phone}"),
		WordCount:  600,
	})
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}
	if out.Prompt != "Sunrise Women Clinic / 600 / " {
		t.Errorf("Prompt = %q", out.Prompt)
	}
	if out.Mode != prompt.ModeTemplate {
		t.Errorf("Mode = %q", out.Mode)
	}
}

func TestCompose_TemplateErrorIsNotFailure(t *testing.T) {
	database := setupDB(t)

	out, err := Compose(context.Background(), database, config.DefaultConfig(), ComposeInput{
		RecordJSON: sunriseRecord,
		Mode:       "template",
		Template:   stringPtr("Hello {clinic_name}, {bogus}"),
	})
	if err != nil {
		t.Fatalf("Compose should not fail on template errors: %v", err)
	}
	if out.TemplateError == nil {
		t.Fatal("TemplateError = nil, want bogus")
	}
	if out.TemplateError.Variable != "bogus" {
		t.Errorf("Variable = %q", out.TemplateError.Variable)
	}
	if len(out.TemplateError.Available) != 9 {
		t.Errorf("Available = %v", out.TemplateError.Available)
	}
	if out.Prompt != out.TemplateError.Hint {
		t.Errorf("Prompt should carry the hint, got %q", out.Prompt)
	}
}

func TestCompose_SessionTemplate(t *testing.T) {
	database := setupDB(t)
	cfg := config.DefaultConfig()
	ctx := context.Background()

	// Unsaved session falls back to the default template
	out, err := Compose(ctx, database, cfg, ComposeInput{RecordJSON: sunriseRecord, Mode: "template", Session: "desk"})
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}
	if !strings.Contains(out.Prompt, "- Email: info@sunrise.test") {
		t.Error("default template should render contact lines")
	}

	if _, err := SaveTemplate(ctx, database, cfg, SaveTemplateInput{Session: "Desk", Text: "Only {location}"}); err != nil {
		t.Fatalf("SaveTemplate failed: %v", err)
	}

	out, err = Compose(ctx, database, cfg, ComposeInput{RecordJSON: sunriseRecord, Mode: "TEMPLATE", Session: " desk "})
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}
	if out.Prompt != "Only Nakuru" {
		t.Errorf("Prompt = %q, want session template", out.Prompt)
	}
}

func TestCompose_InvalidMode(t *testing.T) {
	database := setupDB(t)

	_, err := Compose(context.Background(), database, config.DefaultConfig(), ComposeInput{RecordJSON: sunriseRecord, Mode: "freestyle"})
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("Compose error = %v, want INVALID_REQUEST", err)
	}

	_, err = Compose(context.Background(), database, config.DefaultConfig(), ComposeInput{RecordJSON: sunriseRecord, Mode: "template", Template: stringPtr("  ")})
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("Compose with blank template error = %v, want INVALID_REQUEST", err)
	}
}

func TestCompose_ExplicitTemplateTooLarge(t *testing.T) {
	database := setupDB(t)
	cfg := config.DefaultConfig()
	cfg.TemplateMaxChars = 20

	tmpl := "About {clinic_name} in {location} today"
	_, err := Compose(context.Background(), database, cfg, ComposeInput{
		RecordJSON: sunriseRecord,
		Mode:       prompt.ModeTemplate,
		Template:   &tmpl,
	})
	if !errors.Is(err, errors.ErrTemplateTooLarge) {
		t.Fatalf("Compose error = %v, want TEMPLATE_TOO_LARGE", err)
	}

	// Fixed mode ignores the template entirely
	if _, err := Compose(context.Background(), database, cfg, ComposeInput{
		RecordJSON: sunriseRecord,
		Template:   &tmpl,
	}); err != nil {
		t.Fatalf("fixed mode Compose failed: %v", err)
	}
}
