package ops

import (
	"context"
	"fmt"

	"github.com/hpungsan/clinicseo/internal/clinic"
	"github.com/hpungsan/clinicseo/internal/config"
	"github.com/hpungsan/clinicseo/internal/errors"
)

// ResolveInput contains parameters for the Resolve operation.
type ResolveInput struct {
	RecordJSON string // required: JSON object or array of objects
}

// ResolveOutput contains the result of the Resolve operation.
type ResolveOutput struct {
	Profile  clinic.Profile `json:"profile"`
	Slug     string         `json:"slug"`
	Filename string         `json:"filename"`
	Warnings []string       `json:"warnings,omitempty"`
}

// Resolve parses a clinic record and resolves it into a profile.
func Resolve(ctx context.Context, cfg *config.Config, input ResolveInput) (*ResolveOutput, error) {
	if ctx.Err() != nil {
		return nil, errors.NewCancelled("resolve")
	}

	record, warnings, err := parseRecord(cfg, input.RecordJSON)
	if err != nil {
		return nil, err
	}

	profile := clinic.ResolveProfile(record)
	return &ResolveOutput{
		Profile:  profile,
		Slug:     clinic.Slug(profile.Name),
		Filename: clinic.DownloadFilename(profile),
		Warnings: warnings,
	}, nil
}

// parseRecord enforces the size limit and decodes the record.
// An array record yields a warning, not an error.
func parseRecord(cfg *config.Config, recordJSON string) (clinic.Record, []string, error) {
	if recordJSON == "" {
		return nil, nil, errors.NewInvalidRequest("record is required")
	}
	if cfg != nil && cfg.RecordMaxBytes > 0 && len(recordJSON) > cfg.RecordMaxBytes {
		return nil, nil, errors.NewRecordTooLarge(cfg.RecordMaxBytes, len(recordJSON))
	}

	record, discarded, err := clinic.ParseRecord([]byte(recordJSON))
	if err != nil {
		return nil, nil, errors.NewInvalidRecord(err.Error())
	}

	var warnings []string
	if discarded > 0 {
		warnings = append(warnings, fmt.Sprintf("record is an array; using the first object and ignoring %d more", discarded))
	}
	return record, warnings, nil
}
