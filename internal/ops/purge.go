package ops

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hpungsan/clinicseo/internal/db"
	"github.com/hpungsan/clinicseo/internal/errors"
)

// PurgeInput contains parameters for the Purge operation.
type PurgeInput struct {
	Session       *string // optional filter by session
	OlderThanDays *int    // optional, only purge if deleted_at < (now - N days)
}

// PurgeOutput contains the result of the Purge operation.
type PurgeOutput struct {
	Purged  int    `json:"purged"`
	Message string `json:"message"`
}

// Purge permanently deletes soft-deleted generations.
func Purge(ctx context.Context, database *sql.DB, input PurgeInput) (*PurgeOutput, error) {
	var olderThan time.Duration
	if input.OlderThanDays != nil {
		if *input.OlderThanDays < 0 {
			return nil, errors.NewInvalidRequest("older_than_days must not be negative")
		}
		olderThan = time.Duration(*input.OlderThanDays) * 24 * time.Hour
	}

	var sessionNorm *string
	if input.Session != nil {
		norm := ResolveSession(*input.Session).Norm
		sessionNorm = &norm
	}

	count, err := db.PurgeDeleted(ctx, database, sessionNorm, olderThan)
	if err != nil {
		return nil, err
	}

	return &PurgeOutput{
		Purged:  count,
		Message: formatPurgeMessage(count, input.Session, input.OlderThanDays),
	}, nil
}

// formatPurgeMessage creates a human-readable message for the purge result.
func formatPurgeMessage(count int, session *string, olderThanDays *int) string {
	if count == 0 {
		return "No deleted generations to purge"
	}

	word := "generation"
	if count > 1 {
		word = "generations"
	}

	msg := fmt.Sprintf("Permanently deleted %d %s", count, word)

	if session != nil {
		msg += fmt.Sprintf(" from session %q", *session)
	}

	if olderThanDays != nil {
		msg += fmt.Sprintf(" (deleted more than %d days ago)", *olderThanDays)
	}

	return msg
}
