package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/hpungsan/clinicseo/internal/errors"
)

// SessionTemplate is the prompt template a session is currently editing.
type SessionTemplate struct {
	SessionRaw  string
	SessionNorm string
	Text        string
	UpdatedAt   int64
}

// GetTemplate returns the stored template for a session.
// Returns NOT_FOUND when the session has never saved one.
func GetTemplate(ctx context.Context, db *sql.DB, sessionNorm string) (*SessionTemplate, error) {
	query := `
		SELECT session_raw, session_norm, template_text, updated_at
		FROM templates
		WHERE session_norm = ?
	`

	var t SessionTemplate
	err := db.QueryRowContext(ctx, query, sessionNorm).Scan(&t.SessionRaw, &t.SessionNorm, &t.Text, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound(sessionNorm)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return &t, nil
}

// UpsertTemplate stores the template for a session, replacing any previous text.
func UpsertTemplate(ctx context.Context, db *sql.DB, t *SessionTemplate) error {
	now := time.Now().Unix()

	query := `
		INSERT INTO templates (session_norm, session_raw, template_text, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(session_norm) DO UPDATE SET
			session_raw = excluded.session_raw,
			template_text = excluded.template_text,
			updated_at = excluded.updated_at
	`

	if _, err := db.ExecContext(ctx, query, t.SessionNorm, t.SessionRaw, t.Text, now); err != nil {
		return errors.NewInternal(err)
	}
	t.UpdatedAt = now
	return nil
}

// DeleteTemplate removes a session's template. Reports whether a row existed.
func DeleteTemplate(ctx context.Context, db *sql.DB, sessionNorm string) (bool, error) {
	result, err := db.ExecContext(ctx, `DELETE FROM templates WHERE session_norm = ?`, sessionNorm)
	if err != nil {
		return false, errors.NewInternal(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, errors.NewInternal(err)
	}
	return n > 0, nil
}
