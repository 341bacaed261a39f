package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/hpungsan/clinicseo/internal/clinic"
	"github.com/hpungsan/clinicseo/internal/content"
	"github.com/hpungsan/clinicseo/internal/errors"
)

const generationColumns = `
	id, session_raw, session_norm, profile_json, slug, word_count,
	prompt_mode, prompt_text, content_html, content_words,
	provider, model, prompt_tokens, completion_tokens, created_at, deleted_at
`

// summaryColumns leaves out the prompt and HTML, which listings never show.
const summaryColumns = `
	id, session_raw, profile_json, slug, word_count, content_words,
	prompt_mode, provider, model, created_at, deleted_at
`

// InsertGeneration stores a new generation.
func InsertGeneration(ctx context.Context, db *sql.DB, g *content.Generation) error {
	profileJSON, err := json.Marshal(g.Profile)
	if err != nil {
		return errors.NewInternal(err)
	}

	query := `
		INSERT INTO generations (
			id, session_raw, session_norm, clinic_name, slug, word_count,
			profile_json, prompt_mode, prompt_text, content_html, content_words,
			provider, model, prompt_tokens, completion_tokens, created_at, deleted_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL)
	`

	_, err = db.ExecContext(ctx, query,
		g.ID, g.SessionRaw, g.SessionNorm, g.Profile.Name, g.Slug, g.WordCount,
		string(profileJSON), g.PromptMode, g.PromptText, g.ContentHTML, g.ContentWords,
		g.Provider, g.Model, g.PromptTokens, g.CompletionTokens, g.CreatedAt,
	)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// GetGeneration retrieves a generation by its ULID.
// If includeDeleted is false, soft-deleted generations are excluded.
func GetGeneration(ctx context.Context, db *sql.DB, id string, includeDeleted bool) (*content.Generation, error) {
	query := `SELECT ` + generationColumns + ` FROM generations WHERE id = ?`
	if !includeDeleted {
		query += " AND deleted_at IS NULL"
	}

	g, err := scanGeneration(db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound(id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return g, nil
}

// ListFilters narrows ListGenerations.
type ListFilters struct {
	SessionNorm    *string
	IncludeDeleted bool
}

// ListGenerations returns summaries newest first, with the total matching count.
func ListGenerations(ctx context.Context, db *sql.DB, filters ListFilters, limit, offset int) ([]content.Summary, int, error) {
	where := " WHERE 1=1"
	var args []any
	if filters.SessionNorm != nil {
		where += " AND session_norm = ?"
		args = append(args, *filters.SessionNorm)
	}
	if !filters.IncludeDeleted {
		where += " AND deleted_at IS NULL"
	}

	var total int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM generations"+where, args...).Scan(&total); err != nil {
		return nil, 0, errors.NewInternal(err)
	}

	// id breaks ties between rows created in the same second
	query := `SELECT ` + summaryColumns + ` FROM generations` + where +
		` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	rows, err := db.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, errors.NewInternal(err)
	}
	defer rows.Close()

	summaries := []content.Summary{}
	for rows.Next() {
		sum, err := scanSummary(rows)
		if err != nil {
			return nil, 0, errors.NewInternal(err)
		}
		summaries = append(summaries, *sum)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.NewInternal(err)
	}

	return summaries, total, nil
}

// SoftDeleteGeneration marks a generation as deleted by setting deleted_at.
func SoftDeleteGeneration(ctx context.Context, db *sql.DB, id string) error {
	now := time.Now().Unix()

	query := `
		UPDATE generations
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := db.ExecContext(ctx, query, now, id)
	if err != nil {
		return errors.NewInternal(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFound(id)
	}

	return nil
}

// PurgeDeleted permanently removes soft-deleted generations.
// olderThan > 0 limits the purge to rows deleted before now-olderThan.
func PurgeDeleted(ctx context.Context, db *sql.DB, sessionNorm *string, olderThan time.Duration) (int, error) {
	query := "DELETE FROM generations WHERE deleted_at IS NOT NULL"
	var args []any
	if sessionNorm != nil {
		query += " AND session_norm = ?"
		args = append(args, *sessionNorm)
	}
	if olderThan > 0 {
		query += " AND deleted_at < ?"
		args = append(args, time.Now().Add(-olderThan).Unix())
	}

	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	return int(n), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanGeneration scans a single row into a Generation.
func scanGeneration(row rowScanner) (*content.Generation, error) {
	var (
		g           content.Generation
		profileJSON string
		deletedAt   sql.NullInt64
	)

	err := row.Scan(
		&g.ID, &g.SessionRaw, &g.SessionNorm, &profileJSON, &g.Slug, &g.WordCount,
		&g.PromptMode, &g.PromptText, &g.ContentHTML, &g.ContentWords,
		&g.Provider, &g.Model, &g.PromptTokens, &g.CompletionTokens, &g.CreatedAt, &deletedAt,
	)
	if err != nil {
		return nil, err
	}

	if deletedAt.Valid {
		g.DeletedAt = &deletedAt.Int64
	}

	if err := json.Unmarshal([]byte(profileJSON), &g.Profile); err != nil {
		return nil, err
	}

	return &g, nil
}

func scanSummary(row rowScanner) (*content.Summary, error) {
	var (
		s           content.Summary
		profileJSON string
		deletedAt   sql.NullInt64
	)

	err := row.Scan(
		&s.ID, &s.Session, &profileJSON, &s.Slug, &s.WordCount, &s.ContentWords,
		&s.PromptMode, &s.Provider, &s.Model, &s.CreatedAt, &deletedAt,
	)
	if err != nil {
		return nil, err
	}

	if deletedAt.Valid {
		s.DeletedAt = &deletedAt.Int64
	}

	var profile clinic.Profile
	if err := json.Unmarshal([]byte(profileJSON), &profile); err != nil {
		return nil, err
	}
	s.ClinicName = profile.Name
	s.MainSpecialty = profile.MainSpecialty
	s.Location = profile.Location

	return &s, nil
}
