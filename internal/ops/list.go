package ops

import (
	"context"
	"database/sql"
	"strings"

	"github.com/hpungsan/clinicseo/internal/content"
	"github.com/hpungsan/clinicseo/internal/db"
)

// ListInput contains parameters for the List operation.
type ListInput struct {
	Session        string // optional; empty lists every session
	Limit          int    // default: 20, max: 100
	Offset         int    // default: 0
	IncludeDeleted bool
}

// ListOutput contains the result of the List operation.
type ListOutput struct {
	Items      []content.Summary `json:"items"`
	Pagination Pagination        `json:"pagination"`
	Sort       string            `json:"sort"`
}

// List retrieves generation summaries, newest first.
func List(ctx context.Context, database *sql.DB, input ListInput) (*ListOutput, error) {
	filters := db.ListFilters{IncludeDeleted: input.IncludeDeleted}
	if strings.TrimSpace(input.Session) != "" {
		norm := ResolveSession(input.Session).Norm
		filters.SessionNorm = &norm
	}

	limit := input.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	offset := max(input.Offset, 0)

	summaries, total, err := db.ListGenerations(ctx, database, filters, limit, offset)
	if err != nil {
		return nil, err
	}

	if summaries == nil {
		summaries = []content.Summary{}
	}

	return &ListOutput{
		Items: summaries,
		Pagination: Pagination{
			Limit:   limit,
			Offset:  offset,
			HasMore: offset+len(summaries) < total,
			Total:   total,
		},
		Sort: "created_at_desc",
	}, nil
}
