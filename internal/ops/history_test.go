package ops

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/hpungsan/clinicseo/internal/config"
	"github.com/hpungsan/clinicseo/internal/errors"
	"github.com/hpungsan/clinicseo/internal/llm"
)

// seedGenerations stores one generation per clinic name and returns the IDs.
func seedGenerations(t *testing.T, database *sql.DB, session string, names ...string) []string {
	t.Helper()
	gen := llm.NewMock()
	ids := make([]string, 0, len(names))
	for _, name := range names {
		out, err := Generate(context.Background(), database, config.DefaultConfig(), gen, GenerateInput{
			RecordJSON: fmt.Sprintf(`{"name": %q}`, name),
			Session:    session,
		})
		if err != nil {
			t.Fatalf("Generate(%s) failed: %v", name, err)
		}
		ids = append(ids, out.ID)
	}
	return ids
}

func TestFetch_Validation(t *testing.T) {
	database := setupDB(t)

	_, err := Fetch(context.Background(), database, FetchInput{ID: "  "})
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("Fetch error = %v, want INVALID_REQUEST", err)
	}

	_, err = Fetch(context.Background(), database, FetchInput{ID: "01MISSING"})
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("Fetch error = %v, want NOT_FOUND", err)
	}
}

func TestFetch_PromptOptional(t *testing.T) {
	database := setupDB(t)
	ids := seedGenerations(t, database, "", "Alpha Clinic")

	out, err := Fetch(context.Background(), database, FetchInput{ID: ids[0]})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if out.Prompt != "" {
		t.Error("Prompt should be omitted unless requested")
	}
	if out.Filename != "alpha-clinic-seo.html" {
		t.Errorf("Filename = %q", out.Filename)
	}
	if out.Session != DefaultSession {
		t.Errorf("Session = %q, want default", out.Session)
	}
}

func TestList_SessionFilterAndPagination(t *testing.T) {
	database := setupDB(t)
	ctx := context.Background()

	seedGenerations(t, database, "north", "A", "B", "C")
	seedGenerations(t, database, "south", "D")

	all, err := List(ctx, database, ListInput{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if all.Pagination.Total != 4 || len(all.Items) != 4 {
		t.Errorf("total = %d, items = %d, want 4", all.Pagination.Total, len(all.Items))
	}
	if all.Sort != "created_at_desc" {
		t.Errorf("Sort = %q", all.Sort)
	}

	north, err := List(ctx, database, ListInput{Session: "NORTH", Limit: 2})
	if err != nil {
		t.Fatalf("List(north) failed: %v", err)
	}
	if north.Pagination.Total != 3 || len(north.Items) != 2 || !north.Pagination.HasMore {
		t.Errorf("north = %+v", north.Pagination)
	}
	if north.Items[0].ClinicName != "C" {
		t.Errorf("first item = %q, want newest C", north.Items[0].ClinicName)
	}

	page2, err := List(ctx, database, ListInput{Session: "north", Limit: 2, Offset: 2})
	if err != nil {
		t.Fatalf("List(north, page 2) failed: %v", err)
	}
	if len(page2.Items) != 1 || page2.Pagination.HasMore {
		t.Errorf("page2 = %+v", page2.Pagination)
	}
}

func TestList_LimitBounds(t *testing.T) {
	database := setupDB(t)

	out, err := List(context.Background(), database, ListInput{Limit: 1000, Offset: -5})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if out.Pagination.Limit != MaxListLimit {
		t.Errorf("Limit = %d, want %d", out.Pagination.Limit, MaxListLimit)
	}
	if out.Pagination.Offset != 0 {
		t.Errorf("Offset = %d, want 0", out.Pagination.Offset)
	}
	if out.Items == nil {
		t.Error("Items should be an empty slice, not nil")
	}
}

func TestDelete(t *testing.T) {
	database := setupDB(t)
	ctx := context.Background()
	ids := seedGenerations(t, database, "", "Alpha")

	out, err := Delete(ctx, database, DeleteInput{ID: ids[0]})
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if !out.Deleted || out.ID != ids[0] {
		t.Errorf("Delete = %+v", out)
	}

	if _, err := Fetch(ctx, database, FetchInput{ID: ids[0]}); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("Fetch after delete = %v, want NOT_FOUND", err)
	}
	fetched, err := Fetch(ctx, database, FetchInput{ID: ids[0], IncludeDeleted: true})
	if err != nil {
		t.Fatalf("Fetch(includeDeleted) failed: %v", err)
	}
	if fetched.DeletedAt == nil {
		t.Error("DeletedAt should be set")
	}

	if _, err := Delete(ctx, database, DeleteInput{ID: ids[0]}); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("second Delete = %v, want NOT_FOUND", err)
	}
	if _, err := Delete(ctx, database, DeleteInput{}); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("Delete without id = %v, want INVALID_REQUEST", err)
	}
}

func TestPurge(t *testing.T) {
	database := setupDB(t)
	ctx := context.Background()
	north := seedGenerations(t, database, "north", "A", "B")
	south := seedGenerations(t, database, "south", "C")

	for _, id := range append(north, south...) {
		if _, err := Delete(ctx, database, DeleteInput{ID: id}); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
	}

	out, err := Purge(ctx, database, PurgeInput{OlderThanDays: intPtr(7)})
	if err != nil {
		t.Fatalf("Purge(older) failed: %v", err)
	}
	if out.Purged != 0 || out.Message != "No deleted generations to purge" {
		t.Errorf("Purge(older) = %+v", out)
	}

	out, err = Purge(ctx, database, PurgeInput{Session: stringPtr("North")})
	if err != nil {
		t.Fatalf("Purge(north) failed: %v", err)
	}
	if out.Purged != 2 {
		t.Errorf("Purged = %d, want 2", out.Purged)
	}
	if out.Message != `Permanently deleted 2 generations from session "North"` {
		t.Errorf("Message = %q", out.Message)
	}

	out, err = Purge(ctx, database, PurgeInput{})
	if err != nil {
		t.Fatalf("Purge failed: %v", err)
	}
	if out.Purged != 1 || out.Message != "Permanently deleted 1 generation" {
		t.Errorf("Purge = %+v", out)
	}

	if _, err := Purge(ctx, database, PurgeInput{OlderThanDays: intPtr(-1)}); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("negative days = %v, want INVALID_REQUEST", err)
	}
}
