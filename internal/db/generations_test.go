package db

import (
	"context"
	"testing"
	"time"

	"github.com/hpungsan/clinicseo/internal/clinic"
	"github.com/hpungsan/clinicseo/internal/content"
	"github.com/hpungsan/clinicseo/internal/errors"
)

// newTestGeneration creates a generation with default values for testing.
func newTestGeneration(id, session, clinicName string) *content.Generation {
	profile := clinic.ResolveProfile(clinic.Record{"name": clinicName})
	return &content.Generation{
		ID:           id,
		SessionRaw:   session,
		SessionNorm:  clinic.Normalize(session),
		Profile:      profile,
		Slug:         clinic.Slug(profile.Name),
		WordCount:    500,
		PromptMode:   "fixed",
		PromptText:   "prompt for " + clinicName,
		ContentHTML:  "<p>" + clinicName + "</p>",
		ContentWords: 1,
		Provider:     "mock",
		Model:        "mock",
		CreatedAt:    time.Now().Unix(),
	}
}

// stringPtr returns a pointer to the given string.
func stringPtr(s string) *string {
	return &s
}

func TestInsertAndGetGeneration(t *testing.T) {
	ctx := context.Background()
	db, err := Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer db.Close()

	g := newTestGeneration("01ABC123", "Front Desk", "Sunrise Clinic")
	g.Profile.Contact.Email = stringPtr("info@sunrise.test")
	g.PromptTokens = 120
	g.CompletionTokens = 480

	if err := InsertGeneration(ctx, db, g); err != nil {
		t.Fatalf("InsertGeneration failed: %v", err)
	}

	got, err := GetGeneration(ctx, db, "01ABC123", false)
	if err != nil {
		t.Fatalf("GetGeneration failed: %v", err)
	}

	if got.SessionRaw != "Front Desk" || got.SessionNorm != "front desk" {
		t.Errorf("session = %q/%q", got.SessionRaw, got.SessionNorm)
	}
	if got.Profile.Name != "Sunrise Clinic" {
		t.Errorf("Profile.Name = %q", got.Profile.Name)
	}
	if got.Profile.Contact.Email == nil || *got.Profile.Contact.Email != "info@sunrise.test" {
		t.Errorf("Profile.Contact.Email = %v", got.Profile.Contact.Email)
	}
	if got.Profile.Contact.Phone != nil {
		t.Errorf("Profile.Contact.Phone = %v, want nil", got.Profile.Contact.Phone)
	}
	if got.Slug != "sunrise-clinic" {
		t.Errorf("Slug = %q", got.Slug)
	}
	if got.ContentHTML != g.ContentHTML || got.PromptText != g.PromptText {
		t.Errorf("content/prompt mismatch: %q / %q", got.ContentHTML, got.PromptText)
	}
	if got.PromptTokens != 120 || got.CompletionTokens != 480 {
		t.Errorf("tokens = %d/%d", got.PromptTokens, got.CompletionTokens)
	}
	if got.DeletedAt != nil {
		t.Errorf("DeletedAt = %v, want nil", got.DeletedAt)
	}
	if got.Filename() != "sunrise-clinic-seo.html" {
		t.Errorf("Filename() = %q", got.Filename())
	}
}

func TestGetGeneration_NotFound(t *testing.T) {
	db, err := Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer db.Close()

	_, err = GetGeneration(context.Background(), db, "nonexistent", false)
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("GetGeneration should return ErrNotFound, got: %v", err)
	}
}

func TestSoftDeleteGeneration(t *testing.T) {
	ctx := context.Background()
	db, err := Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer db.Close()

	if err := InsertGeneration(ctx, db, newTestGeneration("01DEL001", "default", "A")); err != nil {
		t.Fatalf("InsertGeneration failed: %v", err)
	}

	if err := SoftDeleteGeneration(ctx, db, "01DEL001"); err != nil {
		t.Fatalf("SoftDeleteGeneration failed: %v", err)
	}

	if _, err := GetGeneration(ctx, db, "01DEL001", false); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("deleted generation should be hidden, got: %v", err)
	}

	got, err := GetGeneration(ctx, db, "01DEL001", true)
	if err != nil {
		t.Fatalf("GetGeneration(includeDeleted) failed: %v", err)
	}
	if got.DeletedAt == nil {
		t.Error("DeletedAt should be set")
	}

	// Second delete reports not found
	if err := SoftDeleteGeneration(ctx, db, "01DEL001"); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("second delete should return ErrNotFound, got: %v", err)
	}
}

func TestListGenerations(t *testing.T) {
	ctx := context.Background()
	db, err := Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer db.Close()

	for i, session := range []string{"alpha", "alpha", "beta", "alpha", "beta"} {
		g := newTestGeneration("01LST00"+string(rune('1'+i)), session, "Clinic")
		g.CreatedAt = int64(1000 + i)
		if err := InsertGeneration(ctx, db, g); err != nil {
			t.Fatalf("InsertGeneration failed: %v", err)
		}
	}
	if err := SoftDeleteGeneration(ctx, db, "01LST002"); err != nil {
		t.Fatalf("SoftDeleteGeneration failed: %v", err)
	}

	all, total, err := ListGenerations(ctx, db, ListFilters{}, 10, 0)
	if err != nil {
		t.Fatalf("ListGenerations failed: %v", err)
	}
	if total != 4 || len(all) != 4 {
		t.Errorf("total = %d, len = %d, want 4", total, len(all))
	}
	if all[0].ID != "01LST005" {
		t.Errorf("first ID = %q, want newest 01LST005", all[0].ID)
	}

	alpha, total, err := ListGenerations(ctx, db, ListFilters{SessionNorm: stringPtr("alpha")}, 10, 0)
	if err != nil {
		t.Fatalf("ListGenerations(alpha) failed: %v", err)
	}
	if total != 2 || len(alpha) != 2 {
		t.Errorf("alpha total = %d, len = %d, want 2", total, len(alpha))
	}

	withDeleted, total, err := ListGenerations(ctx, db, ListFilters{IncludeDeleted: true}, 10, 0)
	if err != nil {
		t.Fatalf("ListGenerations(includeDeleted) failed: %v", err)
	}
	if total != 5 || len(withDeleted) != 5 {
		t.Errorf("includeDeleted total = %d, len = %d, want 5", total, len(withDeleted))
	}
}

func TestListGenerations_Pagination(t *testing.T) {
	ctx := context.Background()
	db, err := Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer db.Close()

	for i := 0; i < 5; i++ {
		g := newTestGeneration("01PAG00"+string(rune('1'+i)), "default", "Clinic")
		g.CreatedAt = 1000 // same second, ordering falls back to id
		if err := InsertGeneration(ctx, db, g); err != nil {
			t.Fatalf("InsertGeneration failed: %v", err)
		}
	}

	page1, total, err := ListGenerations(ctx, db, ListFilters{}, 2, 0)
	if err != nil {
		t.Fatalf("page 1 failed: %v", err)
	}
	page2, _, err := ListGenerations(ctx, db, ListFilters{}, 2, 2)
	if err != nil {
		t.Fatalf("page 2 failed: %v", err)
	}

	if total != 5 {
		t.Errorf("total = %d, want 5", total)
	}
	if len(page1) != 2 || len(page2) != 2 {
		t.Fatalf("page sizes = %d, %d, want 2, 2", len(page1), len(page2))
	}
	if page1[0].ID != "01PAG005" || page2[0].ID != "01PAG003" {
		t.Errorf("order = %s, %s, want 01PAG005, 01PAG003", page1[0].ID, page2[0].ID)
	}
}

func TestListGenerations_Empty(t *testing.T) {
	db, err := Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer db.Close()

	got, total, err := ListGenerations(context.Background(), db, ListFilters{}, 10, 0)
	if err != nil {
		t.Fatalf("ListGenerations failed: %v", err)
	}
	if total != 0 || got == nil || len(got) != 0 {
		t.Errorf("got %v (total %d), want empty non-nil slice", got, total)
	}
}

func TestPurgeDeleted(t *testing.T) {
	ctx := context.Background()
	db, err := Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer db.Close()

	for _, id := range []string{"01PRG001", "01PRG002", "01PRG003"} {
		if err := InsertGeneration(ctx, db, newTestGeneration(id, "default", "Clinic")); err != nil {
			t.Fatalf("InsertGeneration failed: %v", err)
		}
	}
	for _, id := range []string{"01PRG001", "01PRG002"} {
		if err := SoftDeleteGeneration(ctx, db, id); err != nil {
			t.Fatalf("SoftDeleteGeneration failed: %v", err)
		}
	}

	// Nothing was deleted an hour ago
	n, err := PurgeDeleted(ctx, db, nil, time.Hour)
	if err != nil {
		t.Fatalf("PurgeDeleted(olderThan) failed: %v", err)
	}
	if n != 0 {
		t.Errorf("purged %d, want 0", n)
	}

	n, err = PurgeDeleted(ctx, db, nil, 0)
	if err != nil {
		t.Fatalf("PurgeDeleted failed: %v", err)
	}
	if n != 2 {
		t.Errorf("purged %d, want 2", n)
	}

	if _, err := GetGeneration(ctx, db, "01PRG001", true); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("purged row still present: %v", err)
	}
	if _, err := GetGeneration(ctx, db, "01PRG003", false); err != nil {
		t.Errorf("active row should survive purge: %v", err)
	}
}

func TestListGenerations_SummaryFields(t *testing.T) {
	ctx := context.Background()
	db, err := Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer db.Close()

	g := newTestGeneration("01SUM001", "Front Desk", "Lakeside Clinic")
	g.Profile = clinic.ResolveProfile(clinic.Record{"name": "Lakeside Clinic", "specialty": "Paediatrics", "city": "Kisumu"})
	g.ContentWords = 512
	g.WordCount = 520
	if err := InsertGeneration(ctx, db, g); err != nil {
		t.Fatalf("InsertGeneration failed: %v", err)
	}
	if err := SoftDeleteGeneration(ctx, db, g.ID); err != nil {
		t.Fatalf("SoftDeleteGeneration failed: %v", err)
	}

	items, _, err := ListGenerations(ctx, db, ListFilters{IncludeDeleted: true}, 10, 0)
	if err != nil {
		t.Fatalf("ListGenerations failed: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("len(items) = %d, want 1", len(items))
	}

	got := items[0]
	want := content.Summary{
		ID:            "01SUM001",
		Session:       "Front Desk",
		ClinicName:    "Lakeside Clinic",
		MainSpecialty: "Paediatrics",
		Location:      "Kisumu",
		Slug:          "lakeside-clinic",
		WordCount:     520,
		ContentWords:  512,
		PromptMode:    "fixed",
		Provider:      "mock",
		Model:         "mock",
		CreatedAt:     g.CreatedAt,
	}
	if got.DeletedAt == nil {
		t.Error("DeletedAt = nil, want soft-delete timestamp")
	}
	got.DeletedAt = nil
	if got != want {
		t.Errorf("summary = %+v, want %+v", got, want)
	}
}
