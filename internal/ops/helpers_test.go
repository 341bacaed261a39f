package ops

import (
	"database/sql"
	"testing"

	"github.com/hpungsan/clinicseo/internal/db"
)

const sunriseRecord = `{
	"name": "Sunrise Women Clinic",
	"specialty": "Obstetrics",
	"about": "Maternity and prenatal care in Nakuru.",
	"city": "Nakuru",
	"email": "info@sunrise.test"
}`

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := db.Init(t.TempDir())
	if err != nil {
		t.Fatalf("db.Init failed: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

func stringPtr(s string) *string {
	return &s
}

func intPtr(n int) *int {
	return &n
}
