// internal/output/database_test.go
package output

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/valpere/jobharvest/internal/extract"
)

func openSQLite(t *testing.T) (*SQLWriter, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "jobs.db")
	w, err := NewSQLWriter(context.Background(), FormatSQLite, path, "listings", 1)
	if err != nil {
		if strings.Contains(err.Error(), "cgo") {
			t.Skipf("sqlite unavailable: %v", err)
		}
		t.Fatalf("NewSQLWriter() error = %v", err)
	}
	return w, path
}

func TestSQLWriter_SQLiteIgnoresDuplicates(t *testing.T) {
	w, path := openSQLite(t)
	ctx := context.Background()
	listings := sampleListings()

	if err := w.Write(ctx, listings); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	// Same url again plus another listing without one.
	if err := w.Write(ctx, listings); err != nil {
		t.Fatalf("second Write() error = %v", err)
	}
	if w.Inserted() != 3 || w.Skipped() != 1 {
		t.Errorf("inserted/skipped = %d/%d, want 3/1", w.Inserted(), w.Skipped())
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	var total, withURL int
	if err := db.QueryRow("SELECT COUNT(*), COUNT(url) FROM listings").Scan(&total, &withURL); err != nil {
		t.Fatal(err)
	}
	if total != 3 || withURL != 1 {
		t.Errorf("rows = %d (with url %d), want 3 (1)", total, withURL)
	}

	var title string
	var page int
	if err := db.QueryRow("SELECT title, scraped_from_page FROM listings WHERE url = ?",
		listings[0].URL).Scan(&title, &page); err != nil {
		t.Fatal(err)
	}
	if title != listings[0].Title || page != 1 {
		t.Errorf("stored %q page %d", title, page)
	}
}

func TestSQLWriter_Rejects(t *testing.T) {
	ctx := context.Background()
	if _, err := NewSQLWriter(ctx, FormatSQLite, filepath.Join(t.TempDir(), "x.db"), "bad name", 10); err == nil {
		t.Error("expected invalid table name to fail")
	}
	if _, err := NewSQLWriter(ctx, FormatPostgres, "", "listings", 10); err == nil {
		t.Error("expected missing DSN to fail")
	}
	if _, err := NewSQLWriter(ctx, FormatJSON, "x", "listings", 10); err == nil {
		t.Error("expected non-SQL format to fail")
	}
}

func TestColumnDefs(t *testing.T) {
	defs := columnDefs(FormatPostgres)
	if strings.Contains(defs, "url") {
		t.Error("url is declared separately")
	}
	if !strings.Contains(defs, "scraped_at TIMESTAMP") || !strings.Contains(defs, "scraped_from_page INTEGER") {
		t.Errorf("postgres defs = %s", defs)
	}
	if !strings.Contains(columnDefs(FormatSQLite), "scraped_at DATETIME") {
		t.Error("sqlite should use DATETIME")
	}
}

func TestSQLValues(t *testing.T) {
	l := sampleListings()[1]
	vals := sqlValues(l)
	if len(vals) != len(sqlColumns) {
		t.Fatalf("got %d values for %d columns", len(vals), len(sqlColumns))
	}
	if vals[len(vals)-1] != nil {
		t.Errorf("sentinel url should be stored as NULL, got %v", vals[len(vals)-1])
	}
	if _, ok := vals[9].(time.Time); !ok {
		t.Errorf("scraped_at = %T", vals[9])
	}
}

func TestListingDocument(t *testing.T) {
	listings := sampleListings()
	doc := listingDocument(listings[0])
	if doc["url"] != listings[0].URL || doc["scraped_from_page"] != 1 {
		t.Errorf("doc = %v", doc)
	}
	if _, ok := listingDocument(listings[1])["url"]; ok {
		t.Error("listing without a url should not carry one")
	}
}

// Network databases run only when a DSN is provided.
func TestExternalDatabases(t *testing.T) {
	tests := []struct {
		format OutputFormat
		env    string
	}{
		{FormatPostgres, "JOBHARVEST_TEST_POSTGRES_DSN"},
		{FormatMySQL, "JOBHARVEST_TEST_MYSQL_DSN"},
		{FormatMongoDB, "JOBHARVEST_TEST_MONGODB_URI"},
	}
	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			dsn := os.Getenv(tt.env)
			if dsn == "" {
				t.Skipf("%s not set", tt.env)
			}
			m, err := NewManager(Config{
				Format:     tt.format,
				DSN:        dsn,
				Table:      "listings_test",
				Collection: "listings_test",
			}, time.Now())
			if err != nil {
				t.Fatal(err)
			}
			listings := sampleListings()
			listings[0].URL += "&t=" + time.Now().Format("150405.000")
			for i := 0; i < 2; i++ {
				if err := m.Write(context.Background(), []extract.Listing{listings[0]}); err != nil {
					t.Fatalf("Write() #%d error = %v", i+1, err)
				}
			}
		})
	}
}
