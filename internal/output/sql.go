// internal/output/sql.go
package output

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	_ "github.com/lib/pq"              // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3"    // SQLite driver

	"github.com/valpere/jobharvest/internal/extract"
)

// dialect captures the SQL differences between the supported databases.
type dialect struct {
	driver      string
	createTable string
	insert      string
	placeholder func(n int) string
}

var dialects = map[OutputFormat]dialect{
	FormatSQLite: {
		driver: "sqlite3",
		createTable: `CREATE TABLE IF NOT EXISTS %s (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			%s,
			url TEXT UNIQUE,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP)`,
		insert:      "INSERT OR IGNORE INTO %s (%s) VALUES (%s)",
		placeholder: func(int) string { return "?" },
	},
	FormatPostgres: {
		driver: "postgres",
		createTable: `CREATE TABLE IF NOT EXISTS %s (
			id BIGSERIAL PRIMARY KEY,
			%s,
			url TEXT UNIQUE,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP)`,
		insert:      "INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (url) DO NOTHING",
		placeholder: func(n int) string { return "$" + strconv.Itoa(n) },
	},
	FormatMySQL: {
		driver: "mysql",
		createTable: `CREATE TABLE IF NOT EXISTS %s (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			%s,
			url VARCHAR(512) UNIQUE,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP)`,
		insert:      "INSERT IGNORE INTO %s (%s) VALUES (%s)",
		placeholder: func(int) string { return "?" },
	},
}

// sqlColumns are inserted in this order; url is declared separately with its unique constraint.
var sqlColumns = []string{
	"title", "company", "location", "salary", "salary_period", "job_type",
	"posted_date", "summary", "scraped_from_page", "scraped_at", "url",
}

func columnDefs(format OutputFormat) string {
	text := "TEXT"
	stamp := "TIMESTAMP"
	if format == FormatSQLite {
		stamp = "DATETIME"
	}
	defs := make([]string, 0, len(sqlColumns)-1)
	for _, c := range sqlColumns {
		switch c {
		case "url":
		case "scraped_from_page":
			defs = append(defs, c+" INTEGER")
		case "scraped_at":
			defs = append(defs, c+" "+stamp+" NULL")
		default:
			defs = append(defs, c+" "+text)
		}
	}
	return strings.Join(defs, ",\n\t\t\t")
}

// SQLWriter inserts listings into a table keyed by a unique url. Rows whose
// url already exists are skipped.
type SQLWriter struct {
	db       *sql.DB
	dialect  dialect
	table    string
	batch    int
	inserted int64
	skipped  int64
}

// NewSQLWriter opens the database, checks the connection and creates the
// table if needed. For sqlite the DSN is the file path.
func NewSQLWriter(ctx context.Context, format OutputFormat, dsn, table string, batchSize int) (*SQLWriter, error) {
	d, ok := dialects[format]
	if !ok {
		return nil, fmt.Errorf("unsupported SQL format: %s", format)
	}
	if dsn == "" {
		return nil, fmt.Errorf("%s connection string is required", format)
	}
	if err := validateIdentifier(table); err != nil {
		return nil, err
	}
	if batchSize <= 0 {
		batchSize = DefaultConfig().BatchSize
	}

	if format == FormatSQLite {
		if err := ensureDir(dsn); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		if !strings.Contains(dsn, "?") {
			dsn += "?_busy_timeout=5000&_journal_mode=WAL"
		}
	}

	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", format, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", format, err)
	}
	if format == FormatSQLite {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.ExecContext(ctx, fmt.Sprintf(d.createTable, table, columnDefs(format))); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table %s: %w", table, err)
	}

	return &SQLWriter{db: db, dialect: d, table: table, batch: batchSize}, nil
}

// Write inserts listings in transactions of at most the batch size.
func (w *SQLWriter) Write(ctx context.Context, listings []extract.Listing) error {
	for i := 0; i < len(listings); i += w.batch {
		end := i + w.batch
		if end > len(listings) {
			end = len(listings)
		}
		if err := w.insertBatch(ctx, listings[i:end]); err != nil {
			return fmt.Errorf("failed to insert batch %d-%d: %w", i, end-1, err)
		}
	}
	return nil
}

func (w *SQLWriter) insertBatch(ctx context.Context, batch []extract.Listing) error {
	placeholders := make([]string, len(sqlColumns))
	for i := range placeholders {
		placeholders[i] = w.dialect.placeholder(i + 1)
	}
	query := fmt.Sprintf(w.dialect.insert, w.table, strings.Join(sqlColumns, ", "), strings.Join(placeholders, ", "))

	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, l := range batch {
		res, err := stmt.ExecContext(ctx, sqlValues(l)...)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil && n > 0 {
			w.inserted += n
		} else {
			w.skipped++
		}
	}
	return tx.Commit()
}

func sqlValues(l extract.Listing) []interface{} {
	var url interface{}
	if hasURL(l) {
		url = l.URL
	}
	var scraped interface{}
	if !l.ScrapedAt.IsZero() {
		scraped = l.ScrapedAt.UTC()
	}
	return []interface{}{
		l.Title, l.Company, l.Location, l.Salary, l.SalaryPeriod, l.JobType,
		l.PostedDate, l.Summary, l.Page, scraped, url,
	}
}

// Inserted is the number of new rows written.
func (w *SQLWriter) Inserted() int64 { return w.inserted }

// Skipped is the number of listings ignored as duplicates.
func (w *SQLWriter) Skipped() int64 { return w.skipped }

func (w *SQLWriter) Close() error {
	if w.db == nil {
		return nil
	}
	err := w.db.Close()
	w.db = nil
	return err
}
