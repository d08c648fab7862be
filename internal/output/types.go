// internal/output/types.go

// Package output writes extracted listings to files and databases.
package output

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/valpere/jobharvest/internal/extract"
)

// OutputFormat names a sink.
type OutputFormat string

const (
	FormatJSON     OutputFormat = "json"
	FormatCSV      OutputFormat = "csv"
	FormatExcel    OutputFormat = "xlsx"
	FormatSQLite   OutputFormat = "sqlite"
	FormatPostgres OutputFormat = "postgres"
	FormatMySQL    OutputFormat = "mysql"
	FormatMongoDB  OutputFormat = "mongodb"
)

// ValidOutputFormats returns all valid output format values
func ValidOutputFormats() []OutputFormat {
	return []OutputFormat{FormatJSON, FormatCSV, FormatExcel, FormatSQLite, FormatPostgres, FormatMySQL, FormatMongoDB}
}

// IsFileFormat reports whether f writes a local file.
func (f OutputFormat) IsFileFormat() bool {
	return f == FormatJSON || f == FormatCSV || f == FormatExcel
}

// Extension is the default file extension for file formats.
func (f OutputFormat) Extension() string {
	if f == FormatSQLite {
		return "db"
	}
	return string(f)
}

// Config selects and configures a sink.
type Config struct {
	Format OutputFormat `yaml:"format" json:"format" validate:"omitempty,oneof=json csv xlsx sqlite postgres mysql mongodb"`
	// File is the target for json, csv, xlsx and sqlite. Empty picks output/results_<timestamp>.<ext>.
	File string `yaml:"file,omitempty" json:"file,omitempty"`
	// DSN is the connection string for postgres, mysql and mongodb.
	DSN        string        `yaml:"dsn,omitempty" json:"-"`
	Table      string        `yaml:"table,omitempty" json:"table,omitempty"`
	Database   string        `yaml:"database,omitempty" json:"database,omitempty"`
	Collection string        `yaml:"collection,omitempty" json:"collection,omitempty"`
	BatchSize  int           `yaml:"batch_size,omitempty" json:"batch_size,omitempty" validate:"omitempty,min=1"`
	Timeout    time.Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"`
}

// DefaultConfig writes JSON to a timestamped file.
func DefaultConfig() Config {
	return Config{
		Format:     FormatJSON,
		Table:      "listings",
		Database:   "jobharvest",
		Collection: "listings",
		BatchSize:  500,
		Timeout:    30 * time.Second,
	}
}

func (c *Config) applyDefaults(now time.Time) {
	d := DefaultConfig()
	if c.Format == "" {
		c.Format = d.Format
	}
	if c.Table == "" {
		c.Table = d.Table
	}
	if c.Database == "" {
		c.Database = d.Database
	}
	if c.Collection == "" {
		c.Collection = d.Collection
	}
	if c.BatchSize <= 0 {
		c.BatchSize = d.BatchSize
	}
	if c.Timeout <= 0 {
		c.Timeout = d.Timeout
	}
	if c.File == "" && (c.Format.IsFileFormat() || c.Format == FormatSQLite) {
		c.File = DefaultFile(now, c.Format)
	}
}

// DefaultFile returns output/results_<timestamp>.<ext>.
func DefaultFile(now time.Time, format OutputFormat) string {
	return fmt.Sprintf("output/results_%s.%s", now.Format("20060102_150405"), format.Extension())
}

// Writer persists listings. Write may be called more than once; Close
// flushes and releases the sink.
type Writer interface {
	Write(ctx context.Context, listings []extract.Listing) error
	Close() error
}

// Columns is the fixed column order for tabular sinks.
var Columns = []string{
	"title", "company", "location", "salary", "salary_period", "job_type",
	"posted_date", "summary", "url", "scraped_from_page", "scraped_at",
}

// row renders a listing in Columns order.
func row(l extract.Listing) []string {
	scraped := ""
	if !l.ScrapedAt.IsZero() {
		scraped = l.ScrapedAt.Format(time.RFC3339)
	}
	return []string{
		l.Title, l.Company, l.Location, l.Salary, l.SalaryPeriod, l.JobType,
		l.PostedDate, l.Summary, l.URL, strconv.Itoa(l.Page), scraped,
	}
}

// hasURL reports whether the listing carries a real link to dedupe on.
func hasURL(l extract.Listing) bool {
	return l.URL != "" && l.URL != extract.Sentinel
}

// sqlIdentifierRegex: starts with a letter or underscore, then letters, digits, underscores.
var sqlIdentifierRegex = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]{0,62}$`)

func validateIdentifier(name string) error {
	if !sqlIdentifierRegex.MatchString(name) {
		return fmt.Errorf("invalid SQL identifier %q", name)
	}
	return nil
}
