// internal/output/manager.go
package output

import (
	"context"
	"fmt"
	"time"

	"github.com/valpere/jobharvest/internal/extract"
	"github.com/valpere/jobharvest/internal/utils"
)

// Manager opens the configured sink.
type Manager struct {
	config Config
}

// NewManager applies defaults to cfg. now names the default output file.
func NewManager(cfg Config, now time.Time) (*Manager, error) {
	cfg.applyDefaults(now)
	valid := false
	for _, f := range ValidOutputFormats() {
		if cfg.Format == f {
			valid = true
			break
		}
	}
	if !valid {
		return nil, utils.Errorf(utils.ErrCodeInvalidConfig, "unsupported output format: %s", cfg.Format)
	}
	return &Manager{config: cfg}, nil
}

// Config returns the effective configuration.
func (m *Manager) Config() Config { return m.config }

// Target describes where output goes, without credentials.
func (m *Manager) Target() string {
	switch m.config.Format {
	case FormatPostgres, FormatMySQL:
		return fmt.Sprintf("%s table %s", m.config.Format, m.config.Table)
	case FormatMongoDB:
		return fmt.Sprintf("mongodb %s.%s", m.config.Database, m.config.Collection)
	default:
		return m.config.File
	}
}

// GetWriter returns the appropriate writer for the configured format
func (m *Manager) GetWriter(ctx context.Context) (Writer, error) {
	cfg := m.config
	switch cfg.Format {
	case FormatJSON:
		return NewJSONWriter(cfg.File)
	case FormatCSV:
		return NewCSVWriter(cfg.File)
	case FormatExcel:
		return NewExcelWriter(cfg.File)
	case FormatSQLite:
		return NewSQLWriter(ctx, cfg.Format, cfg.File, cfg.Table, cfg.BatchSize)
	case FormatPostgres, FormatMySQL:
		return NewSQLWriter(ctx, cfg.Format, cfg.DSN, cfg.Table, cfg.BatchSize)
	case FormatMongoDB:
		return NewMongoDBWriter(ctx, cfg.DSN, cfg.Database, cfg.Collection)
	default:
		return nil, fmt.Errorf("unsupported output format: %s", cfg.Format)
	}
}

// Write opens the sink, writes listings and closes it. Failures carry
// utils.ErrOutputFailed.
func (m *Manager) Write(ctx context.Context, listings []extract.Listing) error {
	ctx, cancel := context.WithTimeout(ctx, m.config.Timeout)
	defer cancel()

	writer, err := m.GetWriter(ctx)
	if err != nil {
		return m.fail("open", err)
	}
	if err := writer.Write(ctx, listings); err != nil {
		writer.Close()
		return m.fail("write", err)
	}
	if err := writer.Close(); err != nil {
		return m.fail("close", err)
	}
	return nil
}

func (m *Manager) fail(op string, err error) error {
	return utils.NewError(utils.ErrCodeOutputFailed, fmt.Sprintf("output %s failed", op)).
		WithCause(err).
		WithContext("format", string(m.config.Format)).
		WithContext("target", m.Target()).
		Build()
}
