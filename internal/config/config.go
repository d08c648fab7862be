// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/valpere/jobharvest/internal/output"
	"github.com/valpere/jobharvest/internal/scraper"
	"github.com/valpere/jobharvest/internal/utils"
)

// LoadFromFile loads a YAML configuration. A .env file next to it is loaded
// into the environment first; variables already set are not overridden.
func LoadFromFile(filename string) (*Config, error) {
	if filename == "" {
		return nil, utils.NewError(utils.ErrCodeInvalidConfig, "configuration filename cannot be empty").Build()
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, utils.NewError(utils.ErrCodeInvalidConfig, "failed to read configuration file").
			WithCause(err).
			WithContext("file", filename).
			Build()
	}

	envFile := filepath.Join(filepath.Dir(filename), ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, utils.NewError(utils.ErrCodeInvalidConfig, "failed to load .env").
			WithCause(err).
			WithContext("file", envFile).
			Build()
	}

	return LoadFromBytes(data)
}

// LoadFromReader reads r fully and calls LoadFromBytes.
func LoadFromReader(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}
	return LoadFromBytes(data)
}

// LoadFromBytes expands ${VAR} references, decodes the YAML over the
// defaults, and validates the result.
func LoadFromBytes(data []byte) (*Config, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, utils.NewError(utils.ErrCodeInvalidConfig, "configuration data cannot be empty").Build()
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return nil, utils.NewError(utils.ErrCodeInvalidConfig, "failed to parse YAML configuration").
			WithCause(err).
			Build()
	}

	applyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills values derived from other sections.
func applyDefaults(cfg *Config) {
	if cfg.Scrape.BaseURL == "" && cfg.Search.Keywords != "" {
		cfg.Scrape.BaseURL = scraper.SearchURL(cfg.Search.Site, cfg.Search.Keywords, cfg.Search.Location)
	}
	if cfg.Extract.BaseURL == "" {
		cfg.Extract.BaseURL = cfg.Search.Site
	}
}

// Validate checks cfg against its struct rules and the cross-field rules
// registered in newValidator.
func Validate(cfg *Config) error {
	validate, err := newValidator()
	if err != nil {
		return fmt.Errorf("failed to register validators: %w", err)
	}

	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return utils.NewError(utils.ErrCodeInvalidConfig, "config validation failed").WithCause(err).Build()
		}
		problems := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			problems = append(problems, describe(fe))
		}
		return utils.NewError(utils.ErrCodeInvalidConfig, strings.Join(problems, "; ")).
			WithCause(err).
			Build()
	}
	return nil
}

func newValidator() (*validator.Validate, error) {
	validate := validator.New()

	if err := validate.RegisterValidation("listen_addr", func(fl validator.FieldLevel) bool {
		host, port, err := net.SplitHostPort(fl.Field().String())
		if err != nil || strings.ContainsAny(host, " /") {
			return false
		}
		n, err := strconv.Atoi(port)
		return err == nil && n > 0 && n < 65536
	}); err != nil {
		return nil, err
	}

	validate.RegisterStructValidation(func(sl validator.StructLevel) {
		oc := sl.Current().Interface().(output.Config)
		if oc.Format != "" && !oc.Format.IsFileFormat() && oc.Format != output.FormatSQLite && oc.DSN == "" {
			sl.ReportError(oc.DSN, "DSN", "DSN", "required_for_format", string(oc.Format))
		}
	}, output.Config{})

	return validate, nil
}

func describe(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "Config.")
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "required_if":
		return fmt.Sprintf("%s is required when %s", field, fe.Param())
	case "required_for_format":
		return fmt.Sprintf("%s is required for output format %q", field, fe.Param())
	case "listen_addr":
		return fmt.Sprintf("%s must be host:port, got %q", field, fe.Value())
	default:
		if fe.Param() != "" {
			return fmt.Sprintf("%s failed %s=%s (got %v)", field, fe.Tag(), fe.Param(), fe.Value())
		}
		return fmt.Sprintf("%s failed %s (got %v)", field, fe.Tag(), fe.Value())
	}
}
