// internal/errors/service.go

// Package errors turns run failures into CLI messages and exit codes.
package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/valpere/jobharvest/internal/utils"
)

// Exit codes returned by the CLI.
const (
	ExitOK        = 0
	ExitFailure   = 1
	ExitNoProxies = 2
)

// Service formats errors for the command line.
type Service struct {
	verbose bool
}

// NewService creates a service that hides technical details.
func NewService() *Service {
	return &Service{}
}

// WithVerbose returns a copy that also prints the underlying error chain.
func (s *Service) WithVerbose(verbose bool) *Service {
	return &Service{verbose: verbose}
}

// GetUserFriendlyError maps an error to a title, explanation and suggestions.
func (s *Service) GetUserFriendlyError(err error) (title, message string, suggestions []string) {
	if err == nil {
		return "", "", nil
	}

	if stderrors.Is(err, context.Canceled) {
		return "Interrupted",
			"The run was stopped before all pages were scraped.",
			[]string{"Collected listings were still written to the output"}
	}

	switch utils.CodeOf(err) {
	case utils.ErrCodeNoHealthyProxy:
		return "No Healthy Proxies",
			"Every proxy is blacklisted, cooling down after a CAPTCHA, or failing.",
			[]string{
				"Add fresh proxies to the proxy file",
				"Wait for CAPTCHA cooldowns to expire",
				"Inspect the pool with 'jobharvest stats <proxy_stats.json>'",
				"Set proxies.enabled to false to connect directly",
			}
	case utils.ErrCodeProxyLineInvalid:
		return "Invalid Proxy Line",
			"A proxy line could not be parsed.",
			[]string{"Use host:port or host:port:username:password, one per line"}
	case utils.ErrCodeInvalidConfig:
		return "Configuration Error",
			"The configuration file is missing values or has invalid ones.",
			[]string{
				"Run 'jobharvest template' for a complete example",
				"Check YAML indentation (use spaces, not tabs)",
				"Set search.keywords or scrape.base_url",
			}
	case utils.ErrCodeNavigationTimeout:
		return "Navigation Timeout",
			"The results page did not load in time.",
			[]string{
				"Increase scrape.navigation_timeout",
				"Check that the proxies are reachable",
			}
	case utils.ErrCodeBrowserFailed:
		return "Browser Failure",
			"Chrome could not be started or stopped responding.",
			[]string{
				"Check that Chrome or Chromium is installed",
				"Set browser.exec_path to the browser binary",
			}
	case utils.ErrCodeCaptchaDetected:
		return "Blocked",
			"The site answered with a CAPTCHA or block page.",
			[]string{
				"Solve the CAPTCHA in the browser window while the run waits",
				"Increase scrape.delay_min and scrape.delay_max",
			}
	case utils.ErrCodeStatsPersistence:
		return "Proxy Stats Error",
			"The proxy stats snapshot could not be read or written.",
			[]string{"Check permissions on scrape.stats_path"}
	case utils.ErrCodeOutputFailed:
		return "Output Error",
			"Listings could not be written to the configured output.",
			[]string{
				"Check the output file path or database DSN",
				"Verify the database is reachable",
			}
	}

	return "Unexpected Error",
		"An unexpected error occurred during the operation.",
		[]string{
			"Try running the command again with -v",
			"Check your configuration file",
		}
}

// GetExitCode returns the process exit code for err.
func (s *Service) GetExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case stderrors.Is(err, utils.ErrNoHealthyProxy):
		return ExitNoProxies
	default:
		return ExitFailure
	}
}

// FormatErrorForCLI formats err for display on stderr.
func (s *Service) FormatErrorForCLI(err error) string {
	if err == nil {
		return ""
	}
	title, message, suggestions := s.GetUserFriendlyError(err)

	var b strings.Builder
	fmt.Fprintf(&b, "Error: %s\n%s\n", title, message)
	if s.verbose {
		fmt.Fprintf(&b, "\nTechnical details: %s\n", err.Error())
	}
	if len(suggestions) > 0 {
		b.WriteString("\nSuggestions:\n")
		for _, suggestion := range suggestions {
			fmt.Fprintf(&b, "  - %s\n", suggestion)
		}
	}
	return b.String()
}
