// cmd/jobharvest/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/valpere/jobharvest/internal/browser"
	"github.com/valpere/jobharvest/internal/config"
	"github.com/valpere/jobharvest/internal/errors"
	"github.com/valpere/jobharvest/internal/extract"
	"github.com/valpere/jobharvest/internal/monitoring"
	"github.com/valpere/jobharvest/internal/output"
	"github.com/valpere/jobharvest/internal/proxy"
	"github.com/valpere/jobharvest/internal/scraper"
	"github.com/valpere/jobharvest/internal/session"
	"github.com/valpere/jobharvest/internal/utils"
)

// Version information (set by build flags)
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

const (
	exitOK      = errors.ExitOK
	exitError   = errors.ExitFailure
	exitNoProxy = errors.ExitNoProxies
)

var errorService = errors.NewService()

func main() {
	os.Exit(dispatch(os.Args[1:]))
}

// dispatch routes a command line to its handler and returns the exit code.
func dispatch(args []string) int {
	if len(args) < 1 {
		printUsage()
		return exitError
	}

	command := args[0]
	rest := args[1:]
	errorService = errorService.WithVerbose(hasFlag(rest, "-v", "--verbose"))

	switch command {
	case "run":
		file, ok := requireArg(rest, "run <config.yaml>")
		if !ok {
			return exitError
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return exitCode(runScrape(ctx, file, hasFlag(rest, "-v", "--verbose")))

	case "validate":
		file, ok := requireArg(rest, "validate <config.yaml>")
		if !ok {
			return exitError
		}
		return exitCode(validateConfig(file, hasFlag(rest, "-v", "--verbose")))

	case "proxies":
		file, ok := requireArg(rest, "proxies <proxies.txt>")
		if !ok {
			return exitError
		}
		return exitCode(listProxies(file))

	case "stats":
		file, ok := requireArg(rest, "stats <proxy_stats.json>")
		if !ok {
			return exitError
		}
		return exitCode(showStats(file))

	case "template":
		fmt.Print(config.Template())
		return exitOK

	case "version", "--version":
		printVersion()
		return exitOK

	case "help", "--help", "-h":
		printUsage()
		return exitOK

	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command '%s'\n", command)
		printUsage()
		return exitError
	}
}

func requireArg(args []string, usage string) (string, bool) {
	for _, a := range args {
		if a != "" && a[0] != '-' {
			return a, true
		}
	}
	fmt.Fprintf(os.Stderr, "Error: argument required\n")
	fmt.Fprintf(os.Stderr, "Usage: jobharvest %s\n", usage)
	return "", false
}

// hasFlag checks if any of flags is present in args
func hasFlag(args []string, flags ...string) bool {
	for _, arg := range args {
		for _, f := range flags {
			if arg == f {
				return true
			}
		}
	}
	return false
}

// exitCode prints err and maps it to a process exit code.
func exitCode(err error) int {
	if err != nil {
		fmt.Fprint(os.Stderr, errorService.FormatErrorForCLI(err))
	}
	return errorService.GetExitCode(err)
}

// runScrape loads the configuration, runs the orchestrator and writes
// whatever was collected, including partial results of an aborted run.
func runScrape(ctx context.Context, configFile string, verbose bool) error {
	cfg, err := config.LoadFromFile(configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
	utils.InitLogging(cfg.Logging)
	logger := utils.NewComponentLogger("cli")

	manager, err := newSessionManager(cfg, logger)
	if err != nil {
		return err
	}

	metrics := monitoring.NewMetrics()
	orch, err := scraper.New(cfg.Scrape, scraper.Deps{
		Sessions:  manager,
		Browsers:  browser.ChromeFactory{Config: cfg.Browser, Logger: utils.NewComponentLogger("browser")},
		Extractor: extract.New(cfg.Extract, utils.NewComponentLogger("extract")),
		Listener:  metrics,
		Logger:    utils.NewComponentLogger("scraper"),
	})
	if err != nil {
		return fmt.Errorf("failed to create orchestrator: %w", err)
	}

	outputs, err := output.NewManager(cfg.Output, time.Now())
	if err != nil {
		return err
	}

	if verbose {
		fmt.Printf("Configuration loaded: %s\n", cfg.Name)
		fmt.Printf("Target URL: %s\n", cfg.Scrape.BaseURL)
		fmt.Printf("Pages: %d\n", cfg.Scrape.Pages)
		fmt.Printf("Output: %s\n", outputs.Target())
	}

	var (
		report *scraper.RunReport
		runErr error
	)
	g, gctx := errgroup.WithContext(ctx)
	serverCtx, stopServer := context.WithCancel(gctx)
	defer stopServer()

	if cfg.Monitoring.Enabled() {
		server := monitoring.NewServer(cfg.Monitoring.ListenAddress, metrics, manager.PoolStatus, utils.NewComponentLogger("monitoring")).
			WithHistory(manager.History)
		g.Go(func() error {
			return server.Run(serverCtx)
		})
	}
	g.Go(func() error {
		defer stopServer()
		report, runErr = orch.Run(gctx)
		return nil
	})
	if err := g.Wait(); err != nil {
		logger.Errorf("monitoring server: %v", err)
		if runErr == nil {
			runErr = err
		}
	}

	if report != nil && len(report.Listings) > 0 {
		if err := outputs.Write(context.WithoutCancel(ctx), report.Listings); err != nil {
			return err
		}
	}

	printSummary(report, outputs.Target())
	return runErr
}

func newSessionManager(cfg *config.Config, logger utils.Logger) (*session.Manager, error) {
	var endpoints []proxy.Endpoint
	if cfg.Proxies.Enabled {
		res, err := proxy.LoadEndpointsFile(cfg.Proxies.File)
		if err != nil {
			return nil, err
		}
		if len(res.Endpoints) == 0 {
			return nil, utils.NewError(utils.ErrCodeNoHealthyProxy, "no valid proxies loaded").
				WithContext("file", cfg.Proxies.File).
				Build()
		}
		endpoints = res.Endpoints
	} else {
		logger.Info("proxies disabled, connecting directly")
	}

	sessionCfg := cfg.Session
	sessionCfg.Direct = !cfg.Proxies.Enabled
	sessionCfg.Logger = utils.NewComponentLogger("session")
	manager := session.NewManager(endpoints, proxy.NewStatsStore(), sessionCfg)

	if cfg.Scrape.StatsPath != "" {
		n, err := manager.LoadStats(cfg.Scrape.StatsPath)
		if err != nil {
			logger.Warnf("ignoring proxy stats snapshot: %v", err)
		} else if n > 0 {
			logger.Infof("restored stats for %d proxies", n)
		}
	}
	return manager, nil
}

func printSummary(report *scraper.RunReport, target string) {
	if report == nil {
		return
	}
	fmt.Println()
	fmt.Println("Scrape summary")
	fmt.Printf("  Listings:        %d (%d with salary)\n", len(report.Listings), report.WithSalary())
	fmt.Printf("  Pages:           %d attempted, %d succeeded, %d skipped\n",
		report.PagesAttempted, report.PagesSucceeded, report.PagesSkipped)
	fmt.Printf("  Sessions:        %d\n", report.SessionsUsed)
	fmt.Printf("  CAPTCHAs:        %d\n", report.Captchas)
	fmt.Printf("  Duration:        %s\n", report.Duration().Round(time.Second))
	if len(report.Strategies) > 0 {
		names := make([]string, 0, len(report.Strategies))
		for name := range report.Strategies {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Printf("  Strategy %-8s %d pages\n", name+":", report.Strategies[name])
		}
	}
	if report.Aborted {
		fmt.Printf("  Aborted:         %s\n", report.AbortReason)
	}
	if report.StatsError != nil {
		fmt.Printf("  Stats not saved: %v\n", report.StatsError)
	}
	if len(report.Listings) > 0 {
		fmt.Printf("  Results saved to %s\n", target)
	}
}

// validateConfig loads and validates a configuration file
func validateConfig(configFile string, verbose bool) error {
	cfg, err := config.LoadFromFile(configFile)
	if err != nil {
		return err
	}
	if verbose {
		fmt.Printf("Configuration details:\n")
		fmt.Printf("  Name: %s\n", cfg.Name)
		fmt.Printf("  Base URL: %s\n", cfg.Scrape.BaseURL)
		fmt.Printf("  Pages: %d\n", cfg.Scrape.Pages)
		fmt.Printf("  Proxies: %t (%s)\n", cfg.Proxies.Enabled, cfg.Proxies.File)
		fmt.Printf("  Output format: %s\n", cfg.Output.Format)
	}
	fmt.Printf("✓ Configuration file '%s' is valid\n", configFile)
	return nil
}

// listProxies parses a proxy list and reports what was loaded.
func listProxies(file string) error {
	res, err := proxy.LoadEndpointsFile(file)
	if err != nil {
		return err
	}
	for _, ep := range res.Endpoints {
		auth := ""
		if ep.RequiresAuth() {
			auth = " (auth)"
		}
		fmt.Printf("  %s%s\n", ep, auth)
	}

	lines := make([]int, 0, len(res.Invalid))
	for line := range res.Invalid {
		lines = append(lines, line)
	}
	sort.Ints(lines)
	for _, line := range lines {
		fmt.Printf("  line %d: %v\n", line, res.Invalid[line])
	}

	fmt.Printf("%d proxies, %d invalid lines, %d duplicates\n", len(res.Endpoints), len(res.Invalid), res.Duplicates)
	if len(res.Endpoints) == 0 {
		return utils.NewError(utils.ErrCodeNoHealthyProxy, "no valid proxies").WithContext("file", file).Build()
	}
	return nil
}

// showStats prints a stats snapshot with its health distribution.
func showStats(file string) error {
	if _, err := os.Stat(file); err != nil {
		return fmt.Errorf("failed to open stats snapshot: %w", err)
	}
	store := proxy.NewStatsStore()
	if _, err := proxy.LoadSnapshot(file, store); err != nil {
		return err
	}

	now := time.Now()
	keys := store.Keys()
	for _, key := range keys {
		st, _ := store.Get(key)
		cooldown := ""
		if st.InCooldown(now) {
			cooldown = fmt.Sprintf(" cooldown until %s", st.CooldownUntil.Format(time.RFC3339))
		}
		fmt.Printf("  %-22s %-11s success %5.1f%%  captchas %d  sessions %d/%d%s\n",
			key, st.Health, st.SuccessRate(), st.CaptchaCount, st.SuccessfulSessions, st.TotalSessions, cooldown)
	}

	healthy := store.CountHealthy(now)
	dist := store.HealthDistribution()
	fmt.Printf("%d proxies, %d healthy\n", len(keys), healthy)
	for _, h := range proxy.AllHealthLevels {
		fmt.Printf("  %-11s %d\n", h, dist[h])
	}
	return nil
}

// printUsage displays help information
func printUsage() {
	fmt.Println("jobharvest - job listing scraper with proxy rotation")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  jobharvest run <config.yaml> [-v]       Run a scrape")
	fmt.Println("  jobharvest validate <config.yaml>       Validate configuration file")
	fmt.Println("  jobharvest proxies <proxies.txt>        Parse and list a proxy file")
	fmt.Println("  jobharvest stats <proxy_stats.json>     Show proxy health from a stats snapshot")
	fmt.Println("  jobharvest template                     Print a default configuration")
	fmt.Println("  jobharvest version                      Show version information")
	fmt.Println("  jobharvest help                         Show this help message")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -v, --verbose                           Enable verbose output")
	fmt.Println()
	fmt.Println("Exit codes: 0 ok, 1 usage or configuration error, 2 no healthy proxy")
}

// printVersion displays version information
func printVersion() {
	fmt.Printf("jobharvest %s\n", version)
	fmt.Printf("Build time: %s\n", buildTime)
	fmt.Printf("Git commit: %s\n", gitCommit)
}
