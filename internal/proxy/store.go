// internal/proxy/store.go
package proxy

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/valpere/jobharvest/internal/utils"
)

var storeLogger = utils.NewComponentLogger("proxy-store")

// ParseLine parses "host:port" or "host:port:username:password".
// Callers are expected to have skipped comments and blank lines.
func ParseLine(line string) (Endpoint, error) {
	parts := strings.Split(strings.TrimSpace(line), ":")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	if len(parts) != 2 && len(parts) != 4 {
		return Endpoint{}, utils.NewError(utils.ErrCodeProxyLineInvalid,
			fmt.Sprintf("expected 2 or 4 colon-separated fields, got %d", len(parts))).Build()
	}

	if parts[0] == "" {
		return Endpoint{}, utils.NewError(utils.ErrCodeProxyLineInvalid, "empty host").Build()
	}

	port, err := strconv.Atoi(parts[1])
	if err != nil || port < 1 || port > 65535 {
		return Endpoint{}, utils.NewError(utils.ErrCodeProxyLineInvalid,
			fmt.Sprintf("invalid port %q", parts[1])).WithCause(err).Build()
	}

	ep := Endpoint{Host: parts[0], Port: port}
	if len(parts) == 4 {
		if parts[2] == "" {
			return Endpoint{}, utils.NewError(utils.ErrCodeProxyLineInvalid, "empty username").Build()
		}
		ep.Username = parts[2]
		ep.Password = parts[3]
	}
	return ep, nil
}

// LoadResult is the outcome of reading a proxy source.
type LoadResult struct {
	Endpoints []Endpoint
	// Invalid maps 1-based line numbers to the parse error for that line.
	Invalid map[int]error
	// Duplicates counts lines whose server key was already loaded.
	Duplicates int
}

// LoadEndpoints reads a proxy list. Malformed lines are logged and skipped.
// Only a read error from r is returned as an error.
func LoadEndpoints(r io.Reader) (*LoadResult, error) {
	res := &LoadResult{Invalid: make(map[int]error)}
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		ep, err := ParseLine(line)
		if err != nil {
			storeLogger.Warnf("skipping proxy line %d: %v", lineNo, err)
			res.Invalid[lineNo] = err
			continue
		}

		if seen[ep.Key()] {
			res.Duplicates++
			continue
		}
		seen[ep.Key()] = true
		res.Endpoints = append(res.Endpoints, ep)
	}
	if err := scanner.Err(); err != nil {
		return res, fmt.Errorf("failed to read proxy list: %w", err)
	}

	auth := 0
	for _, ep := range res.Endpoints {
		if ep.RequiresAuth() {
			auth++
		}
	}
	storeLogger.Infof("loaded %d proxies (%d with credentials, %d invalid lines)",
		len(res.Endpoints), auth, len(res.Invalid))

	return res, nil
}

// LoadEndpointsFile opens path and calls LoadEndpoints.
func LoadEndpointsFile(path string) (*LoadResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open proxy file: %w", err)
	}
	defer f.Close()
	return LoadEndpoints(f)
}
