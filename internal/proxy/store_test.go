// internal/proxy/store_test.go
package proxy

import (
	"errors"
	"strings"
	"testing"

	"github.com/valpere/jobharvest/internal/utils"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		wantKey  string
		wantAuth bool
		wantErr  bool
	}{
		{name: "host and port", line: "10.0.0.1:8080", wantKey: "10.0.0.1:8080"},
		{name: "with credentials", line: "proxy.example.com:3128:alice:s3cret", wantKey: "proxy.example.com:3128", wantAuth: true},
		{name: "surrounding whitespace", line: "  10.0.0.2 : 80 ", wantKey: "10.0.0.2:80"},
		{name: "three fields", line: "10.0.0.1:8080:alice", wantErr: true},
		{name: "five fields", line: "a:1:b:c:d", wantErr: true},
		{name: "single field", line: "localhost", wantErr: true},
		{name: "non numeric port", line: "10.0.0.1:http", wantErr: true},
		{name: "port out of range", line: "10.0.0.1:70000", wantErr: true},
		{name: "empty host", line: ":8080", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ep, err := ParseLine(tt.line)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.line)
				}
				if !errors.Is(err, utils.ErrProxyLineInvalid) {
					t.Errorf("expected ErrProxyLineInvalid, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ep.Key() != tt.wantKey {
				t.Errorf("Key() = %q, want %q", ep.Key(), tt.wantKey)
			}
			if ep.RequiresAuth() != tt.wantAuth {
				t.Errorf("RequiresAuth() = %v, want %v", ep.RequiresAuth(), tt.wantAuth)
			}
			if !tt.wantAuth && (ep.Username != "" || ep.Password != "") {
				t.Error("credentials must be empty for two-field lines")
			}
		})
	}
}

func TestLoadEndpoints(t *testing.T) {
	input := strings.Join([]string{
		"# residential pool",
		"",
		"1.1.1.1:8000",
		"2.2.2.2:8001:user:pass",
		"bad-line",
		"1.1.1.1:8000",
		"   ",
		"3.3.3.3:8002:u",
	}, "\n")

	res, err := LoadEndpoints(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Endpoints) != 2 {
		t.Fatalf("expected 2 endpoints, got %d", len(res.Endpoints))
	}
	if res.Endpoints[1].Username != "user" || res.Endpoints[1].Password != "pass" {
		t.Errorf("credentials not parsed: %+v", res.Endpoints[1])
	}
	if len(res.Invalid) != 2 {
		t.Errorf("expected 2 invalid lines, got %d", len(res.Invalid))
	}
	if _, ok := res.Invalid[5]; !ok {
		t.Error("expected line 5 to be reported invalid")
	}
	if res.Duplicates != 1 {
		t.Errorf("expected 1 duplicate, got %d", res.Duplicates)
	}
}

func TestEndpoint_StringRedactsPassword(t *testing.T) {
	ep := Endpoint{Host: "h", Port: 1, Username: "u", Password: "secret"}
	if strings.Contains(ep.String(), "secret") {
		t.Errorf("String() leaked password: %s", ep.String())
	}
	if ep.ServerURL() != "http://h:1" {
		t.Errorf("ServerURL() = %s", ep.ServerURL())
	}
}

func TestLoadEndpointsFile_Missing(t *testing.T) {
	if _, err := LoadEndpointsFile("does-not-exist.txt"); err == nil {
		t.Error("expected error for missing file")
	}
}
