// internal/scraper/captcha_test.go
package scraper

import "testing"

func TestDetectCaptcha(t *testing.T) {
	const marker = "window.mosaic.providerData"

	tests := []struct {
		name       string
		page       string
		wantBlock  bool
		wantReason string
	}{
		{"results page", `<script>window.mosaic.providerData["x"] = {};</script>`, false, ""},
		{"cloudflare interstitial", `<title>Just a moment...</title><p>Cloudflare</p>`, true, "cloudflare_interstitial"},
		{"just a moment alone", `<p>Just a moment while we load</p>`, false, ""},
		{"challenge platform", `<script src="/cdn-cgi/challenge-platform/h/b"></script>`, true, "challenge_platform"},
		{"recaptcha", `<div class="g-reCAPTCHA"></div>`, true, "captcha"},
		{"verify human", `<h1>Please verify you are a human</h1>`, true, "human_verification"},
		{"access denied", `<h1>Access Denied</h1>`, true, "access_denied"},
		{"blocked request", `<p>Your request has been blocked.</p>`, true, "blocked_request"},
		{"blocked alone", `<p>Pop-ups blocked</p>`, false, ""},
		{"marker wins over phrases", `Access denied captcha <script>window.mosaic.providerData = {}</script>`, false, ""},
		{"empty page", ``, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blocked, reason := DetectCaptcha(tt.page, marker)
			if blocked != tt.wantBlock || reason != tt.wantReason {
				t.Errorf("DetectCaptcha() = (%v, %q), want (%v, %q)", blocked, reason, tt.wantBlock, tt.wantReason)
			}
		})
	}
}
