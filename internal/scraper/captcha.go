// internal/scraper/captcha.go
package scraper

import "strings"

// blockRule matches when every term appears in the lowercased page.
type blockRule struct {
	name  string
	terms []string
}

var blockRules = []blockRule{
	{"cloudflare_interstitial", []string{"just a moment", "cloudflare"}},
	{"challenge_platform", []string{"challenge-platform"}},
	{"captcha", []string{"captcha"}},
	{"human_verification", []string{"please verify you are a human"}},
	{"access_denied", []string{"access denied"}},
	{"blocked_request", []string{"blocked", "request"}},
}

// DetectCaptcha reports whether page is a CAPTCHA or block page and which
// rule matched. The listing-data marker wins: a page carrying it is never
// treated as blocked, even when block phrases also appear.
func DetectCaptcha(page, marker string) (bool, string) {
	if marker != "" && strings.Contains(page, marker) {
		return false, ""
	}
	lower := strings.ToLower(page)
	for _, rule := range blockRules {
		matched := true
		for _, term := range rule.terms {
			if !strings.Contains(lower, term) {
				matched = false
				break
			}
		}
		if matched {
			return true, rule.name
		}
	}
	return false, ""
}
