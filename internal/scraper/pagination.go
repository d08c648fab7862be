// internal/scraper/pagination.go
package scraper

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// PageURL sets the offset parameter of base to (page-1)*pageSize, keeping
// every other query parameter.
func PageURL(base, offsetParam string, pageSize, page int) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}
	if page < 1 {
		page = 1
	}
	query := u.Query()
	query.Set(offsetParam, strconv.Itoa((page-1)*pageSize))
	u.RawQuery = query.Encode()
	return u.String(), nil
}

// SearchURL builds a results URL for a keyword and location on site.
func SearchURL(site, keywords, location string) string {
	query := url.Values{}
	query.Set("q", keywords)
	if location != "" {
		query.Set("l", location)
	}
	return strings.TrimRight(site, "/") + "/jobs?" + query.Encode()
}
