// internal/extract/dom.go
package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Ordered selector strategies. The first selector whose text validates wins.
var (
	cardSelectors = []string{
		"div.job_seen_beacon",
		"div[data-jk]",
		"td.resultContent",
	}
	titleSelectors = []string{
		"h2.jobTitle",
		"a.jcs-JobTitle",
		`h2[class*="jobTitle"]`,
	}
	companySelectors = []string{
		`span[data-testid="company-name"]`,
		"span.companyName",
		`span[class*="company"]`,
	}
	locationSelectors = []string{
		`div[data-testid="text-location"]`,
		"div.companyLocation",
		`div[class*="location"]`,
	}
	salarySelectors = []string{
		"div.salary-snippet",
		"span.salary-snippet",
		"div.metadata",
		"div.salary-snippet-container",
		`[data-testid="attribute_snippet_testid"]`,
		`div[class*="salary"]`,
	}
	dateSelectors = []string{
		"span.date",
		`span[data-testid="myJobsStateDate"]`,
		`span[class*="date"]`,
	}
	linkSelectors = []string{
		"a.jcs-JobTitle",
		"a[data-jk]",
		"h2.jobTitle a",
		"a[href]",
	}
	summarySelectors = []string{
		"div.job-snippet",
		`div[class*="job-snippet"]`,
		`[data-testid="jobsnippet_footer"]`,
	}
	jobTypeSelectors = []string{
		`[data-testid="attribute_snippet_testid"]`,
		"div.metadata",
	}
)

// knownJobTypes restricts DOM job types to recognised employment types so
// salary or date badges sharing the same markup are not mistaken for one.
var knownJobTypes = []string{"Full-time", "Part-time", "Contract", "Temporary", "Internship", "Permanent", "Freelance", "Seasonal"}

func firstText(card *goquery.Selection, selectors []string, valid func(string) bool) string {
	for _, sel := range selectors {
		found := ""
		card.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			text := spacedText(s)
			if text != "" && (valid == nil || valid(text)) {
				found = text
				return false
			}
			return true
		})
		if found != "" {
			return found
		}
	}
	return ""
}

func (x *Extractor) extractDOM(doc *goquery.Document, page int) []Listing {
	var cards *goquery.Selection
	for _, sel := range cardSelectors {
		if found := doc.Find(sel); found.Length() > 0 {
			cards = found
			break
		}
	}
	if cards == nil {
		return nil
	}

	var listings []Listing
	cards.Each(func(i int, card *goquery.Selection) {
		l := Listing{
			Title:      cleanTitle(firstText(card, titleSelectors, nil)),
			Company:    firstText(card, companySelectors, nil),
			Location:   firstText(card, locationSelectors, nil),
			PostedDate: cleanPostedDate(firstText(card, dateSelectors, nil)),
			Summary:    CleanSummary(firstText(card, summarySelectors, nil)),
			JobType:    domJobType(card),
			URL:        x.cardURL(card),
			Page:       page,
		}
		if salary := firstText(card, salarySelectors, looksLikeSalary); salary != "" {
			l.Salary, l.SalaryPeriod = salary, InferPeriod(salary)
		}
		if l.Title == "" && l.URL == "" {
			x.logger.Debugf("skipping card %d on page %d: no title or link", i, page)
			return
		}
		l.Normalize()
		listings = append(listings, l)
	})
	return listings
}

func domJobType(card *goquery.Selection) string {
	var types []string
	seen := map[string]bool{}
	for _, sel := range jobTypeSelectors {
		card.Find(sel).Each(func(_ int, s *goquery.Selection) {
			text := strings.ToLower(spacedText(s))
			for _, jt := range knownJobTypes {
				if strings.Contains(text, strings.ToLower(jt)) && !seen[jt] {
					seen[jt] = true
					types = append(types, jt)
				}
			}
		})
	}
	return strings.Join(types, ", ")
}

// cardURL tries each link selector, then rebuilds the view URL from data-jk.
func (x *Extractor) cardURL(card *goquery.Selection) string {
	for _, sel := range linkSelectors {
		found := ""
		card.Find(sel).EachWithBreak(func(_ int, a *goquery.Selection) bool {
			href, _ := a.Attr("href")
			if u := x.normalizeHref(href); u != "" {
				found = u
				return false
			}
			return true
		})
		if found != "" {
			return found
		}
	}

	if jk, ok := card.Attr("data-jk"); ok && strings.TrimSpace(jk) != "" {
		return x.viewURL(strings.TrimSpace(jk))
	}
	if jk, ok := card.Find("[data-jk]").First().Attr("data-jk"); ok && strings.TrimSpace(jk) != "" {
		return x.viewURL(strings.TrimSpace(jk))
	}
	return ""
}

func (x *Extractor) normalizeHref(href string) string {
	href = strings.TrimSpace(href)
	switch {
	case href == "", strings.HasPrefix(href, "#"), strings.HasPrefix(strings.ToLower(href), "javascript:"):
		return ""
	case strings.HasPrefix(href, "http://"), strings.HasPrefix(href, "https://"):
		return href
	case strings.HasPrefix(href, "//"):
		return "https:" + href
	case strings.HasPrefix(href, "/"):
		return x.cfg.BaseURL + href
	}
	return ""
}
