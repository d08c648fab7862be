// internal/extract/extractor_test.go
package extract

import (
	"errors"
	"strings"
	"testing"

	"github.com/valpere/jobharvest/internal/utils"
)

func embeddedPage(results string) string {
	return `<html><head><script>
window.mosaic.providerData["mosaic-provider-jobcards"]={"metaData":{"mosaicProviderJobCardsModel":{"results":[` + results + `]}}};
window.mosaic.providerData["other"]={};
</script></head><body></body></html>`
}

func newTestExtractor() *Extractor {
	return New(Config{}, utils.NewNopLogger())
}

func TestExtract_EmbeddedTwoListings(t *testing.T) {
	page := embeddedPage(`
{"jobkey":"k1","title":"Go Developer","company":"Acme","formattedLocation":"Austin, TX",
 "extractedSalary":{"type":"hourly","min":20,"max":30},"jobTypes":["Full-time"],
 "formattedRelativeTime":"3 days ago","snippet":"<ul><li>Build &amp; ship</li></ul>"},
{"jobkey":"k2","title":"SRE","company":"Globex","location":"Remote",
 "taxonomyAttributes":[{"label":"remote","attributes":[{"label":"Remote"}]},{"label":"job-types","attributes":[{"label":"Contract"},{"label":"Part-time"}]}]}`)

	res, err := newTestExtractor().Extract(page, 3)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if res.Strategy != StrategyEmbedded {
		t.Errorf("Strategy = %s, want %s", res.Strategy, StrategyEmbedded)
	}
	if len(res.Listings) != 2 {
		t.Fatalf("got %d listings, want 2", len(res.Listings))
	}

	first := res.Listings[0]
	want := Listing{
		Title:        "Go Developer",
		Company:      "Acme",
		Location:     "Austin, TX",
		Salary:       "$20 - $30",
		SalaryPeriod: PeriodHour,
		JobType:      "Full-time",
		PostedDate:   "3 days ago",
		Summary:      "Build & ship",
		URL:          "https://www.indeed.com/viewjob?jk=k1",
		Page:         3,
	}
	if first != want {
		t.Errorf("first listing =\n%+v\nwant\n%+v", first, want)
	}

	second := res.Listings[1]
	if second.Salary != Sentinel || second.SalaryPeriod != PeriodUnspecified {
		t.Errorf("second salary = %q/%q, want sentinels", second.Salary, second.SalaryPeriod)
	}
	if second.Location != "Remote" {
		t.Errorf("Location = %q, want Remote", second.Location)
	}
	if second.JobType != "Contract, Part-time" {
		t.Errorf("JobType = %q", second.JobType)
	}
	if second.PostedDate != Sentinel || second.Summary != Sentinel {
		t.Errorf("missing fields not at sentinel: %+v", second)
	}
}

func TestExtract_JobTypeAndPostedDateNotConflated(t *testing.T) {
	page := embeddedPage(`
{"jobkey":"a","title":"A","formattedRelativeTime":"3 days ago"},
{"jobkey":"b","title":"B","jobTypes":["Temporary"]},
{"jobkey":"c","title":"C","salarySnippet":{"text":"Posted 2 days ago"}}`)

	res, err := newTestExtractor().Extract(page, 1)
	if err != nil {
		t.Fatal(err)
	}
	a, b, c := res.Listings[0], res.Listings[1], res.Listings[2]
	if a.JobType != Sentinel || a.PostedDate != "3 days ago" {
		t.Errorf("relative time leaked into job type: %+v", a)
	}
	if b.PostedDate != Sentinel || b.JobType != "Temporary" {
		t.Errorf("job type leaked into posted date: %+v", b)
	}
	if c.PostedDate != Sentinel || c.JobType != Sentinel {
		t.Errorf("salary text leaked into other fields: %+v", c)
	}
}

func TestExtract_EmbeddedUnparsableDoesNotFallBack(t *testing.T) {
	page := `<script>window.mosaic.providerData["mosaic-provider-jobcards"]={"metaData": broken};</script>
<div class="job_seen_beacon" data-jk="x"><h2 class="jobTitle">Should not be used</h2></div>`

	res, err := newTestExtractor().Extract(page, 1)
	if !errors.Is(err, utils.ErrExtractionEmpty) {
		t.Fatalf("error = %v, want ErrExtractionEmpty", err)
	}
	if len(res.Listings) != 0 || res.Strategy != StrategyEmbedded {
		t.Errorf("result = %+v, want empty embedded result", res)
	}
}

func TestExtract_EmptyResults(t *testing.T) {
	res, err := newTestExtractor().Extract(embeddedPage(""), 1)
	if !errors.Is(err, utils.ErrExtractionEmpty) {
		t.Fatalf("error = %v, want ErrExtractionEmpty", err)
	}
	if len(res.Listings) != 0 {
		t.Error("expected no listings")
	}
}

func TestExtract_NothingOnPage(t *testing.T) {
	res, err := newTestExtractor().Extract("<html><body><p>Just a moment...</p></body></html>", 4)
	if !errors.Is(err, utils.ErrExtractionEmpty) {
		t.Fatalf("error = %v, want ErrExtractionEmpty", err)
	}
	if res.Strategy != StrategyNone {
		t.Errorf("Strategy = %s, want %s", res.Strategy, StrategyNone)
	}
}

func TestExtract_SkipsUndecodableResult(t *testing.T) {
	page := embeddedPage(`{"jobkey":"ok","title":"Fine","location":{"city":"Paris"}},{"jobkey":7}`)
	res, err := newTestExtractor().Extract(page, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Listings) != 1 {
		t.Fatalf("got %d listings, want 1", len(res.Listings))
	}
	if res.Listings[0].Location != Sentinel {
		t.Errorf("non-string location should fall back to sentinel, got %q", res.Listings[0].Location)
	}
}

func TestExtract_CustomProvider(t *testing.T) {
	x := New(Config{Namespace: "window.board", ProviderKey: "cards", Model: "cardModel", BaseURL: "https://jobs.example.com/"}, utils.NewNopLogger())
	page := `<script>window.board.providerData["cards"] = {"metaData":{"cardModel":{"results":[{"jobkey":"z9","title":"Ops"}]}}};</script>`

	res, err := x.Extract(page, 1)
	if err != nil {
		t.Fatal(err)
	}
	if got := res.Listings[0].URL; got != "https://jobs.example.com/viewjob?jk=z9" {
		t.Errorf("URL = %q", got)
	}
	if x.Config().Marker() != "window.board.providerData" {
		t.Errorf("Marker() = %q", x.Config().Marker())
	}
}

const domPage = `<html><body>
<div class="job_seen_beacon">
  <h2 class="jobTitle"><span>new</span><a class="jcs-JobTitle" href="/rc/clk?jk=abc&amp;from=serp"><span>Backend Engineer</span></a></h2>
  <span data-testid="company-name">Initech</span>
  <div data-testid="text-location">Denver, CO</div>
  <div class="metadata"><div>Full-time</div></div>
  <div class="metadata"><div>$50,000 - $60,000 a year</div></div>
  <span class="date">Posted 3 days ago</span>
  <div class="job-snippet"><ul><li>• Maintain services</li></ul></div>
</div>
<div class="job_seen_beacon" data-jk="def">
  <h2 class="jobTitle">Data Analyst</h2>
  <span class="companyName">Hooli</span>
  <div class="salary-snippet">$5,000 bonus</div>
  <a href="#">save</a>
</div>
<div class="job_seen_beacon"><p>advert</p></div>
</body></html>`

func TestExtract_DOMFallback(t *testing.T) {
	res, err := newTestExtractor().Extract(domPage, 2)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if res.Strategy != StrategyDOM {
		t.Fatalf("Strategy = %s, want %s", res.Strategy, StrategyDOM)
	}
	if len(res.Listings) != 2 {
		t.Fatalf("got %d listings, want 2", len(res.Listings))
	}

	first := res.Listings[0]
	checks := []struct{ name, got, want string }{
		{"title", first.Title, "Backend Engineer"},
		{"company", first.Company, "Initech"},
		{"location", first.Location, "Denver, CO"},
		{"salary", first.Salary, "$50,000 - $60,000 a year"},
		{"period", first.SalaryPeriod, PeriodYear},
		{"job type", first.JobType, "Full-time"},
		{"posted", first.PostedDate, "3 days ago"},
		{"summary", first.Summary, "Maintain services"},
		{"url", first.URL, "https://www.indeed.com/rc/clk?jk=abc&from=serp"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %q, want %q", c.name, c.got, c.want)
		}
	}

	second := res.Listings[1]
	if second.URL != "https://www.indeed.com/viewjob?jk=def" {
		t.Errorf("data-jk reconstruction = %q", second.URL)
	}
	if second.Salary != Sentinel || second.SalaryPeriod != PeriodUnspecified {
		t.Errorf("salary without period keyword must not validate: %q", second.Salary)
	}
	if second.Company != "Hooli" || second.Page != 2 {
		t.Errorf("second listing = %+v", second)
	}
}

func TestNormalizeHref(t *testing.T) {
	x := newTestExtractor()
	tests := []struct {
		href string
		want string
	}{
		{"https://example.com/a", "https://example.com/a"},
		{"/viewjob?jk=1", "https://www.indeed.com/viewjob?jk=1"},
		{"//cdn.example.com/x", "https://cdn.example.com/x"},
		{"#", ""},
		{"javascript:void(0)", ""},
		{"relative/path", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := x.normalizeHref(tt.href); got != tt.want {
			t.Errorf("normalizeHref(%q) = %q, want %q", tt.href, got, tt.want)
		}
	}
}

func TestListingNormalize(t *testing.T) {
	l := Listing{Title: "  Dev  ", SalaryPeriod: "fortnight"}
	l.Normalize()
	if l.Title != "Dev" {
		t.Errorf("Title = %q", l.Title)
	}
	for name, v := range map[string]string{
		"company": l.Company, "location": l.Location, "salary": l.Salary, "job_type": l.JobType,
		"posted_date": l.PostedDate, "summary": l.Summary, "url": l.URL,
	} {
		if v != Sentinel {
			t.Errorf("%s = %q, want sentinel", name, v)
		}
	}
	if l.SalaryPeriod != PeriodUnspecified {
		t.Errorf("SalaryPeriod = %q", l.SalaryPeriod)
	}
	if l.HasSalary() {
		t.Error("HasSalary() = true for sentinel")
	}
}

func TestCleanSummary(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"<ul><li>One</li>\n<li>Two &amp; three</li></ul>", "One Two & three"},
		{"• Fast paced\n\n◦ Remote", "Fast paced Remote"},
		{"  plain   text ", "plain text"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := CleanSummary(tt.in); got != tt.want {
			t.Errorf("CleanSummary(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCleanTitle(t *testing.T) {
	for in, want := range map[string]string{
		"new Go Developer": "Go Developer",
		"Go Developer new": "Go Developer",
		"Renewals Manager": "Renewals Manager",
		"Newark Courier":   "Newark Courier",
	} {
		if got := cleanTitle(in); got != want {
			t.Errorf("cleanTitle(%q) = %q, want %q", in, got, want)
		}
	}
	if !strings.Contains(cleanPostedDate("Posted\n30+ days ago"), "30+ days ago") {
		t.Error("posted prefix not stripped")
	}
}
