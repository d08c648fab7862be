// internal/extract/embedded.go
package extract

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

type embeddedPayload struct {
	MetaData map[string]json.RawMessage `json:"metaData"`
}

type embeddedModel struct {
	Results []json.RawMessage `json:"results"`
}

type taxonomyAttribute struct {
	Label      string `json:"label"`
	Attributes []struct {
		Label string `json:"label"`
	} `json:"attributes"`
}

type embeddedJob struct {
	JobKey                string              `json:"jobkey"`
	Title                 string              `json:"title"`
	Company               string              `json:"company"`
	FormattedLocation     string              `json:"formattedLocation"`
	Location              json.RawMessage     `json:"location"`
	ExtractedSalary       *structuredSalary   `json:"extractedSalary"`
	SalarySnippet         *salarySnippet      `json:"salarySnippet"`
	JobTypes              []string            `json:"jobTypes"`
	TaxonomyAttributes    []taxonomyAttribute `json:"taxonomyAttributes"`
	FormattedRelativeTime string              `json:"formattedRelativeTime"`
	Snippet               string              `json:"snippet"`
}

type salarySnippet struct {
	Text string `json:"text"`
}

// embeddedPattern matches `<namespace>.providerData["<key>"] = {...};`.
func embeddedPattern(namespace, key string) *regexp.Regexp {
	return regexp.MustCompile(`(?s)` + regexp.QuoteMeta(namespace+`.providerData["`+key+`"]`) + `\s*=\s*(\{.*?\});`)
}

// decodeEmbedded parses the matched assignment body. found is false when the
// assignment is not on the page at all.
func (x *Extractor) decodeEmbedded(page string) (jobs []embeddedJob, found bool, err error) {
	m := x.pattern.FindStringSubmatch(page)
	if m == nil {
		return nil, false, nil
	}

	var payload embeddedPayload
	if err := json.Unmarshal([]byte(m[1]), &payload); err != nil {
		return nil, true, fmt.Errorf("decode embedded data: %w", err)
	}

	raw, ok := payload.MetaData[x.cfg.Model]
	if !ok {
		return nil, true, fmt.Errorf("embedded data has no metaData.%s", x.cfg.Model)
	}
	var model embeddedModel
	if err := json.Unmarshal(raw, &model); err != nil {
		return nil, true, fmt.Errorf("decode metaData.%s: %w", x.cfg.Model, err)
	}

	for i, r := range model.Results {
		var job embeddedJob
		if err := json.Unmarshal(r, &job); err != nil {
			x.logger.Debugf("skipping embedded result %d: %v", i, err)
			continue
		}
		jobs = append(jobs, job)
	}
	return jobs, true, nil
}

func (x *Extractor) listingFromEmbedded(job embeddedJob, page int) Listing {
	l := Listing{
		Title:      job.Title,
		Company:    job.Company,
		Location:   job.location(),
		JobType:    job.jobType(),
		PostedDate: job.FormattedRelativeTime,
		Summary:    CleanSummary(job.Snippet),
		Page:       page,
	}

	snippet := ""
	if job.SalarySnippet != nil {
		snippet = job.SalarySnippet.Text
	}
	l.Salary, l.SalaryPeriod = deriveSalary(job.ExtractedSalary, snippet)

	if key := strings.TrimSpace(job.JobKey); key != "" {
		l.URL = x.viewURL(key)
	}

	l.Normalize()
	return l
}

func (j embeddedJob) location() string {
	if strings.TrimSpace(j.FormattedLocation) != "" {
		return j.FormattedLocation
	}
	var loc string
	if len(j.Location) > 0 && json.Unmarshal(j.Location, &loc) == nil {
		return loc
	}
	return ""
}

func (j embeddedJob) jobType() string {
	var types []string
	for _, t := range j.JobTypes {
		if t = strings.TrimSpace(t); t != "" {
			types = append(types, t)
		}
	}
	if len(types) > 0 {
		return strings.Join(types, ", ")
	}

	for _, attr := range j.TaxonomyAttributes {
		if attr.Label != "job-types" {
			continue
		}
		for _, a := range attr.Attributes {
			if a.Label != "" {
				types = append(types, a.Label)
			}
		}
		if len(types) > 0 {
			return strings.Join(types, ", ")
		}
	}
	return ""
}
