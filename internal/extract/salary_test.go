// internal/extract/salary_test.go
package extract

import "testing"

func ptr(v float64) *float64 { return &v }

func TestInferPeriod(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"$20 - $30 an hour", PeriodHour},
		{"$90,000/year", PeriodYear},
		{"$45/hr", PeriodHour},
		{"$120K annual", PeriodYear},
		{"$4,000 a month", PeriodMonth},
		{"$800 /wk", PeriodWeek},
		{"$1,200 per week", PeriodWeek},
		{"$5,000", PeriodUnspecified},
		{"HOURLY", PeriodHour},
		{"", PeriodUnspecified},
	}
	for _, tt := range tests {
		if got := InferPeriod(tt.text); got != tt.want {
			t.Errorf("InferPeriod(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestDeriveSalary(t *testing.T) {
	tests := []struct {
		name       string
		structured *structuredSalary
		snippet    string
		salary     string
		period     string
	}{
		{"hourly range", &structuredSalary{Type: "hourly", Min: ptr(20), Max: ptr(30)}, "", "$20 - $30", PeriodHour},
		{"yearly grouped", &structuredSalary{Type: "YEARLY", Min: ptr(95000), Max: ptr(125000)}, "", "$95,000 - $125,000", PeriodYear},
		{"min only", &structuredSalary{Type: "monthly", Min: ptr(4000)}, "", "$4,000", PeriodMonth},
		{"type without keyword uses snippet period", &structuredSalary{Type: "", Min: ptr(18)}, "$18 an hour", "$18", PeriodHour},
		{"empty structured falls back to snippet", &structuredSalary{Type: "weekly"}, "$900 a week", "$900 a week", PeriodWeek},
		{"snippet only", nil, "$90,000/year", "$90,000/year", PeriodYear},
		{"snippet without period", nil, "$5,000", "$5,000", PeriodUnspecified},
		{"nothing", nil, "", Sentinel, PeriodUnspecified},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			salary, period := deriveSalary(tt.structured, tt.snippet)
			if salary != tt.salary || period != tt.period {
				t.Errorf("deriveSalary() = (%q, %q), want (%q, %q)", salary, period, tt.salary, tt.period)
			}
		})
	}
}

func TestLooksLikeSalary(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"$50,000 - $60,000 a year", true},
		{"From 25 an hour", true},
		{"Full-time", false},
		{"$5,000 bonus", false},
		{"Pay every week", false},
	}
	for _, tt := range tests {
		if got := looksLikeSalary(tt.text); got != tt.want {
			t.Errorf("looksLikeSalary(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestFormatMoney(t *testing.T) {
	if got := FormatMoney(1234567); got != "$1,234,567" {
		t.Errorf("FormatMoney() = %q", got)
	}
	if got := FormatMoney(20); got != "$20" {
		t.Errorf("FormatMoney() = %q", got)
	}
}
