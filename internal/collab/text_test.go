package collab

import "testing"

func TestExtractYear(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2021", "2021"},
		{"FY2021", "2021"},
		{"March 2019", "2019"},
		{"2020-2021", "2021"},       // ranges resolve to the later year
		{"FY 2020 / FY 2021", "2021"},
		{"31 Dec 1999", "1999"},
		{"n/a", ""},
		{"", ""},
		{"quarter 4", ""},
		{"year 21", ""}, // 2-digit years are not plausible matches
	}

	for _, tt := range tests {
		if got := ExtractYear(tt.in); got != tt.want {
			t.Errorf("ExtractYear(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestContainsNormalized(t *testing.T) {
	tests := []struct {
		haystack string
		needle   string
		want     bool
	}{
		{"Total emissions were 1,234.5 t CO2e in 2021", "1234.5 t", true},
		{"Total emissions were 1,234.5 t CO2e in 2021", "9,876", false},
		{"Women represent 32 % of the workforce", "32%", true},
		{"Scope 1: 500 tCO2e", "500", true},
		{"Scope 1: 500 tCO2e", "600", false},
		{"GHG EMISSIONS", "ghg emissions", true},
		{"some context", "", false},
		{"", "500", false},
	}

	for _, tt := range tests {
		if got := ContainsNormalized(tt.haystack, tt.needle); got != tt.want {
			t.Errorf("ContainsNormalized(%q, %q) = %v, want %v", tt.haystack, tt.needle, got, tt.want)
		}
	}
}
