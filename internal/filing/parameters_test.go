package filing

import (
	"strings"
	"testing"
	"time"
)

func validParams() PackageParameters {
	return PackageParameters{
		EntityID:         "rs:529900T8BM49AURSDO55",
		RefPeriod:        "2024-12-31",
		BaseCurrency:     "iso4217:EUR",
		DecimalsInteger:  0,
		DecimalsMonetary: 2,
	}
}

func TestDefaultParameters(t *testing.T) {
	ref := time.Date(2024, 12, 31, 10, 0, 0, 0, time.UTC)
	p := DefaultParameters("529900T8BM49AURSDO55", ref)

	if p.EntityID != "rs:529900T8BM49AURSDO55" {
		t.Errorf("EntityID = %q, want rs: prefix on legal id", p.EntityID)
	}
	if p.RefPeriod != "2024-12-31" {
		t.Errorf("RefPeriod = %q, want 2024-12-31", p.RefPeriod)
	}
	if p.BaseCurrency != "iso4217:EUR" {
		t.Errorf("BaseCurrency = %q, want iso4217:EUR", p.BaseCurrency)
	}
	if p.DecimalsInteger != 0 || p.DecimalsMonetary != 2 {
		t.Errorf("decimals = %d/%d, want 0/2", p.DecimalsInteger, p.DecimalsMonetary)
	}
}

func TestDefaultParametersUsesTodayWhenNoDateGiven(t *testing.T) {
	p := DefaultParameters("529900T8BM49AURSDO55")
	want := time.Now().UTC().Format("2006-01-02")
	if p.RefPeriod != want {
		t.Errorf("RefPeriod = %q, want today %q", p.RefPeriod, want)
	}
}

func TestSerializeParameters(t *testing.T) {
	got := SerializeParameters(validParams())
	want := "name,value\n" +
		"entityID,rs:529900T8BM49AURSDO55\n" +
		"refPeriod,2024-12-31\n" +
		"baseCurrency,iso4217:EUR\n" +
		"decimalsInteger,0\n" +
		"decimalsMonetary,2\n"
	if got != want {
		t.Errorf("SerializeParameters = %q, want %q", got, want)
	}
	if n := strings.Count(got, "\n"); n != 6 {
		t.Errorf("line count = %d, want 6", n)
	}
}

func TestParseParametersRoundTrip(t *testing.T) {
	in := validParams()
	out := ParseParameters(SerializeParameters(in))
	if out != in {
		t.Errorf("round trip = %+v, want %+v", out, in)
	}
}

func TestParseParametersIgnoresUnknownNames(t *testing.T) {
	out := ParseParameters("name,value\nentityID,rs:X\nmystery,42\n")
	if out.EntityID != "rs:X" {
		t.Errorf("EntityID = %q, want rs:X", out.EntityID)
	}
	if out.DecimalsMonetary != 0 {
		t.Errorf("DecimalsMonetary = %d, want zero value", out.DecimalsMonetary)
	}
}

func TestValidateParameters(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(*PackageParameters)
		wantErrors int
	}{
		{"valid", func(p *PackageParameters) {}, 0},
		{"missing entity", func(p *PackageParameters) { p.EntityID = "" }, 1},
		{"entity without prefix", func(p *PackageParameters) { p.EntityID = "529900T8BM49AURSDO55" }, 1},
		{"entity too short", func(p *PackageParameters) { p.EntityID = "rs:ABC123" }, 1},
		{"entity lowercase", func(p *PackageParameters) { p.EntityID = "rs:529900t8bm49aursdo55" }, 1},
		{"bad period format", func(p *PackageParameters) { p.RefPeriod = "31-12-2024" }, 1},
		{"missing period", func(p *PackageParameters) { p.RefPeriod = "" }, 1},
		{"currency without scheme", func(p *PackageParameters) { p.BaseCurrency = "EUR" }, 1},
		{"all three malformed", func(p *PackageParameters) {
			p.EntityID = "bogus"
			p.RefPeriod = "dec 2024"
			p.BaseCurrency = "euro"
		}, 3},
		{"completely empty", func(p *PackageParameters) { *p = PackageParameters{} }, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validParams()
			tt.mutate(&p)
			result := ValidateParameters(p)
			if got := len(result.Errors); got != tt.wantErrors {
				t.Errorf("errors = %d (%v), want %d", got, result.Errors, tt.wantErrors)
			}
			if result.Valid != (tt.wantErrors == 0) {
				t.Errorf("Valid = %v with %d errors", result.Valid, tt.wantErrors)
			}
		})
	}
}

func TestValidateParametersErrorsAreDistinct(t *testing.T) {
	result := ValidateParameters(PackageParameters{
		EntityID:     "bogus",
		RefPeriod:    "soon",
		BaseCurrency: "euro",
	})
	seen := map[string]bool{}
	for _, e := range result.Errors {
		msg := e.Error()
		if seen[msg] {
			t.Errorf("duplicate error message %q", msg)
		}
		seen[msg] = true
	}
	if len(seen) != 3 {
		t.Errorf("distinct messages = %d, want 3", len(seen))
	}
}

func TestRefPeriodFormatOnlyNotCalendar(t *testing.T) {
	p := validParams()
	p.RefPeriod = "2024-13-99"
	if result := ValidateParameters(p); !result.Valid {
		t.Errorf("format-only check should accept %q, got %v", p.RefPeriod, result.Errors)
	}
}
