package filing

import (
	"strings"
	"testing"
)

func TestDeriveFilingIndicators(t *testing.T) {
	data := map[TemplateID][]Row{
		TemplateB0101: {{"c0010": Str("x")}},
		TemplateB0501: {}, // present but empty counts as not reported
	}

	indicators := DeriveFilingIndicators(data)
	if len(indicators) != TemplateCount() {
		t.Fatalf("indicators = %d, want %d", len(indicators), TemplateCount())
	}
	for i, ind := range indicators {
		if ind.TemplateID != Templates[i].ID {
			t.Errorf("indicator %d = %s, want registry order %s", i, ind.TemplateID, Templates[i].ID)
		}
		want := ind.TemplateID == TemplateB0101
		if ind.Reported != want {
			t.Errorf("%s reported = %v, want %v", ind.TemplateID, ind.Reported, want)
		}
	}
}

func TestDeriveFilingIndicatorsEmptyInput(t *testing.T) {
	indicators := DeriveFilingIndicators(nil)
	if len(indicators) != TemplateCount() {
		t.Fatalf("indicators = %d, want %d", len(indicators), TemplateCount())
	}
	for _, ind := range indicators {
		if ind.Reported {
			t.Errorf("%s reported = true with no data", ind.TemplateID)
		}
	}
}

func TestRenderFilingIndicators(t *testing.T) {
	text := RenderFilingIndicators(DeriveFilingIndicators(map[TemplateID][]Row{
		TemplateB0101: {{"c0010": Str("x")}},
	}))

	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	if len(lines) != TemplateCount()+1 {
		t.Fatalf("lines = %d, want %d", len(lines), TemplateCount()+1)
	}
	if lines[0] != "templateID,reported" {
		t.Errorf("header = %q, want templateID,reported", lines[0])
	}
	if lines[1] != "B_01.01,true" {
		t.Errorf("first row = %q, want B_01.01,true", lines[1])
	}
	if lines[2] != "B_01.02,false" {
		t.Errorf("second row = %q, want B_01.02,false", lines[2])
	}
	if !strings.HasSuffix(text, "\n") || strings.HasSuffix(text, "\n\n") {
		t.Errorf("document must end with exactly one newline, got %q", text[len(text)-2:])
	}
}
