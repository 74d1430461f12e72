package coverage

import (
	"math"
	"strings"
	"testing"
)

func ctrl(id, category string) Control {
	return Control{ControlID: id, TSCCategory: category}
}

func mappingFor(t *testing.T, mappings []Mapping, article string) Mapping {
	t.Helper()
	for _, m := range mappings {
		if m.Article == article {
			return m
		}
	}
	t.Fatalf("no mapping for %s", article)
	return Mapping{}
}

func TestMapControlsNoControls(t *testing.T) {
	mappings := MapControls(nil)

	if len(mappings) != len(Articles) {
		t.Fatalf("len(mappings) = %d, want %d", len(mappings), len(Articles))
	}
	for _, m := range mappings {
		if m.Coverage != LevelNone {
			t.Errorf("%s: Coverage = %s, want none", m.Article, m.Coverage)
		}
		if m.Confidence != 0 {
			t.Errorf("%s: Confidence = %v, want 0", m.Article, m.Confidence)
		}
	}
}

func TestMapControlsCoverageLevels(t *testing.T) {
	tests := []struct {
		name           string
		controls       []Control
		article        string
		wantLevel      Level
		wantConfidence float64
	}{
		{
			// Article 28 requires only CC9; two controls is twice the requirement.
			name:           "double the required controls",
			controls:       []Control{ctrl("CC9.1", "CC9"), ctrl("CC9.2", "CC9")},
			article:        "Article 28",
			wantLevel:      LevelFull,
			wantConfidence: 0.95,
		},
		{
			name:           "exactly the required controls",
			controls:       []Control{ctrl("CC9.1", "CC9")},
			article:        "Article 28",
			wantLevel:      LevelFull,
			wantConfidence: 0.85,
		},
		{
			// Article 5 requires CC1, CC3, CC4 and CC9; two matches out of four.
			name:           "half the required controls",
			controls:       []Control{ctrl("CC1.1", "CC1"), ctrl("CC1.2", "CC1")},
			article:        "Article 5",
			wantLevel:      LevelPartial,
			wantConfidence: 0.725,
		},
		{
			name:           "no matching category",
			controls:       []Control{ctrl("P1.1", "P")},
			article:        "Article 28",
			wantLevel:      LevelNone,
			wantConfidence: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := mappingFor(t, MapControls(tt.controls), tt.article)
			if m.Coverage != tt.wantLevel {
				t.Errorf("Coverage = %s, want %s", m.Coverage, tt.wantLevel)
			}
			if math.Abs(m.Confidence-tt.wantConfidence) > 0.001 {
				t.Errorf("Confidence = %v, want %v", m.Confidence, tt.wantConfidence)
			}
		})
	}
}

func TestMapControlsNormalizesCategory(t *testing.T) {
	m := mappingFor(t, MapControls([]Control{ctrl("CC9.1", " cc9 ")}), "Article 28")
	if m.Coverage != LevelFull {
		t.Errorf("Coverage = %s, want full for lowercase category", m.Coverage)
	}
	if m.BestControlID != "CC9.1" {
		t.Errorf("BestControlID = %q, want CC9.1", m.BestControlID)
	}
}

func TestScoreEmpty(t *testing.T) {
	result := Score(nil)

	if result.OverallScore != 0 {
		t.Errorf("OverallScore = %v, want 0", result.OverallScore)
	}
	if result.ArticlesCovered != 0 {
		t.Errorf("ArticlesCovered = %d, want 0", result.ArticlesCovered)
	}
	if result.ArticlesTotal != len(Articles) {
		t.Errorf("ArticlesTotal = %d, want %d", result.ArticlesTotal, len(Articles))
	}
}

func TestScoreWeightedAverage(t *testing.T) {
	mappings := []Mapping{
		{Article: "Article 28", Coverage: LevelFull, Confidence: 1.0},    // weight 1.0
		{Article: "Article 45", Coverage: LevelPartial, Confidence: 0.8}, // weight 0.5
		{Article: "Article 18", Coverage: LevelNone},                     // weight 0.8
	}

	result := Score(mappings)

	// (1.0*1.0*1.0 + 0.5*0.5*0.8 + 0) / (1.0 + 0.5 + 0.8) = 1.2 / 2.3
	want := math.Round(1.2 / 2.3 * 1000) / 1000
	if result.OverallScore != want {
		t.Errorf("OverallScore = %v, want %v", result.OverallScore, want)
	}
	if result.ArticlesCovered != 2 {
		t.Errorf("ArticlesCovered = %d, want 2", result.ArticlesCovered)
	}
	if len(result.Articles) != 3 {
		t.Fatalf("len(Articles) = %d, want 3", len(result.Articles))
	}
	if result.Articles[0].Title != "General principles for third-party risk" {
		t.Errorf("Title = %q, want article title filled in", result.Articles[0].Title)
	}
}

func TestGapsSortedByWeight(t *testing.T) {
	result, gaps := Assess(nil)

	if result.OverallScore != 0 {
		t.Errorf("OverallScore = %v, want 0", result.OverallScore)
	}
	if len(gaps) != len(Articles) {
		t.Fatalf("len(gaps) = %d, want %d", len(gaps), len(Articles))
	}
	for i := 1; i < len(gaps); i++ {
		if gaps[i].Weight > gaps[i-1].Weight {
			t.Fatalf("gaps out of order at %d: %v after %v", i, gaps[i].Weight, gaps[i-1].Weight)
		}
	}
	if gaps[len(gaps)-1].Article != "Article 45" {
		t.Errorf("lightest gap = %s, want Article 45", gaps[len(gaps)-1].Article)
	}
}

func TestGapsExcludeFullCoverage(t *testing.T) {
	// Plenty of CC9 controls cover the single-category third-party articles.
	controls := []Control{
		ctrl("CC9.1", "CC9"), ctrl("CC9.2", "CC9"), ctrl("CC9.3", "CC9"),
	}
	result, gaps := Assess(controls)

	for _, g := range gaps {
		if g.Article == "Article 28" || g.Article == "Article 30" {
			t.Errorf("%s fully covered but listed as gap", g.Article)
		}
	}
	if result.ArticlesCovered == 0 {
		t.Error("ArticlesCovered = 0, want some covered articles")
	}
}

func TestGapRemediationText(t *testing.T) {
	_, gaps := Assess(nil)

	for _, g := range gaps {
		if g.Article != "Article 8" {
			continue
		}
		if !strings.Contains(g.Remediation, "CC5, CC6, CC7, C") {
			t.Errorf("Remediation = %q, want required categories listed", g.Remediation)
		}
		if !strings.Contains(g.Remediation, "Article 8") {
			t.Errorf("Remediation = %q, want article named", g.Remediation)
		}
		return
	}
	t.Fatal("Article 8 missing from gaps")
}

func TestAssessBroadControlSet(t *testing.T) {
	var controls []Control
	for _, cat := range []string{"CC1", "CC2", "CC3", "CC4", "CC5", "CC6", "CC7", "CC8", "CC9", "A", "C"} {
		controls = append(controls,
			ctrl(cat+".1", cat), ctrl(cat+".2", cat), ctrl(cat+".3", cat))
	}

	result, gaps := Assess(controls)

	if result.ArticlesCovered != len(Articles) {
		t.Errorf("ArticlesCovered = %d, want %d", result.ArticlesCovered, len(Articles))
	}
	if result.OverallScore < 0.9 {
		t.Errorf("OverallScore = %v, want >= 0.9 for broad control set", result.OverallScore)
	}
	if len(gaps) != 0 {
		t.Errorf("gaps = %d, want none", len(gaps))
	}
}
