// Package coverage scores SOC 2 control sets against the DORA articles
// relevant to ICT risk management. Each article maps to the Trust Services
// Criteria categories that evidence it; the score weighs articles by their
// regulatory importance.
package coverage

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Control is one extracted SOC 2 control with its TSC category.
type Control struct {
	ControlID   string `json:"controlId"`
	TSCCategory string `json:"tscCategory"`
	Description string `json:"description,omitempty"`
}

// Level classifies how well an article is evidenced.
type Level string

const (
	LevelFull    Level = "full"
	LevelPartial Level = "partial"
	LevelNone    Level = "none"
)

// Article describes one DORA article and the TSC categories that map to it.
type Article struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Categories []string `json:"categories"`
	Weight     float64  `json:"weight"`
	Summary    string   `json:"summary"`
}

// Articles lists the mapped DORA articles in chapter order.
var Articles = []Article{
	// Chapter II, ICT risk management
	{ID: "Article 5", Title: "ICT risk management framework", Categories: []string{"CC1", "CC3", "CC4", "CC9"}, Weight: 1.0, Summary: "Governance and accountability for ICT risk management"},
	{ID: "Article 6", Title: "ICT systems, protocols and tools", Categories: []string{"CC6", "CC7", "CC8", "A"}, Weight: 1.0, Summary: "ICT systems resilience and protection"},
	{ID: "Article 7", Title: "Identification", Categories: []string{"CC3", "CC6"}, Weight: 0.8, Summary: "Identification of ICT risks and business functions"},
	{ID: "Article 8", Title: "Protection and prevention", Categories: []string{"CC5", "CC6", "CC7", "C"}, Weight: 1.0, Summary: "ICT security policies and access controls"},
	{ID: "Article 9", Title: "Detection", Categories: []string{"CC7", "CC4"}, Weight: 0.8, Summary: "Detection of anomalous activities and incidents"},
	{ID: "Article 10", Title: "Response and recovery", Categories: []string{"CC7", "CC9", "A"}, Weight: 1.0, Summary: "Incident response and recovery procedures"},
	{ID: "Article 11", Title: "Backup policies and procedures", Categories: []string{"A", "CC7", "CC9"}, Weight: 0.9, Summary: "Data backup and restoration"},
	{ID: "Article 12", Title: "Learning and evolving", Categories: []string{"CC4", "CC3"}, Weight: 0.6, Summary: "Lessons learned and continuous improvement"},
	{ID: "Article 13", Title: "Communication", Categories: []string{"CC2", "CC7"}, Weight: 0.7, Summary: "Crisis communication procedures"},

	// Chapter III, ICT incident reporting
	{ID: "Article 17", Title: "ICT-related incident management process", Categories: []string{"CC7", "CC2"}, Weight: 1.0, Summary: "Incident classification and management"},
	{ID: "Article 18", Title: "Classification of ICT-related incidents", Categories: []string{"CC7"}, Weight: 0.8, Summary: "Incident classification criteria"},
	{ID: "Article 19", Title: "Reporting of major ICT-related incidents", Categories: []string{"CC7", "CC2"}, Weight: 1.0, Summary: "Regulatory incident reporting"},

	// Chapter IV, resilience testing
	{ID: "Article 24", Title: "General requirements for testing", Categories: []string{"CC4", "CC7", "A"}, Weight: 0.9, Summary: "Testing program requirements"},
	{ID: "Article 25", Title: "Testing of ICT tools and systems", Categories: []string{"CC7", "CC8", "A"}, Weight: 0.8, Summary: "Vulnerability assessments and testing"},

	// Chapter V, third-party risk
	{ID: "Article 28", Title: "General principles for third-party risk", Categories: []string{"CC9"}, Weight: 1.0, Summary: "Third-party ICT risk management strategy"},
	{ID: "Article 29", Title: "Preliminary assessment of ICT concentration risk", Categories: []string{"CC3", "CC9"}, Weight: 0.8, Summary: "Concentration risk assessment"},
	{ID: "Article 30", Title: "Key contractual provisions", Categories: []string{"CC9"}, Weight: 0.9, Summary: "Contract requirements for ICT services"},

	// Chapter VI, information sharing
	{ID: "Article 45", Title: "Information sharing arrangements", Categories: []string{"CC2", "CC7"}, Weight: 0.5, Summary: "Threat intelligence sharing"},
}

// ArticleByID returns the registered article, if any.
func ArticleByID(id string) (Article, bool) {
	for _, a := range Articles {
		if a.ID == id {
			return a, true
		}
	}
	return Article{}, false
}

// Mapping links one DORA article to the controls that evidence it.
type Mapping struct {
	Article       string  `json:"article"`
	Coverage      Level   `json:"coverage"`
	Confidence    float64 `json:"confidence"`
	BestControlID string  `json:"bestControlId,omitempty"`
	ControlCount  int     `json:"controlCount"`
}

// MapControls maps controls to every registered article, in article order.
//
// Coverage is a count heuristic over the article's TSC categories:
// at least two matching controls per category is full with high confidence,
// at least one per category is full, fewer is partial with confidence
// scaled by the match ratio, and zero is none.
func MapControls(controls []Control) []Mapping {
	byCategory := make(map[string][]Control)
	for _, c := range controls {
		cat := strings.ToUpper(strings.TrimSpace(c.TSCCategory))
		byCategory[cat] = append(byCategory[cat], c)
	}

	mappings := make([]Mapping, 0, len(Articles))
	for _, a := range Articles {
		var matched []Control
		for _, cat := range a.Categories {
			matched = append(matched, byCategory[cat]...)
		}

		m := Mapping{Article: a.ID, ControlCount: len(matched)}
		required := len(a.Categories)
		switch {
		case len(matched) == 0:
			m.Coverage = LevelNone
		case len(matched) >= required*2:
			m.Coverage = LevelFull
			m.Confidence = 0.95
			m.BestControlID = matched[0].ControlID
		case len(matched) >= required:
			m.Coverage = LevelFull
			m.Confidence = 0.85
			m.BestControlID = matched[0].ControlID
		default:
			m.Coverage = LevelPartial
			m.Confidence = round3(0.6 + float64(len(matched))/float64(required)*0.25)
			m.BestControlID = matched[0].ControlID
		}
		mappings = append(mappings, m)
	}
	return mappings
}

// ArticleCoverage is the per-article detail inside a Result.
type ArticleCoverage struct {
	Article       string  `json:"article"`
	Title         string  `json:"title"`
	Coverage      Level   `json:"coverage"`
	Confidence    float64 `json:"confidence"`
	BestControlID string  `json:"bestControlId,omitempty"`
	Weight        float64 `json:"weight"`
}

// Result is the overall DORA coverage for one control set.
type Result struct {
	OverallScore    float64           `json:"overallScore"`
	ArticlesCovered int               `json:"articlesCovered"`
	ArticlesTotal   int               `json:"articlesTotal"`
	Articles        []ArticleCoverage `json:"articles"`
}

// Score aggregates mappings into an overall weighted coverage score.
// Full coverage counts 1.0, partial 0.5, none 0.0, each scaled by the
// article weight and the mapping confidence. The overall score is rounded
// to three decimals.
func Score(mappings []Mapping) Result {
	result := Result{ArticlesTotal: len(Articles)}
	if len(mappings) == 0 {
		return result
	}

	var weighted, totalWeight float64
	for _, m := range mappings {
		a, ok := ArticleByID(m.Article)
		if !ok {
			a.Weight = 1.0
		}

		var levelScore float64
		switch m.Coverage {
		case LevelFull:
			levelScore = 1.0
		case LevelPartial:
			levelScore = 0.5
		}

		weighted += levelScore * a.Weight * m.Confidence
		totalWeight += a.Weight

		if m.Coverage == LevelFull || m.Coverage == LevelPartial {
			result.ArticlesCovered++
		}

		result.Articles = append(result.Articles, ArticleCoverage{
			Article:       m.Article,
			Title:         a.Title,
			Coverage:      m.Coverage,
			Confidence:    m.Confidence,
			BestControlID: m.BestControlID,
			Weight:        a.Weight,
		})
	}

	if totalWeight > 0 {
		result.OverallScore = round3(weighted / totalWeight)
	}
	return result
}

// Gap describes an article with missing or partial coverage.
type Gap struct {
	Article     string   `json:"article"`
	Title       string   `json:"title"`
	Summary     string   `json:"summary"`
	Coverage    Level    `json:"coverage"`
	Categories  []string `json:"requiredCategories"`
	Weight      float64  `json:"weight"`
	Remediation string   `json:"remediation"`
}

// Gaps lists the articles a result leaves uncovered or only partially
// covered, heaviest weight first. Articles of equal weight keep their
// chapter order.
func Gaps(result Result) []Gap {
	var gaps []Gap
	for _, ac := range result.Articles {
		if ac.Coverage == LevelFull {
			continue
		}
		a, ok := ArticleByID(ac.Article)
		if !ok {
			continue
		}
		gaps = append(gaps, Gap{
			Article:    a.ID,
			Title:      a.Title,
			Summary:    a.Summary,
			Coverage:   ac.Coverage,
			Categories: a.Categories,
			Weight:     a.Weight,
			Remediation: fmt.Sprintf("Implement controls addressing %s to meet %s requirements.",
				strings.Join(a.Categories, ", "), a.ID),
		})
	}

	sort.SliceStable(gaps, func(i, j int) bool {
		return gaps[i].Weight > gaps[j].Weight
	})
	return gaps
}

// Assess maps the controls, scores the result, and returns both the score
// and the gap list.
func Assess(controls []Control) (Result, []Gap) {
	result := Score(MapControls(controls))
	return result, Gaps(result)
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
