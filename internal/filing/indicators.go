package filing

// indicators.go derives the filing-indicator table: one row per registry
// template declaring whether the filing carries data for it.

// FilingIndicator is one row of FilingIndicators.csv.
type FilingIndicator struct {
	TemplateID TemplateID `json:"templateId"`
	Reported   bool       `json:"reported"`
}

// DeriveFilingIndicators computes the indicator for every registry template,
// in registry order, regardless of which subset of templates the caller
// populated. A template counts as reported only when its dataset exists and
// has at least one row.
func DeriveFilingIndicators(data map[TemplateID][]Row) []FilingIndicator {
	out := make([]FilingIndicator, 0, len(Templates))
	for _, t := range Templates {
		out = append(out, FilingIndicator{
			TemplateID: t.ID,
			Reported:   len(data[t.ID]) > 0,
		})
	}
	return out
}

// RenderFilingIndicators serializes the indicator table as the two-column
// templateID,reported CSV the package carries.
func RenderFilingIndicators(indicators []FilingIndicator) string {
	columns := []string{"templateID", "reported"}
	rows := make([]Row, 0, len(indicators))
	for _, ind := range indicators {
		rows = append(rows, Row{
			"templateID": Str(string(ind.TemplateID)),
			"reported":   Bool(ind.Reported),
		})
	}
	return RenderCSV(columns, rows, RenderOptions{})
}
