package filing

// templates.go is the Register of Information template registry.
//
// The 15 templates and their column orders are fixed by the reporting
// framework, so unlike a user-extensible table registry this one is a
// read-only constant table: no registration, no locking, iteration order is
// the declaration order below and is part of the package wire contract
// (FilingIndicators.csv rows and archive entries follow it).

import "strings"

// TemplateID identifies one of the 15 fixed report templates.
type TemplateID string

const (
	TemplateB0101 TemplateID = "B_01.01"
	TemplateB0102 TemplateID = "B_01.02"
	TemplateB0103 TemplateID = "B_01.03"
	TemplateB0201 TemplateID = "B_02.01"
	TemplateB0202 TemplateID = "B_02.02"
	TemplateB0203 TemplateID = "B_02.03"
	TemplateB0301 TemplateID = "B_03.01"
	TemplateB0302 TemplateID = "B_03.02"
	TemplateB0303 TemplateID = "B_03.03"
	TemplateB0401 TemplateID = "B_04.01"
	TemplateB0501 TemplateID = "B_05.01"
	TemplateB0502 TemplateID = "B_05.02"
	TemplateB0601 TemplateID = "B_06.01"
	TemplateB0701 TemplateID = "B_07.01"
	TemplateB9901 TemplateID = "B_99.01"
)

// FileName returns the in-package CSV file name for the template:
// the identifier lowercased with the dot separator preserved.
func (id TemplateID) FileName() string {
	return strings.ToLower(string(id)) + ".csv"
}

// Template describes one report template: its identifier, a display label,
// and the ordered column codes that define both the CSV header and the
// per-row value order.
type Template struct {
	ID      TemplateID
	Label   string
	Columns []string
}

// Templates is the registry, in filing order. Treat as read-only.
var Templates = []Template{
	{TemplateB0101, "Entity maintaining the register", cols(10, 60)},
	{TemplateB0102, "Entities in scope of consolidation", cols(10, 120)},
	{TemplateB0103, "Branches", cols(10, 40)},
	{TemplateB0201, "Contractual arrangements - general information", cols(10, 70)},
	{TemplateB0202, "Contractual arrangements - specific information", cols(10, 180)},
	{TemplateB0203, "Intra-group contractual arrangements", cols(10, 30)},
	{TemplateB0301, "Entities signing the contractual arrangements", cols(10, 30)},
	{TemplateB0302, "Providers signing the contractual arrangements", cols(10, 20)},
	{TemplateB0303, "Entities providing ICT services", cols(10, 20)},
	{TemplateB0401, "Entities making use of the ICT services", cols(10, 30)},
	{TemplateB0501, "ICT third-party service providers", cols(10, 110)},
	{TemplateB0502, "ICT service supply chains", cols(10, 50)},
	{TemplateB0601, "Functions identification", cols(10, 100)},
	{TemplateB0701, "Assessments of the ICT services", cols(10, 110)},
	{TemplateB9901, "Definitions", cols(10, 30)},
}

// cols builds the column-code sequence c0010..cNNNN in steps of 10.
func cols(from, to int) []string {
	out := make([]string, 0, (to-from)/10+1)
	for c := from; c <= to; c += 10 {
		out = append(out, "c"+pad4(c))
	}
	return out
}

func pad4(n int) string {
	s := "000" + itoa(n)
	return s[len(s)-4:]
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var b [8]byte
	i := len(b)
	for n > 0 {
		i--
		b[i] = byte('0' + n%10)
		n /= 10
	}
	return string(b[i:])
}

// TemplateByID looks up a template. The second return is false for
// identifiers outside the fixed set.
func TemplateByID(id TemplateID) (Template, bool) {
	for _, t := range Templates {
		if t.ID == id {
			return t, true
		}
	}
	return Template{}, false
}

// TemplateCount returns the number of registry templates (always 15).
func TemplateCount() int { return len(Templates) }

// ColumnOrder returns the ordered column codes for a template, or nil for
// an unknown identifier.
func ColumnOrder(id TemplateID) []string {
	t, ok := TemplateByID(id)
	if !ok {
		return nil
	}
	return t.Columns
}
