package filing

// csv.go is the CSV codec for report package artifacts.
//
// The regulator's ingestion system is byte-exact about the CSV it accepts,
// so encoding is hand-rolled rather than delegated to encoding/csv: the
// stdlib writer quotes fields with leading whitespace and offers no control
// over the trailing-newline contract. The rules here are deliberately
// minimal RFC-4180: quote a field if and only if it contains a comma, a
// double quote, or a line break; double internal quotes; terminate the
// document with exactly one newline whenever any line was emitted.

import "strings"

// RenderOptions controls CSV encoding.
type RenderOptions struct {
	// SuppressHeader omits the header line. Used for fragments embedded in
	// other documents; package artifacts always keep the header.
	SuppressHeader bool
}

// RenderCSV encodes rows against an ordered column list.
//
// A row missing a key listed in columns renders an empty cell, never an
// error. With no columns or no rows the output is just the header line
// (or the empty string when the header is suppressed).
func RenderCSV(columns []string, rows []Row, opts RenderOptions) string {
	var b strings.Builder

	lines := 0
	if !opts.SuppressHeader {
		for i, col := range columns {
			if i > 0 {
				b.WriteByte(',')
			}
			writeField(&b, col)
		}
		lines++
		b.WriteByte('\n')
	}

	if len(columns) > 0 {
		for _, row := range rows {
			for i, col := range columns {
				if i > 0 {
					b.WriteByte(',')
				}
				writeField(&b, row[col].Format())
			}
			lines++
			b.WriteByte('\n')
		}
	}

	if lines == 0 {
		return ""
	}
	return b.String()
}

// writeField emits one cell, quoting only when the content demands it.
func writeField(b *strings.Builder, field string) {
	if !strings.ContainsAny(field, ",\"\n\r") {
		b.WriteString(field)
		return
	}
	b.WriteByte('"')
	for i := 0; i < len(field); i++ {
		if field[i] == '"' {
			b.WriteByte('"')
		}
		b.WriteByte(field[i])
	}
	b.WriteByte('"')
}

// ParseCSV decodes CSV text back into rows.
//
// The first non-empty record is the header; every later record is decoded
// positionally against it with type inference (see inferValue). Input with
// no data records decodes to an empty row slice. Inference is lossy by
// design: a cell encoded from the string "42" comes back as the number 42.
func ParseCSV(text string) []Row {
	records := tokenize(text)
	if len(records) < 2 {
		return nil
	}

	header := records[0]
	rows := make([]Row, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(Row, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = inferValue(record[i])
			} else {
				row[col] = Null()
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// tokenize splits text into records with a quote-aware scanner. Inside a
// quoted region a doubled quote is a literal quote and newlines are field
// content; outside, a comma ends the field and a newline ends the record.
// Blank records (empty lines) are dropped.
func tokenize(text string) [][]string {
	var (
		records  [][]string
		fields   []string
		field    strings.Builder
		inQuotes bool
		sawAny   bool
	)

	endField := func() {
		fields = append(fields, field.String())
		field.Reset()
		sawAny = false
	}
	endRecord := func() {
		if sawAny || field.Len() > 0 || len(fields) > 0 {
			endField()
			records = append(records, fields)
			fields = nil
		}
	}

	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case c == '"':
			if inQuotes && i+1 < len(text) && text[i+1] == '"' {
				field.WriteByte('"')
				i++
			} else {
				inQuotes = !inQuotes
			}
			sawAny = true
		case c == ',' && !inQuotes:
			endField()
			sawAny = true
		case (c == '\n' || c == '\r') && !inQuotes:
			if c == '\r' && i+1 < len(text) && text[i+1] == '\n' {
				i++
			}
			endRecord()
		default:
			field.WriteByte(c)
			sawAny = true
		}
	}
	endRecord()

	return records
}
