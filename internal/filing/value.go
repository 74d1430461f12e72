package filing

// value.go defines the typed cell value carried in template rows.
//
// Regulatory template data arrives as loosely typed JSON; internally every
// cell is one of five kinds (null, boolean, number, string, date) so that
// CSV formatting can dispatch without reflection. Rows never hold anything
// else: the decoder and the JSON unmarshaller both normalize into this set.

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// ValueKind identifies which variant a Value holds.
type ValueKind int

const (
	KindNull ValueKind = iota
	KindBool
	KindNumber
	KindString
	KindDate
)

// Value is a single cell value in a template row.
// The zero Value is the null value.
type Value struct {
	kind ValueKind
	b    bool
	n    float64
	s    string
	d    time.Time
}

// Row maps column names to cell values. Missing keys render as empty cells.
type Row map[string]Value

// Null returns the null value.
func Null() Value { return Value{} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number returns a numeric value.
func Number(n float64) Value { return Value{kind: KindNumber, n: n} }

// Str returns a string value.
func Str(s string) Value { return Value{kind: KindString, s: s} }

// Date returns a calendar-date value. Only the UTC date component is kept.
func Date(t time.Time) Value {
	return Value{kind: KindDate, d: t.UTC().Truncate(24 * time.Hour)}
}

// Kind returns the variant this value holds.
func (v Value) Kind() ValueKind { return v.kind }

// IsNull reports whether the value is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Format renders the value as a bare CSV cell, before any escaping:
//
//	null    -> ""
//	bool    -> "true" / "false"
//	number  -> canonical decimal (no thousands separators, no forced precision)
//	date    -> YYYY-MM-DD (UTC calendar date)
//	string  -> as-is
func (v Value) Format() string {
	switch v.kind {
	case KindNull:
		return ""
	case KindBool:
		if v.b {
			return "true"
		}
		return "false"
	case KindNumber:
		return strconv.FormatFloat(v.n, 'f', -1, 64)
	case KindDate:
		return v.d.UTC().Format("2006-01-02")
	default:
		return v.s
	}
}

// Equal reports whether two values hold the same variant and content.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindBool:
		return v.b == o.b
	case KindNumber:
		return v.n == o.n
	case KindString:
		return v.s == o.s
	case KindDate:
		return v.d.Equal(o.d)
	}
	return true
}

// MarshalJSON encodes the value for jsonb storage and API responses.
// Dates are encoded as their YYYY-MM-DD string form.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindBool:
		return json.Marshal(v.b)
	case KindNumber:
		return json.Marshal(v.n)
	default:
		return json.Marshal(v.Format())
	}
}

// UnmarshalJSON decodes a JSON scalar into a value. Strings matching
// YYYY-MM-DD become dates; arrays and objects are rejected since template
// cells are always scalar.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch x := raw.(type) {
	case nil:
		*v = Null()
	case bool:
		*v = Bool(x)
	case float64:
		*v = Number(x)
	case string:
		if t, err := time.Parse("2006-01-02", x); err == nil {
			*v = Date(t)
		} else {
			*v = Str(x)
		}
	default:
		return fmt.Errorf("cell value must be a scalar, got %T", raw)
	}
	return nil
}

// inferValue applies the decode type-inference heuristic: the literals
// true/false become booleans, the empty string becomes null, a string that
// parses fully as a number becomes a number, everything else stays a string.
//
// This is intentionally lossy relative to encoding (the string "true"
// round-trips as boolean true); downstream consumers depend on the current
// behavior, so it must not be made schema-aware.
func inferValue(field string) Value {
	switch field {
	case "":
		return Null()
	case "true":
		return Bool(true)
	case "false":
		return Bool(false)
	}
	if n, err := strconv.ParseFloat(field, 64); err == nil {
		return Number(n)
	}
	return Str(field)
}
