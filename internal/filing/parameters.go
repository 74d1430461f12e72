package filing

// parameters.go builds, validates, and serializes the parameters record that
// governs a filing: the reporting entity, the reference period, the base
// currency, and the declared numeric precision.
//
// Validation accumulates every violation instead of stopping at the first so
// the API can show a complete problem list in one round trip. Serialization
// is a fixed six-line name,value CSV; the wire order of the fields is part of
// the regulator's contract and must not change.

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// entityPrefix is the scheme prefix the regulator requires on entity
// identifiers; the remainder must be a bare 20-character legal identifier.
const entityPrefix = "rs:"

// currencyPrefix is the required scheme prefix on the base currency.
const currencyPrefix = "iso4217:"

// PackageParameters is the filing's identity and numeric-formatting
// contract. Construct once per export, never mutate afterward.
type PackageParameters struct {
	EntityID         string `json:"entityId"`
	RefPeriod        string `json:"refPeriod"`
	BaseCurrency     string `json:"baseCurrency"`
	DecimalsInteger  int    `json:"decimalsInteger"`
	DecimalsMonetary int    `json:"decimalsMonetary"`
}

// DefaultParameters builds a parameters record from a bare legal identifier.
// The reference period defaults to today's UTC date when no explicit date is
// given; currency and precision take the regulator's standard defaults.
// Callers may override any field before validating.
func DefaultParameters(legalID string, refDate ...time.Time) PackageParameters {
	period := time.Now().UTC()
	if len(refDate) > 0 {
		period = refDate[0].UTC()
	}
	return PackageParameters{
		EntityID:         entityPrefix + legalID,
		RefPeriod:        period.Format("2006-01-02"),
		BaseCurrency:     currencyPrefix + "EUR",
		DecimalsInteger:  0,
		DecimalsMonetary: 2,
	}
}

// LegalID returns the entity identifier with the scheme prefix stripped.
func (p PackageParameters) LegalID() string {
	return strings.TrimPrefix(p.EntityID, entityPrefix)
}

// SerializeParameters emits the parameters.csv content: a name,value header
// and one line per field, in the fixed wire order. Validated parameter
// values never contain CSV-special characters, so the codec's quoting rule
// leaves every line bare.
func SerializeParameters(p PackageParameters) string {
	columns := []string{"name", "value"}
	rows := []Row{
		{"name": Str("entityID"), "value": Str(p.EntityID)},
		{"name": Str("refPeriod"), "value": Str(p.RefPeriod)},
		{"name": Str("baseCurrency"), "value": Str(p.BaseCurrency)},
		{"name": Str("decimalsInteger"), "value": Number(float64(p.DecimalsInteger))},
		{"name": Str("decimalsMonetary"), "value": Number(float64(p.DecimalsMonetary))},
	}
	return RenderCSV(columns, rows, RenderOptions{})
}

// ParseParameters decodes parameters.csv text back into a record. Unknown
// names are ignored; fields absent from the input keep their zero value.
func ParseParameters(text string) PackageParameters {
	var p PackageParameters
	for _, row := range ParseCSV(text) {
		name := row["name"].Format()
		value := row["value"].Format()
		switch name {
		case "entityID":
			p.EntityID = value
		case "refPeriod":
			p.RefPeriod = value
		case "baseCurrency":
			p.BaseCurrency = value
		case "decimalsInteger":
			if n, err := strconv.Atoi(value); err == nil {
				p.DecimalsInteger = n
			}
		case "decimalsMonetary":
			if n, err := strconv.Atoi(value); err == nil {
				p.DecimalsMonetary = n
			}
		}
	}
	return p
}

// ValidationError represents a single parameter violation.
type ValidationError struct {
	Field   string `json:"field"`
	Value   string `json:"value,omitempty"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// ValidationResult contains the result of validating a parameters record.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// ValidateParameters checks a parameters record against the regulator's
// format rules and returns every violation. It is pure and never fails;
// a completely empty record yields one error per required field.
func ValidateParameters(p PackageParameters) ValidationResult {
	result := ValidationResult{Valid: true}
	fail := func(field, value, message string) {
		result.Valid = false
		result.Errors = append(result.Errors, ValidationError{
			Field:   field,
			Value:   value,
			Message: message,
		})
	}

	switch {
	case p.EntityID == "":
		fail("entityId", "", "required")
	case !strings.HasPrefix(p.EntityID, entityPrefix):
		fail("entityId", p.EntityID, "must start with \"rs:\"")
	case !isLegalID(p.EntityID[len(entityPrefix):]):
		fail("entityId", p.EntityID, "identifier after \"rs:\" must be exactly 20 characters A-Z or 0-9")
	}

	switch {
	case p.RefPeriod == "":
		fail("refPeriod", "", "required")
	case !isISODate(p.RefPeriod):
		fail("refPeriod", p.RefPeriod, "must match YYYY-MM-DD")
	}

	switch {
	case p.BaseCurrency == "":
		fail("baseCurrency", "", "required")
	case !strings.HasPrefix(p.BaseCurrency, currencyPrefix):
		fail("baseCurrency", p.BaseCurrency, "must start with \"iso4217:\"")
	}

	return result
}

// isLegalID reports whether s is exactly 20 uppercase alphanumerics.
func isLegalID(s string) bool {
	if len(s) != 20 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}

// isISODate checks the YYYY-MM-DD shape only, not calendar validity.
func isISODate(s string) bool {
	if len(s) != 10 || s[4] != '-' || s[7] != '-' {
		return false
	}
	for _, i := range []int{0, 1, 2, 3, 5, 6, 8, 9} {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
