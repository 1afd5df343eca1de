package pipeline

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// nonAlnum matches every maximal run of characters outside [0-9a-z] in an
// already-lowercased column name.
var nonAlnum = regexp.MustCompile(`[^0-9a-z]+`)

// ageCodes maps the dataset's single-character age codes to readable
// brackets. The empty string is an explicit member so blank cells land on
// "unknown" rather than passing through.
var ageCodes = map[string]string{
	"0": "<=18",
	"1": "19-25",
	"2": "26-35",
	"3": "36-45",
	"4": "46-55",
	"5": "56-65",
	"6": "65+",
	"U": "unknown",
	"":  "unknown",
}

var genderCodes = map[string]string{
	"M": "male",
	"F": "female",
	"E": "enterprise",
	"U": "unknown",
	"":  "unknown",
}

// CanonicalName canonicalizes a raw column name: trim, lowercase, collapse
// every run of non-alphanumeric characters to a single underscore, then trim
// leading/trailing underscores. Applying it to an already-canonical name is
// a no-op.
func CanonicalName(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = nonAlnum.ReplaceAllString(s, "_")
	return strings.Trim(s, "_")
}

// Normalize rewrites the table in place into the canonical schema: column
// names are canonicalized, textual cells are trimmed and unquoted, and the
// known fields are coerced to their documented types. Columns outside the
// canonical field set are kept untouched apart from name and quote cleanup.
//
// Normalization is best-effort: a malformed cell degrades to the field's
// default value, never to an error.
func Normalize(t *Table) {
	for i := range t.Columns {
		col := &t.Columns[i]
		col.Name = CanonicalName(col.Name)

		// All CSV cells arrive as strings; clean their boundaries before
		// any field-specific coercion looks at them.
		for j, v := range col.Values {
			if s, ok := v.(string); ok {
				col.Values[j] = stripQuotes(s)
			}
		}

		switch col.Name {
		case "step", "fraud":
			coerceInt(col)
		case "amount":
			coerceFloat(col)
		case "age":
			mapCodes(col, ageCodes)
		case "gender":
			mapCodes(col, genderCodes)
		case "category":
			stripCategoryPrefix(col)
		case "zipcodeori", "zipmerchant":
			coerceString(col)
		}
	}
}

// stripQuotes trims surrounding whitespace, then removes one leading and one
// trailing quote character (single or double) if present. Interior quotes
// are untouched.
func stripQuotes(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 0 && (s[0] == '\'' || s[0] == '"') {
		s = s[1:]
	}
	if len(s) > 0 && (s[len(s)-1] == '\'' || s[len(s)-1] == '"') {
		s = s[:len(s)-1]
	}
	return s
}

func coerceInt(col *Column) {
	for j, v := range col.Values {
		f, ok := toNumber(v)
		if !ok {
			col.Values[j] = 0
			continue
		}
		col.Values[j] = int(f)
	}
}

func coerceFloat(col *Column) {
	for j, v := range col.Values {
		f, ok := toNumber(v)
		if !ok {
			col.Values[j] = 0.0
			continue
		}
		col.Values[j] = f
	}
}

func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// mapCodes rewrites coded cells through the given code table. Values that
// are already one of the table's readable labels pass through; anything else
// falls back to "unknown".
func mapCodes(col *Column, codes map[string]string) {
	labels := make(map[string]bool, len(codes))
	for _, label := range codes {
		labels[label] = true
	}
	for j, v := range col.Values {
		s, ok := v.(string)
		if !ok {
			s = fmt.Sprintf("%v", v)
		}
		if mapped, ok := codes[s]; ok {
			col.Values[j] = mapped
		} else if labels[s] {
			col.Values[j] = s
		} else {
			col.Values[j] = "unknown"
		}
	}
}

func stripCategoryPrefix(col *Column) {
	for j, v := range col.Values {
		if s, ok := v.(string); ok {
			col.Values[j] = strings.TrimPrefix(s, "es_")
		}
	}
}

// coerceString forces every cell to a string representation. Numeric zips
// keep their numeric rendering; leading zeros survive only when the source
// was textual to begin with.
func coerceString(col *Column) {
	for j, v := range col.Values {
		if _, ok := v.(string); ok {
			continue
		}
		col.Values[j] = fmt.Sprintf("%v", v)
	}
}
