package mapping

import (
	"encoding/json"
	"fmt"
	"net/mail"
	"strconv"
	"strings"
	"time"
)

// ---------------------------------------------------------------------------
// Value coercion
//
// Coercion is deliberately lenient: a value that cannot be converted is
// left unmodified rather than failing the record. TypeCountry is the one
// coercion allowed to discard an otherwise-present value (unresolvable
// codes become nil).
// ---------------------------------------------------------------------------

// dateLayouts are tried in order by TypeDateUnix
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Coerce converts a resolved source value per the rule's value type.
// timeOfDay and loc only apply to TypeDateUnix.
func Coerce(t ValueType, v any, timeOfDay int, loc *time.Location) any {
	switch t {
	case TypeString:
		return coerceString(v)
	case TypeFloat:
		return coerceFloat(v)
	case TypeBoolean:
		return coerceBoolean(v)
	case TypeDateUnix:
		return coerceDateUnix(v, timeOfDay, loc)
	case TypeArray:
		return coerceArray(v)
	case TypeCurrency:
		return coerceCurrency(v)
	case TypeCountry:
		return coerceCountry(v)
	case TypeEmailList:
		return coerceEmailList(v)
	default:
		return v
	}
}

// coerceString trims plain strings; composite values are JSON-serialized
// instead of stringified
func coerceString(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case string:
		return strings.TrimSpace(val)
	case []any, map[string]any, []map[string]any, *MarkupNode:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(data)
	case json.Number:
		return val.String()
	default:
		return fmt.Sprintf("%v", val)
	}
}

// coerceFloat casts only non-nil values: a mapped-but-absent numeric field
// stays nil, never zero. Unparseable values pass through unchanged.
func coerceFloat(v any) any {
	if v == nil {
		return nil
	}
	if f, ok := toFloat(v); ok {
		return f
	}
	return v
}

// toFloat converts the supported numeric representations
func toFloat(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int32:
		return float64(val), true
	case int64:
		return float64(val), true
	case json.Number:
		f, err := val.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// falseStrings are the string values coerced to false, case-insensitively
var falseStrings = map[string]bool{
	"0":     true,
	"false": true,
	"no":    true,
	"":      true,
}

// coerceBoolean maps strings through the false table; non-string values
// pass through unchanged
func coerceBoolean(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	return !falseStrings[strings.ToLower(s)]
}

// coerceDateUnix parses date strings to epoch seconds at timeOfDay:00 in
// loc. Only strings containing "-" are treated as dates, guarding against
// already-numeric timestamps; parse failures leave the value unmodified.
func coerceDateUnix(v any, timeOfDay int, loc *time.Location) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	s = strings.TrimSpace(s)
	if !strings.Contains(s, "-") {
		return v
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range dateLayouts {
		parsed, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		y, m, d := parsed.Date()
		return time.Date(y, m, d, timeOfDay, 0, 0, 0, loc).Unix()
	}
	return v
}

// coerceArray passes lists through; non-array strings split on ","
func coerceArray(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case []any:
		return val
	case string:
		parts := strings.Split(val, ",")
		out := make([]any, 0, len(parts))
		for _, p := range parts {
			out = append(out, strings.TrimSpace(p))
		}
		return out
	default:
		return v
	}
}

// coerceCurrency lower-cases a 3-letter currency code
func coerceCurrency(v any) any {
	if v == nil {
		return nil
	}
	s, ok := v.(string)
	if !ok {
		s = fmt.Sprintf("%v", v)
	}
	return strings.ToLower(strings.TrimSpace(s))
}

// coerceCountry resolves a 2-letter code, 3-letter code or free-text name
// to an alpha-2 code; unresolvable values become nil
func coerceCountry(v any) any {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	s = strings.TrimSpace(s)
	switch len(s) {
	case 0:
		return nil
	case 2:
		code := strings.ToUpper(s)
		if countryByAlpha2(code) {
			return code
		}
		return nil
	case 3:
		if code, ok := countryByAlpha3(strings.ToUpper(s)); ok {
			return code
		}
		return nil
	default:
		if code, ok := countryByName(s); ok {
			return code
		}
		return nil
	}
}

// coerceEmailList parses a free-text address string into a list of
// normalized (lower-cased) addresses. nil stays nil; an empty string
// yields an empty list.
func coerceEmailList(v any) any {
	if v == nil {
		return nil
	}
	s, ok := v.(string)
	if !ok {
		return v
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return []any{}
	}

	out := make([]any, 0, 2)
	if addrs, err := mail.ParseAddressList(s); err == nil {
		for _, a := range addrs {
			out = append(out, strings.ToLower(a.Address))
		}
		return out
	}

	// Free-text fallback: split on the usual separators
	for _, part := range strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ';' || r == ' '
	}) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if addr, err := mail.ParseAddress(part); err == nil {
			out = append(out, strings.ToLower(addr.Address))
		} else if strings.Contains(part, "@") {
			out = append(out, strings.ToLower(part))
		}
	}
	return out
}
