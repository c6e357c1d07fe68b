package aggregate

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Recognized status values after normalization.
const (
	StatusSolved    = "solved"
	StatusFollowUp  = "follow up"
	StatusNotSolved = "not solved"
)

// KnownStatuses lists the recognized statuses in presentation order.
var KnownStatuses = []string{StatusSolved, StatusFollowUp, StatusNotSolved}

// IsKnownStatus reports whether s is one of KnownStatuses. s must already be
// normalized.
func IsKnownStatus(s string) bool {
	switch s {
	case StatusSolved, StatusFollowUp, StatusNotSolved:
		return true
	}
	return false
}

// NormalizeStatus trims and lower-cases a raw status cell. ok is false for
// null and whitespace-only values. Unrecognized text is returned normalized
// but otherwise unchanged. NormalizeStatus(NormalizeStatus(x)) == NormalizeStatus(x).
func NormalizeStatus(v any) (status string, ok bool) {
	s, ok := text(v)
	if !ok {
		return "", false
	}
	return strings.ToLower(s), true
}

// ToNumber coerces a raw cell to a finite float64. Numeric types are accepted
// as-is; strings are trimmed and parsed. Anything else, including NaN and
// infinities, is reported as missing. It never panics.
func ToNumber(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case nil:
		return 0, false
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int8:
		f = float64(n)
	case int16:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint8:
		f = float64(n)
	case uint16:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case json.Number:
		p, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = p
	case string:
		return parseNumber(n)
	case []byte:
		return parseNumber(string(n))
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// EvidenceEmpty reports whether an evidence cell counts as "no evidence".
// The check order is fixed: null is empty; otherwise the value is trimmed and
// an empty result is empty; otherwise a case-insensitive "nan" is empty;
// anything else is a link.
func EvidenceEmpty(v any) bool {
	if v == nil {
		return true
	}
	if f, ok := v.(float64); ok && math.IsNaN(f) {
		return true
	}
	s := strings.TrimSpace(raw(v))
	if s == "" {
		return true
	}
	return strings.EqualFold(s, "nan")
}

// text returns the trimmed textual form of a categorical cell. ok is false for
// null, NaN and whitespace-only values.
func text(v any) (string, bool) {
	if v == nil {
		return "", false
	}
	if f, ok := v.(float64); ok && math.IsNaN(f) {
		return "", false
	}
	s := strings.TrimSpace(raw(v))
	if s == "" {
		return "", false
	}
	return s, true
}

// raw renders any cell value as text without trimming.
func raw(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case []byte:
		return string(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	case json.Number:
		return x.String()
	case interface{ String() string }:
		return x.String()
	}
	if f, ok := ToNumber(v); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return ""
}
