package normalize

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/araddon/dateparse"

	"proposal_sync/platform/sanitize"
)

const dateLayout = "2006-01-02"

// Text renders v as trimmed text. Nested values become compact JSON.
// It reports false for null and blank input.
func Text(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return sanitize.Text(t)
	case json.Number:
		return sanitize.Text(t.String())
	case bool:
		if t {
			return "1", true
		}
		return "0", true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case map[string]any, []any:
		if isEmpty(t) {
			return "", false
		}
		b, err := json.Marshal(t)
		if err != nil {
			return "", false
		}
		return string(b), true
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return "", false
		}
		return sanitize.Text(string(b))
	}
}

// BoundedText is Text cut to max characters.
func BoundedText(v any, max int) (string, bool) {
	s, ok := Text(v)
	if !ok {
		return "", false
	}
	return sanitize.Truncate(s, max), true
}

// Date parses free-form date text, ISO or day-first, into YYYY-MM-DD.
func Date(v any) (string, bool) {
	s, ok := Text(v)
	if !ok {
		return "", false
	}
	// Ambiguous 01/02/2024 reads day first (1 Feb). These dates feed the merge key.
	t, err := dateparse.ParseAny(s, dateparse.PreferMonthFirst(false))
	if err != nil {
		return "", false
	}
	return t.Format(dateLayout), true
}

// Flag maps truthy tokens to "1" and any other present value to "0".
func Flag(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case bool:
		if t {
			return "1", true
		}
		return "0", true
	case float64:
		return flagFromNumber(t), true
	case int:
		return flagFromNumber(float64(t)), true
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return "0", true
		}
		return flagFromNumber(f), true
	}

	s, ok := Text(v)
	if !ok {
		return "", false
	}
	if s == "1" || strings.EqualFold(s, "true") {
		return "1", true
	}
	return "0", true
}

func flagFromNumber(f float64) string {
	if f == 1 {
		return "1"
	}
	return "0"
}

// Digits strips every non-digit and cuts the result to max.
func Digits(v any, max int) (string, bool) {
	s, ok := Text(v)
	if !ok {
		return "", false
	}
	d := sanitize.Digits(s)
	if d == "" {
		return "", false
	}
	if max > 0 && len(d) > max {
		d = d[:max]
	}
	return d, true
}

func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case map[string]any:
		return len(t) == 0
	case []any:
		return len(t) == 0
	}
	return false
}
