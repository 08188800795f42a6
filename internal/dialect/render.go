package dialect

import (
	"fmt"
	"strconv"
	"strings"
)

// rawDefaultKeywords never get quoted when used as a column default.
var rawDefaultKeywords = map[string]bool{
	"CURRENT_TIMESTAMP": true,
	"NOW()":             true,
	"CURRENT_DATE":      true,
	"CURRENT_TIME":      true,
	"LOCALTIME":         true,
	"LOCALTIMESTAMP":    true,
	"NULL":              true,
}

// FormatDefault renders a column's default value: numeric literals and
// recognized SQL functions/keywords are emitted raw; everything else is
// quoted via quoteString.
func FormatDefault(value any, quoteString func(string) string) string {
	switch v := value.(type) {
	case bool:
		if v {
			return "true"
		}
		return "false"
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case string:
		upper := strings.ToUpper(strings.TrimSpace(v))
		if rawDefaultKeywords[upper] || strings.Contains(v, "()") {
			return v
		}
		return quoteString(v)
	default:
		return quoteString(fmt.Sprintf("%v", v))
	}
}

// FormatLength renders a column length: integer form for ordinary types,
// decimal form ("p,s"-style single number here since the source stores a
// single length attribute) for the float-length-capable types.
func FormatLength(typ string, length float64) string {
	switch strings.ToLower(typ) {
	case "decimal", "float", "double":
		if length == float64(int64(length)) {
			return strconv.FormatInt(int64(length), 10)
		}
		return strconv.FormatFloat(length, 'f', -1, 64)
	default:
		return strconv.FormatInt(int64(length), 10)
	}
}
