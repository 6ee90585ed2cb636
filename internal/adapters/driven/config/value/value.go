// Package value converts loosely typed configuration values, as decoded
// from TOML or set programmatically, into Go types.
package value

import (
	"fmt"
	"strconv"
	"time"
)

// String returns v as a string. Numbers and booleans are formatted;
// other types yield "".
func String(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case int, int64, bool:
		return fmt.Sprint(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case time.Duration:
		return x.String()
	default:
		return ""
	}
}

// Int returns v as an int. TOML integers decode as int64 and JSON
// numbers as float64; numeric strings are parsed.
func Int(v any) int {
	switch x := v.(type) {
	case int:
		return x
	case int64:
		return int(x)
	case float64:
		return int(x)
	case string:
		n, err := strconv.Atoi(x)
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

// Float returns v as a float64. Integers are converted.
func Float(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case float32:
		return float64(x)
	case int:
		return float64(x)
	case int64:
		return float64(x)
	case string:
		f, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// Bool returns v as a bool. The strings accepted by strconv.ParseBool
// are recognised.
func Bool(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case string:
		b, _ := strconv.ParseBool(x)
		return b
	default:
		return false
	}
}

// StringSlice returns v as a []string. Non-string elements are dropped.
func StringSlice(v any) []string {
	switch x := v.(type) {
	case []string:
		return x
	case []any:
		result := make([]string, 0, len(x))
		for _, item := range x {
			if str, ok := item.(string); ok {
				result = append(result, str)
			}
		}
		return result
	default:
		return nil
	}
}
