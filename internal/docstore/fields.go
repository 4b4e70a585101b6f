package docstore

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Lenient field readers. Backends disagree on numeric types (Firestore gives
// int64/float64, JSONB gives float64, the memory store keeps whatever was
// written) so every reader accepts all of them. The bool result reports
// whether the field was present with a usable type.

func String(data map[string]any, key string) (string, bool) {
	v, ok := data[key]
	if !ok || v == nil {
		return "", false
	}
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s), true
	case fmt.Stringer:
		return strings.TrimSpace(s.String()), true
	default:
		return "", false
	}
}

func Int64(data map[string]any, key string) (int64, bool) {
	v, ok := data[key]
	if !ok || v == nil {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case float32:
		return int64(n), true
	case float64:
		return int64(n), true
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		if f, err := n.Float64(); err == nil {
			return int64(f), true
		}
	case string:
		if i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64); err == nil {
			return i, true
		}
	}
	return 0, false
}

func Int(data map[string]any, key string) (int, bool) {
	n, ok := Int64(data, key)
	return int(n), ok
}

func Decimal(data map[string]any, key string) (decimal.Decimal, bool) {
	v, ok := data[key]
	if !ok || v == nil {
		return decimal.Zero, false
	}
	switch n := v.(type) {
	case int:
		return decimal.NewFromInt(int64(n)), true
	case int32:
		return decimal.NewFromInt(int64(n)), true
	case int64:
		return decimal.NewFromInt(n), true
	case float32:
		return decimal.NewFromFloat32(n), true
	case float64:
		return decimal.NewFromFloat(n), true
	case json.Number:
		if d, err := decimal.NewFromString(n.String()); err == nil {
			return d, true
		}
	case string:
		if d, err := decimal.NewFromString(strings.TrimSpace(n)); err == nil {
			return d, true
		}
	case decimal.Decimal:
		return n, true
	}
	return decimal.Zero, false
}

func Bool(data map[string]any, key string) (bool, bool) {
	v, ok := data[key]
	if !ok || v == nil {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

// Time reads either a native timestamp or unix milliseconds.
func Time(data map[string]any, key string) (time.Time, bool) {
	if t, ok := data[key].(time.Time); ok {
		return t.UTC(), true
	}
	if ms, ok := Int64(data, key); ok {
		return time.UnixMilli(ms).UTC(), true
	}
	return time.Time{}, false
}

// Maps reads a list of nested objects, skipping entries that are not objects.
func Maps(data map[string]any, key string) ([]map[string]any, bool) {
	v, ok := data[key]
	if !ok || v == nil {
		return nil, false
	}
	switch list := v.(type) {
	case []map[string]any:
		return list, true
	case []any:
		out := make([]map[string]any, 0, len(list))
		for _, item := range list {
			if m, ok := item.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out, true
	}
	return nil, false
}

// Strings reads a list of strings, skipping non-string entries.
func Strings(data map[string]any, key string) ([]string, bool) {
	v, ok := data[key]
	if !ok || v == nil {
		return nil, false
	}
	switch list := v.(type) {
	case []string:
		return list, true
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out, true
	}
	return nil, false
}

// Money converts a decimal amount into the float representation stored in
// documents.
func Money(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}
