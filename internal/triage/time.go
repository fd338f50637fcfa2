package triage

import "time"

// MillisCarrier exposes an epoch-millis accessor.
type MillisCarrier interface {
	ToMillis() int64
}

// SecondsCarrier exposes an epoch-seconds accessor.
type SecondsCarrier interface {
	ToSeconds() int64
}

// NormalizeMillis converts the heterogeneous timestamp representations seen
// at the ingestion boundary into a single epoch-millis integer. Absent or
// unrecognized input normalizes to 0; all downstream duration math operates
// only on the normalized form.
func NormalizeMillis(v any) int64 {
	switch t := v.(type) {
	case nil:
		return 0
	case int64:
		return t
	case int:
		return int64(t)
	case float64:
		return int64(t)
	case time.Time:
		if t.IsZero() {
			return 0
		}
		return t.UnixMilli()
	case *time.Time:
		if t == nil || t.IsZero() {
			return 0
		}
		return t.UnixMilli()
	case MillisCarrier:
		return t.ToMillis()
	case SecondsCarrier:
		return t.ToSeconds() * 1000
	case map[string]any:
		if sec, ok := t["seconds"]; ok {
			switch s := sec.(type) {
			case int64:
				return s * 1000
			case int:
				return int64(s) * 1000
			case float64:
				return int64(s) * 1000
			}
		}
		return 0
	default:
		return 0
	}
}

// NormalizeTime is NormalizeMillis lifted back into time.Time. The zero
// time maps to unrecognized input.
func NormalizeTime(v any) time.Time {
	millis := NormalizeMillis(v)
	if millis == 0 {
		return time.Time{}
	}
	return time.UnixMilli(millis)
}
