package timeutil

import (
	"time"
)

// Dateable is implemented by tagged timestamp values carried over from
// external systems that expose their own conversion.
type Dateable interface {
	ToDate() time.Time
}

// Timestamp is the structured seconds/nanoseconds form some imported records
// store their dates in.
type Timestamp struct {
	Seconds     int64 `json:"seconds"`
	Nanoseconds int64 `json:"nanoseconds"`
}

func (t Timestamp) ToDate() time.Time {
	return time.Unix(t.Seconds, t.Nanoseconds)
}

var stringLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ToTime converts any of the timestamp shapes found in stored records into a
// concrete time: native times, epoch milliseconds, ISO strings, values with a
// ToDate method, and seconds/nanoseconds maps. Returns nil for anything
// unparsable instead of panicking, so callers can treat a bad date as absent.
func ToTime(v any) *time.Time {
	switch t := v.(type) {
	case nil:
		return nil
	case time.Time:
		if t.IsZero() {
			return nil
		}
		return &t
	case *time.Time:
		if t == nil || t.IsZero() {
			return nil
		}
		out := *t
		return &out
	case Dateable:
		out := t.ToDate()
		return &out
	case int64:
		return fromEpochMillis(t)
	case int:
		return fromEpochMillis(int64(t))
	case float64:
		return fromEpochMillis(int64(t))
	case string:
		for _, layout := range stringLayouts {
			if parsed, err := time.Parse(layout, t); err == nil {
				return &parsed
			}
		}
		return nil
	case map[string]any:
		seconds, ok := asInt64(t["seconds"])
		if !ok {
			return nil
		}
		nanos, _ := asInt64(t["nanoseconds"])
		out := time.Unix(seconds, nanos)
		return &out
	default:
		return nil
	}
}

func fromEpochMillis(ms int64) *time.Time {
	if ms <= 0 {
		return nil
	}
	t := time.UnixMilli(ms)
	return &t
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	default:
		return 0, false
	}
}

// SameMonth reports whether two times fall in the same calendar month.
func SameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}

// DayKey formats a time as the YYYY-MM-DD bucket key used by the revenue
// series.
func DayKey(t time.Time) string {
	return t.Format("2006-01-02")
}
