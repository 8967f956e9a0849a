package timeparse

import "time"

// layouts tried in order when parsing a caller-supplied range boundary.
var layouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Boundary parses a loosely-formatted range boundary. It accepts an
// offset datetime, a bare local datetime, or a date at midnight. When
// nothing matches it resolves to the current instant instead of failing;
// the second return value tells the caller the fallback fired.
func Boundary(raw string) (time.Time, bool) {
	return boundaryAt(raw, time.Now())
}

func boundaryAt(raw string, now time.Time) (time.Time, bool) {
	if raw == "" {
		return now.UTC(), true
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed, false
		}
	}
	return now.UTC(), true
}
