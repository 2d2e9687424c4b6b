package normalize

import (
	"strconv"
	"strings"
	"time"
)

var layouts = []string{
	time.RFC3339Nano,
	time.RFC1123Z, // Twilio: "Wed, 18 Aug 2010 20:01:40 +0000"
	time.RFC1123,
	"2006-01-02T15:04:05.000Z0700",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp coerces provider timestamp strings into UTC. Numeric strings
// are treated as unix seconds or milliseconds. Unparseable input yields the
// zero time.
func ParseTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return fromEpoch(n)
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// fromEpoch guesses the unit: values beyond year 2286 in seconds are millis.
func fromEpoch(n int64) time.Time {
	if n <= 0 {
		return time.Time{}
	}
	if n > 1e10 {
		return time.UnixMilli(n).UTC()
	}
	return time.Unix(n, 0).UTC()
}
