package journal

import (
	"strings"
	"time"
)

// canonicalLayout formats instants with microsecond precision for
// fingerprinting and stable comparison.
const canonicalLayout = "2006-01-02T15:04:05.000000"

// Layouts tried for naive inputs (no offset information). time.Parse accepts
// an unsolicited fractional second after the seconds element, so these also
// cover sub-second inputs.
var naiveLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Layouts tried for inputs carrying an explicit offset or Z suffix.
var offsetLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05-0700",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05-0700",
}

// ParseTimestamp normalizes a heterogeneous timestamp input into a canonical
// UTC instant. Structured time values are converted to UTC directly. Strings
// with explicit zone information are converted to UTC; strings without any
// are assumed to already represent UTC, never the local zone.
func ParseTimestamp(value any) (time.Time, error) {
	switch v := value.(type) {
	case time.Time:
		return v.UTC(), nil
	case *time.Time:
		if v == nil {
			return time.Time{}, ErrUnsupportedInputType
		}
		return v.UTC(), nil
	case string:
		return parseTimestampString(v)
	default:
		return time.Time{}, ErrUnsupportedInputType
	}
}

func parseTimestampString(s string) (time.Time, error) {
	s = strings.TrimSpace(s)

	// A literal " UTC" suffix is treated the same as no offset at all.
	if trimmed, ok := strings.CutSuffix(s, " UTC"); ok {
		s = strings.TrimSpace(trimmed)
	}

	if !looksLikeTimestamp(s) {
		return time.Time{}, ErrUnsupportedInputType
	}

	for _, layout := range offsetLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	for _, layout := range naiveLayouts {
		// time.Parse without a zone element yields UTC, which is exactly
		// the "assume already UTC" policy.
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, ErrMalformedTimestamp
}

// looksLikeTimestamp reports whether s superficially matches the
// YYYY-MM-DD... shape. Inputs that do not are rejected as unsupported
// rather than malformed.
func looksLikeTimestamp(s string) bool {
	if len(s) < len("2006-01-02") {
		return false
	}
	for i := 0; i < 10; i++ {
		c := s[i]
		if i == 4 || i == 7 {
			if c != '-' {
				return false
			}
		} else if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// CanonicalString renders a normalized instant as ISO-8601 with microsecond
// precision, the representation used inside fingerprints.
func CanonicalString(t time.Time) string {
	return t.UTC().Format(canonicalLayout)
}
