package models

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	priceTokenRe  = regexp.MustCompile(`\d+(?:[.,]\d{1,2})?`)
	volumeDigitRe = regexp.MustCompile(`\d+`)
)

// ParsePrice extracts the first well-formed numeric token from a marketplace
// price string such as "1 234,56 ₽". Narrow and regular no-break spaces act
// as thousand separators and are stripped; a comma decimal separator is
// accepted. Returns nil when no numeric token is present.
func ParsePrice(s string) *float64 {
	if s == "" {
		return nil
	}
	s = strings.NewReplacer(" ", "", " ", "").Replace(s)
	tok := priceTokenRe.FindString(s)
	if tok == "" {
		return nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(tok, ",", "."), 64)
	if err != nil {
		return nil
	}
	return &v
}

// ParseVolume extracts the 24h sales count from a volume string like "1,234".
// Commas are treated as thousand separators. Returns 0 when no digits exist.
func ParseVolume(s string) int {
	s = strings.ReplaceAll(s, ",", "")
	tok := volumeDigitRe.FindString(s)
	if tok == "" {
		return 0
	}
	n, err := strconv.Atoi(tok)
	if err != nil {
		return 0
	}
	return n
}

// ParseTimestamp parses a stored RFC 3339 timestamp, accepting a trailing
// "Z" or a numeric offset. The second return value is false when the string
// is malformed; callers treat such records as not-in-window.
func ParseTimestamp(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05"} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}
