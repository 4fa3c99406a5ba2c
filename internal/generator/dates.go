package generator

import "time"

// normalizeDate parses a NormalizedNER value into a UTC date and its
// YYYYMMDD key form. Accepted shapes, in order, are a full ISO date, a
// year-month, and a bare year (the month/day default to the 1st/January
// per the usual NLP date-normalization convention). An unparsable value
// reports ok=false and the token is skipped (spec.md §4.3).
func normalizeDate(raw string) (t time.Time, yyyymmdd string, ok bool) {
	for _, layout := range []string{"2006-01-02", "2006-01", "2006"} {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed.UTC(), parsed.Format("20060102"), true
		}
	}
	return time.Time{}, "", false
}
