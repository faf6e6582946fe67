package service

import (
	"fmt"
	"strings"
	"time"

	appErrors "github.com/noah-isme/portal-agenda-api/pkg/errors"
)

var localDateTimeLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// parseDate parses a YYYY-MM-DD calendar day at local midnight.
func parseDate(raw string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(dateLayout, strings.TrimSpace(raw), loc)
	if err != nil {
		return time.Time{}, appErrors.Validation(err, fmt.Sprintf("data inválida: %q (use AAAA-MM-DD)", raw))
	}
	return t, nil
}

// parseDateTime accepts RFC3339 or a wall-clock timestamp in loc.
func parseDateTime(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	for _, layout := range localDateTimeLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("data/hora inválida: %q", raw))
}

// dayKey formats t as the local calendar day used by cache keys and advisory locks.
func dayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(dateLayout)
}
