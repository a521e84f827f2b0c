package normalize

import (
	"strings"
	"time"
)

// zoneAwareLayouts carry their own offset and are tried with time.Parse.
var zoneAwareLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05Z0700",
}

// localLayouts are interpreted in the reference zone, ISO forms first, then
// the locale patterns the scraped sites actually print.
var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"January 2, 2006 3:04 PM",
	"January 2, 2006",
	"January 2 2006",
	"Jan 2, 2006 3:04 PM",
	"Jan 2, 2006",
	"Jan 2 2006",
	"Monday, January 2, 2006",
	"1/2/2006 3:04 PM",
	"1/2/2006",
	"01/02/06",
	"1.2.06",
}

// yearlessLayouts assume the current year, rolling to the next year when the
// resolved date would otherwise be far in the past (a December page listing
// January events).
var yearlessLayouts = []string{
	"Jan 2",
	"January 2",
	"Jan 2 3:04 PM",
	"Monday, January 2",
}

// ParseDateText resolves a date expression to an absolute time in loc.
// Returns the zero time when no strategy matches.
func ParseDateText(text string, loc *time.Location, now time.Time) time.Time {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}
	}

	for _, layout := range zoneAwareLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t.In(loc)
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, text, loc); err == nil {
			return t
		}
	}
	for _, layout := range yearlessLayouts {
		t, err := time.ParseInLocation(layout, text, loc)
		if err != nil {
			continue
		}
		t = time.Date(now.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, loc)
		if t.Before(now.AddDate(0, -3, 0)) {
			t = t.AddDate(1, 0, 0)
		}
		return t
	}
	return time.Time{}
}
