package adapter

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	"github.com/mutiny19/indy-events/internal/event"
	"github.com/mutiny19/indy-events/internal/logger"
	"github.com/mutiny19/indy-events/internal/source"
)

// Safety cap so a pathological RRULE cannot flood a run even within the
// configured horizon.
const maxOccurrencesPerEvent = 500

// FeedAdapter parses ICS calendar feeds. Recurring VEVENTs are expanded into
// individual instances bounded to the forward horizon; exception dates are
// honored. Timestamps stay absolute, so records carry RFC 3339 date text the
// normalizer resolves first-try.
type FeedAdapter struct {
	opts Options
}

// Parse converts an ICS payload into Raw records.
func (a *FeedAdapter) Parse(src source.Source, body []byte) (Result, error) {
	var res Result

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return res, fmt.Errorf("parsing calendar: %w", err)
	}

	vevents := cal.Events()
	if len(vevents) == 0 {
		res.StructuralMiss = true
		return res, nil
	}

	for _, ve := range vevents {
		records, err := a.parseVEvent(src, ve)
		if err != nil {
			res.Skipped++
			logger.Debug("skipping malformed calendar event", logger.Fields{
				"source": src.Name,
				"error":  err.Error(),
			})
			continue
		}
		res.Records = append(res.Records, records...)
	}
	return res, nil
}

func (a *FeedAdapter) parseVEvent(src source.Source, ve *ical.VEvent) ([]event.Raw, error) {
	summary := propValue(ve, ical.ComponentPropertySummary)
	if strings.TrimSpace(summary) == "" {
		return nil, fmt.Errorf("missing summary")
	}

	start, err := ve.GetStartAt()
	if err != nil {
		start, err = ve.GetAllDayStartAt()
		if err != nil {
			return nil, fmt.Errorf("missing start: %w", err)
		}
	}

	var duration time.Duration
	if end, err := ve.GetEndAt(); err == nil && end.After(start) {
		duration = end.Sub(start)
	}

	base := event.Raw{
		Title:        summary,
		Description:  propValue(ve, ical.ComponentPropertyDescription),
		LocationText: propValue(ve, ical.ComponentPropertyLocation),
		Organizer:    strings.TrimPrefix(propValue(ve, ical.ComponentPropertyOrganizer), "mailto:"),
		URL:          propValue(ve, ical.ComponentPropertyUrl),
		Source:       src.Name,
		Curated:      src.Curated,
	}
	if base.URL == "" {
		base.URL = src.URL
	}
	if base.Organizer == "" {
		base.Organizer = src.Organizer
	}

	rawRule := propValue(ve, ical.ComponentPropertyRrule)
	if rawRule == "" {
		return []event.Raw{withTimes(base, start, duration)}, nil
	}
	return a.expandRecurrence(base, rawRule, exceptionDates(ve), start, duration)
}

// expandRecurrence materializes a recurring event into individual instances
// between now and the configured horizon.
func (a *FeedAdapter) expandRecurrence(base event.Raw, rawRule string, exdates []time.Time, start time.Time, duration time.Duration) ([]event.Raw, error) {
	rule, err := rrule.StrToRRule(rawRule)
	if err != nil {
		return nil, fmt.Errorf("parsing rrule: %w", err)
	}
	rule.DTStart(start)

	var set rrule.Set
	set.RRule(rule)
	for _, ex := range exdates {
		set.ExDate(ex.In(start.Location()))
	}

	now := a.opts.now()
	horizon := now.AddDate(0, 0, a.opts.HorizonDays)
	occurrences := set.Between(now.In(start.Location()), horizon.In(start.Location()), true)
	if len(occurrences) > maxOccurrencesPerEvent {
		occurrences = occurrences[:maxOccurrencesPerEvent]
	}

	records := make([]event.Raw, 0, len(occurrences))
	for _, occ := range occurrences {
		records = append(records, withTimes(base, occ, duration))
	}
	return records, nil
}

func withTimes(base event.Raw, start time.Time, duration time.Duration) event.Raw {
	base.DateText = start.Format(time.RFC3339)
	if duration > 0 {
		base.EndDateText = start.Add(duration).Format(time.RFC3339)
	}
	return base
}

func propValue(ve *ical.VEvent, name ical.ComponentProperty) string {
	if p := ve.GetProperty(name); p != nil {
		return p.Value
	}
	return ""
}

// exceptionDates collects EXDATE values. The parse is intentionally basic:
// UTC, local date-time, and date-only forms cover the feeds we ingest.
func exceptionDates(ve *ical.VEvent) []time.Time {
	var out []time.Time
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if t, err := parseICSTime(part); err == nil {
				out = append(out, t)
			}
		}
	}
	return out
}

func parseICSTime(v string) (time.Time, error) {
	switch {
	case strings.HasSuffix(v, "Z"):
		return time.Parse("20060102T150405Z", v)
	case strings.Contains(v, "T"):
		return time.ParseInLocation("20060102T150405", v, time.Local)
	default:
		return time.ParseInLocation("20060102", v, time.Local)
	}
}
