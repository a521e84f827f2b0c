package normalize

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mutiny19/indy-events/internal/event"
	"github.com/mutiny19/indy-events/internal/logger"
)

// Rejection reasons. The pipeline counts these per source rather than
// failing the run; a source full of stale listings is a data problem,
// not a pipeline one.
var (
	ErrMissingTitle    = errors.New("event has no title")
	ErrUnparseableDate = errors.New("could not parse event date")
	ErrStale           = errors.New("event date is in the past")
)

// defaultCity anchors events whose location could not be resolved at all.
const defaultCity = "indianapolis"

// Normalizer converts raw adapter records into canonical events. All date
// interpretation happens in a single reference timezone so the output is
// stable regardless of where the pipeline runs.
type Normalizer struct {
	loc       *time.Location
	staleDays int
	geocoder  Geocoder
	now       func() time.Time
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithGeocoder enables address geocoding for records without coordinates.
func WithGeocoder(g Geocoder) Option {
	return func(n *Normalizer) { n.geocoder = g }
}

// WithNow fixes the reference clock, for tests.
func WithNow(now func() time.Time) Option {
	return func(n *Normalizer) { n.now = now }
}

// New creates a Normalizer. staleDays controls how far in the past an
// event may start before it is rejected.
func New(loc *time.Location, staleDays int, opts ...Option) *Normalizer {
	n := &Normalizer{
		loc:       loc,
		staleDays: staleDays,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize converts one raw record into a canonical event, or reports
// why the record must be dropped. Missing coordinates never reject a
// record; the resolution chain falls back to a city-level position.
func (n *Normalizer) Normalize(ctx context.Context, raw event.Raw) (*event.Event, error) {
	title := CleanText(raw.Title)
	if title == "" {
		return nil, ErrMissingTitle
	}

	now := n.now().In(n.loc)

	start := ParseDateText(raw.DateText, n.loc, now)
	if start.IsZero() {
		return nil, fmt.Errorf("%w: %q", ErrUnparseableDate, raw.DateText)
	}
	if start.Before(now.AddDate(0, 0, -n.staleDays)) {
		return nil, fmt.Errorf("%w: %s", ErrStale, start.Format("2006-01-02"))
	}

	var end *time.Time
	if raw.EndDateText != "" {
		parsed := ParseDateText(raw.EndDateText, n.loc, now)
		if parsed.IsZero() || parsed.Before(start) {
			logger.Debug("dropping unusable end date", logger.Fields{
				"title": title,
				"end":   raw.EndDateText,
			})
		} else {
			end = &parsed
		}
	}

	organizer := CleanText(raw.Organizer)
	if organizer == "" {
		organizer = raw.Source
	}

	ev := &event.Event{
		Title:       title,
		Description: StripLinkSyntax(CleanText(raw.Description)),
		Start:       start,
		End:         end,
		Location:    n.resolveLocation(ctx, raw, title),
		Organizer:   organizer,
		URL:         strings.TrimSpace(raw.URL),
		Source:      raw.Source,
		Curated:     raw.Curated,
	}
	ev.ID = event.GenerateID(ev.Source, ev.Title, ev.Start)
	return ev, nil
}

// resolveLocation picks coordinates in order of trust: explicit coordinates
// on the record, a geocoded address, a known city mentioned in the location
// text or title, and finally the default city.
func (n *Normalizer) resolveLocation(ctx context.Context, raw event.Raw, title string) event.Location {
	loc := event.Location{
		Name:    CleanText(raw.VenueName),
		Address: CleanText(raw.LocationText),
	}
	if loc.Name == "" {
		loc.Name = loc.Address
	}

	if raw.Lat != nil && raw.Lng != nil {
		loc.Lat, loc.Lng = raw.Lat, raw.Lng
		return loc
	}

	if n.geocoder != nil && loc.Address != "" {
		coords, err := n.geocoder.Geocode(ctx, loc.Address)
		if err != nil {
			logger.Warn("geocoding failed", logger.Fields{
				"address": loc.Address,
				"error":   err.Error(),
			})
		} else if coords != nil {
			loc.Lat, loc.Lng = &coords.Lat, &coords.Lng
			return loc
		}
	}

	city, coords := matchCity(loc.Address + " " + title)
	if city == "" {
		city, coords = defaultCity, indianaCities[defaultCity]
		logger.Debug("no location resolved, using default city", logger.Fields{"title": title})
	}
	lat, lng := coords[0], coords[1]
	loc.Lat, loc.Lng = &lat, &lng
	if loc.Name == "" {
		loc.Name = titleCase(city)
	}
	return loc
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// matchCity scans text for the first known city name it contains. Longer
// names are checked first so "west lafayette" wins over "lafayette".
func matchCity(text string) (string, [2]float64) {
	lower := strings.ToLower(text)
	best := ""
	for city := range indianaCities {
		if strings.Contains(lower, city) && len(city) > len(best) {
			best = city
		}
	}
	if best == "" {
		return "", [2]float64{}
	}
	return best, indianaCities[best]
}
