package normalize

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mutiny19/indy-events/internal/event"
)

var testLoc, _ = time.LoadLocation("America/Indiana/Indianapolis")

func testNow() time.Time {
	return time.Date(2026, 6, 15, 12, 0, 0, 0, testLoc)
}

func newTestNormalizer(opts ...Option) *Normalizer {
	opts = append([]Option{WithNow(testNow)}, opts...)
	return New(testLoc, 7, opts...)
}

func TestParseDateText(t *testing.T) {
	now := testNow()

	tests := []struct {
		name string
		text string
		want time.Time
	}{
		{
			name: "rfc3339 with offset",
			text: "2026-07-04T18:00:00-04:00",
			want: time.Date(2026, 7, 4, 18, 0, 0, 0, testLoc),
		},
		{
			name: "iso date only",
			text: "2026-07-04",
			want: time.Date(2026, 7, 4, 0, 0, 0, 0, testLoc),
		},
		{
			name: "long locale form",
			text: "July 4, 2026 6:00 PM",
			want: time.Date(2026, 7, 4, 18, 0, 0, 0, testLoc),
		},
		{
			name: "short slash form",
			text: "7/4/2026",
			want: time.Date(2026, 7, 4, 0, 0, 0, 0, testLoc),
		},
		{
			name: "weekday prefix",
			text: "Saturday, July 4, 2026",
			want: time.Date(2026, 7, 4, 0, 0, 0, 0, testLoc),
		},
		{
			name: "yearless assumes current year",
			text: "Jul 4",
			want: time.Date(2026, 7, 4, 0, 0, 0, 0, testLoc),
		},
		{
			name: "yearless far in past rolls forward",
			text: "Jan 10",
			want: time.Date(2027, 1, 10, 0, 0, 0, 0, testLoc),
		},
		{
			name: "surrounding whitespace",
			text: "  2026-07-04  ",
			want: time.Date(2026, 7, 4, 0, 0, 0, 0, testLoc),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseDateText(tt.text, testLoc, now)
			if !got.Equal(tt.want) {
				t.Errorf("ParseDateText(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestParseDateTextUnparseable(t *testing.T) {
	for _, text := range []string{"", "soon", "TBD", "every other tuesday"} {
		if got := ParseDateText(text, testLoc, testNow()); !got.IsZero() {
			t.Errorf("ParseDateText(%q) = %v, want zero time", text, got)
		}
	}
}

func TestNormalizeRejections(t *testing.T) {
	n := newTestNormalizer()

	tests := []struct {
		name    string
		raw     event.Raw
		wantErr error
	}{
		{
			name:    "missing title",
			raw:     event.Raw{DateText: "2026-07-04", Source: "test"},
			wantErr: ErrMissingTitle,
		},
		{
			name:    "unparseable date",
			raw:     event.Raw{Title: "Tech Meetup", DateText: "sometime soon", Source: "test"},
			wantErr: ErrUnparseableDate,
		},
		{
			name:    "stale date",
			raw:     event.Raw{Title: "Tech Meetup", DateText: "2026-06-01", Source: "test"},
			wantErr: ErrStale,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := n.Normalize(context.Background(), tt.raw)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Normalize() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNormalizeRecentPastKept(t *testing.T) {
	n := newTestNormalizer()

	// Three days old is within the stale window, so the event survives.
	ev, err := n.Normalize(context.Background(), event.Raw{
		Title:    "Weekend Market",
		DateText: "2026-06-12",
		Source:   "test",
	})
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if got := ev.Start.Format("2006-01-02"); got != "2026-06-12" {
		t.Errorf("Start = %s, want 2026-06-12", got)
	}
}

func TestNormalizeFields(t *testing.T) {
	n := newTestNormalizer()
	lat, lng := 39.7684, -86.1581

	ev, err := n.Normalize(context.Background(), event.Raw{
		Title:        "  Indy   Startup Demo Night  ",
		Description:  "RSVP at [our page](https://example.com/rsvp) before Friday.",
		DateText:     "2026-07-10T18:30:00-04:00",
		EndDateText:  "2026-07-10T21:00:00-04:00",
		VenueName:    "The Speak Easy",
		LocationText: "5255 Winthrop Ave, Indianapolis, IN",
		Lat:          &lat,
		Lng:          &lng,
		URL:          "https://example.com/demo-night",
		Source:       "demo-night",
		Curated:      true,
	})
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}

	if ev.Title != "Indy Startup Demo Night" {
		t.Errorf("Title = %q, want cleaned title", ev.Title)
	}
	if ev.Description != "RSVP at our page before Friday." {
		t.Errorf("Description = %q, want link syntax stripped", ev.Description)
	}
	if ev.End == nil || !ev.End.After(ev.Start) {
		t.Errorf("End = %v, want after Start %v", ev.End, ev.Start)
	}
	if ev.Organizer != "demo-night" {
		t.Errorf("Organizer = %q, want source name fallback", ev.Organizer)
	}
	if ev.Location.Name != "The Speak Easy" {
		t.Errorf("Location.Name = %q", ev.Location.Name)
	}
	if ev.Location.Lat == nil || *ev.Location.Lat != lat {
		t.Errorf("Location.Lat = %v, want %v", ev.Location.Lat, lat)
	}
	if ev.Curated != true {
		t.Error("Curated flag not carried through")
	}
	if ev.ID != event.GenerateID("demo-night", "Indy Startup Demo Night", ev.Start) {
		t.Errorf("ID = %q, want deterministic id", ev.ID)
	}
}

func TestNormalizeDropsEndBeforeStart(t *testing.T) {
	n := newTestNormalizer()

	ev, err := n.Normalize(context.Background(), event.Raw{
		Title:       "Late Night Show",
		DateText:    "2026-07-10T21:00:00-04:00",
		EndDateText: "2026-07-10T18:00:00-04:00",
		Source:      "test",
	})
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if ev.End != nil {
		t.Errorf("End = %v, want nil when before start", ev.End)
	}
}

func TestNormalizeCityFallback(t *testing.T) {
	n := newTestNormalizer()

	tests := []struct {
		name     string
		raw      event.Raw
		wantCity string
	}{
		{
			name: "city in location text",
			raw: event.Raw{
				Title:        "Makers Fair",
				DateText:     "2026-07-04",
				LocationText: "Downtown Fort Wayne",
				Source:       "test",
			},
			wantCity: "fort wayne",
		},
		{
			name: "longer city name wins",
			raw: event.Raw{
				Title:        "Hackathon",
				DateText:     "2026-07-04",
				LocationText: "Purdue campus, West Lafayette",
				Source:       "test",
			},
			wantCity: "west lafayette",
		},
		{
			name: "city in title",
			raw: event.Raw{
				Title:    "Bloomington Open Mic",
				DateText: "2026-07-04",
				Source:   "test",
			},
			wantCity: "bloomington",
		},
		{
			name: "no match defaults to indianapolis",
			raw: event.Raw{
				Title:    "Mystery Gathering",
				DateText: "2026-07-04",
				Source:   "test",
			},
			wantCity: "indianapolis",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := n.Normalize(context.Background(), tt.raw)
			if err != nil {
				t.Fatalf("Normalize() error = %v", err)
			}
			want := indianaCities[tt.wantCity]
			if ev.Location.Lat == nil || *ev.Location.Lat != want[0] {
				t.Errorf("Lat = %v, want %v", ev.Location.Lat, want[0])
			}
			if ev.Location.Lng == nil || *ev.Location.Lng != want[1] {
				t.Errorf("Lng = %v, want %v", ev.Location.Lng, want[1])
			}
		})
	}
}

type fakeGeocoder struct {
	coords *Coordinates
	err    error
	calls  []string
}

func (f *fakeGeocoder) Geocode(_ context.Context, address string) (*Coordinates, error) {
	f.calls = append(f.calls, address)
	return f.coords, f.err
}

func TestNormalizeGeocoding(t *testing.T) {
	t.Run("geocoded coordinates used", func(t *testing.T) {
		g := &fakeGeocoder{coords: &Coordinates{Lat: 39.95, Lng: -86.01}}
		n := newTestNormalizer(WithGeocoder(g))

		ev, err := n.Normalize(context.Background(), event.Raw{
			Title:        "Fishers Food Truck Friday",
			DateText:     "2026-07-04",
			LocationText: "1 Municipal Dr, Fishers, IN",
			Source:       "test",
		})
		if err != nil {
			t.Fatalf("Normalize() error = %v", err)
		}
		if len(g.calls) != 1 || g.calls[0] != "1 Municipal Dr, Fishers, IN" {
			t.Errorf("geocoder calls = %v", g.calls)
		}
		if ev.Location.Lat == nil || *ev.Location.Lat != 39.95 {
			t.Errorf("Lat = %v, want geocoded value", ev.Location.Lat)
		}
	})

	t.Run("record coordinates skip geocoder", func(t *testing.T) {
		g := &fakeGeocoder{coords: &Coordinates{Lat: 1, Lng: 1}}
		n := newTestNormalizer(WithGeocoder(g))
		lat, lng := 39.7684, -86.1581

		_, err := n.Normalize(context.Background(), event.Raw{
			Title:        "Already Located",
			DateText:     "2026-07-04",
			LocationText: "somewhere",
			Lat:          &lat,
			Lng:          &lng,
			Source:       "test",
		})
		if err != nil {
			t.Fatalf("Normalize() error = %v", err)
		}
		if len(g.calls) != 0 {
			t.Errorf("geocoder called %d times, want 0", len(g.calls))
		}
	})

	t.Run("geocoder failure falls back to city table", func(t *testing.T) {
		g := &fakeGeocoder{err: errors.New("service unavailable")}
		n := newTestNormalizer(WithGeocoder(g))

		ev, err := n.Normalize(context.Background(), event.Raw{
			Title:        "Carmel Art Walk",
			DateText:     "2026-07-04",
			LocationText: "Main St, Carmel",
			Source:       "test",
		})
		if err != nil {
			t.Fatalf("Normalize() error = %v", err)
		}
		want := indianaCities["carmel"]
		if ev.Location.Lat == nil || *ev.Location.Lat != want[0] {
			t.Errorf("Lat = %v, want city fallback %v", ev.Location.Lat, want[0])
		}
	})
}

func TestCleanText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  hello \t world  ", "hello world"},
		{"line\nbreaks\ncollapse", "line breaks collapse"},
		{"ctrl\x00chars\x1bgone", "ctrlcharsgone"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := CleanText(tt.in); got != tt.want {
			t.Errorf("CleanText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStripLinkSyntax(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"see [details](https://x.test/e) here", "see details here"},
		{"tickets: https://x.test/buy now", "tickets: now"},
		{"plain text untouched", "plain text untouched"},
	}
	for _, tt := range tests {
		if got := StripLinkSyntax(tt.in); got != tt.want {
			t.Errorf("StripLinkSyntax(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
