package adapter

import (
	"testing"

	"github.com/mutiny19/indy-events/internal/source"
)

const listingHTML = `<html><body>
<div class="jet-listing-grid">
  <div class="jet-listing-grid__item">
    <h3 class="event-title">Founder Breakfast Series</h3>
    <time datetime="2026-04-10T08:00:00-04:00">Apr 10</time>
    <p>Coffee and conversation with Indy founders.</p>
    <a href="/events/founder-breakfast">Details</a>
  </div>
  <div class="jet-listing-grid__item">
    <h3 class="event-title">Demo Day</h3>
    <time>April 24, 2026</time>
    <p>Cohort companies pitch.</p>
    <a href="https://other.example.com/demo-day">Details</a>
  </div>
  <div class="jet-listing-grid__item">
    <h3 class="event-title">Go</h3>
    <p>Too short to be a real listing.</p>
  </div>
</div>
</body></html>`

func TestListingAdapterCustomSelectors(t *testing.T) {
	src := source.Source{
		Name: "TechPoint",
		Type: "custom",
		URL:  "https://techpoint.org/events/",
		Selectors: &source.Selectors{
			Item:  "div.jet-listing-grid__item",
			Title: ".event-title",
		},
	}

	a := &ListingAdapter{opts: Options{MaxItems: 15}}
	res, err := a.Parse(src, []byte(listingHTML))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if len(res.Records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(res.Records))
	}
	if res.Skipped != 1 {
		t.Errorf("expected 1 skipped short-title item, got %d", res.Skipped)
	}
	if res.StructuralMiss {
		t.Error("did not expect a structural miss")
	}

	first := res.Records[0]
	if first.Title != "Founder Breakfast Series" {
		t.Errorf("unexpected title %q", first.Title)
	}
	// datetime attribute wins over display text.
	if first.DateText != "2026-04-10T08:00:00-04:00" {
		t.Errorf("expected datetime attribute, got %q", first.DateText)
	}
	// Relative links resolve against the source URL.
	if first.URL != "https://techpoint.org/events/founder-breakfast" {
		t.Errorf("expected absolutized URL, got %q", first.URL)
	}

	second := res.Records[1]
	if second.DateText != "April 24, 2026" {
		t.Errorf("expected display date text, got %q", second.DateText)
	}
	if second.URL != "https://other.example.com/demo-day" {
		t.Errorf("expected absolute URL preserved, got %q", second.URL)
	}
}

func TestListingAdapterDefaultSelectors(t *testing.T) {
	html := `<html><body>
	<article class="tribe-events-calendar-list__event">
	  <h3>Startup Grind Fireside</h3>
	  <time datetime="2026-05-01T18:00:00-04:00">May 1</time>
	  <div class="description">A fireside chat with a local founder.</div>
	</article>
	</body></html>`

	src := source.Source{Name: "Startup Grind", Type: "custom", URL: "https://startupgrind.example.com/indy/"}
	a := &ListingAdapter{opts: Options{MaxItems: 15}}
	res, err := a.Parse(src, []byte(html))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(res.Records) != 1 {
		t.Fatalf("expected 1 record via default selectors, got %d", len(res.Records))
	}
	if res.Records[0].Description != "A fireside chat with a local founder." {
		t.Errorf("unexpected description %q", res.Records[0].Description)
	}
	// No URL in the item falls back to the source URL.
	if res.Records[0].URL != src.URL {
		t.Errorf("expected fallback to source URL, got %q", res.Records[0].URL)
	}
}

func TestListingAdapterVenueFallback(t *testing.T) {
	lat, lng := 40.1934, -85.3864
	src := source.Source{
		Name: "Madjax",
		Type: "custom",
		URL:  "https://www.madjax.org/events/",
		Venue: &source.Venue{
			Name:    "Madjax Maker Force",
			Address: "515 E Main St, Muncie, IN 47305",
			Lat:     &lat,
			Lng:     &lng,
		},
	}

	html := `<html><body><div class="event-card"><h3>Maker Workshop Night</h3></div></body></html>`
	a := &ListingAdapter{opts: Options{MaxItems: 15}}
	res, err := a.Parse(src, []byte(html))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(res.Records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(res.Records))
	}

	raw := res.Records[0]
	if raw.VenueName != "Madjax Maker Force" {
		t.Errorf("expected venue name fallback, got %q", raw.VenueName)
	}
	if raw.Lat == nil || *raw.Lat != lat {
		t.Error("expected venue coordinates to be carried onto the record")
	}
}

func TestListingAdapterStructuralMiss(t *testing.T) {
	src := source.Source{Name: "Redesigned", Type: "custom", URL: "https://redesigned.example.com/"}
	a := &ListingAdapter{opts: Options{MaxItems: 15}}

	res, err := a.Parse(src, []byte(`<html><body><main><p>We moved our calendar!</p></main></body></html>`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if !res.StructuralMiss {
		t.Error("expected structural miss when the item selector matches nothing")
	}
	if len(res.Records) != 0 {
		t.Errorf("expected zero records, got %d", len(res.Records))
	}
}

func TestListingAdapterMaxItems(t *testing.T) {
	html := `<html><body>`
	for i := 0; i < 10; i++ {
		html += `<div class="event-row"><h3>Recurring Office Hours Session</h3></div>`
	}
	html += `</body></html>`

	src := source.Source{Name: "Busy", Type: "custom", URL: "https://busy.example.com/", MaxItems: 3}
	a := &ListingAdapter{opts: Options{MaxItems: 15}}
	res, err := a.Parse(src, []byte(html))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(res.Records) != 3 {
		t.Errorf("expected per-source cap of 3, got %d", len(res.Records))
	}
}
