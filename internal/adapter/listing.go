package adapter

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/mutiny19/indy-events/internal/event"
	"github.com/mutiny19/indy-events/internal/source"
)

// minTitleLength filters out navigation fragments and icon labels that
// selector sweeps frequently pick up on listing pages.
const minTitleLength = 5

// ListingAdapter extracts repeated listing blocks from html, search, and
// rendered pages using the source's structural selectors. Page structure
// changes are expected over time, so zero matches is a soft failure, and a
// single malformed item is skipped and counted.
type ListingAdapter struct {
	opts Options
}

// DefaultSelectors returns the fallback selector set for a source kind.
// Search listings (Eventbrite-style result pages) use the card markup those
// pages have carried for years; generic pages sweep for event-ish blocks.
func DefaultSelectors(kind source.Kind) source.Selectors {
	if kind == source.KindSearch {
		return source.Selectors{
			Item:        "div.discover-search-desktop-card",
			Title:       "h3, h2",
			Date:        "time, p[class*=date]",
			Description: "p",
			URL:         "a[href]",
		}
	}
	return source.Selectors{
		Item:        "div[class*=event], article[class*=event], li[class*=event]",
		Title:       ".event-title, h2, h3, h4",
		Date:        "time, [class*=date]",
		Description: "[class*=description], [class*=excerpt], p",
		Location:    "[class*=location], [class*=venue], address",
		Organizer:   "[class*=organizer]",
		URL:         "a[href]",
	}
}

// Parse extracts Raw records from a page's HTML.
func (a *ListingAdapter) Parse(src source.Source, body []byte) (Result, error) {
	var res Result

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return res, fmt.Errorf("parsing HTML: %w", err)
	}

	sel := mergeSelectors(src.Selectors, DefaultSelectors(src.Kind()))
	base, err := url.Parse(src.URL)
	if err != nil {
		return res, fmt.Errorf("parsing source url: %w", err)
	}

	items := doc.Find(sel.Item)
	if items.Length() == 0 {
		res.StructuralMiss = true
		return res, nil
	}

	max := a.opts.maxItems(src)
	items.EachWithBreak(func(i int, item *goquery.Selection) bool {
		if len(res.Records) >= max {
			return false
		}
		raw, ok := a.parseItem(src, sel, base, item)
		if !ok {
			res.Skipped++
			return true
		}
		res.Records = append(res.Records, raw)
		return true
	})
	return res, nil
}

func (a *ListingAdapter) parseItem(src source.Source, sel source.Selectors, base *url.URL, item *goquery.Selection) (event.Raw, bool) {
	title := firstText(item, sel.Title)
	if len(title) < minTitleLength {
		return event.Raw{}, false
	}

	raw := event.Raw{
		Title:       title,
		Description: firstText(item, sel.Description),
		DateText:    dateText(item, sel.Date),
		EndDateText: dateText(item, sel.EndDate),
		Organizer:   firstText(item, sel.Organizer),
		Source:      src.Name,
		Curated:     src.Curated,
	}

	if raw.Organizer == "" {
		raw.Organizer = src.Organizer
	}

	if href, ok := item.Find(sel.URL).First().Attr("href"); ok {
		raw.URL = absolutize(base, href)
	} else {
		raw.URL = src.URL
	}

	raw.LocationText = firstText(item, sel.Location)
	if raw.LocationText == "" && src.Venue != nil {
		// Sources with a fixed venue carry their own address and, when
		// known, coordinates; those skip geocoding entirely.
		raw.VenueName = src.Venue.Name
		raw.LocationText = src.Venue.Address
		raw.Lat = src.Venue.Lat
		raw.Lng = src.Venue.Lng
	}

	return raw, true
}

// dateText prefers a machine-readable datetime attribute over display text.
func dateText(item *goquery.Selection, selector string) string {
	if selector == "" {
		return ""
	}
	found := item.Find(selector).First()
	if dt, ok := found.Attr("datetime"); ok && strings.TrimSpace(dt) != "" {
		return strings.TrimSpace(dt)
	}
	return strings.TrimSpace(found.Text())
}

func firstText(item *goquery.Selection, selector string) string {
	if selector == "" {
		return ""
	}
	return strings.Join(strings.Fields(item.Find(selector).First().Text()), " ")
}

func absolutize(base *url.URL, href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}

func mergeSelectors(custom *source.Selectors, defaults source.Selectors) source.Selectors {
	if custom == nil {
		return defaults
	}
	out := *custom
	if out.Item == "" {
		out.Item = defaults.Item
	}
	if out.Title == "" {
		out.Title = defaults.Title
	}
	if out.Date == "" {
		out.Date = defaults.Date
	}
	if out.Description == "" {
		out.Description = defaults.Description
	}
	if out.Location == "" {
		out.Location = defaults.Location
	}
	if out.Organizer == "" {
		out.Organizer = defaults.Organizer
	}
	if out.URL == "" {
		out.URL = defaults.URL
	}
	return out
}
