// Package adapter converts raw source content into Raw event records.
//
// One adapter variant exists per source kind: feed parses ICS calendars and
// expands recurrences up to a forward horizon; listing applies structural CSS
// selectors to html, search, and rendered pages. A malformed listing item is
// skipped and counted, never fatal to the batch, and a selector matching zero
// blocks is a soft failure surfaced for human follow-up.
package adapter

import (
	"fmt"
	"time"

	"github.com/mutiny19/indy-events/internal/event"
	"github.com/mutiny19/indy-events/internal/source"
)

// Options carries the parse policy shared by all adapter variants.
type Options struct {
	// Location is the fixed reference zone for timestamps the adapter
	// itself resolves (ICS feeds carry absolute times).
	Location *time.Location
	// Now is injectable for tests; defaults to time.Now.
	Now func() time.Time
	// HorizonDays bounds recurring-event expansion into the future.
	HorizonDays int
	// MaxItems caps listings taken from one page when the source does not
	// set its own cap.
	MaxItems int
}

func (o Options) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

func (o Options) location() *time.Location {
	if o.Location != nil {
		return o.Location
	}
	return time.UTC
}

func (o Options) maxItems(src source.Source) int {
	if src.MaxItems > 0 {
		return src.MaxItems
	}
	if o.MaxItems > 0 {
		return o.MaxItems
	}
	return 15
}

// Result is the outcome of parsing one source's content.
type Result struct {
	Records []event.Raw
	// Skipped counts malformed listing items dropped from the batch.
	Skipped int
	// StructuralMiss is set when the content parsed but the item selector
	// matched nothing, the usual signature of a site redesign.
	StructuralMiss bool
}

// Adapter parses raw content from one source into Raw event records.
type Adapter interface {
	Parse(src source.Source, body []byte) (Result, error)
}

// ForKind returns the adapter variant for a source kind. Adding a source
// kind means adding a variant here, not branching inside existing adapters.
func ForKind(kind source.Kind, opts Options) (Adapter, error) {
	switch kind {
	case source.KindFeed:
		return &FeedAdapter{opts: opts}, nil
	case source.KindHTML, source.KindRendered, source.KindSearch:
		return &ListingAdapter{opts: opts}, nil
	default:
		return nil, fmt.Errorf("no adapter for source kind %q", kind)
	}
}
