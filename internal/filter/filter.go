// Package filter decides which raw records are relevant enough to keep.
//
// The registry can carry two keyword lists: `keywords` (at least one must
// appear in a record's text for it to pass) and `excluded_keywords` (any
// hit drops the record regardless of the inclusion list). Matching is
// case-insensitive substring over title plus description. An empty
// inclusion list passes everything not explicitly excluded.
//
// Example usage:
//
//	f := filter.New([]string{"startup", "founder"}, []string{"webinar"})
//	kept := f.Apply(records)
package filter

import (
	"strings"

	"github.com/mutiny19/indy-events/internal/event"
)

// Filter holds the relevance criteria for one run.
type Filter struct {
	keywords []string
	excluded []string
}

// New creates a Filter. Keyword lists are lowercased once up front.
func New(keywords, excluded []string) *Filter {
	return &Filter{
		keywords: lowerAll(keywords),
		excluded: lowerAll(excluded),
	}
}

// IsEmpty reports whether the filter has no active criteria.
func (f *Filter) IsEmpty() bool {
	return len(f.keywords) == 0 && len(f.excluded) == 0
}

// Matches reports whether a record passes the relevance criteria.
// Exclusions are checked first and always win.
func (f *Filter) Matches(rec event.Raw) bool {
	text := strings.ToLower(rec.Title + " " + rec.Description)

	for _, kw := range f.excluded {
		if strings.Contains(text, kw) {
			return false
		}
	}

	if len(f.keywords) == 0 {
		return true
	}
	for _, kw := range f.keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// Apply returns the records that pass the filter. An empty filter returns
// the input unchanged.
func (f *Filter) Apply(records []event.Raw) []event.Raw {
	if f.IsEmpty() {
		return records
	}

	kept := records[:0:0]
	for _, rec := range records {
		if f.Matches(rec) {
			kept = append(kept, rec)
		}
	}
	return kept
}

func lowerAll(list []string) []string {
	out := make([]string, 0, len(list))
	for _, s := range list {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
