// Package dedup collapses records that describe the same real-world event.
//
// Two records are duplicates when their ids collide, or when a heuristic
// cross-source match fires: same calendar date, start times within a
// tolerance window, and high token-set similarity between normalized
// titles. Merging is field-by-field and never fabricates data; the output
// is deterministic regardless of the order sources finished fetching.
package dedup

import (
	"sort"
	"strings"
	"time"

	"github.com/mutiny19/indy-events/internal/event"
	"github.com/mutiny19/indy-events/internal/logger"
)

// Deduper holds one run's matching policy.
type Deduper struct {
	tolerance time.Duration
	threshold float64
	orderOf   func(source string) int
}

// New creates a Deduper. orderOf maps a source name to its position in the
// registry; it breaks ties between equally complete records so the winner
// never depends on fetch timing.
func New(tolerance time.Duration, threshold float64, orderOf func(string) int) *Deduper {
	return &Deduper{
		tolerance: tolerance,
		threshold: threshold,
		orderOf:   orderOf,
	}
}

// Deduplicate merges duplicate events and returns the surviving records
// sorted by start time. Input order does not affect the result.
func (d *Deduper) Deduplicate(events []*event.Event) []*event.Event {
	// Canonical processing order first, so every collision sees the same
	// pair of candidates in the same roles on every run.
	sorted := make([]*event.Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if oa, ob := d.orderOf(a.Source), d.orderOf(b.Source); oa != ob {
			return oa < ob
		}
		if !a.Start.Equal(b.Start) {
			return a.Start.Before(b.Start)
		}
		return a.ID < b.ID
	})

	var kept []*event.Event
	merged := 0
	for _, ev := range sorted {
		matched := false
		for i, existing := range kept {
			if d.isDuplicate(existing, ev) {
				kept[i] = d.merge(existing, ev)
				matched = true
				merged++
				break
			}
		}
		if !matched {
			kept = append(kept, ev)
		}
	}

	if merged > 0 {
		logger.Info("merged duplicate events", logger.Fields{
			"input":  len(events),
			"merged": merged,
			"output": len(kept),
		})
	}

	sort.SliceStable(kept, func(i, j int) bool {
		if !kept[i].Start.Equal(kept[j].Start) {
			return kept[i].Start.Before(kept[j].Start)
		}
		return kept[i].ID < kept[j].ID
	})
	return kept
}

func (d *Deduper) isDuplicate(a, b *event.Event) bool {
	if a.ID == b.ID {
		return true
	}
	if !sameCalendarDate(a.Start, b.Start) {
		return false
	}
	delta := a.Start.Sub(b.Start)
	if delta < 0 {
		delta = -delta
	}
	if delta > d.tolerance {
		return false
	}

	ta, tb := event.NormalizeTitle(a.Title), event.NormalizeTitle(b.Title)
	if ta == tb {
		return true
	}
	return jaccard(titleTokens(ta), titleTokens(tb)) >= d.threshold
}

// merge combines two duplicates. The more complete record wins whole; the
// tie goes to the source listed earlier in the registry. Either way, fields
// the winner lacks are filled from the loser, observed values only.
func (d *Deduper) merge(a, b *event.Event) *event.Event {
	winner, loser := a, b
	ca, cb := a.Completeness(), b.Completeness()
	if cb > ca || (cb == ca && d.orderOf(b.Source) < d.orderOf(a.Source)) {
		winner, loser = b, a
	}

	out := *winner
	if !out.HasCoordinates() && loser.HasCoordinates() {
		out.Location.Lat, out.Location.Lng = loser.Location.Lat, loser.Location.Lng
	}
	if out.Location.Address == "" {
		out.Location.Address = loser.Location.Address
	}
	if out.Location.Name == "" {
		out.Location.Name = loser.Location.Name
	}
	if out.End == nil {
		out.End = loser.End
	}
	if out.Organizer == "" {
		out.Organizer = loser.Organizer
	}
	if out.URL == "" {
		out.URL = loser.URL
	}
	if len(loser.Description) > len(out.Description) {
		out.Description = loser.Description
	}

	out.Features = orFeatures(out.Features, loser.Features)
	out.Curated = out.Curated || loser.Curated
	return &out
}

// CarryCurated copies the curated flag from the previously published
// dataset onto this run's records with the same id. Curation is a manual
// signal, so it survives runs that re-scrape the event without it.
func CarryCurated(events []*event.Event, previous []event.Event) {
	curated := make(map[string]bool, len(previous))
	for _, prev := range previous {
		if prev.Curated {
			curated[prev.ID] = true
		}
	}
	if len(curated) == 0 {
		return
	}
	for _, ev := range events {
		if curated[ev.ID] {
			ev.Curated = true
		}
	}
}

func orFeatures(a, b event.Features) event.Features {
	return event.Features{
		Free:            a.Free || b.Free,
		Food:            a.Food || b.Food,
		Appetizers:      a.Appetizers || b.Appetizers,
		NonAlcoholDrink: a.NonAlcoholDrink || b.NonAlcoholDrink,
		AlcoholDrink:    a.AlcoholDrink || b.AlcoholDrink,
	}
}

func sameCalendarDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// titleTokens splits a normalized title into its significant words. Short
// tokens carry no signal and only inflate similarity.
func titleTokens(normalized string) map[string]bool {
	tokens := make(map[string]bool)
	for _, tok := range strings.Fields(normalized) {
		if len(tok) > 2 {
			tokens[tok] = true
		}
	}
	return tokens
}

// jaccard is intersection over union of two token sets.
func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	intersection := 0
	for tok := range a {
		if b[tok] {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}
