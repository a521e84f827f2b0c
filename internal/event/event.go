package event

import (
	"crypto/sha1"
	"fmt"
	"strings"
	"time"
	"unicode"
)

// Raw is the unnormalized field bag produced by one adapter for one listing.
// Only Title and Source are guaranteed to be populated; everything else is
// best effort and stays internal to the pipeline.
type Raw struct {
	Title        string
	Description  string
	DateText     string
	EndDateText  string
	LocationText string
	VenueName    string
	Lat          *float64
	Lng          *float64
	Organizer    string
	URL          string
	Source       string
	Curated      bool
}

// Location is a resolved event venue. Coordinates are optional; an event
// without them is kept in the list view but omitted from the map.
type Location struct {
	Name    string   `json:"name"`
	Address string   `json:"address"`
	Lat     *float64 `json:"lat,omitempty"`
	Lng     *float64 `json:"lng,omitempty"`
}

// Features are the boolean attributes inferred from the event's free text.
// Each dimension is computed independently; absence of keywords yields false.
type Features struct {
	Free            bool `json:"free"`
	Food            bool `json:"food"`
	Appetizers      bool `json:"appetizers"`
	NonAlcoholDrink bool `json:"nonAlcoholDrinks"`
	AlcoholDrink    bool `json:"alcoholDrinks"`
}

// Event is the canonical, deduplicated representation of one real-world event.
// Start/End marshal as RFC 3339 under the wire names the front end expects.
type Event struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Start       time.Time  `json:"date"`
	End         *time.Time `json:"endDate,omitempty"`
	Location    Location   `json:"location"`
	Organizer   string     `json:"organizer,omitempty"`
	URL         string     `json:"url,omitempty"`
	Features    Features   `json:"features"`
	Source      string     `json:"source"`
	Curated     bool       `json:"curated,omitempty"`
}

// NormalizeTitle lowercases a title and strips punctuation so that
// "Founder Mixer!!" and "founder mixer" compare equal. Used both for ID
// derivation and for the dedup similarity comparison.
func NormalizeTitle(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// GenerateID derives a stable identifier from the source name, normalized
// title, and start date. Repeated runs over the same content produce the same
// ID for the same logical event.
func GenerateID(source, title string, start time.Time) string {
	h := sha1.New()
	fmt.Fprintf(h, "%s|%s|%s", source, NormalizeTitle(title), start.Format("2006-01-02"))
	return fmt.Sprintf("%x", h.Sum(nil))
}

// Completeness counts how many optional fields an event has populated.
// The merger prefers the more complete record on a dedup collision.
func (e *Event) Completeness() int {
	n := 0
	if e.Location.Lat != nil && e.Location.Lng != nil {
		n++
	}
	if e.End != nil {
		n++
	}
	if e.Organizer != "" {
		n++
	}
	if e.URL != "" {
		n++
	}
	if e.Description != "" && e.Description != e.Title {
		n++
	}
	return n
}

// HasCoordinates reports whether the event can be placed on the map.
func (e *Event) HasCoordinates() bool {
	return e.Location.Lat != nil && e.Location.Lng != nil
}
