// Package source holds the source registry: one descriptor per upstream
// origin of event listings, loaded from sources.json. The registry is pure
// configuration; the only behavior is validation and the config-order lookup
// used as the deterministic dedup tie-break.
package source

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strings"
)

// Kind is the fetch/parse strategy for a source.
type Kind string

const (
	// KindFeed is a structured calendar feed (ICS).
	KindFeed Kind = "feed"
	// KindHTML is a server-rendered page scraped with structural selectors.
	KindHTML Kind = "html"
	// KindRendered is a page whose DOM is built client-side and needs a
	// headless browser before extraction.
	KindRendered Kind = "rendered"
	// KindSearch is a search-style listing page (e.g. Eventbrite results).
	KindSearch Kind = "search"
)

// Selectors are the structural CSS selectors used to extract repeated
// listing blocks from html/search/rendered sources. Empty fields fall back
// to per-kind defaults in the adapter.
type Selectors struct {
	Item        string `json:"item,omitempty"`
	Title       string `json:"title,omitempty"`
	Date        string `json:"date,omitempty"`
	EndDate     string `json:"end_date,omitempty"`
	Description string `json:"description,omitempty"`
	Location    string `json:"location,omitempty"`
	Organizer   string `json:"organizer,omitempty"`
	URL         string `json:"url,omitempty"`
}

// Venue is a fixed location for sources that always host at one address.
type Venue struct {
	Name    string   `json:"name"`
	Address string   `json:"address"`
	Lat     *float64 `json:"lat,omitempty"`
	Lng     *float64 `json:"lng,omitempty"`
}

// Source describes one upstream origin of event listings.
type Source struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
	// Enabled defaults to true when omitted, matching historical configs.
	Enabled *bool `json:"enabled,omitempty"`

	// Render forces the headless-browser fetcher for "custom" sources.
	// Setting WaitSelector implies it.
	Render bool `json:"render,omitempty"`
	// WaitSelector is the content-ready condition the renderer waits for.
	WaitSelector string `json:"wait_selector,omitempty"`

	Selectors *Selectors `json:"selectors,omitempty"`
	Venue     *Venue     `json:"venue,omitempty"`
	Organizer string     `json:"organizer,omitempty"`
	// MaxItems caps listings taken from this source; 0 uses the global cap.
	MaxItems int `json:"max_items,omitempty"`
	// Curated marks events from this source as manually vetted.
	Curated bool `json:"curated,omitempty"`
}

// IsEnabled reports whether the source should be fetched this run.
func (s *Source) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

// Kind maps the configured type string onto the fetch/parse strategy.
func (s *Source) Kind() Kind {
	switch s.Type {
	case "ical":
		return KindFeed
	case "eventbrite_search":
		return KindSearch
	case "custom":
		if s.Render || s.WaitSelector != "" {
			return KindRendered
		}
		return KindHTML
	default:
		return ""
	}
}

// Registry is the full parsed sources.json: the ordered source list plus the
// optional relevance keyword lists applied to scraped titles.
type Registry struct {
	Sources          []Source `json:"sources"`
	Keywords         []string `json:"keywords,omitempty"`
	ExcludedKeywords []string `json:"excluded_keywords,omitempty"`

	order map[string]int
}

// Load reads and validates a registry from the given JSON path.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading sources: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates registry JSON.
func Parse(data []byte) (*Registry, error) {
	var reg Registry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parsing sources: %w", err)
	}
	if err := reg.validate(); err != nil {
		return nil, err
	}

	reg.order = make(map[string]int, len(reg.Sources))
	for i, src := range reg.Sources {
		reg.order[src.Name] = i
	}
	return &reg, nil
}

func (r *Registry) validate() error {
	if len(r.Sources) == 0 {
		return fmt.Errorf("sources: at least one source is required")
	}

	seen := make(map[string]bool, len(r.Sources))
	for i, src := range r.Sources {
		if strings.TrimSpace(src.Name) == "" {
			return fmt.Errorf("sources[%d]: name is required", i)
		}
		if seen[src.Name] {
			return fmt.Errorf("sources[%d]: duplicate name %q", i, src.Name)
		}
		seen[src.Name] = true

		if src.Kind() == "" {
			return fmt.Errorf("sources[%d] %q: unknown type %q", i, src.Name, src.Type)
		}

		u, err := url.Parse(src.URL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("sources[%d] %q: invalid url %q", i, src.Name, src.URL)
		}
	}
	return nil
}

// Enabled returns the sources to fetch this run, in configuration order.
func (r *Registry) Enabled() []Source {
	out := make([]Source, 0, len(r.Sources))
	for _, src := range r.Sources {
		if src.IsEnabled() {
			out = append(out, src)
		}
	}
	return out
}

// Order returns the configuration position of a source name. Unknown names
// sort last so merge tie-breaks stay deterministic even for stale data.
func (r *Registry) Order(name string) int {
	if i, ok := r.order[name]; ok {
		return i
	}
	return len(r.Sources)
}
