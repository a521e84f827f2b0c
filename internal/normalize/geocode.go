package normalize

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/mutiny19/indy-events/internal/logger"
)

// Coordinates is a successful geocoding result.
type Coordinates struct {
	Lat float64
	Lng float64
}

// Geocoder resolves an address to coordinates, best effort. A nil result
// with nil error means "not found"; the caller never rejects a record over
// missing coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*Coordinates, error)
}

// NominatimGeocoder resolves addresses against a Nominatim-compatible
// endpoint. Requests are rate limited to one per second per the public
// instance's usage policy, and results are cached for the run so repeated
// venues cost one lookup.
type NominatimGeocoder struct {
	client     *http.Client
	endpoint   string
	userAgent  string
	regionBias string
	limiter    *rate.Limiter
	cache      map[string]*Coordinates
}

// NewNominatim creates a geocoder against the given search endpoint.
// contact is embedded in the User-Agent as the policy asks.
func NewNominatim(endpoint, contact, regionBias string) *NominatimGeocoder {
	return &NominatimGeocoder{
		client:     &http.Client{Timeout: 10 * time.Second},
		endpoint:   endpoint,
		userAgent:  fmt.Sprintf("indy-events/1.0 (contact: %s)", contact),
		regionBias: regionBias,
		limiter:    rate.NewLimiter(rate.Every(time.Second), 1),
		cache:      make(map[string]*Coordinates),
	}
}

type nominatimResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Geocode resolves one address. Failures are reported as errors so the
// caller can log and continue without coordinates.
func (g *NominatimGeocoder) Geocode(ctx context.Context, address string) (*Coordinates, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, nil
	}

	cacheKey := strings.ToLower(address)
	if coords, ok := g.cache[cacheKey]; ok {
		return coords, nil
	}

	if err := g.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	query := address
	if g.regionBias != "" && !strings.Contains(cacheKey, strings.ToLower(g.regionBias)) {
		query = address + ", " + g.regionBias
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", g.userAgent)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocoding %q: %w", address, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocoding %q: unexpected status code: %d", address, resp.StatusCode)
	}

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("decoding geocode response: %w", err)
	}
	if len(results) == 0 {
		g.cache[cacheKey] = nil
		return nil, nil
	}

	lat, latErr := strconv.ParseFloat(results[0].Lat, 64)
	lng, lngErr := strconv.ParseFloat(results[0].Lon, 64)
	if latErr != nil || lngErr != nil {
		return nil, fmt.Errorf("geocoding %q: malformed coordinates in response", address)
	}

	coords := &Coordinates{Lat: lat, Lng: lng}
	g.cache[cacheKey] = coords
	logger.Debug("geocoded address", logger.Fields{"address": address, "lat": lat, "lng": lng})
	return coords, nil
}
