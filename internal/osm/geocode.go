package osm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const geocoderUserAgent = "parkscan/1.0 (parking capacity estimation)"

// Geocoder resolves place names to coordinates via Nominatim.
type Geocoder struct {
	endpoint string
	client   *http.Client
}

// NewGeocoder returns a geocoder against the given Nominatim endpoint.
func NewGeocoder(endpoint string) *Geocoder {
	return &Geocoder{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 15 * time.Second},
	}
}

// Geocode returns the coordinates of the best match for a place name.
func (g *Geocoder) Geocode(ctx context.Context, place string) (lat, lon float64, err error) {
	params := url.Values{}
	params.Set("q", place)
	params.Set("format", "json")
	params.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return 0, 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", geocoderUserAgent)

	resp, err := g.client.Do(req)
	if err != nil {
		return 0, 0, fmt.Errorf("geocode %q: %w", place, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, 0, fmt.Errorf("geocode %q: unexpected status %d", place, resp.StatusCode)
	}

	var results []struct {
		Lat         string `json:"lat"`
		Lon         string `json:"lon"`
		DisplayName string `json:"display_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return 0, 0, fmt.Errorf("decode geocode response: %w", err)
	}
	if len(results) == 0 {
		return 0, 0, fmt.Errorf("no result found for place %q", place)
	}

	lat, err = strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("parse latitude %q: %w", results[0].Lat, err)
	}
	lon, err = strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("parse longitude %q: %w", results[0].Lon, err)
	}
	return lat, lon, nil
}
