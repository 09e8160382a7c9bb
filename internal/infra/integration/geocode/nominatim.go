package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const nominatimBaseURL = "https://nominatim.openstreetmap.org/reverse"

// NominatimClient usa OpenStreetMap Nominatim; no requiere API key.
type NominatimClient struct {
	baseURL string
	http    *http.Client
}

func NewNominatimClient(baseURL string) *NominatimClient {
	if baseURL == "" {
		baseURL = nominatimBaseURL
	}
	return &NominatimClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *NominatimClient) Name() string { return "openstreetmap" }

func (c *NominatimClient) ReverseGeocode(ctx context.Context, lat, lng float64) (*Result, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lng, 'f', -1, 64))
	q.Set("format", "json")
	q.Set("addressdetails", "1")
	q.Set("accept-language", "es")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	// Nominatim exige un User-Agent identificable
	req.Header.Set("User-Agent", "SumeeApp/1.0")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error request nominatim: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("nominatim respondió %d", resp.StatusCode)
	}

	var data nominatimResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("error decode nominatim: %w", err)
	}

	if len(data.Address) == 0 {
		return &Result{Address: data.DisplayName}, nil
	}

	city := firstNonEmpty(data.Address, "city", "town", "municipality", "county")
	zone := firstNonEmpty(data.Address, "suburb", "neighbourhood", "quarter")

	res := &Result{
		PostalCode: data.Address["postcode"],
		Address:    data.DisplayName,
	}
	if city != "" {
		res.City = normalizeCity(city)
	}
	if zone != "" {
		res.SubCityZone = normalizeZone(zone)
	}
	return res, nil
}

func firstNonEmpty(m map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := m[k]; v != "" {
			return v
		}
	}
	return ""
}
