package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"
)

const googleBaseURL = "https://maps.googleapis.com/maps/api/geocode/json"

// GoogleClient usa la API de Geocoding de Google Maps.
type GoogleClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewGoogleClient(apiKey, baseURL string) *GoogleClient {
	if baseURL == "" {
		baseURL = googleBaseURL
	}
	return &GoogleClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *GoogleClient) Name() string { return "google" }

func (c *GoogleClient) ReverseGeocode(ctx context.Context, lat, lng float64) (*Result, error) {
	q := url.Values{}
	q.Set("latlng", fmt.Sprintf("%f,%f", lat, lng))
	q.Set("key", c.apiKey)
	q.Set("language", "es")
	q.Set("region", "mx")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error request google maps: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("google maps respondió %d: %s", resp.StatusCode, string(body))
	}

	var data googleResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("error decode google maps: %w", err)
	}

	if data.Status != "OK" && data.Status != "ZERO_RESULTS" {
		return nil, fmt.Errorf("google maps error: %s - %s", data.Status, data.ErrorMessage)
	}
	if len(data.Results) == 0 {
		return &Result{}, nil
	}

	return parseGoogleResult(data.Results[0]), nil
}

// parseGoogleResult toma el primer resultado (el más preciso) y extrae los componentes.
func parseGoogleResult(r googleResult) *Result {
	var city, zone, postal string

	for _, comp := range r.AddressComponents {
		has := func(t string) bool { return slices.Contains(comp.Types, t) }

		if has("postal_code") && postal == "" {
			postal = comp.LongName
		}

		if has("locality") && city == "" {
			city = comp.LongName
		} else if has("administrative_area_level_2") && city == "" {
			city = comp.LongName
		}

		switch {
		case has("sublocality") || has("sublocality_level_1"):
			zone = comp.LongName
		case has("neighborhood") && zone == "":
			zone = comp.LongName
		case has("administrative_area_level_3") && zone == "":
			// En CDMX suele ser la alcaldía
			zone = comp.LongName
		}
	}

	if city != "" {
		city = normalizeCity(city)
	}
	if zone != "" {
		zone = normalizeZone(zone)
	}
	if zone == "" && r.FormattedAddress != "" && strings.Contains(city, "Ciudad de México") {
		zone = zoneFromAddress(r.FormattedAddress)
	}

	return &Result{
		City:        city,
		SubCityZone: zone,
		PostalCode:  postal,
		Address:     r.FormattedAddress,
	}
}
