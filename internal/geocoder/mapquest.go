// Package geocoder resolves postal codes and street addresses to
// coordinates through the MapQuest geocoding API.
package geocoder

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"

	"github.com/arzan03/devcamper/internal/config"
	"github.com/arzan03/devcamper/internal/models"
)

var ErrNoResults = errors.New("geocoder returned no results")

// MapQuest is a geocoder backed by the MapQuest v1 address endpoint.
type MapQuest struct {
	client  *fiber.Client
	baseURL string
	apiKey  string
	timeout time.Duration
}

func NewMapQuest(cfg config.GeocoderConfig) *MapQuest {
	return &MapQuest{
		client:  &fiber.Client{JSONDecoder: json.Unmarshal, JSONEncoder: json.Marshal},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		timeout: cfg.Timeout,
	}
}

type mapQuestResponse struct {
	Info struct {
		StatusCode int      `json:"statuscode"`
		Messages   []string `json:"messages"`
	} `json:"info"`
	Results []struct {
		Locations []struct {
			Street     string `json:"street"`
			City       string `json:"adminArea5"`
			State      string `json:"adminArea3"`
			Country    string `json:"adminArea1"`
			PostalCode string `json:"postalCode"`
			LatLng     struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"latLng"`
		} `json:"locations"`
	} `json:"results"`
}

// Geocode resolves address (a postal code or a full street address) to the
// best matching location.
func (m *MapQuest) Geocode(ctx context.Context, address string) (*models.Location, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("key", m.apiKey)
	params.Set("location", address)
	params.Set("maxResults", "1")

	agent := m.client.Get(m.baseURL).QueryString(params.Encode())
	if m.timeout > 0 {
		agent = agent.Timeout(m.timeout)
	}

	var resp mapQuestResponse
	code, _, errs := agent.Struct(&resp)
	if len(errs) > 0 {
		return nil, fmt.Errorf("geocode %q: %w", address, errors.Join(errs...))
	}
	if code != fiber.StatusOK {
		return nil, fmt.Errorf("geocode %q: unexpected status %d", address, code)
	}
	if resp.Info.StatusCode != 0 {
		return nil, fmt.Errorf("geocode %q: %s", address, strings.Join(resp.Info.Messages, "; "))
	}
	if len(resp.Results) == 0 || len(resp.Results[0].Locations) == 0 {
		return nil, ErrNoResults
	}

	loc := resp.Results[0].Locations[0]
	point := models.NewPoint(loc.LatLng.Lng, loc.LatLng.Lat)
	point.Street = loc.Street
	point.City = loc.City
	point.State = loc.State
	point.Zipcode = loc.PostalCode
	point.Country = loc.Country
	point.FormattedAddress = formatAddress(loc.Street, loc.City, loc.State, loc.PostalCode, loc.Country)
	return point, nil
}

func formatAddress(parts ...string) string {
	nonEmpty := parts[:0:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, ", ")
}
