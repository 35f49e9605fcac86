package geocoder

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/arzan03/devcamper/internal/config"
)

// startFakeMapQuest serves canned geocoding responses keyed by location.
func startFakeMapQuest(t *testing.T) string {
	t.Helper()

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Get("/geocoding/v1/address", func(c *fiber.Ctx) error {
		if c.Query("key") != "test-key" {
			return c.JSON(fiber.Map{"info": fiber.Map{"statuscode": 403, "messages": []string{"bad key"}}})
		}
		switch c.Query("location") {
		case "02215":
			return c.JSON(fiber.Map{
				"info": fiber.Map{"statuscode": 0},
				"results": []fiber.Map{{
					"locations": []fiber.Map{{
						"street":     "",
						"adminArea5": "Boston",
						"adminArea3": "MA",
						"adminArea1": "US",
						"postalCode": "02215",
						"latLng":     fiber.Map{"lat": 42.3472, "lng": -71.1024},
					}},
				}},
			})
		default:
			return c.JSON(fiber.Map{"info": fiber.Map{"statuscode": 0}, "results": []fiber.Map{}})
		}
	})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.Shutdown() })

	return "http://" + ln.Addr().String() + "/geocoding/v1/address"
}

func TestGeocode(t *testing.T) {
	base := startFakeMapQuest(t)
	g := NewMapQuest(config.GeocoderConfig{BaseURL: base, APIKey: "test-key", Timeout: 2 * time.Second})

	loc, err := g.Geocode(context.Background(), "02215")
	if err != nil {
		t.Fatalf("Geocode: %v", err)
	}

	if loc.Type != "Point" || len(loc.Coordinates) != 2 {
		t.Fatalf("location = %+v, want a GeoJSON point", loc)
	}
	if loc.Coordinates[0] != -71.1024 || loc.Coordinates[1] != 42.3472 {
		t.Errorf("coordinates = %v, want [lng lat]", loc.Coordinates)
	}
	if loc.City != "Boston" || loc.State != "MA" || loc.Zipcode != "02215" {
		t.Errorf("address parts = %+v", loc)
	}
	if loc.FormattedAddress != "Boston, MA, 02215, US" {
		t.Errorf("FormattedAddress = %q", loc.FormattedAddress)
	}
}

func TestGeocodeNoResults(t *testing.T) {
	base := startFakeMapQuest(t)
	g := NewMapQuest(config.GeocoderConfig{BaseURL: base, APIKey: "test-key", Timeout: 2 * time.Second})

	if _, err := g.Geocode(context.Background(), "99999"); !errors.Is(err, ErrNoResults) {
		t.Fatalf("err = %v, want ErrNoResults", err)
	}
}

func TestGeocodeProviderError(t *testing.T) {
	base := startFakeMapQuest(t)
	g := NewMapQuest(config.GeocoderConfig{BaseURL: base, APIKey: "wrong", Timeout: 2 * time.Second})

	if _, err := g.Geocode(context.Background(), "02215"); err == nil {
		t.Fatal("expected error for rejected key")
	}
}
