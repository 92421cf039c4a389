package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"aviaskill/internal/config"

	"github.com/sirupsen/logrus"
)

// CityEntry is one record of the cities reference feed.
type CityEntry struct {
	Code string `json:"code"`
	// Name is nullable in the feed; records without a usable name are
	// skipped.
	Name  *string           `json:"name"`
	Cases map[string]string `json:"cases"`
}

// AirlineEntry is one record of the airlines reference feed.
type AirlineEntry struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// CityMatch is one token of an utterance recognized as a city: the
// stable code plus the exact lower-cased surface form that matched.
type CityMatch struct {
	Code    string
	Surface string
}

// Catalog resolves free-text city and airline names to stable codes
// and back. It is built once at startup and read-only afterwards, so
// concurrent request handlers can share it without locking.
type Catalog struct {
	cityCodes map[string]string // lower-cased name or case form -> city code
	cityNames map[string]string // city code -> canonical name
	locative  map[string]string // city code -> genitive display form
	airlines  map[string]string // airline code -> display name
}

// NewCatalog builds a catalog from already-fetched reference entries.
func NewCatalog(cities []CityEntry, airlines []AirlineEntry) *Catalog {
	c := &Catalog{
		cityCodes: make(map[string]string),
		cityNames: make(map[string]string),
		locative:  make(map[string]string),
		airlines:  make(map[string]string),
	}

	for _, city := range cities {
		if city.Name == nil || *city.Name == "" {
			continue
		}
		name := *city.Name

		c.cityNames[city.Code] = name
		c.cityCodes[strings.ToLower(name)] = city.Code

		for _, form := range city.Cases {
			c.cityCodes[strings.ToLower(form)] = city.Code
		}

		// Genitive form is used for "flights from X" phrasing; fall
		// back to the canonical name when the feed has none.
		if ro, ok := city.Cases["ro"]; ok {
			c.locative[city.Code] = ro
		} else {
			c.locative[city.Code] = name
		}
	}

	for _, airline := range airlines {
		c.airlines[airline.Code] = airline.Name
	}

	return c
}

// ResolveCity maps a city name in any registered grammatical case to
// its code. Matching is case-insensitive.
func (c *Catalog) ResolveCity(text string) (string, bool) {
	code, ok := c.cityCodes[strings.ToLower(text)]
	return code, ok
}

// CityName returns the canonical display name for a city code.
func (c *Catalog) CityName(code string) (string, bool) {
	name, ok := c.cityNames[code]
	return name, ok
}

// LocativeForm returns the genitive display form for a city code, or
// the canonical name when no genitive form was supplied. Unknown codes
// yield an empty string.
func (c *Catalog) LocativeForm(code string) string {
	return c.locative[code]
}

// AirlineName returns the display name for an airline code.
func (c *Catalog) AirlineName(code string) (string, bool) {
	name, ok := c.airlines[code]
	return name, ok
}

// FindCities scans tokens in order and returns every one that is a
// registered city name or case form. Duplicates are kept: two mentions
// of the same city count as two cities.
func (c *Catalog) FindCities(tokens []string) []CityMatch {
	var matches []CityMatch
	for _, token := range tokens {
		lower := strings.ToLower(token)
		if code, ok := c.cityCodes[lower]; ok {
			matches = append(matches, CityMatch{Code: code, Surface: lower})
		}
	}
	return matches
}

// LoadCatalog fetches the city and airline reference feeds and builds
// the catalog. Any failure here is fatal to startup: the skill cannot
// resolve a single utterance without reference data.
func LoadCatalog(ctx context.Context, cfg *config.CatalogConfig) (*Catalog, error) {
	client := &http.Client{
		Timeout: time.Duration(cfg.Timeout) * time.Second,
	}

	var cities []CityEntry
	if err := fetchJSON(ctx, client, cfg.CitiesURL, &cities); err != nil {
		return nil, fmt.Errorf("failed to load cities reference: %w", err)
	}

	var airlines []AirlineEntry
	if err := fetchJSON(ctx, client, cfg.AirlinesURL, &airlines); err != nil {
		return nil, fmt.Errorf("failed to load airlines reference: %w", err)
	}

	catalog := NewCatalog(cities, airlines)
	logrus.WithFields(logrus.Fields{
		"city_forms": len(catalog.cityCodes),
		"airlines":   len(catalog.airlines),
	}).Info("Reference catalog loaded")

	return catalog, nil
}

func fetchJSON(ctx context.Context, client *http.Client, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build request for %s: %w", url, err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("request to %s returned status %d", url, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", url, err)
	}
	return nil
}
