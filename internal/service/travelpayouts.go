package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"aviaskill/internal/config"
	"aviaskill/internal/model"
	"aviaskill/internal/utils"

	"github.com/sirupsen/logrus"
)

// FaresClient is a thin typed client over the four Travelpayouts
// fare-search operations. A transport failure, a non-2xx status or an
// unsuccessful payload all collapse to "no data" (nil result, nil
// error): a single turn never retries and never surfaces gateway
// problems to the user. Errors are reserved for payloads the caller
// cannot act on (unexpected shape), which the composer maps to its
// fallback reply.
type FaresClient struct {
	cfg        *config.TravelpayoutsConfig
	httpClient *http.Client
	// now is stubbed in tests
	now func() time.Time
}

// NewFaresClient creates a fare-search client with a bounded per-call
// timeout from config.
func NewFaresClient(cfg *config.TravelpayoutsConfig) *FaresClient {
	return &FaresClient{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
		now: time.Now,
	}
}

// CheapestToday looks up the calendar of fares departing today and
// returns the fare at the first entry of the response in document
// order. That entry is not necessarily the lowest-priced one; the
// profile of the upstream endpoint puts the relevant fare first and
// this client takes it as returned.
func (c *FaresClient) CheapestToday(ctx context.Context, origin, destination string) (*model.Fare, error) {
	if origin == "" || destination == "" {
		return nil, nil
	}

	params := url.Values{}
	params.Set("origin", origin)
	params.Set("destination", destination)
	params.Set("depart_date", c.now().Format("2006-01-02"))

	data, ok := c.get(ctx, "/v1/prices/calendar", params)
	if !ok {
		return nil, nil
	}

	entries, err := utils.ObjectMembers(data)
	if err != nil {
		return nil, fmt.Errorf("unexpected calendar payload: %w", err)
	}
	if len(entries) == 0 {
		return nil, nil
	}

	var fare model.Fare
	if err := json.Unmarshal(entries[0].Value, &fare); err != nil {
		return nil, fmt.Errorf("failed to decode calendar fare: %w", err)
	}
	return &fare, nil
}

// MonthPrices returns every daily offer between the two cities for the
// month starting today. The caller reduces the slice as needed.
func (c *FaresClient) MonthPrices(ctx context.Context, origin, destination string) ([]model.MonthPrice, error) {
	if origin == "" || destination == "" {
		return nil, nil
	}

	params := url.Values{}
	params.Set("origin", origin)
	params.Set("destination", destination)
	params.Set("month", c.now().Format("2006-01-02"))

	data, ok := c.get(ctx, "/v2/prices/month-matrix", params)
	if !ok {
		return nil, nil
	}

	var offers []model.MonthPrice
	if err := json.Unmarshal(data, &offers); err != nil {
		return nil, fmt.Errorf("failed to decode month matrix: %w", err)
	}
	return offers, nil
}

// CheapestByTransfers returns the cheapest fare per transfer tier
// (0, 1 and 2 transfers) between the two cities. A payload without an
// entry for the destination is reported as an error, not as absence:
// it means the endpoint answered with something the dialog cannot
// phrase a reply from.
func (c *FaresClient) CheapestByTransfers(ctx context.Context, origin, destination string) (map[int]model.Fare, error) {
	if origin == "" || destination == "" {
		return nil, nil
	}

	params := url.Values{}
	params.Set("origin", origin)
	params.Set("destination", destination)

	data, ok := c.get(ctx, "/v1/prices/cheap", params)
	if !ok {
		return nil, nil
	}

	var byDest map[string]map[string]model.Fare
	if err := json.Unmarshal(data, &byDest); err != nil {
		return nil, fmt.Errorf("failed to decode cheap prices: %w", err)
	}

	tiers, found := byDest[destination]
	if !found {
		return nil, fmt.Errorf("cheap prices payload has no entry for %s", destination)
	}

	fares := make(map[int]model.Fare, len(tiers))
	for key, fare := range tiers {
		transfers, err := strconv.Atoi(key)
		if err != nil {
			continue
		}
		fares[transfers] = fare
	}
	return fares, nil
}

// PopularFrom returns popular directions out of the origin city,
// preserving the order the endpoint returned them in.
func (c *FaresClient) PopularFrom(ctx context.Context, origin string) ([]model.Direction, error) {
	if origin == "" {
		return nil, nil
	}

	params := url.Values{}
	params.Set("origin", origin)

	data, ok := c.get(ctx, "/v1/city-directions", params)
	if !ok {
		return nil, nil
	}

	entries, err := utils.ObjectMembers(data)
	if err != nil {
		return nil, fmt.Errorf("unexpected city-directions payload: %w", err)
	}

	directions := make([]model.Direction, 0, len(entries))
	for _, entry := range entries {
		var fare model.Fare
		if err := json.Unmarshal(entry.Value, &fare); err != nil {
			return nil, fmt.Errorf("failed to decode direction %s: %w", entry.Key, err)
		}
		directions = append(directions, model.Direction{Destination: entry.Key, Fare: fare})
	}
	return directions, nil
}

// apiEnvelope is the common response wrapper of the fare endpoints.
type apiEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
}

// get performs one fare-search call and returns the data payload.
// ok is false when the endpoint is unreachable, answers non-2xx or
// marks the payload unsuccessful; those cases are logged and otherwise
// indistinguishable from "no fares exist".
func (c *FaresClient) get(ctx context.Context, path string, params url.Values) (json.RawMessage, bool) {
	params.Set("token", c.cfg.Token)
	endpoint := c.cfg.APIBase + path + "?" + params.Encode()

	logrus.WithFields(logrus.Fields{
		"path":        path,
		"origin":      params.Get("origin"),
		"destination": params.Get("destination"),
	}).Info("Querying fare API")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		logrus.WithError(err).WithField("path", path).Warn("Failed to build fare API request")
		return nil, false
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logrus.WithError(err).WithField("path", path).Warn("Fare API unreachable")
		return nil, false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logrus.WithFields(logrus.Fields{
			"path":   path,
			"status": resp.StatusCode,
		}).Warn("Fare API returned error status")
		return nil, false
	}

	var envelope apiEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		logrus.WithError(err).WithField("path", path).Warn("Failed to decode fare API response")
		return nil, false
	}

	if !envelope.Success {
		logrus.WithField("path", path).Warn("Fare API reported unsuccessful query")
		return nil, false
	}

	return envelope.Data, true
}
