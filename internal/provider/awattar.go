// Package provider contains the thin HTTP adapters for upstream pricing
// providers. Each adapter maps one provider API onto the narrow source
// interfaces in the pricing package and carries no pricing logic itself.
package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"charge-costs/internal/pricing"
)

// AwattarOptions parameterise the aWATTar market data adapter.
type AwattarOptions struct {
	BaseURL string
	Timeout time.Duration
}

// Awattar fetches hourly spot market prices from the aWATTar public API.
type Awattar struct {
	opts   AwattarOptions
	logger zerolog.Logger
	client *http.Client
}

// NewAwattar builds a new aWATTar price source.
func NewAwattar(opts AwattarOptions, logger zerolog.Logger) *Awattar {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Awattar{
		opts:   opts,
		logger: logger.With().Str("component", "awattar").Logger(),
		client: &http.Client{Timeout: timeout},
	}
}

type awattarPrice struct {
	MarketPrice    float64 `json:"marketprice"`
	Unit           string  `json:"unit"`
	StartTimestamp int64   `json:"start_timestamp"`
	EndTimestamp   int64   `json:"end_timestamp"`
}

type awattarResponse struct {
	Data []awattarPrice `json:"data"`
}

// GetPriceData retrieves market prices covering [from, to]. The request is
// widened by an hour on both sides so the boundary intervals are included.
// aWATTar quotes Eur/MWh; values are converted to Eur/kWh.
func (a *Awattar) GetPriceData(ctx context.Context, from, to time.Time) ([]pricing.Price, error) {
	if a.opts.BaseURL == "" {
		return nil, errors.New("awattar base url not configured")
	}

	query := url.Values{}
	query.Set("start", fmt.Sprintf("%d", from.Add(-time.Hour).UnixMilli()))
	query.Set("end", fmt.Sprintf("%d", to.Add(time.Hour).UnixMilli()))
	endpoint := fmt.Sprintf("%s/marketdata?%s", a.opts.BaseURL, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("awattar request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("awattar returned status %d", resp.StatusCode)
	}

	var payload awattarResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode awattar response: %w", err)
	}

	prices := make([]pricing.Price, 0, len(payload.Data))
	for _, p := range payload.Data {
		if p.Unit != "Eur/MWh" {
			return nil, fmt.Errorf("unknown price unit from awattar: %q", p.Unit)
		}
		prices = append(prices, pricing.Price{
			ValidFrom: time.UnixMilli(p.StartTimestamp).UTC(),
			ValidTo:   time.UnixMilli(p.EndTimestamp).UTC(),
			Value:     decimal.NewFromFloat(p.MarketPrice).Div(decimal.NewFromInt(1000)),
		})
	}

	a.logger.Debug().Int("intervals", len(prices)).Msg("fetched awattar prices")
	return prices, nil
}

var _ pricing.IntervalSource = (*Awattar)(nil)
