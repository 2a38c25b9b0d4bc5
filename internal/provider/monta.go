package provider

import (
	"bytes"
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

// MontaOptions parameterise the Monta whole-charge adapter.
type MontaOptions struct {
	BaseURL       string
	ClientID      string
	ClientSecret  string
	ChargePointID int
	Timeout       time.Duration
}

// Monta fetches completed, lump-sum billed charges from the Monta API.
type Monta struct {
	opts   MontaOptions
	logger zerolog.Logger
	client *http.Client
}

// NewMonta builds a new Monta charge source.
func NewMonta(opts MontaOptions, logger zerolog.Logger) *Monta {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Monta{
		opts:   opts,
		logger: logger.With().Str("component", "monta").Logger(),
		client: &http.Client{Timeout: timeout},
	}
}

type montaTokenResponse struct {
	AccessToken string `json:"accessToken"`
}

type montaCharge struct {
	StartedAt   time.Time       `json:"startedAt"`
	StoppedAt   time.Time       `json:"stoppedAt"`
	Price       decimal.Decimal `json:"price"`
	ConsumedKwh decimal.Decimal `json:"consumedKwh"`
}

type montaChargesResponse struct {
	Data []montaCharge `json:"data"`
}

// GetCharges lists completed charges between from and to.
func (m *Monta) GetCharges(ctx context.Context, from, to time.Time) ([]pricing.ProviderCharge, error) {
	if m.opts.ClientID == "" || m.opts.ClientSecret == "" {
		return nil, errors.New("monta client credentials not configured")
	}

	token, err := m.getAccessToken(ctx)
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("state", "completed")
	query.Set("fromDate", from.UTC().Format(time.RFC3339))
	query.Set("toDate", to.UTC().Format(time.RFC3339))
	if m.opts.ChargePointID > 0 {
		query.Set("chargePointId", fmt.Sprintf("%d", m.opts.ChargePointID))
	}
	endpoint := fmt.Sprintf("%s/charges?%s", m.opts.BaseURL, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("monta charges request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("monta charges returned status %d", resp.StatusCode)
	}

	var payload montaChargesResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode monta charges: %w", err)
	}

	charges := make([]pricing.ProviderCharge, 0, len(payload.Data))
	for _, c := range payload.Data {
		consumed := c.ConsumedKwh
		charges = append(charges, pricing.ProviderCharge{
			Cost:      c.Price,
			EnergyKwh: &consumed,
			StartTime: c.StartedAt,
			EndTime:   c.StoppedAt,
		})
	}

	m.logger.Debug().Int("charges", len(charges)).Msg("fetched monta charges")
	return charges, nil
}

func (m *Monta) getAccessToken(ctx context.Context) (string, error) {
	body, err := json.Marshal(map[string]string{
		"clientId":     m.opts.ClientID,
		"clientSecret": m.opts.ClientSecret,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.opts.BaseURL+"/auth/token", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("monta token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("monta token returned status %d", resp.StatusCode)
	}

	var payload montaTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode monta token: %w", err)
	}
	if payload.AccessToken == "" {
		return "", errors.New("monta token response missing accessToken")
	}
	return payload.AccessToken, nil
}

var _ pricing.WholeChargeSource = (*Monta)(nil)
