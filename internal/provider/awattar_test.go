package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestAwattarGetPriceData(t *testing.T) {
	from := time.Date(2023, 6, 1, 10, 0, 0, 0, time.UTC)
	to := time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC)

	intervalStart := from.UnixMilli()
	intervalEnd := from.Add(time.Hour).UnixMilli()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/marketdata", r.URL.Path)
		require.Equal(t, strconv.FormatInt(from.Add(-time.Hour).UnixMilli(), 10), r.URL.Query().Get("start"))
		require.Equal(t, strconv.FormatInt(to.Add(time.Hour).UnixMilli(), 10), r.URL.Query().Get("end"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":[{"marketprice":100,"unit":"Eur/MWh","start_timestamp":` +
			strconv.FormatInt(intervalStart, 10) + `,"end_timestamp":` +
			strconv.FormatInt(intervalEnd, 10) + `}]}`))
	}))
	defer server.Close()

	a := NewAwattar(AwattarOptions{BaseURL: server.URL}, zerolog.Nop())
	prices, err := a.GetPriceData(context.Background(), from, to)
	require.NoError(t, err)
	require.Len(t, prices, 1)

	// 100 Eur/MWh is 0.1 Eur/kWh.
	require.True(t, prices[0].Value.Equal(decimal.RequireFromString("0.1")), "got %s", prices[0].Value)
	require.True(t, prices[0].ValidFrom.Equal(from))
	require.True(t, prices[0].ValidTo.Equal(from.Add(time.Hour)))
}

func TestAwattarUnknownUnit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"marketprice":100,"unit":"Usd/MWh","start_timestamp":0,"end_timestamp":0}]}`))
	}))
	defer server.Close()

	a := NewAwattar(AwattarOptions{BaseURL: server.URL}, zerolog.Nop())
	_, err := a.GetPriceData(context.Background(), time.Now().Add(-time.Hour), time.Now())
	require.ErrorContains(t, err, "unknown price unit")
}

func TestAwattarServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	a := NewAwattar(AwattarOptions{BaseURL: server.URL}, zerolog.Nop())
	_, err := a.GetPriceData(context.Background(), time.Now().Add(-time.Hour), time.Now())
	require.ErrorContains(t, err, "status 502")
}

func TestAwattarMissingBaseURL(t *testing.T) {
	a := NewAwattar(AwattarOptions{}, zerolog.Nop())
	_, err := a.GetPriceData(context.Background(), time.Now().Add(-time.Hour), time.Now())
	require.ErrorContains(t, err, "not configured")
}
