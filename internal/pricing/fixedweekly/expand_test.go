package fixedweekly

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestGetPriceDataSingleDay(t *testing.T) {
	s, err := New([]string{
		"Mon-Fri=08:00-20:00=0.05",
		"Mon-Fri=20:00-08:00=0.10",
		"Sat-Sun=0.08",
	}, "Etc/UTC")
	require.NoError(t, err)

	// Monday, whole day.
	from := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	to := time.Date(2023, 1, 3, 0, 0, 0, 0, time.UTC)

	prices, err := s.GetPriceData(context.Background(), from, to)
	require.NoError(t, err)
	require.Len(t, prices, 3)

	sort.Slice(prices, func(i, j int) bool { return prices[i].ValidFrom.Before(prices[j].ValidFrom) })

	require.True(t, prices[0].ValidFrom.Equal(from))
	require.True(t, prices[0].ValidTo.Equal(time.Date(2023, 1, 2, 8, 0, 0, 0, time.UTC)))
	require.True(t, prices[0].Value.Equal(decimal.RequireFromString("0.10")))

	require.True(t, prices[1].ValidFrom.Equal(time.Date(2023, 1, 2, 8, 0, 0, 0, time.UTC)))
	require.True(t, prices[1].ValidTo.Equal(time.Date(2023, 1, 2, 20, 0, 0, 0, time.UTC)))
	require.True(t, prices[1].Value.Equal(decimal.RequireFromString("0.05")))

	require.True(t, prices[2].ValidFrom.Equal(time.Date(2023, 1, 2, 20, 0, 0, 0, time.UTC)))
	require.True(t, prices[2].ValidTo.Equal(to))
	require.True(t, prices[2].Value.Equal(decimal.RequireFromString("0.10")))
}

func TestGetPriceDataDaylightSaving(t *testing.T) {
	s, err := New([]string{
		"Mon-Sun=23:30-20:30=13.8",
		"Mon-Sun=20:30-23:30=4.5",
	}, "Europe/London")
	require.NoError(t, err)

	// Britain is on BST (UTC+1) at this date; the window falls entirely
	// inside the evening segment.
	from := time.Date(2021, 4, 13, 19, 46, 13, 0, time.UTC)
	to := time.Date(2021, 4, 13, 22, 2, 46, 0, time.UTC)

	prices, err := s.GetPriceData(context.Background(), from, to)
	require.NoError(t, err)
	require.Len(t, prices, 1)

	require.True(t, prices[0].Value.Equal(decimal.RequireFromString("4.5")))
	require.True(t, prices[0].ValidFrom.Equal(time.Date(2021, 4, 13, 19, 30, 0, 0, time.UTC)))
	require.True(t, prices[0].ValidTo.Equal(time.Date(2021, 4, 13, 22, 30, 0, 0, time.UTC)))
}

func TestGetPriceDataTilesFullWeek(t *testing.T) {
	s, err := New([]string{
		"Mon-Fri=07:30-22:00=0.25",
		"Mon-Fri=22:00-07:30=0.08",
		"Sat,Sun=0.12",
	}, "Etc/UTC")
	require.NoError(t, err)

	from := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 7)

	prices, err := s.GetPriceData(context.Background(), from, to)
	require.NoError(t, err)
	require.NotEmpty(t, prices)

	sort.Slice(prices, func(i, j int) bool { return prices[i].ValidFrom.Before(prices[j].ValidFrom) })

	require.True(t, prices[0].ValidFrom.Equal(from))
	require.True(t, prices[len(prices)-1].ValidTo.Equal(to))
	for i := 1; i < len(prices); i++ {
		require.True(t, prices[i].ValidFrom.Equal(prices[i-1].ValidTo),
			"gap between interval %d and %d", i-1, i)
	}
}

func TestGetPriceDataMidnightEndingSegment(t *testing.T) {
	// An end written as 00:00 closes the day; it must not be treated as a
	// wrap into the next one.
	s, err := New([]string{
		"Mon-Sun=00:00-20:00=0.05",
		"Mon-Sun=20:00-00:00=0.10",
	}, "Etc/UTC")
	require.NoError(t, err)

	from := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	to := time.Date(2023, 1, 3, 0, 0, 0, 0, time.UTC)

	prices, err := s.GetPriceData(context.Background(), from, to)
	require.NoError(t, err)
	require.Len(t, prices, 2)

	sort.Slice(prices, func(i, j int) bool { return prices[i].ValidFrom.Before(prices[j].ValidFrom) })

	require.True(t, prices[0].ValidFrom.Equal(from))
	require.True(t, prices[0].ValidTo.Equal(time.Date(2023, 1, 2, 20, 0, 0, 0, time.UTC)))
	require.True(t, prices[0].Value.Equal(decimal.RequireFromString("0.05")))

	require.True(t, prices[1].ValidFrom.Equal(prices[0].ValidTo))
	require.True(t, prices[1].ValidTo.Equal(to))
	require.True(t, prices[1].Value.Equal(decimal.RequireFromString("0.10")))
}

func TestGetPriceDataEmptyWindow(t *testing.T) {
	s, err := New([]string{"Mon-Sun=0.05"}, "Etc/UTC")
	require.NoError(t, err)

	at := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	prices, err := s.GetPriceData(context.Background(), at, at)
	require.NoError(t, err)
	require.Empty(t, prices)
}
