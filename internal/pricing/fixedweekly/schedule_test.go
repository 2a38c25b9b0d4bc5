package fixedweekly

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewValidSchedule(t *testing.T) {
	s, err := New([]string{
		"Mon-Fri=08:00-20:00=0.05",
		"Mon-Fri=20:00-08:00=0.10",
		"Sat-Sun=0.08",
	}, "Etc/UTC")
	require.NoError(t, err)
	require.NotNil(t, s)
}

func TestNewInvalidTimeZone(t *testing.T) {
	_, err := New([]string{"Mon-Sun=0.05"}, "Not/AZone")
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid time zone")
}

func TestNewUnparsableLine(t *testing.T) {
	_, err := New([]string{"not a price"}, "Etc/UTC")
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to parse fixed price")
}

func TestNewInvalidDay(t *testing.T) {
	_, err := New([]string{"Funday=0.05"}, "Etc/UTC")
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid day")
}

func TestNewMinuteOutOfRange(t *testing.T) {
	_, err := New([]string{"Mon-Sun=00:70-10:00=0.05"}, "Etc/UTC")
	require.Error(t, err)
	require.Contains(t, err.Error(), "minute out of range")
}

func TestNewMissingDay(t *testing.T) {
	_, err := New([]string{"Mon-Sat=0.05"}, "Etc/UTC")
	require.Error(t, err)
	require.Contains(t, err.Error(), "does not cover the entire week")
	require.Contains(t, err.Error(), "Sunday")
}

func TestNewDayRangeWrapsPastSunday(t *testing.T) {
	s, err := New([]string{"Fri-Mon=0.05", "Tue-Thu=0.07"}, "Etc/UTC")
	require.NoError(t, err)
	require.NotNil(t, s)
}

func TestNewGapBetweenSegments(t *testing.T) {
	_, err := New([]string{
		"Mon-Sun=00:00-10:00=0.05",
		"Mon-Sun=11:00-23:00=0.10",
		"Mon-Sun=23:00-00:00=0.20",
	}, "Etc/UTC")
	require.Error(t, err)
	require.Contains(t, err.Error(), "not continuous")
}

func TestNewSegmentsUnderTwentyFourHours(t *testing.T) {
	_, err := New([]string{"Mon-Sun=08:00-20:00=0.05"}, "Etc/UTC")
	require.Error(t, err)
	require.Contains(t, err.Error(), "do not cover the full 24 hours")
}

func TestNewSegmentsOverTwentyFourHours(t *testing.T) {
	_, err := New([]string{
		"Mon-Sun=00:00-10:00=0.05",
		"Mon-Sun=10:00-10:00=0.10",
	}, "Etc/UTC")
	require.Error(t, err)
	require.Contains(t, err.Error(), "cover more than 24 hours")
}

func TestNewFullDayAlongsideSegments(t *testing.T) {
	_, err := New([]string{
		"Mon-Sun=0.05",
		"Mon-Sun=08:00-20:00=0.10",
	}, "Etc/UTC")
	require.Error(t, err)
	require.Contains(t, err.Error(), "full-day price alongside")
}
