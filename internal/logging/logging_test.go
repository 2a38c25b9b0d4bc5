package logging

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerLevel(t *testing.T) {
	logger := NewLogger(Config{Level: "debug"})
	require.Equal(t, zerolog.DebugLevel, logger.GetLevel())
}

func TestNewLoggerUnknownLevelFallsBack(t *testing.T) {
	require.Equal(t, zerolog.InfoLevel, NewLogger(Config{Level: "verbose"}).GetLevel())
	require.Equal(t, zerolog.InfoLevel, NewLogger(Config{}).GetLevel())
}
