package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewWithWriter_FiltersBelowLevel(t *testing.T) {
	req := require.New(t)
	var buf bytes.Buffer

	log := NewWithWriter(&buf, "warn")
	log.Info().Msg("hidden")
	log.Warn().Str("room", "ops").Msg("visible")

	req.NotContains(buf.String(), "hidden")
	req.Contains(buf.String(), `"room":"ops"`)
	req.Contains(buf.String(), `"level":"warn"`)
}

func TestNewWithWriter_UnknownLevelFallsBackToInfo(t *testing.T) {
	req := require.New(t)
	var buf bytes.Buffer

	log := NewWithWriter(&buf, "chatty")
	log.Debug().Msg("debug line")
	log.Info().Msg("info line")

	req.NotContains(buf.String(), "debug line")
	req.Contains(buf.String(), "info line")
}
