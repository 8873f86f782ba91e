package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupJSON(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.TraceLevel) })

	var buf bytes.Buffer
	l := setup(&buf, "warn", "json")

	l.Info().Msg("hidden")
	l.Warn().Str("component", "test").Msg("shown")

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "shown", line["message"])
	assert.Equal(t, "test", line["component"])
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())
}

func TestSetupUnknownLevelFallsBackToInfo(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.TraceLevel) })

	var buf bytes.Buffer
	setup(&buf, "loud", "pretty")
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}
