package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestSetup(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.TraceLevel)

	var buf bytes.Buffer
	logger := setup(&buf, "WARN", false)
	require.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())

	logger.Info().Msg("dropped")
	require.Zero(t, buf.Len())

	logger.Warn().Str("component", "test").Msg("kept")
	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "kept", line["message"])
	require.Equal(t, "test", line["component"])

	setup(&buf, "nonsense", false)
	require.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}
