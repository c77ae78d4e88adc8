package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesJSONAtLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, zerolog.InfoLevel, false)
	l.Debug().Msg("hidden")
	l.Info().Str("game", "g1").Msg("shown")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "shown", rec["message"])
	assert.Equal(t, "g1", rec["game"])
	assert.Equal(t, "info", rec["level"])
	assert.Contains(t, rec, "time")
}

func TestNewPretty(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, zerolog.DebugLevel, true)
	l.Debug().Msg("hello")
	assert.Contains(t, buf.String(), "hello")
	assert.NotContains(t, buf.String(), "{")
}
