package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel(" warn "))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel(""))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("verboso"))
}

func TestNew_JSONConServicioYComponente(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Env: "production", Level: "info", Service: "facturacion-api", Output: &buf})

	log.Component("pac").Info().Str("uuid", "abc").Msg("timbrado")
	log.Debug().Msg("no se escribe")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)
	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "facturacion-api", entry["service"])
	assert.Equal(t, "pac", entry["component"])
	assert.Equal(t, "abc", entry["uuid"])
	assert.Equal(t, "timbrado", entry["message"])
}

func TestComponent_LoggerNil(t *testing.T) {
	var log *Logger
	assert.NotPanics(t, func() { log.Component("x").Info().Msg("descartado") })
}
