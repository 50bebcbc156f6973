package main

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_FlagsRequeridos(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"--rfc", "EKU9003173C9"})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)

	err := cmd.Execute()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
	assert.Contains(t, err.Error(), "email")
}

func TestFormatFields(t *testing.T) {
	out := formatFields(map[string]string{"rfc": "requerido", "codigo_postal": "solo dígitos"})

	assert.Equal(t, "datos inválidos:\n  codigo_postal: solo dígitos\n  rfc: requerido", out)
}
