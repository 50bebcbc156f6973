package sat_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/Facturacion-api/pkg/sat"
)

func TestIsFolioFiscal(t *testing.T) {
	valid := []string{
		"ABC1147C-D41E-4596-9C3E-45629B090000",
		"abc1147c-d41e-4596-9c3e-45629b090000",
	}
	invalid := []string{
		"",
		"not-a-uuid",
		"ABC1147CD41E45969C3E45629B090000",
		"ABC1147C-D41E-4596-9C3E-45629B09000G",
		"ABC1147C-D41E-4596-9C3E-45629B0900001",
		"ABC1147C_D41E_4596_9C3E_45629B090000",
	}
	for _, s := range valid {
		assert.True(t, sat.IsFolioFiscal(s), "debe aceptar %q", s)
	}
	for _, s := range invalid {
		assert.False(t, sat.IsFolioFiscal(s), "debe rechazar %q", s)
	}
}
