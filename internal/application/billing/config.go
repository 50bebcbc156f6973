package billing

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Facturacion-api/internal/domain/cfdi"
	"github.com/jhoicas/Facturacion-api/pkg/sat"
)

// Config parámetros de negocio de la facturación.
type Config struct {
	HomeCurrency string // Moneda local; otras monedas exigen tipo de cambio
	// AllocationTolerance diferencia aceptada entre lo aplicado y el monto del pago.
	// nil = cfdi.DefaultAllocationTolerance; cero exige coincidencia exacta.
	AllocationTolerance *decimal.Decimal
}

func (c Config) withDefaults() Config {
	if c.HomeCurrency == "" {
		c.HomeCurrency = sat.MonedaNacional
	}
	if c.AllocationTolerance == nil || c.AllocationTolerance.IsNegative() {
		tol := cfdi.DefaultAllocationTolerance
		c.AllocationTolerance = &tol
	}
	return c
}

func (c Config) tolerance() decimal.Decimal {
	if c.AllocationTolerance == nil {
		return cfdi.DefaultAllocationTolerance
	}
	return *c.AllocationTolerance
}
