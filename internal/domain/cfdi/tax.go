// Package cfdi contiene las reglas de dominio del ciclo de vida de un CFDI: cálculo de
// impuestos por concepto, consistencia método/forma de pago, máquina de estados,
// aplicación de pagos a facturas y validación de cancelaciones.
//
// Todas las funciones son puras: no hacen I/O ni guardan estado entre llamadas.
package cfdi

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Facturacion-api/internal/domain"
	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
	"github.com/jhoicas/Facturacion-api/pkg/sat"
)

// ConceptAmounts importes derivados de un concepto (sin redondear).
type ConceptAmounts struct {
	Base          decimal.Decimal
	IVATrasladado decimal.Decimal
	IVARetenido   decimal.Decimal
	ISRRetenido   decimal.Decimal
	Importe       decimal.Decimal
}

// Totals totales del documento (sin redondear).
type Totals struct {
	Subtotal    decimal.Decimal
	Traslados   decimal.Decimal
	Retenciones decimal.Decimal
	Total       decimal.Decimal
}

// CalculateConcept deriva base, impuestos e importe de un concepto.
// Base = max(cantidad*precio - descuento, 0).
func CalculateConcept(c entity.InvoiceConcept) ConceptAmounts {
	base := c.Quantity.Mul(c.UnitPrice).Sub(c.Discount)
	if base.IsNegative() {
		base = decimal.Zero
	}
	iva := base.Mul(c.IVARate)
	retIVA := base.Mul(c.IVARetRate)
	retISR := base.Mul(c.ISRRetRate)
	return ConceptAmounts{
		Base:          base,
		IVATrasladado: iva,
		IVARetenido:   retIVA,
		ISRRetenido:   retISR,
		Importe:       base.Add(iva).Sub(retIVA).Sub(retISR),
	}
}

// CalculateTotals recalcula los totales desde cero a partir de los conceptos.
func CalculateTotals(concepts []entity.InvoiceConcept) Totals {
	var t Totals
	for _, c := range concepts {
		a := CalculateConcept(c)
		t.Subtotal = t.Subtotal.Add(a.Base)
		t.Traslados = t.Traslados.Add(a.IVATrasladado)
		t.Retenciones = t.Retenciones.Add(a.IVARetenido).Add(a.ISRRetenido)
	}
	t.Total = t.Subtotal.Add(t.Traslados).Sub(t.Retenciones)
	return t
}

// Rounded redondea a 2 decimales para presentación o envío. El total se vuelve a
// derivar de los componentes redondeados para que la identidad se mantenga en el XML.
func (t Totals) Rounded() Totals {
	r := Totals{
		Subtotal:    t.Subtotal.Round(2),
		Traslados:   t.Traslados.Round(2),
		Retenciones: t.Retenciones.Round(2),
	}
	r.Total = r.Subtotal.Add(r.Traslados).Sub(r.Retenciones)
	return r
}

// ApplyTotals recalcula y asigna los totales de la factura (redondeados a 2 decimales).
func ApplyTotals(inv *entity.Invoice) {
	t := CalculateTotals(inv.Concepts).Rounded()
	inv.Subtotal = t.Subtotal
	inv.Traslados = t.Traslados
	inv.Retenciones = t.Retenciones
	inv.Total = t.Total
}

// ValidateConcepts valida rangos y tasas permitidas de cada concepto.
// Los campos se reportan como conceptos[i].<campo>.
func ValidateConcepts(concepts []entity.InvoiceConcept) *domain.ValidationError {
	ve := &domain.ValidationError{}
	if len(concepts) == 0 {
		ve.Add("conceptos", "la factura debe tener al menos un concepto")
		return ve
	}
	for i, c := range concepts {
		field := func(name string) string { return fmt.Sprintf("conceptos[%d].%s", i, name) }
		if c.Description == "" {
			ve.Add(field("descripcion"), "requerido")
		}
		if c.ProductCode == "" {
			ve.Add(field("clave_prod_serv"), "requerido")
		}
		if c.UnitCode == "" {
			ve.Add(field("clave_unidad"), "requerido")
		}
		if c.Quantity.IsNegative() {
			ve.Add(field("cantidad"), "no puede ser negativa")
		}
		if c.UnitPrice.IsNegative() {
			ve.Add(field("valor_unitario"), "no puede ser negativo")
		}
		if c.Discount.IsNegative() {
			ve.Add(field("descuento"), "no puede ser negativo")
		}
		if !sat.RateIn(c.IVARate, sat.ValidIVARates) {
			ve.Add(field("tasa_iva"), "tasa no permitida (0, 0.08, 0.16)")
		}
		if !sat.RateIn(c.IVARetRate, sat.ValidIVARetentionRates) {
			ve.Add(field("tasa_ret_iva"), "tasa no permitida (0, 0.106667)")
		}
		if !sat.RateIn(c.ISRRetRate, sat.ValidISRRetentionRates) {
			ve.Add(field("tasa_ret_isr"), "tasa no permitida (0, 0.0125, 0.10)")
		}
	}
	return ve
}
