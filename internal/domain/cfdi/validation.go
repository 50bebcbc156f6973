package cfdi

import (
	"fmt"

	"github.com/jhoicas/Facturacion-api/internal/domain"
	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
	"github.com/jhoicas/Facturacion-api/pkg/sat"
)

// ValidateInvoice compuerta de guardado de una factura en borrador. Reúne todas las
// violaciones (cabecera, método/forma de pago, relación y conceptos) en un solo error por campo.
// homeCurrency es la moneda local (normalmente MXN).
func ValidateInvoice(inv *entity.Invoice, homeCurrency string) error {
	if inv == nil {
		return fmt.Errorf("%w: factura nula", domain.ErrInvalidInput)
	}
	ve := &domain.ValidationError{}
	if inv.ClientID == "" {
		ve.Add("cliente_id", "requerido")
	}
	if inv.CFDIUse == "" {
		ve.Add("uso_cfdi", "requerido")
	}
	if inv.IssueDate.IsZero() {
		ve.Add("fecha_emision", "requerida")
	}
	if inv.ScheduledPaymentDate != nil && !inv.IssueDate.IsZero() && inv.ScheduledPaymentDate.Before(inv.IssueDate) {
		ve.Add("fecha_programada_pago", "no puede ser anterior a la fecha de emisión")
	}
	ve.Merge(ValidateCurrency(inv.Currency, inv.ExchangeRate.String(), inv.ExchangeRate.IsPositive(), homeCurrency))
	ve.Merge(ValidatePaymentMethod(inv.PaymentMethod, inv.PaymentForm))
	ve.Merge(validateRelation(inv.RelationType, inv.RelatedUUIDs))
	ve.Merge(ValidateConcepts(inv.Concepts))
	ve.Merge(ValidatePaymentStatus(inv.PaymentStatus, inv.CollectedAt))
	return ve.OrNil()
}

// ValidatePayment compuerta de guardado de un complemento de pago (sin los documentos relacionados,
// que se validan con ValidateAllocations).
func ValidatePayment(p *entity.Payment, homeCurrency string) error {
	if p == nil {
		return fmt.Errorf("%w: pago nulo", domain.ErrInvalidInput)
	}
	ve := &domain.ValidationError{}
	if p.ClientID == "" {
		ve.Add("cliente_id", "requerido")
	}
	if p.PaymentDate.IsZero() {
		ve.Add("fecha_pago", "requerida")
	}
	switch p.PaymentForm {
	case "":
		ve.Add("forma_pago", "requerida")
	case sat.FormaPagoPorDefinir:
		ve.Add("forma_pago", `un pago recibido no puede tener forma de pago "99"`)
	}
	if !p.Amount.IsPositive() {
		ve.Add("monto", "debe ser mayor a cero")
	}
	ve.Merge(ValidateCurrency(p.Currency, p.ExchangeRate.String(), p.ExchangeRate.IsPositive(), homeCurrency))
	return ve.OrNil()
}

// ValidateCurrency el tipo de cambio es obligatorio (y positivo) solo si la moneda no es la local.
func ValidateCurrency(currency, rate string, ratePositive bool, homeCurrency string) *domain.ValidationError {
	ve := &domain.ValidationError{}
	if currency == "" {
		ve.Add("moneda", "requerida")
		return ve
	}
	if currency != homeCurrency && !ratePositive {
		ve.Add("tipo_cambio", fmt.Sprintf("requerido y mayor a cero para moneda %s (recibido %q)", currency, rate))
	}
	return ve
}

func validateRelation(relationType string, uuids []string) *domain.ValidationError {
	ve := &domain.ValidationError{}
	if relationType == "" {
		if len(uuids) > 0 {
			ve.Add("tipo_relacion", "requerido cuando hay CFDI relacionados")
		}
		return ve
	}
	if !sat.ValidRelationTypes[relationType] {
		ve.Add("tipo_relacion", "tipo de relación no válido")
	}
	if len(uuids) == 0 {
		ve.Add("uuids_relacionados", "se requiere al menos un folio fiscal relacionado")
	}
	for i, u := range uuids {
		if !sat.IsFolioFiscal(u) {
			ve.Add(fmt.Sprintf("uuids_relacionados[%d]", i), "folio fiscal no válido")
		}
	}
	return ve
}
