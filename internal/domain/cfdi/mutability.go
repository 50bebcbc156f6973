package cfdi

import (
	"fmt"
	"time"

	"github.com/jhoicas/Facturacion-api/internal/domain"
	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
)

// fieldRule campo editable de la factura y cómo detectar si cambió.
// collection marca los campos de cobranza, editables en cualquier estado.
type fieldRule struct {
	name       string
	collection bool
	equal      func(a, b *entity.Invoice) bool
}

var invoiceFields = []fieldRule{
	{name: "cliente_id", equal: func(a, b *entity.Invoice) bool { return a.ClientID == b.ClientID }},
	{name: "serie", equal: func(a, b *entity.Invoice) bool { return a.Series == b.Series }},
	{name: "folio", equal: func(a, b *entity.Invoice) bool { return a.Folio == b.Folio }},
	{name: "moneda", equal: func(a, b *entity.Invoice) bool { return a.Currency == b.Currency }},
	{name: "tipo_cambio", equal: func(a, b *entity.Invoice) bool { return a.ExchangeRate.Equal(b.ExchangeRate) }},
	{name: "metodo_pago", equal: func(a, b *entity.Invoice) bool { return a.PaymentMethod == b.PaymentMethod }},
	{name: "forma_pago", equal: func(a, b *entity.Invoice) bool { return a.PaymentForm == b.PaymentForm }},
	{name: "uso_cfdi", equal: func(a, b *entity.Invoice) bool { return a.CFDIUse == b.CFDIUse }},
	{name: "tipo_relacion", equal: func(a, b *entity.Invoice) bool { return a.RelationType == b.RelationType }},
	{name: "uuids_relacionados", equal: func(a, b *entity.Invoice) bool { return equalStrings(a.RelatedUUIDs, b.RelatedUUIDs) }},
	{name: "conceptos", equal: func(a, b *entity.Invoice) bool { return equalConcepts(a.Concepts, b.Concepts) }},
	{name: "fecha_emision", equal: func(a, b *entity.Invoice) bool { return a.IssueDate.Equal(b.IssueDate) }},
	{name: "fecha_programada_pago", equal: func(a, b *entity.Invoice) bool { return equalTimes(a.ScheduledPaymentDate, b.ScheduledPaymentDate) }},
	{name: "status_pago", collection: true, equal: func(a, b *entity.Invoice) bool { return a.PaymentStatus == b.PaymentStatus }},
	{name: "fecha_cobro", collection: true, equal: func(a, b *entity.Invoice) bool { return equalTimes(a.CollectedAt, b.CollectedAt) }},
	{name: "notas", collection: true, equal: func(a, b *entity.Invoice) bool { return a.Notes == b.Notes }},
}

// ChangedFields lista los campos que difieren entre current y proposed, en orden de la tabla.
func ChangedFields(current, proposed *entity.Invoice) []string {
	var out []string
	for _, f := range invoiceFields {
		if !f.equal(current, proposed) {
			out = append(out, f.name)
		}
	}
	return out
}

// IsEditable indica si el campo puede modificarse en el estado dado.
func IsEditable(status entity.FiscalStatus, field string) bool {
	if !IsLocked(status) {
		return true
	}
	for _, f := range invoiceFields {
		if f.name == field {
			return f.collection
		}
	}
	return false
}

// EditableFields campos que pueden modificarse en el estado dado, en orden de la tabla.
func EditableFields(status entity.FiscalStatus) []string {
	out := make([]string, 0, len(invoiceFields))
	for _, f := range invoiceFields {
		if IsEditable(status, f.name) {
			out = append(out, f.name)
		}
	}
	return out
}

// ValidateEdit rechaza cambios a campos bloqueados por el estado actual de la factura
// y valida la precondición de cobranza sobre el resultado propuesto.
func ValidateEdit(current, proposed *entity.Invoice) *domain.ValidationError {
	ve := &domain.ValidationError{}
	for _, name := range ChangedFields(current, proposed) {
		if !IsEditable(current.Status, name) {
			ve.Add(name, fmt.Sprintf("no editable: la factura está en estado %s", current.Status))
		}
	}
	ve.Merge(ValidatePaymentStatus(proposed.PaymentStatus, proposed.CollectedAt))
	return ve
}

// ValidatePaymentStatus marcar como pagada exige fecha de cobro.
func ValidatePaymentStatus(status string, collectedAt *time.Time) *domain.ValidationError {
	ve := &domain.ValidationError{}
	switch status {
	case "", entity.PaymentStatusPending, entity.PaymentStatusPartial:
	case entity.PaymentStatusPaid:
		if collectedAt == nil || collectedAt.IsZero() {
			ve.Add("fecha_cobro", "requerida para marcar la factura como pagada")
		}
	default:
		ve.Add("status_pago", "valor no válido (pendiente, parcial, pagada)")
	}
	return ve
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func equalTimes(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func equalConcepts(a, b []entity.InvoiceConcept) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		x, y := a[i], b[i]
		if x.ProductCode != y.ProductCode || x.UnitCode != y.UnitCode || x.Description != y.Description {
			return false
		}
		if !x.Quantity.Equal(y.Quantity) || !x.UnitPrice.Equal(y.UnitPrice) || !x.Discount.Equal(y.Discount) {
			return false
		}
		if !x.IVARate.Equal(y.IVARate) || !x.IVARetRate.Equal(y.IVARetRate) || !x.ISRRetRate.Equal(y.ISRRetRate) {
			return false
		}
	}
	return true
}
