package cfdi

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Facturacion-api/internal/domain"
	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
)

// DefaultAllocationTolerance diferencia máxima aceptada entre la suma aplicada y el monto del pago.
var DefaultAllocationTolerance = decimal.RequireFromString("1.00")

// InvoiceBalance historial de pagos de una factura candidata, tal como lo reporta la consulta de saldos.
type InvoiceBalance struct {
	InvoiceID       string
	Total           decimal.Decimal
	LastBalance     *decimal.Decimal // Saldo insoluto del último pago; nil si no tiene pagos
	LastInstallment int              // 0 si no tiene pagos
}

// PriorBalance saldo anterior para el siguiente pago.
func (b InvoiceBalance) PriorBalance() decimal.Decimal {
	if b.LastBalance == nil {
		return b.Total
	}
	return *b.LastBalance
}

// NextInstallment número de parcialidad del siguiente pago.
func (b InvoiceBalance) NextInstallment() int {
	if b.LastInstallment <= 0 {
		return 1
	}
	return b.LastInstallment + 1
}

// BuildAllocations convierte los importes capturados por factura en documentos relacionados.
// Se ignoran importes nulos o que no sean positivos una vez redondeados a 2 decimales.
// El orden de salida sigue el orden de candidates.
func BuildAllocations(amounts map[string]*decimal.Decimal, candidates []InvoiceBalance) ([]entity.PaymentDocument, error) {
	known := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		known[c.InvoiceID] = true
	}
	ve := &domain.ValidationError{}
	for id, amt := range amounts {
		if amt != nil && amt.IsPositive() && !known[id] {
			ve.Add(fmt.Sprintf("documentos.%s", id), "la factura no tiene saldo pendiente para este cliente")
		}
	}
	if err := ve.OrNil(); err != nil {
		return nil, err
	}

	docs := make([]entity.PaymentDocument, 0, len(amounts))
	for _, c := range candidates {
		amt, ok := amounts[c.InvoiceID]
		if !ok || amt == nil {
			continue
		}
		applied := amt.Round(2)
		if !applied.IsPositive() {
			continue
		}
		prior := c.PriorBalance()
		resulting := prior.Sub(applied)
		if resulting.IsNegative() {
			resulting = decimal.Zero
		}
		docs = append(docs, entity.PaymentDocument{
			InvoiceID:        c.InvoiceID,
			Amount:           applied,
			Installment:      c.NextInstallment(),
			PriorBalance:     prior,
			ResultingBalance: resulting,
		})
	}
	return docs, nil
}

// ValidateAllocations compuerta previa al envío: debe haber al menos un documento y la suma
// aplicada no puede diferir del monto declarado en más de tolerance.
func ValidateAllocations(docs []entity.PaymentDocument, declared, tolerance decimal.Decimal) *domain.ValidationError {
	ve := &domain.ValidationError{}
	if len(docs) == 0 {
		ve.Add("documentos", "el pago debe aplicarse al menos a una factura")
		return ve
	}
	sum := decimal.Zero
	for _, d := range docs {
		sum = sum.Add(d.Amount)
	}
	diff := sum.Sub(declared).Abs()
	if diff.GreaterThan(tolerance) {
		ve.Add("monto", fmt.Sprintf("la suma aplicada (%s) no coincide con el monto del pago (%s); diferencia %s",
			sum.StringFixed(2), declared.StringFixed(2), diff.StringFixed(2)))
	}
	return ve
}
