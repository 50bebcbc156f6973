package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Facturacion-api/internal/domain/cfdi"
)

// OutstandingInvoice factura PPD emitida con saldo insoluto, candidata a recibir un pago.
type OutstandingInvoice struct {
	InvoiceID       string
	Series          string
	Folio           string
	FiscalUUID      string
	Currency        string
	IssueDate       time.Time
	Total           decimal.Decimal
	LastBalance     *decimal.Decimal
	LastInstallment int
}

// Balance historial de pagos en la forma que consume el motor de aplicación de pagos.
func (o OutstandingInvoice) Balance() cfdi.InvoiceBalance {
	return cfdi.InvoiceBalance{
		InvoiceID:       o.InvoiceID,
		Total:           o.Total,
		LastBalance:     o.LastBalance,
		LastInstallment: o.LastInstallment,
	}
}

// InvoiceCollection saldo vigente de una factura según sus complementos timbrados.
type InvoiceCollection struct {
	InvoiceID  string
	Total      decimal.Decimal
	Paid       decimal.Decimal // suma de importes pagados
	Payments   int             // documentos relacionados vigentes
	LastPaidAt *time.Time      // fecha del pago más reciente
}

// Balance saldo insoluto; nunca negativo.
func (c InvoiceCollection) Balance() decimal.Decimal {
	b := c.Total.Sub(c.Paid)
	if b.IsNegative() {
		return decimal.Zero
	}
	return b
}

// Status status de cobranza que corresponde al saldo.
func (c InvoiceCollection) Status() string {
	return cfdi.CollectionStatus(c.Total, c.Balance())
}

// InvoiceBalanceReader consulta de saldos por factura a partir del historial de documentos relacionados.
// Solo cuentan los pagos en cfdi.BalanceStatuses (timbrados y no cancelados).
type InvoiceBalanceReader interface {
	// Outstanding facturas del cliente con saldo; excludePaymentID omite además ese pago.
	Outstanding(ctx context.Context, companyID, clientID, excludePaymentID string) ([]OutstandingInvoice, error)
	// Collection saldo de una factura; nil, nil si no existe en la empresa.
	Collection(ctx context.Context, companyID, invoiceID string) (*InvoiceCollection, error)
}
