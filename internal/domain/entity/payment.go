package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment representa un complemento de pago (CFDI tipo P) que aplica un cobro a varias facturas.
type Payment struct {
	ID           string
	CompanyID    string
	ClientID     string
	Series       string
	Folio        string
	PaymentDate  time.Time
	Currency     string
	ExchangeRate decimal.Decimal
	PaymentForm  string
	Amount       decimal.Decimal // Monto declarado del pago
	Documents    []PaymentDocument

	Status     FiscalStatus
	FiscalUUID string
	StampedAt  *time.Time
	StampedXML string

	CancellationReason string
	SubstituteUUID     string
	CancelledAt        *time.Time
	Notes              string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// PaymentDocument documento relacionado: la parte del pago aplicada a una factura.
type PaymentDocument struct {
	ID               string
	PaymentID        string
	InvoiceID        string
	Amount           decimal.Decimal // Importe pagado
	Installment      int             // Número de parcialidad (1-based)
	PriorBalance     decimal.Decimal // Saldo anterior
	ResultingBalance decimal.Decimal // Saldo insoluto
}

// AppliedTotal suma los importes aplicados a todas las facturas.
func (p *Payment) AppliedTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, d := range p.Documents {
		sum = sum.Add(d.Amount)
	}
	return sum
}
