package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// FiscalStatus estado fiscal de un CFDI (factura o complemento de pago).
type FiscalStatus string

// Estados fiscales. CANCELLATION_PENDING se guarda tal cual lo reporta el PAC
// cuando la cancelación requiere aceptación del receptor.
const (
	StatusDraft               FiscalStatus = "DRAFT"                // Borrador, editable
	StatusIssued              FiscalStatus = "ISSUED"               // Timbrado, con folio fiscal
	StatusCancellationPending FiscalStatus = "CANCELLATION_PENDING" // Cancelación en proceso ante el SAT
	StatusCancelled           FiscalStatus = "CANCELLED"            // Cancelado (terminal)
)

// Estados de cobranza (independientes del estado fiscal).
const (
	PaymentStatusPending = "pendiente"
	PaymentStatusPartial = "parcial"
	PaymentStatusPaid    = "pagada"
)

// Invoice representa un CFDI de ingreso con sus conceptos.
// Los totales se recalculan siempre a partir de Concepts; nunca se editan a mano.
type Invoice struct {
	ID            string
	CompanyID     string
	ClientID      string
	Series        string
	Folio         string
	Currency      string
	ExchangeRate  decimal.Decimal // Obligatorio si Currency != moneda local
	PaymentMethod string          // PUE | PPD
	PaymentForm   string          // c_FormaPago; "99" = por definir
	CFDIUse       string          // c_UsoCFDI del receptor

	// Relación con CFDI previos (c_TipoRelacion + folios fiscales).
	RelationType string
	RelatedUUIDs []string

	Concepts []InvoiceConcept

	Subtotal    decimal.Decimal
	Traslados   decimal.Decimal
	Retenciones decimal.Decimal
	Total       decimal.Decimal

	Status        FiscalStatus
	PaymentStatus string
	FiscalUUID    string // Folio fiscal; solo existe una vez timbrada

	IssueDate            time.Time
	StampedAt            *time.Time
	ScheduledPaymentDate *time.Time
	CollectedAt          *time.Time // Fecha de cobro real
	Notes                string

	StampedXML         string
	CancellationReason string
	SubstituteUUID     string
	CancelledAt        *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsDraft indica si la factura aún es editable.
func (inv *Invoice) IsDraft() bool { return inv.Status == StatusDraft }
