package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentRequest body para POST /api/payments y PUT /api/payments/:id.
// Documentos: importe aplicado por id de factura (null o 0 = no aplicar). En PUT los importes
// se aplican sobre los ya guardados; si cambia el cliente se descartan los anteriores.
type PaymentRequest struct {
	ClientID     string                      `json:"cliente_id"`
	Series       string                      `json:"serie"`
	Folio        string                      `json:"folio"`
	PaymentDate  *time.Time                  `json:"fecha_pago,omitempty"`
	Currency     string                      `json:"moneda"`
	ExchangeRate *decimal.Decimal            `json:"tipo_cambio,omitempty"`
	PaymentForm  string                      `json:"forma_pago"`
	Amount       decimal.Decimal             `json:"monto"`
	Documents    map[string]*decimal.Decimal `json:"documentos"`
	Notes        string                      `json:"notas,omitempty"`
}

// PaymentResponse complemento de pago con sus documentos relacionados.
type PaymentResponse struct {
	ID                 string                    `json:"id"`
	CompanyID          string                    `json:"company_id"`
	ClientID           string                    `json:"cliente_id"`
	Series             string                    `json:"serie"`
	Folio              string                    `json:"folio"`
	PaymentDate        time.Time                 `json:"fecha_pago"`
	Currency           string                    `json:"moneda"`
	ExchangeRate       decimal.Decimal           `json:"tipo_cambio"`
	PaymentForm        string                    `json:"forma_pago"`
	Amount             decimal.Decimal           `json:"monto"`
	AppliedTotal       decimal.Decimal           `json:"monto_aplicado"`
	Documents          []PaymentDocumentResponse `json:"documentos,omitempty"`
	Status             string                    `json:"status"`
	FiscalUUID         string                    `json:"uuid,omitempty"`
	StampedAt          *time.Time                `json:"fecha_timbrado,omitempty"`
	CancellationReason string                    `json:"motivo_cancelacion,omitempty"`
	CancelledAt        *time.Time                `json:"fecha_cancelacion,omitempty"`
	Notes              string                    `json:"notas,omitempty"`
}

// PaymentDocumentResponse documento relacionado (DoctoRelacionado).
type PaymentDocumentResponse struct {
	InvoiceID        string          `json:"factura_id"`
	Amount           decimal.Decimal `json:"importe_pagado"`
	Installment      int             `json:"num_parcialidad"`
	PriorBalance     decimal.Decimal `json:"saldo_anterior"`
	ResultingBalance decimal.Decimal `json:"saldo_insoluto"`
}

// PaymentListResponse página de pagos.
type PaymentListResponse struct {
	Items []*PaymentResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

// OutstandingInvoiceResponse factura con saldo pendiente, candidata para un pago.
type OutstandingInvoiceResponse struct {
	InvoiceID       string          `json:"factura_id"`
	Series          string          `json:"serie"`
	Folio           string          `json:"folio"`
	FiscalUUID      string          `json:"uuid"`
	Currency        string          `json:"moneda"`
	IssueDate       time.Time       `json:"fecha_emision"`
	Total           decimal.Decimal `json:"total"`
	PriorBalance    decimal.Decimal `json:"saldo_anterior"`
	NextInstallment int             `json:"num_parcialidad"`
}
