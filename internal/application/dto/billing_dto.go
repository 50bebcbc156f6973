package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceRequest body para POST /api/invoices y PUT /api/invoices/:id.
// En PUT se envía el documento completo; en una factura emitida solo pueden cambiar
// status_pago, fecha_cobro y notas.
type InvoiceRequest struct {
	ClientID             string           `json:"cliente_id"`
	Series               string           `json:"serie"`
	Folio                string           `json:"folio"`
	Currency             string           `json:"moneda"`
	ExchangeRate         *decimal.Decimal `json:"tipo_cambio,omitempty"`
	PaymentMethod        string           `json:"metodo_pago"`
	PaymentForm          string           `json:"forma_pago"`
	CFDIUse              string           `json:"uso_cfdi,omitempty"` // vacío = uso por defecto del cliente
	RelationType         string           `json:"tipo_relacion,omitempty"`
	RelatedUUIDs         []string         `json:"uuids_relacionados,omitempty"`
	Concepts             []ConceptRequest `json:"conceptos"`
	IssueDate            *time.Time       `json:"fecha_emision,omitempty"`         // vacío = ahora
	ScheduledPaymentDate *time.Time       `json:"fecha_programada_pago,omitempty"` // vacío = emisión + días de crédito
	PaymentStatus        string           `json:"status_pago,omitempty"`
	CollectedAt          *time.Time       `json:"fecha_cobro,omitempty"`
	Notes                string           `json:"notas,omitempty"`
}

// ConceptRequest concepto de la factura. Las tasas de retención nulas toman la sugerencia
// según emisor y receptor.
type ConceptRequest struct {
	ProductCode string           `json:"clave_prod_serv"`
	UnitCode    string           `json:"clave_unidad"`
	Description string           `json:"descripcion"`
	Quantity    decimal.Decimal  `json:"cantidad"`
	UnitPrice   decimal.Decimal  `json:"valor_unitario"`
	Discount    decimal.Decimal  `json:"descuento"`
	IVARate     decimal.Decimal  `json:"tasa_iva"`
	IVARetRate  *decimal.Decimal `json:"tasa_ret_iva,omitempty"`
	ISRRetRate  *decimal.Decimal `json:"tasa_ret_isr,omitempty"`
}

// CollectionRequest body para PATCH /api/invoices/:id/collection (cobranza).
type CollectionRequest struct {
	PaymentStatus string     `json:"status_pago"`
	CollectedAt   *time.Time `json:"fecha_cobro,omitempty"`
	Notes         *string    `json:"notas,omitempty"`
}

// CancelRequest body para POST /api/invoices/:id/cancel y /api/payments/:id/cancel.
type CancelRequest struct {
	Reason         string `json:"motivo"`
	SubstituteUUID string `json:"folio_sustitucion,omitempty"`
}

// InvoiceFilterRequest query de GET /api/invoices.
type InvoiceFilterRequest struct {
	PageRequest
	ClientID      string `query:"cliente_id"`
	Status        string `query:"status"`
	PaymentStatus string `query:"status_pago"`
	From          string `query:"desde"` // YYYY-MM-DD
	To            string `query:"hasta"` // YYYY-MM-DD, inclusive
}

// InvoiceResponse factura con conceptos para GET /api/invoices/:id.
type InvoiceResponse struct {
	ID                   string            `json:"id"`
	CompanyID            string            `json:"company_id"`
	ClientID             string            `json:"cliente_id"`
	Series               string            `json:"serie"`
	Folio                string            `json:"folio"`
	Currency             string            `json:"moneda"`
	ExchangeRate         decimal.Decimal   `json:"tipo_cambio"`
	PaymentMethod        string            `json:"metodo_pago"`
	PaymentForm          string            `json:"forma_pago"`
	CFDIUse              string            `json:"uso_cfdi"`
	RelationType         string            `json:"tipo_relacion,omitempty"`
	RelatedUUIDs         []string          `json:"uuids_relacionados,omitempty"`
	Concepts             []ConceptResponse `json:"conceptos,omitempty"`
	Subtotal             decimal.Decimal   `json:"subtotal"`
	Traslados            decimal.Decimal   `json:"total_traslados"`
	Retenciones          decimal.Decimal   `json:"total_retenciones"`
	Total                decimal.Decimal   `json:"total"`
	Status               string            `json:"status"`
	PaymentStatus        string            `json:"status_pago"`
	FiscalUUID           string            `json:"uuid,omitempty"`
	IssueDate            time.Time         `json:"fecha_emision"`
	StampedAt            *time.Time        `json:"fecha_timbrado,omitempty"`
	ScheduledPaymentDate *time.Time        `json:"fecha_programada_pago,omitempty"`
	CollectedAt          *time.Time        `json:"fecha_cobro,omitempty"`
	CancellationReason   string            `json:"motivo_cancelacion,omitempty"`
	SubstituteUUID       string            `json:"folio_sustitucion,omitempty"`
	CancelledAt          *time.Time        `json:"fecha_cancelacion,omitempty"`
	Notes                string            `json:"notas,omitempty"`
	Editable             []string          `json:"campos_editables"`
}

// ConceptResponse concepto con importes calculados (redondeados a 2 decimales).
type ConceptResponse struct {
	ProductCode   string          `json:"clave_prod_serv"`
	UnitCode      string          `json:"clave_unidad"`
	Description   string          `json:"descripcion"`
	Quantity      decimal.Decimal `json:"cantidad"`
	UnitPrice     decimal.Decimal `json:"valor_unitario"`
	Discount      decimal.Decimal `json:"descuento"`
	IVARate       decimal.Decimal `json:"tasa_iva"`
	IVARetRate    decimal.Decimal `json:"tasa_ret_iva"`
	ISRRetRate    decimal.Decimal `json:"tasa_ret_isr"`
	Base          decimal.Decimal `json:"base"`
	IVATrasladado decimal.Decimal `json:"iva_trasladado"`
	IVARetenido   decimal.Decimal `json:"iva_retenido"`
	ISRRetenido   decimal.Decimal `json:"isr_retenido"`
	Importe       decimal.Decimal `json:"importe"`
}

// InvoiceListResponse página de facturas.
type InvoiceListResponse struct {
	Items []*InvoiceResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}
