package billing

import (
	"context"
	"time"

	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
	"github.com/jhoicas/Facturacion-api/internal/domain/repository"
)

// BillingTx repositorios ligados a una misma transacción.
type BillingTx struct {
	Invoices repository.InvoiceRepository
	Payments repository.PaymentRepository
	Balances repository.InvoiceBalanceReader // ve los cambios aún no confirmados de la transacción
}

// BillingTxRunner ejecuta una función dentro de una transacción con los repos de facturas y pagos.
type BillingTxRunner interface {
	RunBilling(ctx context.Context, fn func(tx BillingTx) error) error
}

// StampRequest CFDI sin timbrar que se envía al PAC.
type StampRequest struct {
	XML []byte
}

// StampResult respuesta de un timbrado exitoso.
type StampResult struct {
	UUID       string
	StampedAt  time.Time
	StampedXML string
}

// CancelRequest solicitud de cancelación de un CFDI timbrado.
type CancelRequest struct {
	UUID           string
	IssuerRFC      string
	Reason         string
	SubstituteUUID string
}

// CancelResult estado devuelto por el PAC (CANCELLED o CANCELLATION_PENDING).
type CancelResult struct {
	Status entity.FiscalStatus
}

// StampingService puerto hacia el PAC. Los errores de datos se devuelven como
// *domain.RemoteValidationError; los de transporte o 5xx envuelven domain.ErrRemoteUnavailable.
type StampingService interface {
	Stamp(ctx context.Context, req StampRequest) (*StampResult, error)
	Cancel(ctx context.Context, req CancelRequest) (*CancelResult, error)
	// CancellationStatus consulta el estatus actual de un CFDI (ISSUED, CANCELLATION_PENDING o CANCELLED).
	CancellationStatus(ctx context.Context, uuid string) (entity.FiscalStatus, error)
}

// CFDIBuilder genera el XML sin sellar de una factura o de un complemento de pago.
type CFDIBuilder interface {
	BuildInvoice(company *entity.Company, client *entity.Client, inv *entity.Invoice) ([]byte, error)
	BuildPayment(company *entity.Company, client *entity.Client, p *entity.Payment, related map[string]*entity.Invoice) ([]byte, error)
}

// PDFGenerator genera la representación impresa de una factura timbrada.
type PDFGenerator interface {
	GenerateInvoicePDF(company *entity.Company, client *entity.Client, inv *entity.Invoice) ([]byte, error)
}
