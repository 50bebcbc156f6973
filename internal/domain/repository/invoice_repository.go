package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
)

// InvoiceFilter criterios del listado de facturas. Los campos vacíos no filtran.
type InvoiceFilter struct {
	CompanyID     string
	ClientID      string
	Status        entity.FiscalStatus
	PaymentStatus string
	From          *time.Time
	To            *time.Time
	Limit         int
	Offset        int
}

// InvoiceRepository define el puerto de persistencia para Invoice y sus conceptos.
type InvoiceRepository interface {
	// Create persiste cabecera y conceptos.
	Create(ctx context.Context, inv *entity.Invoice) error
	// Update reemplaza cabecera y conceptos de un borrador.
	Update(ctx context.Context, inv *entity.Invoice) error
	// UpdateCollection actualiza solo status_pago, fecha_cobro y notas.
	UpdateCollection(ctx context.Context, inv *entity.Invoice) error
	// MarkStamped guarda folio fiscal, fecha de timbrado y XML timbrado (DRAFT → ISSUED).
	MarkStamped(ctx context.Context, inv *entity.Invoice) error
	// MarkCancellation guarda el estado devuelto por el PAC y los datos de la solicitud.
	MarkCancellation(ctx context.Context, inv *entity.Invoice) error
	// GetByID devuelve la factura con sus conceptos; nil, nil si no existe en la empresa.
	GetByID(ctx context.Context, companyID, id string) (*entity.Invoice, error)
	// List devuelve la página solicitada (sin conceptos) y el total de registros.
	List(ctx context.Context, f InvoiceFilter) ([]*entity.Invoice, int, error)
}
