package repository

import (
	"context"

	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
)

// PaymentFilter criterios del listado de complementos de pago.
type PaymentFilter struct {
	CompanyID string
	ClientID  string
	Status    entity.FiscalStatus
	Limit     int
	Offset    int
}

// PaymentRepository define el puerto de persistencia para Payment y sus documentos relacionados.
type PaymentRepository interface {
	Create(ctx context.Context, p *entity.Payment) error
	// Update reemplaza cabecera y documentos de un borrador.
	Update(ctx context.Context, p *entity.Payment) error
	MarkStamped(ctx context.Context, p *entity.Payment) error
	MarkCancellation(ctx context.Context, p *entity.Payment) error
	// GetByID devuelve el pago con sus documentos; nil, nil si no existe en la empresa.
	GetByID(ctx context.Context, companyID, id string) (*entity.Payment, error)
	List(ctx context.Context, f PaymentFilter) ([]*entity.Payment, int, error)
}
