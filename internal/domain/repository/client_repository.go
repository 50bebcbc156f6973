package repository

import (
	"context"

	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
)

// ClientRepository define el puerto de persistencia para Client (receptores de CFDI).
type ClientRepository interface {
	Create(ctx context.Context, c *entity.Client) error
	GetByID(ctx context.Context, companyID, id string) (*entity.Client, error)
	GetByRFC(ctx context.Context, companyID, rfc string) (*entity.Client, error)
	ListByCompany(ctx context.Context, companyID, search string, limit, offset int) ([]*entity.Client, error)
	Update(ctx context.Context, c *entity.Client) error
	Delete(ctx context.Context, companyID, id string) error
}
