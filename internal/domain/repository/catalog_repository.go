package repository

import (
	"context"

	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
)

// CatalogRepository consulta de catálogos SAT de solo lectura.
type CatalogRepository interface {
	Search(ctx context.Context, catalog, term string, limit int) ([]entity.CatalogEntry, error)
	Exists(ctx context.Context, catalog, code string) (bool, error)
}
