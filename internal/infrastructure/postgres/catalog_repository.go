package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
	"github.com/jhoicas/Facturacion-api/internal/domain/repository"
)

var _ repository.CatalogRepository = (*CatalogRepo)(nil)

// CatalogRepo consulta la tabla sat_catalog (cargada por cmd/seed_sat).
type CatalogRepo struct {
	pool *pgxpool.Pool
}

// NewCatalogRepository construye el adaptador.
func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepo {
	return &CatalogRepo{pool: pool}
}

// Search busca por prefijo de clave o por texto en la descripción. Solo claves vigentes.
func (r *CatalogRepo) Search(ctx context.Context, catalog, term string, limit int) ([]entity.CatalogEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	const query = `
		SELECT catalog, code, description
		FROM sat_catalog
		WHERE catalog = $1
		  AND (valid_to IS NULL OR valid_to >= CURRENT_DATE)
		  AND (code LIKE $2 || '%' OR description ILIKE '%' || $2 || '%')
		ORDER BY (code LIKE $2 || '%') DESC, code
		LIMIT $3`
	rows, err := r.pool.Query(ctx, query, catalog, term, limit)
	if err != nil {
		return nil, fmt.Errorf("search sat_catalog: %w", err)
	}
	defer rows.Close()
	var list []entity.CatalogEntry
	for rows.Next() {
		var e entity.CatalogEntry
		if err := rows.Scan(&e.Catalog, &e.Code, &e.Description); err != nil {
			return nil, fmt.Errorf("scan sat_catalog: %w", err)
		}
		list = append(list, e)
	}
	return list, rows.Err()
}

// Exists indica si la clave está vigente en el catálogo.
func (r *CatalogRepo) Exists(ctx context.Context, catalog, code string) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1 FROM sat_catalog
			WHERE catalog = $1 AND code = $2 AND (valid_to IS NULL OR valid_to >= CURRENT_DATE))`
	var ok bool
	if err := r.pool.QueryRow(ctx, query, catalog, code).Scan(&ok); err != nil {
		return false, fmt.Errorf("exists sat_catalog: %w", err)
	}
	return ok, nil
}
