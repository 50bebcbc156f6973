package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Facturacion-api/internal/domain"
	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
	"github.com/jhoicas/Facturacion-api/internal/domain/repository"
)

var _ repository.ClientRepository = (*ClientRepo)(nil)

// ClientRepo implementación de ClientRepository (usable con pool o tx).
type ClientRepo struct {
	q Querier
}

// NewClientRepository construye el adaptador. Pasar pool o tx (Querier).
func NewClientRepository(q Querier) *ClientRepo {
	return &ClientRepo{q: q}
}

const clientColumns = `id, company_id, name, rfc, fiscal_regime, person_type, postal_code, cfdi_use,
	credit_days, email, created_at, updated_at`

// Create persiste un nuevo cliente.
func (r *ClientRepo) Create(ctx context.Context, c *entity.Client) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	query := `INSERT INTO clients (` + clientColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.q.Exec(ctx, query,
		c.ID, c.CompanyID, c.Name, c.RFC, c.FiscalRegime, c.PersonType, c.PostalCode, c.CFDIUse,
		c.CreditDays, c.Email, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert client: %w", err)
	}
	return nil
}

// GetByID obtiene un cliente de la empresa por ID.
func (r *ClientRepo) GetByID(ctx context.Context, companyID, id string) (*entity.Client, error) {
	if !isUUID(id) {
		return nil, nil
	}
	query := `SELECT ` + clientColumns + ` FROM clients WHERE id = $1 AND company_id = $2`
	c, err := scanClient(r.q.QueryRow(ctx, query, id, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get client: %w", err)
	}
	return c, nil
}

// GetByRFC obtiene un cliente por empresa y RFC.
func (r *ClientRepo) GetByRFC(ctx context.Context, companyID, rfc string) (*entity.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE company_id = $1 AND rfc = $2`
	c, err := scanClient(r.q.QueryRow(ctx, query, companyID, rfc))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get client by rfc: %w", err)
	}
	return c, nil
}

// ListByCompany lista clientes de la empresa; search filtra por nombre o RFC.
func (r *ClientRepo) ListByCompany(ctx context.Context, companyID, search string, limit, offset int) ([]*entity.Client, error) {
	limit, offset = pageLimit(limit, offset)
	query := `SELECT ` + clientColumns + ` FROM clients
		WHERE company_id = $1 AND ($2 = '' OR name ILIKE '%' || $2 || '%' OR rfc ILIKE $2 || '%')
		ORDER BY name LIMIT $3 OFFSET $4`
	rows, err := r.q.Query(ctx, query, companyID, search, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()
	var list []*entity.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

// Update actualiza un cliente.
func (r *ClientRepo) Update(ctx context.Context, c *entity.Client) error {
	const query = `
		UPDATE clients
		SET name = $3, rfc = $4, fiscal_regime = $5, person_type = $6, postal_code = $7, cfdi_use = $8,
		    credit_days = $9, email = $10, updated_at = $11
		WHERE id = $1 AND company_id = $2`
	tag, err := r.q.Exec(ctx, query,
		c.ID, c.CompanyID, c.Name, c.RFC, c.FiscalRegime, c.PersonType, c.PostalCode, c.CFDIUse,
		c.CreditDays, c.Email, c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("update client: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete elimina un cliente sin documentos.
func (r *ClientRepo) Delete(ctx context.Context, companyID, id string) error {
	if !isUUID(id) {
		return domain.ErrNotFound
	}
	tag, err := r.q.Exec(ctx, `DELETE FROM clients WHERE id = $1 AND company_id = $2`, id, companyID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: el cliente tiene documentos", domain.ErrConflict)
		}
		return fmt.Errorf("delete client: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanClient(row pgxScanner) (*entity.Client, error) {
	var c entity.Client
	err := row.Scan(
		&c.ID, &c.CompanyID, &c.Name, &c.RFC, &c.FiscalRegime, &c.PersonType, &c.PostalCode, &c.CFDIUse,
		&c.CreditDays, &c.Email, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
