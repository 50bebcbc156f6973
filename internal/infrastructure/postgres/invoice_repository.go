package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Facturacion-api/internal/domain"
	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
	"github.com/jhoicas/Facturacion-api/internal/domain/repository"
)

var _ repository.InvoiceRepository = (*InvoiceRepo)(nil)

// InvoiceRepo implementación de InvoiceRepository (usable con pool o tx).
type InvoiceRepo struct {
	q Querier
}

// NewInvoiceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInvoiceRepository(q Querier) *InvoiceRepo {
	return &InvoiceRepo{q: q}
}

const invoiceColumns = `
	id, company_id, client_id, series, folio, currency, exchange_rate,
	payment_method, payment_form, cfdi_use, COALESCE(relation_type, ''), COALESCE(related_uuids, '{}'),
	subtotal, traslados, retenciones, total, status, payment_status,
	COALESCE(fiscal_uuid::text, ''), issue_date, stamped_at, scheduled_payment_date, collected_at,
	notes, COALESCE(cancellation_reason, ''), COALESCE(substitute_uuid::text, ''), cancelled_at,
	created_at, updated_at`

// Create persiste la cabecera y los conceptos de la factura en una sola transacción.
func (r *InvoiceRepo) Create(ctx context.Context, inv *entity.Invoice) error {
	if inv.ID == "" {
		inv.ID = uuid.New().String()
	}
	const query = `
		INSERT INTO invoices (
			id, company_id, client_id, series, folio, currency, exchange_rate,
			payment_method, payment_form, cfdi_use, relation_type, related_uuids,
			subtotal, traslados, retenciones, total, status, payment_status,
			issue_date, scheduled_payment_date, collected_at, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)`
	return withTx(ctx, r.q, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, query,
			inv.ID, inv.CompanyID, inv.ClientID, inv.Series, inv.Folio, inv.Currency, inv.ExchangeRate,
			inv.PaymentMethod, inv.PaymentForm, inv.CFDIUse, nullIfEmpty(inv.RelationType), inv.RelatedUUIDs,
			inv.Subtotal, inv.Traslados, inv.Retenciones, inv.Total, inv.Status, inv.PaymentStatus,
			inv.IssueDate, inv.ScheduledPaymentDate, inv.CollectedAt, inv.Notes, inv.CreatedAt, inv.UpdatedAt,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: serie y folio ya existen", domain.ErrDuplicate)
			}
			if isForeignKeyViolation(err) {
				return fmt.Errorf("%w: cliente inexistente", domain.ErrInvalidInput)
			}
			return fmt.Errorf("insert invoice: %w", err)
		}
		return insertConcepts(ctx, tx, inv)
	})
}

// Update reemplaza la cabecera y los conceptos. Solo aplica a borradores (status = DRAFT).
func (r *InvoiceRepo) Update(ctx context.Context, inv *entity.Invoice) error {
	const query = `
		UPDATE invoices
		SET client_id = $3, series = $4, folio = $5, currency = $6, exchange_rate = $7,
		    payment_method = $8, payment_form = $9, cfdi_use = $10, relation_type = $11, related_uuids = $12,
		    subtotal = $13, traslados = $14, retenciones = $15, total = $16,
		    payment_status = $17, issue_date = $18, scheduled_payment_date = $19, collected_at = $20,
		    notes = $21, updated_at = $22
		WHERE id = $1 AND company_id = $2 AND status = 'DRAFT'`
	return withTx(ctx, r.q, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, query,
			inv.ID, inv.CompanyID, inv.ClientID, inv.Series, inv.Folio, inv.Currency, inv.ExchangeRate,
			inv.PaymentMethod, inv.PaymentForm, inv.CFDIUse, nullIfEmpty(inv.RelationType), inv.RelatedUUIDs,
			inv.Subtotal, inv.Traslados, inv.Retenciones, inv.Total,
			inv.PaymentStatus, inv.IssueDate, inv.ScheduledPaymentDate, inv.CollectedAt,
			inv.Notes, inv.UpdatedAt,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: serie y folio ya existen", domain.ErrDuplicate)
			}
			return fmt.Errorf("update invoice: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: la factura ya no es un borrador", domain.ErrConflict)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM invoice_concepts WHERE invoice_id = $1`, inv.ID); err != nil {
			return fmt.Errorf("delete invoice concepts: %w", err)
		}
		return insertConcepts(ctx, tx, inv)
	})
}

func insertConcepts(ctx context.Context, tx pgx.Tx, inv *entity.Invoice) error {
	const query = `
		INSERT INTO invoice_concepts (
			id, invoice_id, position, product_code, unit_code, description,
			quantity, unit_price, discount, iva_rate, iva_ret_rate, isr_ret_rate)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	batch := &pgx.Batch{}
	for i := range inv.Concepts {
		c := &inv.Concepts[i]
		if c.ID == "" {
			c.ID = uuid.New().String()
		}
		c.InvoiceID = inv.ID
		batch.Queue(query,
			c.ID, c.InvoiceID, i, c.ProductCode, c.UnitCode, c.Description,
			c.Quantity, c.UnitPrice, c.Discount, c.IVARate, c.IVARetRate, c.ISRRetRate,
		)
	}
	if batch.Len() == 0 {
		return nil
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert invoice concepts: %w", err)
	}
	return nil
}

// UpdateCollection actualiza los campos de cobranza, editables en cualquier estado.
func (r *InvoiceRepo) UpdateCollection(ctx context.Context, inv *entity.Invoice) error {
	const query = `
		UPDATE invoices
		SET payment_status = $3, collected_at = $4, notes = $5, updated_at = $6
		WHERE id = $1 AND company_id = $2`
	tag, err := r.q.Exec(ctx, query, inv.ID, inv.CompanyID, inv.PaymentStatus, inv.CollectedAt, inv.Notes, inv.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update invoice collection: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// MarkStamped registra el timbrado. El folio fiscal solo se asigna si la factura sigue en borrador.
func (r *InvoiceRepo) MarkStamped(ctx context.Context, inv *entity.Invoice) error {
	const query = `
		UPDATE invoices
		SET status = $3, fiscal_uuid = $4, stamped_at = $5, stamped_xml = $6,
		    subtotal = $7, traslados = $8, retenciones = $9, total = $10, updated_at = $11
		WHERE id = $1 AND company_id = $2 AND status = 'DRAFT' AND fiscal_uuid IS NULL`
	tag, err := r.q.Exec(ctx, query,
		inv.ID, inv.CompanyID, inv.Status, inv.FiscalUUID, inv.StampedAt, nullIfEmpty(inv.StampedXML),
		inv.Subtotal, inv.Traslados, inv.Retenciones, inv.Total, inv.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: folio fiscal repetido", domain.ErrDuplicate)
		}
		return fmt.Errorf("mark invoice stamped: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: la factura ya fue timbrada", domain.ErrConflict)
	}
	return nil
}

// MarkCancellation guarda el estado de cancelación devuelto por el PAC.
func (r *InvoiceRepo) MarkCancellation(ctx context.Context, inv *entity.Invoice) error {
	const query = `
		UPDATE invoices
		SET status = $3, cancellation_reason = $4, substitute_uuid = $5, cancelled_at = $6, updated_at = $7
		WHERE id = $1 AND company_id = $2 AND status IN ('ISSUED', 'CANCELLATION_PENDING')`
	tag, err := r.q.Exec(ctx, query,
		inv.ID, inv.CompanyID, inv.Status, nullIfEmpty(inv.CancellationReason), nullIfEmpty(inv.SubstituteUUID),
		inv.CancelledAt, inv.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("mark invoice cancellation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: la factura no está emitida", domain.ErrConflict)
	}
	return nil
}

// GetByID obtiene la factura completa (con conceptos y XML timbrado).
func (r *InvoiceRepo) GetByID(ctx context.Context, companyID, id string) (*entity.Invoice, error) {
	if !isUUID(id) {
		return nil, nil
	}
	query := `SELECT ` + invoiceColumns + `, COALESCE(stamped_xml, '')
		FROM invoices WHERE id = $1 AND company_id = $2`
	var xml string
	inv, err := scanInvoice(r.q.QueryRow(ctx, query, id, companyID), &xml)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	inv.StampedXML = xml
	concepts, err := r.concepts(ctx, inv.ID)
	if err != nil {
		return nil, err
	}
	inv.Concepts = concepts
	return inv, nil
}

func (r *InvoiceRepo) concepts(ctx context.Context, invoiceID string) ([]entity.InvoiceConcept, error) {
	const query = `
		SELECT id, invoice_id, product_code, unit_code, description,
		       quantity, unit_price, discount, iva_rate, iva_ret_rate, isr_ret_rate
		FROM invoice_concepts WHERE invoice_id = $1 ORDER BY position`
	rows, err := r.q.Query(ctx, query, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("list invoice concepts: %w", err)
	}
	defer rows.Close()
	var list []entity.InvoiceConcept
	for rows.Next() {
		var c entity.InvoiceConcept
		if err := rows.Scan(&c.ID, &c.InvoiceID, &c.ProductCode, &c.UnitCode, &c.Description,
			&c.Quantity, &c.UnitPrice, &c.Discount, &c.IVARate, &c.IVARetRate, &c.ISRRetRate); err != nil {
			return nil, fmt.Errorf("scan concept: %w", err)
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

// List devuelve una página de facturas (sin conceptos ni XML) y el total que cumple el filtro.
func (r *InvoiceRepo) List(ctx context.Context, f repository.InvoiceFilter) ([]*entity.Invoice, int, error) {
	if f.ClientID != "" && !isUUID(f.ClientID) {
		return nil, 0, nil
	}
	where := []string{"company_id = $1"}
	args := []any{f.CompanyID}
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.ClientID != "" {
		add("client_id = $%d", f.ClientID)
	}
	if f.Status != "" {
		add("status = $%d", f.Status)
	}
	if f.PaymentStatus != "" {
		add("payment_status = $%d", f.PaymentStatus)
	}
	if f.From != nil {
		add("issue_date >= $%d", *f.From)
	}
	if f.To != nil {
		add("issue_date < $%d", *f.To)
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.q.QueryRow(ctx, `SELECT count(*) FROM invoices WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count invoices: %w", err)
	}

	limit, offset := pageLimit(f.Limit, f.Offset)
	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT %s FROM invoices WHERE %s ORDER BY issue_date DESC, folio DESC LIMIT $%d OFFSET $%d`,
		invoiceColumns, cond, len(args)-1, len(args))
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()
	var list []*entity.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows, nil)
		if err != nil {
			return nil, 0, fmt.Errorf("scan invoice: %w", err)
		}
		list = append(list, inv)
	}
	return list, total, rows.Err()
}

// scanInvoice lee las columnas de invoiceColumns; extra recibe columnas adicionales al final.
func scanInvoice(row pgxScanner, extra ...any) (*entity.Invoice, error) {
	var inv entity.Invoice
	dest := []any{
		&inv.ID, &inv.CompanyID, &inv.ClientID, &inv.Series, &inv.Folio, &inv.Currency, &inv.ExchangeRate,
		&inv.PaymentMethod, &inv.PaymentForm, &inv.CFDIUse, &inv.RelationType, &inv.RelatedUUIDs,
		&inv.Subtotal, &inv.Traslados, &inv.Retenciones, &inv.Total, &inv.Status, &inv.PaymentStatus,
		&inv.FiscalUUID, &inv.IssueDate, &inv.StampedAt, &inv.ScheduledPaymentDate, &inv.CollectedAt,
		&inv.Notes, &inv.CancellationReason, &inv.SubstituteUUID, &inv.CancelledAt,
		&inv.CreatedAt, &inv.UpdatedAt,
	}
	for _, e := range extra {
		if e != nil {
			dest = append(dest, e)
		}
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &inv, nil
}
