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

var _ repository.PaymentRepository = (*PaymentRepo)(nil)

// PaymentRepo implementación de PaymentRepository (usable con pool o tx).
type PaymentRepo struct {
	q Querier
}

// NewPaymentRepository construye el adaptador. Pasar pool o tx (Querier).
func NewPaymentRepository(q Querier) *PaymentRepo {
	return &PaymentRepo{q: q}
}

const paymentColumns = `
	id, company_id, client_id, series, folio, payment_date, currency, exchange_rate,
	payment_form, amount, status, COALESCE(fiscal_uuid::text, ''), stamped_at,
	COALESCE(cancellation_reason, ''), COALESCE(substitute_uuid::text, ''), cancelled_at,
	notes, created_at, updated_at`

// Create persiste el pago y sus documentos relacionados.
func (r *PaymentRepo) Create(ctx context.Context, p *entity.Payment) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	const query = `
		INSERT INTO payments (
			id, company_id, client_id, series, folio, payment_date, currency, exchange_rate,
			payment_form, amount, status, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	return withTx(ctx, r.q, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, query,
			p.ID, p.CompanyID, p.ClientID, p.Series, p.Folio, p.PaymentDate, p.Currency, p.ExchangeRate,
			p.PaymentForm, p.Amount, p.Status, p.Notes, p.CreatedAt, p.UpdatedAt,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: serie y folio ya existen", domain.ErrDuplicate)
			}
			if isForeignKeyViolation(err) {
				return fmt.Errorf("%w: cliente inexistente", domain.ErrInvalidInput)
			}
			return fmt.Errorf("insert payment: %w", err)
		}
		return insertDocuments(ctx, tx, p)
	})
}

// Update reemplaza cabecera y documentos de un pago en borrador.
func (r *PaymentRepo) Update(ctx context.Context, p *entity.Payment) error {
	const query = `
		UPDATE payments
		SET client_id = $3, series = $4, folio = $5, payment_date = $6, currency = $7, exchange_rate = $8,
		    payment_form = $9, amount = $10, notes = $11, updated_at = $12
		WHERE id = $1 AND company_id = $2 AND status = 'DRAFT'`
	return withTx(ctx, r.q, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, query,
			p.ID, p.CompanyID, p.ClientID, p.Series, p.Folio, p.PaymentDate, p.Currency, p.ExchangeRate,
			p.PaymentForm, p.Amount, p.Notes, p.UpdatedAt,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: serie y folio ya existen", domain.ErrDuplicate)
			}
			return fmt.Errorf("update payment: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: el pago ya no es un borrador", domain.ErrConflict)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM payment_documents WHERE payment_id = $1`, p.ID); err != nil {
			return fmt.Errorf("delete payment documents: %w", err)
		}
		return insertDocuments(ctx, tx, p)
	})
}

func insertDocuments(ctx context.Context, tx pgx.Tx, p *entity.Payment) error {
	const query = `
		INSERT INTO payment_documents (
			id, payment_id, invoice_id, position, amount, installment, prior_balance, resulting_balance)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	batch := &pgx.Batch{}
	for i := range p.Documents {
		d := &p.Documents[i]
		if d.ID == "" {
			d.ID = uuid.New().String()
		}
		d.PaymentID = p.ID
		batch.Queue(query, d.ID, d.PaymentID, d.InvoiceID, i, d.Amount, d.Installment, d.PriorBalance, d.ResultingBalance)
	}
	if batch.Len() == 0 {
		return nil
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert payment documents: %w", err)
	}
	return nil
}

// MarkStamped registra el timbrado del complemento de pago.
func (r *PaymentRepo) MarkStamped(ctx context.Context, p *entity.Payment) error {
	const query = `
		UPDATE payments
		SET status = $3, fiscal_uuid = $4, stamped_at = $5, stamped_xml = $6, updated_at = $7
		WHERE id = $1 AND company_id = $2 AND status = 'DRAFT' AND fiscal_uuid IS NULL`
	tag, err := r.q.Exec(ctx, query, p.ID, p.CompanyID, p.Status, p.FiscalUUID, p.StampedAt, nullIfEmpty(p.StampedXML), p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("mark payment stamped: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: el pago ya fue timbrado", domain.ErrConflict)
	}
	return nil
}

// MarkCancellation guarda el estado de cancelación devuelto por el PAC.
func (r *PaymentRepo) MarkCancellation(ctx context.Context, p *entity.Payment) error {
	const query = `
		UPDATE payments
		SET status = $3, cancellation_reason = $4, substitute_uuid = $5, cancelled_at = $6, updated_at = $7
		WHERE id = $1 AND company_id = $2 AND status IN ('ISSUED', 'CANCELLATION_PENDING')`
	tag, err := r.q.Exec(ctx, query,
		p.ID, p.CompanyID, p.Status, nullIfEmpty(p.CancellationReason), nullIfEmpty(p.SubstituteUUID), p.CancelledAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("mark payment cancellation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: el pago no está emitido", domain.ErrConflict)
	}
	return nil
}

// GetByID obtiene el pago con sus documentos relacionados.
func (r *PaymentRepo) GetByID(ctx context.Context, companyID, id string) (*entity.Payment, error) {
	if !isUUID(id) {
		return nil, nil
	}
	query := `SELECT ` + paymentColumns + `, COALESCE(stamped_xml, '')
		FROM payments WHERE id = $1 AND company_id = $2`
	var xml string
	p, err := scanPayment(r.q.QueryRow(ctx, query, id, companyID), &xml)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get payment: %w", err)
	}
	p.StampedXML = xml

	const docs = `
		SELECT id, payment_id, invoice_id, amount, installment, prior_balance, resulting_balance
		FROM payment_documents WHERE payment_id = $1 ORDER BY position`
	rows, err := r.q.Query(ctx, docs, p.ID)
	if err != nil {
		return nil, fmt.Errorf("list payment documents: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var d entity.PaymentDocument
		if err := rows.Scan(&d.ID, &d.PaymentID, &d.InvoiceID, &d.Amount, &d.Installment, &d.PriorBalance, &d.ResultingBalance); err != nil {
			return nil, fmt.Errorf("scan payment document: %w", err)
		}
		p.Documents = append(p.Documents, d)
	}
	return p, rows.Err()
}

// List devuelve una página de pagos (sin documentos) y el total que cumple el filtro.
func (r *PaymentRepo) List(ctx context.Context, f repository.PaymentFilter) ([]*entity.Payment, int, error) {
	if f.ClientID != "" && !isUUID(f.ClientID) {
		return nil, 0, nil
	}
	where := []string{"company_id = $1"}
	args := []any{f.CompanyID}
	if f.ClientID != "" {
		args = append(args, f.ClientID)
		where = append(where, fmt.Sprintf("client_id = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.q.QueryRow(ctx, `SELECT count(*) FROM payments WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count payments: %w", err)
	}
	limit, offset := pageLimit(f.Limit, f.Offset)
	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT %s FROM payments WHERE %s ORDER BY payment_date DESC, folio DESC LIMIT $%d OFFSET $%d`,
		paymentColumns, cond, len(args)-1, len(args))
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()
	var list []*entity.Payment
	for rows.Next() {
		p, err := scanPayment(rows, nil)
		if err != nil {
			return nil, 0, fmt.Errorf("scan payment: %w", err)
		}
		list = append(list, p)
	}
	return list, total, rows.Err()
}

func scanPayment(row pgxScanner, extra ...any) (*entity.Payment, error) {
	var p entity.Payment
	dest := []any{
		&p.ID, &p.CompanyID, &p.ClientID, &p.Series, &p.Folio, &p.PaymentDate, &p.Currency, &p.ExchangeRate,
		&p.PaymentForm, &p.Amount, &p.Status, &p.FiscalUUID, &p.StampedAt,
		&p.CancellationReason, &p.SubstituteUUID, &p.CancelledAt,
		&p.Notes, &p.CreatedAt, &p.UpdatedAt,
	}
	for _, e := range extra {
		if e != nil {
			dest = append(dest, e)
		}
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &p, nil
}
