package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Facturacion-api/internal/domain/cfdi"
	"github.com/jhoicas/Facturacion-api/internal/domain/repository"
)

var _ repository.InvoiceBalanceReader = (*BalanceReader)(nil)

// BalanceReader consulta de saldos insolutos a partir del historial de payment_documents.
type BalanceReader struct {
	q Querier
}

// NewBalanceReader construye el adaptador. Pasar pool o tx (Querier).
func NewBalanceReader(q Querier) *BalanceReader {
	return &BalanceReader{q: q}
}

// historyJoin agrega los documentos de una factura cuyos pagos están en $statuses.
// Un agregado sin GROUP BY siempre devuelve una fila (n = 0 sin pagos).
const historyJoin = `
	LEFT JOIN LATERAL (
		SELECT SUM(d.amount) AS paid, MAX(d.installment) AS installment,
		       MAX(p.payment_date) AS last_paid_at, COUNT(*) AS n
		FROM payment_documents d
		JOIN payments p ON p.id = d.payment_id
		WHERE d.invoice_id = i.id
		  AND p.status = ANY(%s::text[])
		  %s
	) h ON true`

// Outstanding facturas PPD emitidas del cliente con saldo mayor a cero. El saldo es el total menos
// lo pagado en complementos vigentes; la parcialidad siguiente parte de la mayor registrada.
func (r *BalanceReader) Outstanding(ctx context.Context, companyID, clientID, excludePaymentID string) ([]repository.OutstandingInvoice, error) {
	if !isUUID(clientID) {
		return nil, nil
	}
	query := `
		SELECT i.id, i.series, i.folio, COALESCE(i.fiscal_uuid::text, ''), i.currency, i.issue_date, i.total,
		       CASE WHEN h.n > 0 THEN GREATEST(i.total - h.paid, 0) END, COALESCE(h.installment, 0)
		FROM invoices i` +
		fmt.Sprintf(historyJoin, "$4", "AND ($3::text = '' OR p.id::text <> $3::text)") + `
		WHERE i.company_id = $1
		  AND i.client_id  = $2
		  AND i.status     = 'ISSUED'
		  AND i.payment_method = 'PPD'
		  AND i.total - COALESCE(h.paid, 0) > 0
		ORDER BY i.issue_date, i.series, i.folio`
	rows, err := r.q.Query(ctx, query, companyID, clientID, excludePaymentID, cfdi.BalanceStatuses())
	if err != nil {
		return nil, fmt.Errorf("outstanding invoices: %w", err)
	}
	defer rows.Close()
	var list []repository.OutstandingInvoice
	for rows.Next() {
		var o repository.OutstandingInvoice
		if err := rows.Scan(&o.InvoiceID, &o.Series, &o.Folio, &o.FiscalUUID, &o.Currency, &o.IssueDate, &o.Total,
			&o.LastBalance, &o.LastInstallment); err != nil {
			return nil, fmt.Errorf("scan outstanding invoice: %w", err)
		}
		list = append(list, o)
	}
	return list, rows.Err()
}

// Collection saldo vigente de una factura de la empresa.
func (r *BalanceReader) Collection(ctx context.Context, companyID, invoiceID string) (*repository.InvoiceCollection, error) {
	if !isUUID(invoiceID) {
		return nil, nil
	}
	query := `
		SELECT i.id, i.total, COALESCE(h.paid, 0), h.n, h.last_paid_at
		FROM invoices i` +
		fmt.Sprintf(historyJoin, "$3", "") + `
		WHERE i.id = $1 AND i.company_id = $2`
	var c repository.InvoiceCollection
	err := r.q.QueryRow(ctx, query, invoiceID, companyID, cfdi.BalanceStatuses()).
		Scan(&c.InvoiceID, &c.Total, &c.Paid, &c.Payments, &c.LastPaidAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("invoice collection: %w", err)
	}
	return &c, nil
}
