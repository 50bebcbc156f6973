package cfdi

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
)

// AllocationDraft importes capturados por factura mientras se edita un pago.
// Es inmutable: cada operación devuelve un borrador nuevo.
type AllocationDraft struct {
	clientID string
	amounts  map[string]*decimal.Decimal
}

// NewAllocationDraft borrador vacío para un cliente.
func NewAllocationDraft(clientID string) AllocationDraft {
	return AllocationDraft{clientID: clientID, amounts: map[string]*decimal.Decimal{}}
}

// SeedDraft reconstruye el borrador de un pago existente a partir de sus documentos guardados.
func SeedDraft(clientID string, docs []entity.PaymentDocument) AllocationDraft {
	d := NewAllocationDraft(clientID)
	for _, doc := range docs {
		amt := doc.Amount
		d.amounts[doc.InvoiceID] = &amt
	}
	return d
}

// ClientID cliente al que pertenecen las facturas del borrador.
func (d AllocationDraft) ClientID() string { return d.clientID }

// SelectClient cambiar de cliente descarta todos los importes; volver a elegir el mismo los conserva.
func (d AllocationDraft) SelectClient(clientID string) AllocationDraft {
	if clientID == d.clientID {
		return d.clone()
	}
	return NewAllocationDraft(clientID)
}

// Set asigna (o limpia, con nil) el importe de una factura.
func (d AllocationDraft) Set(invoiceID string, amount *decimal.Decimal) AllocationDraft {
	out := d.clone()
	if amount == nil {
		delete(out.amounts, invoiceID)
		return out
	}
	a := *amount
	out.amounts[invoiceID] = &a
	return out
}

// Amounts copia de los importes por factura.
func (d AllocationDraft) Amounts() map[string]*decimal.Decimal {
	return d.clone().amounts
}

// InvoiceIDs facturas con importe capturado, ordenadas.
func (d AllocationDraft) InvoiceIDs() []string {
	ids := make([]string, 0, len(d.amounts))
	for id := range d.amounts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Sum suma de importes positivos capturados (sin redondear).
func (d AllocationDraft) Sum() decimal.Decimal {
	sum := decimal.Zero
	for _, a := range d.amounts {
		if a != nil && a.IsPositive() {
			sum = sum.Add(*a)
		}
	}
	return sum
}

func (d AllocationDraft) clone() AllocationDraft {
	out := AllocationDraft{clientID: d.clientID, amounts: make(map[string]*decimal.Decimal, len(d.amounts))}
	for k, v := range d.amounts {
		if v == nil {
			out.amounts[k] = nil
			continue
		}
		a := *v
		out.amounts[k] = &a
	}
	return out
}
