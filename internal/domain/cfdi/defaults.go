package cfdi

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
	"github.com/jhoicas/Facturacion-api/pkg/sat"
)

// DefaultScheduledPaymentDate fecha programada de pago según los días de crédito del cliente.
// Sin crédito devuelve nil.
func DefaultScheduledPaymentDate(issue time.Time, client *entity.Client) *time.Time {
	if client == nil || client.CreditDays <= 0 || issue.IsZero() {
		return nil
	}
	d := issue.AddDate(0, 0, client.CreditDays)
	return &d
}

// SuggestRetentions tasas de retención sugeridas para los conceptos: una persona moral que
// recibe servicios de una persona física retiene 2/3 del IVA y 10% de ISR (1.25% si el emisor tributa en RESICO).
func SuggestRetentions(issuer *entity.Company, client *entity.Client) (ivaRet, isrRet decimal.Decimal) {
	if issuer == nil || client == nil {
		return decimal.Zero, decimal.Zero
	}
	if client.PersonType != entity.PersonTypeMoral || issuer.PersonType != entity.PersonTypeFisica {
		return decimal.Zero, decimal.Zero
	}
	if issuer.FiscalRegime == sat.RegimenSimplificadoConf {
		return sat.RetIVADosTercios, sat.RetISRResico
	}
	return sat.RetIVADosTercios, sat.RetISR10
}
