package cfdi

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
)

// Solo los complementos timbrados y vigentes forman el historial de saldos de una factura:
// un borrador aún no existe ante el SAT y uno cancelado deja de contar.
var balanceStatuses = []entity.FiscalStatus{entity.StatusIssued, entity.StatusCancellationPending}

// BalanceStatuses estados de pago que cuentan para saldos y parcialidades, como texto para consultas.
func BalanceStatuses() []string {
	out := make([]string, len(balanceStatuses))
	for i, s := range balanceStatuses {
		out[i] = string(s)
	}
	return out
}

// CountsTowardBalance indica si un pago en el estado s forma parte del historial de saldos.
func CountsTowardBalance(s entity.FiscalStatus) bool {
	for _, b := range balanceStatuses {
		if b == s {
			return true
		}
	}
	return false
}

// CollectionStatus status de cobranza de una factura según su saldo insoluto vigente.
func CollectionStatus(total, balance decimal.Decimal) string {
	switch {
	case !balance.IsPositive():
		return entity.PaymentStatusPaid
	case balance.LessThan(total):
		return entity.PaymentStatusPartial
	default:
		return entity.PaymentStatusPending
	}
}
