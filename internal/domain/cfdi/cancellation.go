package cfdi

import (
	"fmt"
	"strings"

	"github.com/jhoicas/Facturacion-api/internal/domain"
	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
	"github.com/jhoicas/Facturacion-api/pkg/sat"
)

// CancellationRequest solicitud de cancelación ante el PAC.
type CancellationRequest struct {
	Reason         string // c_MotivoCancelacion
	SubstituteUUID string // Folio fiscal que sustituye al cancelado (solo motivo 01)
}

// ValidateCancellation valida la solicitud contra el estado actual del documento y devuelve la
// solicitud normalizada: con motivo distinto de 01 el folio de sustitución se descarta.
// ownUUID es el folio fiscal del documento a cancelar.
func ValidateCancellation(status entity.FiscalStatus, ownUUID string, req CancellationRequest) (CancellationRequest, error) {
	if err := RequireEvent(status, EventCancel); err != nil {
		return CancellationRequest{}, err
	}
	out := CancellationRequest{
		Reason:         strings.TrimSpace(req.Reason),
		SubstituteUUID: strings.TrimSpace(req.SubstituteUUID),
	}
	ve := &domain.ValidationError{}
	switch {
	case out.Reason == "":
		ve.Add("motivo", "requerido")
	case !sat.ValidCancellationReasons[out.Reason]:
		ve.Add("motivo", fmt.Sprintf("motivo de cancelación no válido: %q", out.Reason))
	case out.Reason == sat.MotivoConRelacion:
		if out.SubstituteUUID == "" {
			ve.Add("folio_sustitucion", "requerido con motivo 01")
		} else if !sat.IsFolioFiscal(out.SubstituteUUID) {
			ve.Add("folio_sustitucion", "debe ser un folio fiscal válido (UUID de 36 caracteres)")
		} else if strings.EqualFold(out.SubstituteUUID, ownUUID) {
			ve.Add("folio_sustitucion", "no puede ser el mismo folio fiscal que se cancela")
		}
	default:
		out.SubstituteUUID = ""
	}
	if err := ve.OrNil(); err != nil {
		return CancellationRequest{}, err
	}
	return out, nil
}

// CheckCancellationResult valida que el estado devuelto por el PAC sea un destino legal.
func CheckCancellationResult(from, to entity.FiscalStatus) error {
	if !CanTransition(from, EventCancel, to) {
		return fmt.Errorf("%w: el PAC devolvió el estado %s desde %s", domain.ErrInvalidState, to, from)
	}
	return nil
}
