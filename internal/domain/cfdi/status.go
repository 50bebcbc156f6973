package cfdi

import (
	"fmt"

	"github.com/jhoicas/Facturacion-api/internal/domain"
	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
)

// Operaciones que provocan un cambio de estado fiscal.
type Event string

const (
	EventEdit    Event = "edit"
	EventStamp   Event = "stamp"
	EventCancel  Event = "cancel"
	EventRefresh Event = "refresh" // Consulta del estatus de una cancelación pendiente
)

// transitions tabla de transiciones permitidas: estado origen → evento → destinos válidos.
// Ninguna transición regresa a DRAFT salvo la edición de un borrador.
var transitions = map[entity.FiscalStatus]map[Event][]entity.FiscalStatus{
	entity.StatusDraft: {
		EventEdit:  {entity.StatusDraft},
		EventStamp: {entity.StatusIssued},
	},
	entity.StatusIssued: {
		EventCancel: {entity.StatusCancelled, entity.StatusCancellationPending},
	},
	entity.StatusCancellationPending: {
		EventCancel:  {entity.StatusCancelled, entity.StatusCancellationPending},
		EventRefresh: {entity.StatusCancelled, entity.StatusCancellationPending, entity.StatusIssued},
	},
}

// CanTransition indica si el evento lleva legalmente de from a to.
// La respuesta del PAC a un refresh puede devolver ISSUED si el receptor rechazó la cancelación.
func CanTransition(from entity.FiscalStatus, ev Event, to entity.FiscalStatus) bool {
	for _, s := range transitions[from][ev] {
		if s == to {
			return true
		}
	}
	return false
}

// CanApply indica si el evento se admite en el estado actual (sin importar el destino).
func CanApply(from entity.FiscalStatus, ev Event) bool {
	return len(transitions[from][ev]) > 0
}

// IsTerminal indica si ya no admite ningún evento.
func IsTerminal(s entity.FiscalStatus) bool {
	return s == entity.StatusCancelled
}

// IsLocked indica si el documento ya tiene efectos fiscales (no editable salvo cobranza).
func IsLocked(s entity.FiscalStatus) bool {
	return s != entity.StatusDraft
}

// ValidStatus indica si s es un estado fiscal conocido.
func ValidStatus(s entity.FiscalStatus) bool {
	switch s {
	case entity.StatusDraft, entity.StatusIssued, entity.StatusCancellationPending, entity.StatusCancelled:
		return true
	}
	return false
}

// RequireEvent devuelve ErrInvalidState si el evento no aplica en el estado actual.
func RequireEvent(from entity.FiscalStatus, ev Event) error {
	if !CanApply(from, ev) {
		return fmt.Errorf("%w: %s no permitido en estado %s", domain.ErrInvalidState, ev, from)
	}
	return nil
}
