package pac

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"time"

	"github.com/beevik/etree"
	"github.com/google/uuid"

	"github.com/jhoicas/Facturacion-api/internal/application/billing"
	"github.com/jhoicas/Facturacion-api/internal/domain"
	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
)

var _ billing.StampingService = (*Sandbox)(nil)

// Sandbox PAC local para APP_ENV=development: no sale a la red. Asigna folios fiscales aleatorios,
// agrega un TimbreFiscalDigital simulado y cancela de inmediato (motivo 02 queda en proceso
// para poder ejercitar la consulta de estatus).
type Sandbox struct {
	mu       sync.Mutex
	statuses map[string]entity.FiscalStatus
	now      func() time.Time
}

// NewSandbox construye el PAC local.
func NewSandbox() *Sandbox {
	return &Sandbox{statuses: make(map[string]entity.FiscalStatus), now: time.Now}
}

// Stamp devuelve el XML recibido con el complemento de timbre.
func (s *Sandbox) Stamp(_ context.Context, req billing.StampRequest) (*billing.StampResult, error) {
	id := strings.ToUpper(uuid.New().String())
	at := s.now().UTC().Truncate(time.Second)

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(req.XML); err != nil {
		return nil, &domain.RemoteValidationError{Message: "XML inválido: " + err.Error()}
	}
	root := doc.Root()
	if root == nil {
		return nil, &domain.RemoteValidationError{Message: "XML sin elemento raíz"}
	}
	comp := root.FindElement("cfdi:Complemento")
	if comp == nil {
		comp = root.CreateElement("cfdi:Complemento")
	}
	tfd := comp.CreateElement("tfd:TimbreFiscalDigital")
	tfd.CreateAttr("xmlns:tfd", "http://www.sat.gob.mx/TimbreFiscalDigital")
	tfd.CreateAttr("Version", "1.1")
	tfd.CreateAttr("UUID", id)
	tfd.CreateAttr("FechaTimbrado", at.Format("2006-01-02T15:04:05"))
	tfd.CreateAttr("RfcProvCertif", "SPR190613I52")
	tfd.CreateAttr("NoCertificadoSAT", "30001000000500003456")

	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.statuses[id] = entity.StatusIssued
	s.mu.Unlock()
	return &billing.StampResult{UUID: id, StampedAt: at, StampedXML: buf.String()}, nil
}

// Cancel motivo 02 (con aceptación del receptor) queda en proceso; los demás se cancelan.
func (s *Sandbox) Cancel(_ context.Context, req billing.CancelRequest) (*billing.CancelResult, error) {
	status := entity.StatusCancelled
	if req.Reason == "02" {
		status = entity.StatusCancellationPending
	}
	s.mu.Lock()
	s.statuses[strings.ToUpper(req.UUID)] = status
	s.mu.Unlock()
	return &billing.CancelResult{Status: status}, nil
}

// CancellationStatus una cancelación en proceso se resuelve como aceptada en la siguiente consulta.
func (s *Sandbox) CancellationStatus(_ context.Context, id string) (entity.FiscalStatus, error) {
	key := strings.ToUpper(id)
	s.mu.Lock()
	defer s.mu.Unlock()
	status, ok := s.statuses[key]
	if !ok {
		return entity.StatusIssued, nil
	}
	if status == entity.StatusCancellationPending {
		s.statuses[key] = entity.StatusCancelled
		return entity.StatusCancelled, nil
	}
	return status, nil
}
