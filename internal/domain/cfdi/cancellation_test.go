package cfdi_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Facturacion-api/internal/domain"
	"github.com/jhoicas/Facturacion-api/internal/domain/cfdi"
	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
)

const ownUUID = "5FB2822E-396D-4725-8521-CDC4BDD20CCF"

func TestValidateCancellation_Motivo01(t *testing.T) {
	_, err := cfdi.ValidateCancellation(entity.StatusIssued, ownUUID,
		cfdi.CancellationRequest{Reason: "01", SubstituteUUID: "not-a-uuid"})
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.True(t, ve.Has("folio_sustitucion"))

	req, err := cfdi.ValidateCancellation(entity.StatusIssued, ownUUID,
		cfdi.CancellationRequest{Reason: "01", SubstituteUUID: "ABC1147C-D41E-4596-9C3E-45629B090000"})
	require.NoError(t, err)
	assert.Equal(t, "ABC1147C-D41E-4596-9C3E-45629B090000", req.SubstituteUUID)
}

func TestValidateCancellation_Motivo01SinFolio(t *testing.T) {
	_, err := cfdi.ValidateCancellation(entity.StatusIssued, ownUUID, cfdi.CancellationRequest{Reason: "01"})
	assert.Equal(t, "requerido con motivo 01", domain.FieldErrors(err)["folio_sustitucion"])
}

func TestValidateCancellation_MismoFolio(t *testing.T) {
	_, err := cfdi.ValidateCancellation(entity.StatusIssued, ownUUID,
		cfdi.CancellationRequest{Reason: "01", SubstituteUUID: ownUUID})
	assert.Contains(t, domain.FieldErrors(err), "folio_sustitucion")
}

func TestValidateCancellation_OtroMotivoDescartaFolio(t *testing.T) {
	req, err := cfdi.ValidateCancellation(entity.StatusIssued, ownUUID,
		cfdi.CancellationRequest{Reason: " 02 ", SubstituteUUID: "cualquier cosa"})
	require.NoError(t, err)
	assert.Equal(t, "02", req.Reason)
	assert.Empty(t, req.SubstituteUUID)
}

func TestValidateCancellation_MotivoInvalido(t *testing.T) {
	_, err := cfdi.ValidateCancellation(entity.StatusIssued, ownUUID, cfdi.CancellationRequest{Reason: "09"})
	assert.Contains(t, domain.FieldErrors(err), "motivo")

	_, err = cfdi.ValidateCancellation(entity.StatusIssued, ownUUID, cfdi.CancellationRequest{})
	assert.Contains(t, domain.FieldErrors(err), "motivo")
}

func TestValidateCancellation_Estado(t *testing.T) {
	_, err := cfdi.ValidateCancellation(entity.StatusDraft, "", cfdi.CancellationRequest{Reason: "02"})
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	_, err = cfdi.ValidateCancellation(entity.StatusCancelled, ownUUID, cfdi.CancellationRequest{Reason: "02"})
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestCheckCancellationResult(t *testing.T) {
	assert.NoError(t, cfdi.CheckCancellationResult(entity.StatusIssued, entity.StatusCancellationPending))
	assert.ErrorIs(t, cfdi.CheckCancellationResult(entity.StatusIssued, entity.StatusDraft), domain.ErrInvalidState)
}
