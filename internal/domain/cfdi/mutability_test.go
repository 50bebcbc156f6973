package cfdi_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/Facturacion-api/internal/domain/cfdi"
	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
)

func issuedInvoice() *entity.Invoice {
	return &entity.Invoice{
		ID:            "inv-1",
		ClientID:      "cli-1",
		Currency:      "MXN",
		PaymentMethod: "PPD",
		PaymentForm:   "99",
		CFDIUse:       "G03",
		Concepts:      []entity.InvoiceConcept{concept("10", "100", "0", "0.16", "0", "0")},
		Status:        entity.StatusIssued,
		PaymentStatus: entity.PaymentStatusPending,
		IssueDate:     time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestValidateEdit_EmitidaRechazaCambioDeCliente(t *testing.T) {
	current := issuedInvoice()
	proposed := *current
	proposed.ClientID = "cli-2"

	ve := cfdi.ValidateEdit(current, &proposed)
	assert.True(t, ve.Has("cliente_id"))
}

func TestValidateEdit_EmitidaPermiteMarcarPagada(t *testing.T) {
	current := issuedInvoice()
	proposed := *current
	cobro := time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)
	proposed.PaymentStatus = entity.PaymentStatusPaid
	proposed.CollectedAt = &cobro
	proposed.Notes = "cobrada por transferencia"

	ve := cfdi.ValidateEdit(current, &proposed)
	assert.NoError(t, ve.OrNil())
}

func TestValidateEdit_PagadaSinFechaDeCobro(t *testing.T) {
	current := issuedInvoice()
	proposed := *current
	proposed.PaymentStatus = entity.PaymentStatusPaid

	ve := cfdi.ValidateEdit(current, &proposed)
	assert.True(t, ve.Has("fecha_cobro"))
}

func TestValidateEdit_ConceptosBloqueados(t *testing.T) {
	current := issuedInvoice()
	proposed := *current
	proposed.Concepts = cfdi.AddConcept(current.Concepts, concept("1", "1", "0", "0", "0", "0"))

	ve := cfdi.ValidateEdit(current, &proposed)
	assert.True(t, ve.Has("conceptos"))
}

func TestValidateEdit_BorradorLibre(t *testing.T) {
	current := issuedInvoice()
	current.Status = entity.StatusDraft
	proposed := *current
	proposed.ClientID = "cli-2"
	proposed.Series = "B"

	assert.NoError(t, cfdi.ValidateEdit(current, &proposed).OrNil())
	assert.Equal(t, []string{"cliente_id", "serie"}, cfdi.ChangedFields(current, &proposed))
}

func TestIsEditable_Cancelada(t *testing.T) {
	assert.True(t, cfdi.IsEditable(entity.StatusCancelled, "notas"))
	assert.True(t, cfdi.IsEditable(entity.StatusCancelled, "status_pago"))
	assert.False(t, cfdi.IsEditable(entity.StatusCancelled, "moneda"))
	assert.False(t, cfdi.IsEditable(entity.StatusIssued, "campo_desconocido"))
}

func TestValidatePaymentStatus_ValorInvalido(t *testing.T) {
	ve := cfdi.ValidatePaymentStatus("cobrada", nil)
	assert.True(t, ve.Has("status_pago"))
}

func TestEditableFields(t *testing.T) {
	assert.Equal(t, []string{"status_pago", "fecha_cobro", "notas"}, cfdi.EditableFields(entity.StatusIssued))
	assert.Contains(t, cfdi.EditableFields(entity.StatusDraft), "conceptos")
}
