package cfdi_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/Facturacion-api/internal/domain/cfdi"
)

func TestValidatePaymentMethod(t *testing.T) {
	cases := []struct {
		// field es el campo con error esperado; vacío si es válido.
		name, method, form, field string
	}{
		{"PUE con transferencia", "PUE", "03", ""},
		{"PUE con 99", "PUE", "99", "forma_pago"},
		{"PUE sin forma", "PUE", "", "forma_pago"},
		{"PPD con 99", "PPD", "99", ""},
		{"PPD con efectivo", "PPD", "01", "forma_pago"},
		{"PPD sin forma", "PPD", "", "forma_pago"},
		{"sin método", "", "03", "metodo_pago"},
		{"método desconocido", "XYZ", "03", "metodo_pago"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ve := cfdi.ValidatePaymentMethod(tc.method, tc.form)
			if tc.field == "" {
				assert.NoError(t, ve.OrNil())
				return
			}
			assert.True(t, ve.Has(tc.field), "se esperaba error en %s: %v", tc.field, ve.Fields)
		})
	}
}

func TestNormalizePaymentForm(t *testing.T) {
	assert.Equal(t, "99", cfdi.NormalizePaymentForm("PPD", "03"))
	assert.Equal(t, "", cfdi.NormalizePaymentForm("PUE", "99"))
	assert.Equal(t, "03", cfdi.NormalizePaymentForm("PUE", "03"))
	assert.Equal(t, "03", cfdi.NormalizePaymentForm("", "03"))
}
