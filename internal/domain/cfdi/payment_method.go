package cfdi

import (
	"github.com/jhoicas/Facturacion-api/internal/domain"
	"github.com/jhoicas/Facturacion-api/pkg/sat"
)

// ValidatePaymentMethod aplica la regla fiscal que liga método y forma de pago:
// con PUE la forma "99" está prohibida; con PPD es obligatoria.
func ValidatePaymentMethod(method, form string) *domain.ValidationError {
	ve := &domain.ValidationError{}
	switch method {
	case sat.MetodoPagoPUE:
		if form == "" {
			ve.Add("forma_pago", "requerida")
		} else if form == sat.FormaPagoPorDefinir {
			ve.Add("forma_pago", `con método PUE la forma de pago no puede ser "99" (por definir)`)
		}
	case sat.MetodoPagoPPD:
		if form != sat.FormaPagoPorDefinir {
			ve.Add("forma_pago", `con método PPD la forma de pago debe ser "99" (por definir)`)
		}
	case "":
		ve.Add("metodo_pago", "requerido")
	default:
		ve.Add("metodo_pago", "método de pago no válido (PUE o PPD)")
	}
	return ve
}

// NormalizePaymentForm corrige la forma de pago cuando cambia el método:
// PPD fuerza "99"; PUE descarta "99" y deja la forma vacía para que se elija una.
func NormalizePaymentForm(method, form string) string {
	switch method {
	case sat.MetodoPagoPPD:
		return sat.FormaPagoPorDefinir
	case sat.MetodoPagoPUE:
		if form == sat.FormaPagoPorDefinir {
			return ""
		}
	}
	return form
}
