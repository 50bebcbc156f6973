package cfdi

import "github.com/jhoicas/Facturacion-api/internal/domain/entity"

// Ediciones de la lista de conceptos. Cada función devuelve una lista nueva y deja
// intacta la original; el llamador recalcula totales después de cada edición.

// AddConcept agrega un concepto al final.
func AddConcept(list []entity.InvoiceConcept, c entity.InvoiceConcept) []entity.InvoiceConcept {
	out := make([]entity.InvoiceConcept, 0, len(list)+1)
	out = append(out, list...)
	return append(out, c)
}

// ReplaceConcept sustituye el concepto en la posición i. Fuera de rango devuelve una copia sin cambios.
func ReplaceConcept(list []entity.InvoiceConcept, i int, c entity.InvoiceConcept) []entity.InvoiceConcept {
	out := append([]entity.InvoiceConcept(nil), list...)
	if i >= 0 && i < len(out) {
		out[i] = c
	}
	return out
}

// RemoveConcept elimina el concepto en la posición i. Fuera de rango devuelve una copia sin cambios.
func RemoveConcept(list []entity.InvoiceConcept, i int) []entity.InvoiceConcept {
	if i < 0 || i >= len(list) {
		return append([]entity.InvoiceConcept(nil), list...)
	}
	out := make([]entity.InvoiceConcept, 0, len(list)-1)
	out = append(out, list[:i]...)
	return append(out, list[i+1:]...)
}
