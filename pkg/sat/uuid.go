package sat

import "github.com/google/uuid"

// IsFolioFiscal valida sintácticamente un folio fiscal (8-4-4-4-12, 36 caracteres hex y guiones).
// No consulta al SAT. uuid.Validate acepta también urn y llaves; el largo fijo los descarta.
func IsFolioFiscal(s string) bool {
	return len(s) == 36 && uuid.Validate(s) == nil
}
