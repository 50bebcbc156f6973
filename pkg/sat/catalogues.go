// Package sat contiene claves de los catálogos del SAT (Anexo 20, CFDI 4.0) que el
// núcleo necesita conocer por código. El resto de catálogos se consultan desde la
// tabla sat_catalog (ver cmd/seed_sat).
package sat

import "github.com/shopspring/decimal"

// =============================================================================
// c_MetodoPago
// =============================================================================

const (
	MetodoPagoPUE = "PUE" // Pago en una sola exhibición
	MetodoPagoPPD = "PPD" // Pago en parcialidades o diferido
)

// ValidPaymentMethods métodos de pago válidos.
var ValidPaymentMethods = map[string]bool{
	MetodoPagoPUE: true,
	MetodoPagoPPD: true,
}

// =============================================================================
// c_FormaPago
// =============================================================================

const (
	FormaPagoEfectivo      = "01"
	FormaPagoCheque        = "02"
	FormaPagoTransferencia = "03"
	FormaPagoTarjetaCred   = "04"
	FormaPagoTarjetaDeb    = "28"
	FormaPagoPorDefinir    = "99" // Centinela: obligatorio con PPD, prohibido con PUE
)

// =============================================================================
// c_MotivoCancelacion
// =============================================================================

const (
	MotivoConRelacion   = "01" // Comprobante emitido con errores con relación (requiere folio sustitución)
	MotivoSinRelacion   = "02" // Comprobante emitido con errores sin relación
	MotivoNoOperacion   = "03" // No se llevó a cabo la operación
	MotivoFacturaGlobal = "04" // Operación nominativa relacionada en factura global
)

// ValidCancellationReasons motivos de cancelación vigentes.
var ValidCancellationReasons = map[string]bool{
	MotivoConRelacion:   true,
	MotivoSinRelacion:   true,
	MotivoNoOperacion:   true,
	MotivoFacturaGlobal: true,
}

// =============================================================================
// c_TipoRelacion (CFDI relacionados)
// =============================================================================

// ValidRelationTypes tipos de relación entre CFDI.
var ValidRelationTypes = map[string]bool{
	"01": true, // Nota de crédito de los documentos relacionados
	"02": true, // Nota de débito
	"03": true, // Devolución de mercancía
	"04": true, // Sustitución de los CFDI previos
	"05": true, // Traslados de mercancías facturados previamente
	"06": true, // Factura generada por los traslados previos
	"07": true, // CFDI por aplicación de anticipo
}

// =============================================================================
// Regímenes fiscales usados para sugerir retenciones
// =============================================================================

const (
	RegimenGeneralPM        = "601"
	RegimenActividadesEmp   = "612"
	RegimenArrendamiento    = "606"
	RegimenSimplificadoConf = "626" // RESICO
)

// =============================================================================
// Tasas (c_TasaOCuota) permitidas por concepto
// =============================================================================

var (
	TasaIVA16        = decimal.RequireFromString("0.16")
	TasaIVA8         = decimal.RequireFromString("0.08") // Región fronteriza
	RetIVADosTercios = decimal.RequireFromString("0.106667")
	RetISR10         = decimal.RequireFromString("0.10")
	RetISRResico     = decimal.RequireFromString("0.0125")
)

// ValidIVARates tasas de IVA trasladado.
var ValidIVARates = []decimal.Decimal{decimal.Zero, TasaIVA8, TasaIVA16}

// ValidIVARetentionRates tasas de retención de IVA.
var ValidIVARetentionRates = []decimal.Decimal{decimal.Zero, RetIVADosTercios}

// ValidISRRetentionRates tasas de retención de ISR.
var ValidISRRetentionRates = []decimal.Decimal{decimal.Zero, RetISRResico, RetISR10}

// RateIn indica si rate coincide (por valor, no por representación) con alguna tasa permitida.
func RateIn(rate decimal.Decimal, allowed []decimal.Decimal) bool {
	for _, a := range allowed {
		if rate.Equal(a) {
			return true
		}
	}
	return false
}

// MonedaNacional moneda local por defecto (c_Moneda).
const MonedaNacional = "MXN"
