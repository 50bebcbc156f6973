package entity

import "github.com/shopspring/decimal"

// InvoiceConcept representa un concepto (línea) de la factura.
// Solo lleva los datos capturados; los importes se derivan con cfdi.CalculateConcept.
type InvoiceConcept struct {
	ID          string
	InvoiceID   string
	ProductCode string // c_ClaveProdServ
	UnitCode    string // c_ClaveUnidad
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	Discount    decimal.Decimal
	IVARate     decimal.Decimal // 0, 0.08, 0.16
	IVARetRate  decimal.Decimal // 0, 0.106667
	ISRRetRate  decimal.Decimal // 0, 0.0125, 0.10
}
