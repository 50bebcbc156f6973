package entity

// Catálogos SAT consultados por código.
const (
	CatalogProductCode  = "c_ClaveProdServ"
	CatalogUnitCode     = "c_ClaveUnidad"
	CatalogPaymentForm  = "c_FormaPago"
	CatalogCFDIUse      = "c_UsoCFDI"
	CatalogFiscalRegime = "c_RegimenFiscal"
)

// CatalogEntry una clave de un catálogo SAT.
type CatalogEntry struct {
	Catalog     string `json:"catalog"`
	Code        string `json:"code"`
	Description string `json:"description"`
}
