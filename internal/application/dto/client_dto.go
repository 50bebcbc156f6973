package dto

// ClientRequest body para POST /api/clients y PUT /api/clients/:id.
type ClientRequest struct {
	Name         string `json:"nombre"`
	RFC          string `json:"rfc"`
	FiscalRegime string `json:"regimen_fiscal"`
	PersonType   string `json:"tipo_persona"` // fisica | moral
	PostalCode   string `json:"codigo_postal"`
	CFDIUse      string `json:"uso_cfdi,omitempty"`
	CreditDays   int    `json:"dias_credito"`
	Email        string `json:"email,omitempty"`
}

// ClientResponse cliente en respuestas.
type ClientResponse struct {
	ID           string `json:"id"`
	CompanyID    string `json:"company_id"`
	Name         string `json:"nombre"`
	RFC          string `json:"rfc"`
	FiscalRegime string `json:"regimen_fiscal"`
	PersonType   string `json:"tipo_persona"`
	PostalCode   string `json:"codigo_postal"`
	CFDIUse      string `json:"uso_cfdi,omitempty"`
	CreditDays   int    `json:"dias_credito"`
	Email        string `json:"email,omitempty"`
}

// CatalogSearchRequest query de GET /api/catalogs/:catalog.
type CatalogSearchRequest struct {
	Term  string `query:"q"`
	Limit int    `query:"limit"`
}
