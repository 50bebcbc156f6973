package dto

import "time"

// UpdateCompanyRequest datos fiscales del emisor (campos opcionales).
type UpdateCompanyRequest struct {
	Name         *string `json:"nombre"`
	RFC          *string `json:"rfc"`
	FiscalRegime *string `json:"regimen_fiscal"`
	PersonType   *string `json:"tipo_persona"`
	PostalCode   *string `json:"codigo_postal"`
	Address      *string `json:"direccion"`
	Phone        *string `json:"telefono"`
	Email        *string `json:"email"`
}

// CompanyResponse emisor (tenant) en respuestas.
type CompanyResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"nombre"`
	RFC          string    `json:"rfc"`
	FiscalRegime string    `json:"regimen_fiscal"`
	PersonType   string    `json:"tipo_persona"`
	PostalCode   string    `json:"codigo_postal"`
	Address      string    `json:"direccion"`
	Phone        string    `json:"telefono"`
	Email        string    `json:"email"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
