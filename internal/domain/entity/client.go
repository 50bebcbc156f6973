package entity

import "time"

// Tipos de persona (SAT).
const (
	PersonTypeFisica = "fisica"
	PersonTypeMoral  = "moral"
)

// Client representa un cliente (receptor del CFDI).
type Client struct {
	ID           string
	CompanyID    string
	Name         string
	RFC          string
	FiscalRegime string // c_RegimenFiscal
	PersonType   string // fisica | moral
	PostalCode   string // Domicilio fiscal del receptor (CFDI 4.0)
	CFDIUse      string // Uso CFDI por defecto
	CreditDays   int
	Email        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
