package entity

import "time"

// Company representa a la empresa emisora (tenant).
type Company struct {
	ID           string
	Name         string
	RFC          string
	FiscalRegime string
	PersonType   string
	PostalCode   string // Lugar de expedición
	Address      string
	Phone        string
	Email        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
