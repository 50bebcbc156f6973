package entity

import "time"

// Roles válidos para User.
const (
	RoleAdmin       = "admin"       // Configura el emisor y administra usuarios
	RoleFacturacion = "facturacion" // Captura, timbra y cancela
	RoleConsulta    = "consulta"    // Solo lectura
)

// Estados de la cuenta.
const (
	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
)

// User representa un usuario del sistema (pertenece a una Company).
type User struct {
	ID           string
	CompanyID    string
	Email        string
	PasswordHash string // bcrypt
	Name         string
	Role         string
	Status       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
