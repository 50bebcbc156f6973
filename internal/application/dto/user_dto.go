package dto

import "time"

// RegisterRequest alta de usuario en la empresa del administrador que llama.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"min=8"`
	Name     string `json:"nombre" validate:"max=200"`
	Role     string `json:"rol" validate:"oneof=admin facturacion consulta"` // vacío = facturacion
}

// UserResponse salida de un usuario (sin password).
type UserResponse struct {
	ID        string    `json:"id"`
	CompanyID string    `json:"company_id"`
	Email     string    `json:"email"`
	Name      string    `json:"nombre"`
	Role      string    `json:"rol"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LoginRequest credenciales.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse token JWT y usuario autenticado.
type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// BootstrapRequest alta inicial de un emisor con su primer administrador (cmd/create_admin).
type BootstrapRequest struct {
	CompanyName  string `json:"empresa" validate:"required,max=300"`
	RFC          string `json:"rfc" validate:"required,min=12,max=13"`
	FiscalRegime string `json:"regimen_fiscal" validate:"required,len=3,numeric"`
	PersonType   string `json:"tipo_persona" validate:"oneof=fisica moral"`
	PostalCode   string `json:"codigo_postal" validate:"required,len=5,numeric"`
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"min=8"`
	Name         string `json:"nombre" validate:"max=200"`
}
