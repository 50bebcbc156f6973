package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Facturacion-api/internal/domain"
)

func TestValidate_RegisterRequest(t *testing.T) {
	err := Validate(RegisterRequest{Email: "x", Password: "123", Role: "bodeguero"})

	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "email inválido", ve.Fields["email"])
	assert.Equal(t, "debe tener al menos 8 caracteres", ve.Fields["password"])
	assert.Contains(t, ve.Fields["rol"], "admin facturacion consulta")
}

func TestValidate_OK(t *testing.T) {
	assert.NoError(t, Validate(RegisterRequest{Email: "ana@empresa.mx", Password: "secreto123", Role: "consulta"}))
	assert.NoError(t, Validate(LoginRequest{Email: "ana@empresa.mx", Password: "x"}))
}

func TestValidate_LoginRequerido(t *testing.T) {
	fields := domain.FieldErrors(Validate(LoginRequest{}))
	assert.Equal(t, map[string]string{"email": "requerido", "password": "requerido"}, fields)
}
