package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Facturacion-api/internal/application/catalog"
	"github.com/jhoicas/Facturacion-api/internal/application/dto"
	"github.com/jhoicas/Facturacion-api/internal/domain"
)

func errorApp(err error) *fiber.App {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error { return respondError(c, err) })
	return app
}

func callError(t *testing.T, err error) (int, dto.ErrorResponse) {
	t.Helper()
	resp, e := errorApp(err).Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
	require.NoError(t, e)
	defer resp.Body.Close()
	var body dto.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func TestRespondError_Status(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"no encontrado", domain.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"envuelto", fmt.Errorf("cargar factura: %w", domain.ErrNotFound), http.StatusNotFound, "NOT_FOUND"},
		{"pac caído", fmt.Errorf("%w: timeout", domain.ErrRemoteUnavailable), http.StatusBadGateway, "PAC_UNAVAILABLE"},
		{"estado", domain.ErrInvalidState, http.StatusConflict, "INVALID_STATE"},
		{"conflicto", domain.ErrConflict, http.StatusConflict, "CONFLICT"},
		{"duplicado", domain.ErrDuplicate, http.StatusConflict, "DUPLICATE"},
		{"reemplazada", catalog.ErrSuperseded, http.StatusConflict, "SUPERSEDED"},
		{"prohibido", domain.ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
		{"no autorizado", domain.ErrUnauthorized, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"entrada", domain.ErrInvalidInput, http.StatusBadRequest, "INVALID_INPUT"},
		{"otro", errors.New("boom"), http.StatusInternalServerError, "INTERNAL"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := callError(t, tc.err)
			assert.Equal(t, tc.status, status)
			assert.Equal(t, tc.code, body.Code)
			assert.Nil(t, body.Fields)
		})
	}
}

func TestRespondError_InternoNoExponeDetalle(t *testing.T) {
	_, body := callError(t, errors.New("pq: password authentication failed"))
	assert.Equal(t, "error interno", body.Message)
}

func TestRespondError_ValidacionLocal(t *testing.T) {
	ve := domain.NewValidationError("forma_pago", "99 no permitido con PUE")
	ve.Add("conceptos[0].cantidad", "debe ser mayor a cero")

	status, body := callError(t, ve)

	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "VALIDATION", body.Code)
	assert.Equal(t, map[string]string{
		"forma_pago":            "99 no permitido con PUE",
		"conceptos[0].cantidad": "debe ser mayor a cero",
	}, body.Fields)
}

func TestRespondError_ValidacionRemotaMismaForma(t *testing.T) {
	err := fmt.Errorf("timbrar: %w", &domain.RemoteValidationError{
		Message: "CFDI40147",
		Fields:  map[string]string{"receptor.codigo_postal": "no coincide con el RFC"},
	})

	status, body := callError(t, err)

	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "VALIDATION", body.Code)
	assert.Equal(t, "no coincide con el RFC", body.Fields["receptor.codigo_postal"])
}

func TestRespondError_ValidacionRemotaSinCampos(t *testing.T) {
	status, body := callError(t, &domain.RemoteValidationError{Message: "sello inválido"})

	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "sello inválido", body.Fields["general"])
}
