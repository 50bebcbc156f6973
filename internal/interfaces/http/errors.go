package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/jhoicas/Facturacion-api/internal/application/catalog"
	"github.com/jhoicas/Facturacion-api/internal/application/dto"
	"github.com/jhoicas/Facturacion-api/internal/domain"
)

// respondError traduce un error de caso de uso a la respuesta HTTP.
//
//	ValidationError / RemoteValidationError → 422 VALIDATION con fields
//	ErrRemoteUnavailable                    → 502 PAC_UNAVAILABLE
//	ErrNotFound                             → 404
//	ErrUnauthorized / ErrForbidden          → 401 / 403
//	ErrDuplicate / ErrConflict / ErrInvalidState / ErrSuperseded → 409
//	ErrInvalidInput                         → 400
func respondError(c *fiber.Ctx, err error) error {
	if fields := domain.FieldErrors(err); fields != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{
			Code:    "VALIDATION",
			Message: validationMessage(err),
			Fields:  fields,
		})
	}
	status, code := fiber.StatusInternalServerError, "INTERNAL"
	switch {
	case errors.Is(err, domain.ErrRemoteUnavailable):
		status, code = fiber.StatusBadGateway, "PAC_UNAVAILABLE"
	case errors.Is(err, domain.ErrNotFound):
		status, code = fiber.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrUnauthorized):
		status, code = fiber.StatusUnauthorized, "UNAUTHORIZED"
	case errors.Is(err, domain.ErrForbidden):
		status, code = fiber.StatusForbidden, "FORBIDDEN"
	case errors.Is(err, domain.ErrDuplicate):
		status, code = fiber.StatusConflict, "DUPLICATE"
	case errors.Is(err, domain.ErrInvalidState):
		status, code = fiber.StatusConflict, "INVALID_STATE"
	case errors.Is(err, domain.ErrConflict):
		status, code = fiber.StatusConflict, "CONFLICT"
	case errors.Is(err, catalog.ErrSuperseded):
		status, code = fiber.StatusConflict, "SUPERSEDED"
	case errors.Is(err, domain.ErrInvalidInput):
		status, code = fiber.StatusBadRequest, "INVALID_INPUT"
	}
	if status == fiber.StatusInternalServerError {
		log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("error no controlado")
		return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: "error interno"})
	}
	return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: err.Error()})
}

func validationMessage(err error) string {
	var re *domain.RemoteValidationError
	if errors.As(err, &re) {
		return "el servicio de timbrado rechazó el documento"
	}
	return "datos inválidos"
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}
