package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Facturacion-api/internal/application/billing"
	"github.com/jhoicas/Facturacion-api/internal/application/dto"
)

// PaymentHandler maneja los complementos de pago (CFDI tipo P).
type PaymentHandler struct {
	uc *billing.PaymentUseCase
}

// NewPaymentHandler construye el handler.
func NewPaymentHandler(uc *billing.PaymentUseCase) *PaymentHandler {
	return &PaymentHandler{uc: uc}
}

// Outstanding godoc
// @Summary      Facturas con saldo pendiente del cliente
// @Tags         payments
// @Produce      json
// @Param        cliente_id    query  string  true   "Cliente"
// @Param        excluir_pago  query  string  false  "Pago en edición (no cuenta para el saldo)"
// @Success      200  {array}  dto.OutstandingInvoiceResponse
// @Router       /api/payments/outstanding [get]
func (h *PaymentHandler) Outstanding(c *fiber.Ctx) error {
	out, err := h.uc.Outstanding(c.UserContext(), GetCompanyID(c), c.Query("cliente_id"), c.Query("excluir_pago"))
	if err != nil {
		return respondError(c, err)
	}
	if out == nil {
		out = []dto.OutstandingInvoiceResponse{}
	}
	return c.JSON(out)
}

// Create godoc
// @Summary      Registrar pago (borrador)
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        body  body  dto.PaymentRequest  true  "Pago"
// @Success      201   {object}  dto.PaymentResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/payments [post]
func (h *PaymentHandler) Create(c *fiber.Ctx) error {
	var in dto.PaymentRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Create(c.UserContext(), GetCompanyID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Update godoc
// @Summary      Editar pago en borrador
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        id    path  string              true  "ID del pago"
// @Param        body  body  dto.PaymentRequest  true  "Pago"
// @Success      200   {object}  dto.PaymentResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/payments/{id} [put]
func (h *PaymentHandler) Update(c *fiber.Ctx) error {
	var in dto.PaymentRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Update(c.UserContext(), GetCompanyID(c), c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener pago
// @Tags         payments
// @Produce      json
// @Param        id   path  string  true  "ID del pago"
// @Success      200  {object}  dto.PaymentResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/payments/{id} [get]
func (h *PaymentHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.Get(c.UserContext(), GetCompanyID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Listar pagos
// @Tags         payments
// @Produce      json
// @Param        cliente_id  query  string  false  "Cliente"
// @Param        status      query  string  false  "Estado fiscal"
// @Param        limit       query  int     false  "Límite"  default(20)
// @Param        offset      query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.PaymentListResponse
// @Router       /api/payments [get]
func (h *PaymentHandler) List(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "parámetros inválidos"})
	}
	page.DefaultPage()
	out, err := h.uc.List(c.UserContext(), GetCompanyID(c), c.Query("cliente_id"), c.Query("status"), page)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Stamp godoc
// @Summary      Timbrar complemento de pago
// @Tags         payments
// @Produce      json
// @Param        id   path  string  true  "ID del pago"
// @Success      200  {object}  dto.PaymentResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Failure      502  {object}  dto.ErrorResponse
// @Router       /api/payments/{id}/stamp [post]
func (h *PaymentHandler) Stamp(c *fiber.Ctx) error {
	out, err := h.uc.Stamp(c.UserContext(), GetCompanyID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Cancel godoc
// @Summary      Cancelar complemento de pago
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        id    path  string             true  "ID del pago"
// @Param        body  body  dto.CancelRequest  true  "Motivo"
// @Success      200   {object}  dto.PaymentResponse
// @Router       /api/payments/{id}/cancel [post]
func (h *PaymentHandler) Cancel(c *fiber.Ctx) error {
	var in dto.CancelRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Cancel(c.UserContext(), GetCompanyID(c), c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// RefreshStatus godoc
// @Summary      Consultar estatus de cancelación del complemento en el PAC
// @Tags         payments
// @Produce      json
// @Param        id   path  string  true  "ID del pago"
// @Success      200  {object}  dto.PaymentResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      502  {object}  dto.ErrorResponse
// @Router       /api/payments/{id}/refresh-status [post]
func (h *PaymentHandler) RefreshStatus(c *fiber.Ctx) error {
	out, err := h.uc.RefreshStatus(c.UserContext(), GetCompanyID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// XML godoc
// @Summary      Descargar XML timbrado del pago
// @Tags         payments
// @Produce      application/xml
// @Param        id   path  string  true  "ID del pago"
// @Success      200  {file}  binary
// @Router       /api/payments/{id}/xml [get]
func (h *PaymentHandler) XML(c *fiber.Ctx) error {
	body, name, err := h.uc.XML(c.UserContext(), GetCompanyID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return sendFile(c, "application/xml", name, body)
}
