package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Facturacion-api/internal/application/catalog"
	"github.com/jhoicas/Facturacion-api/internal/application/dto"
	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
)

// CatalogHandler búsqueda en catálogos SAT para los autocompletados del capturista.
type CatalogHandler struct {
	uc *catalog.UseCase
}

// NewCatalogHandler construye el handler.
func NewCatalogHandler(uc *catalog.UseCase) *CatalogHandler {
	return &CatalogHandler{uc: uc}
}

// Search godoc
// @Summary      Buscar en un catálogo SAT
// @Description  Las búsquedas del mismo usuario sobre el mismo catálogo se agrupan: una búsqueda
// @Description  nueva reemplaza a la anterior que aún no se ejecuta (409 SUPERSEDED).
// @Tags         catalogs
// @Produce      json
// @Param        catalog  path   string  true   "c_ClaveProdServ, c_ClaveUnidad, c_FormaPago, ..."
// @Param        q        query  string  false  "Clave o texto"
// @Param        limit    query  int     false  "Máximo 50"  default(20)
// @Success      200  {array}  entity.CatalogEntry
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/catalogs/{catalog} [get]
func (h *CatalogHandler) Search(c *fiber.Ctx) error {
	var in dto.CatalogSearchRequest
	if err := c.QueryParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "parámetros inválidos"})
	}
	session := GetCompanyID(c) + "|" + GetUserID(c)
	out, err := h.uc.SearchDebounced(c.UserContext(), session, c.Params("catalog"), in.Term, in.Limit)
	if err != nil {
		return respondError(c, err)
	}
	if out == nil {
		out = []entity.CatalogEntry{}
	}
	return c.JSON(out)
}

// Exists godoc
// @Summary      Verificar una clave SAT vigente
// @Tags         catalogs
// @Produce      json
// @Param        catalog  path  string  true  "Catálogo"
// @Param        code     path  string  true  "Clave"
// @Success      200  {object}  map[string]bool
// @Router       /api/catalogs/{catalog}/{code} [get]
func (h *CatalogHandler) Exists(c *fiber.Ctx) error {
	ok, err := h.uc.Exists(c.UserContext(), c.Params("catalog"), c.Params("code"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"existe": ok})
}
