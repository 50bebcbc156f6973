package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Facturacion-api/internal/application/auth"
	"github.com/jhoicas/Facturacion-api/internal/application/billing"
	"github.com/jhoicas/Facturacion-api/internal/application/catalog"
	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC    *auth.AuthUseCase
	CompanyUC *billing.CompanyUseCase
	ClientUC  *billing.ClientUseCase
	InvoiceUC *billing.InvoiceUseCase
	PaymentUC *billing.PaymentUseCase
	CatalogUC *catalog.UseCase
	JWTSecret string
}

// Router registra las rutas de la API.
//
// Roles: consulta solo lee; facturacion captura, timbra y cancela; admin además
// edita el emisor y da de alta usuarios.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	authHandler := NewAuthHandler(deps.AuthUC)
	api.Post("/auth/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))
	readers := RequireRole(entity.RoleAdmin, entity.RoleFacturacion, entity.RoleConsulta)
	writers := RequireRole(entity.RoleAdmin, entity.RoleFacturacion)
	admins := RequireRole(entity.RoleAdmin)

	protected.Post("/auth/register", admins, authHandler.Register)

	// Emisor
	companyHandler := NewCompanyHandler(deps.CompanyUC)
	protected.Get("/company", readers, companyHandler.Get)
	protected.Put("/company", admins, companyHandler.Update)

	// Clientes
	clients := protected.Group("/clients")
	clientHandler := NewClientHandler(deps.ClientUC)
	clients.Get("/", readers, clientHandler.List)
	clients.Post("/", writers, clientHandler.Create)
	clients.Get("/:id", readers, clientHandler.GetByID)
	clients.Put("/:id", writers, clientHandler.Update)
	clients.Delete("/:id", writers, clientHandler.Delete)

	// Catálogos SAT
	catalogs := protected.Group("/catalogs")
	catalogHandler := NewCatalogHandler(deps.CatalogUC)
	catalogs.Get("/:catalog", readers, catalogHandler.Search)
	catalogs.Get("/:catalog/:code", readers, catalogHandler.Exists)

	// Facturas
	invoices := protected.Group("/invoices")
	invoiceHandler := NewInvoiceHandler(deps.InvoiceUC)
	invoices.Get("/", readers, invoiceHandler.List)
	invoices.Post("/", writers, invoiceHandler.Create)
	invoices.Post("/calculate", readers, invoiceHandler.Calculate)
	invoices.Get("/:id", readers, invoiceHandler.GetByID)
	invoices.Put("/:id", writers, invoiceHandler.Update)
	invoices.Patch("/:id/collection", writers, invoiceHandler.UpdateCollection)
	invoices.Post("/:id/stamp", writers, invoiceHandler.Stamp)
	invoices.Post("/:id/cancel", writers, invoiceHandler.Cancel)
	invoices.Post("/:id/refresh-status", writers, invoiceHandler.RefreshStatus)
	invoices.Get("/:id/pdf", readers, invoiceHandler.PDF)
	invoices.Get("/:id/xml", readers, invoiceHandler.XML)

	// Complementos de pago
	payments := protected.Group("/payments")
	paymentHandler := NewPaymentHandler(deps.PaymentUC)
	payments.Get("/outstanding", readers, paymentHandler.Outstanding)
	payments.Get("/", readers, paymentHandler.List)
	payments.Post("/", writers, paymentHandler.Create)
	payments.Get("/:id", readers, paymentHandler.GetByID)
	payments.Put("/:id", writers, paymentHandler.Update)
	payments.Post("/:id/stamp", writers, paymentHandler.Stamp)
	payments.Post("/:id/cancel", writers, paymentHandler.Cancel)
	payments.Post("/:id/refresh-status", writers, paymentHandler.RefreshStatus)
	payments.Get("/:id/xml", readers, paymentHandler.XML)
}
