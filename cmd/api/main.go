package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/jhoicas/Facturacion-api/internal/application/auth"
	"github.com/jhoicas/Facturacion-api/internal/application/billing"
	"github.com/jhoicas/Facturacion-api/internal/application/catalog"
	"github.com/jhoicas/Facturacion-api/internal/infrastructure/cfdixml"
	"github.com/jhoicas/Facturacion-api/internal/infrastructure/pac"
	infrapdf "github.com/jhoicas/Facturacion-api/internal/infrastructure/pdf"
	"github.com/jhoicas/Facturacion-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/Facturacion-api/internal/interfaces/http"
	"github.com/jhoicas/Facturacion-api/pkg/config"
	"github.com/jhoicas/Facturacion-api/pkg/logger"
)

const swaggerFile = "./docs/swagger.json"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB, log)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	companyRepo := postgres.NewCompanyRepository(pool)
	userRepo := postgres.NewUserRepository(pool)
	clientRepo := postgres.NewClientRepository(pool)
	invoiceRepo := postgres.NewInvoiceRepository(pool)
	paymentRepo := postgres.NewPaymentRepository(pool)
	balanceReader := postgres.NewBalanceReader(pool)
	catalogRepo := postgres.NewCatalogRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	// PAC: en development sin PAC_BASE_URL se timbra contra el sandbox local (sin validez fiscal).
	var stamping billing.StampingService
	if cfg.PAC.BaseURL == "" && cfg.App.IsDevelopment() {
		log.Warn().Msg("PAC_BASE_URL vacío: usando PAC sandbox, los CFDI no tienen validez fiscal")
		stamping = pac.NewSandbox()
	} else {
		stamping = pac.NewClient(pac.Config{
			BaseURL:  cfg.PAC.BaseURL,
			User:     cfg.PAC.User,
			Password: cfg.PAC.Password,
			Timeout:  cfg.PAC.Timeout,
		}, log)
	}

	billingCfg := billing.Config{
		HomeCurrency:        cfg.Billing.HomeCurrency,
		AllocationTolerance: &cfg.Billing.AllocationTolerance,
	}
	xmlBuilder := cfdixml.NewBuilder()
	pdfGenerator := infrapdf.NewMarotoPDFGenerator()

	invoiceUC := billing.NewInvoiceUseCase(
		invoiceRepo, clientRepo, companyRepo, xmlBuilder, stamping, pdfGenerator, billingCfg, log,
	)
	paymentUC := billing.NewPaymentUseCase(
		paymentRepo, invoiceRepo, clientRepo, companyRepo, balanceReader, txRunner,
		xmlBuilder, stamping, billingCfg, log,
	)
	clientUC := billing.NewClientUseCase(clientRepo)
	companyUC := billing.NewCompanyUseCase(companyRepo)
	catalogUC := catalog.NewUseCase(catalogRepo, cfg.Catalog.SearchDelay, log)
	authUC := auth.NewAuthUseCase(userRepo, companyRepo, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: cfg.PAC.Timeout + 10*time.Second, // timbrado y cancelación esperan al PAC
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(httpRouter.RequestLogger(log))

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat(swaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: swaggerFile,
			Path:     "docs",
			Title:    "Facturación CFDI API",
		}))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:    authUC,
		CompanyUC: companyUC,
		ClientUC:  clientUC,
		InvoiceUC: invoiceUC,
		PaymentUC: paymentUC,
		CatalogUC: catalogUC,
		JWTSecret: cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
