// create_admin da de alta un emisor con su primer usuario administrador.
//
// Uso:
//
//	go run ./cmd/create_admin --rfc EKU9003173C9 --empresa "Escuela Kemper Urgate" \
//	    --regimen 601 --cp 42501 --email admin@example.com --password 's3creto!'
//
// La password también se puede pasar en ADMIN_PASSWORD para no dejarla en el historial.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/jhoicas/Facturacion-api/internal/application/auth"
	"github.com/jhoicas/Facturacion-api/internal/application/dto"
	"github.com/jhoicas/Facturacion-api/internal/domain"
	"github.com/jhoicas/Facturacion-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Facturacion-api/pkg/config"
	"github.com/jhoicas/Facturacion-api/pkg/logger"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var in dto.BootstrapRequest
	cmd := &cobra.Command{
		Use:           "create_admin",
		Short:         "Alta de emisor y primer administrador",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if in.Password == "" {
				in.Password = os.Getenv("ADMIN_PASSWORD")
			}
			return run(cmd.Context(), in)
		},
	}
	f := cmd.Flags()
	f.StringVar(&in.CompanyName, "empresa", "", "razón social del emisor")
	f.StringVar(&in.RFC, "rfc", "", "RFC del emisor")
	f.StringVar(&in.FiscalRegime, "regimen", "", "régimen fiscal (c_RegimenFiscal)")
	f.StringVar(&in.PersonType, "tipo-persona", "", "fisica | moral (por defecto según el largo del RFC)")
	f.StringVar(&in.PostalCode, "cp", "", "código postal del lugar de expedición")
	f.StringVar(&in.Email, "email", "", "email del administrador")
	f.StringVar(&in.Password, "password", "", "password del administrador (o ADMIN_PASSWORD)")
	f.StringVar(&in.Name, "nombre", "", "nombre del administrador")
	for _, name := range []string{"empresa", "rfc", "regimen", "cp", "email"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func run(ctx context.Context, in dto.BootstrapRequest) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("cargar configuración: %w", err)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	pool, err := postgres.NewPool(ctx, cfg.DB, log)
	if err != nil {
		return fmt.Errorf("conexión a PostgreSQL: %w", err)
	}
	defer pool.Close()

	uc := auth.NewAuthUseCase(postgres.NewUserRepository(pool), postgres.NewCompanyRepository(pool), auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	user, err := uc.Bootstrap(ctx, in)
	if err != nil {
		if fields := domain.FieldErrors(err); fields != nil {
			return errors.New(formatFields(fields))
		}
		return err
	}
	log.Info().Str("company_id", user.CompanyID).Str("user_id", user.ID).Str("email", user.Email).
		Msg("emisor y administrador creados")
	return nil
}

// formatFields una línea por campo, en orden alfabético.
func formatFields(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := "datos inválidos:"
	for _, k := range keys {
		out += "\n  " + k + ": " + fields[k]
	}
	return out
}
