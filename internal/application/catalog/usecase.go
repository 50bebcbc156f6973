package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/jhoicas/Facturacion-api/internal/domain"
	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
	"github.com/jhoicas/Facturacion-api/internal/domain/repository"
	"github.com/jhoicas/Facturacion-api/pkg/logger"
)

const (
	defaultLimit = 20
	maxLimit     = 50
)

var knownCatalogs = map[string]bool{
	entity.CatalogProductCode:  true,
	entity.CatalogUnitCode:     true,
	entity.CatalogPaymentForm:  true,
	entity.CatalogCFDIUse:      true,
	entity.CatalogFiscalRegime: true,
}

// UseCase consulta de catálogos SAT para los formularios de captura.
type UseCase struct {
	repo      repository.CatalogRepository
	debouncer *Debouncer
	flight    singleflight.Group
	log       *logger.Logger
}

// NewUseCase delay es el retraso aplicado a SearchDebounced.
func NewUseCase(repo repository.CatalogRepository, delay time.Duration, log *logger.Logger) *UseCase {
	return &UseCase{repo: repo, debouncer: NewDebouncer(delay), log: log.Component("catalog")}
}

// Search búsqueda inmediata. Consultas idénticas en curso comparten una sola ida a la base;
// la consulta compartida no se cancela si el primer solicitante se va.
func (uc *UseCase) Search(ctx context.Context, catalog, term string, limit int) ([]entity.CatalogEntry, error) {
	catalog, term, limit, err := normalizeQuery(catalog, term, limit)
	if err != nil {
		return nil, err
	}
	key := fmt.Sprintf("%s|%s|%d", catalog, strings.ToLower(term), limit)
	v, err, shared := uc.flight.Do(key, func() (any, error) {
		return uc.repo.Search(context.WithoutCancel(ctx), catalog, term, limit)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		uc.log.Debug().Str("catalog", catalog).Str("term", term).Msg("búsqueda compartida")
	}
	list, _ := v.([]entity.CatalogEntry)
	return list, nil
}

// SearchDebounced búsqueda con retraso fijo por origen (session). Si el mismo origen envía otra
// búsqueda antes de que venza el retraso, la anterior termina con ErrSuperseded sin consultar.
func (uc *UseCase) SearchDebounced(ctx context.Context, session, catalog, term string, limit int) ([]entity.CatalogEntry, error) {
	var out []entity.CatalogEntry
	err := uc.debouncer.Do(ctx, session+"|"+catalog, func(ctx context.Context) error {
		list, err := uc.Search(ctx, catalog, term, limit)
		out = list
		return err
	})
	return out, err
}

// Exists indica si la clave existe y está vigente.
func (uc *UseCase) Exists(ctx context.Context, catalog, code string) (bool, error) {
	if !knownCatalogs[catalog] {
		return false, domain.NewValidationError("catalog", "catálogo desconocido")
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return false, domain.NewValidationError("code", "requerido")
	}
	return uc.repo.Exists(ctx, catalog, code)
}

func normalizeQuery(catalog, term string, limit int) (string, string, int, error) {
	if !knownCatalogs[catalog] {
		return "", "", 0, domain.NewValidationError("catalog", "catálogo desconocido")
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return catalog, strings.TrimSpace(term), limit, nil
}
