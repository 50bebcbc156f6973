package catalog

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Facturacion-api/internal/domain"
	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
	"github.com/jhoicas/Facturacion-api/pkg/logger"
)

type fakeCatalogRepo struct {
	mu      sync.Mutex
	entries []entity.CatalogEntry
	queries []string
}

func (r *fakeCatalogRepo) Search(_ context.Context, catalog, term string, limit int) ([]entity.CatalogEntry, error) {
	r.mu.Lock()
	r.queries = append(r.queries, term)
	r.mu.Unlock()
	var out []entity.CatalogEntry
	for _, e := range r.entries {
		if e.Catalog == catalog && len(out) < limit {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeCatalogRepo) Exists(_ context.Context, catalog, code string) (bool, error) {
	for _, e := range r.entries {
		if e.Catalog == catalog && e.Code == code {
			return true, nil
		}
	}
	return false, nil
}

func newRepo() *fakeCatalogRepo {
	return &fakeCatalogRepo{entries: []entity.CatalogEntry{
		{Catalog: entity.CatalogUnitCode, Code: "E48", Description: "Unidad de servicio"},
		{Catalog: entity.CatalogUnitCode, Code: "H87", Description: "Pieza"},
		{Catalog: entity.CatalogCFDIUse, Code: "G03", Description: "Gastos en general"},
	}}
}

func TestUseCase_Search(t *testing.T) {
	repo := newRepo()
	uc := NewUseCase(repo, 0, logger.Nop())

	list, err := uc.Search(context.Background(), entity.CatalogUnitCode, "  pie ", 0)
	require.NoError(t, err)
	assert.Len(t, list, 2)
	assert.Equal(t, []string{"pie"}, repo.queries)

	_, err = uc.Search(context.Background(), "c_Inventado", "x", 10)
	assert.Contains(t, domain.FieldErrors(err), "catalog")
}

func TestUseCase_SearchDebounced_KeepsLatest(t *testing.T) {
	repo := newRepo()
	uc := NewUseCase(repo, 80*time.Millisecond, logger.Nop())
	var wg sync.WaitGroup
	var firstErr error

	wg.Add(1)
	go func() {
		defer wg.Done()
		_, firstErr = uc.SearchDebounced(context.Background(), "user-1", entity.CatalogUnitCode, "pi", 10)
	}()
	time.Sleep(20 * time.Millisecond)

	list, err := uc.SearchDebounced(context.Background(), "user-1", entity.CatalogUnitCode, "pieza", 10)
	wg.Wait()

	require.NoError(t, err)
	assert.NotEmpty(t, list)
	assert.ErrorIs(t, firstErr, ErrSuperseded)
	assert.Equal(t, []string{"pieza"}, repo.queries)
}

func TestUseCase_Exists(t *testing.T) {
	uc := NewUseCase(newRepo(), 0, logger.Nop())

	ok, err := uc.Exists(context.Background(), entity.CatalogCFDIUse, "G03")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = uc.Exists(context.Background(), entity.CatalogCFDIUse, "Z99")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = uc.Exists(context.Background(), entity.CatalogCFDIUse, " ")
	assert.Contains(t, domain.FieldErrors(err), "code")
}
