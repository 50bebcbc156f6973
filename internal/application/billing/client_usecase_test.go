package billing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Facturacion-api/internal/application/dto"
	"github.com/jhoicas/Facturacion-api/internal/domain"
	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
)

func validClientRequest() dto.ClientRequest {
	return dto.ClientRequest{
		Name:         " Xochilt Casas Chavez ",
		RFC:          "cacx7605101p8",
		FiscalRegime: "612",
		PostalCode:   "36257",
		CreditDays:   15,
	}
}

func TestClientUseCase_Create(t *testing.T) {
	repo := newMemClients(testClient())
	uc := NewClientUseCase(repo)

	out, err := uc.Create(context.Background(), testCompanyID, validClientRequest())
	require.NoError(t, err)

	assert.NotEmpty(t, out.ID)
	assert.Equal(t, "Xochilt Casas Chavez", out.Name)
	assert.Equal(t, "CACX7605101P8", out.RFC)
	assert.Equal(t, entity.PersonTypeFisica, out.PersonType, "13 caracteres es persona física")
	assert.Len(t, repo.items, 2)
}

func TestClientUseCase_Create_Validacion(t *testing.T) {
	uc := NewClientUseCase(newMemClients())

	_, err := uc.Create(context.Background(), testCompanyID, dto.ClientRequest{RFC: "XYZ", PostalCode: "123", CreditDays: -1})

	fields := domain.FieldErrors(err)
	require.NotNil(t, fields)
	for _, f := range []string{"nombre", "rfc", "regimen_fiscal", "tipo_persona", "codigo_postal", "dias_credito"} {
		assert.Contains(t, fields, f)
	}
}

func TestClientUseCase_Create_RFCDuplicado(t *testing.T) {
	uc := NewClientUseCase(newMemClients(testClient()))
	in := validClientRequest()
	in.RFC = testClient().RFC

	_, err := uc.Create(context.Background(), testCompanyID, in)

	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestClientUseCase_Create_RFCGenericoRepetible(t *testing.T) {
	uc := NewClientUseCase(newMemClients())
	in := validClientRequest()
	in.RFC = "XAXX010101000"
	in.FiscalRegime = "616"
	in.PersonType = entity.PersonTypeFisica

	_, err := uc.Create(context.Background(), testCompanyID, in)
	require.NoError(t, err)
	_, err = uc.Create(context.Background(), testCompanyID, in)
	assert.NoError(t, err)
}

func TestClientUseCase_Update(t *testing.T) {
	other := testClient()
	other.ID = "client-2"
	other.RFC = "CACX7605101P8"
	repo := newMemClients(testClient(), other)
	uc := NewClientUseCase(repo)

	in := validClientRequest()
	_, err := uc.Update(context.Background(), testCompanyID, testClientID, in)
	assert.ErrorIs(t, err, domain.ErrDuplicate, "el RFC ya es de otro cliente")

	in.RFC = testClient().RFC
	out, err := uc.Update(context.Background(), testCompanyID, testClientID, in)
	require.NoError(t, err)
	assert.Equal(t, 15, out.CreditDays)
	assert.Equal(t, 15, repo.items[testClientID].CreditDays)

	_, err = uc.Update(context.Background(), "otra-empresa", testClientID, in)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestClientUseCase_Get(t *testing.T) {
	uc := NewClientUseCase(newMemClients(testClient()))

	out, err := uc.Get(context.Background(), testCompanyID, testClientID)
	require.NoError(t, err)
	assert.Equal(t, "XIA190128J61", out.RFC)

	_, err = uc.Get(context.Background(), testCompanyID, "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCompanyUseCase_Update(t *testing.T) {
	repo := &memCompanies{items: map[string]*entity.Company{testCompanyID: testCompany()}}
	uc := NewCompanyUseCase(repo)
	cp := " 01000 "
	rfc := "eku9003173c9"

	out, err := uc.Update(context.Background(), testCompanyID, dto.UpdateCompanyRequest{PostalCode: &cp, RFC: &rfc})
	require.NoError(t, err)

	assert.Equal(t, "01000", out.PostalCode)
	assert.Equal(t, "EKU9003173C9", out.RFC)
	assert.Equal(t, "EMPRESA DEMO", out.Name, "los campos no enviados se conservan")
	assert.Equal(t, "01000", repo.items[testCompanyID].PostalCode)
}

func TestCompanyUseCase_Update_Validacion(t *testing.T) {
	repo := &memCompanies{items: map[string]*entity.Company{testCompanyID: testCompany()}}
	uc := NewCompanyUseCase(repo)
	bad := "ABC"

	_, err := uc.Update(context.Background(), testCompanyID, dto.UpdateCompanyRequest{RFC: &bad})

	fields := domain.FieldErrors(err)
	require.NotNil(t, fields)
	assert.Contains(t, fields, "rfc")
	assert.Equal(t, "EKU9003173C9", repo.items[testCompanyID].RFC, "no se guarda un emisor inválido")
}

func TestCompanyUseCase_Get_NoExiste(t *testing.T) {
	uc := NewCompanyUseCase(&memCompanies{items: map[string]*entity.Company{}})

	_, err := uc.Get(context.Background(), testCompanyID)

	assert.ErrorIs(t, err, domain.ErrNotFound)
}
