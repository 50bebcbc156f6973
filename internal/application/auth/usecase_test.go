package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Facturacion-api/internal/application/dto"
	"github.com/jhoicas/Facturacion-api/internal/domain"
	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
	pkgjwt "github.com/jhoicas/Facturacion-api/pkg/jwt"
)

const (
	testSecret    = "test-secret"
	testCompanyID = "company-1"
)

type memUsers struct {
	byEmail map[string]*entity.User
}

func (m *memUsers) Create(_ context.Context, u *entity.User) error {
	if _, ok := m.byEmail[u.Email]; ok {
		return domain.ErrDuplicate
	}
	m.byEmail[u.Email] = u
	return nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	return m.byEmail[email], nil
}

type memCompanies struct {
	items map[string]*entity.Company
}

func (m *memCompanies) Create(_ context.Context, c *entity.Company) error {
	for _, existing := range m.items {
		if existing.RFC == c.RFC {
			return domain.ErrDuplicate
		}
	}
	m.items[c.ID] = c
	return nil
}

func (m *memCompanies) GetByID(_ context.Context, id string) (*entity.Company, error) {
	return m.items[id], nil
}

func (m *memCompanies) Update(context.Context, *entity.Company) error { return nil }

func newUseCase() (*AuthUseCase, *memUsers) {
	uc, users, _ := newUseCaseWithCompanies()
	return uc, users
}

func newUseCaseWithCompanies() (*AuthUseCase, *memUsers, *memCompanies) {
	users := &memUsers{byEmail: map[string]*entity.User{}}
	companies := &memCompanies{items: map[string]*entity.Company{
		testCompanyID: {ID: testCompanyID, Name: "Emisor", RFC: "EKU9003173C9"},
	}}
	uc := NewAuthUseCase(users, companies, JWTConfig{Secret: testSecret, ExpMinutes: 10, Issuer: "test"})
	uc.now = func() time.Time { return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC) }
	return uc, users, companies
}

func TestRegisterUser_Login(t *testing.T) {
	uc, users := newUseCase()
	ctx := context.Background()

	out, err := uc.RegisterUser(ctx, testCompanyID, dto.RegisterRequest{Email: " Ana@Example.com ", Password: "secreto123"})
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", out.Email)
	assert.Equal(t, entity.RoleFacturacion, out.Role)
	assert.NotEqual(t, "secreto123", users.byEmail["ana@example.com"].PasswordHash)

	login, err := uc.Login(ctx, dto.LoginRequest{Email: "ANA@example.com", Password: "secreto123"})
	require.NoError(t, err)
	p, err := pkgjwt.Parse(testSecret, login.Token)
	require.NoError(t, err)
	assert.Equal(t, pkgjwt.Principal{UserID: out.ID, CompanyID: testCompanyID, Role: entity.RoleFacturacion}, *p)
}

func TestRegisterUser_Validacion(t *testing.T) {
	uc, _ := newUseCase()

	_, err := uc.RegisterUser(context.Background(), testCompanyID, dto.RegisterRequest{Email: "no-es-email", Password: "corta", Role: "bodeguero"})

	fields := domain.FieldErrors(err)
	require.NotNil(t, fields)
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "password")
	assert.Contains(t, fields, "rol")
}

func TestRegisterUser_EmailDuplicado(t *testing.T) {
	uc, _ := newUseCase()
	ctx := context.Background()
	_, err := uc.RegisterUser(ctx, testCompanyID, dto.RegisterRequest{Email: "ana@example.com", Password: "secreto123"})
	require.NoError(t, err)

	_, err = uc.RegisterUser(ctx, testCompanyID, dto.RegisterRequest{Email: "ana@example.com", Password: "otro12345"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestRegisterUser_EmpresaInexistente(t *testing.T) {
	uc, _ := newUseCase()

	_, err := uc.RegisterUser(context.Background(), "otra", dto.RegisterRequest{Email: "ana@example.com", Password: "secreto123"})

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLogin_CredencialesInvalidas(t *testing.T) {
	uc, users := newUseCase()
	ctx := context.Background()
	_, err := uc.RegisterUser(ctx, testCompanyID, dto.RegisterRequest{Email: "ana@example.com", Password: "secreto123"})
	require.NoError(t, err)

	_, err = uc.Login(ctx, dto.LoginRequest{Email: "ana@example.com", Password: "incorrecta"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = uc.Login(ctx, dto.LoginRequest{Email: "nadie@example.com", Password: "secreto123"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	users.byEmail["ana@example.com"].Status = entity.UserStatusInactive
	_, err = uc.Login(ctx, dto.LoginRequest{Email: "ana@example.com", Password: "secreto123"})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func bootstrapRequest() dto.BootstrapRequest {
	return dto.BootstrapRequest{
		CompanyName:  "Escuela Kemper Urgate",
		RFC:          "eku9003173c9 ",
		FiscalRegime: "601",
		PostalCode:   "42501",
		Email:        "Admin@Example.com",
		Password:     "secreto123",
	}
}

func TestBootstrap_CreaEmisorYAdmin(t *testing.T) {
	uc, users, companies := newUseCaseWithCompanies()
	delete(companies.items, testCompanyID)

	out, err := uc.Bootstrap(context.Background(), bootstrapRequest())
	require.NoError(t, err)

	assert.Equal(t, entity.RoleAdmin, out.Role)
	assert.Equal(t, "admin@example.com", out.Email)
	require.Contains(t, companies.items, out.CompanyID)
	company := companies.items[out.CompanyID]
	assert.Equal(t, "EKU9003173C9", company.RFC)
	assert.Equal(t, entity.PersonTypeMoral, company.PersonType)
	assert.Contains(t, users.byEmail, "admin@example.com")

	login, err := uc.Login(context.Background(), dto.LoginRequest{Email: "admin@example.com", Password: "secreto123"})
	require.NoError(t, err)
	p, err := pkgjwt.Parse(testSecret, login.Token)
	require.NoError(t, err)
	assert.Equal(t, out.CompanyID, p.CompanyID)
	assert.Equal(t, entity.RoleAdmin, p.Role)
}

func TestBootstrap_Validacion(t *testing.T) {
	uc, _, companies := newUseCaseWithCompanies()
	in := bootstrapRequest()
	in.PostalCode = "4250A"
	in.FiscalRegime = ""
	in.Password = "corta"

	_, err := uc.Bootstrap(context.Background(), in)

	fields := domain.FieldErrors(err)
	require.NotNil(t, fields)
	assert.Equal(t, "solo dígitos", fields["codigo_postal"])
	assert.Equal(t, "requerido", fields["regimen_fiscal"])
	assert.Contains(t, fields, "password")
	assert.Len(t, companies.items, 1, "no se crea el emisor")
}

func TestBootstrap_RFCDuplicado(t *testing.T) {
	uc, users, _ := newUseCaseWithCompanies()

	_, err := uc.Bootstrap(context.Background(), bootstrapRequest())

	assert.ErrorIs(t, err, domain.ErrDuplicate)
	assert.Empty(t, users.byEmail)
}
