package billing

import (
	"context"
	"strings"
	"time"

	"github.com/jhoicas/Facturacion-api/internal/application/dto"
	"github.com/jhoicas/Facturacion-api/internal/domain"
	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
	"github.com/jhoicas/Facturacion-api/internal/domain/repository"
)

// CompanyUseCase datos fiscales del emisor autenticado.
type CompanyUseCase struct {
	repo repository.CompanyRepository
}

// NewCompanyUseCase construye el caso de uso con el puerto de persistencia.
func NewCompanyUseCase(repo repository.CompanyRepository) *CompanyUseCase {
	return &CompanyUseCase{repo: repo}
}

// Get obtiene el emisor. ErrNotFound si la empresa del token no existe.
func (uc *CompanyUseCase) Get(ctx context.Context, companyID string) (*dto.CompanyResponse, error) {
	company, err := uc.repo.GetByID(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, domain.ErrNotFound
	}
	return companyToResponse(company), nil
}

// Update actualiza solo los campos enviados.
func (uc *CompanyUseCase) Update(ctx context.Context, companyID string, in dto.UpdateCompanyRequest) (*dto.CompanyResponse, error) {
	company, err := uc.repo.GetByID(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, domain.ErrNotFound
	}
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	set(&company.Name, in.Name)
	set(&company.RFC, in.RFC)
	set(&company.FiscalRegime, in.FiscalRegime)
	set(&company.PersonType, in.PersonType)
	set(&company.PostalCode, in.PostalCode)
	set(&company.Address, in.Address)
	set(&company.Phone, in.Phone)
	set(&company.Email, in.Email)
	company.RFC = strings.ToUpper(company.RFC)

	ve := validateParty(company.Name, company.RFC, company.FiscalRegime, company.PersonType, company.PostalCode)
	if err := ve.OrNil(); err != nil {
		return nil, err
	}
	company.UpdatedAt = time.Now()
	if err := uc.repo.Update(ctx, company); err != nil {
		return nil, err
	}
	return companyToResponse(company), nil
}

func companyToResponse(c *entity.Company) *dto.CompanyResponse {
	return &dto.CompanyResponse{
		ID:           c.ID,
		Name:         c.Name,
		RFC:          c.RFC,
		FiscalRegime: c.FiscalRegime,
		PersonType:   c.PersonType,
		PostalCode:   c.PostalCode,
		Address:      c.Address,
		Phone:        c.Phone,
		Email:        c.Email,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}
