package billing

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Facturacion-api/internal/application/dto"
	"github.com/jhoicas/Facturacion-api/internal/domain"
	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
	"github.com/jhoicas/Facturacion-api/internal/domain/repository"
)

// RFC de persona moral (12) o física (13).
var rfcPattern = regexp.MustCompile(`^[A-ZÑ&]{3,4}[0-9]{6}[A-Z0-9]{3}$`)

var postalCodePattern = regexp.MustCompile(`^[0-9]{5}$`)

// ClientUseCase casos de uso para clientes (receptores).
type ClientUseCase struct {
	repo repository.ClientRepository
}

// NewClientUseCase construye el caso de uso.
func NewClientUseCase(repo repository.ClientRepository) *ClientUseCase {
	return &ClientUseCase{repo: repo}
}

// Create crea un nuevo cliente. ErrDuplicate si el RFC ya existe en la empresa.
func (uc *ClientUseCase) Create(ctx context.Context, companyID string, in dto.ClientRequest) (*dto.ClientResponse, error) {
	in = normalizeClient(in)
	if err := validateClient(in).OrNil(); err != nil {
		return nil, err
	}
	existing, err := uc.repo.GetByRFC(ctx, companyID, in.RFC)
	if err != nil {
		return nil, err
	}
	if existing != nil && !isGenericRFC(in.RFC) {
		return nil, domain.ErrDuplicate
	}
	now := time.Now()
	c := &entity.Client{
		ID:        uuid.New().String(),
		CompanyID: companyID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	applyClient(c, in)
	if err := uc.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return clientToResponse(c), nil
}

// Get obtiene un cliente de la empresa.
func (uc *ClientUseCase) Get(ctx context.Context, companyID, id string) (*dto.ClientResponse, error) {
	c, err := uc.repo.GetByID(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, domain.ErrNotFound
	}
	return clientToResponse(c), nil
}

// List lista clientes de la empresa; search filtra por nombre o RFC.
func (uc *ClientUseCase) List(ctx context.Context, companyID, search string, page dto.PageRequest) ([]*dto.ClientResponse, error) {
	page.DefaultPage()
	list, err := uc.repo.ListByCompany(ctx, companyID, strings.TrimSpace(search), page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.ClientResponse, 0, len(list))
	for _, c := range list {
		out = append(out, clientToResponse(c))
	}
	return out, nil
}

// Update reemplaza los datos del cliente.
func (uc *ClientUseCase) Update(ctx context.Context, companyID, id string, in dto.ClientRequest) (*dto.ClientResponse, error) {
	in = normalizeClient(in)
	if err := validateClient(in).OrNil(); err != nil {
		return nil, err
	}
	c, err := uc.repo.GetByID(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, domain.ErrNotFound
	}
	if in.RFC != c.RFC && !isGenericRFC(in.RFC) {
		other, err := uc.repo.GetByRFC(ctx, companyID, in.RFC)
		if err != nil {
			return nil, err
		}
		if other != nil && other.ID != c.ID {
			return nil, domain.ErrDuplicate
		}
	}
	applyClient(c, in)
	c.UpdatedAt = time.Now()
	if err := uc.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return clientToResponse(c), nil
}

// Delete elimina un cliente sin documentos.
func (uc *ClientUseCase) Delete(ctx context.Context, companyID, id string) error {
	return uc.repo.Delete(ctx, companyID, id)
}

func normalizeClient(in dto.ClientRequest) dto.ClientRequest {
	in.Name = strings.TrimSpace(in.Name)
	in.RFC = strings.ToUpper(strings.TrimSpace(in.RFC))
	in.FiscalRegime = strings.TrimSpace(in.FiscalRegime)
	in.PersonType = strings.ToLower(strings.TrimSpace(in.PersonType))
	in.PostalCode = strings.TrimSpace(in.PostalCode)
	in.CFDIUse = strings.ToUpper(strings.TrimSpace(in.CFDIUse))
	in.Email = strings.TrimSpace(in.Email)
	if in.PersonType == "" && len(in.RFC) == 12 {
		in.PersonType = entity.PersonTypeMoral
	} else if in.PersonType == "" && len(in.RFC) == 13 {
		in.PersonType = entity.PersonTypeFisica
	}
	return in
}

func validateClient(in dto.ClientRequest) *domain.ValidationError {
	ve := validateParty(in.Name, in.RFC, in.FiscalRegime, in.PersonType, in.PostalCode)
	if in.CreditDays < 0 {
		ve.Add("dias_credito", "no puede ser negativo")
	}
	return ve
}

// validateParty datos fiscales comunes a emisor y receptor (CFDI 4.0).
func validateParty(name, rfc, regime, personType, postalCode string) *domain.ValidationError {
	ve := &domain.ValidationError{}
	if name == "" {
		ve.Add("nombre", "requerido")
	}
	if !rfcPattern.MatchString(rfc) {
		ve.Add("rfc", "RFC no válido")
	}
	if regime == "" {
		ve.Add("regimen_fiscal", "requerido")
	}
	if personType != entity.PersonTypeFisica && personType != entity.PersonTypeMoral {
		ve.Add("tipo_persona", "valor no válido (fisica, moral)")
	}
	if !postalCodePattern.MatchString(postalCode) {
		ve.Add("codigo_postal", "debe tener 5 dígitos")
	}
	return ve
}

// isGenericRFC RFC genérico de público en general o extranjero; puede repetirse.
func isGenericRFC(rfc string) bool {
	return rfc == "XAXX010101000" || rfc == "XEXX010101000"
}

func applyClient(c *entity.Client, in dto.ClientRequest) {
	c.Name = in.Name
	c.RFC = in.RFC
	c.FiscalRegime = in.FiscalRegime
	c.PersonType = in.PersonType
	c.PostalCode = in.PostalCode
	c.CFDIUse = in.CFDIUse
	c.CreditDays = in.CreditDays
	c.Email = in.Email
}

func clientToResponse(c *entity.Client) *dto.ClientResponse {
	return &dto.ClientResponse{
		ID:           c.ID,
		CompanyID:    c.CompanyID,
		Name:         c.Name,
		RFC:          c.RFC,
		FiscalRegime: c.FiscalRegime,
		PersonType:   c.PersonType,
		PostalCode:   c.PostalCode,
		CFDIUse:      c.CFDIUse,
		CreditDays:   c.CreditDays,
		Email:        c.Email,
	}
}
