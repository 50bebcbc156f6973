package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Facturacion-api/internal/application/dto"
	"github.com/jhoicas/Facturacion-api/internal/domain"
	"github.com/jhoicas/Facturacion-api/internal/domain/cfdi"
	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
	"github.com/jhoicas/Facturacion-api/internal/domain/repository"
	"github.com/jhoicas/Facturacion-api/pkg/logger"
)

// InvoiceUseCase ciclo de vida de la factura: borrador, timbrado, cobranza y cancelación.
//
// Ningún cambio de estado fiscal se guarda antes de la respuesta del PAC: si el timbrado o la
// cancelación fallan, la factura queda exactamente como estaba.
type InvoiceUseCase struct {
	invoices  repository.InvoiceRepository
	clients   repository.ClientRepository
	companies repository.CompanyRepository
	builder   CFDIBuilder
	pac       StampingService
	pdf       PDFGenerator
	cfg       Config
	log       *logger.Logger
	now       func() time.Time
}

// NewInvoiceUseCase construye el caso de uso con todas sus dependencias.
func NewInvoiceUseCase(
	invoices repository.InvoiceRepository,
	clients repository.ClientRepository,
	companies repository.CompanyRepository,
	builder CFDIBuilder,
	pac StampingService,
	pdf PDFGenerator,
	cfg Config,
	log *logger.Logger,
) *InvoiceUseCase {
	return &InvoiceUseCase{
		invoices:  invoices,
		clients:   clients,
		companies: companies,
		builder:   builder,
		pac:       pac,
		pdf:       pdf,
		cfg:       cfg.withDefaults(),
		log:       log.Component("billing"),
		now:       time.Now,
	}
}

// Calculate arma la factura y devuelve los importes calculados sin guardarla.
// Sirve para recalcular totales tras cada edición de conceptos.
func (uc *InvoiceUseCase) Calculate(ctx context.Context, companyID string, in dto.InvoiceRequest) (*dto.InvoiceResponse, error) {
	company, client, err := uc.parties(ctx, companyID, in.ClientID)
	if err != nil {
		return nil, err
	}
	inv := &entity.Invoice{CompanyID: companyID, Status: entity.StatusDraft}
	uc.applyRequest(inv, in, company, client)
	return invoiceToResponse(inv), nil
}

// Create guarda una factura nueva en borrador.
func (uc *InvoiceUseCase) Create(ctx context.Context, companyID string, in dto.InvoiceRequest) (*dto.InvoiceResponse, error) {
	company, client, err := uc.parties(ctx, companyID, in.ClientID)
	if err != nil {
		return nil, err
	}
	now := uc.now()
	inv := &entity.Invoice{
		ID:            uuid.New().String(),
		CompanyID:     companyID,
		Status:        entity.StatusDraft,
		PaymentStatus: entity.PaymentStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	uc.applyRequest(inv, in, company, client)
	if err := cfdi.ValidateInvoice(inv, uc.cfg.HomeCurrency); err != nil {
		return nil, err
	}
	if err := uc.invoices.Create(ctx, inv); err != nil {
		return nil, err
	}
	uc.log.Info().Str("invoice_id", inv.ID).Str("company_id", companyID).Msg("factura creada en borrador")
	return invoiceToResponse(inv), nil
}

// Update reemplaza la factura. Un borrador admite cualquier cambio; una factura emitida o
// cancelada solo acepta cambios de cobranza (status_pago, fecha_cobro, notas).
func (uc *InvoiceUseCase) Update(ctx context.Context, companyID, id string, in dto.InvoiceRequest) (*dto.InvoiceResponse, error) {
	current, err := uc.load(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	// En una factura emitida un cliente_id distinto se reporta abajo como campo bloqueado.
	company, client, err := uc.parties(ctx, companyID, in.ClientID)
	if err != nil {
		var ve *domain.ValidationError
		if current.IsDraft() || !errors.As(err, &ve) {
			return nil, err
		}
	}

	proposed := *current
	uc.applyRequest(&proposed, in, company, client)
	if ve := cfdi.ValidateEdit(current, &proposed); ve.OrNil() != nil {
		return nil, ve
	}
	proposed.UpdatedAt = uc.now()

	if !current.IsDraft() {
		if err := uc.invoices.UpdateCollection(ctx, &proposed); err != nil {
			return nil, err
		}
		return invoiceToResponse(&proposed), nil
	}
	if err := cfdi.ValidateInvoice(&proposed, uc.cfg.HomeCurrency); err != nil {
		return nil, err
	}
	if err := uc.invoices.Update(ctx, &proposed); err != nil {
		return nil, err
	}
	return invoiceToResponse(&proposed), nil
}

// UpdateCollection cambia solo los datos de cobranza; permitido en cualquier estado.
func (uc *InvoiceUseCase) UpdateCollection(ctx context.Context, companyID, id string, in dto.CollectionRequest) (*dto.InvoiceResponse, error) {
	current, err := uc.load(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	proposed := *current
	proposed.PaymentStatus = strings.TrimSpace(in.PaymentStatus)
	proposed.CollectedAt = in.CollectedAt
	if in.Notes != nil {
		proposed.Notes = *in.Notes
	}
	if ve := cfdi.ValidateEdit(current, &proposed); ve.OrNil() != nil {
		return nil, ve
	}
	proposed.UpdatedAt = uc.now()
	if err := uc.invoices.UpdateCollection(ctx, &proposed); err != nil {
		return nil, err
	}
	return invoiceToResponse(&proposed), nil
}

// Get obtiene una factura con sus conceptos.
func (uc *InvoiceUseCase) Get(ctx context.Context, companyID, id string) (*dto.InvoiceResponse, error) {
	inv, err := uc.load(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	return invoiceToResponse(inv), nil
}

// List lista facturas de la empresa con filtros y paginación.
func (uc *InvoiceUseCase) List(ctx context.Context, companyID string, in dto.InvoiceFilterRequest) (*dto.InvoiceListResponse, error) {
	in.DefaultPage()
	f := repository.InvoiceFilter{
		CompanyID:     companyID,
		ClientID:      in.ClientID,
		Status:        entity.FiscalStatus(strings.ToUpper(in.Status)),
		PaymentStatus: in.PaymentStatus,
		Limit:         in.Limit,
		Offset:        in.Offset,
	}
	ve := &domain.ValidationError{}
	if f.Status != "" && !cfdi.ValidStatus(f.Status) {
		ve.Add("status", "estado no válido")
	}
	if in.From != "" {
		d, err := time.Parse(time.DateOnly, in.From)
		if err != nil {
			ve.Add("desde", "formato esperado YYYY-MM-DD")
		} else {
			f.From = &d
		}
	}
	if in.To != "" {
		d, err := time.Parse(time.DateOnly, in.To)
		if err != nil {
			ve.Add("hasta", "formato esperado YYYY-MM-DD")
		} else {
			end := d.AddDate(0, 0, 1)
			f.To = &end
		}
	}
	if err := ve.OrNil(); err != nil {
		return nil, err
	}
	list, total, err := uc.invoices.List(ctx, f)
	if err != nil {
		return nil, err
	}
	items := make([]*dto.InvoiceResponse, 0, len(list))
	for _, inv := range list {
		items = append(items, invoiceToResponse(inv))
	}
	return &dto.InvoiceListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: in.Limit, Offset: in.Offset, Total: total},
	}, nil
}

// Stamp timbra un borrador con el PAC. Solo tras la respuesta exitosa se asignan folio fiscal
// y fecha de timbrado y la factura pasa a ISSUED.
func (uc *InvoiceUseCase) Stamp(ctx context.Context, companyID, id string) (*dto.InvoiceResponse, error) {
	inv, err := uc.load(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if err := cfdi.RequireEvent(inv.Status, cfdi.EventStamp); err != nil {
		return nil, err
	}
	cfdi.ApplyTotals(inv)
	if err := cfdi.ValidateInvoice(inv, uc.cfg.HomeCurrency); err != nil {
		return nil, err
	}
	company, client, err := uc.parties(ctx, companyID, inv.ClientID)
	if err != nil {
		return nil, err
	}
	xml, err := uc.builder.BuildInvoice(company, client, inv)
	if err != nil {
		return nil, fmt.Errorf("construir XML: %w", err)
	}

	res, err := uc.pac.Stamp(ctx, StampRequest{XML: xml})
	if err != nil {
		logRemoteFailure(uc.log, err).Str("invoice_id", inv.ID).Msg("timbrado rechazado")
		return nil, fmt.Errorf("timbrar factura: %w", err)
	}
	if !cfdi.CanTransition(inv.Status, cfdi.EventStamp, entity.StatusIssued) {
		return nil, fmt.Errorf("%w: %s → %s", domain.ErrInvalidState, inv.Status, entity.StatusIssued)
	}

	stampedAt := res.StampedAt
	inv.Status = entity.StatusIssued
	inv.FiscalUUID = res.UUID
	inv.StampedAt = &stampedAt
	inv.StampedXML = res.StampedXML
	inv.UpdatedAt = uc.now()
	if err := uc.invoices.MarkStamped(ctx, inv); err != nil {
		// El CFDI ya existe ante el SAT: el folio fiscal debe quedar en el log para conciliarlo.
		uc.log.Error().Err(err).Str("invoice_id", inv.ID).Str("uuid", res.UUID).Msg("timbrado exitoso sin persistir")
		return nil, err
	}
	uc.log.Info().Str("invoice_id", inv.ID).Str("uuid", inv.FiscalUUID).Msg("factura timbrada")
	return invoiceToResponse(inv), nil
}

// Cancel solicita la cancelación al PAC y guarda tal cual el estado devuelto
// (CANCELLED o CANCELLATION_PENDING).
func (uc *InvoiceUseCase) Cancel(ctx context.Context, companyID, id string, in dto.CancelRequest) (*dto.InvoiceResponse, error) {
	inv, err := uc.load(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	req, err := cfdi.ValidateCancellation(inv.Status, inv.FiscalUUID, cfdi.CancellationRequest{
		Reason:         in.Reason,
		SubstituteUUID: in.SubstituteUUID,
	})
	if err != nil {
		return nil, err
	}
	company, err := uc.company(ctx, companyID)
	if err != nil {
		return nil, err
	}

	res, err := uc.pac.Cancel(ctx, CancelRequest{
		UUID:           inv.FiscalUUID,
		IssuerRFC:      company.RFC,
		Reason:         req.Reason,
		SubstituteUUID: req.SubstituteUUID,
	})
	if err != nil {
		logRemoteFailure(uc.log, err).Str("invoice_id", inv.ID).Str("uuid", inv.FiscalUUID).Msg("cancelación rechazada")
		return nil, fmt.Errorf("cancelar factura: %w", err)
	}
	if err := cfdi.CheckCancellationResult(inv.Status, res.Status); err != nil {
		return nil, err
	}

	now := uc.now()
	inv.Status = res.Status
	inv.CancellationReason = req.Reason
	inv.SubstituteUUID = req.SubstituteUUID
	if res.Status == entity.StatusCancelled {
		inv.CancelledAt = &now
	}
	inv.UpdatedAt = now
	if err := uc.invoices.MarkCancellation(ctx, inv); err != nil {
		uc.log.Error().Err(err).Str("invoice_id", inv.ID).Str("status", string(res.Status)).Msg("cancelación sin persistir")
		return nil, err
	}
	uc.log.Info().Str("invoice_id", inv.ID).Str("uuid", inv.FiscalUUID).Str("status", string(inv.Status)).Msg("cancelación registrada")
	return invoiceToResponse(inv), nil
}

// RefreshStatus consulta al PAC el estatus de una cancelación pendiente. Si el receptor la
// rechazó, la factura vuelve a ISSUED.
func (uc *InvoiceUseCase) RefreshStatus(ctx context.Context, companyID, id string) (*dto.InvoiceResponse, error) {
	inv, err := uc.load(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if err := cfdi.RequireEvent(inv.Status, cfdi.EventRefresh); err != nil {
		return nil, err
	}
	status, err := uc.pac.CancellationStatus(ctx, inv.FiscalUUID)
	if err != nil {
		return nil, fmt.Errorf("consultar estatus: %w", err)
	}
	if status == inv.Status {
		return invoiceToResponse(inv), nil
	}
	if !cfdi.CanTransition(inv.Status, cfdi.EventRefresh, status) {
		return nil, fmt.Errorf("%w: el PAC devolvió el estado %s", domain.ErrInvalidState, status)
	}

	now := uc.now()
	inv.Status = status
	switch status {
	case entity.StatusCancelled:
		inv.CancelledAt = &now
	case entity.StatusIssued:
		inv.CancellationReason, inv.SubstituteUUID, inv.CancelledAt = "", "", nil
	}
	inv.UpdatedAt = now
	if err := uc.invoices.MarkCancellation(ctx, inv); err != nil {
		return nil, err
	}
	uc.log.Info().Str("invoice_id", inv.ID).Str("status", string(status)).Msg("estatus de cancelación actualizado")
	return invoiceToResponse(inv), nil
}

// PDF representación impresa de una factura timbrada. Devuelve el contenido y el nombre de archivo.
func (uc *InvoiceUseCase) PDF(ctx context.Context, companyID, id string) ([]byte, string, error) {
	inv, err := uc.stamped(ctx, companyID, id)
	if err != nil {
		return nil, "", err
	}
	company, client, err := uc.parties(ctx, companyID, inv.ClientID)
	if err != nil {
		return nil, "", err
	}
	pdf, err := uc.pdf.GenerateInvoicePDF(company, client, inv)
	if err != nil {
		return nil, "", fmt.Errorf("generar PDF: %w", err)
	}
	return pdf, documentFileName(inv.Series, inv.Folio, inv.FiscalUUID, "pdf"), nil
}

// XML CFDI timbrado tal como lo devolvió el PAC.
func (uc *InvoiceUseCase) XML(ctx context.Context, companyID, id string) ([]byte, string, error) {
	inv, err := uc.stamped(ctx, companyID, id)
	if err != nil {
		return nil, "", err
	}
	if inv.StampedXML == "" {
		return nil, "", domain.ErrNotFound
	}
	return []byte(inv.StampedXML), documentFileName(inv.Series, inv.Folio, inv.FiscalUUID, "xml"), nil
}

func (uc *InvoiceUseCase) stamped(ctx context.Context, companyID, id string) (*entity.Invoice, error) {
	inv, err := uc.load(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if inv.FiscalUUID == "" {
		return nil, fmt.Errorf("%w: la factura no está timbrada", domain.ErrInvalidState)
	}
	return inv, nil
}

func (uc *InvoiceUseCase) load(ctx context.Context, companyID, id string) (*entity.Invoice, error) {
	inv, err := uc.invoices.GetByID(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, domain.ErrNotFound
	}
	return inv, nil
}

func (uc *InvoiceUseCase) company(ctx context.Context, companyID string) (*entity.Company, error) {
	company, err := uc.companies.GetByID(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, fmt.Errorf("%w: empresa %s", domain.ErrNotFound, companyID)
	}
	return company, nil
}

// parties emisor y receptor. Un cliente inexistente es un error de campo, no un 404.
func (uc *InvoiceUseCase) parties(ctx context.Context, companyID, clientID string) (*entity.Company, *entity.Client, error) {
	company, err := uc.company(ctx, companyID)
	if err != nil {
		return nil, nil, err
	}
	if clientID == "" {
		return company, nil, domain.NewValidationError("cliente_id", "requerido")
	}
	client, err := uc.clients.GetByID(ctx, companyID, clientID)
	if err != nil {
		return nil, nil, err
	}
	if client == nil {
		return company, nil, domain.NewValidationError("cliente_id", "el cliente no existe")
	}
	return company, client, nil
}

// applyRequest vuelca el request sobre inv, aplica los valores por defecto del cliente y
// recalcula los totales. Los campos opcionales omitidos conservan el valor actual de inv.
func (uc *InvoiceUseCase) applyRequest(inv *entity.Invoice, in dto.InvoiceRequest, company *entity.Company, client *entity.Client) {
	inv.ClientID = strings.TrimSpace(in.ClientID)
	inv.Series = strings.TrimSpace(in.Series)
	inv.Folio = strings.TrimSpace(in.Folio)
	inv.Currency = strings.ToUpper(strings.TrimSpace(in.Currency))
	if inv.Currency == "" {
		inv.Currency = uc.cfg.HomeCurrency
	}
	switch {
	case inv.Currency == uc.cfg.HomeCurrency:
		inv.ExchangeRate = decimal.NewFromInt(1)
	case in.ExchangeRate != nil:
		inv.ExchangeRate = *in.ExchangeRate
	}
	inv.PaymentMethod = strings.ToUpper(strings.TrimSpace(in.PaymentMethod))
	inv.PaymentForm = strings.TrimSpace(in.PaymentForm)
	if inv.PaymentForm == "" {
		inv.PaymentForm = cfdi.NormalizePaymentForm(inv.PaymentMethod, "")
	}
	inv.CFDIUse = strings.ToUpper(strings.TrimSpace(in.CFDIUse))
	if inv.CFDIUse == "" && client != nil {
		inv.CFDIUse = client.CFDIUse
	}
	inv.RelationType = strings.TrimSpace(in.RelationType)
	inv.RelatedUUIDs = nil
	for _, u := range in.RelatedUUIDs {
		inv.RelatedUUIDs = append(inv.RelatedUUIDs, strings.ToUpper(strings.TrimSpace(u)))
	}

	if in.IssueDate != nil {
		inv.IssueDate = *in.IssueDate
	} else if inv.IssueDate.IsZero() {
		inv.IssueDate = uc.now()
	}
	if in.ScheduledPaymentDate != nil {
		d := *in.ScheduledPaymentDate
		inv.ScheduledPaymentDate = &d
	} else if inv.ScheduledPaymentDate == nil && inv.IsDraft() {
		inv.ScheduledPaymentDate = cfdi.DefaultScheduledPaymentDate(inv.IssueDate, client)
	}
	if ps := strings.TrimSpace(in.PaymentStatus); ps != "" {
		inv.PaymentStatus = ps
	}
	if in.CollectedAt != nil {
		d := *in.CollectedAt
		inv.CollectedAt = &d
	}
	inv.Notes = in.Notes

	ivaRet, isrRet := cfdi.SuggestRetentions(company, client)
	concepts := make([]entity.InvoiceConcept, 0, len(in.Concepts))
	for _, c := range in.Concepts {
		concepts = cfdi.AddConcept(concepts, conceptFromRequest(c, ivaRet, isrRet))
	}
	inv.Concepts = concepts
	cfdi.ApplyTotals(inv)
}

func conceptFromRequest(c dto.ConceptRequest, ivaRet, isrRet decimal.Decimal) entity.InvoiceConcept {
	out := entity.InvoiceConcept{
		ProductCode: strings.TrimSpace(c.ProductCode),
		UnitCode:    strings.ToUpper(strings.TrimSpace(c.UnitCode)),
		Description: strings.TrimSpace(c.Description),
		Quantity:    c.Quantity,
		UnitPrice:   c.UnitPrice,
		Discount:    c.Discount,
		IVARate:     c.IVARate,
		IVARetRate:  ivaRet,
		ISRRetRate:  isrRet,
	}
	if c.IVARetRate != nil {
		out.IVARetRate = *c.IVARetRate
	}
	if c.ISRRetRate != nil {
		out.ISRRetRate = *c.ISRRetRate
	}
	return out
}

func invoiceToResponse(inv *entity.Invoice) *dto.InvoiceResponse {
	out := &dto.InvoiceResponse{
		ID:                   inv.ID,
		CompanyID:            inv.CompanyID,
		ClientID:             inv.ClientID,
		Series:               inv.Series,
		Folio:                inv.Folio,
		Currency:             inv.Currency,
		ExchangeRate:         inv.ExchangeRate,
		PaymentMethod:        inv.PaymentMethod,
		PaymentForm:          inv.PaymentForm,
		CFDIUse:              inv.CFDIUse,
		RelationType:         inv.RelationType,
		RelatedUUIDs:         inv.RelatedUUIDs,
		Subtotal:             inv.Subtotal,
		Traslados:            inv.Traslados,
		Retenciones:          inv.Retenciones,
		Total:                inv.Total,
		Status:               string(inv.Status),
		PaymentStatus:        inv.PaymentStatus,
		FiscalUUID:           inv.FiscalUUID,
		IssueDate:            inv.IssueDate,
		StampedAt:            inv.StampedAt,
		ScheduledPaymentDate: inv.ScheduledPaymentDate,
		CollectedAt:          inv.CollectedAt,
		CancellationReason:   inv.CancellationReason,
		SubstituteUUID:       inv.SubstituteUUID,
		CancelledAt:          inv.CancelledAt,
		Notes:                inv.Notes,
		Editable:             cfdi.EditableFields(inv.Status),
	}
	for _, c := range inv.Concepts {
		a := cfdi.CalculateConcept(c)
		out.Concepts = append(out.Concepts, dto.ConceptResponse{
			ProductCode:   c.ProductCode,
			UnitCode:      c.UnitCode,
			Description:   c.Description,
			Quantity:      c.Quantity,
			UnitPrice:     c.UnitPrice,
			Discount:      c.Discount,
			IVARate:       c.IVARate,
			IVARetRate:    c.IVARetRate,
			ISRRetRate:    c.ISRRetRate,
			Base:          a.Base.Round(2),
			IVATrasladado: a.IVATrasladado.Round(2),
			IVARetenido:   a.IVARetenido.Round(2),
			ISRRetenido:   a.ISRRetenido.Round(2),
			Importe:       a.Importe.Round(2),
		})
	}
	return out
}

// documentFileName nombre de descarga: serie-folio si existen, si no el folio fiscal.
func documentFileName(series, folio, fiscalUUID, ext string) string {
	name := strings.Trim(series+"-"+folio, "-")
	if name == "" {
		name = fiscalUUID
	}
	return name + "." + ext
}

// logRemoteFailure un rechazo de datos del PAC es warn; una falla de transporte o inesperada es error.
func logRemoteFailure(log *logger.Logger, err error) *zerolog.Event {
	var re *domain.RemoteValidationError
	if errors.As(err, &re) {
		return log.Warn().Err(err).Interface("fields", re.Fields)
	}
	return log.Error().Err(err)
}
