package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Facturacion-api/internal/application/dto"
	"github.com/jhoicas/Facturacion-api/internal/domain"
	"github.com/jhoicas/Facturacion-api/internal/domain/cfdi"
	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
	"github.com/jhoicas/Facturacion-api/internal/domain/repository"
	"github.com/jhoicas/Facturacion-api/pkg/logger"
	"github.com/jhoicas/Facturacion-api/pkg/sat"
)

// PaymentUseCase complementos de pago: aplicación del pago a facturas PPD, timbrado y cancelación.
type PaymentUseCase struct {
	payments  repository.PaymentRepository
	invoices  repository.InvoiceRepository
	clients   repository.ClientRepository
	companies repository.CompanyRepository
	balances  repository.InvoiceBalanceReader
	tx        BillingTxRunner
	builder   CFDIBuilder
	pac       StampingService
	cfg       Config
	log       *logger.Logger
	now       func() time.Time
}

// NewPaymentUseCase construye el caso de uso con todas sus dependencias.
func NewPaymentUseCase(
	payments repository.PaymentRepository,
	invoices repository.InvoiceRepository,
	clients repository.ClientRepository,
	companies repository.CompanyRepository,
	balances repository.InvoiceBalanceReader,
	tx BillingTxRunner,
	builder CFDIBuilder,
	pac StampingService,
	cfg Config,
	log *logger.Logger,
) *PaymentUseCase {
	return &PaymentUseCase{
		payments:  payments,
		invoices:  invoices,
		clients:   clients,
		companies: companies,
		balances:  balances,
		tx:        tx,
		builder:   builder,
		pac:       pac,
		cfg:       cfg.withDefaults(),
		log:       log.Component("billing"),
		now:       time.Now,
	}
}

// Outstanding facturas del cliente con saldo pendiente. excludePaymentID permite consultar los
// saldos previos a un pago que se está editando.
func (uc *PaymentUseCase) Outstanding(ctx context.Context, companyID, clientID, excludePaymentID string) ([]dto.OutstandingInvoiceResponse, error) {
	if clientID == "" {
		return nil, domain.NewValidationError("cliente_id", "requerido")
	}
	list, err := uc.balances.Outstanding(ctx, companyID, clientID, excludePaymentID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.OutstandingInvoiceResponse, 0, len(list))
	for _, o := range list {
		b := o.Balance()
		out = append(out, dto.OutstandingInvoiceResponse{
			InvoiceID:       o.InvoiceID,
			Series:          o.Series,
			Folio:           o.Folio,
			FiscalUUID:      o.FiscalUUID,
			Currency:        o.Currency,
			IssueDate:       o.IssueDate,
			Total:           o.Total,
			PriorBalance:    b.PriorBalance(),
			NextInstallment: b.NextInstallment(),
		})
	}
	return out, nil
}

// Create guarda un complemento de pago en borrador con sus documentos relacionados.
func (uc *PaymentUseCase) Create(ctx context.Context, companyID string, in dto.PaymentRequest) (*dto.PaymentResponse, error) {
	in.ClientID = strings.TrimSpace(in.ClientID)
	if err := uc.checkClient(ctx, companyID, in.ClientID); err != nil {
		return nil, err
	}
	draft := cfdi.NewAllocationDraft(in.ClientID)
	for id, amt := range in.Documents {
		draft = draft.Set(id, amt)
	}

	now := uc.now()
	p := &entity.Payment{
		ID:        uuid.New().String(),
		CompanyID: companyID,
		Status:    entity.StatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}
	uc.applyRequest(p, in)
	if err := uc.allocate(ctx, p, draft, ""); err != nil {
		return nil, err
	}
	if err := uc.payments.Create(ctx, p); err != nil {
		return nil, err
	}
	uc.log.Info().Str("payment_id", p.ID).Str("company_id", companyID).Int("documentos", len(p.Documents)).Msg("pago creado en borrador")
	return paymentToResponse(p), nil
}

// Update edita un pago en borrador. Los importes de documentos se aplican sobre los ya guardados
// (null elimina); si cambia el cliente se descartan todos los anteriores.
func (uc *PaymentUseCase) Update(ctx context.Context, companyID, id string, in dto.PaymentRequest) (*dto.PaymentResponse, error) {
	p, err := uc.load(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if err := cfdi.RequireEvent(p.Status, cfdi.EventEdit); err != nil {
		return nil, err
	}
	in.ClientID = strings.TrimSpace(in.ClientID)
	if err := uc.checkClient(ctx, companyID, in.ClientID); err != nil {
		return nil, err
	}
	draft := cfdi.SeedDraft(p.ClientID, p.Documents).SelectClient(in.ClientID)
	for invoiceID, amt := range in.Documents {
		draft = draft.Set(invoiceID, amt)
	}

	uc.applyRequest(p, in)
	p.UpdatedAt = uc.now()
	if err := uc.allocate(ctx, p, draft, p.ID); err != nil {
		return nil, err
	}
	if err := uc.payments.Update(ctx, p); err != nil {
		return nil, err
	}
	return paymentToResponse(p), nil
}

// Get obtiene un pago con sus documentos.
func (uc *PaymentUseCase) Get(ctx context.Context, companyID, id string) (*dto.PaymentResponse, error) {
	p, err := uc.load(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	return paymentToResponse(p), nil
}

// List lista pagos de la empresa.
func (uc *PaymentUseCase) List(ctx context.Context, companyID, clientID, status string, page dto.PageRequest) (*dto.PaymentListResponse, error) {
	page.DefaultPage()
	f := repository.PaymentFilter{
		CompanyID: companyID,
		ClientID:  clientID,
		Status:    entity.FiscalStatus(strings.ToUpper(status)),
		Limit:     page.Limit,
		Offset:    page.Offset,
	}
	if f.Status != "" && !cfdi.ValidStatus(f.Status) {
		return nil, domain.NewValidationError("status", "estado no válido")
	}
	list, total, err := uc.payments.List(ctx, f)
	if err != nil {
		return nil, err
	}
	items := make([]*dto.PaymentResponse, 0, len(list))
	for _, p := range list {
		items = append(items, paymentToResponse(p))
	}
	return &dto.PaymentListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset, Total: total},
	}, nil
}

// Stamp timbra el complemento. Antes de enviarlo recalcula saldos y parcialidades contra el
// historial vigente y exige que cada factura relacionada esté emitida con método PPD.
// Tras el timbrado actualiza el status de cobranza de las facturas en la misma transacción.
func (uc *PaymentUseCase) Stamp(ctx context.Context, companyID, id string) (*dto.PaymentResponse, error) {
	p, err := uc.load(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if err := cfdi.RequireEvent(p.Status, cfdi.EventStamp); err != nil {
		return nil, err
	}
	related, err := uc.relatedInvoices(ctx, companyID, p)
	if err != nil {
		return nil, err
	}
	if err := uc.allocate(ctx, p, cfdi.SeedDraft(p.ClientID, p.Documents), p.ID); err != nil {
		return nil, err
	}
	company, err := uc.companies.GetByID(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, fmt.Errorf("%w: empresa %s", domain.ErrNotFound, companyID)
	}
	client, err := uc.clients.GetByID(ctx, companyID, p.ClientID)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, domain.NewValidationError("cliente_id", "el cliente no existe")
	}
	xml, err := uc.builder.BuildPayment(company, client, p, related)
	if err != nil {
		return nil, fmt.Errorf("construir XML: %w", err)
	}

	res, err := uc.pac.Stamp(ctx, StampRequest{XML: xml})
	if err != nil {
		logRemoteFailure(uc.log, err).Str("payment_id", p.ID).Msg("timbrado de pago rechazado")
		return nil, fmt.Errorf("timbrar pago: %w", err)
	}

	now := uc.now()
	stampedAt := res.StampedAt
	p.Status = entity.StatusIssued
	p.FiscalUUID = res.UUID
	p.StampedAt = &stampedAt
	p.StampedXML = res.StampedXML
	p.UpdatedAt = now
	err = uc.tx.RunBilling(ctx, func(tx BillingTx) error {
		// Los saldos recalculados se guardan antes de marcar el timbrado.
		if err := tx.Payments.Update(ctx, p); err != nil {
			return err
		}
		if err := tx.Payments.MarkStamped(ctx, p); err != nil {
			return err
		}
		for _, d := range p.Documents {
			inv := related[d.InvoiceID]
			inv.PaymentStatus = cfdi.CollectionStatus(inv.Total, d.ResultingBalance)
			inv.CollectedAt = nil
			if inv.PaymentStatus == entity.PaymentStatusPaid {
				paidAt := p.PaymentDate
				inv.CollectedAt = &paidAt
			}
			inv.UpdatedAt = now
			if err := tx.Invoices.UpdateCollection(ctx, inv); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		uc.log.Error().Err(err).Str("payment_id", p.ID).Str("uuid", res.UUID).Msg("timbrado de pago sin persistir")
		return nil, err
	}
	uc.log.Info().Str("payment_id", p.ID).Str("uuid", p.FiscalUUID).Msg("pago timbrado")
	return paymentToResponse(p), nil
}

// Cancel solicita la cancelación del complemento. Si queda cancelado, la cobranza de las facturas
// relacionadas se recalcula con los pagos que siguen vigentes.
func (uc *PaymentUseCase) Cancel(ctx context.Context, companyID, id string, in dto.CancelRequest) (*dto.PaymentResponse, error) {
	p, err := uc.load(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	req, err := cfdi.ValidateCancellation(p.Status, p.FiscalUUID, cfdi.CancellationRequest{
		Reason:         in.Reason,
		SubstituteUUID: in.SubstituteUUID,
	})
	if err != nil {
		return nil, err
	}
	company, err := uc.companies.GetByID(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, fmt.Errorf("%w: empresa %s", domain.ErrNotFound, companyID)
	}

	res, err := uc.pac.Cancel(ctx, CancelRequest{
		UUID:           p.FiscalUUID,
		IssuerRFC:      company.RFC,
		Reason:         req.Reason,
		SubstituteUUID: req.SubstituteUUID,
	})
	if err != nil {
		logRemoteFailure(uc.log, err).Str("payment_id", p.ID).Msg("cancelación de pago rechazada")
		return nil, fmt.Errorf("cancelar pago: %w", err)
	}
	if err := cfdi.CheckCancellationResult(p.Status, res.Status); err != nil {
		return nil, err
	}

	now := uc.now()
	p.Status = res.Status
	p.CancellationReason = req.Reason
	p.SubstituteUUID = req.SubstituteUUID
	if res.Status == entity.StatusCancelled {
		p.CancelledAt = &now
	}
	p.UpdatedAt = now
	if err := uc.saveCancellation(ctx, p, now); err != nil {
		return nil, err
	}
	uc.log.Info().Str("payment_id", p.ID).Str("status", string(p.Status)).Msg("cancelación de pago registrada")
	return paymentToResponse(p), nil
}

// RefreshStatus consulta al PAC el estatus de un complemento con cancelación pendiente.
// Si el receptor la rechazó, el pago vuelve a ISSUED y la cobranza no cambia.
func (uc *PaymentUseCase) RefreshStatus(ctx context.Context, companyID, id string) (*dto.PaymentResponse, error) {
	p, err := uc.load(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if err := cfdi.RequireEvent(p.Status, cfdi.EventRefresh); err != nil {
		return nil, err
	}
	status, err := uc.pac.CancellationStatus(ctx, p.FiscalUUID)
	if err != nil {
		return nil, fmt.Errorf("consultar estatus: %w", err)
	}
	if status == p.Status {
		return paymentToResponse(p), nil
	}
	if !cfdi.CanTransition(p.Status, cfdi.EventRefresh, status) {
		return nil, fmt.Errorf("%w: el PAC devolvió el estado %s", domain.ErrInvalidState, status)
	}

	now := uc.now()
	p.Status = status
	switch status {
	case entity.StatusCancelled:
		p.CancelledAt = &now
	case entity.StatusIssued:
		p.CancellationReason, p.SubstituteUUID, p.CancelledAt = "", "", nil
	}
	p.UpdatedAt = now
	if err := uc.saveCancellation(ctx, p, now); err != nil {
		return nil, err
	}
	uc.log.Info().Str("payment_id", p.ID).Str("status", string(status)).Msg("estatus de cancelación de pago actualizado")
	return paymentToResponse(p), nil
}

// saveCancellation guarda el nuevo estado del pago y, si quedó cancelado, recalcula la cobranza
// de sus facturas en la misma transacción.
func (uc *PaymentUseCase) saveCancellation(ctx context.Context, p *entity.Payment, now time.Time) error {
	err := uc.tx.RunBilling(ctx, func(tx BillingTx) error {
		if err := tx.Payments.MarkCancellation(ctx, p); err != nil {
			return err
		}
		if p.Status != entity.StatusCancelled {
			return nil
		}
		return recomputeCollections(ctx, tx, p.CompanyID, p.Documents, now)
	})
	if err != nil {
		uc.log.Error().Err(err).Str("payment_id", p.ID).Str("status", string(p.Status)).Msg("cancelación de pago sin persistir")
	}
	return err
}

// XML complemento timbrado tal como lo devolvió el PAC.
func (uc *PaymentUseCase) XML(ctx context.Context, companyID, id string) ([]byte, string, error) {
	p, err := uc.load(ctx, companyID, id)
	if err != nil {
		return nil, "", err
	}
	if p.FiscalUUID == "" || p.StampedXML == "" {
		return nil, "", fmt.Errorf("%w: el pago no está timbrado", domain.ErrInvalidState)
	}
	return []byte(p.StampedXML), documentFileName(p.Series, p.Folio, p.FiscalUUID, "xml"), nil
}

// allocate recalcula los documentos del pago a partir del borrador y de los saldos vigentes,
// y valida cabecera y suma aplicada en un solo error por campo.
func (uc *PaymentUseCase) allocate(ctx context.Context, p *entity.Payment, draft cfdi.AllocationDraft, excludePaymentID string) error {
	outstanding, err := uc.balances.Outstanding(ctx, p.CompanyID, draft.ClientID(), excludePaymentID)
	if err != nil {
		return err
	}
	candidates := make([]cfdi.InvoiceBalance, 0, len(outstanding))
	for _, o := range outstanding {
		candidates = append(candidates, o.Balance())
	}
	docs, err := cfdi.BuildAllocations(draft.Amounts(), candidates)
	if err != nil {
		return err
	}
	p.Documents = docs

	ve := &domain.ValidationError{}
	if err := cfdi.ValidatePayment(p, uc.cfg.HomeCurrency); err != nil {
		var header *domain.ValidationError
		if !errors.As(err, &header) {
			return err
		}
		ve.Merge(header)
	}
	ve.Merge(cfdi.ValidateAllocations(docs, p.Amount, uc.cfg.tolerance()))
	return ve.OrNil()
}

// relatedInvoices carga las facturas de los documentos; cada una debe estar emitida con método PPD.
func (uc *PaymentUseCase) relatedInvoices(ctx context.Context, companyID string, p *entity.Payment) (map[string]*entity.Invoice, error) {
	out := make(map[string]*entity.Invoice, len(p.Documents))
	ve := &domain.ValidationError{}
	for _, d := range p.Documents {
		inv, err := uc.invoices.GetByID(ctx, companyID, d.InvoiceID)
		if err != nil {
			return nil, err
		}
		field := "documentos." + d.InvoiceID
		switch {
		case inv == nil:
			ve.Add(field, "la factura no existe")
		case inv.Status != entity.StatusIssued:
			ve.Add(field, fmt.Sprintf("la factura está en estado %s", inv.Status))
		case inv.PaymentMethod != sat.MetodoPagoPPD:
			ve.Add(field, "solo se aplican pagos a facturas con método PPD")
		default:
			out[d.InvoiceID] = inv
		}
	}
	if err := ve.OrNil(); err != nil {
		return nil, err
	}
	return out, nil
}

func (uc *PaymentUseCase) checkClient(ctx context.Context, companyID, clientID string) error {
	if strings.TrimSpace(clientID) == "" {
		return domain.NewValidationError("cliente_id", "requerido")
	}
	c, err := uc.clients.GetByID(ctx, companyID, clientID)
	if err != nil {
		return err
	}
	if c == nil {
		return domain.NewValidationError("cliente_id", "el cliente no existe")
	}
	return nil
}

func (uc *PaymentUseCase) load(ctx context.Context, companyID, id string) (*entity.Payment, error) {
	p, err := uc.payments.GetByID(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

func (uc *PaymentUseCase) applyRequest(p *entity.Payment, in dto.PaymentRequest) {
	p.ClientID = strings.TrimSpace(in.ClientID)
	p.Series = strings.TrimSpace(in.Series)
	p.Folio = strings.TrimSpace(in.Folio)
	if in.PaymentDate != nil {
		p.PaymentDate = *in.PaymentDate
	} else if p.PaymentDate.IsZero() {
		p.PaymentDate = uc.now()
	}
	p.Currency = strings.ToUpper(strings.TrimSpace(in.Currency))
	if p.Currency == "" {
		p.Currency = uc.cfg.HomeCurrency
	}
	switch {
	case p.Currency == uc.cfg.HomeCurrency:
		p.ExchangeRate = decimal.NewFromInt(1)
	case in.ExchangeRate != nil:
		p.ExchangeRate = *in.ExchangeRate
	}
	p.PaymentForm = strings.TrimSpace(in.PaymentForm)
	p.Amount = in.Amount.Round(2)
	p.Notes = in.Notes
}

// recomputeCollections recalcula el status de cobranza de las facturas con los pagos vigentes.
// Debe correr después de marcar el pago como cancelado para que ya no cuente.
func recomputeCollections(ctx context.Context, tx BillingTx, companyID string, docs []entity.PaymentDocument, now time.Time) error {
	for _, d := range docs {
		inv, err := tx.Invoices.GetByID(ctx, companyID, d.InvoiceID)
		if err != nil {
			return err
		}
		if inv == nil {
			continue
		}
		col, err := tx.Balances.Collection(ctx, companyID, d.InvoiceID)
		if err != nil {
			return err
		}
		if col == nil {
			continue
		}
		inv.PaymentStatus = col.Status()
		inv.CollectedAt = nil
		if inv.PaymentStatus == entity.PaymentStatusPaid {
			inv.CollectedAt = col.LastPaidAt
		}
		inv.UpdatedAt = now
		if err := tx.Invoices.UpdateCollection(ctx, inv); err != nil {
			return err
		}
	}
	return nil
}

func paymentToResponse(p *entity.Payment) *dto.PaymentResponse {
	out := &dto.PaymentResponse{
		ID:                 p.ID,
		CompanyID:          p.CompanyID,
		ClientID:           p.ClientID,
		Series:             p.Series,
		Folio:              p.Folio,
		PaymentDate:        p.PaymentDate,
		Currency:           p.Currency,
		ExchangeRate:       p.ExchangeRate,
		PaymentForm:        p.PaymentForm,
		Amount:             p.Amount,
		AppliedTotal:       p.AppliedTotal(),
		Status:             string(p.Status),
		FiscalUUID:         p.FiscalUUID,
		StampedAt:          p.StampedAt,
		CancellationReason: p.CancellationReason,
		CancelledAt:        p.CancelledAt,
		Notes:              p.Notes,
	}
	for _, d := range p.Documents {
		out.Documents = append(out.Documents, dto.PaymentDocumentResponse{
			InvoiceID:        d.InvoiceID,
			Amount:           d.Amount,
			Installment:      d.Installment,
			PriorBalance:     d.PriorBalance,
			ResultingBalance: d.ResultingBalance,
		})
	}
	return out
}
