package billing

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/jhoicas/Facturacion-api/internal/domain"
	"github.com/jhoicas/Facturacion-api/internal/domain/cfdi"
	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
	"github.com/jhoicas/Facturacion-api/internal/domain/repository"
	"github.com/jhoicas/Facturacion-api/pkg/logger"
	"github.com/jhoicas/Facturacion-api/pkg/sat"
)

// MockStampingService doble del PAC.
type MockStampingService struct {
	mock.Mock
}

func (m *MockStampingService) Stamp(ctx context.Context, req StampRequest) (*StampResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*StampResult), args.Error(1)
}

func (m *MockStampingService) Cancel(ctx context.Context, req CancelRequest) (*CancelResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*CancelResult), args.Error(1)
}

func (m *MockStampingService) CancellationStatus(ctx context.Context, uuid string) (entity.FiscalStatus, error) {
	args := m.Called(ctx, uuid)
	return args.Get(0).(entity.FiscalStatus), args.Error(1)
}

// MockCFDIBuilder doble del generador de XML.
type MockCFDIBuilder struct {
	mock.Mock
}

func (m *MockCFDIBuilder) BuildInvoice(company *entity.Company, client *entity.Client, inv *entity.Invoice) ([]byte, error) {
	args := m.Called(company, client, inv)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockCFDIBuilder) BuildPayment(company *entity.Company, client *entity.Client, p *entity.Payment, related map[string]*entity.Invoice) ([]byte, error) {
	args := m.Called(company, client, p, related)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// MockPDFGenerator doble del generador de PDF.
type MockPDFGenerator struct {
	mock.Mock
}

func (m *MockPDFGenerator) GenerateInvoicePDF(company *entity.Company, client *entity.Client, inv *entity.Invoice) ([]byte, error) {
	args := m.Called(company, client, inv)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// memInvoices repositorio en memoria con las mismas guardas de estado que el de Postgres.
type memInvoices struct {
	mu    sync.Mutex
	items map[string]entity.Invoice
	calls []string
}

func newMemInvoices(list ...*entity.Invoice) *memInvoices {
	r := &memInvoices{items: map[string]entity.Invoice{}}
	for _, inv := range list {
		r.items[inv.ID] = *inv
	}
	return r
}

func (r *memInvoices) record(call string) {
	r.calls = append(r.calls, call)
}

func (r *memInvoices) Create(_ context.Context, inv *entity.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("Create")
	r.items[inv.ID] = *inv
	return nil
}

func (r *memInvoices) Update(_ context.Context, inv *entity.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("Update")
	cur, ok := r.items[inv.ID]
	if !ok || cur.Status != entity.StatusDraft {
		return domain.ErrConflict
	}
	r.items[inv.ID] = *inv
	return nil
}

func (r *memInvoices) UpdateCollection(_ context.Context, inv *entity.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("UpdateCollection")
	cur, ok := r.items[inv.ID]
	if !ok {
		return domain.ErrNotFound
	}
	cur.PaymentStatus = inv.PaymentStatus
	cur.CollectedAt = inv.CollectedAt
	cur.Notes = inv.Notes
	cur.UpdatedAt = inv.UpdatedAt
	r.items[inv.ID] = cur
	return nil
}

func (r *memInvoices) MarkStamped(_ context.Context, inv *entity.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("MarkStamped")
	cur, ok := r.items[inv.ID]
	if !ok || cur.Status != entity.StatusDraft || cur.FiscalUUID != "" {
		return domain.ErrConflict
	}
	r.items[inv.ID] = *inv
	return nil
}

func (r *memInvoices) MarkCancellation(_ context.Context, inv *entity.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("MarkCancellation")
	cur, ok := r.items[inv.ID]
	if !ok || (cur.Status != entity.StatusIssued && cur.Status != entity.StatusCancellationPending) {
		return domain.ErrConflict
	}
	r.items[inv.ID] = *inv
	return nil
}

func (r *memInvoices) GetByID(_ context.Context, companyID, id string) (*entity.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.items[id]
	if !ok || inv.CompanyID != companyID {
		return nil, nil
	}
	return &inv, nil
}

func (r *memInvoices) List(_ context.Context, f repository.InvoiceFilter) ([]*entity.Invoice, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Invoice
	for _, inv := range r.items {
		if inv.CompanyID != f.CompanyID || (f.Status != "" && inv.Status != f.Status) {
			continue
		}
		cp := inv
		out = append(out, &cp)
	}
	return out, len(out), nil
}

func (r *memInvoices) get(id string) entity.Invoice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.items[id]
}

type memPayments struct {
	mu    sync.Mutex
	items map[string]entity.Payment
}

func newMemPayments(list ...*entity.Payment) *memPayments {
	r := &memPayments{items: map[string]entity.Payment{}}
	for _, p := range list {
		r.items[p.ID] = *p
	}
	return r
}

func (r *memPayments) Create(_ context.Context, p *entity.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[p.ID] = *p
	return nil
}

func (r *memPayments) Update(_ context.Context, p *entity.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.items[p.ID]
	if !ok || cur.Status != entity.StatusDraft {
		return domain.ErrConflict
	}
	cp := *p
	cp.Status = cur.Status
	r.items[p.ID] = cp
	return nil
}

func (r *memPayments) MarkStamped(_ context.Context, p *entity.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.items[p.ID]
	if !ok || cur.Status != entity.StatusDraft {
		return domain.ErrConflict
	}
	r.items[p.ID] = *p
	return nil
}

func (r *memPayments) MarkCancellation(_ context.Context, p *entity.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[p.ID] = *p
	return nil
}

func (r *memPayments) GetByID(_ context.Context, companyID, id string) (*entity.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.items[id]
	if !ok || p.CompanyID != companyID {
		return nil, nil
	}
	return &p, nil
}

func (r *memPayments) List(_ context.Context, f repository.PaymentFilter) ([]*entity.Payment, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Payment
	for _, p := range r.items {
		if p.CompanyID == f.CompanyID {
			cp := p
			out = append(out, &cp)
		}
	}
	return out, len(out), nil
}

func (r *memPayments) get(id string) entity.Payment {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.items[id]
}

type memClients struct {
	items map[string]*entity.Client
}

func newMemClients(list ...*entity.Client) *memClients {
	r := &memClients{items: map[string]*entity.Client{}}
	for _, c := range list {
		r.items[c.ID] = c
	}
	return r
}

func (r *memClients) Create(_ context.Context, c *entity.Client) error {
	r.items[c.ID] = c
	return nil
}

func (r *memClients) GetByID(_ context.Context, companyID, id string) (*entity.Client, error) {
	c, ok := r.items[id]
	if !ok || c.CompanyID != companyID {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (r *memClients) GetByRFC(_ context.Context, companyID, rfc string) (*entity.Client, error) {
	for _, c := range r.items {
		if c.CompanyID == companyID && c.RFC == rfc {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memClients) ListByCompany(_ context.Context, companyID, _ string, _, _ int) ([]*entity.Client, error) {
	var out []*entity.Client
	for _, c := range r.items {
		if c.CompanyID == companyID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *memClients) Update(_ context.Context, c *entity.Client) error {
	if _, ok := r.items[c.ID]; !ok {
		return domain.ErrNotFound
	}
	r.items[c.ID] = c
	return nil
}

func (r *memClients) Delete(_ context.Context, _, id string) error {
	delete(r.items, id)
	return nil
}

type memCompanies struct {
	items map[string]*entity.Company
}

func (r *memCompanies) Create(_ context.Context, c *entity.Company) error {
	r.items[c.ID] = c
	return nil
}

func (r *memCompanies) GetByID(_ context.Context, id string) (*entity.Company, error) {
	c, ok := r.items[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (r *memCompanies) Update(_ context.Context, c *entity.Company) error {
	r.items[c.ID] = c
	return nil
}

// memBalances saldos de prueba. Con list fija, Outstanding la devuelve tal cual; sin ella, los
// saldos se calculan del historial en memoria con la misma regla de estados que la consulta SQL.
type memBalances struct {
	list     []repository.OutstandingInvoice
	excluded []string
	invoices *memInvoices
	payments *memPayments
}

type invoiceHistory struct {
	paid        decimal.Decimal
	installment int
	docs        int
	lastPaidAt  *time.Time
}

func (b *memBalances) history(invoiceID, excludePaymentID string) invoiceHistory {
	b.payments.mu.Lock()
	defer b.payments.mu.Unlock()
	var h invoiceHistory
	for _, p := range b.payments.items {
		if !cfdi.CountsTowardBalance(p.Status) || p.ID == excludePaymentID {
			continue
		}
		for _, d := range p.Documents {
			if d.InvoiceID != invoiceID {
				continue
			}
			h.paid = h.paid.Add(d.Amount)
			h.docs++
			if d.Installment > h.installment {
				h.installment = d.Installment
			}
			if h.lastPaidAt == nil || p.PaymentDate.After(*h.lastPaidAt) {
				date := p.PaymentDate
				h.lastPaidAt = &date
			}
		}
	}
	return h
}

func (b *memBalances) Outstanding(_ context.Context, companyID, clientID, excludePaymentID string) ([]repository.OutstandingInvoice, error) {
	b.excluded = append(b.excluded, excludePaymentID)
	if clientID != testClientID {
		return nil, nil
	}
	if b.list != nil {
		return b.list, nil
	}
	b.invoices.mu.Lock()
	candidates := make([]entity.Invoice, 0, len(b.invoices.items))
	for _, inv := range b.invoices.items {
		if inv.CompanyID == companyID && inv.ClientID == clientID &&
			inv.Status == entity.StatusIssued && inv.PaymentMethod == sat.MetodoPagoPPD {
			candidates = append(candidates, inv)
		}
	}
	b.invoices.mu.Unlock()
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].ID < candidates[j].ID })

	var out []repository.OutstandingInvoice
	for _, inv := range candidates {
		h := b.history(inv.ID, excludePaymentID)
		balance := inv.Total.Sub(h.paid)
		if !balance.IsPositive() {
			continue
		}
		o := repository.OutstandingInvoice{
			InvoiceID:       inv.ID,
			Series:          inv.Series,
			Folio:           inv.Folio,
			FiscalUUID:      inv.FiscalUUID,
			Currency:        inv.Currency,
			Total:           inv.Total,
			LastInstallment: h.installment,
		}
		if h.docs > 0 {
			o.LastBalance = &balance
		}
		out = append(out, o)
	}
	return out, nil
}

func (b *memBalances) Collection(ctx context.Context, companyID, invoiceID string) (*repository.InvoiceCollection, error) {
	inv, _ := b.invoices.GetByID(ctx, companyID, invoiceID)
	if inv == nil {
		return nil, nil
	}
	h := b.history(invoiceID, "")
	return &repository.InvoiceCollection{
		InvoiceID:  invoiceID,
		Total:      inv.Total,
		Paid:       h.paid,
		Payments:   h.docs,
		LastPaidAt: h.lastPaidAt,
	}, nil
}

// directTx ejecuta la función sobre los mismos repos, sin transacción real.
type directTx struct {
	repos BillingTx
}

func (t directTx) RunBilling(_ context.Context, fn func(BillingTx) error) error {
	return fn(t.repos)
}

const (
	testCompanyID = "company-1"
	testClientID  = "client-1"
	stampedUUID   = "5FB2822E-396D-4725-8521-CDC4BDD20CCF"
)

var fixedNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func testCompany() *entity.Company {
	return &entity.Company{
		ID:           testCompanyID,
		Name:         "EMPRESA DEMO",
		RFC:          "EKU9003173C9",
		FiscalRegime: "601",
		PersonType:   entity.PersonTypeMoral,
		PostalCode:   "64000",
	}
}

func testClient() *entity.Client {
	return &entity.Client{
		ID:           testClientID,
		CompanyID:    testCompanyID,
		Name:         "CLIENTE DEMO",
		RFC:          "XIA190128J61",
		FiscalRegime: "601",
		PersonType:   entity.PersonTypeMoral,
		PostalCode:   "64000",
		CFDIUse:      "G03",
		CreditDays:   30,
	}
}

func testLogger() *logger.Logger { return logger.Nop() }
