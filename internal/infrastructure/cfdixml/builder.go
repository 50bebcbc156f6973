package cfdixml

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Facturacion-api/internal/application/billing"
	"github.com/jhoicas/Facturacion-api/internal/domain/cfdi"
	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
	"github.com/jhoicas/Facturacion-api/pkg/sat"
)

// Namespaces y ubicaciones de esquema (Anexo 20, CFDI 4.0 y complemento Pagos 2.0).
const (
	NsCFDI   = "http://www.sat.gob.mx/cfd/4"
	NsPagos  = "http://www.sat.gob.mx/Pagos20"
	NsTFD    = "http://www.sat.gob.mx/TimbreFiscalDigital"
	nsXsi    = "http://www.w3.org/2001/XMLSchema-instance"
	xsdCFDI  = "http://www.sat.gob.mx/cfd/4 http://www.sat.gob.mx/sitio_internet/cfd/4/cfdv40.xsd"
	xsdPagos = "http://www.sat.gob.mx/Pagos20 http://www.sat.gob.mx/sitio_internet/cfd/Pagos/Pagos20.xsd"
)

// Claves fijas del comprobante.
const (
	impuestoISR     = "001"
	impuestoIVA     = "002"
	tipoFactorTasa  = "Tasa"
	objetoImpSi     = "02"
	objetoImpNo     = "01"
	exportacionNo   = "01"
	usoCFDIPagos    = "CP01"
	claveProdPago   = "84111506"
	claveUnidadPago = "ACT"
	monedaPago      = "XXX"
	fechaLayout     = "2006-01-02T15:04:05"
)

var _ billing.CFDIBuilder = (*Builder)(nil)

// Builder genera el XML sin sellar que se envía al PAC. El sello y el certificado
// los agrega el PAC al timbrar.
type Builder struct{}

// NewBuilder crea el generador.
func NewBuilder() *Builder {
	return &Builder{}
}

// BuildInvoice CFDI 4.0 de ingreso con impuestos por concepto y resumen por tasa.
func (b *Builder) BuildInvoice(company *entity.Company, client *entity.Client, inv *entity.Invoice) ([]byte, error) {
	if company == nil || client == nil || inv == nil {
		return nil, fmt.Errorf("cfdixml: faltan emisor, receptor o factura")
	}
	if len(inv.Concepts) == 0 {
		return nil, fmt.Errorf("cfdixml: la factura no tiene conceptos")
	}

	doc, root := newComprobante(xsdCFDI)
	setAttrs(root,
		"Version", "4.0",
		"Serie", inv.Series,
		"Folio", inv.Folio,
		"Fecha", inv.IssueDate.Format(fechaLayout),
		"FormaPago", inv.PaymentForm,
		"MetodoPago", inv.PaymentMethod,
	)

	var gross, discount decimal.Decimal
	for _, c := range inv.Concepts {
		gross = gross.Add(c.Quantity.Mul(c.UnitPrice))
		discount = discount.Add(c.Discount)
	}
	totals := cfdi.CalculateTotals(inv.Concepts).Rounded()
	setAttrs(root, "SubTotal", money(gross))
	if discount.IsPositive() {
		setAttrs(root, "Descuento", money(discount))
	}
	setAttrs(root, "Moneda", inv.Currency)
	if inv.Currency != sat.MonedaNacional {
		setAttrs(root, "TipoCambio", inv.ExchangeRate.StringFixed(6))
	}
	setAttrs(root,
		"Total", money(totals.Total),
		"TipoDeComprobante", "I",
		"Exportacion", exportacionNo,
		"LugarExpedicion", company.PostalCode,
	)

	if inv.RelationType != "" && len(inv.RelatedUUIDs) > 0 {
		rel := root.CreateElement("cfdi:CfdiRelacionados")
		rel.CreateAttr("TipoRelacion", inv.RelationType)
		for _, u := range inv.RelatedUUIDs {
			rel.CreateElement("cfdi:CfdiRelacionado").CreateAttr("UUID", u)
		}
	}
	writeParties(root, company, client, inv.CFDIUse)

	summary := newTaxSummary()
	conceptos := root.CreateElement("cfdi:Conceptos")
	for _, c := range inv.Concepts {
		writeConcept(conceptos, c, summary)
	}
	summary.write(root, "cfdi:", "")

	return serialize(doc)
}

// BuildPayment CFDI 4.0 tipo P con complemento Pagos 2.0. related son las facturas de los
// documentos relacionados, indexadas por id.
func (b *Builder) BuildPayment(company *entity.Company, client *entity.Client, p *entity.Payment, related map[string]*entity.Invoice) ([]byte, error) {
	if company == nil || client == nil || p == nil {
		return nil, fmt.Errorf("cfdixml: faltan emisor, receptor o pago")
	}
	if len(p.Documents) == 0 {
		return nil, fmt.Errorf("cfdixml: el pago no tiene documentos relacionados")
	}

	doc, root := newComprobante(xsdCFDI + " " + xsdPagos)
	root.CreateAttr("xmlns:pago20", NsPagos)
	setAttrs(root,
		"Version", "4.0",
		"Serie", p.Series,
		"Folio", p.Folio,
		"Fecha", p.PaymentDate.Format(fechaLayout),
		"SubTotal", "0",
		"Moneda", monedaPago,
		"Total", "0",
		"TipoDeComprobante", "P",
		"Exportacion", exportacionNo,
		"LugarExpedicion", company.PostalCode,
	)
	writeParties(root, company, client, usoCFDIPagos)

	concepto := root.CreateElement("cfdi:Conceptos").CreateElement("cfdi:Concepto")
	setAttrs(concepto,
		"ClaveProdServ", claveProdPago,
		"Cantidad", "1",
		"ClaveUnidad", claveUnidadPago,
		"Descripcion", "Pago",
		"ValorUnitario", "0",
		"Importe", "0",
		"ObjetoImp", objetoImpNo,
	)

	pagos := root.CreateElement("cfdi:Complemento").CreateElement("pago20:Pagos")
	pagos.CreateAttr("Version", "2.0")
	totales := pagos.CreateElement("pago20:Totales")

	rate := p.ExchangeRate
	if p.Currency == sat.MonedaNacional || !rate.IsPositive() {
		rate = decimal.NewFromInt(1)
	}
	pago := pagos.CreateElement("pago20:Pago")
	setAttrs(pago, "FechaPago", p.PaymentDate.Format(fechaLayout), "FormaDePagoP", p.PaymentForm, "MonedaP", p.Currency)
	if p.Currency == sat.MonedaNacional {
		setAttrs(pago, "TipoCambioP", "1")
	} else {
		setAttrs(pago, "TipoCambioP", rate.StringFixed(6))
	}
	setAttrs(pago, "Monto", money(p.Amount))

	paymentTaxes := newTaxSummary()
	for _, d := range p.Documents {
		inv, ok := related[d.InvoiceID]
		if !ok || inv == nil {
			return nil, fmt.Errorf("cfdixml: falta la factura %s del documento relacionado", d.InvoiceID)
		}
		if inv.FiscalUUID == "" {
			return nil, fmt.Errorf("cfdixml: la factura %s no está timbrada", d.InvoiceID)
		}
		writeRelatedDocument(pago, p, inv, d, paymentTaxes)
	}
	paymentTaxes.write(pago, "pago20:", "P")

	montoMXN := p.Amount.Mul(rate)
	setAttrs(totales, "MontoTotalPagos", money(montoMXN))
	paymentTaxes.writeTotals(totales, rate)

	return serialize(doc)
}

func newComprobante(schemaLocation string) (*etree.Document, *etree.Element) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	root := doc.CreateElement("cfdi:Comprobante")
	root.CreateAttr("xmlns:cfdi", NsCFDI)
	root.CreateAttr("xmlns:xsi", nsXsi)
	root.CreateAttr("xsi:schemaLocation", schemaLocation)
	return doc, root
}

func writeParties(root *etree.Element, company *entity.Company, client *entity.Client, use string) {
	emisor := root.CreateElement("cfdi:Emisor")
	setAttrs(emisor, "Rfc", company.RFC, "Nombre", strings.ToUpper(company.Name), "RegimenFiscal", company.FiscalRegime)

	receptor := root.CreateElement("cfdi:Receptor")
	setAttrs(receptor,
		"Rfc", client.RFC,
		"Nombre", strings.ToUpper(client.Name),
		"DomicilioFiscalReceptor", client.PostalCode,
		"RegimenFiscalReceptor", client.FiscalRegime,
		"UsoCFDI", use,
	)
}

func writeConcept(parent *etree.Element, c entity.InvoiceConcept, summary *taxSummary) {
	a := cfdi.CalculateConcept(c)
	el := parent.CreateElement("cfdi:Concepto")
	setAttrs(el,
		"ClaveProdServ", c.ProductCode,
		"Cantidad", c.Quantity.String(),
		"ClaveUnidad", c.UnitCode,
		"Descripcion", c.Description,
		"ValorUnitario", c.UnitPrice.StringFixed(6),
		"Importe", money(c.Quantity.Mul(c.UnitPrice)),
	)
	if c.Discount.IsPositive() {
		setAttrs(el, "Descuento", money(c.Discount))
	}
	setAttrs(el, "ObjetoImp", objetoImpSi)

	imp := el.CreateElement("cfdi:Impuestos")
	tras := imp.CreateElement("cfdi:Traslados").CreateElement("cfdi:Traslado")
	setAttrs(tras,
		"Base", amount6(a.Base),
		"Impuesto", impuestoIVA,
		"TipoFactor", tipoFactorTasa,
		"TasaOCuota", c.IVARate.StringFixed(6),
		"Importe", amount6(a.IVATrasladado),
	)
	summary.addTransfer(c.IVARate, a.Base, a.IVATrasladado)

	if a.IVARetenido.IsPositive() || a.ISRRetenido.IsPositive() {
		rets := imp.CreateElement("cfdi:Retenciones")
		if a.IVARetenido.IsPositive() {
			writeRetention(rets, "cfdi:Retencion", "", a.Base, impuestoIVA, c.IVARetRate, a.IVARetenido)
			summary.addRetention(impuestoIVA, a.Base, c.IVARetRate, a.IVARetenido)
		}
		if a.ISRRetenido.IsPositive() {
			writeRetention(rets, "cfdi:Retencion", "", a.Base, impuestoISR, c.ISRRetRate, a.ISRRetenido)
			summary.addRetention(impuestoISR, a.Base, c.ISRRetRate, a.ISRRetenido)
		}
	}
}

// writeRetention suffix es "" en conceptos y "DR" en documentos relacionados.
func writeRetention(parent *etree.Element, tag, suffix string, base decimal.Decimal, impuesto string, rate, amt decimal.Decimal) {
	el := parent.CreateElement(tag)
	setAttrs(el,
		"Base"+suffix, amount6(base),
		"Impuesto"+suffix, impuesto,
		"TipoFactor"+suffix, tipoFactorTasa,
		"TasaOCuota"+suffix, rate.StringFixed(6),
		"Importe"+suffix, amount6(amt),
	)
}

// writeRelatedDocument DoctoRelacionado con impuestos proporcionales al importe pagado.
func writeRelatedDocument(pago *etree.Element, p *entity.Payment, inv *entity.Invoice, d entity.PaymentDocument, paymentTaxes *taxSummary) {
	equivalence := decimal.NewFromInt(1)
	if inv.Currency != p.Currency && inv.ExchangeRate.IsPositive() {
		equivalence = p.ExchangeRate.Div(inv.ExchangeRate).Round(6)
	}
	dr := pago.CreateElement("pago20:DoctoRelacionado")
	setAttrs(dr, "IdDocumento", inv.FiscalUUID, "Serie", inv.Series, "Folio", inv.Folio, "MonedaDR", inv.Currency)
	if equivalence.Equal(decimal.NewFromInt(1)) {
		setAttrs(dr, "EquivalenciaDR", "1")
	} else {
		setAttrs(dr, "EquivalenciaDR", equivalence.StringFixed(6))
	}
	setAttrs(dr,
		"NumParcialidad", fmt.Sprintf("%d", d.Installment),
		"ImpSaldoAnt", money(d.PriorBalance),
		"ImpPagado", money(d.Amount),
		"ImpSaldoInsoluto", money(d.ResultingBalance),
		"ObjetoImpDR", objetoImpSi,
	)

	total := cfdi.CalculateTotals(inv.Concepts).Total
	if !total.IsPositive() {
		return
	}
	factor := d.Amount.Div(total)
	docTaxes := newTaxSummary()
	for _, c := range inv.Concepts {
		a := cfdi.CalculateConcept(c)
		base := a.Base.Mul(factor)
		docTaxes.addTransfer(c.IVARate, base, a.IVATrasladado.Mul(factor))
		if a.IVARetenido.IsPositive() {
			docTaxes.addRetention(impuestoIVA, base, c.IVARetRate, a.IVARetenido.Mul(factor))
		}
		if a.ISRRetenido.IsPositive() {
			docTaxes.addRetention(impuestoISR, base, c.ISRRetRate, a.ISRRetenido.Mul(factor))
		}
	}
	docTaxes.writeDR(dr)
	paymentTaxes.merge(docTaxes, equivalence)
}

func serialize(doc *etree.Document) ([]byte, error) {
	doc.Indent(2)
	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("cfdixml: serializar: %w", err)
	}
	return buf.Bytes(), nil
}

// setAttrs agrega pares nombre/valor omitiendo los valores vacíos (el SAT rechaza atributos vacíos).
func setAttrs(el *etree.Element, kv ...string) {
	for i := 0; i+1 < len(kv); i += 2 {
		if kv[i+1] == "" {
			continue
		}
		el.CreateAttr(kv[i], kv[i+1])
	}
}

func money(d decimal.Decimal) string { return d.Round(2).StringFixed(2) }

func amount6(d decimal.Decimal) string { return d.Round(6).StringFixed(6) }

// ── Resumen de impuestos ──────────────────────────────────────────────────────

type taxLine struct {
	impuesto string
	rate     decimal.Decimal
	base     decimal.Decimal
	amount   decimal.Decimal
}

// taxSummary acumula impuestos por (impuesto, tasa) para el nodo Impuestos del comprobante o del pago.
type taxSummary struct {
	transfers  map[string]*taxLine
	retentions map[string]*taxLine
}

func newTaxSummary() *taxSummary {
	return &taxSummary{transfers: map[string]*taxLine{}, retentions: map[string]*taxLine{}}
}

func (s *taxSummary) addTransfer(rate, base, amt decimal.Decimal) {
	add(s.transfers, impuestoIVA, rate, base, amt)
}

func (s *taxSummary) addRetention(impuesto string, base, rate, amt decimal.Decimal) {
	add(s.retentions, impuesto, rate, base, amt)
}

func add(m map[string]*taxLine, impuesto string, rate, base, amt decimal.Decimal) {
	key := impuesto + "|" + rate.StringFixed(6)
	l, ok := m[key]
	if !ok {
		l = &taxLine{impuesto: impuesto, rate: rate}
		m[key] = l
	}
	l.base = l.base.Add(base)
	l.amount = l.amount.Add(amt)
}

// merge suma otro resumen convirtiendo a la moneda del pago con la equivalencia del documento.
func (s *taxSummary) merge(o *taxSummary, equivalence decimal.Decimal) {
	for _, l := range sorted(o.transfers) {
		add(s.transfers, l.impuesto, l.rate, l.base.Div(equivalence), l.amount.Div(equivalence))
	}
	for _, l := range sorted(o.retentions) {
		add(s.retentions, l.impuesto, l.rate, l.base.Div(equivalence), l.amount.Div(equivalence))
	}
}

func sorted(m map[string]*taxLine) []*taxLine {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]*taxLine, 0, len(keys))
	for _, k := range keys {
		out = append(out, m[k])
	}
	return out
}

// write nodo Impuestos del comprobante (prefix "cfdi:", suffix "") o del pago (prefix "pago20:", suffix "P").
// Las retenciones del comprobante se agrupan solo por impuesto.
func (s *taxSummary) write(parent *etree.Element, prefix, suffix string) {
	if len(s.transfers) == 0 && len(s.retentions) == 0 {
		return
	}
	imp := parent.CreateElement(prefix + "Impuestos" + suffix)
	var totalRet, totalTras decimal.Decimal
	byTax := map[string]decimal.Decimal{}
	for _, l := range sorted(s.retentions) {
		byTax[l.impuesto] = byTax[l.impuesto].Add(l.amount)
		totalRet = totalRet.Add(l.amount)
	}
	for _, l := range sorted(s.transfers) {
		totalTras = totalTras.Add(l.amount)
	}
	if suffix == "" {
		if len(s.retentions) > 0 {
			imp.CreateAttr("TotalImpuestosRetenidos", money(totalRet))
		}
		imp.CreateAttr("TotalImpuestosTrasladados", money(totalTras))
	}
	if len(byTax) > 0 {
		rets := imp.CreateElement(prefix + "Retenciones" + suffix)
		for _, tax := range []string{impuestoISR, impuestoIVA} {
			amt, ok := byTax[tax]
			if !ok {
				continue
			}
			r := rets.CreateElement(prefix + "Retencion" + suffix)
			setAttrs(r, "Impuesto"+suffix, tax, "Importe"+suffix, money(amt))
		}
	}
	if len(s.transfers) > 0 {
		tras := imp.CreateElement(prefix + "Traslados" + suffix)
		for _, l := range sorted(s.transfers) {
			t := tras.CreateElement(prefix + "Traslado" + suffix)
			setAttrs(t,
				"Base"+suffix, money(l.base),
				"Impuesto"+suffix, l.impuesto,
				"TipoFactor"+suffix, tipoFactorTasa,
				"TasaOCuota"+suffix, l.rate.StringFixed(6),
				"Importe"+suffix, money(l.amount),
			)
		}
	}
}

// writeDR nodo ImpuestosDR de un documento relacionado (importes a 6 decimales).
func (s *taxSummary) writeDR(dr *etree.Element) {
	imp := dr.CreateElement("pago20:ImpuestosDR")
	if len(s.retentions) > 0 {
		rets := imp.CreateElement("pago20:RetencionesDR")
		for _, l := range sorted(s.retentions) {
			writeRetention(rets, "pago20:RetencionDR", "DR", l.base, l.impuesto, l.rate, l.amount)
		}
	}
	tras := imp.CreateElement("pago20:TrasladosDR")
	for _, l := range sorted(s.transfers) {
		t := tras.CreateElement("pago20:TrasladoDR")
		setAttrs(t,
			"BaseDR", amount6(l.base),
			"ImpuestoDR", l.impuesto,
			"TipoFactorDR", tipoFactorTasa,
			"TasaOCuotaDR", l.rate.StringFixed(6),
			"ImporteDR", amount6(l.amount),
		)
	}
}

// writeTotals atributos del nodo Totales en moneda nacional.
func (s *taxSummary) writeTotals(totales *etree.Element, rate decimal.Decimal) {
	for _, l := range sorted(s.retentions) {
		name := "TotalRetencionesIVA"
		if l.impuesto == impuestoISR {
			name = "TotalRetencionesISR"
		}
		if attr := totales.SelectAttr(name); attr != nil {
			prev := decimal.RequireFromString(attr.Value)
			attr.Value = money(prev.Add(l.amount.Mul(rate)))
			continue
		}
		totales.CreateAttr(name, money(l.amount.Mul(rate)))
	}
	for _, l := range sorted(s.transfers) {
		var suffix string
		switch {
		case l.rate.Equal(sat.TasaIVA16):
			suffix = "IVA16"
		case l.rate.Equal(sat.TasaIVA8):
			suffix = "IVA8"
		default:
			suffix = "IVA0"
		}
		totales.CreateAttr("TotalTrasladosBase"+suffix, money(l.base.Mul(rate)))
		totales.CreateAttr("TotalTrasladosImpuesto"+suffix, money(l.amount.Mul(rate)))
	}
}
