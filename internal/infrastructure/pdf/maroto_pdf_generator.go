// Package pdf implementa la representación impresa del CFDI 4.0 (Anexo 20).
//
// Layout de la página carta:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Emisor + RFC + Régimen │ Serie-Folio + Fecha        │
//	│  ─────────────────────────────────────────────────────────  │
//	│  RECEPTOR: Nombre + RFC + CP + Régimen + Uso CFDI           │
//	│  COMPROBANTE: Moneda / Método / Forma de pago               │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Clave | Cant | Unidad | Descripción | P.Unit | Importe│
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES: Subtotal / IVA / Retenciones / TOTAL              │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TIMBRE: QR verificación SAT + folio fiscal + sellos         │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"fmt"
	"strings"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Facturacion-api/internal/application/billing"
	"github.com/jhoicas/Facturacion-api/internal/domain/cfdi"
	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
	"github.com/jhoicas/Facturacion-api/internal/infrastructure/cfdixml"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorWhite   = &props.Color{Red: 255, Green: 255, Blue: 255}
)

// ── Generator ─────────────────────────────────────────────────────────────────

var _ billing.PDFGenerator = (*MarotoPDFGenerator)(nil)

// MarotoPDFGenerator implementa billing.PDFGenerator usando Maroto v2.
type MarotoPDFGenerator struct{}

// NewMarotoPDFGenerator construye el generador.
func NewMarotoPDFGenerator() *MarotoPDFGenerator { return &MarotoPDFGenerator{} }

// GenerateInvoicePDF genera el PDF de una factura timbrada. Los datos del timbre (sellos, QR)
// se leen del XML timbrado; sin él solo se imprime el folio fiscal.
func (g *MarotoPDFGenerator) GenerateInvoicePDF(company *entity.Company, client *entity.Client, inv *entity.Invoice) ([]byte, error) {
	if company == nil || client == nil || inv == nil {
		return nil, fmt.Errorf("pdf: faltan emisor, receptor o factura")
	}
	var stamp *cfdixml.Stamp
	if inv.StampedXML != "" {
		s, err := cfdixml.ReadStamp([]byte(inv.StampedXML))
		if err != nil {
			return nil, fmt.Errorf("pdf: %w", err)
		}
		stamp = s
	}

	cfg := config.NewBuilder().
		WithPageSize(pagesize.Letter).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("CFDI "+documentNumber(inv), true).
		WithAuthor(company.Name, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(inv, company))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(receptorRow(client, inv))
	m.AddRows(comprobanteRow(inv))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	m.AddRows(tableDetailRows(inv.Concepts)...)

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(inv))

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(stampRows(inv, stamp)...)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: emisor (izq) y serie-folio + fecha (der).
func headerRow(inv *entity.Invoice, company *entity.Company) core.Row {
	return row.New(20).Add(
		col.New(7).Add(
			text.New(company.Name, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("RFC: "+company.RFC+"   |   Régimen fiscal: "+company.FiscalRegime, props.Text{
				Size: 8, Top: 9, Color: colorGray,
			}),
			text.New("Lugar de expedición: "+company.PostalCode, props.Text{
				Size: 8, Top: 14, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New("FACTURA (CFDI DE INGRESO)", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right,
				Color: colorPrimary, Top: 1,
			}),
			text.New(documentNumber(inv), props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 7,
			}),
			text.New("Fecha: "+inv.IssueDate.Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 14, Color: colorGray,
			}),
		),
	)
}

// receptorRow: datos fiscales del receptor (CFDI 4.0 exige nombre, CP y régimen).
func receptorRow(client *entity.Client, inv *entity.Invoice) core.Row {
	return row.New(16).Add(
		col.New(12).Add(
			text.New("RECEPTOR", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(client.Name, props.Text{
				Style: fontstyle.Bold, Size: 10, Top: 6,
			}),
			text.New(fmt.Sprintf("RFC: %s   |   CP: %s   |   Régimen: %s   |   Uso CFDI: %s",
				client.RFC, client.PostalCode, client.FiscalRegime, inv.CFDIUse,
			), props.Text{Size: 8, Top: 12, Color: colorGray}),
		),
	)
}

func comprobanteRow(inv *entity.Invoice) core.Row {
	currency := inv.Currency
	if !inv.ExchangeRate.Equal(decimal.NewFromInt(1)) && inv.ExchangeRate.IsPositive() {
		currency += " (TC " + inv.ExchangeRate.StringFixed(4) + ")"
	}
	return row.New(8).Add(
		col.New(12).Add(
			text.New(fmt.Sprintf("Moneda: %s   |   Método de pago: %s   |   Forma de pago: %s",
				currency, inv.PaymentMethod, inv.PaymentForm,
			), props.Text{Size: 8, Top: 2, Color: colorGray}),
		),
	)
}

// tableHeaderRow: cabecera de la tabla de conceptos.
func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorWhite, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Clave", 2, align.Left),
		h("Cant.", 1, align.Center),
		h("Unidad", 1, align.Center),
		h("Descripción", 4, align.Left),
		h("P. Unit.", 2, align.Right),
		h("Importe", 2, align.Right),
	).WithStyle(&props.Cell{BackgroundColor: colorPrimary})
}

// tableDetailRows: una fila por concepto. El importe mostrado es la base (después de descuento).
func tableDetailRows(concepts []entity.InvoiceConcept) []core.Row {
	result := make([]core.Row, 0, len(concepts))
	for _, c := range concepts {
		a := cfdi.CalculateConcept(c)
		result = append(result, row.New(7).Add(
			col.New(2).Add(text.New(c.ProductCode, props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(1).Add(text.New(c.Quantity.String(), props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(1).Add(text.New(c.UnitCode, props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(4).Add(text.New(c.Description, props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(2).Add(text.New("$"+formatMoney(c.UnitPrice), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(2).Add(text.New("$"+formatMoney(a.Base), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
		))
	}
	return result
}

// totalsRow: bloque de totales alineado a la derecha.
func totalsRow(inv *entity.Invoice) core.Row {
	t := cfdi.CalculateTotals(inv.Concepts).Rounded()
	label := func(s string) core.Component {
		return text.New(s, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2})
	}
	value := func(s string, top float64) core.Component {
		return text.New(s, props.Text{Size: 9, Align: align.Right, Right: 1, Top: top})
	}
	return row.New(26).Add(
		col.New(6),
		col.New(3).Add(
			label("Subtotal:"),
			text.New("IVA trasladado:", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2, Top: 5}),
			text.New("Retenciones:", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2, Top: 10}),
			text.New("TOTAL:", props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Right, Right: 2, Top: 16, Color: colorPrimary}),
		),
		col.New(3).Add(
			value("$"+formatMoney(t.Subtotal), 0),
			value("$"+formatMoney(t.Traslados), 5),
			value("-$"+formatMoney(t.Retenciones), 10),
			text.New("$"+formatMoney(t.Total)+" "+inv.Currency, props.Text{
				Style: fontstyle.Bold, Size: 10, Align: align.Right, Right: 1, Top: 16, Color: colorPrimary,
			}),
		),
	)
}

// stampRows: QR de verificación + folio fiscal + sellos partidos.
func stampRows(inv *entity.Invoice, stamp *cfdixml.Stamp) []core.Row {
	rows := []core.Row{
		row.New(6).Add(col.New(12).Add(
			text.New("TIMBRE FISCAL DIGITAL", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
		)),
	}

	info := []string{"Folio fiscal: " + inv.FiscalUUID}
	if inv.StampedAt != nil {
		info = append(info, "Fecha de certificación: "+inv.StampedAt.Format("2006-01-02T15:04:05"))
	}
	if stamp == nil {
		rows = append(rows, row.New(12).Add(col.New(12).Add(infoLines(info, 0)...)))
		return append(rows, legendRow())
	}
	info = append(info,
		"RFC proveedor de certificación: "+stamp.ProviderRFC,
		"No. certificado SAT: "+stamp.SATCertificateNo,
	)

	rows = append(rows, row.New(40).Add(
		col.New(3).Add(code.NewQr(stamp.VerificationURL(), props.Rect{
			Percent: 95,
			Center:  true,
		})),
		col.New(9).Add(infoLines(info, 3)...),
	))
	rows = append(rows, sealRows("Sello digital del CFDI:", stamp.Seal)...)
	rows = append(rows, sealRows("Sello del SAT:", stamp.SATSeal)...)
	return append(rows, legendRow())
}

// infoLines un texto por renglón; maroto no respeta saltos de línea.
func infoLines(lines []string, left float64) []core.Component {
	out := make([]core.Component, 0, len(lines))
	for i, l := range lines {
		out = append(out, text.New(l, props.Text{Size: 8, Top: 2 + float64(i)*4, Left: left}))
	}
	return out
}

func sealRows(title, seal string) []core.Row {
	if seal == "" {
		return nil
	}
	rows := []core.Row{row.New(5).Add(col.New(12).Add(
		text.New(title, props.Text{Style: fontstyle.Bold, Size: 7, Top: 1}),
	))}
	for _, chunk := range splitEvery(seal, 110) {
		rows = append(rows, row.New(4).Add(col.New(12).Add(
			text.New(chunk, props.Text{Size: 6, Color: colorGray, Top: 0.5, Left: 2}),
		)))
	}
	return rows
}

func legendRow() core.Row {
	return row.New(8).Add(col.New(12).Add(
		text.New("Este documento es una representación impresa de un CFDI.", props.Text{
			Size: 7, Color: colorGray, Top: 2, Align: align.Center,
		}),
	))
}

// ── helpers ───────────────────────────────────────────────────────────────────

func documentNumber(inv *entity.Invoice) string {
	n := strings.Trim(inv.Series+"-"+inv.Folio, "-")
	if n == "" {
		return inv.FiscalUUID
	}
	return n
}

// formatMoney a 2 decimales con comas de miles. Ej: 1234567.5 → "1,234,567.50"
func formatMoney(d decimal.Decimal) string {
	s := d.Round(2).StringFixed(2)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, _ := strings.Cut(s, ".")
	n := len(intPart)
	if n <= 3 {
		return sign + intPart + "." + frac
	}
	buf := make([]byte, 0, n+n/3)
	for i, c := range []byte(intPart) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, ',')
		}
		buf = append(buf, c)
	}
	return sign + string(buf) + "." + frac
}

// splitEvery divide s en trozos de max n caracteres.
func splitEvery(s string, n int) []string {
	var parts []string
	for len(s) > n {
		parts = append(parts, s[:n])
		s = s[n:]
	}
	if s != "" {
		parts = append(parts, s)
	}
	return parts
}
