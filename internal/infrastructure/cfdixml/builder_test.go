package cfdixml

import (
	"strings"
	"testing"
	"time"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
)

const invoiceUUID = "5FB2822E-396D-4725-8521-CDC4BDD20CCF"

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func company() *entity.Company {
	return &entity.Company{Name: "Esc Kemper Urgate", RFC: "EKU9003173C9", FiscalRegime: "601", PostalCode: "42501"}
}

func client() *entity.Client {
	return &entity.Client{Name: "Xochilt Casas Chavez", RFC: "CACX7605101P8", FiscalRegime: "612", PostalCode: "36257"}
}

func invoice() *entity.Invoice {
	return &entity.Invoice{
		Series:        "A",
		Folio:         "15",
		Currency:      "MXN",
		ExchangeRate:  decimal.NewFromInt(1),
		PaymentMethod: "PPD",
		PaymentForm:   "99",
		CFDIUse:       "G03",
		IssueDate:     time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC),
		Concepts: []entity.InvoiceConcept{
			{ProductCode: "84111506", UnitCode: "E48", Description: "Consultoría", Quantity: dec("2"), UnitPrice: dec("500"), Discount: dec("50"), IVARate: dec("0.16"), IVARetRate: dec("0.106667"), ISRRetRate: dec("0.10")},
			{ProductCode: "43211500", UnitCode: "H87", Description: "Equipo", Quantity: dec("1"), UnitPrice: dec("1000"), IVARate: dec("0.16")},
		},
	}
}

func parse(t *testing.T, xml []byte) *etree.Element {
	t.Helper()
	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(xml))
	root := doc.SelectElement("cfdi:Comprobante")
	require.NotNil(t, root)
	return root
}

func TestBuildInvoice(t *testing.T) {
	out, err := NewBuilder().BuildInvoice(company(), client(), invoice())
	require.NoError(t, err)
	root := parse(t, out)

	assert.Equal(t, "4.0", root.SelectAttrValue("Version", ""))
	assert.Equal(t, "I", root.SelectAttrValue("TipoDeComprobante", ""))
	assert.Equal(t, "2026-03-10T09:30:00", root.SelectAttrValue("Fecha", ""))
	assert.Equal(t, "2000.00", root.SelectAttrValue("SubTotal", ""))
	assert.Equal(t, "50.00", root.SelectAttrValue("Descuento", ""))
	assert.Nil(t, root.SelectAttr("TipoCambio"))
	// 1950 + 312 - 101.33 - 95
	assert.Equal(t, "2065.67", root.SelectAttrValue("Total", ""))
	assert.Equal(t, "42501", root.SelectAttrValue("LugarExpedicion", ""))

	receptor := root.SelectElement("cfdi:Receptor")
	require.NotNil(t, receptor)
	assert.Equal(t, "G03", receptor.SelectAttrValue("UsoCFDI", ""))
	assert.Equal(t, "XOCHILT CASAS CHAVEZ", receptor.SelectAttrValue("Nombre", ""))

	conceptos := root.FindElements("./cfdi:Conceptos/cfdi:Concepto")
	require.Len(t, conceptos, 2)
	assert.Equal(t, "1000.00", conceptos[0].SelectAttrValue("Importe", ""))
	tras := conceptos[0].FindElement("./cfdi:Impuestos/cfdi:Traslados/cfdi:Traslado")
	require.NotNil(t, tras)
	assert.Equal(t, "950.000000", tras.SelectAttrValue("Base", ""))
	assert.Equal(t, "152.000000", tras.SelectAttrValue("Importe", ""))
	assert.Len(t, conceptos[0].FindElements("./cfdi:Impuestos/cfdi:Retenciones/cfdi:Retencion"), 2)
	assert.Nil(t, conceptos[1].FindElement("./cfdi:Impuestos/cfdi:Retenciones"))

	imp := root.SelectElement("cfdi:Impuestos")
	require.NotNil(t, imp)
	assert.Equal(t, "312.00", imp.SelectAttrValue("TotalImpuestosTrasladados", ""))
	assert.Equal(t, "196.33", imp.SelectAttrValue("TotalImpuestosRetenidos", ""))
	rets := imp.FindElements("./cfdi:Retenciones/cfdi:Retencion")
	require.Len(t, rets, 2)
	assert.Equal(t, "001", rets[0].SelectAttrValue("Impuesto", ""))
	assert.Equal(t, "95.00", rets[0].SelectAttrValue("Importe", ""))
	assert.Equal(t, "101.33", rets[1].SelectAttrValue("Importe", ""))
	trasTotal := imp.FindElement("./cfdi:Traslados/cfdi:Traslado")
	require.NotNil(t, trasTotal)
	assert.Equal(t, "1950.00", trasTotal.SelectAttrValue("Base", ""))
}

func TestBuildInvoice_ForeignCurrencyAndRelations(t *testing.T) {
	inv := invoice()
	inv.Currency = "USD"
	inv.ExchangeRate = dec("17.25")
	inv.RelationType = "04"
	inv.RelatedUUIDs = []string{invoiceUUID}

	out, err := NewBuilder().BuildInvoice(company(), client(), inv)
	require.NoError(t, err)
	root := parse(t, out)

	assert.Equal(t, "USD", root.SelectAttrValue("Moneda", ""))
	assert.Equal(t, "17.250000", root.SelectAttrValue("TipoCambio", ""))
	rel := root.SelectElement("cfdi:CfdiRelacionados")
	require.NotNil(t, rel)
	assert.Equal(t, "04", rel.SelectAttrValue("TipoRelacion", ""))
	assert.Equal(t, invoiceUUID, rel.SelectElement("cfdi:CfdiRelacionado").SelectAttrValue("UUID", ""))
}

func TestBuildInvoice_Empty(t *testing.T) {
	inv := invoice()
	inv.Concepts = nil
	_, err := NewBuilder().BuildInvoice(company(), client(), inv)
	assert.Error(t, err)

	_, err = NewBuilder().BuildInvoice(nil, client(), invoice())
	assert.Error(t, err)
}

func TestBuildPayment(t *testing.T) {
	inv := &entity.Invoice{
		ID:         "inv-1",
		Series:     "A",
		Folio:      "15",
		Currency:   "MXN",
		FiscalUUID: invoiceUUID,
		Concepts: []entity.InvoiceConcept{
			{ProductCode: "84111506", UnitCode: "E48", Description: "Servicio", Quantity: dec("1"), UnitPrice: dec("1000"), IVARate: dec("0.16")},
		},
	}
	p := &entity.Payment{
		Series:       "P",
		Folio:        "3",
		PaymentDate:  time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC),
		Currency:     "MXN",
		ExchangeRate: decimal.NewFromInt(1),
		PaymentForm:  "03",
		Amount:       dec("580"),
		Documents: []entity.PaymentDocument{
			{InvoiceID: "inv-1", Amount: dec("580"), Installment: 1, PriorBalance: dec("1160"), ResultingBalance: dec("580")},
		},
	}

	out, err := NewBuilder().BuildPayment(company(), client(), p, map[string]*entity.Invoice{"inv-1": inv})
	require.NoError(t, err)
	root := parse(t, out)

	assert.Equal(t, "P", root.SelectAttrValue("TipoDeComprobante", ""))
	assert.Equal(t, "XXX", root.SelectAttrValue("Moneda", ""))
	assert.Equal(t, "0", root.SelectAttrValue("Total", ""))
	assert.Nil(t, root.SelectAttr("FormaPago"))
	assert.Equal(t, "CP01", root.SelectElement("cfdi:Receptor").SelectAttrValue("UsoCFDI", ""))

	pagos := root.FindElement("./cfdi:Complemento/pago20:Pagos")
	require.NotNil(t, pagos)
	totales := pagos.SelectElement("pago20:Totales")
	require.NotNil(t, totales)
	assert.Equal(t, "580.00", totales.SelectAttrValue("MontoTotalPagos", ""))
	assert.Equal(t, "500.00", totales.SelectAttrValue("TotalTrasladosBaseIVA16", ""))
	assert.Equal(t, "80.00", totales.SelectAttrValue("TotalTrasladosImpuestoIVA16", ""))

	pago := pagos.SelectElement("pago20:Pago")
	require.NotNil(t, pago)
	assert.Equal(t, "03", pago.SelectAttrValue("FormaDePagoP", ""))
	assert.Equal(t, "580.00", pago.SelectAttrValue("Monto", ""))

	dr := pago.SelectElement("pago20:DoctoRelacionado")
	require.NotNil(t, dr)
	assert.Equal(t, invoiceUUID, dr.SelectAttrValue("IdDocumento", ""))
	assert.Equal(t, "1", dr.SelectAttrValue("NumParcialidad", ""))
	assert.Equal(t, "1160.00", dr.SelectAttrValue("ImpSaldoAnt", ""))
	assert.Equal(t, "580.00", dr.SelectAttrValue("ImpSaldoInsoluto", ""))
	tdr := dr.FindElement("./pago20:ImpuestosDR/pago20:TrasladosDR/pago20:TrasladoDR")
	require.NotNil(t, tdr)
	assert.Equal(t, "500.000000", tdr.SelectAttrValue("BaseDR", ""))
	assert.Equal(t, "80.000000", tdr.SelectAttrValue("ImporteDR", ""))

	tp := pago.FindElement("./pago20:ImpuestosP/pago20:TrasladosP/pago20:TrasladoP")
	require.NotNil(t, tp)
	assert.Equal(t, "80.00", tp.SelectAttrValue("ImporteP", ""))
}

func TestBuildPayment_MissingInvoice(t *testing.T) {
	p := &entity.Payment{Documents: []entity.PaymentDocument{{InvoiceID: "x", Amount: dec("1")}}}
	_, err := NewBuilder().BuildPayment(company(), client(), p, nil)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "x"))
}

func TestReadStamp(t *testing.T) {
	xml := `<?xml version="1.0" encoding="UTF-8"?>
<cfdi:Comprobante xmlns:cfdi="http://www.sat.gob.mx/cfd/4" Version="4.0" Total="1160.00" Sello="AAAABBBBCCCCdddd1234abcd" NoCertificado="30001000000500003416">
  <cfdi:Emisor Rfc="EKU9003173C9"/>
  <cfdi:Receptor Rfc="CACX7605101P8"/>
  <cfdi:Complemento>
    <tfd:TimbreFiscalDigital xmlns:tfd="http://www.sat.gob.mx/TimbreFiscalDigital" Version="1.1" UUID="` + invoiceUUID + `" FechaTimbrado="2026-03-10T09:31:02" RfcProvCertif="SPR190613I52" SelloSAT="zzz" NoCertificadoSAT="30001000000500003456"/>
  </cfdi:Complemento>
</cfdi:Comprobante>`

	s, err := ReadStamp([]byte(xml))
	require.NoError(t, err)

	assert.Equal(t, invoiceUUID, s.UUID)
	assert.Equal(t, "EKU9003173C9", s.IssuerRFC)
	assert.Equal(t, "CACX7605101P8", s.ReceiverRFC)
	assert.Equal(t, "SPR190613I52", s.ProviderRFC)
	assert.Equal(t, time.Date(2026, 3, 10, 9, 31, 2, 0, time.UTC), s.StampedAt)

	u := s.VerificationURL()
	assert.True(t, strings.HasPrefix(u, verificationURL+"?"))
	assert.Contains(t, u, "id="+invoiceUUID)
	assert.Contains(t, u, "fe=1234abcd")
	assert.Contains(t, u, "tt=1160.00")

	_, err = ReadStamp([]byte(`<cfdi:Comprobante xmlns:cfdi="http://www.sat.gob.mx/cfd/4"/>`))
	assert.Error(t, err)
}
