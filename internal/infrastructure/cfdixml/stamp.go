package cfdixml

import (
	"fmt"
	"net/url"
	"time"

	"github.com/beevik/etree"
)

const verificationURL = "https://verificacfdi.facturaelectronica.sat.gob.mx/default.aspx"

// Stamp datos del timbre y del comprobante necesarios para la representación impresa.
type Stamp struct {
	UUID             string
	StampedAt        time.Time
	Seal             string // Sello del emisor (cfdi:Comprobante/@Sello)
	SATSeal          string // SelloSAT del timbre
	CertificateNo    string // NoCertificado del emisor
	SATCertificateNo string
	ProviderRFC      string // RfcProvCertif
	IssuerRFC        string
	ReceiverRFC      string
	Total            string
}

// ReadStamp extrae el TimbreFiscalDigital de un CFDI timbrado.
func ReadStamp(xml []byte) (*Stamp, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(xml); err != nil {
		return nil, fmt.Errorf("cfdixml: leer XML timbrado: %w", err)
	}
	root := doc.SelectElement("Comprobante")
	if root == nil {
		return nil, fmt.Errorf("cfdixml: no es un CFDI (falta Comprobante)")
	}
	tfd := root.FindElement("./Complemento/TimbreFiscalDigital")
	if tfd == nil {
		return nil, fmt.Errorf("cfdixml: el CFDI no tiene TimbreFiscalDigital")
	}
	s := &Stamp{
		UUID:             tfd.SelectAttrValue("UUID", ""),
		SATSeal:          tfd.SelectAttrValue("SelloSAT", ""),
		SATCertificateNo: tfd.SelectAttrValue("NoCertificadoSAT", ""),
		ProviderRFC:      tfd.SelectAttrValue("RfcProvCertif", ""),
		Seal:             root.SelectAttrValue("Sello", ""),
		CertificateNo:    root.SelectAttrValue("NoCertificado", ""),
		Total:            root.SelectAttrValue("Total", ""),
	}
	if e := root.SelectElement("Emisor"); e != nil {
		s.IssuerRFC = e.SelectAttrValue("Rfc", "")
	}
	if r := root.SelectElement("Receptor"); r != nil {
		s.ReceiverRFC = r.SelectAttrValue("Rfc", "")
	}
	if v := tfd.SelectAttrValue("FechaTimbrado", ""); v != "" {
		at, err := time.ParseInLocation(fechaLayout, v, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("cfdixml: FechaTimbrado inválida: %w", err)
		}
		s.StampedAt = at
	}
	if s.UUID == "" {
		return nil, fmt.Errorf("cfdixml: TimbreFiscalDigital sin UUID")
	}
	return s, nil
}

// VerificationURL liga de verificación del SAT que va en el código QR.
func (s *Stamp) VerificationURL() string {
	fe := s.Seal
	if len(fe) > 8 {
		fe = fe[len(fe)-8:]
	}
	q := url.Values{}
	q.Set("id", s.UUID)
	q.Set("re", s.IssuerRFC)
	q.Set("rr", s.ReceiverRFC)
	q.Set("tt", s.Total)
	q.Set("fe", fe)
	return verificationURL + "?" + q.Encode()
}
