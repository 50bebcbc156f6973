package pac

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jhoicas/Facturacion-api/internal/application/billing"
	"github.com/jhoicas/Facturacion-api/internal/domain"
	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
	"github.com/jhoicas/Facturacion-api/pkg/logger"
)

// ── Configuración ─────────────────────────────────────────────────────────────

// Config datos de acceso al PAC.
type Config struct {
	BaseURL  string
	User     string
	Password string
	Timeout  time.Duration
}

const defaultTimeout = 30 * time.Second

// maxBody límite de lectura de respuestas (el XML timbrado rara vez pasa de unos cientos de KB).
const maxBody = 4 << 20

var _ billing.StampingService = (*Client)(nil)

// Client implementa billing.StampingService contra el API JSON del PAC.
// Usa net/http de la stdlib; no hay reintentos: un error de transporte se reporta tal cual.
type Client struct {
	base       string
	user       string
	password   string
	httpClient *http.Client
	log        *logger.Logger
}

// NewClient construye el cliente. Timeout 0 usa 30 s.
func NewClient(cfg Config, log *logger.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		base:       strings.TrimRight(cfg.BaseURL, "/"),
		user:       cfg.User,
		password:   cfg.Password,
		httpClient: &http.Client{Timeout: timeout},
		log:        log.Component("pac"),
	}
}

// ── Estructuras JSON ──────────────────────────────────────────────────────────

type stampBody struct {
	XML string `json:"xml"`
}

type stampResponse struct {
	UUID          string    `json:"uuid"`
	FechaTimbrado time.Time `json:"fecha_timbrado"`
	XMLTimbrado   string    `json:"xml_timbrado"`
}

type cancelBody struct {
	RFCEmisor        string `json:"rfc_emisor"`
	Motivo           string `json:"motivo"`
	FolioSustitucion string `json:"folio_sustitucion,omitempty"`
}

type statusResponse struct {
	Status string `json:"status"`
}

type errorResponse struct {
	Message string `json:"message"`
	Errors  []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"errors"`
}

// ── Operaciones ───────────────────────────────────────────────────────────────

// Stamp envía el CFDI sin timbrar y devuelve folio fiscal, fecha y XML timbrado.
func (c *Client) Stamp(ctx context.Context, req billing.StampRequest) (*billing.StampResult, error) {
	var out stampResponse
	if err := c.do(ctx, http.MethodPost, "/cfdi/stamp", stampBody{XML: string(req.XML)}, &out); err != nil {
		return nil, err
	}
	if out.UUID == "" {
		return nil, fmt.Errorf("%w: respuesta de timbrado sin uuid", domain.ErrRemoteUnavailable)
	}
	return &billing.StampResult{
		UUID:       strings.ToUpper(out.UUID),
		StampedAt:  out.FechaTimbrado,
		StampedXML: out.XMLTimbrado,
	}, nil
}

// Cancel solicita la cancelación; el estado devuelto se traduce sin suponer CANCELLED.
func (c *Client) Cancel(ctx context.Context, req billing.CancelRequest) (*billing.CancelResult, error) {
	body := cancelBody{
		RFCEmisor:        req.IssuerRFC,
		Motivo:           req.Reason,
		FolioSustitucion: req.SubstituteUUID,
	}
	var out statusResponse
	if err := c.do(ctx, http.MethodPost, "/cfdi/"+url.PathEscape(req.UUID)+"/cancel", body, &out); err != nil {
		return nil, err
	}
	return &billing.CancelResult{Status: c.mapStatus(req.UUID, out.Status)}, nil
}

// CancellationStatus estatus actual del CFDI ante el SAT.
func (c *Client) CancellationStatus(ctx context.Context, uuid string) (entity.FiscalStatus, error) {
	var out statusResponse
	if err := c.do(ctx, http.MethodGet, "/cfdi/"+url.PathEscape(uuid)+"/status", nil, &out); err != nil {
		return "", err
	}
	return c.mapStatus(uuid, out.Status), nil
}

// mapStatus traduce el estatus del PAC. Un valor desconocido se trata como cancelación en
// proceso: el documento sigue bloqueado y se puede volver a consultar.
func (c *Client) mapStatus(uuid, raw string) entity.FiscalStatus {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "cancelled", "cancelado":
		return entity.StatusCancelled
	case "cancellation_pending", "en_proceso", "pendiente", "en proceso":
		return entity.StatusCancellationPending
	case "issued", "vigente":
		return entity.StatusIssued
	}
	c.log.Warn().Str("uuid", uuid).Str("pac_status", raw).Msg("estatus del PAC desconocido; se registra como cancelación en proceso")
	return entity.StatusCancellationPending
}

// ── Transporte ────────────────────────────────────────────────────────────────

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("pac: serializar request: %w", err)
		}
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return fmt.Errorf("pac: crear request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.user != "" {
		req.SetBasicAuth(c.user, c.password)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: timeout o cancelación: %v", domain.ErrRemoteUnavailable, ctx.Err())
		}
		return fmt.Errorf("%w: %v", domain.ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return fmt.Errorf("%w: leer respuesta: %v", domain.ErrRemoteUnavailable, err)
	}
	c.log.Debug().Str("method", method).Str("path", path).Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).Msg("pac")

	switch {
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: HTTP %d", domain.ErrRemoteUnavailable, resp.StatusCode)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: credenciales del PAC rechazadas (HTTP %d)", domain.ErrRemoteUnavailable, resp.StatusCode)
	case resp.StatusCode >= 400:
		return parseRemoteError(resp.StatusCode, raw)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: respuesta inválida: %v", domain.ErrRemoteUnavailable, err)
	}
	return nil
}

// parseRemoteError convierte un 4xx en error por campo. Un cuerpo no JSON conserva el texto.
func parseRemoteError(status int, raw []byte) error {
	var er errorResponse
	if err := json.Unmarshal(raw, &er); err != nil {
		msg := strings.TrimSpace(string(raw))
		if msg == "" {
			msg = fmt.Sprintf("HTTP %d", status)
		}
		return &domain.RemoteValidationError{Message: msg}
	}
	re := &domain.RemoteValidationError{Message: er.Message, Fields: make(map[string]string, len(er.Errors))}
	for _, e := range er.Errors {
		field := e.Field
		if field == "" {
			field = "general"
		}
		if _, ok := re.Fields[field]; !ok {
			re.Fields[field] = e.Message
		}
	}
	return re
}
