// Package facturasend implements the de.Provider port against the
// FacturaSend HTTP API.
package facturasend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"suritec/ms_facturasend_connector/internal/core/de"
	"suritec/ms_facturasend_connector/internal/core/tenant"
	ctxutil "suritec/ms_facturasend_connector/internal/infrastructure/context"
)

// HTTPClient abstracts the underlying HTTP client for testing.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is the FacturaSend API client. It performs no retries of its own;
// retry policy lives entirely in the submitter's counter.
type Client struct {
	baseURL    string
	tenantID   string
	apiKey     string
	httpClient HTTPClient
	log        *slog.Logger
}

// NewClient creates a FacturaSend client bound to one tenant.
func NewClient(settings tenant.Settings, httpClient HTTPClient, log *slog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(settings.BaseURL, "/"),
		tenantID:   settings.TenantID,
		apiKey:     settings.APIKey,
		httpClient: httpClient,
		log:        log,
	}
}

var _ de.Provider = (*Client)(nil)

type loteCreateResponse struct {
	Success bool           `json:"success"`
	Result  *de.LoteResult `json:"result"`
	Error   string         `json:"error"`
	Errores []de.ItemError `json:"errores"`
}

// CreateLote submits one batch of documents.
func (c *Client) CreateLote(ctx context.Context, docs []de.DE) (*de.LoteResult, error) {
	const operation = "lote/create"

	body, err := c.post(ctx, operation, "/lote/create", docs)
	if err != nil {
		return nil, err
	}

	var resp loteCreateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &de.TransportError{Operation: operation, Err: fmt.Errorf("unmarshal response: %w", err)}
	}

	if !resp.Success {
		return nil, &de.APIError{
			Operation: operation,
			Message:   orUnknown(resp.Error),
			Errores:   resp.Errores,
		}
	}
	if resp.Result == nil {
		return nil, &de.APIError{Operation: operation, Message: "respuesta sin resultado"}
	}

	c.log.Debug("lote creado en facturasend",
		"lote_id", resp.Result.LoteID,
		"documentos", len(resp.Result.DEList),
	)

	return resp.Result, nil
}

type estadoResponse struct {
	Success           bool   `json:"success"`
	Estado            string `json:"estado"`
	Message           string `json:"message"`
	EstadoDescripcion string `json:"estadoDescripcion"`
	Error             string `json:"error"`
}

// GetEstado queries the current state of one electronic document.
func (c *Client) GetEstado(ctx context.Context, cdc string) (*de.EstadoResult, error) {
	const operation = "de/estado"

	body, err := c.post(ctx, operation, "/de/estado", map[string]string{"cdc": cdc})
	if err != nil {
		return nil, err
	}

	var resp estadoResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &de.TransportError{Operation: operation, Err: fmt.Errorf("unmarshal response: %w", err)}
	}

	if !resp.Success {
		return nil, &de.APIError{Operation: operation, Message: orUnknown(resp.Error)}
	}

	return &de.EstadoResult{
		Estado:            resp.Estado,
		Mensaje:           resp.Message,
		EstadoDescripcion: resp.EstadoDescripcion,
	}, nil
}

// DownloadPDF fetches the rendered KUDE for the given CDCs as raw PDF bytes.
func (c *Client) DownloadPDF(ctx context.Context, cdcs []string) ([]byte, error) {
	const operation = "de/pdf"
	return c.post(ctx, operation, "/de/pdf", map[string][]string{"cdcList": cdcs})
}

// post executes one JSON POST against the tenant-scoped API and returns the
// raw response body for 2xx answers. Transport failures and non-2xx
// responses come back as *de.TransportError with the body preserved.
func (c *Client) post(ctx context.Context, operation, path string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, &de.TransportError{Operation: operation, Err: fmt.Errorf("marshal request: %w", err)}
	}

	url := fmt.Sprintf("%s/%s%s", c.baseURL, c.tenantID, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return nil, &de.TransportError{Operation: operation, Err: fmt.Errorf("create request: %w", err)}
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	if id := ctxutil.GetCorrelationID(ctx); id != "" {
		req.Header.Set("X-Correlation-Id", id)
	}

	c.log.Debug("llamada a facturasend", "operation", operation, "url", url)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &de.TransportError{Operation: operation, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &de.TransportError{Operation: operation, Err: fmt.Errorf("read response body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &de.TransportError{
			Operation: operation,
			Status:    resp.StatusCode,
			Body:      string(body),
		}
	}

	return body, nil
}

func orUnknown(message string) string {
	if message == "" {
		return "error desconocido"
	}
	return message
}
