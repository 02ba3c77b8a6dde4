package facturasend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"suritec/ms_facturasend_connector/internal/core/de"
	"suritec/ms_facturasend_connector/internal/core/tenant"
	ctxutil "suritec/ms_facturasend_connector/internal/infrastructure/context"
	"suritec/ms_facturasend_connector/internal/testutil"
)

func newTestClient(serverURL string) *Client {
	return NewClient(tenant.Settings{
		BaseURL:  serverURL,
		TenantID: "empresa-sa",
		APIKey:   "api_key_1234",
	}, http.DefaultClient, testutil.NewNullLogger())
}

func TestCreateLoteSuccess(t *testing.T) {
	var gotPath, gotAuth, gotCorrelation string
	var gotDocs []map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotCorrelation = r.Header.Get("X-Correlation-Id")
		if err := json.NewDecoder(r.Body).Decode(&gotDocs); err != nil {
			t.Errorf("request body is not a JSON array: %v", err)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"result": map[string]any{
				"loteId": 4567,
				"deList": []map[string]any{
					{"cdc": "0180012345..."},
				},
			},
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	ctx := ctxutil.WithCorrelationID(context.Background(), "req-123")

	result, err := client.CreateLote(ctx, []de.DE{{TipoDocumento: 1}})
	if err != nil {
		t.Fatalf("CreateLote() error = %v", err)
	}

	if gotPath != "/empresa-sa/lote/create" {
		t.Errorf("path = %q, want /empresa-sa/lote/create", gotPath)
	}
	if gotAuth != "Bearer api_key_1234" {
		t.Errorf("Authorization = %q, want Bearer token", gotAuth)
	}
	if gotCorrelation != "req-123" {
		t.Errorf("X-Correlation-Id = %q, want req-123", gotCorrelation)
	}
	if len(gotDocs) != 1 {
		t.Errorf("request carried %d documents, want 1", len(gotDocs))
	}
	if result.LoteID != 4567 {
		t.Errorf("LoteID = %d, want 4567", result.LoteID)
	}
	if len(result.DEList) != 1 || result.DEList[0].CDC == "" {
		t.Errorf("DEList = %+v, want one entry with CDC", result.DEList)
	}
}

func TestCreateLoteAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		// Application-level rejection still arrives under HTTP 200.
		json.NewEncoder(w).Encode(map[string]any{
			"success": false,
			"error":   "documentos inválidos",
			"errores": []map[string]any{
				{"index": 0, "error": "RUC inexistente"},
			},
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.CreateLote(context.Background(), []de.DE{{TipoDocumento: 1}})

	var apiErr *de.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *de.APIError", err)
	}
	if apiErr.Message != "documentos inválidos" {
		t.Errorf("Message = %q, want provider message verbatim", apiErr.Message)
	}
	if len(apiErr.Errores) != 1 || apiErr.Errores[0].Index != 0 {
		t.Errorf("Errores = %+v, want the per-document diagnostics", apiErr.Errores)
	}
}

func TestCreateLoteMissingResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"success": true})
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.CreateLote(context.Background(), []de.DE{{TipoDocumento: 1}})

	var apiErr *de.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *de.APIError", err)
	}
}

func TestCreateLoteTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.CreateLote(context.Background(), []de.DE{{TipoDocumento: 1}})

	var transport *de.TransportError
	if !errors.As(err, &transport) {
		t.Fatalf("error = %v, want *de.TransportError", err)
	}
	if transport.Status != http.StatusBadGateway {
		t.Errorf("Status = %d, want 502", transport.Status)
	}
	if transport.Body == "" {
		t.Error("Body is empty, want the raw response preserved")
	}
}

func TestGetEstado(t *testing.T) {
	var gotBody map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/empresa-sa/de/estado" {
			t.Errorf("path = %q, want /empresa-sa/de/estado", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&gotBody)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"success":           true,
			"estado":            "Aprobado",
			"message":           "Aprobado por SIFEN",
			"estadoDescripcion": "Aprobado",
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	estado, err := client.GetEstado(context.Background(), "CDC-123")
	if err != nil {
		t.Fatalf("GetEstado() error = %v", err)
	}
	if gotBody["cdc"] != "CDC-123" {
		t.Errorf("request cdc = %q, want CDC-123", gotBody["cdc"])
	}
	if estado.Estado != "Aprobado" || estado.Mensaje != "Aprobado por SIFEN" {
		t.Errorf("estado = %+v, want Aprobado with message", estado)
	}
}

func TestGetEstadoAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"success": false})
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.GetEstado(context.Background(), "CDC-123")

	var apiErr *de.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *de.APIError", err)
	}
	if apiErr.Message != "error desconocido" {
		t.Errorf("Message = %q, want fallback for empty provider error", apiErr.Message)
	}
}

func TestDownloadPDF(t *testing.T) {
	pdfBytes := []byte("%PDF-1.4 contenido")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/empresa-sa/de/pdf" {
			t.Errorf("path = %q, want /empresa-sa/de/pdf", r.URL.Path)
		}
		var body map[string][]string
		json.NewDecoder(r.Body).Decode(&body)
		if len(body["cdcList"]) != 2 {
			t.Errorf("cdcList = %v, want 2 entries", body["cdcList"])
		}

		w.Header().Set("Content-Type", "application/pdf")
		w.Write(pdfBytes)
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	pdf, err := client.DownloadPDF(context.Background(), []string{"CDC-1", "CDC-2"})
	if err != nil {
		t.Fatalf("DownloadPDF() error = %v", err)
	}
	if string(pdf) != string(pdfBytes) {
		t.Errorf("pdf = %q, want raw provider bytes", pdf)
	}
}

func TestBaseURLTrailingSlash(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"success": true, "estado": "Aprobado"})
	}))
	defer server.Close()

	client := newTestClient(server.URL + "/")

	if _, err := client.GetEstado(context.Background(), "CDC-1"); err != nil {
		t.Fatalf("GetEstado() error = %v", err)
	}
	if gotPath != "/empresa-sa/de/estado" {
		t.Errorf("path = %q, want no double slash", gotPath)
	}
}
