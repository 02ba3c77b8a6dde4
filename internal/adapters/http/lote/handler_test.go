package lote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"suritec/ms_facturasend_connector/internal/application/poller"
	"suritec/ms_facturasend_connector/internal/application/submitter"
	"suritec/ms_facturasend_connector/internal/core/batchlog"
	"suritec/ms_facturasend_connector/internal/core/de"
	"suritec/ms_facturasend_connector/internal/core/document"
	"suritec/ms_facturasend_connector/internal/testutil"
)

type mockService struct {
	SubmitBatchFunc      func(ctx context.Context, names []string) (*submitter.Result, error)
	PendingDocumentsFunc func(ctx context.Context, q document.PendingQuery) ([]document.SalesDocument, error)
	ResetErrorFunc       func(ctx context.Context, name string) error
	DownloadKUDEFunc     func(ctx context.Context, names []string) ([]byte, error)
	BatchLogFunc         func(ctx context.Context, loteID string) (*batchlog.Entry, error)
}

func (m *mockService) SubmitBatch(ctx context.Context, names []string) (*submitter.Result, error) {
	if m.SubmitBatchFunc != nil {
		return m.SubmitBatchFunc(ctx, names)
	}
	return &submitter.Result{Success: true}, nil
}

func (m *mockService) PendingDocuments(ctx context.Context, q document.PendingQuery) ([]document.SalesDocument, error) {
	if m.PendingDocumentsFunc != nil {
		return m.PendingDocumentsFunc(ctx, q)
	}
	return nil, nil
}

func (m *mockService) ResetError(ctx context.Context, name string) error {
	if m.ResetErrorFunc != nil {
		return m.ResetErrorFunc(ctx, name)
	}
	return nil
}

func (m *mockService) DownloadKUDE(ctx context.Context, names []string) ([]byte, error) {
	if m.DownloadKUDEFunc != nil {
		return m.DownloadKUDEFunc(ctx, names)
	}
	return nil, nil
}

func (m *mockService) BatchLog(ctx context.Context, loteID string) (*batchlog.Entry, error) {
	if m.BatchLogFunc != nil {
		return m.BatchLogFunc(ctx, loteID)
	}
	return nil, batchlog.ErrNotFound
}

type mockRunner struct {
	RunOnceFunc func(ctx context.Context) (poller.Stats, error)
}

func (m *mockRunner) RunOnce(ctx context.Context) (poller.Stats, error) {
	if m.RunOnceFunc != nil {
		return m.RunOnceFunc(ctx)
	}
	return poller.Stats{}, nil
}

func testRouter(service Service, runner StatusRunner) chi.Router {
	handler := NewHandler(service, runner, testutil.NewNullLogger())
	return NewRouter(RouterOptions{Handler: handler})
}

func postJSON(t *testing.T, router http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSubmitBatchEndpoint(t *testing.T) {
	var gotNames []string
	service := &mockService{
		SubmitBatchFunc: func(_ context.Context, names []string) (*submitter.Result, error) {
			gotNames = names
			return &submitter.Result{Success: true, LoteID: "4567", LogID: 1}, nil
		},
	}
	router := testRouter(service, &mockRunner{})

	w := postJSON(t, router, "/api/v1/lote", map[string]any{
		"documentos": []string{"FC-001-001-0000001"},
	})

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", w.Code, w.Body.String())
	}
	if len(gotNames) != 1 || gotNames[0] != "FC-001-001-0000001" {
		t.Errorf("names = %v, want the posted document", gotNames)
	}

	var result submitter.Result
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result.LoteID != "4567" {
		t.Errorf("LoteID = %q, want 4567", result.LoteID)
	}
}

func TestSubmitBatchEndpointErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{
			name:       "error de validacion",
			err:        &submitter.ValidationError{Reason: "todos los documentos deben ser del mismo tipo"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "error del proveedor",
			err:        &de.APIError{Operation: "lote/create", Message: "rechazado"},
			wantStatus: http.StatusBadGateway,
		},
		{
			name:       "error de transporte",
			err:        &de.TransportError{Operation: "lote/create", Err: errors.New("timeout")},
			wantStatus: http.StatusBadGateway,
		},
		{
			name:       "documento inexistente",
			err:        document.ErrNotFound,
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "error interno",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := &mockService{
				SubmitBatchFunc: func(_ context.Context, _ []string) (*submitter.Result, error) {
					return nil, tt.err
				},
			}
			router := testRouter(service, &mockRunner{})

			w := postJSON(t, router, "/api/v1/lote", map[string]any{"documentos": []string{"FC-1"}})
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestSubmitBatchEndpointUnprocessable(t *testing.T) {
	service := &mockService{
		SubmitBatchFunc: func(_ context.Context, _ []string) (*submitter.Result, error) {
			return &submitter.Result{Success: false, Error: "no hay documentos válidos para enviar"}, nil
		},
	}
	router := testRouter(service, &mockRunner{})

	w := postJSON(t, router, "/api/v1/lote", map[string]any{"documentos": []string{"FC-1"}})
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422 for an unsuccessful result", w.Code)
	}
}

func TestSubmitBatchEndpointRejectsInvalidJSON(t *testing.T) {
	router := testRouter(&mockService{}, &mockRunner{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/lote", bytes.NewReader([]byte("{not json")))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestPendingDocumentsEndpoint(t *testing.T) {
	var gotQuery document.PendingQuery
	service := &mockService{
		PendingDocumentsFunc: func(_ context.Context, q document.PendingQuery) ([]document.SalesDocument, error) {
			gotQuery = q
			return []document.SalesDocument{
				{
					Name:        "FC-001-001-0000001",
					Customer:    "CUST-00001",
					PostingDate: time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
					GrandTotal:  decimal.NewFromInt(150000),
					Currency:    "PYG",
					Estado:      document.StatusPendiente,
				},
			}, nil
		},
	}
	router := testRouter(service, &mockRunner{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/documentos/pendientes?tipo=FC&desde=2026-03-01&hasta=2026-03-31", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", w.Code, w.Body.String())
	}
	if gotQuery.Tipo != document.TypeFactura {
		t.Errorf("tipo = %v, want FC", gotQuery.Tipo)
	}
	if gotQuery.Desde == nil || gotQuery.Desde.Format("2006-01-02") != "2026-03-01" {
		t.Errorf("desde = %v, want 2026-03-01", gotQuery.Desde)
	}
	if gotQuery.Hasta == nil || gotQuery.Hasta.Format("2006-01-02") != "2026-03-31" {
		t.Errorf("hasta = %v, want 2026-03-31", gotQuery.Hasta)
	}

	var body struct {
		Documentos []pendingDocument `json:"documentos"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(body.Documentos) != 1 {
		t.Fatalf("documentos = %d, want 1", len(body.Documentos))
	}
	if body.Documentos[0].Tipo != "FC" || body.Documentos[0].Total != "150000" {
		t.Errorf("documento = %+v, want FC with total 150000", body.Documentos[0])
	}
}

func TestPendingDocumentsEndpointValidation(t *testing.T) {
	router := testRouter(&mockService{}, &mockRunner{})

	tests := []struct {
		name string
		path string
	}{
		{name: "tipo invalido", path: "/api/v1/documentos/pendientes?tipo=XX"},
		{name: "fecha invalida", path: "/api/v1/documentos/pendientes?desde=15-03-2026"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
		})
	}
}

func TestResetErrorEndpoint(t *testing.T) {
	var gotName string
	service := &mockService{
		ResetErrorFunc: func(_ context.Context, name string) error {
			gotName = name
			return nil
		},
	}
	router := testRouter(service, &mockRunner{})

	w := postJSON(t, router, "/api/v1/documentos/FC-001-001-0000001/reset", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", w.Code, w.Body.String())
	}
	if gotName != "FC-001-001-0000001" {
		t.Errorf("name = %q, want the URL parameter", gotName)
	}
}

func TestDownloadKUDEEndpoint(t *testing.T) {
	service := &mockService{
		DownloadKUDEFunc: func(_ context.Context, names []string) ([]byte, error) {
			return []byte("%PDF-1.4"), nil
		},
	}
	router := testRouter(service, &mockRunner{})

	w := postJSON(t, router, "/api/v1/kude", map[string]any{"documentos": []string{"FC-1"}})

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("Content-Type = %q, want application/pdf", ct)
	}
	if w.Body.String() != "%PDF-1.4" {
		t.Errorf("body = %q, want the PDF bytes", w.Body.String())
	}
}

func TestBatchLogEndpoint(t *testing.T) {
	service := &mockService{
		BatchLogFunc: func(_ context.Context, loteID string) (*batchlog.Entry, error) {
			if loteID != "4567" {
				t.Errorf("loteID = %q, want 4567", loteID)
			}
			return &batchlog.Entry{
				ID:            1,
				LoteID:        "4567",
				TipoDocumento: document.TypeFactura,
				Cantidad:      1,
				Estado:        string(document.StatusEnviado),
				Documentos: []batchlog.DocumentOutcome{
					{DocumentName: "FC-001-001-0000001", CDC: "CDC-A", Estado: document.StatusEnviado},
				},
			}, nil
		},
	}
	router := testRouter(service, &mockRunner{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/lotes/4567", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", w.Code, w.Body.String())
	}

	var body map[string]any
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body["lote_id"] != "4567" {
		t.Errorf("lote_id = %v, want 4567", body["lote_id"])
	}
}

func TestBatchLogEndpointNotFound(t *testing.T) {
	router := testRouter(&mockService{}, &mockRunner{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/lotes/999", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestRunStatusCheckEndpoint(t *testing.T) {
	runner := &mockRunner{
		RunOnceFunc: func(_ context.Context) (poller.Stats, error) {
			return poller.Stats{Checked: 3, Approved: 2, Unchanged: 1}, nil
		},
	}
	router := testRouter(&mockService{}, runner)

	w := postJSON(t, router, "/admin/estados/run", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var stats poller.Stats
	if err := json.NewDecoder(w.Body).Decode(&stats); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if stats.Checked != 3 || stats.Approved != 2 {
		t.Errorf("stats = %+v, want the poller result", stats)
	}
}

func TestHealthEndpoint(t *testing.T) {
	router := testRouter(&mockService{}, &mockRunner{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}
