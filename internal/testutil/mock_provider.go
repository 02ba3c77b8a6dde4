package testutil

import (
	"context"

	"suritec/ms_facturasend_connector/internal/core/de"
)

// MockProvider is a mock implementation of de.Provider for testing.
type MockProvider struct {
	CreateLoteFunc  func(ctx context.Context, documents []de.DE) (*de.LoteResult, error)
	GetEstadoFunc   func(ctx context.Context, cdc string) (*de.EstadoResult, error)
	DownloadPDFFunc func(ctx context.Context, cdcList []string) ([]byte, error)
}

// CreateLote calls the mock function if set, otherwise returns an empty result.
func (m *MockProvider) CreateLote(ctx context.Context, documents []de.DE) (*de.LoteResult, error) {
	if m.CreateLoteFunc != nil {
		return m.CreateLoteFunc(ctx, documents)
	}
	return &de.LoteResult{}, nil
}

// GetEstado calls the mock function if set, otherwise returns an empty result.
func (m *MockProvider) GetEstado(ctx context.Context, cdc string) (*de.EstadoResult, error) {
	if m.GetEstadoFunc != nil {
		return m.GetEstadoFunc(ctx, cdc)
	}
	return &de.EstadoResult{}, nil
}

// DownloadPDF calls the mock function if set, otherwise returns nil.
func (m *MockProvider) DownloadPDF(ctx context.Context, cdcList []string) ([]byte, error) {
	if m.DownloadPDFFunc != nil {
		return m.DownloadPDFFunc(ctx, cdcList)
	}
	return nil, nil
}
