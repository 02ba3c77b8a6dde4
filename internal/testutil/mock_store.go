package testutil

import (
	"context"

	"suritec/ms_facturasend_connector/internal/core/document"
)

// MockStore is a mock implementation of document.Store for testing.
type MockStore struct {
	GetDocumentFunc       func(ctx context.Context, name string) (*document.SalesDocument, error)
	ListPendingFunc       func(ctx context.Context, q document.PendingQuery) ([]document.SalesDocument, error)
	ListSentFunc          func(ctx context.Context, limit int) ([]document.SalesDocument, error)
	GetCustomerFunc       func(ctx context.Context, name string) (*document.Customer, error)
	GetUserFunc           func(ctx context.Context, name string) (*document.User, error)
	GetItemFunc           func(ctx context.Context, code string) (*document.Item, error)
	UpdateAnnotationsFunc func(ctx context.Context, name string, ann document.Annotations) error
}

// GetDocument calls the mock function if set, otherwise returns nil.
func (m *MockStore) GetDocument(ctx context.Context, name string) (*document.SalesDocument, error) {
	if m.GetDocumentFunc != nil {
		return m.GetDocumentFunc(ctx, name)
	}
	return nil, nil
}

// ListPending calls the mock function if set, otherwise returns an empty slice.
func (m *MockStore) ListPending(ctx context.Context, q document.PendingQuery) ([]document.SalesDocument, error) {
	if m.ListPendingFunc != nil {
		return m.ListPendingFunc(ctx, q)
	}
	return []document.SalesDocument{}, nil
}

// ListSent calls the mock function if set, otherwise returns an empty slice.
func (m *MockStore) ListSent(ctx context.Context, limit int) ([]document.SalesDocument, error) {
	if m.ListSentFunc != nil {
		return m.ListSentFunc(ctx, limit)
	}
	return []document.SalesDocument{}, nil
}

// GetCustomer calls the mock function if set, otherwise returns nil.
func (m *MockStore) GetCustomer(ctx context.Context, name string) (*document.Customer, error) {
	if m.GetCustomerFunc != nil {
		return m.GetCustomerFunc(ctx, name)
	}
	return nil, nil
}

// GetUser calls the mock function if set, otherwise returns nil.
func (m *MockStore) GetUser(ctx context.Context, name string) (*document.User, error) {
	if m.GetUserFunc != nil {
		return m.GetUserFunc(ctx, name)
	}
	return nil, nil
}

// GetItem calls the mock function if set, otherwise returns nil.
func (m *MockStore) GetItem(ctx context.Context, code string) (*document.Item, error) {
	if m.GetItemFunc != nil {
		return m.GetItemFunc(ctx, code)
	}
	return nil, nil
}

// UpdateAnnotations calls the mock function if set, otherwise returns nil.
func (m *MockStore) UpdateAnnotations(ctx context.Context, name string, ann document.Annotations) error {
	if m.UpdateAnnotationsFunc != nil {
		return m.UpdateAnnotationsFunc(ctx, name, ann)
	}
	return nil
}
