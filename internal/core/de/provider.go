package de

import (
	"context"
	"fmt"
	"strings"
)

// LoteResult is the provider's answer to a successful batch creation.
type LoteResult struct {
	LoteID int64    `json:"loteId"`
	DEList []DEInfo `json:"deList"`
}

// DEInfo is the per-document slot of a batch response.
type DEInfo struct {
	CDC     string `json:"cdc"`
	Estado  string `json:"estado,omitempty"`
	Mensaje string `json:"mensaje,omitempty"`
}

// EstadoResult is the provider's answer to a single-document status query.
type EstadoResult struct {
	Estado            string `json:"estado"`
	Mensaje           string `json:"message"`
	EstadoDescripcion string `json:"estadoDescripcion"`
}

// Provider is the port to the FacturaSend remote API.
type Provider interface {
	// CreateLote submits up to 50 documents as one batch. Application-level
	// rejections (success=false under HTTP 200) are returned as *APIError.
	CreateLote(ctx context.Context, docs []DE) (*LoteResult, error)

	// GetEstado queries the current state of one electronic document by CDC.
	GetEstado(ctx context.Context, cdc string) (*EstadoResult, error)

	// DownloadPDF fetches the rendered KUDE for one or more CDCs.
	DownloadPDF(ctx context.Context, cdcs []string) ([]byte, error)
}

// ItemError is one per-document error of an application-level rejection.
type ItemError struct {
	Index int    `json:"index"`
	Error string `json:"error"`
}

// APIError is an application-level failure reported by the provider, possibly
// under HTTP 200. The provider's diagnostics are preserved verbatim.
type APIError struct {
	Operation string
	Message   string
	Errores   []ItemError
}

func (e *APIError) Error() string {
	if len(e.Errores) == 0 {
		return fmt.Sprintf("facturasend %s: %s", e.Operation, e.Message)
	}
	details := make([]string, 0, len(e.Errores))
	for _, ie := range e.Errores {
		details = append(details, fmt.Sprintf("[%d] %s", ie.Index, ie.Error))
	}
	return fmt.Sprintf("facturasend %s: %s (%s)", e.Operation, e.Message, strings.Join(details, "; "))
}

// TransportError is a network failure, timeout or non-2xx response from the
// provider. Body carries the raw response when one was received.
type TransportError struct {
	Operation string
	Status    int
	Body      string
	Err       error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("facturasend %s: %v", e.Operation, e.Err)
	}
	return fmt.Sprintf("facturasend %s: HTTP %d: %s", e.Operation, e.Status, e.Body)
}

func (e *TransportError) Unwrap() error { return e.Err }
