package lote

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"suritec/ms_facturasend_connector/internal/infrastructure/http/middleware"
)

// RouterOptions groups the dependencies of the HTTP surface.
type RouterOptions struct {
	Handler *Handler
	Auth    *middleware.JWTAuthenticator
	Logging func(http.Handler) http.Handler
}

// NewRouter mounts the batch API routes on a chi router.
func NewRouter(opts RouterOptions) chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	if opts.Logging != nil {
		r.Use(opts.Logging)
	}
	if opts.Auth != nil {
		r.Use(opts.Auth.Middleware)
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/lote", opts.Handler.SubmitBatch)
		r.Get("/documentos/pendientes", opts.Handler.PendingDocuments)
		r.Post("/documentos/{name}/reset", opts.Handler.ResetError)
		r.Post("/kude", opts.Handler.DownloadKUDE)
		r.Get("/lotes/{loteID}", opts.Handler.BatchLog)
	})

	r.Post("/admin/estados/run", opts.Handler.RunStatusCheck)

	return r
}
