package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	"suritec/ms_facturasend_connector/internal/infrastructure/config"
	httperrors "suritec/ms_facturasend_connector/internal/infrastructure/http"
)

const (
	jwksRefreshInterval = 6 * time.Hour
	jwksHTTPTimeout     = 10 * time.Second
)

// acceptedAlgs are the signing algorithms the ERP's identity provider issues.
var acceptedAlgs = []string{
	jwt.SigningMethodRS256.Alg(),
	jwt.SigningMethodRS384.Alg(),
	jwt.SigningMethodES256.Alg(),
}

// ContextKeyToken carries the verified token in the request context.
type ContextKeyToken struct{}

// JWTAuthenticator verifies bearer tokens against the issuer's JWK set.
// When auth is disabled in the configuration it is a no-op.
type JWTAuthenticator struct {
	cfg    config.AuthSettings
	log    *slog.Logger
	jwks   keyfunc.Keyfunc
	cancel context.CancelFunc
	bypass map[string]struct{}
}

func NewJWTAuthenticator(cfg config.AuthSettings, log *slog.Logger) (*JWTAuthenticator, error) {
	bypass := make(map[string]struct{}, len(cfg.BypassPaths))
	for _, path := range cfg.BypassPaths {
		if path != "" {
			bypass[path] = struct{}{}
		}
	}

	auth := &JWTAuthenticator{cfg: cfg, log: log, bypass: bypass}
	if !cfg.Enabled {
		return auth, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	jwks, err := keyfunc.NewDefaultOverrideCtx(ctx, []string{cfg.JWKSetURI}, keyfunc.Override{
		RefreshInterval: jwksRefreshInterval,
		HTTPTimeout:     jwksHTTPTimeout,
		RefreshErrorHandlerFunc: func(url string) func(context.Context, error) {
			return func(_ context.Context, err error) {
				log.Error("error refrescando el JWK set", "url", url, "error", err)
			}
		},
	})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("cargando JWK set: %w", err)
	}

	auth.jwks = jwks
	auth.cancel = cancel
	return auth, nil
}

// Middleware rejects requests without a valid bearer token. Paths in the
// bypass list pass through unauthenticated.
func (a *JWTAuthenticator) Middleware(next http.Handler) http.Handler {
	if !a.cfg.Enabled {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, skip := a.bypass[r.URL.Path]; skip {
			next.ServeHTTP(w, r)
			return
		}

		token, err := a.verify(r.Header.Get("Authorization"))
		if err != nil {
			a.log.Warn("autenticación rechazada", "path", r.URL.Path, "error", err)
			httperrors.WriteError(w, http.StatusUnauthorized, "Error de Autenticación",
				[]string{"Token ausente, inválido o expirado"}, a.log)
			return
		}

		ctx := context.WithValue(r.Context(), ContextKeyToken{}, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *JWTAuthenticator) verify(header string) (*jwt.Token, error) {
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(raw) == "" {
		return nil, errors.New("cabecera Authorization ausente o malformada")
	}

	token, err := jwt.Parse(strings.TrimSpace(raw), a.jwks.Keyfunc,
		jwt.WithIssuer(a.cfg.IssuerURI),
		jwt.WithLeeway(a.cfg.ClockSkew),
		jwt.WithValidMethods(acceptedAlgs),
	)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("token inválido")
	}
	return token, nil
}

// Close stops the background JWK set refresh.
func (a *JWTAuthenticator) Close() {
	if a.cancel != nil {
		a.cancel()
	}
}
