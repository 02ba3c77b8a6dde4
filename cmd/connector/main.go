package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	batchlogpg "suritec/ms_facturasend_connector/internal/adapters/batchlog/postgres"
	erppg "suritec/ms_facturasend_connector/internal/adapters/erp/postgres"
	"suritec/ms_facturasend_connector/internal/adapters/facturasend"
	lotehttp "suritec/ms_facturasend_connector/internal/adapters/http/lote"
	"suritec/ms_facturasend_connector/internal/adapters/notify"
	"suritec/ms_facturasend_connector/internal/application/doclock"
	"suritec/ms_facturasend_connector/internal/application/poller"
	"suritec/ms_facturasend_connector/internal/application/submitter"
	"suritec/ms_facturasend_connector/internal/infrastructure/config"
	"suritec/ms_facturasend_connector/internal/infrastructure/database"
	httpclient "suritec/ms_facturasend_connector/internal/infrastructure/http"
	"suritec/ms_facturasend_connector/internal/infrastructure/http/middleware"
	"suritec/ms_facturasend_connector/internal/infrastructure/http/server"
	"suritec/ms_facturasend_connector/internal/infrastructure/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "service stopped: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg.App.Name, cfg.Log.Level, cfg.App.Environment)
	settings := cfg.FacturaSend.Tenant()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := database.NewPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	log.Info("conexión a base de datos establecida", "database", cfg.Database.Database)

	if err := database.RunMigrations(ctx, pool, log); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	store := erppg.NewRepository(pool)
	logs := batchlogpg.NewRepository(pool)

	provider := facturasend.NewClient(settings, httpclient.NewClient(settings.APITimeout), log)

	var notifier submitter.Notifier
	if settings.NotifyOnError {
		notifier = notify.NewMailer(cfg.SMTP, settings.NotificationEmails, log)
	}

	// One lock set for both writers, so a submission never races a poll tick
	// over the same document.
	locks := doclock.New()

	service := submitter.NewService(store, provider, logs, notifier, settings, locks, log)

	statusPoller := poller.New(store, provider, settings, locks, log)
	go statusPoller.Start(ctx)

	auth, err := middleware.NewJWTAuthenticator(cfg.Auth, log)
	if err != nil {
		return fmt.Errorf("init auth: %w", err)
	}
	defer auth.Close()

	handler := lotehttp.NewHandler(service, statusPoller, log)
	router := lotehttp.NewRouter(lotehttp.RouterOptions{
		Handler: handler,
		Auth:    auth,
		Logging: middleware.RequestLogger(log),
	})

	srv, err := server.New(server.Options{
		Config:  cfg.HTTP,
		Logger:  log,
		Handler: router,
	})
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	return srv.Shutdown(context.Background())
}
