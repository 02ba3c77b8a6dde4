package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"suritec/ms_facturasend_connector/internal/core/batchlog"
	"suritec/ms_facturasend_connector/internal/core/document"
)

// Repository implements the batchlog.Repository interface using PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL batch log repository.
func NewRepository(pool *pgxpool.Pool) batchlog.Repository {
	return &Repository{pool: pool}
}

// Save persists a batch entry and its per-document outcomes in one
// transaction, returning the generated entry ID.
func (r *Repository) Save(ctx context.Context, entry batchlog.Entry) (int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("iniciando transacción de registro de lote: %w", err)
	}
	defer tx.Rollback(ctx)

	var id int64
	err = tx.QueryRow(ctx, `
		INSERT INTO facturasend_log (lote_id, fecha_envio, tipo_documento, cantidad, estado, mensaje)
		VALUES (NULLIF($1, ''), $2, $3, $4, $5, $6)
		RETURNING id`,
		entry.LoteID, entry.FechaEnvio, string(entry.TipoDocumento),
		entry.Cantidad, entry.Estado, entry.Mensaje,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insertando registro de lote: %w", err)
	}

	for _, outcome := range entry.Documentos {
		_, err := tx.Exec(ctx, `
			INSERT INTO facturasend_log_documento (log_id, document_name, cdc, estado, mensaje)
			VALUES ($1, $2, NULLIF($3, ''), $4, $5)`,
			id, outcome.DocumentName, outcome.CDC, string(outcome.Estado), outcome.Mensaje,
		)
		if err != nil {
			return 0, fmt.Errorf("insertando documento %s del lote: %w", outcome.DocumentName, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("confirmando registro de lote: %w", err)
	}
	return id, nil
}

// FindByLoteID retrieves the entry recorded for a FacturaSend lote, with its
// per-document outcomes.
func (r *Repository) FindByLoteID(ctx context.Context, loteID string) (*batchlog.Entry, error) {
	var (
		entry batchlog.Entry
		tipo  string
	)
	err := r.pool.QueryRow(ctx, `
		SELECT id, COALESCE(lote_id, ''), fecha_envio, tipo_documento, cantidad, estado, COALESCE(mensaje, '')
		FROM facturasend_log
		WHERE lote_id = $1
		ORDER BY id DESC
		LIMIT 1`, loteID,
	).Scan(&entry.ID, &entry.LoteID, &entry.FechaEnvio, &tipo, &entry.Cantidad, &entry.Estado, &entry.Mensaje)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("lote %s: %w", loteID, batchlog.ErrNotFound)
		}
		return nil, fmt.Errorf("consultando lote %s: %w", loteID, err)
	}
	entry.TipoDocumento = document.Type(tipo)

	rows, err := r.pool.Query(ctx, `
		SELECT document_name, COALESCE(cdc, ''), estado, COALESCE(mensaje, '')
		FROM facturasend_log_documento
		WHERE log_id = $1
		ORDER BY id`, entry.ID)
	if err != nil {
		return nil, fmt.Errorf("consultando documentos del lote %s: %w", loteID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			outcome batchlog.DocumentOutcome
			estado  string
		)
		if err := rows.Scan(&outcome.DocumentName, &outcome.CDC, &estado, &outcome.Mensaje); err != nil {
			return nil, fmt.Errorf("leyendo documento del lote %s: %w", loteID, err)
		}
		outcome.Estado = document.Status(estado)
		entry.Documentos = append(entry.Documentos, outcome)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("consultando documentos del lote %s: %w", loteID, err)
	}

	return &entry, nil
}
