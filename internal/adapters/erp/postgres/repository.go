package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"suritec/ms_facturasend_connector/internal/core/document"
)

// Repository implements the document.Store interface over the ERP schema in
// PostgreSQL. The ERP owns these tables; only the facturasend_* annotation
// columns are written here.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL ERP repository.
func NewRepository(pool *pgxpool.Pool) document.Store {
	return &Repository{pool: pool}
}

const documentColumns = `
	name, customer, COALESCE(customer_name, ''), owner, posting_date,
	grand_total, currency, COALESCE(mode_of_payment, ''), is_return, is_debit_note,
	COALESCE(facturasend_descripcion, ''), COALESCE(facturasend_observacion, ''),
	COALESCE(facturasend_tipo_emision, ''), COALESCE(facturasend_tipo_transaccion, ''),
	COALESCE(facturasend_tipo_impuesto, ''), COALESCE(facturasend_presencia, ''),
	COALESCE(facturasend_entrega_tipo, ''),
	COALESCE(facturasend_cdc, ''), COALESCE(facturasend_estado, ''),
	COALESCE(facturasend_mensaje_estado, ''), COALESCE(facturasend_lote_id, ''),
	facturasend_fecha_envio, facturasend_reintentos`

// GetDocument loads one submitted sales document with its lines and payment
// schedule.
func (r *Repository) GetDocument(ctx context.Context, name string) (*document.SalesDocument, error) {
	query := `SELECT` + documentColumns + `
		FROM sales_invoice
		WHERE name = $1 AND docstatus = 1`

	row := r.pool.QueryRow(ctx, query, name)
	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("documento %s: %w", name, document.ErrNotFound)
		}
		return nil, fmt.Errorf("consultando documento %s: %w", name, err)
	}

	if err := r.loadItems(ctx, doc); err != nil {
		return nil, err
	}
	if err := r.loadPaymentSchedule(ctx, doc); err != nil {
		return nil, err
	}

	return doc, nil
}

// ListPending returns submitted documents not yet sent (or reset) that match
// the query filters, oldest first.
func (r *Repository) ListPending(ctx context.Context, q document.PendingQuery) ([]document.SalesDocument, error) {
	query := `SELECT` + documentColumns + `
		FROM sales_invoice
		WHERE docstatus = 1
		  AND (facturasend_estado IS NULL OR facturasend_estado = '' OR facturasend_estado = $1)`
	args := []any{string(document.StatusPendiente)}

	switch q.Tipo {
	case document.TypeFactura:
		query += ` AND is_return = FALSE AND is_debit_note = FALSE`
	case document.TypeNotaCredito:
		query += ` AND is_return = TRUE AND is_debit_note = FALSE`
	case document.TypeNotaDebito:
		query += ` AND is_debit_note = TRUE`
	}
	if q.Desde != nil {
		args = append(args, *q.Desde)
		query += fmt.Sprintf(` AND posting_date >= $%d`, len(args))
	}
	if q.Hasta != nil {
		args = append(args, *q.Hasta)
		query += fmt.Sprintf(` AND posting_date <= $%d`, len(args))
	}
	query += ` ORDER BY posting_date, name`

	return r.listDocuments(ctx, query, args...)
}

// ListSent returns up to limit documents awaiting a final status, oldest
// submission first.
func (r *Repository) ListSent(ctx context.Context, limit int) ([]document.SalesDocument, error) {
	query := `SELECT` + documentColumns + `
		FROM sales_invoice
		WHERE docstatus = 1
		  AND facturasend_estado = $1
		  AND facturasend_cdc IS NOT NULL AND facturasend_cdc <> ''
		ORDER BY facturasend_fecha_envio NULLS FIRST, name
		LIMIT $2`

	return r.listDocuments(ctx, query, string(document.StatusEnviado), limit)
}

func (r *Repository) listDocuments(ctx context.Context, query string, args ...any) ([]document.SalesDocument, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listando documentos: %w", err)
	}
	defer rows.Close()

	var docs []document.SalesDocument
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("leyendo documento: %w", err)
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listando documentos: %w", err)
	}
	return docs, nil
}

func (r *Repository) loadItems(ctx context.Context, doc *document.SalesDocument) error {
	rows, err := r.pool.Query(ctx, `
		SELECT item_code, COALESCE(item_name, ''), COALESCE(description, ''), qty, rate
		FROM sales_invoice_item
		WHERE parent = $1
		ORDER BY idx`, doc.Name)
	if err != nil {
		return fmt.Errorf("consultando items de %s: %w", doc.Name, err)
	}
	defer rows.Close()

	for rows.Next() {
		var line document.LineItem
		if err := rows.Scan(&line.ItemCode, &line.ItemName, &line.Description, &line.Qty, &line.Rate); err != nil {
			return fmt.Errorf("leyendo item de %s: %w", doc.Name, err)
		}
		doc.Items = append(doc.Items, line)
	}
	return rows.Err()
}

func (r *Repository) loadPaymentSchedule(ctx context.Context, doc *document.SalesDocument) error {
	rows, err := r.pool.Query(ctx, `
		SELECT due_date, payment_amount
		FROM payment_schedule
		WHERE parent = $1
		ORDER BY idx`, doc.Name)
	if err != nil {
		return fmt.Errorf("consultando plan de pagos de %s: %w", doc.Name, err)
	}
	defer rows.Close()

	for rows.Next() {
		var inst document.Installment
		if err := rows.Scan(&inst.DueDate, &inst.Amount); err != nil {
			return fmt.Errorf("leyendo cuota de %s: %w", doc.Name, err)
		}
		doc.PaymentSchedule = append(doc.PaymentSchedule, inst)
	}
	return rows.Err()
}

// GetCustomer loads the ERP customer referenced by a document.
func (r *Repository) GetCustomer(ctx context.Context, name string) (*document.Customer, error) {
	var c document.Customer
	err := r.pool.QueryRow(ctx, `
		SELECT name, COALESCE(customer_name, ''), contribuyente,
		       COALESCE(nombre_fantasia, ''), COALESCE(tipo_operacion, ''),
		       COALESCE(pais, ''), COALESCE(pais_desc, ''), COALESCE(tipo_contribuyente, ''),
		       COALESCE(documento_tipo, ''), COALESCE(documento_numero, ''), COALESCE(ruc, ''),
		       COALESCE(telefono, ''), COALESCE(celular, ''), COALESCE(email_id, ''),
		       COALESCE(direccion, ''), COALESCE(numero_casa, ''),
		       COALESCE(departamento, ''), COALESCE(departamento_desc, ''),
		       COALESCE(distrito, ''), COALESCE(distrito_desc, ''),
		       COALESCE(ciudad, ''), COALESCE(ciudad_desc, '')
		FROM customer
		WHERE name = $1`, name,
	).Scan(
		&c.Name, &c.CustomerName, &c.Contribuyente,
		&c.NombreFantasia, &c.TipoOperacion,
		&c.Pais, &c.PaisDesc, &c.TipoContrib,
		&c.DocumentoTipo, &c.DocumentoNum, &c.RUC,
		&c.Telefono, &c.Celular, &c.Email,
		&c.Direccion, &c.NumeroCasa,
		&c.Departamento, &c.DepartamentoDesc,
		&c.Distrito, &c.DistritoDesc,
		&c.Ciudad, &c.CiudadDesc,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("cliente %s: %w", name, document.ErrNotFound)
		}
		return nil, fmt.Errorf("consultando cliente %s: %w", name, err)
	}
	return &c, nil
}

// GetUser loads the ERP user referenced as a document's owner. Like the
// other lookups it reports a missing row as document.ErrNotFound.
func (r *Repository) GetUser(ctx context.Context, name string) (*document.User, error) {
	var u document.User
	err := r.pool.QueryRow(ctx, `
		SELECT name, COALESCE(full_name, ''), COALESCE(documento_tipo, ''),
		       COALESCE(documento_numero, ''), COALESCE(cargo, '')
		FROM erp_user
		WHERE name = $1`, name,
	).Scan(&u.Name, &u.FullName, &u.DocumentoTipo, &u.DocumentoNum, &u.Cargo)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("usuario %s: %w", name, document.ErrNotFound)
		}
		return nil, fmt.Errorf("consultando usuario %s: %w", name, err)
	}
	return &u, nil
}

// GetItem loads the catalog record behind a document line, including its
// barcodes in declaration order.
func (r *Repository) GetItem(ctx context.Context, code string) (*document.Item, error) {
	var it document.Item
	err := r.pool.QueryRow(ctx, `
		SELECT item_code, COALESCE(ncm, ''), COALESCE(unidad_medida, '')
		FROM item
		WHERE item_code = $1`, code,
	).Scan(&it.Code, &it.NCM, &it.UnidadMedida)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("item %s: %w", code, document.ErrNotFound)
		}
		return nil, fmt.Errorf("consultando item %s: %w", code, err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT barcode
		FROM item_barcode
		WHERE parent = $1
		ORDER BY idx`, code)
	if err != nil {
		return nil, fmt.Errorf("consultando códigos de barra de %s: %w", code, err)
	}
	defer rows.Close()

	for rows.Next() {
		var barcode string
		if err := rows.Scan(&barcode); err != nil {
			return nil, fmt.Errorf("leyendo código de barra de %s: %w", code, err)
		}
		it.Barcodes = append(it.Barcodes, barcode)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("consultando códigos de barra de %s: %w", code, err)
	}

	return &it, nil
}

// UpdateAnnotations mutates the facturasend_* columns of one document inside
// a transaction guarded by an advisory lock keyed on the document name, so
// concurrent submissions and status checks serialize per document.
func (r *Repository) UpdateAnnotations(ctx context.Context, name string, ann document.Annotations) error {
	sets := make([]string, 0, 6)
	args := []any{name}

	appendSet := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if ann.CDC != nil {
		appendSet("facturasend_cdc", *ann.CDC)
	}
	if ann.Estado != nil {
		appendSet("facturasend_estado", string(*ann.Estado))
	}
	if ann.MensajeEstado != nil {
		appendSet("facturasend_mensaje_estado", *ann.MensajeEstado)
	}
	if ann.LoteID != nil {
		appendSet("facturasend_lote_id", *ann.LoteID)
	}
	if ann.FechaEnvio != nil {
		appendSet("facturasend_fecha_envio", *ann.FechaEnvio)
	}
	if ann.Reintentos != nil {
		appendSet("facturasend_reintentos", *ann.Reintentos)
	}
	if len(sets) == 0 {
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("iniciando transacción para %s: %w", name, err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, name); err != nil {
		return fmt.Errorf("bloqueando documento %s: %w", name, err)
	}

	query := fmt.Sprintf(`UPDATE sales_invoice SET %s WHERE name = $1`, strings.Join(sets, ", "))
	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("actualizando documento %s: %w", name, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("documento %s: %w", name, document.ErrNotFound)
	}

	return tx.Commit(ctx)
}

func scanDocument(row pgx.Row) (*document.SalesDocument, error) {
	var (
		doc    document.SalesDocument
		estado string
	)
	err := row.Scan(
		&doc.Name, &doc.Customer, &doc.CustomerName, &doc.Owner, &doc.PostingDate,
		&doc.GrandTotal, &doc.Currency, &doc.PaymentMode, &doc.IsReturn, &doc.IsDebitNote,
		&doc.Descripcion, &doc.Observacion,
		&doc.TipoEmision, &doc.TipoTransaccion,
		&doc.TipoImpuesto, &doc.Presencia, &doc.EntregaTipo,
		&doc.CDC, &estado,
		&doc.MensajeEstado, &doc.LoteID,
		&doc.FechaEnvio, &doc.Reintentos,
	)
	if err != nil {
		return nil, err
	}
	if estado == "" {
		doc.Estado = document.StatusPendiente
	} else {
		doc.Estado = document.Status(estado)
	}
	return &doc, nil
}
