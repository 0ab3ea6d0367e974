package quote

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odonto/clinic/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const quoteCols = `id, patient_id, status, quote_date, notes, created_at, updated_at`

func scanQuote(row pgx.Row) (*Quote, error) {
	var q Quote
	err := row.Scan(&q.ID, &q.PatientID, &q.Status, &q.QuoteDate, &q.Notes,
		&q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *repoPG) Create(ctx context.Context, q *Quote) error {
	q.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO quotes (id, patient_id, status, quote_date, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())`,
		q.ID, q.PatientID, q.Status, q.QuoteDate, q.Notes)
	if err != nil {
		return fmt.Errorf("inserting quote: %w", err)
	}
	return r.insertItems(ctx, q)
}

func (r *repoPG) insertItems(ctx context.Context, q *Quote) error {
	for i := range q.Items {
		q.Items[i].ID = uuid.New()
		q.Items[i].QuoteID = q.ID
		_, err := r.conn(ctx).Exec(ctx, `
			INSERT INTO quote_items (id, quote_id, description, quantity, unit_price, total)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			q.Items[i].ID, q.ID, q.Items[i].Description, q.Items[i].Quantity,
			q.Items[i].UnitPrice, q.Items[i].Total)
		if err != nil {
			return fmt.Errorf("inserting quote item: %w", err)
		}
	}
	return nil
}

func (r *repoPG) loadItems(ctx context.Context, q *Quote) error {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, quote_id, description, quantity, unit_price, total
		FROM quote_items WHERE quote_id = $1 ORDER BY id`, q.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.QuoteID, &it.Description, &it.Quantity,
			&it.UnitPrice, &it.Total); err != nil {
			return err
		}
		q.Items = append(q.Items, it)
	}
	return rows.Err()
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Quote, error) {
	row := r.conn(ctx).QueryRow(ctx,
		`SELECT `+quoteCols+` FROM quotes WHERE id = $1`, id)
	q, err := scanQuote(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("quote not found")
		}
		return nil, err
	}
	if err := r.loadItems(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

func (r *repoPG) Update(ctx context.Context, q *Quote) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE quotes SET notes = $2, quote_date = $3, updated_at = NOW()
		WHERE id = $1`,
		q.ID, q.Notes, q.QuoteDate)
	if err != nil {
		return fmt.Errorf("updating quote: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("quote not found")
	}
	if _, err := r.conn(ctx).Exec(ctx,
		`DELETE FROM quote_items WHERE quote_id = $1`, q.ID); err != nil {
		return fmt.Errorf("replacing quote items: %w", err)
	}
	return r.insertItems(ctx, q)
}

func (r *repoPG) SetStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE quotes SET status = $2, updated_at = NOW() WHERE id = $1`,
		id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("quote not found")
	}
	return nil
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Quote, int, error) {
	return r.list(ctx, `WHERE patient_id = $1`, []interface{}{patientID}, limit, offset)
}

func (r *repoPG) List(ctx context.Context, status string, limit, offset int) ([]*Quote, int, error) {
	where := ``
	var args []interface{}
	if status != "" {
		where = `WHERE status = $1`
		args = append(args, status)
	}
	return r.list(ctx, where, args, limit, offset)
}

func (r *repoPG) list(ctx context.Context, where string, args []interface{}, limit, offset int) ([]*Quote, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM quotes `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	idx := len(args) + 1
	query := fmt.Sprintf(`SELECT %s FROM quotes %s ORDER BY quote_date DESC LIMIT $%d OFFSET $%d`,
		quoteCols, where, idx, idx+1)
	rows, err := r.conn(ctx).Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*Quote
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	for _, q := range out {
		if err := r.loadItems(ctx, q); err != nil {
			return nil, 0, err
		}
	}
	return out, total, nil
}
