package consent

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

const formCols = `id, patient_id, title, body, status, signer_name, signed_at,
	created_at, updated_at`

func scanForm(row pgx.Row) (*Form, error) {
	var f Form
	err := row.Scan(&f.ID, &f.PatientID, &f.Title, &f.Body, &f.Status,
		&f.SignerName, &f.SignedAt, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *repoPG) Create(ctx context.Context, f *Form) error {
	f.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO consent_forms
			(id, patient_id, title, body, status, signer_name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())`,
		f.ID, f.PatientID, f.Title, f.Body, f.Status, f.SignerName)
	if err != nil {
		return fmt.Errorf("inserting consent form: %w", err)
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Form, error) {
	row := r.conn(ctx).QueryRow(ctx,
		`SELECT `+formCols+` FROM consent_forms WHERE id = $1`, id)
	f, err := scanForm(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("consent form not found")
		}
		return nil, err
	}
	return f, nil
}

func (r *repoPG) Update(ctx context.Context, f *Form) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE consent_forms
		SET status = $2, signer_name = $3, signed_at = $4, updated_at = NOW()
		WHERE id = $1`,
		f.ID, f.Status, f.SignerName, f.SignedAt)
	if err != nil {
		return fmt.Errorf("updating consent form: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("consent form not found")
	}
	return nil
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Form, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM consent_forms WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+formCols+` FROM consent_forms
		WHERE patient_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*Form
	for rows.Next() {
		f, err := scanForm(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, f)
	}
	return out, total, rows.Err()
}

func (r *repoPG) HasSigned(ctx context.Context, patientID uuid.UUID) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM consent_forms WHERE patient_id = $1 AND status = $2
		)`, patientID, StatusSigned).Scan(&exists)
	return exists, err
}
