package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odonto/clinic/internal/platform/db"
	"github.com/odonto/clinic/internal/platform/reporting"
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

const ctCols = `id, patient_id, treatment_date, currency, discount_amount,
	discount_percent, payment_status, notes, created_at, updated_at`

func scanCT(row pgx.Row) (*CompletedTreatment, error) {
	var ct CompletedTreatment
	err := row.Scan(&ct.ID, &ct.PatientID, &ct.TreatmentDate, &ct.Currency,
		&ct.DiscountAmount, &ct.DiscountPercent, &ct.PaymentStatus, &ct.Notes,
		&ct.CreatedAt, &ct.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &ct, nil
}

func (r *repoPG) Create(ctx context.Context, ct *CompletedTreatment) error {
	ct.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO completed_treatments
			(id, patient_id, treatment_date, currency, discount_amount,
			 discount_percent, payment_status, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())`,
		ct.ID, ct.PatientID, ct.TreatmentDate, ct.Currency, ct.DiscountAmount,
		ct.DiscountPercent, ct.PaymentStatus, ct.Notes)
	if err != nil {
		return fmt.Errorf("inserting completed treatment: %w", err)
	}
	for i := range ct.Items {
		ct.Items[i].ID = uuid.New()
		ct.Items[i].CompletedTreatmentID = ct.ID
		_, err := r.conn(ctx).Exec(ctx, `
			INSERT INTO completed_treatment_items
				(id, completed_treatment_id, description, quantity, unit_price, total)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			ct.Items[i].ID, ct.ID, ct.Items[i].Description, ct.Items[i].Quantity,
			ct.Items[i].UnitPrice, ct.Items[i].Total)
		if err != nil {
			return fmt.Errorf("inserting billing item: %w", err)
		}
	}
	return nil
}

func (r *repoPG) load(ctx context.Context, ct *CompletedTreatment) error {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, completed_treatment_id, description, quantity, unit_price, total
		FROM completed_treatment_items WHERE completed_treatment_id = $1 ORDER BY id`, ct.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.CompletedTreatmentID, &it.Description,
			&it.Quantity, &it.UnitPrice, &it.Total); err != nil {
			return err
		}
		ct.Items = append(ct.Items, it)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	prows, err := r.conn(ctx).Query(ctx, `
		SELECT id, completed_treatment_id, amount, method, paid_at, notes
		FROM payments WHERE completed_treatment_id = $1 ORDER BY paid_at`, ct.ID)
	if err != nil {
		return err
	}
	defer prows.Close()
	for prows.Next() {
		var p Payment
		if err := prows.Scan(&p.ID, &p.CompletedTreatmentID, &p.Amount,
			&p.Method, &p.PaidAt, &p.Notes); err != nil {
			return err
		}
		ct.Payments = append(ct.Payments, p)
	}
	return prows.Err()
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*CompletedTreatment, error) {
	row := r.conn(ctx).QueryRow(ctx,
		`SELECT `+ctCols+` FROM completed_treatments WHERE id = $1`, id)
	ct, err := scanCT(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("completed treatment not found")
		}
		return nil, err
	}
	if err := r.load(ctx, ct); err != nil {
		return nil, err
	}
	return ct, nil
}

func (r *repoPG) SetStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE completed_treatments SET payment_status = $2, updated_at = NOW()
		WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("completed treatment not found")
	}
	return nil
}

func (r *repoPG) AddPayment(ctx context.Context, p *Payment) error {
	p.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO payments (id, completed_treatment_id, amount, method, paid_at, notes)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		p.ID, p.CompletedTreatmentID, p.Amount, p.Method, p.PaidAt, p.Notes)
	if err != nil {
		return fmt.Errorf("inserting payment: %w", err)
	}
	return nil
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*CompletedTreatment, int, error) {
	return r.list(ctx, `WHERE patient_id = $1`, []interface{}{patientID}, limit, offset)
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*CompletedTreatment, int, error) {
	return r.list(ctx, ``, nil, limit, offset)
}

func (r *repoPG) list(ctx context.Context, where string, args []interface{}, limit, offset int) ([]*CompletedTreatment, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM completed_treatments `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	idx := len(args) + 1
	query := fmt.Sprintf(`SELECT %s FROM completed_treatments %s ORDER BY treatment_date DESC LIMIT $%d OFFSET $%d`,
		ctCols, where, idx, idx+1)
	rows, err := r.conn(ctx).Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*CompletedTreatment
	for rows.Next() {
		ct, err := scanCT(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, ct)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	for _, ct := range out {
		if err := r.load(ctx, ct); err != nil {
			return nil, 0, err
		}
	}
	return out, total, nil
}

// LedgerRows joins items with patients for the XLSX export.
func (r *repoPG) LedgerRows(ctx context.Context, from, to time.Time) ([]reporting.LedgerRow, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT ct.treatment_date, p.first_name || ' ' || p.last_name,
		       i.description, i.quantity, i.unit_price, i.total,
		       ct.currency, ct.payment_status
		FROM completed_treatment_items i
		JOIN completed_treatments ct ON ct.id = i.completed_treatment_id
		JOIN patients p ON p.id = ct.patient_id
		WHERE ct.treatment_date >= $1 AND ct.treatment_date < $2
		ORDER BY ct.treatment_date, i.id`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []reporting.LedgerRow
	for rows.Next() {
		var lr reporting.LedgerRow
		if err := rows.Scan(&lr.Date, &lr.PatientName, &lr.Description,
			&lr.Quantity, &lr.UnitPrice, &lr.Total, &lr.Currency, &lr.PaymentState); err != nil {
			return nil, err
		}
		out = append(out, lr)
	}
	return out, rows.Err()
}
