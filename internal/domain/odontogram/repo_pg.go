package odontogram

import (
	"context"
	"encoding/json"
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

// NewRepoPG creates the Postgres odontogram repository. Teeth and planned
// treatments are stored as JSONB.
func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const odontogramCols = `id, patient_id, version, active, teeth, chief_complaint,
	general_observations, planned_treatments, notes, created_at, updated_at`

func scanOdontogram(row pgx.Row) (*Odontogram, error) {
	var o Odontogram
	var teeth, planned []byte
	err := row.Scan(&o.ID, &o.PatientID, &o.Version, &o.Active, &teeth, &o.ChiefComplaint,
		&o.GeneralObservations, &planned, &o.Notes, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(teeth) > 0 {
		if err := json.Unmarshal(teeth, &o.Teeth); err != nil {
			return nil, fmt.Errorf("decoding teeth: %w", err)
		}
	}
	if len(planned) > 0 {
		if err := json.Unmarshal(planned, &o.PlannedTreatments); err != nil {
			return nil, fmt.Errorf("decoding planned treatments: %w", err)
		}
	}
	return &o, nil
}

// textValue maps an omitted optional field to the column's empty default.
// pgx would otherwise encode the nil pointer as SQL NULL and trip the
// NOT NULL constraint.
func textValue(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func (r *repoPG) Create(ctx context.Context, o *Odontogram) error {
	o.ID = uuid.New()
	teeth, err := json.Marshal(o.Teeth)
	if err != nil {
		return fmt.Errorf("encoding teeth: %w", err)
	}
	planned, err := json.Marshal(o.PlannedTreatments)
	if err != nil {
		return fmt.Errorf("encoding planned treatments: %w", err)
	}
	_, err = r.conn(ctx).Exec(ctx, `
		INSERT INTO odontograms (id, patient_id, version, active, teeth, chief_complaint,
			general_observations, planned_treatments, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		o.ID, o.PatientID, o.Version, o.Active, teeth, textValue(o.ChiefComplaint),
		textValue(o.GeneralObservations), planned, textValue(o.Notes))
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Odontogram, error) {
	return scanOdontogram(r.conn(ctx).QueryRow(ctx,
		`SELECT `+odontogramCols+` FROM odontograms WHERE id = $1`, id))
}

func (r *repoPG) GetActive(ctx context.Context, patientID uuid.UUID) (*Odontogram, error) {
	return scanOdontogram(r.conn(ctx).QueryRow(ctx,
		`SELECT `+odontogramCols+` FROM odontograms WHERE patient_id = $1 AND active`, patientID))
}

func (r *repoPG) MaxVersion(ctx context.Context, patientID uuid.UUID) (int, error) {
	var max int
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT COALESCE(MAX(version), 0) FROM odontograms WHERE patient_id = $1`, patientID).Scan(&max)
	return max, err
}

func (r *repoPG) DeactivateAll(ctx context.Context, patientID uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE odontograms SET active=FALSE, updated_at=NOW() WHERE patient_id = $1 AND active`, patientID)
	return err
}

func (r *repoPG) SetActive(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE odontograms SET active=TRUE, updated_at=NOW() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("odontogram %s not found", id)
	}
	return nil
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Odontogram, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM odontograms WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+odontogramCols+` FROM odontograms
		 WHERE patient_id = $1 ORDER BY version DESC LIMIT $2 OFFSET $3`,
		patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Odontogram
	for rows.Next() {
		o, err := scanOdontogram(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, o)
	}
	return items, total, rows.Err()
}
