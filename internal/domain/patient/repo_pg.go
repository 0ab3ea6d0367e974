package patient

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

// NewRepoPG creates the Postgres patient repository.
func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const patientCols = `id, first_name, last_name, national_id, birth_date, sex,
	diseases, allergies, medications, pregnant, phone, country_code,
	intake_date, archived, created_at, updated_at`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.FirstName, &p.LastName, &p.NationalID, &p.BirthDate, &p.Sex,
		&p.Diseases, &p.Allergies, &p.Medications, &p.Pregnant, &p.Phone, &p.CountryCode,
		&p.IntakeDate, &p.Archived, &p.CreatedAt, &p.UpdatedAt)
	return &p, err
}

func (r *repoPG) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO patients (id, first_name, last_name, national_id, birth_date, sex,
			diseases, allergies, medications, pregnant, phone, country_code, intake_date)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		p.ID, p.FirstName, p.LastName, p.NationalID, p.BirthDate, p.Sex,
		p.Diseases, p.Allergies, p.Medications, p.Pregnant, p.Phone, p.CountryCode, p.IntakeDate)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return scanPatient(r.conn(ctx).QueryRow(ctx,
		`SELECT `+patientCols+` FROM patients WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, p *Patient) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE patients SET first_name=$2, last_name=$3, national_id=$4, birth_date=$5,
			sex=$6, diseases=$7, allergies=$8, medications=$9, pregnant=$10,
			phone=$11, country_code=$12, updated_at=NOW()
		WHERE id = $1`,
		p.ID, p.FirstName, p.LastName, p.NationalID, p.BirthDate,
		p.Sex, p.Diseases, p.Allergies, p.Medications, p.Pregnant,
		p.Phone, p.CountryCode)
	return err
}

func (r *repoPG) SetArchived(ctx context.Context, id uuid.UUID, archived bool) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE patients SET archived=$2, updated_at=NOW() WHERE id = $1`, id, archived)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("patient %s not found", id)
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, filter ListFilter, limit, offset int) ([]*Patient, int, error) {
	where := `WHERE 1=1`
	args := []interface{}{}
	idx := 1

	if filter.Search != "" {
		where += fmt.Sprintf(` AND (first_name ILIKE $%d OR last_name ILIKE $%d OR national_id ILIKE $%d)`, idx, idx, idx)
		args = append(args, "%"+filter.Search+"%")
		idx++
	}
	switch filter.Category {
	case CategoryArchived:
		where += ` AND (archived = TRUE OR intake_date <= NOW() - INTERVAL '5 years')`
	case CategoryActive:
		where += ` AND archived = FALSE AND intake_date > NOW() - INTERVAL '2 years'`
	case CategoryHistorical:
		where += ` AND archived = FALSE AND intake_date <= NOW() - INTERVAL '2 years' AND intake_date > NOW() - INTERVAL '5 years'`
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM patients `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM patients %s ORDER BY last_name, first_name LIMIT $%d OFFSET $%d`,
		patientCols, where, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var patients []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, 0, err
		}
		patients = append(patients, p)
	}
	return patients, total, rows.Err()
}
