package treatment

import (
	"context"
	"fmt"
	"strings"

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

// =========== Treatment Repository ===========

type repoPG struct{ pool *pgxpool.Pool }

// NewRepoPG creates the Postgres treatment repository.
func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const treatmentCols = `id, code, name, specialty, price, currency, used_count, created_at, updated_at`

func scanTreatment(row pgx.Row) (*Treatment, error) {
	var t Treatment
	err := row.Scan(&t.ID, &t.Code, &t.Name, &t.Specialty, &t.Price, &t.Currency,
		&t.UsedCount, &t.CreatedAt, &t.UpdatedAt)
	return &t, err
}

func (r *repoPG) Create(ctx context.Context, t *Treatment) error {
	t.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO treatments (id, code, name, specialty, price, currency)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		t.ID, t.Code, t.Name, t.Specialty, t.Price, t.Currency)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Treatment, error) {
	return scanTreatment(r.conn(ctx).QueryRow(ctx,
		`SELECT `+treatmentCols+` FROM treatments WHERE id = $1`, id))
}

func (r *repoPG) FindByDescription(ctx context.Context, description string) (*Treatment, error) {
	return scanTreatment(r.conn(ctx).QueryRow(ctx,
		`SELECT `+treatmentCols+` FROM treatments
		 WHERE $1 ILIKE '%' || name || '%' ORDER BY LENGTH(name) DESC LIMIT 1`, description))
}

func (r *repoPG) Update(ctx context.Context, t *Treatment) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE treatments SET name=$2, specialty=$3, price=$4, currency=$5, updated_at=NOW()
		WHERE id = $1`,
		t.ID, t.Name, t.Specialty, t.Price, t.Currency)
	return err
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM treatments WHERE id = $1`, id)
	return err
}

// NextSequence derives the next code number from the highest existing code
// rather than the row count. Codes are unique and treatments can be deleted,
// so a count would eventually collide with a surviving higher code.
func (r *repoPG) NextSequence(ctx context.Context, specialty string) (int, error) {
	var max int
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COALESCE(MAX(split_part(code, '-', 2)::int), 0)
		FROM treatments WHERE specialty = $1`, specialty).Scan(&max)
	return max + 1, err
}

func (r *repoPG) IncrementUsage(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE treatments SET used_count = used_count + 1, updated_at=NOW() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("treatment %s not found", id)
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, specialty, name string, limit, offset int) ([]*Treatment, int, error) {
	clauses := []string{}
	args := []interface{}{}
	if specialty != "" {
		args = append(args, specialty)
		clauses = append(clauses, fmt.Sprintf("specialty = $%d", len(args)))
	}
	if name != "" {
		args = append(args, "%"+name+"%")
		clauses = append(clauses, fmt.Sprintf("name ILIKE $%d", len(args)))
	}
	where := ""
	if len(clauses) > 0 {
		where = "WHERE " + strings.Join(clauses, " AND ")
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM treatments `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM treatments %s ORDER BY code LIMIT $%d OFFSET $%d`,
		treatmentCols, where, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Treatment
	for rows.Next() {
		t, err := scanTreatment(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, t)
	}
	return items, total, rows.Err()
}

func (r *repoPG) ListAll(ctx context.Context) ([]*Treatment, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+treatmentCols+` FROM treatments ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Treatment
	for rows.Next() {
		t, err := scanTreatment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

// =========== Promotion Repository ===========

type promoRepoPG struct{ pool *pgxpool.Pool }

// NewPromotionRepoPG creates the Postgres promotion repository.
func NewPromotionRepoPG(pool *pgxpool.Pool) PromotionRepository { return &promoRepoPG{pool: pool} }

func (r *promoRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const promoCols = `id, name, original_price, discounted_price, currency,
	valid_from, valid_until, used_count, created_at, updated_at`

func scanPromotion(row pgx.Row) (*Promotion, error) {
	var p Promotion
	err := row.Scan(&p.ID, &p.Name, &p.OriginalPrice, &p.DiscountedPrice, &p.Currency,
		&p.ValidFrom, &p.ValidUntil, &p.UsedCount, &p.CreatedAt, &p.UpdatedAt)
	return &p, err
}

func (r *promoRepoPG) Create(ctx context.Context, p *Promotion) error {
	p.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO promotions (id, name, original_price, discounted_price, currency, valid_from, valid_until)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		p.ID, p.Name, p.OriginalPrice, p.DiscountedPrice, p.Currency, p.ValidFrom, p.ValidUntil)
	return err
}

func (r *promoRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Promotion, error) {
	return scanPromotion(r.conn(ctx).QueryRow(ctx,
		`SELECT `+promoCols+` FROM promotions WHERE id = $1`, id))
}

func (r *promoRepoPG) Update(ctx context.Context, p *Promotion) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE promotions SET name=$2, original_price=$3, discounted_price=$4,
			currency=$5, valid_from=$6, valid_until=$7, updated_at=NOW()
		WHERE id = $1`,
		p.ID, p.Name, p.OriginalPrice, p.DiscountedPrice, p.Currency, p.ValidFrom, p.ValidUntil)
	return err
}

func (r *promoRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM promotions WHERE id = $1`, id)
	return err
}

func (r *promoRepoPG) IncrementUsage(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE promotions SET used_count = used_count + 1, updated_at=NOW() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("promotion %s not found", id)
	}
	return nil
}

func (r *promoRepoPG) List(ctx context.Context, limit, offset int) ([]*Promotion, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM promotions`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+promoCols+` FROM promotions ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Promotion
	for rows.Next() {
		p, err := scanPromotion(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}
