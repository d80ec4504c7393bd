package facility

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hospital/hms/internal/platform/apperr"
	"github.com/hospital/hms/internal/platform/db"
)

// =========== Department Repository ===========

type departmentRepoPG struct{ pool *pgxpool.Pool }

func NewDepartmentRepoPG(pool *pgxpool.Pool) DepartmentRepository {
	return &departmentRepoPG{pool: pool}
}

func (r *departmentRepoPG) conn(ctx context.Context) db.Querier { return db.Conn(ctx, r.pool) }

func (r *departmentRepoPG) Create(ctx context.Context, d *Department) error {
	d.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx,
		`INSERT INTO departments (id, name) VALUES ($1, $2) RETURNING created_at`,
		d.ID, d.Name).Scan(&d.CreatedAt)
	return apperr.FromDB(err, "department")
}

func (r *departmentRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Department, error) {
	var d Department
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT id, name, created_at FROM departments WHERE id = $1`, id).
		Scan(&d.ID, &d.Name, &d.CreatedAt)
	if err != nil {
		return nil, apperr.FromDB(err, "department")
	}
	return &d, nil
}

func (r *departmentRepoPG) Update(ctx context.Context, d *Department) error {
	tag, err := r.conn(ctx).Exec(ctx, `UPDATE departments SET name = $2 WHERE id = $1`, d.ID, d.Name)
	if err != nil {
		return apperr.FromDB(err, "department")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("department not found")
	}
	return nil
}

func (r *departmentRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM departments WHERE id = $1`, id)
	if err != nil {
		return apperr.FromDB(err, "department")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("department not found")
	}
	return nil
}

func (r *departmentRepoPG) List(ctx context.Context) ([]*Department, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT id, name, created_at FROM departments ORDER BY name`)
	if err != nil {
		return nil, apperr.FromDB(err, "department")
	}
	defer rows.Close()
	items := []*Department{}
	for rows.Next() {
		var d Department
		if err := rows.Scan(&d.ID, &d.Name, &d.CreatedAt); err != nil {
			return nil, apperr.FromDB(err, "department")
		}
		items = append(items, &d)
	}
	return items, apperr.FromDB(rows.Err(), "department")
}

func (r *departmentRepoPG) ListWithWards(ctx context.Context) ([]*DepartmentWithWards, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT d.id, d.name, w.id, w.name, w.capacity
		FROM departments d
		LEFT JOIN wards w ON w.department_id = d.id
		ORDER BY d.name, w.name`)
	if err != nil {
		return nil, apperr.FromDB(err, "department")
	}
	defer rows.Close()

	items := []*DepartmentWithWards{}
	byID := map[uuid.UUID]*DepartmentWithWards{}
	for rows.Next() {
		var (
			deptID   uuid.UUID
			deptName string
			wardID   *uuid.UUID
			wardName *string
			capacity *int
		)
		if err := rows.Scan(&deptID, &deptName, &wardID, &wardName, &capacity); err != nil {
			return nil, apperr.FromDB(err, "department")
		}
		d, ok := byID[deptID]
		if !ok {
			d = &DepartmentWithWards{ID: deptID, Name: deptName, Wards: []WardSummary{}}
			byID[deptID] = d
			items = append(items, d)
		}
		if wardID != nil {
			d.Wards = append(d.Wards, WardSummary{ID: *wardID, Name: *wardName, Capacity: *capacity})
		}
	}
	return items, apperr.FromDB(rows.Err(), "department")
}

// =========== Ward Repository ===========

type wardRepoPG struct{ pool *pgxpool.Pool }

func NewWardRepoPG(pool *pgxpool.Pool) WardRepository { return &wardRepoPG{pool: pool} }

func (r *wardRepoPG) conn(ctx context.Context) db.Querier { return db.Conn(ctx, r.pool) }

const wardCols = `w.id, w.name, w.department_id, d.name, w.capacity, w.nurse_id, w.created_at`

func scanWard(row pgx.Row) (*Ward, error) {
	var w Ward
	err := row.Scan(&w.ID, &w.Name, &w.DepartmentID, &w.DepartmentName, &w.Capacity, &w.NurseID, &w.CreatedAt)
	return &w, err
}

func (r *wardRepoPG) Create(ctx context.Context, w *Ward) error {
	w.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO wards (id, name, department_id, capacity, nurse_id)
		VALUES ($1, $2, $3, $4, $5) RETURNING created_at`,
		w.ID, w.Name, w.DepartmentID, w.Capacity, w.NurseID).Scan(&w.CreatedAt)
	return apperr.FromDB(err, "ward")
}

func (r *wardRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Ward, error) {
	w, err := scanWard(r.conn(ctx).QueryRow(ctx,
		`SELECT `+wardCols+` FROM wards w JOIN departments d ON d.id = w.department_id WHERE w.id = $1`, id))
	if err != nil {
		return nil, apperr.FromDB(err, "ward")
	}
	return w, nil
}

func (r *wardRepoPG) Update(ctx context.Context, w *Ward) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE wards SET name = $2, department_id = $3, capacity = $4, nurse_id = $5
		WHERE id = $1`,
		w.ID, w.Name, w.DepartmentID, w.Capacity, w.NurseID)
	if err != nil {
		return apperr.FromDB(err, "ward")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("ward not found")
	}
	return nil
}

func (r *wardRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM wards WHERE id = $1`, id)
	if err != nil {
		return apperr.FromDB(err, "ward")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("ward not found")
	}
	return nil
}

func (r *wardRepoPG) List(ctx context.Context, departmentID *uuid.UUID) ([]*Ward, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+wardCols+` FROM wards w JOIN departments d ON d.id = w.department_id
		WHERE $1::uuid IS NULL OR w.department_id = $1
		ORDER BY d.name, w.name`, departmentID)
	if err != nil {
		return nil, apperr.FromDB(err, "ward")
	}
	defer rows.Close()
	items := []*Ward{}
	for rows.Next() {
		w, err := scanWard(rows)
		if err != nil {
			return nil, apperr.FromDB(err, "ward")
		}
		items = append(items, w)
	}
	return items, apperr.FromDB(rows.Err(), "ward")
}

func (r *wardRepoPG) Occupy(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE wards SET capacity = capacity - 1 WHERE id = $1 AND capacity > 0`, id)
	if err != nil {
		return apperr.FromDB(err, "ward")
	}
	if tag.RowsAffected() == 0 {
		return apperr.Validation("ward is full or does not exist")
	}
	return nil
}

func (r *wardRepoPG) Vacate(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `UPDATE wards SET capacity = capacity + 1 WHERE id = $1`, id)
	return apperr.FromDB(err, "ward")
}

// =========== Lookup Repository ===========

type lookupRepoPG struct {
	pool  *pgxpool.Pool
	table string
	what  string
}

func NewCountryRepoPG(pool *pgxpool.Pool) LookupRepository {
	return &lookupRepoPG{pool: pool, table: "countries", what: "country"}
}

func NewBloodGroupRepoPG(pool *pgxpool.Pool) LookupRepository {
	return &lookupRepoPG{pool: pool, table: "blood_groups", what: "blood group"}
}

func (r *lookupRepoPG) conn(ctx context.Context) db.Querier { return db.Conn(ctx, r.pool) }

func (r *lookupRepoPG) Create(ctx context.Context, l *Lookup) error {
	l.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `INSERT INTO `+r.table+` (id, name) VALUES ($1, $2)`, l.ID, l.Name)
	return apperr.FromDB(err, r.what)
}

func (r *lookupRepoPG) Update(ctx context.Context, l *Lookup) error {
	tag, err := r.conn(ctx).Exec(ctx, `UPDATE `+r.table+` SET name = $2 WHERE id = $1`, l.ID, l.Name)
	if err != nil {
		return apperr.FromDB(err, r.what)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("%s not found", r.what)
	}
	return nil
}

func (r *lookupRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM `+r.table+` WHERE id = $1`, id)
	if err != nil {
		return apperr.FromDB(err, r.what)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("%s not found", r.what)
	}
	return nil
}

func (r *lookupRepoPG) List(ctx context.Context) ([]*Lookup, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT id, name FROM `+r.table+` ORDER BY name`)
	if err != nil {
		return nil, apperr.FromDB(err, r.what)
	}
	defer rows.Close()
	items := []*Lookup{}
	for rows.Next() {
		var l Lookup
		if err := rows.Scan(&l.ID, &l.Name); err != nil {
			return nil, apperr.FromDB(err, r.what)
		}
		items = append(items, &l)
	}
	return items, apperr.FromDB(rows.Err(), r.what)
}
