package medication

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hospital/hms/internal/platform/apperr"
	"github.com/hospital/hms/internal/platform/db"
)

// =========== Medicine Repository ===========

type medicineRepoPG struct{ pool *pgxpool.Pool }

func NewMedicineRepoPG(pool *pgxpool.Pool) MedicineRepository { return &medicineRepoPG{pool: pool} }

func (r *medicineRepoPG) conn(ctx context.Context) db.Querier { return db.Conn(ctx, r.pool) }

const medicineCols = `id, name, price::float8, quantity, usage, created_at, updated_at`

func scanMedicine(row pgx.Row) (*Medicine, error) {
	var m Medicine
	err := row.Scan(&m.ID, &m.Name, &m.Price, &m.Quantity, &m.Usage, &m.CreatedAt, &m.UpdatedAt)
	return &m, err
}

func (r *medicineRepoPG) Create(ctx context.Context, m *Medicine) error {
	m.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO medicines (id, name, price, quantity, usage)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`,
		m.ID, m.Name, m.Price, m.Quantity, m.Usage).Scan(&m.CreatedAt, &m.UpdatedAt)
	return apperr.FromDB(err, "medicine")
}

func (r *medicineRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Medicine, error) {
	m, err := scanMedicine(r.conn(ctx).QueryRow(ctx, `SELECT `+medicineCols+` FROM medicines WHERE id = $1`, id))
	if err != nil {
		return nil, apperr.FromDB(err, "medicine")
	}
	return m, nil
}

func (r *medicineRepoPG) query(ctx context.Context, sql string, args ...interface{}) ([]*Medicine, error) {
	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, apperr.FromDB(err, "medicine")
	}
	defer rows.Close()
	items := []*Medicine{}
	for rows.Next() {
		m, err := scanMedicine(rows)
		if err != nil {
			return nil, apperr.FromDB(err, "medicine")
		}
		items = append(items, m)
	}
	return items, apperr.FromDB(rows.Err(), "medicine")
}

func (r *medicineRepoPG) GetMany(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*Medicine, error) {
	items, err := r.query(ctx, `SELECT `+medicineCols+` FROM medicines WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]*Medicine, len(items))
	for _, m := range items {
		out[m.ID] = m
	}
	return out, nil
}

func (r *medicineRepoPG) List(ctx context.Context) ([]*Medicine, error) {
	return r.query(ctx, `SELECT `+medicineCols+` FROM medicines ORDER BY name`)
}

func (r *medicineRepoPG) Restock(ctx context.Context, id uuid.UUID, qty int) (*Medicine, error) {
	m, err := scanMedicine(r.conn(ctx).QueryRow(ctx, `
		UPDATE medicines SET quantity = quantity + $2, updated_at = NOW()
		WHERE id = $1
		RETURNING `+medicineCols, id, qty))
	if err != nil {
		return nil, apperr.FromDB(err, "medicine")
	}
	return m, nil
}

func (r *medicineRepoPG) Decrement(ctx context.Context, id uuid.UUID, qty int) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE medicines SET quantity = quantity - $2, updated_at = NOW()
		WHERE id = $1 AND quantity >= $2`, id, qty)
	if err != nil {
		return apperr.FromDB(err, "medicine")
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	m, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return apperr.InsufficientStock("Insufficient stock for %s. Available: %d, Requested: %d", m.Name, m.Quantity, qty)
}

// =========== Prescription Repository ===========

type prescriptionRepoPG struct{ pool *pgxpool.Pool }

func NewPrescriptionRepoPG(pool *pgxpool.Pool) PrescriptionRepository {
	return &prescriptionRepoPG{pool: pool}
}

func (r *prescriptionRepoPG) conn(ctx context.Context) db.Querier { return db.Conn(ctx, r.pool) }

func (r *prescriptionRepoPG) Create(ctx context.Context, p *Prescription) error {
	p.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO prescriptions (id, appointment_id, diagnosis, follow_up_required, follow_up_date, notes)
		VALUES ($1, $2, $3, $4, $5::date, $6)
		RETURNING created_at`,
		p.ID, p.AppointmentID, p.Diagnosis, p.FollowUpRequired, p.FollowUpDate, p.Notes).Scan(&p.CreatedAt)
	if apperr.Is(apperr.FromDB(err, "prescription"), apperr.KindConflict) {
		return apperr.Conflict("prescription already exists for this appointment")
	}
	if err != nil {
		return apperr.FromDB(err, "prescription")
	}

	batch := &pgx.Batch{}
	for _, l := range p.Lines {
		batch.Queue(`INSERT INTO prescription_lines (id, prescription_id, medicine_id, quantity) VALUES ($1, $2, $3, $4)`,
			uuid.New(), p.ID, l.MedicineID, l.Quantity)
	}
	if batch.Len() == 0 {
		return nil
	}
	br := r.conn(ctx).SendBatch(ctx, batch)
	for range p.Lines {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return apperr.FromDB(err, "prescription line")
		}
	}
	return apperr.FromDB(br.Close(), "prescription line")
}

func (r *prescriptionRepoPG) ExistsForAppointment(ctx context.Context, appointmentID uuid.UUID) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM prescriptions WHERE appointment_id = $1)`, appointmentID).Scan(&exists)
	return exists, apperr.FromDB(err, "prescription")
}

func (r *prescriptionRepoPG) GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*Prescription, error) {
	var p Prescription
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, appointment_id, diagnosis, follow_up_required, to_char(follow_up_date, 'YYYY-MM-DD'), notes, created_at
		FROM prescriptions WHERE appointment_id = $1`, appointmentID).
		Scan(&p.ID, &p.AppointmentID, &p.Diagnosis, &p.FollowUpRequired, &p.FollowUpDate, &p.Notes, &p.CreatedAt)
	if err != nil {
		return nil, apperr.FromDB(err, "prescription")
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT m.id, m.name, m.price::float8, m.usage, pl.quantity
		FROM prescription_lines pl
		JOIN medicines m ON m.id = pl.medicine_id
		WHERE pl.prescription_id = $1
		ORDER BY m.name`, p.ID)
	if err != nil {
		return nil, apperr.FromDB(err, "prescription line")
	}
	defer rows.Close()
	p.Lines = []*PrescriptionLine{}
	for rows.Next() {
		var l PrescriptionLine
		if err := rows.Scan(&l.MedicineID, &l.Name, &l.Price, &l.Usage, &l.Quantity); err != nil {
			return nil, apperr.FromDB(err, "prescription line")
		}
		l.Total = l.Price * float64(l.Quantity)
		p.Lines = append(p.Lines, &l)
	}
	return &p, apperr.FromDB(rows.Err(), "prescription line")
}
