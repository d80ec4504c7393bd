package admission

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hospital/hms/internal/platform/apperr"
	"github.com/hospital/hms/internal/platform/db"
)

type admissionRepoPG struct{ pool *pgxpool.Pool }

func NewAdmissionRepoPG(pool *pgxpool.Pool) AdmissionRepository {
	return &admissionRepoPG{pool: pool}
}

func (r *admissionRepoPG) conn(ctx context.Context) db.Querier { return db.Conn(ctx, r.pool) }

const admissionCols = `a.id, a.patient_id, a.ward_id, a.doctor_id, a.admission_type, a.reason,
	to_char(a.date_admitted, 'YYYY-MM-DD'), to_char(a.expected_discharge, 'YYYY-MM-DD'),
	a.surgery_required, a.status, a.discharged_at, a.created_at,
	p.name, w.name, s.name`

const admissionFrom = ` FROM admissions a
	JOIN patients p ON p.id = a.patient_id
	JOIN wards w ON w.id = a.ward_id
	LEFT JOIN doctors d ON d.id = a.doctor_id
	LEFT JOIN staff s ON s.id = d.staff_id`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAdmission(row rowScanner) (*Admission, error) {
	var a Admission
	var admitted *string
	err := row.Scan(&a.ID, &a.PatientID, &a.WardID, &a.DoctorID, &a.AdmissionType, &a.Reason,
		&admitted, &a.ExpectedDischarge, &a.SurgeryRequired, &a.Status, &a.DischargedAt, &a.CreatedAt,
		&a.PatientName, &a.WardName, &a.DoctorName)
	if err != nil {
		return nil, err
	}
	if admitted != nil {
		a.DateAdmitted = *admitted
	}
	return &a, nil
}

func (r *admissionRepoPG) Create(ctx context.Context, a *Admission) error {
	a.ID = uuid.New()
	var admitted *string
	if a.DateAdmitted != "" {
		admitted = &a.DateAdmitted
	}
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO admissions (id, patient_id, ward_id, doctor_id, admission_type, reason,
			date_admitted, expected_discharge, surgery_required, status)
		VALUES ($1, $2, $3, $4, $5, $6, COALESCE($7::date, CURRENT_DATE), $8::date, $9, $10)
		RETURNING to_char(date_admitted, 'YYYY-MM-DD'), created_at`,
		a.ID, a.PatientID, a.WardID, a.DoctorID, a.AdmissionType, a.Reason,
		admitted, a.ExpectedDischarge, a.SurgeryRequired, a.Status).Scan(&a.DateAdmitted, &a.CreatedAt)
	return apperr.FromDB(err, "admission")
}

func (r *admissionRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Admission, error) {
	a, err := scanAdmission(r.conn(ctx).QueryRow(ctx, `SELECT `+admissionCols+admissionFrom+` WHERE a.id = $1`, id))
	if err != nil {
		return nil, apperr.FromDB(err, "admission")
	}
	return a, nil
}

func (r *admissionRepoPG) GetForUpdate(ctx context.Context, id uuid.UUID) (*Admission, error) {
	a, err := scanAdmission(r.conn(ctx).QueryRow(ctx,
		`SELECT `+admissionCols+admissionFrom+` WHERE a.id = $1 FOR UPDATE OF a`, id))
	if err != nil {
		return nil, apperr.FromDB(err, "admission")
	}
	return a, nil
}

func (r *admissionRepoPG) List(ctx context.Context) ([]*Admission, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+admissionCols+admissionFrom+`
		ORDER BY a.date_admitted DESC, a.created_at DESC`)
	if err != nil {
		return nil, apperr.FromDB(err, "admission")
	}
	defer rows.Close()
	items := []*Admission{}
	for rows.Next() {
		a, err := scanAdmission(rows)
		if err != nil {
			return nil, apperr.FromDB(err, "admission")
		}
		items = append(items, a)
	}
	return items, apperr.FromDB(rows.Err(), "admission")
}

func (r *admissionRepoPG) Discharge(ctx context.Context, id uuid.UUID, at time.Time) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE admissions SET status = 'Discharged', discharged_at = $2
		WHERE id = $1 AND status <> 'Discharged'`, id, at)
	if err != nil {
		return apperr.FromDB(err, "admission")
	}
	if tag.RowsAffected() == 0 {
		return apperr.Conflict("Patient already discharged")
	}
	return nil
}

func (r *admissionRepoPG) AddMedicine(ctx context.Context, m *AdministeredMedicine) error {
	m.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO admission_medicines (id, admission_id, medicine_id, quantity)
		VALUES ($1, $2, $3, $4)
		RETURNING administered_at`,
		m.ID, m.AdmissionID, m.MedicineID, m.Quantity).Scan(&m.AdministeredAt)
	return apperr.FromDB(err, "administered medicine")
}

func (r *admissionRepoPG) ListMedicines(ctx context.Context, admissionID uuid.UUID) ([]*AdministeredMedicine, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT am.id, am.admission_id, am.medicine_id, am.quantity, m.name, m.price::float8, am.administered_at
		FROM admission_medicines am JOIN medicines m ON m.id = am.medicine_id
		WHERE am.admission_id = $1
		ORDER BY am.administered_at`, admissionID)
	if err != nil {
		return nil, apperr.FromDB(err, "administered medicine")
	}
	defer rows.Close()
	items := []*AdministeredMedicine{}
	for rows.Next() {
		var m AdministeredMedicine
		if err := rows.Scan(&m.ID, &m.AdmissionID, &m.MedicineID, &m.Quantity, &m.Name, &m.Price, &m.AdministeredAt); err != nil {
			return nil, apperr.FromDB(err, "administered medicine")
		}
		m.Total = m.Price * float64(m.Quantity)
		items = append(items, &m)
	}
	return items, apperr.FromDB(rows.Err(), "administered medicine")
}
