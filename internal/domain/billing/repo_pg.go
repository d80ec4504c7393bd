package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hospital/hms/internal/platform/apperr"
	"github.com/hospital/hms/internal/platform/db"
	"github.com/hospital/hms/pkg/pagination"
)

type feeRepoPG struct{ pool *pgxpool.Pool }

func NewFeeRepoPG(pool *pgxpool.Pool) FeeRepository {
	return &feeRepoPG{pool: pool}
}

func (r *feeRepoPG) conn(ctx context.Context) db.Querier { return db.Conn(ctx, r.pool) }

const feeCols = `f.id, f.patient_id, f.appointment_id, f.admission_id, f.doctor_fee::float8,
	f.medicine_total::float8, f.amount::float8, f.status, f.date_paid, f.generated_by, f.created_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanFee(row rowScanner, extra ...interface{}) (*Fee, error) {
	var f Fee
	dest := append([]interface{}{&f.ID, &f.PatientID, &f.AppointmentID, &f.AdmissionID, &f.DoctorFee,
		&f.MedicineTotal, &f.Amount, &f.Status, &f.DatePaid, &f.GeneratedBy, &f.CreatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *feeRepoPG) Create(ctx context.Context, f *Fee) error {
	f.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO fees (id, patient_id, appointment_id, admission_id, doctor_fee, medicine_total,
			amount, status, date_paid, generated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at`,
		f.ID, f.PatientID, f.AppointmentID, f.AdmissionID, f.DoctorFee, f.MedicineTotal,
		f.Amount, f.Status, f.DatePaid, f.GeneratedBy).Scan(&f.CreatedAt)
	if err != nil {
		err = apperr.FromDB(err, "fee")
		if apperr.Is(err, apperr.KindConflict) {
			return apperr.Conflict("Bill already generated")
		}
		return err
	}
	return nil
}

func (r *feeRepoPG) GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*Fee, error) {
	f, err := scanFee(r.conn(ctx).QueryRow(ctx,
		`SELECT `+feeCols+` FROM fees f WHERE f.appointment_id = $1`, appointmentID))
	if err != nil {
		return nil, apperr.FromDB(err, "bill")
	}
	return f, nil
}

func (r *feeRepoPG) ExistsForAppointment(ctx context.Context, appointmentID uuid.UUID) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM fees WHERE appointment_id = $1)`, appointmentID).Scan(&exists)
	return exists, apperr.FromDB(err, "fee")
}

func (r *feeRepoPG) MarkPaid(ctx context.Context, appointmentID uuid.UUID, at time.Time) (int64, error) {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE fees SET status = 'Paid', date_paid = COALESCE(date_paid, $2)
		WHERE appointment_id = $1 AND status <> 'Paid'`, appointmentID, at)
	if err != nil {
		return 0, apperr.FromDB(err, "fee")
	}
	return tag.RowsAffected(), nil
}

func (r *feeRepoPG) List(ctx context.Context, page pagination.Params) ([]*FeeListItem, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM fees`).Scan(&total); err != nil {
		return nil, 0, apperr.FromDB(err, "fee")
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+feeCols+`, p.name
		FROM fees f JOIN patients p ON p.id = f.patient_id
		ORDER BY f.date_paid DESC NULLS LAST, f.created_at DESC `+page.SQL())
	if err != nil {
		return nil, 0, apperr.FromDB(err, "fee")
	}
	defer rows.Close()
	items := []*FeeListItem{}
	for rows.Next() {
		var name string
		f, err := scanFee(rows, &name)
		if err != nil {
			return nil, 0, apperr.FromDB(err, "fee")
		}
		items = append(items, &FeeListItem{Fee: *f, PatientName: name})
	}
	return items, total, apperr.FromDB(rows.Err(), "fee")
}

func (r *feeRepoPG) DoctorFees(ctx context.Context, doctorID uuid.UUID) (*DoctorFees, error) {
	var f DoctorFees
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT base_fee::float8, followup_fee::float8 FROM doctors WHERE id = $1`, doctorID).
		Scan(&f.Base, &f.FollowUp)
	if err != nil {
		return nil, apperr.FromDB(err, "doctor")
	}
	return &f, nil
}

func (r *feeRepoPG) Parties(ctx context.Context, patientID, doctorID uuid.UUID) (*Parties, error) {
	var p Parties
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT p.name, s.name
		FROM patients p, doctors d JOIN staff s ON s.id = d.staff_id
		WHERE p.id = $1 AND d.id = $2`, patientID, doctorID).Scan(&p.PatientName, &p.DoctorName)
	if err != nil {
		return nil, apperr.FromDB(err, "appointment party")
	}
	return &p, nil
}
