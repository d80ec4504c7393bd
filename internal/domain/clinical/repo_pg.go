package clinical

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hospital/hms/internal/platform/apperr"
	"github.com/hospital/hms/internal/platform/db"
	"github.com/hospital/hms/pkg/pagination"
)

type medicalRecordRepoPG struct{ pool *pgxpool.Pool }

func NewMedicalRecordRepoPG(pool *pgxpool.Pool) MedicalRecordRepository {
	return &medicalRecordRepoPG{pool: pool}
}

func (r *medicalRecordRepoPG) conn(ctx context.Context) db.Querier { return db.Conn(ctx, r.pool) }

func (r *medicalRecordRepoPG) Create(ctx context.Context, rec *MedicalRecord) (bool, error) {
	rec.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO medical_records (id, patient_id, appointment_id, diagnosis)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (appointment_id) DO NOTHING
		RETURNING created_at`,
		rec.ID, rec.PatientID, rec.AppointmentID, rec.Diagnosis).Scan(&rec.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, apperr.FromDB(err, "medical record")
	}
	return true, nil
}

const recordCols = `id, patient_id, appointment_id, diagnosis, created_at`

func (r *medicalRecordRepoPG) list(ctx context.Context, sql string, args ...interface{}) ([]*MedicalRecord, error) {
	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, apperr.FromDB(err, "medical record")
	}
	defer rows.Close()
	items := []*MedicalRecord{}
	for rows.Next() {
		var m MedicalRecord
		if err := rows.Scan(&m.ID, &m.PatientID, &m.AppointmentID, &m.Diagnosis, &m.CreatedAt); err != nil {
			return nil, apperr.FromDB(err, "medical record")
		}
		items = append(items, &m)
	}
	return items, apperr.FromDB(rows.Err(), "medical record")
}

func (r *medicalRecordRepoPG) ListRecent(ctx context.Context, patientID uuid.UUID, n int) ([]*MedicalRecord, error) {
	return r.list(ctx, `SELECT `+recordCols+` FROM medical_records
		WHERE patient_id = $1 ORDER BY created_at DESC LIMIT $2`, patientID, n)
}

func (r *medicalRecordRepoPG) ListForPatient(ctx context.Context, patientID uuid.UUID, page pagination.Params) ([]*MedicalRecord, int, error) {
	var total int
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM medical_records WHERE patient_id = $1`, patientID).Scan(&total)
	if err != nil {
		return nil, 0, apperr.FromDB(err, "medical record")
	}
	items, err := r.list(ctx, `SELECT `+recordCols+` FROM medical_records
		WHERE patient_id = $1 ORDER BY created_at DESC `+page.SQL(), patientID)
	return items, total, err
}
