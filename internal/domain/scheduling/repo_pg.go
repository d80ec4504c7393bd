package scheduling

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hospital/hms/internal/platform/apperr"
	"github.com/hospital/hms/internal/platform/db"
)

// =========== Timing Repository ===========

type timingRepoPG struct{ pool *pgxpool.Pool }

func NewTimingRepoPG(pool *pgxpool.Pool) TimingRepository { return &timingRepoPG{pool: pool} }

func (r *timingRepoPG) conn(ctx context.Context) db.Querier { return db.Conn(ctx, r.pool) }

const timingSelect = `SELECT ct.id, ct.doctor_id, s.name, ct.day_of_week,
	to_char(ct.start_time, 'HH24:MI'), to_char(ct.end_time, 'HH24:MI'), ct.created_at
	FROM clinical_timings ct
	JOIN doctors d ON d.id = ct.doctor_id
	JOIN staff s ON s.id = d.staff_id`

const weekdayOrder = `array_position(ARRAY['Monday','Tuesday','Wednesday','Thursday','Friday','Saturday','Sunday'], ct.day_of_week)`

func scanTiming(row pgx.Row) (*Timing, error) {
	var t Timing
	err := row.Scan(&t.ID, &t.DoctorID, &t.DoctorName, &t.DayOfWeek, &t.StartTime, &t.EndTime, &t.CreatedAt)
	return &t, err
}

func (r *timingRepoPG) Create(ctx context.Context, t *Timing) error {
	t.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO clinical_timings (id, doctor_id, day_of_week, start_time, end_time)
		VALUES ($1, $2, $3, $4::time, $5::time)
		RETURNING created_at`,
		t.ID, t.DoctorID, t.DayOfWeek, t.StartTime, t.EndTime).Scan(&t.CreatedAt)
	return apperr.FromDB(err, "clinical timing")
}

func (r *timingRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Timing, error) {
	t, err := scanTiming(r.conn(ctx).QueryRow(ctx, timingSelect+` WHERE ct.id = $1`, id))
	if err != nil {
		return nil, apperr.FromDB(err, "clinical timing")
	}
	return t, nil
}

func (r *timingRepoPG) list(ctx context.Context, where string, args ...interface{}) ([]*Timing, error) {
	rows, err := r.conn(ctx).Query(ctx, timingSelect+where+` ORDER BY `+weekdayOrder+`, ct.start_time`, args...)
	if err != nil {
		return nil, apperr.FromDB(err, "clinical timing")
	}
	defer rows.Close()
	items := []*Timing{}
	for rows.Next() {
		t, err := scanTiming(rows)
		if err != nil {
			return nil, apperr.FromDB(err, "clinical timing")
		}
		items = append(items, t)
	}
	return items, apperr.FromDB(rows.Err(), "clinical timing")
}

func (r *timingRepoPG) List(ctx context.Context) ([]*Timing, error) {
	return r.list(ctx, "")
}

func (r *timingRepoPG) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*Timing, error) {
	return r.list(ctx, ` WHERE ct.doctor_id = $1`, doctorID)
}

func (r *timingRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM clinical_timings WHERE id = $1`, id)
	if err != nil {
		return apperr.FromDB(err, "clinical timing")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("clinical timing not found")
	}
	return nil
}

func (r *timingRepoPG) DoctorsWithTimings(ctx context.Context) ([]*DoctorWithTimings, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT d.id, s.name, dep.name
		FROM doctors d
		JOIN staff s ON s.id = d.staff_id
		LEFT JOIN departments dep ON dep.id = s.department_id
		WHERE EXISTS (SELECT 1 FROM clinical_timings ct WHERE ct.doctor_id = d.id)
		ORDER BY s.name`)
	if err != nil {
		return nil, apperr.FromDB(err, "doctor")
	}
	defer rows.Close()
	items := []*DoctorWithTimings{}
	for rows.Next() {
		var d DoctorWithTimings
		if err := rows.Scan(&d.DoctorID, &d.Name, &d.DepartmentName); err != nil {
			return nil, apperr.FromDB(err, "doctor")
		}
		items = append(items, &d)
	}
	return items, apperr.FromDB(rows.Err(), "doctor")
}

// =========== Slot Repository ===========

type slotRepoPG struct{ pool *pgxpool.Pool }

func NewSlotRepoPG(pool *pgxpool.Pool) SlotRepository { return &slotRepoPG{pool: pool} }

func (r *slotRepoPG) conn(ctx context.Context) db.Querier { return db.Conn(ctx, r.pool) }

const slotSelect = `SELECT id, timing_id, to_char(slot_start, 'HH24:MI'), to_char(slot_end, 'HH24:MI'), is_booked
	FROM appointment_slots`

func (r *slotRepoPG) Create(ctx context.Context, s *Slot) error {
	s.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO appointment_slots (id, timing_id, slot_start, slot_end, is_booked)
		VALUES ($1, $2, $3::time, $4::time, $5)`,
		s.ID, s.TimingID, s.SlotStart, s.SlotEnd, s.IsBooked)
	return apperr.FromDB(err, "slot")
}

func (r *slotRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Slot, error) {
	var s Slot
	err := r.conn(ctx).QueryRow(ctx, slotSelect+` WHERE id = $1`, id).
		Scan(&s.ID, &s.TimingID, &s.SlotStart, &s.SlotEnd, &s.IsBooked)
	if err != nil {
		return nil, apperr.FromDB(err, "slot")
	}
	return &s, nil
}

func (r *slotRepoPG) List(ctx context.Context, timingID *uuid.UUID) ([]*Slot, error) {
	rows, err := r.conn(ctx).Query(ctx, slotSelect+`
		WHERE $1::uuid IS NULL OR timing_id = $1
		ORDER BY timing_id, slot_start`, timingID)
	if err != nil {
		return nil, apperr.FromDB(err, "slot")
	}
	defer rows.Close()
	items := []*Slot{}
	for rows.Next() {
		var s Slot
		if err := rows.Scan(&s.ID, &s.TimingID, &s.SlotStart, &s.SlotEnd, &s.IsBooked); err != nil {
			return nil, apperr.FromDB(err, "slot")
		}
		items = append(items, &s)
	}
	return items, apperr.FromDB(rows.Err(), "slot")
}

func (r *slotRepoPG) Reserve(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE appointment_slots SET is_booked = TRUE WHERE id = $1 AND is_booked = FALSE`, id)
	if err != nil {
		return apperr.FromDB(err, "slot")
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	return apperr.Conflict("slot is already booked")
}

func (r *slotRepoPG) Release(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `UPDATE appointment_slots SET is_booked = FALSE WHERE id = $1`, id)
	if err != nil {
		return apperr.FromDB(err, "slot")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("slot not found")
	}
	return nil
}

func (r *slotRepoPG) ResetAll(ctx context.Context) (int64, error) {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE appointment_slots s SET is_booked = FALSE
		WHERE s.is_booked AND NOT EXISTS (
			SELECT 1 FROM appointments a
			WHERE a.slot_id = s.id AND a.status = 'Scheduled')`)
	if err != nil {
		return 0, apperr.FromDB(err, "slot")
	}
	return tag.RowsAffected(), nil
}

func (r *slotRepoPG) ReleaseExpired(ctx context.Context, before string) (int64, error) {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE appointment_slots s SET is_booked = FALSE
		WHERE s.is_booked AND NOT EXISTS (
			SELECT 1 FROM appointments a
			WHERE a.slot_id = s.id AND a.status = 'Scheduled' AND a.ap_date >= $1::date)`, before)
	if err != nil {
		return 0, apperr.FromDB(err, "slot")
	}
	return tag.RowsAffected(), nil
}

// =========== Appointment Repository ===========

type appointmentRepoPG struct{ pool *pgxpool.Pool }

func NewAppointmentRepoPG(pool *pgxpool.Pool) AppointmentRepository {
	return &appointmentRepoPG{pool: pool}
}

func (r *appointmentRepoPG) conn(ctx context.Context) db.Querier { return db.Conn(ctx, r.pool) }

const appointmentCols = `id, patient_id, doctor_id, timing_id, slot_id, appointment_mode,
	to_char(ap_date, 'YYYY-MM-DD'), status, created_at, updated_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.PatientID, &a.DoctorID, &a.TimingID, &a.SlotID, &a.AppointmentMode,
		&a.Date, &a.Status, &a.CreatedAt, &a.UpdatedAt)
	return &a, err
}

func (r *appointmentRepoPG) Create(ctx context.Context, a *Appointment) error {
	a.ID = uuid.New()
	a.Status = StatusScheduled
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO appointments (id, patient_id, doctor_id, timing_id, slot_id, appointment_mode, ap_date, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7::date, $8)
		RETURNING created_at, updated_at`,
		a.ID, a.PatientID, a.DoctorID, a.TimingID, a.SlotID, a.AppointmentMode, a.Date, a.Status).
		Scan(&a.CreatedAt, &a.UpdatedAt)
	if apperr.Is(apperr.FromDB(err, "appointment"), apperr.KindConflict) {
		return apperr.Conflict("slot is already booked")
	}
	return apperr.FromDB(err, "appointment")
}

func (r *appointmentRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	a, err := scanAppointment(r.conn(ctx).QueryRow(ctx,
		`SELECT `+appointmentCols+` FROM appointments WHERE id = $1`, id))
	if err != nil {
		return nil, apperr.FromDB(err, "appointment")
	}
	return a, nil
}

func (r *appointmentRepoPG) GetForUpdate(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	a, err := scanAppointment(r.conn(ctx).QueryRow(ctx,
		`SELECT `+appointmentCols+` FROM appointments WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, apperr.FromDB(err, "appointment")
	}
	return a, nil
}

func (r *appointmentRepoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE appointments SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return apperr.FromDB(err, "appointment")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("appointment not found")
	}
	return nil
}

func (r *appointmentRepoPG) CancelExpired(ctx context.Context, before string) (int64, error) {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE appointments SET status = 'Cancelled', updated_at = NOW()
		WHERE status = 'Scheduled' AND ap_date < $1::date`, before)
	if err != nil {
		return 0, apperr.FromDB(err, "appointment")
	}
	return tag.RowsAffected(), nil
}

const viewSelect = `SELECT ap.id, to_char(ap.ap_date, 'YYYY-MM-DD'), ap.appointment_mode, ap.status,
	p.id, p.name, p.phone, p.gender, bg.name,
	d.id, s.name, dep.name,
	ct.id, ct.day_of_week, to_char(ct.start_time, 'HH24:MI'), to_char(ct.end_time, 'HH24:MI'),
	sl.id, to_char(sl.slot_start, 'HH24:MI'), to_char(sl.slot_end, 'HH24:MI'),
	COALESCE(pr.follow_up_required AND pr.follow_up_date >= ap.ap_date, FALSE)
	FROM appointments ap
	JOIN patients p ON p.id = ap.patient_id
	LEFT JOIN blood_groups bg ON bg.id = p.blood_group_id
	JOIN doctors d ON d.id = ap.doctor_id
	JOIN staff s ON s.id = d.staff_id
	LEFT JOIN departments dep ON dep.id = s.department_id
	JOIN clinical_timings ct ON ct.id = ap.timing_id
	JOIN appointment_slots sl ON sl.id = ap.slot_id
	LEFT JOIN prescriptions pr ON pr.appointment_id = ap.id`

func scanView(row pgx.Row) (*AppointmentView, error) {
	var v AppointmentView
	err := row.Scan(&v.ID, &v.Date, &v.AppointmentMode, &v.Status,
		&v.PatientID, &v.PatientName, &v.Phone, &v.Gender, &v.BloodGroup,
		&v.DoctorID, &v.DoctorName, &v.DepartmentName,
		&v.TimingID, &v.DayOfWeek, &v.StartTime, &v.EndTime,
		&v.SlotID, &v.SlotStart, &v.SlotEnd, &v.IsFollowUp)
	return &v, err
}

func (r *appointmentRepoPG) views(ctx context.Context, tail string, args ...interface{}) ([]*AppointmentView, error) {
	rows, err := r.conn(ctx).Query(ctx, viewSelect+tail, args...)
	if err != nil {
		return nil, apperr.FromDB(err, "appointment")
	}
	defer rows.Close()
	items := []*AppointmentView{}
	for rows.Next() {
		v, err := scanView(rows)
		if err != nil {
			return nil, apperr.FromDB(err, "appointment")
		}
		items = append(items, v)
	}
	return items, apperr.FromDB(rows.Err(), "appointment")
}

func (r *appointmentRepoPG) Details(ctx context.Context, id uuid.UUID) (*AppointmentDetails, error) {
	v, err := scanView(r.conn(ctx).QueryRow(ctx, viewSelect+` WHERE ap.id = $1`, id))
	if err != nil {
		return nil, apperr.FromDB(err, "appointment")
	}
	details := &AppointmentDetails{AppointmentView: *v}

	var pr PrescriptionSummary
	err = r.conn(ctx).QueryRow(ctx, `
		SELECT id, diagnosis, follow_up_required, to_char(follow_up_date, 'YYYY-MM-DD'), notes
		FROM prescriptions WHERE appointment_id = $1`, id).
		Scan(&pr.ID, &pr.Diagnosis, &pr.FollowUpRequired, &pr.FollowUpDate, &pr.Notes)
	switch {
	case err == nil:
		details.Prescription = &pr
	case !errors.Is(err, pgx.ErrNoRows):
		return nil, apperr.FromDB(err, "prescription")
	}

	var fee FeeSummary
	err = r.conn(ctx).QueryRow(ctx, `
		SELECT id, amount::float8, status, date_paid FROM fees WHERE appointment_id = $1`, id).
		Scan(&fee.ID, &fee.Amount, &fee.Status, &fee.DatePaid)
	switch {
	case err == nil:
		details.Fee = &fee
	case !errors.Is(err, pgx.ErrNoRows):
		return nil, apperr.FromDB(err, "fee")
	}
	return details, nil
}

func (r *appointmentRepoPG) List(ctx context.Context) ([]*AppointmentView, error) {
	return r.views(ctx, ` ORDER BY ap.ap_date DESC, sl.slot_start`)
}

// dateWindow returns the ap_date predicate for a doctor list filter. $2 is
// today's date.
func dateWindow(filter string) (string, error) {
	switch filter {
	case FilterAll, "":
		return "", nil
	case FilterToday:
		return ` AND ap.ap_date = $2::date`, nil
	case FilterNextDay:
		return ` AND ap.ap_date = $2::date + 1`, nil
	case FilterWeek:
		return ` AND date_trunc('week', ap.ap_date) = date_trunc('week', $2::date)`, nil
	default:
		return "", apperr.Validation("unknown filter %q", filter)
	}
}

func (r *appointmentRepoPG) ListOpenForDoctor(ctx context.Context, doctorID uuid.UUID, filter, today string) ([]*AppointmentView, error) {
	window, err := dateWindow(filter)
	if err != nil {
		return nil, err
	}
	// $2 is referenced even for "all" so its type is always known.
	where := fmt.Sprintf(` WHERE ap.doctor_id = $1 AND ap.status <> '%s' AND ($2::date IS NOT NULL)%s
		ORDER BY ap.ap_date, sl.slot_start`, StatusCompleted, window)
	return r.views(ctx, where, doctorID, today)
}

func (r *appointmentRepoPG) CountCompleted(ctx context.Context, doctorID uuid.UUID, date string) (int, error) {
	var n int
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*) FROM appointments
		WHERE doctor_id = $1 AND ap_date = $2::date AND status = 'Completed'`, doctorID, date).Scan(&n)
	return n, apperr.FromDB(err, "appointment")
}

func (r *appointmentRepoPG) ListForPatient(ctx context.Context, patientID uuid.UUID) ([]*AppointmentView, error) {
	return r.views(ctx, ` WHERE ap.patient_id = $1 ORDER BY ap.ap_date DESC`, patientID)
}

func (r *appointmentRepoPG) DoctorIDForStaff(ctx context.Context, staffID uuid.UUID) (uuid.UUID, error) {
	var id uuid.UUID
	err := r.conn(ctx).QueryRow(ctx, `SELECT id FROM doctors WHERE staff_id = $1`, staffID).Scan(&id)
	if err != nil {
		return uuid.Nil, apperr.FromDB(err, "doctor")
	}
	return id, nil
}
