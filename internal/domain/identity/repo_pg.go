package identity

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hospital/hms/internal/platform/apperr"
	"github.com/hospital/hms/internal/platform/db"
)

// =========== Patient Repository ===========

type patientRepoPG struct{ pool *pgxpool.Pool }

func NewPatientRepoPG(pool *pgxpool.Pool) PatientRepository { return &patientRepoPG{pool: pool} }

func (r *patientRepoPG) conn(ctx context.Context) db.Querier { return db.Conn(ctx, r.pool) }

const patientCols = `p.id, p.name, p.phone, p.cnic, p.gender, p.blood_group_id, bg.name, p.country_id,
	to_char(p.date_of_birth, 'YYYY-MM-DD'), p.address, p.relative_name, p.relative_phone,
	p.ward_id, w.name, d.name, p.created_at, p.updated_at`

const patientFrom = ` FROM patients p
	LEFT JOIN blood_groups bg ON bg.id = p.blood_group_id
	LEFT JOIN wards w ON w.id = p.ward_id
	LEFT JOIN departments d ON d.id = w.department_id`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.Name, &p.Phone, &p.CNIC, &p.Gender, &p.BloodGroupID, &p.BloodGroup, &p.CountryID,
		&p.DateOfBirth, &p.Address, &p.RelativeName, &p.RelativePhone,
		&p.WardID, &p.WardName, &p.DepartmentName, &p.CreatedAt, &p.UpdatedAt)
	return &p, err
}

func (r *patientRepoPG) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO patients (id, name, phone, cnic, gender, blood_group_id, country_id, date_of_birth,
			address, relative_name, relative_phone, ward_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8::date,$9,$10,$11,$12)
		RETURNING created_at, updated_at`,
		p.ID, p.Name, p.Phone, p.CNIC, p.Gender, p.BloodGroupID, p.CountryID, p.DateOfBirth,
		p.Address, p.RelativeName, p.RelativePhone, p.WardID).Scan(&p.CreatedAt, &p.UpdatedAt)
	return apperr.FromDB(err, "patient")
}

func (r *patientRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p, err := scanPatient(r.conn(ctx).QueryRow(ctx, `SELECT `+patientCols+patientFrom+` WHERE p.id = $1`, id))
	if err != nil {
		return nil, apperr.FromDB(err, "patient")
	}
	return p, nil
}

func (r *patientRepoPG) Update(ctx context.Context, p *Patient) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE patients SET name=$2, phone=$3, cnic=$4, gender=$5, blood_group_id=$6, country_id=$7,
			date_of_birth=$8::date, address=$9, relative_name=$10, relative_phone=$11, ward_id=$12,
			updated_at=NOW()
		WHERE id = $1`,
		p.ID, p.Name, p.Phone, p.CNIC, p.Gender, p.BloodGroupID, p.CountryID, p.DateOfBirth,
		p.Address, p.RelativeName, p.RelativePhone, p.WardID)
	if err != nil {
		return apperr.FromDB(err, "patient")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("patient not found")
	}
	return nil
}

func (r *patientRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM patients WHERE id = $1`, id)
	if err != nil {
		if apperr.Is(apperr.FromDB(err, "patient"), apperr.KindReference) {
			return apperr.Reference("patient has appointments or admissions and cannot be deleted")
		}
		return apperr.FromDB(err, "patient")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("patient not found")
	}
	return nil
}

func (r *patientRepoPG) list(ctx context.Context, where string) ([]*Patient, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+patientCols+patientFrom+where+` ORDER BY p.name`)
	if err != nil {
		return nil, apperr.FromDB(err, "patient")
	}
	defer rows.Close()
	items := []*Patient{}
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, apperr.FromDB(err, "patient")
		}
		items = append(items, p)
	}
	return items, apperr.FromDB(rows.Err(), "patient")
}

func (r *patientRepoPG) List(ctx context.Context) ([]*Patient, error) {
	return r.list(ctx, "")
}

func (r *patientRepoPG) ListWithoutActiveAppointments(ctx context.Context) ([]*Patient, error) {
	return r.list(ctx, ` WHERE NOT EXISTS (
		SELECT 1 FROM appointments a
		WHERE a.patient_id = p.id AND a.status IN ('Scheduled', 'Completed'))`)
}

func (r *patientRepoPG) CNICExists(ctx context.Context, cnic string) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM patients WHERE cnic = $1)`, cnic).Scan(&exists)
	return exists, apperr.FromDB(err, "patient")
}

// =========== Staff Repository ===========

type staffRepoPG struct{ pool *pgxpool.Pool }

func NewStaffRepoPG(pool *pgxpool.Pool) StaffRepository { return &staffRepoPG{pool: pool} }

func (r *staffRepoPG) conn(ctx context.Context) db.Querier { return db.Conn(ctx, r.pool) }

const staffCols = `s.id, s.name, s.role_id, r.name, s.department_id, d.name, s.shift_id, sh.shift_type,
	s.phone, s.email, s.cnic, s.gender, s.salary::float8, to_char(s.hire_date, 'YYYY-MM-DD'),
	doc.specialization, doc.base_fee::float8, doc.followup_fee::float8, doc.id IS NOT NULL,
	s.created_at, s.updated_at`

const staffFrom = ` FROM staff s
	JOIN roles r ON r.id = s.role_id
	LEFT JOIN departments d ON d.id = s.department_id
	LEFT JOIN shifts sh ON sh.id = s.shift_id
	LEFT JOIN doctors doc ON doc.staff_id = s.id`

func scanStaff(row pgx.Row) (*Staff, error) {
	var (
		s         Staff
		spec      *string
		baseFee   *float64
		followFee *float64
		isDoctor  bool
	)
	err := row.Scan(&s.ID, &s.Name, &s.RoleID, &s.RoleName, &s.DepartmentID, &s.DepartmentName,
		&s.ShiftID, &s.ShiftType, &s.Phone, &s.Email, &s.CNIC, &s.Gender, &s.Salary, &s.HireDate,
		&spec, &baseFee, &followFee, &isDoctor, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if isDoctor {
		s.Doctor = &DoctorProfile{Specialization: spec}
		if baseFee != nil {
			s.Doctor.BaseFee = *baseFee
		}
		if followFee != nil {
			s.Doctor.FollowupFee = *followFee
		}
	}
	return &s, nil
}

func (r *staffRepoPG) Create(ctx context.Context, s *Staff) error {
	s.ID = uuid.New()
	var hire *string
	if s.HireDate != "" {
		hire = &s.HireDate
	}
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO staff (id, name, role_id, department_id, shift_id, phone, email, cnic, gender, salary, hire_date)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10, COALESCE($11::date, CURRENT_DATE))
		RETURNING to_char(hire_date, 'YYYY-MM-DD'), created_at, updated_at`,
		s.ID, s.Name, s.RoleID, s.DepartmentID, s.ShiftID, s.Phone, s.Email, s.CNIC, s.Gender, s.Salary, hire).
		Scan(&s.HireDate, &s.CreatedAt, &s.UpdatedAt)
	return apperr.FromDB(err, "staff member")
}

func (r *staffRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Staff, error) {
	s, err := scanStaff(r.conn(ctx).QueryRow(ctx, `SELECT `+staffCols+staffFrom+` WHERE s.id = $1`, id))
	if err != nil {
		return nil, apperr.FromDB(err, "staff member")
	}
	return s, nil
}

func (r *staffRepoPG) Update(ctx context.Context, s *Staff) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE staff SET name=$2, role_id=$3, department_id=$4, shift_id=$5, phone=$6, email=$7,
			cnic=$8, gender=$9, salary=$10, updated_at=NOW()
		WHERE id = $1`,
		s.ID, s.Name, s.RoleID, s.DepartmentID, s.ShiftID, s.Phone, s.Email, s.CNIC, s.Gender, s.Salary)
	if err != nil {
		return apperr.FromDB(err, "staff member")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("staff member not found")
	}
	return nil
}

func (r *staffRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM staff WHERE id = $1`, id)
	if err != nil {
		return apperr.FromDB(err, "staff member")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("staff member not found")
	}
	return nil
}

func (r *staffRepoPG) List(ctx context.Context, role string) ([]*Staff, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+staffCols+staffFrom+`
		WHERE $1 = '' OR lower(r.name) = lower($1)
		ORDER BY s.name`, role)
	if err != nil {
		return nil, apperr.FromDB(err, "staff member")
	}
	defer rows.Close()
	items := []*Staff{}
	for rows.Next() {
		s, err := scanStaff(rows)
		if err != nil {
			return nil, apperr.FromDB(err, "staff member")
		}
		items = append(items, s)
	}
	return items, apperr.FromDB(rows.Err(), "staff member")
}

func (r *staffRepoPG) CheckReferences(ctx context.Context, roleID uuid.UUID, departmentID, shiftID *uuid.UUID) (StaffReferences, error) {
	var refs StaffReferences
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM roles WHERE id = $1),
		       $2::uuid IS NULL OR EXISTS (SELECT 1 FROM departments WHERE id = $2),
		       $3::uuid IS NULL OR EXISTS (SELECT 1 FROM shifts WHERE id = $3)`,
		roleID, departmentID, shiftID).Scan(&refs.RoleOK, &refs.DepartmentOK, &refs.ShiftOK)
	return refs, apperr.FromDB(err, "staff member")
}

func (r *staffRepoPG) RoleName(ctx context.Context, roleID uuid.UUID) (string, error) {
	var name string
	err := r.conn(ctx).QueryRow(ctx, `SELECT name FROM roles WHERE id = $1`, roleID).Scan(&name)
	return name, apperr.FromDB(err, "role")
}

func (r *staffRepoPG) UpsertDoctor(ctx context.Context, staffID uuid.UUID, p *DoctorProfile) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO doctors (id, staff_id, specialization, base_fee, followup_fee)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (staff_id) DO UPDATE
		SET specialization = EXCLUDED.specialization,
		    base_fee = EXCLUDED.base_fee,
		    followup_fee = EXCLUDED.followup_fee`,
		uuid.New(), staffID, p.Specialization, p.BaseFee, p.FollowupFee)
	return apperr.FromDB(err, "doctor")
}

const doctorSelect = `SELECT doc.id, doc.staff_id, s.name, doc.specialization, d.name,
	doc.base_fee::float8, doc.followup_fee::float8
	FROM doctors doc
	JOIN staff s ON s.id = doc.staff_id
	LEFT JOIN departments d ON d.id = s.department_id`

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	err := row.Scan(&d.ID, &d.StaffID, &d.Name, &d.Specialization, &d.DepartmentName, &d.BaseFee, &d.FollowupFee)
	return &d, err
}

func (r *staffRepoPG) ListDoctors(ctx context.Context) ([]*Doctor, error) {
	rows, err := r.conn(ctx).Query(ctx, doctorSelect+` ORDER BY s.name`)
	if err != nil {
		return nil, apperr.FromDB(err, "doctor")
	}
	defer rows.Close()
	items := []*Doctor{}
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, apperr.FromDB(err, "doctor")
		}
		items = append(items, d)
	}
	return items, apperr.FromDB(rows.Err(), "doctor")
}

func (r *staffRepoPG) GetDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	d, err := scanDoctor(r.conn(ctx).QueryRow(ctx, doctorSelect+` WHERE doc.id = $1`, id))
	if err != nil {
		return nil, apperr.FromDB(err, "doctor")
	}
	return d, nil
}

func (r *staffRepoPG) ListRoles(ctx context.Context) ([]*Role, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT id, name FROM roles ORDER BY name`)
	if err != nil {
		return nil, apperr.FromDB(err, "role")
	}
	defer rows.Close()
	items := []*Role{}
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.Name); err != nil {
			return nil, apperr.FromDB(err, "role")
		}
		items = append(items, &role)
	}
	return items, apperr.FromDB(rows.Err(), "role")
}

func (r *staffRepoPG) ListShifts(ctx context.Context) ([]*Shift, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, shift_type, to_char(start_time, 'HH24:MI'), to_char(end_time, 'HH24:MI')
		FROM shifts ORDER BY start_time`)
	if err != nil {
		return nil, apperr.FromDB(err, "shift")
	}
	defer rows.Close()
	items := []*Shift{}
	for rows.Next() {
		var sh Shift
		if err := rows.Scan(&sh.ID, &sh.ShiftType, &sh.StartTime, &sh.EndTime); err != nil {
			return nil, apperr.FromDB(err, "shift")
		}
		items = append(items, &sh)
	}
	return items, apperr.FromDB(rows.Err(), "shift")
}
