package account

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hospital/hms/internal/platform/apperr"
	"github.com/hospital/hms/internal/platform/db"
)

type loginRepoPG struct{ pool *pgxpool.Pool }

func NewLoginRepoPG(pool *pgxpool.Pool) LoginRepository { return &loginRepoPG{pool: pool} }

func (r *loginRepoPG) conn(ctx context.Context) db.Querier { return db.Conn(ctx, r.pool) }

func (r *loginRepoPG) Create(ctx context.Context, l *Login) error {
	l.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO user_logins (id, username, password_hash, staff_id, patient_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`,
		l.ID, l.Username, l.PasswordHash, l.StaffID, l.PatientID).Scan(&l.CreatedAt)
	if apperr.Is(apperr.FromDB(err, "username"), apperr.KindConflict) {
		return apperr.Conflict("Username already exists")
	}
	return apperr.FromDB(err, "login")
}

func (r *loginRepoPG) GetByUsername(ctx context.Context, username string) (*Login, error) {
	var l Login
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, username, password_hash, staff_id, patient_id, created_at
		FROM user_logins WHERE username = $1`, username).
		Scan(&l.ID, &l.Username, &l.PasswordHash, &l.StaffID, &l.PatientID, &l.CreatedAt)
	if err != nil {
		return nil, apperr.FromDB(err, "login")
	}
	return &l, nil
}

func (r *loginRepoPG) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM user_logins WHERE username = $1)`, username).Scan(&exists)
	return exists, apperr.FromDB(err, "login")
}

func (r *loginRepoPG) StaffProfile(ctx context.Context, staffID uuid.UUID) (*StaffProfile, error) {
	var p StaffProfile
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT s.id, s.name, lower(r.name), sh.shift_type
		FROM staff s
		JOIN roles r ON r.id = s.role_id
		LEFT JOIN shifts sh ON sh.id = s.shift_id
		WHERE s.id = $1`, staffID).Scan(&p.StaffID, &p.Name, &p.Role, &p.Shift)
	if err != nil {
		return nil, apperr.FromDB(err, "staff member")
	}
	return &p, nil
}

func (r *loginRepoPG) PatientProfile(ctx context.Context, patientID uuid.UUID) (*PatientProfile, error) {
	var p PatientProfile
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT p.id, p.name, bg.name
		FROM patients p
		LEFT JOIN blood_groups bg ON bg.id = p.blood_group_id
		WHERE p.id = $1`, patientID).Scan(&p.PatientID, &p.Name, &p.BloodGroup)
	if err != nil {
		return nil, apperr.FromDB(err, "patient")
	}
	return &p, nil
}
