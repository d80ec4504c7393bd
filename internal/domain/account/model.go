package account

import (
	"time"

	"github.com/google/uuid"
)

// Login is one row of user_logins. Exactly one of StaffID and PatientID is set.
type Login struct {
	ID           uuid.UUID  `json:"id"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"`
	StaffID      *uuid.UUID `json:"staff_id,omitempty"`
	PatientID    *uuid.UUID `json:"patient_id,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// NewStaffLogin is the admin request that gives a staff member a login.
type NewStaffLogin struct {
	Username string    `json:"username"`
	Password string    `json:"password"`
	StaffID  uuid.UUID `json:"staff_id"`
}

type StaffProfile struct {
	StaffID uuid.UUID `json:"staff_id"`
	Name    string    `json:"name"`
	Role    string    `json:"role"`
	Shift   *string   `json:"shift,omitempty"`
}

type PatientProfile struct {
	PatientID  uuid.UUID `json:"patient_id"`
	Name       string    `json:"name"`
	BloodGroup *string   `json:"blood_group,omitempty"`
}

// Session is the login response. One of Staff and Patient is set.
type Session struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	Role      string          `json:"role"`
	Staff     *StaffProfile   `json:"staff,omitempty"`
	Patient   *PatientProfile `json:"patient,omitempty"`
}
