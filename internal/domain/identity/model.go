package identity

import (
	"time"

	"github.com/google/uuid"
)

// DateLayout is the wire and column format for calendar dates.
const DateLayout = "2006-01-02"

type Patient struct {
	ID             uuid.UUID  `json:"id"`
	Name           string     `json:"name"`
	Phone          *string    `json:"phone,omitempty"`
	CNIC           *string    `json:"cnic,omitempty"`
	Gender         *string    `json:"gender,omitempty"`
	BloodGroupID   *uuid.UUID `json:"blood_group_id,omitempty"`
	BloodGroup     *string    `json:"blood_group,omitempty"`
	CountryID      *uuid.UUID `json:"country_id,omitempty"`
	DateOfBirth    *string    `json:"date_of_birth,omitempty"`
	Address        *string    `json:"address,omitempty"`
	RelativeName   *string    `json:"relative_name,omitempty"`
	RelativePhone  *string    `json:"relative_phone,omitempty"`
	WardID         *uuid.UUID `json:"ward_id,omitempty"`
	WardName       *string    `json:"ward_name,omitempty"`
	DepartmentName *string    `json:"department_name,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// SelfRegistration is a patient record plus the credentials for its login.
type SelfRegistration struct {
	Patient
	Username string `json:"username"`
	Password string `json:"password"`
}

type Staff struct {
	ID             uuid.UUID  `json:"id"`
	Name           string     `json:"name"`
	RoleID         uuid.UUID  `json:"role_id"`
	RoleName       string     `json:"role,omitempty"`
	DepartmentID   *uuid.UUID `json:"department_id,omitempty"`
	DepartmentName *string    `json:"department_name,omitempty"`
	ShiftID        *uuid.UUID `json:"shift_id,omitempty"`
	ShiftType      *string    `json:"shift_type,omitempty"`
	Phone          *string    `json:"phone,omitempty"`
	Email          *string    `json:"email,omitempty"`
	CNIC           *string    `json:"cnic,omitempty"`
	Gender         *string    `json:"gender,omitempty"`
	Salary         float64    `json:"salary"`
	HireDate       string     `json:"hire_date,omitempty"`
	// Doctor is set when the staff member practises; it carries the fees.
	Doctor    *DoctorProfile `json:"doctor,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

type DoctorProfile struct {
	Specialization *string `json:"specialization,omitempty"`
	BaseFee        float64 `json:"base_fee"`
	FollowupFee    float64 `json:"followup_fee"`
}

type Doctor struct {
	ID             uuid.UUID `json:"id"`
	StaffID        uuid.UUID `json:"staff_id"`
	Name           string    `json:"name"`
	Specialization *string   `json:"specialization,omitempty"`
	DepartmentName *string   `json:"department_name,omitempty"`
	BaseFee        float64   `json:"base_fee"`
	FollowupFee    float64   `json:"followup_fee"`
}

type Role struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type Shift struct {
	ID        uuid.UUID `json:"id"`
	ShiftType string    `json:"shift_type"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
}

// StaffReferences reports which of a staff member's references resolve.
type StaffReferences struct {
	RoleOK       bool
	DepartmentOK bool
	ShiftOK      bool
}
