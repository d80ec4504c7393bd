package identity

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hospital/hms/internal/platform/apperr"
	"github.com/hospital/hms/internal/platform/auth"
	"github.com/hospital/hms/internal/platform/db"
)

// WardLedger moves ward beds as patients are placed and removed.
type WardLedger interface {
	Occupy(ctx context.Context, wardID uuid.UUID) error
	Vacate(ctx context.Context, wardID uuid.UUID) error
}

// LoginCreator provisions the login used by a self-registered patient.
type LoginCreator interface {
	UsernameExists(ctx context.Context, username string) (bool, error)
	CreatePatientLogin(ctx context.Context, username, password string, patientID uuid.UUID) error
}

type Service struct {
	patients PatientRepository
	staff    StaffRepository
	wards    WardLedger
	logins   LoginCreator
	tx       db.Transactor
}

func NewService(patients PatientRepository, staff StaffRepository, wards WardLedger, logins LoginCreator, tx db.Transactor) *Service {
	return &Service{patients: patients, staff: staff, wards: wards, logins: logins, tx: tx}
}

// -- Patients --

func validateDate(field string, v *string) error {
	if v == nil || *v == "" {
		return nil
	}
	if _, err := time.Parse(DateLayout, *v); err != nil {
		return apperr.Validation("%s must be YYYY-MM-DD", field)
	}
	return nil
}

func validatePatient(p *Patient) error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return apperr.Validation("name is required")
	}
	return validateDate("date_of_birth", p.DateOfBirth)
}

func blank(v *string) bool { return v == nil || strings.TrimSpace(*v) == "" }

// validateRegistration applies the stricter front-desk rules on top of
// validatePatient.
func validateRegistration(p *Patient) error {
	if err := validatePatient(p); err != nil {
		return err
	}
	var missing []string
	if blank(p.Phone) {
		missing = append(missing, "phone")
	}
	if blank(p.CNIC) {
		missing = append(missing, "cnic")
	}
	if blank(p.Gender) {
		missing = append(missing, "gender")
	}
	if p.BloodGroupID == nil {
		missing = append(missing, "blood_group_id")
	}
	if blank(p.RelativeName) {
		missing = append(missing, "relative_name")
	}
	if len(missing) > 0 {
		return apperr.Validation("missing required fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

func (s *Service) CreatePatient(ctx context.Context, p *Patient) error {
	if err := validatePatient(p); err != nil {
		return err
	}
	return s.insertPatient(ctx, p)
}

func (s *Service) insertPatient(ctx context.Context, p *Patient) error {
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if p.WardID != nil {
			if err := s.wards.Occupy(ctx, *p.WardID); err != nil {
				return err
			}
		}
		return s.patients.Create(ctx, p)
	})
}

// RegisterPatient is the receptionist registration path.
func (s *Service) RegisterPatient(ctx context.Context, p *Patient) error {
	if err := validateRegistration(p); err != nil {
		return err
	}
	if err := s.ensureCNICFree(ctx, *p.CNIC); err != nil {
		return err
	}
	return s.insertPatient(ctx, p)
}

// SelfRegister creates the patient and its login together.
func (s *Service) SelfRegister(ctx context.Context, r *SelfRegistration) error {
	if err := validateRegistration(&r.Patient); err != nil {
		return err
	}
	r.Username = strings.TrimSpace(r.Username)
	if r.Username == "" || r.Password == "" {
		return apperr.Validation("username and password are required")
	}
	if len(r.Password) < auth.MinPasswordLength {
		return apperr.Validation("password must be at least %d characters", auth.MinPasswordLength)
	}
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		taken, err := s.logins.UsernameExists(ctx, r.Username)
		if err != nil {
			return err
		}
		if taken {
			return apperr.Conflict("Username already exists")
		}
		if err := s.ensureCNICFree(ctx, *r.CNIC); err != nil {
			return err
		}
		if err := s.insertPatient(ctx, &r.Patient); err != nil {
			return err
		}
		return s.logins.CreatePatientLogin(ctx, r.Username, r.Password, r.ID)
	})
}

func (s *Service) ensureCNICFree(ctx context.Context, cnic string) error {
	exists, err := s.patients.CNICExists(ctx, strings.TrimSpace(cnic))
	if err != nil {
		return err
	}
	if exists {
		return apperr.Conflict("Patient with this CNIC already exists")
	}
	return nil
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.patients.GetByID(ctx, id)
}

func (s *Service) ListPatients(ctx context.Context) ([]*Patient, error) {
	return s.patients.List(ctx)
}

func (s *Service) ListPatientsWithoutAppointments(ctx context.Context) ([]*Patient, error) {
	return s.patients.ListWithoutActiveAppointments(ctx)
}

func sameWard(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// UpdatePatient moves the patient's bed when the ward changes.
func (s *Service) UpdatePatient(ctx context.Context, p *Patient) error {
	if err := validatePatient(p); err != nil {
		return err
	}
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.patients.GetByID(ctx, p.ID)
		if err != nil {
			return err
		}
		if !sameWard(current.WardID, p.WardID) {
			if current.WardID != nil {
				if err := s.wards.Vacate(ctx, *current.WardID); err != nil {
					return err
				}
			}
			if p.WardID != nil {
				if err := s.wards.Occupy(ctx, *p.WardID); err != nil {
					return err
				}
			}
		}
		return s.patients.Update(ctx, p)
	})
}

func (s *Service) DeletePatient(ctx context.Context, id uuid.UUID) error {
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		p, err := s.patients.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := s.patients.Delete(ctx, id); err != nil {
			return err
		}
		if p.WardID != nil {
			return s.wards.Vacate(ctx, *p.WardID)
		}
		return nil
	})
}

// -- Staff --

func validateStaff(st *Staff) error {
	st.Name = strings.TrimSpace(st.Name)
	if st.Name == "" {
		return apperr.Validation("name is required")
	}
	if st.RoleID == uuid.Nil {
		return apperr.Validation("role_id is required")
	}
	if st.Salary < 0 {
		return apperr.Validation("salary must not be negative")
	}
	if st.HireDate != "" {
		if _, err := time.Parse(DateLayout, st.HireDate); err != nil {
			return apperr.Validation("hire_date must be YYYY-MM-DD")
		}
	}
	if d := st.Doctor; d != nil && (d.BaseFee < 0 || d.FollowupFee < 0) {
		return apperr.Validation("doctor fees must not be negative")
	}
	return nil
}

func (s *Service) checkReferences(ctx context.Context, st *Staff) error {
	refs, err := s.staff.CheckReferences(ctx, st.RoleID, st.DepartmentID, st.ShiftID)
	if err != nil {
		return err
	}
	var bad []string
	if !refs.RoleOK {
		bad = append(bad, "role_id")
	}
	if !refs.DepartmentOK {
		bad = append(bad, "department_id")
	}
	if !refs.ShiftOK {
		bad = append(bad, "shift_id")
	}
	if len(bad) > 0 {
		return apperr.Validation("Invalid references: %s", strings.Join(bad, ", "))
	}
	return nil
}

// saveDoctorProfile keeps the doctors row in step with a doctor-role staff
// member. Other roles carry no profile.
func (s *Service) saveDoctorProfile(ctx context.Context, st *Staff) error {
	role, err := s.staff.RoleName(ctx, st.RoleID)
	if err != nil {
		return err
	}
	if !strings.EqualFold(role, auth.RoleDoctor) {
		st.Doctor = nil
		return nil
	}
	if st.Doctor == nil {
		st.Doctor = &DoctorProfile{}
	}
	return s.staff.UpsertDoctor(ctx, st.ID, st.Doctor)
}

func (s *Service) CreateStaff(ctx context.Context, st *Staff) error {
	if err := validateStaff(st); err != nil {
		return err
	}
	if err := s.checkReferences(ctx, st); err != nil {
		return err
	}
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.staff.Create(ctx, st); err != nil {
			return err
		}
		return s.saveDoctorProfile(ctx, st)
	})
}

func (s *Service) UpdateStaff(ctx context.Context, st *Staff) error {
	if err := validateStaff(st); err != nil {
		return err
	}
	if err := s.checkReferences(ctx, st); err != nil {
		return err
	}
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.staff.Update(ctx, st); err != nil {
			return err
		}
		return s.saveDoctorProfile(ctx, st)
	})
}

func (s *Service) DeleteStaff(ctx context.Context, id uuid.UUID) error {
	return s.staff.Delete(ctx, id)
}

func (s *Service) GetStaff(ctx context.Context, id uuid.UUID) (*Staff, error) {
	return s.staff.GetByID(ctx, id)
}

// ListStaff filters by role name when role is not empty.
func (s *Service) ListStaff(ctx context.Context, role string) ([]*Staff, error) {
	return s.staff.List(ctx, strings.TrimSpace(role))
}

func (s *Service) ListDoctors(ctx context.Context) ([]*Doctor, error) {
	return s.staff.ListDoctors(ctx)
}

func (s *Service) GetDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return s.staff.GetDoctor(ctx, id)
}

func (s *Service) ListRoles(ctx context.Context) ([]*Role, error) {
	return s.staff.ListRoles(ctx)
}

func (s *Service) ListShifts(ctx context.Context) ([]*Shift, error) {
	return s.staff.ListShifts(ctx)
}
