package identity

import (
	"context"

	"github.com/google/uuid"
)

type PatientRepository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]*Patient, error)
	// ListWithoutActiveAppointments omits patients holding a Scheduled or
	// Completed appointment.
	ListWithoutActiveAppointments(ctx context.Context) ([]*Patient, error)
	CNICExists(ctx context.Context, cnic string) (bool, error)
}

type StaffRepository interface {
	Create(ctx context.Context, s *Staff) error
	GetByID(ctx context.Context, id uuid.UUID) (*Staff, error)
	Update(ctx context.Context, s *Staff) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, role string) ([]*Staff, error)
	CheckReferences(ctx context.Context, roleID uuid.UUID, departmentID, shiftID *uuid.UUID) (StaffReferences, error)
	RoleName(ctx context.Context, roleID uuid.UUID) (string, error)
	UpsertDoctor(ctx context.Context, staffID uuid.UUID, profile *DoctorProfile) error
	ListDoctors(ctx context.Context) ([]*Doctor, error)
	GetDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error)
	ListRoles(ctx context.Context) ([]*Role, error)
	ListShifts(ctx context.Context) ([]*Shift, error)
}
