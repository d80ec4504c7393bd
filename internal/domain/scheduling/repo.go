package scheduling

import (
	"context"

	"github.com/google/uuid"
)

type TimingRepository interface {
	Create(ctx context.Context, t *Timing) error
	GetByID(ctx context.Context, id uuid.UUID) (*Timing, error)
	List(ctx context.Context) ([]*Timing, error)
	// ListByDoctor orders timings Monday to Sunday.
	ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*Timing, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DoctorsWithTimings(ctx context.Context) ([]*DoctorWithTimings, error)
}

// SlotRepository is the slot ledger's storage. Reserve is a compare-and-set
// on is_booked.
type SlotRepository interface {
	Create(ctx context.Context, s *Slot) error
	GetByID(ctx context.Context, id uuid.UUID) (*Slot, error)
	List(ctx context.Context, timingID *uuid.UUID) ([]*Slot, error)
	Reserve(ctx context.Context, id uuid.UUID) error
	Release(ctx context.Context, id uuid.UUID) error
	// ResetAll frees booked slots not held by a Scheduled appointment.
	ResetAll(ctx context.Context) (int64, error)
	// ReleaseExpired frees booked slots not held by a Scheduled appointment
	// dated on or after before.
	ReleaseExpired(ctx context.Context, before string) (int64, error)
}

type AppointmentRepository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	// GetForUpdate locks the row for the rest of the transaction.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*Appointment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	// CancelExpired moves Scheduled appointments dated before the cutoff to
	// Cancelled.
	CancelExpired(ctx context.Context, before string) (int64, error)
	Details(ctx context.Context, id uuid.UUID) (*AppointmentDetails, error)
	List(ctx context.Context) ([]*AppointmentView, error)
	ListOpenForDoctor(ctx context.Context, doctorID uuid.UUID, filter, today string) ([]*AppointmentView, error)
	CountCompleted(ctx context.Context, doctorID uuid.UUID, date string) (int, error)
	ListForPatient(ctx context.Context, patientID uuid.UUID) ([]*AppointmentView, error)
	DoctorIDForStaff(ctx context.Context, staffID uuid.UUID) (uuid.UUID, error)
}
