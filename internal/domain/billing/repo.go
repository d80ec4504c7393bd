package billing

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hospital/hms/pkg/pagination"
)

type FeeRepository interface {
	Create(ctx context.Context, f *Fee) error
	GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*Fee, error)
	ExistsForAppointment(ctx context.Context, appointmentID uuid.UUID) (bool, error)
	// MarkPaid flips any Pending fee of the appointment to Paid.
	MarkPaid(ctx context.Context, appointmentID uuid.UUID, at time.Time) (int64, error)
	List(ctx context.Context, page pagination.Params) ([]*FeeListItem, int, error)
	DoctorFees(ctx context.Context, doctorID uuid.UUID) (*DoctorFees, error)
	Parties(ctx context.Context, patientID, doctorID uuid.UUID) (*Parties, error)
}
