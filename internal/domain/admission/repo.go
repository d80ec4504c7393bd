package admission

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type AdmissionRepository interface {
	Create(ctx context.Context, a *Admission) error
	GetByID(ctx context.Context, id uuid.UUID) (*Admission, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*Admission, error)
	List(ctx context.Context) ([]*Admission, error)
	Discharge(ctx context.Context, id uuid.UUID, at time.Time) error

	AddMedicine(ctx context.Context, m *AdministeredMedicine) error
	// ListMedicines returns the doses with current medicine prices.
	ListMedicines(ctx context.Context, admissionID uuid.UUID) ([]*AdministeredMedicine, error)
}
