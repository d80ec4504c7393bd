package medication

import (
	"context"

	"github.com/google/uuid"
)

type MedicineRepository interface {
	Create(ctx context.Context, m *Medicine) error
	GetByID(ctx context.Context, id uuid.UUID) (*Medicine, error)
	// GetMany returns the medicines that exist among ids.
	GetMany(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*Medicine, error)
	List(ctx context.Context) ([]*Medicine, error)
	Restock(ctx context.Context, id uuid.UUID, qty int) (*Medicine, error)
	// Decrement takes qty units only if at least qty are in stock.
	Decrement(ctx context.Context, id uuid.UUID, qty int) error
}

type PrescriptionRepository interface {
	// Create writes the header and its lines.
	Create(ctx context.Context, p *Prescription) error
	ExistsForAppointment(ctx context.Context, appointmentID uuid.UUID) (bool, error)
	GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*Prescription, error)
}
