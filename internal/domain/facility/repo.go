package facility

import (
	"context"

	"github.com/google/uuid"
)

type DepartmentRepository interface {
	Create(ctx context.Context, d *Department) error
	GetByID(ctx context.Context, id uuid.UUID) (*Department, error)
	Update(ctx context.Context, d *Department) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]*Department, error)
	ListWithWards(ctx context.Context) ([]*DepartmentWithWards, error)
}

type WardRepository interface {
	Create(ctx context.Context, w *Ward) error
	GetByID(ctx context.Context, id uuid.UUID) (*Ward, error)
	Update(ctx context.Context, w *Ward) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, departmentID *uuid.UUID) ([]*Ward, error)
	// Occupy takes one bed, failing when none is free.
	Occupy(ctx context.Context, id uuid.UUID) error
	Vacate(ctx context.Context, id uuid.UUID) error
}

// LookupRepository serves one of the simple name tables.
type LookupRepository interface {
	Create(ctx context.Context, l *Lookup) error
	Update(ctx context.Context, l *Lookup) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]*Lookup, error)
}
