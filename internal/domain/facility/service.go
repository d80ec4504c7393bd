package facility

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/hospital/hms/internal/platform/apperr"
)

type Service struct {
	departments DepartmentRepository
	wards       WardRepository
	countries   LookupRepository
	bloodGroups LookupRepository
}

func NewService(dept DepartmentRepository, wards WardRepository, countries, bloodGroups LookupRepository) *Service {
	return &Service{departments: dept, wards: wards, countries: countries, bloodGroups: bloodGroups}
}

// -- Department --

func (s *Service) CreateDepartment(ctx context.Context, d *Department) error {
	d.Name = strings.TrimSpace(d.Name)
	if d.Name == "" {
		return apperr.Validation("name is required")
	}
	return s.departments.Create(ctx, d)
}

func (s *Service) UpdateDepartment(ctx context.Context, d *Department) error {
	d.Name = strings.TrimSpace(d.Name)
	if d.Name == "" {
		return apperr.Validation("name is required")
	}
	return s.departments.Update(ctx, d)
}

func (s *Service) DeleteDepartment(ctx context.Context, id uuid.UUID) error {
	return s.departments.Delete(ctx, id)
}

func (s *Service) ListDepartments(ctx context.Context) ([]*Department, error) {
	return s.departments.List(ctx)
}

func (s *Service) ListDepartmentsWithWards(ctx context.Context) ([]*DepartmentWithWards, error) {
	return s.departments.ListWithWards(ctx)
}

// -- Ward --

func validateWard(w *Ward) error {
	w.Name = strings.TrimSpace(w.Name)
	if w.Name == "" {
		return apperr.Validation("name is required")
	}
	if w.DepartmentID == uuid.Nil {
		return apperr.Validation("department_id is required")
	}
	if w.Capacity < 0 {
		return apperr.Validation("capacity must not be negative")
	}
	return nil
}

func (s *Service) CreateWard(ctx context.Context, w *Ward) error {
	if err := validateWard(w); err != nil {
		return err
	}
	return s.wards.Create(ctx, w)
}

func (s *Service) UpdateWard(ctx context.Context, w *Ward) error {
	if err := validateWard(w); err != nil {
		return err
	}
	return s.wards.Update(ctx, w)
}

func (s *Service) DeleteWard(ctx context.Context, id uuid.UUID) error {
	return s.wards.Delete(ctx, id)
}

func (s *Service) GetWard(ctx context.Context, id uuid.UUID) (*Ward, error) {
	return s.wards.GetByID(ctx, id)
}

func (s *Service) ListWards(ctx context.Context, departmentID *uuid.UUID) ([]*Ward, error) {
	return s.wards.List(ctx, departmentID)
}

func (s *Service) WardNurse(ctx context.Context, id uuid.UUID) (*WardNurse, error) {
	w, err := s.wards.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &WardNurse{WardID: w.ID, NurseID: w.NurseID}, nil
}

// Occupy and Vacate move one bed. Callers that pair them with a patient
// write run both inside the same transaction.
func (s *Service) Occupy(ctx context.Context, wardID uuid.UUID) error {
	return s.wards.Occupy(ctx, wardID)
}

func (s *Service) Vacate(ctx context.Context, wardID uuid.UUID) error {
	return s.wards.Vacate(ctx, wardID)
}

// -- Countries and blood groups --

func (s *Service) Countries() *LookupService { return &LookupService{repo: s.countries} }

func (s *Service) BloodGroups() *LookupService { return &LookupService{repo: s.bloodGroups} }

// LookupService validates writes to a name table.
type LookupService struct {
	repo LookupRepository
}

func (l *LookupService) Create(ctx context.Context, item *Lookup) error {
	item.Name = strings.TrimSpace(item.Name)
	if item.Name == "" {
		return apperr.Validation("name is required")
	}
	return l.repo.Create(ctx, item)
}

func (l *LookupService) Update(ctx context.Context, item *Lookup) error {
	item.Name = strings.TrimSpace(item.Name)
	if item.Name == "" {
		return apperr.Validation("name is required")
	}
	return l.repo.Update(ctx, item)
}

func (l *LookupService) Delete(ctx context.Context, id uuid.UUID) error {
	return l.repo.Delete(ctx, id)
}

func (l *LookupService) List(ctx context.Context) ([]*Lookup, error) {
	return l.repo.List(ctx)
}
