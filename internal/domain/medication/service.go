package medication

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hospital/hms/internal/domain/scheduling"
	"github.com/hospital/hms/internal/platform/apperr"
	"github.com/hospital/hms/internal/platform/db"
)

// AppointmentLocker reads an appointment under a row lock.
type AppointmentLocker interface {
	LockAppointment(ctx context.Context, id uuid.UUID) (*scheduling.Appointment, error)
}

type Service struct {
	medicines     MedicineRepository
	prescriptions PrescriptionRepository
	appointments  AppointmentLocker
	tx            db.Transactor
}

func NewService(medicines MedicineRepository, prescriptions PrescriptionRepository, appointments AppointmentLocker, tx db.Transactor) *Service {
	return &Service{medicines: medicines, prescriptions: prescriptions, appointments: appointments, tx: tx}
}

// -- Medicines --

func (s *Service) CreateMedicine(ctx context.Context, m *Medicine) error {
	m.Name = strings.TrimSpace(m.Name)
	if m.Name == "" {
		return apperr.Validation("name is required")
	}
	if m.Price < 0 {
		return apperr.Validation("price must not be negative")
	}
	if m.Quantity < 0 {
		return apperr.Validation("quantity must not be negative")
	}
	return s.medicines.Create(ctx, m)
}

func (s *Service) GetMedicine(ctx context.Context, id uuid.UUID) (*Medicine, error) {
	return s.medicines.GetByID(ctx, id)
}

func (s *Service) ListMedicines(ctx context.Context) ([]*Medicine, error) {
	return s.medicines.List(ctx)
}

func (s *Service) Restock(ctx context.Context, id uuid.UUID, qty int) (*Medicine, error) {
	if qty <= 0 {
		return nil, apperr.Validation("quantity must be positive")
	}
	return s.medicines.Restock(ctx, id, qty)
}

// Dispense takes qty units of a medicine out of stock, failing without
// effect when fewer are available.
func (s *Service) Dispense(ctx context.Context, medicineID uuid.UUID, qty int) error {
	if qty <= 0 {
		return apperr.Validation("quantity must be positive")
	}
	return s.medicines.Decrement(ctx, medicineID, qty)
}

// Price returns the unit price of a medicine.
func (s *Service) Price(ctx context.Context, medicineID uuid.UUID) (float64, error) {
	m, err := s.medicines.GetByID(ctx, medicineID)
	if err != nil {
		return 0, err
	}
	return m.Price, nil
}

// -- Prescriptions --

// aggregateLines merges lines naming the same medicine, keeping first-seen
// order. A missing quantity counts as one.
func aggregateLines(lines []*PrescriptionLine) ([]*PrescriptionLine, error) {
	byID := map[uuid.UUID]*PrescriptionLine{}
	out := []*PrescriptionLine{}
	for _, l := range lines {
		if l == nil || l.MedicineID == uuid.Nil {
			return nil, apperr.Validation("every medicine needs a medicine_id")
		}
		qty := l.Quantity
		if qty == 0 {
			qty = 1
		}
		if qty < 0 {
			return nil, apperr.Validation("quantity must be positive")
		}
		if existing, ok := byID[l.MedicineID]; ok {
			existing.Quantity += qty
			continue
		}
		merged := &PrescriptionLine{MedicineID: l.MedicineID, Quantity: qty}
		byID[l.MedicineID] = merged
		out = append(out, merged)
	}
	return out, nil
}

func validatePrescription(p *Prescription) error {
	p.Diagnosis = strings.TrimSpace(p.Diagnosis)
	if p.AppointmentID == uuid.Nil {
		return apperr.Validation("appointment_id is required")
	}
	if p.Diagnosis == "" {
		return apperr.Validation("diagnosis is required")
	}
	if p.FollowUpDate != nil && *p.FollowUpDate == "" {
		p.FollowUpDate = nil
	}
	if p.FollowUpDate != nil {
		if _, err := time.Parse(DateLayout, *p.FollowUpDate); err != nil {
			return apperr.Validation("follow_up_date must be YYYY-MM-DD")
		}
	}
	if p.FollowUpRequired && p.FollowUpDate == nil {
		return apperr.Validation("follow_up_date is required when a follow-up is required")
	}
	return nil
}

// CreatePrescription records the prescription and dispenses its medicines.
// Every check runs before the first write and the writes share one
// transaction, so a rejected prescription changes no stock.
func (s *Service) CreatePrescription(ctx context.Context, p *Prescription) error {
	if err := validatePrescription(p); err != nil {
		return err
	}
	lines, err := aggregateLines(p.Lines)
	if err != nil {
		return err
	}
	p.Lines = lines

	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		a, err := s.appointments.LockAppointment(ctx, p.AppointmentID)
		if err != nil {
			return err
		}
		switch a.Status {
		case scheduling.StatusCompleted:
			return apperr.Conflict("Cannot write prescription for completed appointment")
		case scheduling.StatusCancelled:
			return apperr.Conflict("Cannot write prescription for cancelled appointment")
		}
		exists, err := s.prescriptions.ExistsForAppointment(ctx, p.AppointmentID)
		if err != nil {
			return err
		}
		if exists {
			return apperr.Conflict("prescription already exists for this appointment")
		}
		if err := s.checkStock(ctx, p.Lines); err != nil {
			return err
		}

		if err := s.prescriptions.Create(ctx, p); err != nil {
			return err
		}
		for _, l := range p.Lines {
			if err := s.medicines.Decrement(ctx, l.MedicineID, l.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
}

// checkStock verifies every line and fills in its price details.
func (s *Service) checkStock(ctx context.Context, lines []*PrescriptionLine) error {
	if len(lines) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(lines))
	for i, l := range lines {
		ids[i] = l.MedicineID
	}
	found, err := s.medicines.GetMany(ctx, ids)
	if err != nil {
		return err
	}
	for _, l := range lines {
		m, ok := found[l.MedicineID]
		if !ok {
			return apperr.NotFound("Medicine with ID %s not found", l.MedicineID)
		}
		if m.Quantity < l.Quantity {
			return apperr.InsufficientStock("Insufficient stock for %s. Available: %d, Requested: %d",
				m.Name, m.Quantity, l.Quantity)
		}
		l.Name = m.Name
		l.Price = m.Price
		l.Usage = m.Usage
		l.Total = m.Price * float64(l.Quantity)
	}
	return nil
}

func (s *Service) GetPrescription(ctx context.Context, appointmentID uuid.UUID) (*Prescription, error) {
	return s.prescriptions.GetByAppointment(ctx, appointmentID)
}

// FindPrescription is GetPrescription that reports a missing prescription
// as nil rather than NotFound.
func (s *Service) FindPrescription(ctx context.Context, appointmentID uuid.UUID) (*Prescription, error) {
	p, err := s.prescriptions.GetByAppointment(ctx, appointmentID)
	if apperr.Is(err, apperr.KindNotFound) {
		return nil, nil
	}
	return p, err
}
