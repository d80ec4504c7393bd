package admission

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hospital/hms/internal/domain/billing"
	"github.com/hospital/hms/internal/platform/apperr"
	"github.com/hospital/hms/internal/platform/db"
)

// Stock takes medicine out of the pharmacy.
type Stock interface {
	Dispense(ctx context.Context, medicineID uuid.UUID, qty int) error
}

// Charger records the fee of a discharged admission.
type Charger interface {
	ChargeAdmission(ctx context.Context, patientID, admissionID uuid.UUID, medicineTotal float64, generatedBy string) (*billing.Fee, error)
}

type Service struct {
	admissions AdmissionRepository
	stock      Stock
	fees       Charger
	tx         db.Transactor
	now        func() time.Time
}

func NewService(admissions AdmissionRepository, stock Stock, fees Charger, tx db.Transactor) *Service {
	return &Service{admissions: admissions, stock: stock, fees: fees, tx: tx, now: time.Now}
}

func validateAdmission(a *Admission) error {
	a.AdmissionType = strings.TrimSpace(a.AdmissionType)
	var missing []string
	if a.PatientID == uuid.Nil {
		missing = append(missing, "patient_id")
	}
	if a.WardID == uuid.Nil {
		missing = append(missing, "ward_id")
	}
	if a.AdmissionType == "" {
		missing = append(missing, "admission_type")
	}
	if len(missing) > 0 {
		return apperr.Validation("Missing required fields: %s", strings.Join(missing, ", "))
	}
	switch a.Status {
	case "":
		a.Status = StatusAdmitted
	case StatusAdmitted, StatusScheduled:
	default:
		return apperr.Validation("status must be %s or %s", StatusAdmitted, StatusScheduled)
	}
	if a.DateAdmitted != "" {
		if _, err := time.Parse(DateLayout, a.DateAdmitted); err != nil {
			return apperr.Validation("date_admitted must be YYYY-MM-DD")
		}
	}
	if a.ExpectedDischarge != nil {
		if _, err := time.Parse(DateLayout, *a.ExpectedDischarge); err != nil {
			return apperr.Validation("expected_discharge must be YYYY-MM-DD")
		}
		if a.DateAdmitted != "" && *a.ExpectedDischarge < a.DateAdmitted {
			return apperr.Validation("expected_discharge is before date_admitted")
		}
	}
	return nil
}

func (s *Service) Admit(ctx context.Context, a *Admission) error {
	if err := validateAdmission(a); err != nil {
		return err
	}
	return s.admissions.Create(ctx, a)
}

func (s *Service) GetAdmission(ctx context.Context, id uuid.UUID) (*Admission, error) {
	return s.admissions.GetByID(ctx, id)
}

func (s *Service) ListAdmissions(ctx context.Context) ([]*Admission, error) {
	return s.admissions.List(ctx)
}

// AdministerMedicine records a dose and takes it out of stock together.
func (s *Service) AdministerMedicine(ctx context.Context, m *AdministeredMedicine) error {
	if m.MedicineID == uuid.Nil {
		return apperr.Validation("medicine_id is required")
	}
	if m.Quantity <= 0 {
		return apperr.Validation("quantity must be positive")
	}
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		a, err := s.admissions.GetForUpdate(ctx, m.AdmissionID)
		if err != nil {
			return err
		}
		if a.Status == StatusDischarged {
			return apperr.Conflict("Patient already discharged")
		}
		if err := s.stock.Dispense(ctx, m.MedicineID, m.Quantity); err != nil {
			return err
		}
		return s.admissions.AddMedicine(ctx, m)
	})
}

func (s *Service) ListMedicines(ctx context.Context, admissionID uuid.UUID) ([]*AdministeredMedicine, error) {
	if _, err := s.admissions.GetByID(ctx, admissionID); err != nil {
		return nil, err
	}
	return s.admissions.ListMedicines(ctx, admissionID)
}

// DischargeAndBill charges every administered medicine and discharges the
// patient in one transaction.
func (s *Service) DischargeAndBill(ctx context.Context, admissionID uuid.UUID, generatedBy string) (*Discharge, error) {
	var out *Discharge
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		a, err := s.admissions.GetForUpdate(ctx, admissionID)
		if err != nil {
			return err
		}
		if a.Status == StatusDischarged {
			return apperr.Conflict("Patient already discharged")
		}
		meds, err := s.admissions.ListMedicines(ctx, a.ID)
		if err != nil {
			return err
		}
		var total float64
		for _, m := range meds {
			total += m.Price * float64(m.Quantity)
		}
		fee, err := s.fees.ChargeAdmission(ctx, a.PatientID, a.ID, total, generatedBy)
		if err != nil {
			return err
		}
		at := s.now()
		if err := s.admissions.Discharge(ctx, a.ID, at); err != nil {
			return err
		}
		a.Status, a.DischargedAt = StatusDischarged, &at
		out = &Discharge{Admission: a, FeeID: fee.ID, Medicines: meds, MedicineTotal: total, Total: fee.Amount}
		return nil
	})
	return out, err
}
