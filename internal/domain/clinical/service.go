package clinical

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/hospital/hms/internal/platform/apperr"
	"github.com/hospital/hms/pkg/pagination"
)

type Service struct {
	records MedicalRecordRepository
}

func NewService(records MedicalRecordRepository) *Service {
	return &Service{records: records}
}

func (s *Service) Create(ctx context.Context, rec *MedicalRecord) error {
	rec.Diagnosis = strings.TrimSpace(rec.Diagnosis)
	if rec.PatientID == uuid.Nil {
		return apperr.Validation("patient_id is required")
	}
	if rec.Diagnosis == "" {
		return apperr.Validation("diagnosis is required")
	}
	created, err := s.records.Create(ctx, rec)
	if err != nil {
		return err
	}
	if !created {
		return apperr.Conflict("appointment already has a medical record")
	}
	return nil
}

// RecordCompletion writes the summary for a completed appointment. A second
// call for the same appointment is a no-op.
func (s *Service) RecordCompletion(ctx context.Context, patientID, appointmentID uuid.UUID, diagnosis string) (bool, error) {
	diagnosis = strings.TrimSpace(diagnosis)
	if diagnosis == "" {
		return false, nil
	}
	return s.records.Create(ctx, &MedicalRecord{PatientID: patientID, AppointmentID: &appointmentID, Diagnosis: diagnosis})
}

// ListRecent returns the patient's n newest records, n clamped to [1, 50].
func (s *Service) ListRecent(ctx context.Context, patientID uuid.UUID, n int) ([]*MedicalRecord, error) {
	if n <= 0 {
		n = RecentLimit
	}
	if n > 50 {
		n = 50
	}
	return s.records.ListRecent(ctx, patientID, n)
}

func (s *Service) ListForPatient(ctx context.Context, patientID uuid.UUID, page pagination.Params) ([]*MedicalRecord, int, error) {
	return s.records.ListForPatient(ctx, patientID, page)
}
