package clinical

import (
	"context"

	"github.com/google/uuid"

	"github.com/hospital/hms/pkg/pagination"
)

type MedicalRecordRepository interface {
	// Create reports false when the appointment already has a record.
	Create(ctx context.Context, r *MedicalRecord) (bool, error)
	ListRecent(ctx context.Context, patientID uuid.UUID, n int) ([]*MedicalRecord, error)
	ListForPatient(ctx context.Context, patientID uuid.UUID, page pagination.Params) ([]*MedicalRecord, int, error)
}
