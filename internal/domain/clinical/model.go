package clinical

import (
	"time"

	"github.com/google/uuid"
)

// RecentLimit is how many medical records a bill view shows.
const RecentLimit = 5

type MedicalRecord struct {
	ID            uuid.UUID  `json:"id"`
	PatientID     uuid.UUID  `json:"patient_id"`
	AppointmentID *uuid.UUID `json:"appointment_id,omitempty"`
	Diagnosis     string     `json:"diagnosis"`
	CreatedAt     time.Time  `json:"created_at"`
}
