package admission

import (
	"time"

	"github.com/google/uuid"
)

const DateLayout = "2006-01-02"

const (
	StatusAdmitted   = "Admitted"
	StatusScheduled  = "Scheduled"
	StatusDischarged = "Discharged"
)

type Admission struct {
	ID                uuid.UUID  `json:"id"`
	PatientID         uuid.UUID  `json:"patient_id"`
	WardID            uuid.UUID  `json:"ward_id"`
	DoctorID          *uuid.UUID `json:"doctor_id,omitempty"`
	AdmissionType     string     `json:"admission_type"`
	Reason            *string    `json:"reason,omitempty"`
	DateAdmitted      string     `json:"date_admitted,omitempty"`
	ExpectedDischarge *string    `json:"expected_discharge,omitempty"`
	SurgeryRequired   bool       `json:"surgery_required"`
	Status            string     `json:"status"`
	DischargedAt      *time.Time `json:"discharged_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`

	PatientName *string `json:"patient_name,omitempty"`
	WardName    *string `json:"ward_name,omitempty"`
	DoctorName  *string `json:"doctor_name,omitempty"`
}

// AdministeredMedicine is one dose given on the ward.
type AdministeredMedicine struct {
	ID             uuid.UUID `json:"id"`
	AdmissionID    uuid.UUID `json:"admission_id"`
	MedicineID     uuid.UUID `json:"medicine_id"`
	Quantity       int       `json:"quantity"`
	Name           string    `json:"name,omitempty"`
	Price          float64   `json:"price,omitempty"`
	Total          float64   `json:"total,omitempty"`
	AdministeredAt time.Time `json:"administered_at"`
}

type Discharge struct {
	Admission     *Admission              `json:"admission"`
	FeeID         uuid.UUID               `json:"fee_id"`
	Medicines     []*AdministeredMedicine `json:"medicines"`
	MedicineTotal float64                 `json:"medicine_total"`
	Total         float64                 `json:"total"`
}
