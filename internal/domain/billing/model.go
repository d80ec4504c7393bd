package billing

import (
	"time"

	"github.com/google/uuid"

	"github.com/hospital/hms/internal/domain/clinical"
)

const (
	FeeStatusPending = "Pending"
	FeeStatusPaid    = "Paid"
)

// Fee is one bill. Exactly one of AppointmentID and AdmissionID is set.
type Fee struct {
	ID            uuid.UUID  `json:"id"`
	PatientID     uuid.UUID  `json:"patient_id"`
	AppointmentID *uuid.UUID `json:"appointment_id,omitempty"`
	AdmissionID   *uuid.UUID `json:"admission_id,omitempty"`
	DoctorFee     float64    `json:"doctor_fee"`
	MedicineTotal float64    `json:"medicine_total"`
	Amount        float64    `json:"amount"`
	Status        string     `json:"status"`
	DatePaid      *time.Time `json:"date_paid,omitempty"`
	GeneratedBy   *string    `json:"generated_by,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// FeeListItem is a fee row with the patient's name for the admin list.
type FeeListItem struct {
	Fee
	PatientName string `json:"patient_name"`
}

type DoctorFees struct {
	Base     float64 `json:"base_fee"`
	FollowUp float64 `json:"followup_fee"`
}

// Parties names the patient and doctor on a bill.
type Parties struct {
	PatientName string
	DoctorName  string
}

type BillLine struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
	Total    float64 `json:"total"`
	Usage    *string `json:"usage,omitempty"`
}

type Bill struct {
	FeeID         uuid.UUID   `json:"fee_id"`
	AppointmentID uuid.UUID   `json:"appointment_id"`
	PatientName   string      `json:"patient_name"`
	DoctorName    string      `json:"doctor_name"`
	DoctorFee     float64     `json:"doctor_fee"`
	IsFollowUp    bool        `json:"is_follow_up"`
	Medicines     []*BillLine `json:"medicines"`
	MedicineTotal float64     `json:"medicine_total"`
	Total         float64     `json:"total"`
	Status        string      `json:"status"`
	GeneratedBy   string      `json:"generated_by"`
	GeneratedAt   time.Time   `json:"generated_at"`
}

// BillView is the printable bill of a completed appointment.
type BillView struct {
	HospitalName    string                    `json:"hospital_name"`
	AppointmentDate string                    `json:"appointment_date"`
	Bill            *Bill                     `json:"bill"`
	Diagnosis       *string                   `json:"diagnosis,omitempty"`
	MedicalRecords  []*clinical.MedicalRecord `json:"medical_records"`
}
