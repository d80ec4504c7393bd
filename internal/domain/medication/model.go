package medication

import (
	"time"

	"github.com/google/uuid"
)

const DateLayout = "2006-01-02"

type Medicine struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	Quantity  int       `json:"quantity"`
	Usage     *string   `json:"usage,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Restock struct {
	Quantity int `json:"quantity"`
}

// PrescriptionLine is one medicine on a prescription. Name, Price, Usage and
// Total are filled on read.
type PrescriptionLine struct {
	MedicineID uuid.UUID `json:"medicine_id"`
	Quantity   int       `json:"quantity"`
	Name       string    `json:"name,omitempty"`
	Price      float64   `json:"price,omitempty"`
	Usage      *string   `json:"usage,omitempty"`
	Total      float64   `json:"total,omitempty"`
}

type Prescription struct {
	ID               uuid.UUID           `json:"id"`
	AppointmentID    uuid.UUID           `json:"appointment_id"`
	Diagnosis        string              `json:"diagnosis"`
	FollowUpRequired bool                `json:"follow_up_required"`
	FollowUpDate     *string             `json:"follow_up_date,omitempty"`
	Notes            *string             `json:"notes,omitempty"`
	Lines            []*PrescriptionLine `json:"medicines"`
	CreatedAt        time.Time           `json:"created_at"`
}

// MedicineTotal is Σ price × quantity over the lines.
func (p *Prescription) MedicineTotal() float64 {
	var total float64
	for _, l := range p.Lines {
		total += l.Price * float64(l.Quantity)
	}
	return total
}

// IsFollowUp reports whether the prescription marks a follow-up visit on or
// after the given appointment date.
func (p *Prescription) IsFollowUp(appointmentDate string) bool {
	if !p.FollowUpRequired || p.FollowUpDate == nil {
		return false
	}
	return *p.FollowUpDate >= appointmentDate
}
