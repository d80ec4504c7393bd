package facility

import (
	"time"

	"github.com/google/uuid"
)

type Department struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Ward capacity counts free beds; it drops when a patient is assigned.
type Ward struct {
	ID             uuid.UUID  `json:"id"`
	Name           string     `json:"name"`
	DepartmentID   uuid.UUID  `json:"department_id"`
	DepartmentName string     `json:"department_name,omitempty"`
	Capacity       int        `json:"capacity"`
	NurseID        *uuid.UUID `json:"nurse_id,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// Lookup is a named reference row: a country or a blood group.
type Lookup struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type WardSummary struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Capacity int       `json:"capacity"`
}

type DepartmentWithWards struct {
	ID    uuid.UUID     `json:"id"`
	Name  string        `json:"name"`
	Wards []WardSummary `json:"wards"`
}

type WardNurse struct {
	WardID  uuid.UUID  `json:"ward_id"`
	NurseID *uuid.UUID `json:"nurse_id"`
}
