package scheduling

import (
	"time"

	"github.com/google/uuid"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"

	// DefaultSlotMinutes is used when a timing is created without a slot length.
	DefaultSlotMinutes = 30
)

// Appointment statuses. Completed and Cancelled are terminal.
const (
	StatusScheduled = "Scheduled"
	StatusCompleted = "Completed"
	StatusCancelled = "Cancelled"
)

// Weekdays lists clinical timing days in display order.
var Weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// Filters accepted by the doctor appointment list.
const (
	FilterAll     = "all"
	FilterToday   = "today"
	FilterNextDay = "next_day"
	FilterWeek    = "week"
)

// Timing is a recurring weekly window in which a doctor sees patients.
type Timing struct {
	ID          uuid.UUID `json:"id"`
	DoctorID    uuid.UUID `json:"doctor_id"`
	DoctorName  *string   `json:"doctor_name,omitempty"`
	DayOfWeek   string    `json:"day_of_week"`
	StartTime   string    `json:"start_time"`
	EndTime     string    `json:"end_time"`
	SlotMinutes int       `json:"slot_minutes,omitempty"`
	Slots       []*Slot   `json:"slots,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type Slot struct {
	ID        uuid.UUID `json:"id"`
	TimingID  uuid.UUID `json:"timing_id"`
	SlotStart string    `json:"slot_start"`
	SlotEnd   string    `json:"slot_end"`
	IsBooked  bool      `json:"is_booked"`
}

type DoctorWithTimings struct {
	DoctorID       uuid.UUID `json:"doctor_id"`
	Name           string    `json:"name"`
	DepartmentName *string   `json:"department_name,omitempty"`
}

type Appointment struct {
	ID              uuid.UUID `json:"id"`
	PatientID       uuid.UUID `json:"patient_id"`
	DoctorID        uuid.UUID `json:"doctor_id"`
	TimingID        uuid.UUID `json:"timing_id"`
	SlotID          uuid.UUID `json:"slot_id"`
	AppointmentMode string    `json:"appointment_mode"`
	Date            string    `json:"date"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// AppointmentView is an appointment joined with the names the desk and
// doctor screens show.
type AppointmentView struct {
	ID              uuid.UUID `json:"id"`
	Date            string    `json:"date"`
	AppointmentMode string    `json:"appointment_mode"`
	Status          string    `json:"status"`
	PatientID       uuid.UUID `json:"patient_id"`
	PatientName     string    `json:"patient_name"`
	Phone           *string   `json:"phone,omitempty"`
	Gender          *string   `json:"gender,omitempty"`
	BloodGroup      *string   `json:"blood_group,omitempty"`
	DoctorID        uuid.UUID `json:"doctor_id"`
	DoctorName      string    `json:"doctor_name"`
	DepartmentName  *string   `json:"department_name,omitempty"`
	TimingID        uuid.UUID `json:"timing_id"`
	DayOfWeek       string    `json:"day_of_week"`
	StartTime       string    `json:"start_time"`
	EndTime         string    `json:"end_time"`
	SlotID          uuid.UUID `json:"slot_id"`
	SlotStart       string    `json:"slot_start"`
	SlotEnd         string    `json:"slot_end"`
	IsFollowUp      bool      `json:"is_follow_up"`
}

type PrescriptionSummary struct {
	ID               uuid.UUID `json:"id"`
	Diagnosis        string    `json:"diagnosis"`
	FollowUpRequired bool      `json:"follow_up_required"`
	FollowUpDate     *string   `json:"follow_up_date,omitempty"`
	Notes            *string   `json:"notes,omitempty"`
}

type FeeSummary struct {
	ID       uuid.UUID  `json:"id"`
	Amount   float64    `json:"amount"`
	Status   string     `json:"status"`
	DatePaid *time.Time `json:"date_paid,omitempty"`
}

type AppointmentDetails struct {
	AppointmentView
	Prescription *PrescriptionSummary `json:"prescription"`
	Fee          *FeeSummary          `json:"fee"`
}

type AppointmentStatus struct {
	ID     uuid.UUID `json:"id"`
	Status string    `json:"status"`
}

// DoctorAppointments is the doctor dashboard: open appointments matching the
// filter plus how many were completed today.
type DoctorAppointments struct {
	Appointments   []*AppointmentView `json:"appointments"`
	CompletedCount int                `json:"completed_count"`
	RemainingCount int                `json:"remaining_count"`
}
