package scheduling

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hospital/hms/internal/platform/apperr"
	"github.com/hospital/hms/internal/platform/db"
)

type Service struct {
	timings      TimingRepository
	slots        SlotRepository
	appointments AppointmentRepository
	tx           db.Transactor
	now          func() time.Time
}

func NewService(timings TimingRepository, slots SlotRepository, appointments AppointmentRepository, tx db.Transactor) *Service {
	return &Service{timings: timings, slots: slots, appointments: appointments, tx: tx, now: time.Now}
}

func (s *Service) today() string { return s.now().Format(DateLayout) }

// -- Clinical timings --

// GenerateSlots cuts [start, end) into consecutive slots of the given length.
// A trailing remainder shorter than one slot is dropped.
func GenerateSlots(start, end string, minutes int) ([]*Slot, error) {
	from, err := time.Parse(TimeLayout, start)
	if err != nil {
		return nil, apperr.Validation("start_time must be HH:MM")
	}
	to, err := time.Parse(TimeLayout, end)
	if err != nil {
		return nil, apperr.Validation("end_time must be HH:MM")
	}
	if !to.After(from) {
		return nil, apperr.Validation("end_time must be after start_time")
	}
	if minutes <= 0 {
		return nil, apperr.Validation("slot_minutes must be positive")
	}
	step := time.Duration(minutes) * time.Minute
	slots := []*Slot{}
	for cur := from; !cur.Add(step).After(to); cur = cur.Add(step) {
		slots = append(slots, &Slot{SlotStart: cur.Format(TimeLayout), SlotEnd: cur.Add(step).Format(TimeLayout)})
	}
	if len(slots) == 0 {
		return nil, apperr.Validation("timing is shorter than one %d minute slot", minutes)
	}
	return slots, nil
}

func validDay(day string) (string, bool) {
	for _, d := range Weekdays {
		if strings.EqualFold(d, day) {
			return d, true
		}
	}
	return "", false
}

// CreateTiming stores the timing and its generated slots together.
func (s *Service) CreateTiming(ctx context.Context, t *Timing) error {
	if t.DoctorID == uuid.Nil {
		return apperr.Validation("doctor_id is required")
	}
	day, ok := validDay(strings.TrimSpace(t.DayOfWeek))
	if !ok {
		return apperr.Validation("day_of_week must be one of %s", strings.Join(Weekdays, ", "))
	}
	t.DayOfWeek = day
	if t.SlotMinutes == 0 {
		t.SlotMinutes = DefaultSlotMinutes
	}
	slots, err := GenerateSlots(t.StartTime, t.EndTime, t.SlotMinutes)
	if err != nil {
		return err
	}
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.timings.Create(ctx, t); err != nil {
			return err
		}
		for _, slot := range slots {
			slot.TimingID = t.ID
			if err := s.slots.Create(ctx, slot); err != nil {
				return err
			}
		}
		t.Slots = slots
		return nil
	})
}

func (s *Service) DeleteTiming(ctx context.Context, id uuid.UUID) error {
	return s.timings.Delete(ctx, id)
}

func (s *Service) ListTimings(ctx context.Context) ([]*Timing, error) {
	return s.timings.List(ctx)
}

func (s *Service) ListDoctorTimings(ctx context.Context, doctorID uuid.UUID) ([]*Timing, error) {
	return s.timings.ListByDoctor(ctx, doctorID)
}

func (s *Service) DoctorsWithTimings(ctx context.Context) ([]*DoctorWithTimings, error) {
	return s.timings.DoctorsWithTimings(ctx)
}

// -- Slot ledger --

func (s *Service) ListSlots(ctx context.Context, timingID *uuid.UUID) ([]*Slot, error) {
	return s.slots.List(ctx, timingID)
}

func (s *Service) IsSlotAvailable(ctx context.Context, slotID uuid.UUID) (bool, error) {
	slot, err := s.slots.GetByID(ctx, slotID)
	if err != nil {
		return false, err
	}
	return !slot.IsBooked, nil
}

// Reserve books a free slot. A slot that is already booked is a Conflict.
func (s *Service) Reserve(ctx context.Context, slotID uuid.UUID) error {
	return s.slots.Reserve(ctx, slotID)
}

func (s *Service) Release(ctx context.Context, slotID uuid.UUID) error {
	return s.slots.Release(ctx, slotID)
}

// ResetSlots frees every booked slot that no Scheduled appointment holds.
// Slots held by a live appointment stay booked until it is cancelled,
// completed or expires.
func (s *Service) ResetSlots(ctx context.Context) (int64, error) {
	return s.slots.ResetAll(ctx)
}

// ReleaseExpired cancels Scheduled appointments dated before the given day
// and frees every slot left without a Scheduled holder, in one transaction.
func (s *Service) ReleaseExpired(ctx context.Context, before time.Time) (int64, error) {
	cutoff := before.Format(DateLayout)
	var released int64
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.appointments.CancelExpired(ctx, cutoff); err != nil {
			return err
		}
		n, err := s.slots.ReleaseExpired(ctx, cutoff)
		released = n
		return err
	})
	return released, err
}

// -- Appointments --

func validateAppointment(a *Appointment) error {
	a.AppointmentMode = strings.TrimSpace(a.AppointmentMode)
	a.Date = strings.TrimSpace(a.Date)
	var missing []string
	for _, f := range []struct {
		name  string
		empty bool
	}{
		{"patient_id", a.PatientID == uuid.Nil},
		{"doctor_id", a.DoctorID == uuid.Nil},
		{"timing_id", a.TimingID == uuid.Nil},
		{"slot_id", a.SlotID == uuid.Nil},
		{"appointment_mode", a.AppointmentMode == ""},
		{"date", a.Date == ""},
	} {
		if f.empty {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return apperr.Validation("Missing required fields: %s", strings.Join(missing, ", "))
	}
	if _, err := time.Parse(DateLayout, a.Date); err != nil {
		return apperr.Validation("date must be YYYY-MM-DD")
	}
	return nil
}

func onDay(date string) string {
	d, _ := time.Parse(DateLayout, date)
	return d.Weekday().String()
}

// CreateAppointment reserves the slot and inserts the appointment in one
// transaction, so a lost race leaves neither behind.
func (s *Service) CreateAppointment(ctx context.Context, a *Appointment) error {
	if err := validateAppointment(a); err != nil {
		return err
	}
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		slot, err := s.slots.GetByID(ctx, a.SlotID)
		if err != nil {
			return err
		}
		if slot.TimingID != a.TimingID {
			return apperr.Validation("slot does not belong to the selected timing")
		}
		timing, err := s.timings.GetByID(ctx, a.TimingID)
		if err != nil {
			return err
		}
		if timing.DoctorID != a.DoctorID {
			return apperr.Validation("timing does not belong to the selected doctor")
		}
		if day := onDay(a.Date); !strings.EqualFold(day, timing.DayOfWeek) {
			return apperr.Validation("date %s is a %s but the timing runs on %s", a.Date, day, timing.DayOfWeek)
		}
		if err := s.slots.Reserve(ctx, a.SlotID); err != nil {
			return err
		}
		return s.appointments.Create(ctx, a)
	})
}

// CancelAppointment moves a Scheduled appointment to Cancelled and frees its
// slot.
func (s *Service) CancelAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	var out *Appointment
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		a, err := s.appointments.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if a.Status != StatusScheduled {
			return apperr.Conflict("appointment is already %s", strings.ToLower(a.Status))
		}
		if err := s.appointments.UpdateStatus(ctx, id, StatusCancelled); err != nil {
			return err
		}
		if err := s.slots.Release(ctx, a.SlotID); err != nil {
			return err
		}
		a.Status = StatusCancelled
		out = a
		return nil
	})
	return out, err
}

// LockAppointment reads the appointment with a row lock. It must be called
// inside a transaction.
func (s *Service) LockAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.appointments.GetForUpdate(ctx, id)
}

// MarkCompleted sets a Scheduled appointment to Completed. Callers hold the
// row lock from LockAppointment.
func (s *Service) MarkCompleted(ctx context.Context, a *Appointment) error {
	switch a.Status {
	case StatusCompleted:
		return apperr.Conflict("Appointment already completed")
	case StatusCancelled:
		return apperr.Conflict("Appointment is cancelled")
	}
	if err := s.appointments.UpdateStatus(ctx, a.ID, StatusCompleted); err != nil {
		return err
	}
	a.Status = StatusCompleted
	return nil
}

func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.appointments.GetByID(ctx, id)
}

func (s *Service) AppointmentDetails(ctx context.Context, id uuid.UUID) (*AppointmentDetails, error) {
	return s.appointments.Details(ctx, id)
}

func (s *Service) AppointmentStatus(ctx context.Context, id uuid.UUID) (*AppointmentStatus, error) {
	a, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &AppointmentStatus{ID: a.ID, Status: a.Status}, nil
}

func (s *Service) ListAppointments(ctx context.Context) ([]*AppointmentView, error) {
	return s.appointments.List(ctx)
}

func (s *Service) ListPatientAppointments(ctx context.Context, patientID uuid.UUID) ([]*AppointmentView, error) {
	return s.appointments.ListForPatient(ctx, patientID)
}

// DoctorAppointments lists the doctor's open appointments for the filter and
// counts those completed today. The doctor is addressed by staff id.
func (s *Service) DoctorAppointments(ctx context.Context, staffID uuid.UUID, filter string) (*DoctorAppointments, error) {
	switch filter {
	case "":
		filter = FilterAll
	case FilterAll, FilterToday, FilterNextDay, FilterWeek:
	default:
		return nil, apperr.Validation("filter must be one of all, today, next_day, week")
	}
	doctorID, err := s.appointments.DoctorIDForStaff(ctx, staffID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, apperr.NotFound("Doctor not found")
		}
		return nil, err
	}
	today := s.today()
	items, err := s.appointments.ListOpenForDoctor(ctx, doctorID, filter, today)
	if err != nil {
		return nil, err
	}
	completed, err := s.appointments.CountCompleted(ctx, doctorID, today)
	if err != nil {
		return nil, err
	}
	return &DoctorAppointments{Appointments: items, CompletedCount: completed, RemainingCount: len(items)}, nil
}
