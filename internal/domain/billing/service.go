package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hospital/hms/internal/domain/clinical"
	"github.com/hospital/hms/internal/domain/medication"
	"github.com/hospital/hms/internal/domain/scheduling"
	"github.com/hospital/hms/internal/platform/apperr"
	"github.com/hospital/hms/internal/platform/db"
	"github.com/hospital/hms/pkg/pagination"
)

// Appointments is the part of the appointment workflow billing drives.
type Appointments interface {
	GetAppointment(ctx context.Context, id uuid.UUID) (*scheduling.Appointment, error)
	LockAppointment(ctx context.Context, id uuid.UUID) (*scheduling.Appointment, error)
	MarkCompleted(ctx context.Context, a *scheduling.Appointment) error
}

type Prescriptions interface {
	// FindPrescription returns nil when the appointment has none.
	FindPrescription(ctx context.Context, appointmentID uuid.UUID) (*medication.Prescription, error)
}

type Records interface {
	RecordCompletion(ctx context.Context, patientID, appointmentID uuid.UUID, diagnosis string) (bool, error)
	ListRecent(ctx context.Context, patientID uuid.UUID, n int) ([]*clinical.MedicalRecord, error)
}

type Service struct {
	fees          FeeRepository
	appointments  Appointments
	prescriptions Prescriptions
	records       Records
	tx            db.Transactor
	hospitalName  string
	logger        zerolog.Logger
	now           func() time.Time
}

func NewService(fees FeeRepository, appointments Appointments, prescriptions Prescriptions,
	records Records, tx db.Transactor, hospitalName string, logger zerolog.Logger) *Service {
	return &Service{
		fees:          fees,
		appointments:  appointments,
		prescriptions: prescriptions,
		records:       records,
		tx:            tx,
		hospitalName:  hospitalName,
		logger:        logger,
		now:           time.Now,
	}
}

// price works out the doctor fee and medicine lines of an appointment.
func price(a *scheduling.Appointment, rx *medication.Prescription, fees *DoctorFees) (doctorFee float64, followUp bool, lines []*BillLine, medTotal float64) {
	doctorFee = fees.Base
	lines = []*BillLine{}
	if rx == nil {
		return doctorFee, false, lines, 0
	}
	if rx.IsFollowUp(a.Date) {
		doctorFee, followUp = fees.FollowUp, true
	}
	for _, l := range rx.Lines {
		lines = append(lines, &BillLine{
			Name:     l.Name,
			Price:    l.Price,
			Quantity: l.Quantity,
			Total:    l.Price * float64(l.Quantity),
			Usage:    l.Usage,
		})
	}
	return doctorFee, followUp, lines, rx.MedicineTotal()
}

func (s *Service) bill(ctx context.Context, a *scheduling.Appointment, f *Fee, rx *medication.Prescription) (*Bill, error) {
	fees, err := s.fees.DoctorFees(ctx, a.DoctorID)
	if err != nil {
		return nil, err
	}
	_, followUp, lines, _ := price(a, rx, fees)
	parties, err := s.fees.Parties(ctx, a.PatientID, a.DoctorID)
	if err != nil {
		return nil, err
	}
	b := &Bill{
		FeeID:         f.ID,
		AppointmentID: a.ID,
		PatientName:   parties.PatientName,
		DoctorName:    parties.DoctorName,
		DoctorFee:     f.Amount - f.MedicineTotal,
		IsFollowUp:    followUp,
		Medicines:     lines,
		MedicineTotal: f.MedicineTotal,
		Total:         f.Amount,
		Status:        f.Status,
		GeneratedAt:   f.CreatedAt,
	}
	if f.GeneratedBy != nil {
		b.GeneratedBy = *f.GeneratedBy
	}
	if f.DatePaid != nil {
		b.GeneratedAt = *f.DatePaid
	}
	return b, nil
}

// GenerateBill charges a Scheduled appointment and completes it. The fee row,
// the status change and the medical record share one transaction with the
// appointment row locked, so a second request sees the first one's result.
func (s *Service) GenerateBill(ctx context.Context, appointmentID uuid.UUID, generatedBy string) (*Bill, error) {
	var out *Bill
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		a, err := s.appointments.LockAppointment(ctx, appointmentID)
		if err != nil {
			return err
		}
		switch a.Status {
		case scheduling.StatusCompleted:
			return apperr.Conflict("Appointment already completed")
		case scheduling.StatusCancelled:
			return apperr.Conflict("Appointment is cancelled")
		}
		exists, err := s.fees.ExistsForAppointment(ctx, a.ID)
		if err != nil {
			return err
		}
		if exists {
			return apperr.Conflict("Bill already generated for this appointment")
		}

		rx, err := s.prescriptions.FindPrescription(ctx, a.ID)
		if err != nil {
			return err
		}
		fees, err := s.fees.DoctorFees(ctx, a.DoctorID)
		if err != nil {
			return err
		}
		doctorFee, _, _, medTotal := price(a, rx, fees)

		paidAt := s.now()
		f := &Fee{
			PatientID:     a.PatientID,
			AppointmentID: &a.ID,
			DoctorFee:     doctorFee,
			MedicineTotal: medTotal,
			Amount:        doctorFee + medTotal,
			Status:        FeeStatusPaid,
			DatePaid:      &paidAt,
		}
		if generatedBy != "" {
			f.GeneratedBy = &generatedBy
		}
		if err := s.fees.Create(ctx, f); err != nil {
			return err
		}
		if err := s.appointments.MarkCompleted(ctx, a); err != nil {
			return err
		}
		if rx != nil {
			if _, err := s.records.RecordCompletion(ctx, a.PatientID, a.ID, rx.Diagnosis); err != nil {
				return err
			}
		}
		out, err = s.bill(ctx, a, f, rx)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().
		Str("appointment_id", appointmentID.String()).
		Float64("amount", out.Total).
		Msg("bill generated")
	return out, nil
}

// CompleteAppointment moves a Scheduled appointment to Completed. Settling an
// existing fee and writing the medical record follow the commit; their
// failures are logged and do not undo the completion.
func (s *Service) CompleteAppointment(ctx context.Context, appointmentID uuid.UUID) (*scheduling.Appointment, error) {
	var a *scheduling.Appointment
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if a, err = s.appointments.LockAppointment(ctx, appointmentID); err != nil {
			return err
		}
		return s.appointments.MarkCompleted(ctx, a)
	})
	if err != nil {
		return nil, err
	}

	log := s.logger.With().Str("appointment_id", a.ID.String()).Logger()
	if n, err := s.fees.MarkPaid(ctx, a.ID, s.now()); err != nil {
		log.Error().Err(err).Msg("settle fee on completion")
	} else if n > 0 {
		log.Info().Int64("fees", n).Msg("fee marked paid")
	}

	rx, err := s.prescriptions.FindPrescription(ctx, a.ID)
	if err != nil {
		log.Error().Err(err).Msg("load prescription on completion")
		return a, nil
	}
	if rx != nil {
		if _, err := s.records.RecordCompletion(ctx, a.PatientID, a.ID, rx.Diagnosis); err != nil {
			log.Error().Err(err).Msg("write medical record on completion")
		}
	}
	return a, nil
}

// ViewBill returns the printable bill of a completed appointment with the
// patient's most recent medical records.
func (s *Service) ViewBill(ctx context.Context, appointmentID uuid.UUID) (*BillView, error) {
	a, err := s.appointments.GetAppointment(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if a.Status != scheduling.StatusCompleted {
		return nil, apperr.Validation("Bill is available only for completed appointments")
	}
	f, err := s.fees.GetByAppointment(ctx, a.ID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, apperr.NotFound("No bill found for this appointment")
		}
		return nil, err
	}
	rx, err := s.prescriptions.FindPrescription(ctx, a.ID)
	if err != nil {
		return nil, err
	}
	b, err := s.bill(ctx, a, f, rx)
	if err != nil {
		return nil, err
	}
	records, err := s.records.ListRecent(ctx, a.PatientID, clinical.RecentLimit)
	if err != nil {
		return nil, err
	}
	v := &BillView{
		HospitalName:    s.hospitalName,
		AppointmentDate: a.Date,
		Bill:            b,
		MedicalRecords:  records,
	}
	if rx != nil {
		v.Diagnosis = &rx.Diagnosis
	}
	return v, nil
}

func (s *Service) ListFees(ctx context.Context, page pagination.Params) ([]*FeeListItem, int, error) {
	return s.fees.List(ctx, page)
}

// ChargeAdmission records the paid fee of a discharged admission.
func (s *Service) ChargeAdmission(ctx context.Context, patientID, admissionID uuid.UUID, medicineTotal float64, generatedBy string) (*Fee, error) {
	if medicineTotal < 0 {
		return nil, apperr.Validation("medicine total cannot be negative")
	}
	paidAt := s.now()
	f := &Fee{
		PatientID:     patientID,
		AdmissionID:   &admissionID,
		MedicineTotal: medicineTotal,
		Amount:        medicineTotal,
		Status:        FeeStatusPaid,
		DatePaid:      &paidAt,
	}
	if generatedBy != "" {
		f.GeneratedBy = &generatedBy
	}
	if err := s.fees.Create(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}
