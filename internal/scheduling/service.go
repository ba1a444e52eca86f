package scheduling

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"
	"unicode/utf8"

	"github.com/hernannicolaus/api-turnos-hospital/internal/lock"
)

const (
	EventAppointmentBooked    = "APPOINTMENT_BOOKED"
	EventAppointmentCancelled = "APPOINTMENT_CANCELLED"
	EventAppointmentAttended  = "APPOINTMENT_ATTENDED"
)

const (
	MinDurationMinutes = 1
	MaxDurationMinutes = 240
)

var (
	ErrValidation              = errors.New("validation failed")
	ErrOverlappingAppointment  = errors.New("professional already has a reserved appointment in that time range")
	ErrInvalidStatusTransition = errors.New("appointment is not reserved")
	ErrScheduleBusy            = errors.New("professional schedule is currently being booked, please retry")
)

type Service struct {
	repo   Repository
	locker lock.Locker
}

func NewService(repo Repository, locker lock.Locker) *Service {
	return &Service{
		repo:   repo,
		locker: locker,
	}
}

// RegisterPatient validates the input and stores a new patient with
// the next sequential id.
func (s *Service) RegisterPatient(ctx context.Context, name, identityNumber string) (*Patient, error) {
	if err := validateLength("name", name, 2, 80); err != nil {
		return nil, err
	}
	if err := validateLength("identity_number", identityNumber, 6, 12); err != nil {
		return nil, err
	}

	p, err := s.repo.CreatePatient(ctx, name, identityNumber)
	if err != nil {
		return nil, fmt.Errorf("create patient: %w", err)
	}
	return p, nil
}

func (s *Service) RegisterProfessional(ctx context.Context, name, specialty string) (*Professional, error) {
	if err := validateLength("name", name, 2, 80); err != nil {
		return nil, err
	}
	if err := validateLength("specialty", specialty, 2, 80); err != nil {
		return nil, err
	}

	p, err := s.repo.CreateProfessional(ctx, name, specialty)
	if err != nil {
		return nil, fmt.Errorf("create professional: %w", err)
	}
	return p, nil
}

func (s *Service) GetPatient(ctx context.Context, id int64) (*Patient, error) {
	return s.repo.GetPatientByID(ctx, id)
}

func (s *Service) ListPatients(ctx context.Context) ([]Patient, error) {
	return s.repo.ListPatients(ctx)
}

func (s *Service) GetProfessional(ctx context.Context, id int64) (*Professional, error) {
	return s.repo.GetProfessionalByID(ctx, id)
}

func (s *Service) ListProfessionals(ctx context.Context) ([]Professional, error) {
	return s.repo.ListProfessionals(ctx)
}

// BookAppointment reserves a time slot with a professional for a
// patient. The overlap check and the insert run inside a
// per-professional lock so that concurrent bookings for the same
// professional cannot both pass the check and both commit.
func (s *Service) BookAppointment(ctx context.Context, patientID, professionalID int64, start time.Time, durationMinutes int) (*Appointment, error) {
	if durationMinutes < MinDurationMinutes || durationMinutes > MaxDurationMinutes {
		return nil, fmt.Errorf("%w: duration_minutes must be between %d and %d",
			ErrValidation, MinDurationMinutes, MaxDurationMinutes)
	}

	if _, err := s.repo.GetPatientByID(ctx, patientID); err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load patient: %w", err)
	}

	if _, err := s.repo.GetProfessionalByID(ctx, professionalID); err != nil {
		if errors.Is(err, ErrProfessionalNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load professional: %w", err)
	}

	var created *Appointment

	err := s.locker.WithScheduleLock(ctx, professionalID, func(lockCtx context.Context) error {
		// Inside the critical section scan the professional's reserved
		// appointments; cancelled and attended ones no longer occupy
		// the schedule.
		reserved, err := s.repo.ListReservedByProfessional(lockCtx, professionalID)
		if err != nil {
			return fmt.Errorf("list reserved appointments: %w", err)
		}
		for _, existing := range reserved {
			if Overlaps(existing.Start, existing.DurationMinutes, start, durationMinutes) {
				return ErrOverlappingAppointment
			}
		}

		appt, err := s.repo.CreateReservedAppointment(lockCtx, patientID, professionalID, start, durationMinutes)
		if err != nil {
			return fmt.Errorf("create appointment: %w", err)
		}

		created = appt

		payload := map[string]any{
			"patient_id":       patientID,
			"professional_id":  professionalID,
			"start":            start,
			"duration_minutes": durationMinutes,
		}
		s.logEvent(lockCtx, appt.ID, EventAppointmentBooked, payload)

		return nil
	})

	if err != nil {
		if errors.Is(err, lock.ErrLockNotAcquired) {
			return nil, ErrScheduleBusy
		}
		return nil, err
	}

	return created, nil
}

// CancelAppointment moves a reserved appointment to cancelled, freeing
// the professional's slot for future bookings.
func (s *Service) CancelAppointment(ctx context.Context, id int64) (*Appointment, error) {
	return s.transition(ctx, id, StatusCancelled, EventAppointmentCancelled)
}

// AttendAppointment moves a reserved appointment to attended.
func (s *Service) AttendAppointment(ctx context.Context, id int64) (*Appointment, error) {
	return s.transition(ctx, id, StatusAttended, EventAppointmentAttended)
}

func (s *Service) transition(ctx context.Context, id int64, to Status, eventType string) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	if appt.Status != StatusReserved {
		return nil, ErrInvalidStatusTransition
	}

	updated, err := s.repo.UpdateAppointmentStatus(ctx, id, StatusReserved, to)
	if err != nil {
		// A concurrent transition can win between the read and the
		// compare-and-swap update; the appointment exists but is no
		// longer reserved.
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, ErrInvalidStatusTransition
		}
		return nil, fmt.Errorf("update appointment status: %w", err)
	}

	s.logEvent(ctx, updated.ID, eventType, map[string]any{
		"from": string(StatusReserved),
		"to":   string(to),
	})

	return updated, nil
}

func (s *Service) GetAppointment(ctx context.Context, id int64) (*Appointment, error) {
	return s.repo.GetAppointmentByID(ctx, id)
}

// ListAppointments returns a snapshot of the ledger in creation order,
// narrowed by the filter. It never mutates state.
func (s *Service) ListAppointments(ctx context.Context, f ListFilter) ([]Appointment, error) {
	appts, err := s.repo.ListAppointments(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return appts, nil
}

func (s *Service) logEvent(ctx context.Context, appointmentID int64, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("failed to marshal event payload for %s: %v", eventType, err)
		data = nil
	}

	apptID := appointmentID

	ev := EventLog{
		EventType:     eventType,
		AppointmentID: &apptID,
		Payload:       data,
		CreatedAt:     time.Now(),
	}

	if err := s.repo.InsertEvent(ctx, ev); err != nil {
		log.Printf("failed to insert event log %s for appointment %d: %v", eventType, appointmentID, err)
	}
}

func validateLength(field, value string, min, max int) error {
	n := utf8.RuneCountInString(value)
	if n < min || n > max {
		return fmt.Errorf("%w: %s must be between %d and %d characters", ErrValidation, field, min, max)
	}
	return nil
}
