package scheduling

import (
	"context"
	"errors"
	"time"
)

var (
	ErrPatientNotFound      = errors.New("patient not found")
	ErrProfessionalNotFound = errors.New("professional not found")
	ErrAppointmentNotFound  = errors.New("appointment not found")
)

// Repository contains all storage interactions needed by the service.
// Ids are assigned by the repository, sequentially from 1 within each
// record kind. ListAppointments returns records in creation order.
type Repository interface {
	CreatePatient(ctx context.Context, name, identityNumber string) (*Patient, error)
	GetPatientByID(ctx context.Context, id int64) (*Patient, error)
	ListPatients(ctx context.Context) ([]Patient, error)

	CreateProfessional(ctx context.Context, name, specialty string) (*Professional, error)
	GetProfessionalByID(ctx context.Context, id int64) (*Professional, error)
	ListProfessionals(ctx context.Context) ([]Professional, error)

	GetAppointmentByID(ctx context.Context, id int64) (*Appointment, error)
	ListAppointments(ctx context.Context, f ListFilter) ([]Appointment, error)

	// For the overlap check inside the booking critical section
	ListReservedByProfessional(ctx context.Context, professionalID int64) ([]Appointment, error)

	// Creation and status transitions
	CreateReservedAppointment(ctx context.Context, patientID, professionalID int64, start time.Time, durationMinutes int) (*Appointment, error)
	UpdateAppointmentStatus(ctx context.Context, id int64, from, to Status) (*Appointment, error)

	// Event logging
	InsertEvent(ctx context.Context, ev EventLog) error
}
