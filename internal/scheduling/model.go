package scheduling

import (
	"fmt"
	"time"
)

type Status string

const (
	StatusReserved  Status = "reserved"
	StatusCancelled Status = "cancelled"
	StatusAttended  Status = "attended"
)

// ParseStatus maps a wire string onto a Status.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusReserved, StatusCancelled, StatusAttended:
		return Status(s), nil
	default:
		return "", fmt.Errorf("unknown appointment status %q", s)
	}
}

// Terminal reports whether no transition is allowed out of s.
func (s Status) Terminal() bool {
	return s == StatusCancelled || s == StatusAttended
}

type Patient struct {
	ID             int64
	Name           string
	IdentityNumber string
	CreatedAt      time.Time
}

type Professional struct {
	ID        int64
	Name      string
	Specialty string
	CreatedAt time.Time
}

type Appointment struct {
	ID              int64
	PatientID       int64
	ProfessionalID  int64
	Start           time.Time
	DurationMinutes int
	Status          Status
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// End is derived from Start and DurationMinutes; it is never stored.
func (a Appointment) End() time.Time {
	return a.Start.Add(time.Duration(a.DurationMinutes) * time.Minute)
}

// Overlaps reports whether the half-open intervals
// [startA, startA+durA) and [startB, startB+durB) intersect.
// Abutting intervals do not overlap, so back-to-back bookings for the
// same professional are allowed. A non-positive duration yields an
// empty interval, which overlaps nothing.
func Overlaps(startA time.Time, durMinutesA int, startB time.Time, durMinutesB int) bool {
	if durMinutesA <= 0 || durMinutesB <= 0 {
		return false
	}
	endA := startA.Add(time.Duration(durMinutesA) * time.Minute)
	endB := startB.Add(time.Duration(durMinutesB) * time.Minute)
	return startA.Before(endB) && startB.Before(endA)
}

// ListFilter narrows ListAppointments; nil fields impose no constraint.
// From and To compare against the appointment start, both inclusive.
type ListFilter struct {
	From           *time.Time
	To             *time.Time
	ProfessionalID *int64
	Status         *Status
}

// Matches applies every set predicate conjunctively.
func (f ListFilter) Matches(a Appointment) bool {
	if f.From != nil && a.Start.Before(*f.From) {
		return false
	}
	if f.To != nil && a.Start.After(*f.To) {
		return false
	}
	if f.ProfessionalID != nil && a.ProfessionalID != *f.ProfessionalID {
		return false
	}
	if f.Status != nil && a.Status != *f.Status {
		return false
	}
	return true
}

type EventLog struct {
	ID            int64
	EventType     string
	AppointmentID *int64
	Payload       []byte
	CreatedAt     time.Time
}
