package scheduling

import (
	"context"
	"sync"
	"time"
)

// MemoryRepository keeps the whole registry and ledger in process
// memory. A single mutex guards every read and write, so callers
// always observe fully committed records. Appointments are held in
// append order, which is the order ListAppointments returns them in.
type MemoryRepository struct {
	mu sync.Mutex

	patients      []Patient
	professionals []Professional
	appointments  []Appointment
	events        []EventLog

	nextPatientID      int64
	nextProfessionalID int64
	nextAppointmentID  int64
	nextEventID        int64
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		nextPatientID:      1,
		nextProfessionalID: 1,
		nextAppointmentID:  1,
		nextEventID:        1,
	}
}

func (r *MemoryRepository) CreatePatient(_ context.Context, name, identityNumber string) (*Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := Patient{
		ID:             r.nextPatientID,
		Name:           name,
		IdentityNumber: identityNumber,
		CreatedAt:      time.Now(),
	}
	r.nextPatientID++
	r.patients = append(r.patients, p)
	return &p, nil
}

func (r *MemoryRepository) GetPatientByID(_ context.Context, id int64) (*Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.patients {
		if p.ID == id {
			cp := p
			return &cp, nil
		}
	}
	return nil, ErrPatientNotFound
}

func (r *MemoryRepository) ListPatients(_ context.Context) ([]Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Patient, len(r.patients))
	copy(out, r.patients)
	return out, nil
}

func (r *MemoryRepository) CreateProfessional(_ context.Context, name, specialty string) (*Professional, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := Professional{
		ID:        r.nextProfessionalID,
		Name:      name,
		Specialty: specialty,
		CreatedAt: time.Now(),
	}
	r.nextProfessionalID++
	r.professionals = append(r.professionals, p)
	return &p, nil
}

func (r *MemoryRepository) GetProfessionalByID(_ context.Context, id int64) (*Professional, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.professionals {
		if p.ID == id {
			cp := p
			return &cp, nil
		}
	}
	return nil, ErrProfessionalNotFound
}

func (r *MemoryRepository) ListProfessionals(_ context.Context) ([]Professional, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Professional, len(r.professionals))
	copy(out, r.professionals)
	return out, nil
}

func (r *MemoryRepository) GetAppointmentByID(_ context.Context, id int64) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, a := range r.appointments {
		if a.ID == id {
			cp := a
			return &cp, nil
		}
	}
	return nil, ErrAppointmentNotFound
}

func (r *MemoryRepository) ListAppointments(_ context.Context, f ListFilter) ([]Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Appointment
	for _, a := range r.appointments {
		if f.Matches(a) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *MemoryRepository) ListReservedByProfessional(_ context.Context, professionalID int64) ([]Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Appointment
	for _, a := range r.appointments {
		if a.ProfessionalID == professionalID && a.Status == StatusReserved {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *MemoryRepository) CreateReservedAppointment(_ context.Context, patientID, professionalID int64, start time.Time, durationMinutes int) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	a := Appointment{
		ID:              r.nextAppointmentID,
		PatientID:       patientID,
		ProfessionalID:  professionalID,
		Start:           start,
		DurationMinutes: durationMinutes,
		Status:          StatusReserved,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	r.nextAppointmentID++
	r.appointments = append(r.appointments, a)
	return &a, nil
}

// UpdateAppointmentStatus is a compare-and-swap: it only applies the
// transition when the current status equals from, mirroring the
// conditional UPDATE of the Postgres repository.
func (r *MemoryRepository) UpdateAppointmentStatus(_ context.Context, id int64, from, to Status) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.appointments {
		if r.appointments[i].ID == id && r.appointments[i].Status == from {
			r.appointments[i].Status = to
			r.appointments[i].UpdatedAt = time.Now()
			cp := r.appointments[i]
			return &cp, nil
		}
	}
	return nil, ErrAppointmentNotFound
}

func (r *MemoryRepository) InsertEvent(_ context.Context, ev EventLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ev.ID = r.nextEventID
	r.nextEventID++
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now()
	}
	r.events = append(r.events, ev)
	return nil
}

// Events returns a snapshot of the audit log, used by tests.
func (r *MemoryRepository) Events() []EventLog {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]EventLog, len(r.events))
	copy(out, r.events)
	return out
}
