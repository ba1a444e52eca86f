package scheduling

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Helpers

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient

	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.IdentityNumber,
		&p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}

	return &p, nil
}

func scanProfessional(row pgx.Row) (*Professional, error) {
	var p Professional

	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Specialty,
		&p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfessionalNotFound
		}
		return nil, err
	}

	return &p, nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment

	err := row.Scan(
		&a.ID,
		&a.PatientID,
		&a.ProfessionalID,
		&a.Start,
		&a.DurationMinutes,
		&a.Status,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	return &a, nil
}

func collectAppointments(rows pgx.Rows) ([]Appointment, error) {
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// Interface methods

func (r *PgRepository) CreatePatient(ctx context.Context, name, identityNumber string) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO patients (name, identity_number, created_at)
		VALUES ($1, $2, now())
		RETURNING id, name, identity_number, created_at
	`, name, identityNumber)
	return scanPatient(row)
}

func (r *PgRepository) GetPatientByID(ctx context.Context, id int64) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, identity_number, created_at
		FROM patients
		WHERE id = $1
	`, id)
	return scanPatient(row)
}

func (r *PgRepository) ListPatients(ctx context.Context) ([]Patient, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, identity_number, created_at
		FROM patients
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}

	return result, rows.Err()
}

func (r *PgRepository) CreateProfessional(ctx context.Context, name, specialty string) (*Professional, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO professionals (name, specialty, created_at)
		VALUES ($1, $2, now())
		RETURNING id, name, specialty, created_at
	`, name, specialty)
	return scanProfessional(row)
}

func (r *PgRepository) GetProfessionalByID(ctx context.Context, id int64) (*Professional, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, specialty, created_at
		FROM professionals
		WHERE id = $1
	`, id)
	return scanProfessional(row)
}

func (r *PgRepository) ListProfessionals(ctx context.Context) ([]Professional, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, specialty, created_at
		FROM professionals
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Professional
	for rows.Next() {
		p, err := scanProfessional(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}

	return result, rows.Err()
}

func (r *PgRepository) GetAppointmentByID(ctx context.Context, id int64) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, patient_id, professional_id, start_time, duration_minutes, status, created_at, updated_at
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

// ListAppointments filters on start_time, professional and status.
// ORDER BY id keeps creation order, the ledger's stable list order.
func (r *PgRepository) ListAppointments(ctx context.Context, f ListFilter) ([]Appointment, error) {
	var (
		conds []string
		args  []any
	)

	addCond := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.From != nil {
		addCond("start_time >= $%d", *f.From)
	}
	if f.To != nil {
		addCond("start_time <= $%d", *f.To)
	}
	if f.ProfessionalID != nil {
		addCond("professional_id = $%d", *f.ProfessionalID)
	}
	if f.Status != nil {
		addCond("status = $%d", string(*f.Status))
	}

	query := `
		SELECT id, patient_id, professional_id, start_time, duration_minutes, status, created_at, updated_at
		FROM appointments
	`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY id"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectAppointments(rows)
}

func (r *PgRepository) ListReservedByProfessional(ctx context.Context, professionalID int64) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, patient_id, professional_id, start_time, duration_minutes, status, created_at, updated_at
		FROM appointments
		WHERE professional_id = $1 AND status = 'reserved'
		ORDER BY id
	`, professionalID)
	if err != nil {
		return nil, err
	}
	return collectAppointments(rows)
}

func (r *PgRepository) CreateReservedAppointment(ctx context.Context, patientID, professionalID int64, start time.Time, durationMinutes int) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO appointments (patient_id, professional_id, start_time, duration_minutes, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 'reserved', now(), now())
		RETURNING id, patient_id, professional_id, start_time, duration_minutes, status, created_at, updated_at
	`, patientID, professionalID, start, durationMinutes)

	return scanAppointment(row)
}

func (r *PgRepository) UpdateAppointmentStatus(ctx context.Context, id int64, from, to Status) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		  AND status = $3
		RETURNING id, patient_id, professional_id, start_time, duration_minutes, status, created_at, updated_at
	`, id, to, from)

	return scanAppointment(row)
}

func (r *PgRepository) InsertEvent(ctx context.Context, ev EventLog) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO event_logs (event_type, appointment_id, payload, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
	`, ev.EventType, ev.AppointmentID, ev.Payload, nullableTime(ev.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert event log: %w", err)
	}

	return nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
