package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS patients (
		id              BIGSERIAL PRIMARY KEY,
		name            TEXT NOT NULL,
		identity_number TEXT NOT NULL,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS professionals (
		id         BIGSERIAL PRIMARY KEY,
		name       TEXT NOT NULL,
		specialty  TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS appointments (
		id               BIGSERIAL PRIMARY KEY,
		patient_id       BIGINT NOT NULL REFERENCES patients (id),
		professional_id  BIGINT NOT NULL REFERENCES professionals (id),
		start_time       TIMESTAMPTZ NOT NULL,
		duration_minutes INT NOT NULL,
		status           TEXT NOT NULL,
		created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_appointments_professional_status
		ON appointments (professional_id, status)`,
	`CREATE TABLE IF NOT EXISTS event_logs (
		id             BIGSERIAL PRIMARY KEY,
		event_type     TEXT NOT NULL,
		appointment_id BIGINT,
		payload        JSONB,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

// EnsureSchema creates the tables if they do not exist yet. Every
// statement is idempotent so running it on each startup is safe.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
