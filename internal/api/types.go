package api

import (
	"time"

	"github.com/hernannicolaus/api-turnos-hospital/internal/scheduling"
)

type CreatePatientRequest struct {
	Name           string `json:"name"`
	IdentityNumber string `json:"identity_number"`
}

type PatientResponse struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	IdentityNumber string `json:"identity_number"`
}

type CreateProfessionalRequest struct {
	Name      string `json:"name"`
	Specialty string `json:"specialty"`
}

type ProfessionalResponse struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Specialty string `json:"specialty"`
}

type CreateAppointmentRequest struct {
	PatientID       int64  `json:"patient_id"`
	ProfessionalID  int64  `json:"professional_id"`
	Start           string `json:"start"`
	DurationMinutes int    `json:"duration_minutes"`
}

type AppointmentResponse struct {
	ID              int64     `json:"id"`
	PatientID       int64     `json:"patient_id"`
	ProfessionalID  int64     `json:"professional_id"`
	Start           time.Time `json:"start"`
	DurationMinutes int       `json:"duration_minutes"`
	Status          string    `json:"status"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func toPatientResponse(p *scheduling.Patient) PatientResponse {
	return PatientResponse{
		ID:             p.ID,
		Name:           p.Name,
		IdentityNumber: p.IdentityNumber,
	}
}

func toProfessionalResponse(p *scheduling.Professional) ProfessionalResponse {
	return ProfessionalResponse{
		ID:        p.ID,
		Name:      p.Name,
		Specialty: p.Specialty,
	}
}

func toAppointmentResponse(a *scheduling.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:              a.ID,
		PatientID:       a.PatientID,
		ProfessionalID:  a.ProfessionalID,
		Start:           a.Start,
		DurationMinutes: a.DurationMinutes,
		Status:          string(a.Status),
	}
}
