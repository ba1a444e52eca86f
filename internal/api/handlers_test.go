package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hernannicolaus/api-turnos-hospital/internal/api"
	"github.com/hernannicolaus/api-turnos-hospital/internal/lock"
	"github.com/hernannicolaus/api-turnos-hospital/internal/scheduling"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	repo := scheduling.NewMemoryRepository()
	svc := scheduling.NewService(repo, lock.NewMutexScheduleLocker())

	router := api.NewRouter(api.RouterConfig{
		Service: svc,
		Env:     "test",
		Version: "test",
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		decoded = nil
	}
	return resp, decoded
}

func doJSONList(t *testing.T, url string) (*http.Response, []map[string]any) {
	t.Helper()

	resp, err := http.Get(url)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var decoded []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func TestPing(t *testing.T) {
	srv := newTestServer(t)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/ping", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "pong", body["message"])
}

func TestHealthEndpointsWithMemoryBackend(t *testing.T) {
	srv := newTestServer(t)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/health/live", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/health/ready", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
	deps, ok := body["dependencies"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "memory", deps["store"])
}

func TestPatientEndpoints(t *testing.T) {
	srv := newTestServer(t)

	t.Run("create and fetch", func(t *testing.T) {
		resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/patients", map[string]any{
			"name":            "Juan Perez",
			"identity_number": "30123456",
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		assert.Equal(t, float64(1), body["id"])
		assert.Equal(t, "Juan Perez", body["name"])

		resp, body = doJSON(t, http.MethodGet, srv.URL+"/api/patients/1", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "30123456", body["identity_number"])
	})

	t.Run("validation failure", func(t *testing.T) {
		resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/patients", map[string]any{
			"name":            "J",
			"identity_number": "30123456",
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "validation_failed", body["error"])
	})

	t.Run("missing patient", func(t *testing.T) {
		resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/patients/99", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "patient_not_found", body["error"])
	})

	t.Run("bad id", func(t *testing.T) {
		resp, _ := doJSON(t, http.MethodGet, srv.URL+"/api/patients/abc", nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("list", func(t *testing.T) {
		resp, patients := doJSONList(t, srv.URL+"/api/patients")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Len(t, patients, 1)
	})
}

func TestProfessionalEndpoints(t *testing.T) {
	srv := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/professionals", map[string]any{
		"name":      "Dra. Gomez",
		"specialty": "Clinica",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, float64(1), body["id"])

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/api/professionals/1", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Clinica", body["specialty"])

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/api/professionals/42", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "professional_not_found", body["error"])
}

// TestBookingFlow walks the whole lifecycle over HTTP: register both
// parties, book, collide, cancel, re-check via the filtered listing.
func TestBookingFlow(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/patients", map[string]any{
		"name":            "Juan Perez",
		"identity_number": "30123456",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/professionals", map[string]any{
		"name":      "Dra. Gomez",
		"specialty": "Clinica",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/appointments", map[string]any{
		"patient_id":       1,
		"professional_id":  1,
		"start":            "2025-12-15T14:30",
		"duration_minutes": 30,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, float64(1), body["id"])
	assert.Equal(t, "reserved", body["status"])

	// 14:45 overlaps the 14:30-15:00 booking.
	resp, body = doJSON(t, http.MethodPost, srv.URL+"/api/appointments", map[string]any{
		"patient_id":       1,
		"professional_id":  1,
		"start":            "2025-12-15T14:45",
		"duration_minutes": 30,
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "overlapping_appointment", body["error"])

	// 15:00 abuts the first booking and must succeed.
	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/appointments", map[string]any{
		"patient_id":       1,
		"professional_id":  1,
		"start":            "2025-12-15T15:00",
		"duration_minutes": 30,
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body = doJSON(t, http.MethodPatch, srv.URL+"/api/appointments/1/cancel", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "cancelled", body["status"])

	resp, cancelled := doJSONList(t, srv.URL+"/api/appointments?status=cancelled")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, cancelled, 1)
	assert.Equal(t, float64(1), cancelled[0]["id"])

	resp, body = doJSON(t, http.MethodPatch, srv.URL+"/api/appointments/1/attend", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "invalid_status_transition", body["error"])
}

func TestBookingErrorMapping(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/patients", map[string]any{
		"name":            "Juan Perez",
		"identity_number": "30123456",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/professionals", map[string]any{
		"name":      "Dra. Gomez",
		"specialty": "Clinica",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	tests := []struct {
		name       string
		body       map[string]any
		wantStatus int
		wantError  string
	}{
		{
			name: "unknown patient",
			body: map[string]any{
				"patient_id": 99, "professional_id": 1,
				"start": "2025-12-15T14:30", "duration_minutes": 30,
			},
			wantStatus: http.StatusNotFound,
			wantError:  "patient_not_found",
		},
		{
			name: "unknown professional",
			body: map[string]any{
				"patient_id": 1, "professional_id": 99,
				"start": "2025-12-15T14:30", "duration_minutes": 30,
			},
			wantStatus: http.StatusNotFound,
			wantError:  "professional_not_found",
		},
		{
			name: "zero duration",
			body: map[string]any{
				"patient_id": 1, "professional_id": 1,
				"start": "2025-12-15T14:30", "duration_minutes": 0,
			},
			wantStatus: http.StatusBadRequest,
			wantError:  "validation_failed",
		},
		{
			name: "duration above the cap",
			body: map[string]any{
				"patient_id": 1, "professional_id": 1,
				"start": "2025-12-15T14:30", "duration_minutes": 241,
			},
			wantStatus: http.StatusBadRequest,
			wantError:  "validation_failed",
		},
		{
			name: "unparseable start",
			body: map[string]any{
				"patient_id": 1, "professional_id": 1,
				"start": "mañana", "duration_minutes": 30,
			},
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid_start",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/appointments", tt.body)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantError, body["error"])
		})
	}
}

func TestListAppointmentFilters(t *testing.T) {
	srv := newTestServer(t)

	for i, p := range []map[string]any{
		{"name": "Juan Perez", "identity_number": "30123456"},
	} {
		resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/patients", p)
		require.Equal(t, http.StatusCreated, resp.StatusCode, "patient %d", i)
	}
	for i, p := range []map[string]any{
		{"name": "Dra. Gomez", "specialty": "Clinica"},
		{"name": "Dr. Ruiz", "specialty": "Cardiologia"},
	} {
		resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/professionals", p)
		require.Equal(t, http.StatusCreated, resp.StatusCode, "professional %d", i)
	}

	book := func(professionalID int, start string) {
		resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/appointments", map[string]any{
			"patient_id":       1,
			"professional_id":  professionalID,
			"start":            start,
			"duration_minutes": 30,
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	book(1, "2025-12-15T09:00")
	book(2, "2025-12-15T09:00") // same slot, different professional
	book(1, "2025-12-15T11:00")
	book(1, "2025-12-16T09:00")

	t.Run("by professional", func(t *testing.T) {
		resp, appts := doJSONList(t, srv.URL+"/api/appointments?professional_id=2")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		require.Len(t, appts, 1)
		assert.Equal(t, float64(2), appts[0]["id"])
	})

	t.Run("by date range", func(t *testing.T) {
		url := srv.URL + "/api/appointments?from=2025-12-15T00:00&to=2025-12-15T23:59"
		resp, appts := doJSONList(t, url)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Len(t, appts, 3)
	})

	t.Run("conjunction preserves insertion order", func(t *testing.T) {
		url := srv.URL + "/api/appointments?professional_id=1&status=reserved"
		resp, appts := doJSONList(t, url)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		require.Len(t, appts, 3)
		assert.Equal(t, float64(1), appts[0]["id"])
		assert.Equal(t, float64(3), appts[1]["id"])
		assert.Equal(t, float64(4), appts[2]["id"])
	})

	t.Run("invalid filter values", func(t *testing.T) {
		for _, q := range []string{
			"?from=notadate",
			"?professional_id=abc",
			"?status=pending",
		} {
			resp, _ := doJSON(t, http.MethodGet, srv.URL+"/api/appointments"+q, nil)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "query %s", q)
		}
	})
}

func TestRequestIDHeader(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/ping")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/ping", nil)
	require.NoError(t, err)
	req.Header.Set("X-Request-ID", "fixed-id")
	resp2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, "fixed-id", resp2.Header.Get("X-Request-ID"))
}

func TestGetAppointment(t *testing.T) {
	srv := newTestServer(t)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/appointments/1", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "appointment_not_found", body["error"])
}
