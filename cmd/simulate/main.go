// Command simulate hammers the booking endpoint with concurrent
// workers that all target a small set of professionals and
// deliberately overlapping time windows, then reads back every
// reserved appointment and verifies that no professional ended up with
// an overlapping pair. It is an executable check of the scheduling
// invariant under contention.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

type SimConfig struct {
	APIBaseURL    string
	Duration      time.Duration
	Workers       int
	Professionals int
	Patients      int
}

type OperationMetrics struct {
	Total     int64
	Success   int64
	Conflict  int64
	Error     int64
	Latencies []time.Duration
	mu        sync.Mutex
}

func (om *OperationMetrics) Record(latency time.Duration, success, conflict bool) {
	atomic.AddInt64(&om.Total, 1)
	if success {
		atomic.AddInt64(&om.Success, 1)
	} else if conflict {
		atomic.AddInt64(&om.Conflict, 1)
	} else {
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.Latencies = append(om.Latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (avg, min, max, p50, p95 time.Duration) {
	om.mu.Lock()
	defer om.mu.Unlock()

	if len(om.Latencies) == 0 {
		return 0, 0, 0, 0, 0
	}

	latencies := make([]time.Duration, len(om.Latencies))
	copy(latencies, om.Latencies)

	sort.Slice(latencies, func(i, j int) bool {
		return latencies[i] < latencies[j]
	})

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}

	avg = sum / time.Duration(len(latencies))
	min = latencies[0]
	max = latencies[len(latencies)-1]

	p50Idx := len(latencies) * 50 / 100
	if p50Idx >= len(latencies) {
		p50Idx = len(latencies) - 1
	}
	p50 = latencies[p50Idx]

	p95Idx := len(latencies) * 95 / 100
	if p95Idx >= len(latencies) {
		p95Idx = len(latencies) - 1
	}
	p95 = latencies[p95Idx]

	return avg, min, max, p50, p95
}

type appointmentJSON struct {
	ID              int64     `json:"id"`
	ProfessionalID  int64     `json:"professional_id"`
	Start           time.Time `json:"start"`
	DurationMinutes int       `json:"duration_minutes"`
	Status          string    `json:"status"`
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg := SimConfig{}
	flag.StringVar(&cfg.APIBaseURL, "api", "http://127.0.0.1:8080", "API base URL")
	flag.DurationVar(&cfg.Duration, "duration", 15*time.Second, "how long to keep booking")
	flag.IntVar(&cfg.Workers, "workers", 16, "concurrent booking workers")
	flag.IntVar(&cfg.Professionals, "professionals", 4, "professionals to contend over")
	flag.IntVar(&cfg.Patients, "patients", 20, "patients to book for")
	flag.Parse()

	client := &http.Client{Timeout: 5 * time.Second}

	patientIDs, err := createPatients(client, cfg.APIBaseURL, cfg.Patients)
	if err != nil {
		log.Fatalf("create patients: %v", err)
	}
	professionalIDs, err := createProfessionals(client, cfg.APIBaseURL, cfg.Professionals)
	if err != nil {
		log.Fatalf("create professionals: %v", err)
	}

	log.Printf("simulating: workers=%d professionals=%d patients=%d duration=%s",
		cfg.Workers, len(professionalIDs), len(patientIDs), cfg.Duration)

	metrics := &OperationMetrics{}
	// A one-day window sliced into 15-minute starts with 30-minute
	// durations guarantees plenty of genuine conflicts.
	dayStart := time.Now().Add(24 * time.Hour).Truncate(time.Hour)

	var wg sync.WaitGroup
	deadline := time.Now().Add(cfg.Duration)

	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))

			for time.Now().Before(deadline) {
				patientID := patientIDs[rng.Intn(len(patientIDs))]
				professionalID := professionalIDs[rng.Intn(len(professionalIDs))]
				start := dayStart.Add(time.Duration(rng.Intn(96)) * 15 * time.Minute)

				began := time.Now()
				status, err := bookOnce(client, cfg.APIBaseURL, patientID, professionalID, start, 30)
				latency := time.Since(began)

				switch {
				case err != nil:
					metrics.Record(latency, false, false)
				case status == http.StatusCreated:
					metrics.Record(latency, true, false)
				case status == http.StatusConflict:
					metrics.Record(latency, false, true)
				default:
					metrics.Record(latency, false, false)
				}
			}
		}(time.Now().UnixNano() + int64(w))
	}

	wg.Wait()

	avg, min, max, p50, p95 := metrics.Stats()
	log.Printf("bookings: total=%d success=%d conflict=%d error=%d",
		atomic.LoadInt64(&metrics.Total),
		atomic.LoadInt64(&metrics.Success),
		atomic.LoadInt64(&metrics.Conflict),
		atomic.LoadInt64(&metrics.Error))
	log.Printf("latency: avg=%s min=%s max=%s p50=%s p95=%s", avg, min, max, p50, p95)

	violations := 0
	for _, professionalID := range professionalIDs {
		appts, err := listReserved(client, cfg.APIBaseURL, professionalID)
		if err != nil {
			log.Fatalf("list reserved for professional %d: %v", professionalID, err)
		}
		violations += countOverlaps(professionalID, appts)
	}

	if violations > 0 {
		log.Fatalf("INVARIANT VIOLATED: %d overlapping reserved pairs found", violations)
	}
	log.Println("invariant holds: no overlapping reserved appointments")
}

func countOverlaps(professionalID int64, appts []appointmentJSON) int {
	violations := 0
	for i := 0; i < len(appts); i++ {
		for j := i + 1; j < len(appts); j++ {
			a, b := appts[i], appts[j]
			endA := a.Start.Add(time.Duration(a.DurationMinutes) * time.Minute)
			endB := b.Start.Add(time.Duration(b.DurationMinutes) * time.Minute)
			if a.Start.Before(endB) && b.Start.Before(endA) {
				log.Printf("overlap for professional %d: appointment %d and %d", professionalID, a.ID, b.ID)
				violations++
			}
		}
	}
	return violations
}

func createPatients(client *http.Client, baseURL string, count int) ([]int64, error) {
	ids := make([]int64, 0, count)
	for i := 0; i < count; i++ {
		body := map[string]any{
			"name":            fmt.Sprintf("Sim Patient %03d", i),
			"identity_number": fmt.Sprintf("%08d", 10000000+i),
		}
		id, err := postForID(client, baseURL+"/api/patients", body)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func createProfessionals(client *http.Client, baseURL string, count int) ([]int64, error) {
	ids := make([]int64, 0, count)
	for i := 0; i < count; i++ {
		body := map[string]any{
			"name":      fmt.Sprintf("Sim Professional %03d", i),
			"specialty": "Clinica",
		}
		id, err := postForID(client, baseURL+"/api/professionals", body)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func postForID(client *http.Client, url string, body map[string]any) (int64, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return 0, err
	}

	resp, err := client.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		raw, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("POST %s: status %d: %s", url, resp.StatusCode, raw)
	}

	var created struct {
		ID int64 `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return 0, err
	}
	return created.ID, nil
}

func bookOnce(client *http.Client, baseURL string, patientID, professionalID int64, start time.Time, durationMinutes int) (int, error) {
	body := map[string]any{
		"patient_id":       patientID,
		"professional_id":  professionalID,
		"start":            start.Format(time.RFC3339),
		"duration_minutes": durationMinutes,
	}
	data, err := json.Marshal(body)
	if err != nil {
		return 0, err
	}

	resp, err := client.Post(baseURL+"/api/appointments", "application/json", bytes.NewReader(data))
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode, nil
}

func listReserved(client *http.Client, baseURL string, professionalID int64) ([]appointmentJSON, error) {
	url := fmt.Sprintf("%s/api/appointments?professional_id=%d&status=reserved", baseURL, professionalID)
	resp, err := client.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		fmt.Fprintf(os.Stderr, "GET %s: %s\n", url, raw)
		return nil, fmt.Errorf("GET %s: status %d", url, resp.StatusCode)
	}

	var appts []appointmentJSON
	if err := json.NewDecoder(resp.Body).Decode(&appts); err != nil {
		return nil, err
	}
	return appts, nil
}
