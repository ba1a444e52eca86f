package scheduling

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOverlaps(t *testing.T) {
	base := time.Date(2025, 12, 15, 14, 30, 0, 0, time.UTC)

	tests := []struct {
		name   string
		startA time.Time
		durA   int
		startB time.Time
		durB   int
		want   bool
	}{
		{
			name:   "identical intervals",
			startA: base, durA: 30,
			startB: base, durB: 30,
			want: true,
		},
		{
			name:   "partial overlap",
			startA: base, durA: 30,
			startB: base.Add(15 * time.Minute), durB: 30,
			want: true,
		},
		{
			name:   "contained interval",
			startA: base, durA: 60,
			startB: base.Add(15 * time.Minute), durB: 15,
			want: true,
		},
		{
			name:   "back to back does not overlap",
			startA: base, durA: 30,
			startB: base.Add(30 * time.Minute), durB: 30,
			want: false,
		},
		{
			name:   "disjoint intervals",
			startA: base, durA: 30,
			startB: base.Add(2 * time.Hour), durB: 30,
			want: false,
		},
		{
			name:   "one minute past the boundary",
			startA: base, durA: 30,
			startB: base.Add(29 * time.Minute), durB: 30,
			want: true,
		},
		{
			name:   "zero duration is an empty interval",
			startA: base, durA: 0,
			startB: base, durB: 30,
			want: false,
		},
		{
			name:   "negative duration is an empty interval",
			startA: base, durA: -10,
			startB: base.Add(-time.Hour), durB: 240,
			want: false,
		},
		{
			name:   "zero duration inside a longer interval",
			startA: base.Add(10 * time.Minute), durA: 0,
			startB: base, durB: 60,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Overlaps(tt.startA, tt.durA, tt.startB, tt.durB)
			assert.Equal(t, tt.want, got)

			// The predicate is symmetric in its arguments.
			swapped := Overlaps(tt.startB, tt.durB, tt.startA, tt.durA)
			assert.Equal(t, got, swapped, "overlap must be symmetric")
		})
	}
}

func TestParseStatus(t *testing.T) {
	for _, s := range []string{"reserved", "cancelled", "attended"} {
		got, err := ParseStatus(s)
		require.NoError(t, err)
		assert.Equal(t, Status(s), got)
	}

	_, err := ParseStatus("pending")
	assert.Error(t, err)

	_, err = ParseStatus("")
	assert.Error(t, err)
}

func TestStatusTerminal(t *testing.T) {
	assert.False(t, StatusReserved.Terminal())
	assert.True(t, StatusCancelled.Terminal())
	assert.True(t, StatusAttended.Terminal())
}

func TestAppointmentEnd(t *testing.T) {
	start := time.Date(2025, 12, 15, 14, 30, 0, 0, time.UTC)
	a := Appointment{Start: start, DurationMinutes: 45}
	assert.Equal(t, start.Add(45*time.Minute), a.End())
}

func TestListFilterMatches(t *testing.T) {
	start := time.Date(2025, 12, 15, 14, 30, 0, 0, time.UTC)
	appt := Appointment{
		ID:              1,
		ProfessionalID:  7,
		Start:           start,
		DurationMinutes: 30,
		Status:          StatusReserved,
	}

	assert.True(t, ListFilter{}.Matches(appt), "empty filter matches everything")

	from := start
	to := start
	profID := int64(7)
	status := StatusReserved
	assert.True(t, ListFilter{From: &from, To: &to, ProfessionalID: &profID, Status: &status}.Matches(appt),
		"from and to are inclusive of the start instant")

	later := start.Add(time.Minute)
	assert.False(t, ListFilter{From: &later}.Matches(appt))

	earlier := start.Add(-time.Minute)
	assert.False(t, ListFilter{To: &earlier}.Matches(appt))

	otherProf := int64(8)
	assert.False(t, ListFilter{ProfessionalID: &otherProf}.Matches(appt))

	cancelled := StatusCancelled
	assert.False(t, ListFilter{Status: &cancelled}.Matches(appt))
}
