package clock

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	clockPattern = regexp.MustCompile(`^(0[1-9]|1[0-2]):[0-5][0-9] (AM|PM)$`)
	datePattern  = regexp.MustCompile(`^(Mon|Tue|Wed|Thu|Fri|Sat|Sun), (Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec) [ 123][0-9]$`)
)

func TestRefresh_Literal(t *testing.T) {
	tests := []struct {
		name      string
		at        time.Time
		wantClock ClockText
		wantDate  DateText
	}{
		{
			name:      "afternoon single digit day",
			at:        time.Date(2025, time.May, 7, 14, 5, 0, 0, time.UTC),
			wantClock: "02:05 PM",
			wantDate:  "Wed, May  7",
		},
		{
			name:      "midnight",
			at:        time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
			wantClock: "12:00 AM",
			wantDate:  "Wed, Jan  1",
		},
		{
			name:      "noon",
			at:        time.Date(2024, time.December, 25, 12, 30, 0, 0, time.UTC),
			wantClock: "12:30 PM",
			wantDate:  "Wed, Dec 25",
		},
		{
			name:      "seconds are ignored",
			at:        time.Date(2012, time.May, 16, 11, 26, 59, 999, time.UTC),
			wantClock: "11:26 AM",
			wantDate:  "Wed, May 16",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, d := Refresh(tt.at)
			assert.Equal(t, tt.wantClock, c)
			assert.Equal(t, tt.wantDate, d)
		})
	}
}

func TestRefresh_PatternAndIdempotence(t *testing.T) {
	start := time.Date(2024, time.February, 28, 0, 0, 0, 0, time.UTC)
	// Walk two days in 7-minute steps to cover every hour and both meridiems.
	for at := start; at.Before(start.Add(48 * time.Hour)); at = at.Add(7 * time.Minute) {
		c1, d1 := Refresh(at)
		c2, d2 := Refresh(at)

		require.Equal(t, c1, c2)
		require.Equal(t, d1, d2)
		require.Regexp(t, clockPattern, string(c1), "at %s", at)
		require.Regexp(t, datePattern, string(d1), "at %s", at)
		require.Less(t, len(c1), ClockCapacity)
		require.Less(t, len(d1), DateCapacity)

		assert.Equal(t, at.Weekday().String()[:3], string(d1)[:3])
		assert.Equal(t, at.Month().String()[:3], string(d1)[5:8])
	}
}

func TestModel_Update(t *testing.T) {
	m := NewModel(time.UTC)
	at := time.Date(2025, time.May, 7, 14, 5, 42, 0, time.UTC)

	c, d := m.Update(at)
	assert.Equal(t, ClockText("02:05 PM"), c)
	assert.Equal(t, DateText("Wed, May  7"), d)
	assert.Equal(t, c, m.Clock())
	assert.Equal(t, d, m.Date())
	assert.Equal(t, time.Date(2025, time.May, 7, 14, 5, 0, 0, time.UTC), m.UpdatedAt())
}

func TestModel_UsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	m := NewModel(loc)

	c, _ := m.Update(time.Date(2025, time.May, 7, 12, 5, 0, 0, time.UTC))
	assert.Equal(t, ClockText("02:05 PM"), c)
	assert.Equal(t, loc, m.Location())
}

func TestNewModel_NilLocation(t *testing.T) {
	m := NewModel(nil)
	assert.Equal(t, time.Local, m.Location())
}

func TestLoadLocation(t *testing.T) {
	loc, err := LoadLocation("")
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)

	loc, err = LoadLocation("UTC")
	require.NoError(t, err)
	assert.Equal(t, "UTC", loc.String())

	_, err = LoadLocation("Not/AZone")
	assert.Error(t, err)
}
