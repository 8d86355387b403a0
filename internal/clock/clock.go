package clock

import (
	"fmt"
	"time"

	"github.com/ncruces/go-strftime"
)

// strftime patterns of the face. %e pads the day of month with a space.
const (
	ClockPattern = "%I:%M %p"  // 02:05 PM
	DatePattern  = "%a, %b %e" // Wed, May  7
)

// Buffer capacities, terminator included.
const (
	ClockCapacity = 9
	DateCapacity  = 12
)

// ClockText is the formatted time of day.
type ClockText string

// DateText is the formatted calendar date.
type DateText string

// Refresh formats now into the clock and date strings.
// It is a pure function: the same instant always yields the same pair.
func Refresh(now time.Time) (ClockText, DateText) {
	c := truncate(strftime.Format(ClockPattern, now), ClockCapacity)
	d := truncate(strftime.Format(DatePattern, now), DateCapacity)
	return ClockText(c), DateText(d)
}

// truncate keeps at most capacity-1 bytes, like strftime into a fixed buffer.
func truncate(s string, capacity int) string {
	if len(s) > capacity-1 {
		return s[:capacity-1]
	}
	return s
}

// Model caches the last formatted pair and the instant it was computed for.
type Model struct {
	loc   *time.Location
	clock ClockText
	date  DateText
	at    time.Time
}

// NewModel creates a Model that formats in loc. A nil loc means time.Local.
func NewModel(loc *time.Location) *Model {
	if loc == nil {
		loc = time.Local
	}
	return &Model{loc: loc}
}

// LoadLocation resolves an IANA zone name. An empty name is the local zone.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", name, err)
	}
	return loc, nil
}

// Update recomputes both strings from now and returns them.
func (m *Model) Update(now time.Time) (ClockText, DateText) {
	now = now.In(m.loc)
	m.clock, m.date = Refresh(now)
	m.at = now.Truncate(time.Minute)
	return m.clock, m.date
}

// Clock returns the cached time string.
func (m *Model) Clock() ClockText {
	return m.clock
}

// Date returns the cached date string.
func (m *Model) Date() DateText {
	return m.date
}

// UpdatedAt returns the minute the cached strings describe.
func (m *Model) UpdatedAt() time.Time {
	return m.at
}

// Location returns the zone used for formatting.
func (m *Model) Location() *time.Location {
	return m.loc
}
