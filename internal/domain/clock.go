package domain

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// Layouts for selection values.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// DefaultTimezone is the reference timezone for "today" and "now".
const DefaultTimezone = "Europe/Istanbul"

// Clock reports the current instant in the reference timezone.
// Tests inject a clockwork fake for deterministic "today".
type Clock struct {
	clock clockwork.Clock
	loc   *time.Location
}

// NewClock returns a Clock over c in loc. A nil c uses real time and a nil loc uses UTC.
func NewClock(c clockwork.Clock, loc *time.Location) *Clock {
	if c == nil {
		c = clockwork.NewRealClock()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Clock{clock: c, loc: loc}
}

// LoadClock resolves the named timezone and returns a real-time Clock for it.
func LoadClock(name string) (*Clock, error) {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, err
	}
	return NewClock(nil, loc), nil
}

func (c *Clock) Now() time.Time {
	return c.clock.Now().In(c.loc)
}

func (c *Clock) Location() *time.Location {
	return c.loc
}

// Today returns the current date as YYYY-MM-DD.
func (c *Clock) Today() string {
	return c.Now().Format(DateLayout)
}

// NowSelection returns the current date and HH:MM time.
func (c *Clock) NowSelection() (date, hhmm string) {
	now := c.Now()
	return now.Format(DateLayout), now.Format(TimeLayout)
}
