package domain

import "time"

// TimeLayout is the HH:mm:ss wall-clock format stamped on every message.
const TimeLayout = "15:04:05"

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

func FormatTime(t time.Time) string {
	return t.Format(TimeLayout)
}

// FixedClock always returns the same instant until moved. Useful in tests.
type FixedClock struct {
	At time.Time
}

func (c *FixedClock) Now() time.Time {
	return c.At
}

func (c *FixedClock) Advance(d time.Duration) {
	c.At = c.At.Add(d)
}
