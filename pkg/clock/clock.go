package clock

import "time"

// Clock abstracts the current instant so date arithmetic can be pinned in tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// System returns the wall clock in UTC.
func System() Clock { return systemClock{} }

// Func adapts a plain function to Clock.
type Func func() time.Time

func (f Func) Now() time.Time { return f() }

// Fixed always returns t.
func Fixed(t time.Time) Clock { return Func(func() time.Time { return t }) }

// Today truncates an instant to midnight UTC of its calendar day.
func Today(c Clock) time.Time {
	return DateOf(c.Now())
}

// DateOf returns midnight UTC of the calendar day t falls on (in UTC).
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
