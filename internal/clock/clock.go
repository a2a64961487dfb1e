package clock

import "time"

// Clock abstracts wall time so session timers are testable.
type Clock interface {
	Now() time.Time
}

// System is the production clock.
type System struct{}

func (System) Now() time.Time {
	return time.Now().UTC()
}
