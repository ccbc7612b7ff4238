package clock

import "time"

// Clock is injected wherever "now" affects a decision, so tests can pin it.
type Clock interface {
	Now() time.Time
}

type Real struct{}

func (Real) Now() time.Time { return time.Now() }
