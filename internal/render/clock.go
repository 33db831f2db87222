package render

import "time"

// Clock abstracts poll-interval waits so orchestrator tests run without real
// delays.
type Clock interface {
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

// NewRealClock returns a Clock backed by the runtime timer.
func NewRealClock() Clock {
	return realClock{}
}
