package coordinator

import "time"

// Timer is a pending one-shot continuation.
type Timer interface {
	// Stop cancels the continuation. It returns false if it already ran.
	Stop() bool
}

// Scheduler runs a function once after a delay without blocking the caller.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// TimeScheduler schedules with time.AfterFunc.
type TimeScheduler struct{}

// AfterFunc implements Scheduler.
func (TimeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
