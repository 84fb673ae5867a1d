package client

import "time"

// connectOutcome is what a Connect call or a resolved waiter ultimately
// produces.
type connectOutcome struct {
	conn *Connection
	err  error
}

// waiter is a pending admission request blocked on pool capacity, queued
// FIFO per key.
type waiter struct {
	key         Key
	proto       Protocol
	resultCh    chan connectOutcome
	deadline    time.Time
	connTimeout time.Duration
	cancelled   bool
}

func (w *waiter) expired(now time.Time) bool {
	return now.After(w.deadline)
}
