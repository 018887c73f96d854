package core

import (
	"sync/atomic"
)

// Difference applied between the time of a received message
// and the local time after observing it.
const processTimeDifference = 1

// LogicalClock is the Lamport clock of a single node.
type LogicalClock interface {
	// Tick increases the clock and returns the new value. Called
	// before every outgoing message.
	Tick() uint64

	// Observe moves the clock to max(local, remote+1) and returns
	// the new value. Called for every received message.
	Observe(remote uint64) uint64

	// Tock reads the current value.
	Tock() uint64
}

// LamportClock implements the LogicalClock interface using atomic
// operations, so concurrent handlers never interleave a
// read-modify-write.
type LamportClock struct {
	// Logical time.
	index uint64
}

// NewClock creates a clock starting at zero.
func NewClock() LogicalClock {
	return &LamportClock{index: 0}
}

// Tick implements the LogicalClock interface.
func (l *LamportClock) Tick() uint64 {
	return atomic.AddUint64(&l.index, processTimeDifference)
}

// Observe implements the LogicalClock interface.
func (l *LamportClock) Observe(remote uint64) uint64 {
	target := remote + processTimeDifference
	for {
		current := atomic.LoadUint64(&l.index)
		if current >= target {
			return current
		}
		if atomic.CompareAndSwapUint64(&l.index, current, target) {
			return target
		}
	}
}

// Tock implements the LogicalClock interface.
func (l *LamportClock) Tock() uint64 {
	return atomic.LoadUint64(&l.index)
}
