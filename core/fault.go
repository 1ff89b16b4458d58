package core

import "sync/atomic"

// FaultLatch holds a driver fault flag that a pin interrupt sets and the
// control loop reads. It is the only state shared with interrupt context.
type FaultLatch struct {
	flag  uint32 // atomic bool
	trips uint32 // atomic counter
}

// Trip latches a fault. Safe to call from an interrupt handler.
func (l *FaultLatch) Trip() {
	atomic.StoreUint32(&l.flag, 1)
	atomic.AddUint32(&l.trips, 1)
}

// Tripped reports whether a fault was latched since the last Clear.
func (l *FaultLatch) Tripped() bool {
	return atomic.LoadUint32(&l.flag) != 0
}

// Clear resets the latch and reports whether it had been tripped.
func (l *FaultLatch) Clear() bool {
	return atomic.SwapUint32(&l.flag, 0) != 0
}

// Trips returns how many times the latch has been tripped since boot.
func (l *FaultLatch) Trips() uint32 {
	return atomic.LoadUint32(&l.trips)
}
