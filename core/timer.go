package core

// TimerFreq is the tick rate PWM cycle lengths are expressed in.
const (
	TimerFreq = 12000000 // 12MHz
)

// CycleTicksFromHz converts a PWM carrier frequency into timer ticks.
func CycleTicksFromHz(hz uint32) uint32 {
	if hz == 0 {
		return 0
	}
	return TimerFreq / hz
}

// HzFromCycleTicks converts a cycle length in timer ticks back to Hz.
func HzFromCycleTicks(ticks uint32) uint32 {
	if ticks == 0 {
		return 0
	}
	return TimerFreq / ticks
}

// PeriodNSFromCycleTicks returns the carrier period in nanoseconds.
// period_ns = ticks * 1e9 / TimerFreq
func PeriodNSFromCycleTicks(ticks uint32) uint64 {
	return (uint64(ticks) * 1000000000) / TimerFreq
}
