//go:build tinygo

package core

import "runtime/interrupt"

// disableInterrupts masks interrupts around event ring updates
func disableInterrupts() interrupt.State {
	return interrupt.Disable()
}

// restoreInterrupts restores the saved mask
func restoreInterrupts(state interrupt.State) {
	interrupt.Restore(state)
}
