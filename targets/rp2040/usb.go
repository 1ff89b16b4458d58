//go:build rp2040 || rp2350

package main

import (
	"machine"
	"sync"

	"wanderbot/core"
	"wanderbot/protocol"
)

// maxWriteFailures is how many failed writes mark the host as gone.
const maxWriteFailures = 10

var (
	// encMu guards encoder: log lines arrive from the async log worker,
	// status frames from the main loop.
	encMu   sync.Mutex
	encoder *protocol.Encoder

	consecutiveWriteFailures uint32
	usbWasDisconnected       bool
)

// usbOutput hands every encoded frame straight to USB.
type usbOutput struct{}

func (usbOutput) Output(data []byte) {
	writeUSB(data)
}

// InitUSB configures USB CDC and the frame encoder.
func InitUSB() {
	// machine.Serial is USB CDC on RP2040; the runtime sets the descriptors.
	if err := machine.Serial.Configure(machine.UARTConfig{}); err != nil {
		return
	}
	encoder = protocol.NewEncoder(usbOutput{})
}

// writeLog is the core.LogWriter for firmware builds.
func writeLog(level core.LogLevel, msg string) {
	encMu.Lock()
	defer encMu.Unlock()

	if encoder == nil {
		return
	}
	encoder.EncodeLog(uint8(level), msg)
}

// writeStatus sends one telemetry frame.
func writeStatus(st protocol.Status) {
	encMu.Lock()
	defer encMu.Unlock()

	if encoder == nil {
		return
	}
	encoder.EncodeStatus(st)
}

// writeUSB writes one frame. With nobody listening writes fail; after
// maxWriteFailures in a row frames are dropped unwritten until a write
// succeeds again.
func writeUSB(frame []byte) {
	if usbWasDisconnected && !machine.Serial.DTR() {
		return
	}

	written := 0
	for written < len(frame) {
		n, err := machine.Serial.Write(frame[written:])
		if err != nil || n == 0 {
			consecutiveWriteFailures++
			if consecutiveWriteFailures > maxWriteFailures {
				usbWasDisconnected = true
				consecutiveWriteFailures = 0
			}
			return
		}
		written += n
	}
	consecutiveWriteFailures = 0
	usbWasDisconnected = false
}
