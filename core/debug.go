package core

import "fmt"

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// LogWriter receives one formatted line together with its level.
type LogWriter func(level LogLevel, msg string)

// LogLevel orders log lines by severity.
type LogLevel uint8

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	}
	return "UNKNOWN"
}

// ActuationEvent captures one actuation step for post-mortem analysis
type ActuationEvent struct {
	EventType uint8  // Event type code
	Channel   uint8  // Wheel or pin the event concerns
	Millis    uint32 // Milliseconds since boot
	Value     int32  // Context-dependent value
}

// Event type codes
const (
	EvtDrive      = 1 // DriveWheel issued
	EvtRampStep   = 2 // Ramp interpolation step written
	EvtRampDone   = 3 // Ramp reached its end speed
	EvtStopAll    = 4 // All channels forced to zero
	EvtFault      = 5 // Fault line found asserted
	EvtModeChange = 6 // Scheduler switched mode (Value = mode index, -1 = rest)
)

const (
	EventRingSize = 32 // Keep the last 32 events
)

var (
	// logWriter is the platform output; no-op by default
	logWriter LogWriter = func(LogLevel, string) {}

	// debugEnabled gates DebugLogger.Debugf
	debugEnabled bool = false

	// Event ring buffer (non-blocking, for post-mortem)
	eventRing     [EventRingSize]ActuationEvent
	eventRingHead uint8
	eventEnabled  bool = true

	// Async log output channel
	logChan chan logLine
)

type logLine struct {
	level LogLevel
	msg   string
}

// SetDebugWriter routes log output to a plain line writer (UART, USB...).
// Lines are prefixed with their level.
func SetDebugWriter(writer DebugWriter) {
	logWriter = func(level LogLevel, msg string) {
		writer("[" + level.String() + "] " + msg)
	}
}

// SetLogWriter routes log output to a level-aware writer.
func SetLogWriter(writer LogWriter) {
	if writer == nil {
		writer = func(LogLevel, string) {}
	}
	logWriter = writer
}

// SetDebugEnabled enables or disables debug-level output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// IsDebugEnabled returns whether debug output is enabled
func IsDebugEnabled() bool {
	return debugEnabled
}

// InitAsyncLog starts a goroutine that drains queued lines to the writer.
// Call from main() after SetDebugWriter/SetLogWriter.
func InitAsyncLog(depth int) {
	logChan = make(chan logLine, depth)
	go logOutputWorker()
}

func logOutputWorker() {
	for line := range logChan {
		logWriter(line.level, line.msg)
	}
}

// emit writes synchronously, or queues when async output is running.
// A full queue drops the line.
func emit(level LogLevel, msg string) {
	if logChan == nil {
		logWriter(level, msg)
		return
	}
	select {
	case logChan <- logLine{level: level, msg: msg}:
	default:
	}
}

// DebugLogger implements Logger on top of the platform writer.
type DebugLogger struct{}

func (DebugLogger) Debugf(template string, args ...interface{}) {
	if !debugEnabled {
		return
	}
	emit(LevelDebug, fmt.Sprintf(template, args...))
}

func (DebugLogger) Infof(template string, args ...interface{}) {
	emit(LevelInfo, fmt.Sprintf(template, args...))
}

func (DebugLogger) Warnf(template string, args ...interface{}) {
	emit(LevelWarn, fmt.Sprintf(template, args...))
}

func (DebugLogger) Errorf(template string, args ...interface{}) {
	emit(LevelError, fmt.Sprintf(template, args...))
}

// RecordEvent captures an actuation event in the ring buffer.
// Safe to call from the fault pin interrupt.
func RecordEvent(eventType, channel uint8, millis uint32, value int32) {
	if !eventEnabled {
		return
	}
	state := disableInterrupts()
	idx := eventRingHead
	eventRing[idx] = ActuationEvent{
		EventType: eventType,
		Channel:   channel,
		Millis:    millis,
		Value:     value,
	}
	eventRingHead = (idx + 1) % EventRingSize
	restoreInterrupts(state)
}

// Events returns the recorded events, oldest first.
func Events() []ActuationEvent {
	events := make([]ActuationEvent, 0, EventRingSize)
	start := eventRingHead
	for i := uint8(0); i < EventRingSize; i++ {
		evt := eventRing[(start+i)%EventRingSize]
		if evt.EventType == 0 {
			continue
		}
		events = append(events, evt)
	}
	return events
}

// DumpEventRing writes the ring buffer to the log (call after a fault).
// Lines go straight to the writer, bypassing the async queue.
func DumpEventRing() {
	logWriter(LevelInfo, "[EVENTS] === Actuation Event Dump ===")
	for _, evt := range Events() {
		logWriter(LevelInfo, "[EVENTS] "+eventName(evt.EventType)+
			" ch="+itoa(int(evt.Channel))+
			" t="+utoa(evt.Millis)+
			" v="+itoa(int(evt.Value)))
	}
	logWriter(LevelInfo, "[EVENTS] === End Dump ===")
}

// ClearEventRing clears the event buffer
func ClearEventRing() {
	for i := range eventRing {
		eventRing[i] = ActuationEvent{}
	}
	eventRingHead = 0
}

func eventName(t uint8) string {
	switch t {
	case EvtDrive:
		return "DRIVE"
	case EvtRampStep:
		return "RAMP_STEP"
	case EvtRampDone:
		return "RAMP_DONE"
	case EvtStopAll:
		return "STOP_ALL"
	case EvtFault:
		return "FAULT!"
	case EvtModeChange:
		return "MODE"
	}
	return "UNKNOWN"
}
