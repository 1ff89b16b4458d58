package core

// Logger is the log sink used by the actuation layer and the scheduler.
// *zap.SugaredLogger satisfies it on the host; DebugLogger on firmware.
type Logger interface {
	Debugf(template string, args ...interface{})
	Infof(template string, args ...interface{})
	Warnf(template string, args ...interface{})
	Errorf(template string, args ...interface{})
}

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) Debugf(string, ...interface{}) {}
func (NopLogger) Infof(string, ...interface{}) {}
func (NopLogger) Warnf(string, ...interface{}) {}
func (NopLogger) Errorf(string, ...interface{}) {}
