package log

// nopLogger discards everything. Mirrors zap.NewNop, useful for tests and
// callers that construct pipeline components without a configured driver.
type nopLogger struct{}

// NewNop returns a Logger that discards all log entries.
func NewNop() Logger { return nopLogger{} }

func (nopLogger) Debug(string, ...Field)  {}
func (nopLogger) Info(string, ...Field)   {}
func (nopLogger) Warn(string, ...Field)   {}
func (nopLogger) Error(string, ...Field)  {}
func (nopLogger) Fatal(string, ...Field)  {}
func (nopLogger) With(...Field) Logger    { return nopLogger{} }
