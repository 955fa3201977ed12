package logger

type nopLogger struct{}

// Nop returns a Logger that discards everything. Handy default for components
// whose callers did not wire a logger, and for tests.
func Nop() Logger { return nopLogger{} }

func (nopLogger) Debug(string, ...Field) {}
func (nopLogger) Info(string, ...Field)  {}
func (nopLogger) Warn(string, ...Field)  {}
func (nopLogger) Error(string, ...Field) {}
func (n nopLogger) Named(string) Logger  { return n }
