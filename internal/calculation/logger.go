package calculation

// Logger is the minimal logging surface the simulation engine needs. The
// host wires a real implementation; the default is a no-op so hot paths pay
// nothing.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// NopLogger implements Logger with no output.
type NopLogger struct{}

func (NopLogger) Debugf(format string, args ...any) {}
func (NopLogger) Infof(format string, args ...any)  {}
func (NopLogger) Warnf(format string, args ...any)  {}
func (NopLogger) Errorf(format string, args ...any) {}

// FuncLogger adapts a printf-style function to Logger, routing every level
// to the same sink. Useful for tests and simple hosts.
type FuncLogger func(format string, args ...any)

func (f FuncLogger) Debugf(format string, args ...any) { f(format, args...) }
func (f FuncLogger) Infof(format string, args ...any)  { f(format, args...) }
func (f FuncLogger) Warnf(format string, args ...any)  { f(format, args...) }
func (f FuncLogger) Errorf(format string, args ...any) { f(format, args...) }
