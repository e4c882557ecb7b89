package logger

// nopLogger discards everything. Used in tests and as a safe default.
type nopLogger struct{}

func NewNopLogger() Logger { return nopLogger{} }

func (nopLogger) InitLogger()                        {}
func (nopLogger) Debug(...interface{})               {}
func (nopLogger) Debugf(string, ...interface{})      {}
func (nopLogger) Info(...interface{})                {}
func (nopLogger) Infof(string, ...interface{})       {}
func (nopLogger) Warn(...interface{})                {}
func (nopLogger) Warnf(string, ...interface{})       {}
func (nopLogger) Error(...interface{})               {}
func (nopLogger) Errorf(string, ...interface{})      {}
func (nopLogger) Fatal(...interface{})               {}
func (nopLogger) Fatalf(string, ...interface{})      {}
