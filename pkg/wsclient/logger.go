package wsclient

// Logger receives diagnostic output for calls. It never affects results.
type Logger interface {
	LogPlain(items ...any)
	LogSuccess(res *SuccessResult, requestHeaders, responseHeaders map[string]string, payload Payload)
	LogFailure(res *ErrorResult, requestHeaders, responseHeaders map[string]string, payload Payload)
}

type noopLogger struct{}

func (noopLogger) LogPlain(...any)                                                          {}
func (noopLogger) LogSuccess(*SuccessResult, map[string]string, map[string]string, Payload) {}
func (noopLogger) LogFailure(*ErrorResult, map[string]string, map[string]string, Payload)   {}

func ensureLogger(log Logger) Logger {
	if log == nil {
		return noopLogger{}
	}
	return log
}
