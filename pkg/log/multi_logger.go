package log

// MultiLogger fans out events to multiple loggers.
// Nil entries are skipped.
type MultiLogger struct {
	loggers []Logger
}

// NewMultiLogger creates a logger that forwards each event to all given loggers.
func NewMultiLogger(loggers ...Logger) *MultiLogger {
	return &MultiLogger{loggers: loggers}
}

// Log forwards the event to every configured logger.
func (m *MultiLogger) Log(event Event) {
	for _, l := range m.loggers {
		if l != nil {
			l.Log(event)
		}
	}
}

var _ Logger = (*MultiLogger)(nil)
