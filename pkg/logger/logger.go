// Package logger is the process-wide logging facade. Backends are attached
// with Init; until then every call is a no-op, so library code can log
// without checking whether a logger was configured.
package logger

import "sync"

// LoggerInstance defines the interface for logging backends.
type LoggerInstance interface {
	Debug(message string, keyvals ...any)
	Info(message string, keyvals ...any)
	Warn(message string, keyvals ...any)
	Error(message string, keyvals ...any)
	Fatal(message string, keyvals ...any)
}

// Logger holds multiple logging backends and dispatches log calls to all of them.
type Logger struct {
	instances []LoggerInstance
}

var (
	mu        sync.RWMutex
	singleton *Logger
)

func getSingleton() *Logger {
	mu.RLock()
	defer mu.RUnlock()
	return singleton
}

// Init installs the backends used by the package-level functions.
// Calling it again replaces the previous set.
func Init(instances ...LoggerInstance) {
	mu.Lock()
	defer mu.Unlock()
	singleton = &Logger{instances: instances}
}

// Debug writes a message at DEBUG level to all configured backends.
func Debug(message string, keyvals ...any) {
	if l := getSingleton(); l != nil {
		for _, instance := range l.instances {
			instance.Debug(message, keyvals...)
		}
	}
}

// Info writes a message at INFO level to all configured backends.
func Info(message string, keyvals ...any) {
	if l := getSingleton(); l != nil {
		for _, instance := range l.instances {
			instance.Info(message, keyvals...)
		}
	}
}

// Warn writes a message at WARN level to all configured backends.
func Warn(message string, keyvals ...any) {
	if l := getSingleton(); l != nil {
		for _, instance := range l.instances {
			instance.Warn(message, keyvals...)
		}
	}
}

// Error writes a message at ERROR level to all configured backends.
func Error(message string, keyvals ...any) {
	if l := getSingleton(); l != nil {
		for _, instance := range l.instances {
			instance.Error(message, keyvals...)
		}
	}
}

// Fatal writes a message at FATAL level and terminates the program.
func Fatal(message string, keyvals ...any) {
	if l := getSingleton(); l != nil {
		for _, instance := range l.instances {
			instance.Fatal(message, keyvals...)
		}
	}
}
