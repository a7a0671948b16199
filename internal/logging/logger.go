// Package logging provides structured logging for the ReCiSt operator.
//
// # Design
//
// The operator runs four agents and two reconcilers in one process; when a
// healing pipeline misbehaves the logs are usually all we have. This package
// therefore favors explicit, boring output over clever abstractions: one line
// per message, a named logger per component, and key=value fields that are
// grep-able from kubectl logs.
//
// # Basic Usage
//
// Initialize the logger once at process startup:
//
//	logging.Initialize("info")
//
// Get a named logger per component:
//
//	logger := logging.GetLogger("agents.containment")
//	logger.Info("sweep complete")
//	logger.Info("isolated %d pods", n)
//
// # Structured Fields
//
// Use fields for values that should be searchable:
//
//	logger.InfoWithFields("fault detected",
//	    logging.Field("namespace", fault.Namespace),
//	    logging.Field("pod", fault.PodName),
//	    logging.Field("severity", fault.Severity),
//	)
//
// # Incident Loggers
//
// WithField and WithFields return new Logger instances, so an incident-scoped
// logger can be threaded through a pipeline without mutating the parent:
//
//	incident := logger.WithField("correlation_id", corrID)
//	incident.Info("diagnosis started")
//	incident.Info("diagnosis complete")
//
// # Context Support
//
// WithContext attaches a context.Context; trace_id and span_id values stored
// under TraceIDKey/SpanIDKey are appended to every message from the returned
// logger. This keeps agent logs joinable with exported spans.
//
// # Levels
//
// Five levels in increasing severity: DEBUG, INFO, WARN, ERROR, FATAL. Only
// messages at or above the configured level are emitted. ERROR and FATAL go
// to stderr, everything else to stdout. Fatal terminates the process with
// exit code 1.
//
// # Per-Package Levels
//
// Individual components can be made more or less verbose without touching the
// default level:
//
//	logging.Initialize("info", map[string]string{
//	    "agents.*":           "debug",
//	    "clients.prometheus": "warn",
//	})
//
// Patterns are either exact names ("eventbus") or prefix wildcards
// ("agents.*" matches "agents.diagnosis", "agents.knowledge", ...).
//
// # Thread Safety
//
// Logger instances are immutable and safe for concurrent use. Lazy
// initialization through GetLogger is guarded by sync.Once. Tests can pin
// timestamps via the LOG_TIMESTAMP environment variable and intercept Fatal
// by swapping exitFunc.
package logging

import (
	"context"
	"os"
	"sync"
)

var (
	globalLogger *Logger
	initOnce     sync.Once
	// exitFunc is the function called by Fatal to terminate the program.
	// Defaults to os.Exit, can be overridden for testing.
	exitFunc = os.Exit
)

// Initialize sets the global default level and, optionally, per-package
// overrides such as {"agents.*": "DEBUG", "controller": "WARN"}. An
// unrecognized default level name falls back to INFO. Safe to call again at
// runtime; new levels apply to loggers created afterwards and package
// overrides apply immediately.
func Initialize(levelStr string, packageLevels ...map[string]string) error {
	level, err := parseLevel(levelStr)
	if err != nil {
		level = INFO
	}

	globalLogger = &Logger{
		level: level,
		name:  "recist",
	}

	if len(packageLevels) > 0 && packageLevels[0] != nil {
		if err := SetPackageLogLevels(packageLevels[0]); err != nil {
			return err
		}
	}

	return nil
}

// GetLogger returns a logger with the specified name
// Thread-safe: uses sync.Once to ensure single initialization
func GetLogger(name string) *Logger {
	initOnce.Do(func() {
		if globalLogger == nil {
			_ = Initialize("info")
		}
	})
	return &Logger{
		level:  globalLogger.level,
		name:   name,
		fields: make(map[string]interface{}),
	}
}

// shouldLog checks if a log message at the given level should be output
// Considers both the logger's level and any per-package level overrides
func (l *Logger) shouldLog(level LogLevel) bool {
	if pkgLevel := GetPackageLogLevel(l.name); pkgLevel >= 0 {
		return level >= pkgLevel
	}
	return level >= l.level
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, args ...interface{}) {
	if l.shouldLog(DEBUG) {
		l.logf("DEBUG", msg, args...)
	}
}

// Info logs an info message
func (l *Logger) Info(msg string, args ...interface{}) {
	if l.shouldLog(INFO) {
		l.logf("INFO", msg, args...)
	}
}

// Warn logs a warning message
func (l *Logger) Warn(msg string, args ...interface{}) {
	if l.shouldLog(WARN) {
		l.logf("WARN", msg, args...)
	}
}

// Error logs an error message
func (l *Logger) Error(msg string, args ...interface{}) {
	if l.shouldLog(ERROR) {
		l.logf(strError, msg, args...)
	}
}

// Fatal logs a fatal message and exits the program with code 1
func (l *Logger) Fatal(msg string, args ...interface{}) {
	if l.shouldLog(FATAL) {
		l.logf("FATAL", msg, args...)
		exitFunc(1)
	}
}

// FatalWithFields logs a fatal message with structured fields and exits the program with code 1
func (l *Logger) FatalWithFields(msg string, fields ...LogField) {
	if l.shouldLog(FATAL) {
		l.logWithFields("FATAL", msg, fields...)
		exitFunc(1)
	}
}

// ErrorWithErr logs an error message with an error object
func (l *Logger) ErrorWithErr(msg string, err error, args ...interface{}) {
	if l.shouldLog(ERROR) {
		args = append(args, err)
		l.logf("ERROR", msg+" - %v", args...)
	}
}

// WithName returns a new logger with a custom name
func (l *Logger) WithName(name string) *Logger {
	return &Logger{
		level:  l.level,
		name:   name,
		fields: make(map[string]interface{}),
		ctx:    l.ctx,
	}
}

// WithField adds a structured field to the logger
func (l *Logger) WithField(key string, value interface{}) *Logger {
	newLogger := &Logger{
		level:  l.level,
		name:   l.name,
		fields: cloneFields(l.fields),
		ctx:    l.ctx,
	}
	newLogger.fields[key] = value
	return newLogger
}

// WithFields adds multiple structured fields to the logger
func (l *Logger) WithFields(fields ...LogField) *Logger {
	newLogger := &Logger{
		level:  l.level,
		name:   l.name,
		fields: cloneFields(l.fields),
		ctx:    l.ctx,
	}
	for _, f := range fields {
		newLogger.fields[f.Key] = f.Value
	}
	return newLogger
}

// WithContext returns a new logger with the provided context attached.
// The context is used to extract trace_id and span_id values if present.
// These fields are automatically included in all log messages from the returned logger.
// If ctx is nil, this method returns a logger without context support.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	return &Logger{
		level:  l.level,
		name:   l.name,
		fields: cloneFields(l.fields),
		ctx:    ctx,
	}
}

// DebugWithFields logs a debug message with structured fields
func (l *Logger) DebugWithFields(msg string, fields ...LogField) {
	if l.shouldLog(DEBUG) {
		l.logWithFields("DEBUG", msg, fields...)
	}
}

// InfoWithFields logs an info message with structured fields
func (l *Logger) InfoWithFields(msg string, fields ...LogField) {
	if l.shouldLog(INFO) {
		l.logWithFields("INFO", msg, fields...)
	}
}

// WarnWithFields logs a warning message with structured fields
func (l *Logger) WarnWithFields(msg string, fields ...LogField) {
	if l.shouldLog(WARN) {
		l.logWithFields("WARN", msg, fields...)
	}
}

// ErrorWithFields logs an error message with structured fields
func (l *Logger) ErrorWithFields(msg string, fields ...LogField) {
	if l.shouldLog(ERROR) {
		l.logWithFields(strError, msg, fields...)
	}
}

// logWithFields logs a message with structured fields
func (l *Logger) logWithFields(level, msg string, fields ...LogField) {
	contextFields := extractContextFields(l.ctx)

	// Merge priority (last wins): context fields < logger fields < method fields
	var mergedFields map[string]interface{}
	if contextFields != nil || len(l.fields) > 0 || len(fields) > 0 {
		mergedFields = make(map[string]interface{})

		for k, v := range contextFields {
			mergedFields[k] = v
		}

		for k, v := range l.fields {
			mergedFields[k] = v
		}

		for _, f := range fields {
			mergedFields[f.Key] = f.Value
		}
	}

	l.writeLog(level, msg, mergedFields)
}
