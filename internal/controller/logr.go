package controller

import (
	"fmt"

	"github.com/go-logr/logr"

	"github.com/recist-io/recist/internal/logging"
)

// NewLogr adapts the operator logger to the logr.Logger that
// controller-runtime expects, so manager and reconciler output shares the
// process log format. Verbosity 0 maps to INFO, everything above to DEBUG.
func NewLogr(name string) logr.Logger {
	return logr.New(&logrSink{name: name, logger: logging.GetLogger(name)})
}

type logrSink struct {
	logger *logging.Logger
	name   string
	fields []logging.LogField
}

func (s *logrSink) Init(logr.RuntimeInfo) {}

// Enabled always reports true; the logging package applies the configured
// level when the record is written.
func (s *logrSink) Enabled(int) bool { return true }

func (s *logrSink) Info(level int, msg string, keysAndValues ...interface{}) {
	if level > 0 {
		s.logger.DebugWithFields(msg, s.combined(keysAndValues)...)
		return
	}
	s.logger.InfoWithFields(msg, s.combined(keysAndValues)...)
}

func (s *logrSink) Error(err error, msg string, keysAndValues ...interface{}) {
	fields := s.combined(keysAndValues)
	if err != nil {
		fields = append(fields, logging.Field("error", err.Error()))
	}
	s.logger.ErrorWithFields(msg, fields...)
}

func (s *logrSink) WithValues(keysAndValues ...interface{}) logr.LogSink {
	return &logrSink{
		logger: s.logger,
		name:   s.name,
		fields: s.combined(keysAndValues),
	}
}

func (s *logrSink) WithName(name string) logr.LogSink {
	full := name
	if s.name != "" {
		full = s.name + "." + name
	}
	fields := make([]logging.LogField, len(s.fields))
	copy(fields, s.fields)
	return &logrSink{
		logger: logging.GetLogger(full),
		name:   full,
		fields: fields,
	}
}

// combined merges the sink's accumulated values with one call's key/value
// pairs into a fresh slice. Non-string keys are stringified; a trailing key
// without a value keeps a nil value.
func (s *logrSink) combined(keysAndValues []interface{}) []logging.LogField {
	fields := make([]logging.LogField, 0, len(s.fields)+(len(keysAndValues)+1)/2)
	fields = append(fields, s.fields...)
	for i := 0; i < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", keysAndValues[i])
		}
		var value interface{}
		if i+1 < len(keysAndValues) {
			value = keysAndValues[i+1]
		}
		fields = append(fields, logging.Field(key, value))
	}
	return fields
}
