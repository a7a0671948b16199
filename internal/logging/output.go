package logging

import (
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"time"
)

const levelFatal = "FATAL"

// writeLog renders one line and routes it: ERROR and FATAL to stderr,
// everything else to stdout. Fields are emitted in sorted key order so lines
// are stable for grepping.
func (l *Logger) writeLog(level, msg string, fields map[string]interface{}) {
	var line strings.Builder
	fmt.Fprintf(&line, "[%s] [%s] %s: %s", GetTimestamp(), level, l.name, msg)

	if len(fields) > 0 {
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		line.WriteString(" |")
		for _, k := range keys {
			fmt.Fprintf(&line, " %s=%v", k, fields[k])
		}
	}

	if level == strError || level == levelFatal {
		fmt.Fprintln(os.Stderr, line.String())
	} else {
		log.Println(line.String())
	}
}

// logf formats a printf-style message and writes it with the logger's
// persistent fields plus any trace fields carried by the attached context.
func (l *Logger) logf(level, msg string, args ...interface{}) {
	contextFields := extractContextFields(l.ctx)

	var merged map[string]interface{}
	if contextFields != nil || len(l.fields) > 0 {
		merged = make(map[string]interface{}, len(contextFields)+len(l.fields))
		for k, v := range contextFields {
			merged[k] = v
		}
		for k, v := range l.fields {
			merged[k] = v
		}
	}

	l.writeLog(level, fmt.Sprintf(msg, args...), merged)
}

// GetTimestamp returns the RFC3339 timestamp for the current line. Tests pin
// it via the LOG_TIMESTAMP environment variable.
func GetTimestamp() string {
	if override := os.Getenv("LOG_TIMESTAMP"); override != "" {
		return override
	}
	return time.Now().Format(time.RFC3339)
}
