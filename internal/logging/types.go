package logging

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// LogLevel orders message severities. Only messages at or above the
// configured level are written.
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
	FATAL
)

const strError = "ERROR"

// levelNames maps level spellings (upper-cased) to levels for parsing.
var levelNames = map[string]LogLevel{
	"DEBUG": DEBUG,
	"INFO":  INFO,
	"WARN":  WARN,
	"ERROR": ERROR,
	"FATAL": FATAL,
}

// LogField is one key=value pair attached to a message.
type LogField struct {
	Key   string
	Value interface{}
}

// Field builds a LogField.
func Field(key string, value interface{}) LogField {
	return LogField{Key: key, Value: value}
}

// Logger writes leveled, named, structured log lines. Instances are
// immutable; WithField/WithFields/WithContext return derived loggers.
type Logger struct {
	level  LogLevel
	name   string
	fields map[string]interface{}
	ctx    context.Context
}

// Per-package level overrides, keyed by exact logger name or a "prefix.*"
// wildcard.
var (
	packageLogLevels = make(map[string]LogLevel)
	packageLogMutex  sync.RWMutex
)

// SetPackageLogLevels replaces the per-package overrides. Keys are exact
// logger names ("eventbus") or wildcards ("agents.*"); values are level
// names. Invalid level names reject the whole map.
func SetPackageLogLevels(levels map[string]string) error {
	if levels == nil {
		return nil
	}

	parsed := make(map[string]LogLevel, len(levels))
	for pkg, name := range levels {
		level, err := parseLevel(name)
		if err != nil {
			return fmt.Errorf("invalid log level for package %q: %w", pkg, err)
		}
		parsed[pkg] = level
	}

	packageLogMutex.Lock()
	packageLogLevels = parsed
	packageLogMutex.Unlock()
	return nil
}

// GetPackageLogLevel resolves the override for a logger name: an exact match
// wins, then the longest matching wildcard. Returns -1 when no override
// applies.
func GetPackageLogLevel(packageName string) LogLevel {
	packageLogMutex.RLock()
	defer packageLogMutex.RUnlock()

	if level, ok := packageLogLevels[packageName]; ok {
		return level
	}

	var matches []string
	for pattern := range packageLogLevels {
		if matchesPattern(packageName, pattern) {
			matches = append(matches, pattern)
		}
	}
	if len(matches) == 0 {
		return LogLevel(-1)
	}
	sort.Slice(matches, func(i, j int) bool { return len(matches[i]) > len(matches[j]) })
	return packageLogLevels[matches[0]]
}

// matchesPattern matches a logger name against an exact name or a "prefix.*"
// wildcard. "agents.*" matches "agents.knowledge" but not "agents" itself or
// "agentsmith".
func matchesPattern(packageName, pattern string) bool {
	if packageName == pattern {
		return true
	}
	prefix, ok := strings.CutSuffix(pattern, ".*")
	if !ok {
		return false
	}
	return strings.HasPrefix(packageName, prefix+".")
}

func parseLevel(name string) (LogLevel, error) {
	if level, ok := levelNames[strings.ToUpper(name)]; ok {
		return level, nil
	}
	return -1, fmt.Errorf("invalid level: %s (must be DEBUG, INFO, WARN, ERROR, or FATAL)", name)
}

// cloneFields copies the field map. Always non-nil so derived loggers can
// write into it.
func cloneFields(src map[string]interface{}) map[string]interface{} {
	dst := make(map[string]interface{}, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
