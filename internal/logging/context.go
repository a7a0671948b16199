package logging

import "context"

type contextKey string

const (
	traceIDKey contextKey = "trace_id"
	spanIDKey  contextKey = "span_id"
)

// TraceIDKey is the context key under which a trace id is stored:
//
//	ctx = context.WithValue(ctx, logging.TraceIDKey(), traceID)
func TraceIDKey() interface{} {
	return traceIDKey
}

// SpanIDKey is the context key under which a span id is stored.
func SpanIDKey() interface{} {
	return spanIDKey
}

// extractContextFields pulls trace_id and span_id out of the context so a
// context-bound logger stamps them onto every line. Returns nil when the
// context carries neither.
func extractContextFields(ctx context.Context) map[string]interface{} {
	if ctx == nil {
		return nil
	}

	var fields map[string]interface{}
	for _, key := range []contextKey{traceIDKey, spanIDKey} {
		value := ctx.Value(key)
		if value == nil {
			continue
		}
		if fields == nil {
			fields = make(map[string]interface{}, 2)
		}
		fields[string(key)] = value
	}
	return fields
}
