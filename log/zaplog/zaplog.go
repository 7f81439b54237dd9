// Package zaplog adapts a *zap.SugaredLogger to the log.Log interface,
// giving the core structured, leveled logging without any component
// importing zap directly.
package zaplog

import (
	"go.uber.org/zap"

	"github.com/veloce-go/geonet/log"
)

// Logger wraps a zap.SugaredLogger.
type Logger struct {
	s *zap.SugaredLogger
}

// New wraps z. If z is nil, a production zap logger is built.
func New(z *zap.Logger) *Logger {
	if z == nil {
		z, _ = zap.NewProduction()
	}
	return &Logger{s: z.Sugar()}
}

func fields(facility, event string, kv log.KV) []any {
	f := make([]any, 0, 4+2*len(kv))
	f = append(f, "facility", facility, "event", event)
	for k, v := range kv {
		f = append(f, k, v)
	}
	return f
}

func (l *Logger) DEBUG(facility, event string, kv log.KV) {
	l.s.Debugw(event, fields(facility, event, kv)...)
}

func (l *Logger) NOTICE(facility, event string, kv log.KV) {
	l.s.Infow(event, fields(facility, event, kv)...)
}

func (l *Logger) WARNING(facility, event string, kv log.KV) {
	l.s.Warnw(event, fields(facility, event, kv)...)
}

func (l *Logger) ERROR(facility, event string, kv log.KV) {
	l.s.Errorw(event, fields(facility, event, kv)...)
}

// Sync flushes buffered log entries, matching zap's own idiom of being
// called once at shutdown (`defer logger.Sync()`).
func (l *Logger) Sync() error { return l.s.Sync() }
